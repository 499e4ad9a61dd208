package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
)

const (
	defaultOSRMBaseURL            = "https://router.project-osrm.org"
	defaultNominatimBaseURL       = "https://nominatim.openstreetmap.org"
	defaultUserAgent              = "chow-backend/1.0"
	requestBodyReadLimit    int64 = 1024
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Latitude  float64
	Longitude float64
}

// Client resolves road distances for local delivery quoting. Geocoding goes
// through Nominatim and routing through OSRM; both are public instances by
// default, so every request carries an identifying User-Agent.
type Client struct {
	httpClient    *http.Client
	osrmBaseURL   string
	nominatimBase string
	userAgent     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithOSRMBaseURL overrides the OSRM routing endpoint.
func WithOSRMBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.osrmBaseURL = trimmed
		}
	}
}

// WithNominatimBaseURL overrides the geocoding endpoint.
func WithNominatimBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.nominatimBase = trimmed
		}
	}
}

// WithUserAgent overrides the User-Agent sent to the public instances.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(ua)
		if trimmed != "" {
			c.userAgent = trimmed
		}
	}
}

// NewClient builds a routing client with sane defaults.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		osrmBaseURL:   defaultOSRMBaseURL,
		nominatimBase: defaultNominatimBaseURL,
		userAgent:     defaultUserAgent,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Geocode resolves a free-form query (typically "pincode, India") to a
// coordinate pair via Nominatim.
func (c *Client) Geocode(ctx context.Context, query string) (LatLng, error) {
	if strings.TrimSpace(query) == "" {
		return LatLng{}, pkgerrors.New(pkgerrors.CodeValidation, "geocode query is required")
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=1",
		strings.TrimRight(c.nominatimBase, "/"), url.QueryEscape(query))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build geocode request")
	}
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute geocode request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "geocode request failed")
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode geocode response")
	}
	if len(results) == 0 {
		return LatLng{}, pkgerrors.New(pkgerrors.CodeNotFound, "no geocode result for query")
	}

	var out LatLng
	if _, err := fmt.Sscanf(results[0].Lat, "%f", &out.Latitude); err != nil {
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse geocode latitude")
	}
	if _, err := fmt.Sscanf(results[0].Lon, "%f", &out.Longitude); err != nil {
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse geocode longitude")
	}
	return out, nil
}

// RouteKm returns the driving distance between two points via OSRM.
func (c *Client) RouteKm(ctx context.Context, from, to LatLng) (float64, error) {
	endpoint := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		strings.TrimRight(c.osrmBaseURL, "/"),
		from.Longitude, from.Latitude, to.Longitude, to.Latitude)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build route request")
	}
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute route request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "route request failed")
	}

	var apiResp struct {
		Code   string `json:"code"`
		Routes []struct {
			Distance float64 `json:"distance"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode route response")
	}
	if apiResp.Code != "Ok" || len(apiResp.Routes) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "no route between points")
	}
	return apiResp.Routes[0].Distance / 1000, nil
}

// EstimateKm resolves both queries and returns the road distance, falling back
// to the great-circle distance when routing is unavailable. Geocoding failures
// are not recoverable and propagate.
func (c *Client) EstimateKm(ctx context.Context, fromQuery, toQuery string) (float64, error) {
	from, err := c.Geocode(ctx, fromQuery)
	if err != nil {
		return 0, err
	}
	to, err := c.Geocode(ctx, toQuery)
	if err != nil {
		return 0, err
	}

	km, err := c.RouteKm(ctx, from, to)
	if err != nil {
		return HaversineKm(from, to), nil
	}
	return km, nil
}
