package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chowlabs/chow-backend/pkg/config"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 4096

// Client wraps the subset of the Razorpay REST API the platform uses: order
// creation at checkout and payment fetch for the verification fallback.
type Client struct {
	httpClient *http.Client
	cfg        config.RazorpayConfig
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

// NewClient builds a gateway client from configuration.
func NewClient(cfg config.RazorpayConfig, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.KeyID) == "" || strings.TrimSpace(cfg.KeySecret) == "" {
		return nil, fmt.Errorf("razorpay key id and secret are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Order is a gateway-side order created ahead of checkout.
type Order struct {
	ID          string `json:"id"`
	AmountPaise int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Status      string `json:"status"`
}

// Payment is the gateway's view of a payment.
type Payment struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	AmountPaise      int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	Method           string `json:"method"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

// Captured reports whether the gateway considers the payment collected.
func (p Payment) Captured() bool {
	return p.Status == "captured"
}

// CreateOrder registers an order with the gateway. Amount is in paise.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*Order, error) {
	if amountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	payload, err := json.Marshal(map[string]any{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal order payload")
	}

	var order Order
	if err := c.do(ctx, http.MethodPost, "/v1/orders", payload, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// FetchPayment force-checks a payment's status server-side instead of
// trusting a client-supplied signature alone.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	var payment Payment
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// VerifyCheckout validates the checkout signature with the configured secret.
func (c *Client) VerifyCheckout(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return VerifyCheckoutSignature(c.cfg.KeySecret, gatewayOrderID, gatewayPaymentID, signature)
}

// VerifyWebhook validates a webhook signature over the raw body.
func (c *Client) VerifyWebhook(body []byte, signature string) bool {
	return VerifyWebhookSignature(c.cfg.WebhookSecret, body, signature)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build gateway request")
	}
	httpReq.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute gateway request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "gateway request failed")
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway response")
	}
	return nil
}
