package enums

import "fmt"

// UpdateSource identifies the caller requesting a signal mutation. The
// permission gate decides per source which signal it may touch.
type UpdateSource string

const (
	UpdateSourceAdmin   UpdateSource = "ADMIN"
	UpdateSourceWebhook UpdateSource = "WEBHOOK"
)

var validUpdateSources = []UpdateSource{
	UpdateSourceAdmin,
	UpdateSourceWebhook,
}

// String implements fmt.Stringer.
func (s UpdateSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known UpdateSource.
func (s UpdateSource) IsValid() bool {
	for _, candidate := range validUpdateSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseUpdateSource converts raw input into an UpdateSource.
func ParseUpdateSource(value string) (UpdateSource, error) {
	for _, candidate := range validUpdateSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid update source %q", value)
}
