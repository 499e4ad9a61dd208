package enums

import "fmt"

// PaymentSource records which of the three independent call sites observed
// a captured payment: the gateway webhook, the synchronous verification
// fallback, or a manual reconciliation by an operator.
type PaymentSource string

const (
	PaymentSourceWebhook      PaymentSource = "webhook"
	PaymentSourceVerification PaymentSource = "verification"
	PaymentSourceManual       PaymentSource = "manual"
)

var validPaymentSources = []PaymentSource{
	PaymentSourceWebhook,
	PaymentSourceVerification,
	PaymentSourceManual,
}

// String implements fmt.Stringer.
func (s PaymentSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PaymentSource.
func (s PaymentSource) IsValid() bool {
	for _, candidate := range validPaymentSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePaymentSource converts raw input into a PaymentSource.
func ParsePaymentSource(value string) (PaymentSource, error) {
	for _, candidate := range validPaymentSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment source %q", value)
}
