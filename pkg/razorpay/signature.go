package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// CheckoutSignature computes the signature the gateway attaches to a
// successful checkout: HMAC-SHA256 over "orderID|paymentID" keyed by the API
// secret, hex encoded.
func CheckoutSignature(secret, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCheckoutSignature checks a client-supplied checkout signature in
// constant time.
func VerifyCheckoutSignature(secret, gatewayOrderID, gatewayPaymentID, signature string) bool {
	expected := CheckoutSignature(secret, gatewayOrderID, gatewayPaymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the webhook signature computed over the raw
// request body.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
