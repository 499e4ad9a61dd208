package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chowlabs/chow-backend/pkg/config"
	apperrors "github.com/chowlabs/chow-backend/pkg/errors"
)

func hmacHex(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func testConfig(baseURL string) config.RazorpayConfig {
	return config.RazorpayConfig{
		KeyID:         "rzp_test_key",
		KeySecret:     "rzp_test_secret",
		WebhookSecret: "whsec",
		BaseURL:       baseURL,
	}
}

func TestCheckoutSignatureRoundTrip(t *testing.T) {
	sig := CheckoutSignature("secret", "order_1", "pay_1")
	if !VerifyCheckoutSignature("secret", "order_1", "pay_1", sig) {
		t.Fatal("expected signature to verify")
	}
	if VerifyCheckoutSignature("secret", "order_1", "pay_2", sig) {
		t.Fatal("expected mismatch for different payment id")
	}
	if VerifyCheckoutSignature("other", "order_1", "pay_1", sig) {
		t.Fatal("expected mismatch for different secret")
	}
}

func TestWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)

	valid := hmacHex("whsec", body)
	if !VerifyWebhookSignature("whsec", body, valid) {
		t.Fatal("expected webhook signature to verify")
	}
	if VerifyWebhookSignature("whsec", []byte(`tampered`), valid) {
		t.Fatal("expected tampered body to fail")
	}
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_test_key" || pass != "rzp_test_secret" {
			t.Error("expected basic auth with api keys")
		}
		if r.URL.Path != "/v1/orders" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"order_abc","amount":45000,"currency":"INR","receipt":"rcpt-1","status":"created"}`))
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order, err := client.CreateOrder(context.Background(), 45000, "INR", "rcpt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID != "order_abc" || order.AmountPaise != 45000 {
		t.Fatalf("unexpected order %+v", order)
	}
}

func TestCreateOrderRejectsZeroAmount(t *testing.T) {
	client, err := NewClient(testConfig("https://api.razorpay.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.CreateOrder(context.Background(), 0, "INR", "r"); !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFetchPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/pay_123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"pay_123","order_id":"order_abc","amount":45000,"status":"captured","method":"upi"}`))
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payment, err := client.FetchPayment(context.Background(), "pay_123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !payment.Captured() {
		t.Fatalf("expected captured payment, got %+v", payment)
	}
}

func TestGatewayErrorSurfacesAsDependency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.FetchPayment(context.Background(), "pay_1"); !apperrors.IsCode(err, apperrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
