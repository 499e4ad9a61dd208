package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	razorpaywebhook "github.com/chowlabs/chow-backend/internal/webhooks/razorpay"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
)

const testWebhookSecret = "whsec_test"

type stubRazorpayService struct {
	events []*razorpaywebhook.Event
	err    error
}

func (s *stubRazorpayService) HandleEvent(ctx context.Context, event *razorpaywebhook.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

type stubGuard struct {
	seen    map[string]bool
	deleted []string
}

func (s *stubGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	already := s.seen[eventID]
	s.seen[eventID] = true
	return already, nil
}

func (s *stubGuard) Delete(ctx context.Context, eventID string) error {
	s.deleted = append(s.deleted, eventID)
	delete(s.seen, eventID)
	return nil
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postEvent(t *testing.T, handler http.HandlerFunc, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Razorpay-Signature", signature)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func capturedBody() []byte {
	return []byte(`{"event_id":"evt_001","event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_abc","order_id":"order_xyz","amount":57000,"status":"captured"}}}}`)
}

func TestRazorpayWebhookProcessesSignedEvent(t *testing.T) {
	svc := &stubRazorpayService{}
	guard := &stubGuard{}
	handler := RazorpayWebhook(svc, testWebhookSecret, guard, nil)

	body := capturedBody()
	rec := postEvent(t, handler, body, sign(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.events) != 1 {
		t.Fatalf("expected one handled event, got %d", len(svc.events))
	}
	if svc.events[0].Payload.Payment.Entity.ID != "pay_abc" {
		t.Fatalf("payload lost in decode: %+v", svc.events[0])
	}
}

func TestRazorpayWebhookRejectsBadSignature(t *testing.T) {
	svc := &stubRazorpayService{}
	handler := RazorpayWebhook(svc, testWebhookSecret, &stubGuard{}, nil)

	rec := postEvent(t, handler, capturedBody(), "deadbeef")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(svc.events) != 0 {
		t.Fatalf("unsigned event must not reach the service")
	}
}

func TestRazorpayWebhookRejectsMissingSignature(t *testing.T) {
	handler := RazorpayWebhook(&stubRazorpayService{}, testWebhookSecret, &stubGuard{}, nil)

	rec := postEvent(t, handler, capturedBody(), "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRazorpayWebhookDedupesReplays(t *testing.T) {
	svc := &stubRazorpayService{}
	guard := &stubGuard{}
	handler := RazorpayWebhook(svc, testWebhookSecret, guard, nil)

	body := capturedBody()
	postEvent(t, handler, body, sign(body))
	rec := postEvent(t, handler, body, sign(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("replay must be acknowledged, got %d", rec.Code)
	}
	if len(svc.events) != 1 {
		t.Fatalf("replay must not be handled twice, got %d", len(svc.events))
	}
}

func TestRazorpayWebhookAcksHandlerFailure(t *testing.T) {
	// A processing failure is still a received event. Answering anything
	// but 200 makes the gateway redeliver forever, so the handler logs,
	// unmarks the dedupe key for a manual redelivery, and acknowledges.
	svc := &stubRazorpayService{err: pkgerrors.New(pkgerrors.CodeDependency, "db down")}
	guard := &stubGuard{}
	handler := RazorpayWebhook(svc, testWebhookSecret, guard, nil)

	body := capturedBody()
	rec := postEvent(t, handler, body, sign(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("handler failure must still be acknowledged, got %d", rec.Code)
	}
	if len(guard.deleted) != 1 || guard.deleted[0] != "evt_001" {
		t.Fatalf("failed event must be unmarked for redelivery, deleted=%v", guard.deleted)
	}
}
