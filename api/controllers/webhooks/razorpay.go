package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/chowlabs/chow-backend/api/responses"
	razorpaywebhook "github.com/chowlabs/chow-backend/internal/webhooks/razorpay"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/logger"
	"github.com/chowlabs/chow-backend/pkg/razorpay"
)

const razorpaySignatureHeader = "X-Razorpay-Signature"

type RazorpayWebhookService interface {
	HandleEvent(ctx context.Context, event *razorpaywebhook.Event) error
}

// RazorpayWebhookGuard dedupes gateway deliveries by event id.
type RazorpayWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// RazorpayWebhook verifies the gateway's HMAC over the raw body before
// decoding anything, then applies the payment event exactly once.
func RazorpayWebhook(svc RazorpayWebhookService, webhookSecret string, guard RazorpayWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(razorpaySignatureHeader)
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "gateway signature missing"))
			return
		}
		if !razorpay.VerifyWebhookSignature(webhookSecret, payload, signature) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "gateway signature mismatch"))
			return
		}

		var event razorpaywebhook.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode gateway event"))
			return
		}
		eventID := event.EventID
		if eventID == "" {
			// Some gateway configs omit event ids; fall back to the
			// payment id so replays of the same payment still dedupe.
			eventID = event.Payload.Payment.Entity.ID
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, nil)
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			// Unmark so a manual redelivery from the gateway dashboard can
			// still land, but acknowledge receipt regardless; an error
			// status here only buys an infinite redelivery storm.
			_ = guard.Delete(ctx, eventID)
			if logg != nil {
				logg.Error(ctx, "gateway webhook processing failed", err)
			}
		}
		responses.WriteSuccess(w, nil)
	}
}
