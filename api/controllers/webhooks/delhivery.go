package webhooks

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/chowlabs/chow-backend/api/responses"
	delhiverywebhook "github.com/chowlabs/chow-backend/internal/webhooks/delhivery"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/logger"
)

const delhiverySecretHeader = "X-Delhivery-Signature"

type DelhiveryWebhookService interface {
	HandleEvent(ctx context.Context, event *delhiverywebhook.Event) error
}

// DelhiveryWebhook applies carrier scan pushes. The handler answers 200 for
// every event it actually received, including ones that fail to process;
// anything else puts the carrier into an endless redelivery loop against an
// event that will never succeed. Failures are logged for the sweep and the
// intervention queue to catch up on.
func DelhiveryWebhook(svc DelhiveryWebhookService, secret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		if secret != "" {
			provided := r.Header.Get(delhiverySecretHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "carrier signature mismatch"))
				return
			}
		}

		// The carrier payload carries far more fields than we read, so a
		// strict decode is not an option here.
		var event delhiverywebhook.Event
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode carrier event"))
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil && logg != nil {
			logg.Error(ctx, "carrier webhook processing failed", err)
		}
		responses.WriteSuccess(w, nil)
	}
}
