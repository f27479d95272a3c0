package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/beatbookings/publish-api/internal/application/webhook"
	"github.com/beatbookings/publish-api/internal/domain"
)

// maxWebhookBody bounds how much of a delivery is read before verification.
const maxWebhookBody = 64 << 10

type webhookReconciler interface {
	Handle(ctx context.Context, payload []byte, sigHeader string) (webhook.Outcome, error)
}

// WebhookHandler receives payment processor deliveries.
type WebhookHandler struct {
	reconciler webhookReconciler
}

func NewWebhookHandler(reconciler webhookReconciler) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// Stripe answers 2xx for every applied or no-op delivery, 400 for deliveries
// that can never succeed and 500 when a redelivery might.
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	outcome, err := h.reconciler.Handle(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, domain.ErrSignatureInvalid) || errors.Is(err, domain.ErrBadRequest) {
			writeError(w, http.StatusBadRequest, "webhook rejected")
			return
		}
		slog.Error("webhook failed, asking for redelivery", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"received": true, "outcome": outcome})
}
