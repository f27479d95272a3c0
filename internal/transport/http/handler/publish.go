package handler

import (
	"errors"
	"net/http"

	"github.com/beatbookings/publish-api/internal/application/publish"
	"github.com/beatbookings/publish-api/internal/domain"
	"github.com/beatbookings/publish-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// PublishHandler handles eligibility checks and free publishing.
type PublishHandler struct {
	svc      publish.Service
	fee      int64
	currency string
}

func NewPublishHandler(svc publish.Service, fee int64, currency string) *PublishHandler {
	return &PublishHandler{svc: svc, fee: fee, currency: currency}
}

func (h *PublishHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	v, err := h.svc.Eligibility(r.Context(), caller)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *PublishHandler) Publish(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	e, err := h.svc.PublishFree(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		var qe *domain.QuotaExceededError
		if errors.As(err, &qe) {
			writeJSON(w, http.StatusPaymentRequired, PaymentRequiredEnvelope{
				Error:          "payment required",
				PublishedCount: qe.PublishedCount,
				Fee:            h.fee,
				Currency:       h.currency,
			})
			return
		}
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
