package handler

import (
	"net/http"

	"github.com/beatbookings/publish-api/internal/application/checkout"
	"github.com/beatbookings/publish-api/internal/domain"
	"github.com/beatbookings/publish-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// CheckoutHandler opens payment sessions. The creator always comes from the
// bearer token; any creator field in the body is ignored.
type CheckoutHandler struct {
	svc checkout.Service
}

func NewCheckoutHandler(svc checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

func (h *CheckoutHandler) Open(w http.ResponseWriter, r *http.Request) {
	h.open(w, r, domain.PaymentPurposePublish)
}

func (h *CheckoutHandler) OpenPromo(w http.ResponseWriter, r *http.Request) {
	h.open(w, r, domain.PaymentPurposePromo)
}

func (h *CheckoutHandler) open(w http.ResponseWriter, r *http.Request, purpose string) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req checkout.OpenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.Open(r.Context(), caller, purpose, req.EventID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CheckoutHandler) Payments(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	list, err := h.svc.Payments(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": list})
}

func (h *CheckoutHandler) Payment(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	p, err := h.svc.Payment(r.Context(), caller, chi.URLParam(r, "session_id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
