package handler

import (
	"net/http"
	"strings"

	"github.com/beatbookings/publish-api/internal/application/session"
	jwtinfra "github.com/beatbookings/publish-api/internal/infrastructure/jwt"
	"github.com/beatbookings/publish-api/internal/transport/http/middleware"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required,hexadecimal,len=64"`
}

// SessionHandler serves refresh, introspection and sign-out.
type SessionHandler struct {
	svc session.Service
}

func NewSessionHandler(svc session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// Refresh rotates the refresh token and mints a new bearer.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.Refresh(r.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		httpError(w, err)
		return
	}
	writeCredentials(w, AuthEnvelope{AccessToken: res.Bearer, RefreshToken: res.RefreshToken})
}

func (h *SessionHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	claims, ok := bearerClaims(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.GetCurrent(r.Context(), claims.SessionID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionEnvelope{Session: sess, User: sess.User})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := bearerClaims(w, r)
	if !ok {
		return
	}
	if err := h.svc.Logout(r.Context(), claims.SessionID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "signed out"})
}

func bearerClaims(w http.ResponseWriter, r *http.Request) (*jwtinfra.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || claims.SessionID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return claims, true
}
