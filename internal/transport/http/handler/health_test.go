package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func serveHealth(h *HealthHandler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/health-check/{action}", h.Ping)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestHealth_ReadyWithoutCheck(t *testing.T) {
	rr := serveHealth(NewHealthHandler(nil), "/health-check/ready")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHealth_ReadyCheckFailure(t *testing.T) {
	notActive := func(context.Context) error { return errors.New("table not active") }
	rr := serveHealth(NewHealthHandler(notActive), "/health-check/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.NotContains(t, rr.Body.String(), "table not active")
}

func TestHealth_UnknownAction(t *testing.T) {
	rr := serveHealth(NewHealthHandler(nil), "/health-check/reboot")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
