package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/beatbookings/publish-api/internal/application/webhook"
	"github.com/beatbookings/publish-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestHTTPError_MapsSentinels(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", domain.ErrBadRequest), http.StatusBadRequest},
		{fmt.Errorf("x: %w", domain.ErrSignatureInvalid), http.StatusBadRequest},
		{fmt.Errorf("x: %w", domain.ErrUnauthorized), http.StatusUnauthorized},
		{&domain.QuotaExceededError{PublishedCount: 1, Quota: 1}, http.StatusPaymentRequired},
		{fmt.Errorf("x: %w", domain.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("x: %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", domain.ErrConflict), http.StatusConflict},
		{fmt.Errorf("x: %w", domain.ErrUpstream), http.StatusBadGateway},
		{errors.New("dynamodb: throttled"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		httpError(rr, tt.err)
		assert.Equal(t, tt.want, rr.Code, tt.err.Error())
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	}
}

func TestHTTPError_InternalDetailsNotLeaked(t *testing.T) {
	rr := httptest.NewRecorder()
	httpError(rr, errors.New("dynamodb: table users missing"))

	var body MessageEnvelope
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Error)
}

type mockReconciler struct{ mock.Mock }

func (m *mockReconciler) Handle(ctx context.Context, payload []byte, sig string) (webhook.Outcome, error) {
	args := m.Called(ctx, payload, sig)
	return args.Get(0).(webhook.Outcome), args.Error(1)
}

func TestWebhook_StatusCodes(t *testing.T) {
	tests := []struct {
		name string
		out  webhook.Outcome
		err  error
		want int
	}{
		{"applied", webhook.OutcomeTransitioned, nil, http.StatusOK},
		{"noop acked", webhook.OutcomeCreatorMismatch, nil, http.StatusOK},
		{"bad signature", "", fmt.Errorf("x: %w", domain.ErrSignatureInvalid), http.StatusBadRequest},
		{"malformed", "", fmt.Errorf("x: %w", domain.ErrBadRequest), http.StatusBadRequest},
		{"store down", "", errors.New("throttled"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockReconciler{}
			m.On("Handle", mock.Anything, []byte(`{"id":"evt"}`), "t=1,v1=abc").Return(tt.out, tt.err)

			req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/stripe", bytes.NewBufferString(`{"id":"evt"}`))
			req.Header.Set("Stripe-Signature", "t=1,v1=abc")
			rr := httptest.NewRecorder()
			NewWebhookHandler(m).Stripe(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			m.AssertExpectations(t)
		})
	}
}

func TestWebhook_OversizedBody_Rejected(t *testing.T) {
	m := &mockReconciler{}
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/stripe", strings.NewReader(strings.Repeat("a", maxWebhookBody+1)))
	rr := httptest.NewRecorder()
	NewWebhookHandler(m).Stripe(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	m.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything, mock.Anything)
}
