package stripeinfra

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/beatbookings/publish-api/internal/domain"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Checkout notification types the reconciler acts on.
const (
	TypeCheckoutCompleted           = "checkout.session.completed"
	TypeCheckoutAsyncPaymentSuccess = "checkout.session.async_payment_succeeded"
	TypeCheckoutAsyncPaymentFailed  = "checkout.session.async_payment_failed"
	TypeCheckoutExpired             = "checkout.session.expired"
)

// PaymentStatusPaid is the checkout session payment_status once funds are captured.
const PaymentStatusPaid = "paid"

// Notification is the verified, decoded part of a webhook envelope.
type Notification struct {
	ID                string
	Type              string
	CheckoutSessionID string
	PaymentStatus     string
	AmountTotal       int64
	Currency          string
	Metadata          map[string]string
	Raw               []byte
}

// WebhookVerifier authenticates webhook deliveries with the endpoint secret.
type WebhookVerifier struct {
	secret    string
	tolerance time.Duration
}

func NewWebhookVerifier(secret string, tolerance time.Duration) *WebhookVerifier {
	return &WebhookVerifier{secret: secret, tolerance: tolerance}
}

// Verify checks the Stripe-Signature header against payload and decodes it.
// Authentication failures wrap domain.ErrSignatureInvalid; a signed but
// undecodable checkout object wraps domain.ErrBadRequest.
func (v *WebhookVerifier) Verify(payload []byte, sigHeader string) (*Notification, error) {
	if v.secret == "" {
		return nil, fmt.Errorf("webhook secret not configured: %w", domain.ErrSignatureInvalid)
	}
	evt, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrSignatureInvalid)
	}

	n := &Notification{ID: evt.ID, Type: string(evt.Type), Raw: payload}
	if !strings.HasPrefix(n.Type, "checkout.session.") {
		return n, nil
	}
	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return nil, fmt.Errorf("notification %s has no data object: %w", evt.ID, domain.ErrBadRequest)
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("decode checkout session: %v: %w", err, domain.ErrBadRequest)
	}
	n.CheckoutSessionID = cs.ID
	n.PaymentStatus = string(cs.PaymentStatus)
	n.AmountTotal = cs.AmountTotal
	n.Currency = string(cs.Currency)
	n.Metadata = cs.Metadata
	return n, nil
}
