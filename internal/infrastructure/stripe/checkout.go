package stripeinfra

import (
	"context"
	"fmt"
	"strings"

	"github.com/beatbookings/publish-api/internal/domain"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
)

// Metadata keys written on every checkout session and read back by the webhook.
const (
	MetaEventID     = "event_id"
	MetaCreatorID   = "creator_id"
	MetaCreatorRole = "creator_role"
	MetaPurpose     = "purpose"
)

// eventIDPlaceholder in redirect URLs is replaced with the event id.
const eventIDPlaceholder = "{EVENT_ID}"

type CheckoutRequest struct {
	EventID       string
	EventTitle    string
	CreatorID     string
	CreatorRole   string
	CustomerEmail string
	Purpose       string
	AmountCents   int64
	Currency      string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Client opens hosted checkout sessions. It carries its own key and backend
// rather than relying on the package-level stripe.Key.
type Client struct {
	sessions session.Client
}

func NewClient(secretKey string) *Client {
	return NewClientWithBackend(secretKey, stripe.GetBackend(stripe.APIBackend))
}

// NewClientWithBackend lets tests point the client at a fake API server.
func NewClientWithBackend(secretKey string, backend stripe.Backend) *Client {
	return &Client{sessions: session.Client{B: backend, Key: secretKey}}
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(req.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(productName(req)),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		ClientReferenceID: stripe.String(req.EventID),
		SuccessURL:        stripe.String(expandURL(req.SuccessURL, req.EventID)),
		CancelURL:         stripe.String(expandURL(req.CancelURL, req.EventID)),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata(MetaEventID, req.EventID)
	params.AddMetadata(MetaCreatorID, req.CreatorID)
	params.AddMetadata(MetaCreatorRole, req.CreatorRole)
	params.AddMetadata(MetaPurpose, req.Purpose)

	s, err := c.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %v: %w", err, domain.ErrUpstream)
	}
	if s.URL == "" {
		return nil, fmt.Errorf("checkout session %s has no url: %w", s.ID, domain.ErrUpstream)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func productName(req CheckoutRequest) string {
	label := "Event publish fee"
	if req.Purpose == domain.PaymentPurposePromo {
		label = "Event promotion"
	}
	if req.EventTitle == "" {
		return label
	}
	return label + ": " + req.EventTitle
}

func expandURL(tmpl, eventID string) string {
	return strings.ReplaceAll(tmpl, eventIDPlaceholder, eventID)
}
