package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/beatbookings/publish-api/internal/domain"
	stripeinfra "github.com/beatbookings/publish-api/internal/infrastructure/stripe"
)

type OpenRequest struct {
	EventID string `json:"event_id" validate:"required"`
}

type OpenResult struct {
	CheckoutURL       string `json:"checkout_url"`
	CheckoutSessionID string `json:"checkout_session_id"`
}

type Service interface {
	// Open starts a hosted checkout for purpose (publish or promo) on a
	// draft event the caller owns.
	Open(ctx context.Context, caller domain.Caller, purpose, eventID string) (*OpenResult, error)
	Payments(ctx context.Context, caller domain.Caller, eventID string) ([]domain.PendingPayment, error)
	// Payment returns one checkout's audit row; the success page reads it
	// while the webhook is still in flight.
	Payment(ctx context.Context, caller domain.Caller, checkoutSessionID string) (*domain.PendingPayment, error)
}

type eventStore interface {
	Get(ctx context.Context, eventID string) (*domain.Event, error)
}

type paymentStore interface {
	Put(ctx context.Context, p *domain.PendingPayment) error
	Get(ctx context.Context, checkoutSessionID string) (*domain.PendingPayment, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.PendingPayment, error)
}

type processor interface {
	CreateCheckoutSession(ctx context.Context, req stripeinfra.CheckoutRequest) (*stripeinfra.CheckoutSession, error)
}

// Pricing is the flat amount charged per purpose, in minor units.
type Pricing struct {
	PublishFeeCents int64
	PromoFeeCents   int64
	Currency        string
}

func (p Pricing) amount(purpose string) (int64, bool) {
	switch purpose {
	case domain.PaymentPurposePublish:
		return p.PublishFeeCents, true
	case domain.PaymentPurposePromo:
		return p.PromoFeeCents, true
	}
	return 0, false
}

// ServiceDeps holds all dependencies for the checkout service.
type ServiceDeps struct {
	EventRepo   eventStore
	PaymentRepo paymentStore
	Processor   processor
	Pricing     Pricing
	SuccessURL  string
	CancelURL   string
}

type service struct {
	eventRepo   eventStore
	paymentRepo paymentStore
	processor   processor
	pricing     Pricing
	successURL  string
	cancelURL   string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		eventRepo:   deps.EventRepo,
		paymentRepo: deps.PaymentRepo,
		processor:   deps.Processor,
		pricing:     deps.Pricing,
		successURL:  deps.SuccessURL,
		cancelURL:   deps.CancelURL,
	}
}

func (s *service) Open(ctx context.Context, caller domain.Caller, purpose, eventID string) (*OpenResult, error) {
	if caller.UserID == "" {
		return nil, fmt.Errorf("caller not authenticated: %w", domain.ErrUnauthorized)
	}
	amount, ok := s.pricing.amount(purpose)
	if !ok {
		return nil, fmt.Errorf("unknown payment purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	e, err := s.eventRepo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.CreatorID != caller.UserID {
		return nil, fmt.Errorf("only the creator can pay for this event: %w", domain.ErrForbidden)
	}
	if !e.IsDraft() {
		return nil, fmt.Errorf("event is already %s: %w", e.Status, domain.ErrConflict)
	}

	sess, err := s.processor.CreateCheckoutSession(ctx, stripeinfra.CheckoutRequest{
		EventID:       e.EventID,
		EventTitle:    e.Title,
		CreatorID:     e.CreatorID,
		CreatorRole:   e.CreatorRole,
		CustomerEmail: caller.Email,
		Purpose:       purpose,
		AmountCents:   amount,
		Currency:      s.pricing.Currency,
		SuccessURL:    s.successURL,
		CancelURL:     s.cancelURL,
	})
	if err != nil {
		slog.Error("checkout session create failed", "event_id", e.EventID, "purpose", purpose, "err", err)
		return nil, err
	}

	now := time.Now().UTC()
	p := &domain.PendingPayment{
		CheckoutSessionID: sess.ID,
		EventID:           e.EventID,
		CreatorID:         e.CreatorID,
		Purpose:           purpose,
		Status:            domain.PaymentStatusPending,
		Amount:            amount,
		Currency:          s.pricing.Currency,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.paymentRepo.Put(ctx, p); err != nil {
		slog.Error("pending payment not recorded, checkout session orphaned", "checkout_session_id", sess.ID, "err", err)
		return nil, fmt.Errorf("record pending payment: %w", err)
	}
	slog.Info("checkout opened", "event_id", e.EventID, "checkout_session_id", sess.ID, "purpose", purpose, "amount", amount)
	return &OpenResult{CheckoutURL: sess.URL, CheckoutSessionID: sess.ID}, nil
}

// Payments lists the payment audit rows for an event the caller owns.
func (s *service) Payments(ctx context.Context, caller domain.Caller, eventID string) ([]domain.PendingPayment, error) {
	e, err := s.eventRepo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.CreatorID != caller.UserID {
		return nil, fmt.Errorf("only the creator can view payments: %w", domain.ErrForbidden)
	}
	return s.paymentRepo.ListByEvent(ctx, eventID)
}

// Payment hides rows the caller did not open behind domain.ErrNotFound.
func (s *service) Payment(ctx context.Context, caller domain.Caller, checkoutSessionID string) (*domain.PendingPayment, error) {
	if caller.UserID == "" {
		return nil, fmt.Errorf("no caller: %w", domain.ErrUnauthorized)
	}
	p, err := s.paymentRepo.Get(ctx, checkoutSessionID)
	if err != nil {
		return nil, err
	}
	if p.CreatorID != caller.UserID {
		return nil, fmt.Errorf("pending payment not found: %w", domain.ErrNotFound)
	}
	return p, nil
}
