// Package webhook reconciles payment processor notifications into event
// state. Deliveries are at-least-once and unordered, so every step is a
// conditional write or a read-then-skip.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/beatbookings/publish-api/internal/domain"
	s3infra "github.com/beatbookings/publish-api/internal/infrastructure/s3"
	stripeinfra "github.com/beatbookings/publish-api/internal/infrastructure/stripe"
)

// Outcome says what a delivery did. Every outcome except an error is acked.
type Outcome string

const (
	OutcomeTransitioned     Outcome = "transitioned"
	OutcomeAlreadyPublished Outcome = "already_published"
	OutcomeEventMissing     Outcome = "event_missing"
	OutcomeCreatorMismatch  Outcome = "creator_mismatch"
	OutcomePromoRecorded    Outcome = "promo_recorded"
	OutcomePaymentFailed    Outcome = "payment_failed"
	OutcomeAwaitingPayment  Outcome = "awaiting_payment"
	OutcomeMissingMetadata  Outcome = "missing_metadata"
	OutcomeIgnored          Outcome = "ignored"
)

type verifier interface {
	Verify(payload []byte, sigHeader string) (*stripeinfra.Notification, error)
}

type eventStore interface {
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	Publish(ctx context.Context, req domain.PublishRequest) error
}

type paymentStore interface {
	Resolve(ctx context.Context, checkoutSessionID, status string) error
}

type archive interface {
	Store(ctx context.Context, key string, body []byte) (string, error)
}

type notifier interface {
	EventPublished(ctx context.Context, e *domain.Event, via string) error
}

// ReconcilerDeps holds all dependencies for the reconciler.
// Archive and Notifier are optional.
type ReconcilerDeps struct {
	Verifier    verifier
	EventRepo   eventStore
	PaymentRepo paymentStore
	Archive     archive
	Notifier    notifier
}

type Reconciler struct {
	verifier    verifier
	eventRepo   eventStore
	paymentRepo paymentStore
	archive     archive
	notifier    notifier
}

func NewReconciler(deps ReconcilerDeps) *Reconciler {
	return &Reconciler{
		verifier:    deps.Verifier,
		eventRepo:   deps.EventRepo,
		paymentRepo: deps.PaymentRepo,
		archive:     deps.Archive,
		notifier:    deps.Notifier,
	}
}

// Handle verifies and applies one delivery. A returned error means the
// delivery must not be acked: domain.ErrSignatureInvalid and
// domain.ErrBadRequest are permanent, anything else is worth a redelivery.
func (r *Reconciler) Handle(ctx context.Context, payload []byte, sigHeader string) (Outcome, error) {
	n, err := r.verifier.Verify(payload, sigHeader)
	if err != nil {
		slog.Warn("webhook rejected", "err", err)
		return "", err
	}
	r.archiveEnvelope(ctx, n)

	log := slog.With("notification_id", n.ID, "type", n.Type, "checkout_session_id", n.CheckoutSessionID)

	var outcome Outcome
	switch n.Type {
	case stripeinfra.TypeCheckoutCompleted:
		if n.PaymentStatus != stripeinfra.PaymentStatusPaid {
			outcome = OutcomeAwaitingPayment
			break
		}
		outcome, err = r.settle(ctx, log, n)
	case stripeinfra.TypeCheckoutAsyncPaymentSuccess:
		outcome, err = r.settle(ctx, log, n)
	case stripeinfra.TypeCheckoutAsyncPaymentFailed, stripeinfra.TypeCheckoutExpired:
		if err = r.resolvePayment(ctx, log, n.CheckoutSessionID, domain.PaymentStatusFailed); err == nil {
			outcome = OutcomePaymentFailed
		}
	default:
		outcome = OutcomeIgnored
	}
	if err != nil {
		log.Error("webhook processing failed", "err", err)
		return "", err
	}
	log.Info("webhook handled", "outcome", outcome)
	return outcome, nil
}

// settle records a captured payment and, for publish payments, performs the
// draft -> published transition. Context comes only from session metadata.
func (r *Reconciler) settle(ctx context.Context, log *slog.Logger, n *stripeinfra.Notification) (Outcome, error) {
	eventID := n.Metadata[stripeinfra.MetaEventID]
	creatorID := n.Metadata[stripeinfra.MetaCreatorID]
	purpose := n.Metadata[stripeinfra.MetaPurpose]

	// The audit row settles even when the event cannot be matched.
	if err := r.resolvePayment(ctx, log, n.CheckoutSessionID, domain.PaymentStatusCompleted); err != nil {
		return "", err
	}
	if eventID == "" || creatorID == "" {
		log.Warn("checkout session carries no event metadata")
		return OutcomeMissingMetadata, nil
	}
	log = log.With("event_id", eventID, "creator_id", creatorID, "purpose", purpose)

	if purpose == domain.PaymentPurposePromo {
		return OutcomePromoRecorded, nil
	}

	e, err := r.eventRepo.Get(ctx, eventID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn("paid event no longer exists")
		return OutcomeEventMissing, nil
	}
	if err != nil {
		return "", fmt.Errorf("load event: %w", err)
	}
	if e.CreatorID != creatorID {
		log.Warn("metadata creator does not own event", "owner_id", e.CreatorID)
		return OutcomeCreatorMismatch, nil
	}
	if !e.IsDraft() {
		log.Info("event already published, duplicate or late delivery")
		return OutcomeAlreadyPublished, nil
	}

	err = r.eventRepo.Publish(ctx, domain.PublishRequest{
		EventID:   eventID,
		CreatorID: creatorID,
		Via:       domain.PublishedViaPayment,
		At:        time.Now().UTC(),
	})
	if errors.Is(err, domain.ErrConflict) {
		log.Info("lost publish race, event already live")
		return OutcomeAlreadyPublished, nil
	}
	if err != nil {
		return "", fmt.Errorf("publish event: %w", err)
	}

	if r.notifier != nil {
		if published, gerr := r.eventRepo.Get(ctx, eventID); gerr == nil {
			if nerr := r.notifier.EventPublished(ctx, published, domain.PublishedViaPayment); nerr != nil {
				log.Warn("publish notification failed", "err", nerr)
			}
		}
	}
	return OutcomeTransitioned, nil
}

// resolvePayment moves the audit row out of pending. Rows that are missing
// or already resolved are left alone.
func (r *Reconciler) resolvePayment(ctx context.Context, log *slog.Logger, checkoutSessionID, status string) error {
	if checkoutSessionID == "" {
		return nil
	}
	err := r.paymentRepo.Resolve(ctx, checkoutSessionID, status)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrNotFound):
		log.Info("pending payment already resolved or unknown", "status", status)
		return nil
	default:
		return fmt.Errorf("resolve payment: %w", err)
	}
}

func (r *Reconciler) archiveEnvelope(ctx context.Context, n *stripeinfra.Notification) {
	if r.archive == nil {
		return
	}
	uri, err := r.archive.Store(ctx, s3infra.WebhookKey("stripe", n.ID, time.Now()), n.Raw)
	if err != nil {
		slog.Warn("webhook archive failed", "notification_id", n.ID, "err", err)
		return
	}
	slog.Debug("webhook archived", "notification_id", n.ID, "uri", uri)
}
