package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/beatbookings/publish-api/internal/domain"
)

// EligibilityView is what the client needs to choose between free publish
// and checkout.
type EligibilityView struct {
	Eligibility
	PublishedCount int    `json:"published_count"`
	Fee            int64  `json:"fee"`
	Currency       string `json:"currency"`
}

type Service interface {
	Eligibility(ctx context.Context, caller domain.Caller) (*EligibilityView, error)
	PublishFree(ctx context.Context, caller domain.Caller, eventID string) (*domain.Event, error)
}

type eventStore interface {
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	CountPublished(ctx context.Context) (int, error)
	CountPublishedByCreator(ctx context.Context, creatorID string) (int, error)
	Publish(ctx context.Context, req domain.PublishRequest) error
}

// Notifier announces events that went live. Failures are logged only.
type Notifier interface {
	EventPublished(ctx context.Context, e *domain.Event, via string) error
}

// ServiceDeps holds all dependencies for the publish service.
type ServiceDeps struct {
	EventRepo       eventStore
	Notifier        Notifier // optional
	Policy          Policy
	PublishFeeCents int64
	Currency        string
}

type service struct {
	eventRepo eventStore
	notifier  Notifier
	policy    Policy
	fee       int64
	currency  string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		eventRepo: deps.EventRepo,
		notifier:  deps.Notifier,
		policy:    deps.Policy,
		fee:       deps.PublishFeeCents,
		currency:  deps.Currency,
	}
}

// Eligibility re-reads the live count on every call.
func (s *service) Eligibility(ctx context.Context, caller domain.Caller) (*EligibilityView, error) {
	var (
		count int
		err   error
	)
	if caller.Role == domain.RolePlanner {
		count, err = s.eventRepo.CountPublished(ctx)
	} else {
		count, err = s.eventRepo.CountPublishedByCreator(ctx, caller.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("count published events: %w", err)
	}
	return &EligibilityView{
		Eligibility:    s.policy.Evaluate(caller.Role, count),
		PublishedCount: count,
		Fee:            s.fee,
		Currency:       s.currency,
	}, nil
}

// PublishFree moves a draft owned by caller to published without payment.
// The quota check happens inside the same conditional write as the
// transition, so two planners racing for the last free slot cannot both win.
func (s *service) PublishFree(ctx context.Context, caller domain.Caller, eventID string) (*domain.Event, error) {
	e, err := s.eventRepo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.CreatorID != caller.UserID {
		return nil, fmt.Errorf("only the creator can publish this event: %w", domain.ErrForbidden)
	}
	if !e.IsDraft() {
		return nil, fmt.Errorf("event is already %s: %w", e.Status, domain.ErrConflict)
	}
	if !domain.ValidRole(caller.Role) {
		return nil, fmt.Errorf("role %q cannot publish: %w", caller.Role, domain.ErrForbidden)
	}

	err = s.eventRepo.Publish(ctx, domain.PublishRequest{
		EventID:       e.EventID,
		CreatorID:     caller.UserID,
		Via:           domain.PublishedViaFree,
		PlatformQuota: s.policy.platformQuota(caller.Role),
		At:            time.Now().UTC(),
	})
	if err != nil {
		var qe *domain.QuotaExceededError
		if errors.As(err, &qe) {
			slog.Info("free publish refused, quota used", "event_id", e.EventID, "user_id", caller.UserID, "published_count", qe.PublishedCount)
		}
		return nil, err
	}

	published, err := s.eventRepo.Get(ctx, e.EventID)
	if err != nil {
		return nil, err
	}
	slog.Info("event published", "event_id", published.EventID, "via", domain.PublishedViaFree)
	if s.notifier != nil {
		if err := s.notifier.EventPublished(ctx, published, domain.PublishedViaFree); err != nil {
			slog.Warn("publish notification failed", "event_id", published.EventID, "err", err)
		}
	}
	return published, nil
}
