package event

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/beatbookings/publish-api/internal/domain"
	"github.com/beatbookings/publish-api/internal/pkg/id"
)

type StatusView struct {
	EventID string `json:"event_id"`
	Status  string `json:"status"`
}

type Service interface {
	CreateDraft(ctx context.Context, caller domain.Caller, req domain.CreateEventRequest) (*domain.Event, error)
	Get(ctx context.Context, caller domain.Caller, eventID string) (*domain.Event, error)
	// ListMine returns the caller's own events, drafts included.
	ListMine(ctx context.Context, caller domain.Caller) ([]domain.Event, error)
	Status(ctx context.Context, caller domain.Caller, eventID string) (*StatusView, error)
}

type eventStore interface {
	Create(ctx context.Context, e *domain.Event) error
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	ListByCreator(ctx context.Context, creatorID string) ([]domain.Event, error)
}

type service struct {
	eventRepo eventStore
}

func NewService(eventRepo eventStore) Service {
	return &service{eventRepo: eventRepo}
}

func (s *service) CreateDraft(ctx context.Context, caller domain.Caller, req domain.CreateEventRequest) (*domain.Event, error) {
	if !domain.ValidRole(caller.Role) {
		return nil, fmt.Errorf("role %q cannot own events: %w", caller.Role, domain.ErrForbidden)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("title required: %w", domain.ErrBadRequest)
	}
	now := time.Now().UTC()
	e := &domain.Event{
		EventID:     id.New(),
		CreatorID:   caller.UserID,
		CreatorRole: caller.Role,
		Status:      domain.EventStatusDraft,
		Title:       title,
		StartsAt:    req.StartsAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Get returns the event. Drafts are only visible to their creator.
func (s *service) Get(ctx context.Context, caller domain.Caller, eventID string) (*domain.Event, error) {
	e, err := s.eventRepo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.IsDraft() && e.CreatorID != caller.UserID {
		return nil, fmt.Errorf("event not found: %w", domain.ErrNotFound)
	}
	return e, nil
}

func (s *service) ListMine(ctx context.Context, caller domain.Caller) ([]domain.Event, error) {
	if caller.UserID == "" {
		return nil, fmt.Errorf("no caller: %w", domain.ErrUnauthorized)
	}
	return s.eventRepo.ListByCreator(ctx, caller.UserID)
}

// Status follows the same visibility rule as Get.
func (s *service) Status(ctx context.Context, caller domain.Caller, eventID string) (*StatusView, error) {
	e, err := s.Get(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	return &StatusView{EventID: e.EventID, Status: e.Status}, nil
}
