// Package memory holds mutex-guarded in-memory repositories with the same
// contracts as the DynamoDB ones. Used for STORE_DRIVER=memory and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/beatbookings/publish-api/internal/domain"
)

type UserRepo struct {
	mu      sync.RWMutex
	byEmail map[string]domain.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{byEmail: make(map[string]domain.User)}
}

func (r *UserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return fmt.Errorf("identity exists for email: %w", domain.ErrConflict)
	}
	r.byEmail[u.Email] = *u
	return nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return &u, nil
}

func (r *UserRepo) Get(_ context.Context, userID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byEmail {
		if u.UserID == userID {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
}

type SessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{sessions: make(map[string]domain.Session)}
}

func (r *SessionRepo) Put(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	cp.User = nil
	r.sessions[s.SessionID] = cp
	return nil
}

func (r *SessionRepo) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	return &s, nil
}

func (r *SessionRepo) Disable(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	s.Enable = false
	s.UpdatedAt = time.Now().UTC()
	r.sessions[sessionID] = s
	return nil
}

func (r *SessionRepo) GetByRefreshToken(_ context.Context, token string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.RefreshToken != token {
			continue
		}
		if !s.Enable {
			return nil, fmt.Errorf("session disabled: %w", domain.ErrUnauthorized)
		}
		return &s, nil
	}
	return nil, fmt.Errorf("session not found: %w", domain.ErrNotFound)
}

func (r *SessionRepo) RotateRefreshToken(_ context.Context, sessionID, oldToken, newToken string, newExpiry int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	if !s.Enable || s.RefreshToken != oldToken {
		return fmt.Errorf("refresh token superseded: %w", domain.ErrUnauthorized)
	}
	s.RefreshToken = newToken
	s.RefreshExpiresAt = newExpiry
	s.UpdatedAt = time.Now().UTC()
	r.sessions[sessionID] = s
	return nil
}

type OTPRepo struct {
	mu    sync.Mutex
	codes map[string]domain.OneTimeCode
}

func NewOTPRepo() *OTPRepo {
	return &OTPRepo{codes: make(map[string]domain.OneTimeCode)}
}

func (r *OTPRepo) Put(_ context.Context, c *domain.OneTimeCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[c.Email] = *c
	return nil
}

func (r *OTPRepo) Get(_ context.Context, email string) (*domain.OneTimeCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[email]
	if !ok {
		return nil, fmt.Errorf("one-time code not found: %w", domain.ErrNotFound)
	}
	return &c, nil
}

func (r *OTPRepo) Consume(_ context.Context, email, codeHash string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[email]
	if !ok || c.CodeHash != codeHash || c.Expired(now) {
		return fmt.Errorf("one-time code already consumed or replaced: %w", domain.ErrConflict)
	}
	delete(r.codes, email)
	return nil
}

func (r *OTPRepo) RecordFailure(_ context.Context, email, codeHash string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[email]
	if !ok || c.CodeHash != codeHash {
		return 0, fmt.Errorf("one-time code replaced: %w", domain.ErrConflict)
	}
	c.Attempts++
	r.codes[email] = c
	return c.Attempts, nil
}

func (r *OTPRepo) Delete(_ context.Context, email, codeHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.codes[email]; ok && c.CodeHash == codeHash {
		delete(r.codes, email)
	}
	return nil
}

// EventRepo keeps events and publish counters behind one lock so Publish is
// atomic the way the DynamoDB transaction is.
type EventRepo struct {
	mu        sync.Mutex
	events    map[string]domain.Event
	platform  int
	byCreator map[string]int
}

func NewEventRepo() *EventRepo {
	return &EventRepo{
		events:    make(map[string]domain.Event),
		byCreator: make(map[string]int),
	}
}

func (r *EventRepo) Create(_ context.Context, e *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[e.EventID]; ok {
		return fmt.Errorf("event id taken: %w", domain.ErrConflict)
	}
	r.events[e.EventID] = *e
	if e.Status == domain.EventStatusPublished {
		r.platform++
		r.byCreator[e.CreatorID]++
	}
	return nil
}

func (r *EventRepo) Get(_ context.Context, eventID string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[eventID]
	if !ok {
		return nil, fmt.Errorf("event not found: %w", domain.ErrNotFound)
	}
	return &e, nil
}

func (r *EventRepo) ListByCreator(_ context.Context, creatorID string) ([]domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Event{}
	for _, e := range r.events {
		if e.CreatorID == creatorID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID > out[j].EventID })
	return out, nil
}

func (r *EventRepo) CountPublished(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.platform, nil
}

func (r *EventRepo) CountPublishedByCreator(_ context.Context, creatorID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byCreator[creatorID], nil
}

func (r *EventRepo) Publish(_ context.Context, req domain.PublishRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[req.EventID]
	if !ok || e.Status != domain.EventStatusDraft || e.CreatorID != req.CreatorID {
		return fmt.Errorf("event %s is not a draft owned by caller: %w", req.EventID, domain.ErrConflict)
	}
	if req.PlatformQuota > 0 && r.platform >= req.PlatformQuota {
		return &domain.QuotaExceededError{PublishedCount: r.platform, Quota: req.PlatformQuota}
	}
	at := req.At.UTC()
	e.Status = domain.EventStatusPublished
	e.PublishedAt = &at
	e.PublishedVia = req.Via
	e.UpdatedAt = at
	r.events[req.EventID] = e
	r.platform++
	r.byCreator[req.CreatorID]++
	return nil
}

type PaymentRepo struct {
	mu       sync.Mutex
	payments map[string]domain.PendingPayment
}

func NewPaymentRepo() *PaymentRepo {
	return &PaymentRepo{payments: make(map[string]domain.PendingPayment)}
}

func (r *PaymentRepo) Put(_ context.Context, p *domain.PendingPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.CheckoutSessionID] = *p
	return nil
}

func (r *PaymentRepo) Get(_ context.Context, checkoutSessionID string) (*domain.PendingPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[checkoutSessionID]
	if !ok {
		return nil, fmt.Errorf("pending payment not found: %w", domain.ErrNotFound)
	}
	return &p, nil
}

func (r *PaymentRepo) ListByEvent(_ context.Context, eventID string) ([]domain.PendingPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.PendingPayment{}
	for _, p := range r.payments {
		if p.EventID == eventID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *PaymentRepo) Resolve(_ context.Context, checkoutSessionID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[checkoutSessionID]
	if !ok || p.Status != domain.PaymentStatusPending {
		return fmt.Errorf("payment %s not pending: %w", checkoutSessionID, domain.ErrConflict)
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	r.payments[checkoutSessionID] = p
	return nil
}
