package http

import (
	"context"
	"time"

	"github.com/beatbookings/publish-api/internal/domain"
	jwtinfra "github.com/beatbookings/publish-api/internal/infrastructure/jwt"
	stripeinfra "github.com/beatbookings/publish-api/internal/infrastructure/stripe"
)

// UserRepository is the minimal interface the router requires from an identity store.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// SessionRepository is the minimal interface the router requires from a session store.
type SessionRepository interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Disable(ctx context.Context, sessionID string) error
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, oldToken, newToken string, newExpiry int64) error
}

// OTPRepository is the minimal interface the router requires from a one-time-code store.
type OTPRepository interface {
	Put(ctx context.Context, c *domain.OneTimeCode) error
	Get(ctx context.Context, email string) (*domain.OneTimeCode, error)
	// Consume deletes the code only if it is still the one that was read and
	// has not expired.
	Consume(ctx context.Context, email, codeHash string, now time.Time) error
	RecordFailure(ctx context.Context, email, codeHash string) (int, error)
	Delete(ctx context.Context, email, codeHash string) error
}

// EventRepository is the minimal interface the router requires from an event store.
type EventRepository interface {
	Create(ctx context.Context, e *domain.Event) error
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	ListByCreator(ctx context.Context, creatorID string) ([]domain.Event, error)
	CountPublished(ctx context.Context) (int, error)
	CountPublishedByCreator(ctx context.Context, creatorID string) (int, error)
	// Publish is the only way an event leaves draft.
	Publish(ctx context.Context, req domain.PublishRequest) error
}

// PaymentRepository is the minimal interface the router requires from a payment audit store.
type PaymentRepository interface {
	Put(ctx context.Context, p *domain.PendingPayment) error
	Get(ctx context.Context, checkoutSessionID string) (*domain.PendingPayment, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.PendingPayment, error)
	Resolve(ctx context.Context, checkoutSessionID, status string) error
}

// TokenProvider signs and verifies bearer tokens.
type TokenProvider interface {
	Sign(userID, email, role, sessionID string) (string, error)
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// Mailer delivers login codes.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// CheckoutProcessor opens hosted payment pages.
type CheckoutProcessor interface {
	CreateCheckoutSession(ctx context.Context, req stripeinfra.CheckoutRequest) (*stripeinfra.CheckoutSession, error)
}

// WebhookVerifier authenticates and decodes processor deliveries.
type WebhookVerifier interface {
	Verify(payload []byte, sigHeader string) (*stripeinfra.Notification, error)
}

// EventNotifier announces published events.
type EventNotifier interface {
	EventPublished(ctx context.Context, e *domain.Event, via string) error
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Store(ctx context.Context, key string, body []byte) (string, error)
}
