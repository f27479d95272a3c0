package domain

import "time"

const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
)

// How an event went live.
const (
	PublishedViaFree    = "free"
	PublishedViaPayment = "payment"
)

// Event is a bookable listing. Status only ever moves draft -> published.
type Event struct {
	EventID      string     `json:"id" dynamodbav:"event_id"`
	CreatorID    string     `json:"creator_id" dynamodbav:"creator_id"`
	CreatorRole  string     `json:"creator_role" dynamodbav:"creator_role"`
	Status       string     `json:"status" dynamodbav:"status"`
	Title        string     `json:"title" dynamodbav:"title"`
	StartsAt     *time.Time `json:"starts_at,omitempty" dynamodbav:"starts_at,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty" dynamodbav:"published_at,omitempty"`
	PublishedVia string     `json:"published_via,omitempty" dynamodbav:"published_via,omitempty"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

func (e *Event) IsDraft() bool { return e.Status == EventStatusDraft }

type CreateEventRequest struct {
	Title    string     `json:"title" validate:"required,max=200"`
	StartsAt *time.Time `json:"starts_at"`
}

// PublishRequest describes a conditional draft -> published write.
// The write succeeds only while the event is a draft owned by CreatorID.
// When PlatformQuota > 0 the platform-wide published count must also be below it.
type PublishRequest struct {
	EventID       string
	CreatorID     string
	Via           string
	PlatformQuota int
	At            time.Time
}
