package domain

import "time"

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// What a checkout session pays for. Promo payments never publish the event.
const (
	PaymentPurposePublish = "publish"
	PaymentPurposePromo   = "promo"
)

// PendingPayment is the audit row written when a checkout session is opened.
// PK: checkout_session_id, GSI: event_id.
type PendingPayment struct {
	CheckoutSessionID string    `json:"checkout_session_id" dynamodbav:"checkout_session_id"`
	EventID           string    `json:"event_id" dynamodbav:"event_id"`
	CreatorID         string    `json:"creator_id" dynamodbav:"creator_id"`
	Purpose           string    `json:"purpose" dynamodbav:"purpose"`
	Status            string    `json:"status" dynamodbav:"status"`
	Amount            int64     `json:"amount" dynamodbav:"amount"`
	Currency          string    `json:"currency" dynamodbav:"currency"`
	CreatedAt         time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt         time.Time `json:"updated" dynamodbav:"updated_at"`
}
