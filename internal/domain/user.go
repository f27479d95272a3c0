package domain

import "time"

// User is the identity created lazily on first successful OTP verification.
// Keyed by email: exactly one identity exists per address.
type User struct {
	UserID    string    `json:"id" dynamodbav:"user_id"`
	Email     string    `json:"email" dynamodbav:"email"`
	Role      string    `json:"role" dynamodbav:"role"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}
