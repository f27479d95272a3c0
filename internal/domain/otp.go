package domain

import "time"

// OneTimeCode is the live login code for an email. PK: email.
// ExpiresAt is a Unix timestamp also used as the DynamoDB TTL attribute.
type OneTimeCode struct {
	Email     string    `json:"email" dynamodbav:"email"`
	CodeHash  string    `json:"-" dynamodbav:"code_hash"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"`
	Attempts  int       `json:"attempts" dynamodbav:"attempts"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

// Expired reports whether the code is no longer usable at now.
func (c *OneTimeCode) Expired(now time.Time) bool {
	return now.Unix() >= c.ExpiresAt
}
