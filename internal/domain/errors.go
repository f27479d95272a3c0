package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrBadRequest       = errors.New("bad request")
	ErrPaymentRequired  = errors.New("payment required")
	ErrUpstream         = errors.New("upstream failure")
	ErrSignatureInvalid = errors.New("signature invalid")
)

// QuotaExceededError is returned when the free-publish allotment is used up.
// It unwraps to ErrPaymentRequired.
type QuotaExceededError struct {
	PublishedCount int
	Quota          int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("free publish quota exceeded (%d of %d used)", e.PublishedCount, e.Quota)
}

func (e *QuotaExceededError) Unwrap() error { return ErrPaymentRequired }
