package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrTooManyRequests = errors.New("too many requests")
	// ErrUnprocessable marks a well-formed request the current state cannot accept.
	ErrUnprocessable = errors.New("unprocessable")
)

// ErrContactBlocked is returned for contacts with an active blacklist entry.
var ErrContactBlocked = fmt.Errorf("contact blocked: %w", ErrForbidden)

// ErrLimitReached is returned by stores when a conditional counter update
// would exceed its ceiling. Services translate it into a policy outcome.
var ErrLimitReached = errors.New("limit reached")

// InvalidCodeError is returned for a wrong one-time code that still has
// attempts left.
type InvalidCodeError struct {
	Remaining int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid code: %d attempts left", e.Remaining)
}

func (e *InvalidCodeError) Unwrap() error { return ErrUnauthorized }

// RetryAfterError is a throttling outcome that knows when the caller may retry.
type RetryAfterError struct {
	After  time.Duration
	Reason string
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("%s: retry in %ds", e.Reason, int(e.After.Round(time.Second)/time.Second))
}

func (e *RetryAfterError) Unwrap() error { return ErrTooManyRequests }
