package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateLimited is matched by every denial.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUnknownAction is returned for an action without a configured policy.
	ErrUnknownAction = errors.New("unknown rate-limited action")
)

// LimitExceededError is a denial for one action. It matches ErrRateLimited.
type LimitExceededError struct {
	Action     Action
	Limit      int
	Window     time.Duration
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %d requests per %s, retry after %s",
		e.Action, e.Limit, e.Window, e.RetryAfter.Round(time.Second))
}

// Is reports whether target is ErrRateLimited.
func (e *LimitExceededError) Is(target error) bool {
	return target == ErrRateLimited
}
