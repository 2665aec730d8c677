package main

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors shared by services. Handlers map these to fixed
// user-facing messages; internal detail goes to the audit log only.
var (
	ErrNotFound         = errors.New("not found")
	ErrPasteNotFound    = errors.New("paste not found")
	ErrNotOwner         = errors.New("not the owner")
	ErrNotAuthenticated = errors.New("authentication required")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrInvalidInput     = errors.New("invalid input")
	ErrPasteTooLarge    = errors.New("paste exceeds maximum size")
	ErrDailyLimit       = errors.New("daily paste limit reached")
	ErrAlreadyForked    = errors.New("paste already forked")
	ErrForkOwnPaste     = errors.New("cannot fork your own paste")
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrContentHidden    = errors.New("content hidden pending moderation")
	ErrPasswordRequired = errors.New("password required")
	ErrZeroKnowledge    = errors.New("not available for zero-knowledge pastes")
)

// RateLimitError carries the window reset time so handlers can derive a
// Retry-After value.
type RateLimitError struct {
	Bucket string
	Reset  time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s", e.Bucket)
}

// IsRateLimited reports whether err is a rate-limit rejection.
func IsRateLimited(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}
