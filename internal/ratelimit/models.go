// Package ratelimit implements fixed-window admission control for chat
// requests. Each client is tracked in burst, minute, hourly and daily
// windows, and all clients share one global window.
package ratelimit

import (
	"fmt"
	"time"
)

// Reason identifies the window that rejected a request.
type Reason string

const (
	ReasonBurst  Reason = "burst"
	ReasonMinute Reason = "minute"
	ReasonHourly Reason = "hourly"
	ReasonDaily  Reason = "daily"
	ReasonGlobal Reason = "global"
)

// Message returns the user-facing text for a rejection.
func (r Reason) Message() string {
	switch r {
	case ReasonBurst:
		return "You're sending messages too quickly. Please wait a few seconds."
	case ReasonMinute:
		return "Too many messages this minute. Please wait a moment before trying again."
	case ReasonHourly:
		return "Hourly message limit reached. Please try again later."
	case ReasonDaily:
		return "Daily message limit reached. Please come back tomorrow."
	case ReasonGlobal:
		return "The assistant is very busy right now. Please try again shortly."
	default:
		return "Too many requests."
	}
}

// Window configures one counting interval.
type Window struct {
	Reason   Reason
	Limit    int
	Duration time.Duration
	// Shared windows count every client in a single cell.
	Shared bool
}

// DefaultWindows returns the standard check order: burst, minute, hourly,
// daily, then global.
func DefaultWindows() []Window {
	return []Window{
		{Reason: ReasonBurst, Limit: 5, Duration: 10 * time.Second},
		{Reason: ReasonMinute, Limit: 15, Duration: time.Minute},
		{Reason: ReasonHourly, Limit: 100, Duration: time.Hour},
		{Reason: ReasonDaily, Limit: 500, Duration: 24 * time.Hour},
		{Reason: ReasonGlobal, Limit: 60, Duration: time.Minute, Shared: true},
	}
}

// Decision is the result of an admission check.
type Decision struct {
	Allowed bool
	// Reason is set only when Allowed is false.
	Reason    Reason
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is the number of whole seconds until the rejecting window
	// resets. Zero when allowed.
	RetryAfter int
}

// Err returns a *RejectedError for rejected decisions and nil otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &RejectedError{Reason: d.Reason, RetryAfter: d.RetryAfter}
}

// RejectedError reports that a request was not admitted.
type RejectedError struct {
	Reason     Reason
	RetryAfter int
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rate limited (%s): retry after %ds", e.Reason, e.RetryAfter)
}
