package ratelimit

import (
	"context"
	"time"
)

// Check is one window to test during admission.
type Check struct {
	Key    string
	Limit  int
	Window time.Duration
}

// WindowState is a window's count and reset instant as observed by a store.
type WindowState struct {
	Count   int
	ResetAt time.Time
}

// Outcome is the result of Store.Admit.
type Outcome struct {
	Allowed bool
	// Rejected is the index of the check that failed, or -1.
	Rejected int
	// Windows holds the state of each check. After a rejection only the
	// entries up to and including Rejected are populated.
	Windows []WindowState
}

// Store holds window counters.
//
// Admit must check every window and only commit increments when all of
// them have room, so a rejection leaves every counter unchanged.
type Store interface {
	Admit(ctx context.Context, now time.Time, checks []Check) (Outcome, error)
	// Sweep evicts windows whose reset instant is before now and returns the
	// number removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
}
