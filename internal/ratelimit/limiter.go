package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/jmylchreest/leadchat-api/internal/clock"
)

// DefaultSweepProbability is the chance that an Admit call also evicts
// expired windows.
const DefaultSweepProbability = 0.01

// Limiter admits or rejects requests against an ordered list of windows.
type Limiter struct {
	store            Store
	windows          []Window
	clock            clock.Clock
	sweepProbability float64
	random           func() float64
	logger           *slog.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithWindows replaces the default windows. Order is check order. Windows
// with a non-positive limit are ignored.
func WithWindows(windows []Window) Option {
	return func(l *Limiter) {
		l.windows = nil
		for _, w := range windows {
			if w.Limit > 0 && w.Duration > 0 {
				l.windows = append(l.windows, w)
			}
		}
	}
}

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(l *Limiter) { l.clock = c }
}

// WithSweepProbability sets the per-call sweep chance, clamped to [0, 1].
func WithSweepProbability(p float64) Option {
	return func(l *Limiter) { l.sweepProbability = math.Max(0, math.Min(1, p)) }
}

// WithRandom sets the source used to decide whether to sweep. It must
// return values in [0, 1).
func WithRandom(fn func() float64) Option {
	return func(l *Limiter) { l.random = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

// New creates a limiter on top of store.
func New(store Store, opts ...Option) *Limiter {
	l := &Limiter{
		store:            store,
		windows:          DefaultWindows(),
		clock:            clock.Real{},
		sweepProbability: DefaultSweepProbability,
		random:           rand.Float64,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Windows returns the active windows in check order.
func (l *Limiter) Windows() []Window {
	out := make([]Window, len(l.windows))
	copy(out, l.windows)
	return out
}

// Admit decides whether clientID may make a request now. A rejection does
// not change any counter. If the store fails the request is admitted and
// the error is logged.
func (l *Limiter) Admit(ctx context.Context, clientID string) Decision {
	now := l.clock.Now()

	if l.sweepProbability > 0 && l.random() < l.sweepProbability {
		if n, err := l.store.Sweep(ctx, now); err != nil {
			l.logger.Warn("rate limit sweep failed", "error", err)
		} else if n > 0 {
			l.logger.Debug("rate limit sweep", "evicted", n)
		}
	}

	if len(l.windows) == 0 {
		return Decision{Allowed: true}
	}

	checks := make([]Check, len(l.windows))
	for i, w := range l.windows {
		checks[i] = Check{Key: windowKey(w, clientID), Limit: w.Limit, Window: w.Duration}
	}

	out, err := l.store.Admit(ctx, now, checks)
	if err != nil {
		l.logger.Warn("rate limit store unavailable, admitting request",
			"client", clientID,
			"error", err,
		)
		return Decision{Allowed: true}
	}

	if !out.Allowed {
		w := l.windows[out.Rejected]
		state := out.Windows[out.Rejected]
		return Decision{
			Allowed:    false,
			Reason:     w.Reason,
			Limit:      w.Limit,
			Remaining:  0,
			ResetAt:    state.ResetAt,
			RetryAfter: retryAfterSeconds(state.ResetAt.Sub(now), w.Duration),
		}
	}

	// Report the window closest to its ceiling.
	d := Decision{Allowed: true, Remaining: math.MaxInt}
	for i, w := range l.windows {
		remaining := max(w.Limit-out.Windows[i].Count, 0)
		if remaining < d.Remaining {
			d.Limit = w.Limit
			d.Remaining = remaining
			d.ResetAt = out.Windows[i].ResetAt
		}
	}
	return d
}

func windowKey(w Window, clientID string) string {
	if w.Shared {
		return string(w.Reason)
	}
	return string(w.Reason) + ":" + clientID
}

// retryAfterSeconds rounds remaining up to whole seconds and keeps the
// result within [1, window].
func retryAfterSeconds(remaining, window time.Duration) int {
	secs := int(math.Ceil(remaining.Seconds()))
	maxSecs := int(math.Ceil(window.Seconds()))
	if secs > maxSecs {
		secs = maxSecs
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}
