// Package shutdown provides idle monitoring for scale-to-zero deployments.
package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/leadchat-api/internal/clock"
)

// ErrIdle is returned by Run when the idle timeout is reached.
var ErrIdle = errors.New("idle timeout reached")

// BusyChecker returns true while in-memory state would be lost by stopping,
// e.g. live chat sessions.
type BusyChecker func() bool

// IdleMonitorConfig holds configuration for the idle monitor.
type IdleMonitorConfig struct {
	Timeout      time.Duration // Zero disables the monitor
	ExcludePaths []string      // Paths that don't count as activity (probes, metrics)
	Busy         BusyChecker   // Optional
	Clock        clock.Clock
	Logger       *slog.Logger
}

// IdleMonitor tracks request activity and reports when the server has been
// idle long enough to stop. Platforms like Fly.io restart the machine on
// the next request.
type IdleMonitor struct {
	timeout      time.Duration
	excludePaths []string
	busy         BusyChecker
	clock        clock.Clock
	logger       *slog.Logger

	activeRequests atomic.Int64
	mu             sync.Mutex
	lastActivity   time.Time
}

// NewIdleMonitor creates a new idle monitor.
func NewIdleMonitor(cfg IdleMonitorConfig) *IdleMonitor {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &IdleMonitor{
		timeout:      cfg.Timeout,
		excludePaths: cfg.ExcludePaths,
		busy:         cfg.Busy,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		lastActivity: cfg.Clock.Now(),
	}
}

// Enabled reports whether a timeout is configured.
func (m *IdleMonitor) Enabled() bool {
	return m.timeout > 0
}

// Middleware tracks request activity, skipping excluded paths.
func (m *IdleMonitor) Middleware(next http.Handler) http.Handler {
	if !m.Enabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, p := range m.excludePaths {
			if strings.HasPrefix(r.URL.Path, p) {
				next.ServeHTTP(w, r)
				return
			}
		}

		m.activeRequests.Add(1)
		m.touch()
		defer func() {
			m.activeRequests.Add(-1)
			m.touch()
		}()

		next.ServeHTTP(w, r)
	})
}

func (m *IdleMonitor) touch() {
	now := m.clock.Now()
	m.mu.Lock()
	m.lastActivity = now
	m.mu.Unlock()
}

// Idle evaluates the monitor once. Active requests or a busy check reset
// the idle timer, so the full timeout is granted after work finishes.
func (m *IdleMonitor) Idle() bool {
	if !m.Enabled() {
		return false
	}

	active := m.activeRequests.Load()
	busy := m.busy != nil && m.busy()
	if active > 0 || busy {
		m.touch()
		return false
	}

	m.mu.Lock()
	idleFor := m.clock.Now().Sub(m.lastActivity)
	m.mu.Unlock()

	m.logger.Debug("idle check", "idle_time", idleFor, "timeout", m.timeout)
	return idleFor >= m.timeout
}

// Run polls until ctx is done or the server has been idle for the timeout,
// in which case it returns ErrIdle. It returns nil immediately when
// disabled.
func (m *IdleMonitor) Run(ctx context.Context) error {
	if !m.Enabled() {
		m.logger.Debug("idle monitoring disabled (timeout=0)")
		return nil
	}

	checkInterval := min(max(m.timeout/6, 5*time.Second), 30*time.Second)
	m.logger.Info("idle monitoring started", "timeout", m.timeout, "exclude_paths", m.excludePaths)

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if m.Idle() {
				m.logger.Info("idle timeout reached, signaling graceful shutdown", "timeout", m.timeout)
				return ErrIdle
			}
		}
	}
}
