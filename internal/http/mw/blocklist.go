package mw

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/jmylchreest/leadchat-api/internal/config"
)

const blocklistFetchTimeout = 10 * time.Second

// IPBlocklist blocks requests from IPs and CIDR ranges listed in a JSON
// array stored in S3. It refreshes lazily in the background and fails open
// while the list is unavailable.
type IPBlocklist struct {
	loader *config.S3Loader
	logger *slog.Logger

	mu       sync.RWMutex
	addrs    map[netip.Addr]struct{}
	prefixes []netip.Prefix
}

// NewIPBlocklist creates a blocklist fed by loader. A disabled loader
// yields a pass-through middleware.
func NewIPBlocklist(loader *config.S3Loader, logger *slog.Logger) *IPBlocklist {
	if logger == nil {
		logger = slog.Default()
	}
	return &IPBlocklist{loader: loader, logger: logger}
}

// Middleware returns the HTTP middleware handler.
func (b *IPBlocklist) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !b.loader.IsEnabled() {
				next.ServeHTTP(w, r)
				return
			}

			if b.loader.NeedsRefresh() {
				go func() {
					ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), blocklistFetchTimeout)
					defer cancel()
					b.Refresh(ctx)
				}()
			}

			clientIP := ClientIP(r)
			if b.IsBlocked(clientIP) {
				b.logger.WarnContext(r.Context(), "blocked request from blocklisted IP",
					"ip", clientIP,
					"path", r.URL.Path,
				)
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "Forbidden"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Refresh fetches the list if due and swaps it in when it changed.
func (b *IPBlocklist) Refresh(ctx context.Context) {
	res, err := b.loader.Fetch(ctx)
	if err != nil || res == nil || res.NotChanged {
		return
	}
	if res.Missing {
		b.Replace(nil)
		return
	}

	var entries []string
	if err := json.Unmarshal(res.Data, &entries); err != nil {
		b.loader.Invalidate()
		b.logger.Error("failed to parse blocklist JSON", "error", err)
		return
	}
	b.Replace(entries)
}

// Replace installs a new list of addresses and CIDR prefixes. Invalid
// entries are logged and skipped.
func (b *IPBlocklist) Replace(entries []string) {
	addrs := make(map[netip.Addr]struct{})
	var prefixes []netip.Prefix

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		switch {
		case entry == "":
		case strings.Contains(entry, "/"):
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				b.logger.Warn("invalid CIDR in blocklist", "entry", entry, "error", err)
				continue
			}
			prefixes = append(prefixes, p.Masked())
		default:
			a, err := netip.ParseAddr(entry)
			if err != nil {
				b.logger.Warn("invalid IP in blocklist", "entry", entry, "error", err)
				continue
			}
			addrs[a.Unmap()] = struct{}{}
		}
	}

	b.mu.Lock()
	b.addrs = addrs
	b.prefixes = prefixes
	b.mu.Unlock()

	b.logger.Info("blocklist refreshed", "exact_ips", len(addrs), "cidr_ranges", len(prefixes))
}

// IsBlocked reports whether ip matches an entry. Unparseable input is
// never blocked.
func (b *IPBlocklist) IsBlocked(ip string) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()

	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, ok := b.addrs[a]; ok {
		return true
	}
	for _, p := range b.prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
