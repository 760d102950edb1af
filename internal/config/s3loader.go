package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jmylchreest/leadchat-api/internal/clock"
)

// ObjectGetter is the part of the S3 client the loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3LoaderConfig holds configuration for an S3-backed config object.
type S3LoaderConfig struct {
	Client       ObjectGetter
	Bucket       string
	Key          string
	CacheTTL     time.Duration // How often to check for updates (default: 5 min)
	ErrorBackoff time.Duration // How long to wait after an error (default: 1 min)
	MaxBytes     int64         // Largest accepted object (default: 1 MiB)
	Clock        clock.Clock
	Logger       *slog.Logger
}

// S3LoadResult contains the result of an S3 config fetch.
type S3LoadResult struct {
	Data       []byte
	Etag       string
	NotChanged bool // ETag matched, Data is empty
	Missing    bool // Object does not exist
}

// S3Loader fetches a small config object with ETag caching and error
// backoff. Callers poll NeedsRefresh and call Fetch.
type S3Loader struct {
	client   ObjectGetter
	bucket   string
	key      string
	maxBytes int64
	clock    clock.Clock
	logger   *slog.Logger

	mu           sync.Mutex
	etag         string
	lastCheck    time.Time
	lastError    time.Time
	initialized  bool
	fetching     bool
	cacheTTL     time.Duration
	errorBackoff time.Duration
}

// NewS3Loader creates a new S3 loader with the given config.
func NewS3Loader(cfg S3LoaderConfig) *S3Loader {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.ErrorBackoff == 0 {
		cfg.ErrorBackoff = 1 * time.Minute
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 1 << 20
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &S3Loader{
		client:       cfg.Client,
		bucket:       cfg.Bucket,
		key:          cfg.Key,
		maxBytes:     cfg.MaxBytes,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		cacheTTL:     cfg.CacheTTL,
		errorBackoff: cfg.ErrorBackoff,
	}
}

// IsEnabled returns true if S3 is configured.
func (l *S3Loader) IsEnabled() bool {
	return l != nil && l.client != nil && l.bucket != "" && l.key != ""
}

// NeedsRefresh returns true if a Fetch would contact S3.
func (l *S3Loader) NeedsRefresh() bool {
	if !l.IsEnabled() {
		return false
	}
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.due(now)
}

func (l *S3Loader) due(now time.Time) bool {
	if l.fetching {
		return false
	}
	if !l.lastError.IsZero() && now.Sub(l.lastError) < l.errorBackoff {
		return false
	}
	return !l.initialized || now.Sub(l.lastCheck) >= l.cacheTTL
}

// Fetch retrieves the object with ETag caching.
// Returns (nil, nil) when no fetch was due or S3 is not configured.
func (l *S3Loader) Fetch(ctx context.Context) (*S3LoadResult, error) {
	if !l.IsEnabled() {
		return nil, nil
	}

	l.mu.Lock()
	if !l.due(l.clock.Now()) {
		l.mu.Unlock()
		return nil, nil
	}
	l.fetching = true
	currentEtag := l.etag
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.fetching = false
		l.mu.Unlock()
	}()

	input := &s3.GetObjectInput{
		Bucket: &l.bucket,
		Key:    &l.key,
	}
	if currentEtag != "" {
		quoted := "\"" + currentEtag + "\""
		input.IfNoneMatch = &quoted
	}

	resp, err := l.client.GetObject(ctx, input)
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			l.mu.Lock()
			wasInitialized := l.initialized
			l.markChecked(true)
			l.mu.Unlock()
			if !wasInitialized {
				l.logger.Debug("S3 config object not found (using defaults)",
					"bucket", l.bucket,
					"key", l.key,
				)
			}
			return &S3LoadResult{Missing: true}, nil
		}

		var notModified interface{ ErrorCode() string }
		if errors.As(err, &notModified) && notModified.ErrorCode() == "NotModified" {
			l.mu.Lock()
			l.markChecked(false)
			l.mu.Unlock()
			return &S3LoadResult{NotChanged: true, Etag: currentEtag}, nil
		}

		l.fail()
		l.logger.Error("failed to fetch S3 config object",
			"error", err,
			"bucket", l.bucket,
			"key", l.key,
			"next_retry", l.clock.Now().Add(l.errorBackoff).Format(time.RFC3339),
		)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err == nil && int64(len(data)) > l.maxBytes {
		err = errors.New("S3 config object exceeds size limit")
	}
	if err != nil {
		l.fail()
		l.logger.Error("failed to read S3 config object", "error", err, "key", l.key)
		return nil, err
	}

	newEtag := ""
	if resp.ETag != nil {
		newEtag = strings.Trim(*resp.ETag, "\"")
	}

	l.mu.Lock()
	l.etag = newEtag
	l.markChecked(false)
	l.mu.Unlock()

	l.logger.Debug("S3 config object fetched",
		"bucket", l.bucket,
		"key", l.key,
		"etag", newEtag,
		"size", len(data),
	)

	return &S3LoadResult{Data: data, Etag: newEtag}, nil
}

// markChecked records a completed check. Callers hold l.mu. A missing
// object backs off like an error so it is not polled on every request.
func (l *S3Loader) markChecked(backoff bool) {
	now := l.clock.Now()
	l.initialized = true
	l.lastCheck = now
	if backoff {
		l.lastError = now
	} else {
		l.lastError = time.Time{}
	}
}

// fail records an error so the next attempt waits out the backoff.
func (l *S3Loader) fail() {
	l.mu.Lock()
	l.lastError = l.clock.Now()
	l.initialized = true
	l.mu.Unlock()
}

// Invalidate marks the last fetch as unusable, for example when its
// content failed to parse, and forces a full download after the backoff.
func (l *S3Loader) Invalidate() {
	l.mu.Lock()
	l.etag = ""
	l.mu.Unlock()
	l.fail()
}
