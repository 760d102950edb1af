package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jmylchreest/leadchat-api/internal/clock"
)

type notModifiedErr struct{}

func (notModifiedErr) Error() string     { return "not modified" }
func (notModifiedErr) ErrorCode() string { return "NotModified" }

type fakeGetter struct {
	body     string
	etag     string
	err      error
	calls    int
	lastETag string
}

func (f *fakeGetter) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	f.lastETag = aws.ToString(in.IfNoneMatch)
	if f.err != nil {
		return nil, f.err
	}
	if f.lastETag != "" && f.lastETag == "\""+f.etag+"\"" {
		return nil, notModifiedErr{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(f.body)),
		ETag: aws.String("\"" + f.etag + "\""),
	}, nil
}

func newTestLoader(g *fakeGetter, c clock.Clock) *S3Loader {
	return NewS3Loader(S3LoaderConfig{
		Client:       g,
		Bucket:       "cfg",
		Key:          "config/blocklist.json",
		CacheTTL:     5 * time.Minute,
		ErrorBackoff: time.Minute,
		Clock:        c,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestS3Loader_FetchAndCache(t *testing.T) {
	c := clock.NewManual(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	g := &fakeGetter{body: `["10.0.0.1"]`, etag: "v1"}
	l := newTestLoader(g, c)

	res, err := l.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(res.Data) != `["10.0.0.1"]` || res.Etag != "v1" {
		t.Errorf("Fetch() = %+v", res)
	}

	// Within the TTL nothing is fetched.
	if l.NeedsRefresh() {
		t.Error("NeedsRefresh() = true inside TTL")
	}
	if res, _ := l.Fetch(context.Background()); res != nil || g.calls != 1 {
		t.Errorf("Fetch() inside TTL = %+v, calls = %d", res, g.calls)
	}

	// After the TTL a conditional request is sent.
	c.Advance(6 * time.Minute)
	res, err = l.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !res.NotChanged || g.lastETag != `"v1"` {
		t.Errorf("Fetch() = %+v, If-None-Match = %q", res, g.lastETag)
	}
}

func TestS3Loader_ErrorBackoff(t *testing.T) {
	c := clock.NewManual(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	g := &fakeGetter{err: errors.New("connection reset")}
	l := newTestLoader(g, c)

	if _, err := l.Fetch(context.Background()); err == nil {
		t.Fatal("Fetch() should return the S3 error")
	}
	if l.NeedsRefresh() {
		t.Error("NeedsRefresh() = true during backoff")
	}

	c.Advance(2 * time.Minute)
	if !l.NeedsRefresh() {
		t.Error("NeedsRefresh() = false after backoff")
	}
}

func TestS3Loader_Missing(t *testing.T) {
	c := clock.NewManual(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	g := &fakeGetter{err: &types.NoSuchKey{}}
	l := newTestLoader(g, c)

	res, err := l.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !res.Missing {
		t.Errorf("Fetch() = %+v, want Missing", res)
	}
	if l.NeedsRefresh() {
		t.Error("a missing object should back off before the next poll")
	}
}

func TestS3Loader_Invalidate(t *testing.T) {
	c := clock.NewManual(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	g := &fakeGetter{body: `not json`, etag: "v1"}
	l := newTestLoader(g, c)

	if _, err := l.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	l.Invalidate()

	c.Advance(7 * time.Minute)
	res, err := l.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.NotChanged || g.lastETag != "" {
		t.Error("invalidated loader should download the full object")
	}
}

func TestS3Loader_Disabled(t *testing.T) {
	var l *S3Loader
	if l.IsEnabled() {
		t.Error("nil loader should be disabled")
	}
	l = NewS3Loader(S3LoaderConfig{})
	if res, err := l.Fetch(context.Background()); res != nil || err != nil {
		t.Errorf("Fetch() on disabled loader = %v, %v", res, err)
	}
}
