package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/leadchat-api/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_Disabled(t *testing.T) {
	s, err := New(context.Background(), &config.Config{}, quietLogger())
	require.NoError(t, err)

	assert.False(t, s.IsEnabled())
	assert.Nil(t, s.Client())
	assert.Empty(t, s.Bucket())
	assert.NoError(t, s.Ping(context.Background()))
}

func TestNew_Enabled(t *testing.T) {
	s, err := New(context.Background(), &config.Config{
		StorageEnabled:   true,
		StorageEndpoint:  "http://localhost:9000",
		StorageAccessKey: "minio",
		StorageSecretKey: "minio123",
		StorageBucket:    "leads",
		StorageRegion:    "auto",
	}, quietLogger())
	require.NoError(t, err)

	assert.True(t, s.IsEnabled())
	assert.NotNil(t, s.Client())
	assert.Equal(t, "leads", s.Bucket())
}

func TestNilService(t *testing.T) {
	var s *Service
	assert.False(t, s.IsEnabled())
	assert.Nil(t, s.Client())
	assert.NoError(t, s.Ping(context.Background()))
}
