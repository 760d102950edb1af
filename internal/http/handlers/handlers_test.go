package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/jmylchreest/leadchat-api/internal/version"
)

// ========================================
// HealthCheck Tests
// ========================================

func TestHealthCheck(t *testing.T) {
	output, err := NewHealthHandler(true).HealthCheck(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output == nil {
		t.Fatal("expected output, got nil")
	}
	if output.Body.Status != "healthy" {
		t.Errorf("Status = %q, want %q", output.Body.Status, "healthy")
	}
	if output.Body.Version != version.Get().Short() {
		t.Errorf("Version = %q, want %q", output.Body.Version, version.Get().Short())
	}
	if !output.Body.LLMConfigured {
		t.Error("LLMConfigured = false, want true")
	}
}

func TestHealthCheck_NotConfiguredStillHealthy(t *testing.T) {
	output, err := NewHealthHandler(false).HealthCheck(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Body.Status != "healthy" {
		t.Errorf("Status = %q, want %q", output.Body.Status, "healthy")
	}
	if output.Body.LLMConfigured {
		t.Error("LLMConfigured = true, want false")
	}
}

func TestGetVersion(t *testing.T) {
	output, err := GetVersion(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Body.Version == "" {
		t.Error("Version is empty")
	}
}

// ========================================
// Livez Tests
// ========================================

func TestLivez(t *testing.T) {
	output, err := Livez(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Body.Status != "ok" {
		t.Errorf("Status = %q, want %q", output.Body.Status, "ok")
	}
}

// ========================================
// Readyz Tests
// ========================================

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error {
	return m.err
}

func TestReadyzHandler_Readyz_Success(t *testing.T) {
	output, err := NewReadyzHandler(&mockPinger{}).Readyz(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Body.Status != "ok" {
		t.Errorf("Status = %q, want %q", output.Body.Status, "ok")
	}
}

func TestReadyzHandler_Readyz_StoreError(t *testing.T) {
	_, err := NewReadyzHandler(&mockPinger{err: errors.New("connection refused")}).Readyz(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestReadyzHandler_Readyz_NilStore(t *testing.T) {
	output, err := NewReadyzHandler(nil).Readyz(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Body.Status != "ok" {
		t.Errorf("Status = %q, want %q", output.Body.Status, "ok")
	}
}

// ========================================
// ExtractErrorInfo Tests
// ========================================

func TestExtractErrorInfo(t *testing.T) {
	// covered with real error values in chat_test.go; the default branch
	// must never leak internal text.
	info := ExtractErrorInfo(errors.New("dial tcp 10.0.0.1:443: secret detail"))
	if info.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", info.StatusCode)
	}
	if info.UserMessage != msgInternal {
		t.Errorf("UserMessage = %q, want %q", info.UserMessage, msgInternal)
	}
}
