package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// ========================================
// Context Attribute Tests
// ========================================

func TestContextAttributes_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Format: "json", Level: "info", Writer: &buf})

	ctx := WithClientIP(WithSessionID(context.Background(), "01HX"), "1.2.3.4")
	logger.InfoContext(ctx, "admitted", "reason", "")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["session_id"] != "01HX" {
		t.Errorf("session_id = %v, want 01HX", rec["session_id"])
	}
	if rec["client_ip"] != "1.2.3.4" {
		t.Errorf("client_ip = %v, want 1.2.3.4", rec["client_ip"])
	}
	if rec["msg"] != "admitted" {
		t.Errorf("msg = %v", rec["msg"])
	}
}

func TestContextAttributes_Absent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Format: "json", Writer: &buf})

	logger.InfoContext(context.Background(), "plain")

	if strings.Contains(buf.String(), "session_id") || strings.Contains(buf.String(), "client_ip") {
		t.Errorf("unexpected context attributes in %q", buf.String())
	}
}

func TestContextAttributes_SurviveWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Format: "text", Writer: &buf}).With("component", "chat")

	logger.InfoContext(WithSessionID(context.Background(), "abc"), "reply")

	out := buf.String()
	if !strings.Contains(out, "component=chat") || !strings.Contains(out, "session_id=abc") {
		t.Errorf("output = %q", out)
	}
}

// ========================================
// Level Tests
// ========================================

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Format: "json", Level: "warn", Writer: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn record missing")
	}
}

// ========================================
// New Logger Tests
// ========================================

func TestNew(t *testing.T) {
	if New() == nil {
		t.Fatal("New() returned nil")
	}
}

func TestSetDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	logger := SetDefault()
	if slog.Default() != logger {
		t.Error("SetDefault() did not install the logger")
	}
}
