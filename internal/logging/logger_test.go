package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"DEBUG", DebugLevel},
		{"bogus", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.expected)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(WarnLevel, &buf)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("Expected debug message to be filtered")
	}
	if strings.Contains(output, "info message") {
		t.Error("Expected info message to be filtered")
	}
	if !strings.Contains(output, "warn message") {
		t.Error("Expected warn message to be logged")
	}
	if !strings.Contains(output, "error message") {
		t.Error("Expected error message to be logged")
	}
}

func TestLogger_ConsoleFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(DebugLevel, &buf)

	logger.Info("session started",
		String("session_id", "abc"),
		Int("port", 9000),
		Bool("connected", true),
		Duration("elapsed", 250*time.Millisecond),
	)

	output := buf.String()
	for _, want := range []string{"session started", "session_id=abc", "port=9000", "connected=true", "elapsed=250ms"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got: %s", want, output)
		}
	}
}

func TestLogger_ErrorField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(DebugLevel, &buf)

	logger.Error("write failed", Error(errors.New("broken pipe")))

	if !strings.Contains(buf.String(), "error=broken pipe") {
		t.Errorf("Expected error field in output, got: %s", buf.String())
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{level: DebugLevel, format: FormatJSON, output: &buf}

	logger.Info("relay ready", String("listen", "127.0.0.1:9000"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if entry["level"] != "INFO" {
		t.Errorf("Expected level INFO, got: %v", entry["level"])
	}
	if entry["message"] != "relay ready" {
		t.Errorf("Expected message 'relay ready', got: %v", entry["message"])
	}
	if entry["listen"] != "127.0.0.1:9000" {
		t.Errorf("Expected listen field, got: %v", entry["listen"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("Expected timestamp field")
	}
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(ErrorLevel, &buf)

	logger.Info("before")
	logger.SetLevel(DebugLevel)
	logger.Info("after")

	output := buf.String()
	if strings.Contains(output, "before") {
		t.Error("Expected 'before' to be filtered")
	}
	if !strings.Contains(output, "after") {
		t.Error("Expected 'after' to be logged")
	}
}

func TestContext_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(DebugLevel, &buf)

	ctx := WithContext(context.Background(), logger)
	got := FromContext(ctx)
	if got != logger {
		t.Error("Expected FromContext to return the stored logger")
	}
}

func TestContext_MissingLogger(t *testing.T) {
	got := FromContext(context.Background())
	if got == nil {
		t.Fatal("Expected a non-nil fallback logger")
	}

	// The fallback must be safe to use and produce no output anywhere visible
	got.Error("this goes nowhere")
}
