package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithConfig(LogConfig{Level: "INFO", Format: "json", Output: &buf}); err != nil {
		t.Fatalf("InitWithConfig failed: %v", err)
	}

	Info(context.Background(), "Analysis started", "ticker", "AAPL", "days", 30)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "Analysis started" {
		t.Errorf("Expected msg 'Analysis started', got %v", entry["msg"])
	}
	if entry["ticker"] != "AAPL" {
		t.Errorf("Expected ticker AAPL, got %v", entry["ticker"])
	}
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	_ = InitWithConfig(LogConfig{Level: "INFO", Format: "text", Output: &buf})

	Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected no output for debug at INFO, got %q", buf.String())
	}
	if IsDebugEnabled() {
		t.Error("Expected debug to be disabled")
	}
}

func TestDebugLevelAddsSource(t *testing.T) {
	var buf bytes.Buffer
	_ = InitWithConfig(LogConfig{Level: "DEBUG", Format: "text", Output: &buf})
	defer InitWithConfig(LogConfig{Level: "INFO", Format: "text", Output: &bytes.Buffer{}})

	DebugSkip(context.Background(), 0, "visible")
	out := buf.String()
	if !strings.Contains(out, "visible") {
		t.Fatalf("Expected debug line, got %q", out)
	}
	if !strings.Contains(out, "logger_test.go") {
		t.Errorf("Expected caller source in debug output, got %q", out)
	}
}

func TestOperationTimerEndWithError(t *testing.T) {
	var buf bytes.Buffer
	_ = InitWithConfig(LogConfig{Level: "INFO", Format: "text", Output: &buf})

	op := StartOperation(context.Background(), "fetch.prices", "ticker", "MSFT")
	op.EndWithError(errors.New("boom"))

	out := buf.String()
	if !strings.Contains(out, "Operation failed") || !strings.Contains(out, "fetch.prices") {
		t.Errorf("Expected failure line with operation name, got %q", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	if parseLogLevel("warn").String() != "WARN" {
		t.Error("Expected WARN")
	}
	if parseLogLevel("garbage").String() != "INFO" {
		t.Error("Expected fallback to INFO")
	}
	if parseLogLevel("OFF") != LevelOff {
		t.Error("Expected OFF to map to LevelOff")
	}
}
