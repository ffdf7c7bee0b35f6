package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapKeepsOriginalKind(t *testing.T) {
	inner := UnknownTicker("prices.fetch", "ZZZZ")
	wrapped := SourceUnavailable("retry", inner)

	if !errors.Is(wrapped, ErrUnknownTicker) {
		t.Errorf("Expected unknown ticker kind to survive, got %v", wrapped)
	}
	if errors.Is(wrapped, ErrSourceUnavailable) {
		t.Error("Expected error not to be reclassified as source unavailable")
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(ErrSourceUnavailable, "op", nil); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}

func TestKindThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("fetch headlines: %w", SourceUnavailable("yahoo", context.DeadlineExceeded))

	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatal("Expected source unavailable kind")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("Expected cause to stay reachable")
	}
	if !Retryable(err) {
		t.Error("Expected source unavailable to be retryable")
	}
}

func TestHTTPStatusAndCode(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{InvalidInput("validate", "bad ticker"), http.StatusBadRequest, "INVALID_INPUT"},
		{UnknownTicker("prices", "NOPE"), http.StatusNotFound, "UNKNOWN_TICKER"},
		{SourceUnavailable("news", errors.New("boom")), http.StatusServiceUnavailable, "SOURCE_UNAVAILABLE"},
		{ScorerUnavailable("llm", errors.New("no key")), http.StatusServiceUnavailable, "SCORER_UNAVAILABLE"},
		{errors.New("plain"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.status {
			t.Errorf("HTTPStatus(%v) = %d, expected %d", tt.err, got, tt.status)
		}
		if got := Code(tt.err); got != tt.code {
			t.Errorf("Code(%v) = %s, expected %s", tt.err, got, tt.code)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := InvalidInput("analyze", "ticker must match pattern")
	expected := "analyze: invalid input: ticker must match pattern"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}
