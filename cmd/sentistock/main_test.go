package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stock-sentiment-agent/internal/apperr"
	"stock-sentiment-agent/internal/types"
)

const offlineConfig = `
news:
  sources: [STATIC]
market:
  source: STATIC
cache:
  backend: NONE
`

func writeConfig(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(offlineConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAnalyzeText(t *testing.T) {
	out, err := run(t, "analyze", "AAPL", "--days", "10", "--config", writeConfig(t))
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if !strings.Contains(out, "SentiStock Analytics") || !strings.Contains(out, "AAPL") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestAnalyzeJSON(t *testing.T) {
	out, err := run(t, "analyze", "msft", "--json", "--config", writeConfig(t))
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	var r types.Report
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("Expected JSON report: %v\n%s", err, out)
	}
	if r.Ticker != "MSFT" {
		t.Errorf("Expected MSFT, got %s", r.Ticker)
	}
	if r.Aggregate.HeadlineCount != len(r.ScoredHeadlines) {
		t.Errorf("Aggregate count %d != scored %d", r.Aggregate.HeadlineCount, len(r.ScoredHeadlines))
	}
}

func TestAnalyzeInvalidTicker(t *testing.T) {
	_, err := run(t, "analyze", "NOT A TICKER", "--config", writeConfig(t))
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestAnalyzeRequiresTicker(t *testing.T) {
	if _, err := run(t, "analyze", "--config", writeConfig(t)); err == nil {
		t.Error("Expected error without ticker argument")
	}
}

func TestAnalyzeRejectsNaNThreshold(t *testing.T) {
	_, err := run(t, "analyze", "AAPL", "--threshold", "NaN", "--config", writeConfig(t))
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestAnalyzeTextShowsQuote(t *testing.T) {
	out, err := run(t, "analyze", "TCS.NS", "--config", writeConfig(t))
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	for _, want := range []string{" INR", "Fundamentals:", "52W High"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestCompareText(t *testing.T) {
	out, err := run(t, "compare", "AAPL", "msft", "--days", "30", "--config", writeConfig(t))
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	for _, want := range []string{"Relative Performance", "AAPL", "MSFT", "Change"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestCompareJSON(t *testing.T) {
	out, err := run(t, "compare", "AAPL", "MSFT", "--json", "--config", writeConfig(t))
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	var c types.Comparison
	if err := json.Unmarshal([]byte(out), &c); err != nil {
		t.Fatalf("Expected JSON comparison: %v\n%s", err, out)
	}
	if len(c.Entries) != 2 || c.Entries[0].Ticker != "AAPL" || c.Entries[1].Ticker != "MSFT" {
		t.Errorf("Unexpected entries %+v", c.Entries)
	}
}

func TestCompareRequiresTwoTickers(t *testing.T) {
	if _, err := run(t, "compare", "AAPL", "--config", writeConfig(t)); err == nil {
		t.Error("Expected error for a single ticker")
	}
	_, err := run(t, "compare", "AAPL", "aapl", "--config", writeConfig(t))
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for duplicate tickers, got %v", err)
	}
}
