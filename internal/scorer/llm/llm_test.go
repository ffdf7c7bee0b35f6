package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stock-sentiment-agent/internal/apperr"
)

func openAIServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Missing bearer token")
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": content}}},
		})
	}))
}

func TestOpenAIScore(t *testing.T) {
	srv := openAIServer(t, "```json\n{\"polarity\": 0.65, \"subjectivity\": 0.4}\n```", http.StatusOK)
	defer srv.Close()

	s, err := New(Config{Provider: "openai", Model: "gpt-4o-mini", APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	p, subj, err := s.Score(context.Background(), "Nvidia beats estimates")
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if p != 0.65 || subj != 0.4 {
		t.Errorf("Expected (0.65, 0.4), got (%f, %f)", p, subj)
	}
}

func TestScoreClampsOutOfRange(t *testing.T) {
	srv := openAIServer(t, `{"polarity": 3.2, "subjectivity": -1}`, http.StatusOK)
	defer srv.Close()

	s, _ := New(Config{Provider: ProviderOpenAI, APIKey: "test-key", BaseURL: srv.URL})
	p, subj, err := s.Score(context.Background(), "Record quarter")
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if p != 1 || subj != 0 {
		t.Errorf("Expected clamped (1, 0), got (%f, %f)", p, subj)
	}
}

func TestClaudeScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "claude-key" {
			t.Errorf("Missing api key header")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"text": `{"polarity": -0.5, "subjectivity": 0.7}`}},
		})
	}))
	defer srv.Close()

	s, err := New(Config{Provider: ProviderClaude, APIKey: "claude-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	p, subj, err := s.Score(context.Background(), "Regulators open probe")
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if p != -0.5 || subj != 0.7 {
		t.Errorf("Expected (-0.5, 0.7), got (%f, %f)", p, subj)
	}
}

func TestScoreFailuresAreScorerUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		content string
		status  int
	}{
		{"http error", "", http.StatusInternalServerError},
		{"not json", "I think it's positive", http.StatusOK},
		{"missing field", `{"polarity": 0.2}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := openAIServer(t, tt.content, tt.status)
			defer srv.Close()

			s, _ := New(Config{Provider: ProviderOpenAI, APIKey: "test-key", BaseURL: srv.URL})
			_, _, err := s.Score(context.Background(), "Apple unveils new iPhone")
			if !errors.Is(err, apperr.ErrScorerUnavailable) {
				t.Errorf("Expected scorer unavailable, got %v", err)
			}
		})
	}
}

func TestNewRequiresKeyAndProvider(t *testing.T) {
	if _, err := New(Config{Provider: ProviderOpenAI}); !errors.Is(err, apperr.ErrScorerUnavailable) {
		t.Errorf("Expected scorer unavailable for missing key, got %v", err)
	}
	_, err := New(Config{Provider: "GEMINI", APIKey: "k"})
	if !errors.Is(err, apperr.ErrScorerUnavailable) || !strings.Contains(err.Error(), "GEMINI") {
		t.Errorf("Expected unsupported provider error, got %v", err)
	}
}

func TestScoreBlankText(t *testing.T) {
	s, _ := New(Config{Provider: ProviderOpenAI, APIKey: "k", BaseURL: "http://127.0.0.1:0"})
	if _, _, err := s.Score(context.Background(), "  "); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("Expected invalid input, got %v", err)
	}
}
