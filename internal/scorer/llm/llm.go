// Package llm scores headline polarity with a hosted chat model.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"stock-sentiment-agent/internal/api"
	"stock-sentiment-agent/internal/apperr"
	"stock-sentiment-agent/internal/interfaces"
)

const (
	ProviderOpenAI = "OPENAI"
	ProviderClaude = "CLAUDE"

	openAIBaseURL = "https://api.openai.com"
	claudeBaseURL = "https://api.anthropic.com"
)

const systemPrompt = "You are a financial analyst scoring the sentiment of stock market news headlines. Respond ONLY with valid JSON."

type Config struct {
	Provider  string
	Model     string
	APIKey    string
	MaxTokens int
	Timeout   time.Duration
	// BaseURL overrides the provider endpoint host.
	BaseURL string
}

// Scorer calls OpenAI or Claude once per headline.
type Scorer struct {
	cfg    Config
	client *api.Client
}

var _ interfaces.PolarityScorer = (*Scorer)(nil)

// New fails with apperr.ErrScorerUnavailable when the provider is unknown or
// has no API key.
func New(cfg Config) (*Scorer, error) {
	cfg.Provider = strings.ToUpper(cfg.Provider)

	base := cfg.BaseURL
	switch cfg.Provider {
	case ProviderOpenAI:
		if base == "" {
			base = openAIBaseURL
		}
	case ProviderClaude:
		if base == "" {
			base = claudeBaseURL
		}
	default:
		return nil, apperr.New(apperr.ErrScorerUnavailable, "llm.new", fmt.Sprintf("unsupported provider %q", cfg.Provider))
	}
	if cfg.APIKey == "" {
		return nil, apperr.New(apperr.ErrScorerUnavailable, "llm.new", cfg.Provider+" API key missing")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &Scorer{
		cfg: cfg,
		client: api.NewClient(
			api.WithBaseURL(base),
			api.WithTimeout(cfg.Timeout),
			api.WithLogging(true),
		),
	}, nil
}

type scoreReply struct {
	Polarity     *float64 `json:"polarity"`
	Subjectivity *float64 `json:"subjectivity"`
}

func (s *Scorer) Score(ctx context.Context, text string) (float64, float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, 0, apperr.InvalidInput("llm.score", "text is empty")
	}

	var (
		content string
		err     error
	)
	switch s.cfg.Provider {
	case ProviderOpenAI:
		content, err = s.completeOpenAI(ctx, buildPrompt(text))
	default:
		content, err = s.completeClaude(ctx, buildPrompt(text))
	}
	if err != nil {
		return 0, 0, apperr.ScorerUnavailable("llm.score", err)
	}

	reply, err := parseReply(content)
	if err != nil {
		return 0, 0, apperr.ScorerUnavailable("llm.score", err)
	}
	return clamp(*reply.Polarity, -1, 1), clamp(*reply.Subjectivity, 0, 1), nil
}

func buildPrompt(headline string) string {
	return fmt.Sprintf(`Score the sentiment of this stock market news headline.

Headline: %s

polarity: -1.0 (very negative for the stock) to 1.0 (very positive), 0 when neutral.
subjectivity: 0.0 (purely factual) to 1.0 (purely opinion).

Respond ONLY with valid JSON matching this schema:
{"polarity": float, "subjectivity": float}`, headline)
}

// parseReply accepts the JSON object optionally wrapped in a code fence.
func parseReply(content string) (scoreReply, error) {
	content = strings.TrimSpace(content)
	if i := strings.Index(content, "{"); i >= 0 {
		if j := strings.LastIndex(content, "}"); j > i {
			content = content[i : j+1]
		}
	}

	var r scoreReply
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return r, fmt.Errorf("invalid JSON reply: %w", err)
	}
	if r.Polarity == nil || r.Subjectivity == nil {
		return r, errors.New("reply missing polarity or subjectivity")
	}
	return r, nil
}

func (s *Scorer) completeOpenAI(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model": s.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
		"temperature": 0,
		"max_tokens":  s.cfg.MaxTokens,
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	err := s.client.PostJSON(ctx, "/v1/chat/completions", body, map[string]string{
		"Authorization": "Bearer " + s.cfg.APIKey,
	}, &r)
	if err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return r.Choices[0].Message.Content, nil
}

func (s *Scorer) completeClaude(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":      s.cfg.Model,
		"max_tokens": s.cfg.MaxTokens,
		"system":     systemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var r struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	err := s.client.PostJSON(ctx, "/v1/messages", body, map[string]string{
		"x-api-key":         s.cfg.APIKey,
		"anthropic-version": "2023-06-01",
	}, &r)
	if err != nil {
		return "", err
	}
	if len(r.Content) == 0 {
		return "", errors.New("no content")
	}
	return r.Content[0].Text, nil
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
