// Package scorer selects the PolarityScorer backend from configuration.
package scorer

import (
	"fmt"
	"os"
	"strings"

	"stock-sentiment-agent/internal/apperr"
	"stock-sentiment-agent/internal/interfaces"
	"stock-sentiment-agent/internal/metrics"
	"stock-sentiment-agent/internal/scorer/lexicon"
	"stock-sentiment-agent/internal/scorer/llm"
	"stock-sentiment-agent/internal/scorer/scorerobs"
	"stock-sentiment-agent/internal/store"
)

// New builds the configured scorer wrapped with observability.
func New(cfg *store.Config, recorder *metrics.Recorder) (interfaces.PolarityScorer, error) {
	provider := strings.ToUpper(cfg.Scorer.Provider)

	var s interfaces.PolarityScorer
	switch provider {
	case "", "LEXICON":
		provider = "LEXICON"
		s = lexicon.New()
	case llm.ProviderOpenAI, llm.ProviderClaude:
		keyEnv := "OPENAI_API_KEY"
		if provider == llm.ProviderClaude {
			keyEnv = "ANTHROPIC_API_KEY"
		}
		ls, err := llm.New(llm.Config{
			Provider:  provider,
			Model:     cfg.Scorer.Model,
			APIKey:    os.Getenv(keyEnv),
			MaxTokens: cfg.Scorer.MaxTokens,
			Timeout:   cfg.Scorer.Timeout,
		})
		if err != nil {
			return nil, err
		}
		s = ls
	default:
		return nil, apperr.New(apperr.ErrScorerUnavailable, "scorer.new", fmt.Sprintf("unknown provider %q", cfg.Scorer.Provider))
	}

	return scorerobs.Wrap(s, strings.ToLower(provider), recorder), nil
}
