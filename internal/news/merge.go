package news

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"stock-sentiment-agent/internal/interfaces"
	"stock-sentiment-agent/internal/types"
)

// Merged fans out to several sources and combines their headlines. Any
// source failing fails the whole fetch.
type Merged struct {
	sources      []interfaces.HeadlineSource
	maxHeadlines int
}

var _ interfaces.HeadlineSource = (*Merged)(nil)

// NewMerged keeps at most maxHeadlines of the newest headlines; 0 keeps all.
func NewMerged(maxHeadlines int, sources ...interfaces.HeadlineSource) *Merged {
	return &Merged{sources: sources, maxHeadlines: maxHeadlines}
}

func (m *Merged) Fetch(ctx context.Context, ticker string, start, end time.Time) ([]types.Headline, error) {
	results := make([][]types.Headline, len(m.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range m.sources {
		g.Go(func() error {
			hs, err := src.Fetch(gctx, ticker, start, end)
			if err != nil {
				return fmt.Errorf("headline source %d: %w", i, err)
			}
			results[i] = hs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	out := []types.Headline{}
	for _, hs := range results {
		for _, h := range hs {
			h.Text = normalizeText(h.Text)
			if h.Text == "" {
				continue
			}
			key := dedupeKey(h)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, h)
		}
	}

	// newest first, text as tiebreak so the cut is stable
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].Text < out[j].Text
	})
	if m.maxHeadlines > 0 && len(out) > m.maxHeadlines {
		out = out[:m.maxHeadlines]
	}
	return out, nil
}
