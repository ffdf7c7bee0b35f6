package news

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"stock-sentiment-agent/internal/interfaces"
	"stock-sentiment-agent/internal/types"
)

// Static serves fixed headlines, either supplied per ticker or generated
// deterministically from the ticker. Used for offline runs and tests.
type Static struct {
	byTicker map[string][]types.Headline
}

var _ interfaces.HeadlineSource = (*Static)(nil)

func NewStatic(byTicker map[string][]types.Headline) *Static {
	return &Static{byTicker: byTicker}
}

var staticTemplates = []string{
	"%s shares surge after strong quarterly results",
	"Analysts upgrade %s on robust growth outlook",
	"%s faces regulatory probe over accounting concerns",
	"%s announces date for annual shareholder meeting",
	"%s stock slips as investors weigh weak guidance",
	"%s unveils new product line at investor day",
	"%s beats revenue estimates, raises dividend",
}

func (s *Static) Fetch(_ context.Context, ticker string, start, end time.Time) ([]types.Headline, error) {
	out := []types.Headline{}

	if fixed, ok := s.byTicker[ticker]; ok {
		for _, h := range fixed {
			if inRange(h.PublishedAt, start, end) {
				out = append(out, h)
			}
		}
		return out, nil
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(ticker))
	seed := int(h.Sum32())

	days := int(end.Sub(start).Hours()/24) + 1
	n := 3 + seed%4
	for i := 0; i < n; i++ {
		tmpl := staticTemplates[(seed+i)%len(staticTemplates)]
		offset := 0
		if days > 0 {
			offset = (seed/7 + i*3) % days
		}
		out = append(out, types.Headline{
			Text:        fmt.Sprintf(tmpl, baseSymbol(ticker)),
			PublishedAt: start.AddDate(0, 0, offset).Add(14 * time.Hour),
			Source:      "Static",
		})
	}
	return out, nil
}
