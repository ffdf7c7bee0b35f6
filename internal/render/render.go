// Package render turns a Report into terminal text or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"stock-sentiment-agent/internal/sentiment"
	"stock-sentiment-agent/internal/types"
)

// DefaultTop is the number of headlines listed when not verbose.
const DefaultTop = 5

const maxHeadlineWidth = 72

// TextOptions controls the text renderer.
type TextOptions struct {
	// Verbose lists every scored headline instead of the first Top.
	Verbose bool
	Top     int
	// Thresholds classify each headline row. Nil means the defaults.
	Thresholds *sentiment.Thresholds
}

// Text writes a header panel and a headline table for r.
func Text(w io.Writer, r *types.Report, opts TextOptions) error {
	if opts.Top <= 0 {
		opts.Top = DefaultTop
	}
	th := sentiment.DefaultThresholds()
	if opts.Thresholds != nil {
		th = *opts.Thresholds
	}

	st := newStyles(lipgloss.NewRenderer(w))

	var b strings.Builder
	b.WriteString(header(st, r))
	b.WriteString("\n")

	if len(r.ScoredHeadlines) == 0 {
		b.WriteString(st.highlight.Render("No headlines found for the selected range."))
		b.WriteString("\n")
	} else {
		rows := r.ScoredHeadlines
		if !opts.Verbose && len(rows) > opts.Top {
			rows = rows[:opts.Top]
		}
		b.WriteString(st.title.Render(fmt.Sprintf("Recent News for %s", r.Ticker)))
		b.WriteString("\n")
		b.WriteString(headlineTable(st, rows, th))
		b.WriteString("\n")
		if len(rows) < len(r.ScoredHeadlines) {
			b.WriteString(st.muted.Render(fmt.Sprintf("%d more headlines; use --verbose to list all", len(r.ScoredHeadlines)-len(rows))))
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func header(st styles, r *types.Report) string {
	agg := r.Aggregate
	corr := r.Correlation

	lines := []string{
		st.title.Render("SentiStock Analytics"),
		st.ticker.Render(displayName(r.Ticker, r.Quote)) + " " + st.label.Render(fmt.Sprintf("%s to %s", r.Range.Start.Format(time.DateOnly), r.Range.End.Format(time.DateOnly))),
	}

	switch q := r.Quote; {
	case q != nil:
		line := st.label.Render("Price: ") + st.value.Render(fmt.Sprintf("%.2f %s", q.Price, q.Currency))
		if pct, ok := q.DayChangePct(); ok {
			line += " " + st.forChange(pct).Render(fmt.Sprintf("%+.2f%% today", pct))
		}
		if len(r.Prices) > 0 {
			line += st.label.Render("  Range: ") + st.forChange(corr.PriceChangePct).Render(fmt.Sprintf("%+.2f%%", corr.PriceChangePct))
		}
		lines = append(lines, line, st.label.Render("Fundamentals: ")+fundamentalsLine(q))
	case len(r.Prices) > 0:
		last := r.Prices[len(r.Prices)-1]
		lines = append(lines, st.label.Render("Price: ")+st.value.Render(fmt.Sprintf("%.2f", last.Close))+" "+
			st.forChange(corr.PriceChangePct).Render(fmt.Sprintf("%+.2f%%", corr.PriceChangePct)))
	default:
		lines = append(lines, st.label.Render("Price: ")+st.muted.Render("no data"))
	}

	lines = append(lines,
		st.label.Render("Sentiment: ")+st.forLabel(agg.Label).Render(fmt.Sprintf("%s (%.2f)", agg.Label, agg.MeanPolarity)),
		st.label.Render("Headlines: ")+st.value.Render(fmt.Sprintf("%d", agg.HeadlineCount))+
			st.label.Render(fmt.Sprintf("  +%d / -%d / =%d", agg.PositiveCount, agg.NegativeCount, agg.NeutralCount)),
		st.label.Render("Confidence: ")+st.value.Render(fmt.Sprintf("%.0f%%", agg.Confidence*100)),
		st.label.Render("Trend: ")+st.forAgreement(corr.Agreement).Render(string(corr.Agreement)),
	)

	if ind := r.Indicators; ind != nil {
		lines = append(lines, st.label.Render("Indicators: ")+indicatorLine(ind))
	}

	return st.panel.Render(strings.Join(lines, "\n"))
}

func displayName(ticker string, q *types.Quote) string {
	if q == nil || q.Name == "" || q.Name == ticker {
		return ticker
	}
	return fmt.Sprintf("%s (%s)", q.Name, ticker)
}

func fundamentalsLine(q *types.Quote) string {
	volume := "n/a"
	if q.Volume != nil {
		volume = FormatLarge(float64(*q.Volume))
	}
	parts := []string{
		"Market Cap " + optionalLarge(q.MarketCap),
		"P/E " + optional(q.TrailingPE),
		"52W High " + optional(q.FiftyTwoWeekHigh),
		"Volume " + volume,
	}
	return strings.Join(parts, "  ")
}

// FormatLarge abbreviates v with a T, B or M suffix.
func FormatLarge(v float64) string {
	switch a := math.Abs(v); {
	case a >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case a >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case a >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func optionalLarge(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return FormatLarge(*v)
}

func indicatorLine(ind *types.Indicators) string {
	parts := []string{
		fmt.Sprintf("SMA%d %s", ind.SMAShortPeriod, optional(ind.SMAShort)),
		fmt.Sprintf("SMA%d %s", ind.SMALongPeriod, optional(ind.SMALong)),
		fmt.Sprintf("RSI%d %s", ind.RSIPeriod, optional(ind.RSI)),
		fmt.Sprintf("MACD %s/%s", optional(ind.MACD), optional(ind.MACDSignal)),
	}
	return strings.Join(parts, "  ")
}

func optional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func headlineTable(st styles, rows []types.ScoredHeadline, th sentiment.Thresholds) string {
	classes := make([]types.HeadlineClass, len(rows))
	data := make([][]string, len(rows))
	for i, h := range rows {
		classes[i] = th.Classify(h.Polarity)
		source := h.Source
		if source == "" {
			source = "Unknown"
		}
		data[i] = []string{
			source,
			truncate(h.Text, maxHeadlineWidth),
			fmt.Sprintf("%s %+.2f", shortClass(classes[i]), h.Polarity),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.border).
		Headers("Source", "Headline", "Sentiment").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return st.header
			case col == 2 && row >= 0 && row < len(classes):
				return st.forClass(classes[row]).Padding(0, 1)
			default:
				return st.cell
			}
		})
	return t.Render()
}

func shortClass(c types.HeadlineClass) string {
	switch c {
	case types.ClassPositive:
		return "Pos"
	case types.ClassNegative:
		return "Neg"
	default:
		return "Neu"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// JSON writes r as indented JSON.
func JSON(w io.Writer, r *types.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
