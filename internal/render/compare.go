package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"stock-sentiment-agent/internal/types"
)

// CompareText writes one table row per ticker in request order.
func CompareText(w io.Writer, c *types.Comparison) error {
	st := newStyles(lipgloss.NewRenderer(w))

	var b strings.Builder
	b.WriteString(st.title.Render("Relative Performance"))
	b.WriteString(" ")
	b.WriteString(st.label.Render(fmt.Sprintf("%s to %s", c.Range.Start.Format(time.DateOnly), c.Range.End.Format(time.DateOnly))))
	b.WriteString("\n")

	changes := make([]float64, len(c.Entries))
	data := make([][]string, len(c.Entries))
	for i, e := range c.Entries {
		changes[i] = e.ChangePct
		price, day, mcap, pe := "n/a", "n/a", "n/a", "n/a"
		if q := e.Quote; q != nil {
			price = strings.TrimSpace(fmt.Sprintf("%.2f %s", q.Price, q.Currency))
			if pct, ok := q.DayChangePct(); ok {
				day = fmt.Sprintf("%+.2f%%", pct)
			}
			mcap = optionalLarge(q.MarketCap)
			pe = optional(q.TrailingPE)
		}
		data[i] = []string{e.Ticker, price, day, fmt.Sprintf("%+.2f%%", e.ChangePct), mcap, pe}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.border).
		Headers("Ticker", "Price", "Day", "Change", "Market Cap", "P/E").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return st.header
			case col == 3 && row >= 0 && row < len(changes):
				return st.forChange(changes[row]).Padding(0, 1)
			default:
				return st.cell
			}
		})
	b.WriteString(t.Render())
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// CompareJSON writes c as indented JSON.
func CompareJSON(w io.Writer, c *types.Comparison) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
