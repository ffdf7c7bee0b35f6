package render

import (
	"github.com/charmbracelet/lipgloss"

	"stock-sentiment-agent/internal/types"
)

// Color palette
var (
	PrimaryColor       = lipgloss.Color("#7C3AED") // Purple
	BullishColor       = lipgloss.Color("#10B981") // Green
	BearishColor       = lipgloss.Color("#EF4444") // Red
	NeutralColor       = lipgloss.Color("#6B7280") // Gray
	AccentColor        = lipgloss.Color("#F59E0B") // Amber
	BorderColor        = lipgloss.Color("#374151")
	TextColor          = lipgloss.Color("#F9FAFB")
	TextSecondaryColor = lipgloss.Color("#9CA3AF")
)

// styles are bound to one renderer so color output follows the destination
// writer rather than os.Stdout.
type styles struct {
	panel     lipgloss.Style
	title     lipgloss.Style
	ticker    lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	header    lipgloss.Style
	cell      lipgloss.Style
	muted     lipgloss.Style
	bullish   lipgloss.Style
	bearish   lipgloss.Style
	neutral   lipgloss.Style
	border    lipgloss.Style
	highlight lipgloss.Style
}

func newStyles(re *lipgloss.Renderer) styles {
	return styles{
		panel: re.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 1),
		title: re.NewStyle().
			Bold(true).
			Foreground(PrimaryColor),
		ticker:    re.NewStyle().Bold(true).Foreground(TextColor),
		label:     re.NewStyle().Foreground(TextSecondaryColor),
		value:     re.NewStyle().Bold(true).Foreground(TextColor),
		header:    re.NewStyle().Bold(true).Foreground(TextSecondaryColor).Padding(0, 1),
		cell:      re.NewStyle().Foreground(TextColor).Padding(0, 1),
		muted:     re.NewStyle().Foreground(NeutralColor),
		bullish:   re.NewStyle().Bold(true).Foreground(BullishColor),
		bearish:   re.NewStyle().Bold(true).Foreground(BearishColor),
		neutral:   re.NewStyle().Bold(true).Foreground(NeutralColor),
		border:    re.NewStyle().Foreground(BorderColor),
		highlight: re.NewStyle().Bold(true).Foreground(AccentColor),
	}
}

func (s styles) forLabel(l types.SentimentLabel) lipgloss.Style {
	switch l {
	case types.Bullish:
		return s.bullish
	case types.Bearish:
		return s.bearish
	default:
		return s.neutral
	}
}

func (s styles) forClass(c types.HeadlineClass) lipgloss.Style {
	switch c {
	case types.ClassPositive:
		return s.bullish
	case types.ClassNegative:
		return s.bearish
	default:
		return s.neutral
	}
}

func (s styles) forAgreement(a types.Agreement) lipgloss.Style {
	switch a {
	case types.Confirming:
		return s.bullish
	case types.Diverging:
		return s.highlight
	default:
		return s.muted
	}
}

func (s styles) forChange(pct float64) lipgloss.Style {
	switch {
	case pct > 0:
		return s.bullish
	case pct < 0:
		return s.bearish
	default:
		return s.neutral
	}
}
