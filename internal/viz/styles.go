package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/neurodash/internal/neuro"
	"github.com/san-kum/neurodash/internal/scene"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	graphStyle  = lipgloss.NewStyle().Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().MarginTop(1)
)

func panelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(CurrentTheme.Muted).
		Padding(1, 2).
		Width(46)
}

func headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true)
}

func labelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Muted).Width(12)
}

func valueStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Text)
}

func keyStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Secondary).Bold(true)
}

// GradientText blends each rune between two hex colors in Lab space.
func GradientText(text string, from, to string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	a, errA := colorful.Hex(from)
	b, errB := colorful.Hex(to)
	if errA != nil || errB != nil {
		return text
	}

	var out strings.Builder
	for i, r := range runes {
		t := 0.0
		if len(runes) > 1 {
			t = float64(i) / float64(len(runes)-1)
		}
		c := a.BlendLab(b, t).Clamped()
		out.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(string(r)))
	}
	return out.String()
}

// MetricBar renders a 0-100 value as a bar colored by its distance from
// the neutral midpoint. Missing values render as a dashed track.
func MetricBar(v float64, width int) string {
	if neuro.IsMissing(v) {
		return lipgloss.NewStyle().Foreground(CurrentTheme.Muted).Render(strings.Repeat("╌", width))
	}
	frac := min(max(v/100, 0), 1)
	filled := int(frac*float64(width) + 0.5)
	color := scene.Color((v-neuro.Neutral)/neuro.Neutral*scene.DefaultDomain, scene.DefaultDomain)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(CurrentTheme.Muted).Render(strings.Repeat("░", width-filled))
}

// Sparkline renders the last width values with block glyphs scaled to
// their own min and max.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	out := make([]rune, len(values))
	for i, v := range values {
		idx := int((v - lo) / rng * float64(len(chars)-1))
		out[i] = chars[min(max(idx, 0), len(chars)-1)]
	}
	return lipgloss.NewStyle().Foreground(CurrentTheme.Secondary).Render(string(out))
}

// Legend renders the diverging color scale from -domain to +domain.
func Legend(domain float64, width int) string {
	if width < 2 {
		width = 2
	}
	var b strings.Builder
	for i := 0; i < width; i++ {
		v := -domain + 2*domain*float64(i)/float64(width-1)
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(scene.Color(v, domain))).Render("█"))
	}
	return b.String()
}

func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return lipgloss.NewStyle().Foreground(CurrentTheme.Muted).Render(left + " ◆ " + right)
}
