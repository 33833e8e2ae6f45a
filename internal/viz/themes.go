package viz

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/neurodash/internal/playback"
)

// Theme defines the panel colors. Surface colors always come from the
// diverging intensity scale.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Live      lipgloss.Color
	Paused    lipgloss.Color
	Error     lipgloss.Color
}

var (
	ThemeClinical = Theme{
		Name:      "clinical",
		Primary:   lipgloss.Color("#4393c3"),
		Secondary: lipgloss.Color("#92c5de"),
		Accent:    lipgloss.Color("#f4a582"),
		Text:      lipgloss.Color("#f7f7f7"),
		Muted:     lipgloss.Color("#6b7280"),
		Live:      lipgloss.Color("#5fd068"),
		Paused:    lipgloss.Color("#ffc048"),
		Error:     lipgloss.Color("#d6604d"),
	}

	ThemeCyberpunk = Theme{
		Name:      "cyberpunk",
		Primary:   lipgloss.Color("#ff00ff"),
		Secondary: lipgloss.Color("#00ffff"),
		Accent:    lipgloss.Color("#ffff00"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#666666"),
		Live:      lipgloss.Color("#00ff00"),
		Paused:    lipgloss.Color("#ff8800"),
		Error:     lipgloss.Color("#ff0000"),
	}

	ThemeRetroGreen = Theme{
		Name:      "retro",
		Primary:   lipgloss.Color("#00ff00"),
		Secondary: lipgloss.Color("#00cc00"),
		Accent:    lipgloss.Color("#88ff88"),
		Text:      lipgloss.Color("#00ff00"),
		Muted:     lipgloss.Color("#005500"),
		Live:      lipgloss.Color("#88ff88"),
		Paused:    lipgloss.Color("#ffff00"),
		Error:     lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:      "minimal",
		Primary:   lipgloss.Color("#ffffff"),
		Secondary: lipgloss.Color("#cccccc"),
		Accent:    lipgloss.Color("#0088ff"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#888888"),
		Live:      lipgloss.Color("#00ff00"),
		Paused:    lipgloss.Color("#ffaa00"),
		Error:     lipgloss.Color("#ff0000"),
	}

	CurrentTheme = ThemeClinical

	Themes = []Theme{
		ThemeClinical,
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeMinimal,
	}
)

// GetTheme returns a theme by name, falling back to the default.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeClinical
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return
		}
	}
	CurrentTheme = Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// ModeColor picks the status color for a playback mode.
func (t Theme) ModeColor(k playback.Kind) lipgloss.Color {
	switch k {
	case playback.Paused:
		return t.Paused
	case playback.Historical:
		return t.Accent
	}
	return t.Live
}
