package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme centralizes the TUI color palette and common styles.
// Elements receive it at render time and never hold on to it.
type Theme struct {
	Name string

	// Core brand/semantic colors
	Primary lipgloss.Color
	Blue    lipgloss.Color
	Yellow  lipgloss.Color
	Magenta lipgloss.Color
	Cyan    lipgloss.Color
	Red     lipgloss.Color

	// Text colors
	Text      lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color

	// Surfaces
	Bg     lipgloss.Color
	BgSoft lipgloss.Color
	Border lipgloss.Color

	// Text on accent backgrounds (e.g., buttons/chips)
	OnAccent lipgloss.Color

	// Status bar colors
	BarFG lipgloss.AdaptiveColor
	BarBG lipgloss.AdaptiveColor
}

// Vitesse is based on Vitesse Dark Soft:
// https://github.com/antfu/vscode-theme-vitesse/blob/main/themes/vitesse-dark-soft.json
var Vitesse = Theme{
	Name:    "vitesse",
	Primary: lipgloss.Color("#4d9375"),
	Blue:    lipgloss.Color("#6394bf"),
	Yellow:  lipgloss.Color("#e6cc77"),
	Magenta: lipgloss.Color("#d9739f"),
	Cyan:    lipgloss.Color("#5eaab5"),
	Red:     lipgloss.Color("#cb7676"),

	Text:      lipgloss.Color("#dbd7ca"),
	Secondary: lipgloss.Color("#bfbaaa"),
	Muted:     lipgloss.Color("#758575"),

	Bg:     lipgloss.Color("#181818"),
	BgSoft: lipgloss.Color("#292929"),
	Border: lipgloss.Color("#3a3a3a"),

	OnAccent: lipgloss.Color("#222"),

	BarFG: lipgloss.AdaptiveColor{Light: "#343433", Dark: "#bfbaaa"},
	BarBG: lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#222"},
}

// Mocha is Catppuccin Mocha.
var Mocha = Theme{
	Name:    "mocha",
	Primary: lipgloss.Color("#89b4fa"),
	Blue:    lipgloss.Color("#74c7ec"),
	Yellow:  lipgloss.Color("#f9e2af"),
	Magenta: lipgloss.Color("#cba6f7"),
	Cyan:    lipgloss.Color("#94e2d5"),
	Red:     lipgloss.Color("#f38ba8"),

	Text:      lipgloss.Color("#cdd6f4"),
	Secondary: lipgloss.Color("#bac2de"),
	Muted:     lipgloss.Color("#a6adc8"),

	Bg:     lipgloss.Color("#1e1e2e"),
	BgSoft: lipgloss.Color("#313244"),
	Border: lipgloss.Color("#585b70"),

	OnAccent: lipgloss.Color("#1e1e2e"),

	BarFG: lipgloss.AdaptiveColor{Light: "#4c4f69", Dark: "#cdd6f4"},
	BarBG: lipgloss.AdaptiveColor{Light: "#e6e9ef", Dark: "#181825"},
}

// Themes lists the built-in themes in cycling order.
var Themes = []*Theme{&Vitesse, &Mocha}

// ThemeNames returns the names of the built-in themes.
func ThemeNames() []string {
	out := make([]string, 0, len(Themes))
	for _, t := range Themes {
		out = append(out, t.Name)
	}
	return out
}

// Lookup returns the built-in theme with the given name.
func Lookup(name string) (*Theme, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, t := range Themes {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Next returns the theme after t in cycling order.
func Next(t *Theme) *Theme {
	for i, c := range Themes {
		if c == t {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

// BorderStyle returns a style with the standard border color.
func (t *Theme) BorderStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Border)
}

// AccentBold returns a bold style using the primary accent color.
func (t *Theme) AccentBold() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
}

// TextStyle is the default body text style.
func (t *Theme) TextStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Text)
}

// MutedStyle is used for hints, empty states and secondary columns.
func (t *Theme) MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Muted)
}

// ErrorStyle renders error text.
func (t *Theme) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Red)
}

// SelectedStyle highlights the cursor row of lists and tables.
func (t *Theme) SelectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.OnAccent).Background(t.Primary).Bold(true)
}

// ChipKeyStyle returns a style for the left-most highlighted chip in the status bar.
func (t *Theme) ChipKeyStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(t.OnAccent).
		Background(t.Primary).
		Padding(0, 1)
}

// ChipStyle returns a style for colored nuggets (right/left segments).
func (t *Theme) ChipStyle(bg lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.OnAccent).Background(bg).Padding(0, 1)
}

// StatusBarBase returns the base style for the status bar background/foreground.
func (t *Theme) StatusBarBase() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.BarFG).Background(t.BarBG)
}

// Button renders a small accent button label with consistent styling.
func (t *Theme) Button(s string, active bool) string {
	if !active {
		return lipgloss.NewStyle().Foreground(t.Secondary).Background(t.BgSoft).Padding(0, 1).Render(s)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(t.OnAccent).Background(t.Primary).Padding(0, 1).Render(s)
}
