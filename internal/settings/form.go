package settings

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"lazycloud/internal/config"
	"lazycloud/internal/ui"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Run opens the settings form for config.yaml and saves it on submit.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := NewForm(&cfg).Run(); err != nil {
		return err // form canceled or failed
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	p, _ := config.Path()
	fmt.Printf("\n✓ saved %s\n\n", p)
	return nil
}

// NewForm binds the editable fields of cfg to a huh form.
func NewForm(cfg *config.Config) *huh.Form {
	// Light theme tweaks inspired by freeze/interactive.go
	green := lipgloss.Color("#03BF87")
	theme := huh.ThemeCharm()
	theme.FieldSeparator = lipgloss.NewStyle()
	theme.Blurred.Title = theme.Blurred.Title.Width(14).Foreground(lipgloss.Color("7"))
	theme.Focused.Title = theme.Focused.Title.Width(14).Foreground(green).Bold(true)
	theme.Blurred.SelectedOption = theme.Blurred.SelectedOption.Foreground(lipgloss.Color("243"))
	theme.Focused.SelectedOption = lipgloss.NewStyle().Foreground(green)
	theme.Focused.Base.BorderForeground(green)

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, ok := ui.Lookup(cfg.Theme); !ok {
		cfg.Theme = ui.ThemeNames()[0]
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title("Settings").Description("Saved to config.yaml; flags still win at startup"),
			huh.NewSelect[string]().
				Title("Theme").
				Options(huh.NewOptions(ui.ThemeNames()...)...).
				Value(&cfg.Theme),
			huh.NewInput().
				Title("Tick interval").
				Placeholder(config.DefaultTick.String()).
				Validate(ValidateTick).
				Value(&cfg.Tick),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions(logLevels...)...).
				Value(&cfg.LogLevel),
		),
	).WithTheme(theme).WithWidth(60)
}

// ValidateTick accepts an empty value (the default) or a positive duration
// no longer than a second.
func ValidateTick(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("not a duration: %q", s)
	}
	if d <= 0 || d > time.Second {
		return fmt.Errorf("tick must be within (0, 1s]")
	}
	return nil
}
