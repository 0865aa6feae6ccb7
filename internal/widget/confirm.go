package widget

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lazycloud/internal/core"
	"lazycloud/internal/keys"
	"lazycloud/internal/ui"
)

// Confirm is a yes/no question. It produces true on confirm and false on
// cancel; enter answers with the focused button.
type Confirm struct {
	prompt   string
	focusYes bool
	keys     *keys.Map
}

func NewConfirm(prompt string, km *keys.Map) *Confirm {
	if km == nil {
		km = keys.Default()
	}
	return &Confirm{prompt: prompt, focusYes: true, keys: km}
}

// FocusNo moves the initial focus to the No button.
func (c *Confirm) FocusNo() *Confirm {
	c.focusYes = false
	return c
}

func (c *Confirm) HandleEvent(ev core.Event) (core.Handled[bool], error) {
	if ev.Kind != core.EventKey {
		return core.Ignored[bool](), nil
	}
	switch {
	case ev.Key.Type == tea.KeyEnter:
		return core.Produced(c.focusYes), nil
	case key.Matches(ev.Key, c.keys.Focus):
		c.focusYes = !c.focusYes
		return core.Consumed[bool](), nil
	case key.Matches(ev.Key, c.keys.Confirm):
		return core.Produced(true), nil
	case key.Matches(ev.Key, c.keys.Cancel):
		return core.Produced(false), nil
	}
	return core.Ignored[bool](), nil
}

func (c *Confirm) Render(area core.Area, theme *ui.Theme) string {
	prompt := theme.TextStyle().Width(max(1, area.Width)).Render(c.prompt)
	buttons := lipgloss.JoinHorizontal(lipgloss.Top, theme.Button("Yes", c.focusYes), "  ", theme.Button("No", !c.focusYes))
	return prompt + "\n\n" + buttons
}

func (c *Confirm) KeyBindings() []key.Binding {
	return []key.Binding{c.keys.Confirm, c.keys.Cancel, c.keys.Focus}
}
