package widget

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"lazycloud/internal/core"
	"lazycloud/internal/ui"
)

// Submission is what a TextField produces: the entered value exactly as
// typed, or a cancellation.
type Submission struct {
	Value     string
	Cancelled bool
}

// TextField is a single-line labelled input. Enter submits (after the
// optional validator passes), Esc cancels.
type TextField struct {
	label    string
	hint     string
	input    textinput.Model
	validate func(string) error
	err      error
}

func NewTextField(label, placeholder string) *TextField {
	in := textinput.New()
	in.Prompt = "› "
	in.Placeholder = placeholder
	in.CharLimit = 4096
	in.Cursor.SetMode(cursor.CursorStatic)
	in.Focus()
	return &TextField{label: label, input: in}
}

// WithValidator runs fn on submit; a non-nil error blocks submission and
// is shown under the field.
func (f *TextField) WithValidator(fn func(string) error) *TextField {
	f.validate = fn
	return f
}

func (f *TextField) WithValue(v string) *TextField {
	f.input.SetValue(v)
	f.input.CursorEnd()
	return f
}

// WithHint sets a muted line shown under the input.
func (f *TextField) WithHint(h string) *TextField {
	f.hint = h
	return f
}

// Masked hides the typed characters.
func (f *TextField) Masked() *TextField {
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '•'
	return f
}

func (f *TextField) Value() string      { return f.input.Value() }
func (f *TextField) Err() error         { return f.err }
func (f *TextField) SetError(err error) { f.err = err }

func (f *TextField) HandleEvent(ev core.Event) (core.Handled[Submission], error) {
	if ev.Kind != core.EventKey {
		return core.Ignored[Submission](), nil
	}
	switch ev.Key.Type {
	case tea.KeyEnter:
		v := f.input.Value()
		if f.validate != nil {
			if err := f.validate(v); err != nil {
				f.err = err
				return core.Consumed[Submission](), nil
			}
		}
		f.err = nil
		return core.Produced(Submission{Value: v}), nil
	case tea.KeyEsc:
		return core.Produced(Submission{Cancelled: true}), nil
	}
	f.input, _ = f.input.Update(ev.Key)
	f.err = nil
	return core.Consumed[Submission](), nil
}

func (f *TextField) Render(area core.Area, theme *ui.Theme) string {
	in := f.input
	in.Width = max(1, area.Width-3)
	lines := []string{theme.AccentBold().Render(f.label), in.View()}
	if f.err != nil {
		lines = append(lines, theme.ErrorStyle().Render("✗ "+f.err.Error()))
	} else if f.hint != "" {
		lines = append(lines, theme.MutedStyle().Render(f.hint))
	}
	return strings.Join(lines, "\n")
}

func (f *TextField) KeyBindings() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}
