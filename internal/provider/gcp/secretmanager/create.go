package secretmanager

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"lazycloud/internal/core"
	"lazycloud/internal/ui"
	"lazycloud/internal/widget"
)

// createWizard asks for a name, then an optional first payload. Esc on the
// payload step goes back to the name.
type createWizard struct {
	name      *widget.TextField
	payload   *widget.TextField
	step      int
	dismissed bool
}

func newCreateWizard() *createWizard {
	return &createWizard{
		name: widget.NewTextField("Secret name", "my-secret").
			WithValidator(ValidateSecretName).
			WithHint("letters, digits, _ and -"),
		payload: widget.NewTextField("Initial value", "leave empty to create without a version").
			Masked(),
	}
}

func (w *createWizard) field() *widget.TextField {
	if w.step == 0 {
		return w.name
	}
	return w.payload
}

func (w *createWizard) HandleEvent(ev core.Event) (core.Handled[Msg], error) {
	h, err := w.field().HandleEvent(ev)
	if err != nil {
		return core.Consumed[Msg](), err
	}
	sub, ok := h.Message()
	if !ok {
		return core.Consumed[Msg](), nil
	}
	switch {
	case w.step == 0 && sub.Cancelled:
		w.dismissed = true
	case w.step == 0:
		w.step = 1
	case sub.Cancelled:
		w.step = 0
	default:
		w.dismissed = true
		var data []byte
		if sub.Value != "" {
			data = []byte(sub.Value)
		}
		return core.Produced[Msg](CreateSecret{Name: strings.TrimSpace(w.name.Value()), Payload: data}), nil
	}
	return core.Consumed[Msg](), nil
}

func (w *createWizard) Render(area core.Area, theme *ui.Theme) string {
	step := theme.MutedStyle().Render([]string{"step 1 of 2", "step 2 of 2 · " + w.name.Value()}[w.step])
	return step + "\n\n" + w.field().Render(area.Shrink(0, 2), theme)
}

func (w *createWizard) Title() string              { return "New secret" }
func (w *createWizard) Dismissed() bool            { return w.dismissed }
func (w *createWizard) KeyBindings() []key.Binding { return w.field().KeyBindings() }
