package widget

import (
	"github.com/charmbracelet/bubbles/key"

	"lazycloud/internal/core"
	"lazycloud/internal/keys"
	"lazycloud/internal/ui"
)

// ConfirmDialog is an overlay that produces onYes when confirmed. Cancel
// dismisses it without producing anything.
type ConfirmDialog[M any] struct {
	title     string
	confirm   *Confirm
	onYes     M
	dismissed bool
}

func NewConfirmDialog[M any](title, prompt string, onYes M, km *keys.Map) *ConfirmDialog[M] {
	return &ConfirmDialog[M]{title: title, confirm: NewConfirm(prompt, km), onYes: onYes}
}

func (d *ConfirmDialog[M]) HandleEvent(ev core.Event) (core.Handled[M], error) {
	h, err := d.confirm.HandleEvent(ev)
	if err != nil {
		return core.Ignored[M](), err
	}
	return core.Then(h, func(yes bool) core.Handled[M] {
		d.dismissed = true
		if yes {
			return core.Produced(d.onYes)
		}
		return core.Consumed[M]()
	}), nil
}

func (d *ConfirmDialog[M]) Render(area core.Area, theme *ui.Theme) string {
	return d.confirm.Render(area, theme)
}

func (d *ConfirmDialog[M]) Title() string              { return d.title }
func (d *ConfirmDialog[M]) Dismissed() bool            { return d.dismissed }
func (d *ConfirmDialog[M]) KeyBindings() []key.Binding { return d.confirm.KeyBindings() }

// PromptDialog is an overlay around a TextField. build turns the submitted
// text into a message; its error is shown in the field and keeps the
// dialog open.
type PromptDialog[M any] struct {
	title     string
	field     *TextField
	build     func(string) (M, error)
	dismissed bool
}

func NewPromptDialog[M any](title string, field *TextField, build func(string) (M, error)) *PromptDialog[M] {
	return &PromptDialog[M]{title: title, field: field, build: build}
}

func (d *PromptDialog[M]) HandleEvent(ev core.Event) (core.Handled[M], error) {
	h, err := d.field.HandleEvent(ev)
	if err != nil {
		return core.Ignored[M](), err
	}
	if h.IsIgnored() {
		// the dialog is modal; nothing leaks to the page below
		return core.Consumed[M](), nil
	}
	return core.Then(h, func(s Submission) core.Handled[M] {
		if s.Cancelled {
			d.dismissed = true
			return core.Consumed[M]()
		}
		m, err := d.build(s.Value)
		if err != nil {
			d.field.SetError(err)
			return core.Consumed[M]()
		}
		d.dismissed = true
		return core.Produced(m)
	}), nil
}

func (d *PromptDialog[M]) Render(area core.Area, theme *ui.Theme) string {
	return d.field.Render(area, theme)
}

func (d *PromptDialog[M]) Field() *TextField          { return d.field }
func (d *PromptDialog[M]) Title() string              { return d.title }
func (d *PromptDialog[M]) Dismissed() bool            { return d.dismissed }
func (d *PromptDialog[M]) KeyBindings() []key.Binding { return d.field.KeyBindings() }
