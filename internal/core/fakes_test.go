package core

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"lazycloud/internal/ui"
)

type testMsg struct {
	topic string
	name  string
	err   error
}

func (m testMsg) Topic() string   { return m.topic }
func (m testMsg) Failure() error { return m.err }

func msg(name string) testMsg { return testMsg{topic: "test", name: name} }

// fakePage counts the events it receives and answers from a script keyed
// by the key string.
type fakePage struct {
	title  string
	hits   int
	script map[string]Handled[testMsg]
	err    error
}

func newPage(title string) *fakePage {
	return &fakePage{title: title, script: map[string]Handled[testMsg]{}}
}

func (p *fakePage) HandleEvent(ev Event) (Handled[testMsg], error) {
	p.hits++
	if p.err != nil {
		return Ignored[testMsg](), p.err
	}
	if h, ok := p.script[ev.Key.String()]; ok {
		return h, nil
	}
	return Ignored[testMsg](), nil
}

func (p *fakePage) Render(area Area, _ *ui.Theme) string {
	return fmt.Sprintf("%s %dx%d", p.title, area.Width, area.Height)
}

func (p *fakePage) Breadcrumbs() []string { return []string{p.title} }

func (p *fakePage) KeyBindings() []key.Binding { return nil }

// fakeConfirm confirms on "y" and cancels on "esc".
type fakeConfirm struct {
	hits      int
	dismissed bool
}

func (o *fakeConfirm) HandleEvent(ev Event) (Handled[testMsg], error) {
	o.hits++
	switch ev.Key.String() {
	case "y":
		o.dismissed = true
		return Produced(msg("confirmed")), nil
	case "esc":
		o.dismissed = true
		return Consumed[testMsg](), nil
	}
	return Ignored[testMsg](), nil
}

func (o *fakeConfirm) Render(area Area, _ *ui.Theme) string {
	return strings.Repeat("?", min(area.Width, 5))
}

func (o *fakeConfirm) Title() string   { return "Confirm" }
func (o *fakeConfirm) Dismissed() bool { return o.dismissed }

// recorder is a handler that records message names in order.
type recorder struct {
	seen []string
	next func(testMsg) (UpdateResult[testMsg], error)
}

func (r *recorder) handle(m testMsg) (UpdateResult[testMsg], error) {
	r.seen = append(r.seen, m.name)
	if r.next != nil {
		return r.next(m)
	}
	return Idle[testMsg](), nil
}

func newInstance(root Page[testMsg]) (*Instance[testMsg], *recorder) {
	in, err := NewInstance(Options[testMsg]{
		Name: "test",
		Root: root,
		Back:     key.NewBinding(key.WithKeys("esc")),
		Commands: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "commands")),
	})
	if err != nil {
		panic(err)
	}
	rec := &recorder{}
	in.Route("test", rec.handle)
	in.Mount()
	return in, rec
}
