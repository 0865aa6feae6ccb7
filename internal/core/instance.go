package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"

	"lazycloud/internal/system"
	"lazycloud/internal/ui"
)

// Handler applies one message to service state.
type Handler[M any] func(msg M) (UpdateResult[M], error)

// Options configures a new Instance.
type Options[M Message] struct {
	// Name identifies the instance in logs.
	Name string
	// Root is the bottom page; it is required.
	Root Page[M]
	// Back pops the top page when the page ignores it.
	Back key.Binding
	// Commands toggles the command panel when the page ignores it.
	Commands key.Binding
	// Mount returns the messages queued when the instance is mounted.
	Mount func() []M
	// Unmount runs once on teardown.
	Unmount func()
}

// Instance runs one service: a page stack that is never empty while the
// instance is alive, an optional overlay, a FIFO mailbox and the set of
// outstanding commands. All methods must be called from the UI loop.
type Instance[M Message] struct {
	name        string
	pages       []Page[M]
	overlay     Overlay[M]
	queue       *Mailbox[M]
	outstanding map[string]Handle
	handlers    map[string]Handler[M]
	history     []Finished
	back        key.Binding
	commands    key.Binding
	panel       bool
	size        Area
	onMount     func() []M
	onUnmount   func()
	spinner     spinner.Model
	status      Status
	mounted     bool
	done        bool
}

// NewInstance builds an unmounted instance.
func NewInstance[M Message](opts Options[M]) (*Instance[M], error) {
	if opts.Root == nil {
		return nil, errors.New("service instance needs a root page")
	}
	name := opts.Name
	if name == "" {
		name = "service"
	}
	return &Instance[M]{
		name:        name,
		pages:       []Page[M]{opts.Root},
		queue:       NewMailbox[M](),
		outstanding: map[string]Handle{},
		handlers:    map[string]Handler[M]{},
		back:        opts.Back,
		commands:    opts.Commands,
		onMount:     opts.Mount,
		onUnmount:   opts.Unmount,
		spinner:     spinner.New(spinner.WithSpinner(spinner.MiniDot)),
	}, nil
}

// Route registers the handler for messages of topic.
func (in *Instance[M]) Route(topic string, h Handler[M]) {
	in.handlers[topic] = h
}

// Send enqueues a local message for the next drain.
func (in *Instance[M]) Send(msg M) {
	in.queue.Send(msg)
}

// Spawn runs cmd on its own goroutine. Its message is delivered to this
// instance's mailbox, or dropped if the instance is gone by then.
func (in *Instance[M]) Spawn(cmd Command[M]) {
	if in.done || cmd == nil {
		return
	}
	h := Handle{ID: uuid.NewString(), Name: cmd.Name(), Started: time.Now()}
	in.outstanding[h.ID] = h
	box := in.queue
	system.Logger.Debug("command started", "service", in.name, "command", h.Name, "id", h.ID)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				system.Logger.Error("command panicked", "service", in.name, "command", h.Name, "panic", r)
				box.deliver(envelope[M]{handle: h.ID, at: time.Now()})
			}
		}()
		msg := cmd.Run(context.Background())
		box.deliver(envelope[M]{handle: h.ID, msg: msg, ok: true, at: time.Now()})
	}()
}

func (in *Instance[M]) Mount() {
	if in.mounted || in.done {
		return
	}
	in.mounted = true
	system.Logger.Debug("service mounted", "service", in.name)
	if in.onMount == nil {
		return
	}
	for _, m := range in.onMount() {
		in.queue.Send(m)
	}
}

func (in *Instance[M]) Unmount() {
	if in.done {
		return
	}
	in.done = true
	in.queue.Close()
	if n := len(in.outstanding); n > 0 {
		system.Logger.Debug("detaching commands", "service", in.name, "count", n)
	}
	in.outstanding = map[string]Handle{}
	in.overlay = nil
	if in.onUnmount != nil {
		in.onUnmount()
	}
	system.Logger.Debug("service unmounted", "service", in.name)
}

// HandleEvent routes ev to the overlay if one is shown, otherwise to the
// top page. Produced messages are queued, not applied. Resize events go
// to every page on the stack.
func (in *Instance[M]) HandleEvent(ev Event) ServiceResult {
	if in.done {
		return ServiceClose()
	}
	if ev.Kind == EventResize {
		in.size = Area{Width: ev.Width, Height: ev.Height}
		for _, p := range in.pages {
			in.resize(p)
		}
		return ServiceHandled()
	}
	if ev.Kind == EventKey && in.status.Level == StatusError {
		in.status = Status{}
	}
	if ov := in.overlay; ov != nil {
		h, err := ov.HandleEvent(ev)
		if ov.Dismissed() && in.overlay == ov {
			in.overlay = nil
		}
		if err != nil {
			return in.routingError(err)
		}
		if m, ok := h.Message(); ok {
			in.queue.Send(m)
		}
		return ServiceHandled()
	}

	h, err := in.top().HandleEvent(ev)
	if err != nil {
		return in.routingError(err)
	}
	if m, ok := h.Message(); ok {
		in.queue.Send(m)
		return ServiceHandled()
	}
	if h.IsConsumed() {
		return ServiceHandled()
	}
	if ev.Kind == EventKey && key.Matches(ev.Key, in.back) {
		return in.popPage()
	}
	if ev.Kind == EventKey && key.Matches(ev.Key, in.commands) {
		in.panel = !in.panel
		return ServiceHandled()
	}
	return ServiceIgnored()
}

// OnTick ticks the visible elements and drains the mailbox until empty.
func (in *Instance[M]) OnTick() ServiceResult {
	if in.done {
		return ServiceClose()
	}
	if t, ok := in.top().(Ticker); ok {
		t.OnTick()
	}
	if in.overlay != nil {
		if t, ok := in.overlay.(Ticker); ok {
			t.OnTick()
		}
	}
	if len(in.outstanding) > 0 {
		in.spinner, _ = in.spinner.Update(spinner.TickMsg{ID: in.spinner.ID(), Time: time.Now()})
	}
	return in.Drain()
}

// Drain applies queued messages in FIFO order until the mailbox is empty
// or a handler closes or fails the service.
func (in *Instance[M]) Drain() ServiceResult {
	if in.done {
		return ServiceClose()
	}
	for {
		env, ok := in.queue.pop()
		if !ok {
			break
		}
		if env.handle != "" {
			if h, ok := in.outstanding[env.handle]; ok {
				delete(in.outstanding, env.handle)
				in.retire(h, env)
			}
		}
		if !env.ok {
			continue
		}
		if res := in.dispatch(env.msg); res.Kind != ResultHandled {
			return res
		}
	}
	return ServiceHandled()
}

func (in *Instance[M]) retire(h Handle, env envelope[M]) {
	f := Finished{Handle: h, Took: env.at.Sub(h.Started), Panicked: !env.ok}
	if env.ok {
		if fm, ok := any(env.msg).(Failure); ok {
			f.Err = fm.Failure()
		}
	}
	system.Logger.Debug("command finished", "service", in.name, "command", h.Name, "took", f.Took, "ok", f.OK())
	in.history = append(in.history, f)
	if n := len(in.history) - historySize; n > 0 {
		in.history = append([]Finished(nil), in.history[n:]...)
	}
}

func (in *Instance[M]) dispatch(msg M) ServiceResult {
	h, ok := in.handlers[msg.Topic()]
	if !ok {
		return ServiceError(Fatal(fmt.Errorf("%s: no handler for %q messages", in.name, msg.Topic())))
	}
	res, err := h(msg)
	if err != nil {
		return in.routingError(err)
	}
	return in.apply(res)
}

func (in *Instance[M]) apply(res UpdateResult[M]) ServiceResult {
	if res.status != "" {
		in.Notify(res.status)
	}
	for _, c := range res.commands {
		in.Spawn(c)
	}
	for _, op := range res.ops {
		switch op.kind {
		case opPush:
			if op.page != nil {
				in.resize(op.page)
				in.pages = append(in.pages, op.page)
			}
		case opPop:
			if r := in.popPage(); r.Kind == ResultClose {
				return r
			}
		case opReplace:
			if op.page != nil {
				in.resize(op.page)
				in.pages[len(in.pages)-1] = op.page
			}
		case opShowOverlay:
			in.overlay = op.overlay
		case opDismissOverlay:
			in.overlay = nil
		case opClose:
			return ServiceClose()
		}
	}
	for _, m := range res.emit {
		in.queue.Send(m)
	}
	return ServiceHandled()
}

// resize tells p the size of the page area, keeping one line for the
// loading indicator. Nothing is sent before the first resize event.
func (in *Instance[M]) resize(p Page[M]) {
	if in.size.Height <= 0 {
		return
	}
	_, _ = p.HandleEvent(ResizeEvent(in.size.Width, max(1, in.size.Height-1)))
}

// popPage removes the top page. Popping the last page closes the service
// instead, so the stack is never empty while the instance lives.
func (in *Instance[M]) popPage() ServiceResult {
	if len(in.pages) <= 1 {
		return ServiceClose()
	}
	in.pages[len(in.pages)-1] = nil
	in.pages = in.pages[:len(in.pages)-1]
	return ServiceHandled()
}

func (in *Instance[M]) routingError(err error) ServiceResult {
	if IsFatal(err) {
		system.Logger.Error("service failed", "service", in.name, "err", err)
		return ServiceError(err)
	}
	in.Fail(err)
	return ServiceHandled()
}

// Render draws the top page, the overlay above it and, at the bottom,
// either the command panel or a loading line while commands are
// outstanding.
func (in *Instance[M]) Render(area Area, theme *ui.Theme) string {
	pageArea := area
	var footer []string
	switch {
	case in.panel && area.Height > 4:
		footer = in.commandLines(area.Width, max(2, area.Height/3), theme)
	case len(in.outstanding) > 0 && area.Height > 1:
		footer = []string{in.loadingLine(area.Width, theme)}
	}
	pageArea.Height -= len(footer)
	view := ui.Fit(in.top().Render(pageArea, theme), pageArea.Width, pageArea.Height)
	if in.overlay != nil {
		w := min(pageArea.Width-2, max(44, pageArea.Width*3/5))
		inner := Area{Width: max(1, w-4), Height: max(1, pageArea.Height-4)}
		box := ui.Box(theme, in.overlay.Title(), in.overlay.Render(inner, theme), w)
		view = ui.Composite(view, box, pageArea.Width, pageArea.Height)
	}
	if len(footer) > 0 {
		view += "\n" + strings.Join(footer, "\n")
	}
	return view
}

// commandLines lists running commands, then finished ones newest first.
func (in *Instance[M]) commandLines(width, limit int, theme *ui.Theme) []string {
	lines := []string{theme.AccentBold().Render("commands")}
	sp := in.spinner
	sp.Style = theme.AccentBold()
	for _, h := range in.Outstanding() {
		took := time.Since(h.Started).Round(100 * time.Millisecond)
		lines = append(lines, fmt.Sprintf("%s %s %s", sp.View(), h.Name, theme.MutedStyle().Render(took.String())))
	}
	for i := len(in.history) - 1; i >= 0; i-- {
		f := in.history[i]
		line := fmt.Sprintf("%s %s %s", theme.AccentBold().Render("✓"), f.Name, theme.MutedStyle().Render(f.Took.Round(time.Millisecond).String()))
		switch {
		case f.Panicked:
			line = fmt.Sprintf("%s %s %s", theme.ErrorStyle().Render("✗"), f.Name, theme.ErrorStyle().Render("panicked"))
		case f.Err != nil:
			line = fmt.Sprintf("%s %s %s", theme.ErrorStyle().Render("✗"), f.Name, theme.ErrorStyle().Render(strings.Join(strings.Fields(f.Err.Error()), " ")))
		}
		lines = append(lines, line)
	}
	if len(lines) == 1 {
		lines = append(lines, theme.MutedStyle().Render("no commands yet"))
	}
	if len(lines) > limit {
		lines = lines[:limit]
	}
	for i := range lines {
		lines[i] = xansi.Truncate(lines[i], width, "…")
	}
	return lines
}

func (in *Instance[M]) loadingLine(width int, theme *ui.Theme) string {
	hs := in.Outstanding()
	names := make([]string, 0, len(hs))
	for _, h := range hs {
		names = append(names, h.Name)
	}
	sp := in.spinner
	sp.Style = theme.AccentBold()
	line := sp.View() + " " + theme.MutedStyle().Render(strings.Join(names, ", ")+"…")
	return xansi.Truncate(line, width, "…")
}

// Breadcrumbs concatenates the breadcrumbs of every page, bottom first.
func (in *Instance[M]) Breadcrumbs() []string {
	var out []string
	for _, p := range in.pages {
		out = append(out, p.Breadcrumbs()...)
	}
	return out
}

// KeyBindings returns the bindings of whatever currently receives input.
func (in *Instance[M]) KeyBindings() []key.Binding {
	if in.overlay != nil {
		if kh, ok := in.overlay.(KeyHelper); ok {
			return kh.KeyBindings()
		}
		return nil
	}
	var out []key.Binding
	if kh, ok := in.top().(KeyHelper); ok {
		out = append(out, kh.KeyBindings()...)
	}
	out = append(out, in.back)
	if in.commands.Enabled() {
		out = append(out, in.commands)
	}
	return out
}

func (in *Instance[M]) Status() Status { return in.status }

// Notify sets an informational status line.
func (in *Instance[M]) Notify(text string) {
	in.status = Status{Text: text, Level: StatusInfo}
}

// Fail shows err on the status line.
func (in *Instance[M]) Fail(err error) {
	if err == nil {
		return
	}
	system.Logger.Warn("service error", "service", in.name, "err", err)
	in.status = Status{Text: err.Error(), Level: StatusError}
}

// Top returns the visible page.
func (in *Instance[M]) Top() Page[M] { return in.top() }

// Depth returns the number of pages on the stack.
func (in *Instance[M]) Depth() int { return len(in.pages) }

// Overlay returns the shown overlay, or nil.
func (in *Instance[M]) Overlay() Overlay[M] { return in.overlay }

// History returns the finished commands, oldest first.
func (in *Instance[M]) History() []Finished {
	return append([]Finished(nil), in.history...)
}

// CommandsShown reports whether the command panel is open.
func (in *Instance[M]) CommandsShown() bool { return in.panel }

// Queued returns the number of undrained messages.
func (in *Instance[M]) Queued() int { return in.queue.Len() }

// Outstanding returns the in-flight commands, oldest first.
func (in *Instance[M]) Outstanding() []Handle {
	out := make([]Handle, 0, len(in.outstanding))
	for _, h := range in.outstanding {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Started.Equal(out[j].Started) {
			return out[i].Started.Before(out[j].Started)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (in *Instance[M]) top() Page[M] { return in.pages[len(in.pages)-1] }
