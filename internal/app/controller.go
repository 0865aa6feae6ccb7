// Package app hosts the phase machine that ties context selection,
// service selection and the active service together, and the bubbletea
// program that drives it.
package app

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lazycloud/internal/core"
	"lazycloud/internal/keys"
	"lazycloud/internal/system"
	"lazycloud/internal/ui"
	"lazycloud/internal/widget"
)

// Phase is the controller state. Exactly one is current.
type Phase int

const (
	PhaseSelectingContext Phase = iota
	PhaseSelectingService
	PhaseActiveService
)

func (p Phase) String() string {
	switch p {
	case PhaseSelectingContext:
		return "selecting-context"
	case PhaseSelectingService:
		return "selecting-service"
	case PhaseActiveService:
		return "active-service"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Effect is what the program loop must do after an event.
type Effect int

const (
	EffectNone Effect = iota
	EffectQuit
)

// Options configures a Controller.
type Options struct {
	Keys  *keys.Map
	Theme *ui.Theme
	Env   core.Env
	// OnContextSelected runs after the user picks a context.
	OnContextSelected func(core.Context)
}

// Controller owns the phase machine. It is driven from a single loop.
type Controller struct {
	reg   *core.Registry
	keys  *keys.Map
	theme *ui.Theme
	env   core.Env

	phase    Phase
	contexts *widget.List[core.Context]
	services *widget.List[core.Descriptor]
	context  core.Context
	active   core.Service
	activeID core.ServiceID
	status   core.Status

	help     help.Model
	showHelp bool
	width    int
	height   int

	onContext func(core.Context)
}

func New(reg *core.Registry, contexts []core.Context, opts Options) *Controller {
	km := opts.Keys
	if km == nil {
		km = keys.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = &ui.Vitesse
	}
	env := opts.Env
	env.Keys = km
	c := &Controller{
		reg:   reg,
		keys:  km,
		theme: theme,
		env:   env,
		contexts: widget.NewList("contexts", km,
			func(ctx core.Context) string { return ctx.Name },
			contextDetail),
		services: widget.NewList("services", km,
			func(d core.Descriptor) string { return strings.TrimSpace(d.Icon + " " + d.Name) },
			func(d core.Descriptor) string { return d.Description }),
		help:      help.New(),
		width:     100,
		height:    30,
		onContext: opts.OnContextSelected,
	}
	c.contexts.Empty = "no contexts found (run `gcloud init`, or start with --demo)"
	c.services.Empty = "no services for this provider"
	c.contexts.SetItems(contexts)
	return c
}

func contextDetail(ctx core.Context) string {
	parts := []string{string(ctx.Provider)}
	for _, s := range []string{ctx.Project, ctx.Account, ctx.Region} {
		if s != "" && s != ctx.Name {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " · ")
}

func (c *Controller) Phase() Phase { return c.phase }

// Context returns the selected context; it is meaningful outside
// PhaseSelectingContext.
func (c *Controller) Context() core.Context { return c.context }

// Active returns the running service, or nil.
func (c *Controller) Active() core.Service { return c.active }

func (c *Controller) Status() core.Status {
	if c.active != nil {
		if st := c.active.Status(); !st.Empty() {
			return st
		}
	}
	return c.status
}

func (c *Controller) Theme() *ui.Theme { return c.theme }

func (c *Controller) setPhase(p Phase) {
	if c.phase != p {
		system.Logger.Debug("phase", "from", c.phase, "to", p)
	}
	c.phase = p
}

// Handle routes one input event and reports whether to quit.
func (c *Controller) Handle(ev core.Event) Effect {
	switch ev.Kind {
	case core.EventResize:
		c.width, c.height = ev.Width, ev.Height
		c.resizeActive()
		return EffectNone
	case core.EventTick:
		c.Tick()
		return EffectNone
	case core.EventKey:
		if key.Matches(ev.Key, c.keys.ForceQuit) {
			return EffectQuit
		}
		if c.status.Level == core.StatusError {
			c.status = core.Status{}
		}
	}

	switch c.phase {
	case PhaseSelectingContext:
		h, err := c.contexts.HandleEvent(ev)
		if err != nil {
			c.fail(err)
			return EffectNone
		}
		if ctx, ok := h.Message(); ok {
			c.SelectContext(ctx)
			return EffectNone
		}
		if h.IsIgnored() {
			return c.global(ev)
		}
	case PhaseSelectingService:
		h, err := c.services.HandleEvent(ev)
		if err != nil {
			c.fail(err)
			return EffectNone
		}
		if d, ok := h.Message(); ok {
			_ = c.SelectService(d)
			return EffectNone
		}
		if h.IsIgnored() {
			if ev.IsKey() && key.Matches(ev.Key, c.keys.Back) {
				c.setPhase(PhaseSelectingContext)
				return EffectNone
			}
			return c.global(ev)
		}
	case PhaseActiveService:
		res := c.active.HandleEvent(ev)
		if res.Kind == core.ResultHandled {
			res = c.active.Drain()
		}
		switch res.Kind {
		case core.ResultIgnored:
			return c.global(ev)
		case core.ResultClose, core.ResultError:
			c.closeService(res.Err)
		}
	}
	return EffectNone
}

// global handles keys no element claimed.
func (c *Controller) global(ev core.Event) Effect {
	if !ev.IsKey() {
		return EffectNone
	}
	switch {
	case key.Matches(ev.Key, c.keys.Quit):
		return EffectQuit
	case key.Matches(ev.Key, c.keys.Help):
		c.showHelp = !c.showHelp
		c.resizeActive()
	case key.Matches(ev.Key, c.keys.Theme):
		c.theme = ui.Next(c.theme)
	}
	return EffectNone
}

// Tick drives the active service: its elements tick and its mailbox drains.
func (c *Controller) Tick() {
	if c.active == nil {
		return
	}
	res := c.active.OnTick()
	if res.Kind == core.ResultClose || res.Kind == core.ResultError {
		c.closeService(res.Err)
	}
}

// SelectContext moves to service selection for ctx.
func (c *Controller) SelectContext(ctx core.Context) {
	c.context = ctx
	c.services.SetItems(c.reg.Available(ctx))
	c.setPhase(PhaseSelectingService)
	system.Logger.Info("context selected", "context", ctx.Name, "provider", ctx.Provider)
	if c.onContext != nil {
		c.onContext(ctx)
	}
}

// SelectService builds and mounts d for the selected context. A failed
// construction keeps the controller in service selection.
func (c *Controller) SelectService(d core.Descriptor) error {
	if c.phase == PhaseSelectingContext {
		return fmt.Errorf("select a context before %s", d.ID)
	}
	if c.active != nil {
		c.closeService(nil)
	}
	svc, err := d.New(c.context, c.env)
	if err != nil {
		err = fmt.Errorf("start %s: %w", d.Name, err)
		c.fail(err)
		return err
	}
	c.active, c.activeID = svc, d.ID
	c.status = core.Status{}
	svc.Mount()
	c.setPhase(PhaseActiveService)
	c.resizeActive()
	system.Logger.Info("service started", "service", d.ID, "context", c.context.Name)
	return nil
}

// closeService tears the active service down and returns to service
// selection. A non-nil err is shown on the status line.
func (c *Controller) closeService(err error) {
	if c.active == nil {
		return
	}
	c.active.Unmount()
	system.Logger.Info("service closed", "service", c.activeID, "err", err)
	c.active = nil
	c.activeID = core.ServiceID{}
	c.setPhase(PhaseSelectingService)
	if err != nil {
		c.fail(fmt.Errorf("%s closed: %w", c.serviceName(), err))
	}
}

// Shutdown unmounts the active service, if any.
func (c *Controller) Shutdown() {
	if c.active != nil {
		c.closeService(nil)
	}
}

func (c *Controller) serviceName() string {
	if d, ok := c.services.Selected(); ok {
		return d.Name
	}
	return "service"
}

func (c *Controller) fail(err error) {
	system.Logger.Warn("controller error", "phase", c.phase, "err", err)
	c.status = core.Status{Text: err.Error(), Level: core.StatusError}
}

// Preselect jumps straight to a context and, optionally, a service, as if
// the user had picked them. Unknown names get a suggestion.
func (c *Controller) Preselect(contextName, service string) error {
	if contextName != "" {
		items := c.contexts.Items()
		i := slices.IndexFunc(items, func(x core.Context) bool { return x.Name == contextName })
		if i < 0 {
			names := make([]string, 0, len(items))
			for _, x := range items {
				names = append(names, x.Name)
			}
			if s := core.Closest(contextName, names); s != "" {
				return fmt.Errorf("unknown context %q (did you mean %s?)", contextName, s)
			}
			return fmt.Errorf("unknown context %q", contextName)
		}
		c.contexts.SelectWhere(func(x core.Context) bool { return x.Name == contextName })
		c.SelectContext(items[i])
	}
	if service == "" {
		return nil
	}
	if c.phase == PhaseSelectingContext {
		return fmt.Errorf("--service %s needs a context", service)
	}
	d, err := c.reg.Resolve(c.context, service)
	if err != nil {
		return err
	}
	c.services.SelectWhere(func(x core.Descriptor) bool { return x.ID == d.ID })
	return c.SelectService(d)
}

// FocusContext moves the context cursor to name without selecting it.
func (c *Controller) FocusContext(name string) bool {
	return c.contexts.SelectWhere(func(x core.Context) bool { return x.Name == name })
}

// ReloadContexts replaces the selectable contexts, keeping the cursor on
// the same context when it still exists.
func (c *Controller) ReloadContexts(contexts []core.Context) {
	prev, had := c.contexts.Selected()
	c.contexts.SetItems(contexts)
	if had {
		c.contexts.SelectWhere(func(x core.Context) bool { return x.Name == prev.Name })
	}
	system.Logger.Debug("contexts reloaded", "count", len(contexts))
}

// View renders the current phase full screen: header, body and footer.
func (c *Controller) View() string {
	t := c.theme
	area := c.bodyArea()
	w, bodyH := area.Width, area.Height
	header := c.header(w)
	footer := c.footer(w)

	var body string
	switch c.phase {
	case PhaseSelectingContext:
		body = c.selector(area, "Select a context", c.contexts.Render(area.Shrink(2, 2), t))
	case PhaseSelectingService:
		body = c.selector(area, "Services · "+c.context.Label(), c.services.Render(area.Shrink(2, 2), t))
	case PhaseActiveService:
		body = c.active.Render(area, t)
	}
	return header + "\n" + ui.Fit(body, w, bodyH) + "\n" + footer
}

// bodyArea is the space between the one-line header and the footer.
func (c *Controller) bodyArea() core.Area {
	w, h := max(20, c.width), max(6, c.height)
	return core.Area{Width: w, Height: max(1, h-1-lipgloss.Height(c.footer(w)))}
}

// resizeActive tells the active service how much room it has.
func (c *Controller) resizeActive() {
	if c.active == nil {
		return
	}
	a := c.bodyArea()
	c.active.HandleEvent(core.ResizeEvent(a.Width, a.Height))
}

func (c *Controller) selector(area core.Area, title, list string) string {
	lines := []string{" " + c.theme.AccentBold().Render(title), ""}
	for _, ln := range strings.Split(list, "\n") {
		lines = append(lines, "  "+ln)
	}
	return ui.Fit(strings.Join(lines, "\n"), area.Width, area.Height)
}

// Breadcrumbs is the navigation path shown in the header.
func (c *Controller) Breadcrumbs() []string {
	crumbs := []string{"lazycloud"}
	if c.phase == PhaseSelectingContext {
		return crumbs
	}
	crumbs = append(crumbs, c.context.Name)
	if c.active != nil {
		crumbs = append(crumbs, c.active.Breadcrumbs()...)
	}
	return crumbs
}

func (c *Controller) header(w int) string {
	t := c.theme
	crumbs := c.Breadcrumbs()
	parts := make([]string, 0, len(crumbs))
	for i, s := range crumbs {
		if i == len(crumbs)-1 {
			parts = append(parts, t.AccentBold().Render(s))
		} else {
			parts = append(parts, t.MutedStyle().Render(s))
		}
	}
	sep := t.MutedStyle().Render(" › ")
	return ui.Fit(" "+strings.Join(parts, sep), w, 1)
}

func (c *Controller) footer(w int) string {
	t := c.theme
	bindings := c.bindings()
	hm := c.help
	hm.Width = w - 2
	hm.Styles.ShortKey = t.AccentBold()
	hm.Styles.ShortDesc = t.MutedStyle()
	hm.Styles.FullKey = t.AccentBold()
	hm.Styles.FullDesc = t.MutedStyle()

	var helpView string
	if c.showHelp {
		helpView = hm.FullHelpView(append(chunk(bindings, 4), c.keys.Nav()))
	} else {
		helpView = hm.ShortHelpView(bindings)
	}

	st := c.Status()
	left := []string{c.phase.String()}
	if c.phase != PhaseSelectingContext {
		left = append(left, c.context.Label())
	}
	var right []string
	if !st.Empty() {
		text := st.Text
		if st.Level == core.StatusError {
			text = "✗ " + text
		}
		right = append(right, text)
	}
	right = append(right, t.Name)
	return " " + helpView + "\n" + ui.StatusBar(t, w, left, right)
}

func (c *Controller) bindings() []key.Binding {
	var out []key.Binding
	switch c.phase {
	case PhaseSelectingContext:
		out = c.contexts.KeyBindings()
	case PhaseSelectingService:
		out = append(c.services.KeyBindings(), c.keys.Back)
	case PhaseActiveService:
		out = c.active.KeyBindings()
	}
	return append(out, c.keys.Global()...)
}

func chunk(bs []key.Binding, n int) [][]key.Binding {
	var out [][]key.Binding
	for len(bs) > n {
		out = append(out, bs[:n])
		bs = bs[n:]
	}
	if len(bs) > 0 {
		out = append(out, bs)
	}
	return out
}

// Event converts a bubbletea message into a controller event.
func Event(msg tea.Msg) (core.Event, bool) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		return core.KeyEvent(m), true
	case tea.MouseMsg:
		return core.MouseEvent(m), true
	case tea.WindowSizeMsg:
		return core.ResizeEvent(m.Width, m.Height), true
	}
	return core.Event{}, false
}
