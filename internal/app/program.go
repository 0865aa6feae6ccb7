package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	fsnotify "github.com/fsnotify/fsnotify"
	zone "github.com/lrstanley/bubblezone"

	"lazycloud/internal/config"
	"lazycloud/internal/system"
)

// RunOptions configures the program loop around a Controller.
type RunOptions struct {
	// Tick is the drain interval; zero uses config.DefaultTick.
	Tick time.Duration
	// WatchDirs are watched for context changes; Reload re-reads them.
	WatchDirs []string
	Reload    ContextLoader
}

type tickMsg time.Time

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type model struct {
	ctrl     *Controller
	opts     RunOptions
	watcher  *fsnotify.Watcher
	watchCh  chan struct{}
	quitting bool
}

func newModel(ctrl *Controller, opts RunOptions) model {
	if opts.Tick <= 0 {
		opts.Tick = config.DefaultTick
	}
	return model{ctrl: ctrl, opts: opts}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.opts.Tick)}
	if len(m.opts.WatchDirs) > 0 && m.opts.Reload != nil {
		cmds = append(cmds, startWatchCmd(m.opts.WatchDirs))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.ctrl.Tick()
		return m, tickCmd(m.opts.Tick)
	case watchStartedMsg:
		m.watcher, m.watchCh = msg.w, msg.ch
		return m, watchSubscribeCmd(m.watchCh, m.opts.Reload)
	case contextsChangedMsg:
		if msg.err != nil {
			system.Logger.Warn("reload contexts", "err", msg.err)
		} else {
			m.ctrl.ReloadContexts(msg.contexts)
		}
		return m, watchSubscribeCmd(m.watchCh, m.opts.Reload)
	}
	ev, ok := Event(msg)
	if !ok {
		return m, nil
	}
	if m.ctrl.Handle(ev) == EffectQuit {
		m.quitting = true
		if m.watcher != nil {
			_ = m.watcher.Close()
		}
		m.ctrl.Shutdown()
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	return zone.Scan(m.ctrl.View())
}

// Run drives ctrl until the user quits.
func Run(ctrl *Controller, opts RunOptions) error {
	zone.NewGlobal()
	_, err := tea.NewProgram(newModel(ctrl, opts), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
