package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	fsnotify "github.com/fsnotify/fsnotify"

	"lazycloud/internal/core"
	"lazycloud/internal/system"
)

// settleDelay coalesces the burst of events one gcloud command produces.
const settleDelay = 150 * time.Millisecond

// ContextLoader re-reads the available contexts.
type ContextLoader func() ([]core.Context, error)

type watchStartedMsg struct {
	w  *fsnotify.Watcher
	ch chan struct{}
}

type contextsChangedMsg struct {
	contexts []core.Context
	err      error
}

// startWatchCmd watches dirs best-effort. It yields nil when no watcher
// can be created, leaving the selector static.
func startWatchCmd(dirs []string) tea.Cmd {
	return func() tea.Msg {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			system.Logger.Warn("config watch unavailable", "err", err)
			return nil
		}
		for _, d := range dirs {
			if err := w.Add(d); err != nil {
				system.Logger.Debug("not watching", "dir", d, "err", err)
			}
		}
		ch := make(chan struct{}, 1)
		go func() {
			for {
				select {
				case _, ok := <-w.Events:
					if !ok {
						return
					}
					select {
					case ch <- struct{}{}:
					default:
					}
				case err, ok := <-w.Errors:
					if !ok {
						return
					}
					system.Logger.Debug("config watch error", "err", err)
				}
			}
		}()
		return watchStartedMsg{w: w, ch: ch}
	}
}

// watchSubscribeCmd waits for the next change, lets the burst settle and
// reloads the contexts.
func watchSubscribeCmd(ch <-chan struct{}, load ContextLoader) tea.Cmd {
	return func() tea.Msg {
		if ch == nil {
			return nil
		}
		<-ch
		time.Sleep(settleDelay)
	drain:
		for {
			select {
			case <-ch:
			default:
				break drain
			}
		}
		contexts, err := load()
		return contextsChangedMsg{contexts: contexts, err: err}
	}
}
