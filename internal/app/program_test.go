package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"lazycloud/internal/core"
)

func TestModel_KeysReachController(t *testing.T) {
	f := newFixture(t)
	m := newModel(f.ctrl, RunOptions{Tick: time.Millisecond})
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if f.ctrl.Phase() != PhaseSelectingService {
		t.Fatalf("phase = %v", f.ctrl.Phase())
	}
	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil || !next.(model).quitting {
		t.Fatal("ctrl+c should quit")
	}
	if next.View() != "" {
		t.Fatal("nothing is drawn after quitting")
	}
}

func TestModel_TickDrivesService(t *testing.T) {
	f := newFixture(t)
	f.press("enter", "enter")
	svc := f.svc
	svc.tick = core.ServiceClose()
	m := newModel(f.ctrl, RunOptions{})
	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick must reschedule itself")
	}
	if f.ctrl.Phase() != PhaseSelectingService || svc.unmounted != 1 {
		t.Fatalf("phase = %v", f.ctrl.Phase())
	}
}

func TestModel_ContextsChanged(t *testing.T) {
	f := newFixture(t)
	m := newModel(f.ctrl, RunOptions{Reload: func() ([]core.Context, error) { return nil, nil }})
	m.Update(contextsChangedMsg{contexts: testContexts[:1]})
	if n := f.ctrl.contexts.Len(); n != 1 {
		t.Fatalf("contexts = %d", n)
	}
}

func TestWatchSubscribe_Reloads(t *testing.T) {
	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	calls := 0
	cmd := watchSubscribeCmd(ch, func() ([]core.Context, error) {
		calls++
		return testContexts, nil
	})
	msg, ok := cmd().(contextsChangedMsg)
	if !ok || calls != 1 || len(msg.contexts) != 2 {
		t.Fatalf("msg = %#v calls = %d", msg, calls)
	}
	if watchSubscribeCmd(nil, nil)() != nil {
		t.Fatal("nil channel yields nothing")
	}
}

func TestStartWatch_SignalsOnChange(t *testing.T) {
	dir := t.TempDir()
	started, ok := startWatchCmd([]string{dir})().(watchStartedMsg)
	if !ok {
		t.Skip("fsnotify unavailable")
	}
	defer started.w.Close()
	if err := os.WriteFile(filepath.Join(dir, "config_new"), []byte("[core]\nproject = p\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-started.ch:
	case <-time.After(3 * time.Second):
		t.Fatal("no change signalled")
	}
}
