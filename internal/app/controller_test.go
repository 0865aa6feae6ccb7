package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	xansi "github.com/charmbracelet/x/ansi"

	"lazycloud/internal/core"
	"lazycloud/internal/provider/gcp/secretmanager"
	"lazycloud/internal/ui"
)

type fakeService struct {
	mounted   int
	unmounted int
	keys      map[string]core.ServiceResult
	tick      core.ServiceResult
	drain     core.ServiceResult
	drains    int
	status    core.Status
}

func (s *fakeService) Mount()   { s.mounted++ }
func (s *fakeService) Unmount() { s.unmounted++ }

func (s *fakeService) HandleEvent(ev core.Event) core.ServiceResult {
	if r, ok := s.keys[ev.Key.String()]; ok {
		return r
	}
	return core.ServiceIgnored()
}

func (s *fakeService) OnTick() core.ServiceResult { return s.tick }

func (s *fakeService) Drain() core.ServiceResult {
	s.drains++
	return s.drain
}

func (s *fakeService) Render(area core.Area, _ *ui.Theme) string {
	return ui.Fit("fake service body", area.Width, area.Height)
}

func (s *fakeService) Breadcrumbs() []string      { return []string{"Fake"} }
func (s *fakeService) Status() core.Status        { return s.status }
func (s *fakeService) KeyBindings() []key.Binding { return nil }

var testContexts = []core.Context{
	{Provider: core.ProviderGCP, Name: "proj-a", Project: "proj-a"},
	{Provider: core.ProviderGCP, Name: "proj-b", Project: "proj-b"},
}

type fixture struct {
	ctrl    *Controller
	svc     *fakeService
	built   []core.Context
	failNew error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	reg, err := core.NewRegistry(core.Descriptor{
		ID:   core.ServiceID{Provider: core.ProviderGCP, Service: "fake"},
		Name: "Fake",
		New: func(ctx core.Context, _ core.Env) (core.Service, error) {
			if f.failNew != nil {
				return nil, f.failNew
			}
			f.built = append(f.built, ctx)
			f.svc = &fakeService{keys: map[string]core.ServiceResult{}, tick: core.ServiceHandled()}
			return f.svc, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	f.ctrl = New(reg, testContexts, Options{})
	return f
}

func (f *fixture) press(ks ...string) Effect {
	var eff Effect
	for _, k := range ks {
		eff = f.ctrl.Handle(core.KeyPress(k))
	}
	return eff
}

func TestController_SelectionFlow(t *testing.T) {
	f := newFixture(t)
	if f.ctrl.Phase() != PhaseSelectingContext {
		t.Fatalf("phase = %v", f.ctrl.Phase())
	}
	f.press("j", "enter")
	if f.ctrl.Phase() != PhaseSelectingService || f.ctrl.Context().Name != "proj-b" {
		t.Fatalf("phase = %v context = %q", f.ctrl.Phase(), f.ctrl.Context().Name)
	}
	f.press("enter")
	if f.ctrl.Phase() != PhaseActiveService || f.svc == nil || f.svc.mounted != 1 {
		t.Fatalf("service not started: phase %v", f.ctrl.Phase())
	}
	if f.built[0].Name != "proj-b" {
		t.Fatalf("service built for %q", f.built[0].Name)
	}
	if got := strings.Join(f.ctrl.Breadcrumbs(), "/"); got != "lazycloud/proj-b/Fake" {
		t.Fatalf("breadcrumbs = %s", got)
	}
}

func TestController_EscReturnsToContexts(t *testing.T) {
	f := newFixture(t)
	f.press("enter", "esc")
	if f.ctrl.Phase() != PhaseSelectingContext {
		t.Fatalf("phase = %v", f.ctrl.Phase())
	}
}

func TestController_ServiceCloseReturnsToSelection(t *testing.T) {
	f := newFixture(t)
	f.press("enter", "enter")
	f.svc.keys["esc"] = core.ServiceClose()
	f.press("esc")
	if f.ctrl.Phase() != PhaseSelectingService || f.ctrl.Active() != nil {
		t.Fatalf("phase = %v", f.ctrl.Phase())
	}
	if f.svc.unmounted != 1 {
		t.Fatalf("unmounted %d times", f.svc.unmounted)
	}
	if !f.ctrl.Status().Empty() {
		t.Fatalf("clean close should not set a status: %+v", f.ctrl.Status())
	}
}

func TestController_ServiceErrorTearsDown(t *testing.T) {
	f := newFixture(t)
	f.press("enter", "enter")
	svc := f.svc
	svc.tick = core.ServiceError(core.Fatal(errors.New("credentials expired")))
	f.ctrl.Tick()

	if f.ctrl.Phase() != PhaseSelectingService || svc.unmounted != 1 {
		t.Fatalf("phase = %v unmounted = %d", f.ctrl.Phase(), svc.unmounted)
	}
	st := f.ctrl.Status()
	if st.Level != core.StatusError || !strings.Contains(st.Text, "credentials expired") {
		t.Fatalf("status = %+v", st)
	}
	f.press("j")
	if !f.ctrl.Status().Empty() {
		t.Fatal("key press should clear the error")
	}
	f.ctrl.Tick()
	if svc.unmounted != 1 {
		t.Fatal("a dropped service must not be ticked or unmounted again")
	}
}

func TestController_DrainsAfterHandledKey(t *testing.T) {
	f := newFixture(t)
	f.press("enter", "enter")
	svc := f.svc
	svc.keys["x"] = core.ServiceHandled()
	f.press("x")
	if svc.drains != 1 {
		t.Fatalf("drains = %d, want 1 after a handled key", svc.drains)
	}
	f.press("z")
	if svc.drains != 1 {
		t.Fatal("ignored keys must not drain")
	}

	svc.drain = core.ServiceError(core.Fatal(errors.New("token revoked")))
	f.press("x")
	if f.ctrl.Phase() != PhaseSelectingService || svc.unmounted != 1 {
		t.Fatalf("phase = %v unmounted = %d", f.ctrl.Phase(), svc.unmounted)
	}
	if st := f.ctrl.Status(); !strings.Contains(st.Text, "token revoked") {
		t.Fatalf("status = %+v", st)
	}
}

func TestController_ConstructionFailureStays(t *testing.T) {
	f := newFixture(t)
	f.failNew = errors.New("no gcloud")
	f.press("enter", "enter")
	if f.ctrl.Phase() != PhaseSelectingService || f.ctrl.Active() != nil {
		t.Fatalf("phase = %v", f.ctrl.Phase())
	}
	if st := f.ctrl.Status(); !strings.Contains(st.Text, "no gcloud") {
		t.Fatalf("status = %+v", st)
	}
}

func TestController_Quit(t *testing.T) {
	f := newFixture(t)
	if f.press("q") != EffectQuit {
		t.Fatal("q should quit from the context selector")
	}
	f.press("enter", "enter")
	f.svc.keys["q"] = core.ServiceHandled()
	if f.press("q") != EffectNone {
		t.Fatal("a key the service handles must not quit")
	}
	f.svc.keys["ctrl+c"] = core.ServiceHandled()
	if f.press("ctrl+c") != EffectQuit {
		t.Fatal("ctrl+c always quits")
	}
	delete(f.svc.keys, "q")
	if f.press("q") != EffectQuit {
		t.Fatal("ignored q should quit")
	}
}

func TestController_GlobalKeys(t *testing.T) {
	f := newFixture(t)
	before := f.ctrl.Theme()
	f.press("t")
	if f.ctrl.Theme() == before {
		t.Fatal("t should switch theme")
	}
	f.press("?")
	if !f.ctrl.showHelp {
		t.Fatal("? should toggle help")
	}
}

func TestController_Preselect(t *testing.T) {
	f := newFixture(t)
	if err := f.ctrl.Preselect("proj-b", "fake"); err != nil {
		t.Fatal(err)
	}
	if f.ctrl.Phase() != PhaseActiveService || f.built[0].Name != "proj-b" {
		t.Fatalf("phase = %v", f.ctrl.Phase())
	}

	g := newFixture(t)
	err := g.ctrl.Preselect("proj-c", "")
	if err == nil || !strings.Contains(err.Error(), "did you mean proj-a") {
		t.Fatalf("err = %v", err)
	}
	err = g.ctrl.Preselect("proj-a", "fak")
	if !errors.Is(err, core.ErrUnknownService) || !strings.Contains(err.Error(), "gcp:fake") {
		t.Fatalf("err = %v", err)
	}
	if g.ctrl.Phase() != PhaseSelectingService {
		t.Fatalf("phase = %v", g.ctrl.Phase())
	}
}

func TestController_ReloadContextsKeepsCursor(t *testing.T) {
	f := newFixture(t)
	f.press("j")
	extra := append([]core.Context{{Provider: core.ProviderGCP, Name: "aaa"}}, testContexts...)
	f.ctrl.ReloadContexts(extra)
	if sel, _ := f.ctrl.contexts.Selected(); sel.Name != "proj-b" {
		t.Fatalf("selected = %q", sel.Name)
	}
}

func TestController_ViewFitsScreen(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Handle(core.ResizeEvent(80, 20))
	for _, step := range []string{"", "enter", "enter"} {
		if step != "" {
			f.press(step)
		}
		view := f.ctrl.View()
		lines := strings.Split(view, "\n")
		if len(lines) != 20 {
			t.Fatalf("%v: %d lines", f.ctrl.Phase(), len(lines))
		}
		for i, ln := range lines {
			if w := xansi.StringWidth(ln); w > 80 {
				t.Fatalf("%v: line %d is %d wide", f.ctrl.Phase(), i, w)
			}
		}
	}
	if view := xansi.Strip(f.ctrl.View()); !strings.Contains(view, "fake service body") || !strings.Contains(view, "proj-a") {
		t.Fatalf("view:\n%s", view)
	}
}

func tickUntil(t *testing.T, c *Controller, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		c.Tick()
		time.Sleep(2 * time.Millisecond)
	}
}

func secretManagerRegistry(t *testing.T, mc *secretmanager.MemoryClient) *core.Registry {
	t.Helper()
	d := secretmanager.Descriptor()
	d.New = func(ctx core.Context, env core.Env) (core.Service, error) {
		return secretmanager.NewService(ctx, env, mc)
	}
	reg, err := core.NewRegistry(d)
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestController_SecretManagerSession(t *testing.T) {
	mc := secretmanager.NewMemoryClient()
	mc.Seed(secretmanager.Secret{Name: "api-key"}, "v1")
	ctrl := New(secretManagerRegistry(t, mc), testContexts, Options{})
	ctrl.Handle(core.ResizeEvent(100, 24))
	if err := ctrl.Preselect("proj-a", "secret-manager"); err != nil {
		t.Fatal(err)
	}
	tickUntil(t, ctrl, func() bool { return strings.Contains(ctrl.View(), "api-key") })
	if got := strings.Join(ctrl.Breadcrumbs(), "/"); got != "lazycloud/proj-a/Secrets" {
		t.Fatalf("breadcrumbs = %s", got)
	}
	ctrl.Handle(core.KeyPress("esc"))
	if ctrl.Phase() != PhaseSelectingService {
		t.Fatalf("esc on the root page should close the service, phase %v", ctrl.Phase())
	}
}

func TestController_SecretManagerFatalCheck(t *testing.T) {
	mc := secretmanager.NewMemoryClient()
	mc.Fail("Check", errors.New("gcloud not authenticated"))
	ctrl := New(secretManagerRegistry(t, mc), testContexts, Options{})
	if err := ctrl.Preselect("proj-a", "gcp:secret-manager"); err != nil {
		t.Fatal(err)
	}
	tickUntil(t, ctrl, func() bool { return ctrl.Phase() == PhaseSelectingService })
	if st := ctrl.Status(); !strings.Contains(st.Text, "not authenticated") {
		t.Fatalf("status = %+v", st)
	}
}
