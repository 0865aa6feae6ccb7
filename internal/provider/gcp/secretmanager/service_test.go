package secretmanager

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	xansi "github.com/charmbracelet/x/ansi"

	"lazycloud/internal/core"
	"lazycloud/internal/keys"
	"lazycloud/internal/ui"
)

type harness struct {
	t      *testing.T
	svc    *Service
	client *MemoryClient
	copied string
}

func seededClient(n int) *MemoryClient {
	mc := NewMemoryClient()
	for i := range n {
		mc.Seed(Secret{Name: fmt.Sprintf("s%d", i)}, fmt.Sprintf("value-%d", i))
	}
	return mc
}

func newHarness(t *testing.T, mc *MemoryClient) *harness {
	t.Helper()
	ctx := core.Context{Provider: core.ProviderGCP, Name: "work", Project: "proj-a"}
	svc, err := NewService(ctx, core.Env{Keys: keys.Default()}, mc)
	if err != nil {
		t.Fatal(err)
	}
	h := &harness{t: t, svc: svc, client: mc}
	svc.write = func(s string) error {
		h.copied = s
		return nil
	}
	svc.Mount()
	if res := h.settle(); res.Kind != core.ResultHandled {
		t.Fatalf("mount: %v %v", res.Kind, res.Err)
	}
	return h
}

// settle ticks until no message is queued and no command is in flight.
func (h *harness) settle() core.ServiceResult {
	h.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		res := h.svc.OnTick()
		if res.Kind != core.ResultHandled {
			return res
		}
		if len(h.svc.Outstanding()) == 0 && h.svc.Queued() == 0 {
			return res
		}
		if time.Now().After(deadline) {
			h.t.Fatalf("service did not settle: %v", h.svc.Outstanding())
		}
		time.Sleep(time.Millisecond)
	}
}

// press delivers keys the way the controller does: a handled key drains
// the mailbox before the next key arrives.
func (h *harness) press(ks ...string) core.ServiceResult {
	h.t.Helper()
	var res core.ServiceResult
	for _, k := range ks {
		res = h.svc.HandleEvent(core.KeyPress(k))
		if res.Kind == core.ResultHandled {
			res = h.svc.Drain()
		}
		if res.Kind == core.ResultError {
			h.t.Fatalf("key %q: %v", k, res.Err)
		}
	}
	return res
}

func (h *harness) typeText(s string) {
	h.t.Helper()
	for _, r := range s {
		h.press(string(r))
	}
}

// run presses keys and settles.
func (h *harness) run(ks ...string) core.ServiceResult {
	h.t.Helper()
	h.press(ks...)
	return h.settle()
}

func (h *harness) secretNames() []string {
	var out []string
	for _, s := range h.svc.Root().Table().Items() {
		out = append(out, s.Name)
	}
	return out
}

func TestService_MountLoadsSecrets(t *testing.T) {
	h := newHarness(t, seededClient(3))
	if got := h.secretNames(); strings.Join(got, ",") != "s0,s1,s2" {
		t.Fatalf("secrets = %v", got)
	}
	if st := h.svc.Status(); st.Level != core.StatusInfo || st.Text != "3 secrets in proj-a" {
		t.Fatalf("status = %+v", st)
	}
	if bc := h.svc.Breadcrumbs(); len(bc) != 1 || bc[0] != "Secrets" {
		t.Fatalf("breadcrumbs = %v", bc)
	}
}

func TestService_ReloadClampsCursor(t *testing.T) {
	h := newHarness(t, seededClient(6))
	h.press("G")
	if c := h.svc.Root().Table().Cursor(); c != 5 {
		t.Fatalf("cursor = %d", c)
	}
	for _, n := range []string{"s3", "s4", "s5"} {
		if err := h.client.DeleteSecret(context.Background(), n); err != nil {
			t.Fatal(err)
		}
	}
	h.run("r")
	tb := h.svc.Root().Table()
	if tb.Len() != 3 || tb.Cursor() != 2 {
		t.Fatalf("len=%d cursor=%d, want 3/2", tb.Len(), tb.Cursor())
	}
	if h.svc.Depth() != 1 {
		t.Fatalf("reload should update in place, depth %d", h.svc.Depth())
	}
}

func TestService_CheckFailureIsFatal(t *testing.T) {
	mc := seededClient(1)
	mc.Fail("Check", errors.New("no credentials"))
	svc, err := NewService(core.Context{Name: "work", Project: "proj-a"}, core.Env{}, mc)
	if err != nil {
		t.Fatal(err)
	}
	h := &harness{t: t, svc: svc, client: mc}
	svc.Mount()
	res := h.settle()
	if res.Kind != core.ResultError || !core.IsFatal(res.Err) {
		t.Fatalf("want fatal error, got %v %v", res.Kind, res.Err)
	}
	if !strings.Contains(res.Err.Error(), "no credentials") {
		t.Fatalf("err = %v", res.Err)
	}
}

func TestService_ListErrorIsRecoverable(t *testing.T) {
	h := newHarness(t, seededClient(2))
	h.client.Fail("ListSecrets", errors.New("quota exceeded"))
	res := h.run("r")
	if res.Kind != core.ResultHandled {
		t.Fatalf("recoverable error escalated: %v", res.Err)
	}
	st := h.svc.Status()
	if st.Level != core.StatusError || !strings.Contains(st.Text, "quota exceeded") {
		t.Fatalf("status = %+v", st)
	}
	if h.svc.Root().Table().Len() != 2 {
		t.Fatal("old rows should stay after a failed reload")
	}
	h.press("j")
	if !h.svc.Status().Empty() {
		t.Fatal("a key press should clear the error")
	}
}

func TestService_DrillDownAndBack(t *testing.T) {
	mc := NewMemoryClient()
	mc.Seed(Secret{Name: "api-key"}, "v1", "v2")
	h := newHarness(t, mc)

	h.run("enter")
	vp, ok := h.svc.Top().(*VersionsPage)
	if !ok || vp.Table().Len() != 2 {
		t.Fatalf("top = %T", h.svc.Top())
	}
	if v, _ := vp.Table().Selected(); v.ID != "2" {
		t.Fatalf("newest version first, got %s", v.ID)
	}

	h.run("enter")
	pp, ok := h.svc.Top().(*PayloadPage)
	if !ok || string(pp.Payload().Data) != "v2" {
		t.Fatalf("top = %T", h.svc.Top())
	}
	if bc := strings.Join(h.svc.Breadcrumbs(), " > "); bc != "Secrets > api-key > version 2" {
		t.Fatalf("breadcrumbs = %q", bc)
	}

	h.press("esc")
	if _, ok := h.svc.Top().(*VersionsPage); !ok {
		t.Fatalf("esc should pop to versions, top = %T", h.svc.Top())
	}
	h.press("esc")
	if res := h.press("esc"); res.Kind != core.ResultClose {
		t.Fatalf("esc on root should close, got %v", res.Kind)
	}
}

func TestService_PayloadCacheAndForceReload(t *testing.T) {
	mc := NewMemoryClient()
	mc.Seed(Secret{Name: "api-key"}, "v1")
	h := newHarness(t, mc)

	h.run("v")
	if _, ok := h.svc.Top().(*PayloadPage); !ok {
		t.Fatalf("top = %T", h.svc.Top())
	}
	h.press("esc")

	mc.Fail("AccessVersion", errors.New("offline"))
	h.run("v")
	if _, ok := h.svc.Top().(*PayloadPage); !ok {
		t.Fatal("cached payload should open without a call")
	}
	h.run("r")
	if st := h.svc.Status(); st.Level != core.StatusError || !strings.Contains(st.Text, "offline") {
		t.Fatalf("forced reload should hit the backend, status %+v", st)
	}
}

func TestService_CopyLatest(t *testing.T) {
	mc := NewMemoryClient()
	mc.Seed(Secret{Name: "api-key"}, "old", "new")
	h := newHarness(t, mc)
	h.run("y")
	if h.copied != "new" {
		t.Fatalf("copied %q", h.copied)
	}
	if st := h.svc.Status(); !strings.Contains(st.Text, "copied api-key") {
		t.Fatalf("status = %+v", st)
	}
}

func TestService_CreateWizard(t *testing.T) {
	h := newHarness(t, seededClient(1))
	h.run("n")
	if h.svc.Overlay() == nil {
		t.Fatal("n should open the wizard")
	}
	h.typeText("a.b")
	h.press("enter")
	w := h.svc.Overlay().(*createWizard)
	if w.step != 0 || w.name.Err() == nil {
		t.Fatal("invalid name must keep the first step open")
	}
	h.press("backspace", "backspace", "backspace")
	h.typeText("new-secret")
	h.press("enter")
	if w.step != 1 {
		t.Fatal("valid name should advance")
	}
	h.press("esc")
	if w.step != 0 || h.svc.Overlay() == nil {
		t.Fatal("esc on the payload step goes back")
	}
	h.press("enter")
	h.typeText("hunter2")
	h.run("enter")

	if h.svc.Overlay() != nil {
		t.Fatal("wizard should be dismissed")
	}
	if got := strings.Join(h.secretNames(), ","); got != "new-secret,s0" {
		t.Fatalf("secrets = %s", got)
	}
	p, err := h.client.AccessVersion(context.Background(), "new-secret", LatestVersion)
	if err != nil || string(p.Data) != "hunter2" {
		t.Fatalf("payload = %q, %v", p.Data, err)
	}
}

func TestService_TypingRightAfterOpeningWizard(t *testing.T) {
	h := newHarness(t, seededClient(2))
	h.press("n", "m", "y", "d", "b")
	w, ok := h.svc.Overlay().(*createWizard)
	if !ok {
		t.Fatalf("overlay = %T, want the create wizard", h.svc.Overlay())
	}
	if w.name.Value() != "mydb" {
		t.Fatalf("name = %q", w.name.Value())
	}
	h.settle()
	if h.copied != "" {
		t.Fatalf("keys leaked to the secrets page: copied %q", h.copied)
	}
}

func TestService_PayloadWhitespaceKept(t *testing.T) {
	mc := NewMemoryClient()
	mc.Seed(Secret{Name: "api-key"}, "v1")
	h := newHarness(t, mc)
	h.run("enter")
	h.run("a")
	h.typeText("  pw  ")
	h.run("enter")
	p, err := mc.AccessVersion(context.Background(), "api-key", LatestVersion)
	if err != nil || string(p.Data) != "  pw  " {
		t.Fatalf("payload = %q, %v", p.Data, err)
	}

	h.run("esc")
	h.run("n")
	h.typeText(" spaced ")
	h.press("enter")
	h.typeText(" x ")
	h.run("enter")
	p, err = mc.AccessVersion(context.Background(), "spaced", LatestVersion)
	if err != nil || string(p.Data) != " x " {
		t.Fatalf("created payload = %q, %v", p.Data, err)
	}
}

func TestService_DeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t, seededClient(2))
	h.run("d")
	if h.svc.Overlay() == nil {
		t.Fatal("d should ask first")
	}
	h.run("n")
	if h.svc.Overlay() != nil || h.svc.Root().Table().Len() != 2 {
		t.Fatal("cancel must not delete")
	}
	h.run("d")
	h.run("y")
	if got := strings.Join(h.secretNames(), ","); got != "s1" {
		t.Fatalf("secrets = %s", got)
	}
	if _, err := h.client.GetSecret(context.Background(), "s0"); err == nil {
		t.Fatal("s0 should be gone from the backend")
	}
}

func TestService_VersionLifecycle(t *testing.T) {
	mc := NewMemoryClient()
	mc.Seed(Secret{Name: "api-key"}, "v1")
	h := newHarness(t, mc)
	h.run("enter")

	h.run("a")
	h.typeText("v2")
	h.run("enter")
	vp := h.svc.Top().(*VersionsPage)
	if vp.Table().Len() != 2 {
		t.Fatalf("versions = %d", vp.Table().Len())
	}

	h.run("d")
	if v, _ := vp.Table().Selected(); v.ID != "2" || v.State != StateDisabled {
		t.Fatalf("selected = %+v", v)
	}
	h.press("d")
	if st := h.svc.Status(); st.Level != core.StatusError || !strings.Contains(st.Text, "already disabled") {
		t.Fatalf("status = %+v", st)
	}

	h.run("D")
	if h.svc.Overlay() == nil {
		t.Fatal("destroy should ask first")
	}
	h.run("y")
	if v, _ := vp.Table().Selected(); v.State != StateDestroyed {
		t.Fatalf("selected = %+v", v)
	}
	h.press("e")
	if st := h.svc.Status(); !strings.Contains(st.Text, "destroyed") {
		t.Fatalf("status = %+v", st)
	}
}

func TestService_EditLabels(t *testing.T) {
	mc := NewMemoryClient()
	mc.Seed(Secret{Name: "api-key", Labels: map[string]string{"env": "prod"}}, "v1")
	h := newHarness(t, mc)

	h.run("l")
	lp, ok := h.svc.Top().(*LabelsPage)
	if !ok {
		t.Fatalf("top = %T", h.svc.Top())
	}
	h.run("enter")
	h.typeText(",tier=gold")
	h.run("enter")

	if lp.table.Len() != 2 {
		t.Fatalf("labels page rows = %d", lp.table.Len())
	}
	if got := h.svc.Root().Table().Items()[0].Labels["tier"]; got != "gold" {
		t.Fatalf("root row not updated: %q", got)
	}
}

func TestService_LabelParseErrorKeepsPrompt(t *testing.T) {
	mc := NewMemoryClient()
	mc.Seed(Secret{Name: "api-key"}, "v1")
	h := newHarness(t, mc)
	h.run("l")
	h.run("enter")
	h.typeText("BAD")
	h.press("enter")
	if h.svc.Overlay() == nil {
		t.Fatal("invalid labels should keep the prompt open")
	}
}

func TestService_IAMPolicy(t *testing.T) {
	h := newHarness(t, DemoClient("proj-a").WithDelay(0))
	h.run("i")
	p, ok := h.svc.Top().(*IAMPage)
	if !ok {
		t.Fatalf("top = %T", h.svc.Top())
	}
	if p.Table().Len() != 3 {
		t.Fatalf("grants = %d", p.Table().Len())
	}
}

func TestService_StaleResultDoesNotPush(t *testing.T) {
	mc := seededClient(1).WithDelay(20 * time.Millisecond)
	h := newHarness(t, mc)
	h.press("enter")
	h.svc.OnTick() // spawns the versions load
	h.press("l")
	h.settle()
	if _, ok := h.svc.Top().(*LabelsPage); !ok || h.svc.Depth() != 2 {
		t.Fatalf("top = %T depth %d", h.svc.Top(), h.svc.Depth())
	}
}

func TestService_LateResultAfterUnmountDropped(t *testing.T) {
	mc := seededClient(2).WithDelay(20 * time.Millisecond)
	h := newHarness(t, mc)
	h.press("r")
	h.svc.OnTick()
	if len(h.svc.Outstanding()) != 1 {
		t.Fatalf("outstanding = %v", h.svc.Outstanding())
	}
	h.svc.Unmount()
	time.Sleep(60 * time.Millisecond)
	if h.svc.Queued() != 0 {
		t.Fatal("result delivered after unmount")
	}
	if res := h.svc.OnTick(); res.Kind != core.ResultClose {
		t.Fatalf("unmounted service ticked: %v", res.Kind)
	}
}

func TestService_RenderShowsLoadingAndOverlay(t *testing.T) {
	mc := seededClient(2).WithDelay(20 * time.Millisecond)
	h := newHarness(t, mc)
	area := core.Area{Width: 100, Height: 20}

	h.press("r")
	h.svc.OnTick()
	view := xansi.Strip(h.svc.Render(area, &ui.Vitesse))
	if !strings.Contains(view, "list secrets") {
		t.Fatalf("loading line missing:\n%s", view)
	}
	h.settle()

	h.run("d")
	view = xansi.Strip(h.svc.Render(area, &ui.Vitesse))
	if !strings.Contains(view, "Delete secret") || !strings.Contains(view, "s0") {
		t.Fatalf("confirm overlay missing:\n%s", view)
	}
	if again := xansi.Strip(h.svc.Render(area, &ui.Vitesse)); again != view {
		t.Fatal("render must not change state")
	}
}

func TestPayloadPage_Kinds(t *testing.T) {
	km := keys.Default()
	sec := Secret{Name: "x"}
	cases := []struct {
		data []byte
		kind string
		want string
	}{
		{[]byte(`{"user":"admin"}`), "json", `"user"`},
		{[]byte("plain text"), "text", "plain text"},
		{[]byte{0xff, 0x00, 0x10}, "binary", "00000000"},
		{[]byte("a\x1b]52;c;ZXZpbA==\x07\x1b[2Jb"), "binary", "1b 5d 35 32"},
	}
	for _, c := range cases {
		p := newPayloadPage(sec, "1", Payload{Data: c.data}, km)
		if p.Kind() != c.kind {
			t.Errorf("kind = %s, want %s", p.Kind(), c.kind)
		}
		raw := p.Render(core.Area{Width: 80, Height: 12}, &ui.Vitesse)
		if strings.Contains(raw, "\x1b]52") || strings.Contains(raw, "\x1b[2J") {
			t.Errorf("%s view passes terminal sequences through", c.kind)
		}
		view := xansi.Strip(raw)
		if !strings.Contains(view, c.want) {
			t.Errorf("%s view missing %q:\n%s", c.kind, c.want, view)
		}
	}
}

func TestPayloadPage_ScrollIsBounded(t *testing.T) {
	var lines []string
	for i := range 50 {
		lines = append(lines, fmt.Sprintf("line %02d", i))
	}
	p := newPayloadPage(Secret{Name: "x"}, "1", Payload{Data: []byte(strings.Join(lines, "\n"))}, keys.Default())
	area := core.Area{Width: 40, Height: 12}
	p.HandleEvent(core.ResizeEvent(area.Width, area.Height))
	p.HandleEvent(core.KeyPress("G"))
	if p.offset != 40 {
		t.Fatalf("offset = %d", p.offset)
	}
	p.HandleEvent(core.KeyPress("j"))
	if p.offset != 40 {
		t.Fatal("scrolled past the end")
	}
	view := xansi.Strip(p.Render(area, &ui.Vitesse))
	if !strings.Contains(view, "line 49") {
		t.Fatalf("last line not visible:\n%s", view)
	}
}

func TestPayloadPage_RenderLeavesStateAlone(t *testing.T) {
	p := newPayloadPage(Secret{Name: "x"}, "1", Payload{Data: []byte(`{"a":[1,2,3],"b":"c"}`)}, keys.Default())
	p.HandleEvent(core.ResizeEvent(60, 4))
	p.HandleEvent(core.KeyPress("j"))
	before := *p
	first := p.Render(core.Area{Width: 60, Height: 4}, &ui.Vitesse)
	p.Render(core.Area{Width: 30, Height: 20}, &ui.Mocha)
	if !reflect.DeepEqual(before, *p) {
		t.Fatalf("render changed the page: %+v -> %+v", before, *p)
	}
	if again := p.Render(core.Area{Width: 60, Height: 4}, &ui.Vitesse); again != first {
		t.Fatal("render is not repeatable")
	}
}

func TestService_ResizeReachesPushedPages(t *testing.T) {
	h := newHarness(t, seededClient(1))
	h.press("v")
	h.svc.HandleEvent(core.ResizeEvent(80, 12))
	h.settle()
	pp, ok := h.svc.Top().(*PayloadPage)
	if !ok {
		t.Fatalf("top = %T", h.svc.Top())
	}
	// one line kept for the loading indicator, two for the header
	if pp.height != 9 {
		t.Fatalf("height = %d", pp.height)
	}
}
