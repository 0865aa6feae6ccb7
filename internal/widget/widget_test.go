package widget

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"lazycloud/internal/core"
	"lazycloud/internal/ui"
)

type row struct {
	name string
	env  string
}

func newRowTable(n int) *Table[row] {
	t := NewTable(TableConfig[row]{
		Columns: []Column{{Title: "NAME"}, {Title: "ENV", Width: 8}},
		Row:     func(r row) []string { return []string{r.name, r.env} },
	})
	items := make([]row, n)
	for i := range items {
		items[i] = row{name: fmt.Sprintf("secret-%02d", i), env: "prod"}
	}
	t.SetItems(items)
	return t
}

func press(t *testing.T, el interface {
	HandleEvent(core.Event) (core.Handled[row], error)
}, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if _, err := el.HandleEvent(core.KeyPress(k)); err != nil {
			t.Fatalf("key %q: %v", k, err)
		}
	}
}

func TestTable_SetItemsClampsCursor(t *testing.T) {
	tb := newRowTable(6)
	tb.SetCursor(5)
	tb.SetItems(tb.Items()[:3])
	if tb.Len() != 3 || tb.Cursor() != 2 {
		t.Fatalf("len=%d cursor=%d, want 3/2", tb.Len(), tb.Cursor())
	}
	tb.SetItems(nil)
	if _, ok := tb.Selected(); ok || tb.Cursor() != 0 {
		t.Fatalf("empty table should have no selection")
	}
}

func TestTable_KeepsIndexWhenInRange(t *testing.T) {
	tb := newRowTable(6)
	tb.SetCursor(2)
	tb.SetItems(tb.Items()[1:])
	if tb.Cursor() != 2 {
		t.Fatalf("cursor = %d", tb.Cursor())
	}
}

func TestTable_Navigation(t *testing.T) {
	tb := newRowTable(25)
	press(t, tb, "j", "j", "k")
	if tb.Cursor() != 1 {
		t.Fatalf("cursor = %d", tb.Cursor())
	}
	press(t, tb, "pgdown")
	if tb.Cursor() != 1+PageStep {
		t.Fatalf("pgdown cursor = %d", tb.Cursor())
	}
	press(t, tb, "G")
	if tb.Cursor() != 24 {
		t.Fatalf("G cursor = %d", tb.Cursor())
	}
	press(t, tb, "j")
	if tb.Cursor() != 24 {
		t.Fatalf("cursor moved past end")
	}
	press(t, tb, "g")
	if tb.Cursor() != 0 {
		t.Fatalf("g cursor = %d", tb.Cursor())
	}
}

func TestTable_EnterProducesSelection(t *testing.T) {
	tb := newRowTable(3)
	press(t, tb, "j")
	h, _ := tb.HandleEvent(core.KeyPress("enter"))
	got, ok := h.Message()
	if !ok || got.name != "secret-01" {
		t.Fatalf("enter produced %v %v", got, ok)
	}
	if h, _ := tb.HandleEvent(core.KeyPress("x")); !h.IsIgnored() {
		t.Fatalf("unbound key should be ignored")
	}
}

func TestTable_SearchFilters(t *testing.T) {
	tb := newRowTable(12)
	press(t, tb, "/", "1", "1", "enter")
	if tb.Searching() || tb.Query() != "11" {
		t.Fatalf("searching=%v query=%q", tb.Searching(), tb.Query())
	}
	if sel, ok := tb.Selected(); !ok || sel.name != "secret-11" {
		t.Fatalf("selected %v", sel)
	}
	// esc clears an applied filter before it can act as back
	h, _ := tb.HandleEvent(core.KeyPress("esc"))
	if !h.IsConsumed() || tb.Query() != "" || tb.Len() != 12 {
		t.Fatalf("esc did not clear filter: %v %q %d", h, tb.Query(), tb.Len())
	}
	if h, _ := tb.HandleEvent(core.KeyPress("esc")); !h.IsIgnored() {
		t.Fatalf("esc without filter should be ignored")
	}
}

func TestTable_LabelSearch(t *testing.T) {
	tb := NewTable(TableConfig[row]{
		Columns: []Column{{Title: "NAME"}},
		Row:     func(r row) []string { return []string{r.name} },
		Text:    func(r row) string { return r.name + " env=" + r.env },
	})
	tb.SetItems([]row{{"a", "prod"}, {"b", "dev"}, {"c", "prod"}})
	tb.SetQuery("env:prod")
	if tb.Len() != 2 {
		t.Fatalf("len = %d", tb.Len())
	}
}

func TestTable_RenderIdempotentAndFits(t *testing.T) {
	tb := newRowTable(30)
	tb.SetCursor(17)
	area := core.Area{Width: 40, Height: 10}
	a := tb.Render(area, &ui.Vitesse)
	if a != tb.Render(area, &ui.Vitesse) {
		t.Fatalf("render not idempotent")
	}
	if n := len(strings.Split(a, "\n")); n != 10 {
		t.Fatalf("render height = %d", n)
	}
	if !strings.Contains(a, "secret-17") {
		t.Fatalf("cursor row not visible:\n%s", a)
	}
}

func TestConfirmDialog_CancelConsumesWithoutMessage(t *testing.T) {
	d := NewConfirmDialog("Delete", "Delete secret?", "delete", nil)
	h, err := d.HandleEvent(core.KeyPress("n"))
	if err != nil || !h.IsConsumed() || !d.Dismissed() {
		t.Fatalf("cancel: %v %v dismissed=%v", h, err, d.Dismissed())
	}
	d = NewConfirmDialog("Delete", "Delete secret?", "delete", nil)
	h, _ = d.HandleEvent(core.KeyPress("esc"))
	if !h.IsConsumed() || !d.Dismissed() {
		t.Fatalf("esc: %v", h)
	}
}

func TestConfirmDialog_Confirm(t *testing.T) {
	d := NewConfirmDialog("Delete", "Delete secret?", "delete", nil)
	h, _ := d.HandleEvent(core.KeyPress("y"))
	if got, ok := h.Message(); !ok || got != "delete" || !d.Dismissed() {
		t.Fatalf("confirm: %v", h)
	}

	d = NewConfirmDialog("Delete", "Delete secret?", "delete", nil)
	d.HandleEvent(core.KeyPress("tab"))
	h, _ = d.HandleEvent(core.KeyPress("enter"))
	if !h.IsConsumed() {
		t.Fatalf("enter on No should cancel, got %v", h)
	}
}

func TestPromptDialog_ValidationKeepsOpen(t *testing.T) {
	field := NewTextField("Name", "my-secret").WithValidator(func(s string) error {
		if s == "" {
			return errors.New("name required")
		}
		return nil
	})
	d := NewPromptDialog("New", field, func(s string) (string, error) { return "create:" + s, nil })

	h, _ := d.HandleEvent(core.KeyPress("enter"))
	if !h.IsConsumed() || d.Dismissed() || field.Err() == nil {
		t.Fatalf("empty submit should fail validation")
	}
	for _, k := range []string{"a", "b"} {
		d.HandleEvent(core.KeyPress(k))
	}
	if field.Err() != nil {
		t.Fatalf("typing should clear the error")
	}
	h, _ = d.HandleEvent(core.KeyPress("enter"))
	if got, ok := h.Message(); !ok || got != "create:ab" || !d.Dismissed() {
		t.Fatalf("submit = %v", h)
	}
}

func TestTextField_SubmitsValueAsTyped(t *testing.T) {
	field := NewTextField("Value", "").Masked().WithValue("  pw  ")
	h, _ := field.HandleEvent(core.KeyPress("enter"))
	sub, ok := h.Message()
	if !ok || sub.Value != "  pw  " {
		t.Fatalf("submission = %+v", sub)
	}
	field.Render(core.Area{Width: 20, Height: 3}, &ui.Vitesse)
	if field.Value() != "  pw  " {
		t.Fatalf("value after render = %q", field.Value())
	}
}

func TestPromptDialog_BuildError(t *testing.T) {
	d := NewPromptDialog("Labels", NewTextField("Labels", "").WithValue("bad"), func(s string) (int, error) {
		return 0, errors.New("expected key=value")
	})
	h, _ := d.HandleEvent(core.KeyPress("enter"))
	if !h.IsConsumed() || d.Dismissed() || d.Field().Err() == nil {
		t.Fatalf("build error should keep dialog open")
	}
	h, _ = d.HandleEvent(core.KeyPress("esc"))
	if !h.IsConsumed() || !d.Dismissed() {
		t.Fatalf("esc should dismiss")
	}
}

func TestList_SelectAndSearch(t *testing.T) {
	l := NewList[string]("ctx", nil, func(s string) string { return s }, nil)
	l.SetItems([]string{"default", "proj-a", "proj-b"})
	if !l.SelectWhere(func(s string) bool { return s == "proj-a" }) || l.Cursor() != 1 {
		t.Fatalf("SelectWhere failed")
	}
	h, _ := l.HandleEvent(core.KeyPress("enter"))
	if got, _ := h.Message(); got != "proj-a" {
		t.Fatalf("enter = %v", h)
	}
	for _, k := range []string{"/", "b", "enter"} {
		l.HandleEvent(core.KeyPress(k))
	}
	if l.Len() != 1 {
		t.Fatalf("filtered len = %d", l.Len())
	}
	if out := l.Render(core.Area{Width: 30, Height: 4}, &ui.Vitesse); !strings.Contains(out, "proj-b") {
		t.Fatalf("render:\n%s", out)
	}
}
