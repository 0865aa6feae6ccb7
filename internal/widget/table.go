package widget

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lazycloud/internal/core"
	"lazycloud/internal/keys"
	"lazycloud/internal/search"
	"lazycloud/internal/ui"
)

// PageStep is how far PageUp/PageDown move the cursor.
const PageStep = 10

// Column describes one table column. Width 0 shares the remaining space.
type Column struct {
	Title string
	Width int
}

// TableConfig configures a Table.
type TableConfig[T any] struct {
	Columns []Column
	// Row renders an item into cells, one per column.
	Row func(T) []string
	// Text is what "/" searches; defaults to the joined row cells.
	Text  func(T) string
	Empty string
	Keys  *keys.Map
}

// Table is a selectable, searchable grid of items. Enter produces the
// selected item; navigation and search are consumed.
type Table[T any] struct {
	cfg       TableConfig[T]
	items     []T
	visible   []int
	cursor    int
	query     string
	searching bool
	input     textinput.Model
}

func NewTable[T any](cfg TableConfig[T]) *Table[T] {
	if cfg.Keys == nil {
		cfg.Keys = keys.Default()
	}
	if cfg.Text == nil {
		row := cfg.Row
		cfg.Text = func(it T) string { return strings.Join(row(it), " ") }
	}
	return &Table[T]{cfg: cfg, input: newSearchInput()}
}

// SetItems replaces the rows in place. The cursor keeps its index,
// clamped to the new row count.
func (t *Table[T]) SetItems(items []T) {
	t.items = items
	t.refilter()
}

func (t *Table[T]) Items() []T { return t.items }

// Len is the number of visible (filtered) rows.
func (t *Table[T]) Len() int { return len(t.visible) }

func (t *Table[T]) Cursor() int { return t.cursor }

func (t *Table[T]) SetCursor(i int) { t.cursor = clamp(i, 0, len(t.visible)-1) }

// Selected returns the item under the cursor.
func (t *Table[T]) Selected() (T, bool) {
	var zero T
	if len(t.visible) == 0 {
		return zero, false
	}
	return t.items[t.visible[t.cursor]], true
}

func (t *Table[T]) Query() string   { return t.query }
func (t *Table[T]) Searching() bool { return t.searching }

// SetQuery filters the rows as if q had been typed after "/".
func (t *Table[T]) SetQuery(q string) {
	t.query = q
	t.refilter()
}

func (t *Table[T]) refilter() {
	texts := make([]string, len(t.items))
	for i, it := range t.items {
		texts[i] = t.cfg.Text(it)
	}
	t.visible = search.Filter(t.query, texts)
	t.cursor = clamp(t.cursor, 0, len(t.visible)-1)
}

func (t *Table[T]) move(delta int) {
	t.cursor = clamp(t.cursor+delta, 0, len(t.visible)-1)
}

func (t *Table[T]) HandleEvent(ev core.Event) (core.Handled[T], error) {
	switch ev.Kind {
	case core.EventMouse:
		return t.handleMouse(ev.Mouse), nil
	case core.EventKey:
	default:
		return core.Ignored[T](), nil
	}
	if t.searching {
		return t.handleSearchKey(ev.Key), nil
	}
	k := t.cfg.Keys
	switch {
	case key.Matches(ev.Key, k.Up):
		t.move(-1)
	case key.Matches(ev.Key, k.Down):
		t.move(1)
	case key.Matches(ev.Key, k.PageUp):
		t.move(-PageStep)
	case key.Matches(ev.Key, k.PageDown):
		t.move(PageStep)
	case key.Matches(ev.Key, k.Home):
		t.cursor = 0
	case key.Matches(ev.Key, k.End):
		t.cursor = max(0, len(t.visible)-1)
	case key.Matches(ev.Key, k.Search):
		t.searching = true
		t.input.SetValue(t.query)
		t.input.CursorEnd()
		t.input.Focus()
	case key.Matches(ev.Key, k.ClearSearch) && t.query != "":
		t.SetQuery("")
	case key.Matches(ev.Key, k.Select):
		if it, ok := t.Selected(); ok {
			return core.Produced(it), nil
		}
	default:
		return core.Ignored[T](), nil
	}
	return core.Consumed[T](), nil
}

func (t *Table[T]) handleSearchKey(msg tea.KeyMsg) core.Handled[T] {
	switch msg.Type {
	case tea.KeyEnter:
		t.searching = false
		t.input.Blur()
	case tea.KeyEsc:
		t.searching = false
		t.input.Blur()
		t.input.SetValue("")
		t.SetQuery("")
	case tea.KeyUp:
		t.move(-1)
	case tea.KeyDown:
		t.move(1)
	default:
		t.input, _ = t.input.Update(msg)
		t.SetQuery(t.input.Value())
	}
	return core.Consumed[T]()
}

func (t *Table[T]) handleMouse(m tea.MouseMsg) core.Handled[T] {
	switch m.Button {
	case tea.MouseButtonWheelUp:
		t.move(-1)
	case tea.MouseButtonWheelDown:
		t.move(1)
	default:
		return core.Ignored[T]()
	}
	return core.Consumed[T]()
}

// Render draws an optional search line and the visible window of rows.
// The window is a fixed page of the cursor, so output depends only on state.
func (t *Table[T]) Render(area core.Area, theme *ui.Theme) string {
	var sb strings.Builder
	bodyH := area.Height
	if line := t.searchLine(theme); line != "" {
		sb.WriteString(line + "\n")
		bodyH--
	}
	rowsH := max(1, bodyH-2) // header + rule

	cols := t.columns(area.Width)
	start := 0
	if len(t.visible) > 0 {
		start = (t.cursor / rowsH) * rowsH
	}
	end := min(len(t.visible), start+rowsH)
	rows := make([]table.Row, 0, end-start)
	for _, idx := range t.visible[start:end] {
		rows = append(rows, table.Row(t.cfg.Row(t.items[idx])))
	}

	tm := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(len(rows)+4),
	)
	tm.SetStyles(tableStyles(theme))
	tm.SetCursor(t.cursor - start)
	view := tm.View()
	if len(t.visible) == 0 {
		empty := t.cfg.Empty
		if t.query != "" {
			empty = fmt.Sprintf("no matches for %q", t.query)
		}
		if empty == "" {
			empty = "nothing here"
		}
		view = strings.Join(strings.Split(view, "\n")[:2], "\n") + "\n" + theme.MutedStyle().Render("  "+empty)
	}
	sb.WriteString(view)
	return ui.Fit(sb.String(), area.Width, area.Height)
}

func (t *Table[T]) searchLine(theme *ui.Theme) string {
	switch {
	case t.searching:
		return t.input.View()
	case t.query != "":
		return theme.MutedStyle().Render(fmt.Sprintf("filter: %s (%d/%d)", t.query, len(t.visible), len(t.items)))
	}
	return ""
}

// columns sizes the configured columns to width. Every cell carries one
// column of padding on each side.
func (t *Table[T]) columns(width int) []table.Column {
	n := len(t.cfg.Columns)
	avail := width - 2*n
	fixed, flex := 0, 0
	for _, c := range t.cfg.Columns {
		if c.Width > 0 {
			fixed += c.Width
		} else {
			flex++
		}
	}
	share := 0
	if flex > 0 {
		share = max(4, (avail-fixed)/flex)
	}
	out := make([]table.Column, 0, n)
	for _, c := range t.cfg.Columns {
		w := c.Width
		if w <= 0 {
			w = share
		}
		out = append(out, table.Column{Title: c.Title, Width: w})
	}
	return out
}

func (t *Table[T]) KeyBindings() []key.Binding {
	k := t.cfg.Keys
	if t.searching {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply filter")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		}
	}
	out := []key.Binding{k.Up, k.Down, k.Search}
	if t.query != "" {
		out = append(out, k.ClearSearch)
	}
	return out
}

func tableStyles(theme *ui.Theme) table.Styles {
	st := table.DefaultStyles()
	st.Header = st.Header.
		Foreground(theme.Secondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(true)
	st.Cell = st.Cell.Foreground(theme.Text)
	st.Selected = theme.SelectedStyle()
	return st
}

func newSearchInput() textinput.Model {
	in := textinput.New()
	in.Prompt = "/ "
	in.Placeholder = "search (key:value for labels)"
	in.CharLimit = 128
	return in
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
