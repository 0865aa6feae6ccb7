package widget

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"

	"lazycloud/internal/core"
	"lazycloud/internal/keys"
	"lazycloud/internal/search"
	"lazycloud/internal/ui"
)

// List is a single-column selector with a detail column, fuzzy search and
// clickable rows. Enter or a click produces the item.
type List[T any] struct {
	id        string
	items     []T
	label     func(T) string
	detail    func(T) string
	visible   []int
	cursor    int
	query     string
	searching bool
	input     textinput.Model
	keys      *keys.Map
	Empty     string
}

// NewList builds a list. id namespaces its mouse zones and must be unique
// among lists visible at the same time.
func NewList[T any](id string, km *keys.Map, label, detail func(T) string) *List[T] {
	if km == nil {
		km = keys.Default()
	}
	return &List[T]{id: id, label: label, detail: detail, keys: km, input: newSearchInput()}
}

func (l *List[T]) SetItems(items []T) {
	l.items = items
	l.refilter()
}

func (l *List[T]) Items() []T  { return l.items }
func (l *List[T]) Len() int    { return len(l.visible) }
func (l *List[T]) Cursor() int { return l.cursor }

func (l *List[T]) Selected() (T, bool) {
	var zero T
	if len(l.visible) == 0 {
		return zero, false
	}
	return l.items[l.visible[l.cursor]], true
}

// SelectWhere moves the cursor to the first visible item matching pred.
func (l *List[T]) SelectWhere(pred func(T) bool) bool {
	for i, idx := range l.visible {
		if pred(l.items[idx]) {
			l.cursor = i
			return true
		}
	}
	return false
}

func (l *List[T]) refilter() {
	texts := make([]string, len(l.items))
	for i, it := range l.items {
		texts[i] = l.label(it)
		if l.detail != nil {
			texts[i] += " " + l.detail(it)
		}
	}
	l.visible = search.Filter(l.query, texts)
	l.cursor = clamp(l.cursor, 0, len(l.visible)-1)
}

func (l *List[T]) zoneID(i int) string { return fmt.Sprintf("%s-%d", l.id, i) }

func (l *List[T]) HandleEvent(ev core.Event) (core.Handled[T], error) {
	switch ev.Kind {
	case core.EventMouse:
		return l.handleMouse(ev.Mouse), nil
	case core.EventKey:
	default:
		return core.Ignored[T](), nil
	}
	if l.searching {
		switch ev.Key.Type {
		case tea.KeyEnter:
			l.searching = false
			l.input.Blur()
		case tea.KeyEsc:
			l.searching = false
			l.input.Blur()
			l.input.SetValue("")
			l.query = ""
			l.refilter()
		case tea.KeyUp:
			l.cursor = clamp(l.cursor-1, 0, len(l.visible)-1)
		case tea.KeyDown:
			l.cursor = clamp(l.cursor+1, 0, len(l.visible)-1)
		default:
			l.input, _ = l.input.Update(ev.Key)
			l.query = l.input.Value()
			l.refilter()
		}
		return core.Consumed[T](), nil
	}
	switch {
	case key.Matches(ev.Key, l.keys.Up):
		l.cursor = clamp(l.cursor-1, 0, len(l.visible)-1)
	case key.Matches(ev.Key, l.keys.Down):
		l.cursor = clamp(l.cursor+1, 0, len(l.visible)-1)
	case key.Matches(ev.Key, l.keys.Home):
		l.cursor = 0
	case key.Matches(ev.Key, l.keys.End):
		l.cursor = max(0, len(l.visible)-1)
	case key.Matches(ev.Key, l.keys.Search):
		l.searching = true
		l.input.SetValue(l.query)
		l.input.CursorEnd()
		l.input.Focus()
	case key.Matches(ev.Key, l.keys.ClearSearch) && l.query != "":
		l.query = ""
		l.refilter()
	case key.Matches(ev.Key, l.keys.Select):
		if it, ok := l.Selected(); ok {
			return core.Produced(it), nil
		}
	default:
		return core.Ignored[T](), nil
	}
	return core.Consumed[T](), nil
}

func (l *List[T]) handleMouse(m tea.MouseMsg) core.Handled[T] {
	switch {
	case m.Button == tea.MouseButtonWheelUp:
		l.cursor = clamp(l.cursor-1, 0, len(l.visible)-1)
		return core.Consumed[T]()
	case m.Button == tea.MouseButtonWheelDown:
		l.cursor = clamp(l.cursor+1, 0, len(l.visible)-1)
		return core.Consumed[T]()
	case m.Button == tea.MouseButtonLeft && m.Action == tea.MouseActionRelease:
		if zone.DefaultManager == nil {
			return core.Ignored[T]()
		}
		for i := range l.visible {
			if zone.Get(l.zoneID(i)).InBounds(m) {
				l.cursor = i
				it, _ := l.Selected()
				return core.Produced(it)
			}
		}
	}
	return core.Ignored[T]()
}

func (l *List[T]) Render(area core.Area, theme *ui.Theme) string {
	var lines []string
	switch {
	case l.searching:
		lines = append(lines, l.input.View())
	case l.query != "":
		lines = append(lines, theme.MutedStyle().Render(fmt.Sprintf("filter: %s (%d/%d)", l.query, len(l.visible), len(l.items))))
	}
	if len(l.visible) == 0 {
		empty := l.Empty
		if empty == "" {
			empty = "nothing here"
		}
		lines = append(lines, theme.MutedStyle().Render("  "+empty))
		return ui.Fit(strings.Join(lines, "\n"), area.Width, area.Height)
	}

	rowsH := max(1, area.Height-len(lines))
	start := (l.cursor / rowsH) * rowsH
	end := min(len(l.visible), start+rowsH)
	labelW := 0
	for _, idx := range l.visible[start:end] {
		labelW = max(labelW, runewidth.StringWidth(l.label(l.items[idx])))
	}
	labelW = min(labelW, max(8, area.Width/2))

	for i := start; i < end; i++ {
		it := l.items[l.visible[i]]
		label := runewidth.FillRight(runewidth.Truncate(l.label(it), labelW, "…"), labelW)
		detail := ""
		if l.detail != nil {
			detail = l.detail(it)
		}
		var line string
		if i == l.cursor {
			line = theme.SelectedStyle().Render(" › " + label + " ")
		} else {
			line = theme.TextStyle().Render("   " + label + " ")
		}
		if detail != "" {
			line += " " + theme.MutedStyle().Render(detail)
		}
		lines = append(lines, l.mark(i, line))
	}
	return ui.Fit(strings.Join(lines, "\n"), area.Width, area.Height)
}

func (l *List[T]) mark(i int, s string) string {
	if zone.DefaultManager == nil {
		return s
	}
	return zone.Mark(l.zoneID(i), s)
}

func (l *List[T]) KeyBindings() []key.Binding {
	return []key.Binding{l.keys.Up, l.keys.Down, l.keys.Select, l.keys.Search}
}
