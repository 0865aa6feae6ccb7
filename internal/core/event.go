package core

import (
	tea "github.com/charmbracelet/bubbletea"
)

// EventKind tags the variant held by an Event.
type EventKind int

const (
	EventKey EventKind = iota
	EventResize
	EventTick
	EventMouse
)

// Event is a single terminal input event, already decoded by the program
// loop. Only the fields of the active Kind are meaningful.
type Event struct {
	Kind   EventKind
	Key    tea.KeyMsg
	Mouse  tea.MouseMsg
	Width  int
	Height int
}

func KeyEvent(k tea.KeyMsg) Event         { return Event{Kind: EventKey, Key: k} }
func MouseEvent(m tea.MouseMsg) Event     { return Event{Kind: EventMouse, Mouse: m} }
func ResizeEvent(width, height int) Event { return Event{Kind: EventResize, Width: width, Height: height} }
func TickEvent() Event                    { return Event{Kind: EventTick} }

// IsKey reports whether ev is a key press.
func (ev Event) IsKey() bool { return ev.Kind == EventKey }

var namedKeys = map[string]tea.KeyType{
	"enter":     tea.KeyEnter,
	"esc":       tea.KeyEsc,
	"up":        tea.KeyUp,
	"down":      tea.KeyDown,
	"left":      tea.KeyLeft,
	"right":     tea.KeyRight,
	"tab":       tea.KeyTab,
	"shift+tab": tea.KeyShiftTab,
	"pgup":      tea.KeyPgUp,
	"pgdown":    tea.KeyPgDown,
	"home":      tea.KeyHome,
	"end":       tea.KeyEnd,
	"backspace": tea.KeyBackspace,
	"delete":    tea.KeyDelete,
	"ctrl+c":    tea.KeyCtrlC,
	"ctrl+d":    tea.KeyCtrlD,
	"ctrl+u":    tea.KeyCtrlU,
	" ":         tea.KeySpace,
}

// KeyPress builds a key event from its bubbletea string form ("enter",
// "esc", "j", "G", ...). It is used by scripted input and tests.
func KeyPress(s string) Event {
	if t, ok := namedKeys[s]; ok {
		return KeyEvent(tea.KeyMsg{Type: t})
	}
	return KeyEvent(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// Area is the cell rectangle an element may draw into.
type Area struct {
	Width  int
	Height int
}

// Shrink returns the area minus dw columns and dh rows, never negative.
func (a Area) Shrink(dw, dh int) Area {
	return Area{Width: max(0, a.Width-dw), Height: max(0, a.Height-dh)}
}
