package core

import (
	"github.com/charmbracelet/bubbles/key"

	"lazycloud/internal/ui"
)

// Element is anything that can receive input and draw itself. O is the
// element's output type: what it produces when an event completes an
// interaction (a selected row, a submitted value, a service message).
//
// An error return reports an input-routing failure. Wrap it with Fatal
// when the owning service cannot continue.
type Element[O any] interface {
	HandleEvent(ev Event) (Handled[O], error)
	Render(area Area, theme *ui.Theme) string
}

// Page is a full-screen element of a service. Only the top page of a
// service's stack is visible and receives input.
type Page[M any] interface {
	Element[M]
	// Breadcrumbs are the navigation labels this page contributes.
	Breadcrumbs() []string
}

// Overlay is a modal element drawn above the current page. While an
// overlay is shown it receives every event.
type Overlay[M any] interface {
	Element[M]
	Title() string
	// Dismissed reports that the overlay finished (confirmed or cancelled)
	// and should be cleared by its owner.
	Dismissed() bool
}

// Ticker is implemented by elements that animate or poll on each tick.
type Ticker interface {
	OnTick()
}

// KeyHelper is implemented by elements that advertise their bindings in
// the footer.
type KeyHelper interface {
	KeyBindings() []key.Binding
}
