package core

import (
	"github.com/charmbracelet/bubbles/key"

	"lazycloud/internal/ui"
)

// ResultKind tells the controller what a service did with an event or tick.
type ResultKind uint8

const (
	ResultHandled ResultKind = iota
	ResultIgnored
	ResultClose
	ResultError
)

func (k ResultKind) String() string {
	switch k {
	case ResultIgnored:
		return "ignored"
	case ResultClose:
		return "close"
	case ResultError:
		return "error"
	default:
		return "handled"
	}
}

// ServiceResult is the only thing the controller learns from a service.
type ServiceResult struct {
	Kind ResultKind
	Err  error
}

func ServiceHandled() ServiceResult        { return ServiceResult{Kind: ResultHandled} }
func ServiceIgnored() ServiceResult        { return ServiceResult{Kind: ResultIgnored} }
func ServiceClose() ServiceResult          { return ServiceResult{Kind: ResultClose} }
func ServiceError(err error) ServiceResult { return ServiceResult{Kind: ResultError, Err: err} }

// StatusLevel classifies the status line.
type StatusLevel uint8

const (
	StatusInfo StatusLevel = iota
	StatusError
)

// Status is the one-line feedback a service shows in the footer.
type Status struct {
	Text  string
	Level StatusLevel
}

func (s Status) Empty() bool { return s.Text == "" }

// Service is a running provider feature as seen by the controller.
type Service interface {
	// Mount queues the service's initial work. It never blocks.
	Mount()
	// Unmount releases the service. In-flight commands are detached.
	Unmount()
	HandleEvent(ev Event) ServiceResult
	// Drain applies every queued message. The controller calls it after
	// each handled input so the next key sees the resulting state.
	Drain() ServiceResult
	// OnTick ticks the visible elements, then drains like Drain.
	OnTick() ServiceResult
	Render(area Area, theme *ui.Theme) string
	Breadcrumbs() []string
	Status() Status
	KeyBindings() []key.Binding
}
