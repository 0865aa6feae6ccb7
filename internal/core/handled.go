package core

type handledKind uint8

const (
	kindIgnored handledKind = iota
	kindConsumed
	kindProduced
)

// Handled is the result of offering an event to an element: the event
// was Ignored, Consumed with no output, or Consumed and Produced a value
// of the element's output type.
type Handled[M any] struct {
	kind handledKind
	msg  M
}

func Ignored[M any]() Handled[M]       { return Handled[M]{kind: kindIgnored} }
func Consumed[M any]() Handled[M]      { return Handled[M]{kind: kindConsumed} }
func Produced[M any](msg M) Handled[M] { return Handled[M]{kind: kindProduced, msg: msg} }

func (h Handled[M]) IsIgnored() bool  { return h.kind == kindIgnored }
func (h Handled[M]) IsConsumed() bool { return h.kind == kindConsumed }
func (h Handled[M]) IsProduced() bool { return h.kind == kindProduced }

// Message returns the produced value, if any.
func (h Handled[M]) Message() (M, bool) {
	return h.msg, h.kind == kindProduced
}

func (h Handled[M]) String() string {
	switch h.kind {
	case kindConsumed:
		return "Consumed"
	case kindProduced:
		return "Produced"
	default:
		return "Ignored"
	}
}

// Map converts a child's output into the parent's type. Ignored and
// Consumed pass through unchanged.
func Map[A, B any](h Handled[A], f func(A) B) Handled[B] {
	if m, ok := h.Message(); ok {
		return Produced(f(m))
	}
	return Handled[B]{kind: h.kind}
}

// Then is Map for conversions that may themselves consume or ignore.
func Then[A, B any](h Handled[A], f func(A) Handled[B]) Handled[B] {
	if m, ok := h.Message(); ok {
		return f(m)
	}
	return Handled[B]{kind: h.kind}
}
