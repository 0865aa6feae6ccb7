package core

import (
	"context"
	"sync"
	"time"
)

// Message is a service-local value describing something that happened
// (user intent or async result). Topic selects the handler that applies it.
type Message interface {
	Topic() string
}

// Command is a unit of asynchronous work. Run executes off the UI loop and
// reports its outcome, including failures, as a message.
type Command[M any] interface {
	Name() string
	Run(ctx context.Context) M
}

type commandFunc[M any] struct {
	name string
	fn   func(context.Context) M
}

func (c commandFunc[M]) Name() string              { return c.name }
func (c commandFunc[M]) Run(ctx context.Context) M { return c.fn(ctx) }

// NewCommand adapts a function into a Command.
func NewCommand[M any](name string, fn func(context.Context) M) Command[M] {
	return commandFunc[M]{name: name, fn: fn}
}

// Handle identifies one in-flight command for bookkeeping.
type Handle struct {
	ID      string
	Name    string
	Started time.Time
}

// Failure is implemented by result messages that can carry an error.
type Failure interface {
	Failure() error
}

// Finished is a retired command as kept in an instance's history.
type Finished struct {
	Handle
	Took     time.Duration
	Err      error
	Panicked bool
}

func (f Finished) OK() bool { return f.Err == nil && !f.Panicked }

// historySize bounds the finished commands an instance remembers.
const historySize = 20

type envelope[M any] struct {
	handle string // empty for local messages
	msg    M
	ok     bool // false when the command produced nothing (panicked)
	at     time.Time
}

// Mailbox is the FIFO queue of one service instance. It is the only state
// shared with command goroutines. After Close every delivery is dropped.
type Mailbox[M any] struct {
	mu     sync.Mutex
	items  []envelope[M]
	closed bool
}

func NewMailbox[M any]() *Mailbox[M] {
	return &Mailbox[M]{}
}

// Send enqueues a local message. It reports false when the mailbox is closed.
func (b *Mailbox[M]) Send(msg M) bool {
	return b.deliver(envelope[M]{msg: msg, ok: true})
}

func (b *Mailbox[M]) deliver(e envelope[M]) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.items = append(b.items, e)
	return true
}

func (b *Mailbox[M]) pop() (envelope[M], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == 0 {
		return envelope[M]{}, false
	}
	e := b.items[0]
	b.items[0] = envelope[M]{}
	b.items = b.items[1:]
	return e, true
}

// Len returns the number of queued messages.
func (b *Mailbox[M]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Close drops queued messages and detaches every future sender.
func (b *Mailbox[M]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.items = nil
}

func (b *Mailbox[M]) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
