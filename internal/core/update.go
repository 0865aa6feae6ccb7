package core

import "slices"

type opKind uint8

const (
	opPush opKind = iota
	opPop
	opReplace
	opShowOverlay
	opDismissOverlay
	opClose
)

type stackOp[M any] struct {
	kind    opKind
	page    Page[M]
	overlay Overlay[M]
}

// UpdateResult is what a message handler asks its instance to do: spawn
// commands, change the page stack or overlay (in order), emit follow-up
// messages and set the status line.
type UpdateResult[M any] struct {
	commands []Command[M]
	ops      []stackOp[M]
	emit     []M
	status   string
}

// Idle is the empty result.
func Idle[M any]() UpdateResult[M] { return UpdateResult[M]{} }

func (r UpdateResult[M]) Spawn(cmds ...Command[M]) UpdateResult[M] {
	r.commands = append(slices.Clip(r.commands), cmds...)
	return r
}

func (r UpdateResult[M]) Push(p Page[M]) UpdateResult[M] {
	return r.op(stackOp[M]{kind: opPush, page: p})
}

func (r UpdateResult[M]) Pop() UpdateResult[M] {
	return r.op(stackOp[M]{kind: opPop})
}

// Replace swaps the top page.
func (r UpdateResult[M]) Replace(p Page[M]) UpdateResult[M] {
	return r.op(stackOp[M]{kind: opReplace, page: p})
}

func (r UpdateResult[M]) ShowOverlay(o Overlay[M]) UpdateResult[M] {
	return r.op(stackOp[M]{kind: opShowOverlay, overlay: o})
}

func (r UpdateResult[M]) DismissOverlay() UpdateResult[M] {
	return r.op(stackOp[M]{kind: opDismissOverlay})
}

// Close ends the service.
func (r UpdateResult[M]) Close() UpdateResult[M] {
	return r.op(stackOp[M]{kind: opClose})
}

// Emit queues follow-up messages; they are applied in the same drain.
func (r UpdateResult[M]) Emit(msgs ...M) UpdateResult[M] {
	r.emit = append(slices.Clip(r.emit), msgs...)
	return r
}

// Notify sets the status line.
func (r UpdateResult[M]) Notify(status string) UpdateResult[M] {
	r.status = status
	return r
}

func (r UpdateResult[M]) op(o stackOp[M]) UpdateResult[M] {
	r.ops = append(slices.Clip(r.ops), o)
	return r
}
