package vm

import "ecmago/pkg/heap"

// frameThrow unwinds runFrame past every dispatch-loop nesting level in
// one motion when a throw escapes every handler pushed on the current
// frame. recover()ing it is cheaper than threading an (abrupt, value)
// pair through every opcode case that can itself call back into script
// (property accessors, valueOf/toString, iterator termination).
type frameThrow struct {
	v heap.Value
}

// raise looks for a handler on f for the already-error-flagged value
// thrown and, if one exists, rewrites f.pc/f.stack/f.env to resume
// there and reports true. Each candidate handler is popped as it is
// examined, matched or not: a straightforward LIFO unwind, at the cost
// of the finally clause of a try whose catch itself throws not
// running — see DESIGN.md.
func (m *Machine) raise(f *Frame, thrown heap.Value) bool {
	for len(f.tries) > 0 {
		n := len(f.tries) - 1
		h := f.tries[n]
		f.tries = f.tries[:n]

		f.stack = f.stack[:h.stackDepth]
		f.env = h.env

		if h.catchPC >= 0 {
			f.push(thrown.ClearError())
			f.pc = int(h.catchPC)
			return true
		}
		if h.finallyPC >= 0 {
			f.pending = &pendingCompletion{isThrow: true, value: thrown}
			f.pc = int(h.finallyPC)
			return true
		}
	}
	return false
}

// trap centralizes "did this operation just throw" for the dispatch
// loop: every opcode that can fail routes its result through trap
// before pushing it, so a single call site handles both in-frame
// recovery (return true, the caller does `continue`) and unwinding the
// whole frame (panics with frameThrow, caught by runFrame's recover).
func (m *Machine) trap(f *Frame, v heap.Value) bool {
	if !v.IsError() {
		return false
	}
	if m.raise(f, v) {
		return true
	}
	panic(frameThrow{v})
}
