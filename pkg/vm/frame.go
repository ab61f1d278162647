package vm

import (
	"ecmago/pkg/bytecode"
	"ecmago/pkg/heap"
)

// MaxFrames bounds the interpreter's call stack depth (spec §4.7's
// recursion limit, "RangeError: Maximum call stack size exceeded").
const MaxFrames = 1024

// tryHandler is one entry of a frame's try/catch/finally handler stack,
// pushed by OpTryBegin and popped by OpTryEnd or by a throw that unwinds
// past it. catchPC/finallyPC carry -1 when that clause is absent.
type tryHandler struct {
	catchPC    int32
	finallyPC  int32
	stackDepth int // operand stack depth to restore to before jumping
	env        heap.CPointer
}

// pendingCompletion is a completion a finally block must re-raise once
// it finishes running — an exception that reached this try with no
// catch of its own. OpEndFinally consumes it.
type pendingCompletion struct {
	isThrow bool
	value   heap.Value
}

// forInState is one for-in loop's enumerator, indexed by the compiler's
// per-nesting-depth slot (pkg/compiler's forInDepth) rather than a LIFO
// stack, so a `break` that skips OpForInNext's own cleanup cannot leave
// a stale entry where an outer loop would look for its own.
type forInState struct {
	obj   heap.CPointer
	names []heap.Value
	idx   int
}

// Frame is one active function (or top-level program) activation: an
// operand stack pre-sized from the compiler's proven depth bound, a
// fixed two-slot register file for the rare fused ops that use one
// (member ++/-- scratch and the OpGetPropOfReg base register), the
// bytecode being executed, and the try/for-in/with bookkeeping that
// bytecode's statement-level ops manipulate.
type Frame struct {
	code *bytecode.CompiledCode
	fn   heap.CPointer // the Function object this activation belongs to (0 for top-level program)
	pc   int

	stack []heap.Value
	regs  []heap.Value

	env  heap.CPointer // current lexical environment (declarative, innermost first)
	this heap.Value

	// envStack saves the previous env across OpWithEnter/OpPushEnv so the
	// matching OpWithExit/OpPopEnv can restore it; block scoping in this
	// engine is entirely dynamic (no compile-time slot allocation across
	// blocks), so this is a plain stack of CPointers rather than anything
	// keyed by nesting depth.
	envStack []heap.CPointer

	tries []tryHandler
	forIn []forInState

	pending *pendingCompletion
}

func newFrame(code *bytecode.CompiledCode, fn heap.CPointer, env heap.CPointer, this heap.Value) *Frame {
	return &Frame{
		code:  code,
		fn:    fn,
		env:   env,
		this:  this,
		stack: make([]heap.Value, 0, code.RegisterCount),
		regs:  make([]heap.Value, bytecode.NumRegisters),
	}
}

func (f *Frame) push(v heap.Value) { f.stack = append(f.stack, v) }

func (f *Frame) pop() heap.Value {
	n := len(f.stack) - 1
	v := f.stack[n]
	f.stack = f.stack[:n]
	return v
}

func (f *Frame) popN(n int) []heap.Value {
	v := append([]heap.Value(nil), f.stack[len(f.stack)-n:]...)
	f.stack = f.stack[:len(f.stack)-n]
	return v
}

func (f *Frame) top() heap.Value { return f.stack[len(f.stack)-1] }

func (f *Frame) pushEnv(env heap.CPointer) {
	f.envStack = append(f.envStack, f.env)
	f.env = env
}

func (f *Frame) popEnv() {
	n := len(f.envStack) - 1
	f.env = f.envStack[n]
	f.envStack = f.envStack[:n]
}

// forInSlot grows the per-depth enumerator slice on demand; the
// compiler assigns slots 0..forInDepth-1 densely, so the slice only
// ever needs to grow forward.
func (f *Frame) forInSlot(i int32) *forInState {
	for int32(len(f.forIn)) <= i {
		f.forIn = append(f.forIn, forInState{})
	}
	return &f.forIn[i]
}
