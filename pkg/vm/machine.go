// Package vm implements the stack-based bytecode interpreter (C6): the
// Frame/Machine dispatch loop that executes a compiler-produced
// CompiledCode, plus the Function object protocol (C7, [[Call]]/
// [[Construct]]/[[HasInstance]]) that bridges back into it from the
// object model.
//
// Grounded on nooga/paserati's vm package (register-machine dispatch
// loop, one big switch over an Op enum) adapted to this engine's
// stack-machine bytecode shape.
package vm

import (
	"ecmago/pkg/bytecode"
	"ecmago/pkg/heap"
	"ecmago/pkg/jsregexp"
	"ecmago/pkg/object"
)

// Machine is one running interpreter over a Realm: the live call stack
// plus the entry points (Call/Construct/HasInstance) the object model
// invokes through Realm.CallFunc.
type Machine struct {
	Realm   *object.Realm
	frames  []*Frame
	regexps *jsregexp.Cache
}

// New wires m as r's interpreter: CallFunc for accessor/valueOf/
// Function.prototype.call-apply-bind back-calls, RegexpExec for
// RegExp.prototype.test/exec (kept one-way — pkg/object must not import
// pkg/jsregexp directly, see object.Realm.RegexpExec's doc comment),
// and the frame scanner CollectGarbage needs to see live stack/
// register/environment references the object arena's own refcounts
// don't reach.
func New(r *object.Realm) *Machine {
	m := &Machine{Realm: r, regexps: jsregexp.NewCache()}
	r.CallFunc = m.Call
	r.RegexpExec = m.regexps.Exec
	r.SetExtraRoots(m.gcRoots)
	return m
}

// Run executes a top-level program's compiled code in the realm's
// global environment. Every expression-statement result is popped by
// the compiler's own OpPop (compileExpressionStatement), so there is no
// ECMA "completion value" to report; Run always returns Undefined on
// normal completion, or an error-flagged Value if the program threw
// past every handler.
func (m *Machine) Run(code *bytecode.CompiledCode) heap.Value {
	f := newFrame(code, 0, m.Realm.GlobalEnv, heap.ObjectPtr(m.Realm.GlobalObject))
	m.frames = append(m.frames, f)
	result := m.runFrame(f)
	m.frames = m.frames[:len(m.frames)-1]
	if result.IsError() {
		m.Realm.SetError(result)
	} else {
		m.Realm.ClearError()
	}
	return result
}

// gcRoots reports every object-typed Value a live frame can reach
// directly; CollectGarbage's mark phase walks prototype/scope/
// environment-outer chains transitively from there, so this only needs
// to report entry points, not the full transitive closure.
func (m *Machine) gcRoots() []heap.CPointer {
	var roots []heap.CPointer
	add := func(v heap.Value) {
		if v.IsObjectPtr() {
			roots = append(roots, v.AsObjectPtr())
		}
	}
	for _, f := range m.frames {
		for _, v := range f.stack {
			add(v)
		}
		for _, v := range f.regs {
			add(v)
		}
		add(f.this)
		if f.fn != 0 {
			roots = append(roots, f.fn)
		}
		if f.env != 0 {
			roots = append(roots, f.env)
		}
		for _, e := range f.envStack {
			if e != 0 {
				roots = append(roots, e)
			}
		}
		for _, h := range f.tries {
			if h.env != 0 {
				roots = append(roots, h.env)
			}
		}
		if f.pending != nil {
			add(f.pending.value)
		}
	}
	return roots
}
