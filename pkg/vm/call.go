package vm

import (
	"strconv"

	"ecmago/pkg/heap"
	"ecmago/pkg/object"
)

// Call implements the [[Call]] internal method (spec §7) for every
// function kind the object model can produce; installed as
// Realm.CallFunc so the object package can invoke script functions
// (accessors, valueOf/toString, Function.prototype.call/apply/bind)
// without importing pkg/vm.
func (m *Machine) Call(r *object.Realm, fn heap.CPointer, this heap.Value, args []heap.Value) heap.Value {
	d := r.Obj(fn)
	switch d.Kind {
	case object.KindFunction:
		return m.callScript(r, fn, &d, this, args)
	case object.KindExternalFunction, object.KindBuiltinFunction:
		if d.Native == nil {
			return r.ThrowTypeError("value is not callable")
		}
		return d.Native(r, this, args)
	case object.KindBoundFunction:
		combined := append(append([]heap.Value(nil), d.Bound.BoundArgs...), args...)
		return m.Call(r, d.Bound.Target, d.Bound.BoundThis, combined)
	default:
		return r.ThrowTypeError("value is not a function")
	}
}

func (m *Machine) callScript(r *object.Realm, fn heap.CPointer, d *object.Data, this heap.Value, args []heap.Value) heap.Value {
	if len(m.frames) >= MaxFrames {
		return r.ThrowRangeError("Maximum call stack size exceeded")
	}

	thisVal := coerceThis(r, this, d.Strict)
	env := r.NewDeclarativeEnvironment(d.Scope)

	for i, pname := range d.Code.ParamNames {
		name := r.Strings.Intern(pname)
		r.CreateMutableBinding(env, name, false)
		v := heap.Undefined
		if i < len(args) {
			v = args[i]
		}
		r.InitializeBinding(env, name, v)
	}

	if d.Code.NeedsArguments {
		argsObj := makeArguments(r, fn, args)
		name := r.Strings.Intern("arguments")
		if !r.HasBinding(env, name) {
			r.CreateMutableBinding(env, name, false)
		}
		r.InitializeBinding(env, name, heap.ObjectPtr(argsObj))
	}

	f := newFrame(d.Code, fn, env, thisVal)
	m.frames = append(m.frames, f)
	result := m.runFrame(f)
	m.frames = m.frames[:len(m.frames)-1]
	return result
}

// coerceThis implements spec §7's "how the frame's this is bound" rule:
// strict-mode functions receive their caller's this verbatim; sloppy
// functions replace undefined/null with the global object and box
// primitives, per ECMA-262 10.4.3.
func coerceThis(r *object.Realm, this heap.Value, strict bool) heap.Value {
	if strict {
		return this
	}
	if this.IsUndefined() || this.IsNull() {
		return heap.ObjectPtr(r.GlobalObject)
	}
	if this.IsObjectPtr() {
		return this
	}
	return r.ToObject(this)
}

// makeArguments builds an unmapped Arguments object (see object.Data's
// Callee/ArgCount doc comment) for a callScript activation.
func makeArguments(r *object.Realm, callee heap.CPointer, args []heap.Value) heap.CPointer {
	p := r.CreateObject(r.ObjectPrototype(), true, object.KindArguments)
	r.MutateObject(p, func(d *object.Data) {
		d.Callee = heap.ObjectPtr(callee)
		d.ArgCount = len(args)
	})
	for i, a := range args {
		r.Put(p, r.Strings.Intern(strconv.Itoa(i)), a, false)
	}
	r.Put(p, r.Strings.MagicLength(), heap.Int(int32(len(args))), false)
	r.Put(p, r.Strings.MagicCallee(), heap.ObjectPtr(callee), false)
	return p
}

// Construct implements the [[Construct]] internal method (spec §7,
// ECMA-262 13.2.2): allocate a fresh object linked to ctor.prototype,
// invoke [[Call]] with it as this, and keep whichever of the two ends
// up being an object. This generic shape works even for builtins whose
// closures build their own object and ignore the passed-in this — the
// pre-made object is simply discarded, unreferenced, and later
// collected.
func (m *Machine) Construct(r *object.Realm, ctor heap.CPointer, args []heap.Value) heap.Value {
	d := r.Obj(ctor)
	if d.Kind == object.KindBoundFunction {
		combined := append(append([]heap.Value(nil), d.Bound.BoundArgs...), args...)
		return m.Construct(r, d.Bound.Target, combined)
	}
	if !d.Kind.IsFunction() {
		return r.ThrowTypeError("value is not a constructor")
	}

	protoVal := r.Get(ctor, r.Strings.MagicPrototype())
	if protoVal.IsError() {
		return protoVal
	}
	protoPtr := r.ObjectPrototype()
	if protoVal.IsObjectPtr() {
		protoPtr = protoVal.AsObjectPtr()
	}
	newObj := r.CreateObject(protoPtr, true, object.KindGeneral)

	result := m.Call(r, ctor, heap.ObjectPtr(newObj), args)
	if result.IsError() {
		return result
	}
	if result.IsObjectPtr() {
		return result
	}
	return heap.ObjectPtr(newObj)
}

// HasInstance backs the instanceof operator (ECMA-262 15.3.5.3).
func (m *Machine) HasInstance(r *object.Realm, ctor heap.CPointer, value heap.Value) heap.Value {
	d := r.Obj(ctor)
	if d.Kind == object.KindBoundFunction {
		return m.HasInstance(r, d.Bound.Target, value)
	}
	if !d.Kind.IsFunction() {
		return r.ThrowTypeError("right-hand side of instanceof is not callable")
	}
	if !value.IsObjectPtr() {
		return heap.False
	}
	protoVal := r.Get(ctor, r.Strings.MagicPrototype())
	if protoVal.IsError() {
		return protoVal
	}
	if !protoVal.IsObjectPtr() {
		return r.ThrowTypeError("prototype is not an object")
	}
	target := protoVal.AsObjectPtr()
	for p := r.Obj(value.AsObjectPtr()).Proto; p != 0; p = r.Obj(p).Proto {
		if p == target {
			return heap.True
		}
	}
	return heap.False
}
