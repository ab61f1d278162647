// Garbage collection orchestration (C3): the object arena's refcounting
// fast path, plus a tracing mark-sweep pass that reclaims reference
// cycles the refcount alone cannot. Grounded on jerry-core/jmem's
// jmem_is_gc_needed/ecma_gc.c two-tier scheme (see
// _examples/original_source/jerry-core).
package object

import "ecmago/pkg/heap"

// RefValue increments whatever arena slot v refers to, giving the
// caller an independent owned reference (spec §4.1 testable property).
func (r *Realm) RefValue(v heap.Value) heap.Value {
	return r.Heap.Copy(v, r.Objects.Ref)
}

// DerefValue releases a reference to v, finalizing (and recursively
// releasing v's own children) immediately if that was the last one and
// no mark phase is active.
func (r *Realm) DerefValue(v heap.Value) {
	r.Heap.Free(v, r.derefObject)
}

func (r *Realm) derefObject(p heap.CPointer) {
	r.Objects.Deref(p, r.Heap.MarkPhaseActive(), r.finalizeObject)
}

// finalizeObject releases every Value an object record owns a reference
// to — its prototype, property values/getters/setters, function scope/
// bound-target/bound-args, environment outer/bindings/bound-object,
// wrapped primitive — mirroring jerry-core's ecma_gc_free_properties.
func (r *Realm) finalizeObject(d Data) {
	if d.Proto != 0 {
		r.derefObject(d.Proto)
	}
	for _, p := range d.Props {
		if p.Attrs.Accessor {
			if p.Getter != 0 {
				r.derefObject(p.Getter)
			}
			if p.Setter != 0 {
				r.derefObject(p.Setter)
			}
			continue
		}
		r.DerefValue(p.Value)
	}
	if d.HasPrimitive {
		r.DerefValue(d.PrimitiveValue)
	}
	switch d.Kind {
	case KindFunction:
		if d.Scope != 0 {
			r.derefObject(d.Scope)
		}
	case KindBoundFunction:
		if d.Bound != nil {
			r.derefObject(d.Bound.Target)
			r.DerefValue(d.Bound.BoundThis)
			for _, a := range d.Bound.BoundArgs {
				r.DerefValue(a)
			}
		}
	case KindDeclarativeEnv:
		if d.EnvOuter != 0 {
			r.derefObject(d.EnvOuter)
		}
		for _, b := range d.EnvBindings {
			r.DerefValue(b.Value)
		}
	case KindObjectEnv:
		if d.EnvOuter != 0 {
			r.derefObject(d.EnvOuter)
		}
		if d.EnvObject != 0 {
			r.derefObject(d.EnvObject)
		}
	case KindArguments:
		r.DerefValue(d.Callee)
	}
	if d.NativeHandleFree != nil && d.NativeHandle != nil {
		d.NativeHandleFree(d.NativeHandle)
	}
}

// SetExtraRoots installs the interpreter's frame-scanning callback; call
// with nil to clear it (used by pkg/vm at Context teardown).
func (r *Realm) SetExtraRoots(fn func() []heap.CPointer) { r.extraRoots = fn }

// CollectGarbage runs one full mark-sweep pass, reclaiming any object
// reachable only through a reference cycle — the gap refcounting alone
// cannot close (spec §4.3, testable property 3).
func (r *Realm) CollectGarbage() {
	r.Heap.BeginMark()
	defer r.Heap.EndMark()

	var worklist []heap.CPointer
	mark := func(p heap.CPointer) {
		if p == 0 {
			return
		}
		if r.Objects.Color(p) == heap.White {
			r.Objects.Mark(p, heap.Gray)
			worklist = append(worklist, p)
		}
	}
	mark(r.GlobalObject)
	mark(r.GlobalEnv)
	for _, p := range r.builtins {
		mark(p)
	}
	if r.extraRoots != nil {
		for _, p := range r.extraRoots() {
			mark(p)
		}
	}

	for len(worklist) > 0 {
		p := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		r.Objects.Mark(p, heap.Black)
		d := r.Obj(p)
		if d.Proto != 0 {
			mark(d.Proto)
		}
		for _, prop := range d.Props {
			if prop.Attrs.Accessor {
				mark(prop.Getter)
				mark(prop.Setter)
				continue
			}
			if prop.Value.IsObjectPtr() {
				mark(prop.Value.AsObjectPtr())
			}
		}
		if d.HasPrimitive && d.PrimitiveValue.IsObjectPtr() {
			mark(d.PrimitiveValue.AsObjectPtr())
		}
		switch d.Kind {
		case KindFunction:
			mark(d.Scope)
		case KindBoundFunction:
			if d.Bound != nil {
				mark(d.Bound.Target)
				if d.Bound.BoundThis.IsObjectPtr() {
					mark(d.Bound.BoundThis.AsObjectPtr())
				}
				for _, a := range d.Bound.BoundArgs {
					if a.IsObjectPtr() {
						mark(a.AsObjectPtr())
					}
				}
			}
		case KindDeclarativeEnv:
			mark(d.EnvOuter)
			for _, b := range d.EnvBindings {
				if b.Value.IsObjectPtr() {
					mark(b.Value.AsObjectPtr())
				}
			}
		case KindObjectEnv:
			mark(d.EnvOuter)
			mark(d.EnvObject)
		}
	}

	r.Objects.SweepWhite(r.finalizeObject)
}
