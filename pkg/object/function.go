package object

import (
	"ecmago/pkg/bytecode"
	"ecmago/pkg/heap"
)

// NewFunctionObject allocates a KindFunction object for a compiled
// closure — pkg/vm's OpMakeFunction entry point. scope is the lexical
// environment the closure captures; length/prototype are left
// unmaterialized and filled in lazily by materializeLazy on first
// access, same as every other function kind.
func (r *Realm) NewFunctionObject(code *bytecode.CompiledCode, scope heap.CPointer) heap.CPointer {
	p := r.CreateObject(r.FunctionPrototype(), true, KindFunction)
	if scope != 0 {
		r.Objects.Ref(scope)
	}
	d := r.Obj(p)
	d.Code = code
	d.Scope = scope
	d.Strict = code.Strict
	r.setObj(p, d)
	return p
}

// SetArrayLength raises obj's array-extended length slot to n (a smaller
// n leaves it unchanged), bypassing the Put-driven maybeGrowArrayLength
// path — used by
// OpMakeArray to fix the final length even when trailing elements are
// holes that wouldn't otherwise grow it.
func (r *Realm) SetArrayLength(obj heap.CPointer, n uint32) {
	d := r.Obj(obj)
	if n > d.ArrayLength {
		d.ArrayLength = n
	}
	r.setObj(obj, d)
}

// NumberValue boxes n into a Value, using an immediate integer when n
// is a whole number in the 27-bit payload range and a heap float
// otherwise — the same boundary pkg/heap.Value's tag layout enforces.
// Exported so pkg/vm can re-box arithmetic results without reaching
// into the private numberValue helper the Number wrapper uses.
func (r *Realm) NumberValue(n float64) heap.Value { return r.numberValue(n) }

// NewExternalFunction creates a KindExternalFunction object backed by a
// host-supplied native entry point — the embedding API's
// create_external_function (spec §6/§3 "External" function kind).
func (r *Realm) NewExternalFunction(name string, length int, fn ExternalFunc) heap.CPointer {
	return r.newNativeFunction(r.FunctionPrototype(), name, length, fn)
}

// MutateObject applies fn to obj's stored Data record and writes the
// result back — a small helper for call sites (pkg/vm, primarily) that
// need to touch more than one field of a live object without hand
// re-deriving the Get-mutate-Set boilerplate every time.
func (r *Realm) MutateObject(obj heap.CPointer, fn func(*Data)) {
	d := r.Obj(obj)
	fn(&d)
	r.setObj(obj, d)
}
