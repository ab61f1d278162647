package object

import "ecmago/pkg/heap"

// Throw* helpers construct the matching Error built-in, record it as the
// realm's pending abrupt completion, and return an error-flagged Value —
// the shape every object-model operation that can fail returns so
// pkg/vm's interpreter loop can propagate it as a thrown exception
// without the object package importing the interpreter.

func (r *Realm) throw(ctorID BuiltinID, message string) heap.Value {
	ctor, ok := r.builtins[ctorID]
	var errObj heap.CPointer
	if ok {
		errObj = r.newErrorFromConstructor(ctor, message)
	} else {
		errObj = r.CreateObject(r.ObjectPrototype(), true, KindGeneral)
		r.defineOwnPropertyRaw(errObj, r.Strings.MagicMessage(), Property{
			Name: r.Strings.MagicMessage(), Attrs: Attrs{Writable: true, Configurable: true}, Value: r.Strings.Intern(message),
		})
	}
	v := heap.ObjectPtr(errObj).WithError()
	r.pendingError = v
	r.hasError = true
	return v
}

func (r *Realm) newErrorFromConstructor(ctor heap.CPointer, message string) heap.CPointer {
	proto := r.Get(ctor, r.Strings.MagicPrototype())
	var protoPtr heap.CPointer
	if proto.IsObjectPtr() {
		protoPtr = proto.AsObjectPtr()
	}
	obj := r.CreateObject(protoPtr, true, KindGeneral)
	msgVal := r.Strings.Intern(message)
	r.defineOwnPropertyRaw(obj, r.Strings.MagicMessage(), Property{
		Name: r.Strings.MagicMessage(), Attrs: Attrs{Writable: true, Configurable: true}, Value: msgVal,
	})
	return obj
}

func (r *Realm) ThrowTypeError(message string) heap.Value {
	return r.throw(BuiltinTypeErrorConstructor, message)
}
func (r *Realm) ThrowRangeError(message string) heap.Value {
	return r.throw(BuiltinRangeErrorConstructor, message)
}
func (r *Realm) ThrowReferenceError(message string) heap.Value {
	return r.throw(BuiltinReferenceErrorConstructor, message)
}
func (r *Realm) ThrowSyntaxError(message string) heap.Value {
	return r.throw(BuiltinSyntaxErrorConstructor, message)
}
func (r *Realm) ThrowURIError(message string) heap.Value {
	return r.throw(BuiltinURIErrorConstructor, message)
}
func (r *Realm) ThrowEvalError(message string) heap.Value {
	return r.throw(BuiltinEvalErrorConstructor, message)
}

// errorCtorByKind maps the embedding API's create_error(kind, ...)
// string names (spec §6) to the matching built-in constructor.
var errorCtorByKind = map[string]BuiltinID{
	"Error":          BuiltinErrorConstructor,
	"TypeError":      BuiltinTypeErrorConstructor,
	"RangeError":     BuiltinRangeErrorConstructor,
	"ReferenceError": BuiltinReferenceErrorConstructor,
	"SyntaxError":    BuiltinSyntaxErrorConstructor,
	"URIError":       BuiltinURIErrorConstructor,
	"EvalError":      BuiltinEvalErrorConstructor,
}

// NewError builds an Error-family object of the given kind without
// installing it as the realm's pending completion — the embedding
// API's create_error, which hands the host a plain value it may choose
// to throw itself, unlike the Throw* helpers used internally by the
// object model and interpreter.
func (r *Realm) NewError(kind, message string) heap.Value {
	ctorID, ok := errorCtorByKind[kind]
	if !ok {
		ctorID = BuiltinErrorConstructor
	}
	ctor, ok := r.builtins[ctorID]
	if !ok {
		return r.ThrowTypeError("unknown error kind " + kind)
	}
	return heap.ObjectPtr(r.newErrorFromConstructor(ctor, message))
}

// PendingError returns the realm's current thrown value, if any.
func (r *Realm) PendingError() (heap.Value, bool) { return r.pendingError, r.hasError }

// ClearError resets the realm's pending-exception slot — called once
// the interpreter has either propagated the throw to a handler or
// surfaced it to the host.
func (r *Realm) ClearError() {
	r.pendingError = heap.Undefined
	r.hasError = false
}

// SetError installs an already-constructed value as the realm's
// pending completion — used by the `throw` statement, which throws an
// arbitrary script value rather than one of the built-in constructors.
func (r *Realm) SetError(v heap.Value) heap.Value {
	r.pendingError = v
	r.hasError = true
	return v.WithError()
}
