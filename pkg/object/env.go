// Lexical environments (spec §3 "Lexical environment"): declarative
// records for var/function/catch bindings, and object-bound records for
// the global environment and `with` statements. Grounded on
// jerry-core/ecma/operations/ecma-lex-env.c (see
// _examples/original_source/jerry-core).
package object

import "ecmago/pkg/heap"

func (r *Realm) newDeclarativeEnv(outer heap.CPointer) heap.CPointer {
	p := r.CreateObject(0, false, KindDeclarativeEnv)
	d := r.Obj(p)
	d.EnvOuter = outer
	if outer != 0 {
		r.Objects.Ref(outer)
	}
	r.setObj(p, d)
	return p
}

func (r *Realm) newObjectEnv(outer heap.CPointer, boundObj heap.CPointer, provideThis bool) heap.CPointer {
	p := r.CreateObject(0, false, KindObjectEnv)
	d := r.Obj(p)
	d.EnvOuter = outer
	d.EnvObject = boundObj
	d.EnvProvideThis = provideThis
	if outer != 0 {
		r.Objects.Ref(outer)
	}
	r.Objects.Ref(boundObj)
	r.setObj(p, d)
	return p
}

// NewDeclarativeEnvironment and NewObjectEnvironment are the public
// entry points the compiler's emitted OpWithEnter/function-call
// machinery (pkg/vm) uses to push a new lexical scope.
func (r *Realm) NewDeclarativeEnvironment(outer heap.CPointer) heap.CPointer {
	return r.newDeclarativeEnv(outer)
}
func (r *Realm) NewObjectEnvironment(outer, boundObj heap.CPointer, provideThis bool) heap.CPointer {
	return r.newObjectEnv(outer, boundObj, provideThis)
}

// HasBinding reports whether env (or, per CreateMutableBinding's usual
// caller, just this one record) declares name.
func (r *Realm) HasBinding(env heap.CPointer, name heap.Value) bool {
	d := r.Obj(env)
	if d.Kind == KindObjectEnv {
		return r.HasProperty(d.EnvObject, name)
	}
	for _, b := range d.EnvBindings {
		if r.nameEquals(b.Name, name) {
			return true
		}
	}
	return false
}

// CreateMutableBinding declares name in env, per ECMA-262 10.2.1's
// DeclarativeEnvironmentRecord/ObjectEnvironmentRecord CreateMutableBinding.
func (r *Realm) CreateMutableBinding(env heap.CPointer, name heap.Value, deletable bool) {
	d := r.Obj(env)
	if d.Kind == KindObjectEnv {
		r.defineOwnPropertyRaw(d.EnvObject, name, Property{
			Name:  name,
			Attrs: Attrs{Writable: true, Enumerable: true, Configurable: deletable},
			Value: heap.Undefined,
		})
		return
	}
	if i, ok := r.findBinding(&d, name); ok {
		d.EnvBindings[i] = Binding{Name: name, Mutable: true, Initialized: false}
	} else {
		d.EnvBindings = append(d.EnvBindings, Binding{Name: name, Mutable: true, Initialized: false})
	}
	r.setObj(env, d)
}

func (r *Realm) findBinding(d *Data, name heap.Value) (int, bool) {
	for i := range d.EnvBindings {
		if r.nameEquals(d.EnvBindings[i].Name, name) {
			return i, true
		}
	}
	return -1, false
}

// InitializeBinding gives a declared-but-uninitialized binding its
// first value (ECMA-262 10.2.1, used for function declarations and
// catch parameters, which must be bound and initialized atomically).
func (r *Realm) InitializeBinding(env heap.CPointer, name heap.Value, value heap.Value) {
	d := r.Obj(env)
	if d.Kind == KindObjectEnv {
		r.Put(d.EnvObject, name, value, false)
		return
	}
	if i, ok := r.findBinding(&d, name); ok {
		d.EnvBindings[i].Value = value
		d.EnvBindings[i].Initialized = true
		r.setObj(env, d)
	}
}

// SetMutableBinding implements the assignment-to-identifier half of
// ECMA-262 10.2.1; throwOnFail is the strict-mode flag.
func (r *Realm) SetMutableBinding(env heap.CPointer, name heap.Value, value heap.Value, throwOnFail bool) heap.Value {
	d := r.Obj(env)
	if d.Kind == KindObjectEnv {
		return r.Put(d.EnvObject, name, value, throwOnFail)
	}
	if i, ok := r.findBinding(&d, name); ok {
		if !d.EnvBindings[i].Mutable {
			if throwOnFail {
				return r.ThrowTypeError("assignment to constant binding")
			}
			return heap.Undefined
		}
		d.EnvBindings[i].Value = value
		d.EnvBindings[i].Initialized = true
		r.setObj(env, d)
		return heap.Undefined
	}
	if throwOnFail {
		return r.ThrowReferenceError(r.Strings.Resolve(name) + " is not defined")
	}
	r.CreateMutableBinding(r.GlobalEnv, name, true)
	r.InitializeBinding(r.GlobalEnv, name, value)
	return heap.Undefined
}

// GetBindingValue implements identifier resolution's terminal step
// (ECMA-262 10.2.1); a reference to an uninitialized `let`-like binding
// is not reachable in ES5.1 (no block-scoped declarations), so
// Initialized only guards catch/var hoisting ordering here.
func (r *Realm) GetBindingValue(env heap.CPointer, name heap.Value, throwOnFail bool) heap.Value {
	d := r.Obj(env)
	if d.Kind == KindObjectEnv {
		if !r.HasProperty(d.EnvObject, name) {
			if throwOnFail {
				return r.ThrowReferenceError(r.Strings.Resolve(name) + " is not defined")
			}
			return heap.Undefined
		}
		return r.Get(d.EnvObject, name)
	}
	if i, ok := r.findBinding(&d, name); ok {
		if !d.EnvBindings[i].Initialized {
			return heap.Undefined
		}
		return d.EnvBindings[i].Value
	}
	if throwOnFail {
		return r.ThrowReferenceError(r.Strings.Resolve(name) + " is not defined")
	}
	return heap.Undefined
}

// ThisBinding implements ECMA-262 10.2.1's ImplicitThisValue: `with`
// object environments supply the bound object itself; every other
// environment kind supplies undefined, deferring to the nearest
// function-call's captured `this` (tracked by the interpreter's frame,
// not the environment chain, in this engine).
func (r *Realm) ThisBinding(env heap.CPointer) (heap.Value, bool) {
	d := r.Obj(env)
	if d.Kind == KindObjectEnv && d.EnvProvideThis {
		return heap.ObjectPtr(d.EnvObject), true
	}
	return heap.Undefined, false
}

// ResolveReference walks env's outer chain looking for the first record
// that HasBinding(name); returns 0 if none do (an unresolvable
// reference — the global environment answers HasBinding truthfully only
// once declared, so an unresolved global identifier legitimately
// reaches here and becomes a ReferenceError at GetBindingValue/assignment
// time).
func (r *Realm) ResolveReference(env heap.CPointer, name heap.Value) heap.CPointer {
	for p := env; p != 0; p = r.Obj(p).EnvOuter {
		if r.HasBinding(p, name) {
			return p
		}
	}
	return 0
}

// DeleteBinding implements the `delete` operator applied to an
// unqualified identifier (ECMA-262 10.2.1's DeleteBinding); only
// permitted (and meaningful) on bindings explicitly created deletable,
// primarily catch-clause parameters and the implicit global object's
// own properties.
func (r *Realm) DeleteBinding(env heap.CPointer, name heap.Value) bool {
	d := r.Obj(env)
	if d.Kind == KindObjectEnv {
		return r.Delete(d.EnvObject, name, false) == heap.True
	}
	if i, ok := r.findBinding(&d, name); ok {
		d.EnvBindings = append(d.EnvBindings[:i], d.EnvBindings[i+1:]...)
		r.setObj(env, d)
		return true
	}
	return false
}
