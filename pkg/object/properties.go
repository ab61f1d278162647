package object

import "ecmago/pkg/heap"

// nameEquals compares two property-key Values. Keys reach this package
// already interned (pkg/strtab.Intern), so magic ids and string arena
// pointers compare by identity; the string-content fallback only
// matters for keys built ad hoc (e.g. ToString of a computed key) that
// bypassed interning.
func (r *Realm) nameEquals(a, b heap.Value) bool {
	if ok, eq := heap.StrictEquals(a, b); ok {
		return eq
	}
	return r.Heap.String(a, r.Strings.Lookup1) == r.Heap.String(b, r.Strings.Lookup1)
}

func (r *Realm) findOwn(d *Data, name heap.Value) (int, bool) {
	for i := range d.Props {
		if r.nameEquals(d.Props[i].Name, name) {
			return i, true
		}
	}
	return -1, false
}

// GetOwnProperty implements [[GetOwnProperty]] (spec §3 operations):
// searches only obj's own property chain, after materializing a
// function's lazy slots (length, prototype, strict caller/arguments
// thrower) on first access; an Array's length is synthesized from
// ArrayLength.
func (r *Realm) GetOwnProperty(obj heap.CPointer, name heap.Value) (Property, bool) {
	r.materializeLazy(obj, name)
	d := r.Obj(obj)
	if d.Kind == KindArray && r.Strings.IsMagic(name, "length") {
		return Property{Name: name, Attrs: Attrs{Writable: true}, Value: heap.Int(int32(d.ArrayLength))}, true
	}
	i, ok := r.findOwn(&d, name)
	if !ok {
		return Property{}, false
	}
	return d.Props[i], true
}

// materializeLazy installs length/prototype/thrower-accessor properties
// the first time they're looked up, per spec §3's "lazy property
// materialization" note — cheaper than eagerly building every function
// object's full property set at creation time.
func (r *Realm) materializeLazy(obj heap.CPointer, name heap.Value) {
	d := r.Obj(obj)
	if !d.Kind.IsFunction() {
		return
	}
	changed := false
	if r.Strings.IsMagic(name, "length") && !d.LengthMaterialized {
		n := r.functionLength(&d)
		d.Props = append(d.Props, Property{
			Name:  heap.MagicString(0), // placeholder, replaced below
			Attrs: Attrs{Writable: false, Enumerable: false, Configurable: false},
			Value: heap.Int(int32(n)),
		})
		d.Props[len(d.Props)-1].Name = r.Strings.MagicLength()
		d.LengthMaterialized = true
		changed = true
	}
	if r.Strings.IsMagic(name, "prototype") && !d.PrototypeMaterialized && d.Kind == KindFunction {
		protoObj := r.CreateObject(r.ObjectPrototype(), true, KindGeneral)
		r.defineOwnPropertyRaw(protoObj, r.Strings.MagicConstructor(), Property{
			Name:  r.Strings.MagicConstructor(),
			Attrs: Attrs{Writable: true, Configurable: true},
			Value: heap.ObjectPtr(obj),
		})
		d.Props = append(d.Props, Property{
			Name:  r.Strings.MagicPrototype(),
			Attrs: Attrs{Writable: true},
			Value: heap.ObjectPtr(protoObj),
		})
		d.PrototypeMaterialized = true
		changed = true
	}
	if d.Strict && !d.ThrowerMaterialized && (r.Strings.IsMagic(name, "caller") || r.Strings.IsMagic(name, "arguments")) {
		thrower := r.strictModeThrower()
		d.Props = append(d.Props,
			Property{Name: r.Strings.MagicCaller(), Attrs: Attrs{Accessor: true, Configurable: false}, Getter: thrower, Setter: thrower},
			Property{Name: r.Strings.MagicArguments(), Attrs: Attrs{Accessor: true, Configurable: false}, Getter: thrower, Setter: thrower},
		)
		d.ThrowerMaterialized = true
		changed = true
	}
	if changed {
		r.setObj(obj, d)
	}
}

func (r *Realm) functionLength(d *Data) int {
	switch d.Kind {
	case KindFunction:
		if d.Code != nil {
			return d.Code.ArgCount
		}
	case KindBoundFunction:
		if d.Bound != nil {
			target := r.Obj(d.Bound.Target)
			n := r.functionLength(&target) - len(d.Bound.BoundArgs)
			if n < 0 {
				n = 0
			}
			return n
		}
	}
	return 0
}

// strictModeThrower returns the shared TypeError-throwing accessor
// object installed on every strict function's caller/arguments
// properties (ECMA-262 13.2, "[[ThrowTypeError]]"); callers resolve it
// once per realm and cache it.
func (r *Realm) strictModeThrower() heap.CPointer {
	if r.thrower != 0 {
		return r.thrower
	}
	r.thrower = r.CreateBuiltinFunction(r.FunctionPrototype(), BuiltinFunctionPrototype, -1,
		func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			return rt.ThrowTypeError("'caller' and 'arguments' are restricted on strict-mode functions")
		})
	return r.thrower
}

// HasProperty implements [[HasProperty]]: own chain, then walks [[Prototype]].
func (r *Realm) HasProperty(obj heap.CPointer, name heap.Value) bool {
	for p := obj; p != 0; {
		if _, ok := r.GetOwnProperty(p, name); ok {
			return true
		}
		p = r.Obj(p).Proto
	}
	return false
}

// Get implements [[Get]] (ECMA-262 8.12.3): walk the prototype chain for
// the first matching property; invoke its getter if it is an accessor,
// calling back into the interpreter via r.CallFunc (installed by pkg/vm
// to avoid an object->vm import cycle).
func (r *Realm) Get(obj heap.CPointer, name heap.Value) heap.Value {
	for p := obj; p != 0; {
		if prop, ok := r.GetOwnProperty(p, name); ok {
			if prop.Attrs.Accessor {
				if prop.Getter == 0 {
					return heap.Undefined
				}
				return r.callGetter(prop.Getter, heap.ObjectPtr(obj))
			}
			return prop.Value
		}
		p = r.Obj(p).Proto
	}
	return heap.Undefined
}

func (r *Realm) callGetter(fn heap.CPointer, this heap.Value) heap.Value {
	if r.CallFunc == nil {
		return heap.Undefined
	}
	return r.CallFunc(r, fn, this, nil)
}

// CanPut implements ECMA-262 8.12.4: whether a later [[Put]] of name on
// obj would be permitted.
func (r *Realm) CanPut(obj heap.CPointer, name heap.Value) bool {
	if prop, ok := r.GetOwnProperty(obj, name); ok {
		if prop.Attrs.Accessor {
			return prop.Setter != 0
		}
		return prop.Attrs.Writable
	}
	proto := r.Obj(obj).Proto
	if proto == 0 {
		return r.Obj(obj).Extensible
	}
	for p := proto; p != 0; p = r.Obj(p).Proto {
		if prop, ok := r.GetOwnProperty(p, name); ok {
			if prop.Attrs.Accessor {
				return prop.Setter != 0
			}
			return prop.Attrs.Writable && r.Obj(obj).Extensible
		}
	}
	return r.Obj(obj).Extensible
}

// Put implements [[Put]] (ECMA-262 8.12.5). throwOnFail corresponds to
// the strict-mode flag threaded through from the calling expression.
func (r *Realm) Put(obj heap.CPointer, name heap.Value, value heap.Value, throwOnFail bool) heap.Value {
	if !r.CanPut(obj, name) {
		if throwOnFail {
			return r.ThrowTypeError("cannot assign to read-only property")
		}
		return heap.Undefined
	}
	if prop, ok := r.GetOwnProperty(obj, name); ok && !prop.Attrs.Accessor {
		d := r.Obj(obj)
		if i, found := r.findOwn(&d, name); found {
			d.Props[i].Value = value
			r.setObj(obj, d)
			return heap.Undefined
		}
	}
	// walk ancestors for an inherited accessor.
	for p := obj; p != 0; p = r.Obj(p).Proto {
		if prop, ok := r.GetOwnProperty(p, name); ok && prop.Attrs.Accessor {
			if prop.Setter != 0 && r.CallFunc != nil {
				if res := r.CallFunc(r, prop.Setter, heap.ObjectPtr(obj), []heap.Value{value}); res.IsError() {
					return res
				}
			}
			return heap.Undefined
		}
	}
	r.defineOwnPropertyRaw(obj, name, Property{
		Name:  name,
		Attrs: Attrs{Writable: true, Enumerable: true, Configurable: true},
		Value: value,
	})
	if r.Obj(obj).Kind == KindArray {
		r.maybeGrowArrayLength(obj, name)
	}
	return heap.Undefined
}

func (r *Realm) maybeGrowArrayLength(obj heap.CPointer, name heap.Value) {
	idx, ok := arrayIndexOf(r.Heap.String(name, r.Strings.Lookup1))
	if !ok {
		return
	}
	d := r.Obj(obj)
	if uint32(idx)+1 > d.ArrayLength {
		d.ArrayLength = uint32(idx) + 1
		r.setObj(obj, d)
	}
}

// arrayIndexOf reports whether s is a canonical array-index string
// (ECMA-262 15.4, "2^32-1" excluded).
func arrayIndexOf(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	var n uint64
	for i, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		if i == 0 && c == '0' && len(s) > 1 {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
		if n > 0xFFFFFFFF {
			return 0, false
		}
	}
	if n == 0xFFFFFFFF {
		return 0, false
	}
	return uint32(n), true
}

// defineOwnPropertyRaw installs prop on obj's own chain unconditionally,
// replacing any existing entry of the same name. Used internally by
// bootstrap code and by DefineOwnProperty once validation has passed.
func (r *Realm) defineOwnPropertyRaw(obj heap.CPointer, name heap.Value, prop Property) {
	d := r.Obj(obj)
	if i, ok := r.findOwn(&d, name); ok {
		d.Props[i] = prop
	} else {
		d.Props = append(d.Props, prop)
	}
	r.setObj(obj, d)
}

// DefineOwnProperty implements [[DefineOwnProperty]] (ECMA-262 8.12.9):
// validates the existing descriptor's configurability before allowing a
// change, rejecting (or silently ignoring, per throwOnFail) otherwise.
func (r *Realm) DefineOwnProperty(obj heap.CPointer, name heap.Value, desc Property, throwOnFail bool) heap.Value {
	current, exists := r.GetOwnProperty(obj, name)
	if !exists {
		if !r.Obj(obj).Extensible {
			return r.rejectDefine(throwOnFail)
		}
		r.defineOwnPropertyRaw(obj, name, desc)
		if r.Obj(obj).Kind == KindArray {
			r.maybeGrowArrayLength(obj, name)
		}
		return heap.True
	}
	if !current.Attrs.Configurable {
		if desc.Attrs.Configurable {
			return r.rejectDefine(throwOnFail)
		}
		if current.Attrs.Accessor != desc.Attrs.Accessor {
			return r.rejectDefine(throwOnFail)
		}
		if !current.Attrs.Accessor && !current.Attrs.Writable {
			if desc.Attrs.Writable {
				return r.rejectDefine(throwOnFail)
			}
			if ok, eq := heap.StrictEquals(current.Value, desc.Value); ok && !eq {
				return r.rejectDefine(throwOnFail)
			}
		}
	}
	r.defineOwnPropertyRaw(obj, name, desc)
	return heap.True
}

func (r *Realm) rejectDefine(throwOnFail bool) heap.Value {
	if throwOnFail {
		return r.ThrowTypeError("cannot redefine property")
	}
	return heap.False
}

// Delete implements [[Delete]] (ECMA-262 8.12.7).
func (r *Realm) Delete(obj heap.CPointer, name heap.Value, throwOnFail bool) heap.Value {
	d := r.Obj(obj)
	i, ok := r.findOwn(&d, name)
	if !ok {
		return heap.True
	}
	if !d.Props[i].Attrs.Configurable {
		if throwOnFail {
			return r.ThrowTypeError("cannot delete non-configurable property")
		}
		return heap.False
	}
	d.Props = append(d.Props[:i], d.Props[i+1:]...)
	r.setObj(obj, d)
	return heap.True
}

// Enumerate implements the for-in enumeration order of ECMA-262 12.6.4:
// own enumerable properties first (insertion order), then inherited
// enumerable properties not shadowed by something already seen, walking
// up [[Prototype]]. Built-in lazy slots are force-materialized first so
// for-in sees them.
func (r *Realm) Enumerate(obj heap.CPointer) []heap.Value {
	var names []heap.Value
	seen := make(map[string]bool)
	for p := obj; p != 0; p = r.Obj(p).Proto {
		r.EnsureAllBuiltinProps(p)
		d := r.Obj(p)
		for _, prop := range d.Props {
			key := r.Heap.String(prop.Name, r.Strings.Lookup1)
			if seen[key] {
				continue
			}
			seen[key] = true
			if prop.Attrs.Enumerable {
				names = append(names, prop.Name)
			}
		}
	}
	return names
}

// OwnEnumerableNames implements the "own enumerable property names"
// collection Object.keys uses (ECMA-262 15.2.3.14) — unlike Enumerate,
// it never walks [[Prototype]].
func (r *Realm) OwnEnumerableNames(obj heap.CPointer) []heap.Value {
	r.EnsureAllBuiltinProps(obj)
	d := r.Obj(obj)
	var names []heap.Value
	for _, prop := range d.Props {
		if prop.Attrs.Enumerable {
			names = append(names, prop.Name)
		}
	}
	return names
}

// parsePropertyDescriptor implements ToPropertyDescriptor (ECMA-262
// 8.10.5): reads the value/writable/get/set/enumerable/configurable
// fields a descriptor object specifies, layering them over base (the
// current descriptor when redefining an existing property, or a bare
// Property carrying only Name when defining a fresh one). Fields the
// descriptor object omits keep base's value, matching 8.12.9's "Desc
// must have at least one field" merge semantics. The second return
// value is an error-flagged Value on failure, Undefined on success.
func (r *Realm) parsePropertyDescriptor(descObj heap.CPointer, base Property, hasCurrent bool) (Property, heap.Value) {
	prop := base
	hasValue := r.HasProperty(descObj, r.Strings.MagicValue())
	hasWritable := r.HasProperty(descObj, r.Strings.MagicWritable())
	hasGet := r.HasProperty(descObj, r.Strings.MagicGet())
	hasSet := r.HasProperty(descObj, r.Strings.MagicSet())
	if (hasGet || hasSet) && (hasValue || hasWritable) {
		return Property{}, r.ThrowTypeError("property descriptor cannot specify both accessor and data attributes")
	}
	switch {
	case hasGet || hasSet:
		prop.Attrs.Accessor = true
		prop.Value = heap.Undefined
		if hasGet {
			g := r.Get(descObj, r.Strings.MagicGet())
			if g.IsError() {
				return Property{}, g
			}
			switch {
			case g.IsObjectPtr():
				prop.Getter = g.AsObjectPtr()
			case g.IsUndefined():
				prop.Getter = 0
			default:
				return Property{}, r.ThrowTypeError("getter must be a function")
			}
		}
		if hasSet {
			s := r.Get(descObj, r.Strings.MagicSet())
			if s.IsError() {
				return Property{}, s
			}
			switch {
			case s.IsObjectPtr():
				prop.Setter = s.AsObjectPtr()
			case s.IsUndefined():
				prop.Setter = 0
			default:
				return Property{}, r.ThrowTypeError("setter must be a function")
			}
		}
	case hasValue || hasWritable || !hasCurrent:
		prop.Attrs.Accessor = false
		prop.Getter, prop.Setter = 0, 0
		if hasValue {
			v := r.Get(descObj, r.Strings.MagicValue())
			if v.IsError() {
				return Property{}, v
			}
			prop.Value = v
		}
		if hasWritable {
			w := r.Get(descObj, r.Strings.MagicWritable())
			if w.IsError() {
				return Property{}, w
			}
			prop.Attrs.Writable = r.ToBoolean(w)
		}
	}
	if r.HasProperty(descObj, r.Strings.MagicEnumerable()) {
		e := r.Get(descObj, r.Strings.MagicEnumerable())
		if e.IsError() {
			return Property{}, e
		}
		prop.Attrs.Enumerable = r.ToBoolean(e)
	}
	if r.HasProperty(descObj, r.Strings.MagicConfigurable()) {
		c := r.Get(descObj, r.Strings.MagicConfigurable())
		if c.IsError() {
			return Property{}, c
		}
		prop.Attrs.Configurable = r.ToBoolean(c)
	}
	prop.Name = base.Name
	return prop, heap.Undefined
}

// DefaultValue implements [[DefaultValue]] (ECMA-262 8.12.8): tries
// valueOf then toString, or the reverse when hint is "String" (the hint
// ToStringValue's ToPrimitive call passes).
func (r *Realm) DefaultValue(obj heap.CPointer, hint string) heap.Value {
	order := []string{"valueOf", "toString"}
	if hint == "String" {
		order = []string{"toString", "valueOf"}
	}
	for _, name := range order {
		v, ok := r.Strings.Lookup(name)
		if !ok {
			continue
		}
		fnVal := r.Get(obj, v)
		if fnVal.IsObjectPtr() && r.Obj(fnVal.AsObjectPtr()).Kind.IsFunction() && r.CallFunc != nil {
			res := r.CallFunc(r, fnVal.AsObjectPtr(), heap.ObjectPtr(obj), nil)
			if res.IsError() {
				return res
			}
			if !res.IsObjectPtr() {
				return res
			}
		}
	}
	return r.ThrowTypeError("cannot convert object to primitive value")
}
