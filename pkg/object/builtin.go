package object

import "ecmago/pkg/heap"

// BuiltinID names one entry in the fixed built-in descriptor table of
// spec §4.2. Each constructor/prototype pair gets its own id so the
// registry's bitset can track "has this object's lazy properties been
// materialized yet" per object, independent of the others.
type BuiltinID int

const (
	BuiltinObjectConstructor BuiltinID = iota
	BuiltinObjectPrototype
	BuiltinFunctionPrototype
	BuiltinArrayConstructor
	BuiltinArrayPrototype
	BuiltinStringConstructor
	BuiltinStringPrototype
	BuiltinNumberConstructor
	BuiltinNumberPrototype
	BuiltinBooleanConstructor
	BuiltinBooleanPrototype
	BuiltinErrorConstructor
	BuiltinErrorPrototype
	BuiltinTypeErrorConstructor
	BuiltinTypeErrorPrototype
	BuiltinRangeErrorConstructor
	BuiltinRangeErrorPrototype
	BuiltinReferenceErrorConstructor
	BuiltinReferenceErrorPrototype
	BuiltinSyntaxErrorConstructor
	BuiltinSyntaxErrorPrototype
	BuiltinEvalErrorConstructor
	BuiltinEvalErrorPrototype
	BuiltinURIErrorConstructor
	BuiltinURIErrorPrototype
	BuiltinRegExpConstructor
	BuiltinRegExpPrototype
	BuiltinConsole
	BuiltinGlobal
)

// PropDescriptor is one fixed entry of a built-in's lazy-property table:
// the property name, its attributes, and a thunk that materializes the
// value on first access. Routine-valued entries materialize to a native
// (KindExternalFunction) object; Slot identifies this entry's bit in the
// owning BuiltinRecord's bitset.
type PropDescriptor struct {
	Name  uint32 // magic string id
	Slot  int
	Attrs Attrs
	Make  func(r *Realm) heap.Value
}

// descriptorTable holds, per BuiltinID, the ordered list of lazy
// properties that id's object exposes. Populated by RegisterBuiltin
// calls from the bootstrap in globals.go; kept here so builtin.go owns
// the bitset/materialization mechanics independent of which concrete
// built-ins exist.
var descriptorTable = map[BuiltinID][]PropDescriptor{}

// RegisterBuiltin installs (or replaces) id's descriptor list. Called
// once per id during realm bootstrap.
func RegisterBuiltin(id BuiltinID, descs []PropDescriptor) {
	descriptorTable[id] = descs
}

// EnsureBuiltinProp materializes descriptor slot i of obj's built-in
// record if it has not been installed yet, per spec §4.2's "a bit per
// table slot" lazy-instantiation scheme. Returns ok=false if obj is not
// a built-in or the slot is already installed (nothing to do).
func (r *Realm) EnsureBuiltinProp(obj heap.CPointer, i int) bool {
	d := r.Obj(obj)
	if d.Builtin == nil {
		return false
	}
	if builtinSlotSet(d.Builtin, i) {
		return false
	}
	descs := descriptorTable[d.Builtin.ID]
	if i >= len(descs) {
		return false
	}
	desc := descs[i]
	val := desc.Make(r)
	r.defineOwnPropertyRaw(obj, heap.MagicString(desc.Name), Property{
		Name:  heap.MagicString(desc.Name),
		Attrs: desc.Attrs,
		Value: val,
	})
	d = r.Obj(obj)
	builtinSlotMark(d.Builtin, i)
	r.setObj(obj, d)
	return true
}

// EnsureAllBuiltinProps materializes every remaining lazy slot of obj —
// used by Object.keys/for-in enumeration and Object.getOwnPropertyNames,
// which must see the complete property set.
func (r *Realm) EnsureAllBuiltinProps(obj heap.CPointer) {
	d := r.Obj(obj)
	if d.Builtin == nil {
		return
	}
	n := len(descriptorTable[d.Builtin.ID])
	for i := 0; i < n; i++ {
		r.EnsureBuiltinProp(obj, i)
	}
}

func builtinSlotSet(b *BuiltinRecord, i int) bool {
	if i < 32 {
		return b.Bitset&(1<<uint(i)) != 0
	}
	return b.ExtraBitset[i]
}

func builtinSlotMark(b *BuiltinRecord, i int) {
	if i < 32 {
		b.Bitset |= 1 << uint(i)
		return
	}
	if b.ExtraBitset == nil {
		b.ExtraBitset = make(map[int]bool)
	}
	b.ExtraBitset[i] = true
}

// CreateBuiltinFunction allocates a KindBuiltinFunction object wired to
// id, ready for EnsureBuiltinProp-driven lazy property materialization
// plus an eagerly-set native routine entry point.
func (r *Realm) CreateBuiltinFunction(proto heap.CPointer, id BuiltinID, routine int, native ExternalFunc) heap.CPointer {
	p := r.CreateObject(proto, true, KindBuiltinFunction)
	d := r.Obj(p)
	d.IsBuiltin = true
	d.Builtin = &BuiltinRecord{ID: id, RoutineID: routine}
	d.Native = native
	r.setObj(p, d)
	return p
}
