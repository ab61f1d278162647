// Package object implements the ECMA-262 object model (C2): objects,
// properties, lexical environments, and the built-in registry, layered
// over pkg/heap's compact-pointer arenas and Value representation.
//
// Grounded on jerry-core/ecma/base (object/property representation) and
// jerry-core/ecma/operations/ecma-objects-general.c (Get/Put/Delete/
// DefineOwnProperty/Enumerate), sampled under
// _examples/original_source/jerry-core. The Go shape — one struct per
// object record with typed extension fields, rather than a C union —
// follows the teacher's pkg/vm/object.go pattern of a kind tag plus
// kind-specific fields on one struct.
package object

import (
	"ecmago/pkg/bytecode"
	"ecmago/pkg/heap"
	"ecmago/pkg/strtab"
)

// Kind is the object-type tag of spec §3 "Object (C2)".
type Kind uint8

const (
	KindGeneral Kind = iota
	KindFunction
	KindBoundFunction
	KindExternalFunction
	KindBuiltinFunction
	KindArray
	KindStringObject
	KindArguments
	KindDeclarativeEnv
	KindObjectEnv
)

func (k Kind) IsFunction() bool {
	switch k {
	case KindFunction, KindBoundFunction, KindExternalFunction, KindBuiltinFunction:
		return true
	default:
		return false
	}
}

func (k Kind) IsEnv() bool { return k == KindDeclarativeEnv || k == KindObjectEnv }

// Attrs holds the four ECMA-262 §8.6.1 property attribute bits, plus
// whether the slot is an accessor (getter/setter) rather than data.
type Attrs struct {
	Writable     bool
	Enumerable   bool
	Configurable bool
	Accessor     bool
}

// Property is one node of an object's property chain (spec §3
// "Property"). Name is a string Value (a StringPtr or MagicString).
type Property struct {
	Name    heap.Value
	Attrs   Attrs
	Value   heap.Value // data value, ignored when Attrs.Accessor
	Getter  heap.CPointer
	Setter  heap.CPointer
}

// ExternalFunc is a native entry point for the "external" function kind
// of spec §3/§4.7 — the embedding API's create_external_function.
type ExternalFunc func(rt *Realm, this heap.Value, args []heap.Value) heap.Value

// BoundRecord is the bound-function extended record of spec §3.
type BoundRecord struct {
	Target     heap.CPointer
	BoundThis  heap.Value
	BoundArgs  []heap.Value
}

// BuiltinRecord is the built-in extended record: which descriptor table
// entry this object instantiates from, plus its lazily-materialized
// bitset (spec §4.2 "Built-in registry").
type BuiltinRecord struct {
	ID          BuiltinID
	RoutineID   int
	Bitset      uint32
	ExtraBitset map[int]bool // slots beyond the first 32
}

// Data is one object record. Every Data lives in Realm.Objects, a
// heap.Arena[Data] — its arena slot provides the refcount and GC color
// spec §3 requires. Visited is not read by CollectGarbage, whose mark
// phase tracks progress with arena colors and an explicit worklist.
type Data struct {
	Kind       Kind
	Extensible bool
	IsBuiltin  bool
	Visited    bool
	Proto      heap.CPointer
	Props      []Property

	// Function extended records (at most one populated, selected by Kind).
	Code    *bytecode.CompiledCode // KindFunction
	Bound   *BoundRecord           // KindBoundFunction
	Native  ExternalFunc           // KindExternalFunction
	Builtin *BuiltinRecord         // KindBuiltinFunction
	Scope   heap.CPointer          // KindFunction: captured lexical environment
	Strict  bool                   // KindFunction: inherited strictness

	LengthMaterialized    bool // lazy "length" already installed
	PrototypeMaterialized bool // lazy "prototype" already installed
	ThrowerMaterialized   bool // lazy caller/arguments thrower accessors

	// Array extended state (KindArray).
	ArrayLength uint32

	// String-object / primitive-wrapper extended state.
	PrimitiveValue heap.Value
	HasPrimitive   bool
	PrimitiveKind  Kind // which wrapper (KindStringObject etc.) this boxes, for [[Class]]

	// Arguments extended state (KindArguments). Mapping between argument
	// slots and the frame's formal-parameter registers is not
	// implemented — arguments is always "unmapped": a
	// private copy taken at call time.
	Callee   heap.Value
	ArgCount int

	// RegExp internal slot (spec §3 Property "regexp byte-code").
	Regexp *RegexpRecord

	// Lexical environment extended state.
	EnvOuter       heap.CPointer
	EnvBindings    []Binding // KindDeclarativeEnv
	EnvObject      heap.CPointer // KindObjectEnv
	EnvProvideThis bool          // KindObjectEnv: `with`/global semantics

	// Host native-handle slot (embedding surface §6).
	NativeHandle     interface{}
	NativeHandleFree func(interface{})
}

// RegexpRecord is the RegExp internal slot; see pkg/jsregexp for the
// compiled-pattern side.
type RegexpRecord struct {
	Source    string
	Flags     string
	LastIndex int
}

// Binding is one declarative-environment slot.
type Binding struct {
	Name        heap.Value
	Value       heap.Value
	Mutable     bool
	Initialized bool
}

// Realm is the engine's context value (spec §4 design notes, "Global
// context state"): the heap, object arena, string table, global object/
// environment, and built-in registry for one single-threaded execution
// context. The host may hold many Realms; each must only ever be driven
// from one goroutine at a time (spec §5).
type Realm struct {
	Heap    *heap.Heap
	Objects *heap.Arena[Data]
	Strings *strtab.Table

	GlobalObject heap.CPointer
	GlobalEnv    heap.CPointer

	builtins map[BuiltinID]heap.CPointer
	thrower  heap.CPointer

	// extraRoots is the interpreter's frame-scanning callback for
	// CollectGarbage, scoped per-realm (a host running several Realms
	// must not have one realm's live frames feed another's mark pass).
	extraRoots func() []heap.CPointer

	// CallFunc bridges back into the interpreter for operations the
	// object model itself must trigger a function call from — accessor
	// getters/setters, [[DefaultValue]]'s valueOf/toString probing, and
	// Function.prototype.call/apply/bind's underlying invocation. Wired
	// by pkg/vm at realm construction time to avoid object->vm import
	// cycle.
	CallFunc func(r *Realm, fn heap.CPointer, this heap.Value, args []heap.Value) heap.Value

	// ConsoleWrite backs console.log/warn/error; wired to the host Port's
	// Log hook by pkg/api at Context construction, with level one of
	// "log", "warn", "error" so the host can route each to its own Port
	// LogLevel. nil in a realm built without an attached port (e.g. unit
	// tests), in which case console.* is a silent no-op rather than
	// writing to stdout directly — the object model itself never touches
	// an io.Writer.
	ConsoleWrite func(level, message string)

	// RegexpExec bridges to pkg/jsregexp's compiled-pattern cache (test/
	// exec need a compiled regexp2.Regexp, which this package must not
	// import directly to keep the dependency direction object -> vm/
	// jsregexp one-way). Returns (matchedIndex, submatches, matched).
	RegexpExec func(source, flags, input string, lastIndex int) (index int, groups []string, matched bool)

	// pendingError, when non-zero/non-undefined, is the realm's current
	// abrupt-completion payload — the object model's Throw* helpers set
	// this and return an error-flagged Value; pkg/vm's dispatch loop
	// checks it after any object-model call that might throw.
	pendingError heap.Value
	hasError     bool
}

// NewRealm allocates a fresh context with an empty global object and a
// global object environment bound to it. Callers typically follow this
// with realm.Bootstrap() (pkg/object's built-in bootstrap) before
// running any script.
func NewRealm(fatal heap.FatalHandler) *Realm {
	h := heap.New(fatal)
	r := &Realm{
		Heap:     h,
		Objects:  heap.NewArena[Data](fatal),
		Strings:  strtab.New(h),
		builtins: make(map[BuiltinID]heap.CPointer),
	}
	global := r.CreateObject(0, true, KindGeneral)
	r.GlobalObject = global
	r.GlobalEnv = r.newObjectEnv(0, global, true)
	return r
}

// CreateObject implements the create_object(proto, extensible, type)
// lifecycle entry point of spec §3 "Lifecycle".
func (r *Realm) CreateObject(proto heap.CPointer, extensible bool, kind Kind) heap.CPointer {
	data := Data{Kind: kind, Extensible: extensible, Proto: proto}
	if proto != 0 {
		r.Objects.Ref(proto)
	}
	return r.Objects.Alloc(data)
}

func (r *Realm) get(p heap.CPointer) *Data {
	d := r.Objects.Get(p)
	return &d
}

// Obj returns a copy of the object record at p for read access. Mutators
// go through Realm methods that call Objects.Set to write back, since
// Arena[T] stores T by value.
func (r *Realm) Obj(p heap.CPointer) Data { return r.Objects.Get(p) }

func (r *Realm) setObj(p heap.CPointer, d Data) { r.Objects.Set(p, d) }

// RegisterWellKnown records which object a fixed BuiltinID resolves to,
// so later code (lazy materialization, Throw*, DefaultValue) can find
// e.g. "the current TypeError.prototype" without threading it through
// every call site.
func (r *Realm) RegisterWellKnown(id BuiltinID, obj heap.CPointer) {
	r.builtins[id] = obj
}

func (r *Realm) WellKnown(id BuiltinID) heap.CPointer { return r.builtins[id] }

func (r *Realm) ObjectPrototype() heap.CPointer   { return r.builtins[BuiltinObjectPrototype] }
func (r *Realm) FunctionPrototype() heap.CPointer { return r.builtins[BuiltinFunctionPrototype] }
func (r *Realm) ArrayPrototype() heap.CPointer    { return r.builtins[BuiltinArrayPrototype] }
func (r *Realm) StringPrototype() heap.CPointer   { return r.builtins[BuiltinStringPrototype] }
func (r *Realm) NumberPrototype() heap.CPointer   { return r.builtins[BuiltinNumberPrototype] }
func (r *Realm) BooleanPrototype() heap.CPointer  { return r.builtins[BuiltinBooleanPrototype] }
func (r *Realm) RegExpPrototype() heap.CPointer   { return r.builtins[BuiltinRegExpPrototype] }
