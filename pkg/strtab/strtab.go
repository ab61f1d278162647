// Package strtab implements the interned/magic string table: a fixed
// table of well-known property and value names (the "magic strings" of
// spec §3/GLOSSARY) plus a dynamic intern table for identifiers and
// string literals seen while compiling. Interning means two equal
// identifiers share one Value, which is what lets StrictEquals treat
// magic-string Values as a plain integer compare.
//
// Grounded on jerry-core/lit (lit-literal.c, see _examples/original_source)
// for the two-tier "magic string id vs. heap literal" design. Identifiers
// are normalized to NFC with golang.org/x/text/unicode/norm before
// interning — the same normalize-then-compare shape
// vovakirdan-surge/internal/vm/intrinsic_string.go uses for its own
// string intrinsics — so that visually identical identifiers written
// with different combining-mark sequences hash to one entry.
package strtab

import (
	"golang.org/x/text/unicode/norm"

	"ecmago/pkg/heap"
)

// Magic string ids. Order matters only in that it must stay stable
// across a process — snapshot sections reference these ids directly.
const (
	MagicEmpty uint32 = iota
	MagicLength
	MagicPrototype
	MagicConstructor
	MagicName
	MagicMessage
	MagicCaller
	MagicArguments
	MagicCallee
	MagicValueOf
	MagicToString
	MagicHasOwnProperty
	MagicIsPrototypeOf
	MagicPropertyIsEnumerable
	MagicCall
	MagicApply
	MagicBind
	MagicGet
	MagicSet
	MagicWritable
	MagicEnumerable
	MagicConfigurable
	MagicValue
	MagicUndefined
	MagicNull
	MagicTrue
	MagicFalse
	MagicObject
	MagicFunction
	MagicNumber
	MagicString
	MagicBoolean
	MagicThis
	MagicIndex
	MagicInput
	MagicLastIndex
	MagicSource
	MagicGlobal
	MagicIgnoreCase
	MagicMultiline
	MagicTest
	MagicExec
	magicCount
)

var magicNames = [magicCount]string{
	MagicEmpty:                "",
	MagicLength:                "length",
	MagicPrototype:             "prototype",
	MagicConstructor:           "constructor",
	MagicName:                  "name",
	MagicMessage:               "message",
	MagicCaller:                "caller",
	MagicArguments:             "arguments",
	MagicCallee:                "callee",
	MagicValueOf:               "valueOf",
	MagicToString:              "toString",
	MagicHasOwnProperty:        "hasOwnProperty",
	MagicIsPrototypeOf:         "isPrototypeOf",
	MagicPropertyIsEnumerable:  "propertyIsEnumerable",
	MagicCall:                  "call",
	MagicApply:                 "apply",
	MagicBind:                  "bind",
	MagicGet:                   "get",
	MagicSet:                   "set",
	MagicWritable:              "writable",
	MagicEnumerable:            "enumerable",
	MagicConfigurable:          "configurable",
	MagicValue:                 "value",
	MagicUndefined:             "undefined",
	MagicNull:                  "null",
	MagicTrue:                  "true",
	MagicFalse:                 "false",
	MagicObject:                "object",
	MagicFunction:              "function",
	MagicNumber:                "number",
	MagicString:                "string",
	MagicBoolean:               "boolean",
	MagicThis:                  "this",
	MagicIndex:                 "index",
	MagicInput:                 "input",
	MagicLastIndex:             "lastIndex",
	MagicSource:                "source",
	MagicGlobal:                "global",
	MagicIgnoreCase:            "ignoreCase",
	MagicMultiline:             "multiline",
	MagicTest:                  "test",
	MagicExec:                  "exec",
}

var nameToMagic map[string]uint32

func init() {
	nameToMagic = make(map[string]uint32, magicCount)
	for id, name := range magicNames {
		nameToMagic[name] = uint32(id)
	}
}

// Name returns the literal text of a magic string id.
func Name(id uint32) string {
	if int(id) < len(magicNames) {
		return magicNames[id]
	}
	return ""
}

// Table is the per-context intern table layered over the magic-string
// set: lookups first check the fixed table, then a dynamic map of
// normalized string -> heap.Value (a MagicString or a heap StringPtr
// shared by every interned occurrence).
type Table struct {
	heap   *heap.Heap
	interned map[string]heap.Value
}

func New(h *heap.Heap) *Table {
	return &Table{heap: h, interned: make(map[string]heap.Value)}
}

// Intern normalizes s to NFC and returns a Value naming it — a magic
// string id when s matches a well-known name, otherwise a shared heap
// string pointer. Calling Intern twice with equal content returns
// identical Values without growing the heap a second time.
func (t *Table) Intern(s string) heap.Value {
	s = norm.NFC.String(s)
	if id, ok := nameToMagic[s]; ok {
		return heap.MagicString(id)
	}
	if v, ok := t.interned[s]; ok {
		return v
	}
	v := t.heap.NewString(s)
	t.interned[s] = v
	return v
}

// Lookup reports whether s is already interned without creating a new
// entry (used by the compiler to test "resolved the same identifier as
// before" without mutating the table during a non-allocating fast path).
func (t *Table) Lookup(s string) (heap.Value, bool) {
	s = norm.NFC.String(s)
	if id, ok := nameToMagic[s]; ok {
		return heap.MagicString(id), true
	}
	v, ok := t.interned[s]
	return v, ok
}

// Lookup1 adapts Resolve to the func(uint32) string shape heap.Heap.String
// expects for resolving a MagicString payload back to text.
func (t *Table) Lookup1(id uint32) string { return Name(id) }

// IsMagic reports whether v names the magic string literal (a small
// convenience for call sites that only ever compare against one
// well-known name, e.g. materializeLazy's "length"/"prototype" checks).
func (t *Table) IsMagic(v heap.Value, literal string) bool {
	if !v.IsMagicString() {
		return false
	}
	return v.AsMagicString() == nameToMagic[literal]
}

// Resolve turns any string Value — magic or heap-interned — back into a
// Go string.
func (t *Table) Resolve(v heap.Value) string {
	if v.IsMagicString() {
		return Name(v.AsMagicString())
	}
	return t.heap.String(v, t.Lookup1)
}

func (t *Table) MagicLength() heap.Value      { return heap.MagicString(MagicLength) }
func (t *Table) MagicPrototype() heap.Value   { return heap.MagicString(MagicPrototype) }
func (t *Table) MagicConstructor() heap.Value { return heap.MagicString(MagicConstructor) }
func (t *Table) MagicCaller() heap.Value      { return heap.MagicString(MagicCaller) }
func (t *Table) MagicArguments() heap.Value   { return heap.MagicString(MagicArguments) }
func (t *Table) MagicMessage() heap.Value     { return heap.MagicString(MagicMessage) }
func (t *Table) MagicName() heap.Value        { return heap.MagicString(MagicName) }
func (t *Table) MagicValueOf() heap.Value     { return heap.MagicString(MagicValueOf) }
func (t *Table) MagicToString() heap.Value    { return heap.MagicString(MagicToString) }
func (t *Table) MagicCallee() heap.Value      { return heap.MagicString(MagicCallee) }
func (t *Table) MagicSource() heap.Value      { return heap.MagicString(MagicSource) }
func (t *Table) MagicGlobal() heap.Value      { return heap.MagicString(MagicGlobal) }
func (t *Table) MagicIgnoreCase() heap.Value  { return heap.MagicString(MagicIgnoreCase) }
func (t *Table) MagicMultiline() heap.Value   { return heap.MagicString(MagicMultiline) }
func (t *Table) MagicLastIndex() heap.Value   { return heap.MagicString(MagicLastIndex) }
func (t *Table) MagicIndex() heap.Value       { return heap.MagicString(MagicIndex) }
func (t *Table) MagicInput() heap.Value       { return heap.MagicString(MagicInput) }
func (t *Table) MagicHasOwnProperty() heap.Value       { return heap.MagicString(MagicHasOwnProperty) }
func (t *Table) MagicIsPrototypeOf() heap.Value        { return heap.MagicString(MagicIsPrototypeOf) }
func (t *Table) MagicPropertyIsEnumerable() heap.Value { return heap.MagicString(MagicPropertyIsEnumerable) }
func (t *Table) MagicCall() heap.Value    { return heap.MagicString(MagicCall) }
func (t *Table) MagicApply() heap.Value   { return heap.MagicString(MagicApply) }
func (t *Table) MagicBind() heap.Value    { return heap.MagicString(MagicBind) }
func (t *Table) MagicGet() heap.Value     { return heap.MagicString(MagicGet) }
func (t *Table) MagicSet() heap.Value     { return heap.MagicString(MagicSet) }
func (t *Table) MagicWritable() heap.Value      { return heap.MagicString(MagicWritable) }
func (t *Table) MagicEnumerable() heap.Value    { return heap.MagicString(MagicEnumerable) }
func (t *Table) MagicConfigurable() heap.Value  { return heap.MagicString(MagicConfigurable) }
func (t *Table) MagicValue() heap.Value   { return heap.MagicString(MagicValue) }
func (t *Table) MagicObject() heap.Value  { return heap.MagicString(MagicObject) }
func (t *Table) MagicFunction() heap.Value { return heap.MagicString(MagicFunction) }
func (t *Table) MagicNumber() heap.Value  { return heap.MagicString(MagicNumber) }
func (t *Table) MagicBoolean() heap.Value { return heap.MagicString(MagicBoolean) }
func (t *Table) MagicThis() heap.Value    { return heap.MagicString(MagicThis) }
func (t *Table) MagicTest() heap.Value    { return heap.MagicString(MagicTest) }
func (t *Table) MagicExec() heap.Value    { return heap.MagicString(MagicExec) }
