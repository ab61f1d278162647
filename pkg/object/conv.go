// Abstract type-conversion operations (ECMA-262 §9), layered over
// pkg/heap's primitive Value and this package's object/DefaultValue
// machinery. Grounded on jerry-core/ecma/operations/ecma-conversion.c.
package object

import (
	"math"
	"strconv"
	"strings"

	"ecmago/pkg/heap"
)

// ToPrimitive implements ECMA-262 9.1.
func (r *Realm) ToPrimitive(v heap.Value, hint string) heap.Value {
	if !v.IsObjectPtr() {
		return v
	}
	return r.DefaultValue(v.AsObjectPtr(), hint)
}

// ToBoolean implements ECMA-262 9.2.
func (r *Realm) ToBoolean(v heap.Value) bool {
	switch {
	case v.IsUndefined(), v.IsNull(), v.IsHole():
		return false
	case v.IsBoolean():
		return v.AsBool()
	case v.IsInt():
		return v.AsInt() != 0
	case v.IsFloatPtr():
		f := r.Heap.Float(v)
		return f != 0 && !math.IsNaN(f)
	case v.IsString():
		return r.Strings.Resolve(v) != ""
	case v.IsObjectPtr():
		return true
	}
	return false
}

// ToNumber implements ECMA-262 9.3.
func (r *Realm) ToNumber(v heap.Value) float64 {
	switch {
	case v.IsUndefined():
		return math.NaN()
	case v.IsNull():
		return 0
	case v.IsTrue():
		return 1
	case v.IsFalse():
		return 0
	case v.IsInt():
		return float64(v.AsInt())
	case v.IsFloatPtr():
		return r.Heap.Float(v)
	case v.IsString():
		return stringToNumber(r.Strings.Resolve(v))
	case v.IsObjectPtr():
		prim := r.ToPrimitive(v, "Number")
		if prim.IsError() {
			return math.NaN()
		}
		return r.ToNumber(prim)
	}
	return math.NaN()
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if s == "Infinity" || s == "+Infinity" {
			return math.Inf(1)
		}
		if s == "-Infinity" {
			return math.Inf(-1)
		}
		return math.NaN()
	}
	return f
}

// ToInteger implements ECMA-262 9.4.
func (r *Realm) ToInteger(v heap.Value) float64 {
	n := r.ToNumber(v)
	if math.IsNaN(n) {
		return 0
	}
	if math.IsInf(n, 0) {
		return n
	}
	return math.Trunc(n)
}

// ToInt32 implements ECMA-262 9.5.
func (r *Realm) ToInt32(v heap.Value) int32 {
	n := r.ToNumber(v)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	u := uint32(int64(math.Trunc(n)))
	return int32(u)
}

// ToUint32 implements ECMA-262 9.6.
func (r *Realm) ToUint32(v heap.Value) uint32 {
	n := r.ToNumber(v)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return uint32(int64(math.Trunc(n)))
}

// ToStringValue implements ECMA-262 9.8, returning a string Value
// (interned via pkg/strtab where practical).
func (r *Realm) ToStringValue(v heap.Value) heap.Value {
	switch {
	case v.IsUndefined():
		return r.Strings.Intern("undefined")
	case v.IsNull():
		return r.Strings.Intern("null")
	case v.IsTrue():
		return r.Strings.Intern("true")
	case v.IsFalse():
		return r.Strings.Intern("false")
	case v.IsString():
		return v
	case v.IsInt():
		return r.Strings.Intern(strconv.Itoa(int(v.AsInt())))
	case v.IsFloatPtr():
		return r.Strings.Intern(formatNumber(r.Heap.Float(v)))
	case v.IsObjectPtr():
		prim := r.ToPrimitive(v, "String")
		if prim.IsError() {
			return prim
		}
		return r.ToStringValue(prim)
	}
	return r.Strings.Intern("")
}

// ToGoString is a convenience wrapper returning the Go string directly,
// for call sites (console.log, error messages) that never need the
// interned Value itself.
func (r *Realm) ToGoString(v heap.Value) string {
	sv := r.ToStringValue(v)
	if sv.IsError() {
		return ""
	}
	return r.Strings.Resolve(sv)
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		if math.Signbit(f) {
			return "0" // ECMA-262 9.8.1: -0 prints as "0"
		}
		return "0"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ToObject implements ECMA-262 9.9, boxing primitives into wrapper
// objects; objects pass through unchanged.
func (r *Realm) ToObject(v heap.Value) heap.Value {
	switch {
	case v.IsUndefined(), v.IsNull():
		return r.ThrowTypeError("cannot convert undefined or null to object")
	case v.IsObjectPtr():
		return v
	case v.IsBoolean():
		p := r.CreateObject(r.BooleanPrototype(), true, KindStringObject)
		d := r.Obj(p)
		d.HasPrimitive, d.PrimitiveValue, d.PrimitiveKind = true, v, KindStringObject
		r.setObj(p, d)
		return heap.ObjectPtr(p)
	case v.IsNumber():
		p := r.CreateObject(r.NumberPrototype(), true, KindStringObject)
		d := r.Obj(p)
		d.HasPrimitive, d.PrimitiveValue, d.PrimitiveKind = true, v, KindStringObject
		r.setObj(p, d)
		return heap.ObjectPtr(p)
	case v.IsString():
		p := r.CreateObject(r.StringPrototype(), true, KindStringObject)
		d := r.Obj(p)
		d.HasPrimitive, d.PrimitiveValue, d.PrimitiveKind = true, v, KindStringObject
		s := r.Strings.Resolve(v)
		d.Props = append(d.Props, Property{Name: r.Strings.MagicLength(), Value: heap.Int(int32(len([]rune(s))))})
		r.setObj(p, d)
		return heap.ObjectPtr(p)
	}
	return r.ThrowTypeError("cannot convert value to object")
}
