package vm

import (
	"fmt"
	"math"

	"ecmago/pkg/bytecode"
	"ecmago/pkg/heap"
	"ecmago/pkg/object"
)

// runFrame drives f's bytecode to completion, returning the value of
// OpReturn/OpHalt or an error-flagged Value if the program threw past
// every handler pushed on f. A throw that escapes every handler is
// delivered here as a frameThrow panic (see exceptions.go) rather than
// as a return value threaded through every opcode case, so property
// accessors and native calls nested arbitrarily deep in the dispatch
// loop can unwind in one motion.
func (m *Machine) runFrame(f *Frame) (result heap.Value) {
	defer func() {
		if rec := recover(); rec != nil {
			if ft, ok := rec.(frameThrow); ok {
				result = ft.v
				return
			}
			panic(rec)
		}
	}()

	r := m.Realm

dispatch:
	for {
		instr := f.code.Code[f.pc]
		f.pc++

		switch instr.Op {
		case bytecode.OpPushLiteral:
			lit := f.code.Literals[instr.A]
			if v, ok := bytecode.FoldConstantValue(lit); ok {
				f.push(v)
				continue
			}
			switch lit.Kind {
			case bytecode.LiteralNumber:
				f.push(r.Heap.NewFloat(lit.Number))
			case bytecode.LiteralString:
				f.push(r.Strings.Intern(lit.Str))
			case bytecode.LiteralRegexp:
				f.push(heap.ObjectPtr(r.NewRegExp(lit.Regexp.Source, lit.Regexp.Flags)))
			case bytecode.LiteralFunction:
				f.push(heap.Undefined)
			}

		case bytecode.OpPushUndefined:
			f.push(heap.Undefined)
		case bytecode.OpPushNull:
			f.push(heap.Null)
		case bytecode.OpPushTrue:
			f.push(heap.True)
		case bytecode.OpPushFalse:
			f.push(heap.False)
		case bytecode.OpPushThis:
			f.push(f.this)
		case bytecode.OpPushEmpty:
			f.push(heap.Empty)
		case bytecode.OpPushHole:
			f.push(heap.Hole)

		case bytecode.OpPop:
			f.pop()
		case bytecode.OpDup:
			f.push(f.top())
		case bytecode.OpDup2:
			n := len(f.stack)
			a, b := f.stack[n-2], f.stack[n-1]
			f.push(a)
			f.push(b)
		case bytecode.OpSwap:
			y := f.pop()
			x := f.pop()
			f.push(y)
			f.push(x)
		case bytecode.OpGetReg:
			f.push(f.regs[instr.A])
		case bytecode.OpSetReg:
			f.regs[instr.A] = f.top()

		case bytecode.OpGetVar:
			name := r.Strings.Intern(f.code.Literals[instr.A].Str)
			env := r.ResolveReference(f.env, name)
			if env == 0 {
				if m.trap(f, r.ThrowReferenceError(r.Strings.Resolve(name)+" is not defined")) {
					continue dispatch
				}
			}
			v := r.GetBindingValue(env, name, true)
			if m.trap(f, v) {
				continue dispatch
			}
			f.push(v)

		case bytecode.OpSetVar:
			name := r.Strings.Intern(f.code.Literals[instr.A].Str)
			v := f.top()
			env := r.ResolveReference(f.env, name)
			var res heap.Value
			switch {
			case env != 0:
				res = r.SetMutableBinding(env, name, v, f.code.Strict)
			case f.code.Strict:
				res = r.ThrowReferenceError(r.Strings.Resolve(name) + " is not defined")
			default:
				res = r.SetMutableBinding(r.GlobalEnv, name, v, false)
			}
			if m.trap(f, res) {
				continue dispatch
			}

		case bytecode.OpInitVar:
			name := r.Strings.Intern(f.code.Literals[instr.A].Str)
			v := f.pop()
			if !r.HasBinding(f.env, name) {
				r.CreateMutableBinding(f.env, name, false)
			}
			r.InitializeBinding(f.env, name, v)

		case bytecode.OpTypeofVar:
			name := r.Strings.Intern(f.code.Literals[instr.A].Str)
			env := r.ResolveReference(f.env, name)
			if env == 0 {
				f.push(r.Strings.Intern("undefined"))
				continue
			}
			v := r.GetBindingValue(env, name, true)
			if m.trap(f, v) {
				continue dispatch
			}
			f.push(r.Strings.Intern(typeofValue(r, v)))

		case bytecode.OpDeleteVar:
			name := r.Strings.Intern(f.code.Literals[instr.A].Str)
			env := r.ResolveReference(f.env, name)
			if env == 0 {
				f.push(heap.True)
				continue
			}
			f.push(heap.Bool(r.DeleteBinding(env, name)))

		case bytecode.OpIncVar, bytecode.OpDecVar:
			name := r.Strings.Intern(f.code.Literals[instr.A].Str)
			env := r.ResolveReference(f.env, name)
			if env == 0 {
				if m.trap(f, r.ThrowReferenceError(r.Strings.Resolve(name)+" is not defined")) {
					continue dispatch
				}
			}
			old := r.GetBindingValue(env, name, true)
			if m.trap(f, old) {
				continue dispatch
			}
			oldNum := r.ToNumber(old)
			delta := 1.0
			if instr.Op == bytecode.OpDecVar {
				delta = -1.0
			}
			newVal := r.NumberValue(oldNum + delta)
			res := r.SetMutableBinding(env, name, newVal, f.code.Strict)
			if m.trap(f, res) {
				continue dispatch
			}
			if instr.B == 1 {
				f.push(newVal)
			} else {
				f.push(r.NumberValue(oldNum))
			}

		case bytecode.OpGetProp:
			vals := f.popN(2)
			v := m.getPropValue(vals[0], vals[1])
			if m.trap(f, v) {
				continue dispatch
			}
			f.push(v)
		case bytecode.OpSetProp:
			vals := f.popN(3)
			v := m.setPropValue(vals[0], vals[1], vals[2], f.code.Strict)
			if m.trap(f, v) {
				continue dispatch
			}
			f.push(v)
		case bytecode.OpGetPropLiteral:
			base := f.pop()
			name := r.Strings.Intern(f.code.Literals[instr.A].Str)
			v := m.getPropValue(base, name)
			if m.trap(f, v) {
				continue dispatch
			}
			f.push(v)
		case bytecode.OpGetPropOfReg:
			base := f.regs[instr.A]
			name := r.Strings.Intern(f.code.Literals[instr.B].Str)
			v := m.getPropValue(base, name)
			if m.trap(f, v) {
				continue dispatch
			}
			f.push(v)
		case bytecode.OpSetPropLiteral:
			vals := f.popN(2)
			name := r.Strings.Intern(f.code.Literals[instr.A].Str)
			v := m.setPropValue(vals[0], name, vals[1], f.code.Strict)
			if m.trap(f, v) {
				continue dispatch
			}
			f.push(v)
		case bytecode.OpDeleteProp:
			var res heap.Value
			if instr.B == 1 {
				base := f.pop()
				name := r.Strings.Intern(f.code.Literals[instr.A].Str)
				res = m.deleteProp(base, name, f.code.Strict)
			} else {
				vals := f.popN(2)
				name := r.ToStringValue(vals[1])
				if m.trap(f, name) {
					continue dispatch
				}
				res = m.deleteProp(vals[0], name, f.code.Strict)
			}
			if m.trap(f, res) {
				continue dispatch
			}
			f.push(res)

		case bytecode.OpMakeArray:
			count := int(instr.A)
			elems := f.popN(count)
			arr := r.CreateObject(r.ArrayPrototype(), true, object.KindArray)
			for i, v := range elems {
				if v.IsHole() {
					continue
				}
				r.Put(arr, r.Strings.Intern(fmt.Sprintf("%d", i)), v, false)
			}
			r.SetArrayLength(arr, uint32(count))
			f.push(heap.ObjectPtr(arr))

		case bytecode.OpMakeObject:
			obj := r.CreateObject(r.ObjectPrototype(), true, object.KindGeneral)
			f.push(heap.ObjectPtr(obj))

		case bytecode.OpDefineGetter, bytecode.OpDefineSetter:
			vals := f.popN(2)
			obj, fnVal := vals[0], vals[1]
			name := r.Strings.Intern(f.code.Literals[instr.A].Str)
			existing, _ := r.GetOwnProperty(obj.AsObjectPtr(), name)
			desc := object.Property{
				Name:  name,
				Attrs: object.Attrs{Accessor: true, Enumerable: true, Configurable: true},
			}
			if existing.Attrs.Accessor {
				desc.Getter, desc.Setter = existing.Getter, existing.Setter
			}
			if instr.Op == bytecode.OpDefineGetter {
				desc.Getter = fnVal.AsObjectPtr()
			} else {
				desc.Setter = fnVal.AsObjectPtr()
			}
			r.DefineOwnProperty(obj.AsObjectPtr(), name, desc, false)

		case bytecode.OpMakeFunction:
			f.pop() // discard OpPushLiteral's placeholder
			childCode := f.code.Functions[instr.A]
			fnObj := r.NewFunctionObject(childCode, f.env)
			f.push(heap.ObjectPtr(fnObj))

		case bytecode.OpJump:
			f.pc = int(instr.A)
		case bytecode.OpJumpIfFalse:
			v := f.pop()
			if !r.ToBoolean(v) {
				f.pc = int(instr.A)
			}
		case bytecode.OpJumpIfTrue:
			v := f.pop()
			if r.ToBoolean(v) {
				f.pc = int(instr.A)
			}
		case bytecode.OpJumpIfFalseNoPop:
			if !r.ToBoolean(f.top()) {
				f.pc = int(instr.A)
			}
		case bytecode.OpJumpIfTrueNoPop:
			if r.ToBoolean(f.top()) {
				f.pc = int(instr.A)
			}

		case bytecode.OpPushEnv:
			f.pushEnv(r.NewDeclarativeEnvironment(f.env))
		case bytecode.OpPopEnv:
			f.popEnv()
		case bytecode.OpWithEnter:
			v := f.pop()
			obj := v
			if !obj.IsObjectPtr() {
				obj = r.ToObject(v)
				if m.trap(f, obj) {
					continue dispatch
				}
			}
			f.pushEnv(r.NewObjectEnvironment(f.env, obj.AsObjectPtr(), true))
		case bytecode.OpWithExit:
			f.popEnv()

		case bytecode.OpTryBegin:
			f.tries = append(f.tries, tryHandler{
				catchPC:    instr.A,
				finallyPC:  instr.B,
				stackDepth: len(f.stack),
				env:        f.env,
			})
		case bytecode.OpTryEnd:
			f.tries = f.tries[:len(f.tries)-1]
		case bytecode.OpEndFinally:
			if f.pending != nil {
				p := f.pending
				f.pending = nil
				if m.trap(f, p.value) {
					continue dispatch
				}
			}
		case bytecode.OpThrow:
			v := f.pop()
			thrown := r.SetError(v)
			m.trap(f, thrown)
			continue dispatch

		case bytecode.OpForInStart:
			obj := f.pop()
			slot := f.forInSlot(instr.A)
			if obj.IsObjectPtr() {
				slot.obj = obj.AsObjectPtr()
				slot.names = r.Enumerate(slot.obj)
			} else {
				slot.obj = 0
				slot.names = nil
			}
			slot.idx = 0
		case bytecode.OpForInNext:
			slot := f.forInSlot(instr.B)
			if slot.idx >= len(slot.names) {
				f.pc = int(instr.A)
				continue
			}
			name := slot.names[slot.idx]
			slot.idx++
			f.push(name)
		case bytecode.OpForInValue:
			slot := f.forInSlot(instr.A)
			if slot.obj != 0 {
				v := r.Get(slot.obj, f.top())
				if m.trap(f, v) {
					continue dispatch
				}
			}

		case bytecode.OpCall:
			argc := int(instr.A)
			vals := f.popN(1 + argc)
			fnVal, args := vals[0], vals[1:]
			if !fnVal.IsObjectPtr() {
				if m.trap(f, r.ThrowTypeError("value is not a function")) {
					continue dispatch
				}
			}
			res := m.Call(r, fnVal.AsObjectPtr(), heap.Undefined, args)
			if m.trap(f, res) {
				continue dispatch
			}
			f.push(res)
		case bytecode.OpCallMethod:
			argc := int(instr.A)
			vals := f.popN(2 + argc)
			this, fnVal, args := vals[0], vals[1], vals[2:]
			if !fnVal.IsObjectPtr() {
				if m.trap(f, r.ThrowTypeError("value is not a function")) {
					continue dispatch
				}
			}
			res := m.Call(r, fnVal.AsObjectPtr(), this, args)
			if m.trap(f, res) {
				continue dispatch
			}
			f.push(res)
		case bytecode.OpConstruct:
			argc := int(instr.A)
			vals := f.popN(1 + argc)
			ctor, args := vals[0], vals[1:]
			if !ctor.IsObjectPtr() {
				if m.trap(f, r.ThrowTypeError("value is not a constructor")) {
					continue dispatch
				}
			}
			res := m.Construct(r, ctor.AsObjectPtr(), args)
			if m.trap(f, res) {
				continue dispatch
			}
			f.push(res)

		case bytecode.OpReturn:
			return f.pop()
		case bytecode.OpHalt:
			return heap.Undefined

		case bytecode.OpAdd:
			vals := f.popN(2)
			res := opAdd(r, vals[0], vals[1])
			if m.trap(f, res) {
				continue dispatch
			}
			f.push(res)
		case bytecode.OpAddTwoLiterals:
			// The fuser only produces this when both literals are
			// LiteralNumber (pkg/compiler's commitPending), so the add
			// itself can never throw or need ToPrimitive.
			a := f.code.Literals[instr.A].Number
			b := f.code.Literals[instr.B].Number
			f.push(r.NumberValue(a + b))
		case bytecode.OpSub:
			vals := f.popN(2)
			a, errv := toNumberChecked(r, vals[0])
			if m.trap(f, errv) {
				continue dispatch
			}
			b, errv := toNumberChecked(r, vals[1])
			if m.trap(f, errv) {
				continue dispatch
			}
			f.push(r.NumberValue(a - b))
		case bytecode.OpMul:
			vals := f.popN(2)
			a, errv := toNumberChecked(r, vals[0])
			if m.trap(f, errv) {
				continue dispatch
			}
			b, errv := toNumberChecked(r, vals[1])
			if m.trap(f, errv) {
				continue dispatch
			}
			f.push(r.NumberValue(a * b))
		case bytecode.OpDiv:
			vals := f.popN(2)
			a, errv := toNumberChecked(r, vals[0])
			if m.trap(f, errv) {
				continue dispatch
			}
			b, errv := toNumberChecked(r, vals[1])
			if m.trap(f, errv) {
				continue dispatch
			}
			f.push(r.NumberValue(a / b))
		case bytecode.OpMod:
			vals := f.popN(2)
			a, errv := toNumberChecked(r, vals[0])
			if m.trap(f, errv) {
				continue dispatch
			}
			b, errv := toNumberChecked(r, vals[1])
			if m.trap(f, errv) {
				continue dispatch
			}
			f.push(r.NumberValue(math.Mod(a, b)))
		case bytecode.OpNeg:
			v := f.pop()
			n, errv := toNumberChecked(r, v)
			if m.trap(f, errv) {
				continue dispatch
			}
			f.push(r.NumberValue(-n))
		case bytecode.OpPlus:
			v := f.pop()
			n, errv := toNumberChecked(r, v)
			if m.trap(f, errv) {
				continue dispatch
			}
			f.push(r.NumberValue(n))
		case bytecode.OpNot:
			v := f.pop()
			f.push(heap.Bool(!r.ToBoolean(v)))
		case bytecode.OpBitNot:
			v := f.pop()
			n, errv := toInt32Checked(r, v)
			if m.trap(f, errv) {
				continue dispatch
			}
			f.push(r.NumberValue(float64(^n)))
		case bytecode.OpBitAnd:
			vals := f.popN(2)
			a, errv := toInt32Checked(r, vals[0])
			if m.trap(f, errv) {
				continue dispatch
			}
			b, errv := toInt32Checked(r, vals[1])
			if m.trap(f, errv) {
				continue dispatch
			}
			f.push(r.NumberValue(float64(a & b)))
		case bytecode.OpBitOr:
			vals := f.popN(2)
			a, errv := toInt32Checked(r, vals[0])
			if m.trap(f, errv) {
				continue dispatch
			}
			b, errv := toInt32Checked(r, vals[1])
			if m.trap(f, errv) {
				continue dispatch
			}
			f.push(r.NumberValue(float64(a | b)))
		case bytecode.OpBitXor:
			vals := f.popN(2)
			a, errv := toInt32Checked(r, vals[0])
			if m.trap(f, errv) {
				continue dispatch
			}
			b, errv := toInt32Checked(r, vals[1])
			if m.trap(f, errv) {
				continue dispatch
			}
			f.push(r.NumberValue(float64(a ^ b)))
		case bytecode.OpShl:
			vals := f.popN(2)
			a, errv := toInt32Checked(r, vals[0])
			if m.trap(f, errv) {
				continue dispatch
			}
			shiftN, errv := toUint32Checked(r, vals[1])
			if m.trap(f, errv) {
				continue dispatch
			}
			f.push(r.NumberValue(float64(a << (shiftN & 31))))
		case bytecode.OpShr:
			vals := f.popN(2)
			a, errv := toInt32Checked(r, vals[0])
			if m.trap(f, errv) {
				continue dispatch
			}
			shiftN, errv := toUint32Checked(r, vals[1])
			if m.trap(f, errv) {
				continue dispatch
			}
			f.push(r.NumberValue(float64(a >> (shiftN & 31))))
		case bytecode.OpUShr:
			vals := f.popN(2)
			a, errv := toUint32Checked(r, vals[0])
			if m.trap(f, errv) {
				continue dispatch
			}
			shiftN, errv := toUint32Checked(r, vals[1])
			if m.trap(f, errv) {
				continue dispatch
			}
			f.push(r.NumberValue(float64(a >> (shiftN & 31))))

		case bytecode.OpEq, bytecode.OpNotEq:
			vals := f.popN(2)
			res := abstractEquals(r, vals[0], vals[1])
			if m.trap(f, res) {
				continue dispatch
			}
			b := res.IsTrue()
			if instr.Op == bytecode.OpNotEq {
				b = !b
			}
			f.push(heap.Bool(b))
		case bytecode.OpStrictEq, bytecode.OpStrictNotEq:
			vals := f.popN(2)
			eq := strictEqualsValue(r, vals[0], vals[1])
			if instr.Op == bytecode.OpStrictNotEq {
				eq = !eq
			}
			f.push(heap.Bool(eq))
		case bytecode.OpLt:
			vals := f.popN(2)
			res, def, errv := abstractLessThan(r, vals[0], vals[1], true)
			if m.trap(f, errv) {
				continue dispatch
			}
			f.push(heap.Bool(def && res))
		case bytecode.OpGt:
			vals := f.popN(2)
			res, def, errv := abstractLessThan(r, vals[1], vals[0], false)
			if m.trap(f, errv) {
				continue dispatch
			}
			f.push(heap.Bool(def && res))
		case bytecode.OpLe:
			vals := f.popN(2)
			res, def, errv := abstractLessThan(r, vals[1], vals[0], false)
			if m.trap(f, errv) {
				continue dispatch
			}
			f.push(heap.Bool(def && !res))
		case bytecode.OpGe:
			vals := f.popN(2)
			res, def, errv := abstractLessThan(r, vals[0], vals[1], true)
			if m.trap(f, errv) {
				continue dispatch
			}
			f.push(heap.Bool(def && !res))

		case bytecode.OpInstanceOf:
			vals := f.popN(2)
			a, b := vals[0], vals[1]
			if !b.IsObjectPtr() {
				if m.trap(f, r.ThrowTypeError("right-hand side of instanceof is not an object")) {
					continue dispatch
				}
			}
			res := m.HasInstance(r, b.AsObjectPtr(), a)
			if m.trap(f, res) {
				continue dispatch
			}
			f.push(res)
		case bytecode.OpIn:
			vals := f.popN(2)
			key, obj := vals[0], vals[1]
			if !obj.IsObjectPtr() {
				if m.trap(f, r.ThrowTypeError("cannot use 'in' operator on non-object")) {
					continue dispatch
				}
			}
			name := r.ToStringValue(key)
			if m.trap(f, name) {
				continue dispatch
			}
			f.push(heap.Bool(r.HasProperty(obj.AsObjectPtr(), name)))
		case bytecode.OpTypeof:
			v := f.pop()
			f.push(r.Strings.Intern(typeofValue(r, v)))
		case bytecode.OpVoid:
			f.pop()
			f.push(heap.Undefined)

		default:
			panic(fmt.Sprintf("vm: unknown opcode %d", instr.Op))
		}
	}
}

func (m *Machine) deleteProp(base, name heap.Value, strict bool) heap.Value {
	if !base.IsObjectPtr() {
		return heap.True
	}
	return m.Realm.Delete(base.AsObjectPtr(), name, strict)
}

// typeofValue implements the typeof operator (ECMA-262 11.4.3).
func typeofValue(r *object.Realm, v heap.Value) string {
	switch {
	case v.IsUndefined():
		return "undefined"
	case v.IsNull():
		return "object"
	case v.IsBoolean():
		return "boolean"
	case v.IsNumber():
		return "number"
	case v.IsString():
		return "string"
	case v.IsObjectPtr():
		if r.Obj(v.AsObjectPtr()).Kind.IsFunction() {
			return "function"
		}
		return "object"
	default:
		return "undefined"
	}
}

// getPropValue implements property read on both object and primitive
// bases (ECMA-262 11.2.1's GetValue over a Reference whose base is a
// primitive), including string/number/boolean's implicit-wrapper
// delegation to their respective prototypes.
func (m *Machine) getPropValue(base, key heap.Value) heap.Value {
	r := m.Realm
	if base.IsUndefined() || base.IsNull() {
		return r.ThrowTypeError("cannot read property of " + typeofValue(r, base))
	}
	name := r.ToStringValue(key)
	if name.IsError() {
		return name
	}
	switch {
	case base.IsObjectPtr():
		return r.Get(base.AsObjectPtr(), name)
	case base.IsString():
		return getStringProp(r, base, name)
	case base.IsNumber():
		return r.Get(r.NumberPrototype(), name)
	case base.IsBoolean():
		return r.Get(r.BooleanPrototype(), name)
	default:
		return heap.Undefined
	}
}

func getStringProp(r *object.Realm, base, name heap.Value) heap.Value {
	s := r.ToGoString(base)
	runes := []rune(s)
	if r.Strings.IsMagic(name, "length") {
		return heap.Int(int32(len(runes)))
	}
	if idx, ok := canonicalIndex(r, name); ok {
		if idx >= 0 && idx < len(runes) {
			return r.Strings.Intern(string(runes[idx]))
		}
		return heap.Undefined
	}
	return r.Get(r.StringPrototype(), name)
}

func canonicalIndex(r *object.Realm, name heap.Value) (int, bool) {
	s := r.Strings.Resolve(name)
	if s == "" {
		return 0, false
	}
	n := 0
	for i, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		if i == 0 && c == '0' && len(s) > 1 {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// setPropValue implements property write on both object and primitive
// bases; a write through a primitive base is always a silent no-op
// (ECMA-262 8.7.2's PutValue over a primitive base creates and
// immediately discards a transient wrapper — this engine skips creating
// it at all, whether or not the write would have thrown in strict mode).
func (m *Machine) setPropValue(base, key, value heap.Value, strict bool) heap.Value {
	r := m.Realm
	if base.IsUndefined() || base.IsNull() {
		return r.ThrowTypeError("cannot set property of " + typeofValue(r, base))
	}
	name := r.ToStringValue(key)
	if name.IsError() {
		return name
	}
	if !base.IsObjectPtr() {
		return value
	}
	res := r.Put(base.AsObjectPtr(), name, value, strict)
	if res.IsError() {
		return res
	}
	return value
}

// abstractEquals implements the Abstract Equality Comparison algorithm
// (ECMA-262 11.9.3).
func abstractEquals(r *object.Realm, a, b heap.Value) heap.Value {
	if ok, eq := heap.StrictEquals(a, b); ok {
		return heap.Bool(eq)
	}
	aNum, bNum := a.IsNumber(), b.IsNumber()
	aStr, bStr := a.IsString(), b.IsString()
	switch {
	case aNum && bNum:
		return heap.Bool(r.ToNumber(a) == r.ToNumber(b))
	case aStr && bStr:
		return heap.Bool(r.Strings.Resolve(a) == r.Strings.Resolve(b))
	case (a.IsUndefined() || a.IsNull()) && (b.IsUndefined() || b.IsNull()):
		return heap.True
	case a.IsUndefined() || a.IsNull() || b.IsUndefined() || b.IsNull():
		return heap.False
	case aNum && bStr:
		return abstractEquals(r, a, r.NumberValue(r.ToNumber(b)))
	case aStr && bNum:
		return abstractEquals(r, r.NumberValue(r.ToNumber(a)), b)
	case a.IsBoolean():
		return abstractEquals(r, r.NumberValue(r.ToNumber(a)), b)
	case b.IsBoolean():
		return abstractEquals(r, a, r.NumberValue(r.ToNumber(b)))
	case (aNum || aStr) && b.IsObjectPtr():
		pb := r.ToPrimitive(b, "")
		if pb.IsError() {
			return pb
		}
		return abstractEquals(r, a, pb)
	case a.IsObjectPtr() && (bNum || bStr):
		pa := r.ToPrimitive(a, "")
		if pa.IsError() {
			return pa
		}
		return abstractEquals(r, pa, b)
	default:
		return heap.False
	}
}

// strictEqualsValue implements the Strict Equality Comparison algorithm
// (ECMA-262 11.9.6), falling back past heap.StrictEquals's same-tag-only
// fast paths for the cross-tag combinations (int vs. float, interned
// string vs. magic string) it declines to resolve.
func strictEqualsValue(r *object.Realm, a, b heap.Value) bool {
	if ok, eq := heap.StrictEquals(a, b); ok {
		return eq
	}
	if a.IsNumber() && b.IsNumber() {
		return r.ToNumber(a) == r.ToNumber(b)
	}
	if a.IsString() && b.IsString() {
		return r.Strings.Resolve(a) == r.Strings.Resolve(b)
	}
	return false
}

// abstractLessThan implements the Abstract Relational Comparison
// algorithm (ECMA-262 11.8.5); the bool results are (lessThan, defined)
// — defined is false when either operand's ToPrimitive->ToNumber came
// out NaN, per spec "if... is undefined... return false" wherever this
// feeds one of the four relational operators.
func abstractLessThan(r *object.Realm, x, y heap.Value, leftFirst bool) (bool, bool, heap.Value) {
	var px, py heap.Value
	if leftFirst {
		px = r.ToPrimitive(x, "Number")
		if px.IsError() {
			return false, false, px
		}
		py = r.ToPrimitive(y, "Number")
		if py.IsError() {
			return false, false, py
		}
	} else {
		py = r.ToPrimitive(y, "Number")
		if py.IsError() {
			return false, false, py
		}
		px = r.ToPrimitive(x, "Number")
		if px.IsError() {
			return false, false, px
		}
	}
	if px.IsString() && py.IsString() {
		return r.Strings.Resolve(px) < r.Strings.Resolve(py), true, heap.Undefined
	}
	nx, ny := r.ToNumber(px), r.ToNumber(py)
	if math.IsNaN(nx) || math.IsNaN(ny) {
		return false, false, heap.Undefined
	}
	return nx < ny, true, heap.Undefined
}

// opAdd implements the `+` operator (ECMA-262 11.6.1): string
// concatenation if either ToPrimitive result is a string, numeric
// addition otherwise.
func opAdd(r *object.Realm, a, b heap.Value) heap.Value {
	pa := r.ToPrimitive(a, "")
	if pa.IsError() {
		return pa
	}
	pb := r.ToPrimitive(b, "")
	if pb.IsError() {
		return pb
	}
	if pa.IsString() || pb.IsString() {
		sa := r.ToStringValue(pa)
		if sa.IsError() {
			return sa
		}
		sb := r.ToStringValue(pb)
		if sb.IsError() {
			return sb
		}
		return r.Strings.Intern(r.Strings.Resolve(sa) + r.Strings.Resolve(sb))
	}
	return r.NumberValue(r.ToNumber(pa) + r.ToNumber(pb))
}

// toNumberChecked implements ECMA-262 9.3's ToNumber by way of
// ToPrimitive, surfacing a throwing valueOf/toString as an error-flagged
// Value rather than folding it into NaN the way Realm.ToNumber does —
// every arithmetic and bitwise opcode needs this so a thrower operand
// aborts the operator instead of silently producing NaN.
func toNumberChecked(r *object.Realm, v heap.Value) (float64, heap.Value) {
	p := r.ToPrimitive(v, "Number")
	if p.IsError() {
		return 0, p
	}
	return r.ToNumber(p), heap.Undefined
}

func toInt32Checked(r *object.Realm, v heap.Value) (int32, heap.Value) {
	n, errv := toNumberChecked(r, v)
	if errv.IsError() {
		return 0, errv
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, heap.Undefined
	}
	return int32(uint32(int64(math.Trunc(n)))), heap.Undefined
}

func toUint32Checked(r *object.Realm, v heap.Value) (uint32, heap.Value) {
	n, errv := toNumberChecked(r, v)
	if errv.IsError() {
		return 0, errv
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, heap.Undefined
	}
	return uint32(int64(math.Trunc(n))), heap.Undefined
}
