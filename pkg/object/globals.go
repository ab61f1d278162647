// Bootstrap: builds the minimal built-in registry spec §4.2/§9.2 calls
// for — Object, Function.prototype, Array, the seven Error constructors,
// String/Number/Boolean wrappers, console, and RegExp's object side.
// Grounded on jerry-core/ecma/builtin-objects (ecma-builtin-object.c,
// ecma-builtin-array-prototype.c, ecma-builtin-error*.c under
// _examples/original_source/jerry-core) for which properties exist and
// their attributes; Math/Date/JSON and ES2015+ additions are out of
// scope per spec Non-goals and are never registered here.
package object

import (
	"math"
	"strconv"
	"strings"

	"ecmago/pkg/heap"
)

func native(fn ExternalFunc) ExternalFunc { return fn }

func dataProp(name heap.Value, v heap.Value) Property {
	return Property{Name: name, Attrs: Attrs{Writable: true, Configurable: true}, Value: v}
}

// Bootstrap wires up a freshly-constructed Realm's global object and
// environment with the built-in graph. NewRealm does not call this
// automatically so embedding-API callers (pkg/api) can choose to run it
// lazily or skip it for a constrained sandbox realm.
func (r *Realm) Bootstrap() {
	objProto := r.CreateObject(0, true, KindGeneral)
	r.RegisterWellKnown(BuiltinObjectPrototype, objProto)

	funcProto := r.CreateObject(objProto, true, KindExternalFunction)
	fd := r.Obj(funcProto)
	fd.Native = native(func(rt *Realm, this heap.Value, args []heap.Value) heap.Value { return heap.Undefined })
	r.setObj(funcProto, fd)
	r.RegisterWellKnown(BuiltinFunctionPrototype, funcProto)
	r.installFunctionPrototypeMethods(funcProto)

	r.installObjectConstructor(objProto)
	r.installArray(objProto)
	r.installErrorFamily(objProto)
	r.installStringWrapper(objProto)
	r.installNumberWrapper(objProto)
	r.installBooleanWrapper(objProto)
	r.installRegExp(objProto)
	r.installConsole(objProto)

	globalObj := r.Obj(r.GlobalObject)
	globalObj.Proto = objProto
	r.Objects.Ref(objProto)
	r.setObj(r.GlobalObject, globalObj)

	r.defGlobal("undefined", heap.Undefined, false)
	r.defGlobal("NaN", r.Heap.NewFloat(math.NaN()), false)
	r.defGlobal("Infinity", r.Heap.NewFloat(math.Inf(1)), false)
}

func (r *Realm) defGlobal(name string, v heap.Value, writable bool) {
	n := r.Strings.Intern(name)
	r.defineOwnPropertyRaw(r.GlobalObject, n, Property{Name: n, Attrs: Attrs{Writable: writable, Configurable: false}, Value: v})
}

func (r *Realm) installCtorOnGlobal(name string, ctor heap.CPointer) {
	n := r.Strings.Intern(name)
	r.defineOwnPropertyRaw(r.GlobalObject, n, Property{Name: n, Attrs: Attrs{Writable: true, Configurable: true}, Value: heap.ObjectPtr(ctor)})
}

func (r *Realm) newNativeFunction(proto heap.CPointer, name string, length int, fn ExternalFunc) heap.CPointer {
	p := r.CreateObject(r.FunctionPrototype(), true, KindExternalFunction)
	d := r.Obj(p)
	d.Native = fn
	d.Props = append(d.Props,
		Property{Name: r.Strings.MagicLength(), Value: heap.Int(int32(length))},
		Property{Name: r.Strings.MagicName(), Value: r.Strings.Intern(name)},
	)
	r.setObj(p, d)
	_ = proto
	return p
}

func (r *Realm) installFunctionPrototypeMethods(funcProto heap.CPointer) {
	r.defineOwnPropertyRaw(funcProto, r.Strings.MagicCall(), dataProp(r.Strings.MagicCall(),
		heap.ObjectPtr(r.newNativeFunction(funcProto, "call", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if !this.IsObjectPtr() || !rt.Obj(this.AsObjectPtr()).Kind.IsFunction() {
				return rt.ThrowTypeError("Function.prototype.call target is not callable")
			}
			var thisArg heap.Value = heap.Undefined
			var rest []heap.Value
			if len(args) > 0 {
				thisArg = args[0]
			}
			if len(args) > 1 {
				rest = args[1:]
			}
			if rt.CallFunc == nil {
				return heap.Undefined
			}
			return rt.CallFunc(rt, this.AsObjectPtr(), thisArg, rest)
		}))))
	r.defineOwnPropertyRaw(funcProto, r.Strings.MagicApply(), dataProp(r.Strings.MagicApply(),
		heap.ObjectPtr(r.newNativeFunction(funcProto, "apply", 2, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if !this.IsObjectPtr() || !rt.Obj(this.AsObjectPtr()).Kind.IsFunction() {
				return rt.ThrowTypeError("Function.prototype.apply target is not callable")
			}
			var thisArg heap.Value = heap.Undefined
			if len(args) > 0 {
				thisArg = args[0]
			}
			var spread []heap.Value
			if len(args) > 1 && args[1].IsObjectPtr() {
				arr := args[1].AsObjectPtr()
				n := rt.ToUint32(rt.Get(arr, rt.Strings.MagicLength()))
				for i := uint32(0); i < n; i++ {
					idx := rt.Strings.Intern(strconv.FormatUint(uint64(i), 10))
					spread = append(spread, rt.Get(arr, idx))
				}
			}
			if rt.CallFunc == nil {
				return heap.Undefined
			}
			return rt.CallFunc(rt, this.AsObjectPtr(), thisArg, spread)
		}))))
	r.defineOwnPropertyRaw(funcProto, r.Strings.MagicBind(), dataProp(r.Strings.MagicBind(),
		heap.ObjectPtr(r.newNativeFunction(funcProto, "bind", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if !this.IsObjectPtr() || !rt.Obj(this.AsObjectPtr()).Kind.IsFunction() {
				return rt.ThrowTypeError("Function.prototype.bind target is not callable")
			}
			var boundThis heap.Value = heap.Undefined
			var boundArgs []heap.Value
			if len(args) > 0 {
				boundThis = args[0]
			}
			if len(args) > 1 {
				boundArgs = append(boundArgs, args[1:]...)
			}
			p := rt.CreateObject(rt.FunctionPrototype(), true, KindBoundFunction)
			d := rt.Obj(p)
			d.Bound = &BoundRecord{Target: this.AsObjectPtr(), BoundThis: boundThis, BoundArgs: boundArgs}
			rt.Objects.Ref(this.AsObjectPtr())
			rt.setObj(p, d)
			return heap.ObjectPtr(p)
		}))))
}

func (r *Realm) installObjectConstructor(objProto heap.CPointer) {
	ctor := r.newNativeFunction(r.FunctionPrototype(), "Object", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
		if len(args) == 0 || args[0].IsUndefined() || args[0].IsNull() {
			return heap.ObjectPtr(rt.CreateObject(rt.ObjectPrototype(), true, KindGeneral))
		}
		return rt.ToObject(args[0])
	})
	r.RegisterWellKnown(BuiltinObjectConstructor, ctor)
	r.linkCtorProto(ctor, objProto)
	r.installCtorOnGlobal("Object", ctor)

	r.defineOwnPropertyRaw(objProto, r.Strings.MagicHasOwnProperty(), dataProp(r.Strings.MagicHasOwnProperty(),
		heap.ObjectPtr(r.newNativeFunction(objProto, "hasOwnProperty", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if !this.IsObjectPtr() || len(args) == 0 {
				return heap.False
			}
			name := rt.ToStringValue(args[0])
			_, ok := rt.GetOwnProperty(this.AsObjectPtr(), name)
			return heap.Bool(ok)
		}))))
	r.defineOwnPropertyRaw(objProto, r.Strings.MagicToString(), dataProp(r.Strings.MagicToString(),
		heap.ObjectPtr(r.newNativeFunction(objProto, "toString", 0, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			return rt.Strings.Intern("[object Object]")
		}))))
	r.defineOwnPropertyRaw(objProto, r.Strings.MagicIsPrototypeOf(), dataProp(r.Strings.MagicIsPrototypeOf(),
		heap.ObjectPtr(r.newNativeFunction(objProto, "isPrototypeOf", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if !this.IsObjectPtr() || len(args) == 0 || !args[0].IsObjectPtr() {
				return heap.False
			}
			target := this.AsObjectPtr()
			for p := rt.Obj(args[0].AsObjectPtr()).Proto; p != 0; p = rt.Obj(p).Proto {
				if p == target {
					return heap.True
				}
			}
			return heap.False
		}))))
	r.defineOwnPropertyRaw(objProto, r.Strings.MagicPropertyIsEnumerable(), dataProp(r.Strings.MagicPropertyIsEnumerable(),
		heap.ObjectPtr(r.newNativeFunction(objProto, "propertyIsEnumerable", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if !this.IsObjectPtr() || len(args) == 0 {
				return heap.False
			}
			prop, ok := rt.GetOwnProperty(this.AsObjectPtr(), rt.ToStringValue(args[0]))
			return heap.Bool(ok && prop.Attrs.Enumerable)
		}))))

	r.defineOwnPropertyRaw(ctor, r.Strings.Intern("keys"), dataProp(r.Strings.Intern("keys"),
		heap.ObjectPtr(r.newNativeFunction(ctor, "keys", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if len(args) == 0 || !args[0].IsObjectPtr() {
				return rt.ThrowTypeError("Object.keys called on non-object")
			}
			names := rt.OwnEnumerableNames(args[0].AsObjectPtr())
			arr := rt.CreateObject(rt.ArrayPrototype(), true, KindArray)
			for i, n := range names {
				rt.Put(arr, rt.Strings.Intern(strconv.Itoa(i)), n, false)
			}
			rt.SetArrayLength(arr, uint32(len(names)))
			return heap.ObjectPtr(arr)
		}))))

	r.defineOwnPropertyRaw(ctor, r.Strings.Intern("create"), dataProp(r.Strings.Intern("create"),
		heap.ObjectPtr(r.newNativeFunction(ctor, "create", 2, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if len(args) == 0 || (!args[0].IsObjectPtr() && !args[0].IsNull()) {
				return rt.ThrowTypeError("Object.create: proto must be an object or null")
			}
			var proto heap.CPointer
			if args[0].IsObjectPtr() {
				proto = args[0].AsObjectPtr()
			}
			obj := rt.CreateObject(proto, true, KindGeneral)
			if len(args) > 1 && args[1].IsObjectPtr() {
				propsObj := args[1].AsObjectPtr()
				for _, name := range rt.OwnEnumerableNames(propsObj) {
					descV := rt.Get(propsObj, name)
					if descV.IsError() {
						return descV
					}
					if !descV.IsObjectPtr() {
						return rt.ThrowTypeError("Object.create: property description must be an object")
					}
					prop, errV := rt.parsePropertyDescriptor(descV.AsObjectPtr(), Property{Name: name}, false)
					if errV.IsError() {
						return errV
					}
					res := rt.DefineOwnProperty(obj, name, prop, true)
					if res.IsError() {
						return res
					}
				}
			}
			return heap.ObjectPtr(obj)
		}))))

	r.defineOwnPropertyRaw(ctor, r.Strings.Intern("defineProperty"), dataProp(r.Strings.Intern("defineProperty"),
		heap.ObjectPtr(r.newNativeFunction(ctor, "defineProperty", 3, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if len(args) == 0 || !args[0].IsObjectPtr() {
				return rt.ThrowTypeError("Object.defineProperty called on non-object")
			}
			obj := args[0].AsObjectPtr()
			var name heap.Value = heap.Undefined
			if len(args) > 1 {
				name = rt.ToStringValue(args[1])
			}
			var descObj heap.Value = heap.Undefined
			if len(args) > 2 {
				descObj = args[2]
			}
			if !descObj.IsObjectPtr() {
				return rt.ThrowTypeError("Object.defineProperty: descriptor must be an object")
			}
			current, exists := rt.GetOwnProperty(obj, name)
			base := Property{Name: name, Attrs: Attrs{Writable: false, Enumerable: false, Configurable: false}}
			if exists {
				base = current
			}
			prop, errV := rt.parsePropertyDescriptor(descObj.AsObjectPtr(), base, exists)
			if errV.IsError() {
				return errV
			}
			res := rt.DefineOwnProperty(obj, name, prop, true)
			if res.IsError() {
				return res
			}
			return args[0]
		}))))

	r.defineOwnPropertyRaw(ctor, r.Strings.Intern("getOwnPropertyDescriptor"), dataProp(r.Strings.Intern("getOwnPropertyDescriptor"),
		heap.ObjectPtr(r.newNativeFunction(ctor, "getOwnPropertyDescriptor", 2, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if len(args) == 0 || !args[0].IsObjectPtr() {
				return rt.ThrowTypeError("Object.getOwnPropertyDescriptor called on non-object")
			}
			var name heap.Value = heap.Undefined
			if len(args) > 1 {
				name = rt.ToStringValue(args[1])
			}
			prop, ok := rt.GetOwnProperty(args[0].AsObjectPtr(), name)
			if !ok {
				return heap.Undefined
			}
			desc := rt.CreateObject(rt.ObjectPrototype(), true, KindGeneral)
			if prop.Attrs.Accessor {
				var getV heap.Value = heap.Undefined
				if prop.Getter != 0 {
					getV = heap.ObjectPtr(prop.Getter)
				}
				var setV heap.Value = heap.Undefined
				if prop.Setter != 0 {
					setV = heap.ObjectPtr(prop.Setter)
				}
				rt.defineOwnPropertyRaw(desc, rt.Strings.MagicGet(), dataProp(rt.Strings.MagicGet(), getV))
				rt.defineOwnPropertyRaw(desc, rt.Strings.MagicSet(), dataProp(rt.Strings.MagicSet(), setV))
			} else {
				rt.defineOwnPropertyRaw(desc, rt.Strings.MagicValue(), dataProp(rt.Strings.MagicValue(), prop.Value))
				rt.defineOwnPropertyRaw(desc, rt.Strings.MagicWritable(), dataProp(rt.Strings.MagicWritable(), heap.Bool(prop.Attrs.Writable)))
			}
			rt.defineOwnPropertyRaw(desc, rt.Strings.MagicEnumerable(), dataProp(rt.Strings.MagicEnumerable(), heap.Bool(prop.Attrs.Enumerable)))
			rt.defineOwnPropertyRaw(desc, rt.Strings.MagicConfigurable(), dataProp(rt.Strings.MagicConfigurable(), heap.Bool(prop.Attrs.Configurable)))
			return heap.ObjectPtr(desc)
		}))))
}

func (r *Realm) linkCtorProto(ctor, proto heap.CPointer) {
	r.defineOwnPropertyRaw(ctor, r.Strings.MagicPrototype(), Property{
		Name: r.Strings.MagicPrototype(), Attrs: Attrs{}, Value: heap.ObjectPtr(proto),
	})
	d := r.Obj(ctor)
	d.PrototypeMaterialized = true
	r.setObj(ctor, d)
	r.defineOwnPropertyRaw(proto, r.Strings.MagicConstructor(), Property{
		Name: r.Strings.MagicConstructor(), Attrs: Attrs{Writable: true, Configurable: true}, Value: heap.ObjectPtr(ctor),
	})
}

func (r *Realm) installArray(objProto heap.CPointer) {
	arrProto := r.CreateObject(objProto, true, KindArray)
	r.RegisterWellKnown(BuiltinArrayPrototype, arrProto)
	ctor := r.newNativeFunction(r.FunctionPrototype(), "Array", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
		p := rt.CreateObject(rt.ArrayPrototype(), true, KindArray)
		if len(args) == 1 && args[0].IsNumber() {
			n := rt.ToUint32(args[0])
			d := rt.Obj(p)
			d.ArrayLength = n
			rt.setObj(p, d)
		} else {
			for i, a := range args {
				idx := rt.Strings.Intern(strconv.Itoa(i))
				rt.Put(p, idx, a, false)
			}
		}
		return heap.ObjectPtr(p)
	})
	r.RegisterWellKnown(BuiltinArrayConstructor, ctor)
	r.linkCtorProto(ctor, arrProto)
	r.installCtorOnGlobal("Array", ctor)

	r.defineOwnPropertyRaw(arrProto, r.Strings.MagicToString(), dataProp(r.Strings.MagicToString(),
		heap.ObjectPtr(r.newNativeFunction(arrProto, "toString", 0, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			return rt.Strings.Intern(rt.arrayJoin(this, ","))
		}))))
	join := r.Strings.Intern("join")
	r.defineOwnPropertyRaw(arrProto, join, dataProp(join,
		heap.ObjectPtr(r.newNativeFunction(arrProto, "join", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			sep := ","
			if len(args) > 0 && !args[0].IsUndefined() {
				sep = rt.ToGoString(args[0])
			}
			return rt.Strings.Intern(rt.arrayJoin(this, sep))
		}))))
	push := r.Strings.Intern("push")
	r.defineOwnPropertyRaw(arrProto, push, dataProp(push,
		heap.ObjectPtr(r.newNativeFunction(arrProto, "push", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if !this.IsObjectPtr() {
				return heap.Int(0)
			}
			obj := this.AsObjectPtr()
			length := rt.ToUint32(rt.Get(obj, rt.Strings.MagicLength()))
			for _, a := range args {
				idx := rt.Strings.Intern(strconv.FormatUint(uint64(length), 10))
				rt.Put(obj, idx, a, false)
				length++
			}
			d := rt.Obj(obj)
			d.ArrayLength = length
			rt.setObj(obj, d)
			return heap.Int(int32(length))
		}))))
	pop := r.Strings.Intern("pop")
	r.defineOwnPropertyRaw(arrProto, pop, dataProp(pop,
		heap.ObjectPtr(r.newNativeFunction(arrProto, "pop", 0, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if !this.IsObjectPtr() {
				return heap.Undefined
			}
			obj := this.AsObjectPtr()
			length := rt.ToUint32(rt.Get(obj, rt.Strings.MagicLength()))
			if length == 0 {
				return heap.Undefined
			}
			last := length - 1
			idx := rt.Strings.Intern(strconv.FormatUint(uint64(last), 10))
			v := rt.Get(obj, idx)
			rt.Delete(obj, idx, false)
			d := rt.Obj(obj)
			d.ArrayLength = last
			rt.setObj(obj, d)
			return v
		}))))

	r.defineOwnPropertyRaw(ctor, r.Strings.Intern("isArray"), dataProp(r.Strings.Intern("isArray"),
		heap.ObjectPtr(r.newNativeFunction(ctor, "isArray", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			return heap.Bool(len(args) > 0 && args[0].IsObjectPtr() && rt.Obj(args[0].AsObjectPtr()).Kind == KindArray)
		}))))

	slice := r.Strings.Intern("slice")
	r.defineOwnPropertyRaw(arrProto, slice, dataProp(slice,
		heap.ObjectPtr(r.newNativeFunction(arrProto, "slice", 2, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if !this.IsObjectPtr() {
				return heap.ObjectPtr(rt.CreateObject(rt.ArrayPrototype(), true, KindArray))
			}
			obj := this.AsObjectPtr()
			n := int64(rt.ToUint32(rt.Get(obj, rt.Strings.MagicLength())))
			start := relativeIndex(rt, args, 0, n, 0)
			end := relativeIndex(rt, args, 1, n, n)
			res := rt.CreateObject(rt.ArrayPrototype(), true, KindArray)
			j := 0
			for i := start; i < end; i++ {
				v := rt.Get(obj, rt.Strings.Intern(strconv.FormatInt(i, 10)))
				rt.Put(res, rt.Strings.Intern(strconv.Itoa(j)), v, false)
				j++
			}
			rt.SetArrayLength(res, uint32(j))
			return heap.ObjectPtr(res)
		}))))

	concat := r.Strings.Intern("concat")
	r.defineOwnPropertyRaw(arrProto, concat, dataProp(concat,
		heap.ObjectPtr(r.newNativeFunction(arrProto, "concat", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			res := rt.CreateObject(rt.ArrayPrototype(), true, KindArray)
			j := 0
			appendOne := func(v heap.Value) {
				if v.IsObjectPtr() && rt.Obj(v.AsObjectPtr()).Kind == KindArray {
					obj := v.AsObjectPtr()
					n := rt.ToUint32(rt.Get(obj, rt.Strings.MagicLength()))
					for i := uint32(0); i < n; i++ {
						elem := rt.Get(obj, rt.Strings.Intern(strconv.FormatUint(uint64(i), 10)))
						rt.Put(res, rt.Strings.Intern(strconv.Itoa(j)), elem, false)
						j++
					}
				} else {
					rt.Put(res, rt.Strings.Intern(strconv.Itoa(j)), v, false)
					j++
				}
			}
			appendOne(this)
			for _, a := range args {
				appendOne(a)
			}
			rt.SetArrayLength(res, uint32(j))
			return heap.ObjectPtr(res)
		}))))

	indexOf := r.Strings.Intern("indexOf")
	r.defineOwnPropertyRaw(arrProto, indexOf, dataProp(indexOf,
		heap.ObjectPtr(r.newNativeFunction(arrProto, "indexOf", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if !this.IsObjectPtr() || len(args) == 0 {
				return heap.Int(-1)
			}
			obj := this.AsObjectPtr()
			n := int64(rt.ToUint32(rt.Get(obj, rt.Strings.MagicLength())))
			start := int64(0)
			if len(args) > 1 {
				start = int64(rt.ToInteger(args[1]))
				if start < 0 {
					start += n
				}
				if start < 0 {
					start = 0
				}
			}
			for i := start; i < n; i++ {
				v := rt.Get(obj, rt.Strings.Intern(strconv.FormatInt(i, 10)))
				if ok, eq := heap.StrictEquals(v, args[0]); ok && eq {
					return heap.Int(int32(i))
				}
			}
			return heap.Int(-1)
		}))))

	forEach := r.Strings.Intern("forEach")
	r.defineOwnPropertyRaw(arrProto, forEach, dataProp(forEach,
		heap.ObjectPtr(r.newNativeFunction(arrProto, "forEach", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if !this.IsObjectPtr() || len(args) == 0 || !args[0].IsObjectPtr() || rt.CallFunc == nil {
				return heap.Undefined
			}
			obj := this.AsObjectPtr()
			cb := args[0].AsObjectPtr()
			var thisArg heap.Value = heap.Undefined
			if len(args) > 1 {
				thisArg = args[1]
			}
			n := rt.ToUint32(rt.Get(obj, rt.Strings.MagicLength()))
			for i := uint32(0); i < n; i++ {
				idx := rt.Strings.Intern(strconv.FormatUint(uint64(i), 10))
				v := rt.Get(obj, idx)
				res := rt.CallFunc(rt, cb, thisArg, []heap.Value{v, heap.Int(int32(i)), this})
				if res.IsError() {
					return res
				}
			}
			return heap.Undefined
		}))))

	mapName := r.Strings.Intern("map")
	r.defineOwnPropertyRaw(arrProto, mapName, dataProp(mapName,
		heap.ObjectPtr(r.newNativeFunction(arrProto, "map", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if !this.IsObjectPtr() || len(args) == 0 || !args[0].IsObjectPtr() || rt.CallFunc == nil {
				return heap.ObjectPtr(rt.CreateObject(rt.ArrayPrototype(), true, KindArray))
			}
			obj := this.AsObjectPtr()
			cb := args[0].AsObjectPtr()
			var thisArg heap.Value = heap.Undefined
			if len(args) > 1 {
				thisArg = args[1]
			}
			n := rt.ToUint32(rt.Get(obj, rt.Strings.MagicLength()))
			res := rt.CreateObject(rt.ArrayPrototype(), true, KindArray)
			for i := uint32(0); i < n; i++ {
				idx := rt.Strings.Intern(strconv.FormatUint(uint64(i), 10))
				v := rt.Get(obj, idx)
				mapped := rt.CallFunc(rt, cb, thisArg, []heap.Value{v, heap.Int(int32(i)), this})
				if mapped.IsError() {
					return mapped
				}
				rt.Put(res, idx, mapped, false)
			}
			rt.SetArrayLength(res, n)
			return heap.ObjectPtr(res)
		}))))

	filter := r.Strings.Intern("filter")
	r.defineOwnPropertyRaw(arrProto, filter, dataProp(filter,
		heap.ObjectPtr(r.newNativeFunction(arrProto, "filter", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if !this.IsObjectPtr() || len(args) == 0 || !args[0].IsObjectPtr() || rt.CallFunc == nil {
				return heap.ObjectPtr(rt.CreateObject(rt.ArrayPrototype(), true, KindArray))
			}
			obj := this.AsObjectPtr()
			cb := args[0].AsObjectPtr()
			var thisArg heap.Value = heap.Undefined
			if len(args) > 1 {
				thisArg = args[1]
			}
			n := rt.ToUint32(rt.Get(obj, rt.Strings.MagicLength()))
			res := rt.CreateObject(rt.ArrayPrototype(), true, KindArray)
			j := 0
			for i := uint32(0); i < n; i++ {
				idx := rt.Strings.Intern(strconv.FormatUint(uint64(i), 10))
				v := rt.Get(obj, idx)
				keep := rt.CallFunc(rt, cb, thisArg, []heap.Value{v, heap.Int(int32(i)), this})
				if keep.IsError() {
					return keep
				}
				if rt.ToBoolean(keep) {
					rt.Put(res, rt.Strings.Intern(strconv.Itoa(j)), v, false)
					j++
				}
			}
			rt.SetArrayLength(res, uint32(j))
			return heap.ObjectPtr(res)
		}))))
}

// relativeIndex resolves a slice-style start/end argument (ECMA-262
// 15.4.4.10): an absent argument falls back to def, a negative value
// counts back from the array's length, and the result clamps to
// [0, n].
func relativeIndex(r *Realm, args []heap.Value, pos int, n int64, def int64) int64 {
	if len(args) <= pos || args[pos].IsUndefined() {
		if def < 0 {
			return 0
		}
		if def > n {
			return n
		}
		return def
	}
	idx := int64(r.ToInteger(args[pos]))
	if idx < 0 {
		idx += n
	}
	if idx < 0 {
		idx = 0
	}
	if idx > n {
		idx = n
	}
	return idx
}

func (r *Realm) arrayJoin(this heap.Value, sep string) string {
	if !this.IsObjectPtr() {
		return ""
	}
	obj := this.AsObjectPtr()
	n := r.ToUint32(r.Get(obj, r.Strings.MagicLength()))
	parts := make([]string, n)
	for i := uint32(0); i < n; i++ {
		idx := r.Strings.Intern(strconv.FormatUint(uint64(i), 10))
		v := r.Get(obj, idx)
		if !v.IsUndefined() && !v.IsNull() {
			parts[i] = r.ToGoString(v)
		}
	}
	return strings.Join(parts, sep)
}

var errorKinds = []struct {
	ctorID, protoID BuiltinID
	name            string
}{
	{BuiltinErrorConstructor, BuiltinErrorPrototype, "Error"},
	{BuiltinTypeErrorConstructor, BuiltinTypeErrorPrototype, "TypeError"},
	{BuiltinRangeErrorConstructor, BuiltinRangeErrorPrototype, "RangeError"},
	{BuiltinReferenceErrorConstructor, BuiltinReferenceErrorPrototype, "ReferenceError"},
	{BuiltinSyntaxErrorConstructor, BuiltinSyntaxErrorPrototype, "SyntaxError"},
	{BuiltinEvalErrorConstructor, BuiltinEvalErrorPrototype, "EvalError"},
	{BuiltinURIErrorConstructor, BuiltinURIErrorPrototype, "URIError"},
}

func (r *Realm) installErrorFamily(objProto heap.CPointer) {
	baseProto := r.CreateObject(objProto, true, KindGeneral)
	r.RegisterWellKnown(BuiltinErrorPrototype, baseProto)
	r.defineOwnPropertyRaw(baseProto, r.Strings.MagicName(), dataProp(r.Strings.MagicName(), r.Strings.Intern("Error")))
	r.defineOwnPropertyRaw(baseProto, r.Strings.MagicMessage(), dataProp(r.Strings.MagicMessage(), r.Strings.Intern("")))
	r.defineOwnPropertyRaw(baseProto, r.Strings.MagicToString(), dataProp(r.Strings.MagicToString(),
		heap.ObjectPtr(r.newNativeFunction(baseProto, "toString", 0, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if !this.IsObjectPtr() {
				return rt.Strings.Intern("Error")
			}
			name := rt.ToGoString(rt.Get(this.AsObjectPtr(), rt.Strings.MagicName()))
			msg := rt.ToGoString(rt.Get(this.AsObjectPtr(), rt.Strings.MagicMessage()))
			if msg == "" {
				return rt.Strings.Intern(name)
			}
			return rt.Strings.Intern(name + ": " + msg)
		}))))

	for _, k := range errorKinds {
		proto := baseProto
		if k.protoID != BuiltinErrorPrototype {
			proto = r.CreateObject(baseProto, true, KindGeneral)
			r.defineOwnPropertyRaw(proto, r.Strings.MagicName(), dataProp(r.Strings.MagicName(), r.Strings.Intern(k.name)))
		}
		r.RegisterWellKnown(k.protoID, proto)
		name := k.name
		protoID := k.protoID
		ctor := r.newNativeFunction(r.FunctionPrototype(), name, 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			var protoPtr heap.CPointer
			if this.IsObjectPtr() {
				protoPtr = this.AsObjectPtr()
			} else {
				protoPtr = rt.CreateObject(rt.WellKnown(protoID), true, KindGeneral)
			}
			if len(args) > 0 && !args[0].IsUndefined() {
				rt.defineOwnPropertyRaw(protoPtr, rt.Strings.MagicMessage(), dataProp(rt.Strings.MagicMessage(), rt.ToStringValue(args[0])))
			}
			return heap.ObjectPtr(protoPtr)
		})
		r.RegisterWellKnown(k.ctorID, ctor)
		r.linkCtorProto(ctor, proto)
		r.installCtorOnGlobal(name, ctor)
	}
}

func (r *Realm) installStringWrapper(objProto heap.CPointer) {
	proto := r.CreateObject(objProto, true, KindStringObject)
	r.RegisterWellKnown(BuiltinStringPrototype, proto)
	ctor := r.newNativeFunction(r.FunctionPrototype(), "String", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
		s := ""
		if len(args) > 0 {
			s = rt.ToGoString(args[0])
		}
		if !this.IsObjectPtr() {
			return rt.Strings.Intern(s)
		}
		return rt.ToObject(rt.Strings.Intern(s))
	})
	r.RegisterWellKnown(BuiltinStringConstructor, ctor)
	r.linkCtorProto(ctor, proto)
	r.installCtorOnGlobal("String", ctor)
	r.defineOwnPropertyRaw(proto, r.Strings.MagicToString(), dataProp(r.Strings.MagicToString(),
		heap.ObjectPtr(r.newNativeFunction(proto, "toString", 0, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if this.IsObjectPtr() {
				d := rt.Obj(this.AsObjectPtr())
				if d.HasPrimitive {
					return d.PrimitiveValue
				}
			}
			return rt.Strings.Intern("")
		}))))
	charAt := r.Strings.Intern("charAt")
	r.defineOwnPropertyRaw(proto, charAt, dataProp(charAt,
		heap.ObjectPtr(r.newNativeFunction(proto, "charAt", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			s := []rune(rt.ToGoString(this))
			i := 0
			if len(args) > 0 {
				i = int(rt.ToInteger(args[0]))
			}
			if i < 0 || i >= len(s) {
				return rt.Strings.Intern("")
			}
			return rt.Strings.Intern(string(s[i]))
		}))))

	r.defineOwnPropertyRaw(proto, r.Strings.MagicValueOf(), dataProp(r.Strings.MagicValueOf(),
		heap.ObjectPtr(r.newNativeFunction(proto, "valueOf", 0, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if this.IsObjectPtr() {
				d := rt.Obj(this.AsObjectPtr())
				if d.HasPrimitive {
					return d.PrimitiveValue
				}
			}
			return rt.Strings.Intern("")
		}))))

	sliceName := r.Strings.Intern("slice")
	r.defineOwnPropertyRaw(proto, sliceName, dataProp(sliceName,
		heap.ObjectPtr(r.newNativeFunction(proto, "slice", 2, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			s := []rune(rt.ToGoString(this))
			n := int64(len(s))
			start := relativeIndex(rt, args, 0, n, 0)
			end := relativeIndex(rt, args, 1, n, n)
			if end < start {
				end = start
			}
			return rt.Strings.Intern(string(s[start:end]))
		}))))

	strIndexOf := r.Strings.Intern("indexOf")
	r.defineOwnPropertyRaw(proto, strIndexOf, dataProp(strIndexOf,
		heap.ObjectPtr(r.newNativeFunction(proto, "indexOf", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			s := []rune(rt.ToGoString(this))
			needle := ""
			if len(args) > 0 {
				needle = rt.ToGoString(args[0])
			}
			start := 0
			if len(args) > 1 {
				start = int(rt.ToInteger(args[1]))
				if start < 0 {
					start = 0
				}
			}
			if start > len(s) {
				start = len(s)
			}
			idx := strings.Index(string(s[start:]), needle)
			if idx < 0 {
				return heap.Int(-1)
			}
			return heap.Int(int32(start + len([]rune(string(s[start:])[:idx]))))
		}))))

	split := r.Strings.Intern("split")
	r.defineOwnPropertyRaw(proto, split, dataProp(split,
		heap.ObjectPtr(r.newNativeFunction(proto, "split", 2, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			s := rt.ToGoString(this)
			res := rt.CreateObject(rt.ArrayPrototype(), true, KindArray)
			var parts []string
			if len(args) == 0 || args[0].IsUndefined() {
				parts = []string{s}
			} else {
				sep := rt.ToGoString(args[0])
				if sep == "" {
					for _, c := range s {
						parts = append(parts, string(c))
					}
				} else {
					parts = strings.Split(s, sep)
				}
			}
			for i, p := range parts {
				rt.Put(res, rt.Strings.Intern(strconv.Itoa(i)), rt.Strings.Intern(p), false)
			}
			rt.SetArrayLength(res, uint32(len(parts)))
			return heap.ObjectPtr(res)
		}))))

	toFixedStr := r.Strings.Intern("toFixed")
	r.defineOwnPropertyRaw(proto, toFixedStr, dataProp(toFixedStr,
		heap.ObjectPtr(r.newNativeFunction(proto, "toFixed", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			n := rt.ToNumber(rt.ToStringValue(this))
			digits := 0
			if len(args) > 0 {
				digits = int(rt.ToInteger(args[0]))
			}
			return rt.Strings.Intern(strconv.FormatFloat(n, 'f', digits, 64))
		}))))
}

func (r *Realm) installNumberWrapper(objProto heap.CPointer) {
	proto := r.CreateObject(objProto, true, KindStringObject)
	r.RegisterWellKnown(BuiltinNumberPrototype, proto)
	ctor := r.newNativeFunction(r.FunctionPrototype(), "Number", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
		n := 0.0
		if len(args) > 0 {
			n = rt.ToNumber(args[0])
		}
		v := rt.numberValue(n)
		if !this.IsObjectPtr() {
			return v
		}
		return rt.ToObject(v)
	})
	r.RegisterWellKnown(BuiltinNumberConstructor, ctor)
	r.linkCtorProto(ctor, proto)
	r.installCtorOnGlobal("Number", ctor)
	r.defineOwnPropertyRaw(proto, r.Strings.MagicToString(), dataProp(r.Strings.MagicToString(),
		heap.ObjectPtr(r.newNativeFunction(proto, "toString", 0, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			return rt.ToStringValue(rt.numberPrimitive(this))
		}))))
	r.defineOwnPropertyRaw(proto, r.Strings.MagicValueOf(), dataProp(r.Strings.MagicValueOf(),
		heap.ObjectPtr(r.newNativeFunction(proto, "valueOf", 0, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			return rt.numberPrimitive(this)
		}))))
	toFixedNum := r.Strings.Intern("toFixed")
	r.defineOwnPropertyRaw(proto, toFixedNum, dataProp(toFixedNum,
		heap.ObjectPtr(r.newNativeFunction(proto, "toFixed", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			n := rt.ToNumber(rt.numberPrimitive(this))
			digits := 0
			if len(args) > 0 {
				digits = int(rt.ToInteger(args[0]))
			}
			return rt.Strings.Intern(strconv.FormatFloat(n, 'f', digits, 64))
		}))))
}

func (r *Realm) numberValue(n float64) heap.Value {
	if n == float64(int32(n)) && n >= heap.IntMin && n <= heap.IntMax {
		return heap.Int(int32(n))
	}
	return r.Heap.NewFloat(n)
}

func (r *Realm) numberPrimitive(v heap.Value) heap.Value {
	if v.IsObjectPtr() {
		d := r.Obj(v.AsObjectPtr())
		if d.HasPrimitive {
			return d.PrimitiveValue
		}
	}
	return v
}

func (r *Realm) installBooleanWrapper(objProto heap.CPointer) {
	proto := r.CreateObject(objProto, true, KindStringObject)
	r.RegisterWellKnown(BuiltinBooleanPrototype, proto)
	ctor := r.newNativeFunction(r.FunctionPrototype(), "Boolean", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
		b := false
		if len(args) > 0 {
			b = rt.ToBoolean(args[0])
		}
		v := heap.Bool(b)
		if !this.IsObjectPtr() {
			return v
		}
		return rt.ToObject(v)
	})
	r.RegisterWellKnown(BuiltinBooleanConstructor, ctor)
	r.linkCtorProto(ctor, proto)
	r.installCtorOnGlobal("Boolean", ctor)
	r.defineOwnPropertyRaw(proto, r.Strings.MagicValueOf(), dataProp(r.Strings.MagicValueOf(),
		heap.ObjectPtr(r.newNativeFunction(proto, "valueOf", 0, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			if this.IsObjectPtr() {
				d := rt.Obj(this.AsObjectPtr())
				if d.HasPrimitive {
					return d.PrimitiveValue
				}
			}
			return this
		}))))
}

func (r *Realm) installConsole(objProto heap.CPointer) {
	console := r.CreateObject(objProto, true, KindGeneral)
	r.RegisterWellKnown(BuiltinConsole, console)
	for _, level := range []string{"log", "warn", "error"} {
		level := level
		name := r.Strings.Intern(level)
		r.defineOwnPropertyRaw(console, name, dataProp(name,
			heap.ObjectPtr(r.newNativeFunction(console, level, 0, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
				if rt.ConsoleWrite == nil {
					return heap.Undefined
				}
				parts := make([]string, len(args))
				for i, a := range args {
					parts[i] = rt.ToGoString(a)
				}
				rt.ConsoleWrite(level, strings.Join(parts, " "))
				return heap.Undefined
			}))))
	}
	r.defGlobal("console", heap.ObjectPtr(console), true)
}
