package api

import (
	"ecmago/pkg/heap"
	"ecmago/pkg/object"
)

// Value introspection (spec §6). These are thin, panic-free wrappers
// over pkg/heap.Value's own predicates plus pkg/object's conversions —
// the point of this layer is a stable, host-facing name for each
// operation, not new logic.

func (c *Context) IsUndefined(v heap.Value) bool { return v.IsUndefined() }
func (c *Context) IsNull(v heap.Value) bool      { return v.IsNull() }
func (c *Context) IsBoolean(v heap.Value) bool   { return v.IsBoolean() }
func (c *Context) IsNumber(v heap.Value) bool    { return v.IsNumber() }
func (c *Context) IsString(v heap.Value) bool    { return v.IsString() }
func (c *Context) IsObject(v heap.Value) bool    { return v.IsObjectPtr() }
func (c *Context) IsFunction(v heap.Value) bool {
	return v.IsObjectPtr() && c.Realm.Obj(v.AsObjectPtr()).Kind.IsFunction()
}
func (c *Context) IsArray(v heap.Value) bool {
	return v.IsObjectPtr() && c.Realm.Obj(v.AsObjectPtr()).Kind == object.KindArray
}
func (c *Context) IsError(v heap.Value) bool { return v.IsError() }

// GetNumber implements spec §6's get_number.
func (c *Context) GetNumber(v heap.Value) float64 { return c.Realm.ToNumber(v) }

// GetBoolean implements spec §6's get_boolean.
func (c *Context) GetBoolean(v heap.Value) bool { return c.Realm.ToBoolean(v) }

// StringToCharBuffer implements spec §6's string_to_char_buffer.
func (c *Context) StringToCharBuffer(v heap.Value) []byte {
	return []byte(c.Realm.ToGoString(v))
}

// GetStringSize implements spec §6's get_string_size: the UTF-16 code
// unit count ECMA-262's String.prototype.length uses, not the UTF-8
// byte length StringToCharBuffer returns.
func (c *Context) GetStringSize(v heap.Value) int {
	s := c.Realm.ToGoString(v)
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2 // surrogate pair
		} else {
			n++
		}
	}
	return n
}

// GetArrayLength implements spec §6's get_array_length.
func (c *Context) GetArrayLength(v heap.Value) (int, bool) {
	if !c.IsArray(v) {
		return 0, false
	}
	return int(c.Realm.Obj(v.AsObjectPtr()).ArrayLength), true
}

func toPropName(c *Context, name string) heap.Value { return c.Realm.Strings.Intern(name) }

// GetProperty implements spec §6's get_property.
func (c *Context) GetProperty(obj heap.Value, name string) heap.Value {
	if !obj.IsObjectPtr() {
		return c.Realm.ThrowTypeError("get_property: not an object")
	}
	return c.Realm.Get(obj.AsObjectPtr(), toPropName(c, name))
}

// SetProperty implements spec §6's set_property.
func (c *Context) SetProperty(obj heap.Value, name string, value heap.Value) heap.Value {
	if !obj.IsObjectPtr() {
		return c.Realm.ThrowTypeError("set_property: not an object")
	}
	return c.Realm.Put(obj.AsObjectPtr(), toPropName(c, name), value, false)
}

// GetPropertyByIndex implements spec §6's get_property_by_index.
func (c *Context) GetPropertyByIndex(obj heap.Value, index uint32) heap.Value {
	if !obj.IsObjectPtr() {
		return c.Realm.ThrowTypeError("get_property_by_index: not an object")
	}
	return c.Realm.Get(obj.AsObjectPtr(), c.Realm.Strings.Intern(indexKey(index)))
}

// SetPropertyByIndex implements spec §6's set_property_by_index.
func (c *Context) SetPropertyByIndex(obj heap.Value, index uint32, value heap.Value) heap.Value {
	if !obj.IsObjectPtr() {
		return c.Realm.ThrowTypeError("set_property_by_index: not an object")
	}
	return c.Realm.Put(obj.AsObjectPtr(), c.Realm.Strings.Intern(indexKey(index)), value, false)
}

func indexKey(i uint32) string {
	buf := make([]byte, 0, 10)
	return string(appendUint(buf, uint64(i)))
}

func appendUint(buf []byte, v uint64) []byte {
	if v == 0 {
		return append(buf, '0')
	}
	var tmp [20]byte
	i := len(tmp)
	for v > 0 {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
	}
	return append(buf, tmp[i:]...)
}

// PropertyDescriptor mirrors ECMA-262 8.10's Property Descriptor record
// for the embedding API's get_own_property_descriptor/define_own_property.
type PropertyDescriptor struct {
	Value        heap.Value
	Get          heap.Value
	Set          heap.Value
	Writable     bool
	Enumerable   bool
	Configurable bool
	IsAccessor   bool
}

// DefineOwnProperty implements spec §6's define_own_property.
func (c *Context) DefineOwnProperty(obj heap.Value, name string, desc PropertyDescriptor, throwOnFail bool) heap.Value {
	if !obj.IsObjectPtr() {
		return c.Realm.ThrowTypeError("define_own_property: not an object")
	}
	prop := object.Property{
		Name: toPropName(c, name),
		Attrs: object.Attrs{
			Writable:     desc.Writable,
			Enumerable:   desc.Enumerable,
			Configurable: desc.Configurable,
			Accessor:     desc.IsAccessor,
		},
	}
	if desc.IsAccessor {
		if desc.Get.IsObjectPtr() {
			prop.Getter = desc.Get.AsObjectPtr()
		}
		if desc.Set.IsObjectPtr() {
			prop.Setter = desc.Set.AsObjectPtr()
		}
	} else {
		prop.Value = desc.Value
	}
	return c.Realm.DefineOwnProperty(obj.AsObjectPtr(), toPropName(c, name), prop, throwOnFail)
}

// GetOwnPropertyDescriptor implements spec §6's
// get_own_property_descriptor.
func (c *Context) GetOwnPropertyDescriptor(obj heap.Value, name string) (PropertyDescriptor, bool) {
	if !obj.IsObjectPtr() {
		return PropertyDescriptor{}, false
	}
	prop, ok := c.Realm.GetOwnProperty(obj.AsObjectPtr(), toPropName(c, name))
	if !ok {
		return PropertyDescriptor{}, false
	}
	return PropertyDescriptor{
		Value:        prop.Value,
		Get:          pointerOrUndefined(prop.Getter),
		Set:          pointerOrUndefined(prop.Setter),
		Writable:     prop.Attrs.Writable,
		Enumerable:   prop.Attrs.Enumerable,
		Configurable: prop.Attrs.Configurable,
		IsAccessor:   prop.Attrs.Accessor,
	}, true
}

func pointerOrUndefined(p heap.CPointer) heap.Value {
	if p == 0 {
		return heap.Undefined
	}
	return heap.ObjectPtr(p)
}

// ForeachObjectProperty implements spec §6's
// foreach_object_property(obj, callback, user): invokes callback with
// each own-enumerable property name/value pair in for-in order, user
// threaded through unchanged. callback returns false to stop early.
func (c *Context) ForeachObjectProperty(obj heap.Value, user any, callback func(name string, value heap.Value, user any) bool) {
	if !obj.IsObjectPtr() {
		return
	}
	ptr := obj.AsObjectPtr()
	for _, name := range c.Realm.Enumerate(ptr) {
		v := c.Realm.Get(ptr, name)
		if !callback(c.Realm.ToGoString(name), v, user) {
			return
		}
	}
}

// GetPrototype implements spec §6's get_prototype.
func (c *Context) GetPrototype(obj heap.Value) heap.Value {
	if !obj.IsObjectPtr() {
		return heap.Null
	}
	p := c.Realm.Obj(obj.AsObjectPtr()).Proto
	if p == 0 {
		return heap.Null
	}
	return heap.ObjectPtr(p)
}

// SetPrototype implements spec §6's set_prototype.
func (c *Context) SetPrototype(obj heap.Value, proto heap.Value) heap.Value {
	if !obj.IsObjectPtr() {
		return c.Realm.ThrowTypeError("set_prototype: not an object")
	}
	var protoPtr heap.CPointer
	if proto.IsObjectPtr() {
		protoPtr = proto.AsObjectPtr()
	} else if !proto.IsNull() {
		return c.Realm.ThrowTypeError("prototype must be an object or null")
	}
	c.Realm.MutateObject(obj.AsObjectPtr(), func(d *object.Data) { d.Proto = protoPtr })
	return heap.Undefined
}

// --- Value construction (spec §6) ---

// CreateNumber implements spec §6's create_number.
func (c *Context) CreateNumber(n float64) heap.Value { return c.Realm.NumberValue(n) }

// CreateBoolean implements spec §6's create_boolean.
func (c *Context) CreateBoolean(b bool) heap.Value { return heap.Bool(b) }

// CreateString implements spec §6's create_string.
func (c *Context) CreateString(s string) heap.Value { return c.Realm.Strings.Intern(s) }

// CreateObject implements spec §6's create_object: a plain object
// whose prototype is Object.prototype, extensible.
func (c *Context) CreateObject() heap.Value {
	return heap.ObjectPtr(c.Realm.CreateObject(c.Realm.ObjectPrototype(), true, object.KindGeneral))
}

// CreateArray implements spec §6's create_array(len).
func (c *Context) CreateArray(length int) heap.Value {
	p := c.Realm.CreateObject(c.Realm.ArrayPrototype(), true, object.KindArray)
	if length > 0 {
		c.Realm.SetArrayLength(p, uint32(length))
	}
	return heap.ObjectPtr(p)
}

// CreateError implements spec §6's create_error(kind, msg).
func (c *Context) CreateError(kind, message string) heap.Value {
	return c.Realm.NewError(kind, message)
}

// CreateExternalFunction implements spec §6's
// create_external_function(native_entry).
func (c *Context) CreateExternalFunction(name string, length int, native func(ctx *Context, this heap.Value, args []heap.Value) heap.Value) heap.Value {
	wrapped := func(r *object.Realm, this heap.Value, args []heap.Value) heap.Value {
		return native(c, this, args)
	}
	return heap.ObjectPtr(c.Realm.NewExternalFunction(name, length, wrapped))
}

// --- Lifetime (spec §6) ---

// AcquireValue implements spec §6's acquire_value.
func (c *Context) AcquireValue(v heap.Value) heap.Value { return c.Realm.RefValue(v) }

// ReleaseValue implements spec §6's release_value.
func (c *Context) ReleaseValue(v heap.Value) { c.Realm.DerefValue(v) }

// --- Native-handle slot (spec §6) ---

// SetObjectNativeHandle implements spec §6's set_object_native_handle.
// Installing a new handle replaces the previous binding without
// invoking its free callback — the embedder owns that transition.
func (c *Context) SetObjectNativeHandle(obj heap.Value, handle interface{}, freeCB func(interface{})) {
	if !obj.IsObjectPtr() {
		return
	}
	c.Realm.MutateObject(obj.AsObjectPtr(), func(d *object.Data) {
		d.NativeHandle = handle
		d.NativeHandleFree = freeCB
	})
}

// GetObjectNativeHandle implements spec §6's get_object_native_handle.
func (c *Context) GetObjectNativeHandle(obj heap.Value) (interface{}, bool) {
	if !obj.IsObjectPtr() {
		return nil, false
	}
	d := c.Realm.Obj(obj.AsObjectPtr())
	if d.NativeHandle == nil {
		return nil, false
	}
	return d.NativeHandle, true
}

// Call invokes [[Call]] on fn with the given this/args — the embedding
// surface's route into C7 for a host that obtained a function Value
// from script (e.g. a callback property) rather than creating one
// itself via CreateExternalFunction.
func (c *Context) Call(fn heap.Value, this heap.Value, args ...heap.Value) (heap.Value, error) {
	c.enter()
	defer c.leave()
	if !fn.IsObjectPtr() {
		return c.completion(c.Realm.ThrowTypeError("value is not callable"))
	}
	return c.completion(c.Machine.Call(c.Realm, fn.AsObjectPtr(), this, args))
}
