// RegExp's object-model side: the constructor, literal instantiation,
// and the test/exec methods. The actual pattern compilation and
// matching is delegated through Realm.RegexpExec to pkg/jsregexp (a
// dlclark/regexp2 wrapper), set up by pkg/vm/pkg/api at realm
// construction — this package only shapes the ECMA-262 15.10 object
// surface around that callback.
package object

import (
	"strconv"

	"ecmago/pkg/heap"
)

func (r *Realm) installRegExp(objProto heap.CPointer) {
	proto := r.CreateObject(objProto, true, KindGeneral)
	r.RegisterWellKnown(BuiltinRegExpPrototype, proto)
	ctor := r.newNativeFunction(r.FunctionPrototype(), "RegExp", 2, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
		source, flags := "", ""
		if len(args) > 0 {
			if args[0].IsObjectPtr() {
				d := rt.Obj(args[0].AsObjectPtr())
				if d.Regexp != nil {
					source, flags = d.Regexp.Source, d.Regexp.Flags
				}
			} else {
				source = rt.ToGoString(args[0])
			}
		}
		if len(args) > 1 && !args[1].IsUndefined() {
			flags = rt.ToGoString(args[1])
		}
		return heap.ObjectPtr(rt.NewRegExp(source, flags))
	})
	r.RegisterWellKnown(BuiltinRegExpConstructor, ctor)
	r.linkCtorProto(ctor, proto)
	r.installCtorOnGlobal("RegExp", ctor)

	test := r.Strings.Intern("test")
	r.defineOwnPropertyRaw(proto, test, dataProp(test,
		heap.ObjectPtr(r.newNativeFunction(proto, "test", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			_, matched := rt.execRegexp(this, args)
			return heap.Bool(matched)
		}))))
	exec := r.Strings.Intern("exec")
	r.defineOwnPropertyRaw(proto, exec, dataProp(exec,
		heap.ObjectPtr(r.newNativeFunction(proto, "exec", 1, func(rt *Realm, this heap.Value, args []heap.Value) heap.Value {
			result, matched := rt.execRegexp(this, args)
			if !matched {
				return heap.Null
			}
			return result
		}))))
}

// NewRegExp constructs a RegExp object bound to the given source/flags;
// the compiler emits an OpMakeObject-style call to this for /pattern/
// flag literals once per literal-pool entry's first evaluation.
func (r *Realm) NewRegExp(source, flags string) heap.CPointer {
	p := r.CreateObject(r.RegExpPrototype(), true, KindGeneral)
	d := r.Obj(p)
	d.Regexp = &RegexpRecord{Source: source, Flags: flags}
	r.setObj(p, d)
	r.defineOwnPropertyRaw(p, r.Strings.MagicSource(), dataProp(r.Strings.MagicSource(), r.Strings.Intern(source)))
	r.defineOwnPropertyRaw(p, r.Strings.MagicGlobal(), dataProp(r.Strings.MagicGlobal(), heap.Bool(containsRune(flags, 'g'))))
	r.defineOwnPropertyRaw(p, r.Strings.MagicIgnoreCase(), dataProp(r.Strings.MagicIgnoreCase(), heap.Bool(containsRune(flags, 'i'))))
	r.defineOwnPropertyRaw(p, r.Strings.MagicMultiline(), dataProp(r.Strings.MagicMultiline(), heap.Bool(containsRune(flags, 'm'))))
	r.defineOwnPropertyRaw(p, r.Strings.MagicLastIndex(), Property{Name: r.Strings.MagicLastIndex(), Attrs: Attrs{Writable: true}, Value: heap.Int(0)})
	return p
}

func containsRune(s string, c rune) bool {
	for _, r := range s {
		if r == c {
			return true
		}
	}
	return false
}

func (r *Realm) execRegexp(this heap.Value, args []heap.Value) (heap.Value, bool) {
	if !this.IsObjectPtr() || r.RegexpExec == nil {
		return heap.Undefined, false
	}
	obj := this.AsObjectPtr()
	d := r.Obj(obj)
	if d.Regexp == nil {
		return heap.Undefined, false
	}
	input := ""
	if len(args) > 0 {
		input = r.ToGoString(args[0])
	}
	lastIndex := 0
	if containsRune(d.Regexp.Flags, 'g') {
		lastIndex = int(r.ToInteger(r.Get(obj, r.Strings.MagicLastIndex())))
	}
	idx, groups, matched := r.RegexpExec(d.Regexp.Source, d.Regexp.Flags, input, lastIndex)
	if !matched {
		if containsRune(d.Regexp.Flags, 'g') {
			r.Put(obj, r.Strings.MagicLastIndex(), heap.Int(0), false)
		}
		return heap.Undefined, false
	}
	if containsRune(d.Regexp.Flags, 'g') {
		r.Put(obj, r.Strings.MagicLastIndex(), heap.Int(int32(idx+len(groups[0]))), false)
	}
	arr := r.CreateObject(r.ArrayPrototype(), true, KindArray)
	for i, g := range groups {
		iv := r.Strings.Intern(strconv.Itoa(i))
		r.Put(arr, iv, r.Strings.Intern(g), false)
	}
	ad := r.Obj(arr)
	ad.ArrayLength = uint32(len(groups))
	r.setObj(arr, ad)
	r.Put(arr, r.Strings.MagicIndex(), heap.Int(int32(idx)), false)
	r.Put(arr, r.Strings.MagicInput(), r.Strings.Intern(input), false)
	return heap.ObjectPtr(arr), true
}

