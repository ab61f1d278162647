// Package api is the embedding surface spec §6 describes abstractly,
// concretely typed for a Go host: a Context wraps one Realm and its
// Machine, exposes parse/run/eval and the value introspection/
// construction functions, and enforces the single-goroutine-per-context
// rule of spec §5 with a panic-on-reentrancy guard rather than a mutex
// (a mutex would make misuse silently serialize instead of surfacing
// the bug).
//
// Grounded on the teacher's pkg/driver (a Session wrapping one VM plus
// convenience Run/Eval methods) and pkg/runtime/builtins.go's External-
// function registration pattern, generalized from paserati's TypeScript-
// flavored host surface down to this engine's ES5.1 C-API shape.
package api

import (
	"fmt"
	"sync/atomic"

	"ecmago/pkg/bytecode"
	"ecmago/pkg/compiler"
	"ecmago/pkg/config"
	"ecmago/pkg/errors"
	"ecmago/pkg/heap"
	"ecmago/pkg/object"
	"ecmago/pkg/port"
	"ecmago/pkg/snapshot"
	"ecmago/pkg/vm"
)

// Context is one host embedding context: spec §6's "init/cleanup"
// lifecycle object. A Context must never be driven from two goroutines
// concurrently (spec §5); Parse, Run and GC panic if they detect that
// (see enter).
type Context struct {
	Realm   *object.Realm
	Machine *vm.Machine
	Port    port.Port
	Config  config.Config

	entered int32
}

// Init builds a fresh Context with its global object/environment
// bootstrapped (Object, Function, Array, the Error family, String/
// Number/Boolean wrappers, RegExp, console — spec §4.2/A7). A nil port
// installs port.Default.
func Init(cfg config.Config, p port.Port) *Context {
	if p == nil {
		p = port.Default{}
	}
	c := &Context{Port: p, Config: cfg}
	c.Realm = object.NewRealm(func(code, msg string) { p.Fatal(code, msg) })
	c.Realm.Bootstrap()
	c.Realm.ConsoleWrite = func(level, s string) {
		switch level {
		case "warn":
			p.Log(port.LogWarn, s)
		case "error":
			p.Log(port.LogError, s)
		default:
			p.Log(port.LogInfo, s)
		}
	}
	c.Machine = vm.New(c.Realm)
	return c
}

// Cleanup releases the context's interpreter hooks. A Context is not
// reusable after Cleanup.
func (c *Context) Cleanup() {
	c.Realm.SetExtraRoots(nil)
	c.Realm.CallFunc = nil
}

// enter/leave bracket every public Context method so concurrent entry
// from two goroutines panics immediately (spec §5's "reentrancy into
// the engine ... is forbidden") instead of corrupting heap state.
func (c *Context) enter() {
	if !atomic.CompareAndSwapInt32(&c.entered, 0, 1) {
		panic("ecmago: concurrent entry into one api.Context from two goroutines")
	}
}
func (c *Context) leave() { atomic.StoreInt32(&c.entered, 0) }

// CompileError wraps the diagnostics a failed Parse produced.
type CompileError struct {
	Errs []errors.EngineError
}

func (e *CompileError) Error() string {
	if len(e.Errs) == 0 {
		return "compile error"
	}
	return e.Errs[0].Error()
}

// ScriptError wraps a script-level thrown value (spec §7's "language
// level completion") surfaced to the host as a Go error.
type ScriptError struct {
	Value heap.Value
	realm *object.Realm
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("uncaught exception: %s", e.realm.ToGoString(e.Value.ClearError()))
}

// Parse implements spec §6's parse(source, len, is_strict).
func (c *Context) Parse(source, filename string, strict bool) (*bytecode.CompiledCode, error) {
	c.enter()
	defer c.leave()
	code, errs := compiler.CompileProgram(source, filename, strict || c.Config.Engine.StrictByDefault)
	if len(errs) > 0 {
		return nil, &CompileError{Errs: errs}
	}
	return code, nil
}

// Run implements spec §6's run(compiled_code).
func (c *Context) Run(code *bytecode.CompiledCode) (heap.Value, error) {
	c.enter()
	defer c.leave()
	return c.completion(c.Machine.Run(code))
}

// Eval implements spec §6's eval(source, len, is_strict): parse then
// run in one step, surfacing either a CompileError or a ScriptError.
func (c *Context) Eval(source string, strict bool) (heap.Value, error) {
	code, err := c.Parse(source, "<eval>", strict)
	if err != nil {
		return heap.Undefined, err
	}
	return c.Run(code)
}

// ParseAndSaveSnapshot implements spec §6's
// parse_and_save_snapshot(source, len, global_or_eval, strict, out_buffer).
func (c *Context) ParseAndSaveSnapshot(source, filename string, strict bool) ([]byte, error) {
	code, err := c.Parse(source, filename, strict)
	if err != nil {
		return nil, err
	}
	return snapshot.ToBytes(code)
}

// ExecSnapshot implements spec §6's exec_snapshot(buffer, size,
// copy_bytecode). copyBytecode is accepted for interface fidelity with
// the abstract surface; this engine's CompiledCode is always Go-heap
// owned once decoded (unlike a host-mmapped buffer), so there is no
// distinct zero-copy path to choose between.
func (c *Context) ExecSnapshot(data []byte, copyBytecode bool) (heap.Value, error) {
	_ = copyBytecode
	code, err := snapshot.FromBytes(data)
	if err != nil {
		return heap.Undefined, err
	}
	return c.Run(code)
}

func (c *Context) completion(v heap.Value) (heap.Value, error) {
	if v.IsError() {
		pending, _ := c.Realm.PendingError()
		c.Realm.ClearError()
		return heap.Undefined, &ScriptError{Value: pending, realm: c.Realm}
	}
	return v, nil
}

// GC implements spec §6's gc(): one explicit mark-sweep pass over the
// context's root set (spec §4.3).
func (c *Context) GC() {
	c.enter()
	defer c.leave()
	c.Realm.CollectGarbage()
}
