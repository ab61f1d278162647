package api

import (
	"strings"
	"testing"
	"time"

	"ecmago/pkg/config"
	"ecmago/pkg/heap"
	"ecmago/pkg/port"
)

// silentPort swallows Log/Fatal so tests don't spam stderr or exit the
// test binary on an engine fatal; fatals are instead recorded so a test
// can assert none occurred.
type silentPort struct {
	fatals []string
}

func (p *silentPort) Fatal(code, msg string)              { p.fatals = append(p.fatals, code+": "+msg) }
func (p *silentPort) Now() time.Time                       { return time.Unix(0, 0).UTC() }
func (p *silentPort) TimeZone() *time.Location             { return time.UTC }
func (p *silentPort) Log(level port.LogLevel, msg string)  {}

func newTestContext(t *testing.T) *Context {
	t.Helper()
	return Init(config.Default, &silentPort{})
}

// S1: function f(){return this.t} this.t=1; f.call({t:7})
func TestScenarioS1_FunctionCallBindsThis(t *testing.T) {
	ctx := newTestContext(t)
	v, err := ctx.Eval(`
		function f(){ return this.t; }
		this.t = 1;
		f.call({t:7});
	`, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := ctx.Realm.ToNumber(v)
	if got != 7 {
		t.Fatalf("want 7, got %v", got)
	}
}

// S2: function A(){this.t=12} (new A()).t
func TestScenarioS2_ConstructorSetsInstanceProperty(t *testing.T) {
	ctx := newTestContext(t)
	v, err := ctx.Eval(`
		function A(){ this.t = 12; }
		(new A()).t;
	`, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ctx.Realm.ToNumber(v); got != 12 {
		t.Fatalf("want 12, got %v", got)
	}
}

// S3: var b=f.bind({x:3},10); function f(a){return this.x+a} b(5)
func TestScenarioS3_BindMergesArgsAndThis(t *testing.T) {
	ctx := newTestContext(t)
	v, err := ctx.Eval(`
		var b = f.bind({x:3}, 10);
		function f(a){ return this.x + a; }
		b(5);
	`, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ctx.Realm.ToNumber(v); got != 18 {
		t.Fatalf("want 18, got %v", got)
	}
}

// S4: "use strict"; var x=1; function g(){arguments=2} g() -> SyntaxError at parse
func TestScenarioS4_StrictAssignToArgumentsIsParseError(t *testing.T) {
	ctx := newTestContext(t)
	_, err := ctx.Eval(`
		"use strict";
		var x = 1;
		function g(){ arguments = 2; }
		g();
	`, false)
	if err == nil {
		t.Fatal("expected a parse-time SyntaxError, got none")
	}
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("expected *CompileError, got %T: %v", err, err)
	}
	found := false
	for _, e := range ce.Errs {
		if e.Kind() == "Syntax" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a Syntax-kind diagnostic, got %v", ce.Errs)
	}
}

// S5: try{throw {m:"e"}}catch(e){e.m}finally{/*observed*/}
func TestScenarioS5_TryCatchFinally(t *testing.T) {
	ctx := newTestContext(t)
	v, err := ctx.Eval(`
		var ran = false;
		var result;
		try {
			throw {m:"e"};
		} catch (e) {
			result = e.m;
		} finally {
			ran = true;
		}
		result + "," + ran;
	`, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := ctx.Realm.ToGoString(v)
	if got != "e,true" {
		t.Fatalf("want %q, got %q", "e,true", got)
	}
}

// S6: a thrower getter observed via for-in propagates the throw.
func TestScenarioS6_ForInPropagatesAccessorThrow(t *testing.T) {
	ctx := newTestContext(t)
	_, err := ctx.Eval(`
		var that = {};
		Object.defineProperty(that, "k", {
			get: function(){ throw 1; },
			enumerable: true,
			configurable: true
		});
		for (var k in that) {}
	`, false)
	if err == nil {
		t.Fatal("expected the getter's throw to propagate out of for-in")
	}
	if _, ok := err.(*ScriptError); !ok {
		t.Fatalf("expected *ScriptError, got %T: %v", err, err)
	}
}

func TestEval_ReturnsUndefinedForStatementOnlyProgram(t *testing.T) {
	ctx := newTestContext(t)
	v, err := ctx.Eval(`var x = 1;`, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ctx.IsUndefined(v) {
		t.Fatalf("expected undefined, got %v", v)
	}
}

// Testable property 6: parse-then-snapshot-then-exec is observationally
// equivalent to parse-then-run for a side-effect-free top-level program.
func TestParseAndSaveSnapshot_RoundTripsObservableBehavior(t *testing.T) {
	source := `
		function add(a, b) { return a + b; }
		add(3, 4);
	`
	direct := newTestContext(t)
	directResult, err := direct.Eval(source, false)
	if err != nil {
		t.Fatalf("direct eval failed: %v", err)
	}

	snap := newTestContext(t)
	data, err := snap.ParseAndSaveSnapshot(source, "<snapshot-test>", false)
	if err != nil {
		t.Fatalf("save snapshot failed: %v", err)
	}
	snapResult, err := snap.ExecSnapshot(data, false)
	if err != nil {
		t.Fatalf("exec snapshot failed: %v", err)
	}

	wantN := direct.Realm.ToNumber(directResult)
	gotN := snap.Realm.ToNumber(snapResult)
	if wantN != gotN {
		t.Fatalf("snapshot round-trip diverged: direct=%v snapshot=%v", wantN, gotN)
	}
}

func TestCreateExternalFunction_CallableFromScript(t *testing.T) {
	ctx := newTestContext(t)
	var seen string
	fn := ctx.CreateExternalFunction("greet", 1, func(c *Context, this heap.Value, args []heap.Value) heap.Value {
		if len(args) > 0 {
			seen = c.Realm.ToGoString(args[0])
		}
		return c.CreateString("ok")
	})
	ctx.SetProperty(ctx.CreateObject(), "unused", fn) // smoke-test the value is a well-formed Value
	result, err := ctx.Call(fn, heap.Undefined, ctx.CreateString("world"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "world" {
		t.Fatalf("want native function to observe %q, got %q", "world", seen)
	}
	if got := ctx.Realm.ToGoString(result); got != "ok" {
		t.Fatalf("want %q, got %q", "ok", got)
	}
}

func TestGetSetProperty(t *testing.T) {
	ctx := newTestContext(t)
	obj := ctx.CreateObject()
	ctx.SetProperty(obj, "x", ctx.CreateNumber(42))
	got := ctx.GetProperty(obj, "x")
	if ctx.Realm.ToNumber(got) != 42 {
		t.Fatalf("want 42, got %v", got)
	}
}

func TestCreateArrayAndLength(t *testing.T) {
	ctx := newTestContext(t)
	arr := ctx.CreateArray(3)
	n, ok := ctx.GetArrayLength(arr)
	if !ok || n != 3 {
		t.Fatalf("want length 3, got %v ok=%v", n, ok)
	}
}

func TestStringSizeCountsUTF16Units(t *testing.T) {
	ctx := newTestContext(t)
	s := ctx.CreateString("hi")
	if n := ctx.GetStringSize(s); n != 2 {
		t.Fatalf("want 2, got %d", n)
	}
}

func TestForeachObjectPropertyVisitsOwnEnumerableNames(t *testing.T) {
	ctx := newTestContext(t)
	v, err := ctx.Eval(`({a:1, b:2, c:3})`, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var names []string
	ctx.ForeachObjectProperty(v, nil, func(name string, value heap.Value, user any) bool {
		names = append(names, name)
		return true
	})
	if got := strings.Join(names, ","); got != "a,b,c" {
		t.Fatalf("want a,b,c, got %s", got)
	}
}

func TestCreateErrorBuildsMatchingKind(t *testing.T) {
	ctx := newTestContext(t)
	errVal := ctx.CreateError("RangeError", "too big")
	msg := ctx.GetProperty(errVal, "message")
	if got := ctx.Realm.ToGoString(msg); got != "too big" {
		t.Fatalf("want %q, got %q", "too big", got)
	}
}
