package heap

import "testing"

func TestValue_IntRoundTrip(t *testing.T) {
	for _, n := range []int32{0, 1, -1, IntMin, IntMax, 12345, -12345} {
		v := Int(n)
		if !v.IsInt() {
			t.Fatalf("Int(%d) not tagged as int", n)
		}
		if got := v.AsInt(); got != n {
			t.Fatalf("Int(%d) round-tripped as %d", n, got)
		}
	}
}

func TestValue_ErrorBitIndependentOfTag(t *testing.T) {
	v := Int(7).WithError()
	if !v.IsError() {
		t.Fatal("expected WithError to set the abrupt-completion bit")
	}
	if !v.IsInt() {
		t.Fatal("error bit must not disturb the int tag")
	}
	if v.AsInt() != 7 {
		t.Fatalf("error-flagged int payload corrupted: got %d", v.AsInt())
	}
	cleared := v.ClearError()
	if cleared.IsError() {
		t.Fatal("ClearError did not clear the bit")
	}
}

func TestValue_Sentinels(t *testing.T) {
	cases := []struct {
		v    Value
		pred func(Value) bool
	}{
		{Undefined, Value.IsUndefined},
		{Null, Value.IsNull},
		{True, Value.IsTrue},
		{False, Value.IsFalse},
		{Empty, Value.IsEmpty},
		{Hole, Value.IsHole},
	}
	for _, c := range cases {
		if !c.pred(c.v) {
			t.Fatalf("sentinel %v failed its own predicate", c.v)
		}
	}
	if !Bool(true).IsTrue() || !Bool(false).IsFalse() {
		t.Fatal("Bool constructor mismatched True/False")
	}
}

func TestValue_StrictEquals(t *testing.T) {
	ok, eq := StrictEquals(Int(5), Int(5))
	if !ok || !eq {
		t.Fatal("expected 5 === 5 to be decidable and true")
	}
	ok, eq = StrictEquals(Int(5), Int(6))
	if !ok || eq {
		t.Fatal("expected 5 === 6 to be decidable and false")
	}
	ok, eq = StrictEquals(Undefined, Null)
	if !ok || eq {
		t.Fatal("expected undefined === null to be decidable and false")
	}
	ok, _ = StrictEquals(FloatPtr(1), FloatPtr(1))
	if ok {
		t.Fatal("float/float comparison needs heap-aware equality, not the primitive fast path")
	}
}

func TestArena_AllocGetSet(t *testing.T) {
	a := NewArena[string](nil)
	p := a.Alloc("hello")
	if got := a.Get(p); got != "hello" {
		t.Fatalf("want %q, got %q", "hello", got)
	}
	a.Set(p, "world")
	if got := a.Get(p); got != "world" {
		t.Fatalf("want %q, got %q", "world", got)
	}
}

func TestArena_NullPointerDereferencesToZero(t *testing.T) {
	a := NewArena[string](nil)
	if got := a.Get(0); got != "" {
		t.Fatalf("null pointer should deref to the zero value, got %q", got)
	}
}

func TestArena_RefcountFreesAtZero(t *testing.T) {
	a := NewArena[string](nil)
	p := a.Alloc("x")
	finalized := false
	a.Deref(p, false, func(string) { finalized = true })
	if !finalized {
		t.Fatal("expected refcount to drop to zero and finalize immediately")
	}
	if got := a.Get(p); got != "" {
		t.Fatal("slot should read back as zero value after being freed")
	}
}

func TestArena_RefExtendsLifetime(t *testing.T) {
	a := NewArena[string](nil)
	p := a.Alloc("x")
	a.Ref(p) // refcount now 2
	a.Deref(p, false, nil)
	if got := a.Get(p); got != "x" {
		t.Fatal("value should survive one Deref after an extra Ref")
	}
	a.Deref(p, false, nil)
	if got := a.Get(p); got != "" {
		t.Fatal("value should be freed after the matching second Deref")
	}
}

func TestArena_DerefDuringMarkPhaseDoesNotFree(t *testing.T) {
	a := NewArena[string](nil)
	p := a.Alloc("x")
	a.Deref(p, true, nil)
	if got := a.Get(p); got != "x" {
		t.Fatal("a zero-count slot must survive Deref while a mark phase is active")
	}
}

func TestArena_FreeListRecyclesSlots(t *testing.T) {
	a := NewArena[string](nil)
	p1 := a.Alloc("a")
	a.Deref(p1, false, nil)
	p2 := a.Alloc("b")
	if p2 != p1 {
		t.Fatalf("expected freed slot %d to be recycled, got new slot %d", p1, p2)
	}
}

func TestArena_MarkAndSweepWhite(t *testing.T) {
	a := NewArena[string](nil)
	live := a.Alloc("keep")
	garbage := a.Alloc("drop")
	a.Mark(live, Black)
	var finalized []string
	a.SweepWhite(func(v string) { finalized = append(finalized, v) })
	if len(finalized) != 1 || finalized[0] != "drop" {
		t.Fatalf("expected only the unmarked slot to be swept, got %v", finalized)
	}
	if got := a.Get(live); got != "keep" {
		t.Fatal("marked slot must survive sweep")
	}
	if got := a.Get(garbage); got != "" {
		t.Fatal("unmarked slot must be freed")
	}
}

func TestArena_LenCountsLiveSlotsOnly(t *testing.T) {
	a := NewArena[string](nil)
	a.Alloc("a")
	p := a.Alloc("b")
	a.Deref(p, false, nil)
	if got := a.Len(); got != 1 {
		t.Fatalf("want 1 live slot, got %d", got)
	}
}

func TestHeap_FloatAndStringRoundTrip(t *testing.T) {
	h := New(nil)
	fv := h.NewFloat(3.5)
	if h.Float(fv) != 3.5 {
		t.Fatalf("want 3.5, got %v", h.Float(fv))
	}
	sv := h.NewString("abc")
	if h.String(sv, nil) != "abc" {
		t.Fatalf("want %q, got %q", "abc", h.String(sv, nil))
	}
}

func TestHeap_FatalCalledOnRefcountSaturation(t *testing.T) {
	var gotCode string
	h := New(func(code, msg string) { gotCode = code })
	p := h.Strings.Alloc("x")
	h.Strings.slots[p].refcount = refcountMax
	h.Strings.Ref(p)
	if gotCode != ErrRefCountLimit {
		t.Fatalf("want %s, got %q", ErrRefCountLimit, gotCode)
	}
}

func TestAssertLive_PanicsOnFalse(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected AssertLive(false, ...) to panic")
		}
	}()
	AssertLive(false, "invariant broken")
}
