package heap

import "ecmago/pkg/errors"

// MaxSlots bounds a single arena to what a CPointer can address while
// still fitting the 512 KiB / 8-byte-alignment budget from spec §3:
// 512*1024/8 = 65536 slots, slot 0 reserved as the null sentinel.
const MaxSlots = 1 << 16

// GCColor is the tri-color mark used by Sweep.
type GCColor uint8

const (
	White GCColor = iota // candidate for collection
	Gray                 // reachable, children not yet scanned
	Black                // reachable, fully scanned
)

// slot is one arena entry: a payload plus the bookkeeping the GC
// contract (spec §4.3) requires — a saturating reference count and a
// tri-color mark used only during Sweep.
type slot[T any] struct {
	value    T
	refcount uint32
	color    GCColor
	visited  bool // GC "visited" flag distinct from color, per spec §3 object flags
	live     bool
}

const refcountMax = ^uint32(0)

// Arena is a generic compact-pointer heap for one value kind (floats,
// strings, or objects). Slot 0 is never allocated so its zero CPointer
// value can serve as the null sentinel.
type Arena[T any] struct {
	slots   []slot[T]
	freeList []CPointer
	onFatal func(code, msg string)
}

func newArena[T any](onFatal func(string, string)) *Arena[T] {
	a := &Arena[T]{onFatal: onFatal}
	a.slots = make([]slot[T], 1) // reserve slot 0
	return a
}

// NewArena builds an arena for a value kind defined outside this
// package (pkg/object's Data, in particular) under the same fatal hook
// as the rest of a Heap.
func NewArena[T any](fatal FatalHandler) *Arena[T] {
	return newArena[T](fatal)
}

// Alloc stores value in a fresh or recycled slot with refcount 1 and
// returns its compact pointer.
func (a *Arena[T]) Alloc(value T) CPointer {
	if n := len(a.freeList); n > 0 {
		p := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		a.slots[p] = slot[T]{value: value, refcount: 1, live: true}
		return p
	}
	if len(a.slots) >= MaxSlots {
		a.fatal("ERR_OUT_OF_MEMORY", "compact-pointer arena exhausted")
		return 0
	}
	a.slots = append(a.slots, slot[T]{value: value, refcount: 1, live: true})
	return CPointer(len(a.slots) - 1)
}

func (a *Arena[T]) fatal(code, msg string) {
	if a.onFatal != nil {
		a.onFatal(code, msg)
	}
}

// Get dereferences p. The null pointer (0) dereferences to the zero
// value; callers that allow null must check p != 0 first if that
// matters semantically.
func (a *Arena[T]) Get(p CPointer) T {
	if int(p) >= len(a.slots) || !a.slots[p].live {
		var zero T
		return zero
	}
	return a.slots[p].value
}

// Set overwrites the value stored at p without touching its refcount.
func (a *Arena[T]) Set(p CPointer, value T) {
	if int(p) < len(a.slots) && a.slots[p].live {
		a.slots[p].value = value
	}
}

// Ref increments p's reference count (saturating per spec §4.3); on
// overflow the engine signals the fatal ERR_REF_COUNT_LIMIT.
func (a *Arena[T]) Ref(p CPointer) {
	if p == 0 || int(p) >= len(a.slots) || !a.slots[p].live {
		return
	}
	s := &a.slots[p]
	if s.refcount == refcountMax {
		a.fatal("ERR_REF_COUNT_LIMIT", "reference count saturated")
		return
	}
	s.refcount++
}

// Deref decrements p's reference count. Outside an active mark phase, a
// count reaching zero frees the slot immediately (the refcounting fast
// path); during a mark phase the slot is left for Sweep to judge, since
// it may be revived as reachable from a cycle (spec §4.3).
func (a *Arena[T]) Deref(p CPointer, markPhaseActive bool, finalize func(T)) {
	if p == 0 || int(p) >= len(a.slots) || !a.slots[p].live {
		return
	}
	s := &a.slots[p]
	if s.refcount > 0 {
		s.refcount--
	}
	if s.refcount == 0 && !markPhaseActive {
		a.free(p, finalize)
	}
}

func (a *Arena[T]) free(p CPointer, finalize func(T)) {
	s := &a.slots[p]
	if !s.live {
		return
	}
	if finalize != nil {
		finalize(s.value)
	}
	var zero T
	s.value = zero
	s.live = false
	s.color = White
	s.visited = false
	a.freeList = append(a.freeList, p)
}

// Mark sets p's color, used by the tracing pass over the root set.
func (a *Arena[T]) Mark(p CPointer, c GCColor) {
	if p == 0 || int(p) >= len(a.slots) || !a.slots[p].live {
		return
	}
	a.slots[p].color = c
}

func (a *Arena[T]) Color(p CPointer) GCColor {
	if int(p) >= len(a.slots) {
		return White
	}
	return a.slots[p].color
}

// SweepWhite frees every live, white slot (unreached by the mark pass),
// invoking finalize on each before the slot is recycled, and resets the
// survivors back to white for the next cycle.
func (a *Arena[T]) SweepWhite(finalize func(T)) {
	for p := CPointer(1); int(p) < len(a.slots); p++ {
		s := &a.slots[p]
		if !s.live {
			continue
		}
		if s.color == White {
			a.free(p, finalize)
		} else {
			s.color = White
		}
	}
}

// Len reports the number of live slots, for diagnostics.
func (a *Arena[T]) Len() int {
	n := 0
	for p := 1; p < len(a.slots); p++ {
		if a.slots[p].live {
			n++
		}
	}
	return n
}

// FatalHandler is the host port hook the collector calls into on an
// invariant violation or exhaustion — see pkg/port.
type FatalHandler func(code, msg string)

// Heap owns the three typed arenas (floats, strings, objects) backing
// Value's compact pointers, plus the collector's mark-phase flag.
type Heap struct {
	Floats  *Arena[float64]
	Strings *Arena[string]

	markActive bool
	fatal      FatalHandler
}

// New creates a Heap whose fatal hook is called on allocation failure
// or refcount overflow. The caller (pkg/object) attaches the object
// arena separately since Object is defined one layer up.
func New(fatal FatalHandler) *Heap {
	h := &Heap{fatal: fatal}
	h.Floats = newArena[float64](fatal)
	h.Strings = newArena[string](fatal)
	return h
}

func (h *Heap) Fatal(code, msg string) {
	if h.fatal != nil {
		h.fatal(code, msg)
	}
}

// MarkPhaseActive reports whether a collection's trace phase is
// currently in progress, per the Deref contract in spec §4.3.
func (h *Heap) MarkPhaseActive() bool { return h.markActive }

// BeginMark / EndMark bracket the tracing pass. The object arena (owned
// by pkg/object) calls these around its own Mark/Sweep orchestration so
// that Floats/Strings Deref calls triggered while unwinding a freed
// object's properties defer to Sweep instead of freeing mid-trace.
func (h *Heap) BeginMark() { h.markActive = true }
func (h *Heap) EndMark()   { h.markActive = false }

// NewFloat boxes f onto the heap and returns a Value.
func (h *Heap) NewFloat(f float64) Value {
	return FloatPtr(h.Floats.Alloc(f))
}

func (h *Heap) Float(v Value) float64 {
	if !v.IsFloatPtr() {
		return 0
	}
	return h.Floats.Get(v.AsFloatPtr())
}

// NewString heap-allocates s and returns a Value. Short, statically
// known strings should instead go through pkg/strtab and MagicString.
func (h *Heap) NewString(s string) Value {
	return StringPtr(h.Strings.Alloc(s))
}

func (h *Heap) String(v Value, magic func(uint32) string) string {
	switch {
	case v.IsStringPtr():
		return h.Strings.Get(v.AsStringPtr())
	case v.IsMagicString():
		if magic != nil {
			return magic(v.AsMagicString())
		}
	}
	return ""
}

// Copy increments the refcount backing v, if any, and returns v
// unchanged — the caller now owns an independent reference (spec §4.1,
// testable property 1).
func (h *Heap) Copy(v Value, objRef func(CPointer)) Value {
	switch {
	case v.IsFloatPtr():
		h.Floats.Ref(v.AsFloatPtr())
	case v.IsStringPtr():
		h.Strings.Ref(v.AsStringPtr())
	case v.IsObjectPtr():
		if objRef != nil {
			objRef(v.AsObjectPtr())
		}
	}
	return v
}

// Free decrements the refcount backing v, if any.
func (h *Heap) Free(v Value, objDeref func(CPointer)) {
	switch {
	case v.IsFloatPtr():
		h.Floats.Deref(v.AsFloatPtr(), h.markActive, nil)
	case v.IsStringPtr():
		h.Strings.Deref(v.AsStringPtr(), h.markActive, nil)
	case v.IsObjectPtr():
		if objDeref != nil {
			objDeref(v.AsObjectPtr())
		}
	}
}

// FatalCode mirrors the exit codes named in spec §6.
const (
	ErrOutOfMemory             = "ERR_OUT_OF_MEMORY"
	ErrSyscall                 = "ERR_SYSCALL"
	ErrRefCountLimit           = "ERR_REF_COUNT_LIMIT"
	ErrUnimplementedCase       = "ERR_UNIMPLEMENTED_CASE"
	ErrFailedInternalAssertion = "ERR_FAILED_INTERNAL_ASSERTION"
)

// AssertLive panics with a FatalError-shaped message; used internally
// when an invariant the collector promises (spec §3 invariants) is
// found broken. The host port's Fatal hook is expected to terminate the
// process rather than let this propagate as a catchable error.
func AssertLive(cond bool, msg string) {
	if !cond {
		panic(&errors.FatalError{Code: ErrFailedInternalAssertion, Msg: msg})
	}
}
