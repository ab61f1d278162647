// Package bytecode defines the compiled instruction set (C4): opcodes,
// their (pops, pushes, literal-argument) signature, and the compiled-code
// blob the compiler (pkg/compiler) emits and the interpreter (pkg/vm)
// runs. A CompiledCode is also the unit the snapshot codec (pkg/snapshot)
// serializes.
//
// Grounded on jerry-core/parser/js/js-parser-internal.h and vm/vm.c's
// opcode table (see _examples/original_source/jerry-core), reshaped into
// a flat byte stream with a Go-side symbolic Op enum rather than the
// original's packed C bitfields.
package bytecode

import "ecmago/pkg/heap"

// Op is one instruction opcode, grouped per spec §4.4.
type Op uint8

const (
	// Push family.
	OpPushLiteral Op = iota
	OpPushUndefined
	OpPushNull
	OpPushTrue
	OpPushFalse
	OpPushThis
	OpPushEmpty
	OpDup
	OpPop
	OpSwap

	// Register / binding access.
	OpGetReg
	OpSetReg
	OpGetVar  // resolve identifier through the lexical environment chain
	OpSetVar
	OpInitVar // bind-and-initialize (var/function hoisting, catch param)
	OpDeleteVar

	// Property family. Calling convention: OpSetProp pops [base, key,
	// value] and pushes value back so an assignment expression's own
	// value is available without a separate dup; OpSetPropLiteral pops
	// [base, value] the same way. OpSetVar pops [value], sets the
	// binding, and pushes value back for the same reason.
	OpGetProp
	OpSetProp
	OpDeleteProp
	OpGetPropLiteral // property name baked in as a literal-pool index
	OpSetPropLiteral
	OpForInNext

	// Arithmetic / logical.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
	OpPlus
	OpBitNot
	OpNot
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpUShr
	OpEq
	OpNotEq
	OpStrictEq
	OpStrictNotEq
	OpLt
	OpGt
	OpLe
	OpGe
	OpInstanceOf
	OpIn
	OpTypeof
	OpTypeofVar // typeof applied directly to an identifier; unlike OpGetVar+OpTypeof, an unresolvable name yields "undefined" rather than a ReferenceError
	OpVoid

	// Peephole-fused forms the compiler's staging-slot fuser (pkg/compiler's
	// stage/commitPending) produces in place of the unfused pair: a numeric
	// OpAdd whose both operands were just-pushed literals collapses to
	// OpAddTwoLiterals(litA, litB); an OpGetPropLiteral whose base was just
	// loaded from a register collapses to OpGetPropOfReg(reg, litName).
	OpAddTwoLiterals
	OpGetPropOfReg

	// Control flow.
	OpJump
	OpJumpIfFalse
	OpJumpIfTrue
	OpJumpIfFalseNoPop
	OpJumpIfTrueNoPop

	// Calls / construction / function objects. OpCall expects
	// [func, arg1..argn] and calls with this=undefined. OpCallMethod
	// expects [this, func, arg1..argn]. OpConstruct expects
	// [ctor, arg1..argn]. All three take argc in A and pop everything
	// they were given, pushing exactly one result value.
	OpCall
	OpCallMethod
	OpConstruct
	OpMakeFunction
	OpMakeArray
	OpMakeObject
	OpReturn
	OpThrow

	// Statement-level control records.
	OpWithEnter
	OpWithExit
	OpTryBegin
	OpTryEnd

	// Object/array literal helpers and for-in enumeration, kept out of
	// the extended plane proper since every object-literal-bearing
	// program touches them (unlike getter/setter installs, genuinely
	// rare in practice per spec §4.4's extended-plane note).
	OpPushHole
	OpDefineGetter
	OpDefineSetter
	OpForInStart
	// OpForInValue peeks the key OpForInNext just pushed (without
	// consuming it) and performs [[Get]] of that key on the loop's
	// enumerated object, discarding the result but propagating any
	// abrupt completion a getter raises — for-in observes each
	// property, per spec §8 scenario S6, even when the loop body never
	// reads the bound variable itself.
	OpForInValue
	OpIncVar  // pre/post ++/-- fused with a var read+write; B: 0=post 1=pre
	OpDecVar
	OpPushEnv // push a fresh declarative environment (block-less var/catch scoping helper)
	OpPopEnv
	OpDup2 // duplicate the top two stack slots, used by member ++/-- and compound assignment

	// OpEndFinally marks the end of a finally block. If the interpreter's
	// handler stack carries a pending completion (an exception that had
	// no catch of its own, or reached finally with no catch present), it
	// re-raises that completion once the finally block has run;
	// otherwise it is a no-op and falls through normally.
	OpEndFinally

	OpHalt
)

// LiteralKind tags one literal-pool slot's payload type.
type LiteralKind uint8

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralRegexp
	LiteralFunction // index into Functions
)

// Literal is one entry of a CompiledCode's literal pool.
type Literal struct {
	Kind    LiteralKind
	Number  float64
	Str     string
	Regexp  RegexpLiteral
	FuncIdx int
}

// RegexpLiteral holds a regexp literal's source/flags; pkg/jsregexp
// compiles it lazily on first OpPushLiteral of this kind.
type RegexpLiteral struct {
	Source string
	Flags  string
}

// Instruction is one decoded bytecode entry: an opcode plus up to two
// operands (register/jump-offset/literal-pool index, meaning depends on
// Op). CompiledCode.Code is a slice of Instructions: the compiler
// appends to it, the snapshot codec serializes it, and the interpreter's
// dispatch loop reads one Instruction from it per step.
type Instruction struct {
	Op   Op
	A, B int32
}

// CompiledCode is one function's (or the top-level program's) compiled
// unit: a small header plus its literal pool and instruction stream.
// This is the blob pkg/snapshot serializes and pkg/vm executes.
type CompiledCode struct {
	Name         string
	ParamNames   []string
	ArgCount     int
	RegisterCount int // operand-stack depth the compiler proved sufficient
	Strict       bool
	NeedsArguments bool // compiler proved `arguments` is referenced
	NeedsLexEnv    bool // compiler proved a fresh declarative environment is needed (closures, eval, with)
	IsArrow        bool

	Literals []Literal
	Code     []Instruction

	Functions []*CompiledCode // nested function literals, indexed by Literal.FuncIdx

	Source   string // original text span, for Function.prototype.toString
	Filename string
}

// NumRegisters is the fixed size of a Frame's register file. The
// compiler reserves exactly two scratch registers (pkg/compiler's
// scratchReg and baseReg) for the rare fused forms that read one
// (member ++/-- and the OpGetPropOfReg fusion); unlike RegisterCount,
// this has nothing to do with operand-stack depth and never grows.
const NumRegisters = 2

// StackEffect reports how many values an instruction pops off and
// pushes onto the operand stack — the "(pops, pushes, literal-argument)"
// signature spec §4.4 describes, used by the compiler's peephole fuser
// (to decide what a fused form may assume is on the stack) and by its
// emission-time stack-depth tracker (to size CompiledCode.RegisterCount,
// see pkg/compiler's trackDepth). literalArg reports whether A indexes
// the literal pool rather than carrying a register/jump-offset/count.
//
// Call/CallMethod/Construct/MakeArray pop a variable number of operands
// given by A (the argument/element count baked in at compile time); the
// returned pops already accounts for it.
func StackEffect(op Op, a, b int32) (pops, pushes int, literalArg bool) {
	switch op {
	case OpPushLiteral:
		return 0, 1, true
	case OpPushUndefined, OpPushNull, OpPushTrue, OpPushFalse, OpPushThis, OpPushEmpty, OpPushHole:
		return 0, 1, false
	case OpDup:
		return 1, 2, false
	case OpDup2:
		return 2, 4, false
	case OpPop:
		return 1, 0, false
	case OpSwap:
		return 2, 2, false
	case OpGetReg:
		return 0, 1, false
	case OpSetReg:
		return 0, 0, false // peeks, neither pops nor pushes
	case OpGetVar, OpTypeofVar, OpDeleteVar:
		return 0, 1, true
	case OpSetVar:
		return 1, 1, true
	case OpInitVar:
		return 1, 0, true
	case OpIncVar, OpDecVar:
		return 0, 1, true
	case OpGetProp:
		return 2, 1, false
	case OpSetProp:
		return 3, 1, false
	case OpGetPropLiteral:
		return 1, 1, true
	case OpSetPropLiteral:
		return 2, 1, true
	case OpDeleteProp:
		if b == 1 {
			return 1, 1, true
		}
		return 2, 1, false
	case OpAddTwoLiterals:
		return 0, 1, false // both operands are literal-pool indices, not stack values
	case OpGetPropOfReg:
		return 0, 1, true // base comes from a register, name from the literal pool
	case OpAdd, OpSub, OpMul, OpDiv, OpMod,
		OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr, OpUShr,
		OpEq, OpNotEq, OpStrictEq, OpStrictNotEq, OpLt, OpGt, OpLe, OpGe,
		OpInstanceOf, OpIn:
		return 2, 1, false
	case OpNeg, OpPlus, OpBitNot, OpNot, OpTypeof, OpVoid:
		return 1, 1, false
	case OpJump, OpJumpIfFalseNoPop, OpJumpIfTrueNoPop:
		return 0, 0, false
	case OpJumpIfFalse, OpJumpIfTrue:
		return 1, 0, false
	case OpCall:
		return 1 + int(a), 1, false
	case OpCallMethod:
		return 2 + int(a), 1, false
	case OpConstruct:
		return 1 + int(a), 1, false
	case OpMakeFunction:
		return 0, 1, false
	case OpMakeArray:
		return int(a), 1, false
	case OpMakeObject:
		return 0, 1, false
	case OpReturn, OpThrow:
		return 1, 0, false
	case OpWithEnter:
		return 1, 0, false
	case OpWithExit, OpTryBegin, OpTryEnd, OpEndFinally, OpPushEnv, OpPopEnv, OpHalt:
		return 0, 0, false
	case OpDefineGetter, OpDefineSetter:
		return 2, 0, true
	case OpForInStart:
		return 1, 0, false
	case OpForInNext:
		return 0, 1, false // pushes the next key, or falls through the jump with nothing pushed
	case OpForInValue:
		return 0, 0, false // peeks the key OpForInNext just pushed
	default:
		return 0, 0, false
	}
}

// NewCompiledCode returns an empty unit ready for the compiler to append
// instructions and literals to.
func NewCompiledCode(name string, strict bool) *CompiledCode {
	return &CompiledCode{Name: name, Strict: strict}
}

// AddLiteral interns a literal into the pool, returning its index. The
// compiler is responsible for deduplicating identical numeric/string
// literals if it wants to (not required for correctness).
func (c *CompiledCode) AddLiteral(l Literal) int {
	c.Literals = append(c.Literals, l)
	return len(c.Literals) - 1
}

// Emit appends one instruction and returns its index, which callers use
// as a branch-fixup target.
func (c *CompiledCode) Emit(op Op, a, b int32) int {
	c.Code = append(c.Code, Instruction{Op: op, A: a, B: b})
	return len(c.Code) - 1
}

// Patch rewrites operand A of an already-emitted instruction — used by
// the compiler's branch-fixup pass once a jump's destination is known.
func (c *CompiledCode) Patch(idx int, a int32) {
	c.Code[idx].A = a
}

// PatchB rewrites operand B — OpTryBegin's second target (finallyPC) is
// set this way once known, independent of operand A's own fixup.
func (c *CompiledCode) PatchB(idx int, b int32) {
	c.Code[idx].B = b
}

// FoldConstantValue materializes a literal's runtime Value where it can
// be produced without a heap allocation (numbers that fit the immediate
// integer range); the interpreter still needs the heap/string table for
// LiteralString and out-of-range LiteralNumber.
func FoldConstantValue(l Literal) (heap.Value, bool) {
	if l.Kind == LiteralNumber && l.Number == float64(int32(l.Number)) {
		n := int32(l.Number)
		if n >= heap.IntMin && n <= heap.IntMax {
			return heap.Int(n), true
		}
	}
	return heap.Value(0), false
}
