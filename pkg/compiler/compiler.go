// Package compiler turns a token stream (pkg/lexer) into a byte-code
// blob (pkg/bytecode), the C5 component of the engine. It is a
// single-pass, recursive-descent/Pratt compiler in JerryScript's own
// style: no full AST is retained — each construct is parsed and its
// instructions emitted in the same walk, with a small pre-scan pass per
// function body to decide hoisting, `arguments`/closure needs.
//
// Grounded on jerry-core/parser/js/js-parser-expr.c and
// js-parser-statm.c (see _examples/original_source/jerry-core) for the
// pre-scan/emit/fixup shape; the precedence table and pending-op
// bookkeeping follow the teacher's pkg/compiler Pratt driver
// (compile_expression.go), adapted from a register target back onto a
// pure operand stack per spec §4.6.
package compiler

import (
	"fmt"

	"ecmago/pkg/bytecode"
	"ecmago/pkg/errors"
	"ecmago/pkg/lexer"
)

// Compiler compiles one function body (or the top-level program) into a
// CompiledCode. Nested function literals spawn a child Compiler whose
// finished CompiledCode is stored as a literal of the parent.
type Compiler struct {
	source   string
	filename string

	lex  *lexer.Lexer
	cur  lexer.Token
	peek lexer.Token

	code   *bytecode.CompiledCode
	parent *Compiler

	strict    bool
	inFunction bool
	allowIn   bool // false while parsing a for-statement's init clause, so `in` isn't consumed as the relational operator

	// scope is this function's pre-scanned hoisting info.
	scope *scopeInfo

	loops   []loopCtx
	inSwitch []switchCtx
	forInDepth int // nesting depth of active for-in loops, used as each one's enumerator slot

	// pending is the staging-slot peephole fuser's last-emitted
	// instruction: requested but not yet written to c.code.Code, so the
	// next request (or an explicit flush) can check it against a fusable
	// pattern first. See stage/commitPending below and spec §9.
	pending *bytecode.Instruction

	curDepth int // operand-stack depth if every staged instruction committed unfused
	maxDepth int // high-water mark of curDepth, becomes c.code.RegisterCount

	errs []errors.EngineError
}

// loopCtx tracks the fixup targets `break`/`continue` resolve against,
// plus an optional label naming this loop.
type loopCtx struct {
	label        string
	breakFixups  []int
	continueFixups []int
	continuePC   int // -1 until known (patched retroactively for do-while)
}

type switchCtx struct {
	label       string
	breakFixups []int
}

// New builds a Compiler for a top-level program or eval body.
func New(source, filename string, strict bool) *Compiler {
	c := &Compiler{
		source:   source,
		filename: filename,
		lex:      lexer.NewLexer(source),
		strict:   strict,
		allowIn:  true,
	}
	c.advance()
	c.advance()
	return c
}

func newChild(parent *Compiler, name string, strict bool) *Compiler {
	c := &Compiler{
		source:   parent.source,
		filename: parent.filename,
		strict:   strict,
		parent:   parent,
		allowIn:  true,
	}
	c.code = bytecode.NewCompiledCode(name, strict)
	return c
}

func (c *Compiler) advance() {
	c.cur = c.peek
	c.peek = c.lex.NextToken()
}

func (c *Compiler) at(t lexer.TokenType) bool  { return c.cur.Type == t }
func (c *Compiler) peekAt(t lexer.TokenType) bool { return c.peek.Type == t }

func (c *Compiler) expect(t lexer.TokenType) bool {
	if c.at(t) {
		c.advance()
		return true
	}
	c.errorf("expected %s, got %s", t, c.cur.Type)
	return false
}

func (c *Compiler) errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	c.errs = append(c.errs, &errors.SyntaxError{
		Position: errors.Position{Line: c.cur.Line, Column: c.cur.Column, StartPos: c.cur.StartPos, EndPos: c.cur.EndPos, Filename: c.filename},
		Msg:      msg,
	})
}

func (c *Compiler) syntaxError(msg string) {
	c.errs = append(c.errs, &errors.SyntaxError{
		Position: errors.Position{Line: c.cur.Line, Column: c.cur.Column, StartPos: c.cur.StartPos, EndPos: c.cur.EndPos, Filename: c.filename},
		Msg:      msg,
	})
}

// Errors returns every diagnostic accumulated across this compile,
// including those from nested function compiles.
func (c *Compiler) Errors() []errors.EngineError { return c.errs }

// CompileProgram compiles a whole top-level program or eval body.
// isFunction is false; strict mode may still be promoted by a leading
// "use strict" directive.
func CompileProgram(source, filename string, strict bool) (*bytecode.CompiledCode, []errors.EngineError) {
	c := New(source, filename, strict)
	c.code = bytecode.NewCompiledCode("", strict)
	c.code.Filename = filename
	c.code.Source = source

	c.scope = prescan(source, 0, false)
	c.strict = c.strict || c.scope.strict
	c.code.Strict = c.strict
	c.code.NeedsLexEnv = true // top-level/eval always runs against a real env
	c.hoistDeclarations()

	for !c.at(lexer.EOF) {
		c.compileStatement()
	}
	c.emit(bytecode.OpHalt, 0, 0)
	c.code.RegisterCount = c.maxDepth
	return c.code, c.errs
}

// consumeSemicolon implements ECMA-262 §7.9's restricted productions:
// a statement terminator is satisfied by ';', '}', EOF, or a newline
// having appeared before the current token.
func (c *Compiler) consumeSemicolon() {
	if c.at(lexer.SEMICOLON) {
		c.advance()
		return
	}
	if c.at(lexer.RBRACE) || c.at(lexer.EOF) || c.cur.NewlineBefore {
		return
	}
	c.errorf("missing ; before statement")
}

// emit commits op straight to the code stream (after flushing anything
// already staged) and returns its index, stable from here on — every
// caller that needs a true pc-observable branch/fixup target (jumps,
// try/catch markers, for-in enumerator patches, switch-test chains) goes
// through emit rather than stage for exactly that reason.
func (c *Compiler) emit(op bytecode.Op, a, b int32) int {
	c.flushPending()
	c.trackDepth(op, a, b)
	return c.code.Emit(op, a, b)
}

// stage defers op by one step: spec §4.5 step 3's "before writing a new
// instruction, if the previous one is a PUSH_LITERAL ... the pair is
// rewritten into the fused form." It holds op in the single last-emitted
// staging slot instead of appending it immediately, so the NEXT
// stage/emit call can look at it (together with the already-committed
// tail of the code stream) for a fusable window before committing. Only
// call sites that never need op's own index may use this — nothing
// staged is ever a jump/try/for-in/switch target.
func (c *Compiler) stage(op bytecode.Op, a, b int32) {
	c.commitPending()
	c.trackDepth(op, a, b)
	c.pending = &bytecode.Instruction{Op: op, A: a, B: b}
}

// flushPending forces the staged instruction (if any) to commit — called
// at every pc-observable point, per spec §9's staging-slot design note.
func (c *Compiler) flushPending() { c.commitPending() }

// commitPending writes c.pending to the code stream, first checking it
// against the fusable forms bytecode.go declares (OpAddTwoLiterals,
// OpGetPropOfReg). Both only fire when the operand the fused form would
// read is exactly what the trailing committed instruction produced,
// which is why the check runs here rather than at stage time: op was
// only a candidate until whatever came right after it confirmed (by not
// needing its own index) that nothing observable happened in between.
func (c *Compiler) commitPending() {
	if c.pending == nil {
		return
	}
	instr := *c.pending
	c.pending = nil
	code := c.code.Code
	n := len(code)

	// PUSH_LITERAL(number), PUSH_LITERAL(number), ADD -> ADD_TWO_LITERALS.
	// String operands are excluded: `+` on strings needs ToPrimitive/
	// ToString at runtime, which the fused form has no room to perform.
	if instr.Op == bytecode.OpAdd && n >= 2 &&
		code[n-2].Op == bytecode.OpPushLiteral && code[n-1].Op == bytecode.OpPushLiteral &&
		c.code.Literals[code[n-2].A].Kind == bytecode.LiteralNumber &&
		c.code.Literals[code[n-1].A].Kind == bytecode.LiteralNumber {
		idxA, idxB := code[n-2].A, code[n-1].A
		c.code.Code = code[:n-2]
		c.code.Emit(bytecode.OpAddTwoLiterals, idxA, idxB)
		return
	}

	// GET_REG(reg), GET_PROP_LITERAL(name) -> GET_PROP_OF_REG(reg, name).
	if instr.Op == bytecode.OpGetPropLiteral && n >= 1 && code[n-1].Op == bytecode.OpGetReg {
		reg := code[n-1].A
		c.code.Code = code[:n-1]
		c.code.Emit(bytecode.OpGetPropOfReg, reg, instr.A)
		return
	}

	c.code.Emit(instr.Op, instr.A, instr.B)
}

// trackDepth folds op's stack effect into the running depth counter that
// becomes c.code.RegisterCount — spec §4.6's "sized from the code's
// register_count header (the compiler proves an upper bound)". It runs
// at request time (stage or emit), before any later fusion collapses the
// instruction: fusion only ever removes intermediate stack traffic a
// literal/register operand would otherwise have needed, so counting the
// unfused sequence can only over-estimate curDepth, never under-count
// it — the bound this produces still holds after fusion runs.
func (c *Compiler) trackDepth(op bytecode.Op, a, b int32) {
	pops, pushes, _ := bytecode.StackEffect(op, a, b)
	c.curDepth += pushes - pops
	if c.curDepth > c.maxDepth {
		c.maxDepth = c.curDepth
	}
}

func (c *Compiler) literalNumber(n float64) int32 {
	return int32(c.code.AddLiteral(bytecode.Literal{Kind: bytecode.LiteralNumber, Number: n}))
}
func (c *Compiler) literalString(s string) int32 {
	return int32(c.code.AddLiteral(bytecode.Literal{Kind: bytecode.LiteralString, Str: s}))
}
func (c *Compiler) literalRegexp(source, flags string) int32 {
	return int32(c.code.AddLiteral(bytecode.Literal{Kind: bytecode.LiteralRegexp, Regexp: bytecode.RegexpLiteral{Source: source, Flags: flags}}))
}
func (c *Compiler) literalFunc(idx int) int32 {
	return int32(c.code.AddLiteral(bytecode.Literal{Kind: bytecode.LiteralFunction, FuncIdx: idx}))
}

// hoistDeclarations implements ECMA-262 10.5's declaration binding
// instantiation: function declarations are bound first (eagerly
// compiled and initialized to their function object, last-declared-wins
// for duplicate names), then `var` names not already bound by a
// function of the same name are declared and initialized to undefined.
func (c *Compiler) hoistDeclarations() {
	for _, name := range c.scope.funcOrder {
		pos := c.scope.funcPos[name]
		fn := newChild(c, name, c.strict)
		fn.lex = lexer.NewLexer(c.source)
		fn.lex.SetPosition(pos)
		fn.advance()
		fn.advance()
		fnName, _ := fn.compileFunctionLiteral()
		_ = fnName
		c.errs = append(c.errs, fn.errs...)
		idx := len(c.code.Functions)
		c.code.Functions = append(c.code.Functions, fn.code)
		c.emit(bytecode.OpPushLiteral, c.literalFunc(idx), 0)
		c.emit(bytecode.OpMakeFunction, int32(idx), 0)
		c.emit(bytecode.OpInitVar, c.literalString(name), 0)
	}
	isFunc := make(map[string]bool, len(c.scope.funcOrder))
	for _, n := range c.scope.funcOrder {
		isFunc[n] = true
	}
	for _, name := range c.scope.vars {
		if isFunc[name] {
			continue
		}
		c.emit(bytecode.OpPushUndefined, 0, 0)
		c.emit(bytecode.OpInitVar, c.literalString(name), 0)
	}
}

// pc flushes anything staged and returns the index the next real
// instruction will land at — every pc-observable point (a jump target, a
// try/catch/for-in/switch fixup) reads this rather than len(c.code.Code)
// directly, so a staged-but-uncommitted instruction can never leave a
// branch pointing one slot short of where it actually lands.
func (c *Compiler) pc() int {
	c.flushPending()
	return len(c.code.Code)
}

// patchJumpHere rewrites the jump instruction at idx to target the
// current (about-to-be-emitted) instruction index — spec §4.5 step 4's
// set_branch_to_current_position. Our Instruction stream is a Go slice
// of structs rather than packed bytes, so there is no 8-to-16-bit
// widening to perform; patching is a single store.
func (c *Compiler) patchJumpHere(idx int) { c.code.Patch(idx, int32(c.pc())) }
