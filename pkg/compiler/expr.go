package compiler

import (
	"strconv"
	"strings"

	"ecmago/pkg/bytecode"
	"ecmago/pkg/lexer"
)

// refKind classifies what a parsed LeftHandSideExpression actually
// refers to, so assignment/delete/increment can act on the binding
// itself instead of only on its current value. This is the trick that
// lets a single-pass stack-machine compiler support assignment without
// retaining an AST: member chains defer the final Get until we know
// whether an assignment operator follows.
type refKind int

const (
	refNone refKind = iota // a value is already sitting on the stack
	refVar
	refMember
)

// ref describes a pending (not yet loaded) reference. For refMember,
// the base value (and, if computed, the key value) has already been
// pushed onto the operand stack by the caller.
type ref struct {
	kind     refKind
	name     string // refVar: binding name. refMember non-computed: property name.
	computed bool   // refMember only: key value is on the stack rather than baked in as a literal
}

// scratchReg and baseReg are the two reserved registers (bytecode.NumRegisters)
// used to stash an operand mid-expression: scratchReg holds a
// member-target postfix ++/--'s old value across its store-back, baseReg
// holds a non-computed member access's base object so the read goes
// through OpGetReg immediately ahead of OpGetPropLiteral — exactly the
// window the staging-slot fuser collapses into OpGetPropOfReg.
// Expression evaluation is strictly sequential, so nothing reenters
// between a save and its matching load.
const (
	scratchReg = 0
	baseReg    = 1
)

// compileExpression compiles a full Expression (comma operator
// included), leaving its value on the stack.
func (c *Compiler) compileExpression() {
	c.compileAssignmentExpression()
	for c.at(lexer.COMMA) {
		c.advance()
		c.emit(bytecode.OpPop, 0, 0)
		c.compileAssignmentExpression()
	}
}

var compoundAssignOps = map[lexer.TokenType]bytecode.Op{
	lexer.PLUS_ASSIGN:    bytecode.OpAdd,
	lexer.MINUS_ASSIGN:   bytecode.OpSub,
	lexer.STAR_ASSIGN:    bytecode.OpMul,
	lexer.SLASH_ASSIGN:   bytecode.OpDiv,
	lexer.PERCENT_ASSIGN: bytecode.OpMod,
	lexer.SHL_ASSIGN:     bytecode.OpShl,
	lexer.SHR_ASSIGN:     bytecode.OpShr,
	lexer.USHR_ASSIGN:    bytecode.OpUShr,
	lexer.AND_ASSIGN:     bytecode.OpBitAnd,
	lexer.OR_ASSIGN:      bytecode.OpBitOr,
	lexer.XOR_ASSIGN:     bytecode.OpBitXor,
}

// compileAssignmentExpression handles AssignmentExpression: it parses a
// ConditionalExpression, and if what it parsed collapsed to a bare
// reference (ref.kind != refNone) followed immediately by an assignment
// operator, reinterprets it as an assignment target instead of loading
// it. Otherwise the pending reference is materialized to a value and
// ordinary binary/conditional compilation proceeds.
func (c *Compiler) compileAssignmentExpression() {
	c.compileAssignmentFrom(c.compileUnary())
}

// compileAssignmentFrom is compileAssignmentExpression's body, taking
// an already-parsed LeftHandSideExpression as its starting point. The
// for-statement init clause uses this directly after peeking past the
// LHS to rule out a for-in.
func (c *Compiler) compileAssignmentFrom(r ref) {
	r = c.compileConditionalResume(r)

	if c.at(lexer.ASSIGN) {
		if r.kind == refNone {
			c.syntaxError("invalid assignment target")
			c.advance()
			c.compileAssignmentExpression()
			return
		}
		c.advance()
		c.compileAssignmentExpression()
		c.storeRef(r)
		return
	}
	if op, ok := compoundAssignOps[c.cur.Type]; ok {
		if r.kind == refNone {
			c.syntaxError("invalid assignment target")
			c.advance()
			c.compileAssignmentExpression()
			return
		}
		c.advance()
		c.compileCompoundStore(r, op)
		return
	}

	c.materialize(r)
}

// materialize turns a pending reference into a loaded value on the
// stack; a no-op if the value is already there.
func (c *Compiler) materialize(r ref) {
	switch r.kind {
	case refVar:
		c.emit(bytecode.OpGetVar, c.literalString(r.name), 0)
	case refMember:
		if r.computed {
			c.emit(bytecode.OpGetProp, 0, 0)
		} else {
			c.emit(bytecode.OpGetPropLiteral, c.literalString(r.name), 0)
		}
	}
}

// checkStrictAssignTarget implements spec §4.5 step 5: assigning to or
// compound-modifying `eval`/`arguments` in strict mode is a parse-time
// SyntaxError (ECMA-262 11.13.1/11.4.4/11.4.5), not a runtime one.
func (c *Compiler) checkStrictAssignTarget(r ref) {
	if !c.strict || r.kind != refVar {
		return
	}
	if r.name == "eval" || r.name == "arguments" {
		c.syntaxError("assignment to '" + r.name + "' is not allowed in strict mode")
	}
}

// storeRef compiles a plain `=` store: the new value is already on the
// stack above whatever base/key the reference needed.
func (c *Compiler) storeRef(r ref) {
	c.checkStrictAssignTarget(r)
	switch r.kind {
	case refVar:
		c.emit(bytecode.OpSetVar, c.literalString(r.name), 0)
	case refMember:
		if r.computed {
			c.emit(bytecode.OpSetProp, 0, 0)
		} else {
			c.emit(bytecode.OpSetPropLiteral, c.literalString(r.name), 0)
		}
	}
}

// compileCompoundStore compiles `ref op= rhs`: load the current value,
// compile the right-hand side, apply op, then store — reusing a single
// copy of base/key for both the load and the store.
func (c *Compiler) compileCompoundStore(r ref, op bytecode.Op) {
	c.checkStrictAssignTarget(r)
	switch r.kind {
	case refVar:
		c.emit(bytecode.OpGetVar, c.literalString(r.name), 0)
		c.compileAssignmentExpression()
		c.emit(op, 0, 0)
		c.emit(bytecode.OpSetVar, c.literalString(r.name), 0)
	case refMember:
		if r.computed {
			c.emit(bytecode.OpDup2, 0, 0)
			c.emit(bytecode.OpGetProp, 0, 0)
			c.compileAssignmentExpression()
			c.emit(op, 0, 0)
			c.emit(bytecode.OpSetProp, 0, 0)
		} else {
			c.emit(bytecode.OpDup, 0, 0)
			c.emit(bytecode.OpGetPropLiteral, c.literalString(r.name), 0)
			c.compileAssignmentExpression()
			c.emit(op, 0, 0)
			c.emit(bytecode.OpSetPropLiteral, c.literalString(r.name), 0)
		}
	}
}

// compileConditional handles the `?:` ternary; everything below it in
// precedence funnels through compileBinary.
func (c *Compiler) compileConditional() ref {
	return c.compileConditionalResume(c.compileUnary())
}

// compileConditionalResume is compileConditional's body starting from
// an already-parsed operand, mirroring compileBinaryResume.
func (c *Compiler) compileConditionalResume(r ref) ref {
	r = c.compileBinaryResume(r, 1)
	if !c.at(lexer.QUESTION) {
		return r
	}
	c.materialize(r)
	c.advance()
	jElse := c.emit(bytecode.OpJumpIfFalse, 0, 0)
	c.compileAssignmentExpression()
	jEnd := c.emit(bytecode.OpJump, 0, 0)
	c.patchJumpHere(jElse)
	c.expect(lexer.COLON)
	c.compileAssignmentExpression()
	c.patchJumpHere(jEnd)
	return ref{kind: refNone}
}

// binPrecOf is the binding power table for binary operators, lowest
// first. Logical && and || short-circuit via jumps rather than a
// generic Op, same as the ternary.
// binPrecOf gives each binary operator's binding power; higher binds
// tighter. Comparisons and equality share ECMA-262's non-associative
// grouping in practice by being left-associative like everything else.
var binPrecOf = map[lexer.TokenType]int{
	lexer.LOGICAL_OR:  1,
	lexer.LOGICAL_AND: 2,
	lexer.PIPE:        3,
	lexer.CARET:       4,
	lexer.AMP:         5,
	lexer.EQ:          6, lexer.NOT_EQ: 6, lexer.STRICT_EQ: 6, lexer.STRICT_NE: 6,
	lexer.LT: 7, lexer.GT: 7, lexer.LE: 7, lexer.GE: 7, lexer.INSTANCEOF: 7, lexer.IN: 7,
	lexer.SHL: 8, lexer.SHR: 8, lexer.USHR: 8,
	lexer.PLUS: 9, lexer.MINUS: 9,
	lexer.ASTERISK: 10, lexer.SLASH: 10, lexer.PERCENT: 10,
}

var binOpFor = map[lexer.TokenType]bytecode.Op{
	lexer.PIPE: bytecode.OpBitOr, lexer.CARET: bytecode.OpBitXor, lexer.AMP: bytecode.OpBitAnd,
	lexer.EQ: bytecode.OpEq, lexer.NOT_EQ: bytecode.OpNotEq,
	lexer.STRICT_EQ: bytecode.OpStrictEq, lexer.STRICT_NE: bytecode.OpStrictNotEq,
	lexer.LT: bytecode.OpLt, lexer.GT: bytecode.OpGt, lexer.LE: bytecode.OpLe, lexer.GE: bytecode.OpGe,
	lexer.INSTANCEOF: bytecode.OpInstanceOf, lexer.IN: bytecode.OpIn,
	lexer.SHL: bytecode.OpShl, lexer.SHR: bytecode.OpShr, lexer.USHR: bytecode.OpUShr,
	lexer.PLUS: bytecode.OpAdd, lexer.MINUS: bytecode.OpSub,
	lexer.ASTERISK: bytecode.OpMul, lexer.SLASH: bytecode.OpDiv, lexer.PERCENT: bytecode.OpMod,
}

// compileBinaryResume climbs binPrecOf starting from an
// already-compiled left operand r, consuming operators whose binding
// power is at least minPrec. This lets callers that had to peek past a
// LeftHandSideExpression first (the for-statement init clause, probing
// for `in`) rejoin ordinary precedence climbing without reparsing.
func (c *Compiler) compileBinaryResume(r ref, minPrec int) ref {
	for {
		prec, ok := binPrecOf[c.cur.Type]
		if !ok || prec < minPrec {
			return r
		}
		if !c.allowIn && c.cur.Type == lexer.IN {
			return r
		}
		op := c.cur.Type
		c.materialize(r)
		c.advance()

		if op == lexer.LOGICAL_AND {
			j := c.emit(bytecode.OpJumpIfFalseNoPop, 0, 0)
			c.emit(bytecode.OpPop, 0, 0)
			rhs := c.compileBinaryResume(c.compileUnary(), prec+1)
			c.materialize(rhs)
			c.patchJumpHere(j)
			r = ref{kind: refNone}
			continue
		}
		if op == lexer.LOGICAL_OR {
			j := c.emit(bytecode.OpJumpIfTrueNoPop, 0, 0)
			c.emit(bytecode.OpPop, 0, 0)
			rhs := c.compileBinaryResume(c.compileUnary(), prec+1)
			c.materialize(rhs)
			c.patchJumpHere(j)
			r = ref{kind: refNone}
			continue
		}
		rhs := c.compileBinaryResume(c.compileUnary(), prec+1)
		c.materialize(rhs)
		// Staged rather than emitted: when both operands just above were
		// themselves staged number-literal pushes (compilePrimary), this
		// is exactly the PUSH_LITERAL, PUSH_LITERAL, ADD window spec §4.5
		// step 3 fuses into OpAddTwoLiterals.
		c.stage(binOpFor[op], 0, 0)
		r = ref{kind: refNone}
	}
}

var prefixUnaryOps = map[lexer.TokenType]bytecode.Op{
	lexer.BANG: bytecode.OpNot, lexer.TILDE: bytecode.OpBitNot,
	lexer.PLUS: bytecode.OpPlus, lexer.MINUS: bytecode.OpNeg,
	lexer.VOID: bytecode.OpVoid,
}

// compileUnary handles UnaryExpression (prefix ! ~ + - typeof void
// delete ++ --) and PostfixExpression (trailing ++ --).
func (c *Compiler) compileUnary() ref {
	switch c.cur.Type {
	case lexer.DELETE:
		c.advance()
		r := c.compileUnary()
		c.materialize(deleteTarget(c, r))
		return ref{kind: refNone}
	case lexer.INC, lexer.DEC:
		isInc := c.cur.Type == lexer.INC
		c.advance()
		r := c.compileUnary()
		c.compileUpdate(r, isInc, true)
		return ref{kind: refNone}
	}
	if c.cur.Type == lexer.TYPEOF {
		c.advance()
		r := c.compileUnary()
		if r.kind == refVar {
			c.emit(bytecode.OpTypeofVar, c.literalString(r.name), 0)
		} else {
			c.materialize(r)
			c.emit(bytecode.OpTypeof, 0, 0)
		}
		return ref{kind: refNone}
	}
	if op, ok := prefixUnaryOps[c.cur.Type]; ok {
		c.advance()
		r := c.compileUnary()
		c.materialize(r)
		c.emit(op, 0, 0)
		return ref{kind: refNone}
	}

	r := c.compileLHS(true)
	if (c.at(lexer.INC) || c.at(lexer.DEC)) && !c.cur.NewlineBefore {
		isInc := c.at(lexer.INC)
		c.advance()
		c.compileUpdate(r, isInc, false)
		return ref{kind: refNone}
	}
	return r
}

// deleteTarget performs `delete` directly rather than through
// materialize+storeRef, since deleting has no "current value" to load.
func deleteTarget(c *Compiler, r ref) ref {
	switch r.kind {
	case refVar:
		c.emit(bytecode.OpDeleteVar, c.literalString(r.name), 0)
	case refMember:
		if r.computed {
			c.emit(bytecode.OpDeleteProp, 0, 0)
		} else {
			// B=1 flags A as a literal-pool name index rather than the
			// computed form's (always-zero) unused operand — both forms
			// would otherwise collide on literal index 0.
			c.emit(bytecode.OpDeleteProp, c.literalString(r.name), 1)
		}
	default:
		c.emit(bytecode.OpPop, 0, 0)
		c.emit(bytecode.OpPushTrue, 0, 0)
	}
	return ref{kind: refNone}
}

// compileUpdate emits ++/-- against a reference, choosing the fused
// var fast path or the generic base/key + scratch-register sequence
// for member targets.
func (c *Compiler) compileUpdate(r ref, isInc, prefix bool) {
	c.checkStrictAssignTarget(r)
	op := bytecode.OpIncVar
	if !isInc {
		op = bytecode.OpDecVar
	}
	prefixFlag := int32(0)
	if prefix {
		prefixFlag = 1
	}
	switch r.kind {
	case refVar:
		c.emit(op, c.literalString(r.name), prefixFlag)
		return
	case refMember:
		addSub := bytecode.OpAdd
		if !isInc {
			addSub = bytecode.OpSub
		}
		one := c.literalNumber(1)
		if r.computed {
			c.emit(bytecode.OpDup2, 0, 0)
			c.emit(bytecode.OpGetProp, 0, 0)
			if prefix {
				c.emit(bytecode.OpPushLiteral, one, 0)
				c.emit(addSub, 0, 0)
				c.emit(bytecode.OpSetProp, 0, 0)
			} else {
				c.emit(bytecode.OpDup, 0, 0)
				c.emit(bytecode.OpSetReg, scratchReg, 0)
				c.emit(bytecode.OpPop, 0, 0)
				c.emit(bytecode.OpPushLiteral, one, 0)
				c.emit(addSub, 0, 0)
				c.emit(bytecode.OpSetProp, 0, 0)
				c.emit(bytecode.OpPop, 0, 0)
				c.emit(bytecode.OpGetReg, scratchReg, 0)
			}
		} else {
			c.emit(bytecode.OpSetReg, baseReg, 0)
			c.stage(bytecode.OpGetReg, baseReg, 0)
			c.stage(bytecode.OpGetPropLiteral, c.literalString(r.name), 0)
			if prefix {
				c.emit(bytecode.OpPushLiteral, one, 0)
				c.emit(addSub, 0, 0)
				c.emit(bytecode.OpSetPropLiteral, c.literalString(r.name), 0)
			} else {
				c.emit(bytecode.OpDup, 0, 0)
				c.emit(bytecode.OpSetReg, scratchReg, 0)
				c.emit(bytecode.OpPop, 0, 0)
				c.emit(bytecode.OpPushLiteral, one, 0)
				c.emit(addSub, 0, 0)
				c.emit(bytecode.OpSetPropLiteral, c.literalString(r.name), 0)
				c.emit(bytecode.OpPop, 0, 0)
				c.emit(bytecode.OpGetReg, scratchReg, 0)
			}
		}
	default:
		c.syntaxError("invalid increment/decrement target")
	}
}

// compileLHS parses a LeftHandSideExpression (NewExpression | CallExpression),
// the member/call chain that assignment, delete and ++/-- all key off
// of. allowCalls is false while parsing a `new` callee, where a
// trailing `(` belongs to the enclosing new-expression, not to a call
// on the member chain itself.
func (c *Compiler) compileLHS(allowCalls bool) ref {
	var r ref
	if c.at(lexer.NEW) {
		r = c.compileNewExpression()
	} else {
		r = c.compilePrimary()
	}
	for {
		switch {
		case c.at(lexer.DOT):
			c.materialize(r)
			c.advance()
			name := c.identifierName()
			c.advance()
			r = ref{kind: refMember, name: name}
		case c.at(lexer.LBRACKET):
			c.materialize(r)
			c.advance()
			c.compileExpression()
			c.expect(lexer.RBRACKET)
			r = ref{kind: refMember, computed: true}
		case allowCalls && c.at(lexer.LPAREN):
			r = c.compileCallOn(r)
		default:
			return r
		}
	}
}

// identifierName accepts a property name after `.`, which in ES5 may
// be any IdentifierName including reserved words.
func (c *Compiler) identifierName() string {
	if c.cur.Literal != "" {
		return c.cur.Literal
	}
	return string(c.cur.Type)
}

// compileCallOn compiles the `(args)` suffix of a call expression,
// loading `this` from r's base when r is a member reference so method
// calls see the right receiver.
func (c *Compiler) compileCallOn(r ref) ref {
	switch r.kind {
	case refMember:
		if r.computed {
			c.emit(bytecode.OpDup2, 0, 0)
			c.emit(bytecode.OpGetProp, 0, 0)
			c.emit(bytecode.OpSwap, 0, 0)
			c.emit(bytecode.OpPop, 0, 0)
		} else {
			c.emit(bytecode.OpDup, 0, 0)
			c.emit(bytecode.OpGetPropLiteral, c.literalString(r.name), 0)
		}
		argc := c.compileCallArgs()
		c.emit(bytecode.OpCallMethod, int32(argc), 0)
	default:
		c.materialize(r)
		argc := c.compileCallArgs()
		c.emit(bytecode.OpCall, int32(argc), 0)
	}
	return ref{kind: refNone}
}

func (c *Compiler) compileCallArgs() int {
	c.expect(lexer.LPAREN)
	argc := 0
	for !c.at(lexer.RPAREN) && !c.at(lexer.EOF) {
		c.compileAssignmentExpression()
		argc++
		if c.at(lexer.COMMA) {
			c.advance()
			continue
		}
		break
	}
	c.expect(lexer.RPAREN)
	return argc
}

// compileNewExpression handles `new` MemberExpression Arguments?,
// including recursive `new new Foo()` and bare `new Foo` without a
// trailing argument list.
func (c *Compiler) compileNewExpression() ref {
	c.expect(lexer.NEW)
	var callee ref
	if c.at(lexer.NEW) {
		callee = c.compileNewExpression()
	} else {
		callee = c.compilePrimary()
	}
	for c.at(lexer.DOT) || c.at(lexer.LBRACKET) {
		if c.at(lexer.DOT) {
			c.materialize(callee)
			c.advance()
			name := c.identifierName()
			c.advance()
			callee = ref{kind: refMember, name: name}
		} else {
			c.materialize(callee)
			c.advance()
			c.compileExpression()
			c.expect(lexer.RBRACKET)
			callee = ref{kind: refMember, computed: true}
		}
	}
	c.materialize(callee)
	argc := 0
	if c.at(lexer.LPAREN) {
		argc = c.compileCallArgs()
	}
	c.emit(bytecode.OpConstruct, int32(argc), 0)
	return ref{kind: refNone}
}

// compilePrimary handles PrimaryExpression and the atomic forms that
// start a LeftHandSideExpression chain.
func (c *Compiler) compilePrimary() ref {
	switch c.cur.Type {
	case lexer.NUMBER:
		n := parseNumericLiteral(c.cur.Literal)
		c.advance()
		c.stage(bytecode.OpPushLiteral, c.literalNumber(n), 0)
		return ref{kind: refNone}
	case lexer.STRING:
		s := c.cur.Literal
		c.advance()
		c.emit(bytecode.OpPushLiteral, c.literalString(s), 0)
		return ref{kind: refNone}
	case lexer.REGEX_LITERAL:
		src, flags := splitRegex(c.cur.Literal)
		c.advance()
		c.emit(bytecode.OpPushLiteral, c.literalRegexp(src, flags), 0)
		return ref{kind: refNone}
	case lexer.TRUE:
		c.advance()
		c.emit(bytecode.OpPushTrue, 0, 0)
		return ref{kind: refNone}
	case lexer.FALSE:
		c.advance()
		c.emit(bytecode.OpPushFalse, 0, 0)
		return ref{kind: refNone}
	case lexer.NULL:
		c.advance()
		c.emit(bytecode.OpPushNull, 0, 0)
		return ref{kind: refNone}
	case lexer.THIS:
		c.advance()
		c.emit(bytecode.OpPushThis, 0, 0)
		return ref{kind: refNone}
	case lexer.IDENT:
		name := c.cur.Literal
		c.advance()
		return ref{kind: refVar, name: name}
	case lexer.FUNCTION:
		c.compileFunctionExpression()
		return ref{kind: refNone}
	case lexer.LPAREN:
		c.advance()
		allowIn := c.allowIn
		c.allowIn = true
		c.compileExpression()
		c.allowIn = allowIn
		c.expect(lexer.RPAREN)
		return ref{kind: refNone}
	case lexer.LBRACKET:
		c.compileArrayLiteral()
		return ref{kind: refNone}
	case lexer.LBRACE:
		c.compileObjectLiteral()
		return ref{kind: refNone}
	default:
		c.errorf("unexpected token %s in expression", c.cur.Type)
		c.advance()
		return ref{kind: refNone}
	}
}

func (c *Compiler) compileArrayLiteral() {
	c.expect(lexer.LBRACKET)
	count := int32(0)
	for !c.at(lexer.RBRACKET) && !c.at(lexer.EOF) {
		if c.at(lexer.COMMA) {
			c.emit(bytecode.OpPushHole, 0, 0)
			c.advance()
			count++
			continue
		}
		c.compileAssignmentExpression()
		count++
		if c.at(lexer.COMMA) {
			c.advance()
			continue
		}
		break
	}
	c.expect(lexer.RBRACKET)
	c.emit(bytecode.OpMakeArray, count, 0)
}

func (c *Compiler) compileObjectLiteral() {
	c.expect(lexer.LBRACE)
	c.emit(bytecode.OpMakeObject, 0, 0)
	for !c.at(lexer.RBRACE) && !c.at(lexer.EOF) {
		c.compilePropertyDefinition()
		if c.at(lexer.COMMA) {
			c.advance()
			continue
		}
		break
	}
	c.expect(lexer.RBRACE)
}

// compilePropertyDefinition compiles one PropertyAssignment; the object
// being built sits on the stack just below. get/set accessors are
// recognized by the contextual `get`/`set` identifier immediately
// followed by a property name (not `:` or `,`/`}`, which would mean
// `get`/`set` is itself the plain property name).
func (c *Compiler) compilePropertyDefinition() {
	if c.at(lexer.IDENT) && (c.cur.Literal == "get" || c.cur.Literal == "set") && !c.propNameFollowsColon() {
		isGetter := c.cur.Literal == "get"
		c.advance()
		name := c.propertyName()
		c.advance()
		c.emit(bytecode.OpDup, 0, 0)
		child, _ := c.spawnFunctionChild()
		idx := len(c.code.Functions)
		c.code.Functions = append(c.code.Functions, child.code)
		c.emit(bytecode.OpPushLiteral, c.literalFunc(idx), 0)
		c.emit(bytecode.OpMakeFunction, int32(idx), 0)
		if isGetter {
			c.emit(bytecode.OpDefineGetter, c.literalString(name), 0)
		} else {
			c.emit(bytecode.OpDefineSetter, c.literalString(name), 0)
		}
		return
	}
	name := c.propertyName()
	c.advance()
	c.expect(lexer.COLON)
	c.emit(bytecode.OpDup, 0, 0)
	c.compileAssignmentExpression()
	c.emit(bytecode.OpSetPropLiteral, c.literalString(name), 0)
	c.emit(bytecode.OpPop, 0, 0)
}

// propNameFollowsColon reports whether the token after a contextual
// get/set keyword is actually the `:`/`,`/`}` that would make get/set
// the property name rather than an accessor introducer.
func (c *Compiler) propNameFollowsColon() bool {
	return c.peek.Type == lexer.COLON || c.peek.Type == lexer.COMMA || c.peek.Type == lexer.RBRACE
}

func (c *Compiler) propertyName() string {
	switch c.cur.Type {
	case lexer.STRING:
		return c.cur.Literal
	case lexer.NUMBER:
		return c.cur.Literal
	default:
		return c.identifierName()
	}
}

func parseNumericLiteral(lit string) float64 {
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		if v, err := strconv.ParseUint(lit[2:], 16, 64); err == nil {
			return float64(v)
		}
		return 0
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0
	}
	return v
}

// splitRegex separates a /pattern/flags lexeme as produced whole by the
// lexer's readRegexLiteral into its two parts.
func splitRegex(lit string) (source, flags string) {
	end := strings.LastIndexByte(lit, '/')
	if end <= 0 {
		return lit, ""
	}
	return lit[1:end], lit[end+1:]
}
