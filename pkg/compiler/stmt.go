package compiler

import (
	"ecmago/pkg/bytecode"
	"ecmago/pkg/lexer"
)

// compileStatement dispatches on the current token to compile one
// Statement, per ECMA-262 §12.
func (c *Compiler) compileStatement() {
	switch c.cur.Type {
	case lexer.LBRACE:
		c.compileBlock()
	case lexer.VAR:
		c.compileVarStatement()
	case lexer.SEMICOLON:
		c.advance()
	case lexer.IF:
		c.compileIf()
	case lexer.DO:
		c.compileDoWhile("")
	case lexer.WHILE:
		c.compileWhile("")
	case lexer.FOR:
		c.compileFor("")
	case lexer.CONTINUE:
		c.compileContinue()
	case lexer.BREAK:
		c.compileBreak()
	case lexer.RETURN:
		c.compileReturn()
	case lexer.WITH:
		c.compileWith()
	case lexer.SWITCH:
		c.compileSwitch("")
	case lexer.THROW:
		c.compileThrow()
	case lexer.TRY:
		c.compileTry()
	case lexer.FUNCTION:
		c.skipFunctionDeclaration()
	case lexer.DEBUGGER:
		c.advance()
		c.consumeSemicolon()
	case lexer.IDENT:
		if c.peek.Type == lexer.COLON {
			c.compileLabelled()
			return
		}
		c.compileExpressionStatement()
	default:
		c.compileExpressionStatement()
	}
}

func (c *Compiler) compileBlock() {
	c.expect(lexer.LBRACE)
	for !c.at(lexer.RBRACE) && !c.at(lexer.EOF) {
		c.compileStatement()
	}
	c.expect(lexer.RBRACE)
}

func (c *Compiler) compileExpressionStatement() {
	c.compileExpression()
	c.emit(bytecode.OpPop, 0, 0)
	c.consumeSemicolon()
}

// compileVarStatement compiles `var` declarations. Binding creation
// already happened during hoisting; here we only compile and store
// initializers, left to right.
func (c *Compiler) compileVarStatement() {
	c.expect(lexer.VAR)
	for {
		if !c.at(lexer.IDENT) {
			c.errorf("expected identifier after var")
			break
		}
		name := c.cur.Literal
		c.advance()
		if c.at(lexer.ASSIGN) {
			c.advance()
			c.compileAssignmentExpression()
			c.emit(bytecode.OpSetVar, c.literalString(name), 0)
			c.emit(bytecode.OpPop, 0, 0)
		}
		if c.at(lexer.COMMA) {
			c.advance()
			continue
		}
		break
	}
	c.consumeSemicolon()
}

func (c *Compiler) compileIf() {
	c.expect(lexer.IF)
	c.expect(lexer.LPAREN)
	c.compileExpression()
	c.expect(lexer.RPAREN)
	jElse := c.emit(bytecode.OpJumpIfFalse, 0, 0)
	c.compileStatement()
	if c.at(lexer.ELSE) {
		jEnd := c.emit(bytecode.OpJump, 0, 0)
		c.patchJumpHere(jElse)
		c.advance()
		c.compileStatement()
		c.patchJumpHere(jEnd)
	} else {
		c.patchJumpHere(jElse)
	}
}

func (c *Compiler) pushLoop(label string) *loopCtx {
	c.loops = append(c.loops, loopCtx{label: label, continuePC: -1})
	return &c.loops[len(c.loops)-1]
}

func (c *Compiler) popLoop() loopCtx {
	l := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]
	return l
}

func (c *Compiler) compileWhile(label string) {
	c.expect(lexer.WHILE)
	c.expect(lexer.LPAREN)
	condPC := c.pc()
	c.pushLoop(label)
	c.compileExpression()
	c.expect(lexer.RPAREN)
	jExit := c.emit(bytecode.OpJumpIfFalse, 0, 0)
	c.compileStatement()
	c.emit(bytecode.OpJump, int32(condPC), 0)
	c.patchJumpHere(jExit)
	l := c.popLoop()
	for _, idx := range l.breakFixups {
		c.patchJumpHere(idx)
	}
	for _, idx := range l.continueFixups {
		c.code.Patch(idx, int32(condPC))
	}
}

func (c *Compiler) compileDoWhile(label string) {
	c.expect(lexer.DO)
	bodyPC := c.pc()
	c.pushLoop(label)
	c.compileStatement()
	c.expect(lexer.WHILE)
	c.expect(lexer.LPAREN)
	condPC := c.pc()
	c.compileExpression()
	c.expect(lexer.RPAREN)
	c.consumeSemicolon()
	c.emit(bytecode.OpJumpIfTrue, int32(bodyPC), 0)
	l := c.popLoop()
	for _, idx := range l.breakFixups {
		c.patchJumpHere(idx)
	}
	for _, idx := range l.continueFixups {
		c.code.Patch(idx, int32(condPC))
	}
}

// compileFor handles both the three-clause C-style for and for-in,
// disambiguated after compiling the init clause by checking for `in`.
func (c *Compiler) compileFor(label string) {
	c.expect(lexer.FOR)
	c.expect(lexer.LPAREN)

	if c.at(lexer.VAR) {
		c.advance()
		name := c.cur.Literal
		c.advance()
		if c.at(lexer.IN) {
			c.advance()
			c.compileExpression()
			c.compileForInBody(label, name, true)
			return
		}
		if c.at(lexer.ASSIGN) {
			c.advance()
			prevAllow := c.allowIn
			c.allowIn = false
			c.compileAssignmentExpression()
			c.allowIn = prevAllow
			c.emit(bytecode.OpSetVar, c.literalString(name), 0)
			c.emit(bytecode.OpPop, 0, 0)
		}
		for c.at(lexer.COMMA) {
			c.advance()
			n2 := c.cur.Literal
			c.advance()
			if c.at(lexer.ASSIGN) {
				c.advance()
				c.compileAssignmentExpression()
				c.emit(bytecode.OpSetVar, c.literalString(n2), 0)
				c.emit(bytecode.OpPop, 0, 0)
			}
		}
		c.expect(lexer.SEMICOLON)
		c.compileForRest(label)
		return
	}

	if !c.at(lexer.SEMICOLON) {
		prevAllow := c.allowIn
		c.allowIn = false
		r := c.compileLHS(true)
		if c.at(lexer.IN) && r.kind != refNone {
			c.allowIn = prevAllow
			c.advance()
			c.compileExpression()
			c.compileForInBodyRef(label, r)
			return
		}
		// Not for-in: resume ordinary conditional/binary/assignment
		// compilation from the already-parsed LeftHandSideExpression.
		c.compileAssignmentFrom(r)
		c.allowIn = prevAllow
		c.emit(bytecode.OpPop, 0, 0)
		for c.at(lexer.COMMA) {
			c.advance()
			c.compileAssignmentExpression()
			c.emit(bytecode.OpPop, 0, 0)
		}
	}
	c.expect(lexer.SEMICOLON)
	c.compileForRest(label)
}

func (c *Compiler) compileForRest(label string) {
	condPC := c.pc()
	var jExit int
	hasCond := !c.at(lexer.SEMICOLON)
	if hasCond {
		c.compileExpression()
		jExit = c.emit(bytecode.OpJumpIfFalse, 0, 0)
	}
	c.expect(lexer.SEMICOLON)

	if !c.at(lexer.RPAREN) {
		// The update clause's instructions must run between iterations,
		// after the body — stash its source span and re-compile it there
		// once the body itself has been compiled.
		updateStart := c.cur.StartPos
		skipExpressionTokens(c)
		c.expect(lexer.RPAREN)
		c.pushLoop(label)
		c.compileStatement()
		contPC := c.pc()
		c.compileExpressionAt(updateStart)
		c.emit(bytecode.OpPop, 0, 0)
		c.emit(bytecode.OpJump, int32(condPC), 0)
		if hasCond {
			c.patchJumpHere(jExit)
		}
		l := c.popLoop()
		for _, idx := range l.breakFixups {
			c.patchJumpHere(idx)
		}
		for _, idx := range l.continueFixups {
			c.code.Patch(idx, int32(contPC))
		}
		return
	}
	c.expect(lexer.RPAREN)
	c.pushLoop(label)
	c.compileStatement()
	c.emit(bytecode.OpJump, int32(condPC), 0)
	if hasCond {
		c.patchJumpHere(jExit)
	}
	l := c.popLoop()
	for _, idx := range l.breakFixups {
		c.patchJumpHere(idx)
	}
	for _, idx := range l.continueFixups {
		c.code.Patch(idx, int32(condPC))
	}
}

// skipExpressionTokens advances past a parenthesized for-loop's update
// clause without emitting anything, tracking bracket/paren depth so a
// nested call or array literal's commas/parens don't confuse the scan.
func skipExpressionTokens(c *Compiler) {
	depth := 0
	for {
		if depth == 0 && (c.at(lexer.RPAREN) || c.at(lexer.EOF)) {
			return
		}
		switch c.cur.Type {
		case lexer.LPAREN, lexer.LBRACKET, lexer.LBRACE:
			depth++
		case lexer.RPAREN, lexer.RBRACKET, lexer.RBRACE:
			depth--
		}
		c.advance()
	}
}

// compileExpressionAt re-lexes and compiles the expression starting at
// a remembered byte offset, used for a for-loop's update clause which
// must be emitted after the body even though it is written before it.
func (c *Compiler) compileExpressionAt(pos int) {
	savedLex, savedCur, savedPeek := c.lex, c.cur, c.peek
	c.lex = lexer.NewLexer(c.source)
	c.lex.SetPosition(pos)
	c.advance()
	c.advance()
	c.compileExpression()
	c.lex, c.cur, c.peek = savedLex, savedCur, savedPeek
}

// compileForInBody compiles `for (var name in expr) stmt`; expr's
// value is already on the stack. The enumerator lives in a per-depth
// slot (rather than a shared stack) so a `break` out of a nested for-in
// — which never runs OpForInNext's own cleanup — can't leave a stale
// enumerator shadowing an outer loop's. OpForInValue between
// OpForInNext and the var-bind observes each enumerated property
// through [[Get]], so a thrower accessor propagates out of the loop
// even when the body never reads the bound variable.
func (c *Compiler) compileForInBody(label, name string, _ bool) {
	c.expect(lexer.RPAREN)
	slot := int32(c.forInDepth)
	c.forInDepth++
	c.emit(bytecode.OpForInStart, slot, 0)
	topPC := c.pc()
	jDone := c.emit(bytecode.OpForInNext, 0, slot)
	c.emit(bytecode.OpForInValue, slot, 0)
	c.emit(bytecode.OpSetVar, c.literalString(name), 0)
	c.emit(bytecode.OpPop, 0, 0)
	c.pushLoop(label)
	c.compileStatement()
	l := c.popLoop()
	for _, idx := range l.continueFixups {
		c.code.Patch(idx, int32(topPC))
	}
	c.emit(bytecode.OpJump, int32(topPC), 0)
	c.patchJumpHere(jDone)
	for _, idx := range l.breakFixups {
		c.patchJumpHere(idx)
	}
	c.forInDepth--
}

// compileForInBodyRef handles `for (lhs in expr) stmt` where lhs is an
// ordinary reference (not a fresh var binding).
func (c *Compiler) compileForInBodyRef(label string, target ref) {
	c.expect(lexer.RPAREN)
	slot := int32(c.forInDepth)
	c.forInDepth++
	c.emit(bytecode.OpForInStart, slot, 0)
	topPC := c.pc()
	jDone := c.emit(bytecode.OpForInNext, 0, slot)
	c.emit(bytecode.OpForInValue, slot, 0)
	c.storeRef(target)
	c.emit(bytecode.OpPop, 0, 0)
	c.pushLoop(label)
	c.compileStatement()
	l := c.popLoop()
	for _, idx := range l.continueFixups {
		c.code.Patch(idx, int32(topPC))
	}
	c.emit(bytecode.OpJump, int32(topPC), 0)
	c.patchJumpHere(jDone)
	for _, idx := range l.breakFixups {
		c.patchJumpHere(idx)
	}
	c.forInDepth--
}

func (c *Compiler) compileContinue() {
	c.expect(lexer.CONTINUE)
	label := ""
	if c.at(lexer.IDENT) && !c.cur.NewlineBefore {
		label = c.cur.Literal
		c.advance()
	}
	c.consumeSemicolon()
	for i := len(c.loops) - 1; i >= 0; i-- {
		if label == "" || c.loops[i].label == label {
			idx := c.emit(bytecode.OpJump, 0, 0)
			c.loops[i].continueFixups = append(c.loops[i].continueFixups, idx)
			return
		}
	}
	c.errorf("continue statement outside a loop")
}

func (c *Compiler) compileBreak() {
	c.expect(lexer.BREAK)
	label := ""
	if c.at(lexer.IDENT) && !c.cur.NewlineBefore {
		label = c.cur.Literal
		c.advance()
	}
	c.consumeSemicolon()
	for i := len(c.loops) - 1; i >= 0; i-- {
		if label == "" || c.loops[i].label == label {
			idx := c.emit(bytecode.OpJump, 0, 0)
			c.loops[i].breakFixups = append(c.loops[i].breakFixups, idx)
			return
		}
	}
	for i := len(c.inSwitch) - 1; i >= 0; i-- {
		if label == "" || c.inSwitch[i].label == label {
			idx := c.emit(bytecode.OpJump, 0, 0)
			c.inSwitch[i].breakFixups = append(c.inSwitch[i].breakFixups, idx)
			return
		}
	}
	c.errorf("break statement outside a loop or switch")
}

func (c *Compiler) compileReturn() {
	c.expect(lexer.RETURN)
	if c.at(lexer.SEMICOLON) || c.at(lexer.RBRACE) || c.at(lexer.EOF) || c.cur.NewlineBefore {
		c.emit(bytecode.OpPushUndefined, 0, 0)
	} else {
		c.compileExpression()
	}
	c.consumeSemicolon()
	c.emit(bytecode.OpReturn, 0, 0)
}

func (c *Compiler) compileWith() {
	c.expect(lexer.WITH)
	c.expect(lexer.LPAREN)
	c.compileExpression()
	c.expect(lexer.RPAREN)
	c.emit(bytecode.OpWithEnter, 0, 0)
	c.compileStatement()
	c.emit(bytecode.OpWithExit, 0, 0)
}

func (c *Compiler) compileThrow() {
	c.expect(lexer.THROW)
	if c.cur.NewlineBefore {
		c.errorf("illegal newline after throw")
	}
	c.compileExpression()
	c.consumeSemicolon()
	c.emit(bytecode.OpThrow, 0, 0)
}

// compileTry lowers try/catch/finally onto a single OpTryBegin whose two
// operands are the catch and finally entry points (either may be -1),
// plus ordinary jumps around the catch and finally bodies so the
// non-exceptional path just falls from one into the next. The
// interpreter's handler stack consults both operands: an exception with
// a catch present jumps there; one with only a finally runs the finally
// block and then re-raises (OpEndFinally) once it completes.
func (c *Compiler) compileTry() {
	c.expect(lexer.TRY)
	tryBeginIdx := c.emit(bytecode.OpTryBegin, -1, -1)
	c.compileBlock()
	c.emit(bytecode.OpTryEnd, 0, 0)
	jAfterCatch := c.emit(bytecode.OpJump, 0, 0)

	catchPC := int32(-1)
	if c.at(lexer.CATCH) {
		catchPC = int32(c.pc())
		c.advance()
		c.expect(lexer.LPAREN)
		paramName := c.cur.Literal
		c.advance()
		c.expect(lexer.RPAREN)
		c.emit(bytecode.OpPushEnv, 0, 0)
		c.emit(bytecode.OpInitVar, c.literalString(paramName), 0)
		c.compileBlock()
		c.emit(bytecode.OpPopEnv, 0, 0)
	}
	c.patchJumpHere(jAfterCatch)

	finallyPC := int32(-1)
	if c.at(lexer.FINALLY) {
		finallyPC = int32(c.pc())
		c.advance()
		c.compileBlock()
		c.emit(bytecode.OpEndFinally, 0, 0)
	}
	if catchPC < 0 && finallyPC < 0 {
		c.syntaxError("missing catch or finally after try")
	}
	c.code.Patch(tryBeginIdx, catchPC)
	c.code.PatchB(tryBeginIdx, finallyPC)
}

func (c *Compiler) compileLabelled() {
	label := c.cur.Literal
	c.advance()
	c.expect(lexer.COLON)
	switch c.cur.Type {
	case lexer.FOR:
		c.compileFor(label)
	case lexer.WHILE:
		c.compileWhile(label)
	case lexer.DO:
		c.compileDoWhile(label)
	case lexer.SWITCH:
		c.compileSwitch(label)
	default:
		c.inSwitch = append(c.inSwitch, switchCtx{label: label})
		c.compileStatement()
		l := c.inSwitch[len(c.inSwitch)-1]
		c.inSwitch = c.inSwitch[:len(c.inSwitch)-1]
		for _, idx := range l.breakFixups {
			c.patchJumpHere(idx)
		}
	}
}

// switchClause records one CaseClause/DefaultClause's test-jump (to be
// patched once the clause's body's start PC is known) and the byte
// offset of its first body statement, so a second pass can revisit the
// body text after every test has been compiled in source order.
type switchClause struct {
	isDefault bool
	testJump  int // JumpIfTrue index; unused for isDefault
	bodyStart int
}

// compileSwitch lowers a SwitchStatement in two passes over the same
// source span: first every CaseClause's test expression, compiled in
// source order into a left-to-right chain of strict-equality checks
// against the discriminant (stashed in the scratch register), then —
// once all tests and the location of every clause body are known — the
// bodies themselves, re-lexed from their remembered offsets so
// fallthrough between clauses is just falling off the end of one
// clause's emitted body into the next's.
func (c *Compiler) compileSwitch(label string) {
	c.expect(lexer.SWITCH)
	c.expect(lexer.LPAREN)
	c.compileExpression()
	c.expect(lexer.RPAREN)
	c.emit(bytecode.OpSetReg, scratchReg, 0)
	c.emit(bytecode.OpPop, 0, 0)
	c.expect(lexer.LBRACE)

	var clauses []switchClause
	hasDefault := false

	for !c.at(lexer.RBRACE) && !c.at(lexer.EOF) {
		if c.at(lexer.DEFAULT) {
			c.advance()
			c.expect(lexer.COLON)
			hasDefault = true
			clauses = append(clauses, switchClause{isDefault: true, bodyStart: c.cur.StartPos})
		} else {
			c.expect(lexer.CASE)
			c.emit(bytecode.OpGetReg, scratchReg, 0)
			c.compileExpression()
			c.emit(bytecode.OpStrictEq, 0, 0)
			j := c.emit(bytecode.OpJumpIfTrue, 0, 0)
			c.expect(lexer.COLON)
			clauses = append(clauses, switchClause{testJump: j, bodyStart: c.cur.StartPos})
		}
		skipClauseBodyTokens(c)
	}
	c.expect(lexer.RBRACE)

	jNoMatch := c.emit(bytecode.OpJump, 0, 0)

	c.inSwitch = append(c.inSwitch, switchCtx{label: label})
	for _, cl := range clauses {
		bodyPC := c.pc()
		if cl.isDefault {
			c.code.Patch(jNoMatch, int32(bodyPC))
		} else {
			c.code.Patch(cl.testJump, int32(bodyPC))
		}
		c.compileStatementsAt(cl.bodyStart)
	}
	if !hasDefault {
		c.code.Patch(jNoMatch, int32(c.pc()))
	}
	l := c.inSwitch[len(c.inSwitch)-1]
	c.inSwitch = c.inSwitch[:len(c.inSwitch)-1]
	for _, idx := range l.breakFixups {
		c.patchJumpHere(idx)
	}
}

// skipClauseBodyTokens advances the main cursor from just after a
// clause's `:` to the next clause boundary (another `case`/`default`
// at this switch's own nesting depth, or the switch's closing `}`),
// balancing any nested blocks along the way so their contents don't
// false-trigger the boundary check.
func skipClauseBodyTokens(c *Compiler) {
	depth := 0
	for {
		if depth == 0 && (c.at(lexer.CASE) || c.at(lexer.DEFAULT) || c.at(lexer.RBRACE) || c.at(lexer.EOF)) {
			return
		}
		switch c.cur.Type {
		case lexer.LBRACE:
			depth++
		case lexer.RBRACE:
			depth--
		}
		c.advance()
	}
}

// compileStatementsAt compiles the StatementList starting at a
// remembered byte offset (a switch clause's body) using a temporary
// lexer, stopping at the next clause boundary or the switch's closing
// brace, then restores the caller's live cursor.
func (c *Compiler) compileStatementsAt(pos int) {
	savedLex, savedCur, savedPeek := c.lex, c.cur, c.peek
	c.lex = lexer.NewLexer(c.source)
	c.lex.SetPosition(pos)
	c.advance()
	c.advance()
	for !c.at(lexer.CASE) && !c.at(lexer.DEFAULT) && !c.at(lexer.RBRACE) && !c.at(lexer.EOF) {
		c.compileStatement()
	}
	c.lex, c.cur, c.peek = savedLex, savedCur, savedPeek
}
