package compiler

import (
	"ecmago/pkg/bytecode"
	"ecmago/pkg/lexer"
)

// compileFunctionLiteral parses a FunctionDeclaration/FunctionExpression
// starting at the current `function` token and compiles its body into
// c.code (a fresh CompiledCode the caller already attached via
// newChild). Grounded on spec §4.5 step 6 ("nested functions compile
// recursively").
func (c *Compiler) compileFunctionLiteral() (name string, ok bool) {
	if !c.expect(lexer.FUNCTION) {
		return "", false
	}
	if c.at(lexer.IDENT) {
		name = c.cur.Literal
		c.advance()
	}
	c.code.Name = name
	c.code.Filename = c.filename

	if !c.expect(lexer.LPAREN) {
		return name, false
	}
	var params []string
	for !c.at(lexer.RPAREN) && !c.at(lexer.EOF) {
		if c.at(lexer.IDENT) {
			if c.strict && (c.cur.Literal == "eval" || c.cur.Literal == "arguments") {
				c.syntaxError("cannot name a parameter 'eval' or 'arguments' in strict mode")
			}
			params = append(params, c.cur.Literal)
			c.advance()
		}
		if c.at(lexer.COMMA) {
			c.advance()
			continue
		}
		break
	}
	if !c.expect(lexer.RPAREN) {
		return name, false
	}
	if !c.expect(lexer.LBRACE) {
		return name, false
	}
	bodyStart := c.cur.StartPos

	c.code.ParamNames = params
	c.code.ArgCount = len(params)

	c.scope = prescan(c.source, bodyStart, true)
	c.strict = c.strict || c.scope.strict
	c.code.Strict = c.strict
	c.code.NeedsArguments = c.scope.needsArgs
	c.code.NeedsLexEnv = c.scope.needsClosure || c.scope.needsArgs || len(c.scope.funcOrder) > 0

	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if c.strict && (p == "eval" || p == "arguments") {
			c.syntaxError("parameter name may not be eval or arguments in strict mode")
		}
		if c.strict && seen[p] {
			c.syntaxError("duplicate parameter name in strict mode")
		}
		seen[p] = true
	}

	c.hoistDeclarations()
	for !c.at(lexer.RBRACE) && !c.at(lexer.EOF) {
		c.compileStatement()
	}
	c.expect(lexer.RBRACE)

	c.emit(bytecode.OpPushUndefined, 0, 0)
	c.emit(bytecode.OpReturn, 0, 0)
	c.code.RegisterCount = c.maxDepth
	return name, true
}

// spawnFunctionChild parses the function literal starting at the
// current token (which must be `function`) in a fresh child Compiler
// with its own lexer over the same source text, then resumes the parent
// at the child's current token, the first one past the function's
// closing brace. Inline function expressions and function declarations
// met at their textual position (skipFunctionDeclaration) are parsed
// this way from the parent's live cursor without the parent and child
// sharing token state; hoistDeclarations compiles hoisted declarations
// with its own child, spawned from a remembered byte offset.
func (c *Compiler) spawnFunctionChild() (*Compiler, string) {
	startPos := c.cur.StartPos
	child := newChild(c, "", c.strict)
	child.lex = lexer.NewLexer(c.source)
	child.lex.SetPosition(startPos)
	child.advance()
	child.advance()
	name, _ := child.compileFunctionLiteral()
	c.errs = append(c.errs, child.errs...)
	c.lex.SetPosition(child.cur.StartPos)
	c.advance()
	c.advance()
	c.cur.NewlineBefore = child.cur.NewlineBefore
	return child, name
}

// compileFunctionExpression spawns, registers, and emits the
// push-literal+make-function pair for a function appearing in
// expression position (assignment RHS, call argument, IIFE, …).
func (c *Compiler) compileFunctionExpression() {
	child, _ := c.spawnFunctionChild()
	idx := len(c.code.Functions)
	c.code.Functions = append(c.code.Functions, child.code)
	c.emit(bytecode.OpPushLiteral, c.literalFunc(idx), 0)
	c.emit(bytecode.OpMakeFunction, int32(idx), 0)
}

// skipFunctionDeclaration parses (for side effects on the literal pool
// bookkeeping only) and discards a FunctionDeclaration statement — its
// binding was already created during hoistDeclarations, so encountering
// it again at its textual position produces no executable instruction
// (ECMA-262 10.5: function declarations are not themselves statements
// with runtime effect).
func (c *Compiler) skipFunctionDeclaration() {
	c.spawnFunctionChild()
}
