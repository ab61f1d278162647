package compiler

import "ecmago/pkg/lexer"

// scopeInfo is the result of spec §4.5 step 1's pre-scan: every `var`
// and function-declaration name hoisted into this function's top-level
// binding set, plus the two flags that change how the interpreter must
// set a frame up (NeedsArguments, NeedsLexEnv on the CompiledCode
// header) and whether a directive prologue promotes strict mode.
type scopeInfo struct {
	vars         []string
	funcOrder    []string       // function declaration names, first-appearance order
	funcPos      map[string]int // name -> byte offset of its *last* `function` keyword
	needsArgs    bool
	needsClosure bool // a nested function literal appears somewhere in the body
	strict       bool
}

// prescan re-lexes source starting at pos (the first token of a
// function/program body) and walks forward balance-counting braces,
// collecting `var` declarations and top-level `function name(...)`
// declarations, stopping at the matching closing brace (or EOF for a
// program). It does not walk into nested function bodies' brace-balanced
// interior for var/function collection (those hoist into their own
// scope), but does note that a `function` keyword appeared at all, for
// NeedsClosure, and whether `arguments` was referenced anywhere in the
// (non-nested) body.
//
// This is deliberately approximate relative to a full parser's scope
// walk — grounded on the same two-pass shape js-parser-internal.c uses,
// simplified because this package has no separate AST to re-walk; see
// DESIGN.md.
func prescan(source string, pos int, isFunctionBody bool) *scopeInfo {
	l := lexer.NewLexer(source)
	l.SetPosition(pos)

	info := &scopeInfo{strict: hasUseStrictDirective(source, pos), funcPos: make(map[string]int)}
	depth := 0

	prev := lexer.Token{}
	for {
		tok := l.NextToken()
		if tok.Type == lexer.EOF {
			break
		}
		switch tok.Type {
		case lexer.LBRACE:
			depth++
		case lexer.RBRACE:
			// depth==0 here means this brace closes the body we started
			// inside (we were handed the position just past its opening
			// brace, so depth never counted that one).
			if isFunctionBody && depth == 0 {
				goto done
			}
			depth--
		case lexer.IDENT:
			if tok.Literal == "arguments" {
				info.needsArgs = true
			}
			if prev.Type == lexer.VAR {
				info.vars = appendUnique(info.vars, tok.Literal)
			}
		case lexer.FUNCTION:
			info.needsClosure = true
			// A nested function's entire `name(params){body}` tail is
			// consumed atomically by skipBalanced on this same lexer, so
			// its internal braces never reach the switch above and never
			// perturb `depth`.
			funcStart := tok.StartPos
			nameTok := l.NextToken()
			if nameTok.Type == lexer.IDENT {
				if _, seen := info.funcPos[nameTok.Literal]; !seen {
					info.funcOrder = append(info.funcOrder, nameTok.Literal)
				}
				info.funcPos[nameTok.Literal] = funcStart
			}
			skipBalanced(l)
			prev = lexer.Token{Type: lexer.RBRACE}
			continue
		}
		prev = tok
	}
done:
	return info
}

// skipBalanced consumes tokens through a function's `(params) { body }`
// tail, leaving the lexer positioned just after the matching `}`.
func skipBalanced(l *lexer.Lexer) {
	// skip to first '{'
	for {
		t := l.NextToken()
		if t.Type == lexer.LBRACE || t.Type == lexer.EOF {
			break
		}
	}
	depth := 1
	for depth > 0 {
		t := l.NextToken()
		switch t.Type {
		case lexer.LBRACE:
			depth++
		case lexer.RBRACE:
			depth--
		case lexer.EOF:
			return
		}
	}
}

// hasUseStrictDirective reports whether the directive prologue (a run
// of string-literal expression statements at the very start of a body,
// ECMA-262 §14.1) contains "use strict".
func hasUseStrictDirective(source string, pos int) bool {
	l := lexer.NewLexer(source)
	l.SetPosition(pos)
	for {
		tok := l.NextToken()
		if tok.Type != lexer.STRING {
			return false
		}
		directive := tok.Literal
		sep := l.NextToken()
		if directive == "use strict" {
			return true
		}
		if sep.Type != lexer.SEMICOLON && !sep.NewlineBefore && sep.Type != lexer.RBRACE {
			return false
		}
		if sep.Type != lexer.SEMICOLON {
			// sep was already the next directive candidate or ends the prologue;
			// re-scan needs sep to be re-examined as the next token, which
			// requires pushback the lexer doesn't support, so approximate by
			// only recognizing ';'-terminated directives (the common case
			// emitted by every real ES5 toolchain).
			return false
		}
	}
}

func appendUnique(ss []string, s string) []string {
	for _, e := range ss {
		if e == s {
			return ss
		}
	}
	return append(ss, s)
}
