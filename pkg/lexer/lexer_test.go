package lexer

import "testing"

func TestNextToken(t *testing.T) {
	input := `var five = 5;
var ten = 10.5;

var add = function(x, y) {
  return x + y;
};

var result = add(five, ten);
!*-5/5;
5 < 10 > 5;

if (5 < 10) {
	return true;
} else {
	return false;
}

10 == 10;
10 != 9;
"foobar"
"foo bar"
// This is a comment
var next = null;`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{VAR, "var"},
		{IDENT, "five"},
		{ASSIGN, "="},
		{NUMBER, "5"},
		{SEMICOLON, ";"},
		{VAR, "var"},
		{IDENT, "ten"},
		{ASSIGN, "="},
		{NUMBER, "10.5"},
		{SEMICOLON, ";"},
		{VAR, "var"},
		{IDENT, "add"},
		{ASSIGN, "="},
		{FUNCTION, "function"},
		{LPAREN, "("},
		{IDENT, "x"},
		{COMMA, ","},
		{IDENT, "y"},
		{RPAREN, ")"},
		{LBRACE, "{"},
		{RETURN, "return"},
		{IDENT, "x"},
		{PLUS, "+"},
		{IDENT, "y"},
		{SEMICOLON, ";"},
		{RBRACE, "}"},
		{SEMICOLON, ";"},
		{VAR, "var"},
		{IDENT, "result"},
		{ASSIGN, "="},
		{IDENT, "add"},
		{LPAREN, "("},
		{IDENT, "five"},
		{COMMA, ","},
		{IDENT, "ten"},
		{RPAREN, ")"},
		{SEMICOLON, ";"},
		{BANG, "!"},
		{ASTERISK, "*"},
		{MINUS, "-"},
		{NUMBER, "5"},
		{SLASH, "/"},
		{NUMBER, "5"},
		{SEMICOLON, ";"},
		{NUMBER, "5"},
		{LT, "<"},
		{NUMBER, "10"},
		{GT, ">"},
		{NUMBER, "5"},
		{SEMICOLON, ";"},
		{IF, "if"},
		{LPAREN, "("},
		{NUMBER, "5"},
		{LT, "<"},
		{NUMBER, "10"},
		{RPAREN, ")"},
		{LBRACE, "{"},
		{RETURN, "return"},
		{TRUE, "true"},
		{SEMICOLON, ";"},
		{RBRACE, "}"},
		{ELSE, "else"},
		{LBRACE, "{"},
		{RETURN, "return"},
		{FALSE, "false"},
		{SEMICOLON, ";"},
		{RBRACE, "}"},
		{NUMBER, "10"},
		{EQ, "=="},
		{NUMBER, "10"},
		{SEMICOLON, ";"},
		{NUMBER, "10"},
		{NOT_EQ, "!="},
		{NUMBER, "9"},
		{SEMICOLON, ";"},
		{STRING, "foobar"},
		{STRING, "foo bar"},
		{VAR, "var"},
		{IDENT, "next"},
		{ASSIGN, "="},
		{NULL, "null"},
		{SEMICOLON, ";"},
		{EOF, ""},
	}

	l := NewLexer(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (literal %q)", i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestStrictEquality(t *testing.T) {
	l := NewLexer("a === b !== c")
	want := []TokenType{IDENT, STRICT_EQ, IDENT, STRICT_NE, IDENT, EOF}
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w {
			t.Fatalf("tests[%d] - expected=%q, got=%q", i, w, tok.Type)
		}
	}
}

func TestBitwiseAndShift(t *testing.T) {
	l := NewLexer("a & b | c ^ d << 1 >> 1 >>> 1")
	want := []TokenType{IDENT, AMP, IDENT, PIPE, IDENT, CARET, IDENT, SHL, NUMBER, SHR, NUMBER, USHR, NUMBER, EOF}
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w {
			t.Fatalf("tests[%d] - expected=%q, got=%q", i, w, tok.Type)
		}
	}
}

func TestNewlineBeforeTracksASI(t *testing.T) {
	l := NewLexer("a\nb")
	first := l.NextToken()
	if first.NewlineBefore {
		t.Fatalf("first token should not report a leading newline")
	}
	second := l.NextToken()
	if !second.NewlineBefore {
		t.Fatalf("second token should report a leading newline")
	}
}

func TestHexAndLegacyOctalNumbers(t *testing.T) {
	l := NewLexer("0xFF 0x10 010")
	for _, want := range []string{"0xFF", "0x10", "010"} {
		tok := l.NextToken()
		if tok.Type != NUMBER || tok.Literal != want {
			t.Fatalf("expected NUMBER %q, got %q %q", want, tok.Type, tok.Literal)
		}
	}
}
