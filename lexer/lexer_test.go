package lexer

import (
	"testing"

	"vellum/token"
	"vellum/value"
)

func scanTypes(t *testing.T, source string) []token.TokenType {
	t.Helper()
	toks, errs := New(source).Scan()
	if len(errs) != 0 {
		t.Fatalf("Scan(%q) returned errors: %v", source, errs)
	}
	types := make([]token.TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func TestScanOperators(t *testing.T) {
	got := scanTypes(t, "==/=*+>-<!=<=>=!")
	want := []token.TokenType{
		token.EqualEqual, token.Slash, token.Equal, token.Star, token.Plus,
		token.Greater, token.Minus, token.Less, token.BangEqual,
		token.LessEqual, token.GreaterEqual, token.Bang, token.EoF,
	}
	assertTypes(t, got, want)
}

func TestScanPunctuation(t *testing.T) {
	got := scanTypes(t, "(){},.;")
	want := []token.TokenType{
		token.LeftParen, token.RightParen, token.LeftBrace, token.RightBrace,
		token.Comma, token.Dot, token.Semicolon, token.EoF,
	}
	assertTypes(t, got, want)
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	got := scanTypes(t, "var x = fun foo")
	want := []token.TokenType{
		token.Var, token.Identifier, token.Equal, token.Fun,
		token.Identifier, token.EoF,
	}
	assertTypes(t, got, want)
}

func TestScanLineComment(t *testing.T) {
	toks, errs := New("var x = 1; // trailing comment\nprint x;").Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	for _, tok := range toks {
		if tok.Type == token.Identifier && tok.Lexeme == "comment" {
			t.Fatalf("comment text leaked into token stream: %v", toks)
		}
	}
}

func TestScanNestedBlockComment(t *testing.T) {
	toks, errs := New("1 /* outer /* inner */ still-outer */ 2").Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []token.TokenType{token.Number, token.Number, token.EoF}
	assertTypes(t, typesOf(toks), want)
}

func TestScanUnterminatedBlockComment(t *testing.T) {
	_, errs := New("1 /* never closed").Scan()
	if len(errs) == 0 {
		t.Fatalf("expected an unterminated-comment error")
	}
}

func TestScanStringLiteral(t *testing.T) {
	toks, errs := New(`"hello world"`).Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if toks[0].Type != token.String || toks[0].Literal != value.ConstString("hello world") {
		t.Fatalf("got %+v, want String literal %q", toks[0], "hello world")
	}
}

func TestScanMultilineString(t *testing.T) {
	toks, errs := New("\"line one\nline two\"").Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := value.ConstString("line one\nline two")
	if toks[0].Literal != want {
		t.Fatalf("got literal %q, want %q", toks[0].Literal, want)
	}
}

func TestScanUnterminatedString(t *testing.T) {
	_, errs := New(`"never closed`).Scan()
	if len(errs) == 0 {
		t.Fatalf("expected an unterminated-string error")
	}
}

func TestScanNumbers(t *testing.T) {
	toks, errs := New("123 45.67 8.").Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if toks[0].Literal != 123.0 {
		t.Fatalf("got %v, want 123", toks[0].Literal)
	}
	if toks[1].Literal != 45.67 {
		t.Fatalf("got %v, want 45.67", toks[1].Literal)
	}
	// "8." has no digit after the dot, so the dot is its own token.
	if toks[2].Literal != 8.0 || toks[3].Type != token.Dot {
		t.Fatalf("trailing dot not split correctly: %+v %+v", toks[2], toks[3])
	}
}

func TestScanEndsInExactlyOneEoF(t *testing.T) {
	toks, _ := New("print 1;").Scan()
	eofCount := 0
	for i, tok := range toks {
		if tok.Type == token.EoF {
			eofCount++
			if i != len(toks)-1 {
				t.Fatalf("EoF not at end of stream: %v", toks)
			}
		}
	}
	if eofCount != 1 {
		t.Fatalf("got %d EoF tokens, want exactly 1", eofCount)
	}
}

func typesOf(toks []token.Token) []token.TokenType {
	types := make([]token.TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func assertTypes(t *testing.T, got, want []token.TokenType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v (full: got=%v want=%v)", i, got[i], want[i], got, want)
		}
	}
}
