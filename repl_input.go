package main

import (
	"vellum/parser"
	"vellum/token"
)

// isInputReady reports whether tokens form a complete enough program to
// attempt parsing, versus needing another line from the user: no '{'
// may be left unclosed, and the last real token must not be one that obviously
// expects more input (an operator, an opener, or a keyword that always
// introduces a clause). Both REPL commands share this so a multi-line
// "if (...) {" or "fun f() {" block is accepted across several lines.
func isInputReady(tokens []token.Token) bool {
	braceBalance := 0
	for _, tok := range tokens {
		switch tok.Type {
		case token.LeftBrace:
			braceBalance++
		case token.RightBrace:
			braceBalance--
		}
	}
	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.Type {
	case token.Equal,
		token.Plus,
		token.Minus,
		token.Star,
		token.Slash,
		token.Bang,
		token.EqualEqual,
		token.BangEqual,
		token.Less,
		token.LessEqual,
		token.Greater,
		token.GreaterEqual,
		token.Comma,
		token.LeftParen,
		token.LeftBrace,
		token.If,
		token.Else,
		token.While,
		token.For,
		token.Fun,
		token.Return,
		token.Var,
		token.And,
		token.Or,
		token.Print:
		return false
	}

	return true
}

// lastNonEOF returns the last non-EoF token, or nil if tokens is all EoF.
func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].Type != token.EoF {
			return &tokens[i]
		}
	}
	return nil
}

// allParseErrorsAtEOF reports whether every parse error was raised at
// the position of the stream's final EoF token, meaning the user simply
// hasn't finished typing rather than having made a real mistake.
func allParseErrorsAtEOF(parseErrs []error, eof token.Token) bool {
	if len(parseErrs) == 0 {
		return false
	}
	for _, parseErr := range parseErrs {
		syntaxErr, ok := parseErr.(parser.SyntaxError)
		if !ok {
			return false
		}
		if syntaxErr.Loc.Line != eof.Loc.Line || syntaxErr.Loc.Column != eof.Loc.Column {
			return false
		}
	}
	return true
}
