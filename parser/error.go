package parser

import (
	"fmt"

	"vellum/token"
)

// SyntaxError reports a single parse failure at a specific source
// location. Parse errors are collected, not fatal: Parser.Parse keeps
// synchronizing and continuing after each one.
type SyntaxError struct {
	Loc     token.SourceLocation
	Message string
}

func newSyntaxError(loc token.SourceLocation, message string) SyntaxError {
	return SyntaxError{Loc: loc, Message: message}
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("%s [line %d]", e.Message, e.Loc.Line)
}
