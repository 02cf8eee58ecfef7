package compiler

import (
	"fmt"

	"vellum/token"
)

// SemanticError reports a single compile-time failure at a specific
// source location and lexeme. Like the recursive-descent parser's
// SyntaxError it carries a location and a message; unlike it, it also
// records the offending lexeme and prints it in Error() (spec.md §4.5's
// error policy is shared with §4.2's synchronize heuristic).
type SemanticError struct {
	Loc     token.SourceLocation
	Lexeme  string
	Message string
}

func (e SemanticError) Error() string {
	return fmt.Sprintf("%s at '%s' [line %d]", e.Message, e.Lexeme, e.Loc.Line)
}
