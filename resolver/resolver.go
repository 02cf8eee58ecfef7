// Package resolver implements the static pre-interpretation pass that
// annotates each variable reference with the scope depth at which the
// tree evaluator should find it, so that lookups at runtime are O(1)
// chain walks instead of linear name searches.
package resolver

import (
	"fmt"

	"vellum/ast"
	"vellum/token"
)

// Error reports a single resolution failure (duplicate declaration,
// self-referential initializer, or a read of an undeclared name).
type Error struct {
	Loc     token.SourceLocation
	Message string
}

func newError(loc token.SourceLocation, format string, args ...any) Error {
	return Error{Loc: loc, Message: fmt.Sprintf(format, args...)}
}

func (e Error) Error() string {
	return fmt.Sprintf("%s [line %d]", e.Message, e.Loc.Line)
}

// scope maps a declared name to whether its initializer has finished
// resolving: false while resolving its own initializer (catches
// self-reference), true afterward.
type scope map[string]bool

// Resolver walks an AST once, building a map from every Variable and
// Assign node's location to the scope depth (0 = innermost) at which the
// name should be found. The global scope is scopes[0] and is never
// popped, so a name found there still receives a (large) depth rather
// than being treated as a special case.
type Resolver struct {
	scopes []scope
	locals map[token.SourceLocation]int
	errors []error
}

// New returns a Resolver with a fresh global scope pre-declaring the
// "clock" builtin.
func New() *Resolver {
	r := &Resolver{
		scopes: []scope{{}},
		locals: make(map[token.SourceLocation]int),
	}
	r.scopes[0]["clock"] = true
	return r
}

// Resolve resolves every statement in program and returns the completed
// location→depth map plus any errors encountered. Resolution does not
// stop at the first error: every statement is still visited so the
// caller sees the full set of static errors at once. Errors are scoped
// to this call only — a REPL reusing one Resolver across lines must not
// see a prior line's error linger forever.
func (r *Resolver) Resolve(program []ast.Stmt) (map[token.SourceLocation]int, []error) {
	r.errors = nil
	for _, stmt := range program {
		r.resolveStmt(stmt)
	}
	return r.locals, r.errors
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	stmt.Accept(r)
}

func (r *Resolver) resolveExpr(expr ast.Expression) {
	if expr == nil {
		return
	}
	expr.Accept(r)
}

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, scope{})
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) current() scope {
	return r.scopes[len(r.scopes)-1]
}

// resolveLocal records locations→depth for a name read/written from the
// innermost scope outward, reporting AccessUndefined if no enclosing
// scope declares it.
func (r *Resolver) resolveLocal(loc token.SourceLocation, name string) {
	for depth := len(r.scopes) - 1; depth >= 0; depth-- {
		if _, ok := r.scopes[depth][name]; ok {
			r.locals[loc] = len(r.scopes) - 1 - depth
			return
		}
	}
	r.errors = append(r.errors, newError(loc, "access to undeclared variable %q", name))
}

// --- ast.StmtVisitor ---

func (r *Resolver) VisitExpressionStmt(stmt ast.ExpressionStmt) any {
	r.resolveExpr(stmt.Expression)
	return nil
}

func (r *Resolver) VisitPrintStmt(stmt ast.PrintStmt) any {
	r.resolveExpr(stmt.Expression)
	return nil
}

func (r *Resolver) VisitVarStmt(stmt ast.VarStmt) any {
	scope := r.current()
	isGlobalScope := len(r.scopes) == 1
	if !isGlobalScope {
		if _, ok := scope[stmt.Name.Lexeme]; ok {
			r.errors = append(r.errors, newError(stmt.Name.Loc, "duplicate variable %q in this scope", stmt.Name.Lexeme))
			return nil
		}
	}
	scope[stmt.Name.Lexeme] = false
	r.resolveExpr(stmt.Initializer)
	scope[stmt.Name.Lexeme] = true
	return nil
}

func (r *Resolver) VisitBlockStmt(stmt ast.BlockStmt) any {
	r.beginScope()
	for _, s := range stmt.Statements {
		r.resolveStmt(s)
	}
	r.endScope()
	return nil
}

func (r *Resolver) VisitIfStmt(stmt ast.IfStmt) any {
	r.resolveExpr(stmt.Condition)
	r.resolveStmt(stmt.Then)
	if stmt.Else != nil {
		r.resolveStmt(stmt.Else)
	}
	return nil
}

func (r *Resolver) VisitWhileStmt(stmt ast.WhileStmt) any {
	r.resolveExpr(stmt.Condition)
	r.resolveStmt(stmt.Body)
	return nil
}

func (r *Resolver) VisitFunStmt(stmt ast.FunStmt) any {
	r.current()[stmt.Name.Lexeme] = true

	r.beginScope()
	for _, param := range stmt.Params {
		r.current()[param.Lexeme] = true
	}
	for _, s := range stmt.Body.Statements {
		r.resolveStmt(s)
	}
	r.endScope()
	return nil
}

func (r *Resolver) VisitReturnStmt(stmt ast.ReturnStmt) any {
	r.resolveExpr(stmt.Value)
	return nil
}

// --- ast.ExpressionVisitor ---

func (r *Resolver) VisitBinary(expr ast.Binary) any {
	r.resolveExpr(expr.Left)
	r.resolveExpr(expr.Right)
	return nil
}

func (r *Resolver) VisitUnary(expr ast.Unary) any {
	r.resolveExpr(expr.Right)
	return nil
}

func (r *Resolver) VisitLiteral(expr ast.Literal) any {
	return nil
}

func (r *Resolver) VisitGrouping(expr ast.Grouping) any {
	r.resolveExpr(expr.Expression)
	return nil
}

func (r *Resolver) VisitLogicalExpression(expr ast.Logical) any {
	r.resolveExpr(expr.Left)
	r.resolveExpr(expr.Right)
	return nil
}

func (r *Resolver) VisitCallExpression(expr ast.Call) any {
	r.resolveExpr(expr.Callee)
	for _, arg := range expr.Arguments {
		r.resolveExpr(arg)
	}
	return nil
}

func (r *Resolver) VisitVariableExpression(expr ast.Variable) any {
	if defined, ok := r.current()[expr.Name.Lexeme]; ok && !defined {
		r.errors = append(r.errors, newError(expr.Name.Loc, "can't read variable %q in its own initializer", expr.Name.Lexeme))
		return nil
	}
	r.resolveLocal(expr.Name.Loc, expr.Name.Lexeme)
	return nil
}

func (r *Resolver) VisitAssignExpression(expr ast.Assign) any {
	r.resolveExpr(expr.Value)
	r.resolveLocal(expr.Name.Loc, expr.Name.Lexeme)
	return nil
}
