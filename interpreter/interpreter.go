// Package interpreter implements the tree-walking execution path: it
// evaluates a parsed and resolved AST directly against a chain of
// Environment frames.
package interpreter

import (
	"fmt"
	"io"
	"time"

	"vellum/ast"
	"vellum/token"
	"vellum/value"
)

// returnSignal is the sentinel a Visit*Stmt method returns from
// ast.Stmt.Accept to unwind a Return statement up through blocks,
// if, and while without exceptions, per spec's "(value, is_return)"
// statement execution contract.
type returnSignal struct{ value any }

// TreeWalkInterpreter evaluates statements and expressions directly
// against an Environment chain. One instance persists across REPL
// lines so that top-level variables survive between inputs.
type TreeWalkInterpreter struct {
	globals *Environment
	env     *Environment
	locals  map[token.SourceLocation]int
	out     io.Writer
	start   time.Time
}

// New returns an interpreter with a fresh global environment
// pre-populated with the clock() builtin, using locals (the
// resolver's location→depth map) for variable lookups.
func New(locals map[token.SourceLocation]int, out io.Writer) *TreeWalkInterpreter {
	globals := NewEnvironment()
	i := &TreeWalkInterpreter{globals: globals, env: globals, locals: locals, out: out, start: time.Now()}
	globals.Define("clock", &nativeFunction{
		name:  "clock",
		arity: 0,
		invoke: func(args []any) (any, error) {
			return float64(time.Since(i.start).Milliseconds()), nil
		},
	}, true)
	return i
}

// SetLocals replaces the resolver's location→depth map the interpreter
// consults for variable lookups. The REPL resolves each new line with
// one persistent Resolver (whose global scope and location→depth map
// accumulate across lines) and hands the interpreter the map Resolve
// returned for that line.
func (i *TreeWalkInterpreter) SetLocals(locals map[token.SourceLocation]int) {
	i.locals = locals
}

// Interpret executes statements against the interpreter's persistent
// environment. A single runtime error aborts execution and is
// returned; globals mutated before the error remain intact, letting a
// REPL continue with a partially-updated global scope.
func (i *TreeWalkInterpreter) Interpret(statements []ast.Stmt) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if rtErr, ok := r.(RuntimeError); ok {
				err = rtErr
				return
			}
			panic(r)
		}
	}()
	i.executeStatements(statements)
	return nil
}

func (i *TreeWalkInterpreter) executeStatements(statements []ast.Stmt) (any, bool) {
	for _, s := range statements {
		if value, isReturn := i.executeStmt(s); isReturn {
			return value, true
		}
	}
	return nil, false
}

func (i *TreeWalkInterpreter) executeStmt(stmt ast.Stmt) (any, bool) {
	result := stmt.Accept(i)
	if rs, ok := result.(returnSignal); ok {
		return rs.value, true
	}
	return nil, false
}

// executeBlockIn runs statements against frame (the call's freshly
// bound parameter environment) and restores the caller's environment
// afterward, regardless of how execution ends.
func (i *TreeWalkInterpreter) executeBlockIn(statements []ast.Stmt, frame *Environment) (result any, isReturn bool, err error) {
	previous := i.env
	i.env = frame
	defer func() { i.env = previous }()
	result, isReturn = i.executeStatements(statements)
	return result, isReturn, nil
}

func (i *TreeWalkInterpreter) evaluate(expr ast.Expression) any {
	return expr.Accept(i)
}

// --- ast.StmtVisitor ---

func (i *TreeWalkInterpreter) VisitExpressionStmt(stmt ast.ExpressionStmt) any {
	i.evaluate(stmt.Expression)
	return nil
}

func (i *TreeWalkInterpreter) VisitPrintStmt(stmt ast.PrintStmt) any {
	result := i.evaluate(stmt.Expression)
	fmt.Fprintln(i.out, value.Stringify(result))
	return nil
}

func (i *TreeWalkInterpreter) VisitVarStmt(stmt ast.VarStmt) any {
	if stmt.Initializer == nil {
		i.env.Define(stmt.Name.Lexeme, nil, false)
		return nil
	}
	result := i.evaluate(stmt.Initializer)
	i.env.Define(stmt.Name.Lexeme, result, true)
	return nil
}

func (i *TreeWalkInterpreter) VisitBlockStmt(stmt ast.BlockStmt) any {
	previous := i.env
	i.env = NewChildEnvironment(previous)
	defer func() { i.env = previous }()
	result, isReturn := i.executeStatements(stmt.Statements)
	if isReturn {
		return returnSignal{result}
	}
	return nil
}

func (i *TreeWalkInterpreter) VisitIfStmt(stmt ast.IfStmt) any {
	if value.IsTruthy(i.evaluate(stmt.Condition)) {
		return i.passThroughReturn(i.executeStmt(stmt.Then))
	}
	if stmt.Else != nil {
		return i.passThroughReturn(i.executeStmt(stmt.Else))
	}
	return nil
}

func (i *TreeWalkInterpreter) VisitWhileStmt(stmt ast.WhileStmt) any {
	for value.IsTruthy(i.evaluate(stmt.Condition)) {
		result, isReturn := i.executeStmt(stmt.Body)
		if isReturn {
			return returnSignal{result}
		}
	}
	return nil
}

func (i *TreeWalkInterpreter) passThroughReturn(result any, isReturn bool) any {
	if isReturn {
		return returnSignal{result}
	}
	return nil
}

func (i *TreeWalkInterpreter) VisitFunStmt(stmt ast.FunStmt) any {
	params := make([]string, len(stmt.Params))
	for idx, p := range stmt.Params {
		params[idx] = p.Lexeme
	}
	fn := &Function{Name: stmt.Name.Lexeme, Params: params, Body: stmt.Body, Closure: i.env}
	i.env.Define(stmt.Name.Lexeme, fn, true)
	return nil
}

func (i *TreeWalkInterpreter) VisitReturnStmt(stmt ast.ReturnStmt) any {
	if stmt.Value == nil {
		return returnSignal{nil}
	}
	return returnSignal{i.evaluate(stmt.Value)}
}

// --- ast.ExpressionVisitor ---

func (i *TreeWalkInterpreter) VisitLiteral(expr ast.Literal) any {
	return expr.Value
}

func (i *TreeWalkInterpreter) VisitGrouping(expr ast.Grouping) any {
	return i.evaluate(expr.Expression)
}

func (i *TreeWalkInterpreter) VisitUnary(expr ast.Unary) any {
	operand := i.evaluate(expr.Right)
	switch expr.Operator.Type {
	case token.Minus:
		n, ok := operand.(float64)
		if !ok {
			i.fail(expr.Operator.Loc, "operand must be a Number")
		}
		return -n
	case token.Bang:
		return !value.IsTruthy(operand)
	default:
		i.fail(expr.Operator.Loc, fmt.Sprintf("unsupported unary operator %q", expr.Operator.Lexeme))
		return nil
	}
}

func (i *TreeWalkInterpreter) VisitBinary(expr ast.Binary) any {
	left := i.evaluate(expr.Left)
	right := i.evaluate(expr.Right)
	loc := expr.Operator.Loc

	switch expr.Operator.Type {
	case token.Plus:
		return i.add(left, right, loc)
	case token.Minus:
		l, r := i.bothNumbers(left, right, loc)
		return l - r
	case token.Star:
		l, r := i.bothNumbers(left, right, loc)
		return l * r
	case token.Slash:
		l, r := i.bothNumbers(left, right, loc)
		if r == 0 {
			i.fail(loc, "division by zero")
		}
		return l / r
	case token.Greater:
		l, r := i.bothNumbers(left, right, loc)
		return l > r
	case token.GreaterEqual:
		l, r := i.bothNumbers(left, right, loc)
		return l >= r
	case token.Less:
		l, r := i.bothNumbers(left, right, loc)
		return l < r
	case token.LessEqual:
		l, r := i.bothNumbers(left, right, loc)
		return l <= r
	case token.EqualEqual:
		return value.Equal(left, right)
	case token.BangEqual:
		return !value.Equal(left, right)
	default:
		i.fail(loc, fmt.Sprintf("unsupported operator %q", expr.Operator.Lexeme))
		return nil
	}
}

func (i *TreeWalkInterpreter) add(left, right any, loc token.SourceLocation) any {
	lf, lIsNum := left.(float64)
	rf, rIsNum := right.(float64)
	if lIsNum && rIsNum {
		return lf + rf
	}
	if isStringish(left) || isStringish(right) {
		return value.String(value.Stringify(left) + value.Stringify(right))
	}
	i.fail(loc, "operands must be two numbers or involve a string")
	return nil
}

func isStringish(v any) bool {
	switch v.(type) {
	case value.String, value.ConstString:
		return true
	default:
		return false
	}
}

func (i *TreeWalkInterpreter) bothNumbers(left, right any, loc token.SourceLocation) (float64, float64) {
	lf, lok := left.(float64)
	rf, rok := right.(float64)
	if !lok || !rok {
		i.fail(loc, "operands must be numbers")
	}
	return lf, rf
}

func (i *TreeWalkInterpreter) VisitLogicalExpression(expr ast.Logical) any {
	left := i.evaluate(expr.Left)
	if expr.Operator.Type == token.Or {
		if value.IsTruthy(left) {
			return left
		}
		return i.evaluate(expr.Right)
	}
	if !value.IsTruthy(left) {
		return left
	}
	return i.evaluate(expr.Right)
}

func (i *TreeWalkInterpreter) VisitVariableExpression(expr ast.Variable) any {
	v, found, initialized := i.lookup(expr.Name.Loc, expr.Name.Lexeme)
	if !found {
		i.fail(expr.Name.Loc, fmt.Sprintf("undefined variable %q", expr.Name.Lexeme))
	}
	if !initialized {
		i.fail(expr.Name.Loc, fmt.Sprintf("uninitialized variable %q", expr.Name.Lexeme))
	}
	return v
}

func (i *TreeWalkInterpreter) VisitAssignExpression(expr ast.Assign) any {
	result := i.evaluate(expr.Value)
	if depth, ok := i.locals[expr.Name.Loc]; ok {
		if err := i.env.UpdateAt(expr.Name.Lexeme, result, depth); err != nil {
			i.fail(expr.Name.Loc, fmt.Sprintf("undefined variable %q", expr.Name.Lexeme))
		}
		return result
	}
	if !i.globals.Update(expr.Name.Lexeme, result) {
		i.fail(expr.Name.Loc, fmt.Sprintf("undefined variable %q", expr.Name.Lexeme))
	}
	return result
}

func (i *TreeWalkInterpreter) VisitCallExpression(expr ast.Call) any {
	callee := i.evaluate(expr.Callee)
	fn, ok := callee.(callable)
	if !ok {
		i.fail(expr.Paren.Loc, "can only call functions")
	}
	args := make([]any, len(expr.Arguments))
	for idx, argExpr := range expr.Arguments {
		args[idx] = i.evaluate(argExpr)
	}
	if len(args) != fn.Arity() {
		i.fail(expr.Paren.Loc, fmt.Sprintf("expected %d arguments but got %d", fn.Arity(), len(args)))
	}
	result, err := fn.call(i, args)
	if err != nil {
		i.fail(expr.Paren.Loc, err.Error())
	}
	return result
}

// lookup resolves name per spec.md §4.4: if its use site has a
// resolved depth, read exactly that ancestor frame; otherwise read
// directly from globals.
func (i *TreeWalkInterpreter) lookup(loc token.SourceLocation, name string) (value any, found bool, initialized bool) {
	if depth, ok := i.locals[loc]; ok {
		v, init, err := i.env.GetAt(name, depth)
		if err != nil {
			return nil, false, false
		}
		return v, true, init
	}
	return i.globals.Get(name)
}

func (i *TreeWalkInterpreter) fail(loc token.SourceLocation, message string) {
	panic(newRuntimeError(loc.Line, loc.Column, message))
}
