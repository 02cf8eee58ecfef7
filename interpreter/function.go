package interpreter

import "vellum/ast"

// callable is implemented by every value the tree evaluator can
// invoke via a Call expression: user-defined Function values and the
// native clock() builtin.
type callable interface {
	CallableName() string
	Arity() int
	call(i *TreeWalkInterpreter, args []any) (any, error)
}

// Function is a user-defined function value: its parameter list and
// body (shared by pointer so every closure created from one
// declaration points at the same body), plus the environment frame
// captured at declaration time.
type Function struct {
	Name    string
	Params  []string
	Body    *ast.BlockStmt
	Closure *Environment
}

// CallableName satisfies value.Callable for diagnostics and Stringify.
func (f *Function) CallableName() string { return f.Name }

// Arity reports the number of parameters the function declares.
func (f *Function) Arity() int { return len(f.Params) }

func (f *Function) call(i *TreeWalkInterpreter, args []any) (any, error) {
	frame := NewChildEnvironment(f.Closure)
	for idx, param := range f.Params {
		frame.Define(param, args[idx], true)
	}
	result, isReturn, err := i.executeBlockIn(f.Body.Statements, frame)
	if err != nil {
		return nil, err
	}
	if isReturn {
		return result, nil
	}
	return nil, nil
}

// nativeFunction wraps a Go closure as a callable value, used for
// clock().
type nativeFunction struct {
	name   string
	arity  int
	invoke func(args []any) (any, error)
}

func (n *nativeFunction) CallableName() string { return n.name }
func (n *nativeFunction) Arity() int            { return n.arity }
func (n *nativeFunction) call(_ *TreeWalkInterpreter, args []any) (any, error) {
	return n.invoke(args)
}
