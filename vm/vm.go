// Package vm implements the stack-based virtual machine that executes
// compiler.Chunk bytecode: spec.md §4.6's closed opcode set, with no
// jump/call instructions — if/while/for and function calls live only on
// the tree-walking path in this repository.
package vm

import (
	"fmt"
	"io"
	"os"

	"vellum/compiler"
	"vellum/value"
)

// initialStackCapacity matches spec.md §4.6's "initial capacity 256";
// the stack still grows past it via Stack's ordinary append.
const initialStackCapacity = 256

// VM holds the state of one bytecode execution: the value stack, the
// global-variable table, and the instruction pointer. Globals persist
// across repeated Run calls on the same VM so a REPL can keep state
// alive between lines, mirroring how the tree interpreter keeps one
// root Environment alive for the same reason.
type VM struct {
	stack   Stack
	globals map[string]any
	ip      int

	// Out is where "print" statements are written; defaults to stdout.
	Out io.Writer
}

// New returns a VM with an empty global table and a stack pre-sized to
// initialStackCapacity.
func New() *VM {
	return &VM{
		stack:   make(Stack, 0, initialStackCapacity),
		globals: make(map[string]any),
		Out:     os.Stdout,
	}
}

// Run executes chunk from its first byte. It does not reset globals, so
// a chunk compiled from a later REPL line sees variables a prior chunk
// defined. A single RuntimeError aborts execution immediately, per
// spec.md §7.
func (vm *VM) Run(chunk *compiler.Chunk) error {
	vm.ip = 0
	for vm.ip < len(chunk.Code) {
		op := compiler.OpCode(chunk.Code[vm.ip])
		opIP := vm.ip
		vm.ip++

		switch op {
		case compiler.OpReturn:
			return nil

		case compiler.OpConstant:
			idx := int(chunk.Code[vm.ip])
			vm.ip++
			vm.stack.Push(chunk.Constants[idx])

		case compiler.OpConstantLong:
			idx := int(chunk.Code[vm.ip])<<8 | int(chunk.Code[vm.ip+1])
			vm.ip += 2
			vm.stack.Push(chunk.Constants[idx])

		case compiler.OpNil:
			vm.stack.Push(nil)
		case compiler.OpTrue:
			vm.stack.Push(true)
		case compiler.OpFalse:
			vm.stack.Push(false)

		case compiler.OpNegate:
			v, _ := vm.stack.Peek()
			n, ok := v.(float64)
			if !ok {
				return vm.runtimeError(chunk, opIP, "operand must be a number")
			}
			vm.stack.Pop()
			vm.stack.Push(-n)

		case compiler.OpNot:
			v, _ := vm.stack.Pop()
			vm.stack.Push(!value.IsTruthy(v))

		case compiler.OpAdd:
			b, _ := vm.stack.Pop()
			a, _ := vm.stack.Pop()
			result, err := vm.add(chunk, opIP, a, b)
			if err != nil {
				return err
			}
			vm.stack.Push(result)

		case compiler.OpSubtract, compiler.OpMultiply, compiler.OpDivide:
			b, _ := vm.stack.Pop()
			a, _ := vm.stack.Pop()
			af, aOK := a.(float64)
			bf, bOK := b.(float64)
			if !aOK || !bOK {
				return vm.runtimeError(chunk, opIP, "operands must be numbers")
			}
			switch op {
			case compiler.OpSubtract:
				vm.stack.Push(af - bf)
			case compiler.OpMultiply:
				vm.stack.Push(af * bf)
			case compiler.OpDivide:
				vm.stack.Push(af / bf)
			}

		case compiler.OpGreater, compiler.OpLess:
			b, _ := vm.stack.Pop()
			a, _ := vm.stack.Pop()
			af, aOK := a.(float64)
			bf, bOK := b.(float64)
			if !aOK || !bOK {
				return vm.runtimeError(chunk, opIP, "operands must be numbers")
			}
			if op == compiler.OpGreater {
				vm.stack.Push(af > bf)
			} else {
				vm.stack.Push(af < bf)
			}

		case compiler.OpEqual:
			b, _ := vm.stack.Pop()
			a, _ := vm.stack.Pop()
			vm.stack.Push(value.Equal(a, b))

		case compiler.OpPrint:
			v, _ := vm.stack.Pop()
			fmt.Fprintln(vm.Out, value.Stringify(v))

		case compiler.OpPop:
			vm.stack.Pop()

		case compiler.OpDefineGlobal:
			idx := int(chunk.Code[vm.ip])
			vm.ip++
			name, _ := compiler.GlobalName(chunk.Constants[idx])
			val, _ := vm.stack.Pop()
			vm.globals[name] = val

		case compiler.OpGetGlobal:
			idx := int(chunk.Code[vm.ip])
			vm.ip++
			name, _ := compiler.GlobalName(chunk.Constants[idx])
			val, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError(chunk, opIP, fmt.Sprintf("undefined variable '%s'", name))
			}
			vm.stack.Push(val)

		case compiler.OpSetGlobal:
			idx := int(chunk.Code[vm.ip])
			vm.ip++
			name, _ := compiler.GlobalName(chunk.Constants[idx])
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeError(chunk, opIP, fmt.Sprintf("undefined variable '%s'", name))
			}
			// Assignment is itself an expression: leave the value on the
			// stack instead of popping it.
			val, _ := vm.stack.Peek()
			vm.globals[name] = val

		default:
			return vm.runtimeError(chunk, opIP, fmt.Sprintf("unknown opcode %v", op))
		}
	}
	return nil
}

// add implements spec.md §3's "+" rule: Number+Number adds; two
// string-ish operands concatenate; a Number mixed with a string is a
// TypeMismatch in the bytecode path (the open-question decision recorded
// in DESIGN.md — the tree path instead coerces via Stringify).
func (vm *VM) add(chunk *compiler.Chunk, ip int, a, b any) (any, error) {
	if af, ok := a.(float64); ok {
		if bf, ok := b.(float64); ok {
			return af + bf, nil
		}
	}
	as, aIsStr := stringOf(a)
	bs, bIsStr := stringOf(b)
	if aIsStr && bIsStr {
		return value.String(as + bs), nil
	}
	return nil, vm.runtimeError(chunk, ip, "operands must be two numbers or two strings")
}

func stringOf(v any) (string, bool) {
	switch s := v.(type) {
	case value.String:
		return string(s), true
	case value.ConstString:
		return string(s), true
	}
	return "", false
}

func (vm *VM) runtimeError(chunk *compiler.Chunk, ip int, message string) error {
	return RuntimeError{Line: chunk.LineAt(ip), Message: message}
}
