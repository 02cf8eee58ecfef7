// Package compiler implements the single-pass Pratt compiler that turns a
// token stream directly into stack-machine bytecode (no intermediate AST),
// and the Chunk/OpCode representation the VM executes.
package compiler

import (
	"encoding/binary"
	"fmt"
	"strings"

	"vellum/value"
)

// OpCode identifies a single bytecode instruction. The set is closed to
// match the scoped bytecode path: the VM in this repository never
// executes control flow or function calls, so no jump/call opcodes exist
// here (see DESIGN.md).
type OpCode byte

const (
	OpReturn OpCode = iota
	OpConstant
	OpConstantLong
	OpNegate
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNil
	OpTrue
	OpFalse
	OpNot
	OpEqual
	OpGreater
	OpLess
	OpPrint
	OpPop
	OpDefineGlobal
	OpGetGlobal
	OpSetGlobal
	OpUnknown
)

var opCodeNames = map[OpCode]string{
	OpReturn:       "OP_RETURN",
	OpConstant:     "OP_CONSTANT",
	OpConstantLong: "OP_CONSTANT_LONG",
	OpNegate:       "OP_NEGATE",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpNot:          "OP_NOT",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpPrint:        "OP_PRINT",
	OpPop:          "OP_POP",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpUnknown:      "OP_UNKNOWN",
}

func (op OpCode) String() string {
	if name, ok := opCodeNames[op]; ok {
		return name
	}
	return "OP_UNKNOWN"
}

// operandWidths reports how many operand bytes follow each opcode. Only
// Constant/DefineGlobal/GetGlobal/SetGlobal (1 byte) and ConstantLong (2
// bytes, big-endian) take operands; every other opcode is bare.
var operandWidths = map[OpCode]int{
	OpConstant:     1,
	OpConstantLong: 2,
	OpDefineGlobal: 1,
	OpGetGlobal:    1,
	OpSetGlobal:    1,
}

// operandWidth reports how many operand bytes follow op, per operandWidths.
func operandWidth(op OpCode) int {
	return operandWidths[op]
}

// Chunk is a compiled unit: the opcode/operand byte buffer, the constant
// pool (shared by literal values and global-variable names), and a
// per-byte source-line table used only for error reporting and
// disassembly.
type Chunk struct {
	Code      []byte
	Constants []any
	Lines     []int
}

// NewChunk returns an empty chunk ready to be written into by a Compiler.
func NewChunk() *Chunk {
	return &Chunk{}
}

func (c *Chunk) writeByte(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp appends an operandless opcode and returns its byte offset.
func (c *Chunk) WriteOp(op OpCode, line int) int {
	pos := len(c.Code)
	c.writeByte(byte(op), line)
	return pos
}

// AddConstant appends v to the constant pool and returns its index.
func (c *Chunk) AddConstant(v any) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// LineAt returns the source line recorded for the byte at offset ip, used
// by the VM to report runtime errors.
func (c *Chunk) LineAt(ip int) int {
	if ip < 0 || ip >= len(c.Lines) {
		if len(c.Lines) == 0 {
			return 0
		}
		return c.Lines[len(c.Lines)-1]
	}
	return c.Lines[ip]
}

// DumpHex renders the instruction stream as a hex string, the format
// written to a .nic bytecode dump file.
func (c *Chunk) DumpHex() string {
	return fmt.Sprintf("%x", c.Code)
}

// Disassemble renders the chunk in human-readable form: one line per
// instruction, with constant-pool values resolved for the opcodes that
// reference them.
func (c *Chunk) Disassemble(name string) string {
	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "== %s ==\n", name)
	}
	ip := 0
	for ip < len(c.Code) {
		next := c.disassembleInstruction(&b, ip)
		ip = next
	}
	return b.String()
}

func (c *Chunk) disassembleInstruction(b *strings.Builder, ip int) int {
	op := OpCode(c.Code[ip])
	line := c.LineAt(ip)
	fmt.Fprintf(b, "%04d line %-4d %s", ip, line, op)

	switch operandWidth(op) {
	case 1:
		idx := int(c.Code[ip+1])
		fmt.Fprintf(b, " %4d '%v'\n", idx, c.constantAt(idx))
	case 2:
		idx := int(binary.BigEndian.Uint16(c.Code[ip+1 : ip+3]))
		fmt.Fprintf(b, " %4d '%v'\n", idx, c.constantAt(idx))
	default:
		b.WriteString("\n")
	}
	return ip + 1 + operandWidth(op)
}

func (c *Chunk) constantAt(idx int) any {
	if idx < 0 || idx >= len(c.Constants) {
		return nil
	}
	return c.Constants[idx]
}

// GlobalName extracts a variable name previously stored in the constant
// pool by DefineGlobal/GetGlobal/SetGlobal's operand.
func GlobalName(v any) (string, bool) {
	switch s := v.(type) {
	case value.String:
		return string(s), true
	case value.ConstString:
		return string(s), true
	case string:
		return s, true
	}
	return "", false
}
