package compiler

import (
	"strings"
	"testing"

	"vellum/value"
)

func TestChunkDisassembleIncludesConstants(t *testing.T) {
	chunk := NewChunk()
	idx := chunk.AddConstant(float64(5))
	chunk.writeByte(byte(OpConstant), 1)
	chunk.writeByte(byte(idx), 1)
	chunk.WriteOp(OpReturn, 1)

	out := chunk.Disassemble("test")
	if !strings.Contains(out, "OP_CONSTANT") {
		t.Errorf("expected disassembly to mention OP_CONSTANT, got %q", out)
	}
	if !strings.Contains(out, "OP_RETURN") {
		t.Errorf("expected disassembly to mention OP_RETURN, got %q", out)
	}
}

func TestChunkDumpHexIsEvenLength(t *testing.T) {
	chunk := NewChunk()
	chunk.AddConstant(float64(1))
	chunk.writeByte(byte(OpConstant), 1)
	chunk.writeByte(0, 1)

	hex := chunk.DumpHex()
	if len(hex)%2 != 0 {
		t.Errorf("expected an even-length hex string, got %q", hex)
	}
}

func TestGlobalNameAcceptsConstStringAndString(t *testing.T) {
	name, ok := GlobalName(value.ConstString("x"))
	if !ok || name != "x" {
		t.Errorf("got %q, %v", name, ok)
	}
	name, ok = GlobalName(value.String("y"))
	if !ok || name != "y" {
		t.Errorf("got %q, %v", name, ok)
	}
}
