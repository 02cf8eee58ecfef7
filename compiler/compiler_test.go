package compiler

import (
	"testing"

	"vellum/lexer"
	"vellum/value"
)

func compileSource(t *testing.T, source string) *Chunk {
	t.Helper()
	lex := lexer.New(source)
	tokens, lexErrs := lex.Scan()
	if len(lexErrs) > 0 {
		t.Fatalf("unexpected lex errors: %v", lexErrs)
	}
	c := New(tokens)
	chunk, errs := c.Compile()
	if len(errs) > 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	return chunk
}

func TestCompileArithmeticPrecedence(t *testing.T) {
	chunk := compileSource(t, "1 + 2 * 3;")
	want := []OpCode{OpConstant, OpConstant, OpConstant, OpMultiply, OpAdd, OpPop, OpReturn}
	gotOps := opcodesOf(chunk)
	if !equalOps(gotOps, want) {
		t.Fatalf("got ops %v, want %v", gotOps, want)
	}
}

func TestCompileComparisonDesugaring(t *testing.T) {
	// "a <= b" desugars to Greater+Not, and "a >= b" to Less+Not, per
	// the closed opcode set's lack of dedicated <=/>= instructions.
	chunk := compileSource(t, "var a = 1; var b = 2; a <= b; a >= b;")
	ops := opcodesOf(chunk)
	if !containsSequence(ops, []OpCode{OpGreater, OpNot}) {
		t.Errorf("expected a Greater,Not sequence for <=, got %v", ops)
	}
	if !containsSequence(ops, []OpCode{OpLess, OpNot}) {
		t.Errorf("expected a Less,Not sequence for >=, got %v", ops)
	}
}

func TestCompileVarDeclarationDefaultsToNil(t *testing.T) {
	chunk := compileSource(t, "var a;")
	ops := opcodesOf(chunk)
	want := []OpCode{OpNil, OpDefineGlobal, OpReturn}
	if !equalOps(ops, want) {
		t.Fatalf("got ops %v, want %v", ops, want)
	}
}

func TestCompileAssignmentEmitsSetGlobalWithoutExtraPop(t *testing.T) {
	chunk := compileSource(t, "var a = 1; a = 2;")
	ops := opcodesOf(chunk)
	// The expression statement's trailing Pop discards the assignment
	// expression's own value, not a duplicate push from SetGlobal.
	want := []OpCode{OpConstant, OpDefineGlobal, OpConstant, OpSetGlobal, OpPop, OpReturn}
	if !equalOps(ops, want) {
		t.Fatalf("got ops %v, want %v", ops, want)
	}
}

func TestCompileInvalidAssignmentTargetIsError(t *testing.T) {
	lex := lexer.New("1 = 2;")
	tokens, _ := lex.Scan()
	c := New(tokens)
	_, errs := c.Compile()
	if len(errs) == 0 {
		t.Fatal("expected a compile error for an invalid assignment target")
	}
}

func TestCompileStringLiteralUsesConstString(t *testing.T) {
	chunk := compileSource(t, `"hi";`)
	found := false
	for _, constant := range chunk.Constants {
		if s, ok := constant.(value.ConstString); ok && string(s) == "hi" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected constant pool to contain ConstString(\"hi\"), got %v", chunk.Constants)
	}
}

func TestCompileManyConstantsUsesConstantLong(t *testing.T) {
	var source string
	for i := 0; i < 300; i++ {
		source += "1;"
	}
	chunk := compileSource(t, source)
	found := false
	for _, b := range chunk.Code {
		if OpCode(b) == OpConstantLong {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected OpConstantLong once the constant pool exceeds 256 entries")
	}
}

func opcodesOf(chunk *Chunk) []OpCode {
	var ops []OpCode
	ip := 0
	for ip < len(chunk.Code) {
		op := OpCode(chunk.Code[ip])
		ops = append(ops, op)
		ip += 1 + operandWidth(op)
	}
	return ops
}

func equalOps(got, want []OpCode) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func containsSequence(ops, seq []OpCode) bool {
	for i := 0; i+len(seq) <= len(ops); i++ {
		if equalOps(ops[i:i+len(seq)], seq) {
			return true
		}
	}
	return false
}
