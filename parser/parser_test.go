package parser

import (
	"testing"

	"vellum/ast"
	"vellum/lexer"
)

func parseSource(t *testing.T, source string) []ast.Stmt {
	t.Helper()
	toks, errs := lexer.New(source).Scan()
	if len(errs) != 0 {
		t.Fatalf("lexer errors: %v", errs)
	}
	stmts, parseErrs := Make(toks).Parse()
	if len(parseErrs) != 0 {
		t.Fatalf("parser errors: %v", parseErrs)
	}
	return stmts
}

func TestParseArithmeticPrecedence(t *testing.T) {
	stmts := parseSource(t, "print 1 + 2 * 3;")
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	print, ok := stmts[0].(ast.PrintStmt)
	if !ok {
		t.Fatalf("expected PrintStmt, got %T", stmts[0])
	}
	binary, ok := print.Expression.(ast.Binary)
	if !ok || binary.Operator.Lexeme != "+" {
		t.Fatalf("expected top-level '+', got %+v", print.Expression)
	}
	right, ok := binary.Right.(ast.Binary)
	if !ok || right.Operator.Lexeme != "*" {
		t.Fatalf("expected right operand to be '*', got %+v", binary.Right)
	}
}

func TestParseVarDeclarationWithoutInitializer(t *testing.T) {
	stmts := parseSource(t, "var x;")
	varStmt, ok := stmts[0].(ast.VarStmt)
	if !ok {
		t.Fatalf("expected VarStmt, got %T", stmts[0])
	}
	if varStmt.Initializer != nil {
		t.Fatalf("expected nil initializer, got %v", varStmt.Initializer)
	}
}

func TestParseForDesugarsToWhile(t *testing.T) {
	stmts := parseSource(t, "for (var i = 0; i < 3; i = i + 1) print i;")
	outer, ok := stmts[0].(ast.BlockStmt)
	if !ok || len(outer.Statements) != 2 {
		t.Fatalf("expected desugared block with 2 statements, got %+v", stmts[0])
	}
	if _, ok := outer.Statements[0].(ast.VarStmt); !ok {
		t.Fatalf("expected initializer VarStmt, got %T", outer.Statements[0])
	}
	whileStmt, ok := outer.Statements[1].(ast.WhileStmt)
	if !ok {
		t.Fatalf("expected WhileStmt, got %T", outer.Statements[1])
	}
	bodyBlock, ok := whileStmt.Body.(ast.BlockStmt)
	if !ok || len(bodyBlock.Statements) != 2 {
		t.Fatalf("expected body+increment block, got %+v", whileStmt.Body)
	}
}

func TestParseForOmittedConditionDefaultsTrue(t *testing.T) {
	stmts := parseSource(t, "for (;;) print 1;")
	whileStmt, ok := stmts[0].(ast.WhileStmt)
	if !ok {
		t.Fatalf("expected bare WhileStmt (no initializer), got %T", stmts[0])
	}
	lit, ok := whileStmt.Condition.(ast.Literal)
	if !ok || lit.Value != true {
		t.Fatalf("expected condition literal true, got %+v", whileStmt.Condition)
	}
}

func TestParseFunctionDeclarationAndCall(t *testing.T) {
	stmts := parseSource(t, `
		fun make(n) { fun inc() { n = n + 1; return n; } return inc; }
		var c = make(10);
		print c();
	`)
	if len(stmts) != 3 {
		t.Fatalf("expected 3 top-level statements, got %d", len(stmts))
	}
	fn, ok := stmts[0].(ast.FunStmt)
	if !ok || fn.Name.Lexeme != "make" || len(fn.Params) != 1 {
		t.Fatalf("expected FunStmt make(n), got %+v", stmts[0])
	}

	varStmt, ok := stmts[1].(ast.VarStmt)
	if !ok {
		t.Fatalf("expected VarStmt, got %T", stmts[1])
	}
	call, ok := varStmt.Initializer.(ast.Call)
	if !ok || len(call.Arguments) != 1 {
		t.Fatalf("expected call with 1 argument, got %+v", varStmt.Initializer)
	}
}

func TestParseLogicalAndOr(t *testing.T) {
	stmts := parseSource(t, "print true and false or true;")
	print := stmts[0].(ast.PrintStmt)
	logical, ok := print.Expression.(ast.Logical)
	if !ok || logical.Operator.Lexeme != "or" {
		t.Fatalf("expected top-level 'or', got %+v", print.Expression)
	}
}

func TestParseInvalidAssignmentTargetIsError(t *testing.T) {
	toks, errs := lexer.New("1 = 2;").Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected lexer errors: %v", errs)
	}
	_, parseErrs := Make(toks).Parse()
	if len(parseErrs) == 0 {
		t.Fatalf("expected a parse error for invalid assignment target")
	}
}

func TestParseSynchronizesAfterError(t *testing.T) {
	toks, errs := lexer.New("var ; print 1;").Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected lexer errors: %v", errs)
	}
	stmts, parseErrs := Make(toks).Parse()
	if len(parseErrs) == 0 {
		t.Fatalf("expected a parse error for missing variable name")
	}
	if len(stmts) != 1 {
		t.Fatalf("expected parser to recover and still parse the print statement, got %d stmts", len(stmts))
	}
}
