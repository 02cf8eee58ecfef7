package compiler

import (
	"fmt"
	"os"

	"vellum/token"
	"vellum/value"
)

// Precedence levels, ascending, per spec.md §4.5. Or/And are carried for
// table completeness even though no infix rule targets them: the scoped
// VM has no jump opcodes, so "and"/"or" short-circuiting (which the tree
// evaluator implements via ast.Logical) has no bytecode equivalent here.
const (
	PrecNone = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

type prefixFunc func(c *Compiler, canAssign bool)
type infixFunc func(c *Compiler)

type parseRule struct {
	prefix     prefixFunc
	infix      infixFunc
	precedence int
}

// Compiler is a single-pass Pratt parser that emits Chunk bytecode
// directly from a token stream, with no intermediate AST (spec.md §4.5).
// It compiles exactly the scoped grammar: var declarations, print
// statements, expression statements, and the full expression grammar
// through Primary, with globals-only variable access.
type Compiler struct {
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token

	chunk     *Chunk
	hadError  bool
	panicMode bool
	errors    []error

	rules map[token.TokenType]parseRule
}

// New constructs a Compiler over an already-scanned token stream
// (terminated by an EoF token, per the lexer's contract).
func New(tokens []token.Token) *Compiler {
	c := &Compiler{
		tokens: tokens,
		chunk:  NewChunk(),
	}
	if len(tokens) > 0 {
		c.current = tokens[0]
	}
	c.rules = map[token.TokenType]parseRule{
		token.LeftParen:    {prefix: (*Compiler).grouping},
		token.Minus:        {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PrecTerm},
		token.Plus:         {infix: (*Compiler).binary, precedence: PrecTerm},
		token.Slash:        {infix: (*Compiler).binary, precedence: PrecFactor},
		token.Star:         {infix: (*Compiler).binary, precedence: PrecFactor},
		token.Bang:         {prefix: (*Compiler).unary},
		token.BangEqual:    {infix: (*Compiler).binary, precedence: PrecEquality},
		token.EqualEqual:   {infix: (*Compiler).binary, precedence: PrecEquality},
		token.Greater:      {infix: (*Compiler).binary, precedence: PrecComparison},
		token.GreaterEqual: {infix: (*Compiler).binary, precedence: PrecComparison},
		token.Less:         {infix: (*Compiler).binary, precedence: PrecComparison},
		token.LessEqual:    {infix: (*Compiler).binary, precedence: PrecComparison},
		token.Number:       {prefix: (*Compiler).number},
		token.String:       {prefix: (*Compiler).stringLiteral},
		token.Identifier:   {prefix: (*Compiler).variable},
		token.Nil:          {prefix: (*Compiler).literalKeyword},
		token.True:         {prefix: (*Compiler).literalKeyword},
		token.False:        {prefix: (*Compiler).literalKeyword},
	}
	return c
}

// Compile consumes the whole token stream, emitting one chunk. It
// returns the chunk and the collected diagnostics; HadError reports
// whether any occurred. vm.Run does not check for a failed compile
// itself: the callers in this repository do not run a chunk when
// Compile returned errors.
func (c *Compiler) Compile() (*Chunk, []error) {
	for !c.check(token.EoF) {
		c.declaration()
	}
	c.emitOp(OpReturn)
	return c.chunk, c.errors
}

// HadError reports whether any statement failed to compile.
func (c *Compiler) HadError() bool {
	return c.hadError
}

func (c *Compiler) advance() {
	c.previous = c.current
	if c.pos+1 < len(c.tokens) {
		c.pos++
		c.current = c.tokens[c.pos]
	}
}

func (c *Compiler) check(t token.TokenType) bool {
	return c.current.Type == t
}

func (c *Compiler) match(t token.TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.TokenType, message string) {
	if c.check(t) {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) errorAtPrevious(message string) {
	c.errorAt(c.previous, message)
}

// errorAt records a SemanticError, latching panicMode so subsequent
// errors in the same statement are swallowed until synchronize runs
// (spec.md §4.5's error policy, shared with the recursive-descent parser).
func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	err := SemanticError{Loc: tok.Loc, Lexeme: tok.Lexeme, Message: message}
	c.errors = append(c.errors, err)
	fmt.Fprintln(os.Stderr, err.Error())
}

// synchronize discards tokens until the next plausible statement
// boundary, the same heuristic the recursive-descent parser uses.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for !c.check(token.EoF) {
		if c.previous.Type == token.Semicolon {
			return
		}
		switch c.current.Type {
		case token.Class, token.Fun, token.Var, token.For, token.If, token.While, token.Print, token.Return:
			return
		}
		c.advance()
	}
}

func (c *Compiler) getRule(t token.TokenType) parseRule {
	return c.rules[t]
}

func (c *Compiler) parsePrecedence(precedence int) {
	c.advance()
	rule := c.getRule(c.previous.Type)
	if rule.prefix == nil {
		c.errorAtPrevious("expected expression")
		return
	}
	canAssign := precedence <= PrecAssignment
	rule.prefix(c, canAssign)

	for precedence <= c.getRule(c.current.Type).precedence {
		c.advance()
		infix := c.getRule(c.previous.Type).infix
		if infix == nil {
			c.errorAtPrevious("invalid syntax")
			return
		}
		infix(c)
	}

	if canAssign && c.match(token.Equal) {
		c.errorAtPrevious("invalid assignment target")
	}
}

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

// declaration compiles "var" declarations or falls through to statement,
// synchronizing after any error the same way the recursive-descent
// parser's declaration() does.
func (c *Compiler) declaration() {
	if c.match(token.Var) {
		c.varDeclaration()
	} else {
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	c.consume(token.Identifier, "expected variable name")
	name := c.previous

	if c.match(token.Equal) {
		c.expression()
	} else {
		c.emitOp(OpNil)
	}
	c.consume(token.Semicolon, "expected ';' after variable declaration")
	c.emitGlobalOp(OpDefineGlobal, name)
}

func (c *Compiler) statement() {
	if c.match(token.Print) {
		c.printStatement()
		return
	}
	c.expressionStatement()
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.Semicolon, "expected ';' after value")
	c.emitOp(OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.Semicolon, "expected ';' after expression")
	c.emitOp(OpPop)
}

// grouping, unary, binary, number, stringLiteral, literalKeyword, and
// variable are the prefix/infix rules dispatched from parsePrecedence.

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RightParen, "expected ')' after expression")
}

func (c *Compiler) unary(canAssign bool) {
	operator := c.previous.Type
	c.parsePrecedence(PrecUnary)
	switch operator {
	case token.Minus:
		c.emitOp(OpNegate)
	case token.Bang:
		c.emitOp(OpNot)
	}
}

func (c *Compiler) binary() {
	operator := c.previous.Type
	rule := c.getRule(operator)
	c.parsePrecedence(rule.precedence + 1)
	switch operator {
	case token.Plus:
		c.emitOp(OpAdd)
	case token.Minus:
		c.emitOp(OpSubtract)
	case token.Star:
		c.emitOp(OpMultiply)
	case token.Slash:
		c.emitOp(OpDivide)
	case token.EqualEqual:
		c.emitOp(OpEqual)
	case token.BangEqual:
		c.emitOp(OpEqual)
		c.emitOp(OpNot)
	case token.Less:
		c.emitOp(OpLess)
	case token.LessEqual:
		c.emitOp(OpGreater)
		c.emitOp(OpNot)
	case token.Greater:
		c.emitOp(OpGreater)
	case token.GreaterEqual:
		c.emitOp(OpLess)
		c.emitOp(OpNot)
	}
}

func (c *Compiler) number(canAssign bool) {
	n, _ := c.previous.Literal.(float64)
	c.emitConstant(n)
}

func (c *Compiler) stringLiteral(canAssign bool) {
	c.emitConstant(c.previous.Literal)
}

func (c *Compiler) literalKeyword(canAssign bool) {
	switch c.previous.Type {
	case token.Nil:
		c.emitOp(OpNil)
	case token.True:
		c.emitOp(OpTrue)
	case token.False:
		c.emitOp(OpFalse)
	}
}

// variable is the Identifier prefix rule: spec.md §4.5 point 2 — in an
// assignment-permitted context followed by "=", emit SetGlobal; else
// GetGlobal.
func (c *Compiler) variable(canAssign bool) {
	name := c.previous
	if canAssign && c.match(token.Equal) {
		c.expression()
		c.emitGlobalOp(OpSetGlobal, name)
		return
	}
	c.emitGlobalOp(OpGetGlobal, name)
}

// emitOp appends an operandless opcode at the previous (just consumed)
// token's line.
func (c *Compiler) emitOp(op OpCode) {
	c.chunk.WriteOp(op, c.previous.Loc.Line)
}

// emitConstant adds v to the constant pool and emits Constant (1-byte
// index) or ConstantLong (2-byte big-endian index) depending on how many
// entries the pool holds, per spec.md §3's Chunk invariant.
func (c *Compiler) emitConstant(v any) {
	idx := c.chunk.AddConstant(v)
	line := c.previous.Loc.Line
	if idx <= 0xFF {
		c.chunk.writeByte(byte(OpConstant), line)
		c.chunk.writeByte(byte(idx), line)
		return
	}
	if idx <= 0xFFFF {
		c.chunk.writeByte(byte(OpConstantLong), line)
		c.chunk.writeByte(byte(idx>>8), line)
		c.chunk.writeByte(byte(idx), line)
		return
	}
	c.errorAtPrevious("too many constants in one chunk")
}

// emitGlobalOp stores name in the constant pool and emits a
// DefineGlobal/GetGlobal/SetGlobal instruction referencing it. These
// three opcodes always take a 1-byte index (spec.md §3). Every call adds
// a new pool entry (names are not deduplicated) and the pool is shared
// with literal constants, so once the new entry's index exceeds 255 the
// instruction cannot be encoded; that is reported as a compile error
// rather than silently truncated.
func (c *Compiler) emitGlobalOp(op OpCode, name token.Token) {
	idx := c.chunk.AddConstant(value.ConstString(name.Lexeme))
	if idx > 0xFF {
		c.errorAt(name, "too many global variables")
		return
	}
	line := name.Loc.Line
	c.chunk.writeByte(byte(op), line)
	c.chunk.writeByte(byte(idx), line)
}
