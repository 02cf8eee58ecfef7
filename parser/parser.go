// Recursive descent parser
// https://en.wikipedia.org/wiki/Recursive_descent_parser
//
// A recursive descent parser is a top-down parser because it starts from
// the top grammar rule and works its way down into the nested
// sub-expressions before reaching the leaves of the syntax tree (terminal
// rules).
package parser

import (
	"fmt"

	"vellum/ast"
	"vellum/token"
)

const maxArgs = 255

var equalityTokenTypes = []token.TokenType{
	token.BangEqual,
	token.EqualEqual,
}

var comparisonTokenTypes = []token.TokenType{
	token.Greater,
	token.GreaterEqual,
	token.Less,
	token.LessEqual,
}

var termTokenTypes = []token.TokenType{
	token.Minus,
	token.Plus,
}

var factorTokenTypes = []token.TokenType{
	token.Star,
	token.Slash,
}

var unaryTokenTypes = []token.TokenType{
	token.Bang,
	token.Minus,
}

// synchronizeKeywords are the statement-starting keywords Parser.synchronize
// looks for when recovering from a parse error.
var synchronizeKeywords = map[token.TokenType]bool{
	token.Class:  true,
	token.Fun:    true,
	token.Var:    true,
	token.For:    true,
	token.If:     true,
	token.While:  true,
	token.Print:  true,
	token.Return: true,
}

// Parser turns a token stream into an AST via recursive descent with
// precedence climbing. Its position is always one token ahead of the
// token last returned by previous().
type Parser struct {
	tokens   []token.Token
	position int
}

// Make returns a Parser ready to parse the given token stream.
func Make(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Print prints the AST as prettified JSON to standard output.
func (parser *Parser) Print(statements []ast.Stmt) {
	_, err := PrintASTJSON(statements)
	if err != nil {
		fmt.Println("error producing AST JSON:", err)
	}
}

// PrintToFile writes the AST for the provided statements to a .json file at the given path.
func (parser *Parser) PrintToFile(statements []ast.Stmt, path string) error {
	return WriteASTJSONToFile(statements, path)
}

func (parser *Parser) peek() token.Token {
	return parser.tokens[parser.position]
}

func (parser *Parser) previous() token.Token {
	return parser.tokens[parser.position-1]
}

func (parser *Parser) advance() token.Token {
	if !parser.isFinished() {
		parser.position++
	}
	return parser.previous()
}

func (parser *Parser) isFinished() bool {
	return parser.peek().Type == token.EoF
}

func (parser *Parser) checkType(t token.TokenType) bool {
	if parser.isFinished() {
		return false
	}
	return parser.peek().Type == t
}

// isMatch advances and returns true if the current token matches any of
// tokenTypes; otherwise leaves the position untouched.
func (parser *Parser) isMatch(tokenTypes ...token.TokenType) bool {
	for _, t := range tokenTypes {
		if parser.checkType(t) {
			parser.advance()
			return true
		}
	}
	return false
}

func (parser *Parser) consume(t token.TokenType, errorMessage string) (token.Token, error) {
	if parser.checkType(t) {
		return parser.advance(), nil
	}
	current := parser.peek()
	return token.Token{}, newSyntaxError(current.Loc, errorMessage)
}

// synchronize discards tokens until the previous token is a semicolon or
// the current token begins a new statement, so parsing can resume after
// a syntax error without cascading further errors.
func (parser *Parser) synchronize() {
	for !parser.isFinished() {
		if parser.previous().Type == token.Semicolon {
			return
		}
		if synchronizeKeywords[parser.peek().Type] {
			return
		}
		parser.advance()
	}
}

// Parse parses the entire token stream into a slice of Stmt (statement) nodes,
// continuing until the end of input. Errors during parsing are collected
// but parsing continues to find additional errors where possible.
func (parser *Parser) Parse() ([]ast.Stmt, []error) {
	var statements []ast.Stmt
	var errors []error

	for !parser.isFinished() {
		stmt, err := parser.declaration()
		if err != nil {
			errors = append(errors, err)
			parser.synchronize()
			continue
		}
		statements = append(statements, stmt)
	}

	return statements, errors
}

func (parser *Parser) declaration() (ast.Stmt, error) {
	if parser.isMatch(token.Fun) {
		return parser.funDeclaration("function")
	}
	if parser.isMatch(token.Var) {
		return parser.variableDeclaration()
	}
	return parser.statement()
}

// funDeclaration parses "fun name(params) block". kind is used only in
// error messages ("function" today; a future class method kind would
// reuse this helper).
func (parser *Parser) funDeclaration(kind string) (ast.Stmt, error) {
	name, err := parser.consume(token.Identifier, fmt.Sprintf("expected %s name", kind))
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LeftParen, fmt.Sprintf("expected '(' after %s name", kind)); err != nil {
		return nil, err
	}

	var params []token.Token
	if !parser.checkType(token.RightParen) {
		for {
			if len(params) >= maxArgs {
				current := parser.peek()
				return nil, newSyntaxError(current.Loc, fmt.Sprintf("can't have more than %d parameters", maxArgs))
			}
			param, err := parser.consume(token.Identifier, "expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !parser.isMatch(token.Comma) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RightParen, "expected ')' after parameters"); err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LeftBrace, fmt.Sprintf("expected '{' before %s body", kind)); err != nil {
		return nil, err
	}
	body, err := parser.block()
	if err != nil {
		return nil, err
	}

	return ast.FunStmt{Name: name, Params: params, Body: &ast.BlockStmt{Statements: body}}, nil
}

func (parser *Parser) variableDeclaration() (ast.Stmt, error) {
	name, err := parser.consume(token.Identifier, "expected variable name")
	if err != nil {
		return nil, err
	}

	var initializer ast.Expression
	if parser.isMatch(token.Equal) {
		initializer, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}

	if _, err := parser.consume(token.Semicolon, "expected ';' after variable declaration"); err != nil {
		return nil, err
	}

	return ast.VarStmt{Name: name, Initializer: initializer}, nil
}

func (parser *Parser) statement() (ast.Stmt, error) {
	switch {
	case parser.isMatch(token.Print):
		return parser.printStatement()
	case parser.isMatch(token.Return):
		return parser.returnStatement()
	case parser.isMatch(token.If):
		return parser.ifStatement()
	case parser.isMatch(token.While):
		return parser.whileStatement()
	case parser.isMatch(token.For):
		return parser.forStatement()
	case parser.isMatch(token.LeftBrace):
		statements, err := parser.block()
		if err != nil {
			return nil, err
		}
		return ast.BlockStmt{Statements: statements}, nil
	}

	return parser.expressionStatement()
}

func (parser *Parser) printStatement() (ast.Stmt, error) {
	expr, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.Semicolon, "expected ';' after value"); err != nil {
		return nil, err
	}
	return ast.PrintStmt{Expression: expr}, nil
}

func (parser *Parser) returnStatement() (ast.Stmt, error) {
	keyword := parser.previous()

	var value ast.Expression
	if !parser.checkType(token.Semicolon) {
		var err error
		value, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := parser.consume(token.Semicolon, "expected ';' after return value"); err != nil {
		return nil, err
	}
	return ast.ReturnStmt{Keyword: keyword, Value: value}, nil
}

func (parser *Parser) whileStatement() (ast.Stmt, error) {
	if _, err := parser.consume(token.LeftParen, "expected '(' after 'while'"); err != nil {
		return nil, err
	}
	condition, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.RightParen, "expected ')' after condition"); err != nil {
		return nil, err
	}
	body, err := parser.statement()
	if err != nil {
		return nil, err
	}
	return ast.WhileStmt{Condition: condition, Body: body}, nil
}

// forStatement desugars "for(init; cond; inc) body" into
// "{ init; while(cond) { body; inc; } }" as spec'd: cond defaults to
// "true" when omitted.
func (parser *Parser) forStatement() (ast.Stmt, error) {
	if _, err := parser.consume(token.LeftParen, "expected '(' after 'for'"); err != nil {
		return nil, err
	}

	var initializer ast.Stmt
	switch {
	case parser.isMatch(token.Semicolon):
		initializer = nil
	case parser.isMatch(token.Var):
		stmt, err := parser.variableDeclaration()
		if err != nil {
			return nil, err
		}
		initializer = stmt
	default:
		stmt, err := parser.expressionStatement()
		if err != nil {
			return nil, err
		}
		initializer = stmt
	}

	var condition ast.Expression
	if !parser.checkType(token.Semicolon) {
		var err error
		condition, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := parser.consume(token.Semicolon, "expected ';' after loop condition"); err != nil {
		return nil, err
	}

	var increment ast.Expression
	if !parser.checkType(token.RightParen) {
		var err error
		increment, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := parser.consume(token.RightParen, "expected ')' after for clauses"); err != nil {
		return nil, err
	}

	body, err := parser.statement()
	if err != nil {
		return nil, err
	}

	if increment != nil {
		body = ast.BlockStmt{Statements: []ast.Stmt{body, ast.ExpressionStmt{Expression: increment}}}
	}
	if condition == nil {
		condition = ast.Literal{Value: true}
	}
	body = ast.WhileStmt{Condition: condition, Body: body}
	if initializer != nil {
		body = ast.BlockStmt{Statements: []ast.Stmt{initializer, body}}
	}

	return body, nil
}

func (parser *Parser) ifStatement() (ast.Stmt, error) {
	if _, err := parser.consume(token.LeftParen, "expected '(' after 'if'"); err != nil {
		return nil, err
	}
	condition, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.RightParen, "expected ')' after condition"); err != nil {
		return nil, err
	}

	thenBranch, err := parser.statement()
	if err != nil {
		return nil, err
	}

	var elseBranch ast.Stmt
	if parser.isMatch(token.Else) {
		elseBranch, err = parser.statement()
		if err != nil {
			return nil, err
		}
	}

	return ast.IfStmt{Condition: condition, Then: thenBranch, Else: elseBranch}, nil
}

func (parser *Parser) expressionStatement() (ast.Stmt, error) {
	expr, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.Semicolon, "expected ';' after expression"); err != nil {
		return nil, err
	}
	return ast.ExpressionStmt{Expression: expr}, nil
}

func (parser *Parser) block() ([]ast.Stmt, error) {
	var statements []ast.Stmt

	for !parser.checkType(token.RightBrace) && !parser.isFinished() {
		stmt, err := parser.declaration()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	if _, err := parser.consume(token.RightBrace, "expected '}' after block"); err != nil {
		return nil, err
	}
	return statements, nil
}

func (parser *Parser) expression() (ast.Expression, error) {
	return parser.assignment()
}

// assignment parses "IDENT = assignment" or falls through to a logical
// "or" expression. The left-hand side is parsed as an ordinary
// expression and is accepted as a target only if it is a Variable.
func (parser *Parser) assignment() (ast.Expression, error) {
	expr, err := parser.or()
	if err != nil {
		return nil, err
	}

	if parser.isMatch(token.Equal) {
		equals := parser.previous()
		value, err := parser.assignment()
		if err != nil {
			return nil, err
		}
		if variable, ok := expr.(ast.Variable); ok {
			return ast.Assign{Name: variable.Name, Value: value}, nil
		}
		return nil, newSyntaxError(equals.Loc, "invalid assignment target")
	}

	return expr, nil
}

func (parser *Parser) or() (ast.Expression, error) {
	expr, err := parser.and()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(token.Or) {
		op := parser.previous()
		right, err := parser.and()
		if err != nil {
			return nil, err
		}
		expr = ast.Logical{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) and() (ast.Expression, error) {
	expr, err := parser.equality()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(token.And) {
		op := parser.previous()
		right, err := parser.equality()
		if err != nil {
			return nil, err
		}
		expr = ast.Logical{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) equality() (ast.Expression, error) {
	expr, err := parser.comparison()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(equalityTokenTypes...) {
		op := parser.previous()
		right, err := parser.comparison()
		if err != nil {
			return nil, err
		}
		expr = ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) comparison() (ast.Expression, error) {
	expr, err := parser.term()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(comparisonTokenTypes...) {
		op := parser.previous()
		right, err := parser.term()
		if err != nil {
			return nil, err
		}
		expr = ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) term() (ast.Expression, error) {
	expr, err := parser.factor()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(termTokenTypes...) {
		op := parser.previous()
		right, err := parser.factor()
		if err != nil {
			return nil, err
		}
		expr = ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) factor() (ast.Expression, error) {
	expr, err := parser.unary()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(factorTokenTypes...) {
		op := parser.previous()
		right, err := parser.unary()
		if err != nil {
			return nil, err
		}
		expr = ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) unary() (ast.Expression, error) {
	if parser.isMatch(unaryTokenTypes...) {
		op := parser.previous()
		right, err := parser.unary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Operator: op, Right: right}, nil
	}
	return parser.call()
}

// call parses "primary ( '(' arguments? ')' )*" — a primary expression
// followed by zero or more argument lists, e.g. "make(1)()".
func (parser *Parser) call() (ast.Expression, error) {
	expr, err := parser.primary()
	if err != nil {
		return nil, err
	}

	for {
		if parser.isMatch(token.LeftParen) {
			expr, err = parser.finishCall(expr)
			if err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return expr, nil
}

func (parser *Parser) finishCall(callee ast.Expression) (ast.Expression, error) {
	var args []ast.Expression
	if !parser.checkType(token.RightParen) {
		for {
			if len(args) >= maxArgs {
				current := parser.peek()
				return nil, newSyntaxError(current.Loc, fmt.Sprintf("can't have more than %d arguments", maxArgs))
			}
			arg, err := parser.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !parser.isMatch(token.Comma) {
				break
			}
		}
	}
	paren, err := parser.consume(token.RightParen, "expected ')' after arguments")
	if err != nil {
		return nil, err
	}
	return ast.Call{Callee: callee, Paren: paren, Arguments: args}, nil
}

func (parser *Parser) primary() (ast.Expression, error) {
	switch {
	case parser.isMatch(token.False):
		return ast.Literal{Value: false}, nil
	case parser.isMatch(token.True):
		return ast.Literal{Value: true}, nil
	case parser.isMatch(token.Nil):
		return ast.Literal{Value: nil}, nil
	case parser.isMatch(token.Number, token.String):
		return ast.Literal{Value: parser.previous().Literal}, nil
	case parser.isMatch(token.Identifier):
		return ast.Variable{Name: parser.previous()}, nil
	case parser.isMatch(token.LeftParen):
		expr, err := parser.expression()
		if err != nil {
			return nil, err
		}
		if _, err := parser.consume(token.RightParen, "expected ')' after expression"); err != nil {
			return nil, err
		}
		return ast.Grouping{Expression: expr}, nil
	}

	current := parser.peek()
	return nil, newSyntaxError(current.Loc, "expected expression")
}
