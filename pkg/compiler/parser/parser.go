// Package parser builds an AST from paul tokens by recursive descent.
//
// Grammar, lowest precedence first:
//
//	program    := statement* EOF
//	statement  := assignment | functionDef | ifElse | while | callStmt | return
//	assignment := ["var"] IDENT "=" expression ";"
//	expression := term (("+"|"-") term)*
//	term       := factor (("*"|"/") factor)*
//	factor     := NUMBER | IDENT [callSuffix] | "(" expression ")"
//	comparison := expression [("=="|"!="|"<"|">"|"<="|">=") expression]
//	functionDef:= "fun" IDENT "(" [IDENT ("," IDENT)*] ")" block
//	call       := IDENT "(" [expression ("," expression)*] ")"
//	ifElse     := "if" "(" comparison ")" block ["else" block]
//	while      := "while" "(" comparison ")" block
//	return     := "return" expression ";"
//	block      := "{" statement* "}"
//
// Comparisons only appear where a condition is required and never chain.
package parser

import (
	"fmt"
	"strconv"

	"github.com/zurustar/paul/pkg/compiler/ast"
	"github.com/zurustar/paul/pkg/compiler/lexer"
	"github.com/zurustar/paul/pkg/compiler/token"
)

// ParseError is the first structural mismatch found in the token stream.
type ParseError struct {
	Message string
	Token   token.Token
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Parser parses paul tokens into an AST.
type Parser struct {
	tokens   []token.Token
	position int
}

// New creates a new Parser. A missing trailing EOF token is supplied.
func New(tokens []token.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		line := 1
		if len(tokens) > 0 {
			line = tokens[len(tokens)-1].Line
		}
		tokens = append(tokens[:len(tokens):len(tokens)], token.Token{Type: token.EOF, Line: line})
	}
	return &Parser{tokens: tokens}
}

// Parse lexes and parses source in one step.
func Parse(source string) (*ast.Program, error) {
	tokens, err := lexer.New(source).Tokenize()
	if err != nil {
		return nil, err
	}
	return New(tokens).ParseProgram()
}

// ParseProgram parses the entire program. Parsing stops at the first error; no partial
// tree is returned.
func (p *Parser) ParseProgram() (program *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(*ParseError)
			if !ok {
				panic(r)
			}
			program, err = nil, pe
		}
	}()

	program = &ast.Program{Statements: []ast.Statement{}}
	for !p.check(token.EOF) {
		program.Statements = append(program.Statements, p.parseStatement())
	}
	return program, nil
}

// parseStatement dispatches on at most two tokens of lookahead.
func (p *Parser) parseStatement() ast.Statement {
	switch p.peek().Type {
	case token.VAR:
		return p.parseAssignment()
	case token.FUN:
		return p.parseFunctionDefinition()
	case token.IF:
		return p.parseIfElse()
	case token.WHILE:
		return p.parseWhile()
	case token.RETURN:
		return p.parseReturn()
	case token.IDENT:
		switch p.peekAt(1).Type {
		case token.ASSIGN:
			return p.parseAssignment()
		case token.LPAREN:
			name := p.advance()
			stmt := &ast.CallStatement{Call: p.parseCall(name)}
			p.expect(token.SEMICOLON, "';' after function call")
			return stmt
		}
		p.fail(p.peekAt(1), fmt.Sprintf("unexpected %s after identifier %q, expected '=' or '('",
			p.peekAt(1).Describe(), p.peek().Literal))
	}
	p.fail(p.peek(), fmt.Sprintf("unexpected %s at start of statement", p.peek().Describe()))
	return nil
}

func (p *Parser) parseAssignment() ast.Statement {
	stmt := &ast.AssignStatement{Token: p.peek()}
	if p.match(token.VAR) {
		stmt.Declared = true
	}
	stmt.Name = p.expect(token.IDENT, "variable name").Literal
	p.expect(token.ASSIGN, "'='")
	stmt.Value = p.parseExpression()
	p.expect(token.SEMICOLON, "';'")
	return stmt
}

func (p *Parser) parseExpression() ast.Expression {
	left := p.parseTerm()
	for p.check(token.PLUS) || p.check(token.MINUS) {
		op := p.advance()
		right := p.parseTerm()
		left = &ast.InfixExpression{Token: op, Left: left, Operator: op.Literal, Right: right}
	}
	return left
}

func (p *Parser) parseTerm() ast.Expression {
	left := p.parseFactor()
	for p.check(token.ASTERISK) || p.check(token.SLASH) {
		op := p.advance()
		right := p.parseFactor()
		left = &ast.InfixExpression{Token: op, Left: left, Operator: op.Literal, Right: right}
	}
	return left
}

func (p *Parser) parseFactor() ast.Expression {
	tok := p.peek()
	switch tok.Type {
	case token.NUMBER:
		p.advance()
		value, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.fail(tok, fmt.Sprintf("integer literal %s out of range", tok.Literal))
		}
		return &ast.IntegerLiteral{Token: tok, Value: value}
	case token.IDENT:
		p.advance()
		if p.check(token.LPAREN) {
			return p.parseCall(tok)
		}
		return &ast.Identifier{Token: tok, Value: tok.Literal}
	case token.LPAREN:
		p.advance()
		expr := p.parseExpression()
		p.expect(token.RPAREN, "')'")
		return expr
	}
	p.fail(tok, fmt.Sprintf("unexpected %s, expected a number, identifier or '('", tok.Describe()))
	return nil
}

// parseComparison parses a condition: one expression, optionally compared with a second.
func (p *Parser) parseComparison() ast.Expression {
	left := p.parseExpression()
	if p.peek().Type.IsComparison() {
		op := p.advance()
		right := p.parseExpression()
		return &ast.InfixExpression{Token: op, Left: left, Operator: op.Literal, Right: right}
	}
	return left
}

func (p *Parser) parseFunctionDefinition() ast.Statement {
	stmt := &ast.FunctionStatement{Token: p.expect(token.FUN, "'fun'")}
	stmt.Name = p.expect(token.IDENT, "function name").Literal
	p.expect(token.LPAREN, "'(' after function name")

	stmt.Parameters = []string{}
	if p.check(token.IDENT) {
		stmt.Parameters = append(stmt.Parameters, p.advance().Literal)
		for p.match(token.COMMA) {
			stmt.Parameters = append(stmt.Parameters, p.expect(token.IDENT, "parameter name").Literal)
		}
	}
	p.expect(token.RPAREN, "')' after parameters")
	stmt.Body = p.parseBlock()
	return stmt
}

// parseCall parses the argument list after an already consumed function name.
func (p *Parser) parseCall(name token.Token) *ast.CallExpression {
	call := &ast.CallExpression{Token: name, Function: name.Literal, Arguments: []ast.Expression{}}
	p.expect(token.LPAREN, "'(' for function call")
	if !p.check(token.RPAREN) {
		call.Arguments = append(call.Arguments, p.parseExpression())
		for p.match(token.COMMA) {
			call.Arguments = append(call.Arguments, p.parseExpression())
		}
	}
	p.expect(token.RPAREN, "')' after arguments")
	return call
}

func (p *Parser) parseIfElse() ast.Statement {
	stmt := &ast.IfStatement{Token: p.expect(token.IF, "'if'")}
	p.expect(token.LPAREN, "'(' after if")
	stmt.Condition = p.parseComparison()
	p.expect(token.RPAREN, "')' after condition")
	stmt.Consequence = p.parseBlock()
	stmt.Alternative = []ast.Statement{}
	if p.match(token.ELSE) {
		stmt.Alternative = p.parseBlock()
	}
	return stmt
}

func (p *Parser) parseWhile() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.expect(token.WHILE, "'while'")}
	p.expect(token.LPAREN, "'(' after while")
	stmt.Condition = p.parseComparison()
	p.expect(token.RPAREN, "')' after condition")
	stmt.Body = p.parseBlock()
	return stmt
}

func (p *Parser) parseReturn() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.expect(token.RETURN, "'return'")}
	stmt.Value = p.parseExpression()
	p.expect(token.SEMICOLON, "';' after return value")
	return stmt
}

func (p *Parser) parseBlock() []ast.Statement {
	p.expect(token.LBRACE, "'{'")
	stmts := []ast.Statement{}
	for !p.match(token.RBRACE) {
		stmts = append(stmts, p.parseStatement())
	}
	return stmts
}

func (p *Parser) peek() token.Token {
	return p.peekAt(0)
}

// peekAt never runs past the trailing EOF.
func (p *Parser) peekAt(offset int) token.Token {
	i := p.position + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if tok.Type != token.EOF {
		p.position++
	}
	return tok
}

func (p *Parser) check(tt token.TokenType) bool {
	return p.peek().Type == tt
}

func (p *Parser) match(tt token.TokenType) bool {
	if p.check(tt) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(tt token.TokenType, what string) token.Token {
	if !p.check(tt) {
		p.fail(p.peek(), fmt.Sprintf("expected %s, got %s", what, p.peek().Describe()))
	}
	return p.advance()
}

// fail aborts the parse; ParseProgram turns the panic back into an error.
func (p *Parser) fail(tok token.Token, msg string) {
	panic(&ParseError{Message: msg, Token: tok, Line: tok.Line, Column: tok.Column})
}
