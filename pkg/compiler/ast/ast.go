// Package ast defines the abstract syntax tree of the paul language.
//
// Statement and Expression are sealed: their marker methods are unexported, so the
// variant set below is closed and consumers can switch over it exhaustively.
package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/zurustar/paul/pkg/compiler/token"
)

type Node interface {
	TokenLiteral() string
	String() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// Program is the root node
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// Identifier is a variable reference.
type Identifier struct {
	Token token.Token // token.IDENT
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

// IntegerLiteral
type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntegerLiteral) String() string       { return strconv.FormatInt(il.Value, 10) }

// InfixExpression is a binary operation. Operator is one of + - * / == != < > <= >=.
type InfixExpression struct {
	Token    token.Token // the operator token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

// CallExpression invokes a user function; its value is what the function returns.
type CallExpression struct {
	Token     token.Token // the function name
	Function  string
	Arguments []Expression
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) String() string {
	args := make([]string, len(ce.Arguments))
	for i, a := range ce.Arguments {
		args[i] = a.String()
	}
	return ce.Function + "(" + strings.Join(args, ", ") + ")"
}

// AssignStatement: [var] name = value;
type AssignStatement struct {
	Token    token.Token // 'var' or the name
	Declared bool        // written with the var keyword
	Name     string
	Value    Expression
}

func (as *AssignStatement) statementNode()       {}
func (as *AssignStatement) TokenLiteral() string { return as.Token.Literal }
func (as *AssignStatement) String() string {
	prefix := ""
	if as.Declared {
		prefix = "var "
	}
	return prefix + as.Name + " = " + as.Value.String() + ";"
}

// CallStatement is a call whose result is discarded.
type CallStatement struct {
	Call *CallExpression
}

func (cs *CallStatement) statementNode()       {}
func (cs *CallStatement) TokenLiteral() string { return cs.Call.TokenLiteral() }
func (cs *CallStatement) String() string       { return cs.Call.String() + ";" }

// FunctionStatement: fun name(params) { body }
type FunctionStatement struct {
	Token      token.Token // 'fun'
	Name       string
	Parameters []string
	Body       []Statement
}

func (fs *FunctionStatement) statementNode()       {}
func (fs *FunctionStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *FunctionStatement) String() string {
	return "fun " + fs.Name + "(" + strings.Join(fs.Parameters, ", ") + ") " + blockString(fs.Body)
}

// IfStatement: if (cond) { ... } [else { ... }]. Alternative is empty without an else.
type IfStatement struct {
	Token       token.Token
	Condition   Expression
	Consequence []Statement
	Alternative []Statement
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) String() string {
	out := "if " + is.Condition.String() + " " + blockString(is.Consequence)
	if len(is.Alternative) > 0 {
		out += " else " + blockString(is.Alternative)
	}
	return out
}

// WhileStatement: while (cond) { body }
type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      []Statement
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) String() string {
	return "while " + ws.Condition.String() + " " + blockString(ws.Body)
}

// ReturnStatement: return value;
type ReturnStatement struct {
	Token token.Token
	Value Expression
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) String() string       { return "return " + rs.Value.String() + ";" }

func blockString(stmts []Statement) string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range stmts {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}
