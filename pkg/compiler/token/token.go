// Package token defines the lexical tokens of the paul language.
package token

import "fmt"

// TokenType identifies the lexical category of a token.
type TokenType string

// Token is a single lexical unit with its position in the source.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

const (
	EOF = "EOF"

	// Identifiers + Literals
	IDENT  = "IDENT"  // x, add, i2
	NUMBER = "NUMBER" // 0, 42

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	SLASH    = "/"

	EQ     = "=="
	NOT_EQ = "!="
	LT     = "<"
	GT     = ">"
	LTE    = "<="
	GTE    = ">="

	// Delimiters
	COMMA     = ","
	SEMICOLON = ";"
	LPAREN    = "("
	RPAREN    = ")"
	LBRACE    = "{"
	RBRACE    = "}"

	// Keywords
	VAR    = "VAR"
	FUN    = "FUN"
	RETURN = "RETURN"
	IF     = "IF"
	ELSE   = "ELSE"
	WHILE  = "WHILE"
)

var keywords = map[string]TokenType{
	"var":    VAR,
	"fun":    FUN,
	"return": RETURN,
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
}

// LookupIdent maps a scanned word to its keyword type, or IDENT.
// The match is exact: "If" is an identifier.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsComparison reports whether t is one of the six comparison operators.
func (t TokenType) IsComparison() bool {
	switch t {
	case EQ, NOT_EQ, LT, GT, LTE, GTE:
		return true
	}
	return false
}

// Describe returns a human readable label for error messages.
func (t Token) Describe() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case IDENT:
		return fmt.Sprintf("identifier %q", t.Literal)
	case NUMBER:
		return fmt.Sprintf("number %s", t.Literal)
	}
	return fmt.Sprintf("%q", t.Literal)
}

func (t Token) String() string {
	return fmt.Sprintf("%-8s %-10q line %d", t.Type, t.Literal, t.Line)
}
