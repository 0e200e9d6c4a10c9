// Package lexer turns paul source text into tokens.
package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/zurustar/paul/pkg/compiler/token"
)

// LexError reports a character the lexer does not recognise.
type LexError struct {
	Char   rune
	Line   int
	Column int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("unrecognized character %q at line %d, column %d", e.Char, e.Line, e.Column)
}

// Lexer tokenizes paul source code.
type Lexer struct {
	input        string
	position     int  // offset of ch
	readPosition int  // offset after ch
	ch           rune // current char, 0 at end of input
	line         int
	column       int
}

// New creates a new Lexer.
func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// Tokenize scans the whole input. The returned slice always ends with an EOF token.
// The first unrecognised character aborts the scan.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var tokens []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, nil
		}
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() (token.Token, error) {
	l.skipWhitespace()

	line, column := l.line, l.column

	var tok token.Token
	switch l.ch {
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.newToken(token.EQ, "==", line, column)
		} else {
			tok = l.newToken(token.ASSIGN, "=", line, column)
		}
	case '!':
		if l.peekChar() != '=' {
			return token.Token{}, &LexError{Char: l.ch, Line: line, Column: column}
		}
		l.readChar()
		tok = l.newToken(token.NOT_EQ, "!=", line, column)
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.newToken(token.LTE, "<=", line, column)
		} else {
			tok = l.newToken(token.LT, "<", line, column)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.newToken(token.GTE, ">=", line, column)
		} else {
			tok = l.newToken(token.GT, ">", line, column)
		}
	case '+':
		tok = l.newToken(token.PLUS, "+", line, column)
	case '-':
		tok = l.newToken(token.MINUS, "-", line, column)
	case '*':
		tok = l.newToken(token.ASTERISK, "*", line, column)
	case '/':
		tok = l.newToken(token.SLASH, "/", line, column)
	case '(':
		tok = l.newToken(token.LPAREN, "(", line, column)
	case ')':
		tok = l.newToken(token.RPAREN, ")", line, column)
	case '{':
		tok = l.newToken(token.LBRACE, "{", line, column)
	case '}':
		tok = l.newToken(token.RBRACE, "}", line, column)
	case ';':
		tok = l.newToken(token.SEMICOLON, ";", line, column)
	case ',':
		tok = l.newToken(token.COMMA, ",", line, column)
	case 0:
		if l.position >= len(l.input) {
			return l.newToken(token.EOF, "", line, column), nil
		}
		return token.Token{}, &LexError{Char: l.ch, Line: line, Column: column}
	default:
		if unicode.IsLetter(l.ch) {
			literal := l.readIdentifier()
			return l.newToken(token.LookupIdent(literal), literal, line, column), nil
		}
		if isDigit(l.ch) {
			return l.newToken(token.NUMBER, l.readNumber(), line, column), nil
		}
		return token.Token{}, &LexError{Char: l.ch, Line: line, Column: column}
	}

	l.readChar()
	return tok, nil
}

// readChar decodes the next rune.
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.position = len(l.input)
		l.ch = 0
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.position = l.readPosition
	l.readPosition += w
	l.ch = r

	if r == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// readIdentifier reads letters and digits; the first rune is already known to be a letter.
func (l *Lexer) readIdentifier() string {
	start := l.position
	for unicode.IsLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber reads a run of decimal digits. Signs are not part of a literal.
func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) skipWhitespace() {
	for l.ch != 0 && unicode.IsSpace(l.ch) {
		l.readChar()
	}
}

func (l *Lexer) newToken(tokenType token.TokenType, literal string, line, column int) token.Token {
	return token.Token{Type: tokenType, Literal: literal, Line: line, Column: column}
}

// isDigit accepts ASCII digits only, so literals always parse as base 10.
func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}
