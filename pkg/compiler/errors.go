// This file defines the CompileError type for structured error reporting.
package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zurustar/paul/pkg/compiler/codegen"
	"github.com/zurustar/paul/pkg/compiler/lexer"
	"github.com/zurustar/paul/pkg/compiler/parser"
)

// Phases reported by CompileError.
const (
	PhaseLexer   = "lexer"
	PhaseParser  = "parser"
	PhaseCodegen = "codegen"
)

// CompileError is a compilation failure with location information and a
// source excerpt. The phase error it was built from is available through
// errors.As.
type CompileError struct {
	// Phase is one of "lexer", "parser" or "codegen".
	Phase string

	// Message is the human-readable error description.
	Message string

	// Line and Column are 1-indexed; 0 when the phase has no position.
	Line   int
	Column int

	// Context holds up to 2 lines on each side of the error line, with a
	// pointer (^) under the error column.
	Context string

	// File is the script the source came from, if known.
	File string

	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString(e.Phase + " error")
	if e.File != "" {
		b.WriteString(" in " + e.File)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d, column %d", e.Line, e.Column)
	}
	b.WriteString(": " + e.Message)
	if e.Context != "" {
		b.WriteString("\n" + e.Context)
	}
	return b.String()
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// wrapError converts a phase error into a CompileError with source context.
// Errors of unknown origin are returned unchanged.
func wrapError(err error, source string) error {
	var ce *CompileError
	if errors.As(err, &ce) {
		return err
	}

	var (
		lexErr   *lexer.LexError
		parseErr *parser.ParseError
		genErr   *codegen.CodeGenError
	)
	switch {
	case errors.As(err, &lexErr):
		return newCompileError(PhaseLexer, fmt.Sprintf("unrecognized character %q", lexErr.Char),
			lexErr.Line, lexErr.Column, source, err)
	case errors.As(err, &parseErr):
		return newCompileError(PhaseParser, parseErr.Message, parseErr.Line, parseErr.Column, source, err)
	case errors.As(err, &genErr):
		return newCompileError(PhaseCodegen, genErr.Message, 0, 0, source, err)
	}
	return err
}

func newCompileError(phase, message string, line, column int, source string, err error) *CompileError {
	return &CompileError{
		Phase:   phase,
		Message: message,
		Line:    line,
		Column:  column,
		Context: GenerateErrorContext(source, line, column),
		Err:     err,
	}
}

// GenerateErrorContext generates source code context around an error location.
// It includes 2 lines before and 2 lines after the error line, with line numbers
// and a pointer (^) indicating the error column.
//
// Example output:
//
//	  2 | var x = 5;
//	  3 | var y = 10;
//	> 4 | var z = ;
//	    |         ^
//	  5 | w = 20;
//	  6 | v = 30;
func GenerateErrorContext(source string, line, column int) string {
	if source == "" || line <= 0 {
		return ""
	}

	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}

	start := max(line-3, 0)
	end := min(line+2, len(lines))

	var buf strings.Builder
	lineNumWidth := len(fmt.Sprintf("%d", end))

	for i := start; i < end; i++ {
		lineNum := i + 1
		if lineNum != line {
			fmt.Fprintf(&buf, "  %*d | %s\n", lineNumWidth, lineNum, lines[i])
			continue
		}
		fmt.Fprintf(&buf, "> %*d | %s\n", lineNumWidth, lineNum, lines[i])
		fmt.Fprintf(&buf, "  %s | %s^\n", strings.Repeat(" ", lineNumWidth), strings.Repeat(" ", max(column-1, 0)))
	}

	return buf.String()
}
