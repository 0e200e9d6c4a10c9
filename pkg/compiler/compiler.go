// Package compiler provides the compilation pipeline for paul programs.
// It transforms source code into an opcode.Program through three phases:
// 1. Lexer: Tokenization
// 2. Parser: AST generation
// 3. Codegen: instruction generation
//
// Every phase fails fast; the first error aborts the pipeline and is
// returned as a *CompileError carrying a source excerpt.
package compiler

import (
	"errors"
	"fmt"

	"github.com/zurustar/paul/pkg/compiler/ast"
	"github.com/zurustar/paul/pkg/compiler/codegen"
	"github.com/zurustar/paul/pkg/compiler/lexer"
	"github.com/zurustar/paul/pkg/compiler/parser"
	"github.com/zurustar/paul/pkg/compiler/token"
	"github.com/zurustar/paul/pkg/opcode"
	"github.com/zurustar/paul/pkg/script"
)

// Artifacts holds the output of every phase of one compilation.
type Artifacts struct {
	Tokens  []token.Token
	AST     *ast.Program
	Program opcode.Program
	Symbols *codegen.SymbolTable
}

// Compile compiles source code to a Program.
func Compile(source string) (opcode.Program, error) {
	artifacts, err := CompileArtifacts(source)
	if err != nil {
		return nil, err
	}
	return artifacts.Program, nil
}

// CompileArtifacts runs the pipeline and keeps every intermediate result.
// The generator is created fresh, so labels always start from 0.
func CompileArtifacts(source string, opts ...codegen.Option) (*Artifacts, error) {
	tokens, err := lexer.New(source).Tokenize()
	if err != nil {
		return nil, wrapError(err, source)
	}

	program, err := parser.New(tokens).ParseProgram()
	if err != nil {
		return nil, wrapError(err, source)
	}

	gen := codegen.New(opts...)
	code, err := gen.Generate(program)
	if err != nil {
		return nil, wrapError(err, source)
	}

	return &Artifacts{
		Tokens:  tokens,
		AST:     program,
		Program: code,
		Symbols: gen.Symbols(),
	}, nil
}

// CompileScript turns a loaded script into a Program. Listings (.pasm) are
// parsed as instruction text instead of being compiled.
func CompileScript(s script.Script) (opcode.Program, error) {
	artifacts, err := CompileScriptArtifacts(s)
	if err != nil {
		return nil, err
	}
	return artifacts.Program, nil
}

// CompileScriptArtifacts is CompileScript keeping every intermediate
// result. For listings only Program is set.
func CompileScriptArtifacts(s script.Script, opts ...codegen.Option) (*Artifacts, error) {
	if s.Kind == script.Listing {
		program, err := opcode.ParseText(s.Content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.FileName, err)
		}
		return &Artifacts{Program: program}, nil
	}

	artifacts, err := CompileArtifacts(s.Content, opts...)
	if err != nil {
		var ce *CompileError
		if errors.As(err, &ce) {
			ce.File = s.FileName
		}
		return nil, err
	}
	return artifacts, nil
}

// CompileFile compiles a file, decoding it from the named encoding
// (empty means UTF-8).
func CompileFile(path, encoding string) (opcode.Program, error) {
	loader, err := script.NewLoader(encoding)
	if err != nil {
		return nil, err
	}
	s, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	return CompileScript(*s)
}

// CompileResult is the compilation result for a single script.
type CompileResult struct {
	FileName string
	// Program is nil if compilation failed.
	Program opcode.Program
	Err     error
}

// CompileScripts compiles every script independently, so one broken
// script does not hide the results of the others.
func CompileScripts(scripts []script.Script) []CompileResult {
	results := make([]CompileResult, len(scripts))
	for i, s := range scripts {
		program, err := CompileScript(s)
		results[i] = CompileResult{FileName: s.FileName, Program: program, Err: err}
	}
	return results
}

// CompileDirectory loads and compiles all scripts in a directory.
func CompileDirectory(dir, encoding string) ([]CompileResult, error) {
	loader, err := script.NewLoader(encoding)
	if err != nil {
		return nil, err
	}
	scripts, err := loader.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load scripts from %s: %w", dir, err)
	}
	return CompileScripts(scripts), nil
}
