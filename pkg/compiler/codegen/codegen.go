// Package codegen lowers a paul AST into a linear stack-machine program.
//
// The output layout is fixed:
//
//	JMP START
//	FUNC_<name>:   one block per function, in definition order
//	...
//	START:
//	main program
//
// Function bodies are hoisted out of wherever they are defined, so the main
// program never falls into one.
package codegen

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/zurustar/paul/pkg/compiler/ast"
	"github.com/zurustar/paul/pkg/logger"
	"github.com/zurustar/paul/pkg/opcode"
)

var operators = map[string]opcode.Cmd{
	"+":  opcode.Add,
	"-":  opcode.Sub,
	"*":  opcode.Mul,
	"/":  opcode.Div,
	">":  opcode.Gt,
	"<":  opcode.Lt,
	"==": opcode.Eq,
	"!=": opcode.Neq,
	">=": opcode.Gte,
	"<=": opcode.Lte,
}

// CodeGenError is raised for an AST the generator cannot lower. The parser never
// produces such trees except for duplicate function definitions.
type CodeGenError struct {
	Message string
	Node    ast.Node
}

func (e *CodeGenError) Error() string {
	return "codegen: " + e.Message
}

// Generator converts an AST to a Program.
//
// The label counter belongs to the Generator and keeps counting across
// Generate calls, so programs produced by one Generator never share a label
// name unless Reset is called.
type Generator struct {
	labelCount int
	log        *slog.Logger

	// state of the current pass
	symbols   *SymbolTable
	functions opcode.Program
	out       *opcode.Program
}

// Option is a functional option for configuring the Generator.
type Option func(*Generator)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// New creates a new code generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		log:     logger.GetLogger(),
		symbols: newSymbolTable(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Reset rewinds the label counter.
func (g *Generator) Reset() {
	g.labelCount = 0
}

// Symbols returns the symbol table of the most recent Generate call.
func (g *Generator) Symbols() *SymbolTable {
	return g.symbols
}

// Generate lowers a program.
func (g *Generator) Generate(program *ast.Program) (opcode.Program, error) {
	if program == nil {
		return nil, &CodeGenError{Message: "nil program"}
	}

	g.symbols = newSymbolTable()
	g.functions = opcode.Program{}
	main := opcode.Program{}
	g.out = &main

	for _, stmt := range program.Statements {
		if err := g.generateStatement(stmt); err != nil {
			return nil, err
		}
	}

	result := make(opcode.Program, 0, len(g.functions)+len(main)+2)
	result = append(result, opcode.Op(opcode.Jmp, opcode.StartLabel))
	result = append(result, g.functions...)
	result = append(result, opcode.Label(opcode.StartLabel))
	result = append(result, main...)

	g.log.Debug("code generated",
		"instructions", len(result),
		"functions", len(g.symbols.Functions),
		"variables", len(g.symbols.Variables))
	return result, nil
}

func (g *Generator) emit(cmd opcode.Cmd, operand ...string) {
	*g.out = append(*g.out, opcode.Op(cmd, operand...))
}

func (g *Generator) emitLabel(name string) {
	*g.out = append(*g.out, opcode.Label(name))
}

// nextLabel ticks the counter once per control-flow construct.
func (g *Generator) nextLabel() int {
	n := g.labelCount
	g.labelCount++
	return n
}

func (g *Generator) generateStatements(stmts []ast.Statement) error {
	for _, stmt := range stmts {
		if err := g.generateStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) generateStatement(stmt ast.Statement) error {
	g.log.Debug("visit statement", "node", fmt.Sprintf("%T", stmt))

	switch s := stmt.(type) {
	case *ast.AssignStatement:
		return g.generateAssign(s)
	case *ast.CallStatement:
		if s.Call == nil {
			return &CodeGenError{Message: "call statement without call", Node: s}
		}
		if err := g.generateCall(s.Call); err != nil {
			return err
		}
		g.emit(opcode.Pop)
		return nil
	case *ast.FunctionStatement:
		return g.generateFunction(s)
	case *ast.IfStatement:
		return g.generateIf(s)
	case *ast.WhileStatement:
		return g.generateWhile(s)
	case *ast.ReturnStatement:
		if err := g.generateExpression(s.Value); err != nil {
			return err
		}
		g.emit(opcode.Ret)
		return nil
	default:
		return &CodeGenError{Message: fmt.Sprintf("unknown statement type: %T", stmt), Node: stmt}
	}
}

func (g *Generator) generateAssign(s *ast.AssignStatement) error {
	if err := g.generateExpression(s.Value); err != nil {
		return err
	}
	g.symbols.declareVariable(s.Name)
	g.emit(opcode.Store, s.Name)
	return nil
}

// generateFunction emits the function into its own block and appends the block
// to the hoisted section once complete, so nested definitions never interleave.
func (g *Generator) generateFunction(s *ast.FunctionStatement) error {
	if _, exists := g.symbols.Functions[s.Name]; exists {
		return &CodeGenError{Message: fmt.Sprintf("function %s is already defined", s.Name), Node: s}
	}
	// reserve the name before the body so recursion and redefinition inside it resolve
	g.symbols.Functions[s.Name] = -1

	saved := g.out
	body := opcode.Program{}
	g.out = &body

	g.emitLabel(opcode.FunctionLabel(s.Name))
	// arguments arrive in declaration order, so the last parameter is on top
	for i := len(s.Parameters) - 1; i >= 0; i-- {
		g.symbols.declareVariable(s.Parameters[i])
		g.emit(opcode.Store, s.Parameters[i])
	}
	if err := g.generateStatements(s.Body); err != nil {
		g.out = saved
		return err
	}
	if !endsWithReturn(s.Body) {
		g.emit(opcode.Push, "0")
		g.emit(opcode.Ret)
	}

	g.out = saved
	// +1 for the leading JMP START
	g.symbols.Functions[s.Name] = len(g.functions) + 1
	g.functions = append(g.functions, body...)
	return nil
}

func endsWithReturn(body []ast.Statement) bool {
	if len(body) == 0 {
		return false
	}
	_, ok := body[len(body)-1].(*ast.ReturnStatement)
	return ok
}

func (g *Generator) generateIf(s *ast.IfStatement) error {
	n := strconv.Itoa(g.nextLabel())
	elseLabel, endLabel := "ELSE_"+n, "ENDIF_"+n

	if err := g.generateExpression(s.Condition); err != nil {
		return err
	}
	g.emit(opcode.Jz, elseLabel)
	if err := g.generateStatements(s.Consequence); err != nil {
		return err
	}
	g.emit(opcode.Jmp, endLabel)
	g.emitLabel(elseLabel)
	if err := g.generateStatements(s.Alternative); err != nil {
		return err
	}
	g.emitLabel(endLabel)
	return nil
}

func (g *Generator) generateWhile(s *ast.WhileStatement) error {
	n := strconv.Itoa(g.nextLabel())
	startLabel, endLabel := "WHILE_START_"+n, "WHILE_END_"+n

	g.emitLabel(startLabel)
	if err := g.generateExpression(s.Condition); err != nil {
		return err
	}
	g.emit(opcode.Jz, endLabel)
	if err := g.generateStatements(s.Body); err != nil {
		return err
	}
	g.emit(opcode.Jmp, startLabel)
	g.emitLabel(endLabel)
	return nil
}

func (g *Generator) generateExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		g.emit(opcode.Push, strconv.FormatInt(e.Value, 10))
		return nil
	case *ast.Identifier:
		g.symbols.declareVariable(e.Value)
		g.emit(opcode.Load, e.Value)
		return nil
	case *ast.InfixExpression:
		cmd, ok := operators[e.Operator]
		if !ok {
			return &CodeGenError{Message: fmt.Sprintf("unknown operator %q", e.Operator), Node: e}
		}
		if err := g.generateExpression(e.Left); err != nil {
			return err
		}
		if err := g.generateExpression(e.Right); err != nil {
			return err
		}
		g.emit(cmd)
		return nil
	case *ast.CallExpression:
		return g.generateCall(e)
	case nil:
		return &CodeGenError{Message: "missing expression"}
	default:
		return &CodeGenError{Message: fmt.Sprintf("unknown expression type: %T", expr), Node: expr}
	}
}

func (g *Generator) generateCall(call *ast.CallExpression) error {
	for _, arg := range call.Arguments {
		if err := g.generateExpression(arg); err != nil {
			return err
		}
	}
	g.emit(opcode.Call, call.Function)
	return nil
}
