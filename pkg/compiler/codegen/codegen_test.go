package codegen

import (
	"errors"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/zurustar/paul/pkg/compiler/ast"
	"github.com/zurustar/paul/pkg/compiler/parser"
	"github.com/zurustar/paul/pkg/opcode"
)

func generate(t *testing.T, g *Generator, source string) opcode.Program {
	t.Helper()
	program, err := parser.Parse(source)
	be.Err(t, err, nil)
	code, err := g.Generate(program)
	be.Err(t, err, nil)
	return code
}

func listing(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty program",
			input:    "",
			expected: listing("JMP START", "START:"),
		},
		{
			name:  "precedence",
			input: "x = 2 + 3 * 4;",
			expected: listing("JMP START", "START:",
				"PUSH 2", "PUSH 3", "PUSH 4", "MUL", "ADD", "STORE x"),
		},
		{
			name:  "left operand first",
			input: "var d = a - b / c;",
			expected: listing("JMP START", "START:",
				"LOAD a", "LOAD b", "LOAD c", "DIV", "SUB", "STORE d"),
		},
		{
			name:  "function with reverse parameter binding",
			input: "fun add(a, b) { return a + b; } x = add(2, 5);",
			expected: listing("JMP START",
				"FUNC_add:", "STORE b", "STORE a", "LOAD a", "LOAD b", "ADD", "RET",
				"START:",
				"PUSH 2", "PUSH 5", "CALL add", "STORE x"),
		},
		{
			name:  "implicit return pushes zero",
			input: "fun f() { x = 1; }",
			expected: listing("JMP START",
				"FUNC_f:", "PUSH 1", "STORE x", "PUSH 0", "RET",
				"START:"),
		},
		{
			name:  "call statement discards its result",
			input: "f(1);",
			expected: listing("JMP START", "START:",
				"PUSH 1", "CALL f", "POP"),
		},
		{
			name:  "if else",
			input: "if (3 > 2) { x = 1; } else { x = 0; }",
			expected: listing("JMP START", "START:",
				"PUSH 3", "PUSH 2", "GT", "JZ ELSE_0",
				"PUSH 1", "STORE x", "JMP ENDIF_0",
				"ELSE_0:", "PUSH 0", "STORE x",
				"ENDIF_0:"),
		},
		{
			name:  "if without else",
			input: "if (x) { y = 1; }",
			expected: listing("JMP START", "START:",
				"LOAD x", "JZ ELSE_0", "PUSH 1", "STORE y", "JMP ENDIF_0", "ELSE_0:", "ENDIF_0:"),
		},
		{
			name:  "while",
			input: "var i = 0; while (i < 3) { i = i + 1; }",
			expected: listing("JMP START", "START:",
				"PUSH 0", "STORE i",
				"WHILE_START_0:", "LOAD i", "PUSH 3", "LT", "JZ WHILE_END_0",
				"LOAD i", "PUSH 1", "ADD", "STORE i", "JMP WHILE_START_0",
				"WHILE_END_0:"),
		},
		{
			name:  "function defined after main code is hoisted",
			input: "x = sq(3); fun sq(n) { return n * n; }",
			expected: listing("JMP START",
				"FUNC_sq:", "STORE n", "LOAD n", "LOAD n", "MUL", "RET",
				"START:",
				"PUSH 3", "CALL sq", "STORE x"),
		},
		{
			name:  "nested definitions do not interleave",
			input: "fun outer() { fun inner() { return 1; } return inner(); }",
			expected: listing("JMP START",
				"FUNC_inner:", "PUSH 1", "RET",
				"FUNC_outer:", "CALL inner", "RET",
				"START:"),
		},
		{
			name:  "calls inside a body stay in the body",
			input: "fun f() { g(); return 0; }",
			expected: listing("JMP START",
				"FUNC_f:", "CALL g", "POP", "PUSH 0", "RET",
				"START:"),
		},
		{
			name:  "comparison operators",
			input: "if (a == b) { } if (a != b) { } if (a <= b) { } if (a >= b) { }",
			expected: listing("JMP START", "START:",
				"LOAD a", "LOAD b", "EQ", "JZ ELSE_0", "JMP ENDIF_0", "ELSE_0:", "ENDIF_0:",
				"LOAD a", "LOAD b", "NEQ", "JZ ELSE_1", "JMP ENDIF_1", "ELSE_1:", "ENDIF_1:",
				"LOAD a", "LOAD b", "LTE", "JZ ELSE_2", "JMP ENDIF_2", "ELSE_2:", "ENDIF_2:",
				"LOAD a", "LOAD b", "GTE", "JZ ELSE_3", "JMP ENDIF_3", "ELSE_3:", "ENDIF_3:"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := generate(t, New(), tt.input)
			be.Equal(t, opcode.Format(code), tt.expected)
		})
	}
}

func TestLabelCounterPersistsAcrossPasses(t *testing.T) {
	g := New()
	first := generate(t, g, "if (x) { }")
	second := generate(t, g, "while (x) { }")

	be.Equal(t, first.Labels()["ELSE_0"], 5)
	_, ok := second.Labels()["WHILE_START_1"]
	be.True(t, ok)

	g.Reset()
	third := generate(t, g, "while (x) { }")
	_, ok = third.Labels()["WHILE_START_0"]
	be.True(t, ok)
}

func TestSymbols(t *testing.T) {
	g := New()
	generate(t, g, "var x = 1; fun f(a) { y = a; return y; } z = f(x);")

	symbols := g.Symbols()
	be.Equal(t, symbols.VariableNames(), []string{"x", "a", "y", "z"})
	be.Equal(t, symbols.Functions["f"], 1)
	be.True(t, strings.Contains(symbols.String(), "f"))
}

func TestFunctionOffsetsPointAtEntryLabels(t *testing.T) {
	g := New()
	code := generate(t, g, "fun a() { return 1; } fun b(p, q) { return p; } fun c() { }")

	for _, name := range []string{"a", "b", "c"} {
		offset := g.Symbols().Functions[name]
		be.Equal(t, code[offset].LabelName(), "FUNC_"+name)
	}
	be.Equal(t, g.Symbols().FunctionNames(), []string{"a", "b", "c"})
}

func TestGenerateErrors(t *testing.T) {
	t.Run("duplicate function", func(t *testing.T) {
		program, err := parser.Parse("fun f() { } fun f() { }")
		be.Err(t, err, nil)
		_, err = New().Generate(program)
		var cge *CodeGenError
		be.True(t, errors.As(err, &cge))
		be.Err(t, err, "function f is already defined")
	})

	t.Run("nested redefinition", func(t *testing.T) {
		program, err := parser.Parse("fun f() { fun f() { } }")
		be.Err(t, err, nil)
		_, err = New().Generate(program)
		be.Err(t, err, "already defined")
	})

	t.Run("unknown operator", func(t *testing.T) {
		program := &ast.Program{Statements: []ast.Statement{
			&ast.AssignStatement{Name: "x", Value: &ast.InfixExpression{
				Left:     &ast.IntegerLiteral{Value: 1},
				Operator: "%",
				Right:    &ast.IntegerLiteral{Value: 2},
			}},
		}}
		_, err := New().Generate(program)
		be.Err(t, err, `unknown operator "%"`)
	})

	t.Run("missing expression", func(t *testing.T) {
		program := &ast.Program{Statements: []ast.Statement{
			&ast.ReturnStatement{},
		}}
		_, err := New().Generate(program)
		be.Err(t, err, "missing expression")
	})

	t.Run("nil program", func(t *testing.T) {
		_, err := New().Generate(nil)
		be.Err(t, err, "nil program")
	})
}
