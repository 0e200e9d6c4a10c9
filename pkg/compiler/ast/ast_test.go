package ast

import "testing"

func num(v int64) *IntegerLiteral {
	return &IntegerLiteral{Value: v}
}

func ident(name string) *Identifier {
	return &Identifier{Value: name}
}

func sampleProgram() *Program {
	return &Program{Statements: []Statement{
		&FunctionStatement{
			Name:       "add",
			Parameters: []string{"a", "b"},
			Body: []Statement{
				&ReturnStatement{Value: &InfixExpression{Left: ident("a"), Operator: "+", Right: ident("b")}},
			},
		},
		&AssignStatement{Declared: true, Name: "x", Value: &InfixExpression{
			Left:     num(2),
			Operator: "*",
			Right:    &CallExpression{Function: "add", Arguments: []Expression{num(1), ident("y")}},
		}},
		&IfStatement{
			Condition:   &InfixExpression{Left: ident("x"), Operator: ">", Right: num(3)},
			Consequence: []Statement{&CallStatement{Call: &CallExpression{Function: "f"}}},
		},
		&WhileStatement{
			Condition: &InfixExpression{Left: ident("x"), Operator: "!=", Right: num(0)},
			Body:      []Statement{&AssignStatement{Name: "x", Value: &InfixExpression{Left: ident("x"), Operator: "-", Right: num(1)}}},
		},
	}}
}

func TestDump(t *testing.T) {
	want := `Program
  Function add(a, b)
    Return
      Binary +
        Identifier a
        Identifier b
  Assign var x
    Binary *
      Number 2
      Call add
        Number 1
        Identifier y
  If
    Binary >
      Identifier x
      Number 3
  Then
    Call f
  While
    Binary !=
      Identifier x
      Number 0
  Do
    Assign x
      Binary -
        Identifier x
        Number 1
`
	if got := Dump(sampleProgram()); got != want {
		t.Errorf("Dump() =\n%s\nwant\n%s", got, want)
	}
}

func TestDumpElse(t *testing.T) {
	stmt := &IfStatement{
		Condition:   ident("c"),
		Consequence: []Statement{&AssignStatement{Name: "a", Value: num(1)}},
		Alternative: []Statement{&AssignStatement{Name: "a", Value: num(2)}},
	}
	want := "If\n  Identifier c\nThen\n  Assign a\n    Number 1\nElse\n  Assign a\n    Number 2\n"
	if got := Dump(stmt); got != want {
		t.Errorf("Dump() =\n%s\nwant\n%s", got, want)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{num(42), "42"},
		{ident("x"), "x"},
		{&InfixExpression{Left: num(1), Operator: "+", Right: &InfixExpression{Left: num(2), Operator: "*", Right: num(3)}}, "(1 + (2 * 3))"},
		{&CallExpression{Function: "f", Arguments: []Expression{num(1), ident("a")}}, "f(1, a)"},
		{&CallStatement{Call: &CallExpression{Function: "g"}}, "g();"},
		{&AssignStatement{Declared: true, Name: "x", Value: num(1)}, "var x = 1;"},
		{&AssignStatement{Name: "x", Value: num(1)}, "x = 1;"},
	}

	for i, tt := range tests {
		if got := tt.node.String(); got != tt.want {
			t.Errorf("tests[%d] - String() = %q, want %q", i, got, tt.want)
		}
	}
}
