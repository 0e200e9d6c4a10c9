package ast

import (
	"fmt"
	"strings"
)

// Dump renders a node as an indented tree, one node per line.
//
//	Program
//	  Assign x
//	    Binary +
//	      Number 2
//	      Number 3
func Dump(node Node) string {
	var b strings.Builder
	dump(&b, node, 0)
	return b.String()
}

func dump(b *strings.Builder, node Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := node.(type) {
	case *Program:
		b.WriteString(indent + "Program\n")
		dumpList(b, n.Statements, depth+1)
	case *AssignStatement:
		if n.Declared {
			fmt.Fprintf(b, "%sAssign var %s\n", indent, n.Name)
		} else {
			fmt.Fprintf(b, "%sAssign %s\n", indent, n.Name)
		}
		dump(b, n.Value, depth+1)
	case *CallStatement:
		dump(b, n.Call, depth)
	case *FunctionStatement:
		fmt.Fprintf(b, "%sFunction %s(%s)\n", indent, n.Name, strings.Join(n.Parameters, ", "))
		dumpList(b, n.Body, depth+1)
	case *IfStatement:
		b.WriteString(indent + "If\n")
		dump(b, n.Condition, depth+1)
		b.WriteString(indent + "Then\n")
		dumpList(b, n.Consequence, depth+1)
		if len(n.Alternative) > 0 {
			b.WriteString(indent + "Else\n")
			dumpList(b, n.Alternative, depth+1)
		}
	case *WhileStatement:
		b.WriteString(indent + "While\n")
		dump(b, n.Condition, depth+1)
		b.WriteString(indent + "Do\n")
		dumpList(b, n.Body, depth+1)
	case *ReturnStatement:
		b.WriteString(indent + "Return\n")
		dump(b, n.Value, depth+1)
	case *InfixExpression:
		fmt.Fprintf(b, "%sBinary %s\n", indent, n.Operator)
		dump(b, n.Left, depth+1)
		dump(b, n.Right, depth+1)
	case *CallExpression:
		fmt.Fprintf(b, "%sCall %s\n", indent, n.Function)
		for _, arg := range n.Arguments {
			dump(b, arg, depth+1)
		}
	case *IntegerLiteral:
		fmt.Fprintf(b, "%sNumber %d\n", indent, n.Value)
	case *Identifier:
		fmt.Fprintf(b, "%sIdentifier %s\n", indent, n.Value)
	default:
		fmt.Fprintf(b, "%s%T\n", indent, node)
	}
}

func dumpList(b *strings.Builder, stmts []Statement, depth int) {
	for _, s := range stmts {
		dump(b, s, depth)
	}
}
