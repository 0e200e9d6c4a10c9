// Package opcode defines the instruction set of the paul stack machine.
// This package is the foundation that both the compiler and VM depend on.
// The code generator produces a Program, and the VM executes it.
package opcode

import (
	"strings"
)

// Cmd is the opcode tag of an instruction. A Cmd ending in ':' is a label
// pseudo-instruction rather than an operation.
type Cmd string

const (
	// Push pushes an integer literal.
	// Operand: decimal integer
	Push Cmd = "PUSH"

	// Load pushes the value of a variable.
	// Operand: variable name
	Load Cmd = "LOAD"

	// Store pops the top of stack into a variable, creating it if needed.
	// Operand: variable name
	Store Cmd = "STORE"

	// Arithmetic. Each pops the right operand, then the left, and pushes left op right.
	Add Cmd = "ADD"
	Sub Cmd = "SUB"
	Mul Cmd = "MUL"
	Div Cmd = "DIV"

	// Comparisons push 1 when left op right holds, 0 otherwise.
	Gt  Cmd = "GT"
	Lt  Cmd = "LT"
	Gte Cmd = "GTE"
	Lte Cmd = "LTE"
	Eq  Cmd = "EQ"
	Neq Cmd = "NEQ"

	// Jmp transfers control unconditionally.
	// Operand: label name
	Jmp Cmd = "JMP"

	// Goto is an alias of Jmp.
	Goto Cmd = "GOTO"

	// Jz pops a value and jumps when it is zero.
	// Operand: label name
	Jz Cmd = "JZ"

	// Call pushes a return address and jumps to FUNC_<name>.
	// Operand: function name
	Call Cmd = "CALL"

	// Ret resumes at the most recent return address.
	Ret Cmd = "RET"

	// Pop discards the top of stack.
	Pop Cmd = "POP"
)

// FunctionPrefix prefixes the entry label of every function.
const FunctionPrefix = "FUNC_"

// StartLabel marks the first instruction of the main program.
const StartLabel = "START"

type operandKind int

const (
	noOperand operandKind = iota
	intOperand
	nameOperand
)

var instructionSet = map[Cmd]operandKind{
	Push: intOperand, Load: nameOperand, Store: nameOperand,
	Add: noOperand, Sub: noOperand, Mul: noOperand, Div: noOperand,
	Gt: noOperand, Lt: noOperand, Gte: noOperand, Lte: noOperand, Eq: noOperand, Neq: noOperand,
	Jmp: nameOperand, Goto: nameOperand, Jz: nameOperand, Call: nameOperand,
	Ret: noOperand, Pop: noOperand,
}

// Lookup returns the Cmd for a mnemonic, or false if it is not an operation.
func Lookup(mnemonic string) (Cmd, bool) {
	cmd := Cmd(mnemonic)
	_, ok := instructionSet[cmd]
	return cmd, ok
}

// TakesOperand reports whether the operation requires an operand.
func (c Cmd) TakesOperand() bool {
	return instructionSet[c] != noOperand
}

// Instruction is one entry of a Program. Operand is empty for operations
// that take none and for labels.
type Instruction struct {
	Cmd     Cmd
	Operand string
}

// Program is an ordered instruction list.
type Program []Instruction

// Op builds an instruction.
func Op(cmd Cmd, operand ...string) Instruction {
	return Instruction{Cmd: cmd, Operand: strings.Join(operand, " ")}
}

// Label builds the label pseudo-instruction for name.
func Label(name string) Instruction {
	return Instruction{Cmd: Cmd(name + ":")}
}

// FunctionLabel returns the entry label name of a function.
func FunctionLabel(function string) string {
	return FunctionPrefix + function
}

// IsLabel reports whether the instruction is a label pseudo-instruction.
func (i Instruction) IsLabel() bool {
	return strings.HasSuffix(string(i.Cmd), ":")
}

// LabelName returns the label without its trailing colon, or "" for operations.
func (i Instruction) LabelName() string {
	if !i.IsLabel() {
		return ""
	}
	return strings.TrimSuffix(string(i.Cmd), ":")
}

// String renders the instruction in text form: OPCODE, OPCODE OPERAND or NAME:.
func (i Instruction) String() string {
	if i.Operand == "" {
		return string(i.Cmd)
	}
	return string(i.Cmd) + " " + i.Operand
}

// Labels maps every label name to its index in the program. The first
// definition of a duplicated name wins.
func (p Program) Labels() map[string]int {
	labels := make(map[string]int)
	for i, inst := range p {
		if !inst.IsLabel() {
			continue
		}
		if _, exists := labels[inst.LabelName()]; !exists {
			labels[inst.LabelName()] = i
		}
	}
	return labels
}

// Equal reports whether two programs hold the same instructions in order.
func (p Program) Equal(other Program) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}
