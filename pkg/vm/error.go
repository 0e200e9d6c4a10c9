package vm

import (
	"errors"
	"fmt"

	"github.com/zurustar/paul/pkg/opcode"
)

// ErrorType represents the type of runtime error.
type ErrorType string

const (
	ErrorUndefinedVariable     ErrorType = "UNDEFINED_VARIABLE"
	ErrorDivisionByZero        ErrorType = "DIVISION_BY_ZERO"
	ErrorUnknownLabel          ErrorType = "UNKNOWN_LABEL"
	ErrorUnknownOpcode         ErrorType = "UNKNOWN_OPCODE"
	ErrorUnknownFunction       ErrorType = "UNKNOWN_FUNCTION"
	ErrorCallStackUnderflow    ErrorType = "CALL_STACK_UNDERFLOW"
	ErrorOperandStackUnderflow ErrorType = "OPERAND_STACK_UNDERFLOW"
	ErrorInvalidOperand        ErrorType = "INVALID_OPERAND"

	// Only raised when the corresponding limit option is set.
	ErrorStepLimit ErrorType = "STEP_LIMIT"
	ErrorCallDepth ErrorType = "CALL_DEPTH"
)

// RuntimeError represents a runtime error in the VM. Every runtime error
// stops execution.
type RuntimeError struct {
	Type        ErrorType
	Message     string
	PC          int
	Instruction opcode.Instruction
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("[%s] %s at pc %d (%s)", e.Type, e.Message, e.PC, e.Instruction)
}

// NewRuntimeError creates a new RuntimeError.
func NewRuntimeError(errType ErrorType, message string, pc int, inst opcode.Instruction) *RuntimeError {
	return &RuntimeError{
		Type:        errType,
		Message:     message,
		PC:          pc,
		Instruction: inst,
	}
}

// IsRuntimeError reports whether err is a RuntimeError of the given type.
func IsRuntimeError(err error, errType ErrorType) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Type == errType
}
