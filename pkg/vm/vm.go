// Package vm executes paul programs on a stack machine.
//
// The machine has an operand stack of int64 values, one flat memory shared
// by the main program and every function, and a call stack of return
// addresses. Labels are indexed once before execution and are never
// dispatched.
package vm

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strconv"

	"github.com/zurustar/paul/pkg/logger"
	"github.com/zurustar/paul/pkg/opcode"
)

// VM is a single-threaded interpreter for one program. It is not safe for
// concurrent use.
type VM struct {
	program opcode.Program
	labels  map[string]int

	pc     int
	stack  operandStack
	memory map[string]int64
	frames []Frame
	steps  int
	halted bool
	err    error

	maxSteps     int
	maxCallDepth int

	log   *slog.Logger
	trace bool
}

// Option is a functional option for configuring the VM.
type Option func(*VM)

// WithLogger sets a custom logger. Each executed instruction is logged at
// Debug level.
func WithLogger(log *slog.Logger) Option {
	return func(vm *VM) {
		if log != nil {
			vm.log = log
		}
	}
}

// WithMaxSteps stops execution with STEP_LIMIT after n instructions.
// 0 means unbounded.
func WithMaxSteps(n int) Option {
	return func(vm *VM) {
		vm.maxSteps = max(n, 0)
	}
}

// WithMaxCallDepth fails a CALL with CALL_DEPTH once n frames are active.
// 0 means unbounded.
func WithMaxCallDepth(n int) Option {
	return func(vm *VM) {
		vm.maxCallDepth = max(n, 0)
	}
}

// Result is the terminal state of a completed run.
type Result struct {
	Stack  []int64
	Memory map[string]int64
	Steps  int
}

// State is a copy of the machine state at one point in time.
type State struct {
	PC        int
	Stack     []int64
	Memory    map[string]int64
	CallStack []Frame
	Steps     int
	Halted    bool
	Err       error
}

// New creates a VM ready to run program from its first instruction.
func New(program opcode.Program, opts ...Option) *VM {
	vm := &VM{
		program: program,
		labels:  program.Labels(),
		memory:  make(map[string]int64),
		log:     logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.trace = vm.log.Enabled(context.Background(), slog.LevelDebug)
	vm.skipLabels()
	return vm
}

// Execute runs program to completion. On failure no partial result is returned.
func Execute(program opcode.Program, opts ...Option) (*Result, error) {
	vm := New(program, opts...)
	if err := vm.Run(); err != nil {
		return nil, err
	}
	return &Result{
		Stack:  vm.Stack(),
		Memory: vm.Memory(),
		Steps:  vm.steps,
	}, nil
}

// Run executes until the program counter leaves the program or an error occurs.
func (vm *VM) Run() error {
	vm.log.Debug("VM started", "instructions", len(vm.program), "labels", len(vm.labels))
	for !vm.halted {
		if err := vm.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes exactly one instruction. Once the VM has halted, Step
// returns the error that stopped it, or nil after a normal finish.
func (vm *VM) Step() error {
	if vm.halted {
		return vm.err
	}

	inst := vm.program[vm.pc]
	if vm.maxSteps > 0 && vm.steps >= vm.maxSteps {
		return vm.fail(NewRuntimeError(ErrorStepLimit,
			fmt.Sprintf("step limit of %d reached", vm.maxSteps), vm.pc, inst))
	}
	if vm.trace {
		vm.log.Debug("exec", "pc", vm.pc, "inst", inst.String(), "stack", vm.stack.values)
	}

	next, err := vm.execute(inst)
	if err != nil {
		return vm.fail(err)
	}
	vm.steps++
	vm.pc = next
	vm.skipLabels()
	return nil
}

// skipLabels advances past label pseudo-instructions and halts at the end of the program.
func (vm *VM) skipLabels() {
	for vm.pc < len(vm.program) && vm.program[vm.pc].IsLabel() {
		vm.pc++
	}
	if vm.pc >= len(vm.program) {
		vm.halted = true
		vm.log.Debug("VM halted", "steps", vm.steps, "stack_depth", vm.stack.len(), "variables", len(vm.memory))
	}
}

func (vm *VM) fail(err error) error {
	vm.halted = true
	vm.err = err
	vm.log.Debug("VM stopped", "pc", vm.pc, "error", err)
	return err
}

// execute performs inst and returns the next program counter.
func (vm *VM) execute(inst opcode.Instruction) (int, error) {
	pc := vm.pc
	next := pc + 1

	switch inst.Cmd {
	case opcode.Push:
		n, err := strconv.ParseInt(inst.Operand, 10, 64)
		if err != nil {
			return 0, NewRuntimeError(ErrorInvalidOperand,
				fmt.Sprintf("PUSH needs an integer operand, got %q", inst.Operand), pc, inst)
		}
		vm.stack.push(n)

	case opcode.Load:
		if err := vm.requireOperand(inst); err != nil {
			return 0, err
		}
		v, ok := vm.memory[inst.Operand]
		if !ok {
			return 0, NewRuntimeError(ErrorUndefinedVariable,
				fmt.Sprintf("undefined variable: %s", inst.Operand), pc, inst)
		}
		vm.stack.push(v)

	case opcode.Store:
		if err := vm.requireOperand(inst); err != nil {
			return 0, err
		}
		v, err := vm.pop(inst)
		if err != nil {
			return 0, err
		}
		vm.memory[inst.Operand] = v

	case opcode.Add, opcode.Sub, opcode.Mul, opcode.Div,
		opcode.Gt, opcode.Lt, opcode.Gte, opcode.Lte, opcode.Eq, opcode.Neq:
		// right operand was pushed last
		right, err := vm.pop(inst)
		if err != nil {
			return 0, err
		}
		left, err := vm.pop(inst)
		if err != nil {
			return 0, err
		}
		result, err := binary(inst, pc, left, right)
		if err != nil {
			return 0, err
		}
		vm.stack.push(result)

	case opcode.Jmp, opcode.Goto:
		return vm.jumpTarget(inst)

	case opcode.Jz:
		if err := vm.requireOperand(inst); err != nil {
			return 0, err
		}
		v, err := vm.pop(inst)
		if err != nil {
			return 0, err
		}
		if v == 0 {
			return vm.jumpTarget(inst)
		}

	case opcode.Call:
		if err := vm.requireOperand(inst); err != nil {
			return 0, err
		}
		target, ok := vm.labels[opcode.FunctionLabel(inst.Operand)]
		if !ok {
			return 0, NewRuntimeError(ErrorUnknownFunction,
				fmt.Sprintf("undefined function: %s", inst.Operand), pc, inst)
		}
		if vm.maxCallDepth > 0 && len(vm.frames) >= vm.maxCallDepth {
			return 0, NewRuntimeError(ErrorCallDepth,
				fmt.Sprintf("call depth limit of %d reached", vm.maxCallDepth), pc, inst)
		}
		vm.frames = append(vm.frames, Frame{ReturnPC: next, Function: inst.Operand})
		return target, nil

	case opcode.Ret:
		if len(vm.frames) == 0 {
			return 0, NewRuntimeError(ErrorCallStackUnderflow, "return with empty call stack", pc, inst)
		}
		frame := vm.frames[len(vm.frames)-1]
		vm.frames = vm.frames[:len(vm.frames)-1]
		return frame.ReturnPC, nil

	case opcode.Pop:
		if _, err := vm.pop(inst); err != nil {
			return 0, err
		}

	default:
		return 0, NewRuntimeError(ErrorUnknownOpcode,
			fmt.Sprintf("unknown instruction: %s", inst.Cmd), pc, inst)
	}

	return next, nil
}

func binary(inst opcode.Instruction, pc int, left, right int64) (int64, error) {
	switch inst.Cmd {
	case opcode.Add:
		return left + right, nil
	case opcode.Sub:
		return left - right, nil
	case opcode.Mul:
		return left * right, nil
	case opcode.Div:
		if right == 0 {
			return 0, NewRuntimeError(ErrorDivisionByZero, "division by zero", pc, inst)
		}
		return left / right, nil
	case opcode.Gt:
		return boolToInt(left > right), nil
	case opcode.Lt:
		return boolToInt(left < right), nil
	case opcode.Gte:
		return boolToInt(left >= right), nil
	case opcode.Lte:
		return boolToInt(left <= right), nil
	case opcode.Eq:
		return boolToInt(left == right), nil
	case opcode.Neq:
		return boolToInt(left != right), nil
	}
	return 0, NewRuntimeError(ErrorUnknownOpcode, fmt.Sprintf("unknown instruction: %s", inst.Cmd), pc, inst)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (vm *VM) pop(inst opcode.Instruction) (int64, error) {
	v, ok := vm.stack.pop()
	if !ok {
		return 0, NewRuntimeError(ErrorOperandStackUnderflow,
			fmt.Sprintf("%s needs a value on the operand stack", inst.Cmd), vm.pc, inst)
	}
	return v, nil
}

func (vm *VM) requireOperand(inst opcode.Instruction) error {
	if inst.Operand == "" {
		return NewRuntimeError(ErrorInvalidOperand, fmt.Sprintf("%s needs an operand", inst.Cmd), vm.pc, inst)
	}
	return nil
}

func (vm *VM) jumpTarget(inst opcode.Instruction) (int, error) {
	if err := vm.requireOperand(inst); err != nil {
		return 0, err
	}
	target, ok := vm.labels[inst.Operand]
	if !ok {
		return 0, NewRuntimeError(ErrorUnknownLabel, fmt.Sprintf("unknown label: %s", inst.Operand), vm.pc, inst)
	}
	return target, nil
}

// Program returns the program being executed.
func (vm *VM) Program() opcode.Program {
	return vm.program
}

// PC returns the index of the next instruction to execute.
func (vm *VM) PC() int {
	return vm.pc
}

// Halted reports whether execution has finished, normally or with an error.
func (vm *VM) Halted() bool {
	return vm.halted
}

// Err returns the error that stopped the VM, if any.
func (vm *VM) Err() error {
	return vm.err
}

// Steps returns the number of instructions executed so far.
func (vm *VM) Steps() int {
	return vm.steps
}

// Stack returns a copy of the operand stack, bottom first.
func (vm *VM) Stack() []int64 {
	return vm.stack.snapshot()
}

// Memory returns a copy of the variable store.
func (vm *VM) Memory() map[string]int64 {
	return maps.Clone(vm.memory)
}

// CallDepth returns the number of active frames.
func (vm *VM) CallDepth() int {
	return len(vm.frames)
}

// CallStack returns a copy of the active frames, outermost first.
func (vm *VM) CallStack() []Frame {
	out := make([]Frame, len(vm.frames))
	copy(out, vm.frames)
	return out
}

// Snapshot captures the full machine state.
func (vm *VM) Snapshot() State {
	return State{
		PC:        vm.pc,
		Stack:     vm.Stack(),
		Memory:    vm.Memory(),
		CallStack: vm.CallStack(),
		Steps:     vm.steps,
		Halted:    vm.halted,
		Err:       vm.err,
	}
}
