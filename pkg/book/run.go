package book

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/zurustar/paul/pkg/compiler"
	"github.com/zurustar/paul/pkg/opcode"
	"github.com/zurustar/paul/pkg/vm"
)

// Outcome is the result of running one case.
type Outcome struct {
	Case     Case
	Program  opcode.Program // nil when compilation failed
	Result   *vm.Result     // nil when compilation or execution failed
	Err      error          // the compile or runtime error, if any
	Failures []string       // mismatches against the case's expectations
}

// Passed reports whether every expectation held.
func (o Outcome) Passed() bool {
	return len(o.Failures) == 0
}

// Run compiles and executes a case and compares the results with its
// expectations. The options are passed to the VM.
func Run(c Case, opts ...vm.Option) Outcome {
	out := Outcome{Case: c}

	program, err := compiler.Compile(c.Source)
	if err == nil {
		out.Program = program
		out.Result, err = vm.Execute(program, opts...)
	}
	out.Err = err

	if c.Error != "" {
		switch {
		case err == nil:
			out.fail("expected error containing %q, program succeeded", c.Error)
		case !strings.Contains(err.Error(), c.Error):
			out.fail("expected error containing %q, got: %v", c.Error, err)
		}
		return out
	}
	if err != nil {
		out.fail("unexpected error: %v", err)
		return out
	}

	if c.Memory != nil {
		out.compareMemory(c.Memory, out.Result.Memory)
	}
	if c.Stack != nil && !slices.Equal(c.Stack, out.Result.Stack) {
		out.fail("stack = %v, want %v", out.Result.Stack, c.Stack)
	}
	return out
}

// RunAll runs every case in order.
func RunAll(cases []Case, opts ...vm.Option) []Outcome {
	outcomes := make([]Outcome, 0, len(cases))
	for _, c := range cases {
		outcomes = append(outcomes, Run(c, opts...))
	}
	return outcomes
}

func (o *Outcome) compareMemory(want, got map[string]int64) {
	for _, name := range slices.Sorted(maps.Keys(want)) {
		value, ok := got[name]
		switch {
		case !ok:
			o.fail("%s is not in memory, want %d", name, want[name])
		case value != want[name]:
			o.fail("%s = %d, want %d", name, value, want[name])
		}
	}
	for _, name := range slices.Sorted(maps.Keys(got)) {
		if _, ok := want[name]; !ok {
			o.fail("unexpected variable %s = %d", name, got[name])
		}
	}
}

func (o *Outcome) fail(format string, args ...any) {
	o.Failures = append(o.Failures, fmt.Sprintf(format, args...))
}
