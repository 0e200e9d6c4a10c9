package codegen

import (
	"fmt"
	"sort"
	"strings"
)

// SymbolTable records the names seen during one generation pass.
type SymbolTable struct {
	// Variables maps each variable to a dense ordinal in first-seen order.
	Variables map[string]int
	// Functions maps each function to the index of its entry label.
	Functions map[string]int
}

func newSymbolTable() *SymbolTable {
	return &SymbolTable{
		Variables: make(map[string]int),
		Functions: make(map[string]int),
	}
}

// declareVariable registers name if it is new and returns its ordinal.
func (s *SymbolTable) declareVariable(name string) int {
	if idx, ok := s.Variables[name]; ok {
		return idx
	}
	idx := len(s.Variables)
	s.Variables[name] = idx
	return idx
}

// VariableNames returns the variables ordered by ordinal.
func (s *SymbolTable) VariableNames() []string {
	names := make([]string, len(s.Variables))
	for name, idx := range s.Variables {
		names[idx] = name
	}
	return names
}

// FunctionNames returns the functions ordered by entry offset.
func (s *SymbolTable) FunctionNames() []string {
	names := make([]string, 0, len(s.Functions))
	for name := range s.Functions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return s.Functions[names[i]] < s.Functions[names[j]]
	})
	return names
}

func (s *SymbolTable) String() string {
	var b strings.Builder
	b.WriteString("variables:\n")
	for idx, name := range s.VariableNames() {
		fmt.Fprintf(&b, "  %3d  %s\n", idx, name)
	}
	b.WriteString("functions:\n")
	for _, name := range s.FunctionNames() {
		fmt.Fprintf(&b, "  %3d  %s\n", s.Functions[name], name)
	}
	return b.String()
}
