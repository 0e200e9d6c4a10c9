package opcode

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError reports a malformed line of instruction text.
type SyntaxError struct {
	Line    int
	Text    string
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Message, e.Text)
}

// Format renders a program as text, one instruction per line.
func Format(program Program) string {
	var b strings.Builder
	for _, inst := range program {
		b.WriteString(inst.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseText reads the text form produced by Format. Blank lines and text after
// ';' are ignored.
func ParseText(text string) (Program, error) {
	program := Program{}
	labels := make(map[string]int)

	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		inst, ok, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if inst.IsLabel() {
			name := inst.LabelName()
			if first, exists := labels[name]; exists {
				return nil, &SyntaxError{Line: lineNo, Text: raw,
					Message: fmt.Sprintf("duplicate label %s (first defined on line %d)", name, first)}
			}
			labels[name] = lineNo
		}
		program = append(program, inst)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return program, nil
}

func parseLine(raw string, lineNo int) (Instruction, bool, error) {
	line := raw
	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Instruction{}, false, nil
	}

	fail := func(format string, args ...any) (Instruction, bool, error) {
		return Instruction{}, false, &SyntaxError{Line: lineNo, Text: raw, Message: fmt.Sprintf(format, args...)}
	}

	head := fields[0]
	if strings.HasSuffix(head, ":") {
		name := strings.TrimSuffix(head, ":")
		if name == "" || strings.Contains(name, ":") {
			return fail("invalid label")
		}
		if len(fields) > 1 {
			return fail("unexpected text after label %s", name)
		}
		return Label(name), true, nil
	}

	cmd, ok := Lookup(head)
	if !ok {
		return fail("unknown instruction %s", head)
	}
	if !cmd.TakesOperand() {
		if len(fields) != 1 {
			return fail("%s expects 0 operands", cmd)
		}
		return Op(cmd), true, nil
	}
	if len(fields) != 2 {
		return fail("%s expects 1 operand", cmd)
	}
	if instructionSet[cmd] == intOperand {
		if _, err := strconv.ParseInt(fields[1], 10, 64); err != nil {
			return fail("invalid integer %s", fields[1])
		}
	}
	return Op(cmd, fields[1]), true, nil
}
