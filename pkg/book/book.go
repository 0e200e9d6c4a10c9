// Package book reads Markdown documents of paul sample programs and checks
// each program against the memory, stack or error it is expected to produce.
//
// A case starts at a heading "Program: <name>" (any level). Inside a case:
//
//	```paul     source code (required, once)
//	```memory   one "name = value" per line; the final memory must match exactly
//	```stack    space separated values of the final operand stack, bottom first
//	```error    a substring of the expected compile or runtime error
//
// Fences without a language are prose and are ignored everywhere.
package book

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// HeadingPrefix marks a heading that opens a case.
const HeadingPrefix = "Program:"

// FenceType is the info string of a fenced code block inside a case.
type FenceType string

const (
	FenceSource FenceType = "paul"
	FenceMemory FenceType = "memory"
	FenceStack  FenceType = "stack"
	FenceError  FenceType = "error"
)

func knownFence(language string) bool {
	switch FenceType(language) {
	case FenceSource, FenceMemory, FenceStack, FenceError:
		return true
	}
	return false
}

// Case is one sample program with its expectations.
type Case struct {
	Name   string
	Line   int // line of the source fence, zero until one is seen
	Source string

	Memory map[string]int64 // nil when no memory fence was given
	Stack  []int64          // nil when no stack fence was given
	Error  string           // empty when the program must succeed
}

// Expectations reports whether the case checks anything beyond running cleanly.
func (c Case) Expectations() bool {
	return c.Memory != nil || c.Stack != nil || c.Error != ""
}

// Parse extracts every case from a Markdown document.
func Parse(markdown string) ([]Case, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []Case
	var current *Case

	finish := func() error {
		if current == nil {
			return nil
		}
		if current.Line == 0 {
			return fmt.Errorf("program %q has no paul fence", current.Name)
		}
		cases = append(cases, *current)
		return nil
	}

	err := gast.Walk(doc, func(node gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *gast.Heading:
			heading := headingText(n, source)
			if !strings.HasPrefix(heading, HeadingPrefix) {
				return gast.WalkContinue, nil
			}
			if err := finish(); err != nil {
				return gast.WalkStop, err
			}
			name := strings.TrimSpace(strings.TrimPrefix(heading, HeadingPrefix))
			if name == "" {
				return gast.WalkStop, fmt.Errorf("line %d: program heading without a name", lineOf(n, source))
			}
			current = &Case{Name: name}

		case *gast.FencedCodeBlock:
			language := string(n.Language(source))
			if language == "" {
				return gast.WalkContinue, nil
			}
			line := lineOf(n, source)
			if current == nil {
				return gast.WalkStop, fmt.Errorf("line %d: %s fence outside of a program", line, language)
			}
			if !knownFence(language) {
				return gast.WalkStop, fmt.Errorf("line %d: unknown fence language %q in program %q", line, language, current.Name)
			}
			if err := current.add(FenceType(language), blockContent(n, source), line); err != nil {
				return gast.WalkStop, err
			}
		}
		return gast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if err := finish(); err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *Case) add(fence FenceType, content string, line int) error {
	duplicate := func() error {
		return fmt.Errorf("line %d: more than one %s fence in program %q", line, fence, c.Name)
	}

	switch fence {
	case FenceSource:
		if c.Line != 0 {
			return duplicate()
		}
		c.Source = content
		c.Line = line
	case FenceMemory:
		if c.Memory != nil {
			return duplicate()
		}
		memory, err := parseMemory(content)
		if err != nil {
			return fmt.Errorf("line %d: program %q: %w", line, c.Name, err)
		}
		c.Memory = memory
	case FenceStack:
		if c.Stack != nil {
			return duplicate()
		}
		stack, err := parseStack(content)
		if err != nil {
			return fmt.Errorf("line %d: program %q: %w", line, c.Name, err)
		}
		c.Stack = stack
	case FenceError:
		if c.Error != "" {
			return duplicate()
		}
		c.Error = strings.TrimSpace(content)
		if c.Error == "" {
			return fmt.Errorf("line %d: empty error fence in program %q", line, c.Name)
		}
	}
	return nil
}

func parseMemory(content string) (map[string]int64, error) {
	memory := map[string]int64{}
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("memory line %d: expected name = value, got %q", i+1, line)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("memory line %d: invalid value for %s: %q", i+1, name, strings.TrimSpace(value))
		}
		if _, exists := memory[name]; exists {
			return nil, fmt.Errorf("memory line %d: %s listed twice", i+1, name)
		}
		memory[name] = n
	}
	return memory, nil
}

func parseStack(content string) ([]int64, error) {
	stack := []int64{}
	for _, field := range strings.Fields(content) {
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid stack value %q", field)
		}
		stack = append(stack, n)
	}
	return stack, nil
}

func headingText(node gast.Node, source []byte) string {
	var buf bytes.Buffer
	gast.Walk(node, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*gast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return gast.WalkContinue, nil
	})
	return buf.String()
}

func blockContent(block *gast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(source))
	}
	return strings.TrimRight(buf.String(), "\n")
}

// lineOf returns the 1-based source line where a node's content starts.
func lineOf(node gast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := min(node.Lines().At(0).Start, len(source))
	return bytes.Count(source[:start], []byte("\n")) + 1
}
