package app

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/zurustar/paul/pkg/compiler"
	"github.com/zurustar/paul/pkg/opcode"
	"github.com/zurustar/paul/pkg/vm"
)

// writeFile テスト用のファイルを作成する
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// run Applicationを実行して出力とエラーを返す
func run(t *testing.T, input string, args []string, opts ...Option) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PAUL_ENCODING", "")
	t.Setenv("PAUL_MAX_STEPS", "")

	var out bytes.Buffer
	err := New(strings.NewReader(input), &out, opts...).Run(args)
	return out.String(), err
}

func assertContains(t *testing.T, output string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestRun_Help(t *testing.T) {
	output, err := run(t, "", []string{"--help"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, output, "Usage:", "--book")
}

func TestRun_InvalidArgs(t *testing.T) {
	_, err := run(t, "", []string{"--log-level", "loud"})
	if err == nil || !strings.Contains(err.Error(), "failed to parse args") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestRun_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "calc.paul", "var x = 2 + 3 * 4;\nvar y = x - 4;")

	output, err := run(t, "", []string{path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, output,
		"=== calc.paul ===",
		"--- result (11 steps) ---",
		"stack: []",
		"  x = 14\n  y = 10\n",
	)
	if strings.Contains(output, "--- instructions ---") {
		t.Error("instructions should only be printed with --emit asm")
	}
}

func TestRun_EmitArtifacts(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "f.paul", "fun f(a) { return a; } var r = f(1);")

	output, err := run(t, "", []string{"-e", "tokens,ast,asm,symbols", path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, output,
		"--- tokens ---", "FUN",
		"--- ast ---", "Program\n", "Function f(a)",
		"--- instructions ---", "JMP START\nFUNC_f:\nSTORE a\n",
		"--- symbols ---", "variables:", "functions:",
		"r = 1",
	)
}

func TestRun_DirectoryWithListing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.pasm", "PUSH 7\nSTORE seven\n")
	writeFile(t, dir, "a.paul", "var one = 1;")
	writeFile(t, dir, "notes.txt", "ignored")

	output, err := run(t, "", []string{"-e", "ast,asm", dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := strings.Index(output, "=== a.paul ===")
	b := strings.Index(output, "=== b.pasm ===")
	if a < 0 || b < 0 || a > b {
		t.Fatalf("scripts should run in name order:\n%s", output)
	}
	assertContains(t, output, "one = 1", "seven = 7", "PUSH 7\nSTORE seven\n")
	if strings.Count(output, "--- ast ---") != 1 {
		t.Error("listings have no AST to print")
	}
}

func TestRun_CompileError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.paul", "var x = 1\nvar y = 2;")

	_, err := run(t, "", []string{path})
	var ce *compiler.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	if ce.File != "bad.paul" || ce.Phase != compiler.PhaseParser || ce.Line != 2 {
		t.Errorf("unexpected error details: %+v", ce)
	}
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.paul", "var z = 0; var y = 1 / z;")
	writeFile(t, dir, "b.paul", "var never = 1;")

	output, err := run(t, "", []string{dir})
	if !vm.IsRuntimeError(err, vm.ErrorDivisionByZero) {
		t.Fatalf("expected DIVISION_BY_ZERO, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "a.paul: ") {
		t.Errorf("runtime error should name the file: %v", err)
	}
	if strings.Contains(output, "b.paul") {
		t.Error("b.paul should not run after a failure")
	}
}

func TestRun_MaxSteps(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "loop.paul", "var i = 0; while (0 < 1) { i = i + 1; }")

	_, err := run(t, "", []string{"--max-steps", "100", path})
	if !vm.IsRuntimeError(err, vm.ErrorStepLimit) {
		t.Fatalf("expected STEP_LIMIT, got %v", err)
	}
}

func TestRun_MissingFile(t *testing.T) {
	_, err := run(t, "", []string{filepath.Join(t.TempDir(), "nope.paul")})
	if err == nil || !strings.Contains(err.Error(), "failed to load scripts") {
		t.Errorf("expected load error, got %v", err)
	}
}

func TestRun_Pause(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.paul", "var a = 1;")
	writeFile(t, dir, "b.paul", "var b = 2;")

	tests := []struct {
		name  string
		input string
	}{
		{"ENTERで進む", "\n\n\n"},
		// 入力が尽きてもブロックしない
		{"入力なし", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := run(t, tt.input, []string{"--pause", "-e", "asm", dir})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			// after each listing and between the two files
			if got := strings.Count(output, "[press ENTER to continue]"); got != 3 {
				t.Errorf("expected 3 pauses, got %d:\n%s", got, output)
			}
			assertContains(t, output, "a = 1", "b = 2")
		})
	}
}

func TestRun_Samples(t *testing.T) {
	samples := fstest.MapFS{
		"samples/01_add.paul": {Data: []byte("fun add(a, b) { return a + b; } var r = add(2, 3);")},
		"samples/02_raw.pasm": {Data: []byte("PUSH 4\nSTORE four\n")},
		"samples/README.md":   {Data: []byte("not a script")},
	}

	output, err := run(t, "", []string{}, WithSamples(samples))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, output, "=== 01_add.paul ===", "r = 5", "=== 02_raw.pasm ===", "four = 4")
}

func TestRun_NoSamples(t *testing.T) {
	_, err := run(t, "", []string{}, WithSamples(fstest.MapFS{}))
	if err == nil || !strings.Contains(err.Error(), "no sample programs found") {
		t.Errorf("expected missing samples error, got %v", err)
	}
}

func TestFindSamples(t *testing.T) {
	embedded := fstest.MapFS{"samples/a.paul": {Data: []byte("var a = 1;")}}

	location := findSamples(embedded)
	if location == nil || !location.IsEmbedded || location.Dir != SamplesDir {
		t.Fatalf("expected embedded samples, got %+v", location)
	}

	// 埋め込みがない場合はカレントディレクトリの samples を探す
	tmpDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(tmpDir, SamplesDir), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(tmpDir, SamplesDir), "b.paul", "var b = 1;")
	t.Chdir(tmpDir)

	location = findSamples(nil)
	if location == nil || location.IsEmbedded || location.Dir != "." {
		t.Fatalf("expected external samples, got %+v", location)
	}

	location = findSamples(fstest.MapFS{"samples/readme.txt": {Data: []byte("x")}})
	if location == nil || location.IsEmbedded {
		t.Fatalf("embedded dir without scripts should fall through, got %+v", location)
	}
}

func TestRun_Book(t *testing.T) {
	dir := t.TempDir()
	passing := writeFile(t, dir, "ok.md", `# Book

## Program: add
`+"```paul"+`
var x = 1 + 1;
`+"```"+`
`+"```memory"+`
x = 2
`+"```"+`
`)

	output, err := run(t, "", []string{"--book", passing})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, output, "PASS add", "1 passed, 0 failed")

	failing := writeFile(t, dir, "bad.md", `## Program: wrong
`+"```paul"+`
var x = 1 + 1;
`+"```"+`
`+"```memory"+`
x = 3
`+"```"+`
`)

	output, err = run(t, "", []string{"--book", failing})
	if err == nil || err.Error() != "1 of 1 programs failed" {
		t.Errorf("expected failure summary error, got %v", err)
	}
	assertContains(t, output, "FAIL wrong (line 3)", "x = 2, want 3", "0 passed, 1 failed")
}

func TestRun_BookErrors(t *testing.T) {
	dir := t.TempDir()
	invalid := writeFile(t, dir, "invalid.md", "```paul\nvar x = 1;\n```\n")

	_, err := run(t, "", []string{"--book", invalid})
	if err == nil || !strings.Contains(err.Error(), "fence outside of a program") {
		t.Errorf("expected book parse error, got %v", err)
	}

	_, err = run(t, "", []string{"--book", filepath.Join(dir, "missing.md")})
	if err == nil || !strings.Contains(err.Error(), "failed to read book") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestRun_Step(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "s.paul", "var s = 1;")

	var gotTitle string
	var gotProgram opcode.Program
	stepper := func(title string, program opcode.Program, in io.Reader, out io.Writer, opts ...vm.Option) error {
		gotTitle = title
		gotProgram = program
		return nil
	}

	_, err := run(t, "", []string{"--step", path}, WithStepper(stepper))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTitle != "s.paul" {
		t.Errorf("title = %q, want s.paul", gotTitle)
	}
	want, _ := compiler.Compile("var s = 1;")
	if !gotProgram.Equal(want) {
		t.Errorf("program = %v, want %v", gotProgram, want)
	}
}

func TestRun_StepCompileError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "s.paul", "var = 1;")

	called := false
	stepper := func(string, opcode.Program, io.Reader, io.Writer, ...vm.Option) error {
		called = true
		return nil
	}

	_, err := run(t, "", []string{"--step", path}, WithStepper(stepper))
	if err == nil {
		t.Fatal("expected compile error")
	}
	if called {
		t.Error("debugger should not start when compilation fails")
	}
}
