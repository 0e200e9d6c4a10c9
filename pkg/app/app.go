package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zurustar/paul/pkg/book"
	"github.com/zurustar/paul/pkg/cli"
	"github.com/zurustar/paul/pkg/compiler"
	"github.com/zurustar/paul/pkg/compiler/ast"
	"github.com/zurustar/paul/pkg/compiler/codegen"
	"github.com/zurustar/paul/pkg/debugger"
	"github.com/zurustar/paul/pkg/logger"
	"github.com/zurustar/paul/pkg/opcode"
	"github.com/zurustar/paul/pkg/script"
	"github.com/zurustar/paul/pkg/vm"
)

var (
	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	phaseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// StepFunc runs the interactive debugger on one program.
type StepFunc func(title string, program opcode.Program, in io.Reader, out io.Writer, opts ...vm.Option) error

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config  *cli.Config
	log     *slog.Logger
	in      *bufio.Reader
	rawIn   io.Reader
	out     io.Writer
	samples fs.FS
	step    StepFunc
}

// Option はApplicationの設定を変更する
type Option func(*Application)

// WithSamples 引数なしで実行したときのサンプルプログラムを含むファイルシステムを指定
func WithSamples(fsys fs.FS) Option {
	return func(app *Application) {
		app.samples = fsys
	}
}

// WithStepper ステップ実行に使うデバッガを差し替える
func WithStepper(step StepFunc) Option {
	return func(app *Application) {
		if step != nil {
			app.step = step
		}
	}
}

// New Applicationを作成
// in は --pause とデバッガのキー入力、out はプログラムの出力先
func New(in io.Reader, out io.Writer, opts ...Option) *Application {
	app := &Application{
		in:    bufio.NewReader(in),
		rawIn: in,
		out:   out,
		step:  debugger.Run,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp(app.out)
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("Application started", "mode", app.config.Mode)

	// 3. モードごとの実行
	var err error
	switch app.config.Mode {
	case cli.ModeBook:
		err = app.runBook(app.config.Book)
	case cli.ModeStep:
		err = app.runStep(app.config.Paths[0])
	case cli.ModeSamples:
		err = app.runSamples()
	default:
		err = app.runPaths(app.config.Paths)
	}
	if err != nil {
		return err
	}

	app.log.Info("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// vmOptions 設定からVMのオプションを組み立てる
func (app *Application) vmOptions() []vm.Option {
	return []vm.Option{
		vm.WithLogger(app.log),
		vm.WithMaxSteps(app.config.MaxSteps),
	}
}

func (app *Application) newLoader() (*script.Loader, error) {
	loader, err := script.NewLoader(app.config.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to create loader: %w", err)
	}
	return loader, nil
}

// loadScripts ファイルとディレクトリを指定順に読み込む
func (app *Application) loadScripts(paths []string) ([]script.Script, error) {
	loader, err := app.newLoader()
	if err != nil {
		return nil, err
	}

	var scripts []script.Script
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to load scripts: %w", err)
		}
		if info.IsDir() {
			dirScripts, err := loader.LoadDir(p)
			if err != nil {
				return nil, fmt.Errorf("failed to load scripts: %w", err)
			}
			scripts = append(scripts, dirScripts...)
			continue
		}
		s, err := loader.Load(p)
		if err != nil {
			return nil, fmt.Errorf("failed to load scripts: %w", err)
		}
		scripts = append(scripts, *s)
	}

	app.log.Info("Scripts loaded", "count", len(scripts), "encoding", loader.Encoding())
	for _, s := range scripts {
		app.log.Debug("Script file", "name", s.FileName, "size", s.Size, "kind", s.Kind)
	}
	return scripts, nil
}

func (app *Application) runPaths(paths []string) error {
	scripts, err := app.loadScripts(paths)
	if err != nil {
		return err
	}
	return app.runScripts(scripts)
}

// runSamples 組み込みまたはカレントディレクトリのサンプルを順に実行する
func (app *Application) runSamples() error {
	location := findSamples(app.samples)
	if location == nil {
		return errors.New("no scripts given and no sample programs found (see --help)")
	}
	app.log.Info("Running samples", "dir", location.Dir, "embedded", location.IsEmbedded)

	loader, err := app.newLoader()
	if err != nil {
		return err
	}
	scripts, err := loader.LoadFS(location.FileSystem, location.Dir)
	if err != nil {
		return fmt.Errorf("failed to load samples: %w", err)
	}
	return app.runScripts(scripts)
}

// runScripts 各スクリプトを順にコンパイルして実行する。最初のエラーで中断する
func (app *Application) runScripts(scripts []script.Script) error {
	for i, s := range scripts {
		if err := app.runScript(s); err != nil {
			return err
		}
		if i < len(scripts)-1 {
			app.pause("next file")
		}
	}
	return nil
}

func (app *Application) runScript(s script.Script) error {
	fmt.Fprintln(app.out, fileStyle.Render("=== "+s.FileName+" ==="))

	artifacts, err := compiler.CompileScriptArtifacts(s, codegen.WithLogger(app.log))
	if err != nil {
		app.log.Error("Compilation failed", "file", s.FileName, "error", err)
		return err
	}
	app.log.Info("Script compiled", "file", s.FileName, "instructions", len(artifacts.Program))

	app.emitArtifacts(s, artifacts)

	result, err := vm.Execute(artifacts.Program, app.vmOptions()...)
	if err != nil {
		return fmt.Errorf("%s: %w", s.FileName, err)
	}
	app.printResult(result)
	return nil
}

// emitArtifacts 要求された中間成果物を表示する
func (app *Application) emitArtifacts(s script.Script, a *compiler.Artifacts) {
	if s.Kind == script.Listing {
		for _, kind := range []string{cli.EmitTokens, cli.EmitAST, cli.EmitSymbols} {
			if app.config.Emits(kind) {
				app.log.Warn("Artifact not available for listings", "file", s.FileName, "emit", kind)
			}
		}
	}

	if app.config.Emits(cli.EmitTokens) && a.Tokens != nil {
		app.section("tokens")
		for _, tok := range a.Tokens {
			fmt.Fprintln(app.out, tok.String())
		}
		app.pause("tokens")
	}
	if app.config.Emits(cli.EmitAST) && a.AST != nil {
		app.section("ast")
		fmt.Fprint(app.out, ast.Dump(a.AST))
		app.pause("ast")
	}
	if app.config.Emits(cli.EmitAsm) {
		app.section("instructions")
		fmt.Fprint(app.out, opcode.Format(a.Program))
		app.pause("instructions")
	}
	if app.config.Emits(cli.EmitSymbols) && a.Symbols != nil {
		app.section("symbols")
		fmt.Fprintln(app.out, a.Symbols.String())
		app.pause("symbols")
	}
}

func (app *Application) section(name string) {
	fmt.Fprintln(app.out, phaseStyle.Render("--- "+name+" ---"))
}

// printResult 最終的なスタックとメモリを表示する
func (app *Application) printResult(result *vm.Result) {
	app.section(fmt.Sprintf("result (%d steps)", result.Steps))
	fmt.Fprintf(app.out, "stack: %v\n", result.Stack)
	fmt.Fprintln(app.out, "memory:")
	if len(result.Memory) == 0 {
		fmt.Fprintln(app.out, mutedStyle.Render("  (empty)"))
	}
	for _, name := range slices.Sorted(maps.Keys(result.Memory)) {
		fmt.Fprintf(app.out, "  %s = %d\n", name, result.Memory[name])
	}
}

// pause --pause 指定時にENTERを待つ。入力が終わっていれば待たない
func (app *Application) pause(after string) {
	if !app.config.Pause {
		return
	}
	fmt.Fprint(app.out, mutedStyle.Render("[press ENTER to continue]"))
	if _, err := app.in.ReadString('\n'); err != nil {
		fmt.Fprintln(app.out)
		app.log.Debug("Pause skipped", "after", after, "error", err)
	}
}

// runBook Markdownのサンプル集を実行して結果を表示する
func (app *Application) runBook(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read book: %w", err)
	}
	cases, err := book.Parse(string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	app.log.Info("Book loaded", "path", path, "programs", len(cases))

	failed := 0
	for _, out := range book.RunAll(cases, app.vmOptions()...) {
		if out.Passed() {
			fmt.Fprintf(app.out, "%s %s\n", passStyle.Render("PASS"), out.Case.Name)
			continue
		}
		failed++
		fmt.Fprintf(app.out, "%s %s (line %d)\n", failStyle.Render("FAIL"), out.Case.Name, out.Case.Line)
		for _, f := range out.Failures {
			fmt.Fprintln(app.out, "     "+strings.ReplaceAll(f, "\n", "\n     "))
		}
	}
	fmt.Fprintf(app.out, "%d passed, %d failed\n", len(cases)-failed, failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d programs failed", failed, len(cases))
	}
	return nil
}

// runStep 1つのスクリプトをステップデバッガで実行する
func (app *Application) runStep(path string) error {
	loader, err := app.newLoader()
	if err != nil {
		return err
	}
	s, err := loader.Load(path)
	if err != nil {
		return err
	}
	program, err := compiler.CompileScript(*s)
	if err != nil {
		return err
	}
	app.log.Info("Starting debugger", "file", s.FileName, "instructions", len(program))

	return app.step(s.FileName, program, app.rawIn, app.out, vm.WithMaxSteps(app.config.MaxSteps))
}
