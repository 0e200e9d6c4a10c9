package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Mode は実行モード
type Mode string

const (
	ModeRun     Mode = "run"     // 指定したファイルを順に実行
	ModeStep    Mode = "step"    // ステップデバッガで1ファイルを実行
	ModeBook    Mode = "book"    // Markdownのサンプル集を検証
	ModeSamples Mode = "samples" // 組み込みサンプルを実行
)

// 出力できる中間成果物
const (
	EmitTokens  = "tokens"
	EmitAST     = "ast"
	EmitAsm     = "asm"
	EmitSymbols = "symbols"
)

var validEmits = map[string]bool{
	EmitTokens:  true,
	EmitAST:     true,
	EmitAsm:     true,
	EmitSymbols: true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	Paths    []string // 実行する .paul / .pasm ファイルまたはディレクトリ
	Emit     []string // 表示する中間成果物（tokens, ast, asm, symbols）
	Mode     Mode     // 実行モード
	LogLevel string   // ログレベル（debug, info, warn, error）
	Encoding string   // ソースファイルのエンコーディング
	MaxSteps int      // 実行命令数の上限（0は無制限）
	Pause    bool     // フェーズごとにENTER待ち
	Step     bool     // ステップデバッガ
	Book     string   // サンプル集のMarkdownファイル
	ShowHelp bool     // ヘルプ表示フラグ
}

// Emits 指定した成果物の表示が要求されているか
func (c *Config) Emits(kind string) bool {
	for _, e := range c.Emit {
		if e == kind {
			return true
		}
	}
	return false
}

// ParseArgs コマンドライン引数を解析してConfigを返す
// コマンドラインフラグは環境変数より優先される
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("paul", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}

	var emit string
	fs.StringVar(&emit, "emit", "", "中間成果物を表示（tokens,ast,asm,symbols）")
	fs.StringVar(&emit, "e", "", "中間成果物を表示（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "warn", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "warn", "ログレベル（短縮形）")
	fs.StringVar(&config.Encoding, "encoding", "utf-8", "ソースファイルのエンコーディング")
	fs.IntVar(&config.MaxSteps, "max-steps", 0, "実行命令数の上限")
	fs.BoolVar(&config.Pause, "pause", false, "フェーズごとにENTER待ち")
	fs.BoolVar(&config.Step, "step", false, "ステップデバッガで実行")
	fs.StringVar(&config.Book, "book", "", "サンプル集のMarkdownファイル")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !set["log-level"] && !set["l"] {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}
	if !set["encoding"] {
		if encodingEnv := os.Getenv("PAUL_ENCODING"); encodingEnv != "" {
			config.Encoding = encodingEnv
		}
	}
	if !set["max-steps"] {
		if stepsEnv := os.Getenv("PAUL_MAX_STEPS"); stepsEnv != "" {
			n, err := strconv.Atoi(stepsEnv)
			if err != nil {
				return nil, fmt.Errorf("invalid PAUL_MAX_STEPS: %q", stepsEnv)
			}
			config.MaxSteps = n
		}
	}

	// ログレベルの検証
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if config.MaxSteps < 0 {
		return nil, fmt.Errorf("max-steps must be non-negative, got %d", config.MaxSteps)
	}

	emits, err := parseEmit(emit)
	if err != nil {
		return nil, err
	}
	config.Emit = emits

	config.Paths = append([]string{}, fs.Args()...)

	// 実行モードの決定
	switch {
	case config.Book != "":
		if config.Step || len(config.Paths) > 0 {
			return nil, fmt.Errorf("--book cannot be combined with --step or script paths")
		}
		config.Mode = ModeBook
	case config.Step:
		if len(config.Paths) != 1 {
			return nil, fmt.Errorf("--step needs exactly one script, got %d", len(config.Paths))
		}
		config.Mode = ModeStep
	case len(config.Paths) == 0:
		config.Mode = ModeSamples
	default:
		config.Mode = ModeRun
	}

	return config, nil
}

// parseEmit カンマ区切りの成果物リストを検証する
func parseEmit(value string) ([]string, error) {
	emits := []string{}
	if value == "" {
		return emits, nil
	}
	for _, part := range strings.Split(value, ",") {
		kind := strings.ToLower(strings.TrimSpace(part))
		if kind == "" {
			continue
		}
		if !validEmits[kind] {
			return nil, fmt.Errorf("invalid emit kind: %s (must be tokens, ast, asm, or symbols)", kind)
		}
		emits = append(emits, kind)
	}
	return emits, nil
}

// booleanFlags は値を取らないフラグ
var booleanFlags = map[string]bool{
	"-h": true, "--h": true, "-help": true, "--help": true,
	"-pause": true, "--pause": true,
	"-step": true, "--step": true,
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string
	terminated := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--" 以降はすべて位置引数
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			terminated = true
			break
		}

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// 次の引数が値である可能性をチェック（-e asm のような場合）
			if strings.Contains(arg, "=") || booleanFlags[arg] {
				continue
			}
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	if terminated {
		flags = append(flags, "--")
	}
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `paul - compiler and stack VM for the paul language

Usage:
  paul [options] [path ...]

Arguments:
  path          .paul ソースファイル、.pasm 命令リスト、またはそれらを含むディレクトリ
                省略した場合は組み込みのサンプルプログラムをすべて実行

Options:
  -e, --emit <kinds>          中間成果物を表示: tokens,ast,asm,symbols（カンマ区切り）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: warn）
  --encoding <name>           ソースのエンコーディング（デフォルト: utf-8。shift_jis, utf-16le など）
  --max-steps <n>             実行命令数の上限（デフォルト: 0 = 無制限）
  --pause                     各フェーズの後でENTERを待つ
  --step                      ステップデバッガで1つのファイルを実行
  --book <file.md>            Markdownのサンプル集を実行して結果を検証
  -h, --help                  このヘルプを表示

Environment Variables:
  LOG_LEVEL=<level>           ログレベル
  PAUL_ENCODING=<name>        ソースのエンコーディング
  PAUL_MAX_STEPS=<n>          実行命令数の上限

Examples:
  paul fib.paul                   ファイルをコンパイルして実行
  paul -e asm,symbols fib.paul    命令リストとシンボル表も表示
  paul examples/                  ディレクトリ内のファイルを順に実行
  paul --pause                    組み込みサンプルを1フェーズずつ実行
  paul --step fib.paul            ステップデバッガで実行
  paul --book programs.md         サンプル集を検証
`)
}
