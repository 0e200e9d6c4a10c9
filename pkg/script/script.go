package script

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/zurustar/paul/pkg/fileutil"
)

// 拡張子
const (
	SourceExt  = ".paul"
	ListingExt = ".pasm"
)

// Kind はファイルの種類
type Kind int

const (
	// Source はコンパイルが必要なソースファイル (.paul)
	Source Kind = iota
	// Listing はそのまま実行できる命令リスト (.pasm)
	Listing
)

func (k Kind) String() string {
	if k == Listing {
		return "listing"
	}
	return "source"
}

// Script はスクリプトファイルを表す
type Script struct {
	FileName string // ファイル名
	Path     string // 読み込んだパス
	Content  string // UTF-8に変換された内容
	Size     int64  // ファイルサイズ
	Kind     Kind
}

// Loader はスクリプトファイルの読み込みを行う
type Loader struct {
	encodingName string
	enc          encoding.Encoding
}

// NewLoader Loaderを作成
// encodingName は WHATWG のエンコーディング名 (utf-8, shift_jis, utf-16le など)。
// 空文字列は utf-8 として扱う。
func NewLoader(encodingName string) (*Loader, error) {
	if encodingName == "" {
		encodingName = "utf-8"
	}
	enc, err := htmlindex.Get(encodingName)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", encodingName, err)
	}
	name, _ := htmlindex.Name(enc)
	if name == "utf-8" {
		// BOMを除去する
		enc = unicode.UTF8BOM
	}
	return &Loader{encodingName: name, enc: enc}, nil
}

// Encoding 正規化されたエンコーディング名を返す
func (l *Loader) Encoding() string {
	return l.encodingName
}

// Load 単一のファイルを読み込む
func (l *Loader) Load(filePath string) (*Script, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	return l.newScript(filepath.Base(filePath), filePath, data)
}

// LoadDir ディレクトリ直下の .paul / .pasm ファイルを名前順にすべて読み込む
func (l *Loader) LoadDir(dir string) ([]Script, error) {
	scripts, err := l.LoadFS(os.DirFS(dir), ".")
	if err != nil {
		return nil, err
	}
	for i := range scripts {
		scripts[i].Path = filepath.Join(dir, filepath.FromSlash(scripts[i].Path))
	}
	return scripts, nil
}

// LoadFS fs.FS (埋め込みファイルシステムなど) の dir 直下のスクリプトを読み込む
func (l *Loader) LoadFS(fsys fs.FS, dir string) ([]Script, error) {
	files, err := fileutil.ListFiles(fsys, dir, SourceExt, ListingExt)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s or %s files found in %s", SourceExt, ListingExt, dir)
	}

	scripts := make([]Script, 0, len(files))
	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		s, err := l.newScript(path.Base(file), file, data)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, *s)
	}
	return scripts, nil
}

// LoadByName 名前でファイルを探して読み込む (大文字小文字を無視)
// 拡張子が省略された場合は .paul を補う。
func (l *Loader) LoadByName(dir, name string) (*Script, error) {
	if path.Ext(name) == "" {
		name += SourceExt
	}
	found, err := fileutil.FindFile(os.DirFS(dir), ".", name)
	if err != nil {
		return nil, err
	}
	return l.Load(filepath.Join(dir, filepath.FromSlash(found)))
}

func (l *Loader) newScript(fileName, filePath string, data []byte) (*Script, error) {
	content, err := l.decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s as %s: %w", filePath, l.encodingName, err)
	}

	kind := Source
	if fileutil.HasExt(fileName, ListingExt) {
		kind = Listing
	}
	return &Script{
		FileName: fileName,
		Path:     filePath,
		Content:  content,
		Size:     int64(len(data)),
		Kind:     kind,
	}, nil
}

// decode 設定されたエンコーディングからUTF-8に変換
func (l *Loader) decode(data []byte) (string, error) {
	reader := transform.NewReader(bytes.NewReader(data), l.enc.NewDecoder())
	utf8Data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(utf8Data), nil
}
