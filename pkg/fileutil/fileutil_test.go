package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestFindFile(t *testing.T) {
	// Create a temporary directory for testing
	tmpDir := t.TempDir()

	testFiles := []string{
		"TestFile.paul",
		"UPPERCASE.PASM",
		"lowercase.paul",
	}
	for _, filename := range testFiles {
		path := filepath.Join(tmpDir, filename)
		if err := os.WriteFile(path, []byte("x = 1;"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(tmpDir, "subdir.paul"), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	tests := []struct {
		name          string
		searchName    string
		shouldFind    bool
		expectedMatch string
	}{
		{"exact match", "TestFile.paul", true, "TestFile.paul"},
		{"lowercase search for mixed case file", "testfile.paul", true, "TestFile.paul"},
		{"uppercase search for mixed case file", "TESTFILE.PAUL", true, "TestFile.paul"},
		{"mixed case search for uppercase file", "Uppercase.pasm", true, "UPPERCASE.PASM"},
		{"uppercase search for lowercase file", "LOWERCASE.PAUL", true, "lowercase.paul"},
		{"non-existent file", "missing.paul", false, ""},
		{"directories are skipped", "subdir.paul", false, ""},
	}

	fsys := os.DirFS(tmpDir)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := FindFile(fsys, ".", tt.searchName)
			if !tt.shouldFind {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected to find file, got error: %v", err)
			}
			if result != tt.expectedMatch {
				t.Errorf("expected %q, got %q", tt.expectedMatch, result)
			}
		})
	}
}

func TestFindFilePrefersExactMatch(t *testing.T) {
	fsys := fstest.MapFS{
		"lib/A.paul": {Data: []byte("a")},
		"lib/a.paul": {Data: []byte("b")},
	}

	got, err := FindFile(fsys, "lib", "a.paul")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "lib/a.paul" {
		t.Errorf("expected lib/a.paul, got %q", got)
	}
}

func TestFindFileMissingDirectory(t *testing.T) {
	_, err := FindFile(fstest.MapFS{}, "nowhere", "x.paul")
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("missing directory should not be reported as ErrNotFound: %v", err)
	}
}

func TestListFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"b.paul":        {Data: []byte("")},
		"A.PAUL":        {Data: []byte("")},
		"c.pasm":        {Data: []byte("")},
		"notes.txt":     {Data: []byte("")},
		"nested/d.paul": {Data: []byte("")},
	}

	got, err := ListFiles(fsys, ".", ".paul", ".pasm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"A.PAUL", "b.paul", "c.pasm"}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("files[%d] = %q, want %q", i, got[i], expected[i])
		}
	}

	all, err := ListFiles(fsys, ".")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 files without an extension filter, got %v", all)
	}
}

func TestHasExt(t *testing.T) {
	if !HasExt("fib.PAUL", ".paul") {
		t.Error("expected .PAUL to match .paul")
	}
	if HasExt("fib.paul.txt", ".paul") {
		t.Error("only the final extension should count")
	}
	if HasExt("paul", ".paul") {
		t.Error("a bare name has no extension")
	}
}
