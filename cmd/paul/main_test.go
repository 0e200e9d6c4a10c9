package main

import (
	"bytes"
	"io/fs"
	"strings"
	"testing"

	"github.com/zurustar/paul/pkg/app"
)

func TestEmbeddedSamplesRun(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PAUL_ENCODING", "")
	t.Setenv("PAUL_MAX_STEPS", "")

	var out bytes.Buffer
	application := app.New(strings.NewReader(""), &out, app.WithSamples(embeddedSamples))
	if err := application.Run(nil); err != nil {
		t.Fatalf("samples failed: %v\n%s", err, out.String())
	}

	for _, want := range []string{
		"a = 14", "b = 20", "c = 12", "d = 2",
		"big = 1", "three = 0",
		"sum = 55",
		"r = 25",
		"f = 720",
		"g = 12",
		"answer = 42",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestEmbeddedSamplesAreListed(t *testing.T) {
	files, err := fs.Glob(embeddedSamples, "samples/*")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 7 {
		t.Errorf("expected 7 samples, got %d: %v", len(files), files)
	}
}
