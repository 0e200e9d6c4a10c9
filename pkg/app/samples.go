package app

import (
	"io/fs"
	"os"

	"github.com/zurustar/paul/pkg/fileutil"
	"github.com/zurustar/paul/pkg/script"
)

// SamplesDir is the directory holding the sample programs, both inside the
// embedded file system and relative to the working directory.
const SamplesDir = "samples"

// SampleLocation is where the sample programs were found.
type SampleLocation struct {
	FileSystem fs.FS
	Dir        string
	IsEmbedded bool
}

// findSamples searches for sample programs in the following order:
// 1. the embedded samples directory
// 2. the samples directory under the working directory
//
// A directory only counts if it holds at least one script.
func findSamples(embedded fs.FS) *SampleLocation {
	if embedded != nil && hasScripts(embedded, SamplesDir) {
		return &SampleLocation{FileSystem: embedded, Dir: SamplesDir, IsEmbedded: true}
	}

	if info, err := os.Stat(SamplesDir); err == nil && info.IsDir() {
		external := os.DirFS(SamplesDir)
		if hasScripts(external, ".") {
			return &SampleLocation{FileSystem: external, Dir: ".", IsEmbedded: false}
		}
	}

	return nil
}

func hasScripts(fsys fs.FS, dir string) bool {
	files, err := fileutil.ListFiles(fsys, dir, script.SourceExt, script.ListingExt)
	return err == nil && len(files) > 0
}
