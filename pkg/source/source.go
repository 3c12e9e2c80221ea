// Package source discovers compiler output files under build directories.
package source

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/stackdepth/pkg/diag"
)

// Matcher selects files by base name.
type Matcher func(name string) bool

// IsStackUsage matches GCC -fstack-usage output.
func IsStackUsage(name string) bool {
	return strings.HasSuffix(name, ".su")
}

// IsCallGraph matches GCC -fdump-ipa-cgraph output, which is named after the
// pass (for example "main.c.000i.cgraph" or "main.c.072i.ipa-cgraph").
func IsCallGraph(name string) bool {
	return strings.Contains(name, ".cgraph") || strings.Contains(name, ".ipa")
}

// Walk returns the regular files under dirs whose base name satisfies match.
// Each directory is walked recursively in lexical order and directories are
// visited in the given order. A path is returned at most once. Missing or
// unreadable roots are skipped with a local warning.
func Walk(dirs []string, match Matcher, w *diag.Warnings) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		switch {
		case err != nil:
			w.Local(dir, 0, "skipping input directory: %v", err)
			continue
		case !info.IsDir():
			w.Local(dir, 0, "skipping input directory: not a directory")
			continue
		}

		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				w.Local(path, 0, "skipping: %v", err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !match(d.Name()) {
				return nil
			}
			clean := filepath.Clean(path)
			if !seen[clean] {
				seen[clean] = true
				out = append(out, clean)
			}
			return nil
		})
		if err != nil {
			w.Local(dir, 0, "walk failed: %v", err)
		}
	}
	return out
}
