// Package analyzer extracts symbols and tests from project source trees.
// One analyzer exists per supported language. Analyzers never fail for an
// empty or malformed project: they return whatever they could extract.
package analyzer

import (
	"context"
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/codescout-dev/codescout/language"
)

// Symbol is one extracted code symbol.
type Symbol struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"` // function, method, class, struct, interface, type, module
	File      string `json:"file"` // relative to the project root
	Line      int    `json:"line"`
	Signature string `json:"signature,omitempty"`
}

// Test is one extracted test case or test container.
type Test struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"` // test, benchmark, suite
	File      string `json:"file"`
	Line      int    `json:"line"`
	Framework string `json:"framework"`
}

// Analyzer extracts symbols and tests for one language.
type Analyzer interface {
	Language() language.Language
	FindSymbols(ctx context.Context, root string) ([]Symbol, error)
	FindTests(ctx context.Context, root string) ([]Test, error)
}

// ForLanguage returns the analyzers applicable to a project language.
// Mixed projects get every analyzer; each runs independently so a failure
// in one language cannot affect the others.
func ForLanguage(lang language.Language) []Analyzer {
	if lang == language.Mixed {
		out := make([]Analyzer, 0, len(language.All()))
		for _, l := range language.All() {
			if a := newAnalyzer(l); a != nil {
				out = append(out, a)
			}
		}
		return out
	}

	if a := newAnalyzer(lang); a != nil {
		return []Analyzer{a}
	}
	return nil
}

// maxSourceFileSize bounds how much of a single file the extractors read.
const maxSourceFileSize = 1 << 20

// walkSourceFiles calls fn for every source file under root with one of
// the given extensions, skipping noise directories and paths matched by
// the project's .gitignore. Unreadable entries are skipped silently.
func walkSourceFiles(ctx context.Context, root string, exts []string, fn func(relPath, absPath string)) {
	extSet := make(map[string]bool, len(exts))
	for _, ext := range exts {
		extSet[ext] = true
	}

	matcher, _ := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))

	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}

		if d.IsDir() {
			if rel != "." && language.NoiseDirs[d.Name()] {
				return filepath.SkipDir
			}
			if matcher != nil && rel != "." && matcher.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !extSet[filepath.Ext(path)] {
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}
		if info, infoErr := d.Info(); infoErr != nil || info.Size() > maxSourceFileSize {
			return nil
		}

		fn(rel, path)
		return nil
	})
}
