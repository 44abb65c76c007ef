//go:build !treesitter

package analyzer

import "github.com/codescout-dev/codescout/language"

// newAnalyzer returns the fast regex analyzer. Build with -tags
// treesitter for AST-precise extraction.
func newAnalyzer(lang language.Language) Analyzer {
	a := newPatternAnalyzer(lang)
	if a == nil {
		return nil
	}
	return a
}
