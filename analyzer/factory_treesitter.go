//go:build treesitter

package analyzer

import "github.com/codescout-dev/codescout/language"

// newAnalyzer returns the tree-sitter analyzer for languages with a
// grammar, falling back to the regex analyzer elsewhere.
func newAnalyzer(lang language.Language) Analyzer {
	fallback := newPatternAnalyzer(lang)
	if fallback == nil {
		return nil
	}
	if ts := newTreeSitterAnalyzer(lang, fallback); ts != nil {
		return ts
	}
	return fallback
}
