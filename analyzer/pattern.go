package analyzer

import (
	"bufio"
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/codescout-dev/codescout/language"
)

// symbolPattern matches one symbol form on a single line. The first
// capture group is the symbol name.
type symbolPattern struct {
	re   *regexp.Regexp
	kind string
}

// testPattern matches one test form. When marker is non-nil the pattern
// only fires on a line preceded by a line matching the marker (attribute
// and annotation style frameworks: #[test], @Test).
type testPattern struct {
	re     *regexp.Regexp
	kind   string
	marker *regexp.Regexp
}

// patternAnalyzer is the fast extraction path: line-oriented regular
// expressions over source files. It trades precision for zero toolchain
// dependencies.
type patternAnalyzer struct {
	lang       language.Language
	extensions []string
	symbols    []symbolPattern
	tests      []testPattern
	framework  string
	// isTestFile limits test extraction to conventionally named files.
	// nil means every source file is eligible.
	isTestFile func(relPath string) bool
}

func (a *patternAnalyzer) Language() language.Language { return a.lang }

func (a *patternAnalyzer) FindSymbols(ctx context.Context, root string) ([]Symbol, error) {
	symbols := []Symbol{}

	walkSourceFiles(ctx, root, a.extensions, func(relPath, absPath string) {
		a.scanFile(absPath, func(line string, lineNo int, _ string) {
			for _, p := range a.symbols {
				m := p.re.FindStringSubmatch(line)
				if m == nil {
					continue
				}
				symbols = append(symbols, Symbol{
					Name:      m[1],
					Kind:      p.kind,
					File:      relPath,
					Line:      lineNo,
					Signature: trimSignature(line),
				})
				break
			}
		})
	})

	return symbols, nil
}

func (a *patternAnalyzer) FindTests(ctx context.Context, root string) ([]Test, error) {
	tests := []Test{}

	walkSourceFiles(ctx, root, a.extensions, func(relPath, absPath string) {
		if a.isTestFile != nil && !a.isTestFile(relPath) {
			return
		}
		a.scanFile(absPath, func(line string, lineNo int, prev string) {
			for _, p := range a.tests {
				if p.marker != nil && !p.marker.MatchString(prev) {
					continue
				}
				m := p.re.FindStringSubmatch(line)
				if m == nil {
					continue
				}
				tests = append(tests, Test{
					Name:      m[1],
					Kind:      p.kind,
					File:      relPath,
					Line:      lineNo,
					Framework: a.framework,
				})
				break
			}
		})
	})

	return tests, nil
}

// scanFile feeds every line to fn together with its 1-based number and
// the previous non-blank line. Read errors skip the file; extraction is
// best-effort by contract.
func (a *patternAnalyzer) scanFile(path string, fn func(line string, lineNo int, prev string)) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxSourceFileSize)

	prev := ""
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		fn(line, lineNo, prev)
		if strings.TrimSpace(line) != "" {
			prev = line
		}
	}
}

func trimSignature(line string) string {
	sig := strings.TrimSpace(line)
	sig = strings.TrimSuffix(sig, "{")
	sig = strings.TrimSpace(sig)
	if len(sig) > 200 {
		sig = sig[:200]
	}
	return sig
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func hasBasePrefix(path, prefix string) bool {
	base := path
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		base = path[i+1:]
	}
	return strings.HasPrefix(base, prefix)
}
