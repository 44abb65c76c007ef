package analyzer

import (
	"regexp"
	"strings"

	"github.com/codescout-dev/codescout/language"
)

func newPatternAnalyzer(lang language.Language) *patternAnalyzer {
	switch lang {
	case language.Go:
		return goAnalyzer()
	case language.Python:
		return pythonAnalyzer()
	case language.JavaScript:
		return javascriptAnalyzer()
	case language.TypeScript:
		return typescriptAnalyzer()
	case language.Rust:
		return rustAnalyzer()
	case language.Java:
		return javaAnalyzer()
	case language.Ruby:
		return rubyAnalyzer()
	case language.PHP:
		return phpAnalyzer()
	default:
		return nil
	}
}

func exts(lang language.Language) []string {
	return language.Extensions(lang)
}

func goAnalyzer() *patternAnalyzer {
	return &patternAnalyzer{
		lang:       language.Go,
		extensions: exts(language.Go),
		framework:  "go test",
		symbols: []symbolPattern{
			{re: regexp.MustCompile(`^func\s+\([^)]+\)\s+(\w+)\s*\(`), kind: "method"},
			{re: regexp.MustCompile(`^func\s+(\w+)\s*[\(\[]`), kind: "function"},
			{re: regexp.MustCompile(`^type\s+(\w+)\s+struct\b`), kind: "struct"},
			{re: regexp.MustCompile(`^type\s+(\w+)\s+interface\b`), kind: "interface"},
			{re: regexp.MustCompile(`^type\s+(\w+)\s+`), kind: "type"},
		},
		tests: []testPattern{
			{re: regexp.MustCompile(`^func\s+(Test\w+)\s*\(`), kind: "test"},
			{re: regexp.MustCompile(`^func\s+(Benchmark\w+)\s*\(`), kind: "benchmark"},
			{re: regexp.MustCompile(`^func\s+(Fuzz\w+)\s*\(`), kind: "test"},
		},
		isTestFile: func(relPath string) bool {
			return strings.HasSuffix(relPath, "_test.go")
		},
	}
}

func pythonAnalyzer() *patternAnalyzer {
	return &patternAnalyzer{
		lang:       language.Python,
		extensions: exts(language.Python),
		framework:  "pytest",
		symbols: []symbolPattern{
			{re: regexp.MustCompile(`^class\s+(\w+)`), kind: "class"},
			{re: regexp.MustCompile(`^(?:async\s+)?def\s+(\w+)\s*\(`), kind: "function"},
			{re: regexp.MustCompile(`^\s+(?:async\s+)?def\s+(\w+)\s*\(`), kind: "method"},
		},
		tests: []testPattern{
			{re: regexp.MustCompile(`^\s*(?:async\s+)?def\s+(test_\w+)\s*\(`), kind: "test"},
			{re: regexp.MustCompile(`^class\s+(Test\w+)`), kind: "suite"},
		},
		isTestFile: func(relPath string) bool {
			return hasBasePrefix(relPath, "test_") || hasAnySuffix(relPath, "_test.py")
		},
	}
}

func javascriptAnalyzer() *patternAnalyzer {
	a := scriptAnalyzer(language.JavaScript)
	return a
}

func typescriptAnalyzer() *patternAnalyzer {
	a := scriptAnalyzer(language.TypeScript)
	a.symbols = append(a.symbols,
		symbolPattern{re: regexp.MustCompile(`^\s*(?:export\s+)?interface\s+(\w+)`), kind: "interface"},
		symbolPattern{re: regexp.MustCompile(`^\s*(?:export\s+)?type\s+(\w+)\s*=`), kind: "type"},
	)
	return a
}

// scriptAnalyzer covers the forms shared by JavaScript and TypeScript,
// including jest/mocha style test declarations.
func scriptAnalyzer(lang language.Language) *patternAnalyzer {
	return &patternAnalyzer{
		lang:       lang,
		extensions: exts(lang),
		framework:  "jest",
		symbols: []symbolPattern{
			{re: regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)`), kind: "function"},
			{re: regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+(\w+)`), kind: "class"},
			{re: regexp.MustCompile(`^\s*(?:export\s+)?const\s+(\w+)\s*=\s*(?:async\s*)?\(`), kind: "function"},
		},
		tests: []testPattern{
			{re: regexp.MustCompile(`^\s*(?:it|test)\(\s*['"]([^'"]+)`), kind: "test"},
			{re: regexp.MustCompile(`^\s*describe\(\s*['"]([^'"]+)`), kind: "suite"},
		},
		isTestFile: func(relPath string) bool {
			return strings.Contains(relPath, ".test.") || strings.Contains(relPath, ".spec.") ||
				strings.Contains(relPath, "__tests__")
		},
	}
}

func rustAnalyzer() *patternAnalyzer {
	return &patternAnalyzer{
		lang:       language.Rust,
		extensions: exts(language.Rust),
		framework:  "cargo test",
		symbols: []symbolPattern{
			{re: regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?fn\s+(\w+)`), kind: "function"},
			{re: regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?struct\s+(\w+)`), kind: "struct"},
			{re: regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?enum\s+(\w+)`), kind: "type"},
			{re: regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?trait\s+(\w+)`), kind: "interface"},
		},
		tests: []testPattern{
			{
				re:     regexp.MustCompile(`^\s*(?:async\s+)?fn\s+(\w+)`),
				kind:   "test",
				marker: regexp.MustCompile(`^\s*#\[(?:\w+::)?test\]`),
			},
		},
	}
}

func javaAnalyzer() *patternAnalyzer {
	return &patternAnalyzer{
		lang:       language.Java,
		extensions: exts(language.Java),
		framework:  "junit",
		symbols: []symbolPattern{
			{re: regexp.MustCompile(`^\s*(?:public\s+|private\s+|protected\s+)?(?:abstract\s+|final\s+|static\s+)*(?:class|interface|enum|record)\s+(\w+)`), kind: "class"},
			{re: regexp.MustCompile(`^\s*(?:public|private|protected)\s+(?:static\s+|final\s+|synchronized\s+)*[\w<>\[\],\s]+\s+(\w+)\s*\(`), kind: "method"},
		},
		tests: []testPattern{
			{
				re:     regexp.MustCompile(`^\s*(?:public\s+)?void\s+(\w+)\s*\(`),
				kind:   "test",
				marker: regexp.MustCompile(`^\s*@(?:Test|ParameterizedTest)\b`),
			},
		},
	}
}

func rubyAnalyzer() *patternAnalyzer {
	return &patternAnalyzer{
		lang:       language.Ruby,
		extensions: exts(language.Ruby),
		framework:  "rspec",
		symbols: []symbolPattern{
			{re: regexp.MustCompile(`^\s*class\s+(\w+)`), kind: "class"},
			{re: regexp.MustCompile(`^\s*module\s+(\w+)`), kind: "module"},
			{re: regexp.MustCompile(`^\s*def\s+(?:self\.)?([\w?!]+)`), kind: "method"},
		},
		tests: []testPattern{
			{re: regexp.MustCompile(`^\s*it\s+['"]([^'"]+)`), kind: "test"},
			{re: regexp.MustCompile(`^\s*describe\s+['"]?([\w:]+)`), kind: "suite"},
			{re: regexp.MustCompile(`^\s*def\s+(test_[\w?!]+)`), kind: "test"},
		},
		isTestFile: func(relPath string) bool {
			return hasAnySuffix(relPath, "_spec.rb", "_test.rb") || hasBasePrefix(relPath, "test_")
		},
	}
}

func phpAnalyzer() *patternAnalyzer {
	return &patternAnalyzer{
		lang:       language.PHP,
		extensions: exts(language.PHP),
		framework:  "phpunit",
		symbols: []symbolPattern{
			{re: regexp.MustCompile(`^\s*(?:abstract\s+|final\s+)?class\s+(\w+)`), kind: "class"},
			{re: regexp.MustCompile(`^\s*(?:public\s+|private\s+|protected\s+|static\s+)*function\s+(\w+)\s*\(`), kind: "function"},
		},
		tests: []testPattern{
			{re: regexp.MustCompile(`^\s*(?:public\s+)?function\s+(test\w+)\s*\(`), kind: "test"},
		},
		isTestFile: func(relPath string) bool {
			return hasAnySuffix(relPath, "Test.php")
		},
	}
}
