//go:build treesitter

package analyzer

import (
	"context"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/codescout-dev/codescout/language"
)

// nodeKinds maps tree-sitter declaration node types to symbol kinds, per
// language.
var nodeKinds = map[language.Language]map[string]string{
	language.Go: {
		"function_declaration": "function",
		"method_declaration":   "method",
		"type_spec":            "type",
	},
	language.Python: {
		"function_definition": "function",
		"class_definition":    "class",
	},
	language.JavaScript: {
		"function_declaration": "function",
		"class_declaration":    "class",
		"method_definition":    "method",
	},
	language.TypeScript: {
		"function_declaration":   "function",
		"class_declaration":      "class",
		"method_definition":      "method",
		"interface_declaration":  "interface",
		"type_alias_declaration": "type",
	},
	language.Rust: {
		"function_item": "function",
		"struct_item":   "struct",
		"enum_item":     "type",
		"trait_item":    "interface",
	},
	language.Ruby: {
		"method": "method",
		"class":  "class",
		"module": "module",
	},
	language.PHP: {
		"function_definition": "function",
		"class_declaration":   "class",
		"method_declaration":  "method",
	},
}

func grammarFor(lang language.Language) *sitter.Language {
	switch lang {
	case language.Go:
		return golang.GetLanguage()
	case language.Python:
		return python.GetLanguage()
	case language.JavaScript:
		return javascript.GetLanguage()
	case language.TypeScript:
		return typescript.GetLanguage()
	case language.Rust:
		return rust.GetLanguage()
	case language.Ruby:
		return ruby.GetLanguage()
	case language.PHP:
		return php.GetLanguage()
	default:
		return nil
	}
}

// treeSitterAnalyzer is the precise extraction path: full AST parsing via
// tree-sitter. Test extraction still uses the regex analyzer, whose
// conventions (file names, attributes) are not part of any grammar.
type treeSitterAnalyzer struct {
	lang     language.Language
	parser   *sitter.Parser
	kinds    map[string]string
	fallback *patternAnalyzer
}

func newTreeSitterAnalyzer(lang language.Language, fallback *patternAnalyzer) Analyzer {
	grammar := grammarFor(lang)
	kinds := nodeKinds[lang]
	if grammar == nil || kinds == nil {
		return nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(grammar)

	return &treeSitterAnalyzer{
		lang:     lang,
		parser:   parser,
		kinds:    kinds,
		fallback: fallback,
	}
}

func (a *treeSitterAnalyzer) Language() language.Language { return a.lang }

func (a *treeSitterAnalyzer) FindSymbols(ctx context.Context, root string) ([]Symbol, error) {
	symbols := []Symbol{}

	walkSourceFiles(ctx, root, a.fallback.extensions, func(relPath, absPath string) {
		content, err := os.ReadFile(absPath)
		if err != nil {
			return
		}

		tree, err := a.parser.ParseCtx(ctx, nil, content)
		if err != nil || tree == nil {
			return
		}
		defer tree.Close()

		var visit func(n *sitter.Node)
		visit = func(n *sitter.Node) {
			if kind, ok := a.kinds[n.Type()]; ok {
				if name := nodeName(n, content); name != "" {
					symbols = append(symbols, Symbol{
						Name:      name,
						Kind:      kind,
						File:      relPath,
						Line:      int(n.StartPoint().Row) + 1,
						Signature: firstLine(n.Content(content)),
					})
				}
			}
			for i := 0; i < int(n.NamedChildCount()); i++ {
				visit(n.NamedChild(i))
			}
		}
		visit(tree.RootNode())
	})

	return symbols, nil
}

func (a *treeSitterAnalyzer) FindTests(ctx context.Context, root string) ([]Test, error) {
	return a.fallback.FindTests(ctx, root)
}

func nodeName(n *sitter.Node, content []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Content(content)
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return trimSignature(s)
}
