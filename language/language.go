// Package language holds the closed set of languages codescout can
// classify, together with the filesystem evidence (manifests, source
// extensions, marker directories) used to recognize them.
package language

import (
	"path/filepath"
	"strings"
)

// Language identifies a primary project language.
type Language string

const (
	Go         Language = "go"
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Rust       Language = "rust"
	Java       Language = "java"
	Ruby       Language = "ruby"
	PHP        Language = "php"

	// Mixed marks a project with positive evidence for more than one
	// language. Unknown is the zero value for unclassifiable directories.
	Mixed   Language = "mixed"
	Unknown Language = "unknown"
)

// IDE identifies editor affinity inferred from marker directories.
type IDE string

const (
	IDENone      IDE = "none"
	IDEJetBrains IDE = "jetbrains"
	IDEVSCode    IDE = "vscode"
	IDEMultiple  IDE = "multiple"
)

// Classification weights. Manifests are strong evidence that a directory
// is the root of a project; loose source files are weak evidence.
const (
	ManifestWeight   = 10
	SourceFileWeight = 1
)

// Config describes the filesystem evidence for one language.
type Config struct {
	Manifests  []string
	Extensions []string
}

var configs = map[Language]Config{
	Go: {
		Manifests:  []string{"go.mod", "go.sum"},
		Extensions: []string{".go"},
	},
	Python: {
		Manifests:  []string{"pyproject.toml", "setup.py", "requirements.txt", "Pipfile"},
		Extensions: []string{".py", ".pyw", ".pyi"},
	},
	JavaScript: {
		Manifests:  []string{"package.json"},
		Extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
	},
	TypeScript: {
		Manifests:  []string{"tsconfig.json"},
		Extensions: []string{".ts", ".tsx"},
	},
	Rust: {
		Manifests:  []string{"Cargo.toml"},
		Extensions: []string{".rs"},
	},
	Java: {
		Manifests:  []string{"pom.xml", "build.gradle", "build.gradle.kts"},
		Extensions: []string{".java"},
	},
	Ruby: {
		Manifests:  []string{"Gemfile"},
		Extensions: []string{".rb"},
	},
	PHP: {
		Manifests:  []string{"composer.json"},
		Extensions: []string{".php"},
	},
}

// extensionIndex maps a lowercase extension to its language.
var extensionIndex = func() map[string]Language {
	idx := make(map[string]Language)
	for lang, cfg := range configs {
		for _, ext := range cfg.Extensions {
			idx[ext] = lang
		}
	}
	return idx
}()

// NoiseDirs are directory names never scanned, watched or analyzed:
// build artifacts, dependency caches and hidden tool state.
var NoiseDirs = map[string]bool{
	".git":          true,
	".hg":           true,
	".svn":          true,
	"node_modules":  true,
	"vendor":        true,
	"__pycache__":   true,
	".venv":         true,
	"venv":          true,
	".tox":          true,
	".pytest_cache": true,
	".mypy_cache":   true,
	"dist":          true,
	"build":         true,
	"target":        true,
	"bin":           true,
	"obj":           true,
	".idea":         true,
	".vscode":       true,
	".zig-cache":    true,
	"zig-out":       true,
	".codescout":    true,
}

// DocExtensions are recognized documentation file extensions.
var DocExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".rst":      true,
	".txt":      true,
}

// IDE marker directories.
const (
	JetBrainsMarker = ".idea"
	VSCodeMarker    = ".vscode"
)

// All returns every concrete language (excluding Mixed and Unknown), in a
// stable order.
func All() []Language {
	return []Language{Go, Python, JavaScript, TypeScript, Rust, Java, Ruby, PHP}
}

// Lookup returns the evidence config for a concrete language.
func Lookup(lang Language) (Config, bool) {
	cfg, ok := configs[lang]
	return cfg, ok
}

// ForExtension maps a file extension (with leading dot, any case) to its
// language. Returns Unknown for unrecognized extensions.
func ForExtension(ext string) Language {
	lang, ok := extensionIndex[strings.ToLower(ext)]
	if !ok {
		return Unknown
	}
	return lang
}

// ForFile maps a file path to a language by its extension.
func ForFile(path string) Language {
	return ForExtension(filepath.Ext(path))
}

// Extensions returns the source extensions for a project language. For
// Mixed it returns the union across all languages; for Unknown, nil.
func Extensions(lang Language) []string {
	if lang == Mixed {
		var all []string
		for _, l := range All() {
			all = append(all, configs[l].Extensions...)
		}
		return all
	}
	cfg, ok := configs[lang]
	if !ok {
		return nil
	}
	return append([]string(nil), cfg.Extensions...)
}

// IsSourceFile reports whether path has a recognized source extension for
// the given project language. Mixed projects accept any supported
// extension.
func IsSourceFile(lang Language, path string) bool {
	fileLang := ForFile(path)
	if fileLang == Unknown {
		return false
	}
	return lang == Mixed || fileLang == lang
}

// IsDocFile reports whether path has a recognized documentation extension.
func IsDocFile(path string) bool {
	return DocExtensions[strings.ToLower(filepath.Ext(path))]
}

// UnderNoiseDir reports whether any element of path is a denylisted
// directory name.
func UnderNoiseDir(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if NoiseDirs[part] {
			return true
		}
	}
	return false
}

// Valid reports whether s names a known language value (including mixed).
func Valid(s string) bool {
	if Language(s) == Mixed || Language(s) == Unknown {
		return true
	}
	_, ok := configs[Language(s)]
	return ok
}
