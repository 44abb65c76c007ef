// Package scanner discovers source-code projects on disk. It is a
// stateless heuristic classifier: it reads the filesystem and produces
// DiscoveredProject candidates, writing nothing.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/codescout-dev/codescout/language"
	"github.com/codescout-dev/codescout/registry"
)

// Mode selects the discovery strategy.
type Mode string

const (
	// ModeTargeted searches the well-known roots for subdirectories that
	// carry IDE markers and classifies just those. Bounded cost.
	ModeTargeted Mode = "targeted"
	// ModeExhaustive walks each root recursively up to MaxDepth,
	// classifying every directory along the way.
	ModeExhaustive Mode = "exhaustive"
)

// DefaultMaxDepth bounds exhaustive walks when the caller passes 0.
const DefaultMaxDepth = 3

// SkippedPath records a directory the scan could not read. Scans never
// fail on unreadable paths; they accumulate them for diagnostics.
type SkippedPath struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Result is the outcome of one scan.
type Result struct {
	Projects []registry.DiscoveredProject `json:"projects"`
	Skipped  []SkippedPath                `json:"skipped,omitempty"`
}

// Scanner discovers projects under a fixed set of root directories.
type Scanner struct {
	roots []string
}

func New(roots []string) *Scanner {
	return &Scanner{roots: roots}
}

// Scan discovers projects using the given mode. maxDepth bounds
// exhaustive recursion; 0 means DefaultMaxDepth. Targeted scans return an
// error only when no root could be read at all, so callers can fall back
// to an exhaustive scan.
func (s *Scanner) Scan(ctx context.Context, mode Mode, maxDepth int) (*Result, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	switch mode {
	case ModeTargeted:
		return s.scanTargeted(ctx)
	case ModeExhaustive, "":
		return s.scanExhaustive(ctx, maxDepth)
	default:
		return nil, fmt.Errorf("unknown scan mode: %s", mode)
	}
}

func (s *Scanner) scanTargeted(ctx context.Context) (*Result, error) {
	res := &Result{}
	readable := 0

	for _, root := range s.roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entries, err := os.ReadDir(root)
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedPath{Path: root, Reason: err.Error()})
			continue
		}
		readable++

		for _, entry := range entries {
			if !entry.IsDir() || language.NoiseDirs[entry.Name()] {
				continue
			}
			dir := filepath.Join(root, entry.Name())
			if detectIDE(dir) == language.IDENone {
				continue
			}
			if p, ok := Classify(dir); ok {
				res.Projects = append(res.Projects, p)
			}
		}
	}

	if readable == 0 && len(s.roots) > 0 {
		return nil, fmt.Errorf("targeted scan: no readable root among %d configured", len(s.roots))
	}

	dedupe(res)
	return res, nil
}

func (s *Scanner) scanExhaustive(ctx context.Context, maxDepth int) (*Result, error) {
	res := &Result{}
	visited := make(map[string]bool)

	for _, root := range s.roots {
		s.walk(ctx, root, 0, maxDepth, visited, res)
	}

	dedupe(res)
	return res, nil
}

// walk classifies dir first; a recognized project is recorded and its
// subdirectories are not scanned separately. Otherwise it recurses,
// skipping noise directories and anything already visited (symlink and
// cycle protection via canonicalized paths).
func (s *Scanner) walk(ctx context.Context, dir string, depth, maxDepth int, visited map[string]bool, res *Result) {
	if ctx.Err() != nil || depth > maxDepth {
		return
	}

	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		res.Skipped = append(res.Skipped, SkippedPath{Path: dir, Reason: err.Error()})
		return
	}
	if visited[canonical] {
		return
	}
	visited[canonical] = true

	if p, ok := Classify(dir); ok {
		res.Projects = append(res.Projects, p)
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		res.Skipped = append(res.Skipped, SkippedPath{Path: dir, Reason: err.Error()})
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() || language.NoiseDirs[entry.Name()] {
			continue
		}
		s.walk(ctx, filepath.Join(dir, entry.Name()), depth+1, maxDepth, visited, res)
	}
}

// Classify scores a single directory against every known language and
// returns a DiscoveredProject when the evidence supports one.
//
// Scoring: each language-defining manifest present contributes
// ManifestWeight; each source file with a language's extension (in this
// directory only, not recursive) contributes SourceFileWeight. The
// strictly greatest score wins, but positive scores for two or more
// languages classify the directory as mixed regardless of the maximum.
// A directory with all scores zero, or with no collected indicators, is
// not a project.
func Classify(dir string) (registry.DiscoveredProject, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return registry.DiscoveredProject{}, false
	}

	names := make(map[string]bool, len(entries))
	extCounts := make(map[string]int)
	for _, entry := range entries {
		if entry.IsDir() {
			names[entry.Name()] = true
			continue
		}
		names[entry.Name()] = true
		// ForExtension is case-insensitive; the score lookup below keys
		// on the config's lowercase extensions.
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if language.ForExtension(ext) != language.Unknown {
			extCounts[ext]++
		}
	}

	scores := make(map[language.Language]int)
	indicators := make(map[language.Language][]string)

	for _, lang := range language.All() {
		cfg, _ := language.Lookup(lang)
		for _, manifest := range cfg.Manifests {
			if names[manifest] {
				scores[lang] += language.ManifestWeight
				indicators[lang] = append(indicators[lang], manifest)
			}
		}
		for _, ext := range cfg.Extensions {
			if n := extCounts[ext]; n > 0 {
				scores[lang] += n * language.SourceFileWeight
				indicators[lang] = append(indicators[lang], fmt.Sprintf("%d %s files", n, ext))
			}
		}
	}

	var positive []language.Language
	best := language.Unknown
	bestScore := 0
	for _, lang := range language.All() {
		score := scores[lang]
		if score <= 0 {
			continue
		}
		positive = append(positive, lang)
		if score > bestScore {
			best, bestScore = lang, score
		}
	}

	if bestScore == 0 {
		return registry.DiscoveredProject{}, false
	}

	// Multiple active signals override the maximum-score choice.
	primary := best
	if len(positive) >= 2 {
		primary = language.Mixed
	}

	var allIndicators []string
	for _, lang := range positive {
		allIndicators = append(allIndicators, indicators[lang]...)
	}
	if len(allIndicators) == 0 {
		return registry.DiscoveredProject{}, false
	}
	sort.Strings(allIndicators)

	var modTime time.Time
	if info, err := os.Stat(dir); err == nil {
		modTime = info.ModTime()
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}

	return registry.DiscoveredProject{
		Path:       abs,
		Name:       filepath.Base(abs),
		Language:   primary,
		IDE:        detectIDE(dir),
		HasGit:     names[".git"],
		ModTime:    modTime,
		Indicators: allIndicators,
	}, true
}

// detectIDE infers editor affinity from marker directories.
func detectIDE(dir string) language.IDE {
	jetbrains := dirExists(filepath.Join(dir, language.JetBrainsMarker))
	vscode := dirExists(filepath.Join(dir, language.VSCodeMarker))

	switch {
	case jetbrains && vscode:
		return language.IDEMultiple
	case jetbrains:
		return language.IDEJetBrains
	case vscode:
		return language.IDEVSCode
	default:
		return language.IDENone
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// dedupe removes duplicate project paths, keeping the first occurrence.
func dedupe(res *Result) {
	seen := make(map[string]bool, len(res.Projects))
	out := res.Projects[:0]
	for _, p := range res.Projects {
		if seen[p.Path] {
			continue
		}
		seen[p.Path] = true
		out = append(out, p)
	}
	res.Projects = out
	sort.Slice(res.Projects, func(i, j int) bool { return res.Projects[i].Path < res.Projects[j].Path })
}
