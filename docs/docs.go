// Package docs extracts documentation chunks from a project: markdown,
// reStructuredText and plain-text files split into heading-delimited
// sections suitable for embedding.
package docs

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/codescout-dev/codescout/language"
)

// Chunk is one embeddable piece of documentation.
type Chunk struct {
	File    string `json:"file"` // relative to the project root
	Title   string `json:"title"`
	Level   int    `json:"level"` // heading level, 0 for whole-file chunks
	Line    int    `json:"line"`
	Content string `json:"content"`
}

// maxChunkRunes bounds a single chunk; oversized sections are split on
// paragraph boundaries.
const maxChunkRunes = 4000

// maxDocFileSize bounds how large a documentation file the scanner reads.
const maxDocFileSize = 1 << 20

var headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// Scanner walks a project tree for documentation files.
type Scanner struct{}

func NewScanner() *Scanner {
	return &Scanner{}
}

// Scan collects documentation chunks for the project at root. It never
// fails: unreadable files are skipped and an empty project yields an
// empty slice.
func (s *Scanner) Scan(ctx context.Context, root string) ([]Chunk, error) {
	chunks := []Chunk{}
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
			return nil
		}

		if !language.IsDocFile(path) {
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}
		if info, infoErr := d.Info(); infoErr != nil || info.Size() > maxDocFileSize {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}

		chunks = append(chunks, chunkFile(rel, string(content))...)
		return nil
	})

	return chunks, nil
}

// chunkFile splits one documentation file into chunks. Markdown files are
// split by heading; everything else becomes whole-file chunks.
func chunkFile(relPath, content string) []Chunk {
	ext := strings.ToLower(filepath.Ext(relPath))
	if ext == ".md" || ext == ".markdown" {
		return chunkMarkdown(relPath, content)
	}

	title := filepath.Base(relPath)
	var out []Chunk
	for _, part := range splitOversized(strings.TrimSpace(content)) {
		if part == "" {
			continue
		}
		out = append(out, Chunk{File: relPath, Title: title, Level: 0, Line: 1, Content: part})
	}
	return out
}

// chunkMarkdown splits markdown by its headings. Content before the
// first heading becomes a preamble chunk titled after the file.
func chunkMarkdown(relPath, content string) []Chunk {
	var out []Chunk

	title := filepath.Base(relPath)
	level := 0
	startLine := 1
	var body []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if text == "" && level == 0 {
			// An empty preamble is noise, a heading with no body is not:
			// the title itself can still match a query.
			body = nil
			return
		}
		for _, part := range splitOversized(text) {
			out = append(out, Chunk{
				File:    relPath,
				Title:   title,
				Level:   level,
				Line:    startLine,
				Content: part,
			})
		}
		body = nil
	}

	for i, line := range strings.Split(content, "\n") {
		m := headingPattern.FindStringSubmatch(line)
		if m == nil {
			body = append(body, line)
			continue
		}
		flush()
		level = len(m[1])
		title = strings.TrimSpace(m[2])
		startLine = i + 1
	}
	flush()

	return out
}

// splitOversized breaks text into pieces no larger than maxChunkRunes,
// preferring paragraph boundaries.
func splitOversized(text string) []string {
	if text == "" {
		return []string{""}
	}
	if len([]rune(text)) <= maxChunkRunes {
		return []string{text}
	}

	var out []string
	var current strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		if current.Len() > 0 && len([]rune(current.String()))+len([]rune(para)) > maxChunkRunes {
			out = append(out, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	if strings.TrimSpace(current.String()) != "" {
		out = append(out, strings.TrimSpace(current.String()))
	}
	return out
}
