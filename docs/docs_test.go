package docs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestChunkMarkdown_SplitsByHeading(t *testing.T) {
	content := `Intro paragraph before any heading.

# Install

Run the installer.

## Linux

Use the package manager.

# Usage

Run the binary.
`
	chunks := chunkMarkdown("README.md", content)

	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d: %+v", len(chunks), chunks)
	}

	// Preamble is titled after the file
	if chunks[0].Title != "README.md" || chunks[0].Level != 0 {
		t.Errorf("preamble = %+v", chunks[0])
	}
	if !strings.Contains(chunks[0].Content, "Intro paragraph") {
		t.Errorf("preamble content = %q", chunks[0].Content)
	}

	if chunks[1].Title != "Install" || chunks[1].Level != 1 {
		t.Errorf("chunk 1 = %+v", chunks[1])
	}
	if chunks[2].Title != "Linux" || chunks[2].Level != 2 {
		t.Errorf("chunk 2 = %+v", chunks[2])
	}
	if chunks[3].Title != "Usage" || chunks[3].Line == 0 {
		t.Errorf("chunk 3 = %+v", chunks[3])
	}
}

func TestChunkMarkdown_NoPreamble(t *testing.T) {
	chunks := chunkMarkdown("doc.md", "# Only\n\nBody.\n")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Title != "Only" {
		t.Errorf("Title = %s", chunks[0].Title)
	}
}

func TestChunkMarkdown_HeadingWithoutBody(t *testing.T) {
	// The title alone can match a query, so an empty section survives.
	chunks := chunkMarkdown("doc.md", "# TODO items\n")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for a bare heading, got %d", len(chunks))
	}
}

func TestChunkFile_PlainText(t *testing.T) {
	chunks := chunkFile("NOTES.txt", "Some notes.\n\nMore notes.\n")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 whole-file chunk, got %d", len(chunks))
	}
	if chunks[0].Title != "NOTES.txt" || chunks[0].Level != 0 {
		t.Errorf("chunk = %+v", chunks[0])
	}
}

func TestSplitOversized(t *testing.T) {
	para := strings.Repeat("word ", 600) // ~3000 runes
	text := para + "\n\n" + para + "\n\n" + para

	parts := splitOversized(text)
	if len(parts) < 2 {
		t.Fatalf("expected oversized text to split, got %d part(s)", len(parts))
	}
	for i, p := range parts {
		if n := len([]rune(p)); n > maxChunkRunes {
			t.Errorf("part %d has %d runes, exceeds limit", i, n)
		}
	}
}

func TestSplitOversized_SmallTextUntouched(t *testing.T) {
	parts := splitOversized("short")
	if len(parts) != 1 || parts[0] != "short" {
		t.Fatalf("parts = %v", parts)
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "README.md"), "# App\n\nAn app.\n")
	writeFile(t, filepath.Join(root, "docs", "guide.md"), "# Guide\n\nSteps.\n")
	writeFile(t, filepath.Join(root, "main.go"), "package main\n")
	// Noise directories are never scanned.
	writeFile(t, filepath.Join(root, "node_modules", "dep", "README.md"), "# Dep\n")

	chunks, err := NewScanner().Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %+v", len(chunks), chunks)
	}
	for _, c := range chunks {
		if filepath.IsAbs(c.File) {
			t.Errorf("chunk file should be relative, got %s", c.File)
		}
		if strings.Contains(c.File, "node_modules") {
			t.Errorf("noise dir leaked: %s", c.File)
		}
	}
}

func TestScan_RespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "generated/\n")
	writeFile(t, filepath.Join(root, "README.md"), "# App\n\nAn app.\n")
	writeFile(t, filepath.Join(root, "generated", "api.md"), "# API\n\nGenerated.\n")

	chunks, err := NewScanner().Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	for _, c := range chunks {
		if strings.Contains(c.File, "generated") {
			t.Errorf("gitignored file leaked: %s", c.File)
		}
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestScan_EmptyProject(t *testing.T) {
	chunks, err := NewScanner().Scan(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}
