package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/codescout-dev/codescout/language"
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

func mkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("failed to create dir %s: %v", path, err)
	}
}

func TestClassify_GoProject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/app\n")
	writeFile(t, filepath.Join(dir, "main.go"), "package main\n")

	p, ok := Classify(dir)
	if !ok {
		t.Fatal("expected a project")
	}
	if p.Language != language.Go {
		t.Errorf("Language = %s, want go", p.Language)
	}
	if p.Name != filepath.Base(dir) {
		t.Errorf("Name = %s, want %s", p.Name, filepath.Base(dir))
	}
	if len(p.Indicators) == 0 {
		t.Error("expected indicators")
	}
}

func TestClassify_UppercaseExtensionCounts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "MAIN.PY"), "print('x')\n")
	writeFile(t, filepath.Join(dir, "util.py"), "pass\n")

	p, ok := Classify(dir)
	if !ok {
		t.Fatal("expected a project")
	}
	if p.Language != language.Python {
		t.Errorf("Language = %s, want python", p.Language)
	}
	// Both files contribute to the same score bucket.
	found := false
	for _, ind := range p.Indicators {
		if ind == "2 .py files" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a '2 .py files' indicator, got %v", p.Indicators)
	}
}

func TestClassify_ManifestOutweighsSources(t *testing.T) {
	// One python manifest (weight 10) against nine loose .go files
	// (weight 9): python wins on score. But go is also positive, so the
	// project must classify as mixed.
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), "[project]\n")
	for i := 0; i < 9; i++ {
		writeFile(t, filepath.Join(dir, string(rune('a'+i))+".go"), "package x\n")
	}

	p, ok := Classify(dir)
	if !ok {
		t.Fatal("expected a project")
	}
	if p.Language != language.Mixed {
		t.Errorf("Language = %s, want mixed", p.Language)
	}
}

func TestClassify_SingleLanguageWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Cargo.toml"), "[package]\n")
	writeFile(t, filepath.Join(dir, "main.rs"), "fn main() {}\n")

	p, ok := Classify(dir)
	if !ok {
		t.Fatal("expected a project")
	}
	if p.Language != language.Rust {
		t.Errorf("Language = %s, want rust", p.Language)
	}
}

func TestClassify_MixedEvidence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module x\n")
	writeFile(t, filepath.Join(dir, "package.json"), "{}\n")

	p, ok := Classify(dir)
	if !ok {
		t.Fatal("expected a project")
	}
	if p.Language != language.Mixed {
		t.Errorf("Language = %s, want mixed", p.Language)
	}
}

func TestClassify_NoIndicators(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "notes.txt"), "nothing\n")
	writeFile(t, filepath.Join(dir, "image.png"), "\x89PNG\n")

	if _, ok := Classify(dir); ok {
		t.Fatal("directory without language evidence should not classify")
	}
}

func TestClassify_EmptyDirectory(t *testing.T) {
	if _, ok := Classify(t.TempDir()); ok {
		t.Fatal("empty directory should not classify")
	}
}

func TestClassify_GitAndIDE(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module x\n")
	mkdir(t, filepath.Join(dir, ".git"))
	mkdir(t, filepath.Join(dir, ".idea"))

	p, ok := Classify(dir)
	if !ok {
		t.Fatal("expected a project")
	}
	if !p.HasGit {
		t.Error("HasGit should be true")
	}
	if p.IDE != language.IDEJetBrains {
		t.Errorf("IDE = %s, want jetbrains", p.IDE)
	}
}

func TestClassify_BothIDEMarkers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module x\n")
	mkdir(t, filepath.Join(dir, ".idea"))
	mkdir(t, filepath.Join(dir, ".vscode"))

	p, ok := Classify(dir)
	if !ok {
		t.Fatal("expected a project")
	}
	if p.IDE != language.IDEMultiple {
		t.Errorf("IDE = %s, want multiple", p.IDE)
	}
}

func TestScanExhaustive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "goapp", "go.mod"), "module x\n")
	writeFile(t, filepath.Join(root, "deep", "nested", "pytool", "pyproject.toml"), "[project]\n")
	writeFile(t, filepath.Join(root, "assets", "logo.svg"), "<svg/>\n")
	// Projects inside noise dirs must never surface.
	writeFile(t, filepath.Join(root, "node_modules", "dep", "package.json"), "{}\n")

	s := New([]string{root})
	res, err := s.Scan(context.Background(), ModeExhaustive, 4)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(res.Projects) != 2 {
		t.Fatalf("expected 2 projects, got %d: %+v", len(res.Projects), res.Projects)
	}
	for _, p := range res.Projects {
		if p.Name == "dep" {
			t.Error("project under node_modules should be skipped")
		}
	}
}

func TestScanExhaustive_DepthBound(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "b", "c", "d", "go.mod"), "module x\n")

	s := New([]string{root})
	res, err := s.Scan(context.Background(), ModeExhaustive, 2)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(res.Projects) != 0 {
		t.Fatalf("project beyond max depth should not be found, got %d", len(res.Projects))
	}

	res, err = s.Scan(context.Background(), ModeExhaustive, 4)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(res.Projects) != 1 {
		t.Fatalf("expected 1 project within depth, got %d", len(res.Projects))
	}
}

func TestScanExhaustive_ProjectSubtreeNotRecursed(t *testing.T) {
	// A nested module inside a recognized project belongs to that
	// project, not the registry.
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app", "go.mod"), "module x\n")
	writeFile(t, filepath.Join(root, "app", "tools", "gen", "go.mod"), "module x/gen\n")

	s := New([]string{root})
	res, err := s.Scan(context.Background(), ModeExhaustive, 5)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(res.Projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(res.Projects))
	}
}

func TestScanTargeted(t *testing.T) {
	root := t.TempDir()

	// Marked project: has an IDE directory.
	writeFile(t, filepath.Join(root, "marked", "go.mod"), "module x\n")
	mkdir(t, filepath.Join(root, "marked", ".idea"))

	// Unmarked project: real but invisible to a targeted scan.
	writeFile(t, filepath.Join(root, "unmarked", "go.mod"), "module y\n")

	s := New([]string{root})
	res, err := s.Scan(context.Background(), ModeTargeted, 0)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(res.Projects) != 1 {
		t.Fatalf("expected 1 project from targeted scan, got %d", len(res.Projects))
	}
	if res.Projects[0].Name != "marked" {
		t.Errorf("unexpected project %s", res.Projects[0].Name)
	}
}

func TestScanTargeted_AllRootsUnreadable(t *testing.T) {
	s := New([]string{filepath.Join(t.TempDir(), "missing")})
	if _, err := s.Scan(context.Background(), ModeTargeted, 0); err == nil {
		t.Fatal("targeted scan with no readable roots should error")
	}
}

func TestScan_MissingRootSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app", "go.mod"), "module x\n")
	missing := filepath.Join(t.TempDir(), "gone")

	s := New([]string{root, missing})
	res, err := s.Scan(context.Background(), ModeExhaustive, 3)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(res.Projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(res.Projects))
	}
	if len(res.Skipped) == 0 {
		t.Error("missing root should be recorded as skipped")
	}
}

func TestScan_UnknownMode(t *testing.T) {
	s := New([]string{t.TempDir()})
	if _, err := s.Scan(context.Background(), Mode("bogus"), 0); err == nil {
		t.Fatal("unknown mode should error")
	}
}

func TestScan_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app", "go.mod"), "module x\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New([]string{root})
	res, err := s.Scan(ctx, ModeExhaustive, 3)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(res.Projects) != 0 {
		t.Error("cancelled scan should find nothing")
	}
}
