package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// setupGitRepo initializes a git repo in the given directory with one commit.
func setupGitRepo(t *testing.T, path string) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	cmd := exec.Command("git", "init", path)
	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to init git repo: %v", err)
	}

	configEmail := exec.Command("git", "-C", path, "config", "user.email", "test@test.com")
	if err := configEmail.Run(); err != nil {
		t.Fatalf("failed to set git user.email: %v", err)
	}
	configName := exec.Command("git", "-C", path, "config", "user.name", "Test")
	if err := configName.Run(); err != nil {
		t.Fatalf("failed to set git user.name: %v", err)
	}

	commit := exec.Command("git", "-C", path, "commit", "--allow-empty", "-m", "initial")
	if err := commit.Run(); err != nil {
		t.Fatalf("failed to create initial commit: %v", err)
	}
}

func TestInfo(t *testing.T) {
	repo := t.TempDir()
	setupGitRepo(t, repo)

	info, err := Info(repo)
	if err != nil {
		t.Fatalf("Info() failed: %v", err)
	}

	if filepath.Clean(info.Root) != filepath.Clean(repo) {
		// macOS resolves /var to /private/var; compare resolved paths.
		resolvedRepo, _ := filepath.EvalSymlinks(repo)
		if filepath.Clean(info.Root) != filepath.Clean(resolvedRepo) {
			t.Errorf("Root = %q, want %q", info.Root, repo)
		}
	}
	if info.Branch == "" {
		t.Error("Branch should not be empty")
	}
	if info.Remote != "" {
		t.Errorf("Remote = %q, want empty for repo without origin", info.Remote)
	}
	if info.Dirty {
		t.Error("Dirty should be false for a clean tree")
	}
}

func TestInfo_Dirty(t *testing.T) {
	repo := t.TempDir()
	setupGitRepo(t, repo)

	if err := os.WriteFile(filepath.Join(repo, "new.txt"), []byte("x\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	info, err := Info(repo)
	if err != nil {
		t.Fatalf("Info() failed: %v", err)
	}
	if !info.Dirty {
		t.Error("Dirty should be true with an untracked file")
	}
}

func TestInfo_Remote(t *testing.T) {
	repo := t.TempDir()
	setupGitRepo(t, repo)

	add := exec.Command("git", "-C", repo, "remote", "add", "origin", "https://example.com/repo.git")
	if err := add.Run(); err != nil {
		t.Fatalf("failed to add remote: %v", err)
	}

	info, err := Info(repo)
	if err != nil {
		t.Fatalf("Info() failed: %v", err)
	}
	if info.Remote != "https://example.com/repo.git" {
		t.Errorf("Remote = %q, want the configured origin URL", info.Remote)
	}
}

func TestInfo_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	if _, err := Info(t.TempDir()); err == nil {
		t.Fatal("Info() should fail outside a repository")
	}
}

func TestIsRepo(t *testing.T) {
	repo := t.TempDir()
	setupGitRepo(t, repo)

	if !IsRepo(repo) {
		t.Error("IsRepo() should be true for a git repository")
	}
	if IsRepo(t.TempDir()) {
		t.Error("IsRepo() should be false for a plain directory")
	}
}
