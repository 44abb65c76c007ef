// Package git reads repository details for registered projects by
// shelling out to the git binary.
package git

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const commandTimeout = 5 * time.Second

// RepoInfo holds repository details for one project.
type RepoInfo struct {
	Root   string // Worktree root from: git rev-parse --show-toplevel
	Branch string // Current branch, or "HEAD" when detached
	Remote string // URL of the origin remote, empty if none configured
	Dirty  bool   // true when the working tree has uncommitted changes
}

// Info reads repository details for the given path.
// Returns an error if git is not installed or path is not a git repository.
func Info(path string) (*RepoInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	root, err := run(ctx, path, "rev-parse", "--show-toplevel")
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("not a git repository or git command failed: %w (stderr: %s)", err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("failed to execute git command (is git installed?): %w", err)
	}
	root = filepath.Clean(root)

	branch, err := run(ctx, path, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to read current branch: %w", err)
	}

	// Optional: a repo without an origin remote is still a repo.
	remote, _ := run(ctx, path, "remote", "get-url", "origin")

	status, err := run(ctx, path, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to read working tree status: %w", err)
	}

	return &RepoInfo{
		Root:   root,
		Branch: branch,
		Remote: remote,
		Dirty:  status != "",
	}, nil
}

// IsRepo returns true if the given path is within a git repository.
// Returns false on any error (git not installed, not a repo, etc.).
func IsRepo(path string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "-C", path, "rev-parse", "--git-dir")
	err := cmd.Run()
	return err == nil
}

func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
