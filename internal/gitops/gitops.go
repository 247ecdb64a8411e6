// Package gitops versions a workspace with the git command line. Every import is a
// commit, so the ledger history can be inspected and reverted with ordinary git tools.
package gitops

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNothingToCommit is returned by Commit when the paths hold no changes.
var ErrNothingToCommit = errors.New("nothing to commit")

// Author identifies who a commit is recorded for.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Init initializes a new git repository at dir.
func Init(dir string) error {
	if out, err := git(dir, Author{}, "init", "--quiet"); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// Commit stages paths (relative to dir; none means everything) and commits them.
// Returns the short commit hash.
func Commit(dir, message string, author Author, paths ...string) (string, error) {
	add := []string{"add", "-A", "--"}
	if len(paths) == 0 {
		add = append(add, ".")
	}
	add = append(add, paths...)
	if out, err := git(dir, author, add...); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	// diff --cached --quiet exits 0 when the index matches HEAD.
	if _, err := git(dir, author, "diff", "--cached", "--quiet"); err == nil && hasHead(dir) {
		return "", ErrNothingToCommit
	}

	if out, err := git(dir, author, "commit", "--quiet", "-m", message, "--author", author.String()); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	out, err := git(dir, author, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

func hasHead(dir string) bool {
	_, err := git(dir, Author{}, "rev-parse", "--verify", "--quiet", "HEAD")
	return err == nil
}

// git runs one git command in dir. The author doubles as committer so commits work
// on machines without a configured git identity.
func git(dir string, author Author, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	if author.Name != "" {
		cmd.Env = append(cmd.Env,
			"GIT_COMMITTER_NAME="+author.Name,
			"GIT_COMMITTER_EMAIL="+author.Email,
		)
	}
	out, err := cmd.CombinedOutput()
	return string(out), err
}
