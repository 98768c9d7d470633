// Package gitrepo is the Repository facade (C8): the narrow set of Git
// operations the redaction core consumes. It is the only package that
// imports go-git directly, so the rest of the core stays independent of
// any specific Git library.
package gitrepo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"

	gperrors "github.com/empri-devops/git-privacy/internal/errors"
)

// Repository wraps a single opened Git repository.
type Repository struct {
	repo    *git.Repository
	workdir string
	gitDir  string
}

// Open opens the repository rooted at or above path, the way `git`
// discovers a repository from any subdirectory of a worktree.
func Open(path string) (*Repository, error) {
	const op = "gitrepo.Open"

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, gperrors.GitWrap(err, op, "failed to resolve path")
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, gperrors.GitWrap(err, op, "not a git repository")
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, gperrors.GitWrap(err, op, "failed to resolve worktree")
	}
	workdir := wt.Filesystem.Root()

	gitDir, err := resolveGitDir(workdir)
	if err != nil {
		return nil, gperrors.GitWrap(err, op, "failed to resolve git directory")
	}

	return &Repository{repo: repo, workdir: workdir, gitDir: gitDir}, nil
}

// resolveGitDir follows the same ".git is a file for linked worktrees"
// convention Git itself uses.
func resolveGitDir(workdir string) (string, error) {
	p := filepath.Join(workdir, ".git")
	info, err := os.Stat(p)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return p, nil
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(data))
	const prefix = "gitdir: "
	if !strings.HasPrefix(line, prefix) {
		return "", fmt.Errorf("unrecognized .git file format: %q", line)
	}
	target := strings.TrimPrefix(line, prefix)
	if !filepath.IsAbs(target) {
		target = filepath.Join(workdir, target)
	}
	return target, nil
}

// Raw returns the underlying go-git repository, for packages (gitconfig)
// that need lower-level access this facade doesn't wrap.
func (r *Repository) Raw() *git.Repository { return r.repo }

// WorkDir returns the repository's working directory (top-level, not cwd).
func (r *Repository) WorkDir() string { return r.workdir }

// GitDir returns the path to the Git directory (".git" or wherever a
// linked worktree's gitdir file points).
func (r *Repository) GitDir() string { return r.gitDir }

// PrivacyDir returns the directory this module uses under the Git
// directory for its own state (keys, rewrite log): "<gitdir>/privacy".
func (r *Repository) PrivacyDir() string { return filepath.Join(r.gitDir, "privacy") }

// CherryPickInProgress reports whether a cherry-pick or interactive rebase
// sequencer is mid-flight, by checking for CHERRY_PICK_HEAD the way Git
// itself does. Amending HEAD while this is present would corrupt the
// sequencer's bookkeeping.
func (r *Repository) CherryPickInProgress() bool {
	_, err := os.Stat(filepath.Join(r.gitDir, "CHERRY_PICK_HEAD"))
	return err == nil
}

// UserEmail returns the configured user.email (repository config falling
// back to global/system, the way go-git itself resolves it), used by the
// timezone check to find "this identity's" most recent commit.
func (r *Repository) UserEmail() (string, error) {
	const op = "gitrepo.UserEmail"
	cfg, err := r.repo.ConfigScoped(gitconfig.LocalScope)
	if err != nil {
		return "", gperrors.GitWrap(err, op, "failed to read git config")
	}
	return cfg.User.Email, nil
}

// IsClean reports whether the worktree has no staged or unstaged changes.
func (r *Repository) IsClean() (bool, error) {
	const op = "gitrepo.IsClean"
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, gperrors.GitWrap(err, op, "failed to resolve worktree")
	}
	status, err := wt.Status()
	if err != nil {
		return false, gperrors.GitWrap(err, op, "failed to read worktree status")
	}
	return status.IsClean(), nil
}
