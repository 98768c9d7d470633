// Package hooks implements the hook coordinator (C6): the state machine
// distributed across post-commit, pre-commit, pre-push and post-rewrite,
// plus installation of the shell wrapper scripts those hooks run.
// Grounded on original_source/gitprivacy/gitprivacy.py (do_init/copy_hook,
// do_check/check_timezone_changes, log_rewrites) and
// original_source/gitprivacy/cli/pushcheck.py.
package hooks

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"

	gperrors "github.com/empri-devops/git-privacy/internal/errors"
	"github.com/empri-devops/git-privacy/internal/fileutil"
)

//go:embed templates/*
var templates embed.FS

// Names lists the four hooks git-privacy installs, in install order.
var Names = []string{"post-commit", "pre-commit", "post-rewrite", "pre-push"}

const hookPerm = 0o755

// maxHookSize bounds how much of a pre-existing hook script Install will
// read back for comparison; any legitimate hook wrapper is a few lines.
const maxHookSize = 64 * 1024

// Install writes each of Names into <hooksDir>/<name>, refusing to
// overwrite a pre-existing hook that differs from what we'd install, and
// skipping silently (with a report) when an identical hook is already
// there.
//
// Report describes what happened to a single hook, for the CLI to print.
type Report struct {
	Name      string
	Installed bool
	AlreadyOK bool   // an identical hook script was already present
	Conflict  string // non-empty: a different script already exists there
}

// Install copies every hook template into hooksDir (either a repository's
// ".git/hooks" or a global template directory's "hooks" subdirectory).
func Install(hooksDir string) ([]Report, error) {
	const op = "hooks.Install"
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return nil, gperrors.HookWrap(err, op, "failed to create hooks directory")
	}

	reports := make([]Report, 0, len(Names))
	for _, name := range Names {
		want, err := fs.ReadFile(templates, "templates/"+name)
		if err != nil {
			return nil, gperrors.HookWrap(err, op, "missing embedded hook template: "+name)
		}

		path := filepath.Join(hooksDir, name)
		existing, err := fileutil.ReadFileLimited(path, maxHookSize)
		switch {
		case os.IsNotExist(err):
			if err := fileutil.AtomicWriteFile(path, want, hookPerm); err != nil {
				return nil, gperrors.HookWrap(err, op, "failed to write hook: "+name)
			}
			reports = append(reports, Report{Name: name, Installed: true})
		case err != nil:
			return nil, gperrors.HookWrap(err, op, "failed to read existing hook: "+name)
		case string(existing) == string(want):
			reports = append(reports, Report{Name: name, AlreadyOK: true})
		default:
			reports = append(reports, Report{Name: name, Conflict: path})
		}
	}
	return reports, nil
}
