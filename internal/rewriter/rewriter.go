// Package rewriter implements the rewriter (C5): the two history-rewrite
// strategies that turn encoded dates/messages into actual commit objects.
// Grounded on original_source/gitprivacy/rewriter/{amendrewriter,
// filterrewriter}.py — go-git's object-writing mechanics are provided by
// internal/gitrepo rather than by shelling out to `git`.
package rewriter

import (
	"os"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/empri-devops/git-privacy/internal/codec"
	gperrors "github.com/empri-devops/git-privacy/internal/errors"
	"github.com/empri-devops/git-privacy/internal/gitrepo"
)

// activeEnvVar is the reentrancy sentinel: the post-commit hook checks for
// it before acting, so the amend this package performs doesn't recurse.
const activeEnvVar = "GITPRIVACY_ACTIVE"

// IsActive reports whether a rewrite is already in flight in this process
// tree — the hook coordinator's reentrancy check.
func IsActive() bool { return os.Getenv(activeEnvVar) == "yes" }

// markActive sets the reentrancy sentinel for the remainder of this
// process's lifetime. There is no unmark: a single invocation performs at
// most one rewrite.
func markActive() { os.Setenv(activeEnvVar, "yes") } //nolint:errcheck

// AmendRewriter redates HEAD in place via Encoder + gitrepo.AmendHead.
// Used from the post-commit hook and from any single-commit CLI path.
type AmendRewriter struct {
	Repo    *gitrepo.Repository
	Encoder codec.Encoder
	Replace bool // write a refs/replace/<old> entry after amending
}

// Rewrite redates HEAD, returning the new commit hash.
func (a *AmendRewriter) Rewrite() (plumbing.Hash, error) {
	const op = "rewriter.AmendRewriter.Rewrite"

	head, err := a.Repo.HeadCommit()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	res, err := a.Encoder.Encode(codec.Commit{
		AuthorDate:    head.AuthorDate,
		CommitterDate: head.CommitterDate,
		Message:       head.Message,
	})
	if err != nil {
		return plumbing.ZeroHash, gperrors.RewriteWrap(err, op, "failed to encode new dates")
	}

	markActive()
	newHash, err := a.Repo.AmendHead(gitrepo.Amendment{
		AuthorDate:    res.AuthorDate,
		CommitterDate: res.CommitterDate,
		Message:       res.Message,
	})
	if err != nil {
		return plumbing.ZeroHash, gperrors.RewriteWrap(err, op, "failed to amend HEAD")
	}

	if a.Replace {
		if err := a.Repo.WriteReplacementRef(head.Hash, newHash, true); err != nil {
			return plumbing.ZeroHash, err
		}
	}
	return newHash, nil
}

// IsUpstream reports whether commit is reachable from any remote-tracking
// branch — the signal a range rewrite uses to refuse clobbering history
// another clone may already have, absent --force.
func IsUpstream(repo *gitrepo.Repository, h plumbing.Hash) (bool, error) {
	branches, err := repo.ContainingRemoteBranches(h)
	if err != nil {
		return false, err
	}
	return len(branches) > 0, nil
}
