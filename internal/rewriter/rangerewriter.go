package rewriter

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/empri-devops/git-privacy/internal/codec"
	gperrors "github.com/empri-devops/git-privacy/internal/errors"
	"github.com/empri-devops/git-privacy/internal/gitrepo"
)

// RangeRewriter is the bulk strategy: update() accumulates a rewrite per
// commit, finish() performs a single stream-based history rewrite over the
// whole range. Grounded on original_source/gitprivacy/rewriter/
// filterrewriter.py, reimplemented as go-git-native object reconstruction
// rather than a generated `git filter-branch --env-filter` script.
type RangeRewriter struct {
	Repo    *gitrepo.Repository
	Encoder codec.Encoder
	Replace bool // refs/replace/<old> mode: "update or add" vs "update only existing"
	Force   bool // allow rewriting commits contained in a remote branch

	queued map[plumbing.Hash]gitrepo.RangeRewrite
}

// NewRangeRewriter builds an empty range rewriter.
func NewRangeRewriter(repo *gitrepo.Repository, enc codec.Encoder, replace, force bool) *RangeRewriter {
	return &RangeRewriter{
		Repo:    repo,
		Encoder: enc,
		Replace: replace,
		Force:   force,
		queued:  make(map[plumbing.Hash]gitrepo.RangeRewrite),
	}
}

// Update computes and enqueues the rewrite for one commit. Commits must be
// fed in ancestor-to-descendant order; the caller is responsible for that
// ordering (gitrepo.CommitsBetween already produces it).
func (rr *RangeRewriter) Update(c gitrepo.Commit) error {
	const op = "rewriter.RangeRewriter.Update"
	res, err := rr.Encoder.Encode(codec.Commit{
		AuthorDate:    c.AuthorDate,
		CommitterDate: c.CommitterDate,
		Message:       c.Message,
	})
	if err != nil {
		return gperrors.RewriteWrap(err, op, fmt.Sprintf("failed to encode commit %s", c.Hash))
	}
	rr.queued[c.Hash] = gitrepo.RangeRewrite{
		Hash:          c.Hash,
		AuthorDate:    res.AuthorDate,
		CommitterDate: res.CommitterDate,
		Message:       res.Message,
	}
	return nil
}

// Finish performs the actual rewrite over commits (ancestor-to-descendant
// order) and fast-forwards refs. Failure semantics per spec.md §4.4:
// dirty working tree -> exit 1; zero commits in range -> exit 128; oldest
// commit contained in a remote branch without Force -> exit 3.
func (rr *RangeRewriter) Finish(commits []gitrepo.Commit, refs []plumbing.ReferenceName) (map[plumbing.Hash]plumbing.Hash, error) {
	const op = "rewriter.RangeRewriter.Finish"

	if len(commits) == 0 {
		return nil, gperrors.Rewrite(op, "range resolves to zero commits").WithDetail("exitCode", 128)
	}

	clean, err := rr.Repo.IsClean()
	if err != nil {
		return nil, err
	}
	if !clean {
		return nil, gperrors.Rewrite(op, "working tree is dirty; commit or stash changes before a range rewrite").
			WithDetail("exitCode", 1)
	}

	oldest := commits[0].Hash
	if !rr.Force {
		upstream, err := IsUpstream(rr.Repo, oldest)
		if err != nil {
			return nil, err
		}
		if upstream {
			rewriteErr := gperrors.Rewrite(op,
				"oldest commit in range is contained in a remote branch; re-run with --force to rewrite upstream history")
			rewriteErr.Recoverable = true
			return nil, rewriteErr.WithDetail("exitCode", 3)
		}
	}

	return rr.Repo.RewriteRange(commits, rr.queued, refs, rr.Replace)
}
