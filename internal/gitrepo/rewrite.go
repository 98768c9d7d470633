package gitrepo

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	gperrors "github.com/empri-devops/git-privacy/internal/errors"
	"github.com/empri-devops/git-privacy/internal/timestamp"
)

// Amendment is the new author/committer dates and (optionally) message an
// amend applies to HEAD. Message == "" means "leave the message unchanged".
type Amendment struct {
	AuthorDate    timestamp.Timestamp
	CommitterDate timestamp.Timestamp
	Message       string
}

// AmendHead rewrites HEAD in place with new dates (and, if given, a new
// message), without touching its tree or parents. Mirrors `git commit
// --amend --allow-empty --no-verify` with explicit author/committer dates.
func (r *Repository) AmendHead(a Amendment) (plumbing.Hash, error) {
	const op = "gitrepo.AmendHead"

	headRef, err := r.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, gperrors.GitWrap(err, op, "failed to resolve HEAD")
	}
	old, err := r.repo.CommitObject(headRef.Hash())
	if err != nil {
		return plumbing.ZeroHash, gperrors.GitWrap(err, op, "failed to load HEAD commit")
	}

	newC := *old
	newC.Hash = plumbing.ZeroHash
	newC.Author.When = a.AuthorDate.Instant
	newC.Committer.When = a.CommitterDate.Instant
	if a.Message != "" {
		newC.Message = a.Message
	}

	obj := r.repo.Storer.NewEncodedObject()
	if err := newC.Encode(obj); err != nil {
		return plumbing.ZeroHash, gperrors.GitWrap(err, op, "failed to encode amended commit")
	}
	newHash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, gperrors.GitWrap(err, op, "failed to store amended commit")
	}

	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(headRef.Name(), newHash)); err != nil {
		return plumbing.ZeroHash, gperrors.GitWrap(err, op, "failed to fast-forward HEAD")
	}
	return newHash, nil
}

// RangeRewrite is one queued rewrite, keyed by the commit's original hash.
// Message == "" means "leave the message unchanged"; the Name/Email
// override fields are likewise no-ops when empty, so a date-only rewrite
// (the redate path) and an identity-only rewrite (redact-email) share one
// mechanism.
type RangeRewrite struct {
	Hash          plumbing.Hash
	AuthorDate    timestamp.Timestamp
	CommitterDate timestamp.Timestamp
	Message       string

	AuthorName     string
	AuthorEmail    string
	CommitterName  string
	CommitterEmail string
}

// RewriteRange reconstructs every commit in commits (which must already be
// in ancestor-to-descendant order, as CommitsBetween produces) applying the
// corresponding entry of rewrites when present, remapping parent hashes
// through a rolling old->new table so later commits point at the rebuilt
// ancestors rather than the originals. refs lists the symbolic reference
// names (not raw hashes, to avoid go-git's "reference cannot be resolved
// to an object" warnings on stale packed-refs) to fast-forward once the
// new chain is built. When replacements is true, a refs/replace/<old>
// entry is written or updated for every rewritten commit; when false,
// only entries that already exist are refreshed.
func (r *Repository) RewriteRange(commits []Commit, rewrites map[plumbing.Hash]RangeRewrite, refs []plumbing.ReferenceName, replacements bool) (map[plumbing.Hash]plumbing.Hash, error) {
	const op = "gitrepo.RewriteRange"
	if len(commits) == 0 {
		return nil, gperrors.Rewrite(op, "range resolves to zero commits").WithDetail("exitCode", 128)
	}

	oldToNew := make(map[plumbing.Hash]plumbing.Hash, len(commits))
	for _, c := range commits {
		old, err := r.repo.CommitObject(c.Hash)
		if err != nil {
			return nil, gperrors.GitWrap(err, op, fmt.Sprintf("failed to load commit %s", c.Hash))
		}

		newC := *old
		newC.Hash = plumbing.ZeroHash
		if rw, ok := rewrites[c.Hash]; ok {
			if !rw.AuthorDate.Instant.IsZero() {
				newC.Author.When = rw.AuthorDate.Instant
			}
			if !rw.CommitterDate.Instant.IsZero() {
				newC.Committer.When = rw.CommitterDate.Instant
			}
			if rw.Message != "" {
				newC.Message = rw.Message
			}
			if rw.AuthorEmail != "" {
				newC.Author.Email = rw.AuthorEmail
			}
			if rw.AuthorName != "" {
				newC.Author.Name = rw.AuthorName
			}
			if rw.CommitterEmail != "" {
				newC.Committer.Email = rw.CommitterEmail
			}
			if rw.CommitterName != "" {
				newC.Committer.Name = rw.CommitterName
			}
		}

		remapped := make([]plumbing.Hash, len(old.ParentHashes))
		for i, p := range old.ParentHashes {
			if np, ok := oldToNew[p]; ok {
				remapped[i] = np
			} else {
				remapped[i] = p
			}
		}
		newC.ParentHashes = remapped

		obj := r.repo.Storer.NewEncodedObject()
		if err := newC.Encode(obj); err != nil {
			return nil, gperrors.GitWrap(err, op, fmt.Sprintf("failed to encode rewritten commit for %s", c.Hash))
		}
		newHash, err := r.repo.Storer.SetEncodedObject(obj)
		if err != nil {
			return nil, gperrors.GitWrap(err, op, fmt.Sprintf("failed to store rewritten commit for %s", c.Hash))
		}
		oldToNew[c.Hash] = newHash

		if err := r.WriteReplacementRef(c.Hash, newHash, replacements); err != nil {
			return nil, err
		}
	}

	for _, name := range refs {
		ref, err := r.repo.Reference(name, true)
		if err != nil {
			return nil, gperrors.GitWrap(err, op, fmt.Sprintf("failed to resolve ref %s", name))
		}
		newHash, ok := oldToNew[ref.Hash()]
		if !ok {
			continue // ref doesn't point at a rewritten tip
		}
		if err := r.repo.Storer.SetReference(plumbing.NewHashReference(name, newHash)); err != nil {
			return nil, gperrors.GitWrap(err, op, fmt.Sprintf("failed to fast-forward ref %s", name))
		}
	}

	return oldToNew, nil
}

// WriteReplacementRef writes refs/replace/<old> -> new. When createIfMissing
// is false, an entry is only updated if it already exists — the "update
// only existing" replacement mode from spec.md §4.4.
func (r *Repository) WriteReplacementRef(old, new plumbing.Hash, createIfMissing bool) error {
	const op = "gitrepo.WriteReplacementRef"
	name := plumbing.ReferenceName("refs/replace/" + old.String())

	_, err := r.repo.Reference(name, false)
	exists := err == nil
	if !exists && !createIfMissing {
		return nil
	}

	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(name, new)); err != nil {
		return gperrors.GitWrap(err, op, fmt.Sprintf("failed to write replacement ref for %s", old))
	}
	return nil
}

// RemoveReplacementRef deletes refs/replace/<old>, if present.
func (r *Repository) RemoveReplacementRef(old plumbing.Hash) error {
	const op = "gitrepo.RemoveReplacementRef"
	name := plumbing.ReferenceName("refs/replace/" + old.String())
	if err := r.repo.Storer.RemoveReference(name); err != nil {
		return gperrors.GitWrap(err, op, fmt.Sprintf("failed to remove replacement ref for %s", old))
	}
	return nil
}
