package gitrepo

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	gperrors "github.com/empri-devops/git-privacy/internal/errors"
	"github.com/empri-devops/git-privacy/internal/timestamp"
)

// Commit is the borrowed view of a commit the redaction core consumes:
// immutable input, never mutated in place — the rewriter always produces a
// new commit with a new hash.
type Commit struct {
	Hash          plumbing.Hash
	Parents       []plumbing.Hash
	AuthorName    string
	AuthorEmail   string
	AuthorDate    timestamp.Timestamp
	CommitterName string
	CommitterEmail string
	CommitterDate timestamp.Timestamp
	Message       string
}

func fromObject(c *object.Commit) Commit {
	return Commit{
		Hash:           c.Hash,
		Parents:        c.ParentHashes,
		AuthorName:     c.Author.Name,
		AuthorEmail:    c.Author.Email,
		AuthorDate:     timestamp.New(c.Author.When),
		CommitterName:  c.Committer.Name,
		CommitterEmail: c.Committer.Email,
		CommitterDate:  timestamp.New(c.Committer.When),
		Message:        c.Message,
	}
}

// HeadRefName returns the symbolic reference name HEAD currently points at
// (e.g. "refs/heads/main"), for callers that need to pass it through to
// RewriteRange.
func (r *Repository) HeadRefName() (plumbing.ReferenceName, error) {
	const op = "gitrepo.HeadRefName"
	ref, err := r.repo.Head()
	if err != nil {
		return "", gperrors.GitWrap(err, op, "failed to resolve HEAD")
	}
	return ref.Name(), nil
}

// HeadCommit resolves and returns HEAD's commit.
func (r *Repository) HeadCommit() (Commit, error) {
	const op = "gitrepo.HeadCommit"
	ref, err := r.repo.Head()
	if err != nil {
		return Commit{}, gperrors.GitWrap(err, op, "failed to resolve HEAD")
	}
	return r.CommitByHash(ref.Hash())
}

// CommitByHash fetches a single commit by hash.
func (r *Repository) CommitByHash(h plumbing.Hash) (Commit, error) {
	const op = "gitrepo.CommitByHash"
	c, err := r.repo.CommitObject(h)
	if err != nil {
		return Commit{}, gperrors.GitWrap(err, op, fmt.Sprintf("commit %s not found", h))
	}
	return fromObject(c), nil
}

// ResolveRevision resolves a revision string (branch, tag, "HEAD~3", a
// range endpoint, ...) to a single commit hash.
func (r *Repository) ResolveRevision(rev string) (plumbing.Hash, error) {
	const op = "gitrepo.ResolveRevision"
	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, gperrors.GitWrap(err, op, fmt.Sprintf("failed to resolve revision %q", rev))
	}
	return *h, nil
}

// CommitsReachable returns every commit reachable from from, newest first —
// the order go-git's own log walk yields.
func (r *Repository) CommitsReachable(from plumbing.Hash) ([]Commit, error) {
	const op = "gitrepo.CommitsReachable"
	iter, err := r.repo.Log(&git.LogOptions{From: from, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, gperrors.GitWrap(err, op, "failed to walk history")
	}
	defer iter.Close()

	var out []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		out = append(out, fromObject(c))
		return nil
	})
	if err != nil {
		return nil, gperrors.GitWrap(err, op, "failed to walk history")
	}
	return out, nil
}

// CommitsBetween returns the commits in (oldest, newest] — oldest
// exclusive, newest inclusive — in ancestor-to-descendant order, the
// order the range rewriter requires. If oldest is the zero hash, the
// range is "newest and everything reachable from it" (i.e. last alone,
// per spec.md's "Range is first^..last when the first queued commit has
// a parent, else last alone").
func (r *Repository) CommitsBetween(oldest, newest plumbing.Hash) ([]Commit, error) {
	const op = "gitrepo.CommitsBetween"

	newestFirst, err := r.CommitsReachable(newest)
	if err != nil {
		return nil, err
	}

	var filtered []Commit
	if oldest.IsZero() {
		filtered = newestFirst
	} else {
		ancestor, err := r.isAncestor(oldest, newest)
		if err != nil {
			return nil, err
		}
		if !ancestor {
			return nil, gperrors.Git(op, fmt.Sprintf("%s is not an ancestor of %s", oldest, newest))
		}
		for _, c := range newestFirst {
			if c.Hash == oldest {
				break
			}
			filtered = append(filtered, c)
		}
	}

	// Reverse into ancestor-to-descendant order.
	out := make([]Commit, len(filtered))
	for i, c := range filtered {
		out[len(filtered)-1-i] = c
	}
	if len(out) == 0 {
		return nil, gperrors.Rewrite(op, "range resolves to zero commits").WithDetail("exitCode", 128)
	}
	return out, nil
}

// IsAncestorOf reports whether ancestor is an ancestor of (or equal to)
// descendant. It errors if either hash can't be resolved locally, which
// callers may treat as "unknown ancestry" rather than a hard failure.
func (r *Repository) IsAncestorOf(ancestor, descendant plumbing.Hash) (bool, error) {
	return r.isAncestor(ancestor, descendant)
}

func (r *Repository) isAncestor(ancestor, descendant plumbing.Hash) (bool, error) {
	const op = "gitrepo.isAncestor"
	a, err := r.repo.CommitObject(ancestor)
	if err != nil {
		return false, gperrors.GitWrap(err, op, "failed to load candidate ancestor")
	}
	d, err := r.repo.CommitObject(descendant)
	if err != nil {
		return false, gperrors.GitWrap(err, op, "failed to load candidate descendant")
	}
	ok, err := a.IsAncestor(d)
	if err != nil {
		return false, gperrors.GitWrap(err, op, "ancestry check failed")
	}
	return ok, nil
}

// TouchesPaths reports whether commit h's diff against its first parent
// (or, for a root commit, its full tree) touches any of the given paths —
// used by `log`'s optional PATHS filter. An empty paths list always
// matches (no filter configured).
func (r *Repository) TouchesPaths(h plumbing.Hash, paths []string) (bool, error) {
	if len(paths) == 0 {
		return true, nil
	}
	const op = "gitrepo.TouchesPaths"
	c, err := r.repo.CommitObject(h)
	if err != nil {
		return false, gperrors.GitWrap(err, op, fmt.Sprintf("commit %s not found", h))
	}
	stats, err := c.Stats()
	if err != nil {
		return false, gperrors.GitWrap(err, op, "failed to compute file stats")
	}
	for _, stat := range stats {
		for _, p := range paths {
			if stat.Name == p || strings.HasPrefix(stat.Name, strings.TrimSuffix(p, "/")+"/") {
				return true, nil
			}
		}
	}
	return false, nil
}

// FindLastCommitByEmail walks HEAD's history for the most recent commit
// where the author or committer email matches email, returning ok=false if
// none is found (empty repository, or the user has never committed under
// that address). Used by the timezone check to find a representative
// recent offset for the configured identity.
func (r *Repository) FindLastCommitByEmail(email string) (c Commit, ok bool, err error) {
	const op = "gitrepo.FindLastCommitByEmail"
	head, err := r.repo.Head()
	if err != nil {
		return Commit{}, false, nil //nolint:nilerr // unborn HEAD: nothing to compare against
	}

	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return Commit{}, false, gperrors.GitWrap(err, op, "failed to walk history")
	}
	defer iter.Close()

	var found *object.Commit
	err = iter.ForEach(func(commit *object.Commit) error {
		if commit.Author.Email == email || commit.Committer.Email == email {
			found = commit
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return Commit{}, false, gperrors.GitWrap(err, op, "failed to walk history")
	}
	if found == nil {
		return Commit{}, false, nil
	}
	return fromObject(found), true, nil
}

// ContainingRemoteBranches reports which remote-tracking branches contain
// the given commit — used by the range rewriter to refuse rewriting
// history another clone may have already fetched, absent --force.
func (r *Repository) ContainingRemoteBranches(h plumbing.Hash) ([]string, error) {
	const op = "gitrepo.ContainingRemoteBranches"
	refs, err := r.repo.References()
	if err != nil {
		return nil, gperrors.GitWrap(err, op, "failed to list references")
	}
	defer refs.Close()

	target, err := r.repo.CommitObject(h)
	if err != nil {
		return nil, gperrors.GitWrap(err, op, "failed to load commit")
	}

	var names []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if !ref.Name().IsRemote() || ref.Type() != plumbing.HashReference {
			return nil
		}
		tip, err := r.repo.CommitObject(ref.Hash())
		if err != nil {
			return nil //nolint:nilerr // a dangling remote ref shouldn't abort the whole scan
		}
		if tip.Hash == target.Hash {
			names = append(names, ref.Name().Short())
			return nil
		}
		ok, err := target.IsAncestor(tip)
		if err == nil && ok {
			names = append(names, ref.Name().Short())
		}
		return nil
	})
	if err != nil {
		return nil, gperrors.GitWrap(err, op, "failed to scan remote branches")
	}
	return names, nil
}
