package hooks

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	gperrors "github.com/empri-devops/git-privacy/internal/errors"
	"github.com/empri-devops/git-privacy/internal/gitrepo"
	"github.com/empri-devops/git-privacy/internal/timestamp"
)

// NullHash is the all-zero object ID Git uses on the pre-push stdin
// protocol to mean "ref does not exist" (a delete, or an empty remote).
const NullHash = "0000000000000000000000000000000000000000"

// PrePushLine is one parsed line of the pre-push hook's stdin protocol:
// "<local ref> SP <local sha1> SP <remote ref> SP <remote sha1>".
type PrePushLine struct {
	LocalRef   string
	LocalHash  string
	RemoteRef  string
	RemoteHash string
}

// ParsePrePushLine parses a single stdin line Git feeds to pre-push.
func ParsePrePushLine(line string) (PrePushLine, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) != 4 {
		return PrePushLine{}, gperrors.Usage("hooks.ParsePrePushLine",
			fmt.Sprintf("unexpected pre-push stdin line: %q", line))
	}
	return PrePushLine{LocalRef: fields[0], LocalHash: fields[1], RemoteRef: fields[2], RemoteHash: fields[3]}, nil
}

// PushCheckResult is the decision pre-push renders for one updated ref.
type PushCheckResult struct {
	Deleted                  bool
	Diverging                bool
	UnredactedHashes         []string
	RedateBase               string
	ContainingRemoteBranches []string
}

// Blocked reports whether this result should fail the push (exit 1).
func (r PushCheckResult) Blocked() bool { return len(r.UnredactedHashes) > 0 }

// CheckPush decides whether the commits a push would publish are fully
// redacted under pattern, refusing the push (leaving ctx.exit(1) to the
// caller) when any are not. A deleting push or one against an empty remote
// is always allowed; a push whose remote has diverged is allowed here too
// (git itself will reject it, or it's a force push we can't distinguish
// without inspecting the calling process) but reported so the caller can
// print an explanatory skip message.
func CheckPush(repo *gitrepo.Repository, pattern timestamp.Pattern, in PrePushLine) (PushCheckResult, error) {
	const op = "hooks.CheckPush"

	if in.LocalRef == "(delete)" {
		return PushCheckResult{Deleted: true}, nil
	}

	localHash := plumbing.NewHash(in.LocalHash)

	var commits []gitrepo.Commit
	var redateBase string

	if in.RemoteHash == NullHash {
		all, err := repo.CommitsReachable(localHash)
		if err != nil {
			return PushCheckResult{}, err
		}
		commits = all
	} else {
		remoteHash := plumbing.NewHash(in.RemoteHash)
		if remoteHash == localHash {
			commits = nil
		} else {
			linear, err := repo.IsAncestorOf(remoteHash, localHash)
			if err != nil {
				return PushCheckResult{Diverging: true}, nil //nolint:nilerr // remote sha unknown locally: treat as diverging, per original
			}
			if !linear {
				return PushCheckResult{Diverging: true}, nil
			}
			between, err := repo.CommitsBetween(remoteHash, localHash)
			if err != nil && !gperrors.IsKind(err, gperrors.KindRewrite) {
				return PushCheckResult{}, err
			}
			commits = between
			redateBase = in.RemoteHash[:7]
		}
	}

	result := PushCheckResult{RedateBase: redateBase}
	for _, c := range commits {
		if !pattern.IsRedacted(c.AuthorDate) || !pattern.IsRedacted(c.CommitterDate) {
			result.UnredactedHashes = append(result.UnredactedHashes, c.Hash.String())
		}
	}

	if len(result.UnredactedHashes) > 0 {
		seen := make(map[string]bool)
		for _, c := range commits {
			branches, err := repo.ContainingRemoteBranches(c.Hash)
			if err != nil {
				return PushCheckResult{}, gperrors.Wrap(err, gperrors.KindGit, op, "failed to scan remote branches")
			}
			for _, b := range branches {
				if !seen[b] {
					seen[b] = true
					result.ContainingRemoteBranches = append(result.ContainingRemoteBranches, b)
				}
			}
		}
	}

	return result, nil
}
