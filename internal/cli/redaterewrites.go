package cli

import (
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/spf13/cobra"

	gperrors "github.com/empri-devops/git-privacy/internal/errors"
	"github.com/empri-devops/git-privacy/internal/gitrepo"
	"github.com/empri-devops/git-privacy/internal/hooks"
	"github.com/empri-devops/git-privacy/internal/rewriter"
)

// allLocalBranchRefs lists every local branch ref name, so redate-rewrites
// can fast-forward whichever branches a rewritten tip landed on — a rebase
// may have moved HEAD off the branch it started on by the time this runs.
func allLocalBranchRefs(repo *gitrepo.Repository) ([]plumbing.ReferenceName, error) {
	iter, err := repo.Raw().Branches()
	if err != nil {
		return nil, gperrors.GitWrap(err, "cli.allLocalBranchRefs", "failed to list local branches")
	}
	defer iter.Close()

	var names []plumbing.ReferenceName
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name())
		return nil
	})
	if err != nil {
		return nil, gperrors.GitWrap(err, "cli.allLocalBranchRefs", "failed to list local branches")
	}
	return names, nil
}

var redateRewritesCmd = &cobra.Command{
	Use:   "redate-rewrites",
	Short: "Redate commits rewritten since the last post-rewrite log was consumed",
	RunE:  runRedateRewrites,
}

func init() {
	rootCmd.AddCommand(redateRewritesCmd)
}

func rewriteLogPath(repo *gitrepo.Repository) string {
	return filepath.Join(repo.PrivacyDir(), hooks.RewriteLogName)
}

func runRedateRewrites(cmd *cobra.Command, args []string) error {
	ctx, err := openContext()
	if err != nil {
		return err
	}

	logPath := rewriteLogPath(ctx.Repo)
	entries, err := hooks.ReadRewriteLog(logPath)
	if err != nil {
		return err
	}
	pending := hooks.PendingNews(entries)
	if len(pending) == 0 {
		opts.PrintInfo("No pending rewrites to redact")
		return nil
	}

	clean, err := ctx.Repo.IsClean()
	if err != nil {
		return err
	}
	if !clean {
		return gperrors.Rewrite("cli.redate-rewrites", "working tree has unstaged changes").WithDetail("exitCode", 1)
	}

	enc, err := ctx.messageCodec()
	if err != nil {
		return err
	}

	want := make(map[string]bool, len(pending))
	for _, hexsha := range pending {
		want[hexsha] = true
	}

	head, err := ctx.Repo.HeadCommit()
	if err != nil {
		return err
	}
	reachable, err := ctx.Repo.CommitsReachable(head.Hash)
	if err != nil {
		return err
	}

	// CommitsReachable is newest-first; filter to the pending set and
	// reverse into ancestor-to-descendant order, the order RewriteRange's
	// parent remapping requires.
	var commits []gitrepo.Commit
	for i := len(reachable) - 1; i >= 0; i-- {
		c := reachable[i]
		if want[c.Hash.String()] {
			commits = append(commits, c)
		}
	}

	rr := rewriter.NewRangeRewriter(ctx.Repo, enc, ctx.Cfg.Replacements, true)
	for _, c := range commits {
		if err := rr.Update(c); err != nil {
			return err
		}
	}

	refs, err := allLocalBranchRefs(ctx.Repo)
	if err != nil {
		return err
	}
	if _, err := rr.Finish(commits, refs); err != nil {
		return err
	}

	if err := hooks.ClearRewriteLog(logPath); err != nil {
		return err
	}
	opts.PrintSuccess("redated pending rewrites")
	return nil
}
