package cli

import (
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/spf13/cobra"

	gperrors "github.com/empri-devops/git-privacy/internal/errors"
	"github.com/empri-devops/git-privacy/internal/rewriter"
)

var (
	redateOnlyHead bool
	redateForce    bool
)

var redateCmd = &cobra.Command{
	Use:   "redate [STARTPOINT]",
	Short: "Redate existing commits per the configured redaction policy",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRedate,
}

func init() {
	redateCmd.Flags().BoolVar(&redateOnlyHead, "only-head", false, "redate only the current HEAD commit (works in a dirty worktree)")
	redateCmd.Flags().BoolVarP(&redateForce, "force", "f", false, "redate commits already contained in a remote branch")
	rootCmd.AddCommand(redateCmd)
}

func runRedate(cmd *cobra.Command, args []string) error {
	ctx, err := openContext()
	if err != nil {
		return err
	}
	if ctx.Repo.CherryPickInProgress() {
		return gperrors.Rewrite("cli.redate", "cherry-pick in progress; redate is not possible").WithDetail("exitCode", 5)
	}

	enc, err := ctx.messageCodec()
	if err != nil {
		return err
	}

	if redateOnlyHead {
		if rewriter.IsActive() {
			return nil // already mid-rewrite in this process tree (post-commit hook reentrancy)
		}
		amend := &rewriter.AmendRewriter{Repo: ctx.Repo, Encoder: enc, Replace: ctx.Cfg.Replacements}
		_, err := amend.Rewrite()
		return err
	}

	clean, err := ctx.Repo.IsClean()
	if err != nil {
		return err
	}
	if !clean {
		return gperrors.Rewrite("cli.redate", "working tree has unstaged changes; commit, stash, or pass --only-head").
			WithDetail("exitCode", 1)
	}

	startpoint := ""
	if len(args) == 1 {
		startpoint = args[0]
	}

	var oldest plumbing.Hash
	if startpoint != "" {
		h, err := ctx.Repo.ResolveRevision(startpoint)
		if err != nil {
			return gperrors.NotFoundWrap(err, "cli.redate", "bad revision '"+startpoint+"'").WithDetail("exitCode", 128)
		}
		head, err := ctx.Repo.HeadCommit()
		if err != nil {
			return err
		}
		single := len(head.Parents) == 0
		if !single {
			oldest = h
		}
	}

	head, err := ctx.Repo.HeadCommit()
	if err != nil {
		return err
	}
	commits, err := ctx.Repo.CommitsBetween(oldest, head.Hash)
	if err != nil {
		return err
	}

	refName, err := ctx.Repo.HeadRefName()
	if err != nil {
		return err
	}

	rr := rewriter.NewRangeRewriter(ctx.Repo, enc, ctx.Cfg.Replacements, redateForce)
	for _, c := range commits {
		if err := rr.Update(c); err != nil {
			return err
		}
	}
	if _, err := rr.Finish(commits, []plumbing.ReferenceName{refName}); err != nil {
		return err
	}
	opts.PrintSuccess("redated commits")
	return nil
}
