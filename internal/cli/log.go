package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/empri-devops/git-privacy/internal/gitrepo"
	"github.com/empri-devops/git-privacy/internal/timestamp"
)

var logRevision string

var logCmd = &cobra.Command{
	Use:   "log [-- PATHS...]",
	Short: "Show commit dates alongside their decoded originals",
	Args:  cobra.ArbitraryArgs,
	RunE:  runLog,
}

func init() {
	logCmd.Flags().StringVarP(&logRevision, "revision", "r", "HEAD", "revision to start the log from")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, paths []string) error {
	ctx, err := openContext()
	if err != nil {
		return err
	}

	start, err := ctx.Repo.ResolveRevision(logRevision)
	if err != nil {
		return err
	}
	commits, err := ctx.Repo.CommitsReachable(start)
	if err != nil {
		return err
	}

	dec, err := ctx.messageCodec()
	if err != nil {
		return err
	}

	for _, c := range commits {
		if len(paths) > 0 {
			touches, err := ctx.Repo.TouchesPaths(c.Hash, paths)
			if err != nil {
				return err
			}
			if !touches {
				continue
			}
		}

		origAuthor, origCommitter := dec.Decode(toCodecCommit(c))
		printLogEntry(c, origAuthor, origCommitter)
	}
	return nil
}

func printLogEntry(c gitrepo.Commit, origAuthor, origCommitter *timestamp.Timestamp) {
	opts.PrintTitle(fmt.Sprintf("commit %s", c.Hash))
	opts.PrintSubtle(fmt.Sprintf("Author: %s <%s>", c.AuthorName, c.AuthorEmail))
	opts.println(fmt.Sprintf("AuthorDate:    %s", c.AuthorDate))
	if origAuthor != nil {
		opts.PrintSubtle(fmt.Sprintf("  (recovered: %s)", origAuthor))
	}
	opts.println(fmt.Sprintf("CommitDate:    %s", c.CommitterDate))
	if origCommitter != nil {
		opts.PrintSubtle(fmt.Sprintf("  (recovered: %s)", origCommitter))
	}
	opts.println("")
	opts.println(c.Message)
	opts.println("")
}
