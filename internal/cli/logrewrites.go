package cli

import (
	"bufio"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/spf13/cobra"

	gperrors "github.com/empri-devops/git-privacy/internal/errors"
	"github.com/empri-devops/git-privacy/internal/gitrepo"
	"github.com/empri-devops/git-privacy/internal/hooks"
	"github.com/empri-devops/git-privacy/internal/rewriter"
	"github.com/empri-devops/git-privacy/internal/timestamp"
)

var logRewritesType string

var logRewritesCmd = &cobra.Command{
	Use:    "log-rewrites",
	Short:  "Record rewrites Git performed for deferred redation (post-rewrite hook entrypoint)",
	Hidden: true,
	RunE:   runLogRewrites,
}

func init() {
	logRewritesCmd.Flags().StringVar(&logRewritesType, "type", "", "the kind of rewrite git performed: amend|rebase")
	rootCmd.AddCommand(logRewritesCmd)
}

func runLogRewrites(cmd *cobra.Command, args []string) error {
	if rewriter.IsActive() {
		// This is our own AmendRewriter's amend circling back through Git's
		// post-rewrite hook; it already redated the commit it produced.
		return nil
	}

	ctx, err := openContext()
	if err != nil {
		return err
	}
	pattern, err := ctx.pattern()
	if err != nil {
		return err
	}

	logPath := rewriteLogPath(ctx.Repo)

	var foundDirty bool
	scanner := bufio.NewScanner(opts.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := hooks.ParseRewriteLine(line)
		if err != nil {
			return err
		}

		dirty, err := hasDirtyDate(ctx.Repo, pattern, entry.New)
		if err != nil {
			return err
		}
		if !dirty {
			continue
		}
		if err := hooks.AppendRewrite(logPath, entry); err != nil {
			return err
		}
		foundDirty = true
	}
	if err := scanner.Err(); err != nil {
		return gperrors.HookWrap(err, "cli.log-rewrites", "failed to read post-rewrite stdin")
	}

	if foundDirty {
		opts.PrintWarning("a rewrite may have inserted unredacted commit dates; run `git-privacy redate-rewrites` to fix them")
	}
	return nil
}

// hasDirtyDate reports whether hexsha's committer or author date still
// fails the redaction pattern. A commit no longer resolvable (superseded
// by a later rewrite in the same batch) is treated as clean: there is
// nothing left to redate under that hash.
func hasDirtyDate(repo *gitrepo.Repository, pattern timestamp.Pattern, hexsha string) (bool, error) {
	c, err := repo.CommitByHash(plumbing.NewHash(hexsha))
	if err != nil {
		return false, nil //nolint:nilerr // commit superseded by a later rewrite in this same batch
	}
	return !pattern.IsRedacted(c.AuthorDate) || !pattern.IsRedacted(c.CommitterDate), nil
}
