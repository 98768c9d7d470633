package cli

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/spf13/cobra"

	"github.com/empri-devops/git-privacy/internal/gitrepo"
)

const githubNoreplyTemplate = "@users.noreply.github.com"

var (
	redactEmailReplacement  string
	redactEmailUseGHNoreply bool
)

// emailRedaction is one parsed ADDRESSES argument: "old[:new[:name]]".
type emailRedaction struct {
	Old  string
	New  string
	Name string
}

// parseEmailRedaction mirrors the original's EmailRedactParamType.convert:
// "old[:new[:name]]".
func parseEmailRedaction(value string) emailRedaction {
	if !strings.Contains(value, ":") {
		return emailRedaction{Old: value}
	}
	parts := strings.SplitN(value, ":", 3)
	r := emailRedaction{Old: parts[0]}
	if len(parts) >= 2 {
		r.New = parts[1]
	}
	if len(parts) == 3 {
		r.Name = parts[2]
	}
	return r
}

var redactEmailCmd = &cobra.Command{
	Use:   "redact-email [OLD[:NEW[:NAME]]]...",
	Short: "Redact email addresses from existing commits",
	Args:  cobra.ArbitraryArgs,
	RunE:  runRedactEmail,
}

func init() {
	redactEmailCmd.Flags().StringVarP(&redactEmailReplacement, "replacement", "r", "noreply@gitprivacy.invalid", "email address used as replacement")
	redactEmailCmd.Flags().BoolVarP(&redactEmailUseGHNoreply, "use-github-noreply", "g", false, "interpret NEW as a GitHub username and construct a noreply address")
	rootCmd.AddCommand(redactEmailCmd)
}

func runRedactEmail(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}

	redactions := make([]emailRedaction, 0, len(args))
	for _, a := range args {
		r := parseEmailRedaction(a)
		if r.New != "" && redactEmailUseGHNoreply {
			r.New = r.New + githubNoreplyTemplate
		}
		if r.New == "" {
			r.New = redactEmailReplacement
		}
		redactions = append(redactions, r)
	}

	ctx, err := openContext()
	if err != nil {
		return err
	}

	head, err := ctx.Repo.HeadCommit()
	if err != nil {
		return err
	}
	commits, err := ctx.Repo.CommitsReachable(head.Hash)
	if err != nil {
		return err
	}
	// CommitsReachable is newest-first; RewriteRange wants ancestor-first.
	for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
		commits[i], commits[j] = commits[j], commits[i]
	}

	rewrites := make(map[plumbing.Hash]gitrepo.RangeRewrite, len(commits))
	for _, c := range commits {
		rw := gitrepo.RangeRewrite{Hash: c.Hash}
		matched := false
		for _, r := range redactions {
			if c.AuthorEmail == r.Old {
				rw.AuthorEmail, rw.AuthorName = r.New, r.Name
				matched = true
			}
			if c.CommitterEmail == r.Old {
				rw.CommitterEmail, rw.CommitterName = r.New, r.Name
				matched = true
			}
		}
		if matched {
			rewrites[c.Hash] = rw
		}
	}
	if len(rewrites) == 0 {
		opts.PrintInfo("no commits matched the given email addresses")
		return nil
	}

	refs, err := allLocalBranchRefs(ctx.Repo)
	if err != nil {
		return err
	}
	if _, err := ctx.Repo.RewriteRange(commits, rewrites, refs, ctx.Cfg.Replacements); err != nil {
		return err
	}
	opts.PrintSuccess("redacted email addresses")
	return nil
}
