package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	gperrors "github.com/empri-devops/git-privacy/internal/errors"
	"github.com/empri-devops/git-privacy/internal/hooks"
)

var prePushCmd = &cobra.Command{
	Use:    "pre-push REMOTE_NAME REMOTE_URL",
	Short:  "Gate a push on fully-redacted history (pre-push hook entrypoint)",
	Hidden: true,
	Args:   cobra.ExactArgs(2),
	RunE:   runPrePush,
}

func init() {
	rootCmd.AddCommand(prePushCmd)
}

func runPrePush(cmd *cobra.Command, args []string) error {
	ctx, err := openContext()
	if err != nil {
		return err
	}
	pattern, err := ctx.pattern()
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(opts.Stdin)
	var blocked bool
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		in, err := hooks.ParsePrePushLine(line)
		if err != nil {
			return err
		}

		result, err := hooks.CheckPush(ctx.Repo, pattern, in)
		if err != nil {
			return err
		}

		switch {
		case result.Deleted:
			continue
		case result.Diverging:
			opts.PrintInfo("skipping redaction check for " + in.LocalRef + ": remote has diverged")
		case result.Blocked():
			blocked = true
			opts.PrintError(fmt.Sprintf("%d commit(s) on %s are not fully redacted:", len(result.UnredactedHashes), in.LocalRef))
			for _, h := range result.UnredactedHashes {
				opts.println("  " + h)
			}
			suggestion := result.RedateBase
			if suggestion == "" {
				opts.PrintInfo("run `git-privacy redate` to redate them before pushing")
			} else {
				opts.PrintInfo("run `git-privacy redate " + suggestion + "` to redate them before pushing")
			}
			if len(result.ContainingRemoteBranches) > 0 {
				opts.PrintWarning("these commits are also reachable from remote branch(es): " + strings.Join(result.ContainingRemoteBranches, ", ") + " — redating will diverge history there")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return gperrors.HookWrap(err, "cli.pre-push", "failed to read pre-push stdin")
	}

	if blocked {
		return gperrors.Hook("cli.pre-push", "refusing to push unredacted commits").WithDetail("exitCode", 1)
	}
	return nil
}
