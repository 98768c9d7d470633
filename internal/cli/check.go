package cli

import (
	"github.com/spf13/cobra"

	"github.com/empri-devops/git-privacy/internal/hooks"
)

var checkCmd = &cobra.Command{
	Use:    "check",
	Short:  "Validate redaction policy and timezone (pre-commit hook entrypoint)",
	Hidden: true,
	RunE:   runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, err := openContext()
	if err != nil {
		return err
	}

	if err := hooks.ValidatePolicy(ctx.Cfg); err != nil {
		return err
	}

	email, err := ctx.Repo.UserEmail()
	if err != nil {
		return err
	}
	report, err := hooks.CheckTimezone(ctx.Repo, email)
	if err != nil {
		return err
	}
	if report.Changed {
		opts.PrintWarning("local timezone offset differs from the last commit recorded under this identity")
	}
	return hooks.EnforceTimezone(report, ctx.Cfg.IgnoreTimezone)
}
