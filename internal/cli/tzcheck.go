package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/empri-devops/git-privacy/internal/hooks"
)

var tzcheckCmd = &cobra.Command{
	Use:   "tzcheck",
	Short: "Report whether the local timezone offset differs from the last recorded commit",
	RunE:  runTzcheck,
}

func init() {
	rootCmd.AddCommand(tzcheckCmd)
}

func runTzcheck(cmd *cobra.Command, args []string) error {
	ctx, err := openContext()
	if err != nil {
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

	if !report.Checked {
		opts.PrintInfo("no prior commit found under " + email + "; nothing to compare against")
		return nil
	}
	if report.Changed {
		opts.PrintWarning(fmt.Sprintf("local offset is UTC%+d minutes, last commit recorded UTC%+d minutes", report.LocalOffset, report.LastOffset))
		return nil
	}
	opts.PrintSuccess("local offset matches the last recorded commit")
	return nil
}
