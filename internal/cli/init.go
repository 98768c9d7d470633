package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/empri-devops/git-privacy/internal/hooks"
)

var (
	initGlobal         bool
	initTimezoneChange string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Install git-privacy's Git hooks for this repository",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initGlobal, "global", "g", false, "install into the global hook template directory instead of this repository")
	initCmd.Flags().StringVar(&initTimezoneChange, "timezone-change", "", "reaction to a detected timezone change pre-commit: warn|abort (default: warn)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx, err := openContext()
	if err != nil {
		return err
	}

	hooksDir := filepath.Join(ctx.Repo.GitDir(), "hooks")
	if initGlobal {
		dir, err := globalTemplateHooksDir()
		if err != nil {
			return err
		}
		hooksDir = dir
	}

	reports, err := hooks.Install(hooksDir)
	if err != nil {
		return err
	}
	for _, r := range reports {
		switch {
		case r.Installed:
			opts.PrintSuccess("installed " + r.Name + " hook")
		case r.AlreadyOK:
			opts.PrintInfo(r.Name + " hook already installed")
		case r.Conflict != "":
			opts.PrintWarning("a different " + r.Name + " hook already exists at " + r.Conflict + "; leaving it in place")
		}
	}

	if initTimezoneChange != "" {
		if initTimezoneChange != "warn" && initTimezoneChange != "abort" {
			return cmdUsageError("init", "--timezone-change must be \"warn\" or \"abort\"")
		}
		if err := ctx.Cfg.Write(map[string]string{
			"ignoreTimezone": boolString(initTimezoneChange == "warn"),
		}); err != nil {
			return err
		}
	}
	return nil
}

// globalTemplateHooksDir mirrors the original's get_template_dir: reuse
// Git's configured init.templatedir if set, otherwise default to and
// create ~/.git_template, recording it as init.templatedir globally isn't
// done here (that edits global Git config outside this repository, which
// the facade intentionally never touches) — callers who want new clones to
// pick this up must set init.templatedir themselves.
func globalTemplateHooksDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".git_template", "hooks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
