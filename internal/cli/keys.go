package cli

import (
	"github.com/spf13/cobra"

	gperrors "github.com/empri-devops/git-privacy/internal/errors"
)

var (
	keysInit       bool
	keysNew        bool
	keysDisable    bool
	keysMigratePwd bool
	keysArchive    bool
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Create and manage encryption keys",
	RunE:  runKeys,
}

func init() {
	keysCmd.Flags().BoolVar(&keysInit, "init", false, "generate the initial active key (the default mode)")
	keysCmd.Flags().BoolVar(&keysNew, "new", false, "generate a new key and archive the existing one")
	keysCmd.Flags().BoolVar(&keysDisable, "disable", false, "disable and archive the active key")
	keysCmd.Flags().BoolVar(&keysMigratePwd, "migrate-pwd", false, "migrate from legacy password-based encryption")
	keysCmd.Flags().BoolVar(&keysArchive, "archive", true, "archive the replaced key instead of deleting it")
	rootCmd.AddCommand(keysCmd)
}

func runKeys(cmd *cobra.Command, args []string) error {
	ctx, err := openContext()
	if err != nil {
		return err
	}

	selected := 0
	for _, f := range []bool{keysInit, keysNew, keysDisable, keysMigratePwd} {
		if f {
			selected++
		}
	}
	if selected > 1 {
		return cmdUsageError("keys", "--init, --new, --disable and --migrate-pwd are mutually exclusive")
	}

	switch {
	case keysMigratePwd:
		if ctx.Cfg.Password == "" {
			return gperrors.Key("cli.keys", "no password setting found to migrate").WithDetail("exitCode", 1)
		}
		if err := ctx.Store.MigratePassword([]byte(ctx.Cfg.Password), []byte(ctx.Cfg.Salt), keysArchive); err != nil {
			return err
		}
		if err := ctx.Cfg.CommentOutPasswordOptions(); err != nil {
			return err
		}
		opts.PrintSuccess("migrated password-based key")
	case keysNew:
		if err := ctx.Store.Rotate(keysArchive); err != nil {
			return err
		}
		opts.PrintSuccess("key replacement successful")
	case keysDisable:
		if err := ctx.Store.Disable(keysArchive); err != nil {
			return err
		}
		opts.PrintSuccess("key disabled")
	default: // --init, the default mode
		if err := ctx.Store.Init(); err != nil {
			return err
		}
		opts.PrintSuccess("key initialisation successful")
	}
	return nil
}
