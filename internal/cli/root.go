// Package cli provides the command-line interface for git-privacy.
package cli

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// opts holds the process-wide CLI state every subcommand reads from.
// Built once in the package init() and reconfigured (log level, color) in
// rootCmd's PersistentPreRunE once flags have been parsed.
var opts = NewOptions()

var (
	gitDirFlag  string
	verboseFlag bool
	jsonFlag    bool
	noColorFlag bool
)

// rootCmd is the base command. Subcommands register themselves onto it
// from their own init() functions, following the teacher's per-file
// registration convention.
var rootCmd = &cobra.Command{
	Use:   "git-privacy",
	Short: "Redact privacy-sensitive commit timestamps while preserving recoverability",
	Long: `git-privacy coarsens or window-clamps commit author/committer
timestamps so a published history doesn't leak exactly when you work,
while keeping enough information embedded in each commit message to
recover the original timestamp later.

Install the Git hooks with 'git-privacy init' to redate commits
automatically as you make them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		opts.GitDir = gitDirFlag
		opts.Verbose = verboseFlag
		opts.JSON = jsonFlag
		opts.NoColor = noColorFlag

		if opts.Verbose {
			opts.Logger.SetLevel(log.DebugLevel)
		}
		if opts.JSON {
			opts.Logger.SetFormatter(log.JSONFormatter)
		}
		return nil
	},
}

// Execute runs the root command, returning whatever error the chosen
// subcommand produced (map it through internal/errors.ExitCode for the
// process exit status).
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&gitDirFlag, "gitdir", ".", "path to (or below) the repository to operate on")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "emit structured JSON logs")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")

	viper.SetEnvPrefix("GITPRIVACY")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	_ = viper.BindPFlag("gitdir", rootCmd.PersistentFlags().Lookup("gitdir"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("no-color", rootCmd.PersistentFlags().Lookup("no-color"))
}
