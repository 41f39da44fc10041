package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/totallynotjon/actual-flow/internal/buildinfo"
	"github.com/totallynotjon/actual-flow/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "actual-flow",
		Short:   "Sync Lunch Flow bank transactions into Actual Budget",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newSetupCommand())
	rootCmd.AddCommand(newAccountsCommand())
	rootCmd.AddCommand(newSyncCommand())

	return rootCmd
}

// resolveConfigPath honors an explicit --config value, otherwise the
// per-user default location.
func resolveConfigPath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return config.DefaultPath()
}
