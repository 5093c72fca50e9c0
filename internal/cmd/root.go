// Package cmd implements the kiln command tree.
package cmd

import (
	"github.com/spf13/cobra"
)

// Command group IDs.
const (
	GroupConfig = "config"
	GroupHealth = "health"
)

var rootCmd = &cobra.Command{
	Use:   "kiln",
	Short: "Manage ML infrastructure profiles and stacks",
	Long: `Kiln keeps your ML infrastructure configuration in named profiles.

A profile is a globally registered configuration scope holding named stacks;
a stack maps component categories (artifact store, orchestrator, metadata
store, ...) to concrete component references.

The active profile is resolved per invocation:
1. KILN_PROFILE environment variable
2. Legacy repository configuration below the working directory
   (migrated automatically on first use)
3. The globally active profile
4. The 'default' profile, created on first use`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
		&cobra.Group{ID: GroupHealth, Title: "Health Commands:"},
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// requireSubcommand is the RunE for parent commands that do nothing alone.
func requireSubcommand(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}
