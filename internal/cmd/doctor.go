package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kiln-ml/kiln/internal/doctor"
	"github.com/kiln-ml/kiln/internal/style"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	GroupID: GroupHealth,
	Short:   "Check the health of the kiln configuration",
	Long: `Run diagnostics over the kiln configuration.

Checks the global store, the active pointers, and whether a legacy
repository below the working directory still needs migration.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	ctx := &doctor.CheckContext{
		ConfigHome: a.home,
		Settings:   a.settings,
		Profiles:   a.profiles,
		WorkDir:    cwd,
	}

	failed := false
	for _, res := range doctor.RunAll(ctx, doctor.DefaultChecks()) {
		prefix := style.SuccessPrefix
		switch res.Status {
		case doctor.StatusWarning:
			prefix = style.WarningPrefix
		case doctor.StatusError:
			prefix = style.ErrorPrefix
			failed = true
		}
		fmt.Printf("%s %s: %s\n", prefix, res.Name, res.Message)
		if res.FixHint != "" {
			fmt.Printf("  %s\n", style.Dim.Render(res.FixHint))
		}
	}

	if failed {
		return fmt.Errorf("configuration checks failed")
	}
	return nil
}
