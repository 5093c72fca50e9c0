package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kiln-ml/kiln/internal/resolve"
	"github.com/kiln-ml/kiln/internal/stack"
	"github.com/kiln-ml/kiln/internal/style"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: GroupConfig,
	Short:   "Show the resolved active profile and stack",
	Long: `Show which profile and stack this invocation resolves to, and why.

Resolution order: KILN_PROFILE override, legacy repository below the working
directory, the globally active profile, then the default profile.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// sourceLabel is the human wording for each resolution rule.
var sourceLabel = map[resolve.Source]string{
	resolve.SourceOverride: "KILN_PROFILE override",
	resolve.SourceLegacy:   "migrated legacy repository",
	resolve.SourceGlobal:   "globally active profile",
	resolve.SourceDefault:  "default profile",
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, err := a.resolveContext()
	if err != nil {
		return err
	}

	fmt.Printf("%s %s %s\n", style.Bold.Render("Profile:"), ctx.Profile.Name,
		style.Dim.Render("("+sourceLabel[ctx.Source]+")"))
	fmt.Printf("  Store: %s (%s)\n", ctx.Profile.StoreURL, ctx.Profile.StoreType)

	if ctx.Stack == nil {
		fmt.Println(style.Dim.Render("  No active stack."))
		fmt.Println("  Run 'kiln stack use <name>' to select one.")
		return nil
	}

	fmt.Printf("%s %s\n", style.Bold.Render("Stack:"), ctx.Stack.Name)
	categories := make([]string, 0, len(ctx.Stack.Components))
	for cat := range ctx.Stack.Components {
		categories = append(categories, string(cat))
	}
	sort.Strings(categories)
	for _, cat := range categories {
		fmt.Printf("  %-20s %s\n", cat+":", ctx.Stack.Components[stack.Category(cat)])
	}
	return nil
}
