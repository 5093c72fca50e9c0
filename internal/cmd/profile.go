package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kiln-ml/kiln/internal/profile"
	"github.com/kiln-ml/kiln/internal/style"
)

var profileCmd = &cobra.Command{
	Use:     "profile",
	GroupID: GroupConfig,
	Short:   "Manage configuration profiles",
	Long: `Manage named configuration profiles.

Each profile owns its own set of stacks and an active-stack pointer. At most
one profile is globally active; commands run against the active profile
unless KILN_PROFILE overrides it.

Examples:
  kiln profile list               # Show all profiles
  kiln profile create staging     # Register a new local profile
  kiln profile use staging        # Make it the active profile
  kiln profile describe           # Show the active profile in detail`,
	RunE: requireSubcommand,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all registered profiles",
	Long: `List every registered profile in lexical name order.

The globally active profile is marked with an asterisk (*).`,
	RunE: runProfileList,
}

var profileDescribeCmd = &cobra.Command{
	Use:   "describe [name]",
	Short: "Show one profile in detail",
	Long: `Show a profile's store location, stacks, and active pointers.

Without an argument, describes the profile resolved for this invocation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProfileDescribe,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Register a new profile",
	Long: `Register a new profile under a unique name.

By default the profile stores its stacks in a local sub-store inside the
kiln config home. Use --store-type remote with --store-url to register a
profile backed by a remote service.

Examples:
  kiln profile create staging
  kiln profile create cloud --store-type remote --store-url https://kiln.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileCreate,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a profile",
	Long: `Delete a registered profile.

Deleting the globally active profile fails unless --force is given, in which
case the active pointer is cleared and resolution falls back to the default
profile.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileDelete,
}

var profileUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the globally active profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileUse,
}

var (
	profileCreateStoreType string
	profileCreateStoreURL  string
	profileDeleteForce     bool
)

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileDescribeCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	profileCmd.AddCommand(profileUseCmd)

	profileCreateCmd.Flags().StringVar(&profileCreateStoreType, "store-type", "local", "Profile store type (local or remote)")
	profileCreateCmd.Flags().StringVar(&profileCreateStoreURL, "store-url", "", "Store location (required for remote profiles)")
	profileDeleteCmd.Flags().BoolVar(&profileDeleteForce, "force", false, "Delete even if the profile is active")
}

func runProfileList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	profiles, err := a.profiles.List()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println("No profiles registered. Run 'kiln profile create <name>' to add one.")
		return nil
	}

	active, err := a.profiles.ActiveName()
	if err != nil {
		return err
	}

	for _, p := range profiles {
		marker := "  "
		if p.Name == active {
			marker = style.ActiveMarker + " "
		}
		line := fmt.Sprintf("%s%s", marker, p.Name)
		if p.ActiveStack != "" {
			line += fmt.Sprintf("  (stack: %s)", p.ActiveStack)
		}
		line += "  " + style.Dim.Render(string(p.StoreType))
		fmt.Println(line)
	}
	return nil
}

func runProfileDescribe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	var p *profile.Profile
	if len(args) == 1 {
		p, err = a.profiles.Get(args[0])
		if err != nil {
			return err
		}
	} else {
		ctx, err := a.resolveContext()
		if err != nil {
			return err
		}
		p = ctx.Profile
	}

	fmt.Printf("%s %s\n", style.Bold.Render("Profile:"), p.Name)
	fmt.Printf("  Store:  %s (%s)\n", p.StoreURL, p.StoreType)
	fmt.Printf("  Source: %s\n", p.Source)
	if p.ActiveUser != "" {
		fmt.Printf("  User:   %s\n", p.ActiveUser)
	}

	stacks, err := a.stacksFor(p)
	if err != nil {
		fmt.Println(style.Dim.Render("  Stacks: store not reachable"))
		return nil
	}
	all, err := stacks.List()
	if err != nil {
		return err
	}
	activeStack, err := stacks.ActiveName()
	if err != nil {
		return err
	}

	if len(all) == 0 {
		fmt.Println(style.Dim.Render("  No stacks registered."))
		return nil
	}
	fmt.Println("  Stacks:")
	for _, s := range all {
		marker := "  "
		if s.Name == activeStack {
			marker = style.ActiveMarker + " "
		}
		fmt.Printf("    %s%s (%d components)\n", marker, s.Name, len(s.Components))
	}
	return nil
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	p, err := a.profiles.Create(args[0], profile.StoreType(profileCreateStoreType), profileCreateStoreURL)
	if err != nil {
		return err
	}

	fmt.Printf("%s Created profile %s\n", style.SuccessPrefix, style.Bold.Render(p.Name))
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if err := a.profiles.Delete(args[0], profileDeleteForce); err != nil {
		return err
	}

	fmt.Printf("%s Deleted profile %s\n", style.SuccessPrefix, args[0])
	return nil
}

func runProfileUse(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if err := a.profiles.SetActive(args[0]); err != nil {
		return err
	}

	fmt.Printf("%s Active profile is now %s\n", style.SuccessPrefix, style.Bold.Render(args[0]))
	return nil
}
