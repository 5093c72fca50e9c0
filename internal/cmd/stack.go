package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiln-ml/kiln/internal/stack"
	"github.com/kiln-ml/kiln/internal/style"
)

var stackCmd = &cobra.Command{
	Use:     "stack",
	GroupID: GroupConfig,
	Short:   "Manage stacks in the active profile",
	Long: `Manage the named stacks of the active profile.

A stack maps component categories to component references. One stack per
profile may be active; workloads run against the active stack.

Examples:
  kiln stack list                          # Show all stacks
  kiln stack create local -c orchestrator=local_orchestrator
  kiln stack use                           # Pick the active stack interactively
  kiln stack set artifact_store s3_store   # Update the active stack`,
	RunE: requireSubcommand,
}

var stackListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all stacks in the active profile",
	Long: `List every stack of the active profile in lexical name order.

The active stack is marked with an asterisk (*).`,
	RunE: runStackList,
}

var stackDescribeCmd = &cobra.Command{
	Use:   "describe [name]",
	Short: "Show one stack's component map",
	Long: `Show a stack's components by category.

Without an argument, describes the active stack.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStackDescribe,
}

var stackCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Register a new stack",
	Long: `Register a new stack in the active profile.

Components are given as repeated -c category=reference flags. The category
set is open; any non-empty category name is accepted.

Example:
  kiln stack create kubeflow \
    -c orchestrator=kubeflow_orchestrator \
    -c artifact_store=gcs_artifacts \
    -c container_registry=gcr`,
	Args: cobra.ExactArgs(1),
	RunE: runStackCreate,
}

var stackDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stack",
	Long: `Delete a stack from the active profile.

Deleting the active stack fails unless --force is given, in which case the
profile is left with no active stack until one is selected.`,
	Args: cobra.ExactArgs(1),
	RunE: runStackDelete,
}

var stackUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the profile's active stack",
	Long: `Set the active stack of the active profile.

Without an argument, presents an interactive picker over the registered
stacks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStackUse,
}

var stackSetCmd = &cobra.Command{
	Use:   "set <category> <reference>",
	Short: "Update one component of the active stack",
	Long: `Set the component reference for one category on the active stack.

An empty reference ("") removes the category.

Example:
  kiln stack set container_registry gcr`,
	Args: cobra.ExactArgs(2),
	RunE: runStackSet,
}

var (
	stackCreateComponents []string
	stackDeleteForce      bool
)

func init() {
	rootCmd.AddCommand(stackCmd)
	stackCmd.AddCommand(stackListCmd)
	stackCmd.AddCommand(stackDescribeCmd)
	stackCmd.AddCommand(stackCreateCmd)
	stackCmd.AddCommand(stackDeleteCmd)
	stackCmd.AddCommand(stackUseCmd)
	stackCmd.AddCommand(stackSetCmd)

	stackCreateCmd.Flags().StringArrayVarP(&stackCreateComponents, "component", "c", nil, "Component as category=reference (repeatable)")
	stackDeleteCmd.Flags().BoolVar(&stackDeleteForce, "force", false, "Delete even if the stack is active")
}

func runStackList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, err := a.resolveContext()
	if err != nil {
		return err
	}
	stacks, err := a.stacksFor(ctx.Profile)
	if err != nil {
		return err
	}

	all, err := stacks.List()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Printf("No stacks in profile %q. Run 'kiln stack create <name>' to add one.\n", ctx.Profile.Name)
		return nil
	}

	active, err := stacks.ActiveName()
	if err != nil {
		return err
	}

	fmt.Printf("Stacks in profile %s:\n", style.Bold.Render(ctx.Profile.Name))
	for _, s := range all {
		marker := "  "
		if s.Name == active {
			marker = style.ActiveMarker + " "
		}
		fmt.Printf("  %s%s  %s\n", marker, s.Name, style.Dim.Render(fmt.Sprintf("%d components", len(s.Components))))
	}
	return nil
}

func runStackDescribe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, err := a.resolveContext()
	if err != nil {
		return err
	}
	stacks, err := a.stacksFor(ctx.Profile)
	if err != nil {
		return err
	}

	var s *stack.Stack
	if len(args) == 1 {
		s, err = stacks.Get(args[0])
		if err != nil {
			return err
		}
	} else {
		if ctx.Stack == nil {
			fmt.Println(style.Dim.Render("No active stack."))
			fmt.Println("Run 'kiln stack use <name>' to select one.")
			return nil
		}
		s = ctx.Stack
	}

	fmt.Printf("%s %s (profile %s)\n", style.Bold.Render("Stack:"), s.Name, ctx.Profile.Name)
	if len(s.Components) == 0 {
		fmt.Println(style.Dim.Render("  No components."))
		return nil
	}

	categories := make([]string, 0, len(s.Components))
	for cat := range s.Components {
		categories = append(categories, string(cat))
	}
	sort.Strings(categories)
	for _, cat := range categories {
		fmt.Printf("  %-20s %s\n", cat+":", s.Components[stack.Category(cat)])
	}
	return nil
}

func runStackCreate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, err := a.resolveContext()
	if err != nil {
		return err
	}
	stacks, err := a.stacksFor(ctx.Profile)
	if err != nil {
		return err
	}

	components := map[stack.Category]string{}
	for _, spec := range stackCreateComponents {
		cat, ref, ok := strings.Cut(spec, "=")
		if !ok || cat == "" {
			return fmt.Errorf("invalid component %q, want category=reference", spec)
		}
		components[stack.Category(cat)] = ref
	}

	s, err := stacks.Create(args[0], components)
	if err != nil {
		return err
	}

	fmt.Printf("%s Created stack %s in profile %s\n", style.SuccessPrefix, style.Bold.Render(s.Name), ctx.Profile.Name)
	return nil
}

func runStackDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, err := a.resolveContext()
	if err != nil {
		return err
	}
	stacks, err := a.stacksFor(ctx.Profile)
	if err != nil {
		return err
	}

	if err := stacks.Delete(args[0], stackDeleteForce); err != nil {
		return err
	}

	if ctx.Profile.ActiveStack == args[0] {
		if err := a.syncActiveStack(ctx.Profile, ""); err != nil {
			return err
		}
		fmt.Printf("%s Profile %s has no active stack now. Run 'kiln stack use' to pick one.\n",
			style.WarningPrefix, ctx.Profile.Name)
	}

	fmt.Printf("%s Deleted stack %s\n", style.SuccessPrefix, args[0])
	return nil
}

func runStackUse(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, err := a.resolveContext()
	if err != nil {
		return err
	}
	stacks, err := a.stacksFor(ctx.Profile)
	if err != nil {
		return err
	}

	name := ""
	if len(args) == 1 {
		name = args[0]
	} else {
		all, err := stacks.List()
		if err != nil {
			return err
		}
		if len(all) == 0 {
			return fmt.Errorf("%w: profile %s has no stacks", stack.ErrStackNotFound, ctx.Profile.Name)
		}
		names := make([]string, len(all))
		for i, s := range all {
			names[i] = s.Name
		}
		name, err = pickStack(names)
		if err != nil {
			return err
		}
		if name == "" {
			return nil // picker cancelled
		}
	}

	if err := stacks.SetActive(name); err != nil {
		return err
	}
	if err := a.syncActiveStack(ctx.Profile, name); err != nil {
		return err
	}

	fmt.Printf("%s Active stack is now %s\n", style.SuccessPrefix, style.Bold.Render(name))
	return nil
}

func runStackSet(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, err := a.resolveContext()
	if err != nil {
		return err
	}
	if ctx.Stack == nil {
		return fmt.Errorf("%w: no active stack in profile %s", stack.ErrStackNotFound, ctx.Profile.Name)
	}
	stacks, err := a.stacksFor(ctx.Profile)
	if err != nil {
		return err
	}

	s, err := stacks.UpdateComponent(ctx.Stack.Name, stack.Category(args[0]), args[1])
	if err != nil {
		return err
	}

	if args[1] == "" {
		fmt.Printf("%s Removed %s from stack %s\n", style.SuccessPrefix, args[0], s.Name)
	} else {
		fmt.Printf("%s Set %s to %s on stack %s\n", style.SuccessPrefix, args[0], args[1], s.Name)
	}
	return nil
}
