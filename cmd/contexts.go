package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beeux/beectl/internal/config"
	"github.com/beeux/beectl/internal/ui"
)

var contextsCmd = &cobra.Command{
	Use:     "contexts",
	Aliases: []string{"ctx"},
	Short:   "List all configured contexts",
	Long: `List all configured Azure contexts.

The current active context is marked with an asterisk (*).

Examples:
  beectl contexts
  beectl ctx`,
	RunE: runContexts,
}

func init() {
	rootCmd.AddCommand(contextsCmd)
}

func runContexts(cmd *cobra.Command, args []string) error {
	contexts, current, err := config.ListContexts()
	if err != nil {
		return fmt.Errorf("failed to list contexts: %w", err)
	}

	if len(contexts) == 0 {
		fmt.Println("No contexts configured.")
		fmt.Println()
		fmt.Println("Add a context with:")
		fmt.Println("  beectl use add lab --subscription <id> --resource-group <rg> --location <region>")
		return nil
	}

	names := make([]string, 0, len(contexts))
	for name := range contexts {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println()
	fmt.Printf("  %-16s  %-24s  %-14s  %-14s\n",
		ui.HeaderStyle.Render("CONTEXT"),
		ui.HeaderStyle.Render("RESOURCE GROUP"),
		ui.HeaderStyle.Render("LOCATION"),
		ui.HeaderStyle.Render("ADMIN"))
	fmt.Println(ui.MutedStyle.Render("  " + strings.Repeat("─", 75)))

	for _, name := range names {
		ctx := contexts[name]

		marker := "  "
		if name == current {
			marker = "* "
		}

		location := ctx.Location
		if location == "" {
			location = ui.MutedStyle.Render("-")
		}
		admin := ctx.AdminUser
		if admin == "" {
			admin = ui.MutedStyle.Render("-")
		}

		nameStr := name
		if name == current {
			nameStr = ui.RunningStyle.Render(name)
		}

		fmt.Printf("%s%-16s  %-24s  %-14s  %-14s\n",
			marker,
			nameStr,
			ctx.ResourceGroup,
			location,
			admin)
	}

	fmt.Println()
	fmt.Printf("  %d contexts configured", len(contexts))
	if current != "" {
		fmt.Printf(", current: %s", ui.RunningStyle.Render(current))
	}
	fmt.Println()

	return nil
}
