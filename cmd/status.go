package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beeux/beectl/internal/azure"
	"github.com/beeux/beectl/internal/config"
	"github.com/beeux/beectl/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current context and authentication status",
	Long: `Display the current active context and verify the Azure CLI
credential is usable.

Examples:
  beectl status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, ctxName, err := config.GetCurrentContext()
	if err != nil {
		return fmt.Errorf("failed to get current context: %w", err)
	}

	fmt.Println("Current Status")
	fmt.Println(ui.MutedStyle.Render("─────────────────────────────────"))
	fmt.Println()

	if ctx == nil {
		fmt.Println("Context:  " + ui.MutedStyle.Render("(not set)"))
		fmt.Println()
		fmt.Println("No context configured. Set one with:")
		fmt.Println("  beectl use add lab --subscription <id> --resource-group <rg> --location <region>")
		fmt.Println("  beectl use lab")
		return nil
	}

	fmt.Printf("Context:   %s\n", ui.HeaderStyle.Render(ctxName))
	fmt.Printf("Sub:       %s\n", ctx.Subscription)
	fmt.Printf("Group:     %s\n", ctx.ResourceGroup)
	if ctx.Location != "" {
		fmt.Printf("Location:  %s\n", ctx.Location)
	}
	if ctx.AdminUser != "" {
		fmt.Printf("Admin:     %s\n", ctx.AdminUser)
	}
	fmt.Println()

	fmt.Print("az CLI:    ")
	if !azure.HaveAzureCLI() {
		fmt.Println(ui.StoppedStyle.Render("✗ not found in PATH"))
		fmt.Println()
		fmt.Println("Install the Azure CLI and run 'az login'")
		return nil
	}
	fmt.Println(ui.RunningStyle.Render("✓ found"))

	fmt.Print("Auth:      ")
	client, _, err := getClient(context.Background())
	if err != nil {
		fmt.Println(ui.StoppedStyle.Render("✗ not authenticated"))
		fmt.Printf("           %s\n", ui.MutedStyle.Render(err.Error()))
		return nil
	}

	identity, err := client.WhoAmI(context.Background())
	if err != nil {
		fmt.Println(ui.StoppedStyle.Render("✗ not authenticated"))
		fmt.Printf("           %s\n", ui.MutedStyle.Render(err.Error()))
		fmt.Println()
		fmt.Println("To authenticate:")
		fmt.Println("  az login")
		return nil
	}

	fmt.Println(ui.RunningStyle.Render("✓ authenticated"))
	if identity.SubscriptionName != "" {
		fmt.Printf("Sub Name:  %s\n", identity.SubscriptionName)
	}
	if identity.TenantID != "" {
		fmt.Printf("Tenant:    %s\n", ui.MutedStyle.Render(identity.TenantID))
	}
	if identity.State != "" {
		fmt.Printf("State:     %s\n", identity.State)
	}

	return nil
}
