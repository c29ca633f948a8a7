package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beeux/beectl/internal/config"
	"github.com/beeux/beectl/internal/ui"
)

var useCmd = &cobra.Command{
	Use:   "use [context-name]",
	Short: "Set the active context",
	Long: `Set the active Azure context for subsequent commands.

A context names the subscription and resource group the fleet lives in.
Without an argument an interactive picker opens.

Examples:
  beectl use lab            # Switch to the lab context
  beectl use                # Pick a context interactively`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUse,
}

var useAddCmd = &cobra.Command{
	Use:   "add <context-name>",
	Short: "Add a new context",
	Long: `Add a new context configuration.

Examples:
  beectl use add lab --subscription 00000000-... --resource-group beeux-lab --location westeurope
  beectl use add prod --subscription 11111111-... --resource-group beeux --location westeurope --admin-user beeux`,
	Args: cobra.ExactArgs(1),
	RunE: runUseAdd,
}

var useDeleteCmd = &cobra.Command{
	Use:   "delete <context-name>",
	Short: "Delete a context",
	Long: `Delete a context configuration.

Examples:
  beectl use delete old-lab`,
	Args:    cobra.ExactArgs(1),
	Aliases: []string{"rm", "remove"},
	RunE:    runUseDelete,
}

var (
	// Flags for use add
	useAddSubscription  string
	useAddTenant        string
	useAddResourceGroup string
	useAddLocation      string
	useAddAdminUser     string
	useAddSSHKey        string
	useAddStorage       string
	useAddShare         string
)

func init() {
	rootCmd.AddCommand(useCmd)
	useCmd.AddCommand(useAddCmd)
	useCmd.AddCommand(useDeleteCmd)

	useAddCmd.Flags().StringVar(&useAddSubscription, "subscription", "", "Subscription ID")
	useAddCmd.Flags().StringVar(&useAddTenant, "tenant", "", "Tenant ID")
	useAddCmd.Flags().StringVar(&useAddResourceGroup, "resource-group", "", "Fleet resource group")
	useAddCmd.Flags().StringVar(&useAddLocation, "location", "", "Azure region")
	useAddCmd.Flags().StringVar(&useAddAdminUser, "admin-user", "", "VM admin username")
	useAddCmd.Flags().StringVar(&useAddSSHKey, "ssh-key", "", "Public key path for provisioning")
	useAddCmd.Flags().StringVar(&useAddStorage, "storage-account", "", "Fleet storage account")
	useAddCmd.Flags().StringVar(&useAddShare, "file-share", "", "CIFS share name")
}

func runUse(cmd *cobra.Command, args []string) error {
	var contextName string

	if len(args) == 0 {
		contexts, current, err := config.ListContexts()
		if err != nil {
			return err
		}
		if len(contexts) == 0 {
			fmt.Println("No contexts configured. Add one with:")
			fmt.Println("  beectl use add lab --subscription <id> --resource-group <rg> --location <region>")
			return nil
		}
		contextName, err = ui.SelectContext(contexts, current)
		if err != nil {
			return nil // cancelled
		}
	} else {
		contextName = args[0]
	}

	if err := config.SetCurrentContext(contextName); err != nil {
		contexts, current, listErr := config.ListContexts()
		if listErr != nil {
			return err
		}

		fmt.Printf("Context %q not found.\n\n", contextName)

		if len(contexts) == 0 {
			fmt.Println("No contexts configured. Add one with:")
			fmt.Println("  beectl use add lab --subscription <id> --resource-group <rg> --location <region>")
		} else {
			fmt.Println("Available contexts:")
			for name := range contexts {
				marker := "  "
				if name == current {
					marker = "* "
				}
				fmt.Printf("  %s%s\n", marker, name)
			}
		}
		return nil
	}

	ctx, _, err := config.GetCurrentContext()
	if err != nil {
		return err
	}

	fmt.Printf("Switched to context: %s\n", contextName)
	fmt.Printf("  Sub:      %s\n", ctx.Subscription)
	fmt.Printf("  Group:    %s\n", ctx.ResourceGroup)
	if ctx.Location != "" {
		fmt.Printf("  Location: %s\n", ctx.Location)
	}

	return nil
}

func runUseAdd(cmd *cobra.Command, args []string) error {
	contextName := args[0]

	if useAddSubscription == "" {
		return fmt.Errorf("--subscription is required")
	}
	if useAddResourceGroup == "" {
		return fmt.Errorf("--resource-group is required")
	}

	ctx := &config.Context{
		Subscription:   useAddSubscription,
		Tenant:         useAddTenant,
		ResourceGroup:  useAddResourceGroup,
		Location:       useAddLocation,
		AdminUser:      useAddAdminUser,
		SSHKeyPath:     useAddSSHKey,
		StorageAccount: useAddStorage,
		FileShare:      useAddShare,
	}

	if err := config.AddContext(contextName, ctx); err != nil {
		return fmt.Errorf("failed to add context: %w", err)
	}

	fmt.Printf("Context added: %s\n", contextName)
	fmt.Println("\nTo use this context:")
	fmt.Printf("  beectl use %s\n", contextName)

	return nil
}

func runUseDelete(cmd *cobra.Command, args []string) error {
	contextName := args[0]

	if err := config.DeleteContext(contextName); err != nil {
		return fmt.Errorf("failed to delete context: %w", err)
	}

	fmt.Printf("Context deleted: %s\n", contextName)
	return nil
}
