package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/beeux/beectl/internal/azure"
	"github.com/beeux/beectl/internal/config"
	"github.com/beeux/beectl/internal/ui"
)

var (
	// Global flags
	contextFlag      string
	subscriptionFlag string
	debugFlag        bool
)

var rootCmd = &cobra.Command{
	Use:   "beectl",
	Short: "BeEux - Azure dev fleet CLI",
	Long: `Beectl manages the BeEux development fleet on Azure: a resource group
of Ubuntu VMs plus the network, disks and file share they lean on.
Authentication rides on the Azure CLI token cache, so 'az login' is the
only credential step.

Context-Aware Commands:
  beectl use lab             # Switch to the lab context
  beectl status              # Show current context and auth status
  beectl contexts            # List all configured contexts

Fleet Commands:
  beectl vm list             # List VMs in the resource group
  beectl vm ssh ubuntu-dev-01
  beectl provision create ubuntu-dev-03
  beectl fleet apply         # Reconcile fleet.yaml

Supporting Resources:
  beectl disk list           # Managed disks
  beectl nsg allow 8080      # Open an inbound port
  beectl share mount ubuntu-dev-01`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.Errorf("%v", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&contextFlag, "context", "c", "", "Use a specific context")
	rootCmd.PersistentFlags().StringVar(&subscriptionFlag, "subscription", "", "Override the subscription ID")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")

	// Bind flags to viper
	_ = viper.BindPFlag("context", rootCmd.PersistentFlags().Lookup("context"))
	_ = viper.BindPFlag("subscription", rootCmd.PersistentFlags().Lookup("subscription"))
}

func initConfig() {
	// Read from environment variables
	viper.SetEnvPrefix("BEECTL")
	viper.AutomaticEnv()

	if subscriptionFlag == "" {
		subscriptionFlag = viper.GetString("subscription")
	}

	if debugFlag {
		azure.EnableDebugLogging()
	}
}

// loadContext resolves the context from the --context flag or the
// current context in ~/.beectl.yaml
func loadContext() (*config.Context, string, error) {
	if contextFlag != "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, "", err
		}
		ctx, ok := cfg.Contexts[contextFlag]
		if !ok {
			return nil, "", fmt.Errorf("context %q not found", contextFlag)
		}
		return ctx, contextFlag, nil
	}

	return config.GetCurrentContext()
}

// getClient builds the Azure client for the resolved context. Every
// command goes through here, so the az-on-PATH and context checks fail
// fast before any ARM call happens.
func getClient(ctx context.Context) (*azure.Client, *config.Context, error) {
	if !azure.HaveAzureCLI() {
		return nil, nil, fmt.Errorf("azure CLI (az) not found in PATH; install it and run 'az login'")
	}

	ctxConfig, _, err := loadContext()
	if err != nil {
		return nil, nil, err
	}
	if ctxConfig == nil {
		return nil, nil, fmt.Errorf("no context set. Use 'beectl use <context>' to set one")
	}

	subscription := ctxConfig.Subscription
	if subscriptionFlag != "" {
		subscription = subscriptionFlag
	}

	opts := []azure.ClientOption{
		azure.WithSubscription(subscription),
		azure.WithResourceGroup(ctxConfig.ResourceGroup),
		azure.WithLocation(ctxConfig.Location),
	}
	if ctxConfig.AdminUser != "" {
		opts = append(opts, azure.WithAdminUser(ctxConfig.AdminUser))
	}
	if ctxConfig.SSHKeyPath != "" {
		opts = append(opts, azure.WithSSHKeyPath(ctxConfig.SSHKeyPath))
	}

	client, err := azure.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Azure client: %w", err)
	}
	return client, ctxConfig, nil
}

// manifestPath resolves the fleet manifest path: flag, then config
// defaults, then fleet.yaml in the working directory.
func manifestPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg, err := config.Load(); err == nil && cfg.Defaults != nil && cfg.Defaults.Manifest != "" {
		return cfg.Defaults.Manifest
	}
	return config.DefaultManifestPath
}
