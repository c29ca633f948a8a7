package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beeux/beectl/internal/azure"
	"github.com/beeux/beectl/internal/config"
	"github.com/beeux/beectl/internal/ui"
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Manage the fleet Azure Files share",
	Long: `Work with the CIFS file share every fleet VM mounts.

The storage account and share come from the context (or the manifest
storage block). Keys never land on disk; the mount command embeds them
for one-shot use over SSH.

Examples:
  beectl share list
  beectl share keys
  beectl share mount-cmd
  beectl share mount ubuntu-dev-01`,
}

var shareListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List file shares in the storage account",
	RunE:    runShareList,
}

var shareKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Show the storage account access keys",
	RunE:  runShareKeys,
}

var shareMountCmdCmd = &cobra.Command{
	Use:   "mount-cmd",
	Short: "Print the CIFS mount command",
	Long: `Render the mount command for the share, key included. Pipe it over
SSH or paste it on a VM that needs the share.

Examples:
  beectl share mount-cmd
  beectl share mount-cmd --path /mnt/data`,
	RunE: runShareMountCmd,
}

var shareMountCmd = &cobra.Command{
	Use:   "mount <vm-name>",
	Short: "Mount the share on a VM over SSH",
	Long: `Run the CIFS mount on a VM over SSH. Mount failures are retried a
few times to ride out cloud-init still installing cifs-utils.

Examples:
  beectl share mount ubuntu-dev-01
  beectl share mount ubuntu-dev-01 --path /mnt/data`,
	Args: cobra.ExactArgs(1),
	RunE: runShareMount,
}

var (
	shareAccountFlag string
	shareNameFlag    string
	sharePathFlag    string
)

func init() {
	rootCmd.AddCommand(shareCmd)
	shareCmd.AddCommand(shareListCmd)
	shareCmd.AddCommand(shareKeysCmd)
	shareCmd.AddCommand(shareMountCmdCmd)
	shareCmd.AddCommand(shareMountCmd)

	shareCmd.PersistentFlags().StringVar(&shareAccountFlag, "account", "", "Storage account (default from context)")
	shareCmd.PersistentFlags().StringVar(&shareNameFlag, "share", "", "File share name (default from context)")
	shareMountCmdCmd.Flags().StringVar(&sharePathFlag, "path", "", "Mount point (default /mnt/<share>)")
	shareMountCmd.Flags().StringVar(&sharePathFlag, "path", "", "Mount point (default /mnt/<share>)")
}

func getShareProvider(ctx context.Context) (*azure.ShareProvider, error) {
	client, ctxConfig, err := getClient(ctx)
	if err != nil {
		return nil, err
	}

	account := shareAccountFlag
	share := shareNameFlag
	if account == "" {
		account = ctxConfig.StorageAccount
	}
	if share == "" {
		share = ctxConfig.FileShare
	}

	// Fall back to the manifest storage block
	if account == "" || share == "" {
		if m, err := config.LoadManifest(manifestPath("")); err == nil {
			if account == "" {
				account = m.Storage.Account
			}
			if share == "" {
				share = m.Storage.Share
			}
		}
	}

	return azure.NewShareProvider(client, account, share), nil
}

func runShareList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sp, err := getShareProvider(ctx)
	if err != nil {
		return err
	}

	shares, err := sp.Shares(ctx)
	if err != nil {
		return err
	}

	if len(shares) == 0 {
		fmt.Println("No shares found")
		return nil
	}

	ui.PrintShareTable(shares)
	return nil
}

func runShareKeys(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sp, err := getShareProvider(ctx)
	if err != nil {
		return err
	}

	keys, err := sp.Keys(ctx)
	if err != nil {
		return err
	}

	for _, k := range keys {
		fmt.Printf("%s  %s  (%s)\n", ui.NameStyle.Render(k.Name), k.Value, k.Permissions)
	}
	return nil
}

func runShareMountCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sp, err := getShareProvider(ctx)
	if err != nil {
		return err
	}

	mount, err := sp.MountCommand(ctx, sharePathFlag)
	if err != nil {
		return err
	}

	fmt.Println(mount)
	return nil
}

func runShareMount(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sp, err := getShareProvider(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Mounting share on %s...\n", args[0])
	if err := sp.Mount(ctx, args[0], sharePathFlag); err != nil {
		return err
	}

	ui.Successf("Share mounted on %s", args[0])
	return nil
}
