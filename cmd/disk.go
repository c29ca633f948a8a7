package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beeux/beectl/internal/azure"
	"github.com/beeux/beectl/internal/ui"
)

var diskCmd = &cobra.Command{
	Use:   "disk",
	Short: "Manage fleet managed disks",
	Long: `Manage the managed disks of the fleet resource group.

Data disks survive VM deletion; attach them to a new VM or snapshot
them before cleaning up.

Examples:
  beectl disk list
  beectl disk attach ubuntu-dev-01 ubuntu-dev-02-datadisk
  beectl disk detach ubuntu-dev-01 ubuntu-dev-02-datadisk
  beectl disk snapshot ubuntu-dev-01-datadisk`,
}

var diskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List managed disks",
	RunE:    runDiskList,
}

var diskAttachCmd = &cobra.Command{
	Use:   "attach <vm-name> <disk-name>",
	Short: "Attach a data disk to a VM",
	Long: `Attach an existing managed disk to a VM as a data disk.

Examples:
  beectl disk attach ubuntu-dev-01 shared-scratch
  beectl disk attach ubuntu-dev-01 shared-scratch --lun 2`,
	Args: cobra.ExactArgs(2),
	RunE: runDiskAttach,
}

var diskDetachCmd = &cobra.Command{
	Use:   "detach <vm-name> <disk-name>",
	Short: "Detach a data disk from a VM",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiskDetach,
}

var diskSnapshotCmd = &cobra.Command{
	Use:   "snapshot <disk-name> [snapshot-name]",
	Short: "Snapshot a managed disk",
	Long: `Create a point-in-time snapshot of a managed disk. Without an
explicit name the snapshot is named <disk>-snap-<timestamp>.

Examples:
  beectl disk snapshot ubuntu-dev-01-datadisk
  beectl disk snapshot ubuntu-dev-01-datadisk before-upgrade`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDiskSnapshot,
}

var diskAttachLUN int32

func init() {
	rootCmd.AddCommand(diskCmd)
	diskCmd.AddCommand(diskListCmd)
	diskCmd.AddCommand(diskAttachCmd)
	diskCmd.AddCommand(diskDetachCmd)
	diskCmd.AddCommand(diskSnapshotCmd)

	diskAttachCmd.Flags().Int32Var(&diskAttachLUN, "lun", 0, "Logical unit number for the disk")
}

func getDiskProvider(ctx context.Context) (*azure.DiskProvider, error) {
	client, _, err := getClient(ctx)
	if err != nil {
		return nil, err
	}
	return azure.NewDiskProvider(client), nil
}

func runDiskList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	disks, err := getDiskProvider(ctx)
	if err != nil {
		return err
	}

	list, err := disks.List(ctx)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No disks found")
		return nil
	}

	ui.PrintDiskTable(list)
	return nil
}

func runDiskAttach(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	disks, err := getDiskProvider(ctx)
	if err != nil {
		return err
	}

	if err := disks.Attach(ctx, args[0], args[1], diskAttachLUN); err != nil {
		return err
	}

	ui.Successf("Attached %s to %s at LUN %d", args[1], args[0], diskAttachLUN)
	return nil
}

func runDiskDetach(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	disks, err := getDiskProvider(ctx)
	if err != nil {
		return err
	}

	if err := disks.Detach(ctx, args[0], args[1]); err != nil {
		return err
	}

	ui.Successf("Detached %s from %s", args[1], args[0])
	return nil
}

func runDiskSnapshot(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	disks, err := getDiskProvider(ctx)
	if err != nil {
		return err
	}

	snapshotName := ""
	if len(args) > 1 {
		snapshotName = args[1]
	}

	snap, err := disks.Snapshot(ctx, args[0], snapshotName)
	if err != nil {
		return err
	}

	ui.Successf("Snapshot %s created from %s", snap.Name, args[0])
	return nil
}
