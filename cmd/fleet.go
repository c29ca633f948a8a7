package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beeux/beectl/internal/azure"
	"github.com/beeux/beectl/internal/config"
	"github.com/beeux/beectl/internal/ui"
	"github.com/beeux/beectl/pkg/provider"
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Reconcile the declarative fleet manifest",
	Long: `Manage the fleet from a declarative manifest (fleet.yaml).

The manifest lists every VM with its role, size, static IP and ports,
plus the shared network and storage blocks. 'fleet apply' converges the
resource group towards the manifest; existing resources are reused.

Examples:
  beectl fleet apply
  beectl fleet status
  beectl fleet destroy`,
}

var fleetApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Provision everything the manifest describes",
	Long: `Create the shared network, storage and every manifest VM that does
not exist yet. Already-provisioned resources are left untouched.

Examples:
  beectl fleet apply
  beectl fleet apply -f staging.yaml`,
	RunE: runFleetApply,
}

var fleetStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Compare the resource group against the manifest",
	RunE:  runFleetStatus,
}

var fleetDestroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Delete the whole fleet resource group",
	Long: `Delete the fleet resource group and everything in it: VMs, disks,
network, storage. This is unrecoverable and gated behind the same
three-step confirmation as VM deletion.

Examples:
  beectl fleet destroy`,
	RunE: runFleetDestroy,
}

var fleetManifestFlag string

func init() {
	rootCmd.AddCommand(fleetCmd)
	fleetCmd.AddCommand(fleetApplyCmd)
	fleetCmd.AddCommand(fleetStatusCmd)
	fleetCmd.AddCommand(fleetDestroyCmd)

	fleetCmd.PersistentFlags().StringVarP(&fleetManifestFlag, "manifest", "f", "", "Fleet manifest path")
}

func runFleetApply(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	m, err := config.LoadManifest(manifestPath(fleetManifestFlag))
	if err != nil {
		return err
	}

	client, _, err := getClient(ctx)
	if err != nil {
		return err
	}

	prov := azure.NewProvisioner(client, m)

	fmt.Println("Ensuring shared network...")
	if err := prov.EnsureNetwork(ctx); err != nil {
		return err
	}

	for _, entry := range m.VMs {
		fmt.Printf("Ensuring %s (%s, %s)...\n", entry.Name, entry.Role, entry.Size)
		spec := provider.VMSpec{
			Name:       entry.Name,
			Role:       entry.Role,
			Size:       entry.Size,
			PrivateIP:  entry.PrivateIP,
			Ports:      entry.Ports,
			DataDiskGB: entry.DataDisk,
		}
		if _, err := prov.EnsureVM(ctx, spec); err != nil {
			return fmt.Errorf("applying %s: %w", entry.Name, err)
		}
	}

	ui.Successf("Fleet converged: %d VMs", len(m.VMs))
	return nil
}

func runFleetStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	m, err := config.LoadManifest(manifestPath(fleetManifestFlag))
	if err != nil {
		return err
	}

	client, _, err := getClient(ctx)
	if err != nil {
		return err
	}

	vms, err := azure.NewVMProvider(client).List(ctx, nil)
	if err != nil {
		return err
	}

	deployed := make(map[string]string, len(vms))
	for _, vm := range vms {
		deployed[vm.Name] = string(vm.State)
	}

	fmt.Println()
	fmt.Printf("  %-18s %-10s %-14s\n",
		ui.HeaderStyle.Render("VM"),
		ui.HeaderStyle.Render("MANIFEST"),
		ui.HeaderStyle.Render("DEPLOYED"))

	missing := 0
	for _, name := range m.Names() {
		state, ok := deployed[name]
		status := ui.RunningStyle.Render(state)
		if !ok {
			status = ui.StoppedStyle.Render("missing")
			missing++
		}
		fmt.Printf("  %-18s %-10s %-14s\n", name, "yes", status)
		delete(deployed, name)
	}

	// VMs present in the group but absent from the manifest
	for name, state := range deployed {
		fmt.Printf("  %-18s %-10s %-14s\n", name, ui.PendingStyle.Render("no"), state)
	}

	fmt.Println()
	if missing == 0 && len(deployed) == 0 {
		ui.Successf("Fleet matches the manifest (%d VMs)", len(m.VMs))
	} else {
		fmt.Printf("  %d missing, %d unmanaged. Run 'beectl fleet apply' to converge.\n", missing, len(deployed))
	}
	return nil
}

func runFleetDestroy(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, _, err := getClient(ctx)
	if err != nil {
		return err
	}

	group := client.ResourceGroup()
	fmt.Printf("This will delete resource group %s and EVERYTHING in it.\n\n", group)

	if err := ui.ConfirmExact(fmt.Sprintf("Type the resource group name (%s) to continue", group), group); err != nil {
		fmt.Println("Destroy cancelled")
		return nil
	}
	if err := ui.ConfirmExact("Type DELETE to continue", "DELETE"); err != nil {
		fmt.Println("Destroy cancelled")
		return nil
	}
	if err := ui.ConfirmExact("Type YES I AM SURE to proceed", "YES I AM SURE"); err != nil {
		fmt.Println("Destroy cancelled")
		return nil
	}

	fmt.Printf("Deleting resource group %s...\n", group)
	if err := azure.NewProvisioner(client, nil).DestroyGroup(ctx); err != nil {
		return err
	}

	ui.Successf("Resource group %s deleted", group)
	return nil
}
