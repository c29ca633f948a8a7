package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/beeux/beectl/internal/azure"
	"github.com/beeux/beectl/internal/config"
	"github.com/beeux/beectl/internal/ui"
	"github.com/beeux/beectl/pkg/provider"
)

var provisionCmd = &cobra.Command{
	Use:     "provision",
	Aliases: []string{"prov"},
	Short:   "Provision and bulk-manage dev VMs",
	Long: `Provision ubuntu-dev VMs and run bulk lifecycle operations.

Dev VMs are named ubuntu-dev-NN with NN between 01 and 40. Each VM gets
the shared vnet, subnet and NSG, a public IP, role-specific cloud-init,
and optionally a data disk.

Examples:
  beectl provision create ubuntu-dev-03
  beectl provision bulk 1 5             # ubuntu-dev-01 .. ubuntu-dev-05
  beectl provision start-all
  beectl provision stop-all             # Deallocate everything`,
}

var provisionCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Provision a single dev VM",
	Long: `Provision one ubuntu-dev VM with its supporting resources.

When a fleet manifest entry exists for the name, the entry supplies the
defaults and flags override them.

Examples:
  beectl provision create ubuntu-dev-03
  beectl provision create ubuntu-dev-04 --size Standard_D2s_v3 --role data
  beectl provision create ubuntu-dev-05 --ip 10.10.1.15 --data-disk 128`,
	Args: cobra.ExactArgs(1),
	RunE: runProvisionCreate,
}

var provisionBulkCmd = &cobra.Command{
	Use:   "bulk <start> <end>",
	Short: "Provision a range of dev VMs",
	Long: `Provision ubuntu-dev-<start> through ubuntu-dev-<end> sequentially.

Ranges ending above 40 are refused before anything deploys.

Examples:
  beectl provision bulk 1 5
  beectl provision bulk 10 12 --role apps`,
	Args: cobra.ExactArgs(2),
	RunE: runProvisionBulk,
}

var provisionStartAllCmd = &cobra.Command{
	Use:   "start-all",
	Short: "Start every VM in the resource group",
	RunE:  runProvisionStartAll,
}

var provisionStopAllCmd = &cobra.Command{
	Use:   "stop-all",
	Short: "Deallocate every VM and wait for completion",
	Long: `Deallocate every VM in the resource group, then poll until all of
them report deallocated. Compute billing stops once deallocation
completes.

Examples:
  beectl provision stop-all`,
	RunE: runProvisionStopAll,
}

var (
	provisionSize     string
	provisionRole     string
	provisionIP       string
	provisionPorts    []int
	provisionDataDisk int32
	provisionManifest string
)

func init() {
	rootCmd.AddCommand(provisionCmd)
	provisionCmd.AddCommand(provisionCreateCmd)
	provisionCmd.AddCommand(provisionBulkCmd)
	provisionCmd.AddCommand(provisionStartAllCmd)
	provisionCmd.AddCommand(provisionStopAllCmd)

	for _, c := range []*cobra.Command{provisionCreateCmd, provisionBulkCmd} {
		c.Flags().StringVar(&provisionSize, "size", "", "VM size (default "+azure.DefaultSize+")")
		c.Flags().StringVar(&provisionRole, "role", config.RoleDev, "VM role (dev, data, apps, infr)")
		c.Flags().IntSliceVar(&provisionPorts, "port", nil, "Extra inbound ports beyond SSH")
		c.Flags().Int32Var(&provisionDataDisk, "data-disk", 0, "Data disk size in GiB (0 = none)")
		c.Flags().StringVar(&provisionManifest, "manifest", "", "Fleet manifest path")
	}
	provisionCreateCmd.Flags().StringVar(&provisionIP, "ip", "", "Static private IP inside the subnet")
}

// provisionSpec builds the VMSpec for one name, preferring a manifest
// entry when one exists, with flags layered on top. The role flag only
// overrides the entry when the user actually set it: its "dev" default
// would otherwise clobber every non-dev manifest role.
func provisionSpec(cmd *cobra.Command, name string, m *config.Manifest) provider.VMSpec {
	spec := provider.VMSpec{
		Name: name,
		Role: provisionRole,
		Size: provisionSize,
	}

	if m != nil {
		if entry, ok := m.Entry(name); ok {
			spec.Role = entry.Role
			spec.Size = entry.Size
			spec.PrivateIP = entry.PrivateIP
			spec.Ports = entry.Ports
			spec.DataDiskGB = entry.DataDisk
		}
	}

	// Flags override manifest values
	if cmd.Flags().Changed("role") {
		spec.Role = provisionRole
	}
	if provisionSize != "" {
		spec.Size = provisionSize
	}
	if provisionIP != "" {
		spec.PrivateIP = provisionIP
	}
	if len(provisionPorts) > 0 {
		spec.Ports = provisionPorts
	}
	if provisionDataDisk > 0 {
		spec.DataDiskGB = provisionDataDisk
	}
	if spec.Size == "" {
		spec.Size = azure.DefaultSize
	}
	return spec
}

// tryLoadManifest loads the fleet manifest when it exists; a missing
// manifest is fine for provision commands.
func tryLoadManifest() *config.Manifest {
	m, err := config.LoadManifest(manifestPath(provisionManifest))
	if err != nil {
		return nil
	}
	return m
}

func runProvisionCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	name := args[0]

	if err := azure.ValidateDevName(name); err != nil {
		return err
	}

	client, _, err := getClient(ctx)
	if err != nil {
		return err
	}

	m := tryLoadManifest()
	prov := azure.NewProvisioner(client, m)

	fmt.Printf("Provisioning %s...\n", name)
	vm, err := prov.EnsureVM(ctx, provisionSpec(cmd, name, m))
	if err != nil {
		return err
	}

	ui.Successf("Provisioned %s (%s)", vm.Name, vm.PrivateIP)
	return nil
}

func runProvisionBulk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	start, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid start %q", args[0])
	}
	end, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid end %q", args[1])
	}

	names, err := azure.BulkNames(start, end)
	if err != nil {
		return err
	}

	client, _, err := getClient(ctx)
	if err != nil {
		return err
	}

	m := tryLoadManifest()
	prov := azure.NewProvisioner(client, m)

	fmt.Printf("Provisioning %d VMs: %s .. %s\n", len(names), names[0], names[len(names)-1])
	for _, name := range names {
		fmt.Printf("  %s...\n", name)
		if _, err := prov.EnsureVM(ctx, provisionSpec(cmd, name, m)); err != nil {
			return fmt.Errorf("provisioning %s: %w", name, err)
		}
	}

	ui.Successf("Provisioned %d VMs", len(names))
	return nil
}

func runProvisionStartAll(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, _, err := getClient(ctx)
	if err != nil {
		return err
	}

	started, err := azure.NewFleet(client).StartAll(ctx)
	if err != nil {
		return err
	}

	if len(started) == 0 {
		fmt.Println("No VMs to start")
		return nil
	}
	for _, name := range started {
		fmt.Printf("Started %s\n", name)
	}
	return nil
}

func runProvisionStopAll(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, _, err := getClient(ctx)
	if err != nil {
		return err
	}

	stopped, total, err := azure.NewFleet(client).StopAll(ctx)
	if err != nil {
		return err
	}

	if total == 0 {
		fmt.Println("No VMs found")
		return nil
	}

	for _, name := range stopped {
		fmt.Printf("Deallocated %s\n", name)
	}
	ui.Successf("All %d VMs deallocated", total)
	return nil
}
