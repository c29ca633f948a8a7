package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beeux/beectl/internal/azure"
	"github.com/beeux/beectl/internal/ui"
	"github.com/beeux/beectl/pkg/provider"
	"github.com/beeux/beectl/pkg/types"
)

var vmCmd = &cobra.Command{
	Use:   "vm",
	Short: "Manage fleet virtual machines",
	Long: `Manage the virtual machines of the fleet resource group.

Commands operate within the current context. Use 'beectl use <context>'
to switch, or --context for a one-off override.

Examples:
  beectl vm list                 # List all VMs
  beectl vm list -s running      # Only running VMs
  beectl vm get ubuntu-dev-01    # Get VM details
  beectl vm ssh ubuntu-dev-01    # Open an SSH session
  beectl vm start ubuntu-dev-01
  beectl vm stop ubuntu-dev-01   # Deallocate (stops billing)`,
}

var vmListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List virtual machines",
	Long: `List virtual machines in the fleet resource group.

Examples:
  beectl vm list                 # List all VMs
  beectl vm list -s running      # Filter by state
  beectl vm list --name dev      # Filter by name substring
  beectl vm list -r data         # Filter by role tag
  beectl vm list -i              # Interactive selection mode`,
	RunE: runVMList,
}

var vmGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Get VM details",
	Long: `Get detailed information about a specific VM.

Examples:
  beectl vm get ubuntu-dev-01`,
	Args: cobra.ExactArgs(1),
	RunE: runVMGet,
}

var vmStartCmd = &cobra.Command{
	Use:   "start <name>",
	Short: "Start a VM",
	Long: `Start a deallocated or stopped VM.

Examples:
  beectl vm start ubuntu-dev-01`,
	Args: cobra.ExactArgs(1),
	RunE: runVMStart,
}

var vmStopCmd = &cobra.Command{
	Use:   "stop <name>",
	Short: "Stop (deallocate) a VM",
	Long: `Deallocate a VM so it stops accruing compute charges.

With --skip-shutdown the VM is powered off without a guest OS shutdown.
A powered-off VM still bills for its allocated compute.

Examples:
  beectl vm stop ubuntu-dev-01
  beectl vm stop ubuntu-dev-01 --skip-shutdown`,
	Args: cobra.ExactArgs(1),
	RunE: runVMStop,
}

var vmRestartCmd = &cobra.Command{
	Use:     "restart <name>",
	Aliases: []string{"reboot"},
	Short:   "Restart a VM",
	Long: `Restart a running VM.

Examples:
  beectl vm restart ubuntu-dev-01`,
	Args: cobra.ExactArgs(1),
	RunE: runVMRestart,
}

var vmSSHCmd = &cobra.Command{
	Use:   "ssh <name> [-- command...]",
	Short: "SSH into a VM",
	Long: `Open an interactive SSH session to a VM, or run a one-off command.

Examples:
  beectl vm ssh ubuntu-dev-01
  beectl vm ssh ubuntu-dev-01 -- uptime`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVMSSH,
}

var vmRenameCmd = &cobra.Command{
	Use:   "rename <name> <new-hostname>",
	Short: "Rename a VM's OS hostname",
	Long: `Set the guest OS hostname over SSH and record it in the hostname tag.
The Azure resource name cannot change in place, so this renames the
machine as seen from inside, not the ARM resource.

Examples:
  beectl vm rename ubuntu-dev-01 build-box`,
	Args: cobra.ExactArgs(2),
	RunE: runVMRename,
}

var vmDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a VM and its NIC and public IP",
	Long: `Delete a VM together with its network interface and public IP.
Managed disks are detached and survive; remove them separately with
'beectl disk' if they are no longer needed.

Deletion walks a three-step confirmation: the VM name, the word DELETE,
and a final acknowledgement.

Examples:
  beectl vm delete ubuntu-dev-02`,
	Args: cobra.ExactArgs(1),
	RunE: runVMDelete,
}

var (
	vmListState       string
	vmListName        string
	vmListRole        string
	vmListInteractive bool
	vmStopSkip        bool
)

func init() {
	rootCmd.AddCommand(vmCmd)
	vmCmd.AddCommand(vmListCmd)
	vmCmd.AddCommand(vmGetCmd)
	vmCmd.AddCommand(vmStartCmd)
	vmCmd.AddCommand(vmStopCmd)
	vmCmd.AddCommand(vmRestartCmd)
	vmCmd.AddCommand(vmSSHCmd)
	vmCmd.AddCommand(vmRenameCmd)
	vmCmd.AddCommand(vmDeleteCmd)

	vmListCmd.Flags().StringVarP(&vmListState, "state", "s", "", "Filter by state (running, deallocated, all)")
	vmListCmd.Flags().StringVar(&vmListName, "name", "", "Filter by name substring")
	vmListCmd.Flags().StringVarP(&vmListRole, "role", "r", "", "Filter by role tag (dev, data, apps, infr)")
	vmListCmd.Flags().BoolVarP(&vmListInteractive, "interactive", "i", false, "Interactive selection mode")

	vmStopCmd.Flags().BoolVar(&vmStopSkip, "skip-shutdown", false, "Power off without a guest shutdown")
}

func getVMProvider(ctx context.Context) (*azure.VMProvider, error) {
	client, _, err := getClient(ctx)
	if err != nil {
		return nil, err
	}
	return azure.NewVMProvider(client), nil
}

func runVMList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	vmProvider, err := getVMProvider(ctx)
	if err != nil {
		return err
	}

	filter := &provider.VMFilter{
		Name: vmListName,
		Role: vmListRole,
	}
	if vmListState != "" && vmListState != "all" {
		filter.State = vmListState
	}

	vms, err := vmProvider.List(ctx, filter)
	if err != nil {
		return err
	}

	if len(vms) == 0 {
		fmt.Println("No VMs found")
		return nil
	}

	if vmListInteractive {
		vm, action, err := ui.SelectVM(vms)
		if err != nil {
			return nil // cancelled — silent exit
		}
		switch action {
		case ui.VMActionConnect:
			fmt.Printf("Connecting to %s...\n", vm.Name)
			return vmProvider.SSH(ctx, vm.Name, nil)
		case ui.VMActionStart:
			if err := vmProvider.Start(ctx, vm.Name); err != nil {
				return err
			}
			fmt.Printf("Started VM: %s\n", vm.Name)
		case ui.VMActionStop:
			if err := vmProvider.Stop(ctx, vm.Name, false); err != nil {
				return err
			}
			fmt.Printf("Deallocated VM: %s\n", vm.Name)
		}
		return nil
	}

	ui.PrintVMTable(vms)

	return nil
}

func runVMGet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	vmProvider, err := getVMProvider(ctx)
	if err != nil {
		return err
	}

	vm, err := vmProvider.Get(ctx, args[0])
	if err != nil {
		return err
	}

	printVMDetails(vm)

	return nil
}

func runVMStart(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	vmProvider, err := getVMProvider(ctx)
	if err != nil {
		return err
	}

	if err := vmProvider.Start(ctx, args[0]); err != nil {
		return err
	}

	fmt.Printf("Started VM: %s\n", args[0])
	return nil
}

func runVMStop(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	vmProvider, err := getVMProvider(ctx)
	if err != nil {
		return err
	}

	if err := vmProvider.Stop(ctx, args[0], vmStopSkip); err != nil {
		return err
	}

	if vmStopSkip {
		fmt.Printf("Powered off VM: %s (still allocated)\n", args[0])
	} else {
		fmt.Printf("Deallocated VM: %s\n", args[0])
	}
	return nil
}

func runVMRestart(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	vmProvider, err := getVMProvider(ctx)
	if err != nil {
		return err
	}

	if err := vmProvider.Restart(ctx, args[0]); err != nil {
		return err
	}

	fmt.Printf("Restarted VM: %s\n", args[0])
	return nil
}

func runVMSSH(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if !azure.HaveSSH() {
		return fmt.Errorf("ssh not found in PATH")
	}

	vmProvider, err := getVMProvider(ctx)
	if err != nil {
		return err
	}

	var command []string
	if len(args) > 1 {
		command = args[1:]
	}

	return vmProvider.SSH(ctx, args[0], command)
}

func runVMRename(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	vmProvider, err := getVMProvider(ctx)
	if err != nil {
		return err
	}

	if err := vmProvider.Rename(ctx, args[0], args[1]); err != nil {
		return err
	}

	fmt.Printf("Renamed %s hostname to %s\n", args[0], args[1])
	return nil
}

func runVMDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	name := args[0]

	vmProvider, err := getVMProvider(ctx)
	if err != nil {
		return err
	}

	// Fail before prompting when the VM does not exist
	if _, err := vmProvider.Get(ctx, name); err != nil {
		return err
	}

	if err := ui.ConfirmDeletion(name); err != nil {
		fmt.Println("Deletion cancelled")
		return nil
	}

	if err := vmProvider.Delete(ctx, name); err != nil {
		return err
	}

	ui.Successf("Deleted VM %s (data disks detached, not deleted)", name)
	return nil
}

func printVMDetails(vm *types.VM) {
	fmt.Println()
	fmt.Println(ui.HeaderStyle.Render("VM Details"))
	fmt.Println(ui.MutedStyle.Render("───────────────────────────────"))
	fmt.Printf("  Name:       %s\n", ui.NameStyle.Render(vm.Name))
	fmt.Printf("  State:      %s\n", formatVMStateText(string(vm.State)))
	fmt.Printf("  Size:       %s\n", vm.Size)
	fmt.Printf("  Location:   %s\n", vm.Location)
	fmt.Printf("  Group:      %s\n", vm.ResourceGroup)
	if vm.Role != "" {
		fmt.Printf("  Role:       %s\n", vm.Role)
	}
	if vm.PrivateIP != "" {
		fmt.Printf("  Private IP: %s\n", vm.PrivateIP)
	}
	if vm.PublicIP != "" {
		fmt.Printf("  Public IP:  %s\n", vm.PublicIP)
	}
	if vm.AdminUser != "" {
		fmt.Printf("  Admin:      %s\n", vm.AdminUser)
	}
	if vm.OSDisk != "" {
		fmt.Printf("  OS Disk:    %s\n", vm.OSDisk)
	}
	for _, d := range vm.DataDisks {
		fmt.Printf("  Data Disk:  %s\n", d)
	}
	if !vm.CreatedAt.IsZero() {
		fmt.Printf("  Created:    %s\n", vm.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	if len(vm.Tags) > 0 {
		fmt.Println()
		fmt.Println(ui.MutedStyle.Render("  Tags:"))
		for k, v := range vm.Tags {
			fmt.Printf("    %s: %s\n", k, v)
		}
	}
}

func formatVMStateText(state string) string {
	switch state {
	case "running":
		return ui.RunningStyle.Render("● running")
	case "starting", "stopping", "deallocating":
		return ui.PendingStyle.Render("◐ " + state)
	case "stopped", "deallocated":
		return ui.StoppedStyle.Render("○ " + state)
	default:
		return state
	}
}
