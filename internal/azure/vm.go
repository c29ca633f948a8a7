package azure

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"

	"github.com/beeux/beectl/pkg/provider"
	"github.com/beeux/beectl/pkg/types"
)

// VMProvider implements provider.VMProvider against ARM
type VMProvider struct {
	client *Client
}

// NewVMProvider creates a new Azure VM provider
func NewVMProvider(client *Client) *VMProvider {
	return &VMProvider{client: client}
}

// API call seams, replaced in tests
var (
	listVirtualMachines = func(ctx context.Context, c *Client) ([]*armcompute.VirtualMachine, error) {
		var vms []*armcompute.VirtualMachine
		pager := c.VMs.NewListPager(c.resourceGroup, nil)
		for pager.More() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			vms = append(vms, page.Value...)
		}
		return vms, nil
	}

	getVirtualMachine = func(ctx context.Context, c *Client, name string) (*armcompute.VirtualMachine, error) {
		resp, err := c.VMs.Get(ctx, c.resourceGroup, name, &armcompute.VirtualMachinesClientGetOptions{
			Expand: to.Ptr(armcompute.InstanceViewTypesInstanceView),
		})
		if err != nil {
			return nil, err
		}
		return &resp.VirtualMachine, nil
	}

	getInstanceView = func(ctx context.Context, c *Client, name string) (*armcompute.VirtualMachineInstanceView, error) {
		resp, err := c.VMs.InstanceView(ctx, c.resourceGroup, name, nil)
		if err != nil {
			return nil, err
		}
		return &resp.VirtualMachineInstanceView, nil
	}

	nicAddresses = func(ctx context.Context, c *Client, nicID string) (privateIP, publicIPID string, err error) {
		resp, err := c.NICs.Get(ctx, resourceGroupOf(nicID), resourceName(nicID), nil)
		if err != nil {
			return "", "", err
		}
		if resp.Properties == nil {
			return "", "", nil
		}
		for _, ipc := range resp.Properties.IPConfigurations {
			if ipc.Properties == nil {
				continue
			}
			if ipc.Properties.PrivateIPAddress != nil {
				privateIP = *ipc.Properties.PrivateIPAddress
			}
			if ipc.Properties.PublicIPAddress != nil && ipc.Properties.PublicIPAddress.ID != nil {
				publicIPID = *ipc.Properties.PublicIPAddress.ID
			}
		}
		return privateIP, publicIPID, nil
	}

	publicIPAddress = func(ctx context.Context, c *Client, pipID string) (string, error) {
		resp, err := c.PublicIPs.Get(ctx, resourceGroupOf(pipID), resourceName(pipID), nil)
		if err != nil {
			return "", err
		}
		if resp.Properties == nil || resp.Properties.IPAddress == nil {
			return "", nil
		}
		return *resp.Properties.IPAddress, nil
	}

	startVirtualMachine = func(ctx context.Context, c *Client, name string) error {
		poller, err := c.VMs.BeginStart(ctx, c.resourceGroup, name, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	}

	deallocateVirtualMachine = func(ctx context.Context, c *Client, name string) error {
		poller, err := c.VMs.BeginDeallocate(ctx, c.resourceGroup, name, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	}

	powerOffVirtualMachine = func(ctx context.Context, c *Client, name string) error {
		poller, err := c.VMs.BeginPowerOff(ctx, c.resourceGroup, name, &armcompute.VirtualMachinesClientBeginPowerOffOptions{
			SkipShutdown: to.Ptr(true),
		})
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	}

	restartVirtualMachine = func(ctx context.Context, c *Client, name string) error {
		poller, err := c.VMs.BeginRestart(ctx, c.resourceGroup, name, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	}

	deleteVirtualMachine = func(ctx context.Context, c *Client, name string) error {
		poller, err := c.VMs.BeginDelete(ctx, c.resourceGroup, name, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	}

	updateVirtualMachine = func(ctx context.Context, c *Client, name string, update armcompute.VirtualMachineUpdate) error {
		poller, err := c.VMs.BeginUpdate(ctx, c.resourceGroup, name, update, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	}

	deleteNetworkInterface = func(ctx context.Context, c *Client, nicID string) error {
		poller, err := c.NICs.BeginDelete(ctx, resourceGroupOf(nicID), resourceName(nicID), nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	}

	deletePublicIP = func(ctx context.Context, c *Client, pipID string) error {
		poller, err := c.PublicIPs.BeginDelete(ctx, resourceGroupOf(pipID), resourceName(pipID), nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	}
)

// List returns fleet VMs matching the filter
func (p *VMProvider) List(ctx context.Context, filter *provider.VMFilter) ([]types.VM, error) {
	raw, err := listVirtualMachines(ctx, p.client)
	if err != nil {
		return nil, fmt.Errorf("failed to list VMs: %w", err)
	}

	var vms []types.VM
	for _, r := range raw {
		vm := p.toVM(ctx, r, true)
		if !matchesFilter(&vm, filter) {
			continue
		}
		vms = append(vms, vm)
	}
	return vms, nil
}

// Get returns a single VM by name
func (p *VMProvider) Get(ctx context.Context, name string) (*types.VM, error) {
	raw, err := getVirtualMachine(ctx, p.client, name)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("VM %s: %w", name, provider.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get VM %s: %w", name, err)
	}

	vm := p.toVM(ctx, raw, false)
	return &vm, nil
}

// Start starts a stopped or deallocated VM
func (p *VMProvider) Start(ctx context.Context, name string) error {
	if err := startVirtualMachine(ctx, p.client, name); err != nil {
		return fmt.Errorf("failed to start VM %s: %w", name, permissionErr(err))
	}
	return nil
}

// Stop deallocates the VM so compute billing stops. With skipShutdown
// the VM is only powered off and keeps its allocation (and its bill).
func (p *VMProvider) Stop(ctx context.Context, name string, skipShutdown bool) error {
	if skipShutdown {
		if err := powerOffVirtualMachine(ctx, p.client, name); err != nil {
			return fmt.Errorf("failed to power off VM %s: %w", name, permissionErr(err))
		}
		return nil
	}
	if err := deallocateVirtualMachine(ctx, p.client, name); err != nil {
		return fmt.Errorf("failed to deallocate VM %s: %w", name, permissionErr(err))
	}
	return nil
}

// Restart reboots a running VM
func (p *VMProvider) Restart(ctx context.Context, name string) error {
	if err := restartVirtualMachine(ctx, p.client, name); err != nil {
		return fmt.Errorf("failed to restart VM %s: %w", name, permissionErr(err))
	}
	return nil
}

// Delete removes the VM, then its NIC and public IP. Data disks are
// detached first and survive; the OS disk follows its delete option
// (Detach for everything we provision, so it survives too).
func (p *VMProvider) Delete(ctx context.Context, name string) error {
	raw, err := getVirtualMachine(ctx, p.client, name)
	if err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("VM %s: %w", name, provider.ErrNotFound)
		}
		return fmt.Errorf("failed to get VM %s: %w", name, err)
	}

	// Detach data disks so deletion can never take them along
	if raw.Properties != nil && raw.Properties.StorageProfile != nil &&
		len(raw.Properties.StorageProfile.DataDisks) > 0 {
		update := armcompute.VirtualMachineUpdate{
			Properties: &armcompute.VirtualMachineProperties{
				StorageProfile: &armcompute.StorageProfile{
					DataDisks: []*armcompute.DataDisk{},
				},
			},
		}
		if err := updateVirtualMachine(ctx, p.client, name, update); err != nil {
			return fmt.Errorf("failed to detach data disks from %s: %w", name, err)
		}
	}

	var nicIDs []string
	if raw.Properties != nil && raw.Properties.NetworkProfile != nil {
		for _, ref := range raw.Properties.NetworkProfile.NetworkInterfaces {
			if ref.ID != nil {
				nicIDs = append(nicIDs, *ref.ID)
			}
		}
	}

	if err := deleteVirtualMachine(ctx, p.client, name); err != nil {
		return fmt.Errorf("failed to delete VM %s: %w", name, permissionErr(err))
	}

	for _, nicID := range nicIDs {
		_, publicIPID, err := nicAddresses(ctx, p.client, nicID)
		if err != nil && !IsNotFound(err) {
			return fmt.Errorf("failed to read NIC %s: %w", resourceName(nicID), err)
		}
		if err := deleteNetworkInterface(ctx, p.client, nicID); err != nil && !IsNotFound(err) {
			return fmt.Errorf("failed to delete NIC %s: %w", resourceName(nicID), err)
		}
		if publicIPID != "" {
			if err := deletePublicIP(ctx, p.client, publicIPID); err != nil && !IsNotFound(err) {
				return fmt.Errorf("failed to delete public IP %s: %w", resourceName(publicIPID), err)
			}
		}
	}

	return nil
}

// SSH opens an interactive session to the VM's public IP, or runs the
// given command and returns. Shells out to the local ssh binary.
func (p *VMProvider) SSH(ctx context.Context, name string, command []string) error {
	if !HaveSSH() {
		return fmt.Errorf("ssh binary not found on PATH")
	}

	vm, err := p.Get(ctx, name)
	if err != nil {
		return err
	}
	if vm.PublicIP == "" {
		return fmt.Errorf("VM %s has no public IP (is it deallocated?)", name)
	}

	user := vm.AdminUser
	if user == "" {
		user = p.client.AdminUser()
	}

	args := []string{"-o", "StrictHostKeyChecking=accept-new", fmt.Sprintf("%s@%s", user, vm.PublicIP)}
	args = append(args, command...)

	sshCmd := exec.CommandContext(ctx, "ssh", args...)
	sshCmd.Stdin = os.Stdin
	sshCmd.Stdout = os.Stdout
	sshCmd.Stderr = os.Stderr

	return sshCmd.Run()
}

// Rename sets the OS hostname over SSH and records it in the hostname
// tag. The ARM resource name cannot change without a rebuild.
func (p *VMProvider) Rename(ctx context.Context, name, newHostname string) error {
	if err := p.SSH(ctx, name, []string{"sudo", "hostnamectl", "set-hostname", newHostname}); err != nil {
		return fmt.Errorf("failed to set hostname on %s: %w", name, err)
	}

	raw, err := getVirtualMachine(ctx, p.client, name)
	if err != nil {
		return fmt.Errorf("failed to get VM %s: %w", name, err)
	}

	tags := raw.Tags
	if tags == nil {
		tags = map[string]*string{}
	}
	tags["hostname"] = to.Ptr(newHostname)

	if err := updateVirtualMachine(ctx, p.client, name, armcompute.VirtualMachineUpdate{Tags: tags}); err != nil {
		return fmt.Errorf("failed to update hostname tag on %s: %w", name, err)
	}
	return nil
}

// toVM converts an ARM virtual machine to the unified VM type. When
// fetchView is set the instance view is queried separately (the list
// API does not embed power states).
func (p *VMProvider) toVM(ctx context.Context, raw *armcompute.VirtualMachine, fetchView bool) types.VM {
	vm := types.VM{
		ResourceGroup: p.client.ResourceGroup(),
		State:         types.VMStateUnknown,
		Tags:          map[string]string{},
		Raw:           raw,
	}

	if raw.ID != nil {
		vm.ID = *raw.ID
	}
	if raw.Name != nil {
		vm.Name = *raw.Name
	}
	if raw.Location != nil {
		vm.Location = *raw.Location
	}
	for k, v := range raw.Tags {
		if v != nil {
			vm.Tags[k] = *v
		}
	}
	vm.Role = vm.Tags["role"]

	props := raw.Properties
	if props == nil {
		return vm
	}

	if props.HardwareProfile != nil && props.HardwareProfile.VMSize != nil {
		vm.Size = string(*props.HardwareProfile.VMSize)
	}
	if props.OSProfile != nil && props.OSProfile.AdminUsername != nil {
		vm.AdminUser = *props.OSProfile.AdminUsername
	}
	if props.TimeCreated != nil {
		vm.CreatedAt = *props.TimeCreated
	}
	if props.StorageProfile != nil {
		if props.StorageProfile.OSDisk != nil && props.StorageProfile.OSDisk.Name != nil {
			vm.OSDisk = *props.StorageProfile.OSDisk.Name
		}
		for _, d := range props.StorageProfile.DataDisks {
			if d.Name != nil {
				vm.DataDisks = append(vm.DataDisks, *d.Name)
			}
		}
	}

	view := props.InstanceView
	if view == nil && fetchView && raw.Name != nil {
		if v, err := getInstanceView(ctx, p.client, *raw.Name); err == nil {
			view = v
		}
	}
	if view != nil {
		vm.State = powerState(view)
	}

	if props.NetworkProfile != nil {
		for _, ref := range props.NetworkProfile.NetworkInterfaces {
			if ref.ID == nil {
				continue
			}
			privateIP, publicIPID, err := nicAddresses(ctx, p.client, *ref.ID)
			if err != nil {
				continue
			}
			vm.PrivateIP = privateIP
			if publicIPID != "" {
				if addr, err := publicIPAddress(ctx, p.client, publicIPID); err == nil {
					vm.PublicIP = addr
				}
			}
		}
	}

	return vm
}

// powerState extracts the power state from instance view statuses.
// Status codes look like "PowerState/deallocated".
func powerState(view *armcompute.VirtualMachineInstanceView) types.VMState {
	for _, st := range view.Statuses {
		if st.Code == nil || !strings.HasPrefix(*st.Code, "PowerState/") {
			continue
		}
		switch strings.TrimPrefix(*st.Code, "PowerState/") {
		case "running":
			return types.VMStateRunning
		case "stopped":
			return types.VMStateStopped
		case "deallocated":
			return types.VMStateDeallocated
		case "starting":
			return types.VMStateStarting
		case "stopping":
			return types.VMStateStopping
		case "deallocating":
			return types.VMStateDeallocating
		}
	}
	return types.VMStateUnknown
}

func matchesFilter(vm *types.VM, filter *provider.VMFilter) bool {
	if filter == nil {
		return true
	}
	if filter.State != "" && string(vm.State) != filter.State {
		return false
	}
	if filter.Name != "" && !strings.Contains(vm.Name, filter.Name) {
		return false
	}
	if filter.Role != "" && vm.Role != filter.Role {
		return false
	}
	return true
}
