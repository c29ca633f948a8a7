package azure

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"

	"github.com/beeux/beectl/pkg/provider"
	"github.com/beeux/beectl/pkg/types"
)

func TestPowerState(t *testing.T) {
	tests := []struct {
		code string
		want types.VMState
	}{
		{"PowerState/running", types.VMStateRunning},
		{"PowerState/stopped", types.VMStateStopped},
		{"PowerState/deallocated", types.VMStateDeallocated},
		{"PowerState/starting", types.VMStateStarting},
		{"PowerState/stopping", types.VMStateStopping},
		{"PowerState/deallocating", types.VMStateDeallocating},
		{"PowerState/hibernated", types.VMStateUnknown},
		{"ProvisioningState/succeeded", types.VMStateUnknown},
	}

	for _, tt := range tests {
		view := &armcompute.VirtualMachineInstanceView{
			Statuses: []*armcompute.InstanceViewStatus{
				{Code: to.Ptr("ProvisioningState/succeeded")},
				{Code: to.Ptr(tt.code)},
			},
		}
		if got := powerState(view); got != tt.want {
			t.Errorf("powerState(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}

	if got := powerState(&armcompute.VirtualMachineInstanceView{}); got != types.VMStateUnknown {
		t.Errorf("powerState(empty) = %v, want unknown", got)
	}
}

func TestMatchesFilter(t *testing.T) {
	vm := &types.VM{Name: "ubuntu-dev-03", State: types.VMStateRunning, Role: "dev"}

	tests := []struct {
		name   string
		filter *provider.VMFilter
		want   bool
	}{
		{"nil filter", nil, true},
		{"empty filter", &provider.VMFilter{}, true},
		{"state match", &provider.VMFilter{State: "running"}, true},
		{"state mismatch", &provider.VMFilter{State: "deallocated"}, false},
		{"name substring", &provider.VMFilter{Name: "dev-03"}, true},
		{"name mismatch", &provider.VMFilter{Name: "dev-04"}, false},
		{"role match", &provider.VMFilter{Role: "dev"}, true},
		{"role mismatch", &provider.VMFilter{Role: "infr"}, false},
		{"all match", &provider.VMFilter{State: "running", Name: "ubuntu", Role: "dev"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesFilter(vm, tt.filter); got != tt.want {
				t.Errorf("matchesFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToVM(t *testing.T) {
	raw := fakeVM("ubuntu-dev-05", "Standard_B2s", "running")
	raw.Tags = map[string]*string{
		"role":     to.Ptr("dev"),
		"hostname": to.Ptr("builder"),
	}
	raw.Properties.OSProfile = &armcompute.OSProfile{
		AdminUsername: to.Ptr("beeux"),
	}
	raw.Properties.StorageProfile = &armcompute.StorageProfile{
		OSDisk: &armcompute.OSDisk{Name: to.Ptr("ubuntu-dev-05-osdisk")},
		DataDisks: []*armcompute.DataDisk{
			{Name: to.Ptr("ubuntu-dev-05-data")},
		},
	}

	vm := NewVMProvider(testClient()).toVM(context.Background(), raw, false)

	if vm.Name != "ubuntu-dev-05" {
		t.Errorf("Name = %q", vm.Name)
	}
	if vm.State != types.VMStateRunning {
		t.Errorf("State = %v, want running", vm.State)
	}
	if vm.Size != "Standard_B2s" {
		t.Errorf("Size = %q", vm.Size)
	}
	if vm.Role != "dev" {
		t.Errorf("Role = %q, want dev", vm.Role)
	}
	if vm.AdminUser != "beeux" {
		t.Errorf("AdminUser = %q", vm.AdminUser)
	}
	if vm.ResourceGroup != "beeux" {
		t.Errorf("ResourceGroup = %q", vm.ResourceGroup)
	}
	if vm.OSDisk != "ubuntu-dev-05-osdisk" {
		t.Errorf("OSDisk = %q", vm.OSDisk)
	}
	if !reflect.DeepEqual(vm.DataDisks, []string{"ubuntu-dev-05-data"}) {
		t.Errorf("DataDisks = %v", vm.DataDisks)
	}
	if vm.Tags["hostname"] != "builder" {
		t.Errorf("Tags = %v", vm.Tags)
	}
}

func TestListAppliesFilter(t *testing.T) {
	origList := listVirtualMachines
	defer func() { listVirtualMachines = origList }()

	listVirtualMachines = func(ctx context.Context, c *Client) ([]*armcompute.VirtualMachine, error) {
		return []*armcompute.VirtualMachine{
			fakeVM("ubuntu-dev-01", "Standard_B2s", "running"),
			fakeVM("ubuntu-dev-02", "Standard_B2s", "deallocated"),
			fakeVM("ubuntu-dev-03", "Standard_B4ms", "running"),
		}, nil
	}

	vms, err := NewVMProvider(testClient()).List(context.Background(), &provider.VMFilter{State: "running"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(vms) != 2 {
		t.Fatalf("List() returned %d VMs, want 2", len(vms))
	}
	if vms[0].Name != "ubuntu-dev-01" || vms[1].Name != "ubuntu-dev-03" {
		t.Errorf("List() = %s, %s", vms[0].Name, vms[1].Name)
	}
}

func TestGetNotFound(t *testing.T) {
	origGet := getVirtualMachine
	defer func() { getVirtualMachine = origGet }()

	getVirtualMachine = func(ctx context.Context, c *Client, name string) (*armcompute.VirtualMachine, error) {
		return nil, &azcore.ResponseError{StatusCode: http.StatusNotFound}
	}

	_, err := NewVMProvider(testClient()).Get(context.Background(), "ubuntu-dev-99")
	if !errors.Is(err, provider.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestStopSkipShutdown(t *testing.T) {
	origDealloc := deallocateVirtualMachine
	origPowerOff := powerOffVirtualMachine
	defer func() {
		deallocateVirtualMachine = origDealloc
		powerOffVirtualMachine = origPowerOff
	}()

	var deallocated, poweredOff bool
	deallocateVirtualMachine = func(ctx context.Context, c *Client, name string) error {
		deallocated = true
		return nil
	}
	powerOffVirtualMachine = func(ctx context.Context, c *Client, name string) error {
		poweredOff = true
		return nil
	}

	p := NewVMProvider(testClient())

	if err := p.Stop(context.Background(), "ubuntu-dev-01", false); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !deallocated || poweredOff {
		t.Errorf("Stop(skipShutdown=false): deallocated=%v poweredOff=%v", deallocated, poweredOff)
	}

	deallocated, poweredOff = false, false
	if err := p.Stop(context.Background(), "ubuntu-dev-01", true); err != nil {
		t.Fatalf("Stop(skip) error = %v", err)
	}
	if deallocated || !poweredOff {
		t.Errorf("Stop(skipShutdown=true): deallocated=%v poweredOff=%v", deallocated, poweredOff)
	}
}

func TestStopForbidden(t *testing.T) {
	origDealloc := deallocateVirtualMachine
	defer func() { deallocateVirtualMachine = origDealloc }()

	deallocateVirtualMachine = func(ctx context.Context, c *Client, name string) error {
		return &azcore.ResponseError{StatusCode: http.StatusForbidden}
	}

	err := NewVMProvider(testClient()).Stop(context.Background(), "ubuntu-dev-01", false)
	if !errors.Is(err, provider.ErrPermissionDenied) {
		t.Errorf("Stop() error = %v, want ErrPermissionDenied", err)
	}
}

func TestDeleteDetachesDataDisksFirst(t *testing.T) {
	origGet := getVirtualMachine
	origUpdate := updateVirtualMachine
	origDelete := deleteVirtualMachine
	origNic := nicAddresses
	origDelNic := deleteNetworkInterface
	origDelPip := deletePublicIP
	defer func() {
		getVirtualMachine = origGet
		updateVirtualMachine = origUpdate
		deleteVirtualMachine = origDelete
		nicAddresses = origNic
		deleteNetworkInterface = origDelNic
		deletePublicIP = origDelPip
	}()

	nicID := "/subscriptions/sub/resourceGroups/beeux/providers/Microsoft.Network/networkInterfaces/ubuntu-dev-01-nic"
	pipID := "/subscriptions/sub/resourceGroups/beeux/providers/Microsoft.Network/publicIPAddresses/ubuntu-dev-01-pip"

	getVirtualMachine = func(ctx context.Context, c *Client, name string) (*armcompute.VirtualMachine, error) {
		vm := fakeVM(name, "Standard_B2s", "deallocated")
		vm.Properties.StorageProfile = &armcompute.StorageProfile{
			DataDisks: []*armcompute.DataDisk{
				{Name: to.Ptr("ubuntu-dev-01-data"), Lun: to.Ptr(int32(0))},
			},
		}
		vm.Properties.NetworkProfile = &armcompute.NetworkProfile{
			NetworkInterfaces: []*armcompute.NetworkInterfaceReference{
				{ID: to.Ptr(nicID)},
			},
		}
		return vm, nil
	}

	var order []string
	updateVirtualMachine = func(ctx context.Context, c *Client, name string, update armcompute.VirtualMachineUpdate) error {
		if len(update.Properties.StorageProfile.DataDisks) != 0 {
			t.Errorf("detach update still carries %d data disks", len(update.Properties.StorageProfile.DataDisks))
		}
		order = append(order, "detach")
		return nil
	}
	deleteVirtualMachine = func(ctx context.Context, c *Client, name string) error {
		order = append(order, "delete-vm")
		return nil
	}
	nicAddresses = func(ctx context.Context, c *Client, id string) (string, string, error) {
		return "10.10.1.4", pipID, nil
	}
	deleteNetworkInterface = func(ctx context.Context, c *Client, id string) error {
		order = append(order, "delete-nic")
		return nil
	}
	deletePublicIP = func(ctx context.Context, c *Client, id string) error {
		order = append(order, "delete-pip")
		return nil
	}

	if err := NewVMProvider(testClient()).Delete(context.Background(), "ubuntu-dev-01"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	want := []string{"detach", "delete-vm", "delete-nic", "delete-pip"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("Delete() call order = %v, want %v", order, want)
	}
}

func TestDeleteMissingVM(t *testing.T) {
	origGet := getVirtualMachine
	origDelete := deleteVirtualMachine
	defer func() {
		getVirtualMachine = origGet
		deleteVirtualMachine = origDelete
	}()

	getVirtualMachine = func(ctx context.Context, c *Client, name string) (*armcompute.VirtualMachine, error) {
		return nil, &azcore.ResponseError{StatusCode: http.StatusNotFound}
	}
	deleted := false
	deleteVirtualMachine = func(ctx context.Context, c *Client, name string) error {
		deleted = true
		return nil
	}

	err := NewVMProvider(testClient()).Delete(context.Background(), "ubuntu-dev-99")
	if !errors.Is(err, provider.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
	if deleted {
		t.Error("Delete() deleted a VM it could not get")
	}
}
