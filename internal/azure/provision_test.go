package azure

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
	"github.com/beeux/beectl/internal/config"
	"github.com/beeux/beectl/pkg/provider"
)

const testPubKey = "ssh-rsa AAAAB3NzaC1yc2EAAAADAQABAAABgQDtest beeux@workstation"

func provisionClient(t *testing.T) *Client {
	t.Helper()
	keyPath := filepath.Join(t.TempDir(), "id_rsa.pub")
	if err := os.WriteFile(keyPath, []byte(testPubKey+"\n"), 0644); err != nil {
		t.Fatalf("write ssh key: %v", err)
	}
	c := testClient()
	c.sshKeyPath = keyPath
	return c
}

// stubProvisionSeams replaces every provisioning seam with a recorder
// and returns the call log plus a restore func for t.Cleanup.
func stubProvisionSeams(t *testing.T) *[]string {
	t.Helper()

	origRG := ensureResourceGroup
	origVNet := ensureVNet
	origSubnet := ensureSubnet
	origNSG := ensureNSG
	origPIP := ensurePublicIP
	origNIC := ensureNIC
	origVM := ensureVirtualMachine
	origDisk := ensureDataDisk
	origAccount := ensureStorageAccount
	origGetVM := getVirtualMachine
	origUpdate := updateVirtualMachine
	origGetSG := getSecurityGroup
	origPutRule := putSecurityRule
	t.Cleanup(func() {
		ensureResourceGroup = origRG
		ensureVNet = origVNet
		ensureSubnet = origSubnet
		ensureNSG = origNSG
		ensurePublicIP = origPIP
		ensureNIC = origNIC
		ensureVirtualMachine = origVM
		ensureDataDisk = origDisk
		ensureStorageAccount = origAccount
		getVirtualMachine = origGetVM
		updateVirtualMachine = origUpdate
		getSecurityGroup = origGetSG
		putSecurityRule = origPutRule
	})

	calls := &[]string{}
	ensureResourceGroup = func(ctx context.Context, c *Client) error {
		*calls = append(*calls, "resource-group")
		return nil
	}
	ensureVNet = func(ctx context.Context, c *Client, net config.NetworkSpec) error {
		*calls = append(*calls, "vnet")
		return nil
	}
	ensureSubnet = func(ctx context.Context, c *Client, net config.NetworkSpec) (string, error) {
		*calls = append(*calls, "subnet")
		return "subnet-id", nil
	}
	ensureNSG = func(ctx context.Context, c *Client, name string) (string, error) {
		*calls = append(*calls, "nsg "+name)
		return "nsg-id", nil
	}
	ensurePublicIP = func(ctx context.Context, c *Client, name string) (string, error) {
		*calls = append(*calls, "pip "+name)
		return "pip-id", nil
	}
	ensureNIC = func(ctx context.Context, c *Client, name, subnetID, nsgID, publicIPID, staticIP string) (string, error) {
		*calls = append(*calls, "nic "+name+" ip="+staticIP)
		return "nic-id", nil
	}
	ensureVirtualMachine = func(ctx context.Context, c *Client, spec provider.VMSpec, nicID, sshKey, cloudInit string) error {
		if sshKey != testPubKey {
			t.Errorf("ensureVirtualMachine sshKey = %q", sshKey)
		}
		*calls = append(*calls, "vm "+spec.Name)
		return nil
	}
	ensureDataDisk = func(ctx context.Context, c *Client, name string, sizeGB int32) (string, error) {
		*calls = append(*calls, "disk "+name)
		return "disk-id", nil
	}
	ensureStorageAccount = func(ctx context.Context, c *Client, spec config.StorageSpec) error {
		*calls = append(*calls, "storage "+spec.Account)
		return nil
	}
	getVirtualMachine = func(ctx context.Context, c *Client, name string) (*armcompute.VirtualMachine, error) {
		return fakeVM(name, "Standard_B2s", "running"), nil
	}
	updateVirtualMachine = func(ctx context.Context, c *Client, name string, update armcompute.VirtualMachineUpdate) error {
		*calls = append(*calls, "attach "+name)
		return nil
	}
	getSecurityGroup = func(ctx context.Context, c *Client, name string) (*armnetwork.SecurityGroup, error) {
		return nsgWithPriorities(1000), nil
	}
	putSecurityRule = func(ctx context.Context, c *Client, nsgName, ruleName string, rule armnetwork.SecurityRule) error {
		*calls = append(*calls, "rule "+ruleName)
		return nil
	}

	return calls
}

func TestEnsureVM(t *testing.T) {
	calls := stubProvisionSeams(t)

	p := NewProvisioner(provisionClient(t), nil)
	vm, err := p.EnsureVM(context.Background(), provider.VMSpec{
		Name:      "ubuntu-dev-01",
		Role:      config.RoleDev,
		Size:      "Standard_B2s",
		PrivateIP: "10.10.1.11",
		Ports:     []int{8080},
	})
	if err != nil {
		t.Fatalf("EnsureVM() error = %v", err)
	}
	if vm == nil || vm.Name != "ubuntu-dev-01" {
		t.Fatalf("EnsureVM() = %+v", vm)
	}

	want := []string{
		"resource-group",
		"vnet",
		"subnet",
		"nsg beeux-nsg",
		"subnet",
		"nsg beeux-nsg",
		"rule allow-ubuntu-dev-01-8080",
		"pip ubuntu-dev-01-pip",
		"nic ubuntu-dev-01-nic ip=10.10.1.11",
		"vm ubuntu-dev-01",
	}
	if len(*calls) != len(want) {
		t.Fatalf("calls = %v, want %v", *calls, want)
	}
	for i, w := range want {
		if (*calls)[i] != w {
			t.Errorf("calls[%d] = %q, want %q", i, (*calls)[i], w)
		}
	}
}

func TestEnsureVMWithDataDiskAndStorage(t *testing.T) {
	calls := stubProvisionSeams(t)

	m := &config.Manifest{
		Storage: config.StorageSpec{Account: "beeuxshared", Share: "shared"},
		VMs:     []config.VMEntry{{Name: "ubuntu-dev-02", Role: config.RoleData, Size: "Standard_B4ms"}},
	}
	p := NewProvisioner(provisionClient(t), m)

	_, err := p.EnsureVM(context.Background(), provider.VMSpec{
		Name:       "ubuntu-dev-02",
		Role:       config.RoleData,
		Size:       "Standard_B4ms",
		DataDiskGB: 256,
	})
	if err != nil {
		t.Fatalf("EnsureVM() error = %v", err)
	}

	var sawDisk, sawAttach, sawStorage bool
	for _, c := range *calls {
		switch c {
		case "disk ubuntu-dev-02-datadisk":
			sawDisk = true
		case "attach ubuntu-dev-02":
			sawAttach = true
		case "storage beeuxshared":
			sawStorage = true
		}
	}
	if !sawDisk || !sawAttach {
		t.Errorf("data disk not provisioned and attached: %v", *calls)
	}
	if !sawStorage {
		t.Errorf("storage account not ensured: %v", *calls)
	}
}

func TestEnsureVMFailsBeforeMutationsWhenLoggedOut(t *testing.T) {
	calls := stubProvisionSeams(t)

	c := provisionClient(t)
	c.cred = fakeCred{err: os.ErrPermission}
	p := NewProvisioner(c, nil)

	_, err := p.EnsureVM(context.Background(), provider.VMSpec{
		Name: "ubuntu-dev-01",
		Role: config.RoleDev,
		Size: "Standard_B2s",
	})
	if err == nil {
		t.Fatal("EnsureVM() with bad credential succeeded, want error")
	}
	if len(*calls) != 0 {
		t.Errorf("EnsureVM() mutated resources despite failed auth: %v", *calls)
	}
}

func TestDestroyGroup(t *testing.T) {
	orig := destroyResourceGroup
	defer func() { destroyResourceGroup = orig }()

	destroyed := false
	destroyResourceGroup = func(ctx context.Context, c *Client) error {
		destroyed = true
		return nil
	}

	if err := NewProvisioner(testClient(), nil).DestroyGroup(context.Background()); err != nil {
		t.Fatalf("DestroyGroup() error = %v", err)
	}
	if !destroyed {
		t.Error("DestroyGroup() did not delete the resource group")
	}

	destroyed = false
	if err := NewProvisioner(loggedOutClient(), nil).DestroyGroup(context.Background()); err == nil {
		t.Fatal("DestroyGroup() with bad credential succeeded, want error")
	}
	if destroyed {
		t.Error("DestroyGroup() deleted the group despite failed auth")
	}
}

func TestEnsureDataDiskReusesExisting(t *testing.T) {
	origGet, origCreate := getManagedDisk, createManagedDisk
	defer func() { getManagedDisk, createManagedDisk = origGet, origCreate }()

	getManagedDisk = func(ctx context.Context, c *Client, name string) (*armcompute.Disk, error) {
		return &armcompute.Disk{ID: to.Ptr(testDiskID)}, nil
	}
	created := false
	createManagedDisk = func(ctx context.Context, c *Client, name string, sizeGB int32) (*armcompute.Disk, error) {
		created = true
		return nil, errors.New("unexpected create")
	}

	id, err := ensureDataDisk(context.Background(), testClient(), "ubuntu-dev-01-datadisk", 128)
	if err != nil {
		t.Fatalf("ensureDataDisk() error = %v", err)
	}
	if id != testDiskID {
		t.Errorf("ensureDataDisk() = %q, want %q", id, testDiskID)
	}
	if created {
		t.Error("ensureDataDisk() created a disk that already exists")
	}
}

func TestEnsureDataDiskCreatesWhenMissing(t *testing.T) {
	origGet, origCreate := getManagedDisk, createManagedDisk
	defer func() { getManagedDisk, createManagedDisk = origGet, origCreate }()

	getManagedDisk = func(ctx context.Context, c *Client, name string) (*armcompute.Disk, error) {
		return nil, &azcore.ResponseError{StatusCode: http.StatusNotFound}
	}
	var gotSize int32
	createManagedDisk = func(ctx context.Context, c *Client, name string, sizeGB int32) (*armcompute.Disk, error) {
		gotSize = sizeGB
		return &armcompute.Disk{ID: to.Ptr(testDiskID)}, nil
	}

	id, err := ensureDataDisk(context.Background(), testClient(), "ubuntu-dev-01-datadisk", 128)
	if err != nil {
		t.Fatalf("ensureDataDisk() error = %v", err)
	}
	if id != testDiskID {
		t.Errorf("ensureDataDisk() = %q, want %q", id, testDiskID)
	}
	if gotSize != 128 {
		t.Errorf("createManagedDisk sizeGB = %d, want 128", gotSize)
	}
}

func TestEnsureDataDiskPropagatesGetError(t *testing.T) {
	origGet, origCreate := getManagedDisk, createManagedDisk
	defer func() { getManagedDisk, createManagedDisk = origGet, origCreate }()

	getErr := &azcore.ResponseError{StatusCode: http.StatusInternalServerError}
	getManagedDisk = func(ctx context.Context, c *Client, name string) (*armcompute.Disk, error) {
		return nil, getErr
	}
	created := false
	createManagedDisk = func(ctx context.Context, c *Client, name string, sizeGB int32) (*armcompute.Disk, error) {
		created = true
		return nil, errors.New("unexpected create")
	}

	_, err := ensureDataDisk(context.Background(), testClient(), "ubuntu-dev-01-datadisk", 128)
	if !errors.Is(err, getErr) {
		t.Errorf("ensureDataDisk() error = %v, want the lookup error", err)
	}
	if created {
		t.Error("ensureDataDisk() created a disk after a non-404 lookup failure")
	}
}
