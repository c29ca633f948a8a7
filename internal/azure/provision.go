package azure

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
	"github.com/sirupsen/logrus"

	"github.com/beeux/beectl/internal/config"
	"github.com/beeux/beectl/pkg/provider"
	"github.com/beeux/beectl/pkg/types"
)

// Ubuntu LTS image every fleet VM boots from
var ubuntuImage = armcompute.ImageReference{
	Publisher: to.Ptr("Canonical"),
	Offer:     to.Ptr("0001-com-ubuntu-server-jammy"),
	SKU:       to.Ptr("22_04-lts-gen2"),
	Version:   to.Ptr("latest"),
}

var pollFrequency = &runtime.PollUntilDoneOptions{Frequency: 10 * time.Second}

// Provisioner implements provider.Provisioner: a single parameterized
// VM definition instead of one template copy per machine.
type Provisioner struct {
	client  *Client
	network config.NetworkSpec
	storage config.StorageSpec
}

// NewProvisioner creates a provisioner. A nil manifest falls back to
// the default network block and no storage.
func NewProvisioner(client *Client, m *config.Manifest) *Provisioner {
	p := &Provisioner{
		client:  client,
		network: config.DefaultNetwork(),
	}
	if m != nil {
		p.network = m.Network
		p.storage = m.Storage
	}
	return p
}

// EnsureNetwork creates the resource group, vnet, subnet and NSG if
// they do not exist yet. Safe to call repeatedly.
func (p *Provisioner) EnsureNetwork(ctx context.Context) error {
	if err := p.client.CheckAuth(ctx); err != nil {
		return err
	}
	if err := ensureResourceGroup(ctx, p.client); err != nil {
		return fmt.Errorf("resource group: %w", err)
	}
	if err := ensureVNet(ctx, p.client, p.network); err != nil {
		return fmt.Errorf("virtual network: %w", err)
	}
	if _, err := ensureSubnet(ctx, p.client, p.network); err != nil {
		return fmt.Errorf("subnet: %w", err)
	}
	if _, err := ensureNSG(ctx, p.client, p.network.NSGName); err != nil {
		return fmt.Errorf("network security group: %w", err)
	}
	return nil
}

// EnsureVM provisions one VM plus its public IP and NIC. Resources
// that already exist are reused, so re-running a deploy is cheap.
func (p *Provisioner) EnsureVM(ctx context.Context, spec provider.VMSpec) (*types.VM, error) {
	if err := p.EnsureNetwork(ctx); err != nil {
		return nil, err
	}

	subnetID, err := ensureSubnet(ctx, p.client, p.network)
	if err != nil {
		return nil, fmt.Errorf("subnet: %w", err)
	}
	nsgID, err := ensureNSG(ctx, p.client, p.network.NSGName)
	if err != nil {
		return nil, fmt.Errorf("network security group: %w", err)
	}

	for _, port := range spec.Ports {
		rule := fmt.Sprintf("allow-%s-%d", spec.Name, port)
		if err := NewNSGProvider(p.client, p.network.NSGName).AllowInbound(ctx, port, "*", rule); err != nil {
			return nil, fmt.Errorf("inbound rule for port %d: %w", port, err)
		}
	}

	publicIPID, err := ensurePublicIP(ctx, p.client, spec.Name+"-pip")
	if err != nil {
		return nil, fmt.Errorf("public IP: %w", err)
	}

	nicID, err := ensureNIC(ctx, p.client, spec.Name+"-nic", subnetID, nsgID, publicIPID, spec.PrivateIP)
	if err != nil {
		return nil, fmt.Errorf("NIC: %w", err)
	}

	sshKey, err := p.readSSHPublicKey()
	if err != nil {
		return nil, err
	}

	customData, err := BuildCloudInit(spec.Role, spec.Name, p.client.AdminUser(), p.mountSpec())
	if err != nil {
		return nil, fmt.Errorf("cloud-init: %w", err)
	}

	if err := ensureVirtualMachine(ctx, p.client, spec, nicID, sshKey, customData); err != nil {
		return nil, fmt.Errorf("VM: %w", err)
	}

	if spec.DataDiskGB > 0 {
		diskID, err := ensureDataDisk(ctx, p.client, spec.Name+"-datadisk", spec.DataDiskGB)
		if err != nil {
			return nil, fmt.Errorf("data disk: %w", err)
		}
		if err := attachDataDisk(ctx, p.client, spec.Name, spec.Name+"-datadisk", diskID, 0); err != nil {
			return nil, fmt.Errorf("data disk attach: %w", err)
		}
	}

	if p.storage.Account != "" {
		if err := ensureStorageAccount(ctx, p.client, p.storage); err != nil {
			return nil, fmt.Errorf("storage account: %w", err)
		}
	}

	return NewVMProvider(p.client).Get(ctx, spec.Name)
}

// DestroyGroup deletes the whole fleet resource group
func (p *Provisioner) DestroyGroup(ctx context.Context) error {
	if err := p.client.CheckAuth(ctx); err != nil {
		return err
	}
	return destroyResourceGroup(ctx, p.client)
}

func (p *Provisioner) mountSpec() *MountSpec {
	if p.storage.Account == "" || p.storage.Share == "" {
		return nil
	}
	return &MountSpec{Account: p.storage.Account, Share: p.storage.Share}
}

func (p *Provisioner) readSSHPublicKey() (string, error) {
	path := p.client.SSHKeyPath()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot locate home directory for SSH key: %w", err)
		}
		path = filepath.Join(home, ".ssh", "id_rsa.pub")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read SSH public key %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Provisioning call seams, replaced in tests
var (
	ensureResourceGroup = func(ctx context.Context, c *Client) error {
		_, err := c.Groups.Get(ctx, c.resourceGroup, nil)
		if err == nil {
			return nil
		}
		if !IsNotFound(err) {
			return err
		}

		logrus.Debugf("creating resource group %s in %s", c.resourceGroup, c.location)
		_, err = c.Groups.CreateOrUpdate(ctx, c.resourceGroup, armresources.ResourceGroup{
			Location: to.Ptr(c.location),
			Tags:     map[string]*string{"project": to.Ptr("beeux")},
		}, nil)
		return err
	}

	destroyResourceGroup = func(ctx context.Context, c *Client) error {
		poller, err := c.Groups.BeginDelete(ctx, c.resourceGroup, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, pollFrequency)
		return err
	}

	ensureVNet = func(ctx context.Context, c *Client, net config.NetworkSpec) error {
		_, err := c.VNets.Get(ctx, c.resourceGroup, net.VNetName, nil)
		if err == nil {
			return nil
		}
		if !IsNotFound(err) {
			return err
		}

		poller, err := c.VNets.BeginCreateOrUpdate(ctx, c.resourceGroup, net.VNetName, armnetwork.VirtualNetwork{
			Location: to.Ptr(c.location),
			Properties: &armnetwork.VirtualNetworkPropertiesFormat{
				AddressSpace: &armnetwork.AddressSpace{
					AddressPrefixes: []*string{to.Ptr(net.VNetCIDR)},
				},
			},
		}, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, pollFrequency)
		return err
	}

	ensureSubnet = func(ctx context.Context, c *Client, net config.NetworkSpec) (string, error) {
		existing, err := c.Subnets.Get(ctx, c.resourceGroup, net.VNetName, net.SubnetName, nil)
		if err == nil {
			if existing.ID == nil {
				return "", fmt.Errorf("subnet %s has no ID", net.SubnetName)
			}
			return *existing.ID, nil
		}
		if !IsNotFound(err) {
			return "", err
		}

		poller, err := c.Subnets.BeginCreateOrUpdate(ctx, c.resourceGroup, net.VNetName, net.SubnetName, armnetwork.Subnet{
			Properties: &armnetwork.SubnetPropertiesFormat{
				AddressPrefix: to.Ptr(net.SubnetCIDR),
			},
		}, nil)
		if err != nil {
			return "", err
		}
		resp, err := poller.PollUntilDone(ctx, pollFrequency)
		if err != nil {
			return "", err
		}
		if resp.ID == nil {
			return "", fmt.Errorf("subnet %s has no ID", net.SubnetName)
		}
		return *resp.ID, nil
	}

	ensureNSG = func(ctx context.Context, c *Client, name string) (string, error) {
		existing, err := c.NSGs.Get(ctx, c.resourceGroup, name, nil)
		if err == nil {
			if existing.ID == nil {
				return "", fmt.Errorf("NSG %s has no ID", name)
			}
			return *existing.ID, nil
		}
		if !IsNotFound(err) {
			return "", err
		}

		poller, err := c.NSGs.BeginCreateOrUpdate(ctx, c.resourceGroup, name, armnetwork.SecurityGroup{
			Location: to.Ptr(c.location),
			Properties: &armnetwork.SecurityGroupPropertiesFormat{
				SecurityRules: []*armnetwork.SecurityRule{
					{
						Name: to.Ptr("allow-ssh"),
						Properties: &armnetwork.SecurityRulePropertiesFormat{
							Description:              to.Ptr("inbound SSH to the fleet"),
							Protocol:                 to.Ptr(armnetwork.SecurityRuleProtocolTCP),
							Access:                   to.Ptr(armnetwork.SecurityRuleAccessAllow),
							Direction:                to.Ptr(armnetwork.SecurityRuleDirectionInbound),
							Priority:                 to.Ptr[int32](1000),
							SourceAddressPrefix:      to.Ptr("*"),
							SourcePortRange:          to.Ptr("*"),
							DestinationAddressPrefix: to.Ptr("*"),
							DestinationPortRange:     to.Ptr("22"),
						},
					},
				},
			},
		}, nil)
		if err != nil {
			return "", err
		}
		resp, err := poller.PollUntilDone(ctx, pollFrequency)
		if err != nil {
			return "", err
		}
		if resp.ID == nil {
			return "", fmt.Errorf("NSG %s has no ID", name)
		}
		return *resp.ID, nil
	}

	ensurePublicIP = func(ctx context.Context, c *Client, name string) (string, error) {
		existing, err := c.PublicIPs.Get(ctx, c.resourceGroup, name, nil)
		if err == nil {
			if existing.ID == nil {
				return "", fmt.Errorf("public IP %s has no ID", name)
			}
			return *existing.ID, nil
		}
		if !IsNotFound(err) {
			return "", err
		}

		poller, err := c.PublicIPs.BeginCreateOrUpdate(ctx, c.resourceGroup, name, armnetwork.PublicIPAddress{
			Location: to.Ptr(c.location),
			SKU: &armnetwork.PublicIPAddressSKU{
				Name: to.Ptr(armnetwork.PublicIPAddressSKUNameStandard),
			},
			Properties: &armnetwork.PublicIPAddressPropertiesFormat{
				PublicIPAllocationMethod: to.Ptr(armnetwork.IPAllocationMethodStatic),
				PublicIPAddressVersion:   to.Ptr(armnetwork.IPVersionIPv4),
			},
		}, nil)
		if err != nil {
			return "", err
		}
		resp, err := poller.PollUntilDone(ctx, pollFrequency)
		if err != nil {
			return "", err
		}
		if resp.ID == nil {
			return "", fmt.Errorf("public IP %s has no ID", name)
		}
		return *resp.ID, nil
	}

	ensureNIC = func(ctx context.Context, c *Client, name, subnetID, nsgID, publicIPID, staticIP string) (string, error) {
		existing, err := c.NICs.Get(ctx, c.resourceGroup, name, nil)
		if err == nil {
			if existing.ID == nil {
				return "", fmt.Errorf("NIC %s has no ID", name)
			}
			return *existing.ID, nil
		}
		if !IsNotFound(err) {
			return "", err
		}

		ipConfig := &armnetwork.InterfaceIPConfigurationPropertiesFormat{
			Subnet:          &armnetwork.Subnet{ID: to.Ptr(subnetID)},
			PublicIPAddress: &armnetwork.PublicIPAddress{ID: to.Ptr(publicIPID)},
		}
		if staticIP != "" {
			ipConfig.PrivateIPAllocationMethod = to.Ptr(armnetwork.IPAllocationMethodStatic)
			ipConfig.PrivateIPAddress = to.Ptr(staticIP)
		} else {
			ipConfig.PrivateIPAllocationMethod = to.Ptr(armnetwork.IPAllocationMethodDynamic)
		}

		poller, err := c.NICs.BeginCreateOrUpdate(ctx, c.resourceGroup, name, armnetwork.Interface{
			Location: to.Ptr(c.location),
			Properties: &armnetwork.InterfacePropertiesFormat{
				NetworkSecurityGroup: &armnetwork.SecurityGroup{ID: to.Ptr(nsgID)},
				IPConfigurations: []*armnetwork.InterfaceIPConfiguration{
					{
						Name:       to.Ptr("ipconfig1"),
						Properties: ipConfig,
					},
				},
			},
		}, nil)
		if err != nil {
			return "", err
		}
		resp, err := poller.PollUntilDone(ctx, pollFrequency)
		if err != nil {
			return "", err
		}
		if resp.ID == nil {
			return "", fmt.Errorf("NIC %s has no ID", name)
		}
		return *resp.ID, nil
	}

	ensureVirtualMachine = func(ctx context.Context, c *Client, spec provider.VMSpec, nicID, sshKey, cloudInit string) error {
		_, err := c.VMs.Get(ctx, c.resourceGroup, spec.Name, nil)
		if err == nil {
			return nil
		}
		if !IsNotFound(err) {
			return err
		}

		customData := base64.StdEncoding.EncodeToString([]byte(cloudInit))
		sshKeyPath := fmt.Sprintf("/home/%s/.ssh/authorized_keys", c.adminUser)

		logrus.Debugf("creating VM %s (%s, role %s)", spec.Name, spec.Size, spec.Role)
		poller, err := c.VMs.BeginCreateOrUpdate(ctx, c.resourceGroup, spec.Name, armcompute.VirtualMachine{
			Location: to.Ptr(c.location),
			Tags: map[string]*string{
				"project": to.Ptr("beeux"),
				"role":    to.Ptr(spec.Role),
			},
			Properties: &armcompute.VirtualMachineProperties{
				HardwareProfile: &armcompute.HardwareProfile{
					VMSize: to.Ptr(armcompute.VirtualMachineSizeTypes(spec.Size)),
				},
				StorageProfile: &armcompute.StorageProfile{
					ImageReference: &ubuntuImage,
					OSDisk: &armcompute.OSDisk{
						Name:         to.Ptr(spec.Name + "-osdisk"),
						CreateOption: to.Ptr(armcompute.DiskCreateOptionTypesFromImage),
						// Detach: the disk survives VM deletion
						DeleteOption: to.Ptr(armcompute.DiskDeleteOptionTypesDetach),
						ManagedDisk: &armcompute.ManagedDiskParameters{
							StorageAccountType: to.Ptr(armcompute.StorageAccountTypesStandardSSDLRS),
						},
					},
				},
				OSProfile: &armcompute.OSProfile{
					ComputerName:  to.Ptr(spec.Name),
					AdminUsername: to.Ptr(c.adminUser),
					CustomData:    to.Ptr(customData),
					LinuxConfiguration: &armcompute.LinuxConfiguration{
						DisablePasswordAuthentication: to.Ptr(true),
						SSH: &armcompute.SSHConfiguration{
							PublicKeys: []*armcompute.SSHPublicKey{
								{
									Path:    to.Ptr(sshKeyPath),
									KeyData: to.Ptr(sshKey),
								},
							},
						},
					},
				},
				NetworkProfile: &armcompute.NetworkProfile{
					NetworkInterfaces: []*armcompute.NetworkInterfaceReference{
						{
							ID: to.Ptr(nicID),
							Properties: &armcompute.NetworkInterfaceReferenceProperties{
								Primary: to.Ptr(true),
							},
						},
					},
				},
			},
		}, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, &runtime.PollUntilDoneOptions{Frequency: 30 * time.Second})
		return err
	}

	ensureDataDisk = func(ctx context.Context, c *Client, name string, sizeGB int32) (string, error) {
		existing, err := getManagedDisk(ctx, c, name)
		if err == nil {
			if existing.ID == nil {
				return "", fmt.Errorf("disk %s has no ID", name)
			}
			return *existing.ID, nil
		}
		if !IsNotFound(err) {
			return "", err
		}

		created, err := createManagedDisk(ctx, c, name, sizeGB)
		if err != nil {
			return "", err
		}
		if created.ID == nil {
			return "", fmt.Errorf("disk %s has no ID", name)
		}
		return *created.ID, nil
	}

	createManagedDisk = func(ctx context.Context, c *Client, name string, sizeGB int32) (*armcompute.Disk, error) {
		poller, err := c.Disks.BeginCreateOrUpdate(ctx, c.resourceGroup, name, armcompute.Disk{
			Location: to.Ptr(c.location),
			SKU: &armcompute.DiskSKU{
				Name: to.Ptr(armcompute.DiskStorageAccountTypesStandardSSDLRS),
			},
			Properties: &armcompute.DiskProperties{
				DiskSizeGB: to.Ptr(sizeGB),
				CreationData: &armcompute.CreationData{
					CreateOption: to.Ptr(armcompute.DiskCreateOptionEmpty),
				},
			},
		}, nil)
		if err != nil {
			return nil, err
		}
		resp, err := poller.PollUntilDone(ctx, pollFrequency)
		if err != nil {
			return nil, err
		}
		return &resp.Disk, nil
	}

	ensureStorageAccount = func(ctx context.Context, c *Client, spec config.StorageSpec) error {
		_, err := c.Accounts.GetProperties(ctx, c.resourceGroup, spec.Account, nil)
		if err == nil {
			return ensureFileShare(ctx, c, spec)
		}
		if !IsNotFound(err) {
			return err
		}

		poller, err := c.Accounts.BeginCreate(ctx, c.resourceGroup, spec.Account, armstorage.AccountCreateParameters{
			Location: to.Ptr(c.location),
			Kind:     to.Ptr(armstorage.KindStorageV2),
			SKU: &armstorage.SKU{
				Name: to.Ptr(armstorage.SKUNameStandardLRS),
			},
		}, nil)
		if err != nil {
			return err
		}
		if _, err = poller.PollUntilDone(ctx, pollFrequency); err != nil {
			return err
		}
		return ensureFileShare(ctx, c, spec)
	}

	ensureFileShare = func(ctx context.Context, c *Client, spec config.StorageSpec) error {
		if spec.Share == "" {
			return nil
		}
		_, err := c.Shares.Get(ctx, c.resourceGroup, spec.Account, spec.Share, nil)
		if err == nil {
			return nil
		}
		if !IsNotFound(err) {
			return err
		}

		_, err = c.Shares.Create(ctx, c.resourceGroup, spec.Account, spec.Share, armstorage.FileShare{
			FileShareProperties: &armstorage.FileShareProperties{
				ShareQuota: to.Ptr(spec.QuotaGB),
			},
		}, nil)
		return err
	}
)
