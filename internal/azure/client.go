package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	azlog "github.com/Azure/azure-sdk-for-go/sdk/azcore/log"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
	"github.com/sirupsen/logrus"
)

// Client wraps the ARM clients used by the fleet commands
type Client struct {
	cred azcore.TokenCredential

	subscription  string
	resourceGroup string
	location      string
	adminUser     string
	sshKeyPath    string

	VMs       *armcompute.VirtualMachinesClient
	Disks     *armcompute.DisksClient
	Snapshots *armcompute.SnapshotsClient
	NICs      *armnetwork.InterfacesClient
	PublicIPs *armnetwork.PublicIPAddressesClient
	VNets     *armnetwork.VirtualNetworksClient
	Subnets   *armnetwork.SubnetsClient
	NSGs      *armnetwork.SecurityGroupsClient
	Rules     *armnetwork.SecurityRulesClient
	Groups    *armresources.ResourceGroupsClient
	Accounts  *armstorage.AccountsClient
	Shares    *armstorage.FileSharesClient
	Subs      *armsubscriptions.Client
}

// ClientOption allows customizing the Azure Client
type ClientOption func(*Client)

// WithSubscription sets the subscription ID for the client
func WithSubscription(id string) ClientOption {
	return func(c *Client) {
		c.subscription = id
	}
}

// WithResourceGroup sets the fleet resource group
func WithResourceGroup(rg string) ClientOption {
	return func(c *Client) {
		c.resourceGroup = rg
	}
}

// WithLocation sets the Azure region
func WithLocation(location string) ClientOption {
	return func(c *Client) {
		c.location = location
	}
}

// WithAdminUser sets the VM admin username used for provisioning and SSH
func WithAdminUser(user string) ClientOption {
	return func(c *Client) {
		c.adminUser = user
	}
}

// WithSSHKeyPath sets the public key installed on provisioned VMs
func WithSSHKeyPath(path string) ClientOption {
	return func(c *Client) {
		c.sshKeyPath = path
	}
}

// NewClient creates a new Azure Client with the given options.
// Credentials come from the Azure CLI token cache, so `az login` is the
// only authentication step the user ever performs.
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	c := &Client{
		adminUser: "beeux",
	}

	// Apply options
	for _, opt := range opts {
		opt(c)
	}

	if c.subscription == "" {
		return nil, fmt.Errorf("no subscription ID configured; add one with 'beectl use add'")
	}

	cred, err := azidentity.NewAzureCLICredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure CLI credential: %w", err)
	}
	c.cred = cred

	if c.VMs, err = armcompute.NewVirtualMachinesClient(c.subscription, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create VM client: %w", err)
	}
	if c.Disks, err = armcompute.NewDisksClient(c.subscription, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create disk client: %w", err)
	}
	if c.Snapshots, err = armcompute.NewSnapshotsClient(c.subscription, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create snapshot client: %w", err)
	}
	if c.NICs, err = armnetwork.NewInterfacesClient(c.subscription, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create NIC client: %w", err)
	}
	if c.PublicIPs, err = armnetwork.NewPublicIPAddressesClient(c.subscription, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create public IP client: %w", err)
	}
	if c.VNets, err = armnetwork.NewVirtualNetworksClient(c.subscription, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create vnet client: %w", err)
	}
	if c.Subnets, err = armnetwork.NewSubnetsClient(c.subscription, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create subnet client: %w", err)
	}
	if c.NSGs, err = armnetwork.NewSecurityGroupsClient(c.subscription, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create NSG client: %w", err)
	}
	if c.Rules, err = armnetwork.NewSecurityRulesClient(c.subscription, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create NSG rule client: %w", err)
	}
	if c.Groups, err = armresources.NewResourceGroupsClient(c.subscription, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create resource group client: %w", err)
	}
	if c.Accounts, err = armstorage.NewAccountsClient(c.subscription, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create storage account client: %w", err)
	}
	if c.Shares, err = armstorage.NewFileSharesClient(c.subscription, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create file share client: %w", err)
	}
	if c.Subs, err = armsubscriptions.NewClient(cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create subscriptions client: %w", err)
	}

	return c, nil
}

// Subscription returns the configured subscription ID
func (c *Client) Subscription() string {
	return c.subscription
}

// ResourceGroup returns the fleet resource group name
func (c *Client) ResourceGroup() string {
	return c.resourceGroup
}

// Location returns the configured Azure region
func (c *Client) Location() string {
	return c.location
}

// AdminUser returns the VM admin username
func (c *Client) AdminUser() string {
	return c.adminUser
}

// SSHKeyPath returns the configured public key path
func (c *Client) SSHKeyPath() string {
	return c.sshKeyPath
}

// Credential exposes the token credential for auth probes
func (c *Client) Credential() azcore.TokenCredential {
	return c.cred
}

// EnableDebugLogging forwards SDK request/response events to logrus.
// Wired to the root --debug flag.
func EnableDebugLogging() {
	logrus.SetLevel(logrus.DebugLevel)
	azlog.SetEvents(azlog.EventRequest, azlog.EventResponse, azlog.EventRetryPolicy)
	azlog.SetListener(func(ev azlog.Event, msg string) {
		logrus.WithField("event", string(ev)).Debug(msg)
	})
}
