package azure

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
	"github.com/sirupsen/logrus"

	"github.com/beeux/beectl/pkg/provider"
	"github.com/beeux/beectl/pkg/types"
)

// CIFS mounts are retried a fixed number of times because freshly
// booted VMs occasionally race cloud-init's cifs-utils install.
const (
	mountRetries    = 3
	mountRetryDelay = 5 * time.Second
)

// ShareProvider implements provider.ShareProvider for the fleet's
// storage account and Azure Files share.
type ShareProvider struct {
	client  *Client
	account string
	share   string
	vms     *VMProvider
}

// NewShareProvider creates a share provider for the configured account
func NewShareProvider(client *Client, account, share string) *ShareProvider {
	return &ShareProvider{
		client:  client,
		account: account,
		share:   share,
		vms:     NewVMProvider(client),
	}
}

// API call seams, replaced in tests
var (
	listAccountKeys = func(ctx context.Context, c *Client, account string) ([]*armstorage.AccountKey, error) {
		resp, err := c.Accounts.ListKeys(ctx, c.resourceGroup, account, nil)
		if err != nil {
			return nil, err
		}
		return resp.Keys, nil
	}

	listFileShares = func(ctx context.Context, c *Client, account string) ([]*armstorage.FileShareItem, error) {
		var shares []*armstorage.FileShareItem
		pager := c.Shares.NewListPager(c.resourceGroup, account, nil)
		for pager.More() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			shares = append(shares, page.Value...)
		}
		return shares, nil
	}

	sleep = time.Sleep

	sshRun = func(ctx context.Context, vms *VMProvider, vmName string, command []string) error {
		return vms.SSH(ctx, vmName, command)
	}
)

// Keys returns the storage account access keys
func (p *ShareProvider) Keys(ctx context.Context) ([]types.AccountKey, error) {
	if p.account == "" {
		return nil, fmt.Errorf("no storage account configured: %w", provider.ErrNotConfigured)
	}

	raw, err := listAccountKeys(ctx, p.client, p.account)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("storage account %s: %w", p.account, provider.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to list keys for %s: %w", p.account, err)
	}

	keys := make([]types.AccountKey, 0, len(raw))
	for _, k := range raw {
		key := types.AccountKey{}
		if k.KeyName != nil {
			key.Name = *k.KeyName
		}
		if k.Value != nil {
			key.Value = *k.Value
		}
		if k.Permissions != nil {
			key.Permissions = string(*k.Permissions)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Shares lists the file shares in the fleet storage account
func (p *ShareProvider) Shares(ctx context.Context) ([]types.FileShare, error) {
	if p.account == "" {
		return nil, fmt.Errorf("no storage account configured: %w", provider.ErrNotConfigured)
	}

	raw, err := listFileShares(ctx, p.client, p.account)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares for %s: %w", p.account, err)
	}

	shares := make([]types.FileShare, 0, len(raw))
	for _, s := range raw {
		share := types.FileShare{Account: p.account}
		if s.Name != nil {
			share.Name = *s.Name
		}
		if s.Properties != nil {
			if s.Properties.ShareQuota != nil {
				share.QuotaGB = *s.Properties.ShareQuota
			}
			if s.Properties.AccessTier != nil {
				share.AccessTier = string(*s.Properties.AccessTier)
			}
		}
		shares = append(shares, share)
	}
	return shares, nil
}

// MountCommand renders the cifs mount command for the share, key
// included. Treat the output like a password.
func (p *ShareProvider) MountCommand(ctx context.Context, mountPoint string) (string, error) {
	if p.share == "" {
		return "", fmt.Errorf("no file share configured: %w", provider.ErrNotConfigured)
	}
	if mountPoint == "" {
		mountPoint = "/mnt/" + p.share
	}

	keys, err := p.Keys(ctx)
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "", fmt.Errorf("storage account %s has no keys", p.account)
	}

	cmd := fmt.Sprintf(
		"sudo mkdir -p %s && sudo mount -t cifs //%s.file.core.windows.net/%s %s -o vers=3.0,username=%s,password=%s,dir_mode=0777,file_mode=0777,serverino",
		mountPoint, p.account, p.share, mountPoint, p.account, keys[0].Value,
	)
	return cmd, nil
}

// Mount runs the cifs mount on a VM over SSH, retrying a fixed number
// of times with a fixed delay.
func (p *ShareProvider) Mount(ctx context.Context, vmName, mountPoint string) error {
	cmd, err := p.MountCommand(ctx, mountPoint)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= mountRetries; attempt++ {
		lastErr = sshRun(ctx, p.vms, vmName, []string{cmd})
		if lastErr == nil {
			return nil
		}
		logrus.Debugf("mount attempt %d/%d on %s failed: %v", attempt, mountRetries, vmName, lastErr)
		if attempt < mountRetries {
			sleep(mountRetryDelay)
		}
	}
	return fmt.Errorf("failed to mount %s on %s after %d attempts: %w", p.share, vmName, mountRetries, lastErr)
}
