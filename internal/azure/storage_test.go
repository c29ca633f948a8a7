package azure

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"

	"github.com/beeux/beectl/pkg/provider"
)

func TestKeysNoAccountConfigured(t *testing.T) {
	p := NewShareProvider(testClient(), "", "")
	_, err := p.Keys(context.Background())
	if !errors.Is(err, provider.ErrNotConfigured) {
		t.Errorf("Keys() error = %v, want ErrNotConfigured", err)
	}
}

func TestKeysMapping(t *testing.T) {
	origKeys := listAccountKeys
	defer func() { listAccountKeys = origKeys }()

	listAccountKeys = func(ctx context.Context, c *Client, account string) ([]*armstorage.AccountKey, error) {
		if account != "beeuxshared" {
			t.Errorf("listAccountKeys account = %q", account)
		}
		return []*armstorage.AccountKey{
			{KeyName: to.Ptr("key1"), Value: to.Ptr("c2VjcmV0MQ=="), Permissions: to.Ptr(armstorage.KeyPermissionFull)},
			{KeyName: to.Ptr("key2"), Value: to.Ptr("c2VjcmV0Mg==")},
		}, nil
	}

	keys, err := NewShareProvider(testClient(), "beeuxshared", "shared").Keys(context.Background())
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("Keys() returned %d keys, want 2", len(keys))
	}
	if keys[0].Name != "key1" || keys[0].Value != "c2VjcmV0MQ==" || keys[0].Permissions != string(armstorage.KeyPermissionFull) {
		t.Errorf("keys[0] = %+v", keys[0])
	}
}

func TestSharesMapping(t *testing.T) {
	origShares := listFileShares
	defer func() { listFileShares = origShares }()

	listFileShares = func(ctx context.Context, c *Client, account string) ([]*armstorage.FileShareItem, error) {
		return []*armstorage.FileShareItem{
			{
				Name: to.Ptr("shared"),
				Properties: &armstorage.FileShareProperties{
					ShareQuota: to.Ptr(int32(100)),
					AccessTier: to.Ptr(armstorage.ShareAccessTierHot),
				},
			},
		}, nil
	}

	shares, err := NewShareProvider(testClient(), "beeuxshared", "shared").Shares(context.Background())
	if err != nil {
		t.Fatalf("Shares() error = %v", err)
	}
	if len(shares) != 1 {
		t.Fatalf("Shares() returned %d shares, want 1", len(shares))
	}
	s := shares[0]
	if s.Name != "shared" || s.Account != "beeuxshared" || s.QuotaGB != 100 || s.AccessTier != "Hot" {
		t.Errorf("Shares()[0] = %+v", s)
	}
}

func TestMountCommand(t *testing.T) {
	origKeys := listAccountKeys
	defer func() { listAccountKeys = origKeys }()

	listAccountKeys = func(ctx context.Context, c *Client, account string) ([]*armstorage.AccountKey, error) {
		return []*armstorage.AccountKey{
			{KeyName: to.Ptr("key1"), Value: to.Ptr("SECRETKEY")},
		}, nil
	}

	p := NewShareProvider(testClient(), "beeuxshared", "shared")
	cmd, err := p.MountCommand(context.Background(), "")
	if err != nil {
		t.Fatalf("MountCommand() error = %v", err)
	}

	want := "sudo mkdir -p /mnt/shared && sudo mount -t cifs //beeuxshared.file.core.windows.net/shared /mnt/shared -o vers=3.0,username=beeuxshared,password=SECRETKEY,dir_mode=0777,file_mode=0777,serverino"
	if cmd != want {
		t.Errorf("MountCommand() =\n%s\nwant\n%s", cmd, want)
	}
}

func TestMountCommandCustomMountPoint(t *testing.T) {
	origKeys := listAccountKeys
	defer func() { listAccountKeys = origKeys }()

	listAccountKeys = func(ctx context.Context, c *Client, account string) ([]*armstorage.AccountKey, error) {
		return []*armstorage.AccountKey{{Value: to.Ptr("K")}}, nil
	}

	p := NewShareProvider(testClient(), "beeuxshared", "shared")
	cmd, err := p.MountCommand(context.Background(), "/srv/data")
	if err != nil {
		t.Fatalf("MountCommand() error = %v", err)
	}
	if !strings.Contains(cmd, "sudo mkdir -p /srv/data") || !strings.Contains(cmd, " /srv/data -o ") {
		t.Errorf("MountCommand() = %q, want /srv/data mount point", cmd)
	}
}

func TestMountRetriesThenFails(t *testing.T) {
	origKeys, origSSH, origSleep := listAccountKeys, sshRun, sleep
	defer func() { listAccountKeys, sshRun, sleep = origKeys, origSSH, origSleep }()

	listAccountKeys = func(ctx context.Context, c *Client, account string) ([]*armstorage.AccountKey, error) {
		return []*armstorage.AccountKey{{Value: to.Ptr("K")}}, nil
	}

	attempts := 0
	sshRun = func(ctx context.Context, vms *VMProvider, vmName string, command []string) error {
		attempts++
		return errors.New("mount error(13): Permission denied")
	}
	var delays []time.Duration
	sleep = func(d time.Duration) { delays = append(delays, d) }

	p := NewShareProvider(testClient(), "beeuxshared", "shared")
	err := p.Mount(context.Background(), "ubuntu-dev-01", "")
	if err == nil {
		t.Fatal("Mount() error = nil, want failure after retries")
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("Mount() error = %v, want mention of 3 attempts", err)
	}
	if attempts != 3 {
		t.Errorf("ssh attempts = %d, want 3", attempts)
	}
	if len(delays) != 2 {
		t.Fatalf("sleep called %d times, want 2", len(delays))
	}
	for _, d := range delays {
		if d != 5*time.Second {
			t.Errorf("sleep delay = %v, want 5s", d)
		}
	}
}

func TestMountSucceedsOnRetry(t *testing.T) {
	origKeys, origSSH, origSleep := listAccountKeys, sshRun, sleep
	defer func() { listAccountKeys, sshRun, sleep = origKeys, origSSH, origSleep }()

	listAccountKeys = func(ctx context.Context, c *Client, account string) ([]*armstorage.AccountKey, error) {
		return []*armstorage.AccountKey{{Value: to.Ptr("K")}}, nil
	}

	attempts := 0
	sshRun = func(ctx context.Context, vms *VMProvider, vmName string, command []string) error {
		attempts++
		if attempts < 2 {
			return errors.New("mount error(13): Permission denied")
		}
		return nil
	}
	sleeps := 0
	sleep = func(time.Duration) { sleeps++ }

	p := NewShareProvider(testClient(), "beeuxshared", "shared")
	if err := p.Mount(context.Background(), "ubuntu-dev-01", ""); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if attempts != 2 {
		t.Errorf("ssh attempts = %d, want 2", attempts)
	}
	if sleeps != 1 {
		t.Errorf("sleep called %d times, want 1", sleeps)
	}
}

func TestMountCommandNoShare(t *testing.T) {
	p := NewShareProvider(testClient(), "beeuxshared", "")
	_, err := p.MountCommand(context.Background(), "")
	if !errors.Is(err, provider.ErrNotConfigured) {
		t.Errorf("MountCommand() error = %v, want ErrNotConfigured", err)
	}
}
