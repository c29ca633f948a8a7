package azure

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"

	"github.com/beeux/beectl/pkg/provider"
	"github.com/beeux/beectl/pkg/types"
)

// DiskProvider implements provider.DiskProvider for managed disks
type DiskProvider struct {
	client *Client
}

// NewDiskProvider creates a new managed disk provider
func NewDiskProvider(client *Client) *DiskProvider {
	return &DiskProvider{client: client}
}

// API call seams, replaced in tests
var (
	listManagedDisks = func(ctx context.Context, c *Client) ([]*armcompute.Disk, error) {
		var disks []*armcompute.Disk
		pager := c.Disks.NewListByResourceGroupPager(c.resourceGroup, nil)
		for pager.More() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			disks = append(disks, page.Value...)
		}
		return disks, nil
	}

	getManagedDisk = func(ctx context.Context, c *Client, name string) (*armcompute.Disk, error) {
		resp, err := c.Disks.Get(ctx, c.resourceGroup, name, nil)
		if err != nil {
			return nil, err
		}
		return &resp.Disk, nil
	}

	createSnapshot = func(ctx context.Context, c *Client, name, sourceDiskID string) (*armcompute.Snapshot, error) {
		poller, err := c.Snapshots.BeginCreateOrUpdate(ctx, c.resourceGroup, name, armcompute.Snapshot{
			Location: to.Ptr(c.location),
			Properties: &armcompute.SnapshotProperties{
				CreationData: &armcompute.CreationData{
					CreateOption:     to.Ptr(armcompute.DiskCreateOptionCopy),
					SourceResourceID: to.Ptr(sourceDiskID),
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
		return &resp.Snapshot, nil
	}
)

// List returns all managed disks in the fleet resource group
func (p *DiskProvider) List(ctx context.Context) ([]types.Disk, error) {
	raw, err := listManagedDisks(ctx, p.client)
	if err != nil {
		return nil, fmt.Errorf("failed to list disks: %w", err)
	}

	disks := make([]types.Disk, 0, len(raw))
	for _, r := range raw {
		disks = append(disks, toDisk(r))
	}
	return disks, nil
}

// Attach adds the disk to the VM as a data disk on the given LUN.
// DeleteOption is Detach so a later VM deletion leaves the disk behind.
func (p *DiskProvider) Attach(ctx context.Context, vmName, diskName string, lun int32) error {
	disk, err := getManagedDisk(ctx, p.client, diskName)
	if err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("disk %s: %w", diskName, provider.ErrNotFound)
		}
		return fmt.Errorf("failed to get disk %s: %w", diskName, err)
	}
	if disk.ID == nil {
		return fmt.Errorf("disk %s has no ID", diskName)
	}

	return attachDataDisk(ctx, p.client, vmName, diskName, *disk.ID, lun)
}

// Detach removes the disk from the VM, leaving the disk itself intact
func (p *DiskProvider) Detach(ctx context.Context, vmName, diskName string) error {
	vm, err := getVirtualMachine(ctx, p.client, vmName)
	if err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("VM %s: %w", vmName, provider.ErrNotFound)
		}
		return fmt.Errorf("failed to get VM %s: %w", vmName, err)
	}

	if vm.Properties == nil || vm.Properties.StorageProfile == nil {
		return fmt.Errorf("disk %s is not attached to %s", diskName, vmName)
	}

	var kept []*armcompute.DataDisk
	found := false
	for _, d := range vm.Properties.StorageProfile.DataDisks {
		if d.Name != nil && *d.Name == diskName {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	if !found {
		return fmt.Errorf("disk %s is not attached to %s", diskName, vmName)
	}
	if kept == nil {
		kept = []*armcompute.DataDisk{}
	}

	update := armcompute.VirtualMachineUpdate{
		Properties: &armcompute.VirtualMachineProperties{
			StorageProfile: &armcompute.StorageProfile{DataDisks: kept},
		},
	}
	if err := updateVirtualMachine(ctx, p.client, vmName, update); err != nil {
		return fmt.Errorf("failed to detach disk %s from %s: %w", diskName, vmName, err)
	}
	return nil
}

// Snapshot creates a point-in-time copy of the disk. An empty snapshot
// name defaults to <disk>-snap-<timestamp>.
func (p *DiskProvider) Snapshot(ctx context.Context, diskName, snapshotName string) (*types.Snapshot, error) {
	disk, err := getManagedDisk(ctx, p.client, diskName)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("disk %s: %w", diskName, provider.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get disk %s: %w", diskName, err)
	}
	if disk.ID == nil {
		return nil, fmt.Errorf("disk %s has no ID", diskName)
	}

	if snapshotName == "" {
		snapshotName = fmt.Sprintf("%s-snap-%s", diskName, now().Format("20060102-150405"))
	}

	raw, err := createSnapshot(ctx, p.client, snapshotName, *disk.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot disk %s: %w", diskName, err)
	}

	snap := &types.Snapshot{Name: snapshotName, SourceDisk: diskName}
	if raw.ID != nil {
		snap.ID = *raw.ID
	}
	if raw.Properties != nil {
		if raw.Properties.DiskSizeGB != nil {
			snap.SizeGB = *raw.Properties.DiskSizeGB
		}
		if raw.Properties.TimeCreated != nil {
			snap.CreatedAt = *raw.Properties.TimeCreated
		}
	}
	return snap, nil
}

// attachDataDisk appends the disk to the VM's data disks. Used by both
// the disk command and the provisioner.
func attachDataDisk(ctx context.Context, c *Client, vmName, diskName, diskID string, lun int32) error {
	vm, err := getVirtualMachine(ctx, c, vmName)
	if err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("VM %s: %w", vmName, provider.ErrNotFound)
		}
		return fmt.Errorf("failed to get VM %s: %w", vmName, err)
	}

	var disks []*armcompute.DataDisk
	if vm.Properties != nil && vm.Properties.StorageProfile != nil {
		disks = vm.Properties.StorageProfile.DataDisks
	}

	for _, d := range disks {
		if d.Name != nil && *d.Name == diskName {
			return nil // already attached
		}
		if d.Lun != nil && *d.Lun == lun {
			taken := ""
			if d.Name != nil {
				taken = *d.Name
			}
			return fmt.Errorf("LUN %d on %s is taken by %s", lun, vmName, taken)
		}
	}

	disks = append(disks, &armcompute.DataDisk{
		Name:         to.Ptr(diskName),
		Lun:          to.Ptr(lun),
		CreateOption: to.Ptr(armcompute.DiskCreateOptionTypesAttach),
		DeleteOption: to.Ptr(armcompute.DiskDeleteOptionTypesDetach),
		ManagedDisk: &armcompute.ManagedDiskParameters{
			ID: to.Ptr(diskID),
		},
	})

	update := armcompute.VirtualMachineUpdate{
		Properties: &armcompute.VirtualMachineProperties{
			StorageProfile: &armcompute.StorageProfile{DataDisks: disks},
		},
	}
	if err := updateVirtualMachine(ctx, c, vmName, update); err != nil {
		return fmt.Errorf("failed to attach disk %s to %s: %w", diskName, vmName, err)
	}
	return nil
}

// toDisk converts an ARM disk to the unified type
func toDisk(raw *armcompute.Disk) types.Disk {
	d := types.Disk{State: types.DiskStateUnknown}

	if raw.ID != nil {
		d.ID = *raw.ID
		d.ResourceGroup = resourceGroupOf(*raw.ID)
	}
	if raw.Name != nil {
		d.Name = *raw.Name
	}
	if raw.Location != nil {
		d.Location = *raw.Location
	}
	if raw.SKU != nil && raw.SKU.Name != nil {
		d.SKU = string(*raw.SKU.Name)
	}
	if raw.ManagedBy != nil {
		d.AttachedTo = resourceName(*raw.ManagedBy)
	}

	if raw.Properties != nil {
		if raw.Properties.DiskSizeGB != nil {
			d.SizeGB = *raw.Properties.DiskSizeGB
		}
		if raw.Properties.TimeCreated != nil {
			d.CreatedAt = *raw.Properties.TimeCreated
		}
		if raw.Properties.OSType != nil {
			d.OSDisk = true
		}
		if raw.Properties.DiskState != nil {
			switch *raw.Properties.DiskState {
			case armcompute.DiskStateAttached:
				d.State = types.DiskStateAttached
			case armcompute.DiskStateUnattached:
				d.State = types.DiskStateUnattached
			case armcompute.DiskStateReserved:
				d.State = types.DiskStateReserved
			}
		}
	}

	return d
}

// now is a seam for snapshot-name timestamps in tests
var now = time.Now
