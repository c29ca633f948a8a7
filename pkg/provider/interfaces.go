package provider

import (
	"context"
	"errors"

	"github.com/beeux/beectl/pkg/types"
)

// Common errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrNotConfigured    = errors.New("context not configured")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrInvalidName      = errors.New("invalid VM name")
	ErrRangeTooLarge    = errors.New("bulk range exceeds fleet ceiling")
	ErrWaitTimeout      = errors.New("timed out waiting for deallocation")
	ErrConfirmMismatch  = errors.New("confirmation phrase did not match")
	ErrPermissionDenied = errors.New("permission denied")
)

// VMFilter contains filters for VM listing
type VMFilter struct {
	State string // running, deallocated, etc.
	Name  string // name substring
	Role  string // role tag: dev, data, apps, infr
}

// VMProvider defines the interface for VM lifecycle operations
type VMProvider interface {
	// List returns VMs in the resource group matching the filter
	List(ctx context.Context, filter *VMFilter) ([]types.VM, error)

	// Get returns a single VM by name
	Get(ctx context.Context, name string) (*types.VM, error)

	// Start starts a stopped or deallocated VM
	Start(ctx context.Context, name string) error

	// Stop deallocates a VM; with skipShutdown it only powers off
	Stop(ctx context.Context, name string, skipShutdown bool) error

	// Restart reboots a running VM
	Restart(ctx context.Context, name string) error

	// Delete removes the VM and its NIC and public IP. Data disks are
	// detached, never deleted.
	Delete(ctx context.Context, name string) error

	// SSH opens an interactive session (or runs command when non-empty)
	SSH(ctx context.Context, name string, command []string) error

	// Rename sets the OS hostname over SSH and records it in the
	// hostname tag on the VM
	Rename(ctx context.Context, name, newHostname string) error
}

// VMSpec describes one VM to provision
type VMSpec struct {
	Name       string
	Role       string
	Size       string
	PrivateIP  string // empty means dynamic allocation
	Ports      []int  // extra inbound ports beyond SSH
	DataDiskGB int32  // extra managed disk size, 0 = none
}

// Provisioner creates and tears down VMs and their supporting resources
type Provisioner interface {
	// EnsureVM creates the VM and everything it needs (vnet, subnet,
	// NSG, public IP, NIC), skipping resources that already exist.
	EnsureVM(ctx context.Context, spec VMSpec) (*types.VM, error)

	// EnsureNetwork creates the shared vnet, subnet and NSG
	EnsureNetwork(ctx context.Context) error

	// DestroyGroup deletes the whole resource group
	DestroyGroup(ctx context.Context) error
}

// DiskProvider manages managed disks and snapshots
type DiskProvider interface {
	List(ctx context.Context) ([]types.Disk, error)
	Attach(ctx context.Context, vmName, diskName string, lun int32) error
	Detach(ctx context.Context, vmName, diskName string) error
	Snapshot(ctx context.Context, diskName, snapshotName string) (*types.Snapshot, error)
}

// NSGProvider manages network security group rules
type NSGProvider interface {
	ListRules(ctx context.Context) ([]types.NSGRule, error)
	AllowInbound(ctx context.Context, port int, sourcePrefix, ruleName string) error
	RevokeRule(ctx context.Context, ruleName string) error
}

// ShareProvider manages the Azure Files share used by the fleet
type ShareProvider interface {
	// Keys returns the storage account access keys
	Keys(ctx context.Context) ([]types.AccountKey, error)

	// Shares lists file shares in the fleet storage account
	Shares(ctx context.Context) ([]types.FileShare, error)

	// MountCommand renders the cifs mount command for a share
	MountCommand(ctx context.Context, mountPoint string) (string, error)

	// Mount runs the mount command on a VM over SSH
	Mount(ctx context.Context, vmName, mountPoint string) error
}
