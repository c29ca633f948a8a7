package azure

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/beeux/beectl/pkg/provider"
	"github.com/beeux/beectl/pkg/types"
)

// Dev VMs are named ubuntu-dev-01 .. ubuntu-dev-40. The ceiling keeps
// a fat-fingered bulk range from provisioning half a subscription.
const (
	DevVMPrefix = "ubuntu-dev-"
	BulkCeiling = 40
	DefaultSize = "Standard_B2s"
)

var devNamePattern = regexp.MustCompile(`^ubuntu-dev-[0-9]{2}$`)

// Deallocation wait loop: fixed interval, fixed ceiling
const (
	deallocPollInterval = 10 * time.Second
	deallocWaitCeiling  = 10 * time.Minute
)

// ValidateDevName checks a single-VM provision name
func ValidateDevName(name string) error {
	if !devNamePattern.MatchString(name) {
		return fmt.Errorf("name %q must match ubuntu-dev-NN (01-40): %w", name, provider.ErrInvalidName)
	}
	return nil
}

// BulkNames expands a bulk range into VM names, refusing ranges that
// are inverted, below 1 or above the fleet ceiling. Validation happens
// before any deployment is attempted.
func BulkNames(start, end int) ([]string, error) {
	if end > BulkCeiling {
		return nil, fmt.Errorf("end %d exceeds ceiling %d: %w", end, BulkCeiling, provider.ErrRangeTooLarge)
	}
	if start < 1 {
		return nil, fmt.Errorf("start %d must be at least 1: %w", start, provider.ErrInvalidName)
	}
	if start > end {
		return nil, fmt.Errorf("start %d is after end %d: %w", start, end, provider.ErrInvalidName)
	}

	names := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		names = append(names, fmt.Sprintf("%s%02d", DevVMPrefix, i))
	}
	return names, nil
}

// Fleet performs whole-resource-group lifecycle operations
type Fleet struct {
	client *Client
	vms    *VMProvider
}

// NewFleet creates a fleet controller for the configured resource group
func NewFleet(client *Client) *Fleet {
	return &Fleet{client: client, vms: NewVMProvider(client)}
}

// StartAll starts every VM in the resource group that is not already
// running. Returns the names it started.
func (f *Fleet) StartAll(ctx context.Context) ([]string, error) {
	if err := f.client.CheckAuth(ctx); err != nil {
		return nil, err
	}

	vms, err := f.vms.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	var started []string
	for _, vm := range vms {
		if vm.IsRunning() || vm.State == types.VMStateStarting {
			continue
		}
		if err := f.vms.Start(ctx, vm.Name); err != nil {
			return started, err
		}
		started = append(started, vm.Name)
	}
	return started, nil
}

// StopAll deallocates every VM in the resource group, then waits until
// all of them report deallocated. The total return lets callers tell a
// zero-VM group apart from an already-deallocated one.
func (f *Fleet) StopAll(ctx context.Context) (stopped []string, total int, err error) {
	if err := f.client.CheckAuth(ctx); err != nil {
		return nil, 0, err
	}

	vms, err := f.vms.List(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	if len(vms) == 0 {
		return nil, 0, nil
	}

	for _, vm := range vms {
		if vm.IsDeallocated() {
			continue
		}
		if err := f.vms.Stop(ctx, vm.Name, false); err != nil {
			return stopped, len(vms), err
		}
		stopped = append(stopped, vm.Name)
	}

	if err := f.WaitAllDeallocated(ctx); err != nil {
		return stopped, len(vms), err
	}
	return stopped, len(vms), nil
}

// WaitAllDeallocated polls the resource group on a fixed interval
// until every VM is deallocated or the wait ceiling is hit. On timeout
// the error names the VMs still holding compute.
func (f *Fleet) WaitAllDeallocated(ctx context.Context) error {
	deadline := now().Add(deallocWaitCeiling)

	for {
		vms, err := f.vms.List(ctx, nil)
		if err != nil {
			return err
		}

		var pending []string
		for _, vm := range vms {
			if !vm.IsDeallocated() {
				pending = append(pending, vm.Name)
			}
		}
		if len(pending) == 0 {
			return nil
		}

		if now().After(deadline) {
			return fmt.Errorf("still not deallocated after %s: %s: %w",
				deallocWaitCeiling, strings.Join(pending, ", "), provider.ErrWaitTimeout)
		}

		logrus.Debugf("waiting for %d VMs to deallocate: %s", len(pending), strings.Join(pending, ", "))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-afterFunc(deallocPollInterval):
		}
	}
}

// afterFunc is a seam so tests can fake the poll timer
var afterFunc = func(d time.Duration) <-chan time.Time {
	return time.After(d)
}
