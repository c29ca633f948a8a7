package types

import "time"

// VMState represents the power state of a VM
type VMState string

const (
	VMStateRunning      VMState = "running"
	VMStateStopped      VMState = "stopped"
	VMStateDeallocated  VMState = "deallocated"
	VMStateStarting     VMState = "starting"
	VMStateStopping     VMState = "stopping"
	VMStateDeallocating VMState = "deallocating"
	VMStateUnknown      VMState = "unknown"
)

// VM represents a BeEux development virtual machine
type VM struct {
	ID            string            `json:"id"`             // Full ARM resource ID
	Name          string            `json:"name"`           // Resource name
	State         VMState           `json:"state"`          // Power state
	PrivateIP     string            `json:"private_ip"`     // Private IP address
	PublicIP      string            `json:"public_ip"`      // Public IP address (if any)
	Size          string            `json:"size"`           // VM size (Standard_B2s, ...)
	Location      string            `json:"location"`       // Azure region
	ResourceGroup string            `json:"resource_group"` // Resource group name
	Role          string            `json:"role"`           // role tag: dev, data, apps, infr
	AdminUser     string            `json:"admin_user"`     // OS admin username
	OSDisk        string            `json:"os_disk"`        // OS disk name
	DataDisks     []string          `json:"data_disks"`     // Attached data disk names
	Tags          map[string]string `json:"tags"`           // All resource tags
	CreatedAt     time.Time         `json:"created_at"`     // Time the VM resource was created

	// Raw holds the original API response for provider-specific access
	Raw interface{} `json:"-"`
}

// IsRunning returns true if the VM is running
func (v *VM) IsRunning() bool {
	return v.State == VMStateRunning
}

// IsDeallocated returns true if the VM is deallocated (compute billing stopped)
func (v *VM) IsDeallocated() bool {
	return v.State == VMStateDeallocated
}

// IsTransitioning returns true while the VM is between power states
func (v *VM) IsTransitioning() bool {
	switch v.State {
	case VMStateStarting, VMStateStopping, VMStateDeallocating:
		return true
	}
	return false
}

// GetTag returns a tag value by key
func (v *VM) GetTag(key string) string {
	if v.Tags == nil {
		return ""
	}
	return v.Tags[key]
}
