package types

import "time"

// DiskState represents the attachment state of a managed disk
type DiskState string

const (
	DiskStateAttached   DiskState = "attached"
	DiskStateUnattached DiskState = "unattached"
	DiskStateReserved   DiskState = "reserved"
	DiskStateUnknown    DiskState = "unknown"
)

// Disk represents an Azure managed disk
type Disk struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ResourceGroup string    `json:"resource_group"`
	Location      string    `json:"location"`
	State         DiskState `json:"state"`
	SizeGB        int32     `json:"size_gb"`
	SKU           string    `json:"sku"`         // Standard_LRS, Premium_LRS, ...
	AttachedTo    string    `json:"attached_to"` // VM name, empty when unattached
	LUN           int32     `json:"lun"`         // Valid only when attached as a data disk
	OSDisk        bool      `json:"os_disk"`
	CreatedAt     time.Time `json:"created_at"`
}

// Snapshot represents a point-in-time copy of a managed disk
type Snapshot struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SourceDisk string    `json:"source_disk"`
	SizeGB     int32     `json:"size_gb"`
	CreatedAt  time.Time `json:"created_at"`
}
