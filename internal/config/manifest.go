package config

import (
	"fmt"
	"net"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Roles a fleet VM can take. The role picks the cloud-init payload and
// the default inbound ports.
const (
	RoleDev  = "dev"
	RoleData = "data"
	RoleApps = "apps"
	RoleInfr = "infr"
)

// ValidRoles lists the accepted manifest roles
var ValidRoles = []string{RoleDev, RoleData, RoleApps, RoleInfr}

// NetworkSpec is the shared network block of the manifest
type NetworkSpec struct {
	VNetName   string `yaml:"vnet_name,omitempty"`
	VNetCIDR   string `yaml:"vnet_cidr,omitempty"`
	SubnetName string `yaml:"subnet_name,omitempty"`
	SubnetCIDR string `yaml:"subnet_cidr,omitempty"`
	NSGName    string `yaml:"nsg_name,omitempty"`
}

// StorageSpec is the shared storage block of the manifest
type StorageSpec struct {
	Account string `yaml:"account,omitempty"`
	Share   string `yaml:"share,omitempty"`
	QuotaGB int32  `yaml:"quota_gb,omitempty"`
}

// VMEntry is one VM row of the manifest
type VMEntry struct {
	Name      string `yaml:"name"`
	Role      string `yaml:"role"`
	Size      string `yaml:"size"`
	PrivateIP string `yaml:"private_ip,omitempty"`
	DataDisk  int32  `yaml:"data_disk_gb,omitempty"` // extra managed disk, 0 = none
	Ports     []int  `yaml:"ports,omitempty"`        // extra inbound ports beyond SSH
}

// Manifest is the declarative description of the fleet. It replaces the
// per-VM template copies: one entry per VM, everything else derived.
type Manifest struct {
	Network NetworkSpec `yaml:"network,omitempty"`
	Storage StorageSpec `yaml:"storage,omitempty"`
	VMs     []VMEntry   `yaml:"vms"`
}

// DefaultManifestPath is used when neither the flag nor the config
// defaults name a manifest.
const DefaultManifestPath = "fleet.yaml"

// LoadManifest reads and validates a fleet manifest
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	return &m, nil
}

// DefaultNetwork returns the network block used when the manifest (or a
// manifest-less provision command) leaves it empty.
func DefaultNetwork() NetworkSpec {
	return NetworkSpec{
		VNetName:   "beeux-vnet",
		VNetCIDR:   "10.10.0.0/16",
		SubnetName: "beeux-subnet",
		SubnetCIDR: "10.10.1.0/24",
		NSGName:    "beeux-nsg",
	}
}

func (m *Manifest) applyDefaults() {
	def := DefaultNetwork()
	if m.Network.VNetName == "" {
		m.Network.VNetName = def.VNetName
	}
	if m.Network.VNetCIDR == "" {
		m.Network.VNetCIDR = def.VNetCIDR
	}
	if m.Network.SubnetName == "" {
		m.Network.SubnetName = def.SubnetName
	}
	if m.Network.SubnetCIDR == "" {
		m.Network.SubnetCIDR = def.SubnetCIDR
	}
	if m.Network.NSGName == "" {
		m.Network.NSGName = def.NSGName
	}
	if m.Storage.Share != "" && m.Storage.QuotaGB == 0 {
		m.Storage.QuotaGB = 100
	}
}

// Validate checks the manifest for duplicate names, bad roles and
// private IPs outside the subnet.
func (m *Manifest) Validate() error {
	if len(m.VMs) == 0 {
		return fmt.Errorf("manifest has no vms")
	}

	_, subnet, err := net.ParseCIDR(m.Network.SubnetCIDR)
	if err != nil {
		return fmt.Errorf("bad subnet_cidr %q: %w", m.Network.SubnetCIDR, err)
	}

	seen := make(map[string]bool, len(m.VMs))
	seenIP := make(map[string]string)
	for _, vm := range m.VMs {
		if vm.Name == "" {
			return fmt.Errorf("vm entry with empty name")
		}
		if seen[vm.Name] {
			return fmt.Errorf("duplicate vm name %q", vm.Name)
		}
		seen[vm.Name] = true

		if !validRole(vm.Role) {
			return fmt.Errorf("vm %q: unknown role %q (valid: %v)", vm.Name, vm.Role, ValidRoles)
		}
		if vm.Size == "" {
			return fmt.Errorf("vm %q: size is required", vm.Name)
		}

		if vm.PrivateIP != "" {
			ip := net.ParseIP(vm.PrivateIP)
			if ip == nil {
				return fmt.Errorf("vm %q: bad private_ip %q", vm.Name, vm.PrivateIP)
			}
			if !subnet.Contains(ip) {
				return fmt.Errorf("vm %q: private_ip %s outside subnet %s", vm.Name, vm.PrivateIP, m.Network.SubnetCIDR)
			}
			if other, dup := seenIP[vm.PrivateIP]; dup {
				return fmt.Errorf("vm %q: private_ip %s already used by %q", vm.Name, vm.PrivateIP, other)
			}
			seenIP[vm.PrivateIP] = vm.Name
		}

		for _, p := range vm.Ports {
			if p < 1 || p > 65535 {
				return fmt.Errorf("vm %q: bad port %d", vm.Name, p)
			}
		}
	}

	return nil
}

// Names returns the manifest VM names, sorted
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.VMs))
	for _, vm := range m.VMs {
		names = append(names, vm.Name)
	}
	sort.Strings(names)
	return names
}

// Entry returns the manifest row for a VM name
func (m *Manifest) Entry(name string) (*VMEntry, bool) {
	for i := range m.VMs {
		if m.VMs[i].Name == name {
			return &m.VMs[i], true
		}
	}
	return nil, false
}

func validRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
