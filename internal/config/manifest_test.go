package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fleet.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
network:
  subnet_cidr: 10.20.1.0/24
storage:
  account: beeuxshared
  share: shared
vms:
  - name: ubuntu-dev-01
    role: dev
    size: Standard_B2s
    private_ip: 10.20.1.11
    ports: [8080]
  - name: ubuntu-dev-02
    role: data
    size: Standard_B4ms
    data_disk_gb: 256
`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}

	if len(m.VMs) != 2 {
		t.Fatalf("got %d vms, want 2", len(m.VMs))
	}
	if m.VMs[1].DataDisk != 256 {
		t.Errorf("data_disk_gb = %d, want 256", m.VMs[1].DataDisk)
	}

	// Unset network fields fall back to fleet defaults; the explicit
	// subnet CIDR must survive.
	if m.Network.SubnetCIDR != "10.20.1.0/24" {
		t.Errorf("subnet_cidr = %q", m.Network.SubnetCIDR)
	}
	if m.Network.VNetName != "beeux-vnet" || m.Network.NSGName != "beeux-nsg" {
		t.Errorf("network defaults not applied: %+v", m.Network)
	}

	// A share with no quota gets the default
	if m.Storage.QuotaGB != 100 {
		t.Errorf("quota_gb = %d, want 100", m.Storage.QuotaGB)
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("LoadManifest() on a missing file succeeded, want error")
	}
}

func TestManifestValidate(t *testing.T) {
	base := func() *Manifest {
		m := &Manifest{
			VMs: []VMEntry{
				{Name: "ubuntu-dev-01", Role: RoleDev, Size: "Standard_B2s"},
			},
		}
		m.applyDefaults()
		return m
	}

	tests := []struct {
		name    string
		mutate  func(*Manifest)
		wantErr string
	}{
		{"valid", func(m *Manifest) {}, ""},
		{"no vms", func(m *Manifest) { m.VMs = nil }, "no vms"},
		{"empty name", func(m *Manifest) { m.VMs[0].Name = "" }, "empty name"},
		{"duplicate name", func(m *Manifest) {
			m.VMs = append(m.VMs, VMEntry{Name: "ubuntu-dev-01", Role: RoleDev, Size: "Standard_B2s"})
		}, "duplicate vm name"},
		{"unknown role", func(m *Manifest) { m.VMs[0].Role = "webscale" }, "unknown role"},
		{"missing size", func(m *Manifest) { m.VMs[0].Size = "" }, "size is required"},
		{"bad subnet", func(m *Manifest) { m.Network.SubnetCIDR = "not-a-cidr" }, "bad subnet_cidr"},
		{"unparseable ip", func(m *Manifest) { m.VMs[0].PrivateIP = "10.10.1" }, "bad private_ip"},
		{"ip outside subnet", func(m *Manifest) { m.VMs[0].PrivateIP = "192.168.1.5" }, "outside subnet"},
		{"duplicate ip", func(m *Manifest) {
			m.VMs[0].PrivateIP = "10.10.1.11"
			m.VMs = append(m.VMs, VMEntry{Name: "ubuntu-dev-02", Role: RoleDev, Size: "Standard_B2s", PrivateIP: "10.10.1.11"})
		}, "already used"},
		{"bad port", func(m *Manifest) { m.VMs[0].Ports = []int{0} }, "bad port"},
		{"port too high", func(m *Manifest) { m.VMs[0].Ports = []int{70000} }, "bad port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base()
			tt.mutate(m)
			err := m.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestManifestNames(t *testing.T) {
	m := &Manifest{
		VMs: []VMEntry{
			{Name: "ubuntu-dev-03"},
			{Name: "ubuntu-dev-01"},
			{Name: "ubuntu-dev-02"},
		},
	}
	want := []string{"ubuntu-dev-01", "ubuntu-dev-02", "ubuntu-dev-03"}
	if got := m.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestManifestEntry(t *testing.T) {
	m := &Manifest{
		VMs: []VMEntry{
			{Name: "ubuntu-dev-01", Role: RoleDev},
		},
	}

	entry, ok := m.Entry("ubuntu-dev-01")
	if !ok || entry.Role != RoleDev {
		t.Errorf("Entry(ubuntu-dev-01) = %+v, %v", entry, ok)
	}

	if _, ok := m.Entry("ubuntu-dev-99"); ok {
		t.Error("Entry(ubuntu-dev-99) found a ghost entry")
	}
}
