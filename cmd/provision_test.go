package cmd

import (
	"testing"

	"github.com/beeux/beectl/internal/config"
)

func resetProvisionFlags(t *testing.T) {
	t.Helper()
	saved := struct {
		size     string
		role     string
		ip       string
		ports    []int
		dataDisk int32
	}{provisionSize, provisionRole, provisionIP, provisionPorts, provisionDataDisk}
	t.Cleanup(func() {
		provisionSize = saved.size
		provisionRole = saved.role
		provisionIP = saved.ip
		provisionPorts = saved.ports
		provisionDataDisk = saved.dataDisk
		for _, name := range []string{"size", "role", "ip", "port", "data-disk"} {
			if f := provisionCreateCmd.Flags().Lookup(name); f != nil {
				f.Changed = false
			}
		}
	})
}

func testManifest() *config.Manifest {
	return &config.Manifest{
		VMs: []config.VMEntry{
			{Name: "ubuntu-dev-03", Role: config.RoleData, Size: "Standard_E4s_v3", PrivateIP: "10.10.1.13", Ports: []int{5432}, DataDisk: 256},
		},
	}
}

func TestProvisionSpecManifestRoleSurvivesDefaultFlag(t *testing.T) {
	resetProvisionFlags(t)
	provisionRole = config.RoleDev // flag default, user never set it

	spec := provisionSpec(provisionCreateCmd, "ubuntu-dev-03", testManifest())

	if spec.Role != config.RoleData {
		t.Errorf("Role = %q, want %q", spec.Role, config.RoleData)
	}
	if spec.Size != "Standard_E4s_v3" {
		t.Errorf("Size = %q, want Standard_E4s_v3", spec.Size)
	}
	if spec.PrivateIP != "10.10.1.13" {
		t.Errorf("PrivateIP = %q, want 10.10.1.13", spec.PrivateIP)
	}
	if spec.DataDiskGB != 256 {
		t.Errorf("DataDiskGB = %d, want 256", spec.DataDiskGB)
	}
}

func TestProvisionSpecRoleFlagOverridesManifest(t *testing.T) {
	resetProvisionFlags(t)
	if err := provisionCreateCmd.Flags().Set("role", config.RoleApps); err != nil {
		t.Fatalf("Set(role): %v", err)
	}

	spec := provisionSpec(provisionCreateCmd, "ubuntu-dev-03", testManifest())

	if spec.Role != config.RoleApps {
		t.Errorf("Role = %q, want %q", spec.Role, config.RoleApps)
	}
	// The rest of the entry still applies.
	if spec.Size != "Standard_E4s_v3" {
		t.Errorf("Size = %q, want Standard_E4s_v3", spec.Size)
	}
}

func TestProvisionSpecNoManifestEntry(t *testing.T) {
	resetProvisionFlags(t)
	provisionRole = config.RoleDev

	spec := provisionSpec(provisionCreateCmd, "ubuntu-dev-09", testManifest())

	if spec.Role != config.RoleDev {
		t.Errorf("Role = %q, want %q", spec.Role, config.RoleDev)
	}
	if spec.Size == "" {
		t.Error("Size not defaulted")
	}
}
