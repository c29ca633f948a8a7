package azure

import (
	"strings"
	"testing"

	"github.com/beeux/beectl/internal/config"
)

func TestBuildCloudInitDevRole(t *testing.T) {
	out, err := BuildCloudInit(config.RoleDev, "ubuntu-dev-01", "beeux", nil)
	if err != nil {
		t.Fatalf("BuildCloudInit() error = %v", err)
	}

	if !strings.HasPrefix(out, "#cloud-config\n") {
		t.Errorf("payload does not start with #cloud-config:\n%s", out)
	}
	if !strings.Contains(out, "hostname: ubuntu-dev-01") {
		t.Errorf("payload missing hostname:\n%s", out)
	}
	for _, pkg := range []string{"build-essential", "git", "docker.io", "cifs-utils"} {
		if !strings.Contains(out, "- "+pkg) {
			t.Errorf("dev payload missing package %s", pkg)
		}
	}
	if !strings.Contains(out, "usermod -aG docker beeux") {
		t.Errorf("dev payload missing docker group runcmd:\n%s", out)
	}
}

func TestBuildCloudInitInfrRole(t *testing.T) {
	out, err := BuildCloudInit(config.RoleInfr, "ubuntu-dev-10", "beeux", nil)
	if err != nil {
		t.Fatalf("BuildCloudInit() error = %v", err)
	}

	for _, want := range []string{"containerd", "modprobe br_netfilter", "swapoff -a"} {
		if !strings.Contains(out, want) {
			t.Errorf("infr payload missing %q", want)
		}
	}
	if strings.Contains(out, "build-essential") {
		t.Error("infr payload carries dev packages")
	}
}

func TestBuildCloudInitUnknownRole(t *testing.T) {
	if _, err := BuildCloudInit("webscale", "ubuntu-dev-01", "beeux", nil); err == nil {
		t.Fatal("BuildCloudInit() with unknown role succeeded, want error")
	}
}

func TestBuildCloudInitMountDir(t *testing.T) {
	out, err := BuildCloudInit(config.RoleData, "ubuntu-dev-02", "beeux", &MountSpec{
		Account: "beeuxshared",
		Share:   "shared",
	})
	if err != nil {
		t.Fatalf("BuildCloudInit() error = %v", err)
	}
	if !strings.Contains(out, "mkdir -p /mnt/shared") {
		t.Errorf("payload missing share mount dir:\n%s", out)
	}
}

func TestBuildCloudInitEveryRoleMountsCIFS(t *testing.T) {
	for _, role := range config.ValidRoles {
		out, err := BuildCloudInit(role, "ubuntu-dev-01", "beeux", nil)
		if err != nil {
			t.Fatalf("BuildCloudInit(%s) error = %v", role, err)
		}
		if !strings.Contains(out, "- cifs-utils") {
			t.Errorf("role %s payload missing cifs-utils", role)
		}
	}
}
