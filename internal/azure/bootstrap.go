package azure

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/beeux/beectl/internal/config"
)

// MountSpec names the Azure Files share a VM mounts at boot
type MountSpec struct {
	Account string
	Share   string
}

// rolePackages maps a fleet role to the packages cloud-init installs.
// cifs-utils is everywhere so any VM can mount the shared file share.
var rolePackages = map[string][]string{
	config.RoleDev:  {"build-essential", "git", "python3-pip", "docker.io", "cifs-utils"},
	config.RoleData: {"docker.io", "cifs-utils"},
	config.RoleApps: {"docker.io", "nodejs", "npm", "cifs-utils"},
	config.RoleInfr: {"containerd", "apt-transport-https", "ca-certificates", "curl", "gnupg", "socat", "conntrack", "cifs-utils"},
}

// roleRuncmd maps a role to extra boot commands
var roleRuncmd = map[string][]string{
	config.RoleDev: {
		"usermod -aG docker {{.AdminUser}}",
	},
	config.RoleData: {
		"usermod -aG docker {{.AdminUser}}",
		"mkdir -p /data",
	},
	config.RoleApps: {
		"usermod -aG docker {{.AdminUser}}",
	},
	config.RoleInfr: {
		"modprobe overlay",
		"modprobe br_netfilter",
		"printf 'overlay\\nbr_netfilter\\n' > /etc/modules-load.d/k8s.conf",
		"printf 'net.bridge.bridge-nf-call-iptables = 1\\nnet.ipv4.ip_forward = 1\\n' > /etc/sysctl.d/k8s.conf",
		"sysctl --system",
		"swapoff -a",
		"sed -i '/swap/d' /etc/fstab",
	},
}

const cloudInitTemplate = `#cloud-config
hostname: {{.Hostname}}
package_update: true
package_upgrade: false

packages:
{{- range .Packages}}
  - {{.}}
{{- end}}
{{- if .Runcmd}}

runcmd:
{{- range .Runcmd}}
  - {{.}}
{{- end}}
{{- end}}
`

type cloudInitData struct {
	Hostname  string
	AdminUser string
	Packages  []string
	Runcmd    []string
}

// BuildCloudInit renders the role-specific cloud-init payload for a VM.
// The caller base64-encodes it into the OS profile custom data.
func BuildCloudInit(role, hostname, adminUser string, mount *MountSpec) (string, error) {
	packages, ok := rolePackages[role]
	if !ok {
		return "", fmt.Errorf("unknown role %q", role)
	}

	data := cloudInitData{
		Hostname:  hostname,
		AdminUser: adminUser,
		Packages:  packages,
	}

	for _, cmd := range roleRuncmd[role] {
		rendered, err := renderLine(cmd, data)
		if err != nil {
			return "", err
		}
		data.Runcmd = append(data.Runcmd, rendered)
	}

	if mount != nil {
		data.Runcmd = append(data.Runcmd,
			fmt.Sprintf("mkdir -p /mnt/%s", mount.Share))
	}

	tmpl, err := template.New("cloud-init").Parse(cloudInitTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderLine(line string, data cloudInitData) (string, error) {
	tmpl, err := template.New("line").Parse(line)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
