package azure

import "testing"

func TestResourceName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"/subscriptions/sub/resourceGroups/beeux/providers/Microsoft.Compute/virtualMachines/ubuntu-dev-01", "ubuntu-dev-01"},
		{"/subscriptions/sub/resourceGroups/beeux/providers/Microsoft.Network/networkInterfaces/ubuntu-dev-01-nic", "ubuntu-dev-01-nic"},
		{"plain-name", "plain-name"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := resourceName(tt.id); got != tt.want {
			t.Errorf("resourceName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestResourceGroupOf(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"/subscriptions/sub/resourceGroups/beeux/providers/Microsoft.Compute/disks/data-01", "beeux"},
		{"/subscriptions/sub/resourcegroups/beeux/providers/Microsoft.Compute/disks/data-01", "beeux"},
		{"no-group-here", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := resourceGroupOf(tt.id); got != tt.want {
			t.Errorf("resourceGroupOf(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
