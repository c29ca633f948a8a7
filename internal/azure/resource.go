package azure

import "strings"

// resourceName returns the trailing name segment of an ARM resource ID.
// Returns the input unchanged when it does not look like an ID.
func resourceName(id string) string {
	if id == "" {
		return ""
	}
	parts := strings.Split(id, "/")
	return parts[len(parts)-1]
}

// resourceGroupOf extracts the resource group segment of an ARM resource ID
func resourceGroupOf(id string) string {
	parts := strings.Split(id, "/")
	for i := 0; i < len(parts)-1; i++ {
		if strings.EqualFold(parts[i], "resourceGroups") {
			return parts[i+1]
		}
	}
	return ""
}
