package types

// FileShare represents an Azure Files share inside a storage account
type FileShare struct {
	Name       string `json:"name"`
	Account    string `json:"account"`
	QuotaGB    int32  `json:"quota_gb"`
	AccessTier string `json:"access_tier,omitempty"`
}

// AccountKey is a storage account access key
type AccountKey struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Permissions string `json:"permissions"`
}
