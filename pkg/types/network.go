package types

// NSGRule represents a single network security group rule
type NSGRule struct {
	Name          string `json:"name"`
	Priority      int32  `json:"priority"`
	Direction     string `json:"direction"` // Inbound or Outbound
	Access        string `json:"access"`    // Allow or Deny
	Protocol      string `json:"protocol"`  // Tcp, Udp, *
	SourcePrefix  string `json:"source_prefix"`
	SourcePorts   string `json:"source_ports"`
	DestPrefix    string `json:"dest_prefix"`
	DestPorts     string `json:"dest_ports"`
	Description   string `json:"description,omitempty"`
	DefaultRule   bool   `json:"default_rule"`
	SecurityGroup string `json:"security_group"`
	ResourceGroup string `json:"resource_group"`
}
