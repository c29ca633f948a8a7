package azure

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"

	"github.com/beeux/beectl/pkg/provider"
	"github.com/beeux/beectl/pkg/types"
)

// Custom rules live between these priorities; 1000 is reserved for the
// base allow-ssh rule created with the NSG.
const (
	rulePriorityFloor   = 1100
	rulePriorityCeiling = 4000
)

// NSGProvider implements provider.NSGProvider for one security group
type NSGProvider struct {
	client  *Client
	nsgName string
}

// NewNSGProvider creates a rule provider for the named NSG
func NewNSGProvider(client *Client, nsgName string) *NSGProvider {
	return &NSGProvider{client: client, nsgName: nsgName}
}

// API call seams, replaced in tests
var (
	getSecurityGroup = func(ctx context.Context, c *Client, name string) (*armnetwork.SecurityGroup, error) {
		resp, err := c.NSGs.Get(ctx, c.resourceGroup, name, nil)
		if err != nil {
			return nil, err
		}
		return &resp.SecurityGroup, nil
	}

	putSecurityRule = func(ctx context.Context, c *Client, nsgName, ruleName string, rule armnetwork.SecurityRule) error {
		poller, err := c.Rules.BeginCreateOrUpdate(ctx, c.resourceGroup, nsgName, ruleName, rule, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, pollFrequency)
		return err
	}

	deleteSecurityRule = func(ctx context.Context, c *Client, nsgName, ruleName string) error {
		poller, err := c.Rules.BeginDelete(ctx, c.resourceGroup, nsgName, ruleName, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, pollFrequency)
		return err
	}
)

// ListRules returns the NSG's rules, custom first, then defaults,
// ordered by priority within each section.
func (p *NSGProvider) ListRules(ctx context.Context) ([]types.NSGRule, error) {
	nsg, err := getSecurityGroup(ctx, p.client, p.nsgName)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("NSG %s: %w", p.nsgName, provider.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get NSG %s: %w", p.nsgName, err)
	}

	var rules []types.NSGRule
	if nsg.Properties != nil {
		for _, r := range nsg.Properties.SecurityRules {
			rules = append(rules, toNSGRule(r, p.nsgName, p.client.ResourceGroup(), false))
		}
		sort.Slice(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })

		start := len(rules)
		for _, r := range nsg.Properties.DefaultSecurityRules {
			rules = append(rules, toNSGRule(r, p.nsgName, p.client.ResourceGroup(), true))
		}
		defaults := rules[start:]
		sort.Slice(defaults, func(i, j int) bool { return defaults[i].Priority < defaults[j].Priority })
	}

	return rules, nil
}

// AllowInbound adds an inbound TCP allow rule for the port. The source
// prefix is caller-supplied ("*" opens it wide; pass your own address
// for the usual workstation allowlist). The priority is the next free
// slot above the custom floor.
func (p *NSGProvider) AllowInbound(ctx context.Context, port int, sourcePrefix, ruleName string) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("bad port %d", port)
	}
	if sourcePrefix != "*" {
		if ip := net.ParseIP(sourcePrefix); ip == nil {
			if _, _, err := net.ParseCIDR(sourcePrefix); err != nil {
				return fmt.Errorf("bad source prefix %q", sourcePrefix)
			}
		}
	}
	if ruleName == "" {
		ruleName = "allow-" + strconv.Itoa(port)
	}

	nsg, err := getSecurityGroup(ctx, p.client, p.nsgName)
	if err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("NSG %s: %w", p.nsgName, provider.ErrNotFound)
		}
		return fmt.Errorf("failed to get NSG %s: %w", p.nsgName, err)
	}

	priority, err := nextFreePriority(nsg)
	if err != nil {
		return err
	}

	rule := armnetwork.SecurityRule{
		Name: to.Ptr(ruleName),
		Properties: &armnetwork.SecurityRulePropertiesFormat{
			Protocol:                 to.Ptr(armnetwork.SecurityRuleProtocolTCP),
			Access:                   to.Ptr(armnetwork.SecurityRuleAccessAllow),
			Direction:                to.Ptr(armnetwork.SecurityRuleDirectionInbound),
			Priority:                 to.Ptr(priority),
			SourceAddressPrefix:      to.Ptr(sourcePrefix),
			SourcePortRange:          to.Ptr("*"),
			DestinationAddressPrefix: to.Ptr("*"),
			DestinationPortRange:     to.Ptr(strconv.Itoa(port)),
		},
	}

	if err := putSecurityRule(ctx, p.client, p.nsgName, ruleName, rule); err != nil {
		return fmt.Errorf("failed to create rule %s: %w", ruleName, err)
	}
	return nil
}

// RevokeRule deletes a custom rule by name
func (p *NSGProvider) RevokeRule(ctx context.Context, ruleName string) error {
	if err := deleteSecurityRule(ctx, p.client, p.nsgName, ruleName); err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("rule %s: %w", ruleName, provider.ErrNotFound)
		}
		return fmt.Errorf("failed to delete rule %s: %w", ruleName, err)
	}
	return nil
}

// nextFreePriority finds the lowest unused custom priority. A rule with
// the same name keeps its existing slot.
func nextFreePriority(nsg *armnetwork.SecurityGroup) (int32, error) {
	used := map[int32]bool{}
	if nsg.Properties != nil {
		for _, r := range nsg.Properties.SecurityRules {
			if r.Properties != nil && r.Properties.Priority != nil {
				used[*r.Properties.Priority] = true
			}
		}
	}

	for pri := int32(rulePriorityFloor); pri <= rulePriorityCeiling; pri += 10 {
		if !used[pri] {
			return pri, nil
		}
	}
	return 0, fmt.Errorf("no free rule priority below %d", rulePriorityCeiling)
}

func toNSGRule(r *armnetwork.SecurityRule, nsgName, resourceGroup string, isDefault bool) types.NSGRule {
	rule := types.NSGRule{
		SecurityGroup: nsgName,
		ResourceGroup: resourceGroup,
		DefaultRule:   isDefault,
	}
	if r.Name != nil {
		rule.Name = *r.Name
	}
	props := r.Properties
	if props == nil {
		return rule
	}
	if props.Priority != nil {
		rule.Priority = *props.Priority
	}
	if props.Direction != nil {
		rule.Direction = string(*props.Direction)
	}
	if props.Access != nil {
		rule.Access = string(*props.Access)
	}
	if props.Protocol != nil {
		rule.Protocol = string(*props.Protocol)
	}
	if props.SourceAddressPrefix != nil {
		rule.SourcePrefix = *props.SourceAddressPrefix
	}
	if props.SourcePortRange != nil {
		rule.SourcePorts = *props.SourcePortRange
	}
	if props.DestinationAddressPrefix != nil {
		rule.DestPrefix = *props.DestinationAddressPrefix
	}
	if props.DestinationPortRange != nil {
		rule.DestPorts = *props.DestinationPortRange
	}
	if props.Description != nil {
		rule.Description = *props.Description
	}
	return rule
}
