package azure

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	"github.com/beeux/beectl/pkg/provider"
)

const armScope = "https://management.azure.com/.default"

// Identity describes the authenticated subscription
type Identity struct {
	SubscriptionID   string
	SubscriptionName string
	TenantID         string
	State            string
}

// CheckAuth probes the credential for a management-plane token. Every
// mutating command calls this before touching ARM so that a logged-out
// session fails fast with no side effects.
func (c *Client) CheckAuth(ctx context.Context) error {
	_, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{armScope}})
	if err != nil {
		return fmt.Errorf("not logged in to Azure (run 'az login'): %w: %v", provider.ErrAuthFailed, err)
	}
	return nil
}

// WhoAmI returns details of the configured subscription
func (c *Client) WhoAmI(ctx context.Context) (*Identity, error) {
	if err := c.CheckAuth(ctx); err != nil {
		return nil, err
	}

	resp, err := c.Subs.Get(ctx, c.subscription, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read subscription %s: %w", c.subscription, err)
	}

	id := &Identity{SubscriptionID: c.subscription}
	if resp.DisplayName != nil {
		id.SubscriptionName = *resp.DisplayName
	}
	if resp.TenantID != nil {
		id.TenantID = *resp.TenantID
	}
	if resp.State != nil {
		id.State = string(*resp.State)
	}
	return id, nil
}

// HaveAzureCLI reports whether the az binary is on PATH. The CLI
// credential reads its token cache, so a missing az means no auth.
func HaveAzureCLI() bool {
	_, err := exec.LookPath("az")
	return err == nil
}

// HaveSSH reports whether the ssh binary is on PATH
func HaveSSH() bool {
	_, err := exec.LookPath("ssh")
	return err == nil
}
