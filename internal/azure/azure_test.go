package azure

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"
)

// fakeCred hands out tokens (or refuses to) without talking to az
type fakeCred struct {
	err error
}

func (f fakeCred) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	if f.err != nil {
		return azcore.AccessToken{}, f.err
	}
	return azcore.AccessToken{Token: "fake", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func testClient() *Client {
	return &Client{
		cred:          fakeCred{},
		subscription:  "00000000-0000-0000-0000-000000000000",
		resourceGroup: "beeux",
		location:      "eastus",
		adminUser:     "beeux",
	}
}

func loggedOutClient() *Client {
	c := testClient()
	c.cred = fakeCred{err: fmt.Errorf("az account get-access-token failed")}
	return c
}

// fakeVM builds a raw ARM VM with the instance view preset so toVM
// never needs a second API call.
func fakeVM(name, size, state string) *armcompute.VirtualMachine {
	return &armcompute.VirtualMachine{
		ID:       to.Ptr("/subscriptions/sub/resourceGroups/beeux/providers/Microsoft.Compute/virtualMachines/" + name),
		Name:     to.Ptr(name),
		Location: to.Ptr("eastus"),
		Properties: &armcompute.VirtualMachineProperties{
			HardwareProfile: &armcompute.HardwareProfile{
				VMSize: to.Ptr(armcompute.VirtualMachineSizeTypes(size)),
			},
			InstanceView: &armcompute.VirtualMachineInstanceView{
				Statuses: []*armcompute.InstanceViewStatus{
					{Code: to.Ptr("ProvisioningState/succeeded")},
					{Code: to.Ptr("PowerState/" + state)},
				},
			},
		},
	}
}
