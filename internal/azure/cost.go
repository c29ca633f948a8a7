package azure

import (
	"context"
	"sort"

	"github.com/beeux/beectl/internal/config"
	"github.com/beeux/beectl/pkg/types"
)

// Rough pay-as-you-go Linux prices for East US, USD per hour. These
// are planning numbers, not a billing API.
var hourlyRates = map[string]float64{
	"Standard_B1s":     0.0104,
	"Standard_B1ms":    0.0207,
	"Standard_B2s":     0.0416,
	"Standard_B2ms":    0.0832,
	"Standard_B4ms":    0.166,
	"Standard_D2s_v3":  0.096,
	"Standard_D4s_v3":  0.192,
	"Standard_D8s_v3":  0.384,
	"Standard_D2as_v5": 0.086,
	"Standard_D4as_v5": 0.172,
	"Standard_E2s_v3":  0.126,
	"Standard_E4s_v3":  0.252,
	"Standard_F2s_v2":  0.0846,
	"Standard_F4s_v2":  0.169,
}

const hoursPerMonth = 730

// EstimateCosts prices every VM in the resource group at its full
// monthly run rate. Deallocated VMs are priced too, the estimate is a
// ceiling for "what if everything ran all month". Unknown sizes are
// flagged rather than guessed.
func (f *Fleet) EstimateCosts(ctx context.Context) (*types.CostEstimate, error) {
	if err := f.client.CheckAuth(ctx); err != nil {
		return nil, err
	}

	vms, err := f.vms.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	est := &types.CostEstimate{}
	for _, vm := range vms {
		line := types.CostLine{Name: vm.Name, Size: vm.Size}
		if rate, ok := hourlyRates[vm.Size]; ok {
			line.Known = true
			line.HourlyUSD = rate
			line.MonthlyUSD = rate * hoursPerMonth
			est.MonthlyUSD += line.MonthlyUSD
		} else {
			est.Unknown++
		}
		est.Lines = append(est.Lines, line)
	}

	sort.Slice(est.Lines, func(i, j int) bool {
		return est.Lines[i].Name < est.Lines[j].Name
	})
	return est, nil
}

// EstimateManifest prices a fleet manifest the same way, without
// talking to Azure. Useful before anything is deployed.
func EstimateManifest(m *config.Manifest) *types.CostEstimate {
	est := &types.CostEstimate{}
	for _, vm := range m.VMs {
		line := types.CostLine{Name: vm.Name, Size: vm.Size}
		if rate, ok := hourlyRates[vm.Size]; ok {
			line.Known = true
			line.HourlyUSD = rate
			line.MonthlyUSD = rate * hoursPerMonth
			est.MonthlyUSD += line.MonthlyUSD
		} else {
			est.Unknown++
		}
		est.Lines = append(est.Lines, line)
	}

	sort.Slice(est.Lines, func(i, j int) bool {
		return est.Lines[i].Name < est.Lines[j].Name
	})
	return est
}
