package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beeux/beectl/internal/azure"
	"github.com/beeux/beectl/internal/config"
	"github.com/beeux/beectl/internal/ui"
	"github.com/beeux/beectl/pkg/types"
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Estimate the fleet's monthly run rate",
	Long: `Print a rough monthly cost estimate for every VM in the resource
group, priced as if it ran all month. The numbers come from a static
pay-as-you-go table, not the billing API; treat them as a ceiling for
planning, not an invoice.

With -f, the manifest is priced instead of the live resource group, so
the estimate works before anything is deployed.

Examples:
  beectl costs
  beectl costs -f fleet.yaml`,
	RunE: runCosts,
}

var costsManifest string

func init() {
	rootCmd.AddCommand(costsCmd)
	costsCmd.Flags().StringVarP(&costsManifest, "manifest", "f", "", "Price a fleet manifest instead of the live group")
}

func runCosts(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var est *types.CostEstimate
	if costsManifest != "" {
		m, err := config.LoadManifest(costsManifest)
		if err != nil {
			return err
		}
		est = azure.EstimateManifest(m)
	} else {
		client, _, err := getClient(ctx)
		if err != nil {
			return err
		}
		est, err = azure.NewFleet(client).EstimateCosts(ctx)
		if err != nil {
			return err
		}
	}

	if len(est.Lines) == 0 {
		fmt.Println("No VMs found")
		return nil
	}

	ui.PrintCostTable(est)
	return nil
}
