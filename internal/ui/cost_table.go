package ui

import (
	"fmt"

	"github.com/beeux/beectl/pkg/types"
)

var costColumnWidths = []int{16, 18, 12, 13}

// PrintCostTable prints the monthly run-rate estimate for the fleet
func PrintCostTable(est *types.CostEstimate) {
	headers := []string{"Name", "Size", "USD/hour", "USD/month"}

	rows := make([][]cell, 0, len(est.Lines))
	for _, l := range est.Lines {
		hourly, monthly := "?", "?"
		if l.Known {
			hourly = fmt.Sprintf("%.4f", l.HourlyUSD)
			monthly = fmt.Sprintf("%.2f", l.MonthlyUSD)
		}
		rows = append(rows, []cell{
			{l.Name, NameStyle},
			{l.Size, SizeStyle},
			{hourly, SizeStyle},
			{monthly, SizeStyle},
		})
	}

	printTable(headers, costColumnWidths, rows)

	fmt.Printf("  estimated total: $%.2f/month\n", est.MonthlyUSD)
	if est.Unknown > 0 {
		fmt.Println(MutedStyle.Render(fmt.Sprintf("  %d VMs have no price data and are excluded", est.Unknown)))
	}
}
