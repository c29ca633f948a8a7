package ui

import (
	"fmt"

	"github.com/beeux/beectl/pkg/types"
)

var shareColumnWidths = []int{24, 24, 10, 12}

// PrintShareTable prints file shares in a styled box table
func PrintShareTable(shares []types.FileShare) {
	headers := []string{"Share", "Account", "Quota", "Tier"}

	rows := make([][]cell, 0, len(shares))
	for _, s := range shares {
		rows = append(rows, []cell{
			{s.Name, NameStyle},
			{s.Account, SizeStyle},
			{fmt.Sprintf("%d GiB", s.QuotaGB), SizeStyle},
			{formatOptional(s.AccessTier), MutedStyle},
		})
	}

	printTable(headers, shareColumnWidths, rows)
	fmt.Printf("  %d shares\n", len(shares))
}
