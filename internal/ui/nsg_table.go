package ui

import (
	"fmt"
	"strconv"

	"github.com/beeux/beectl/pkg/types"
)

var ruleColumnWidths = []int{26, 9, 10, 9, 18, 12, 7}

// PrintRuleTable prints NSG rules in a styled box table
func PrintRuleTable(rules []types.NSGRule) {
	headers := []string{"Name", "Priority", "Direction", "Access", "Source", "Ports", "Proto"}

	rows := make([][]cell, 0, len(rules))
	for _, r := range rules {
		accessStyle := RunningStyle
		if r.Access != "Allow" {
			accessStyle = StoppedStyle
		}
		rows = append(rows, []cell{
			{r.Name, NameStyle},
			{strconv.Itoa(int(r.Priority)), SizeStyle},
			{r.Direction, MutedStyle},
			{r.Access, accessStyle},
			{formatOptional(r.SourcePrefix), IPStyle},
			{formatOptional(r.DestPorts), SizeStyle},
			{r.Protocol, MutedStyle},
		})
	}

	printTable(headers, ruleColumnWidths, rows)
	fmt.Printf("  %d rules\n", len(rules))
}
