package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/beeux/beectl/pkg/types"
)

var diskColumnWidths = []int{24, 11, 8, 18, 16, 4}

// PrintDiskTable prints managed disks in a styled box table
func PrintDiskTable(disks []types.Disk) {
	headers := []string{"Name", "State", "Size", "SKU", "Attached To", "OS"}

	rows := make([][]cell, 0, len(disks))
	for _, d := range disks {
		os := ""
		if d.OSDisk {
			os = "yes"
		}
		rows = append(rows, []cell{
			{d.Name, NameStyle},
			{string(d.State), diskStateStyle(d.State)},
			{fmt.Sprintf("%d GiB", d.SizeGB), SizeStyle},
			{d.SKU, SizeStyle},
			{formatOptional(d.AttachedTo), RoleStyle},
			{os, MutedStyle},
		})
	}

	printTable(headers, diskColumnWidths, rows)
	fmt.Printf("  %d disks\n", len(disks))
}

func diskStateStyle(state types.DiskState) lipgloss.Style {
	switch state {
	case types.DiskStateAttached:
		return RunningStyle
	case types.DiskStateUnattached:
		return StoppedStyle
	default:
		return PendingStyle
	}
}
