package ui

import (
	"fmt"
	"strings"

	"github.com/beeux/beectl/pkg/types"
)

var vmColumnWidths = []int{16, 13, 15, 15, 16, 8}

// PrintVMTable prints VMs in a styled box table with a state summary
func PrintVMTable(vms []types.VM) {
	headers := []string{"Name", "State", "Private IP", "Public IP", "Size", "Role"}

	rows := make([][]cell, 0, len(vms))
	for _, vm := range vms {
		state := string(vm.State)
		rows = append(rows, []cell{
			{vm.Name, NameStyle},
			{stateIndicator(state) + " " + state, getStateStyle(state)},
			{formatOptional(vm.PrivateIP), IPStyle},
			{formatOptional(vm.PublicIP), IPStyle},
			{vm.Size, SizeStyle},
			{formatOptional(vm.Role), RoleStyle},
		})
	}

	printTable(headers, vmColumnWidths, rows)
	printVMSummary(vms)
}

func printVMSummary(vms []types.VM) {
	counts := make(map[types.VMState]int)
	for _, vm := range vms {
		counts[vm.State]++
	}

	var parts []string
	if c := counts[types.VMStateRunning]; c > 0 {
		parts = append(parts, RunningStyle.Render(fmt.Sprintf("%d running", c)))
	}
	if c := counts[types.VMStateDeallocated]; c > 0 {
		parts = append(parts, StoppedStyle.Render(fmt.Sprintf("%d deallocated", c)))
	}
	if c := counts[types.VMStateStopped]; c > 0 {
		parts = append(parts, StoppedStyle.Render(fmt.Sprintf("%d stopped", c)))
	}
	for _, s := range []types.VMState{types.VMStateStarting, types.VMStateStopping, types.VMStateDeallocating} {
		if c := counts[s]; c > 0 {
			parts = append(parts, PendingStyle.Render(fmt.Sprintf("%d %s", c, s)))
		}
	}

	summary := fmt.Sprintf("  %d VMs", len(vms))
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}
	fmt.Println(summary)
}
