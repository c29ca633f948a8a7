package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/beeux/beectl/pkg/types"
)

// VMAction represents the action to take on the selected VM.
type VMAction int

const (
	VMActionConnect VMAction = iota
	VMActionStart
	VMActionStop
)

const (
	listHeight       = 8
	detailLabelWidth = 12
	minWidth         = 60
	maxWidth         = 120

	vmColWidthState = 14
	vmColWidthIP    = 15
	vmColWidthSize  = 16
	vmColWidthRole  = 6
	// cursor(3) + State(14) + sp(2) + IP(15) + sp(2) + Size(16) + sp(2) + Role(6) + sp(2) = 62
	vmFixedWidth = 3 + vmColWidthState + 2 + vmColWidthIP + 2 + vmColWidthSize + 2 + vmColWidthRole + 2
)

// VMModel is the bubbletea model for interactive VM selection.
type VMModel struct {
	vms          []types.VM
	filtered     []types.VM
	cursor       int
	offset       int
	search       string
	selected     *types.VM
	action       VMAction
	quitting     bool
	cancelled    bool
	termWidth    int
	contentWidth int
	colWidths    []int // [Name, State, PrivateIP, Size, Role]
}

func newVMModel(vms []types.VM) VMModel {
	m := VMModel{
		vms:       vms,
		filtered:  vms,
		termWidth: 80,
	}
	m.calculateWidths()
	return m
}

func (m *VMModel) calculateWidths() {
	m.contentWidth = m.termWidth - 2
	if m.contentWidth < minWidth {
		m.contentWidth = minWidth
	}
	if m.contentWidth > maxWidth {
		m.contentWidth = maxWidth
	}

	nameWidth := m.contentWidth - vmFixedWidth
	if nameWidth < 10 {
		nameWidth = 10
	}
	m.colWidths = []int{nameWidth, vmColWidthState, vmColWidthIP, vmColWidthSize, vmColWidthRole}
}

// Init implements tea.Model.
func (m VMModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update implements tea.Model.
func (m VMModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.calculateWidths()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			m.cancelled = true
			return m, tea.Quit

		case tea.KeyEnter:
			return m.choose(VMActionConnect)

		case tea.KeyCtrlS:
			return m.choose(VMActionStart)

		case tea.KeyCtrlX:
			return m.choose(VMActionStop)

		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}

		case tea.KeyDown:
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
				if m.cursor >= m.offset+listHeight {
					m.offset = m.cursor - listHeight + 1
				}
			}

		case tea.KeyBackspace:
			if len(m.search) > 0 {
				m.search = m.search[:len(m.search)-1]
				m.filterVMs()
			}

		case tea.KeyRunes:
			m.search += string(msg.Runes)
			m.filterVMs()
		}
	}

	return m, nil
}

func (m VMModel) choose(action VMAction) (tea.Model, tea.Cmd) {
	if len(m.filtered) == 0 {
		return m, nil
	}
	selected := m.filtered[m.cursor]
	m.selected = &selected
	m.action = action
	m.quitting = true
	return m, tea.Quit
}

func (m *VMModel) filterVMs() {
	if m.search == "" {
		m.filtered = m.vms
	} else {
		query := strings.ToLower(m.search)
		m.filtered = nil
		for _, vm := range m.vms {
			if strings.Contains(strings.ToLower(vm.Name), query) ||
				strings.Contains(strings.ToLower(vm.PrivateIP), query) ||
				strings.Contains(strings.ToLower(vm.Size), query) ||
				strings.Contains(strings.ToLower(vm.Role), query) {
				m.filtered = append(m.filtered, vm)
			}
		}
	}
	if m.cursor >= len(m.filtered) {
		if len(m.filtered) > 0 {
			m.cursor = len(m.filtered) - 1
		} else {
			m.cursor = 0
		}
	}
	m.offset = 0
}

// View implements tea.Model.
func (m VMModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	w := m.contentWidth

	// Top border
	sb.WriteString(BorderStyle.Render(TopLeft))
	sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w)))
	sb.WriteString(BorderStyle.Render(TopRight))
	sb.WriteString("\n")

	// Search input
	searchLine := " > " + m.search
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString(NameStyle.Render(padRight(searchLine, w)))
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	// Empty line after search
	sb.WriteString(emptyRow(w))

	// VM list
	visibleEnd := m.offset + listHeight
	if visibleEnd > len(m.filtered) {
		visibleEnd = len(m.filtered)
	}
	for i := m.offset; i < visibleEnd; i++ {
		sb.WriteString(m.renderVMRow(i))
	}
	for i := visibleEnd; i < m.offset+listHeight; i++ {
		sb.WriteString(emptyRow(w))
	}

	// Empty line before separator
	sb.WriteString(emptyRow(w))

	// Separator
	sb.WriteString(BorderStyle.Render(LeftT))
	sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w)))
	sb.WriteString(BorderStyle.Render(RightT))
	sb.WriteString("\n")

	// Details panel
	sb.WriteString(m.renderDetailsPanel())

	// Bottom border
	sb.WriteString(BorderStyle.Render(BottomLeft))
	sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w)))
	sb.WriteString(BorderStyle.Render(BottomRight))
	sb.WriteString("\n")

	// Status bar
	sb.WriteString(m.renderStatusBar())

	return sb.String()
}

func emptyRow(w int) string {
	return BorderStyle.Render(Vertical) + strings.Repeat(" ", w) + BorderStyle.Render(Vertical) + "\n"
}

func (m VMModel) renderVMRow(idx int) string {
	var sb strings.Builder
	vm := m.filtered[idx]
	w := m.contentWidth

	sb.WriteString(BorderStyle.Render(Vertical))

	var line strings.Builder
	plainWidth := 0

	// Cursor (3 chars)
	if idx == m.cursor {
		line.WriteString(" > ")
	} else {
		line.WriteString("   ")
	}
	plainWidth += 3

	// Name (dynamic width)
	nameText := padRight(vm.Name, m.colWidths[0])
	line.WriteString(NameStyle.Render(nameText))
	line.WriteString("  ")
	plainWidth += m.colWidths[0] + 2

	// State
	state := string(vm.State)
	stateText := formatStatePlain(state, m.colWidths[1])
	line.WriteString(formatStateStyled(state, stateText))
	line.WriteString("  ")
	plainWidth += m.colWidths[1] + 2

	// Private IP
	ipText := padRight(formatOptional(vm.PrivateIP), m.colWidths[2])
	line.WriteString(IPStyle.Render(ipText))
	line.WriteString("  ")
	plainWidth += m.colWidths[2] + 2

	// Size
	sizeText := padRight(vm.Size, m.colWidths[3])
	line.WriteString(SizeStyle.Render(sizeText))
	line.WriteString("  ")
	plainWidth += m.colWidths[3] + 2

	// Role
	roleText := padRight(formatOptional(vm.Role), m.colWidths[4])
	line.WriteString(RoleStyle.Render(roleText))
	plainWidth += m.colWidths[4]

	if plainWidth < w {
		line.WriteString(strings.Repeat(" ", w-plainWidth))
	}

	sb.WriteString(line.String())
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	return sb.String()
}

func (m VMModel) renderDetailsPanel() string {
	var sb strings.Builder
	w := m.contentWidth

	// Header
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString(HeaderStyle.Render(padRight(" VM Details", w)))
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	// Underline
	sb.WriteString(BorderStyle.Render(Vertical))
	underline := " " + strings.Repeat("─", 20)
	sb.WriteString(MutedStyle.Render(padRight(underline, w)))
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	if len(m.filtered) == 0 {
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString(MutedStyle.Render(padRight(" No VMs found", w)))
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString("\n")
		// Match the filled panel height
		for i := 0; i < 9; i++ {
			sb.WriteString(emptyRow(w))
		}
		return sb.String()
	}

	vm := m.filtered[m.cursor]

	state := string(vm.State)
	stateDisplay := stateIndicator(state) + " " + state

	launched := "-"
	if !vm.CreatedAt.IsZero() {
		launched = vm.CreatedAt.Format("2006-01-02 15:04:05")
	}

	details := []struct {
		label string
		value string
		style lipgloss.Style
	}{
		{"Name:", vm.Name, NameStyle},
		{"State:", stateDisplay, getStateStyle(state)},
		{"Size:", vm.Size, SizeStyle},
		{"Role:", formatOptional(vm.Role), RoleStyle},
		{"Private IP:", formatOptional(vm.PrivateIP), IPStyle},
		{"Public IP:", formatOptional(vm.PublicIP), IPStyle},
		{"Location:", vm.Location, MutedStyle},
		{"Group:", vm.ResourceGroup, MutedStyle},
		{"Created:", launched, MutedStyle},
	}

	for _, d := range details {
		sb.WriteString(BorderStyle.Render(Vertical))

		labelText := padRight(d.label, detailLabelWidth)
		valueText := d.value
		maxValueWidth := w - 1 - detailLabelWidth
		if runewidth.StringWidth(valueText) > maxValueWidth {
			valueText = runewidth.Truncate(valueText, maxValueWidth, "...")
		}

		plainWidth := 1 + detailLabelWidth + runewidth.StringWidth(valueText)
		line := MutedStyle.Render(" "+labelText) + d.style.Render(valueText)
		if plainWidth < w {
			line += strings.Repeat(" ", w-plainWidth)
		}

		sb.WriteString(line)
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString("\n")
	}

	// Trailing empty line
	sb.WriteString(emptyRow(w))

	return sb.String()
}

func (m VMModel) renderStatusBar() string {
	var sb strings.Builder
	w := m.contentWidth + 2 // include border chars

	countInfo := fmt.Sprintf("  %d/%d VMs", len(m.filtered), len(m.vms))
	hintsPlain := "[Enter:connect] [^S:start] [^X:stop] [Esc:quit]"

	countWidth := runewidth.StringWidth(countInfo)
	hintsWidth := runewidth.StringWidth(hintsPlain)
	padding := w - countWidth - hintsWidth

	sb.WriteString(countInfo)
	if padding > 0 {
		sb.WriteString(strings.Repeat(" ", padding))
	}
	sb.WriteString(HintStyle.Render(hintsPlain))
	sb.WriteString("\n")

	return sb.String()
}

// SelectVM runs the interactive VM selector TUI and returns the selected VM and action.
func SelectVM(vms []types.VM) (*types.VM, VMAction, error) {
	if len(vms) == 0 {
		return nil, VMActionConnect, fmt.Errorf("no VMs available")
	}

	m := newVMModel(vms)
	p := tea.NewProgram(m)

	finalModel, err := p.Run()
	if err != nil {
		return nil, VMActionConnect, fmt.Errorf("error running selector: %w", err)
	}

	result := finalModel.(VMModel)
	if result.cancelled {
		return nil, VMActionConnect, fmt.Errorf("selection cancelled")
	}

	return result.selected, result.action, nil
}
