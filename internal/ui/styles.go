package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Box drawing characters
const (
	TopLeft     = "╭"
	TopRight    = "╮"
	BottomLeft  = "╰"
	BottomRight = "╯"
	Horizontal  = "─"
	Vertical    = "│"
	LeftT       = "├"
	RightT      = "┤"
	TopT        = "┬"
	BottomT     = "┴"
	Cross       = "┼"
)

// Color palette
const (
	ColorBorder  = "240"
	ColorHeader  = "252"
	ColorName    = "81"
	ColorIP      = "252"
	ColorSize    = "252"
	ColorRole    = "245"
	ColorRunning = "82"
	ColorStopped = "245"
	ColorPending = "214"
	ColorMuted   = "240"
	ColorHint    = "245"
	ColorError   = "196"
	ColorOK      = "82"
)

// Shared styles
var (
	BorderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBorder))
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorHeader))
	NameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorName))
	IPStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorIP))
	SizeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSize))
	RoleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRole))
	RunningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRunning))
	StoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorStopped))
	PendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPending))
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted))
	HintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHint))
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorError))
	OKStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorOK))
)

// Errorf prints a formatted error line to stderr
func Errorf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("[ERROR]"), fmt.Sprintf(format, args...))
}

// Successf prints a formatted success line to stdout
func Successf(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", OKStyle.Render("[OK]"), fmt.Sprintf(format, args...))
}

// stateIndicator maps a VM power state to its dot indicator
func stateIndicator(state string) string {
	switch state {
	case "running":
		return "●"
	case "starting", "stopping", "deallocating":
		return "◐"
	default:
		return "○"
	}
}

func getStateStyle(state string) lipgloss.Style {
	switch state {
	case "running":
		return RunningStyle
	case "starting", "stopping", "deallocating":
		return PendingStyle
	default:
		return StoppedStyle
	}
}

// formatStatePlain returns the plain text state with indicator, padded to width
func formatStatePlain(state string, width int) string {
	return padRight(stateIndicator(state)+" "+state, width)
}

// formatStateStyled applies the appropriate style to the state text
func formatStateStyled(state string, text string) string {
	return getStateStyle(state).Render(text)
}

func formatOptional(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// padRight pads a string to the given display width using runewidth
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return runewidth.Truncate(s, width, "...")
	}
	return s + strings.Repeat(" ", width-sw)
}
