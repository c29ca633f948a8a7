package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// cell is one rendered table cell: plain text plus the style to paint it with
type cell struct {
	text  string
	style lipgloss.Style
}

// renderTable draws a styled box table and returns it as a string. Each
// row must have exactly one cell per column width.
func renderTable(headers []string, widths []int, rows [][]cell) string {
	var sb strings.Builder

	// Top border
	sb.WriteString(BorderStyle.Render(TopLeft))
	for i, w := range widths {
		sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w+2)))
		if i < len(widths)-1 {
			sb.WriteString(BorderStyle.Render(TopT))
		}
	}
	sb.WriteString(BorderStyle.Render(TopRight))
	sb.WriteString("\n")

	// Header row
	sb.WriteString(BorderStyle.Render(Vertical))
	for i, h := range headers {
		sb.WriteString(HeaderStyle.Render(" " + padRight(h, widths[i]) + " "))
		sb.WriteString(BorderStyle.Render(Vertical))
	}
	sb.WriteString("\n")

	// Header separator
	sb.WriteString(BorderStyle.Render(LeftT))
	for i, w := range widths {
		sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w+2)))
		if i < len(widths)-1 {
			sb.WriteString(BorderStyle.Render(Cross))
		}
	}
	sb.WriteString(BorderStyle.Render(RightT))
	sb.WriteString("\n")

	// Data rows
	for _, row := range rows {
		sb.WriteString(BorderStyle.Render(Vertical))
		for i, c := range row {
			sb.WriteString(c.style.Render(" " + padRight(c.text, widths[i]) + " "))
			sb.WriteString(BorderStyle.Render(Vertical))
		}
		sb.WriteString("\n")
	}

	// Bottom border
	sb.WriteString(BorderStyle.Render(BottomLeft))
	for i, w := range widths {
		sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w+2)))
		if i < len(widths)-1 {
			sb.WriteString(BorderStyle.Render(BottomT))
		}
	}
	sb.WriteString(BorderStyle.Render(BottomRight))
	sb.WriteString("\n")

	return sb.String()
}

func printTable(headers []string, widths []int, rows [][]cell) {
	fmt.Print(renderTable(headers, widths, rows))
}
