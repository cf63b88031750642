// Package ui holds the terminal styles the ytcat CLI prints with.
//
// [Styles] is a [Palette] of [lipgloss] styles for titles, success and error marks, warnings, help text
// and category labels. Colors degrade to plain text when output is not a terminal.
package ui
