// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux renders benchmark progress and results in the terminal.
package ux

import (
	"github.com/charmbracelet/lipgloss"
)

// Aleutian color palette
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // highlights
	ColorTealPrimary = lipgloss.Color("#20B9B4") // brand
	ColorTealDeep    = lipgloss.Color("#16858E") // borders
	ColorSlate       = lipgloss.Color("#2C4A54") // muted text

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorStream  = lipgloss.Color("#5DADE2")
)

// Theme holds the styles of one console. Styles are bound to the
// console's renderer so color is dropped for non-terminal output.
type Theme struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Stream    lipgloss.Style
	Code      lipgloss.Style
	Banner    lipgloss.Style
	Badge     lipgloss.Style
	ErrorTag  lipgloss.Style
	Border    lipgloss.Style
}

// NewTheme builds the theme for renderer r.
func NewTheme(r *lipgloss.Renderer) Theme {
	return Theme{
		Title:     r.NewStyle().Bold(true).Foreground(ColorTealBright),
		Subtitle:  r.NewStyle().Foreground(ColorTealPrimary),
		Bold:      r.NewStyle().Bold(true),
		Muted:     r.NewStyle().Foreground(ColorSlate),
		Success:   r.NewStyle().Bold(true).Foreground(ColorSuccess),
		Warning:   r.NewStyle().Foreground(ColorWarning),
		Error:     r.NewStyle().Bold(true).Foreground(ColorError),
		Highlight: r.NewStyle().Bold(true).Foreground(ColorTealBright),
		Stream:    r.NewStyle().Foreground(ColorStream),
		Code:      r.NewStyle().Foreground(ColorTealPrimary),
		Banner:    r.NewStyle().Bold(true).Reverse(true).Padding(0, 1),
		Badge:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("#0F1923")).Background(ColorWarning).Padding(0, 1),
		ErrorTag:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(ColorError),
		Border:    r.NewStyle().Foreground(ColorTealDeep),
	}
}

// Icon is a status glyph.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)
