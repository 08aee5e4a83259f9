// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Status values understood by the summary table.
const (
	StatusPassed = "PASSED"
	StatusFailed = "FAILED"
	StatusError  = "ERROR"
)

// Column widths of the summary table.
const (
	idWidth      = 30
	statusWidth  = 12
	detailsWidth = 80
)

// Row is one line of the summary table.
type Row struct {
	ID      string
	Status  string
	Details string
}

// Counts tallies rows by status.
type Counts struct {
	Total, Passed, Failed, Errors int
}

// StatusText styles a status value.
func (c *Console) StatusText(status string) string {
	switch status {
	case StatusPassed:
		return c.theme.Success.Render(status)
	case StatusFailed:
		return c.theme.Error.Render(status)
	case StatusError:
		return c.theme.ErrorTag.Render(status)
	default:
		return status
	}
}

// SummaryTable renders rows as a bordered table with wrapped details.
func (c *Console) SummaryTable(rows []Row) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(c.theme.Border).
		Headers("Test ID", "Status", "Details").
		StyleFunc(func(row, col int) lipgloss.Style {
			style := c.renderer.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				style = style.Bold(true)
			}
			switch col {
			case 0:
				return style.Width(idWidth)
			case 1:
				return style.Width(statusWidth)
			default:
				return style.Width(detailsWidth)
			}
		})
	for _, r := range rows {
		t.Row(r.ID, c.StatusText(r.Status), firstLines(r.Details, 12))
	}
	return t.String()
}

// Summary writes the table and the totals line, and returns the counts.
func (c *Console) Summary(rows []Row) Counts {
	counts := Counts{Total: len(rows)}
	for _, r := range rows {
		switch r.Status {
		case StatusPassed:
			counts.Passed++
		case StatusFailed:
			counts.Failed++
		default:
			counts.Errors++
		}
	}

	c.Println()
	c.Banner("--- Test Run Summary ---")
	c.Println(c.SummaryTable(rows))
	c.Printf("\nTotal: %d | %s | %s | %s\n",
		counts.Total,
		c.theme.Success.Render(fmt.Sprintf("Passed: %d", counts.Passed)),
		c.theme.Error.Render(fmt.Sprintf("Failed: %d", counts.Failed)),
		c.theme.ErrorTag.Render(fmt.Sprintf("Errors: %d", counts.Errors)),
	)
	return counts
}

// firstLines keeps at most n lines of s.
func firstLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + "\n…"
}
