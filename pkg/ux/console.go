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
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Console writes styled output.
//
// Thread Safety: Safe for concurrent use. Each call writes whole lines
// except Stream, which writes raw fragments.
type Console struct {
	out      io.Writer
	renderer *lipgloss.Renderer
	theme    Theme
	terminal bool
	mu       sync.Mutex
}

// NewConsole creates a console writing to w. Color and animation are
// enabled only when w is a terminal.
func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		out:      w,
		renderer: r,
		theme:    NewTheme(r),
		terminal: IsTerminal(w),
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Theme returns the console's styles.
func (c *Console) Theme() Theme {
	return c.theme
}

// Terminal reports whether the console is a terminal.
func (c *Console) Terminal() bool {
	return c.terminal
}

// Println writes a line.
func (c *Console) Println(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, a...)
}

// Printf writes formatted text.
func (c *Console) Printf(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, a...)
}

// Banner writes a reversed banner line.
func (c *Console) Banner(text string) {
	c.Println(c.theme.Banner.Render(text))
}

// Section writes a highlighted heading preceded by a blank line.
func (c *Console) Section(title, subtitle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.theme.Badge.Render(title))
	if subtitle != "" {
		fmt.Fprintln(c.out, c.theme.Warning.Render(subtitle))
	}
}

// Stream writes a fragment of streamed text without a newline.
func (c *Console) Stream(fragment string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, c.theme.Stream.Render(fragment))
}

// Block writes a titled block of muted or code text.
func (c *Console) Block(title, body string, style lipgloss.Style) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rule := strings.Repeat("-", 3)
	fmt.Fprintln(c.out, style.Render(fmt.Sprintf("\n%s %s %s", rule, title, rule)))
	fmt.Fprintln(c.out, style.Render(body))
	fmt.Fprintln(c.out, style.Render(strings.Repeat("-", len(title)+8)))
}

// Success writes a success line.
func (c *Console) Success(msg string) {
	c.Println(c.theme.Success.Render(string(IconSuccess) + " " + msg))
}

// Warning writes a warning line.
func (c *Console) Warning(msg string) {
	c.Println(c.theme.Warning.Render(string(IconWarning) + " " + msg))
}

// Error writes an error line.
func (c *Console) Error(msg string) {
	c.Println(c.theme.Error.Render(string(IconError) + " " + msg))
}

// Detail writes an indented muted line.
func (c *Console) Detail(msg string) {
	c.Println(c.theme.Muted.Render("   " + string(IconArrow) + " " + msg))
}
