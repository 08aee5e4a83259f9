// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package check

import (
	"fmt"
	"strings"
)

// =============================================================================
// SEVERITY
// =============================================================================

// Severity represents how a diagnostic affects the check result.
type Severity int

const (
	// SeveritySuppressed diagnostics are recorded but never reported.
	SeveritySuppressed Severity = iota

	// SeverityWarning diagnostics are reported but do not fail the check.
	SeverityWarning

	// SeverityError diagnostics fail the check.
	SeverityError
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeveritySuppressed:
		return "suppressed"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// =============================================================================
// DIAGNOSTIC
// =============================================================================

// Diagnostic codes produced by the checker.
const (
	// CodeSyntax is an unparseable region found by the syntax pass.
	CodeSyntax = "syntax"

	// CodeMissing is a token the syntax pass had to insert to recover.
	CodeMissing = "missing"

	// CodeMarkupRuntime is markup used without importing its UI runtime.
	// Not actionable when checking a single file in isolation.
	CodeMarkupRuntime = "markup-runtime"

	// CodeTransform is a transpiler error. Transpiler message IDs are
	// appended as "transform/<id>".
	CodeTransform = "transform"
)

// Diagnostic is one finding from the checker.
//
// Diagnostics may nest: a syntax error region can contain the specific
// missing tokens that caused it.
type Diagnostic struct {
	// Code identifies the diagnostic kind, matched by Policy.
	Code string `json:"code"`

	// Message is the human-readable text.
	Message string `json:"message"`

	// Line is 1-based. Zero means no position.
	Line int `json:"line,omitempty"`

	// Column is 1-based. Zero means no position.
	Column int `json:"column,omitempty"`

	// Severity is assigned by the policy.
	Severity Severity `json:"severity"`

	// Nested are more specific diagnostics contained in this one.
	Nested []Diagnostic `json:"nested,omitempty"`

	// Notes are supplementary transpiler notes.
	Notes []string `json:"notes,omitempty"`
}

// Innermost returns the most specific diagnostic in the message tree,
// following the first nested child at each level.
func (d Diagnostic) Innermost() Diagnostic {
	for len(d.Nested) > 0 {
		d = d.Nested[0]
	}
	return d
}

// Text renders the innermost message with its position.
func (d Diagnostic) Text() string {
	in := d.Innermost()
	if in.Line == 0 {
		in.Line, in.Column = d.Line, d.Column
	}
	if in.Line > 0 {
		return fmt.Sprintf("Line %d, Col %d: %s", in.Line, in.Column, in.Message)
	}
	return in.Message
}

// =============================================================================
// OPTIONS AND RESULT
// =============================================================================

// Options controls one Check call.
type Options struct {
	// Markup enables UI markup syntax (TSX).
	Markup bool

	// Context is declaration text compiled ahead of the source, separated by
	// a newline. Diagnostic lines stay relative to the source.
	Context string

	// Filename is used in transpiler messages and to pick the loader from
	// its extension. Optional.
	Filename string
}

// Result is the outcome of checking one source.
type Result struct {
	// Success is false when any blocking diagnostic was found.
	Success bool `json:"success"`

	// Message is "Compilation failed:" followed by blocking diagnostics,
	// one per line. Empty on success.
	Message string `json:"message,omitempty"`

	// OutputText is the transpiled CommonJS module. Empty on failure.
	OutputText string `json:"output_text,omitempty"`

	// Diagnostics holds every diagnostic, including suppressed ones.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Blocking returns the diagnostics that failed the check.
func (r *Result) Blocking() []Diagnostic {
	return r.bySeverity(SeverityError)
}

// Warnings returns the non-blocking reported diagnostics.
func (r *Result) Warnings() []Diagnostic {
	return r.bySeverity(SeverityWarning)
}

func (r *Result) bySeverity(s Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// MessagePrefix starts every failed check message.
const MessagePrefix = "Compilation failed:"

func failureMessage(blocking []Diagnostic) string {
	lines := make([]string, 0, len(blocking))
	for _, d := range blocking {
		lines = append(lines, d.Text())
	}
	return MessagePrefix + "\n" + strings.Join(lines, "\n")
}
