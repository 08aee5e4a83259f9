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
	"strings"
)

// =============================================================================
// DIAGNOSTIC POLICY
// =============================================================================

// Policy decides which diagnostics block a check.
//
// Description:
//
//	Codes are matched by prefix. For example, "transform" matches
//	"transform" and "transform/unterminated-string". Suppress takes
//	precedence, then Warn. Anything unmatched blocks.
//
// Thread Safety: Treat as immutable after creation.
type Policy struct {
	// Suppress are codes that are recorded but never reported.
	Suppress []string `yaml:"suppress"`

	// Warn are codes that are reported but never block.
	Warn []string `yaml:"warn"`
}

// DefaultPolicy returns the policy used when none is configured.
//
// Description:
//
//	Suppresses missing markup runtime findings, which are not actionable
//	for a single file checked in isolation. Syntax-pass findings are
//	warnings because the transpiler is authoritative for what compiles.
func DefaultPolicy() Policy {
	return Policy{
		Suppress: []string{CodeMarkupRuntime},
		Warn:     []string{CodeSyntax, CodeMissing},
	}
}

// Severity returns the severity for a diagnostic code.
func (p Policy) Severity(code string) Severity {
	code = strings.ToLower(code)
	if matchesAny(code, p.Suppress) {
		return SeveritySuppressed
	}
	if matchesAny(code, p.Warn) {
		return SeverityWarning
	}
	return SeverityError
}

// Apply assigns severities to every diagnostic in place.
func (p Policy) Apply(diags []Diagnostic) {
	for i := range diags {
		diags[i].Severity = p.Severity(diags[i].Code)
	}
}

func matchesAny(code string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchesCode(code, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// matchesCode checks if a code matches a pattern.
// Examples:
//   - "syntax" matches "syntax"
//   - "transform/unterminated" matches "transform" (hierarchy)
//   - "ts2792" matches "ts" (prefix followed by a digit)
func matchesCode(code, pattern string) bool {
	if pattern == "" {
		return false
	}
	if code == pattern {
		return true
	}
	if strings.HasPrefix(code, pattern+"/") {
		return true
	}
	if strings.HasPrefix(code, pattern) && len(code) > len(pattern) {
		next := code[len(pattern)]
		if next >= '0' && next <= '9' {
			return true
		}
	}
	return false
}
