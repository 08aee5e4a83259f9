// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package interpret turns a test engine report into a Verdict.
//
// Classification order:
//
//  1. No report file: environment failure.
//  2. Zero tests and a suite-level error: suite crash, reported with the
//     suite's own error text.
//  3. Zero tests and no suite error: nothing ran, reported as a failure.
//  4. Report success flag set: pass, with the passed count and coverage.
//  5. Otherwise: assertion failures, itemized per failed test.
//
// All engine text has terminal control sequences stripped.
package interpret

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Category classifies a Verdict.
type Category string

const (
	CategoryPassed      Category = "passed"
	CategoryCompilation Category = "compilation"
	CategoryEnvironment Category = "environment"
	CategorySuiteCrash  Category = "suite-crash"
	CategoryAssertion   Category = "assertion"
	CategoryNoTests     Category = "no-tests"
	CategoryNoCode      Category = "no-code"
	CategoryStructure   Category = "structure"
)

// Message prefixes callers can match on to tell failure kinds apart.
const (
	PrefixCompilation = "Compilation failed:"
	PrefixEnvironment = "Environment error:"
	PrefixSuiteCrash  = "Test suite failed to run"
	PrefixAssertion   = "Tests failed."
)

// FailureSeparator separates itemized failures in Verdict.Details.
const FailureSeparator = "\n\n---\n\n"

// Verdict is the outcome of one validation call.
type Verdict struct {
	Success  bool      `json:"success"`
	Category Category  `json:"category"`
	Message  string    `json:"message"`
	Details  string    `json:"details,omitempty"`
	Coverage *Coverage `json:"coverage,omitempty"`
}

// Failed builds a failed verdict.
func Failed(category Category, message, details string) *Verdict {
	return &Verdict{Category: category, Message: message, Details: details}
}

// Environment builds an environment-failure verdict with the standard prefix.
func Environment(format string, args ...any) *Verdict {
	return Failed(CategoryEnvironment, PrefixEnvironment+" "+fmt.Sprintf(format, args...), "")
}

// FromFiles runs the two-phase read: check the report exists, parse it once,
// then interpret it together with the optional coverage summary.
func FromFiles(reportPath, coveragePath string) *Verdict {
	report, err := ReadReport(reportPath)
	if err != nil {
		if errors.Is(err, ErrReportMissing) {
			return Interpret(nil, nil)
		}
		return Environment("test engine wrote an unreadable report: %v", err)
	}
	var cov *Coverage
	if coveragePath != "" {
		cov = ReadCoverage(coveragePath)
	}
	return Interpret(report, cov)
}

// Interpret classifies a report. A nil report means the engine failed to
// produce one.
func Interpret(report *Report, cov *Coverage) *Verdict {
	if report == nil {
		return Environment("test engine failed to produce output (no report file was written).")
	}

	if report.NumTotalTests == 0 {
		if text, ok := firstSuiteError(report); ok {
			return &Verdict{
				Category: CategorySuiteCrash,
				Message: PrefixSuiteCrash + " due to a critical error (e.g., syntax or import error).\n\nDetails:\n" +
					ansi.Strip(text),
				Coverage: cov,
			}
		}
		return &Verdict{
			Category: CategoryNoTests,
			Message:  "No tests ran. Ensure the test file defines tests and is picked up by the test engine.",
			Coverage: cov,
		}
	}

	if report.Success {
		passed := report.NumPassedTests
		if passed == 0 {
			passed = report.NumTotalTests - report.NumPendingTests
		}
		if passed <= 0 {
			return &Verdict{
				Category: CategoryNoTests,
				Message:  fmt.Sprintf("No tests ran. All %d tests were skipped.", report.NumTotalTests),
				Coverage: cov,
			}
		}
		msg := fmt.Sprintf("All %d tests passed.", passed)
		if report.NumPendingTests > 0 {
			msg = fmt.Sprintf("All %d tests passed (%d skipped).", passed, report.NumPendingTests)
		}
		if pct := cov.LinePct(); pct != "" {
			msg += fmt.Sprintf(" Coverage: %s%% lines.", pct)
		}
		return &Verdict{
			Success:  true,
			Category: CategoryPassed,
			Message:  msg,
			Coverage: cov,
		}
	}

	failures := collectFailures(report)
	failed := report.NumFailedTests
	if failed == 0 {
		failed = len(failures)
	}

	msg := fmt.Sprintf("%s %d/%d failed.", PrefixAssertion, failed, report.NumTotalTests)
	if pct := cov.LinePct(); pct != "" {
		msg += fmt.Sprintf("\n(Coverage was %s%% lines.)", pct)
	} else {
		msg += "\n(Coverage data not available.)"
	}

	details := strings.Join(failures, FailureSeparator)
	if details == "" {
		details = "No individual failure messages were reported. Check for suite-level errors in the test output."
		if text, ok := firstSuiteError(report); ok {
			details = ansi.Strip(text)
		}
	}

	return &Verdict{
		Category: CategoryAssertion,
		Message:  msg,
		Details:  details,
		Coverage: cov,
	}
}

// firstSuiteError returns the first non-empty suite-level error text.
func firstSuiteError(report *Report) (string, bool) {
	for i := range report.TestResults {
		suite := &report.TestResults[i]
		if text := suite.SuiteError(); text != "" {
			return text, true
		}
	}
	return "", false
}

// collectFailures formats every failed assertion across all suites.
// Suites without assertion results contribute nothing.
func collectFailures(report *Report) []string {
	var out []string
	for i := range report.TestResults {
		suite := &report.TestResults[i]
		for _, a := range suite.AssertionResults {
			if a.Status != "failed" {
				continue
			}
			out = append(out, formatFailure(a))
		}
	}
	return out
}

func formatFailure(a AssertionResult) string {
	titles := make([]string, 0, len(a.AncestorTitles)+1)
	titles = append(titles, a.AncestorTitles...)
	titles = append(titles, a.Title)
	text := ansi.Strip(strings.Join(a.FailureMessages, "\n"))
	return "Test: " + strings.Join(titles, " > ") + "\n" + text
}
