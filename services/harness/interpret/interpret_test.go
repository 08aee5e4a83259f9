// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package interpret

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadReport(t *testing.T, name string) *Report {
	t.Helper()
	r, err := ReadReport(filepath.Join("testdata", name))
	require.NoError(t, err)
	return r
}

// =============================================================================
// REPORT READING
// =============================================================================

func TestReadReport_Missing(t *testing.T) {
	_, err := ReadReport(filepath.Join(t.TempDir(), "report.json"))
	assert.ErrorIs(t, err, ErrReportMissing)
}

func TestReadReport_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := ReadReport(path)
	assert.ErrorIs(t, err, ErrReportMalformed)
}

func TestSuiteResult_SuiteError(t *testing.T) {
	tests := []struct {
		name  string
		suite SuiteResult
		want  string
	}{
		{"failure message wins", SuiteResult{FailureMessage: "fm", Message: "m", TestExecError: &ExecError{Message: "exec"}}, "fm"},
		{"exec error", SuiteResult{TestExecError: &ExecError{Message: "exec"}}, "exec"},
		{"crashed suite message", SuiteResult{Status: "failed", Message: "boom"}, "boom"},
		{"suite with assertions", SuiteResult{Status: "failed", Message: "summary", AssertionResults: []AssertionResult{{Status: "failed"}}}, ""},
		{"passing suite", SuiteResult{Status: "passed"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.suite.SuiteError())
		})
	}
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

func TestInterpret_MissingReportIsEnvironmentError(t *testing.T) {
	v := Interpret(nil, nil)

	assert.False(t, v.Success)
	assert.Equal(t, CategoryEnvironment, v.Category)
	assert.True(t, strings.HasPrefix(v.Message, PrefixEnvironment))
	assert.Contains(t, v.Message, "failed to produce output")
}

func TestFromFiles_MissingReportNeverSucceeds(t *testing.T) {
	dir := t.TempDir()
	v := FromFiles(filepath.Join(dir, "report.json"), filepath.Join(dir, "coverage", "coverage-summary.json"))

	assert.False(t, v.Success)
	assert.Equal(t, CategoryEnvironment, v.Category)
	assert.Contains(t, v.Message, "failed to produce output")
}

func TestFromFiles_MalformedReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"numTotalTests": "four"}`), 0644))

	v := FromFiles(path, "")
	assert.False(t, v.Success)
	assert.Equal(t, CategoryEnvironment, v.Category)
	assert.Contains(t, v.Message, "unreadable report")
}

func TestInterpret_TogglePassIncludesExactCount(t *testing.T) {
	v := Interpret(loadReport(t, "toggle_pass.json"), nil)

	assert.True(t, v.Success)
	assert.Equal(t, CategoryPassed, v.Category)
	assert.Equal(t, "All 4 tests passed.", v.Message)
	assert.Empty(t, v.Details)
}

func TestInterpret_PassWithCoverageVerbatim(t *testing.T) {
	cov := ReadCoverage(filepath.Join("testdata", "coverage-summary.json"))
	require.NotNil(t, cov)

	v := Interpret(loadReport(t, "toggle_pass.json"), cov)

	assert.True(t, v.Success)
	assert.Equal(t, "All 4 tests passed. Coverage: 85.71% lines.", v.Message)
	require.NotNil(t, v.Coverage)
	assert.Equal(t, 85.71, v.Coverage.Lines.Pct)
}

func TestInterpret_PassCountFallsBackToTotal(t *testing.T) {
	v := Interpret(&Report{Success: true, NumTotalTests: 3}, nil)
	assert.Equal(t, "All 3 tests passed.", v.Message)
}

func TestInterpret_AllSkippedIsNotAPass(t *testing.T) {
	v := Interpret(&Report{Success: true, NumTotalTests: 2, NumPendingTests: 2}, nil)

	assert.False(t, v.Success)
	assert.Equal(t, CategoryNoTests, v.Category)
	assert.Equal(t, "No tests ran. All 2 tests were skipped.", v.Message)
}

func TestInterpret_PassReportsSkipped(t *testing.T) {
	v := Interpret(&Report{Success: true, NumTotalTests: 3, NumPassedTests: 2, NumPendingTests: 1}, nil)

	assert.True(t, v.Success)
	assert.Equal(t, "All 2 tests passed (1 skipped).", v.Message)
}

func TestInterpret_SuiteCrashKeepsLiteralText(t *testing.T) {
	v := Interpret(loadReport(t, "suite_crash.json"), nil)

	assert.False(t, v.Success)
	assert.Equal(t, CategorySuiteCrash, v.Category)
	assert.True(t, strings.HasPrefix(v.Message, PrefixSuiteCrash))
	assert.Contains(t, v.Message, "Cannot find module './missingHelper' from 'testSuite.test.js'")
	assert.NotContains(t, v.Message, "\x1b[")
}

func TestInterpret_SuiteCrashFromExecError(t *testing.T) {
	report := &Report{
		TestResults: []SuiteResult{
			{Name: "a.test.js", Status: "failed", AssertionResults: nil, TestExecError: &ExecError{Message: "\x1b[31mCannot find module 'react'\x1b[39m"}},
		},
	}
	v := Interpret(report, nil)

	assert.Equal(t, CategorySuiteCrash, v.Category)
	assert.Contains(t, v.Message, "Cannot find module 'react'")
	assert.NotContains(t, v.Message, "\x1b")
}

func TestInterpret_ZeroTestsWithoutSuiteError(t *testing.T) {
	v := Interpret(&Report{Success: true, NumTotalTests: 0}, nil)

	assert.False(t, v.Success)
	assert.Equal(t, CategoryNoTests, v.Category)
	assert.Contains(t, v.Message, "No tests ran")
}

func TestInterpret_AssertionFailures(t *testing.T) {
	v := Interpret(loadReport(t, "assertion_failures.json"), nil)

	assert.False(t, v.Success)
	assert.Equal(t, CategoryAssertion, v.Category)
	assert.Equal(t, "Tests failed. 2/4 failed.\n(Coverage data not available.)", v.Message)

	items := strings.Split(v.Details, FailureSeparator)
	require.Len(t, items, 2)

	assert.True(t, strings.HasPrefix(items[0], "Test: debounce > timing > resets the timer\n"))
	assert.Contains(t, items[0], "Expected number of calls: 1")
	assert.Contains(t, items[0], "expect(received).toHaveBeenCalledTimes(expected)")
	assert.NotContains(t, items[0], "\x1b")

	assert.Equal(t, "Test: passes arguments\nError: expected 'a' got undefined\nsecond line", items[1])
}

func TestInterpret_AssertionFailuresWithCoverage(t *testing.T) {
	cov := ParseCoverage([]byte(`{"total":{"lines":{"total":10,"covered":5,"skipped":0,"pct":50}}}`))
	v := Interpret(loadReport(t, "assertion_failures.json"), cov)

	assert.Contains(t, v.Message, "(Coverage was 50% lines.)")
	assert.NotContains(t, v.Message, "not available")
}

func TestInterpret_SuitesWithoutAssertionsContributeNothing(t *testing.T) {
	report := &Report{
		NumTotalTests:  1,
		NumFailedTests: 1,
		TestResults: []SuiteResult{
			{Name: "crashed.test.js", Status: "failed"},
			{Name: "ok.test.js", AssertionResults: []AssertionResult{
				{AncestorTitles: []string{"slugify"}, Title: "lowercases", Status: "failed", FailureMessages: []string{"nope"}},
			}},
		},
	}

	v := Interpret(report, nil)
	assert.Equal(t, "Test: slugify > lowercases\nnope", v.Details)
}

func TestInterpret_FailureWithoutItems(t *testing.T) {
	report := &Report{
		NumTotalTests: 2,
		TestResults: []SuiteResult{
			{Name: "x.test.js", Status: "failed", FailureMessage: "afterAll hook threw"},
		},
	}

	v := Interpret(report, nil)
	assert.Equal(t, "Tests failed. 0/2 failed.\n(Coverage data not available.)", v.Message)
	assert.Equal(t, "afterAll hook threw", v.Details)
}

// =============================================================================
// COVERAGE
// =============================================================================

func TestReadCoverage(t *testing.T) {
	cov := ReadCoverage(filepath.Join("testdata", "coverage-summary.json"))
	require.NotNil(t, cov)

	assert.Equal(t, Metric{Total: 14, Covered: 12, Pct: 85.71, Text: "85.71", Known: true}, cov.Lines)
	assert.Equal(t, "100", cov.Functions.Text)
	assert.Equal(t, 75.0, cov.Branches.Pct)
	assert.Equal(t, 13, cov.Statements.Covered)
	assert.Equal(t, "85.71", cov.LinePct())
}

func TestReadCoverage_Unknown(t *testing.T) {
	cov := ReadCoverage(filepath.Join("testdata", "coverage-unknown.json"))
	require.NotNil(t, cov)
	assert.False(t, cov.Lines.Known)
	assert.Empty(t, cov.LinePct())

	v := Interpret(&Report{Success: true, NumTotalTests: 1, NumPassedTests: 1}, cov)
	assert.Equal(t, "All 1 tests passed.", v.Message)
}

func TestReadCoverage_Absent(t *testing.T) {
	assert.Nil(t, ReadCoverage(filepath.Join(t.TempDir(), "nope.json")))
	assert.Nil(t, ParseCoverage([]byte("garbage")))
	assert.Nil(t, ParseCoverage([]byte(`{"other":{}}`)))

	var nilCov *Coverage
	assert.Empty(t, nilCov.LinePct())
}
