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
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrReportMissing indicates the engine exited without writing a report.
	ErrReportMissing = errors.New("report file missing")

	// ErrReportMalformed indicates the report file could not be decoded.
	ErrReportMalformed = errors.New("report file malformed")
)

// Report is the subset of the test engine's JSON report the interpreter uses.
type Report struct {
	Success                   bool          `json:"success"`
	NumTotalTests             int           `json:"numTotalTests"`
	NumPassedTests            int           `json:"numPassedTests"`
	NumFailedTests            int           `json:"numFailedTests"`
	NumPendingTests           int           `json:"numPendingTests"`
	NumRuntimeErrorTestSuites int           `json:"numRuntimeErrorTestSuites"`
	TestResults               []SuiteResult `json:"testResults"`
}

// SuiteResult is one test file's result.
type SuiteResult struct {
	Name             string            `json:"name"`
	Status           string            `json:"status"`
	Message          string            `json:"message"`
	FailureMessage   string            `json:"failureMessage"`
	TestExecError    *ExecError        `json:"testExecError"`
	AssertionResults []AssertionResult `json:"assertionResults"`
}

// ExecError is a suite-level execution error.
type ExecError struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

// AssertionResult is one test case's result.
type AssertionResult struct {
	AncestorTitles  []string `json:"ancestorTitles"`
	Title           string   `json:"title"`
	FullName        string   `json:"fullName"`
	Status          string   `json:"status"`
	FailureMessages []string `json:"failureMessages"`
}

// SuiteError returns the suite-level error text, or "" when the suite ran.
func (s *SuiteResult) SuiteError() string {
	switch {
	case s.FailureMessage != "":
		return s.FailureMessage
	case s.TestExecError != nil && s.TestExecError.Message != "":
		return s.TestExecError.Message
	case s.Status == "failed" && len(s.AssertionResults) == 0:
		return s.Message
	default:
		return ""
	}
}

// ReadReport reads and decodes the report at path.
//
// Outputs:
//
//	*Report - Decoded report
//	error - ErrReportMissing when the file does not exist,
//	        ErrReportMalformed when it cannot be decoded
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrReportMissing, path)
		}
		return nil, fmt.Errorf("%w: read: %v", ErrReportMalformed, err)
	}
	return ParseReport(data)
}

// ParseReport decodes report bytes.
func ParseReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportMalformed, err)
	}
	return &r, nil
}
