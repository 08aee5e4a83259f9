// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package harness

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/AleutianBench/services/harness/interpret"
)

// Sentinel errors classifying failed verdicts.
var (
	// ErrCompilation indicates blocking static check diagnostics.
	ErrCompilation = errors.New("compilation failed")

	// ErrEnvironment indicates the harness could not run the validation:
	// no report was produced, the engine could not start or timed out, or a
	// trusted artifact could not be prepared.
	ErrEnvironment = errors.New("environment error")

	// ErrSuiteCrash indicates the test suite failed before any test ran.
	ErrSuiteCrash = errors.New("test suite crashed")

	// ErrAssertionFailure indicates one or more tests failed.
	ErrAssertionFailure = errors.New("assertion failure")

	// ErrNoTests indicates the engine ran but found no tests.
	ErrNoTests = errors.New("no tests ran")

	// ErrNoCode indicates there was nothing to validate.
	ErrNoCode = errors.New("no code to validate")

	// ErrStructure indicates code that compiles but lacks a required shape.
	ErrStructure = errors.New("structural check failed")
)

// EnvironmentError is a failure of the harness itself rather than of the
// artifact under validation.
type EnvironmentError struct {
	// Op is the step that failed, e.g. "materialize", "execute".
	Op string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *EnvironmentError) Unwrap() error {
	return e.Cause
}

// Is matches ErrEnvironment.
func (e *EnvironmentError) Is(target error) bool {
	return target == ErrEnvironment
}

func envErr(op string, cause error) error {
	return &EnvironmentError{Op: op, Cause: cause}
}

// Classify maps a verdict to its sentinel error. Returns nil for a
// successful verdict.
func Classify(v *Verdict) error {
	if v == nil {
		return ErrEnvironment
	}
	if v.Success {
		return nil
	}
	switch v.Category {
	case interpret.CategoryCompilation:
		return ErrCompilation
	case interpret.CategorySuiteCrash:
		return ErrSuiteCrash
	case interpret.CategoryAssertion:
		return ErrAssertionFailure
	case interpret.CategoryNoTests:
		return ErrNoTests
	case interpret.CategoryNoCode:
		return ErrNoCode
	case interpret.CategoryStructure:
		return ErrStructure
	default:
		return ErrEnvironment
	}
}
