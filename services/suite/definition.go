// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package suite defines benchmark tasks and runs them against a model.
//
// A Definition pairs a prompt with a validation function. The Runner asks
// the model for a response, extracts the code from it and hands the code to
// the definition's validator, which in turn drives the validation harness.
package suite

import (
	"context"

	"github.com/AleutianAI/AleutianBench/services/harness"
)

// Harness is the part of the validation harness definitions use.
//
// *harness.Validator implements Harness.
type Harness interface {
	// ValidateGeneratedCode runs a predefined test suite against code.
	ValidateGeneratedCode(ctx context.Context, code, predefinedTest string, kind harness.SyntaxKind) *harness.Verdict

	// ValidateGeneratedTests runs a generated test suite against trusted code.
	ValidateGeneratedTests(ctx context.Context, testCode, codeToTest string, kind harness.SyntaxKind) *harness.Verdict

	// StaticCheck checks source without running tests.
	StaticCheck(ctx context.Context, source, declarations string, kind harness.SyntaxKind) *harness.Verdict
}

// ValidateFunc judges extracted code. It must return a non-nil verdict.
type ValidateFunc func(ctx context.Context, code string) *harness.Verdict

// Definition is one benchmark task.
type Definition struct {
	// ID is unique within a registry, e.g. "react-hook".
	ID string

	// Description is a one-line summary shown in listings.
	Description string

	// Prompt is sent to the model verbatim.
	Prompt string

	// Kind is the syntax kind of the artifacts.
	Kind harness.SyntaxKind

	// Validate judges the extracted code.
	Validate ValidateFunc
}
