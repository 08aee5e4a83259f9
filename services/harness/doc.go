// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package harness validates machine-generated source against reference
// acceptance criteria and returns a Verdict.
//
// A validation call pairs an untrusted artifact with a trusted one:
//
//   - RoleCodeIsUntrusted: generated code is run against a predefined test
//     suite. The generated code is statically checked first and the test
//     engine never runs when the check fails.
//   - RoleTestIsUntrusted: a generated test suite is run against a trusted
//     reference module, optionally collecting coverage of the module.
//
// Every call gets its own workspace directory which is removed on every exit
// path. Errors and panics inside a call become failed verdicts; Validate
// never returns an error and never panics.
//
// # Phases
//
// Each call moves through Idle, WorkspacePrepared, Executed, Interpreted and
// TornDown. Any failure jumps straight to TornDown. Transitions are recorded
// as span events and counted in metrics.
//
// # Thread Safety
//
// Validator is safe for concurrent use. Calls share no mutable state.
//
// # Example Usage
//
//	v, err := harness.New(harness.DefaultConfig(), harness.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	verdict := v.ValidateGeneratedCode(ctx, generated, predefinedTest, harness.KindPlain)
//	fmt.Println(verdict.Success, verdict.Message)
package harness
