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
	"github.com/AleutianAI/AleutianBench/services/harness/materialize"
)

// Verdict is the outcome of one validation call.
type Verdict = interpret.Verdict

// Coverage is the aggregate coverage of the module under test.
type Coverage = interpret.Coverage

// SyntaxKind selects plain or markup-capable compilation.
type SyntaxKind = materialize.Kind

const (
	// KindPlain is typed source without markup.
	KindPlain = materialize.KindPlain

	// KindMarkup is typed source with embedded UI markup.
	KindMarkup = materialize.KindMarkup
)

// DetectKind guesses the kind from a test source. Prefer an explicit kind.
func DetectKind(testSource string) SyntaxKind {
	return materialize.DetectKind(testSource)
}

// Role says which side of a validation call is untrusted.
type Role int

const (
	// RoleCodeIsUntrusted runs a predefined test suite against generated code.
	RoleCodeIsUntrusted Role = iota

	// RoleTestIsUntrusted runs a generated test suite against trusted code.
	RoleTestIsUntrusted
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleCodeIsUntrusted:
		return "code_is_untrusted"
	case RoleTestIsUntrusted:
		return "test_is_untrusted"
	default:
		return "unknown"
	}
}

// Request is the immutable input to one validation call.
type Request struct {
	// UntrustedSource is the generated artifact.
	UntrustedSource string

	// TrustedCounterpart is the reference artifact: a test suite for
	// RoleCodeIsUntrusted, a module for RoleTestIsUntrusted.
	TrustedCounterpart string

	// Role says which side is untrusted.
	Role Role

	// Kind selects plain or markup-capable compilation for both sides.
	Kind SyntaxKind

	// Context is declaration text compiled ahead of untrusted code.
	Context string

	// Coverage collects coverage of the module under test.
	Coverage bool
}

// Validate checks the request shape.
func (r Request) Validate() error {
	switch {
	case r.Role != RoleCodeIsUntrusted && r.Role != RoleTestIsUntrusted:
		return envErr("request", fmt.Errorf("unknown role %d", int(r.Role)))
	case r.Kind != KindPlain && r.Kind != KindMarkup:
		return envErr("request", fmt.Errorf("unsupported syntax kind %s", r.Kind))
	case r.TrustedCounterpart == "":
		return envErr("request", errors.New("trusted counterpart is empty"))
	}
	return nil
}
