// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package suite

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/AleutianAI/AleutianBench/services/harness"
	"github.com/AleutianAI/AleutianBench/services/harness/check"
	"github.com/AleutianAI/AleutianBench/services/harness/interpret"
)

// rule is a structural requirement on compiled code.
type rule struct {
	pattern *regexp.Regexp
	message string
}

func mustMatch(pattern, message string) rule {
	return rule{pattern: regexp.MustCompile(pattern), message: message}
}

// structural checks code with h, then applies rules in order. The first
// unmatched rule fails the verdict.
func structural(h Harness, declarations string, kind harness.SyntaxKind, success string, rules ...rule) ValidateFunc {
	return func(ctx context.Context, code string) *harness.Verdict {
		verdict := h.StaticCheck(ctx, code, declarations, kind)
		if !verdict.Success {
			return verdict
		}
		for _, r := range rules {
			if !r.pattern.MatchString(code) {
				return interpret.Failed(interpret.CategoryStructure, r.message, "")
			}
		}
		return &harness.Verdict{Success: true, Category: interpret.CategoryPassed, Message: success}
	}
}

// requireExports fails unless code exports every name. "default" names a
// default export.
func requireExports(ctx context.Context, code string, markup bool, names ...string) *harness.Verdict {
	exports, err := check.Exports(ctx, code, markup)
	if err != nil {
		return interpret.Environment("could not inspect exports: %v", err)
	}
	var missing []string
	for _, name := range names {
		if !check.HasExport(exports, name) {
			missing = append(missing, fmt.Sprintf("%q", name))
		}
	}
	if len(missing) > 0 {
		return interpret.Failed(interpret.CategoryStructure,
			fmt.Sprintf("Missing %s export.", strings.Join(missing, ", ")), "")
	}
	return nil
}
