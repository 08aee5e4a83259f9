// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolve points module references in test sources at the
// materialized module under test.
//
// The rewrite is a pure text transform. It touches only specifiers that
// follow the module-under-test conventions:
//
//   - a relative specifier whose basename carries a placeholder prefix,
//     such as "./generatedDebounce" or "../fixtures/generatedComponent"
//   - any relative specifier beginning with "./"
//
// Package imports ("react", "generated-client"), parent-relative paths that are not
// placeholders ("../shared/util") and absolute paths pass through
// byte-identical. Applying the rewrite twice gives the same result as
// applying it once.
package resolve

import (
	"path"
	"regexp"
	"strings"
)

// DefaultPlaceholderPrefix is the stand-in basename prefix generated tests
// use for the module under test.
const DefaultPlaceholderPrefix = "generated"

// specifierPattern matches a module specifier in the positions a test file
// can reference a module from:
//
//	import x from '...'      export * from '...'
//	import '...'             import('...')
//	require('...')           jest.mock('...') and friends
//
// Group 1 is everything before the opening quote, group 2 the opening quote,
// group 3 the specifier and group 4 the closing quote.
var specifierPattern = regexp.MustCompile(
	`(\bfrom\s*|\bimport\s*\(?\s*|\brequire\s*\(\s*|\bjest\s*\.\s*(?:mock|doMock|unmock|dontMock|setMock|requireActual|requireMock|createMockFromModule)\s*\(\s*)(['"])([^'"\r\n]+)(['"])`,
)

// Rewrite records one replaced specifier.
type Rewrite struct {
	// From is the original specifier.
	From string

	// To is the replacement specifier.
	To string

	// Offset is the byte offset of the specifier in the original source.
	Offset int
}

// Resolver rewrites module references.
//
// The zero value is not usable; use New or Default.
type Resolver struct {
	placeholders []string
}

// New creates a Resolver recognizing the given placeholder basename prefixes.
// With no prefixes, DefaultPlaceholderPrefix is used.
func New(placeholders ...string) *Resolver {
	if len(placeholders) == 0 {
		placeholders = []string{DefaultPlaceholderPrefix}
	}
	return &Resolver{placeholders: placeholders}
}

// Default returns a Resolver with the default placeholder convention.
func Default() *Resolver {
	return New()
}

// Rewrite replaces every convention-matching specifier in source with
// "./" + target and reports what changed.
//
// Inputs:
//
//	source - Test source text
//	target - Module name of the module under test, without extension
//
// Outputs:
//
//	string - Rewritten source
//	[]Rewrite - Specifiers that were replaced, in source order. Specifiers
//	already equal to the target are not reported.
func (r *Resolver) Rewrite(source, target string) (string, []Rewrite) {
	replacement := "./" + strings.TrimPrefix(target, "./")

	matches := specifierPattern.FindAllStringSubmatchIndex(source, -1)
	if len(matches) == 0 {
		return source, nil
	}

	var (
		b        strings.Builder
		rewrites []Rewrite
		last     int
	)
	b.Grow(len(source))

	for _, m := range matches {
		openQ := source[m[4]:m[5]]
		spec := source[m[6]:m[7]]
		closeQ := source[m[8]:m[9]]

		if openQ != closeQ || !r.matches(spec) || spec == replacement {
			continue
		}

		b.WriteString(source[last:m[6]])
		b.WriteString(replacement)
		last = m[7]

		rewrites = append(rewrites, Rewrite{From: spec, To: replacement, Offset: m[6]})
	}

	if len(rewrites) == 0 {
		return source, nil
	}
	b.WriteString(source[last:])
	return b.String(), rewrites
}

func (r *Resolver) matches(spec string) bool {
	if strings.HasPrefix(spec, "./") {
		return true
	}
	// Bare and scoped package specifiers ("generated-client",
	// "@scope/generated-client") are never placeholders.
	if !strings.HasPrefix(spec, ".") {
		return false
	}
	base := path.Base(spec)
	for _, p := range r.placeholders {
		if p != "" && strings.HasPrefix(base, p) {
			return true
		}
	}
	return false
}

// RewriteReferences rewrites source with the default placeholder convention.
func RewriteReferences(source, target string) (string, []Rewrite) {
	return Default().Rewrite(source, target)
}
