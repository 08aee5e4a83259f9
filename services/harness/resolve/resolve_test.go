// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewrite_Conventions(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
		count  int
	}{
		{
			name:   "require placeholder",
			source: `const debounce = require('./generatedDebounce');`,
			want:   `const debounce = require('./codeUnderTest');`,
			count:  1,
		},
		{
			name:   "es import placeholder double quotes",
			source: `import HelloWorld from "./generatedComponent";`,
			want:   `import HelloWorld from "./codeUnderTest";`,
			count:  1,
		},
		{
			name:   "placeholder in parent directory",
			source: `import { useToggle } from '../hooks/generatedHook';`,
			want:   `import { useToggle } from './codeUnderTest';`,
			count:  1,
		},
		{
			name:   "relative dot slash",
			source: `import { slugify } from './slugify';`,
			want:   `import { slugify } from './codeUnderTest';`,
			count:  1,
		},
		{
			name:   "side effect import",
			source: `import './setup';`,
			want:   `import './codeUnderTest';`,
			count:  1,
		},
		{
			name:   "dynamic import",
			source: `const mod = await import('./useToggle');`,
			want:   `const mod = await import('./codeUnderTest');`,
			count:  1,
		},
		{
			name:   "jest mock",
			source: `jest.mock('./generatedApi');`,
			want:   `jest.mock('./codeUnderTest');`,
			count:  1,
		},
		{
			name:   "re-export",
			source: `export * from './generatedThing';`,
			want:   `export * from './codeUnderTest';`,
			count:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rewrites := RewriteReferences(tt.source, "codeUnderTest")
			assert.Equal(t, tt.want, got)
			assert.Len(t, rewrites, tt.count)
		})
	}
}

func TestRewrite_LeavesUnrelatedImportsByteIdentical(t *testing.T) {
	sources := []string{
		`import React from 'react';`,
		`import { render, screen } from '@testing-library/react';`,
		`import '@testing-library/jest-dom';`,
		`const path = require("path");`,
		`import { helper } from '../shared/helper';`,
		`import client from '@acme/generated-client';`,
		`import x from '/abs/path';`,
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			got, rewrites := RewriteReferences(src, "codeUnderTest")
			assert.Equal(t, src, got)
			assert.Empty(t, rewrites)
		})
	}
}

func TestRewrite_MixedSource(t *testing.T) {
	src := `import React from 'react';
import { render, screen, fireEvent } from '@testing-library/react';
import { useToggle } from './generatedHook';
import { helper } from '../shared/helper';

jest.mock('../shared/helper');
`
	want := `import React from 'react';
import { render, screen, fireEvent } from '@testing-library/react';
import { useToggle } from './codeUnderTest';
import { helper } from '../shared/helper';

jest.mock('../shared/helper');
`
	got, rewrites := RewriteReferences(src, "codeUnderTest")
	assert.Equal(t, want, got)
	require.Len(t, rewrites, 1)
	assert.Equal(t, "./generatedHook", rewrites[0].From)
	assert.Equal(t, "./codeUnderTest", rewrites[0].To)
}

func TestRewrite_Idempotent(t *testing.T) {
	sources := []string{
		`const debounce = require('./generatedDebounce');`,
		`import A from './a'; import B from "./generatedB"; import R from 'react';`,
		`import './codeUnderTest';`,
		``,
	}
	for _, src := range sources {
		once, _ := RewriteReferences(src, "codeUnderTest")
		twice, rewrites := RewriteReferences(once, "codeUnderTest")
		assert.Equal(t, once, twice)
		assert.Empty(t, rewrites)
	}
}

func TestRewrite_MismatchedQuotesIgnored(t *testing.T) {
	src := `require('./generatedDebounce");`
	got, rewrites := RewriteReferences(src, "codeUnderTest")
	assert.Equal(t, src, got)
	assert.Empty(t, rewrites)
}

func TestRewrite_TargetWithDotSlash(t *testing.T) {
	got, _ := RewriteReferences(`require('./generatedX')`, "./codeToTest")
	assert.Equal(t, `require('./codeToTest')`, got)
}

func TestResolver_CustomPlaceholders(t *testing.T) {
	r := New("stub", "placeholder")

	assert.True(t, r.matches("../stubWidget"))
	assert.True(t, r.matches("../../placeholderModule"))
	assert.True(t, r.matches("./anything"))
	assert.False(t, r.matches("placeholderModule"))
	assert.False(t, r.matches("../generatedDebounce"))
	assert.False(t, r.matches("lodash"))
}

func TestRewrite_BarePackagesWithPlaceholderPrefix(t *testing.T) {
	sources := []string{
		`import { client } from 'generated-client';`,
		`const types = require('generatedTypes');`,
		`jest.mock('generated-api');`,
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			got, rewrites := RewriteReferences(src, "codeUnderTest")
			assert.Equal(t, src, got)
			assert.Empty(t, rewrites)
		})
	}
}
