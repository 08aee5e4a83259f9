// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package check

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CHECK
// =============================================================================

func TestChecker_Check_ValidPlain(t *testing.T) {
	c := New()
	src := `export function add(a: number, b: number): number {
  return a + b;
}
`
	r := c.Check(context.Background(), src, Options{})

	require.True(t, r.Success, r.Message)
	assert.Empty(t, r.Message)
	assert.Contains(t, r.OutputText, "add")
	assert.Contains(t, r.OutputText, "module.exports")
	assert.Empty(t, r.Blocking())
}

func TestChecker_Check_UnterminatedString(t *testing.T) {
	c := New()
	src := "export const greeting = \"hello;\nexport default greeting;\n"

	r := c.Check(context.Background(), src, Options{})

	assert.False(t, r.Success)
	assert.Empty(t, r.OutputText)
	require.True(t, strings.HasPrefix(r.Message, MessagePrefix+"\n"))
	body := strings.TrimPrefix(r.Message, MessagePrefix+"\n")
	assert.NotEmpty(t, strings.TrimSpace(body))
	assert.Contains(t, r.Message, "Unterminated")
}

func TestChecker_Check_MarkupWithoutRuntimeImportIsSuppressed(t *testing.T) {
	c := New()
	src := `export const Hello = ({ name }: { name: string }) => <div>Hello, {name}!</div>;
`
	r := c.Check(context.Background(), src, Options{Markup: true})

	require.True(t, r.Success, r.Message)
	assert.Contains(t, r.OutputText, "react/jsx-runtime")

	var found bool
	for _, d := range r.Diagnostics {
		if d.Code == CodeMarkupRuntime {
			found = true
			assert.Equal(t, SeveritySuppressed, d.Severity)
			assert.Equal(t, 1, d.Line)
		}
	}
	assert.True(t, found, "markup runtime diagnostic should be recorded")
	assert.Empty(t, r.Warnings())
}

func TestChecker_Check_MarkupWithRuntimeImport(t *testing.T) {
	c := New()
	src := `import React from 'react';
export const Hello = () => <div>Hello</div>;
`
	r := c.Check(context.Background(), src, Options{Markup: true})

	require.True(t, r.Success, r.Message)
	for _, d := range r.Diagnostics {
		assert.NotEqual(t, CodeMarkupRuntime, d.Code)
	}
}

func TestChecker_Check_InjectedPolicyBlocksMarkupRuntime(t *testing.T) {
	c := New(WithPolicy(Policy{}))
	src := `export const Hello = () => <span>hi</span>;
`
	r := c.Check(context.Background(), src, Options{Markup: true})

	assert.False(t, r.Success)
	assert.Contains(t, r.Message, "UI runtime")
	assert.Empty(t, r.OutputText)
}

func TestChecker_Check_ContextPrefix(t *testing.T) {
	c := New()
	ctxDecls := `interface User {
  id: number;
  name: string;
}`
	src := `export const mockUser: User = { id: 1, name: "Ada" };
`
	r := c.Check(context.Background(), src, Options{Context: ctxDecls})

	require.True(t, r.Success, r.Message)
	assert.Contains(t, r.OutputText, "mockUser")
}

func TestChecker_Check_LinesRelativeToSource(t *testing.T) {
	c := New()
	src := "const ok = 1;\nconst broken = ;\n"

	r := c.Check(context.Background(), src, Options{Context: "interface A { x: number }"})

	require.False(t, r.Success)
	blocking := r.Blocking()
	require.NotEmpty(t, blocking)
	assert.Equal(t, 2, blocking[0].Line)
	assert.Contains(t, r.Message, "Line 2,")
}

func TestChecker_Check_SyntaxPassWarnsByDefault(t *testing.T) {
	c := New()
	r := c.Check(context.Background(), "const broken = ;\n", Options{})

	assert.False(t, r.Success)
	assert.NotEmpty(t, r.Warnings(), "syntax pass findings should be reported as warnings")
}

func TestChecker_Check_SuppressedTransformStillFails(t *testing.T) {
	c := New(WithPolicy(Policy{Suppress: []string{CodeTransform, CodeSyntax, CodeMissing}}))
	r := c.Check(context.Background(), "const broken = ;\n", Options{})

	assert.False(t, r.Success)
	assert.True(t, strings.HasPrefix(r.Message, MessagePrefix))
	assert.Empty(t, r.OutputText)
}

func TestChecker_Transpile_CommonJSTest(t *testing.T) {
	c := New()
	src := `const debounce = require('./codeUnderTest');
jest.useFakeTimers();
test('calls once', () => {
  const fn = jest.fn();
  const d = debounce(fn, 100);
  d(); d();
  jest.runAllTimers();
  expect(fn).toHaveBeenCalledTimes(1);
});
`
	r := c.Transpile(context.Background(), src, Options{Filename: "testSuite.test.js"})

	require.True(t, r.Success, r.Message)
	assert.Contains(t, r.OutputText, "require(\"./codeUnderTest\")")
}

func TestChecker_Transpile_Failure(t *testing.T) {
	c := New()
	r := c.Transpile(context.Background(), "import { from 'x';", Options{Filename: "t.test.ts"})

	assert.False(t, r.Success)
	assert.True(t, strings.HasPrefix(r.Message, MessagePrefix))
	for _, d := range r.Diagnostics {
		assert.Equal(t, SeverityError, d.Severity)
	}
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

func TestDiagnostic_Innermost(t *testing.T) {
	d := Diagnostic{
		Code:    CodeSyntax,
		Message: "Unexpected: foo(",
		Line:    3,
		Column:  1,
		Nested: []Diagnostic{
			{Code: CodeSyntax, Message: "Unexpected: (", Nested: []Diagnostic{
				{Code: CodeMissing, Message: "Missing ')'", Line: 3, Column: 5},
			}},
			{Code: CodeMissing, Message: "Missing ';'"},
		},
	}

	assert.Equal(t, "Missing ')'", d.Innermost().Message)
	assert.Equal(t, "Line 3, Col 5: Missing ')'", d.Text())
}

func TestDiagnostic_TextInheritsPosition(t *testing.T) {
	d := Diagnostic{Message: "outer", Line: 7, Column: 2, Nested: []Diagnostic{{Message: "inner"}}}
	assert.Equal(t, "Line 7, Col 2: inner", d.Text())

	assert.Equal(t, "bare", Diagnostic{Message: "bare"}.Text())
}

func TestFailureMessage_JoinsWithNewlines(t *testing.T) {
	msg := failureMessage([]Diagnostic{
		{Message: "first", Line: 1, Column: 1},
		{Message: "second"},
	})
	assert.Equal(t, "Compilation failed:\nLine 1, Col 1: first\nsecond", msg)
}

func TestSyntaxDiagnostics_NestsMissingInsideError(t *testing.T) {
	content := []byte("function f( {\n  return 1;\n")
	tree, err := parse(context.Background(), content, false)
	require.NoError(t, err)
	defer tree.Close()

	diags := syntaxDiagnostics(tree.RootNode(), content, position{})
	require.NotEmpty(t, diags)
	for _, d := range diags {
		assert.Contains(t, []string{CodeSyntax, CodeMissing}, d.Code)
		assert.NotEmpty(t, d.Innermost().Message)
	}
}

// =============================================================================
// POLICY
// =============================================================================

func TestPolicy_Severity(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		code string
		want Severity
	}{
		{CodeMarkupRuntime, SeveritySuppressed},
		{CodeSyntax, SeverityWarning},
		{CodeMissing, SeverityWarning},
		{CodeTransform, SeverityError},
		{"transform/unsupported-jsx-comment", SeverityError},
		{"something-new", SeverityError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Severity(tt.code))
		})
	}
}

func TestMatchesCode(t *testing.T) {
	tests := []struct {
		code, pattern string
		want          bool
	}{
		{"syntax", "syntax", true},
		{"transform/x", "transform", true},
		{"ts2792", "ts", true},
		{"tsx", "ts", false},
		{"transformer", "transform", false},
		{"syntax", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.code+"~"+tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesCode(tt.code, tt.pattern))
		})
	}
}

func TestPolicy_CaseInsensitive(t *testing.T) {
	p := Policy{Suppress: []string{"Markup-Runtime"}}
	assert.Equal(t, SeveritySuppressed, p.Severity("markup-runtime"))
}

// =============================================================================
// EXPORTS
// =============================================================================

func TestExports_StoryFile(t *testing.T) {
	src := `import React from 'react';
import { Button } from './Button';

export default {
  title: 'Example/Button',
  component: Button,
};

export const Primary = () => <Button primary label="Button" />;
export const Secondary = () => <Button label="Button" />;
`
	exports, err := Exports(context.Background(), src, true)
	require.NoError(t, err)

	assert.True(t, HasExport(exports, "default"))
	assert.True(t, HasExport(exports, "Primary"))
	assert.True(t, HasExport(exports, "Secondary"))
	assert.False(t, HasExport(exports, "Button"))
}

func TestExports_Declarations(t *testing.T) {
	src := `export interface Product { id: number }
export type Id = number;
export function slugify(s: string): string { return s; }
export class Cart {}
const a = 1, b = 2;
export { a, b as bee };
`
	exports, err := Exports(context.Background(), src, false)
	require.NoError(t, err)

	names := make([]string, 0, len(exports))
	for _, e := range exports {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Product", "Id", "slugify", "Cart", "a", "bee"}, names)
}
