// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package check statically checks and transpiles untrusted source.
//
// A check runs two passes over the source:
//
//  1. A syntax pass with tree-sitter that locates unparseable regions and
//     missing tokens, and notes markup used without its UI runtime.
//  2. A transpile pass with esbuild that produces a CommonJS module.
//
// Every finding is a Diagnostic with a code. An injected Policy decides
// which codes are suppressed, which are warnings and which block. A check
// with any blocking diagnostic fails with a message listing them.
//
// # Thread Safety
//
// Checker is safe for concurrent use.
package check

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Checker checks and transpiles sources.
type Checker struct {
	policy Policy
	logger *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithPolicy sets the diagnostic policy.
func WithPolicy(p Policy) Option {
	return func(c *Checker) {
		c.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Checker with DefaultPolicy unless overridden.
func New(opts ...Option) *Checker {
	c := &Checker{
		policy: DefaultPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check statically checks source and transpiles it.
//
// Description:
//
//	Prepends opts.Context (plus a newline) when non-empty, runs the syntax
//	and transpile passes, applies the policy and builds the result. When
//	any diagnostic blocks, Success is false and Message lists the blocking
//	diagnostics (innermost text of each) one per line.
//
// Inputs:
//
//	ctx - Context for cancellation and tracing
//	source - Source text to check
//	opts - Markup mode, context declarations and filename
//
// Outputs:
//
//	*Result - Never nil
func (c *Checker) Check(ctx context.Context, source string, opts Options) *Result {
	start := time.Now()
	ctx, span := startCheckSpan(ctx, opts.Markup, len(source))
	defer span.End()

	input := source
	pos := position{}
	if opts.Context != "" {
		input = opts.Context + "\n" + source
		pos.lineOffset = strings.Count(opts.Context, "\n") + 1
	}
	content := []byte(input)

	var diags []Diagnostic
	tree, err := parse(ctx, content, opts.Markup)
	if err != nil {
		c.logger.Warn("Syntax pass unavailable",
			slog.String("error", err.Error()),
		)
	} else {
		root := tree.RootNode()
		diags = append(diags, syntaxDiagnostics(root, content, pos)...)
		if opts.Markup {
			diags = append(diags, markupDiagnostics(root, content, pos)...)
		}
		tree.Close()
	}

	output, transformDiags := transpile(input, opts.Filename, opts.Markup, pos)
	diags = append(diags, transformDiags...)

	result := c.finish(diags, output)

	setCheckSpanResult(span, result)
	recordCheckMetrics(ctx, opts.Markup, time.Since(start), result)

	c.logger.Debug("Checked source",
		slog.Bool("success", result.Success),
		slog.Bool("markup", opts.Markup),
		slog.Int("diagnostics", len(result.Diagnostics)),
		slog.Int("blocking", len(result.Blocking())),
		slog.Duration("duration", time.Since(start)),
	)

	return result
}

// Transpile compiles trusted source without the syntax pass.
//
// Used for test files and reference modules so everything the test engine
// loads goes through the same transform. Transpiler errors are blocking
// regardless of policy.
func (c *Checker) Transpile(ctx context.Context, source string, opts Options) *Result {
	_, span := startCheckSpan(ctx, opts.Markup, len(source))
	defer span.End()

	output, diags := transpile(source, opts.Filename, opts.Markup, position{})
	for i := range diags {
		diags[i].Severity = SeverityError
	}
	result := &Result{Success: len(diags) == 0, OutputText: output, Diagnostics: diags}
	if !result.Success {
		result.Message = failureMessage(diags)
	}
	setCheckSpanResult(span, result)
	return result
}

func (c *Checker) finish(diags []Diagnostic, output string) *Result {
	c.policy.Apply(diags)
	result := &Result{Diagnostics: diags}

	blocking := result.Blocking()
	if len(blocking) == 0 {
		// Nothing to run when the transpiler failed, whatever the policy says.
		blocking = transformErrors(diags)
	}
	if len(blocking) > 0 {
		result.Message = failureMessage(blocking)
		return result
	}

	result.Success = true
	result.OutputText = output
	return result
}

func transformErrors(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Code == CodeTransform || strings.HasPrefix(d.Code, CodeTransform+"/") {
			out = append(out, d)
		}
	}
	return out
}
