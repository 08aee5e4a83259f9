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
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianBench/services/harness/check"
	"github.com/AleutianAI/AleutianBench/services/harness/execute"
	"github.com/AleutianAI/AleutianBench/services/harness/interpret"
	"github.com/AleutianAI/AleutianBench/services/harness/materialize"
	"github.com/AleutianAI/AleutianBench/services/harness/resolve"
	"github.com/AleutianAI/AleutianBench/services/harness/workspace"
)

// Runner runs the test engine inside a workspace.
//
// *execute.Executor implements Runner.
type Runner interface {
	// RunIsolated runs the engine once against testFile.
	RunIsolated(ctx context.Context, ws *workspace.Workspace, testFile string, opts execute.RunOptions) (*execute.Execution, error)

	// Precompiled reports whether sources must be transpiled before the run.
	Precompiled() bool
}

// maxDetailOutput bounds engine output copied into verdict details.
const maxDetailOutput = 4000

// Validator runs validation calls.
//
// Thread Safety: Safe for concurrent use.
type Validator struct {
	cfg          Config
	workspaces   *workspace.Manager
	materializer *materialize.Materializer
	resolver     *resolve.Resolver
	checker      *check.Checker
	runner       Runner
	logger       *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithRunner replaces the test engine runner.
func WithRunner(r Runner) Option {
	return func(v *Validator) {
		if r != nil {
			v.runner = r
		}
	}
}

// New creates a Validator.
//
// Inputs:
//
//	cfg - Configuration. Empty fields take defaults.
//	opts - Optional logger and runner overrides
//
// Outputs:
//
//	*Validator - Ready to use
//	error - Non-nil when the configuration is invalid
func New(cfg Config, opts ...Option) (*Validator, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("harness config: %w", err)
	}

	v := &Validator{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}

	if v.runner == nil {
		x, err := execute.New(cfg.Engine, v.logger)
		if err != nil {
			return nil, fmt.Errorf("harness config: %w", err)
		}
		v.runner = x
	}

	v.workspaces = workspace.NewManager(cfg.WorkspaceBase, cfg.WorkspacePrefix, v.logger)
	v.materializer = materialize.New(v.logger)
	v.resolver = resolve.New(cfg.Placeholders...)
	v.checker = check.New(check.WithPolicy(cfg.Policy), check.WithLogger(v.logger))
	return v, nil
}

// Check runs the static checker alone.
func (v *Validator) Check(ctx context.Context, source string, opts check.Options) *check.Result {
	return v.checker.Check(ctx, source, opts)
}

// StaticCheck checks source without running the test engine.
//
// Returns a compilation verdict when the check blocks, otherwise a passed
// verdict. declarations is text compiled ahead of source.
func (v *Validator) StaticCheck(ctx context.Context, source, declarations string, kind SyntaxKind) *Verdict {
	if strings.TrimSpace(source) == "" {
		return interpret.Failed(interpret.CategoryNoCode, "No code to validate.", "")
	}
	result := v.checker.Check(ctx, source, check.Options{
		Markup:   kind == KindMarkup,
		Context:  declarations,
		Filename: v.cfg.UntrustedModule + kind.Extension(),
	})
	if !result.Success {
		return interpret.Failed(interpret.CategoryCompilation, result.Message, "")
	}
	verdict := &Verdict{Success: true, Category: interpret.CategoryPassed, Message: "Code compiles successfully."}
	if warnings := result.Warnings(); len(warnings) > 0 {
		lines := make([]string, 0, len(warnings))
		for _, d := range warnings {
			lines = append(lines, d.Text())
		}
		verdict.Details = strings.Join(lines, "\n")
	}
	return verdict
}

// ActiveWorkspaces returns the number of workspaces currently in use.
func (v *Validator) ActiveWorkspaces() int {
	return v.workspaces.Active()
}

// ValidateGeneratedCode runs a predefined test suite against generated code.
func (v *Validator) ValidateGeneratedCode(ctx context.Context, code, predefinedTest string, kind SyntaxKind) *Verdict {
	return v.Validate(ctx, Request{
		UntrustedSource:    code,
		TrustedCounterpart: predefinedTest,
		Role:               RoleCodeIsUntrusted,
		Kind:               kind,
	})
}

// ValidateGeneratedTests runs a generated test suite against trusted code
// with coverage of the trusted module.
func (v *Validator) ValidateGeneratedTests(ctx context.Context, testCode, codeToTest string, kind SyntaxKind) *Verdict {
	return v.Validate(ctx, Request{
		UntrustedSource:    testCode,
		TrustedCounterpart: codeToTest,
		Role:               RoleTestIsUntrusted,
		Kind:               kind,
		Coverage:           true,
	})
}

// Validate runs one validation call.
//
// Description:
//
//	Creates a workspace, prepares both artifacts, runs the test engine and
//	interprets its report. For RoleCodeIsUntrusted the generated code is
//	checked first and a failed check returns a compilation verdict without
//	running the engine. The workspace is removed before Validate returns.
//
// Inputs:
//
//	ctx - Context for cancellation and tracing
//	req - The validation request
//
// Outputs:
//
//	*Verdict - Never nil. Errors and panics become failed verdicts.
//
// Thread Safety: Safe for concurrent use.
func (v *Validator) Validate(ctx context.Context, req Request) (verdict *Verdict) {
	start := time.Now()
	ctx, span := startValidateSpan(ctx, req)
	defer span.End()

	phases := newPhaseTracker(span, v.logger)

	// wsDir is set once the workspace exists so every verdict, including
	// one built from a recovered panic, is scrubbed of it.
	var wsDir string

	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("Validation panicked",
				slog.String("role", req.Role.String()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			verdict = interpret.Environment("internal error during validation: %v", r)
		}
		if verdict == nil {
			verdict = interpret.Environment("validation produced no verdict")
		}
		verdict = scrub(verdict, wsDir)
		if phases.Current() != PhaseTornDown {
			phases.advance(ctx, PhaseTornDown)
		}
		setValidateSpanResult(span, verdict)
		recordValidationMetrics(ctx, req.Role, time.Since(start), verdict)

		v.logger.Info("Validation finished",
			slog.String("role", req.Role.String()),
			slog.String("kind", req.Kind.String()),
			slog.Bool("success", verdict.Success),
			slog.String("category", string(verdict.Category)),
			slog.Duration("duration", time.Since(start)),
		)
	}()

	if err := req.Validate(); err != nil {
		return interpret.Environment("invalid request: %v", err)
	}
	if strings.TrimSpace(req.UntrustedSource) == "" {
		return interpret.Failed(interpret.CategoryNoCode, "No code to validate.", "")
	}

	err := v.workspaces.With(ctx, func(ws *workspace.Workspace) error {
		wsDir = ws.Dir
		recordWorkspaceDelta(ctx, 1)
		defer recordWorkspaceDelta(ctx, -1)

		phases.advance(ctx, PhaseWorkspacePrepared)

		result, runErr := v.run(ctx, ws, req, phases)
		if runErr != nil {
			v.logger.Warn("Validation could not complete",
				slog.String("workspace_id", ws.ID),
				slog.String("role", req.Role.String()),
				slog.String("error", runErr.Error()),
			)
			result = interpret.Environment("%v", runErr)
		}
		verdict = result
		return nil
	})
	if err != nil {
		v.logger.Error("Workspace unavailable",
			slog.String("role", req.Role.String()),
			slog.String("error", err.Error()),
		)
		return interpret.Environment("could not prepare workspace: %v", err)
	}
	return verdict
}

// run executes one call inside its workspace. A returned error is an
// environment failure; a verdict is returned for every other outcome.
func (v *Validator) run(ctx context.Context, ws *workspace.Workspace, req Request, phases *phaseTracker) (*Verdict, error) {
	var (
		testFile string
		coverage []string
		verdict  *Verdict
		err      error
	)

	switch req.Role {
	case RoleCodeIsUntrusted:
		testFile, verdict, err = v.prepareUntrustedCode(ctx, ws, req)
	default:
		testFile, coverage, verdict, err = v.prepareUntrustedTest(ctx, ws, req)
	}
	if err != nil || verdict != nil {
		return verdict, err
	}

	exe, err := v.runner.RunIsolated(ctx, ws, testFile, execute.RunOptions{CoverageFrom: coverage})
	if err != nil {
		if exe != nil && exe.Output != "" {
			return interpret.Failed(interpret.CategoryEnvironment,
				interpret.PrefixEnvironment+" "+err.Error(),
				tail(exe.Output, maxDetailOutput)), nil
		}
		return nil, envErr("execute", err)
	}
	phases.advance(ctx, PhaseExecuted)

	coveragePath := ""
	if len(coverage) > 0 {
		coveragePath = exe.CoverageSummaryPath
	}
	verdict = interpret.FromFiles(exe.ReportPath, coveragePath)
	if verdict.Category == interpret.CategoryEnvironment && exe.Output != "" {
		verdict.Details = tail(exe.Output, maxDetailOutput)
	}
	phases.advance(ctx, PhaseInterpreted)

	return verdict, nil
}

// prepareUntrustedCode checks and writes generated code, then writes the
// predefined test suite pointed at it. A non-nil verdict ends the call.
func (v *Validator) prepareUntrustedCode(ctx context.Context, ws *workspace.Workspace, req Request) (string, *Verdict, error) {
	checked := v.checker.Check(ctx, req.UntrustedSource, check.Options{
		Markup:   req.Kind == KindMarkup,
		Context:  req.Context,
		Filename: v.cfg.UntrustedModule + req.Kind.Extension(),
	})
	if !checked.Success {
		return "", interpret.Failed(interpret.CategoryCompilation, checked.Message, ""), nil
	}

	module, err := v.writeModule(ws, v.cfg.UntrustedModule, req.UntrustedSource, checked.OutputText, req.Kind)
	if err != nil {
		return "", nil, err
	}

	test, rewrites := v.resolver.Rewrite(req.TrustedCounterpart, module.Module())
	v.logger.Debug("Rewrote test references",
		slog.String("workspace_id", ws.ID),
		slog.Int("rewrites", len(rewrites)),
	)

	var compiled string
	if v.runner.Precompiled() {
		out := v.checker.Transpile(ctx, test, check.Options{
			Markup:   req.Kind == KindMarkup,
			Filename: v.testName(req.Kind),
		})
		if !out.Success {
			return "", nil, envErr("predefined test suite", fmt.Errorf("%s", out.Message))
		}
		compiled = out.OutputText
	}

	testFile, err := v.writeTest(ws, test, compiled, req.Kind)
	if err != nil {
		return "", nil, err
	}
	return testFile, nil, nil
}

// prepareUntrustedTest writes the trusted module, then checks and writes the
// generated test suite pointed at it. A non-nil verdict ends the call.
func (v *Validator) prepareUntrustedTest(ctx context.Context, ws *workspace.Workspace, req Request) (string, []string, *Verdict, error) {
	var compiled string
	if v.runner.Precompiled() {
		out := v.checker.Transpile(ctx, req.TrustedCounterpart, check.Options{
			Markup:   req.Kind == KindMarkup,
			Filename: v.cfg.TrustedModule + req.Kind.Extension(),
		})
		if !out.Success {
			return "", nil, nil, envErr("reference module", fmt.Errorf("%s", out.Message))
		}
		compiled = out.OutputText
	}

	module, err := v.writeModule(ws, v.cfg.TrustedModule, req.TrustedCounterpart, compiled, req.Kind)
	if err != nil {
		return "", nil, nil, err
	}

	test, rewrites := v.resolver.Rewrite(req.UntrustedSource, module.Module())
	v.logger.Debug("Rewrote test references",
		slog.String("workspace_id", ws.ID),
		slog.Int("rewrites", len(rewrites)),
	)

	checked := v.checker.Check(ctx, test, check.Options{
		Markup:   req.Kind == KindMarkup,
		Context:  req.Context,
		Filename: v.testName(req.Kind),
	})
	if !checked.Success {
		return "", nil, interpret.Failed(interpret.CategoryCompilation, checked.Message, ""), nil
	}

	testFile, err := v.writeTest(ws, test, checked.OutputText, req.Kind)
	if err != nil {
		return "", nil, nil, err
	}

	var coverage []string
	if req.Coverage {
		coverage = []string{module.RelativeName}
	}
	return testFile, coverage, nil, nil
}

func (v *Validator) testName(kind SyntaxKind) string {
	return v.cfg.TestModule + ".test" + kind.Extension()
}

// writeModule writes a module as compiled output when the runner expects
// precompiled sources, otherwise as source.
func (v *Validator) writeModule(ws *workspace.Workspace, name, source, compiled string, kind SyntaxKind) (*materialize.File, error) {
	var (
		f   *materialize.File
		err error
	)
	if v.runner.Precompiled() {
		f, err = v.materializer.Source(ws, name, compiled, materialize.KindCompiled)
	} else {
		f, err = v.materializer.Source(ws, name, source, kind)
	}
	if err != nil {
		return nil, envErr("materialize", err)
	}
	return f, nil
}

// writeTest writes a test suite the same way writeModule writes modules and
// returns its workspace-relative name.
func (v *Validator) writeTest(ws *workspace.Workspace, source, compiled string, kind SyntaxKind) (string, error) {
	var (
		f   *materialize.File
		err error
	)
	if v.runner.Precompiled() {
		f, err = v.materializer.Test(ws, v.cfg.TestModule, compiled, materialize.KindCompiled)
	} else {
		f, err = v.materializer.Test(ws, v.cfg.TestModule, source, kind)
	}
	if err != nil {
		return "", envErr("materialize", err)
	}
	return f.RelativeName, nil
}

// scrub removes workspace paths from verdict text.
func scrub(v *Verdict, dir string) *Verdict {
	if v == nil || dir == "" {
		return v
	}
	replace := func(s string) string {
		s = strings.ReplaceAll(s, dir+"/", "")
		return strings.ReplaceAll(s, dir, ".")
	}
	v.Message = replace(v.Message)
	v.Details = replace(v.Details)
	return v
}

// tail returns at most n trailing bytes of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
