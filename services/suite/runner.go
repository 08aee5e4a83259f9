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
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianBench/pkg/extract"
	"github.com/AleutianAI/AleutianBench/services/harness"
	"github.com/AleutianAI/AleutianBench/services/llm"
)

var tracer = otel.Tracer("aleutian.bench.suite")

// Status is the outcome of one definition.
type Status string

const (
	// StatusPassed means the generated code passed validation.
	StatusPassed Status = "PASSED"

	// StatusFailed means the generated code was judged and rejected.
	StatusFailed Status = "FAILED"

	// StatusError means the definition could not be judged: generation
	// failed or the harness hit an environment error.
	StatusError Status = "ERROR"
)

// NoCodeMessage is reported when a response holds no code.
const NoCodeMessage = "LLM returned an empty response or no code block was found."

// Result is the outcome of one definition.
type Result struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Status      Status           `json:"status"`
	Message     string           `json:"message"`
	Details     string           `json:"details,omitempty"`
	Response    string           `json:"response,omitempty"`
	Code        string           `json:"code,omitempty"`
	Verdict     *harness.Verdict `json:"verdict,omitempty"`
	Duration    time.Duration    `json:"duration"`
}

// Observer receives progress events. Calls for one definition arrive in
// order; with concurrency above one, calls for different definitions
// interleave.
type Observer interface {
	// Started is called before generation.
	Started(def Definition)

	// Chunk is called with each piece of streamed response text.
	Chunk(def Definition, chunk string)

	// Generated is called with the full response and extracted code.
	Generated(def Definition, response, code string)

	// Finished is called with the result.
	Finished(def Definition, result Result)
}

type nopObserver struct{}

func (nopObserver) Started(Definition) {}
func (nopObserver) Chunk(Definition, string) {}
func (nopObserver) Generated(Definition, string, string) {}
func (nopObserver) Finished(Definition, Result) {}

// Runner generates and validates definitions.
//
// Thread Safety: Safe for concurrent use if the Generator and Observer are.
type Runner struct {
	generator   llm.Generator
	model       string
	concurrency int
	observer    Observer
	logger      *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithConcurrency sets how many definitions run at once. Values below one
// mean one.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithObserver sets the progress observer.
func WithObserver(o Observer) RunnerOption {
	return func(r *Runner) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner that asks generator's model for responses.
func NewRunner(generator llm.Generator, model string, opts ...RunnerOption) *Runner {
	r := &Runner{
		generator:   generator,
		model:       model,
		concurrency: 1,
		observer:    nopObserver{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run runs defs and returns their results in input order.
//
// Description:
//
//	Definitions run with at most the configured concurrency. A failing
//	definition never stops the others; its result carries the failure.
//	Run stops starting new definitions once ctx is done.
//
// Inputs:
//
//	ctx - Context for cancellation
//	defs - Definitions to run
//
// Outputs:
//
//	[]Result - One result per started definition, in input order
//	error - ctx.Err() if the run was cancelled
func (r *Runner) Run(ctx context.Context, defs []Definition) ([]Result, error) {
	runID := uuid.NewString()
	start := time.Now()
	r.logger.Info("Benchmark run started",
		slog.String("run_id", runID),
		slog.String("model", r.model),
		slog.Int("definitions", len(defs)),
		slog.Int("concurrency", r.concurrency),
	)

	results := make([]Result, len(defs))
	started := make([]bool, len(defs))

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for i, def := range defs {
		if ctx.Err() != nil {
			break
		}
		started[i] = true
		g.Go(func() error {
			results[i] = r.RunOne(ctx, def)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Result, 0, len(defs))
	for i, ok := range started {
		if ok {
			out = append(out, results[i])
		}
	}

	summary := Summarize(out)
	r.logger.Info("Benchmark run finished",
		slog.String("run_id", runID),
		slog.Int("passed", summary.Passed),
		slog.Int("failed", summary.Failed),
		slog.Int("errors", summary.Errors),
		slog.Duration("duration", time.Since(start)),
	)
	return out, ctx.Err()
}

// RunOne generates and validates a single definition.
func (r *Runner) RunOne(ctx context.Context, def Definition) (result Result) {
	ctx, span := tracer.Start(ctx, "suite.Runner.RunOne")
	defer span.End()
	span.SetAttributes(
		attribute.String("suite.definition", def.ID),
		attribute.String("llm.model", r.model),
	)

	start := time.Now()
	result = Result{ID: def.ID, Description: def.Description, Status: StatusError}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Definition panicked",
				slog.String("definition", def.ID),
				slog.Any("panic", p),
				slog.String("stack", string(debug.Stack())),
			)
			result.Status = StatusError
			result.Message = fmt.Sprintf("internal error: %v", p)
		}
		result.Duration = time.Since(start)
		span.SetAttributes(attribute.String("suite.status", string(result.Status)))
		if result.Status == StatusError {
			span.SetStatus(codes.Error, result.Message)
		}
		r.observer.Finished(def, result)
	}()

	r.observer.Started(def)

	response, err := r.generator.Generate(ctx, def.Prompt, r.model, func(chunk string) {
		r.observer.Chunk(def, chunk)
	})
	result.Response = response
	if err != nil {
		r.logger.Warn("Generation failed",
			slog.String("definition", def.ID),
			slog.String("error", err.Error()),
		)
		result.Message = err.Error()
		return result
	}

	code := extract.Code(response)
	result.Code = code
	r.observer.Generated(def, response, code)
	if code == "" {
		result.Status = StatusFailed
		result.Message = NoCodeMessage
		return result
	}

	verdict := def.Validate(ctx, code)
	if verdict == nil {
		result.Message = "validator returned no verdict"
		return result
	}
	result.Verdict = verdict
	result.Message = verdict.Message
	result.Details = verdict.Details
	result.Status = statusOf(verdict)
	return result
}

// statusOf maps a verdict to a status. Environment failures are errors
// of the harness, not of the model.
func statusOf(v *harness.Verdict) Status {
	err := harness.Classify(v)
	switch {
	case err == nil:
		return StatusPassed
	case errors.Is(err, harness.ErrEnvironment):
		return StatusError
	default:
		return StatusFailed
	}
}
