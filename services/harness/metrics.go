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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for validation calls.
var (
	tracer = otel.Tracer("aleutian.bench.harness")
	meter  = otel.Meter("aleutian.bench.harness")
)

// Metrics for validation calls.
var (
	validationLatency metric.Float64Histogram
	validationTotal   metric.Int64Counter
	phaseTransitions  metric.Int64Counter
	workspacesActive  metric.Int64UpDownCounter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		validationLatency, err = meter.Float64Histogram(
			"harness_validation_duration_seconds",
			metric.WithDescription("Duration of validation calls"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		validationTotal, err = meter.Int64Counter(
			"harness_validation_total",
			metric.WithDescription("Total validation calls by role and verdict category"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		phaseTransitions, err = meter.Int64Counter(
			"harness_phase_transitions_total",
			metric.WithDescription("Total phase transitions by target phase"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		workspacesActive, err = meter.Int64UpDownCounter(
			"harness_workspaces_active",
			metric.WithDescription("Workspaces currently in use"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startValidateSpan creates a span for a validation call.
func startValidateSpan(ctx context.Context, req Request) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Validator.Validate",
		trace.WithAttributes(
			attribute.String("harness.role", req.Role.String()),
			attribute.String("harness.kind", req.Kind.String()),
			attribute.Int("harness.untrusted_size", len(req.UntrustedSource)),
			attribute.Bool("harness.coverage", req.Coverage),
		),
	)
}

// setValidateSpanResult sets the verdict attributes on a validation span.
func setValidateSpanResult(span trace.Span, v *Verdict) {
	span.SetAttributes(
		attribute.Bool("harness.success", v.Success),
		attribute.String("harness.category", string(v.Category)),
	)
}

// recordValidationMetrics records metrics for a validation call.
func recordValidationMetrics(ctx context.Context, role Role, duration time.Duration, v *Verdict) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("role", role.String()),
		attribute.String("category", string(v.Category)),
	)
	validationLatency.Record(ctx, duration.Seconds(), attrs)
	validationTotal.Add(ctx, 1, attrs)
}

// recordPhaseTransition counts a transition into phase.
func recordPhaseTransition(ctx context.Context, phase Phase) {
	if err := initMetrics(); err != nil {
		return
	}
	phaseTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("phase", phase.String()),
	))
}

// recordWorkspaceDelta tracks workspaces in use.
func recordWorkspaceDelta(ctx context.Context, delta int64) {
	if err := initMetrics(); err != nil {
		return
	}
	workspacesActive.Add(ctx, delta)
}
