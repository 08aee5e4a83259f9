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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for check operations.
var (
	tracer = otel.Tracer("aleutian.bench.check")
	meter  = otel.Meter("aleutian.bench.check")
)

// Metrics for check operations.
var (
	checkLatency     metric.Float64Histogram
	checkTotal       metric.Int64Counter
	diagnosticsFound metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		checkLatency, err = meter.Float64Histogram(
			"check_duration_seconds",
			metric.WithDescription("Duration of static check operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		checkTotal, err = meter.Int64Counter(
			"check_total",
			metric.WithDescription("Total number of static check operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		diagnosticsFound, err = meter.Int64Counter(
			"check_diagnostics_total",
			metric.WithDescription("Total number of diagnostics found, by severity"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startCheckSpan creates a span for a check operation.
func startCheckSpan(ctx context.Context, markup bool, size int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Checker.Check",
		trace.WithAttributes(
			attribute.Bool("check.markup", markup),
			attribute.Int("check.source_size", size),
		),
	)
}

// setCheckSpanResult sets the result attributes on a check span.
func setCheckSpanResult(span trace.Span, r *Result) {
	span.SetAttributes(
		attribute.Bool("check.success", r.Success),
		attribute.Int("check.diagnostic_count", len(r.Diagnostics)),
		attribute.Int("check.blocking_count", len(r.Blocking())),
	)
}

// recordCheckMetrics records metrics for a check operation.
func recordCheckMetrics(ctx context.Context, markup bool, duration time.Duration, r *Result) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.Bool("markup", markup),
		attribute.Bool("success", r.Success),
	)
	checkLatency.Record(ctx, duration.Seconds(), attrs)
	checkTotal.Add(ctx, 1, attrs)

	for _, d := range r.Diagnostics {
		diagnosticsFound.Add(ctx, 1, metric.WithAttributes(
			attribute.String("severity", d.Severity.String()),
		))
	}
}
