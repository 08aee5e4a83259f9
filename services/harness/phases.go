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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Phase is the lifecycle state of one validation call.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseWorkspacePrepared
	PhaseExecuted
	PhaseInterpreted
	PhaseTornDown
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWorkspacePrepared:
		return "workspace_prepared"
	case PhaseExecuted:
		return "executed"
	case PhaseInterpreted:
		return "interpreted"
	case PhaseTornDown:
		return "torn_down"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// canTransition reports whether from -> to is allowed. Every phase may jump
// to TornDown; otherwise phases advance one step at a time.
func canTransition(from, to Phase) bool {
	if from == PhaseTornDown {
		return false
	}
	if to == PhaseTornDown {
		return true
	}
	return to == from+1
}

// phaseTracker records the phase of one call.
//
// Thread Safety: NOT safe for concurrent use. One tracker per call.
type phaseTracker struct {
	current Phase
	history []Phase
	span    trace.Span
	logger  *slog.Logger
}

func newPhaseTracker(span trace.Span, logger *slog.Logger) *phaseTracker {
	return &phaseTracker{
		current: PhaseIdle,
		history: []Phase{PhaseIdle},
		span:    span,
		logger:  logger,
	}
}

// advance moves to the next phase. Invalid transitions are logged and
// ignored so bookkeeping never changes a verdict.
func (t *phaseTracker) advance(ctx context.Context, to Phase) {
	if !canTransition(t.current, to) {
		t.logger.Warn("Invalid phase transition",
			slog.String("from", t.current.String()),
			slog.String("to", to.String()),
		)
		return
	}
	from := t.current
	t.current = to
	t.history = append(t.history, to)

	t.span.AddEvent("phase", trace.WithAttributes(
		attribute.String("phase.from", from.String()),
		attribute.String("phase.to", to.String()),
	))
	recordPhaseTransition(ctx, to)
}

// Current returns the current phase.
func (t *phaseTracker) Current() Phase {
	return t.current
}
