// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package workspace provides ephemeral, per-validation working directories.
//
// Every validation call gets its own directory which is removed recursively
// when the call finishes, whether it returned normally, returned an error,
// or panicked. Directories are never reused between calls.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultPrefix names workspace directories so leftovers are easy to spot.
	DefaultPrefix = "bench-ws"

	reportFile  = "report.json"
	coverageDir = "coverage"
	summaryFile = "coverage-summary.json"
)

var (
	// ErrWorkspaceCreate indicates the workspace directory could not be created.
	ErrWorkspaceCreate = errors.New("workspace creation failed")

	// ErrPathEscape indicates a relative name resolved outside the workspace.
	ErrPathEscape = errors.New("path escapes workspace")
)

// Workspace is a private directory owned by exactly one validation call.
type Workspace struct {
	// ID is a unique identifier used for log correlation.
	ID string

	// Dir is the absolute path of the workspace root.
	Dir string

	// Created is when the directory was made.
	Created time.Time
}

// Path resolves a relative name inside the workspace.
//
// Returns ErrPathEscape when the cleaned result is not contained in Dir.
func (w *Workspace) Path(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q", ErrPathEscape, rel)
	}
	p := filepath.Join(w.Dir, rel)
	if p != w.Dir && !strings.HasPrefix(p, w.Dir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathEscape, rel)
	}
	return p, nil
}

// ReportPath is where the test engine is told to write its JSON report.
func (w *Workspace) ReportPath() string {
	return filepath.Join(w.Dir, reportFile)
}

// CoverageDir is the coverage output directory for the test engine.
func (w *Workspace) CoverageDir() string {
	return filepath.Join(w.Dir, coverageDir)
}

// CoverageSummaryPath is the json-summary coverage report location.
func (w *Workspace) CoverageSummaryPath() string {
	return filepath.Join(w.Dir, coverageDir, summaryFile)
}

// Manager creates and tears down workspaces.
//
// Thread Safety: Safe for concurrent use. Each call to With gets its own
// directory.
type Manager struct {
	baseDir string
	prefix  string
	logger  *slog.Logger
	active  atomic.Int64
}

// NewManager creates a workspace manager.
//
// Inputs:
//
//	baseDir - Parent directory for workspaces. Empty uses os.TempDir().
//	prefix - Directory name prefix. Empty uses DefaultPrefix.
//	logger - Logger for structured logging. Nil uses slog.Default().
//
// Outputs:
//
//	*Manager - Configured manager
func NewManager(baseDir, prefix string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Manager{baseDir: baseDir, prefix: prefix, logger: logger}
}

// With runs fn inside a fresh workspace and removes it afterwards.
//
// Description:
//
//	Creates a uniquely named directory, invokes fn with it, and removes the
//	directory tree from a deferred call so removal also happens while a
//	panic unwinds. Removal failures are logged and never replace fn's result.
//	If the directory cannot be created, fn is not called.
//
// Inputs:
//
//	ctx - Checked for cancellation before the directory is created
//	fn - Work to run inside the workspace
//
// Outputs:
//
//	error - ErrWorkspaceCreate (wrapped), ctx.Err(), or whatever fn returned
//
// Thread Safety: Safe for concurrent use.
func (m *Manager) With(ctx context.Context, fn func(ws *Workspace) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := os.MkdirTemp(m.baseDir, m.prefix+"-*")
	if err != nil {
		m.logger.Error("Failed to create workspace",
			slog.String("base", m.baseDir),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %v", ErrWorkspaceCreate, err)
	}
	if abs, absErr := filepath.Abs(dir); absErr == nil {
		dir = abs
	}

	ws := &Workspace{
		ID:      uuid.NewString(),
		Dir:     dir,
		Created: time.Now(),
	}
	m.active.Add(1)

	m.logger.Debug("Created workspace",
		slog.String("workspace_id", ws.ID),
		slog.String("path", ws.Dir),
	)

	defer func() {
		m.active.Add(-1)
		if rmErr := os.RemoveAll(ws.Dir); rmErr != nil {
			m.logger.Warn("Failed to remove workspace",
				slog.String("workspace_id", ws.ID),
				slog.String("path", ws.Dir),
				slog.String("error", rmErr.Error()),
			)
			return
		}
		m.logger.Debug("Removed workspace",
			slog.String("workspace_id", ws.ID),
			slog.Duration("lifetime", time.Since(ws.Created)),
		)
	}()

	return fn(ws)
}

// Active returns the number of workspaces currently in use.
func (m *Manager) Active() int {
	return int(m.active.Load())
}
