// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package execute runs the test engine against a workspace.
//
// Each run gets a per-run engine configuration scoped to a single test file
// in a single workspace. The engine runs in band (one worker, deterministic
// ordering) and writes its JSON report to a file in the workspace rather
// than to stdout, so the report survives an abnormal engine exit. Callers
// check that the report exists before parsing it.
//
// A failing test run exits non-zero; that is not an error here. Errors are
// reserved for conditions where the engine could not do its job: it could
// not be started, or it ran past its time limit.
package execute

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/AleutianAI/AleutianBench/services/harness/workspace"
)

// RunOptions controls one engine run.
type RunOptions struct {
	// CoverageFrom limits coverage collection to these workspace-relative
	// files. Empty disables coverage.
	CoverageFrom []string
}

// Execution describes a finished engine run.
type Execution struct {
	// ReportPath is where the engine was told to write its JSON report.
	ReportPath string

	// CoverageSummaryPath is where a coverage summary is written when
	// coverage was requested.
	CoverageSummaryPath string

	// ExitCode is the engine's exit code, -1 if it did not exit normally.
	ExitCode int

	// Output is captured stdout followed by stderr, bounded by MaxOutput.
	Output string

	// Truncated is true when Output hit the limit.
	Truncated bool

	// TimedOut is true when the run was killed at the time limit.
	TimedOut bool

	// Duration is the wall time of the run.
	Duration time.Duration
}

// ReportExists reports whether the engine wrote its report.
func (e *Execution) ReportExists() bool {
	info, err := os.Stat(e.ReportPath)
	return err == nil && info.Mode().IsRegular()
}

// Executor runs the test engine.
//
// Thread Safety: Safe for concurrent use with distinct workspaces.
type Executor struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an Executor.
//
// Inputs:
//
//	cfg - Executor configuration. Zero-valued fields take defaults.
//	logger - Logger for structured logging. Nil uses slog.Default().
//
// Outputs:
//
//	*Executor - Configured executor
//	error - ErrInvalidConfig (wrapped) when cfg is unusable
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	def := DefaultConfig()
	if cfg.Command == "" {
		cfg.Command = def.Command
		if cfg.Args == nil {
			cfg.Args = def.Args
		}
	}
	if cfg.Transform == "" {
		cfg.Transform = def.Transform
	}
	if cfg.MaxOutput == 0 {
		cfg.MaxOutput = def.MaxOutput
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{cfg: cfg, logger: logger}, nil
}

// Precompiled reports whether sources must be transpiled before the run.
func (x *Executor) Precompiled() bool {
	return x.cfg.Transform == TransformPrecompiled
}

// RunIsolated runs the engine once against testFile in ws.
//
// Description:
//
//	Writes the per-run engine config into the workspace and launches the
//	engine in band with JSON output directed to the workspace report file.
//	Returns after the engine exits. The report is not read here.
//
// Inputs:
//
//	ctx - Context for cancellation
//	ws - Workspace holding the test file and the module under test
//	testFile - Workspace-relative test file name
//	opts - Coverage options
//
// Outputs:
//
//	*Execution - Run details, also returned alongside ErrEngineTimeout
//	error - ErrConfigWrite, ErrEngineUnavailable or ErrEngineTimeout (wrapped)
//
// Thread Safety: Safe for concurrent use with distinct workspaces.
func (x *Executor) RunIsolated(ctx context.Context, ws *workspace.Workspace, testFile string, opts RunOptions) (*Execution, error) {
	configPath, err := ws.Path(engineConfigFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigWrite, err)
	}
	data, err := json.MarshalIndent(x.buildEngineConfig(ws, testFile, opts), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrConfigWrite, err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigWrite, err)
	}

	args := append([]string(nil), x.cfg.Args...)
	args = append(args,
		"--config", configPath,
		"--runInBand",
		"--ci",
		"--silent",
		"--json",
		"--outputFile", ws.ReportPath(),
	)

	exe := &Execution{
		ReportPath:          ws.ReportPath(),
		CoverageSummaryPath: ws.CoverageSummaryPath(),
	}

	runCtx := ctx
	if x.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, x.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, x.cfg.Command, args...)
	cmd.Dir = ws.Dir
	if x.cfg.NodeModulesDir != "" {
		cmd.Dir = filepath.Dir(x.cfg.NodeModulesDir)
	}
	cmd.Env = append(os.Environ(), "CI=true", "FORCE_COLOR=0")
	cmd.Env = append(cmd.Env, x.cfg.Env...)
	configureProcessGroup(cmd)
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	stdoutLimited := &limitedWriter{w: &stdout, limit: x.cfg.MaxOutput}
	stderrLimited := &limitedWriter{w: &stderr, limit: x.cfg.MaxOutput}
	cmd.Stdout = stdoutLimited
	cmd.Stderr = stderrLimited

	x.logger.Debug("Launching test engine",
		slog.String("workspace_id", ws.ID),
		slog.String("command", x.cfg.Command),
		slog.Any("args", args),
		slog.Duration("timeout", x.cfg.Timeout),
	)

	start := time.Now()
	err = cmd.Run()
	exe.Duration = time.Since(start)
	exe.Output = stdout.String() + stderr.String()
	exe.Truncated = stdoutLimited.truncated || stderrLimited.truncated

	if x.cfg.Timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		exe.TimedOut = true
		exe.ExitCode = -1
		x.logger.Warn("Test engine timed out",
			slog.String("workspace_id", ws.ID),
			slog.Duration("timeout", x.cfg.Timeout),
		)
		return exe, fmt.Errorf("%w after %s", ErrEngineTimeout, x.cfg.Timeout)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			exe.ExitCode = exitErr.ExitCode()
		} else {
			exe.ExitCode = -1
			x.logger.Error("Test engine failed to run",
				slog.String("workspace_id", ws.ID),
				slog.String("command", x.cfg.Command),
				slog.String("error", err.Error()),
			)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return exe, fmt.Errorf("%w: %v", ErrEngineUnavailable, ctxErr)
			}
			return exe, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		}
	}

	x.logger.Info("Test engine finished",
		slog.String("workspace_id", ws.ID),
		slog.Int("exit_code", exe.ExitCode),
		slog.Bool("report_written", exe.ReportExists()),
		slog.Duration("duration", exe.Duration),
	)

	return exe, nil
}

// limitedWriter wraps a writer with a size limit.
type limitedWriter struct {
	w         io.Writer
	limit     int
	written   int
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.written >= lw.limit {
		lw.truncated = true
		return n, nil
	}

	remaining := lw.limit - lw.written
	if len(p) > remaining {
		p = p[:remaining]
		lw.truncated = true
	}

	written, err := lw.w.Write(p)
	lw.written += written
	return n, err
}
