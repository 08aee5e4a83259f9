// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianBench/cmd/bench/config"
	"github.com/AleutianAI/AleutianBench/pkg/logging"
	"github.com/AleutianAI/AleutianBench/pkg/telemetry"
	"github.com/AleutianAI/AleutianBench/pkg/ux"
	"github.com/AleutianAI/AleutianBench/services/harness"
	"github.com/AleutianAI/AleutianBench/services/suite"
)

// errFailed is returned when a command ran but something it judged failed.
var errFailed = errors.New("validation failed")

// app holds state shared by the commands of one invocation.
type app struct {
	console    *ux.Console
	errConsole *ux.Console
	errOut     io.Writer

	// global flags
	configPath    string
	logLevel      string
	logDir        string
	traceExporter string
	metricsAddr   string

	cfg       config.BenchConfig
	logger    *logging.Logger
	telemetry *telemetry.Provider
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		console:    ux.NewConsole(out),
		errConsole: ux.NewConsole(errOut),
		errOut:     errOut,
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark code generation by compiling and testing what a model writes",
		Long: `bench sends coding tasks to a local model, extracts the code from each
response and validates it with a TypeScript compile check and a Jest run
in a throwaway workspace.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.aleutian/bench.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.logDir, "log-dir", "", "also write JSON logs to this directory")
	flags.StringVar(&a.traceExporter, "trace-exporter", "", "trace exporter: otlp, stdout, none")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(
		a.runCommand(),
		a.listCommand(),
		a.validateCommand(),
		a.checkCommand(),
	)
	return root
}

// setup loads configuration, then builds the logger and telemetry.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if flags.Changed("log-dir") {
		cfg.Logging.Dir = a.logDir
	}
	if flags.Changed("trace-exporter") {
		cfg.Telemetry.TraceExporter = a.traceExporter
	}
	if flags.Changed("metrics-addr") {
		cfg.Telemetry.MetricsAddr = a.metricsAddr
		if cfg.Telemetry.MetricExporter == "" || cfg.Telemetry.MetricExporter == telemetry.ExporterNone {
			cfg.Telemetry.MetricExporter = telemetry.ExporterPrometheus
		}
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	a.logger, err = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "bench",
		JSON:    cfg.Logging.JSON,
		Output:  a.errOut,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	slog.SetDefault(a.logger.Slog())

	a.telemetry, err = telemetry.Init(cmd.Context(), cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	if addr := a.telemetry.MetricsAddr(); addr != "" {
		a.logger.Slog().Info("Serving metrics", slog.String("addr", "http://"+addr+"/metrics"))
	}
	return nil
}

// close flushes telemetry and the log file.
func (a *app) close() {
	if a.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.telemetry.Shutdown(ctx); err != nil {
			a.slog().Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
		cancel()
	}
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

func (a *app) slog() *slog.Logger {
	if a.logger == nil {
		return slog.Default()
	}
	return a.logger.Slog()
}

func (a *app) newHarness() (*harness.Validator, error) {
	return harness.New(a.cfg.Harness, harness.WithLogger(a.slog()))
}

func (a *app) registry(h suite.Harness) (*suite.Registry, error) {
	return suite.NewRegistry(suite.Builtin(h)...)
}
