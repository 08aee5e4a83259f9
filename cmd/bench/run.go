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
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianBench/pkg/ux"
	"github.com/AleutianAI/AleutianBench/services/llm"
	"github.com/AleutianAI/AleutianBench/services/suite"
)

type runFlags struct {
	backend  string
	address  string
	model    string
	apiKey   string
	tests    []string
	verbose  bool
	parallel int
}

func (a *app) runCommand() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark against a model",
		Example: `  bench run --type ollama --model qwen2.5-coder:7b
  bench run --type lmstudio --address http://localhost:1234 --model local-model --test react-hook`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBenchmark(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.backend, "type", "", "backend: ollama, lmstudio, openai")
	flags.StringVar(&f.address, "address", "", "backend base URL")
	flags.StringVar(&f.model, "model", "", "model name")
	flags.StringVar(&f.apiKey, "key", "", "API key for OpenAI-compatible backends")
	flags.StringSliceVar(&f.tests, "test", nil, "run only these test IDs")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "print raw responses and extracted code")
	flags.IntVar(&f.parallel, "parallel", 0, "number of tests run at once")
	return cmd
}

func (a *app) runBenchmark(cmd *cobra.Command, f runFlags) error {
	cfg := a.cfg
	flags := cmd.Flags()
	if flags.Changed("type") {
		cfg.LLM.Type = f.backend
	}
	if flags.Changed("address") {
		cfg.LLM.Address = f.address
	}
	if flags.Changed("model") {
		cfg.LLM.Model = f.model
	}
	if flags.Changed("key") {
		cfg.LLM.APIKey = f.apiKey
	}
	if flags.Changed("verbose") {
		cfg.Run.Verbose = f.verbose
	}
	if flags.Changed("parallel") {
		cfg.Run.Parallel = f.parallel
	}
	if cfg.LLM.Model == "" {
		return errors.New("a model is required: pass --model or set llm.model")
	}
	if cfg.Run.Parallel < 1 {
		cfg.Run.Parallel = 1
	}

	gen, err := llm.New(cfg.LLM.Config, a.slog())
	if err != nil {
		return err
	}
	h, err := a.newHarness()
	if err != nil {
		return err
	}
	reg, err := a.registry(h)
	if err != nil {
		return err
	}
	defs := reg.All()
	if len(f.tests) > 0 {
		if defs, err = reg.Select(f.tests...); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := newConsoleObserver(a.console, cfg.Run.Verbose, cfg.Run.Parallel == 1)
	runner := suite.NewRunner(gen, cfg.LLM.Model,
		suite.WithConcurrency(cfg.Run.Parallel),
		suite.WithObserver(obs),
		suite.WithRunnerLogger(a.slog()),
	)

	a.console.Banner(fmt.Sprintf("Starting benchmark for model: %s", cfg.LLM.Model))
	results, runErr := runner.Run(ctx, defs)

	counts := a.console.Summary(resultRows(results))
	if runErr != nil {
		return fmt.Errorf("benchmark interrupted after %d of %d tests: %w", len(results), len(defs), runErr)
	}
	if counts.Passed != counts.Total {
		return errFailed
	}
	return nil
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the benchmark tests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.newHarness()
			if err != nil {
				return err
			}
			reg, err := a.registry(h)
			if err != nil {
				return err
			}
			theme := a.console.Theme()
			for _, def := range reg.All() {
				a.console.Printf("%s  %s\n", theme.Highlight.Render(fmt.Sprintf("%-28s", def.ID)), def.Description)
			}
			return nil
		},
	}
}

// resultRows converts results for the summary table.
func resultRows(results []suite.Result) []ux.Row {
	rows := make([]ux.Row, 0, len(results))
	for _, r := range results {
		details := r.Message
		if r.Details != "" {
			details += "\n" + r.Details
		}
		rows = append(rows, ux.Row{ID: r.ID, Status: string(r.Status), Details: details})
	}
	return rows
}
