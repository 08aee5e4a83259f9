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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianBench/services/harness"
)

type validateFlags struct {
	testFile string
	codeFile string
	role     string
	markup   bool
	asJSON   bool
}

func (a *app) validateCommand() *cobra.Command {
	var f validateFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run a test file against a code file in a fresh workspace",
		Long: `validate runs the harness on local files. With --role code the code file
is untrusted and the test file is the reference suite. With --role tests
the test file is untrusted and is run against the code file with coverage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.validateFiles(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.testFile, "test-file", "", "test suite file")
	flags.StringVar(&f.codeFile, "code-file", "", "code file")
	flags.StringVar(&f.role, "role", "code", "untrusted side: code or tests")
	flags.BoolVar(&f.markup, "markup", false, "compile as TSX (detected from the test file when not set)")
	flags.BoolVar(&f.asJSON, "json", false, "print the verdict as JSON")
	_ = cmd.MarkFlagRequired("test-file")
	_ = cmd.MarkFlagRequired("code-file")
	return cmd
}

func (a *app) validateFiles(cmd *cobra.Command, f validateFlags) error {
	role := strings.ToLower(f.role)
	if role != "code" && role != "tests" {
		return fmt.Errorf("unknown role %q: use code or tests", f.role)
	}

	testSource, err := os.ReadFile(f.testFile)
	if err != nil {
		return err
	}
	codeSource, err := os.ReadFile(f.codeFile)
	if err != nil {
		return err
	}

	kind := harness.DetectKind(string(testSource))
	if cmd.Flags().Changed("markup") {
		kind = harness.KindPlain
		if f.markup {
			kind = harness.KindMarkup
		}
	}

	h, err := a.newHarness()
	if err != nil {
		return err
	}

	var verdict *harness.Verdict
	_ = a.console.WithSpinner("Validating...", func() error {
		if role == "tests" {
			verdict = h.ValidateGeneratedTests(cmd.Context(), string(testSource), string(codeSource), kind)
		} else {
			verdict = h.ValidateGeneratedCode(cmd.Context(), string(codeSource), string(testSource), kind)
		}
		return nil
	})
	return a.report(verdict, f.asJSON)
}

type checkFlags struct {
	file        string
	contextFile string
	markup      bool
	asJSON      bool
}

func (a *app) checkCommand() *cobra.Command {
	var f checkFlags
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compile-check a file without running tests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			source, err := os.ReadFile(f.file)
			if err != nil {
				return err
			}
			var declarations []byte
			if f.contextFile != "" {
				if declarations, err = os.ReadFile(f.contextFile); err != nil {
					return err
				}
			}
			kind := harness.KindPlain
			if f.markup {
				kind = harness.KindMarkup
			}

			h, err := a.newHarness()
			if err != nil {
				return err
			}
			return a.report(h.StaticCheck(cmd.Context(), string(source), string(declarations), kind), f.asJSON)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.file, "file", "", "file to check")
	flags.StringVar(&f.contextFile, "context-file", "", "declarations compiled ahead of the file")
	flags.BoolVar(&f.markup, "markup", false, "compile as TSX")
	flags.BoolVar(&f.asJSON, "json", false, "print the verdict as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// report prints a verdict and returns errFailed unless it passed.
func (a *app) report(v *harness.Verdict, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		a.console.Println(string(data))
	} else if v.Success {
		a.console.Success(v.Message)
	} else {
		a.console.Error(v.Message)
	}
	if !asJSON && v.Details != "" {
		for _, l := range strings.Split(v.Details, "\n") {
			a.console.Detail(l)
		}
	}
	if !v.Success {
		return errFailed
	}
	return nil
}
