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
	"errors"

	"github.com/AleutianAI/AleutianBench/services/harness/check"
	"github.com/AleutianAI/AleutianBench/services/harness/execute"
	"github.com/AleutianAI/AleutianBench/services/harness/resolve"
	"github.com/AleutianAI/AleutianBench/services/harness/workspace"
)

// Config configures a Validator.
//
// Thread Safety: Treat as immutable after creation.
type Config struct {
	// Engine configures the test engine.
	Engine execute.Config `yaml:",inline"`

	// WorkspaceBase is the parent directory for workspaces.
	// Empty uses the system temp directory.
	WorkspaceBase string `yaml:"workspace_base"`

	// WorkspacePrefix names workspace directories.
	WorkspacePrefix string `yaml:"workspace_prefix"`

	// UntrustedModule is the module name generated code is written as.
	// Default: "codeUnderTest".
	UntrustedModule string `yaml:"untrusted_module"`

	// TrustedModule is the module name reference code is written as.
	// Default: "codeToTest".
	TrustedModule string `yaml:"trusted_module"`

	// TestModule is the name test suites are written as, before the
	// ".test" infix. Default: "testSuite".
	TestModule string `yaml:"test_module"`

	// Placeholders are basename prefixes test sources use to stand in for
	// the module under test. Default: ["generated"].
	Placeholders []string `yaml:"placeholders"`

	// Policy decides which static check diagnostics block.
	Policy check.Policy `yaml:"policy"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:          execute.DefaultConfig(),
		WorkspacePrefix: workspace.DefaultPrefix,
		UntrustedModule: "codeUnderTest",
		TrustedModule:   "codeToTest",
		TestModule:      "testSuite",
		Placeholders:    []string{resolve.DefaultPlaceholderPrefix},
		Policy:          check.DefaultPolicy(),
	}
}

// withDefaults fills empty fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.UntrustedModule == "" {
		c.UntrustedModule = def.UntrustedModule
	}
	if c.TrustedModule == "" {
		c.TrustedModule = def.TrustedModule
	}
	if c.TestModule == "" {
		c.TestModule = def.TestModule
	}
	if len(c.Placeholders) == 0 {
		c.Placeholders = def.Placeholders
	}
	if c.Policy.Suppress == nil && c.Policy.Warn == nil {
		c.Policy = def.Policy
	}
	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.UntrustedModule == c.TrustedModule {
		return errors.New("untrusted_module and trusted_module must differ")
	}
	if c.TestModule == c.UntrustedModule || c.TestModule == c.TrustedModule {
		return errors.New("test_module must differ from module names")
	}
	return nil
}
