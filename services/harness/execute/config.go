// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package execute

import (
	"errors"
	"fmt"
	"time"
)

// Transform modes for sources the engine loads.
const (
	// TransformPrecompiled runs sources already transpiled by the checker.
	// The engine applies no transform of its own.
	TransformPrecompiled = "esbuild"

	// TransformBabel hands sources to babel-jest with the host babel config.
	TransformBabel = "babel"
)

var (
	// ErrEngineUnavailable indicates the test engine could not be started.
	ErrEngineUnavailable = errors.New("test engine unavailable")

	// ErrEngineTimeout indicates the test engine exceeded its time limit.
	ErrEngineTimeout = errors.New("test engine timed out")

	// ErrConfigWrite indicates the per-run engine config could not be written.
	ErrConfigWrite = errors.New("engine config write failed")

	// ErrInvalidConfig indicates the executor configuration is unusable.
	ErrInvalidConfig = errors.New("invalid executor config")
)

// Config configures the Executor.
//
// Thread Safety: Treat as immutable after creation.
type Config struct {
	// Command is the engine launcher. Default: "npx".
	Command string `yaml:"engine_command"`

	// Args precede the generated flags. Default: ["jest"].
	Args []string `yaml:"engine_args"`

	// NodeModulesDir is the host project's shared dependency directory.
	// Modules are resolved from the workspace first, then from here. The
	// engine is launched from its parent directory.
	NodeModulesDir string `yaml:"node_modules_dir"`

	// TestEnvironment is the engine's test environment.
	// Default: "jest-environment-jsdom".
	TestEnvironment string `yaml:"test_environment"`

	// SetupFiles run after the environment is installed.
	SetupFiles []string `yaml:"setup_files"`

	// Transform is TransformPrecompiled or TransformBabel.
	Transform string `yaml:"transform"`

	// BabelConfig is the babel config file for TransformBabel.
	BabelConfig string `yaml:"babel_config"`

	// Timeout bounds one engine run. Zero means no limit.
	Timeout time.Duration `yaml:"timeout"`

	// MaxOutput bounds captured stdout plus stderr, in bytes.
	MaxOutput int `yaml:"max_output_bytes"`

	// Env is appended to the inherited environment.
	Env []string `yaml:"env"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Command:         "npx",
		Args:            []string{"jest"},
		TestEnvironment: "jest-environment-jsdom",
		Transform:       TransformPrecompiled,
		Timeout:         2 * time.Minute,
		MaxOutput:       1024 * 1024,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Command == "" {
		return fmt.Errorf("%w: command is required", ErrInvalidConfig)
	}
	switch c.Transform {
	case TransformPrecompiled, TransformBabel:
	default:
		return fmt.Errorf("%w: unknown transform %q", ErrInvalidConfig, c.Transform)
	}
	if c.Transform == TransformBabel && c.BabelConfig == "" {
		return fmt.Errorf("%w: babel transform requires babel_config", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	}
	if c.MaxOutput <= 0 {
		return fmt.Errorf("%w: max_output_bytes must be positive", ErrInvalidConfig)
	}
	return nil
}
