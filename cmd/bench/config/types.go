// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the bench CLI configuration.
package config

import (
	"github.com/AleutianAI/AleutianBench/pkg/telemetry"
	"github.com/AleutianAI/AleutianBench/services/harness"
	"github.com/AleutianAI/AleutianBench/services/llm"
)

// BenchConfig is the on-disk configuration.
//
// Every section has defaults from DefaultConfig; a file only needs the
// keys it changes.
type BenchConfig struct {
	LLM       LLMConfig        `yaml:"llm"`
	Harness   harness.Config   `yaml:"harness"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Logging   LoggingConfig    `yaml:"logging"`
	Run       RunConfig        `yaml:"run"`
}

// LLMConfig selects the model backend.
type LLMConfig struct {
	llm.Config `yaml:",inline"`

	// Model is the model name passed with every request.
	Model string `yaml:"model"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

// RunConfig configures benchmark runs.
type RunConfig struct {
	// Parallel is the number of definitions run at once.
	Parallel int `yaml:"parallel" validate:"gte=1,lte=32"`

	// Verbose echoes raw responses and extracted code.
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() BenchConfig {
	return BenchConfig{
		LLM: LLMConfig{
			Config: llm.Config{
				Type:    llm.TypeOllama,
				Address: "http://localhost:11434",
				Timeout: llm.DefaultTimeout,
			},
		},
		Harness:   harness.DefaultConfig(),
		Telemetry: telemetry.DefaultConfig(),
		Logging:   LoggingConfig{Level: "info"},
		Run:       RunConfig{Parallel: 1},
	}
}
