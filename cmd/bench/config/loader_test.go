// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, Validate(DefaultConfig()))
}

func TestLoadNoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().LLM.Address, cfg.LLM.Address)
	assert.Equal(t, 1, cfg.Run.Parallel)
}

func TestLoadExplicitMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadOverlay(t *testing.T) {
	path := writeFile(t, `
llm:
  type: lmstudio
  address: http://localhost:1234
  model: qwen2.5-coder
  requests_per_minute: 30
harness:
  engine_command: /usr/local/bin/jest
  engine_args: []
  timeout: 45s
  node_modules_dir: /opt/bench/node_modules
  policy:
    suppress: [markup-runtime]
    warn: [syntax]
run:
  parallel: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "lmstudio", cfg.LLM.Type)
	assert.Equal(t, "qwen2.5-coder", cfg.LLM.Model)
	assert.Equal(t, 30, cfg.LLM.RequestsPerMinute)
	assert.Equal(t, "/usr/local/bin/jest", cfg.Harness.Engine.Command)
	assert.Empty(t, cfg.Harness.Engine.Args)
	assert.Equal(t, 45*time.Second, cfg.Harness.Engine.Timeout)
	assert.Equal(t, []string{"syntax"}, cfg.Harness.Policy.Warn)
	assert.Equal(t, 4, cfg.Run.Parallel)

	// untouched sections keep defaults
	assert.Equal(t, "codeUnderTest", cfg.Harness.UntrustedModule)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, ".aleutian", DefaultFileName)
	cfg := DefaultConfig()
	cfg.LLM.Model = "llama3"
	require.NoError(t, Write(path, cfg))

	loaded, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "llama3", loaded.LLM.Model)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "llm:\n  adress: http://x\n", "adress"},
		{"bad type", "llm:\n  type: vllm\n", "oneof"},
		{"bad address", "llm:\n  address: not a url\n", "url"},
		{"bad parallel", "run:\n  parallel: 0\n", "Parallel"},
		{"bad level", "logging:\n  level: loud\n", "Level"},
		{"bad exporter", "telemetry:\n  trace_exporter: zipkin\n", "TraceExporter"},
		{"module clash", "harness:\n  trusted_module: codeUnderTest\n", "harness"},
		{"not yaml", "llm: [\n", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), "error %q should mention %q", err, tt.want)
		})
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Run, cfg.Run)
}
