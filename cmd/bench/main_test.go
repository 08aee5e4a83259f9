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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianBench/services/suite"
)

const validMock = `const mockUser: User = {
  id: 'u-1',
  email: 'jane.doe@example.com',
  registrationDate: new Date('2024-01-01T00:00:00Z'),
  profile: {
    avatarUrl: 'https://example.com/avatar.png',
  },
};`

type invocation struct {
	app    *app
	stdout string
	stderr string
	err    error
}

// execute runs the CLI with an isolated home directory.
func execute(t *testing.T, args ...string) invocation {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("OTEL_METRICS_EXPORTER", "")

	var out, errOut bytes.Buffer
	a := newApp(&out, &errOut)
	root := a.rootCommand()
	root.SetArgs(args)
	err := root.Execute()
	a.close()
	return invocation{app: a, stdout: out.String(), stderr: errOut.String(), err: err}
}

// ollamaServer answers every generation with response.
func ollamaServer(t *testing.T, response string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		half := len(response) / 2
		enc := json.NewEncoder(w)
		_ = enc.Encode(map[string]any{"response": response[:half], "done": false})
		_ = enc.Encode(map[string]any{"response": response[half:], "done": true})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestList(t *testing.T) {
	inv := execute(t, "list")
	require.NoError(t, inv.err)
	for _, id := range []string{"ts-mock-from-interface", "util-debounce", "react-hook-test", "storybook-story"} {
		assert.Contains(t, inv.stdout, id)
	}
}

func TestRunPasses(t *testing.T) {
	srv := ollamaServer(t, "Here you go:\n```ts\n"+validMock+"\n```\n")

	inv := execute(t, "run", "--address", srv.URL, "--model", "coder", "--test", "ts-mock-from-interface")

	require.NoError(t, inv.err, inv.stdout)
	assert.Contains(t, inv.stdout, "Starting benchmark for model: coder")
	assert.Contains(t, inv.stdout, "Running Test: ts-mock-from-interface")
	assert.Contains(t, inv.stdout, "const mockUser: User")
	assert.Contains(t, inv.stdout, "Mock object is structurally valid and compiles correctly.")
	assert.Contains(t, inv.stdout, "Total: 1 | Passed: 1 | Failed: 0 | Errors: 0")
}

func TestRunFails(t *testing.T) {
	broken := strings.Replace(validMock, "jane.doe@example.com", "nobody", 1)
	srv := ollamaServer(t, "```ts\n"+broken+"\n```")

	inv := execute(t, "run", "--address", srv.URL, "--model", "coder", "--test", "ts-mock-from-interface", "--verbose")

	assert.ErrorIs(t, inv.err, errFailed)
	assert.Contains(t, inv.stdout, "Extracted Code: ts-mock-from-interface")
	assert.Contains(t, inv.stdout, `Mock is missing a valid-looking "email" property.`)
	assert.Contains(t, inv.stdout, "Total: 1 | Passed: 0 | Failed: 1 | Errors: 0")
}

func TestRunNoCode(t *testing.T) {
	srv := ollamaServer(t, "   ")

	inv := execute(t, "run", "--address", srv.URL, "--model", "coder", "--test", "ts-mock-from-interface", "--parallel", "2")

	assert.ErrorIs(t, inv.err, errFailed)
	assert.Contains(t, inv.stdout, suite.NoCodeMessage)
}

func TestRunUnknownTest(t *testing.T) {
	inv := execute(t, "run", "--model", "coder", "--test", "nope")
	require.Error(t, inv.err)
	assert.Contains(t, inv.err.Error(), "available:")
	assert.Contains(t, inv.err.Error(), "react-hook")
}

func TestRunRequiresModel(t *testing.T) {
	inv := execute(t, "run")
	require.Error(t, inv.err)
	assert.Contains(t, inv.err.Error(), "model is required")
}

func TestRunModelFromConfig(t *testing.T) {
	srv := ollamaServer(t, "```ts\n"+validMock+"\n```")
	cfg := writeTemp(t, "bench.yaml", fmt.Sprintf("llm:\n  address: %s\n  model: from-file\n", srv.URL))

	inv := execute(t, "--config", cfg, "run", "--test", "ts-mock-from-interface")

	require.NoError(t, inv.err, inv.stdout)
	assert.Contains(t, inv.stdout, "model: from-file")
}

func TestBadConfig(t *testing.T) {
	cfg := writeTemp(t, "bench.yaml", "run:\n  parallel: 0\n")
	inv := execute(t, "--config", cfg, "list")
	require.Error(t, inv.err)
	assert.Contains(t, inv.err.Error(), "Parallel")
}

func TestCheck(t *testing.T) {
	good := writeTemp(t, "good.ts", "export const answer: number = 42;\n")
	inv := execute(t, "check", "--file", good)
	require.NoError(t, inv.err)
	assert.Contains(t, inv.stdout, "Code compiles successfully.")

	bad := writeTemp(t, "bad.ts", "export const answer = ;\n")
	inv = execute(t, "check", "--file", bad)
	assert.ErrorIs(t, inv.err, errFailed)
	assert.Contains(t, inv.stdout, "Compilation failed:")
}

func TestCheckWithContextJSON(t *testing.T) {
	decls := writeTemp(t, "decls.ts", "interface Point { x: number; y: number }\n")
	src := writeTemp(t, "point.ts", "const origin: Point = { x: 0, y: 0 };\n")

	inv := execute(t, "check", "--file", src, "--context-file", decls, "--json")
	require.NoError(t, inv.err)

	var verdict struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal([]byte(inv.stdout), &verdict))
	assert.True(t, verdict.Success)
}

func TestValidateCompilationFailure(t *testing.T) {
	code := writeTemp(t, "debounce.ts", "export function debounce( {\n")
	tests := writeTemp(t, "debounce.test.js", "const { debounce } = require('./generatedDebounce');\ntest('x', () => {});\n")

	inv := execute(t, "validate", "--code-file", code, "--test-file", tests)

	assert.ErrorIs(t, inv.err, errFailed)
	assert.Contains(t, inv.stdout, "Compilation failed:")
}

func TestValidateBadRole(t *testing.T) {
	inv := execute(t, "validate", "--code-file", "a.ts", "--test-file", "a.test.ts", "--role", "judge")
	require.Error(t, inv.err)
	assert.Contains(t, inv.err.Error(), "unknown role")
}

func TestMetricsAddrEnablesPrometheus(t *testing.T) {
	inv := execute(t, "--metrics-addr", "127.0.0.1:0", "list")
	require.NoError(t, inv.err)
	assert.Equal(t, "prometheus", inv.app.cfg.Telemetry.MetricExporter)
	assert.NotEmpty(t, inv.app.telemetry.MetricsAddr())
}

func TestExitCode(t *testing.T) {
	var errOut bytes.Buffer
	a := newApp(&bytes.Buffer{}, &errOut)

	assert.Equal(t, 1, exitCode(a, fmt.Errorf("run: %w", errFailed)))
	assert.Empty(t, errOut.String())

	assert.Equal(t, 2, exitCode(a, errors.New("no such file")))
	assert.Contains(t, errOut.String(), "no such file")
}

func TestResultRows(t *testing.T) {
	rows := resultRows([]suite.Result{
		{ID: "a", Status: suite.StatusPassed, Message: "ok"},
		{ID: "b", Status: suite.StatusFailed, Message: "Tests failed.", Details: "Test: x"},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "ok", rows[0].Details)
	assert.Equal(t, "Tests failed.\nTest: x", rows[1].Details)
	assert.Equal(t, "FAILED", rows[1].Status)
}
