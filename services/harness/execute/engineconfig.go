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
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/AleutianBench/services/harness/workspace"
)

// engineConfigFile is the per-run engine config name inside the workspace.
const engineConfigFile = "jest.config.json"

// engineConfig is the engine's JSON configuration for one run.
type engineConfig struct {
	RootDir                string         `json:"rootDir"`
	Roots                  []string       `json:"roots"`
	TestMatch              []string       `json:"testMatch"`
	TestEnvironment        string         `json:"testEnvironment,omitempty"`
	Transform              map[string]any `json:"transform"`
	ModulePaths            []string       `json:"modulePaths,omitempty"`
	ModuleDirectories      []string       `json:"moduleDirectories"`
	SetupFilesAfterEnv     []string       `json:"setupFilesAfterEnv,omitempty"`
	CacheDirectory         string         `json:"cacheDirectory"`
	Watchman               bool           `json:"watchman"`
	CollectCoverage        bool           `json:"collectCoverage"`
	CoverageDirectory      string         `json:"coverageDirectory,omitempty"`
	CoverageReporters      []string       `json:"coverageReporters,omitempty"`
	CollectCoverageFrom    []string       `json:"collectCoverageFrom,omitempty"`
	TestPathIgnorePatterns []string       `json:"testPathIgnorePatterns"`
}

// buildEngineConfig scopes the engine to one test file in one workspace.
func (x *Executor) buildEngineConfig(ws *workspace.Workspace, testFile string, opts RunOptions) engineConfig {
	cfg := engineConfig{
		RootDir:                ws.Dir,
		Roots:                  []string{ws.Dir},
		TestMatch:              []string{"**/" + testFile},
		TestEnvironment:        x.resolveEnvironment(),
		Transform:              map[string]any{},
		ModuleDirectories:      []string{"node_modules"},
		CacheDirectory:         filepath.Join(ws.Dir, ".engine-cache"),
		Watchman:               false,
		TestPathIgnorePatterns: []string{"/node_modules/"},
	}

	if x.cfg.NodeModulesDir != "" {
		cfg.ModulePaths = []string{x.cfg.NodeModulesDir}
		cfg.ModuleDirectories = append(cfg.ModuleDirectories, x.cfg.NodeModulesDir)
	}

	if x.cfg.Transform == TransformBabel {
		cfg.Transform = map[string]any{
			`^.+\.(t|j)sx?$`: []any{"babel-jest", map[string]string{"configFile": x.cfg.BabelConfig}},
		}
	}

	if len(x.cfg.SetupFiles) > 0 {
		cfg.SetupFilesAfterEnv = append([]string(nil), x.cfg.SetupFiles...)
	}

	if len(opts.CoverageFrom) > 0 {
		cfg.CollectCoverage = true
		cfg.CoverageDirectory = ws.CoverageDir()
		cfg.CoverageReporters = []string{"json-summary"}
		cfg.CollectCoverageFrom = append([]string(nil), opts.CoverageFrom...)
	}

	return cfg
}

// resolveEnvironment returns an absolute environment path when the named
// environment is installed in the host dependency directory, so the engine
// does not try to resolve it from the workspace.
func (x *Executor) resolveEnvironment() string {
	env := x.cfg.TestEnvironment
	if env == "" || x.cfg.NodeModulesDir == "" || filepath.IsAbs(env) || strings.HasPrefix(env, ".") {
		return env
	}
	candidates := []string{env}
	if !strings.HasPrefix(env, "jest-environment-") && !strings.HasPrefix(env, "@") {
		candidates = append(candidates, "jest-environment-"+env)
	}
	for _, name := range candidates {
		dir := filepath.Join(x.cfg.NodeModulesDir, name)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return env
}
