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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in ~/.aleutian when no path is given.
const DefaultFileName = "bench.yaml"

// ErrInvalidConfig wraps validation failures.
var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultPath returns ~/.aleutian/bench.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".aleutian", DefaultFileName), nil
}

// Load reads the configuration at path over DefaultConfig.
//
// Description:
//
//	An empty path falls back to DefaultPath; if that file does not exist
//	the defaults are returned. An explicit path must exist. Unknown keys
//	are rejected so typos do not silently fall back to defaults.
//
// Inputs:
//
//	path - YAML file path, or "" for the default location
//
// Outputs:
//
//	BenchConfig - Defaults overlaid with the file
//	error - Read, parse or validation failure
func Load(path string) (BenchConfig, error) {
	cfg := DefaultConfig()

	if path == "" {
		def, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		if _, err := os.Stat(def); errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		path = def
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err := Decode(bytes.NewReader(data), &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode overlays YAML from r onto cfg and validates the result.
func Decode(r io.Reader, cfg *BenchConfig) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse the config: %w", err)
	}
	return Validate(*cfg)
}

// Validate checks struct tags and the harness section.
func Validate(cfg BenchConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Harness.Validate(); err != nil {
		return fmt.Errorf("%w: harness: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Write stores cfg as YAML at path, creating parent directories.
func Write(path string, cfg BenchConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
