// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package materialize writes source text into a workspace under the file
// name and extension the test engine expects.
package materialize

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/AleutianAI/AleutianBench/services/harness/workspace"
)

// Kind selects the file extension and therefore the parse mode.
type Kind int

const (
	// KindPlain is typed source without markup (.ts).
	KindPlain Kind = iota

	// KindMarkup is typed source with embedded UI markup (.tsx).
	KindMarkup

	// KindCompiled is transpiled JavaScript (.js).
	KindCompiled
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindMarkup:
		return "markup"
	case KindCompiled:
		return "compiled"
	default:
		return "unknown"
	}
}

// Extension returns the file extension, including the dot.
func (k Kind) Extension() string {
	switch k {
	case KindMarkup:
		return ".tsx"
	case KindCompiled:
		return ".js"
	default:
		return ".ts"
	}
}

// ErrMaterializeFailed indicates a file could not be written.
var ErrMaterializeFailed = errors.New("materialize failed")

// File is a source file written into a workspace.
type File struct {
	// RelativeName is the file name relative to the workspace root.
	RelativeName string

	// Path is the absolute path on disk.
	Path string

	// Contents is exactly what was written.
	Contents string

	// Kind is the syntax kind the extension was chosen for.
	Kind Kind
}

// Module returns the name importers use to reference the file (no extension).
func (f *File) Module() string {
	return trimExt(f.RelativeName)
}

// Materializer writes files into workspaces.
type Materializer struct {
	logger *slog.Logger
}

// New creates a Materializer. Nil logger uses slog.Default().
func New(logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{logger: logger}
}

// Source writes a module file named base + kind extension.
func (m *Materializer) Source(ws *workspace.Workspace, base, contents string, kind Kind) (*File, error) {
	return m.write(ws, base+kind.Extension(), contents, kind)
}

// Test writes a test file named base + ".test" + kind extension so the
// engine's test matcher picks it up.
func (m *Materializer) Test(ws *workspace.Workspace, base, contents string, kind Kind) (*File, error) {
	return m.write(ws, base+".test"+kind.Extension(), contents, kind)
}

// write performs an atomic write: temp file then rename.
func (m *Materializer) write(ws *workspace.Workspace, name, contents string, kind Kind) (*File, error) {
	path, err := ws.Path(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMaterializeFailed, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: create directory: %v", ErrMaterializeFailed, err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(contents), 0644); err != nil {
		m.logger.Error("Failed to write temp file",
			slog.String("path", tempPath),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: write temp: %v", ErrMaterializeFailed, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		m.logger.Error("Failed to rename temp file",
			slog.String("temp", tempPath),
			slog.String("target", path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: rename: %v", ErrMaterializeFailed, err)
	}

	m.logger.Debug("Materialized file",
		slog.String("workspace_id", ws.ID),
		slog.String("name", name),
		slog.String("kind", kind.String()),
		slog.Int("size", len(contents)),
	)

	return &File{
		RelativeName: name,
		Path:         path,
		Contents:     contents,
		Kind:         kind,
	}, nil
}

var markupHint = regexp.MustCompile(`\bReact\b|@testing-library/react`)

// DetectKind guesses whether a test source exercises UI markup.
//
// Callers that know the kind should pass it explicitly. This exists for
// ad hoc validation of files where no flag is available.
func DetectKind(testSource string) Kind {
	if markupHint.MatchString(testSource) {
		return KindMarkup
	}
	return KindPlain
}

func trimExt(name string) string {
	for _, suffix := range []string{".test.tsx", ".test.ts", ".test.js", ".tsx", ".ts", ".js"} {
		if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
			return name[:len(name)-len(suffix)]
		}
	}
	return name
}
