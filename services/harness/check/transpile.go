// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package check

import (
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// loaderFor picks the transpiler loader from the filename extension, falling
// back to the markup flag.
func loaderFor(filename string, markup bool) api.Loader {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tsx":
		return api.LoaderTSX
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".js", ".jsx", ".mjs", ".cjs":
		return api.LoaderJSX
	}
	if markup {
		return api.LoaderTSX
	}
	return api.LoaderTS
}

// transpile compiles source to a CommonJS module targeting modern runtimes.
// Markup compiles against the automatic JSX runtime.
func transpile(source, filename string, markup bool, pos position) (string, []Diagnostic) {
	if filename == "" {
		filename = "input.ts"
		if markup {
			filename = "input.tsx"
		}
	}

	result := api.Transform(source, api.TransformOptions{
		Loader:     loaderFor(filename, markup),
		Format:     api.FormatCommonJS,
		Target:     api.ESNext,
		Platform:   api.PlatformNode,
		JSX:        api.JSXAutomatic,
		Sourcefile: filename,
		LogLevel:   api.LogLevelSilent,
	})

	if len(result.Errors) == 0 {
		return string(result.Code), nil
	}

	diags := make([]Diagnostic, 0, len(result.Errors))
	for _, msg := range result.Errors {
		d := Diagnostic{
			Code:    CodeTransform,
			Message: msg.Text,
		}
		if msg.ID != "" {
			d.Code = CodeTransform + "/" + msg.ID
		}
		if msg.Location != nil {
			line := msg.Location.Line - pos.lineOffset
			if line >= 1 {
				d.Line = line
				d.Column = msg.Location.Column + 1
			}
		}
		for _, note := range msg.Notes {
			if note.Text != "" {
				d.Notes = append(d.Notes, note.Text)
			}
		}
		diags = append(diags, d)
	}
	return "", diags
}
