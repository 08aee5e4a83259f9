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
	"fmt"
	"strings"
	"sync"

	"github.com/AleutianAI/AleutianBench/pkg/ux"
	"github.com/AleutianAI/AleutianBench/services/suite"
)

// consoleObserver prints benchmark progress.
//
// With streaming enabled, responses are echoed as they arrive and a
// spinner covers validation. Streaming is only safe when definitions run
// one at a time.
type consoleObserver struct {
	console *ux.Console
	verbose bool
	stream  bool

	mu      sync.Mutex
	spinner *ux.Spinner
}

func newConsoleObserver(c *ux.Console, verbose, stream bool) *consoleObserver {
	return &consoleObserver{console: c, verbose: verbose, stream: stream}
}

func (o *consoleObserver) Started(def suite.Definition) {
	o.console.Section("Running Test: "+def.ID, def.Description)
	o.console.Detail("Sending prompt to LLM...")
}

func (o *consoleObserver) Chunk(_ suite.Definition, chunk string) {
	if o.stream {
		o.console.Stream(chunk)
	}
}

func (o *consoleObserver) Generated(def suite.Definition, response, code string) {
	theme := o.console.Theme()
	if o.stream {
		o.console.Println()
	}
	if o.verbose {
		if !o.stream {
			o.console.Block("Raw LLM Response: "+def.ID, response, theme.Muted)
		}
		o.console.Block("Extracted Code: "+def.ID, code, theme.Code)
	}
	if o.stream && code != "" {
		o.mu.Lock()
		o.spinner = o.console.NewSpinner("Validating generated code...")
		o.spinner.Start()
		o.mu.Unlock()
	}
}

func (o *consoleObserver) Finished(def suite.Definition, result suite.Result) {
	o.mu.Lock()
	if o.spinner != nil {
		o.spinner.Stop()
		o.spinner = nil
	}
	o.mu.Unlock()

	line := fmt.Sprintf("%s %s: %s", def.ID, result.Status, result.Message)
	switch result.Status {
	case suite.StatusPassed:
		o.console.Success(line)
	case suite.StatusFailed:
		o.console.Error(line)
	default:
		o.console.Warning(line)
	}
	if result.Details != "" {
		for _, l := range strings.Split(result.Details, "\n") {
			o.console.Detail(l)
		}
	}
}
