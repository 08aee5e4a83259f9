// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command bench asks a model to write TypeScript and React code, then
// compiles and runs it against test suites in isolated workspaces.
package main

import (
	"errors"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	a := newApp(os.Stdout, os.Stderr)
	defer a.close()

	root := a.rootCommand()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return exitCode(a, err)
	}
	return 0
}

// exitCode reports err and maps it to a process exit code. Benchmark
// failures have already been printed and exit 1; everything else is a
// usage or setup error and exits 2.
func exitCode(a *app, err error) int {
	if errors.Is(err, errFailed) {
		return 1
	}
	a.errConsole.Error(err.Error())
	return 2
}
