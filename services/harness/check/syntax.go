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
	"context"
	"fmt"
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// maxDiagnostics bounds the syntax pass on heavily malformed input.
const maxDiagnostics = 50

// maxDepth prevents stack overflow on deeply nested trees.
const maxDepth = 1000

func grammar(markup bool) *sitter.Language {
	if markup {
		return tsx.GetLanguage()
	}
	return typescript.GetLanguage()
}

// parse builds a syntax tree. The caller must Close the tree.
func parse(ctx context.Context, content []byte, markup bool) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(grammar(markup))

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return tree, nil
}

// position converts a tree-sitter point to 1-based source coordinates,
// removing the lines contributed by prepended context.
type position struct {
	lineOffset int
}

func (p position) of(pt sitter.Point) (line, col int) {
	line = int(pt.Row) + 1 - p.lineOffset
	if line < 1 {
		return 0, 0
	}
	return line, int(pt.Column) + 1
}

// syntaxDiagnostics collects ERROR and MISSING nodes. An ERROR node's own
// ERROR and MISSING descendants become its nested diagnostics.
func syntaxDiagnostics(root *sitter.Node, content []byte, pos position) []Diagnostic {
	count := 0
	return collectSyntax(root, content, pos, 0, &count)
}

func collectSyntax(node *sitter.Node, content []byte, pos position, depth int, count *int) []Diagnostic {
	if node == nil || depth > maxDepth || *count >= maxDiagnostics {
		return nil
	}

	if node.IsMissing() {
		*count++
		line, col := pos.of(node.StartPoint())
		return []Diagnostic{{
			Code:    CodeMissing,
			Message: fmt.Sprintf("Missing '%s'", node.Type()),
			Line:    line,
			Column:  col,
		}}
	}

	var children []Diagnostic
	for i := 0; i < int(node.ChildCount()); i++ {
		children = append(children, collectSyntax(node.Child(i), content, pos, depth+1, count)...)
	}

	if !node.IsError() {
		return children
	}

	*count++
	line, col := pos.of(node.StartPoint())
	return []Diagnostic{{
		Code:    CodeSyntax,
		Message: unexpectedMessage(node, content),
		Line:    line,
		Column:  col,
		Nested:  children,
	}}
}

func unexpectedMessage(node *sitter.Node, content []byte) string {
	start, end := node.StartByte(), node.EndByte()
	if end > uint32(len(content)) {
		end = uint32(len(content))
	}
	if end <= start {
		return "Syntax error"
	}
	return fmt.Sprintf("Unexpected: %s", truncate(string(content[start:end]), 50))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var reactImport = regexp.MustCompile(`(?m)(\bfrom\s*['"]react['"]|\brequire\s*\(\s*['"]react['"]\s*\)|^\s*import\s+\*\s+as\s+React\b)`)

// markupDiagnostics reports markup used without importing the UI runtime.
func markupDiagnostics(root *sitter.Node, content []byte, pos position) []Diagnostic {
	first := findFirst(root, 0, func(n *sitter.Node) bool {
		switch n.Type() {
		case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
			return true
		}
		return false
	})
	if first == nil || reactImport.Match(content) {
		return nil
	}
	line, col := pos.of(first.StartPoint())
	return []Diagnostic{{
		Code:    CodeMarkupRuntime,
		Message: "Markup is used but the UI runtime is not imported; runtime types are unavailable in isolation",
		Line:    line,
		Column:  col,
	}}
}

func findFirst(node *sitter.Node, depth int, match func(*sitter.Node) bool) *sitter.Node {
	if node == nil || depth > maxDepth {
		return nil
	}
	if match(node) {
		return node
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if found := findFirst(node.NamedChild(i), depth+1, match); found != nil {
			return found
		}
	}
	return nil
}
