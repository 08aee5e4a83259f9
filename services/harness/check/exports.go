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
)

// Export is a top-level exported binding found in a source file.
type Export struct {
	// Name is the exported name, "default" for a default export.
	Name string `json:"name"`

	// Kind is the declaration node type, e.g. "function_declaration",
	// "lexical_declaration", "interface_declaration", or "specifier".
	Kind string `json:"kind"`

	// Line is 1-based.
	Line int `json:"line"`
}

// Exports lists the top-level exports of source.
//
// Description:
//
//	Parses source with the syntax pass and walks top-level export
//	statements. Used for structural acceptance checks (for example, a
//	story file must have a default export). Sources that do not parse
//	cleanly still yield the exports the parser could recover.
//
// Inputs:
//
//	ctx - Context for cancellation
//	source - Source text
//	markup - Parse with markup (TSX) enabled
//
// Outputs:
//
//	[]Export - Exports in source order
//	error - Non-nil if parsing could not start
func Exports(ctx context.Context, source string, markup bool) ([]Export, error) {
	content := []byte(source)
	tree, err := parse(ctx, content, markup)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	var exports []Export
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "export_statement" {
			continue
		}
		line := int(stmt.StartPoint().Row) + 1

		isDefault := false
		for j := 0; j < int(stmt.ChildCount()); j++ {
			if stmt.Child(j).Type() == "default" {
				isDefault = true
				break
			}
		}
		if isDefault {
			exports = append(exports, Export{Name: "default", Kind: "default", Line: line})
			continue
		}

		for j := 0; j < int(stmt.NamedChildCount()); j++ {
			child := stmt.NamedChild(j)
			switch child.Type() {
			case "export_clause":
				for k := 0; k < int(child.NamedChildCount()); k++ {
					spec := child.NamedChild(k)
					if spec.Type() != "export_specifier" {
						continue
					}
					name := spec.ChildByFieldName("alias")
					if name == nil {
						name = spec.ChildByFieldName("name")
					}
					if name != nil {
						exports = append(exports, Export{Name: name.Content(content), Kind: "specifier", Line: line})
					}
				}
			case "lexical_declaration", "variable_declaration":
				for k := 0; k < int(child.NamedChildCount()); k++ {
					decl := child.NamedChild(k)
					if decl.Type() != "variable_declarator" {
						continue
					}
					if name := decl.ChildByFieldName("name"); name != nil {
						exports = append(exports, Export{Name: name.Content(content), Kind: child.Type(), Line: line})
					}
				}
			default:
				if name := child.ChildByFieldName("name"); name != nil {
					exports = append(exports, Export{Name: name.Content(content), Kind: child.Type(), Line: line})
				}
			}
		}
	}
	return exports, nil
}

// HasExport reports whether exports contains name.
func HasExport(exports []Export, name string) bool {
	for _, e := range exports {
		if e.Name == name {
			return true
		}
	}
	return false
}
