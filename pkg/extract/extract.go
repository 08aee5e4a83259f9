// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package extract pulls source code out of model responses.
package extract

import (
	"regexp"
	"strings"
)

var (
	// fencePattern matches a fenced block. Group 1 is the info string,
	// group 2 the body.
	fencePattern = regexp.MustCompile("(?s)```[ \\t]*([\\w.+-]*)[^\\n]*\\n(.*?)```")

	// openFencePattern matches a fence that is never closed, as in a
	// response cut off mid-stream.
	openFencePattern = regexp.MustCompile("(?s)```[ \\t]*([\\w.+-]*)[^\\n]*\\n(.*)$")

	// thinkPattern matches reasoning sections some local models emit.
	thinkPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)
)

// sourceTags are info strings that mark a block as script source.
var sourceTags = map[string]bool{
	"ts":         true,
	"tsx":        true,
	"typescript": true,
	"js":         true,
	"jsx":        true,
	"javascript": true,
}

// Block is one fenced block.
type Block struct {
	// Lang is the lowercased info string, empty when absent.
	Lang string

	// Body is the block contents with surrounding blank space trimmed.
	Body string
}

// Blocks returns every closed fenced block in text, in order.
func Blocks(text string) []Block {
	text = thinkPattern.ReplaceAllString(text, "")
	matches := fencePattern.FindAllStringSubmatch(text, -1)
	blocks := make([]Block, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, Block{
			Lang: strings.ToLower(m[1]),
			Body: strings.TrimSpace(m[2]),
		})
	}
	return blocks
}

// Code returns the source code in a model response.
//
// Description:
//
//	Reasoning sections are dropped first. The first fenced block tagged as
//	script source wins, then the first fenced block of any tag, then an
//	unterminated trailing block. With no fence at all the trimmed text is
//	returned. An empty result means the response held no code.
//
// Inputs:
//
//	fullText - The complete model response
//
// Outputs:
//
//	string - Extracted code, possibly empty
func Code(fullText string) string {
	blocks := Blocks(fullText)
	for _, b := range blocks {
		if sourceTags[b.Lang] && b.Body != "" {
			return b.Body
		}
	}
	for _, b := range blocks {
		if b.Body != "" {
			return b.Body
		}
	}

	text := strings.TrimSpace(thinkPattern.ReplaceAllString(fullText, ""))
	if len(blocks) == 0 {
		if m := openFencePattern.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[2])
		}
	}
	if strings.Contains(text, "```") {
		return ""
	}
	return text
}
