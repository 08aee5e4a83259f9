// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm streams completions from local model servers.
//
// Two backends are supported: Ollama's native NDJSON API and any server
// speaking the OpenAI chat completions protocol, such as LM Studio.
package llm

import (
	"context"
	"errors"
)

// Sentinel errors for generation failures.
var (
	// ErrRequestFailed indicates the server could not be reached or
	// returned a non-success status.
	ErrRequestFailed = errors.New("llm request failed")

	// ErrModelNotFound indicates the server does not have the model.
	ErrModelNotFound = errors.New("model not found")

	// ErrMalformedStream indicates a stream chunk could not be decoded.
	ErrMalformedStream = errors.New("malformed stream")

	// ErrUnknownBackend indicates an unsupported Config.Type.
	ErrUnknownBackend = errors.New("unknown llm backend")
)

// ChunkFunc receives each piece of streamed text as it arrives.
type ChunkFunc func(chunk string)

// GenerationParams tunes sampling. Nil fields use the backend default.
type GenerationParams struct {
	Temperature *float32 `json:"temperature" yaml:"temperature"`
	MaxTokens   *int     `json:"max_tokens" yaml:"max_tokens"`
}

// Generator produces a completion for a prompt.
type Generator interface {
	// Generate streams a completion of prompt from model. onChunk, if
	// non-nil, is called with each piece of text in order. The returned
	// string is the concatenation of every chunk.
	Generate(ctx context.Context, prompt, model string, onChunk ChunkFunc) (string, error)
}

func emit(onChunk ChunkFunc, chunk string) {
	if onChunk != nil && chunk != "" {
		onChunk(chunk)
	}
}
