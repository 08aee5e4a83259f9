// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("aleutian.bench.llm")

// maxLineBytes bounds one NDJSON line from the server.
const maxLineBytes = 4 * 1024 * 1024

// OllamaClient streams completions from Ollama's /api/generate endpoint.
//
// Thread Safety: Safe for concurrent use.
type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
	params     GenerationParams
	logger     *slog.Logger
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaStreamChunk struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// NewOllamaClient creates a client for the server at baseURL, e.g.
// "http://localhost:11434".
func NewOllamaClient(baseURL string, timeout time.Duration, params GenerationParams, logger *slog.Logger) *OllamaClient {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OllamaClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		params:     params,
		logger:     logger,
	}
}

// Generate implements Generator.
//
// Description:
//
//	Posts a streaming generate request and reads newline-delimited JSON
//	chunks until one reports done or the body ends. Blank lines are
//	skipped.
//
// Inputs:
//
//	ctx - Context for cancellation
//	prompt - The full prompt
//	model - Model name known to the server
//	onChunk - Optional callback for each response fragment
//
// Outputs:
//
//	string - The full response text
//	error - ErrRequestFailed, ErrModelNotFound or ErrMalformedStream
func (o *OllamaClient) Generate(ctx context.Context, prompt, model string, onChunk ChunkFunc) (string, error) {
	ctx, span := tracer.Start(ctx, "OllamaClient.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.backend", "ollama"),
		attribute.String("llm.model", model),
	)

	payload := ollamaGenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: true,
	}
	if options := o.options(); len(options) > 0 {
		payload.Options = options
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request to Ollama: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Error("Ollama API call failed",
			slog.String("base_url", o.baseURL),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("%w: Ollama at %s: %v", ErrRequestFailed, o.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := o.statusError(resp, model)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	full, err := readOllamaStream(resp.Body, onChunk)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return full, err
	}
	span.SetAttributes(attribute.Int("llm.response_bytes", len(full)))
	return full, nil
}

func (o *OllamaClient) options() map[string]any {
	options := make(map[string]any)
	if o.params.Temperature != nil {
		options["temperature"] = *o.params.Temperature
	}
	if o.params.MaxTokens != nil {
		options["num_predict"] = *o.params.MaxTokens
	}
	return options
}

func (o *OllamaClient) statusError(resp *http.Response, model string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode == http.StatusNotFound {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(data, &errResp); err == nil &&
			strings.Contains(errResp.Error, "model") && strings.Contains(errResp.Error, "not found") {
			o.logger.Warn("Ollama model not found", slog.String("model", model))
			return fmt.Errorf("%w: '%s'. Please run: 'ollama pull %s'", ErrModelNotFound, model, model)
		}
	}
	o.logger.Error("Ollama returned an error",
		slog.Int("status_code", resp.StatusCode),
		slog.String("response", string(data)),
	)
	return fmt.Errorf("%w: Ollama status %d: %s", ErrRequestFailed, resp.StatusCode, strings.TrimSpace(string(data)))
}

// readOllamaStream accumulates response fragments from an NDJSON body.
func readOllamaStream(r io.Reader, onChunk ChunkFunc) (string, error) {
	var full strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaStreamChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return full.String(), fmt.Errorf("%w: %v", ErrMalformedStream, err)
		}
		if chunk.Error != "" {
			return full.String(), fmt.Errorf("%w: %s", ErrRequestFailed, chunk.Error)
		}
		if chunk.Response != "" {
			full.WriteString(chunk.Response)
			emit(onChunk, chunk.Response)
		}
		if chunk.Done {
			return full.String(), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("%w: reading stream: %v", ErrRequestFailed, err)
	}
	return full.String(), nil
}
