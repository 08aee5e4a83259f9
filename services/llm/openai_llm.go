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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultLMStudioKey is the placeholder key LM Studio accepts.
const DefaultLMStudioKey = "lm-studio"

// defaultOpenAITemperature keeps generated code close to deterministic.
const defaultOpenAITemperature float32 = 0.1

// OpenAIClient streams chat completions from an OpenAI-compatible server.
//
// Thread Safety: Safe for concurrent use.
type OpenAIClient struct {
	client  *openai.Client
	baseURL string
	params  GenerationParams
	logger  *slog.Logger
}

// NewOpenAIClient creates a client for the server at baseURL, e.g.
// "http://localhost:1234/v1". An empty apiKey uses DefaultLMStudioKey.
func NewOpenAIClient(baseURL, apiKey string, timeout time.Duration, params GenerationParams, logger *slog.Logger) *OpenAIClient {
	if logger == nil {
		logger = slog.Default()
	}
	if apiKey == "" {
		apiKey = DefaultLMStudioKey
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		baseURL: cfg.BaseURL,
		params:  params,
		logger:  logger,
	}
}

// Generate implements Generator.
//
// Description:
//
//	Sends the prompt as a single user message with streaming enabled and
//	accumulates the content deltas of the first choice.
//
// Inputs:
//
//	ctx - Context for cancellation
//	prompt - The full prompt
//	model - Model identifier known to the server
//	onChunk - Optional callback for each content delta
//
// Outputs:
//
//	string - The full response text
//	error - ErrRequestFailed or ErrModelNotFound
func (c *OpenAIClient) Generate(ctx context.Context, prompt, model string, onChunk ChunkFunc) (string, error) {
	ctx, span := tracer.Start(ctx, "OpenAIClient.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.backend", "openai"),
		attribute.String("llm.model", model),
	)

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: defaultOpenAITemperature,
		Stream:      true,
	}
	if c.params.Temperature != nil {
		req.Temperature = *c.params.Temperature
	}
	if c.params.MaxTokens != nil {
		req.MaxTokens = *c.params.MaxTokens
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		err = c.wrap(err, model)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	defer stream.Close()

	var full strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			err = c.wrap(err, model)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return full.String(), err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		content := resp.Choices[0].Delta.Content
		full.WriteString(content)
		emit(onChunk, content)
	}

	span.SetAttributes(attribute.Int("llm.response_bytes", full.Len()))
	return full.String(), nil
}

func (c *OpenAIClient) wrap(err error, model string) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusNotFound {
		c.logger.Warn("Model not found", slog.String("model", model), slog.String("base_url", c.baseURL))
		return fmt.Errorf("%w: '%s' at %s", ErrModelNotFound, model, c.baseURL)
	}
	c.logger.Error("Chat completion failed",
		slog.String("base_url", c.baseURL),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%w: %s: %v", ErrRequestFailed, c.baseURL, err)
}
