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
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Backend types accepted by Config.Type.
const (
	TypeOllama   = "ollama"
	TypeLMStudio = "lmstudio"
	TypeOpenAI   = "openai"
)

// DefaultTimeout bounds one generation request.
const DefaultTimeout = 10 * time.Minute

// Config selects and configures a backend.
type Config struct {
	// Type is "ollama", "lmstudio" or "openai".
	Type string `yaml:"type" validate:"required,oneof=ollama lmstudio openai"`

	// Address is the server base URL.
	Address string `yaml:"address" validate:"required,url"`

	// APIKey is sent to OpenAI-compatible servers. Default: "lm-studio".
	APIKey string `yaml:"api_key"`

	// Timeout bounds one request. Default: 10m.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`

	// RequestsPerMinute limits request starts. Zero disables limiting.
	RequestsPerMinute int `yaml:"requests_per_minute" validate:"gte=0"`

	// Params tunes sampling.
	Params GenerationParams `yaml:"params"`
}

// New creates the Generator described by cfg.
//
// Inputs:
//
//	cfg - Backend configuration
//	logger - Logger. Nil uses slog.Default().
//
// Outputs:
//
//	Generator - Ready to use
//	error - ErrUnknownBackend for an unsupported type
func New(cfg Config, logger *slog.Logger) (Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var g Generator
	switch cfg.Type {
	case TypeOllama:
		g = NewOllamaClient(cfg.Address, cfg.Timeout, cfg.Params, logger)
	case TypeLMStudio, TypeOpenAI:
		g = NewOpenAIClient(cfg.Address, cfg.APIKey, cfg.Timeout, cfg.Params, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Type)
	}

	logger.Info("Initialized LLM client",
		slog.String("type", cfg.Type),
		slog.String("address", cfg.Address),
	)

	if cfg.RequestsPerMinute > 0 {
		g = WithRateLimit(g, cfg.RequestsPerMinute)
	}
	return g, nil
}

// rateLimited delays request starts to a fixed rate.
type rateLimited struct {
	next    Generator
	limiter *rate.Limiter
}

// WithRateLimit wraps g so that at most perMinute requests start each minute.
func WithRateLimit(g Generator, perMinute int) Generator {
	return &rateLimited{
		next:    g,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

// Generate implements Generator.
func (r *rateLimited) Generate(ctx context.Context, prompt, model string, onChunk ChunkFunc) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limit: %v", ErrRequestFailed, err)
	}
	return r.next.Generate(ctx, prompt, model, onChunk)
}
