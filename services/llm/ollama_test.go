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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mock Server Helpers
// =============================================================================

// newMockOllamaServer creates a test server for /api/generate.
func newMockOllamaServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func writeNDJSON(w http.ResponseWriter, lines ...string) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	for _, line := range lines {
		fmt.Fprintln(w, line)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

// =============================================================================
// Ollama Tests
// =============================================================================

func TestOllamaGenerate_StreamsChunks(t *testing.T) {
	t.Parallel()

	var got ollamaGenerateRequest
	server := newMockOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeNDJSON(w,
			`{"model":"m","response":"const ","done":false}`,
			``,
			`{"model":"m","response":"x = 1;","done":false}`,
			`{"model":"m","response":"","done":true}`,
			`{"model":"m","response":"ignored","done":false}`,
		)
	})

	client := NewOllamaClient(server.URL+"/", 0, GenerationParams{}, nil)
	var chunks []string
	full, err := client.Generate(context.Background(), "write x", "qwen", func(c string) {
		chunks = append(chunks, c)
	})

	require.NoError(t, err)
	assert.Equal(t, "const x = 1;", full)
	assert.Equal(t, []string{"const ", "x = 1;"}, chunks)
	assert.Equal(t, "qwen", got.Model)
	assert.Equal(t, "write x", got.Prompt)
	assert.True(t, got.Stream)
	assert.Empty(t, got.Options)
}

func TestOllamaGenerate_SendsOptions(t *testing.T) {
	t.Parallel()

	var got map[string]any
	server := newMockOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeNDJSON(w, `{"response":"ok","done":true}`)
	})

	temp := float32(0.5)
	maxTokens := 256
	client := NewOllamaClient(server.URL, 0, GenerationParams{Temperature: &temp, MaxTokens: &maxTokens}, nil)
	_, err := client.Generate(context.Background(), "p", "m", nil)
	require.NoError(t, err)

	options, ok := got["options"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 0.5, options["temperature"], 1e-6)
	assert.Equal(t, float64(256), options["num_predict"])
}

func TestOllamaGenerate_EndsWithoutDone(t *testing.T) {
	t.Parallel()

	server := newMockOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeNDJSON(w, `{"response":"partial"}`)
	})

	full, err := NewOllamaClient(server.URL, 0, GenerationParams{}, nil).
		Generate(context.Background(), "p", "m", nil)
	require.NoError(t, err)
	assert.Equal(t, "partial", full)
}

func TestOllamaGenerate_ModelNotFound(t *testing.T) {
	t.Parallel()

	server := newMockOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model \"nope\" not found, try pulling it first"}`)
	})

	_, err := NewOllamaClient(server.URL, 0, GenerationParams{}, nil).
		Generate(context.Background(), "p", "nope", nil)
	require.ErrorIs(t, err, ErrModelNotFound)
	assert.Contains(t, err.Error(), "ollama pull nope")
}

func TestOllamaGenerate_ServerError(t *testing.T) {
	t.Parallel()

	server := newMockOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of memory", http.StatusInternalServerError)
	})

	_, err := NewOllamaClient(server.URL, 0, GenerationParams{}, nil).
		Generate(context.Background(), "p", "m", nil)
	require.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "out of memory")
}

func TestOllamaGenerate_StreamErrorChunk(t *testing.T) {
	t.Parallel()

	server := newMockOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeNDJSON(w, `{"response":"a"}`, `{"error":"context length exceeded"}`)
	})

	full, err := NewOllamaClient(server.URL, 0, GenerationParams{}, nil).
		Generate(context.Background(), "p", "m", nil)
	require.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "context length exceeded")
	assert.Equal(t, "a", full)
}

func TestOllamaGenerate_MalformedJSON(t *testing.T) {
	t.Parallel()

	server := newMockOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeNDJSON(w, `{"response":"a"}`, `{not json`)
	})

	_, err := NewOllamaClient(server.URL, 0, GenerationParams{}, nil).
		Generate(context.Background(), "p", "m", nil)
	assert.ErrorIs(t, err, ErrMalformedStream)
}

func TestOllamaGenerate_Unreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewOllamaClient(url, 0, GenerationParams{}, nil).
		Generate(context.Background(), "p", "m", nil)
	require.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), url)
}

func TestReadOllamaStream_LongLine(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 200*1024)
	body := fmt.Sprintf("{\"response\":%q,\"done\":true}\n", long)

	full, err := readOllamaStream(strings.NewReader(body), nil)
	require.NoError(t, err)
	assert.Len(t, full, len(long))
}

// =============================================================================
// Rate Limit Tests
// =============================================================================

type countingGenerator struct {
	calls atomic.Int32
}

func (c *countingGenerator) Generate(ctx context.Context, prompt, model string, onChunk ChunkFunc) (string, error) {
	c.calls.Add(1)
	emit(onChunk, prompt)
	return prompt, nil
}

func TestWithRateLimit_PassesThrough(t *testing.T) {
	t.Parallel()

	next := &countingGenerator{}
	g := WithRateLimit(next, 60000)

	for i := 0; i < 3; i++ {
		out, err := g.Generate(context.Background(), "p", "m", nil)
		require.NoError(t, err)
		assert.Equal(t, "p", out)
	}
	assert.Equal(t, int32(3), next.calls.Load())
}

func TestWithRateLimit_CancelledContext(t *testing.T) {
	t.Parallel()

	next := &countingGenerator{}
	g := WithRateLimit(next, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, "p", "m", nil)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, int32(0), next.calls.Load())
}

// =============================================================================
// Factory Tests
// =============================================================================

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		want    any
		wantErr error
	}{
		{"ollama", Config{Type: TypeOllama, Address: "http://localhost:11434"}, &OllamaClient{}, nil},
		{"lmstudio", Config{Type: TypeLMStudio, Address: "http://localhost:1234/v1"}, &OpenAIClient{}, nil},
		{"openai", Config{Type: TypeOpenAI, Address: "http://localhost:1234/v1", APIKey: "k"}, &OpenAIClient{}, nil},
		{"limited", Config{Type: TypeOllama, Address: "http://x", RequestsPerMinute: 10}, &rateLimited{}, nil},
		{"unknown", Config{Type: "vllm", Address: "http://x"}, nil, ErrUnknownBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.cfg, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, g)
		})
	}
}
