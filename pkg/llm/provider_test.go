// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func TestNewProvider_MockType(t *testing.T) {
	p, err := NewProvider(ProviderConfig{Type: "mock"})
	if err != nil {
		t.Fatalf("NewProvider(mock) error = %v", err)
	}
	if p == nil {
		t.Fatal("NewProvider(mock) returned nil")
	}
	if p.Name() != "mock" {
		t.Errorf("expected name 'mock', got %q", p.Name())
	}
}

func TestNewProvider_OllamaType(t *testing.T) {
	p, err := NewProvider(ProviderConfig{Type: "ollama"})
	if err != nil {
		t.Fatalf("NewProvider(ollama) error = %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("expected name 'ollama', got %q", p.Name())
	}
}

func TestNewProvider_OpenAIType(t *testing.T) {
	p, err := NewProvider(ProviderConfig{Type: "openai"})
	if err != nil {
		t.Fatalf("NewProvider(openai) error = %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("expected name 'openai', got %q", p.Name())
	}
}

func TestNewProvider_AnthropicType(t *testing.T) {
	p, err := NewProvider(ProviderConfig{Type: "anthropic"})
	if err != nil {
		t.Fatalf("NewProvider(anthropic) error = %v", err)
	}
	if p.Name() != "anthropic" {
		t.Errorf("expected name 'anthropic', got %q", p.Name())
	}
}

func TestNewProvider_UnknownType(t *testing.T) {
	_, err := NewProvider(ProviderConfig{Type: "unknown"})
	if err == nil {
		t.Fatal("expected error for unknown provider type")
	}
	if !strings.Contains(err.Error(), "unknown LLM provider type") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestMockProvider_Chat(t *testing.T) {
	p := &MockProvider{}

	ctx := context.Background()
	resp, err := p.Chat(ctx, ChatRequest{
		Messages: []Message{
			{Role: "user", Content: "Hello!"},
		},
	})
	if err != nil {
		t.Fatalf("Chat error = %v", err)
	}

	if resp == nil {
		t.Fatal("Chat returned nil response")
	}
	if resp.Message.Role != "assistant" {
		t.Errorf("expected role 'assistant', got %q", resp.Message.Role)
	}
	if !strings.Contains(resp.Message.Content, `"entities"`) {
		t.Errorf("expected default mock reply to match extraction schema, got %q", resp.Message.Content)
	}
}

func TestMockProvider_CustomChatFunc(t *testing.T) {
	p := &MockProvider{
		ChatFunc: func(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
			return &ChatResponse{
				Message: Message{Role: "assistant", Content: "custom reply"},
				Model:   "custom-model",
				Done:    true,
			}, nil
		},
	}

	ctx := context.Background()
	resp, err := p.Chat(ctx, ChatRequest{Messages: []Message{{Role: "user", Content: "test"}}})
	if err != nil {
		t.Fatalf("Chat error = %v", err)
	}

	if resp.Message.Content != "custom reply" {
		t.Errorf("unexpected response: %q", resp.Message.Content)
	}
}

func TestMockProvider_Models(t *testing.T) {
	p := &MockProvider{}
	ctx := context.Background()

	models, err := p.Models(ctx)
	if err != nil {
		t.Fatalf("Models error = %v", err)
	}
	if len(models) != 1 || models[0] != "mock-model" {
		t.Errorf("unexpected models: %v", models)
	}
}

func TestOllamaProvider_Chat_WithMockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/chat" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"message": {"role": "assistant", "content": "Hello! How can I help?"},
				"model": "test-model",
				"done": true,
				"prompt_eval_count": 15,
				"eval_count": 8
			}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	p, err := NewProvider(ProviderConfig{
		Type:         "ollama",
		BaseURL:      server.URL,
		DefaultModel: "test-model",
	})
	if err != nil {
		t.Fatalf("NewProvider error = %v", err)
	}

	ctx := context.Background()
	resp, err := p.Chat(ctx, ChatRequest{
		Messages: []Message{
			{Role: "user", Content: "Hi!"},
		},
	})
	if err != nil {
		t.Fatalf("Chat error = %v", err)
	}

	if resp.Message.Content != "Hello! How can I help?" {
		t.Errorf("unexpected content: %q", resp.Message.Content)
	}
	if resp.Message.Role != "assistant" {
		t.Errorf("unexpected role: %q", resp.Message.Role)
	}
}

func TestOpenAIProvider_Chat_WithMockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/chat/completions" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"choices": [{
					"message": {"role": "assistant", "content": "OpenAI response"},
					"finish_reason": "stop"
				}],
				"model": "gpt-4",
				"usage": {
					"prompt_tokens": 20,
					"completion_tokens": 10,
					"total_tokens": 30
				}
			}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	p, err := NewProvider(ProviderConfig{
		Type:    "openai",
		BaseURL: server.URL,
		APIKey:  "test-key",
	})
	if err != nil {
		t.Fatalf("NewProvider error = %v", err)
	}

	ctx := context.Background()
	resp, err := p.Chat(ctx, ChatRequest{
		Messages: []Message{
			{Role: "user", Content: "Test"},
		},
	})
	if err != nil {
		t.Fatalf("Chat error = %v", err)
	}

	if resp.Message.Content != "OpenAI response" {
		t.Errorf("unexpected content: %q", resp.Message.Content)
	}
	if resp.TotalTokens != 30 {
		t.Errorf("unexpected total tokens: %d", resp.TotalTokens)
	}
}

func TestAnthropicProvider_Chat_WithMockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/messages" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"content": [{"type": "text", "text": "Anthropic response"}],
				"model": "claude-3-5-sonnet-20241022",
				"stop_reason": "end_turn",
				"usage": {"input_tokens": 12, "output_tokens": 6}
			}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	p, err := NewProvider(ProviderConfig{
		Type:    "anthropic",
		BaseURL: server.URL,
		APIKey:  "test-key",
	})
	if err != nil {
		t.Fatalf("NewProvider error = %v", err)
	}

	ctx := context.Background()
	resp, err := p.Chat(ctx, ChatRequest{
		Messages: []Message{
			{Role: "system", Content: "Be concise."},
			{Role: "user", Content: "Test"},
		},
	})
	if err != nil {
		t.Fatalf("Chat error = %v", err)
	}

	if resp.Message.Content != "Anthropic response" {
		t.Errorf("unexpected content: %q", resp.Message.Content)
	}
	if !resp.Done {
		t.Error("expected Done=true for stop_reason=end_turn")
	}
	if resp.TotalTokens != 18 {
		t.Errorf("unexpected total tokens: %d", resp.TotalTokens)
	}
}

func TestDefaultProvider_FallsBackToMock(t *testing.T) {
	for _, envVar := range []string{"OLLAMA_HOST", "OLLAMA_BASE_URL", "OLLAMA_MODEL", "OPENAI_API_KEY", "ANTHROPIC_API_KEY"} {
		t.Setenv(envVar, "")
		os.Unsetenv(envVar)
	}

	p, err := DefaultProvider()
	if err != nil {
		t.Fatalf("DefaultProvider error = %v", err)
	}
	if p.Name() != "mock" {
		t.Errorf("expected fallback to mock, got %q", p.Name())
	}
}

func TestSingleTurn(t *testing.T) {
	p := &MockProvider{
		ChatFunc: func(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
			if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
				t.Fatalf("unexpected messages: %+v", req.Messages)
			}
			return &ChatResponse{Message: Message{Role: "assistant", Content: "pong"}}, nil
		},
	}

	text, err := SingleTurn(context.Background(), p, "ping")
	if err != nil {
		t.Fatalf("SingleTurn error = %v", err)
	}
	if text != "pong" {
		t.Errorf("SingleTurn() = %q, want %q", text, "pong")
	}
}
