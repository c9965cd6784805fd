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
	"os"
)

// DefaultProvider creates a provider from environment variables.
// Checks in order: OLLAMA_HOST, OPENAI_API_KEY, ANTHROPIC_API_KEY
// Falls back to mock if nothing is configured.
func DefaultProvider() (Provider, error) {
	// Check for Ollama first (local, free)
	if os.Getenv("OLLAMA_HOST") != "" || os.Getenv("OLLAMA_BASE_URL") != "" || os.Getenv("OLLAMA_MODEL") != "" {
		return NewProvider(ProviderConfig{Type: "ollama"})
	}

	// Check for OpenAI
	if os.Getenv("OPENAI_API_KEY") != "" {
		return NewProvider(ProviderConfig{Type: "openai"})
	}

	// Check for Anthropic
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return NewProvider(ProviderConfig{Type: "anthropic"})
	}

	// Default to mock for development
	return NewProvider(ProviderConfig{Type: "mock"})
}

// SingleTurn sends one user message and returns the assistant's reply text.
// It is a convenience wrapper for callers that need a provider without
// going through the worker's retry/correction loop, such as a project's
// initial connectivity check.
func SingleTurn(ctx context.Context, provider Provider, userContent string) (string, error) {
	resp, err := provider.Chat(ctx, ChatRequest{
		Messages: []Message{{Role: "user", Content: userContent}},
	})
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}
