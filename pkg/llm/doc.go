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

// Package llm provides a unified interface for the chat-completion backends
// used to extract points of interest and relationships from source files.
//
// This package abstracts the differences between various LLM APIs behind a
// single Chat method. It is used by pkg/worker to run the per-file
// extraction prompt and by pkg/resolver to run cross-file relationship
// resolution passes; both send a message history and parse the JSON
// returned in the reply.
//
// # Supported Providers
//
// The following LLM providers are supported:
//   - Ollama: Local models, no API key required (default)
//   - OpenAI: GPT-4, GPT-4o-mini, and OpenAI-compatible APIs
//   - Anthropic: Claude models
//   - Mock: For testing without real API calls
//
// # Quick Start
//
// Create a provider explicitly:
//
//	provider, err := llm.NewProvider(llm.ProviderConfig{
//	    Type:   "openai",
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := provider.Chat(ctx, llm.ChatRequest{
//	    Messages: []llm.Message{
//	        {Role: "user", Content: "Extract points of interest from this file: ..."},
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Message.Content)
//
// [DefaultProvider] auto-selects a provider from environment variables, and
// [SingleTurn] wraps a one-message exchange for callers (such as `cgraph
// init`'s connectivity check) that don't need the worker's retry/correction
// loop.
//
// # Provider Selection
//
// The [DefaultProvider] function automatically selects a provider based on
// available environment variables, checking in order:
//  1. OLLAMA_HOST or OLLAMA_MODEL set - Uses Ollama (local)
//  2. OPENAI_API_KEY set - Uses OpenAI
//  3. ANTHROPIC_API_KEY set - Uses Anthropic
//  4. No credentials - Falls back to mock provider
//
// # Environment Variables
//
// Ollama (local, free):
//   - OLLAMA_HOST: Server URL (default: http://localhost:11434)
//   - OLLAMA_MODEL: Model name (e.g., "llama2", "codellama")
//
// OpenAI:
//   - OPENAI_API_KEY: API key (required)
//   - OPENAI_BASE_URL: API URL for compatible services (e.g., Azure)
//   - OPENAI_MODEL: Model name (default: gpt-4o-mini)
//
// Anthropic:
//   - ANTHROPIC_API_KEY: API key (required)
//   - ANTHROPIC_MODEL: Model name (default: claude-3-5-sonnet-20241022)
//
// # Error Handling
//
// All provider methods return descriptive errors that include context about
// the failure. Network errors, API errors, and validation errors are all
// wrapped with appropriate context.
//
//	resp, err := provider.Chat(ctx, req)
//	if err != nil {
//	    // Error includes provider name and context
//	    // e.g., "openai chat error (status 401): invalid api key"
//	    return err
//	}
package llm
