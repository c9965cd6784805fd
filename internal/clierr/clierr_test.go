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

package clierr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUserError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *UserError
		want string
	}{
		{name: "with underlying error", err: &UserError{Message: "cannot open store", Err: fmt.Errorf("file locked")}, want: "cannot open store: file locked"},
		{name: "without underlying error", err: &UserError{Message: "invalid input"}, want: "invalid input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitCodes_Unique(t *testing.T) {
	codes := map[int]string{
		ExitSuccess: "ExitSuccess", ExitConfig: "ExitConfig", ExitDatabase: "ExitDatabase",
		ExitNetwork: "ExitNetwork", ExitInput: "ExitInput", ExitPermission: "ExitPermission",
		ExitNotFound: "ExitNotFound", ExitInternal: "ExitInternal",
	}
	if len(codes) != 8 {
		t.Fatalf("expected 8 distinct exit codes, got %d", len(codes))
	}
}

func TestConstructors(t *testing.T) {
	underlying := fmt.Errorf("underlying error")

	tests := []struct {
		name     string
		err      *UserError
		wantCode int
		wantErr  bool
	}{
		{"config", NewConfigError("msg", "cause", "fix", underlying), ExitConfig, true},
		{"database", NewDatabaseError("msg", "cause", "fix", underlying), ExitDatabase, true},
		{"network", NewNetworkError("msg", "cause", "fix", underlying), ExitNetwork, true},
		{"input", NewInputError("msg", "cause", "fix"), ExitInput, false},
		{"permission", NewPermissionError("msg", "cause", "fix", underlying), ExitPermission, true},
		{"not found", NewNotFoundError("msg", "cause", "fix"), ExitNotFound, false},
		{"internal", NewInternalError("msg", "cause", "fix", underlying), ExitInternal, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", tt.err.ExitCode, tt.wantCode)
			}
			if (tt.err.Err != nil) != tt.wantErr {
				t.Errorf("has underlying error = %v, want %v", tt.err.Err != nil, tt.wantErr)
			}
		})
	}
}

func TestErrorChain(t *testing.T) {
	sentinel := fmt.Errorf("sentinel error")
	wrapped := fmt.Errorf("wrapped: %w", sentinel)
	userErr := NewDatabaseError("database error", "cause", "fix", wrapped)

	if !errors.Is(userErr, sentinel) {
		t.Error("errors.Is should find sentinel error in chain")
	}

	var target *UserError
	if !errors.As(userErr, &target) {
		t.Fatal("errors.As should extract UserError")
	}
	if target.ExitCode != ExitDatabase {
		t.Errorf("ExitCode = %d, want %d", target.ExitCode, ExitDatabase)
	}
}

func TestUserError_Format(t *testing.T) {
	err := &UserError{
		Message:  "cannot open graph store",
		Cause:    "neo4j connection refused",
		Fix:      "check NEO4J_URI and retry",
		ExitCode: ExitDatabase,
	}
	got := err.Format(true)
	for _, substr := range []string{"Error: cannot open graph store", "Cause: neo4j connection refused", "Fix:   check NEO4J_URI and retry"} {
		if !strings.Contains(got, substr) {
			t.Errorf("Format() output missing %q, got: %s", substr, got)
		}
	}
}

func TestUserError_ToJSON(t *testing.T) {
	err := &UserError{Message: "invalid config", Cause: "missing field", Fix: "run cgraph init", ExitCode: ExitConfig}
	got := err.ToJSON()
	if got.Error != "invalid config" || got.Cause != "missing field" || got.Fix != "run cgraph init" || got.ExitCode != ExitConfig {
		t.Errorf("ToJSON() = %+v", got)
	}
}

func TestFatalError_NilDoesNothing(t *testing.T) {
	FatalError(nil, false)
}
