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

// Package clierr provides structured error handling for the cgraph CLI.
//
// UserError carries what went wrong, why, and how to fix it, plus an exit
// code so every command fails the same way. Construct one with the
// New*Error helper matching the failure category and hand it to FatalError.
package clierr

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes for different error categories.
const (
	ExitSuccess    = 0
	ExitConfig     = 1
	ExitDatabase   = 2
	ExitNetwork    = 3
	ExitInput      = 4
	ExitPermission = 5
	ExitNotFound   = 6
	ExitInternal   = 10
)

// UserError represents an error with structured context for end users.
type UserError struct {
	Message  string
	Cause    string
	Fix      string
	ExitCode int
	Err      error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a configuration error with exit code ExitConfig.
// Use for a missing or malformed .cgraph/project.yaml.
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitConfig, Err: err}
}

// NewDatabaseError creates a database error with exit code ExitDatabase.
// Use for relational-store (SQLite) or graph-store (Neo4j) failures.
func NewDatabaseError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitDatabase, Err: err}
}

// NewNetworkError creates a network error with exit code ExitNetwork.
// Use for LLM-provider or graph-driver connectivity failures.
func NewNetworkError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitNetwork, Err: err}
}

// NewInputError creates an input validation error with exit code ExitInput.
func NewInputError(msg, cause, fix string) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitInput}
}

// NewPermissionError creates a permission denied error with exit code ExitPermission.
func NewPermissionError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitPermission, Err: err}
}

// NewNotFoundError creates a resource not found error with exit code ExitNotFound.
// Use when a run id or target directory can't be located.
func NewNotFoundError(msg, cause, fix string) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitNotFound}
}

// NewInternalError creates an internal error with exit code ExitInternal.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitInternal, Err: err}
}

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a formatted error message for terminal display. Empty
// Cause or Fix fields are omitted. Respects NO_COLOR.
func (e *UserError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}
	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// ErrorJSON is the machine-readable shape of a UserError for --json mode.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the UserError to a JSON-serializable structure.
func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{Error: e.Message, Cause: e.Cause, Fix: e.Fix, ExitCode: e.ExitCode}
}

// FatalError prints err and exits with its exit code. Non-UserError values
// exit with ExitInternal. A nil err is a no-op and returns; otherwise the
// function does not return.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}

	if ue, ok := err.(*UserError); ok {
		if jsonOutput {
			enc := json.NewEncoder(os.Stderr)
			enc.SetIndent("", "  ")
			_ = enc.Encode(ue.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, ue.Format(false))
		}
		os.Exit(ue.ExitCode)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(ExitInternal)
}
