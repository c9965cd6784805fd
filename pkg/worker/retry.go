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

package worker

import (
	"errors"
	"strings"
	"time"
)

// FailureClass buckets an LLM call failure so backoff can be tuned per
// cause (spec.md §4.4 step 5).
type FailureClass string

const (
	FailureRateLimit  FailureClass = "rate_limit"
	FailureNetwork    FailureClass = "network"
	FailureValidation FailureClass = "validation"
	FailureOther      FailureClass = "other"
)

const (
	maxAttempts = 5
	maxBackoff  = 40 * time.Second
)

var backoffBase = map[FailureClass]time.Duration{
	FailureRateLimit:  5 * time.Second,
	FailureNetwork:    3 * time.Second,
	FailureValidation: 2 * time.Second,
	FailureOther:      1 * time.Second,
}

// ClassifyError inspects err (and, for validation failures, a dedicated
// sentinel) to pick a FailureClass.
func ClassifyError(err error) FailureClass {
	if err == nil {
		return FailureOther
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return FailureValidation
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") || strings.Contains(msg, "too many requests"):
		return FailureRateLimit
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "connection") || strings.Contains(msg, "network") || strings.Contains(msg, "eof"):
		return FailureNetwork
	default:
		return FailureOther
	}
}

// Backoff returns how long to wait before attempt (1-indexed) given class,
// doubling per attempt and capped at maxBackoff (spec.md §4.4 step 5).
func Backoff(class FailureClass, attempt int) time.Duration {
	base, ok := backoffBase[class]
	if !ok {
		base = backoffBase[FailureOther]
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}
