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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	require.Equal(t, FailureRateLimit, ClassifyError(errors.New("429 too many requests")))
	require.Equal(t, FailureNetwork, ClassifyError(errors.New("dial tcp: connection timeout")))
	require.Equal(t, FailureValidation, ClassifyError(&ValidationError{Reason: "bad"}))
	require.Equal(t, FailureOther, ClassifyError(errors.New("something unexpected")))
}

func TestBackoff_DoublesPerAttemptAndCaps(t *testing.T) {
	require.Equal(t, 5*time.Second, Backoff(FailureRateLimit, 1))
	require.Equal(t, 10*time.Second, Backoff(FailureRateLimit, 2))
	require.Equal(t, 20*time.Second, Backoff(FailureRateLimit, 3))
	require.Equal(t, 40*time.Second, Backoff(FailureRateLimit, 4))
	require.Equal(t, 40*time.Second, Backoff(FailureRateLimit, 10))
}

func TestBackoff_PerClassBase(t *testing.T) {
	require.Equal(t, 3*time.Second, Backoff(FailureNetwork, 1))
	require.Equal(t, 2*time.Second, Backoff(FailureValidation, 1))
	require.Equal(t, 1*time.Second, Backoff(FailureOther, 1))
}
