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

package scout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectChanges_NewModifiedDeleted(t *testing.T) {
	previous := map[string]string{"a.go": "h1", "b.go": "h2"}
	current := map[string]string{"a.go": "h1-changed", "c.go": "h3"}

	cs := DetectChanges(current, previous, nil)

	require.Equal(t, []string{"a.go"}, cs.Modified)
	require.Equal(t, []string{"c.go"}, cs.New)
	require.Equal(t, []string{"b.go"}, cs.Deleted)
	require.Empty(t, cs.Renamed)
}

func TestDetectChanges_RenameByHashPairing(t *testing.T) {
	previous := map[string]string{"old.go": "h1"}
	current := map[string]string{"new.go": "h1"}

	cs := DetectChanges(current, previous, nil)

	require.Equal(t, map[string]string{"old.go": "new.go"}, cs.Renamed)
	require.Empty(t, cs.New)
	require.Empty(t, cs.Deleted)
}

func TestDetectChanges_UnchangedFileProducesNoEntries(t *testing.T) {
	previous := map[string]string{"a.go": "h1"}
	current := map[string]string{"a.go": "h1"}

	cs := DetectChanges(current, previous, nil)

	require.Empty(t, cs.New)
	require.Empty(t, cs.Modified)
	require.Empty(t, cs.Deleted)
	require.Empty(t, cs.Renamed)
}

func TestDetectChanges_StaleHintIsIgnored(t *testing.T) {
	previous := map[string]string{"old.go": "h1"}
	current := map[string]string{"new.go": "h2"} // hash doesn't match: not actually a rename

	hints := map[string]string{"old.go": "new.go"}
	cs := DetectChanges(current, previous, hints)

	require.Empty(t, cs.Renamed)
	require.Equal(t, []string{"new.go"}, cs.New)
	require.Equal(t, []string{"old.go"}, cs.Deleted)
}

func TestDetectChanges_HintAcceleratesValidRename(t *testing.T) {
	previous := map[string]string{"old.go": "h1", "unrelated.go": "h1"}
	current := map[string]string{"new.go": "h1"}

	hints := map[string]string{"old.go": "new.go"}
	cs := DetectChanges(current, previous, hints)

	require.Equal(t, "new.go", cs.Renamed["old.go"])
	// unrelated.go shares the same hash and is also gone from disk; since
	// its hash was consumed by the confirmed rename, it falls back to deleted.
	require.Contains(t, cs.Deleted, "unrelated.go")
}

func TestDetectChanges_AmbiguousHashPicksFirstByOrder(t *testing.T) {
	previous := map[string]string{"a.go": "h1", "b.go": "h1"}
	current := map[string]string{"c.go": "h1"}

	cs := DetectChanges(current, previous, nil)

	require.Equal(t, "c.go", cs.Renamed["a.go"])
	require.Equal(t, []string{"b.go"}, cs.Deleted)
}
