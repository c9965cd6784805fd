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

package reconciler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cgraph/pkg/relstore"
)

type fakeGraphSweeper struct {
	swept    [][]string
	failWith error
}

func (f *fakeGraphSweeper) SweepPaths(ctx context.Context, paths []string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.swept = append(f.swept, paths)
	return nil
}

func openTestStore(t *testing.T) *relstore.Store {
	t.Helper()
	s, err := relstore.Open(relstore.Config{Path: filepath.Join(t.TempDir(), "db.sqlite")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMark_FlagsMissingFilesOnly(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.go")
	missing := filepath.Join(dir, "missing.go")
	require.NoError(t, os.WriteFile(present, []byte("package a\n"), 0o644))

	store := openTestStore(t)
	_, err := store.UpsertFile(&relstore.File{Path: "present.go", AbsolutePath: present, ContentHash: "h", Status: relstore.FileStatusCompleted})
	require.NoError(t, err)
	_, err = store.UpsertFile(&relstore.File{Path: "missing.go", AbsolutePath: missing, ContentHash: "h", Status: relstore.FileStatusCompleted})
	require.NoError(t, err)

	r := New(store, &fakeGraphSweeper{}, nil)
	result, err := r.Mark(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, result.Checked)
	require.Equal(t, 1, result.Marked)

	f, err := store.GetFileByPath("present.go")
	require.NoError(t, err)
	require.Equal(t, relstore.FileStatusCompleted, f.Status)

	f, err = store.GetFileByPath("missing.go")
	require.NoError(t, err)
	require.Equal(t, relstore.FileStatusPendingDeletion, f.Status)
}

func TestMark_SkipsAlreadyMarkedFiles(t *testing.T) {
	store := openTestStore(t)
	_, err := store.UpsertFile(&relstore.File{Path: "gone.go", AbsolutePath: "/does/not/exist.go", ContentHash: "h", Status: relstore.FileStatusPendingDeletion})
	require.NoError(t, err)

	r := New(store, &fakeGraphSweeper{}, nil)
	result, err := r.Mark(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, result.Checked)
}

func TestSweep_DeletesGraphFirstThenRelational(t *testing.T) {
	store := openTestStore(t)
	id, err := store.UpsertFile(&relstore.File{Path: "gone.go", AbsolutePath: "/gone.go", ContentHash: "h", Status: relstore.FileStatusPendingDeletion})
	require.NoError(t, err)

	sweeper := &fakeGraphSweeper{}
	r := New(store, sweeper, nil)
	result, err := r.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Swept)
	require.Len(t, sweeper.swept, 1)
	require.Equal(t, []string{"/gone.go"}, sweeper.swept[0])

	_, err = store.GetFileByPath("gone.go")
	require.ErrorIs(t, err, relstore.ErrNotFound)

	_ = id
}

func TestSweep_AbortsRelationalDeleteOnGraphFailure(t *testing.T) {
	store := openTestStore(t)
	_, err := store.UpsertFile(&relstore.File{Path: "gone.go", AbsolutePath: "/gone.go", ContentHash: "h", Status: relstore.FileStatusPendingDeletion})
	require.NoError(t, err)

	sweeper := &fakeGraphSweeper{failWith: errors.New("graph unavailable")}
	r := New(store, sweeper, nil)
	_, err = r.Sweep(context.Background())
	require.Error(t, err)

	f, err := store.GetFileByPath("gone.go")
	require.NoError(t, err)
	require.Equal(t, relstore.FileStatusPendingDeletion, f.Status)
}

func TestSweep_NoOpWhenNothingPending(t *testing.T) {
	store := openTestStore(t)
	sweeper := &fakeGraphSweeper{}
	r := New(store, sweeper, nil)
	result, err := r.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, result.Swept)
	require.Empty(t, sweeper.swept)
}
