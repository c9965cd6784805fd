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

package main

import (
	"os"
	"testing"
)

func TestRunLock_AcquireAndRelease(t *testing.T) {
	dir := t.TempDir()
	lock := NewRunLock(dir)

	acquired, err := lock.TryAcquire()
	if err != nil {
		t.Fatalf("TryAcquire failed: %v", err)
	}
	if !acquired {
		t.Fatal("expected to acquire an uncontended lock")
	}

	info, err := lock.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info == nil {
		t.Fatal("expected lock info after acquiring")
	}
	if info.PID != os.Getpid() {
		t.Errorf("Info.PID = %d, want %d", info.PID, os.Getpid())
	}

	lock.Release()
}

func TestRunLock_SecondAcquireFails(t *testing.T) {
	dir := t.TempDir()

	first := NewRunLock(dir)
	acquired, err := first.TryAcquire()
	if err != nil || !acquired {
		t.Fatalf("first TryAcquire failed: acquired=%v err=%v", acquired, err)
	}
	defer first.Release()

	second := NewRunLock(dir)
	acquired, err = second.TryAcquire()
	if err != nil {
		t.Fatalf("second TryAcquire returned error: %v", err)
	}
	if acquired {
		t.Fatal("expected second acquire on an already-held lock to fail")
	}
}

func TestRunLock_Info_NoLockFile(t *testing.T) {
	dir := t.TempDir()
	lock := NewRunLock(dir)

	info, err := lock.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info != nil {
		t.Fatalf("expected nil info for a lock that was never acquired, got %+v", info)
	}
}
