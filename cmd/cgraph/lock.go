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
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// RunLock prevents two concurrent 'cgraph run' invocations from racing the
// scout phase against the same project's data directory. It wraps a single
// flock'd file under the project's data dir; the lock is released when the
// process exits or calls Release.
type RunLock struct {
	path string
	file *os.File
}

// LockInfo describes the process currently holding a RunLock.
type LockInfo struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
}

// NewRunLock returns a RunLock for the given project data directory.
func NewRunLock(dataDir string) *RunLock {
	return &RunLock{path: filepath.Join(dataDir, "run.lock")}
}

// TryAcquire attempts to take the lock without blocking. It returns false,
// nil if another process already holds it.
func (l *RunLock) TryAcquire() (bool, error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return false, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if err == syscall.EWOULDBLOCK {
			return false, nil
		}
		return false, fmt.Errorf("flock: %w", err)
	}

	if err := f.Truncate(0); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("seek lock file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d %d\n", os.Getpid(), time.Now().Unix()); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("write lock file: %w", err)
	}

	l.file = f
	return true, nil
}

// Info returns the PID and start time of whoever currently holds the lock,
// or nil if the lock file does not exist yet.
func (l *RunLock) Info() (*LockInfo, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var pid int
	var ts int64
	if _, err := fmt.Sscanf(string(data), "%d %d", &pid, &ts); err != nil {
		return nil, fmt.Errorf("parse lock info: %w", err)
	}
	return &LockInfo{PID: pid, StartedAt: time.Unix(ts, 0)}, nil
}

// Release releases the lock, closing the underlying file.
func (l *RunLock) Release() {
	if l.file != nil {
		_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
		_ = l.file.Close()
		l.file = nil
	}
}
