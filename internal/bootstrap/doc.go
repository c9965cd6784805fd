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

// Package bootstrap wires a cgraph project's relational store (SQLite),
// graph store (Neo4j), and run controller together.
//
// InitProject creates the data directory, opens the relational store
// (running schema migrations), and verifies graph store connectivity.
// OpenProject does the same without creating anything, failing if the
// project doesn't exist yet. Both return a Project bundling the opened
// stores and a ready-to-use runctl.Controller.
package bootstrap
