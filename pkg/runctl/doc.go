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

// Package runctl sequences the ingestion pipeline's phases (spec.md §5,
// §6): clear/init, scout, the worker fleet, the graph ingestor, an optional
// relationship-resolver pass, and an optional reconcile. Phases run
// strictly in order; cancellation lets in-flight work drain before a phase
// is declared complete.
package runctl
