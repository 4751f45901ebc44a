/*
 *
 * Copyright 2025 gRPC authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

// Package metrics binds the core's named system counters to a Prometheus
// registry. None of the core packages import Prometheus directly — they
// only depend on internal/counters' Counter handles — so this package is
// the sole place the dependency is exercised, and is entirely optional:
// a caller that never constructs an Exporter pays nothing for it.
package metrics
