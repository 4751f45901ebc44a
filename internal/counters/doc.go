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

// Package counters provides typed handles over 64-bit cells in a shared
// counters buffer, read and written with acquire/release semantics. The
// counters registry itself (cross-process allocation, metadata labels,
// free-list reclamation) is an external collaborator outside this core's
// scope; this package provides just enough of a local allocator for the
// core to exercise its own position contract standalone, and a Manager
// that the driver-side resources use to create publication-limit,
// producer-position, and system counters.
package counters
