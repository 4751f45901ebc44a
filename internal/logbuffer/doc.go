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

// Package logbuffer provides the shared, memory-mapped, term-partitioned
// log that publishers append into and consumers read from without copying.
//
// A log is three term partitions of identical power-of-two capacity plus a
// metadata page. Position arithmetic, frame headers, the raw-tail packing
// used for lock-free reservation, and the zero-copy buffer claim handle all
// live here; nothing in this package blocks a caller or allocates on the
// append path.
package logbuffer
