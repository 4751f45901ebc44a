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

// Package ipc implements the driver-side, conductor-owned per-publication
// resource: lifecycle state machine, subscriber-set membership, producer
// and consumer position tracking, buffer cleaning, blocked-publisher
// unblock detection, and the untethered-subscriber window/linger/resting
// cycle. Every exported method on Publication is conductor-thread-only;
// none of them are safe to call concurrently with each other.
package ipc
