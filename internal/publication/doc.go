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

// Package publication implements the lock-free, thread-safe append path:
// offer, tryClaim, and the multi-buffer gather form, with fragmentation
// across the publication's MTU, term rotation at end-of-log, and
// back-pressure classification. Every public operation either completes in
// bounded steps or returns a sentinel status; none of them block.
// Unfragmented offers and claims do not allocate; a fragmented offer
// gathers the whole message into a scratch buffer allocated per call and
// copies each fragment from it into the term.
package publication
