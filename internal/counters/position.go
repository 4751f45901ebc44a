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

package counters

import "sync/atomic"

// Position is a typed handle over one 64-bit cell in a shared counters
// buffer. Every published position is written with release and read with
// acquire semantics.
type Position struct {
	cell *int64
	id   int32
	label string
}

// NewPosition wraps an already-allocated cell as a position, identified by
// counter id (as it would appear in a real counters-registry listing) and
// a human-readable label for diagnostics.
func NewPosition(cell *int64, id int32, label string) *Position {
	return &Position{cell: cell, id: id, label: label}
}

// ID returns the counter id this position was allocated under.
func (p *Position) ID() int32 { return p.id }

// Label returns this position's diagnostic label.
func (p *Position) Label() string { return p.label }

// Get loads the current value with acquire semantics.
func (p *Position) Get() int64 {
	return atomic.LoadInt64(p.cell)
}

// Set stores value with release semantics.
func (p *Position) Set(value int64) {
	atomic.StoreInt64(p.cell, value)
}

// SetOrdered is an alias for Set; the name matches the on-the-wire
// terminology this domain uses for a release store to a position counter.
func (p *Position) SetOrdered(value int64) {
	p.Set(value)
}

// CompareAndSet attempts to move the cell from old to new, returning
// whether it succeeded.
func (p *Position) CompareAndSet(old, new int64) bool {
	return atomic.CompareAndSwapInt64(p.cell, old, new)
}

// Counter is a monotonically-incrementing system counter (unblocked
// publications, publications revoked, mapped bytes, invalid packets,
// retransmit overflow).
type Counter struct {
	cell *int64
	id   int32
	label string
}

// NewCounter wraps an already-allocated cell as a monotonic counter.
func NewCounter(cell *int64, id int32, label string) *Counter {
	return &Counter{cell: cell, id: id, label: label}
}

// ID returns the counter id.
func (c *Counter) ID() int32 { return c.id }

// Label returns the counter's diagnostic label.
func (c *Counter) Label() string { return c.label }

// Get returns the current counter value.
func (c *Counter) Get() int64 {
	return atomic.LoadInt64(c.cell)
}

// Increment adds delta to the counter and returns the new value.
func (c *Counter) Increment(delta int64) int64 {
	return atomic.AddInt64(c.cell, delta)
}
