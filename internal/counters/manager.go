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

import "sync"

// Manager is a minimal, process-local counters buffer allocator. A real
// deployment's counters registry is shared across processes via a mapped
// file and supports metadata labels, free-list reclamation, and liveness
// heartbeats; those concerns are out of scope here. Manager exists so the
// core's own position/counter contract (typed handles over
// atomically-accessed cells) can be created and exercised without that
// external collaborator.
type Manager struct {
	mu    sync.Mutex
	cells []*int64
	next  int32
}

// NewManager returns an empty counters manager.
func NewManager() *Manager {
	return &Manager{}
}

// AllocatePosition allocates a fresh, zeroed cell and returns it wrapped as a Position.
func (m *Manager) AllocatePosition(label string) *Position {
	cell, id := m.allocate()
	return NewPosition(cell, id, label)
}

// AllocateCounter allocates a fresh, zeroed cell and returns it wrapped as a Counter.
func (m *Manager) AllocateCounter(label string) *Counter {
	cell, id := m.allocate()
	return NewCounter(cell, id, label)
}

func (m *Manager) allocate() (*int64, int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cell := new(int64)
	m.cells = append(m.cells, cell)
	id := m.next
	m.next++
	return cell, id
}
