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

// Labels of the five system counters the core increments.
const (
	LabelUnblockedPublications = "unblocked-publications"
	LabelPublicationsRevoked   = "publications-revoked"
	LabelMappedBytes           = "mapped-bytes"
	LabelInvalidPackets        = "invalid-packets"
	LabelRetransmitOverflow    = "retransmit-overflow"
)

// SystemCounters bundles the five named system counters the IPC Publication
// Resource and the Retransmit Handler increment. internal/metrics binds
// these to a Prometheus registry; the core packages only ever see the
// *Counter handles.
type SystemCounters struct {
	UnblockedPublications *Counter
	PublicationsRevoked   *Counter
	MappedBytes           *Counter
	InvalidPackets        *Counter
	RetransmitOverflow    *Counter
}

// NewSystemCounters allocates all five counters from m.
func NewSystemCounters(m *Manager) *SystemCounters {
	return &SystemCounters{
		UnblockedPublications: m.AllocateCounter(LabelUnblockedPublications),
		PublicationsRevoked:   m.AllocateCounter(LabelPublicationsRevoked),
		MappedBytes:           m.AllocateCounter(LabelMappedBytes),
		InvalidPackets:        m.AllocateCounter(LabelInvalidPackets),
		RetransmitOverflow:    m.AllocateCounter(LabelRetransmitOverflow),
	}
}
