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

package ipc

// State is a publication resource's lifecycle state.
type State int32

const (
	StateActive State = iota
	StateDraining
	StateLinger
	StateDone
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "ACTIVE"
	case StateDraining:
		return "DRAINING"
	case StateLinger:
		return "LINGER"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// TetherState is a subscriber's tethering state: ACTIVE positions hold back
// the publication limit; LINGER and RESTING are transient states an
// untethered subscriber passes through when it falls too far behind.
type TetherState int32

const (
	TetherActive TetherState = iota
	TetherLinger
	TetherResting
)

func (s TetherState) String() string {
	switch s {
	case TetherActive:
		return "ACTIVE"
	case TetherLinger:
		return "LINGER"
	case TetherResting:
		return "RESTING"
	default:
		return "UNKNOWN"
	}
}
