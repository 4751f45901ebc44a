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

import "github.com/WorkingChen/aeron/internal/counters"

// Subscriber is a tetherable reading position, owned by the conductor but
// with its value cell written by the subscriber's own thread (acquire/
// release across that boundary, never the reverse).
type Subscriber struct {
	Position *counters.Position

	// Tethered subscribers hold back the publication limit and are immune
	// to the untethered window/linger/resting cycle.
	Tethered bool

	state         TetherState
	stateChangeNs int64
	windowBreachNs int64
}

// NewSubscriber wraps position as a tethered or untethered subscriber, initially ACTIVE.
func NewSubscriber(position *counters.Position, tethered bool) *Subscriber {
	return &Subscriber{Position: position, Tethered: tethered, state: TetherActive}
}

// State returns the subscriber's current tether state.
func (s *Subscriber) State() TetherState { return s.state }

// UntetheredStateChangeFunc is invoked whenever an untethered subscriber
// changes tether state; it is the untethered_subscription_state_change
// callback.
type UntetheredStateChangeFunc func(sub *Subscriber, stateChangeNs int64, newState TetherState, streamID, sessionID int32)

// PublicationRevokeFunc is invoked when a publication is administratively
// revoked before reaching its natural end of life; it is the
// publication_revoke callback.
type PublicationRevokeFunc func(revokedPosition int64)
