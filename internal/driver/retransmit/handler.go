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

package retransmit

import "github.com/WorkingChen/aeron/internal/counters"

// MaxResend is the hard upper bound on concurrent retransmit actions,
// AERON_RETRANSMIT_HANDLER_MAX_RESEND in the original source.
const MaxResend = 16

// ActionState is a retransmit action's timer state.
type ActionState int32

const (
	Inactive ActionState = iota
	Delayed
	Lingering
)

// Action is one scheduled or in-flight retransmission.
type Action struct {
	state      ActionState
	termID     int32
	termOffset int32
	length     int32
	expiryNs   int64
}

// State returns the action's current timer state.
func (a Action) State() ActionState { return a.state }

// ResendFunc performs the actual resend; it is the on_resend callback invoked for each retransmitted range.
type ResendFunc func(termID, termOffset, length int32)

// DelayGeneratorFunc returns the next resend delay in nanoseconds; a
// handler configured with a generator that always returns 0 resends
// immediately instead of scheduling a delayed timer.
type DelayGeneratorFunc func() int64

// FlowControl caps the length actually resent for a NAK, never exceeding
// the term remainder nor the flow controller's own window multiple.
type FlowControl interface {
	MaxRetransmissionLength(state ActionState, termOffset, length, termBufferLength, mtuLength int32) int32
}

// Handler is the bounded, time-driven retransmit action table described in
// its NAK-to-retransmission pipeline. It is not safe for concurrent use; callers must serialize
// access (normally: a single receiver thread).
type Handler struct {
	actions  [MaxResend]Action
	capacity int

	invalidPacketCounter *counters.Counter
	overflowCounter       *counters.Counter

	delayGenerator    DelayGeneratorFunc
	lingerTimeoutNs   int64
	hasGroupSemantics bool
}

// Init constructs a Handler. capacity is clamped to [0, MaxResend].
func Init(
	invalidPacketCounter, overflowCounter *counters.Counter,
	delayGenerator DelayGeneratorFunc,
	lingerTimeoutNs int64,
	hasGroupSemantics bool,
	capacity int,
) *Handler {
	if capacity > MaxResend {
		capacity = MaxResend
	}
	if capacity < 0 {
		capacity = 0
	}
	return &Handler{
		capacity:              capacity,
		invalidPacketCounter:  invalidPacketCounter,
		overflowCounter:       overflowCounter,
		delayGenerator:        delayGenerator,
		lingerTimeoutNs:       lingerTimeoutNs,
		hasGroupSemantics:     hasGroupSemantics,
	}
}

// Close resets every action to INACTIVE, releasing the pool.
func (h *Handler) Close() {
	for i := range h.actions[:h.capacity] {
		h.actions[i] = Action{}
	}
}

func inRange(termOffset, length, termBufferLength int32) bool {
	return termOffset >= 0 && length > 0 && int64(termOffset)+int64(length) <= int64(termBufferLength)
}

// OnNak processes one inbound NAK: coalesces it against an existing
// DELAYED/LINGERING action covering the same range, allocates a fresh
// action from the pool and schedules it (immediate resend, or a delayed
// timer) otherwise, or — if the pool is exhausted — increments the
// overflow counter and drops it.
func (h *Handler) OnNak(
	termID, termOffset, length, termBufferLength, mtuLength int32,
	flowControl FlowControl,
	nowNs int64,
	resend ResendFunc,
) {
	if !inRange(termOffset, length, termBufferLength) {
		if h.invalidPacketCounter != nil {
			h.invalidPacketCounter.Increment(1)
		}
		return
	}

	for i := range h.actions[:h.capacity] {
		a := &h.actions[i]
		if (a.state == Delayed || a.state == Lingering) &&
			a.termID == termID &&
			termOffset >= a.termOffset &&
			termOffset+length <= a.termOffset+a.length {
			return
		}
	}

	idx := -1
	for i := range h.actions[:h.capacity] {
		if h.actions[i].state == Inactive {
			idx = i
			break
		}
	}
	if idx == -1 {
		if h.overflowCounter != nil {
			h.overflowCounter.Increment(1)
		}
		return
	}

	cappedLength := length
	if flowControl != nil {
		cappedLength = flowControl.MaxRetransmissionLength(Inactive, termOffset, length, termBufferLength, mtuLength)
	}

	a := &h.actions[idx]
	a.termID = termID
	a.termOffset = termOffset
	a.length = cappedLength

	var delayNs int64
	if h.delayGenerator != nil {
		delayNs = h.delayGenerator()
	}

	if delayNs == 0 {
		resend(termID, termOffset, cappedLength)
		a.state = Lingering
		a.expiryNs = nowNs + h.lingerTimeoutNs
	} else {
		a.state = Delayed
		a.expiryNs = nowNs + delayNs
	}
}

// ProcessTimeouts advances every action's timer, firing delayed resends
// and freeing lingered-out slots. It returns the number of state
// transitions observed, which the caller may use to back off its own tick
// rate.
func (h *Handler) ProcessTimeouts(nowNs int64, resend ResendFunc) int {
	expired := 0

	for i := range h.actions[:h.capacity] {
		a := &h.actions[i]
		switch a.state {
		case Delayed:
			if nowNs >= a.expiryNs {
				resend(a.termID, a.termOffset, a.length)
				a.state = Lingering
				a.expiryNs = nowNs + h.lingerTimeoutNs
				expired++
			}
		case Lingering:
			if nowNs >= a.expiryNs {
				*a = Action{}
				expired++
			}
		}
	}

	return expired
}
