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

import (
	"github.com/WorkingChen/aeron/internal/counters"
	"github.com/WorkingChen/aeron/internal/logbuffer"
)

// Tunables carries the per-publication configuration, constructed once by
// the driver at publication creation and never mutated afterward.
type Tunables struct {
	TermWindowLength int64
	TripGain         int64

	UnblockTimeoutNs int64

	UntetheredWindowLimitTimeoutNs int64
	UntetheredLingerTimeoutNs      int64
	UntetheredRestingTimeoutNs     int64

	LivenessTimeoutNs int64

	// LingerTimeoutNs is how long a drained publication is retained in the
	// LINGER state for late readers before reaching DONE.
	LingerTimeoutNs int64
}

// Publication is the driver-side, conductor-owned resource for one IPC
// publication. Every method is conductor-thread-only.
type Publication struct {
	log *logbuffer.Log

	sessionID           int32
	streamID            int32
	registrationID      int64
	initialTermID       int32
	positionBitsToShift uint

	pubPos *counters.Position
	pubLmt *counters.Position

	tunables Tunables
	system   *counters.SystemCounters

	onUntetheredStateChange UntetheredStateChangeFunc
	onPublicationRevoke     PublicationRevokeFunc

	// conductor-private fields.
	state               State
	refcnt              int32
	subscribers         []*Subscriber
	tripLimit           int64
	cleanPosition       int64
	consumerPosition    int64
	lastConsumerPosition int64
	timeOfLastConsumerPositionChangeNs int64
	hasReachedEndOfLife bool
	inCoolDown          bool
	coolDownExpireTimeNs int64
	lingerStartNs       int64
	lastActiveNs        int64
}

// New constructs an IPC Publication Resource over an already-initialized
// log, in state ACTIVE, with refcnt 1. It registers registrationID and
// increments the mapped-bytes system counter by the log's total mapped
// size, matching aeron_ipc_publication_create's resource-acquisition
// bookkeeping.
func New(
	log *logbuffer.Log,
	sessionID, streamID int32,
	registrationID int64,
	pubPos, pubLmt *counters.Position,
	tunables Tunables,
	system *counters.SystemCounters,
) *Publication {
	p := &Publication{
		log:                 log,
		sessionID:           sessionID,
		streamID:            streamID,
		registrationID:      registrationID,
		initialTermID:       log.Meta.InitialTermID(),
		positionBitsToShift: log.PositionBitsToShift(),
		pubPos:              pubPos,
		pubLmt:              pubLmt,
		tunables:            tunables,
		system:              system,
		state:               StateActive,
		refcnt:              1,
	}
	if system != nil && system.MappedBytes != nil {
		termLength := int64(log.Meta.TermLength())
		system.MappedBytes.Increment(termLength*int64(logbuffer.PartitionCount) + int64(logbuffer.MetadataPageSize))
	}
	return p
}

// SetUntetheredStateChangeFunc installs the hook invoked on every
// untethered-subscriber tether-state transition.
func (p *Publication) SetUntetheredStateChangeFunc(fn UntetheredStateChangeFunc) {
	p.onUntetheredStateChange = fn
}

// SetPublicationRevokeFunc installs the hook invoked when Revoke is called.
func (p *Publication) SetPublicationRevokeFunc(fn PublicationRevokeFunc) {
	p.onPublicationRevoke = fn
}

// State returns the current lifecycle state.
func (p *Publication) State() State { return p.state }

// HasReachedEndOfLife reports whether the resource is eligible for cleanup.
func (p *Publication) HasReachedEndOfLife() bool { return p.hasReachedEndOfLife }

// IncRef increments the reference count held by publisher-side handles.
func (p *Publication) IncRef() { p.refcnt++ }

// DecRef decrements the reference count.
func (p *Publication) DecRef() {
	if p.refcnt > 0 {
		p.refcnt--
	}
}

// producerPosition reads the current raw tail of the active partition
// (acquire), per aeron_ipc_publication_producer_position.
func (p *Publication) producerPosition() int64 {
	termCount := p.log.Meta.ActiveTermCount()
	partitionIndex := logbuffer.IndexByTermCount(termCount)
	rawTail := p.log.Meta.RawTail(partitionIndex)
	termOffset := rawTail.TermOffset()
	if termLength := p.log.Meta.TermLength(); termOffset > termLength {
		termOffset = termLength
	}
	return logbuffer.ComputePosition(rawTail.TermID(), termOffset, p.positionBitsToShift, p.initialTermID)
}

// joinPosition is the position a newly-joining subscriber should start
// reading from: the minimum of all non-resting subscriber positions,
// defaulting to the current consumer position when there are none.
func (p *Publication) joinPosition() int64 {
	position := p.consumerPosition
	found := false
	for _, sub := range p.subscribers {
		if sub.state != TetherResting {
			if v := sub.Position.Get(); !found || v < position {
				position = v
				found = true
			}
		}
	}
	return position
}

// IsDrained reports whether every non-resting subscriber has caught up to
// the producer position, per aeron_ipc_publication_is_drained.
func (p *Publication) IsDrained() bool {
	producerPosition := p.producerPosition()
	for _, sub := range p.subscribers {
		if sub.state != TetherResting && sub.Position.Get() < producerPosition {
			return false
		}
	}
	return true
}

// IsAcceptingSubscriptions reports whether a new subscriber may join now,
// per aeron_ipc_publication_is_accepting_subscriptions.
func (p *Publication) IsAcceptingSubscriptions() bool {
	if p.inCoolDown {
		return false
	}
	return p.state == StateActive || (p.state == StateDraining && !p.IsDrained())
}

// UpdatePubPosAndLmt recomputes the consumer position from the subscriber
// set, publishes it to the producer-position counter, and — subject to the
// trip-gain coalescing gate — raises the publication limit. It returns a
// work count: one for a changed consumer position plus one for a raised
// publication limit.
func (p *Publication) UpdatePubPosAndLmt() int {
	if p.state != StateActive && p.state != StateDraining {
		return 0
	}

	workCount := 0

	joinPosition := p.joinPosition()
	if joinPosition != p.consumerPosition {
		p.consumerPosition = joinPosition
		workCount++
	}
	p.pubPos.SetOrdered(p.consumerPosition)

	proposedLimit := p.consumerPosition + p.tunables.TermWindowLength
	if proposedLimit > p.tripLimit {
		p.pubLmt.SetOrdered(proposedLimit)
		p.tripLimit = proposedLimit + p.tunables.TripGain
		workCount++
	}

	return workCount
}

// CleanBuffer zeroes the term regions between the last cleaned position and
// position, advancing cleanPosition. Never cleans ahead of position.
func (p *Publication) CleanBuffer(position int64) {
	if position <= p.cleanPosition {
		return
	}

	termLength := int64(p.log.Meta.TermLength())
	partitionIndex := logbuffer.IndexByPosition(p.cleanPosition, p.positionBitsToShift)
	termOffset := p.cleanPosition & (termLength - 1)
	remaining := position - p.cleanPosition

	for remaining > 0 {
		length := termLength - termOffset
		if length > remaining {
			length = remaining
		}
		termBuffer := p.log.Partitions[partitionIndex]
		clear(termBuffer[termOffset : termOffset+length])

		remaining -= length
		p.cleanPosition += length
		partitionIndex = (partitionIndex + 1) % logbuffer.PartitionCount
		termOffset = 0
	}
}
