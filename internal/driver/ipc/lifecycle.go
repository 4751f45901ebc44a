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

import "github.com/WorkingChen/aeron/internal/logbuffer"

// OnTimeEvent drives the lifecycle state machine and the untethered
// subscriber window/linger/resting cycle. It must be called regularly by
// the conductor tick.
func (p *Publication) OnTimeEvent(nowNs, nowMs int64) {
	p.processUntetheredSubscribers(nowNs)

	switch p.state {
	case StateActive:
		if p.refcnt > 0 || len(p.subscribers) > 0 {
			p.lastActiveNs = nowNs
			return
		}
		if p.lastActiveNs == 0 {
			p.lastActiveNs = nowNs
			return
		}
		if nowNs-p.lastActiveNs >= p.tunables.LivenessTimeoutNs {
			p.state = StateDraining
		}

	case StateDraining:
		if p.IsDrained() {
			p.state = StateLinger
			p.lingerStartNs = nowNs
		}

	case StateLinger:
		if nowNs-p.lingerStartNs >= p.tunables.LingerTimeoutNs {
			p.state = StateDone
			p.hasReachedEndOfLife = true
		}

	case StateDone:
		// terminal; nothing to do.
	}
}

// processUntetheredSubscribers advances every untethered subscriber's
// window/linger/resting cycle.
func (p *Publication) processUntetheredSubscribers(nowNs int64) {
	producerPosition := p.producerPosition()

	for _, sub := range p.subscribers {
		if sub.Tethered {
			continue
		}

		switch sub.state {
		case TetherActive:
			subPosition := sub.Position.Get()
			if producerPosition-subPosition > p.tunables.TermWindowLength {
				if sub.windowBreachNs == 0 {
					sub.windowBreachNs = nowNs
				} else if nowNs-sub.windowBreachNs >= p.tunables.UntetheredWindowLimitTimeoutNs {
					p.transitionTether(sub, nowNs, TetherLinger)
				}
			} else {
				sub.windowBreachNs = 0
			}

		case TetherLinger:
			if nowNs-sub.stateChangeNs >= p.tunables.UntetheredLingerTimeoutNs {
				p.transitionTether(sub, nowNs, TetherResting)
			}

		case TetherResting:
			if nowNs-sub.stateChangeNs >= p.tunables.UntetheredRestingTimeoutNs {
				sub.Position.SetOrdered(producerPosition)
				sub.windowBreachNs = 0
				p.transitionTether(sub, nowNs, TetherActive)
			}
		}
	}
}

func (p *Publication) transitionTether(sub *Subscriber, nowNs int64, newState TetherState) {
	sub.state = newState
	sub.stateChangeNs = nowNs
	if p.onUntetheredStateChange != nil {
		p.onUntetheredStateChange(sub, nowNs, newState, p.streamID, p.sessionID)
	}
}

// CheckForBlockedPublisher detects a publisher that reserved a frame but
// died before committing it, and unblocks it by writing a padding header
// over the stalled reservation. It returns whether an unblock was
// performed, and increments the unblocked-publications system counter when
// it is.
func (p *Publication) CheckForBlockedPublisher(producerPosition, nowNs int64) bool {
	consumerPosition := p.consumerPosition
	if producerPosition != consumerPosition {
		return false
	}

	if consumerPosition != p.lastConsumerPosition {
		p.lastConsumerPosition = consumerPosition
		p.timeOfLastConsumerPositionChangeNs = nowNs
		return false
	}

	if nowNs-p.timeOfLastConsumerPositionChangeNs < p.tunables.UnblockTimeoutNs {
		return false
	}

	if !p.unblockAt(consumerPosition) {
		return false
	}

	if p.system != nil && p.system.UnblockedPublications != nil {
		p.system.UnblockedPublications.Increment(1)
	}
	return true
}

// unblockAt writes a padding header over a reserved-but-never-committed
// frame starting at position, unblocking any reader spinning on its
// length. It returns false if there is nothing to unblock (the frame was
// committed in the meantime, or nothing was ever reserved there).
func (p *Publication) unblockAt(position int64) bool {
	termOffset := logbuffer.ComputeTermOffsetFromPosition(position, p.positionBitsToShift)
	termID := logbuffer.ComputeTermIDFromPosition(position, p.positionBitsToShift, p.initialTermID)
	termCount := logbuffer.ComputeTermCount(termID, p.initialTermID)
	partitionIndex := logbuffer.IndexByTermCount(termCount)
	termBuffer := p.log.Partitions[partitionIndex]

	if logbuffer.LoadLength(termBuffer, termOffset) != 0 {
		return false
	}

	rawTail := p.log.Meta.RawTail(partitionIndex)
	reservedEnd := rawTail.TermOffset()
	if termLength := p.log.Meta.TermLength(); reservedEnd > termLength {
		reservedEnd = termLength
	}
	if reservedEnd <= termOffset {
		return false
	}

	desc := logbuffer.FrameDescriptor{
		Version:   logbuffer.Version,
		Type:      logbuffer.HdrTypePad,
		TermID:    termID,
		SessionID: p.sessionID,
		StreamID:  p.streamID,
	}
	logbuffer.WritePaddingHeader(termBuffer, termOffset, desc, reservedEnd-termOffset)
	return true
}

// AddSubscriber registers sub and marks the publication connected.
// isConnected is set unconditionally on every call, not only when the
// subscriber set was previously empty.
func (p *Publication) AddSubscriber(sub *Subscriber) {
	p.subscribers = append(p.subscribers, sub)
	p.log.Meta.SetConnected(true)
}

// RemoveSubscriber deregisters sub, recomputes the publication limit, and
// clears isConnected if sub was the last subscriber.
func (p *Publication) RemoveSubscriber(sub *Subscriber) {
	p.UpdatePubPosAndLmt()

	if len(p.subscribers) == 1 && p.subscribers[0] == sub {
		p.log.Meta.SetConnected(false)
	}

	for i, s := range p.subscribers {
		if s == sub {
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			break
		}
	}
}

// Revoke administratively ends the publication's life before it would
// otherwise drain naturally, invoking the publication-revoke hook and
// incrementing the publications-revoked system counter.
func (p *Publication) Revoke(revokedPosition int64) {
	if p.state == StateDone {
		return
	}
	p.state = StateDone
	p.hasReachedEndOfLife = true

	if p.system != nil && p.system.PublicationsRevoked != nil {
		p.system.PublicationsRevoked.Increment(1)
	}
	if p.onPublicationRevoke != nil {
		p.onPublicationRevoke(revokedPosition)
	}
}
