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

package publication

import (
	"fmt"
	"sync/atomic"

	"github.com/WorkingChen/aeron/internal/counters"
	"github.com/WorkingChen/aeron/internal/logbuffer"
)

// ReservedValueSupplier computes the 64-bit reserved value stamped into a
// frame's header, given the term buffer and the frame's offset and length.
// It must be callable from the append path without allocating.
type ReservedValueSupplier func(termBuffer []byte, termOffset, frameLength int32) int64

func defaultReservedValueSupplier(termBuffer []byte, termOffset, frameLength int32) int64 {
	return 0
}

// Publication is the lock-free, thread-safe append engine over one
// publisher's mapped log. It is safe for concurrent use by multiple
// publisher goroutines against the same Publication: the only shared
// mutable state they touch is the active partition's raw tail (via atomic
// fetch-and-add) and each frame's length field (via an ordered store).
type Publication struct {
	log *logbuffer.Log

	sessionID           int32
	streamID            int32
	initialTermID       int32
	positionBitsToShift uint
	maxPayloadLength    int32
	maxMessageLength    int32

	limit *counters.Position

	closed atomic.Bool
}

// New constructs a Publication over an already-initialized log. limit is
// the publication-limit position this engine samples on every offer; it is
// normally owned and advanced by the driver-side IPC Publication Resource
// (ipc.Publication.UpdatePubPosAndLmt) or a network flow controller.
func New(log *logbuffer.Log, sessionID, streamID int32, limit *counters.Position) *Publication {
	return &Publication{
		log:                 log,
		sessionID:           sessionID,
		streamID:            streamID,
		initialTermID:       log.Meta.InitialTermID(),
		positionBitsToShift: log.PositionBitsToShift(),
		maxPayloadLength:    log.MaxPayloadLength(),
		maxMessageLength:    log.MaxMessageLength(),
		limit:               limit,
	}
}

// Closed reports whether Close has been called.
func (p *Publication) Closed() bool {
	return p.closed.Load()
}

// Close marks the publication closed. Idempotent: subsequent Offer/TryClaim
// calls return PublicationClosed. It is a release store to an isClosed
// flag; it does not itself release the mapped log, which
// the driver-side resource owns.
func (p *Publication) Close() {
	p.closed.Store(true)
}

// MaxPayloadLength returns the largest payload a single frame may carry.
func (p *Publication) MaxPayloadLength() int32 { return p.maxPayloadLength }

// MaxMessageLength returns the largest payload Offer will accept before refusing outright.
func (p *Publication) MaxMessageLength() int32 { return p.maxMessageLength }

func (p *Publication) maxPossiblePosition() int64 {
	return int64(p.log.Meta.TermLength()) << 31
}

// Position returns the producer's current stream position, or
// PublicationClosed if the publication has been closed.
func (p *Publication) Position() Status {
	if p.closed.Load() {
		return PublicationClosed
	}
	termCount := p.log.Meta.ActiveTermCount()
	partitionIndex := logbuffer.IndexByTermCount(termCount)
	rawTail := p.log.Meta.RawTail(partitionIndex)
	return Status(logbuffer.ComputePosition(rawTail.TermID(), rawTail.TermOffset(), p.positionBitsToShift, p.initialTermID))
}

// PublicationLimit returns the last sampled publication-limit position, or
// PublicationClosed if the publication has been closed.
func (p *Publication) PublicationLimit() Status {
	if p.closed.Load() {
		return PublicationClosed
	}
	return Status(p.limit.Get())
}

// AvailableWindow returns PublicationLimit - Position, or PublicationClosed
// if the publication has been closed.
func (p *Publication) AvailableWindow() Status {
	if p.closed.Load() {
		return PublicationClosed
	}
	limit := p.limit.Get()
	position := int64(p.Position())
	return Status(limit - position)
}

// Offer appends payload as one message, fragmenting across the
// publication's MTU if necessary, and returns the resulting stream
// position or a sentinel Status. reservedValueSupplier may be nil, in
// which case every frame's reserved value is zero.
func (p *Publication) Offer(payload []byte, reservedValueSupplier ReservedValueSupplier) Status {
	return p.offer(payload, nil, reservedValueSupplier)
}

// OfferSegments is the gather form of Offer: segments are concatenated in
// order with no effect on frame boundaries (fragmentation is driven by MTU
// alone, never by segment boundaries).
func (p *Publication) OfferSegments(segments [][]byte, reservedValueSupplier ReservedValueSupplier) Status {
	return p.offer(nil, segments, reservedValueSupplier)
}

func (p *Publication) offer(payload []byte, segments [][]byte, reservedValueSupplier ReservedValueSupplier) Status {
	if p.closed.Load() {
		return PublicationClosed
	}

	var length int64
	if segments != nil {
		for _, s := range segments {
			length += int64(len(s))
		}
	} else {
		length = int64(len(payload))
	}
	if length > int64(1)<<31-1 {
		panic(fmt.Sprintf("publication: gathered length %d overflows a 32-bit frame length", length))
	}
	length32 := int32(length)
	if length32 > p.maxMessageLength {
		panic(fmt.Sprintf("publication: message length %d exceeds maxMessageLength %d", length32, p.maxMessageLength))
	}

	if reservedValueSupplier == nil {
		reservedValueSupplier = defaultReservedValueSupplier
	}

	limit := p.limit.Get()
	termCount := p.log.Meta.ActiveTermCount()
	partitionIndex := logbuffer.IndexByTermCount(termCount)
	rawTail := p.log.Meta.RawTail(partitionIndex)
	termOffset := rawTail.TermOffset()
	termID := rawTail.TermID()

	if logbuffer.ComputeTermCount(termID, p.initialTermID) != termCount {
		return AdminAction
	}

	var required int64
	if length32 <= p.maxPayloadLength {
		required = int64(logbuffer.Align(length32+logbuffer.HeaderLength, logbuffer.FrameAlignment))
	} else {
		required = logbuffer.ComputeFragmentedFrameLength(length32, p.maxPayloadLength, logbuffer.FrameAlignment)
	}

	position := logbuffer.ComputePosition(termID, termOffset, p.positionBitsToShift, p.initialTermID)
	if position+required > limit {
		return p.backPressureStatus(position, length32)
	}

	gather := func(dst []byte) {
		if segments != nil {
			off := 0
			for _, s := range segments {
				copy(dst[off:], s)
				off += len(s)
			}
			return
		}
		copy(dst, payload)
	}

	if length32 <= p.maxPayloadLength {
		return p.appendUnfragmented(partitionIndex, length32, gather, reservedValueSupplier)
	}
	return p.appendFragmented(partitionIndex, length32, gather, reservedValueSupplier)
}

func (p *Publication) backPressureStatus(position int64, length int32) Status {
	resultingPosition := position + int64(logbuffer.Align(length+logbuffer.HeaderLength, logbuffer.FrameAlignment))
	if resultingPosition >= p.maxPossiblePosition() {
		return MaxPositionExceeded
	}
	if p.log.Meta.IsConnected() {
		return BackPressured
	}
	return NotConnected
}

func (p *Publication) headerDescriptor(termID int32, flags uint8) logbuffer.FrameDescriptor {
	return logbuffer.FrameDescriptor{
		Version:   logbuffer.Version,
		Flags:     flags,
		Type:      logbuffer.HdrTypeData,
		TermID:    termID,
		SessionID: p.sessionID,
		StreamID:  p.streamID,
	}
}

func (p *Publication) appendUnfragmented(partitionIndex int, length int32, gather func([]byte), supplier ReservedValueSupplier) Status {
	frameLength := length + logbuffer.HeaderLength
	alignedLength := logbuffer.Align(frameLength, logbuffer.FrameAlignment)

	rawTail := p.log.Meta.RawTailGetAndAdd(partitionIndex, int64(alignedLength))
	termOffset := rawTail.TermOffset()
	termID := rawTail.TermID()

	termBuffer := p.log.Partitions[partitionIndex]
	termLength := int32(len(termBuffer))
	resultingOffset := termOffset + alignedLength

	if resultingOffset > termLength {
		return p.handleEndOfLog(partitionIndex, termID, termOffset, termLength)
	}

	desc := p.headerDescriptor(termID, logbuffer.FlagUnfragmented)
	logbuffer.WriteHeader(termBuffer, termOffset, desc, termOffset)
	gather(termBuffer[termOffset+logbuffer.HeaderLength : termOffset+frameLength])
	reserved := supplier(termBuffer, termOffset, frameLength)
	logbuffer.WriteReservedValue(termBuffer, termOffset, reserved)
	logbuffer.CommitLength(termBuffer, termOffset, frameLength)

	return Status(logbuffer.ComputePosition(termID, termOffset, p.positionBitsToShift, p.initialTermID) + int64(alignedLength))
}

func (p *Publication) appendFragmented(partitionIndex int, length int32, gather func([]byte), supplier ReservedValueSupplier) Status {
	// Gather into one contiguous scratch buffer up front: fragment boundaries
	// must align to maxPayloadLength regardless of how the caller chose to
	// split its segments, so the simplest correct approach is to materialize
	// the message once and slice it per fragment below.
	payload := make([]byte, length)
	gather(payload)

	framedLength := logbuffer.ComputeFragmentedFrameLength(length, p.maxPayloadLength, logbuffer.FrameAlignment)

	rawTail := p.log.Meta.RawTailGetAndAdd(partitionIndex, framedLength)
	termOffset := rawTail.TermOffset()
	termID := rawTail.TermID()

	termBuffer := p.log.Partitions[partitionIndex]
	termLength := int32(len(termBuffer))
	resultingOffset := termOffset + int32(framedLength)

	if resultingOffset > termLength {
		return p.handleEndOfLog(partitionIndex, termID, termOffset, termLength)
	}

	offset := termOffset
	var consumed int32
	for consumed < length {
		fragmentLength := length - consumed
		if fragmentLength > p.maxPayloadLength {
			fragmentLength = p.maxPayloadLength
		}
		frameLength := fragmentLength + logbuffer.HeaderLength
		alignedLength := logbuffer.Align(frameLength, logbuffer.FrameAlignment)

		var flags uint8
		if consumed == 0 {
			flags |= logbuffer.FlagBeginFragment
		}
		if consumed+fragmentLength == length {
			flags |= logbuffer.FlagEndFragment
		}

		desc := p.headerDescriptor(termID, flags)
		logbuffer.WriteHeader(termBuffer, offset, desc, offset)
		copy(termBuffer[offset+logbuffer.HeaderLength:offset+frameLength], payload[consumed:consumed+fragmentLength])
		reserved := supplier(termBuffer, offset, frameLength)
		logbuffer.WriteReservedValue(termBuffer, offset, reserved)
		logbuffer.CommitLength(termBuffer, offset, frameLength)

		offset += alignedLength
		consumed += fragmentLength
	}

	return Status(logbuffer.ComputePosition(termID, termOffset, p.positionBitsToShift, p.initialTermID) + framedLength)
}

func (p *Publication) handleEndOfLog(partitionIndex int, termID, termOffset, termLength int32) Status {
	if termOffset < termLength {
		termBuffer := p.log.Partitions[partitionIndex]
		desc := p.headerDescriptor(termID, 0)
		logbuffer.WritePaddingHeader(termBuffer, termOffset, desc, termLength-termOffset)
	}

	termCount := logbuffer.ComputeTermCount(termID, p.initialTermID)
	endPosition := logbuffer.ComputePosition(termID, termLength, p.positionBitsToShift, p.initialTermID)
	if endPosition >= p.maxPossiblePosition() {
		return MaxPositionExceeded
	}

	if p.log.Meta.CASActiveTermCount(termCount, termCount+1) {
		nextIndex := logbuffer.IndexByTermCount(termCount + 1)
		p.log.Meta.SetRawTailOrdered(nextIndex, logbuffer.PackRawTail(termID+1, 0))
	}
	return AdminAction
}

// TryClaim reserves align(length+HEADER_LENGTH, FrameAlignment) bytes for
// zero-copy writing and wraps them in claim. length must not exceed
// MaxPayloadLength. The caller must eventually call claim.Commit (or
// claim.Abort); until Commit, the reserved frame's length is zero and
// readers treat it as not yet published.
func (p *Publication) TryClaim(length int32, claim *logbuffer.BufferClaim) Status {
	if p.closed.Load() {
		return PublicationClosed
	}
	if length > p.maxPayloadLength {
		panic(fmt.Sprintf("publication: claim length %d exceeds maxPayloadLength %d", length, p.maxPayloadLength))
	}

	limit := p.limit.Get()
	termCount := p.log.Meta.ActiveTermCount()
	partitionIndex := logbuffer.IndexByTermCount(termCount)
	rawTail := p.log.Meta.RawTail(partitionIndex)
	termOffset := rawTail.TermOffset()
	termID := rawTail.TermID()

	if logbuffer.ComputeTermCount(termID, p.initialTermID) != termCount {
		return AdminAction
	}

	position := logbuffer.ComputePosition(termID, termOffset, p.positionBitsToShift, p.initialTermID)
	if position >= limit {
		return p.backPressureStatus(position, length)
	}

	frameLength := length + logbuffer.HeaderLength
	alignedLength := logbuffer.Align(frameLength, logbuffer.FrameAlignment)

	tail := p.log.Meta.RawTailGetAndAdd(partitionIndex, int64(alignedLength))
	claimedOffset := tail.TermOffset()
	claimedTermID := tail.TermID()

	termBuffer := p.log.Partitions[partitionIndex]
	termLength := int32(len(termBuffer))
	resultingOffset := claimedOffset + alignedLength

	if resultingOffset > termLength {
		return p.handleEndOfLog(partitionIndex, claimedTermID, claimedOffset, termLength)
	}

	desc := p.headerDescriptor(claimedTermID, logbuffer.FlagUnfragmented)
	logbuffer.WriteHeader(termBuffer, claimedOffset, desc, claimedOffset)
	*claim = logbuffer.NewBufferClaim(termBuffer, claimedOffset, frameLength)

	return Status(logbuffer.ComputePosition(claimedTermID, claimedOffset, p.positionBitsToShift, p.initialTermID) + int64(alignedLength))
}
