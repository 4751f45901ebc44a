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

package logbuffer

import "errors"

// ErrClaimAlreadyResolved is returned by Commit or Abort if the claim has
// already been committed or aborted.
var ErrClaimAlreadyResolved = errors.New("logbuffer: claim already committed or aborted")

// BufferClaim is a borrowed handle over a reserved, as-yet-uncommitted
// region inside a term buffer, returned by Publication.TryClaim. The
// caller writes directly into Data and must eventually call Commit; until
// then the frame's header carries a zero length and is invisible to
// readers. Abandoning a claim without calling Commit or Abort leaves that
// zero length in place indefinitely (the driver's blocked-publisher
// unblock detection exists for exactly this case).
type BufferClaim struct {
	termBuffer []byte
	frameOffset int32
	// Data is the writable payload region the caller fills before Commit.
	Data []byte

	resolved bool
}

// NewBufferClaim wraps the payload region of a frame already reserved (but
// not yet header-stamped past placeholder fields) at frameOffset within
// termBuffer, whose on-wire frame length is frameLength.
func NewBufferClaim(termBuffer []byte, frameOffset, frameLength int32) BufferClaim {
	return BufferClaim{
		termBuffer:  termBuffer,
		frameOffset: frameOffset,
		Data:        termBuffer[frameOffset+HeaderLength : frameOffset+frameLength : frameOffset+frameLength],
	}
}

// Commit writes the final frame length with release ordering, publishing
// the claimed frame to readers. Calling Commit more than once, or after
// Abort, returns ErrClaimAlreadyResolved.
func (c *BufferClaim) Commit() error {
	if c.resolved {
		return ErrClaimAlreadyResolved
	}
	c.resolved = true
	frameLength := int32(len(c.Data)) + HeaderLength
	CommitLength(c.termBuffer, c.frameOffset, frameLength)
	return nil
}

// Abort converts the claimed frame into a padding record and commits it,
// so readers skip over it instead of spinning on a length that will never
// become positive. Calling Abort more than once, or after Commit, returns
// ErrClaimAlreadyResolved.
func (c *BufferClaim) Abort() error {
	if c.resolved {
		return ErrClaimAlreadyResolved
	}
	c.resolved = true
	frameLength := int32(len(c.Data)) + HeaderLength
	desc, _ := ReadHeader(c.termBuffer, c.frameOffset)
	desc.Type = HdrTypePad
	WriteHeader(c.termBuffer, c.frameOffset, desc, c.frameOffset)
	CommitLength(c.termBuffer, c.frameOffset, frameLength)
	return nil
}

// SetReservedValue stores value in the frame's reserved-value slot (an
// alternative to passing a reservedValueSupplier to offer).
func (c *BufferClaim) SetReservedValue(value int64) {
	WriteReservedValue(c.termBuffer, c.frameOffset, value)
}
