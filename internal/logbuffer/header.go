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

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"
)

// Header field byte offsets within a 32-byte data-frame header.
const (
	fieldLength        = 0
	fieldVersion       = 4
	fieldFlags         = 5
	fieldType          = 6
	fieldTermOffset    = 8
	fieldSessionID     = 12
	fieldStreamID      = 16
	fieldTermID        = 20
	fieldReservedValue = 24

	// Version is the only wire version this implementation writes or accepts.
	Version = uint8(0)
)

// FrameDescriptor describes a frame header's non-length fields, the ones
// known before the frame is reserved in the term buffer.
type FrameDescriptor struct {
	Version   uint8
	Flags     uint8
	Type      uint16
	TermID    int32
	SessionID int32
	StreamID  int32
}

// WriteHeader stamps a frame header at termBuffer[offset:offset+HeaderLength)
// with every field except length. Length is written last, with release
// ordering, by Commit (or WritePaddingHeader for a padding record): until
// then a reader observing this region sees a zero length and treats the
// frame as not yet published.
func WriteHeader(termBuffer []byte, offset int32, desc FrameDescriptor, termOffset int32) {
	b := termBuffer[offset : offset+HeaderLength]
	b[fieldVersion] = desc.Version
	b[fieldFlags] = desc.Flags
	binary.LittleEndian.PutUint16(b[fieldType:], desc.Type)
	binary.LittleEndian.PutUint32(b[fieldTermOffset:], uint32(termOffset))
	binary.LittleEndian.PutUint32(b[fieldSessionID:], uint32(desc.SessionID))
	binary.LittleEndian.PutUint32(b[fieldStreamID:], uint32(desc.StreamID))
	binary.LittleEndian.PutUint32(b[fieldTermID:], uint32(desc.TermID))
}

// WriteReservedValue stores the reserved-value-supplier result at its slot
// within the frame header.
func WriteReservedValue(termBuffer []byte, offset int32, value int64) {
	b := termBuffer[offset+fieldReservedValue : offset+fieldReservedValue+8]
	binary.LittleEndian.PutUint64(b, uint64(value))
}

// lengthAddr returns the address of the length field at the given frame
// offset, for use with sync/atomic.
func lengthAddr(termBuffer []byte, offset int32) *int32 {
	return (*int32)(unsafe.Pointer(&termBuffer[offset+fieldLength]))
}

// CommitLength performs the ordered (release) write of a frame's length
// field, the operation that makes the frame visible to readers. It must be
// the last write performed against a frame.
func CommitLength(termBuffer []byte, offset int32, length int32) {
	atomic.StoreInt32(lengthAddr(termBuffer, offset), length)
}

// LoadLength performs the ordered (acquire) read of a frame's length field.
// A reader must spin/yield while this returns <= 0.
func LoadLength(termBuffer []byte, offset int32) int32 {
	return atomic.LoadInt32(lengthAddr(termBuffer, offset))
}

// ReadHeader decodes the non-length fields of the frame header at offset.
// The caller is responsible for having already observed a committed length.
func ReadHeader(termBuffer []byte, offset int32) (desc FrameDescriptor, termOffset int32) {
	b := termBuffer[offset : offset+HeaderLength]
	desc.Version = b[fieldVersion]
	desc.Flags = b[fieldFlags]
	desc.Type = binary.LittleEndian.Uint16(b[fieldType:])
	termOffset = int32(binary.LittleEndian.Uint32(b[fieldTermOffset:]))
	desc.SessionID = int32(binary.LittleEndian.Uint32(b[fieldSessionID:]))
	desc.StreamID = int32(binary.LittleEndian.Uint32(b[fieldStreamID:]))
	desc.TermID = int32(binary.LittleEndian.Uint32(b[fieldTermID:]))
	return desc, termOffset
}

// ReadReservedValue loads the reserved value stored in a frame header.
func ReadReservedValue(termBuffer []byte, offset int32) int64 {
	b := termBuffer[offset+fieldReservedValue : offset+fieldReservedValue+8]
	return int64(binary.LittleEndian.Uint64(b))
}

// WritePaddingHeader writes a complete padding frame header (type PAD,
// zero flags) covering paddingLength bytes (at end-of-log, the remainder of
// the term) and commits its length with release ordering, unblocking any
// consumer spinning on it.
func WritePaddingHeader(termBuffer []byte, offset int32, desc FrameDescriptor, paddingLength int32) {
	desc.Type = HdrTypePad
	desc.Flags = 0
	WriteHeader(termBuffer, offset, desc, offset)
	CommitLength(termBuffer, offset, paddingLength)
}
