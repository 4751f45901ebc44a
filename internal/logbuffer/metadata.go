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
	"sync/atomic"
	"unsafe"
)

// metaFields is the binary layout of the log's metadata page, laid out
// directly over shared memory the way shm_segment.go's SegmentHeader is: a
// Go struct cast over a byte slice via unsafe.Pointer, with every mutable
// field accessed through sync/atomic rather than a plain field read/write.
type metaFields struct {
	rawTail [PartitionCount]int64 // one cell per partition; see RawTail

	activeTermCount      int32
	isConnected          int32
	activeTransportCount int32
	pad0                 int32

	endOfStreamPosition int64
	correlationID       int64

	initialTermID            int32
	defaultFrameHeaderLength int32
	mtuLength                int32
	termLength               int32
	pageSize                 int32
	pad1                     int32

	defaultFrameHeader [HeaderLength]byte
}

// MetadataPageSize is the size, in bytes, of the metadata page region that
// must follow the three term partitions in a mapped log.
const MetadataPageSize = int(unsafe.Sizeof(metaFields{}))

// Metadata is a handle over a log's metadata page.
type Metadata struct {
	mem []byte // exactly MetadataPageSize bytes, kept alive by the owning Log
}

// NewMetadata wraps mem (which must be at least MetadataPageSize bytes) as
// a log's metadata page.
func NewMetadata(mem []byte) *Metadata {
	if len(mem) < MetadataPageSize {
		panic("logbuffer: metadata region smaller than MetadataPageSize")
	}
	return &Metadata{mem: mem[:MetadataPageSize]}
}

func (m *Metadata) fields() *metaFields {
	return (*metaFields)(unsafe.Pointer(&m.mem[0]))
}

// RawTail returns the current raw tail for the given partition index (acquire).
func (m *Metadata) RawTail(partitionIndex int) RawTail {
	return RawTail(atomic.LoadInt64(&m.fields().rawTail[partitionIndex]))
}

// SetRawTailOrdered stores a raw tail value for the given partition with
// release semantics, used when initializing a freshly rotated-into partition.
func (m *Metadata) SetRawTailOrdered(partitionIndex int, value RawTail) {
	atomic.StoreInt64(&m.fields().rawTail[partitionIndex], value.Int64())
}

// RawTailGetAndAdd atomically adds delta to the given partition's raw tail
// and returns the value observed before the add, recovering termID and the
// pre-reservation termOffset in one step.
func (m *Metadata) RawTailGetAndAdd(partitionIndex int, delta int64) RawTail {
	addr := &m.fields().rawTail[partitionIndex]
	for {
		old := atomic.LoadInt64(addr)
		if atomic.CompareAndSwapInt64(addr, old, old+delta) {
			return RawTail(old)
		}
	}
}

// ActiveTermCount returns the currently active term count (acquire).
func (m *Metadata) ActiveTermCount() int32 {
	return atomic.LoadInt32(&m.fields().activeTermCount)
}

// CASActiveTermCount attempts to advance activeTermCount from oldCount to
// newCount with release semantics, returning whether it succeeded. Only the
// appender performing a rotation calls this, and only ever with
// newCount == oldCount+1, so a CAS failure indicates a concurrent rotation
// already won the race; the caller simply re-reads and proceeds.
func (m *Metadata) CASActiveTermCount(oldCount, newCount int32) bool {
	return atomic.CompareAndSwapInt32(&m.fields().activeTermCount, oldCount, newCount)
}

// IsConnected reports whether the publication currently has at least one
// subscriber, as observed by a publisher thread (acquire).
func (m *Metadata) IsConnected() bool {
	return atomic.LoadInt32(&m.fields().isConnected) != 0
}

// SetConnected stores the is-connected flag with release semantics; only
// the conductor thread writes this cell.
func (m *Metadata) SetConnected(connected bool) {
	var v int32
	if connected {
		v = 1
	}
	atomic.StoreInt32(&m.fields().isConnected, v)
}

// ActiveTransportCount returns the number of live network transports
// feeding this log. Unused by IPC publications (they have no transports);
// kept because it is part of the shared metadata-page wire layout every
// log carries, network or IPC.
func (m *Metadata) ActiveTransportCount() int32 {
	return atomic.LoadInt32(&m.fields().activeTransportCount)
}

// SetActiveTransportCount stores the active transport count.
func (m *Metadata) SetActiveTransportCount(n int32) {
	atomic.StoreInt32(&m.fields().activeTransportCount, n)
}

// EndOfStreamPosition returns the position at which the stream was marked
// ended, or the sentinel MaxInt64 if the stream has not ended.
func (m *Metadata) EndOfStreamPosition() int64 {
	return atomic.LoadInt64(&m.fields().endOfStreamPosition)
}

// SetEndOfStreamPositionOrdered marks the stream ended at position, with release semantics.
func (m *Metadata) SetEndOfStreamPositionOrdered(position int64) {
	atomic.StoreInt64(&m.fields().endOfStreamPosition, position)
}

// CorrelationID returns the registration/correlation id this log was created for.
func (m *Metadata) CorrelationID() int64 {
	return atomic.LoadInt64(&m.fields().correlationID)
}

// SetCorrelationID stores the correlation id. Written once, at creation.
func (m *Metadata) SetCorrelationID(id int64) {
	atomic.StoreInt64(&m.fields().correlationID, id)
}

// InitialTermID returns the term id the stream started at. Immutable after creation.
func (m *Metadata) InitialTermID() int32 {
	return atomic.LoadInt32(&m.fields().initialTermID)
}

// SetInitialTermID stores the initial term id. Written once, at creation.
func (m *Metadata) SetInitialTermID(id int32) {
	atomic.StoreInt32(&m.fields().initialTermID, id)
}

// MTULength returns the configured maximum transmission unit.
func (m *Metadata) MTULength() int32 {
	return atomic.LoadInt32(&m.fields().mtuLength)
}

// SetMTULength stores the configured MTU. Written once, at creation.
func (m *Metadata) SetMTULength(v int32) {
	atomic.StoreInt32(&m.fields().mtuLength, v)
}

// TermLength returns the configured term partition capacity.
func (m *Metadata) TermLength() int32 {
	return atomic.LoadInt32(&m.fields().termLength)
}

// SetTermLength stores the configured term length. Written once, at creation.
func (m *Metadata) SetTermLength(v int32) {
	atomic.StoreInt32(&m.fields().termLength, v)
}

// PageSize returns the page size recorded in the metadata page. The
// metadata page's own size is MetadataPageSize and does not depend on it.
func (m *Metadata) PageSize() int32 {
	return atomic.LoadInt32(&m.fields().pageSize)
}

// SetPageSize stores the configured page size. Written once, at creation.
func (m *Metadata) SetPageSize(v int32) {
	atomic.StoreInt32(&m.fields().pageSize, v)
}

// DefaultFrameHeaderLength returns the length of the default header template.
func (m *Metadata) DefaultFrameHeaderLength() int32 {
	return atomic.LoadInt32(&m.fields().defaultFrameHeaderLength)
}

// DefaultFrameHeader returns the publication's pre-populated header
// template (sessionId, streamId, version already stamped); the header
// writer only needs to stamp the per-frame fields on top of it.
func (m *Metadata) DefaultFrameHeader() FrameDescriptor {
	f := m.fields()
	return ReadHeaderTemplate(f.defaultFrameHeader[:])
}

// SetDefaultFrameHeader stores the publication's header template. Written
// once, at creation.
func (m *Metadata) SetDefaultFrameHeader(desc FrameDescriptor) {
	f := m.fields()
	WriteHeaderTemplate(f.defaultFrameHeader[:], desc)
	atomic.StoreInt32(&f.defaultFrameHeaderLength, HeaderLength)
}

// WriteHeaderTemplate and ReadHeaderTemplate encode/decode the subset of a
// frame header (version, sessionId, streamId) that is fixed for the
// lifetime of a publication and stamped once into the metadata page.
func WriteHeaderTemplate(b []byte, desc FrameDescriptor) {
	WriteHeader(b, 0, desc, 0)
}

// ReadHeaderTemplate decodes a header template previously written by WriteHeaderTemplate.
func ReadHeaderTemplate(b []byte) FrameDescriptor {
	desc, _ := ReadHeader(b, 0)
	return desc
}
