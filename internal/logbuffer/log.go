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
	"fmt"
	"math"
)

// Log is a publication's mapped raw log: three term partitions of equal
// power-of-two capacity followed by a metadata page. It is shared,
// read/write, between the producer, the driver conductor, and every
// subscriber; only the raw-tail cells and frame length fields are mutated
// by producers, everything else in Meta by the conductor alone.
type Log struct {
	Partitions [PartitionCount][]byte
	Meta       *Metadata

	mem    []byte // backing storage the partitions and metadata page are sliced from
	closer func() error
}

// NewHeapLog allocates a log entirely on the Go heap: one contiguous
// allocation split into three term partitions plus a trailing metadata
// page. This is the portable path used by every unit test and by any
// process that does not need the log visible to another process.
func NewHeapLog(termLength, mtuLength, initialTermID, sessionID, streamID int32) (*Log, error) {
	if err := ValidateTermLength(termLength); err != nil {
		return nil, err
	}
	total := int(termLength)*PartitionCount + MetadataPageSize
	mem := make([]byte, total)
	return newLogFromMem(mem, termLength, mtuLength, initialTermID, sessionID, streamID)
}

func newLogFromMem(mem []byte, termLength, mtuLength, initialTermID, sessionID, streamID int32) (*Log, error) {
	if err := ValidateTermLength(termLength); err != nil {
		return nil, err
	}
	want := int(termLength)*PartitionCount + MetadataPageSize
	if len(mem) < want {
		return nil, fmt.Errorf("logbuffer: backing region too small: have %d, need %d", len(mem), want)
	}

	log := &Log{mem: mem}
	for i := 0; i < PartitionCount; i++ {
		off := int(termLength) * i
		log.Partitions[i] = mem[off : off+int(termLength) : off+int(termLength)]
	}
	metaOff := int(termLength) * PartitionCount
	log.Meta = NewMetadata(mem[metaOff : metaOff+MetadataPageSize])

	log.Meta.SetInitialTermID(initialTermID)
	log.Meta.SetTermLength(termLength)
	log.Meta.SetMTULength(mtuLength)
	log.Meta.SetPageSize(MinTermLength)
	log.Meta.SetDefaultFrameHeader(FrameDescriptor{
		Version:   Version,
		Type:      HdrTypeData,
		SessionID: sessionID,
		StreamID:  streamID,
	})
	log.Meta.SetRawTailOrdered(0, PackRawTail(initialTermID, 0))
	log.Meta.SetRawTailOrdered(1, PackRawTail(initialTermID+1, 0))
	log.Meta.SetRawTailOrdered(2, PackRawTail(initialTermID+2, 0))
	log.Meta.SetEndOfStreamPositionOrdered(math.MaxInt64) // "not ended" sentinel

	return log, nil
}

// PositionBitsToShift returns this log's position-bits-to-shift, derived from its term length.
func (l *Log) PositionBitsToShift() uint {
	return PositionBitsToShift(l.Meta.TermLength())
}

// MaxMessageLength returns the largest single message offer() will accept:
// bounded by the term length so a message (fragmented or not) can never
// span more than the whole log.
func (l *Log) MaxMessageLength() int32 {
	return l.Meta.TermLength() / 8
}

// MaxPayloadLength returns the largest payload a single frame may carry before fragmentation kicks in.
func (l *Log) MaxPayloadLength() int32 {
	return l.Meta.MTULength() - HeaderLength
}

// Close releases any resources (e.g. an mmap) backing the log. Idempotent.
func (l *Log) Close() error {
	if l.closer == nil {
		return nil
	}
	closer := l.closer
	l.closer = nil
	return closer()
}
