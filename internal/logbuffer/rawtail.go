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

// RawTail packs (termID, tailOffset) into one 64-bit cell: termID in the
// high 32 bits, tailOffset in the low 32 bits. A fetch-and-add on the cell
// with an increment equal to the aligned frame length atomically reserves a
// byte range within the term while preserving termID, exactly as spec'd:
// the increment can never be large enough to carry into the termID half.
type RawTail int64

// PackRawTail combines a term id and tail offset into a raw tail value.
func PackRawTail(termID, tailOffset int32) RawTail {
	return RawTail(int64(uint64(uint32(termID))<<32 | uint64(uint32(tailOffset))))
}

// TermID extracts the term id from a raw tail value.
func (t RawTail) TermID() int32 {
	return int32(int64(t) >> 32)
}

// TermOffset extracts the tail offset from a raw tail value. The offset may
// legitimately exceed the term length: that is precisely the straddling
// condition that triggers end-of-log handling.
func (t RawTail) TermOffset() int32 {
	return int32(uint32(t))
}

// Int64 returns the packed representation, for atomic load/store/add calls.
func (t RawTail) Int64() int64 {
	return int64(t)
}
