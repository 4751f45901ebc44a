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

import "testing"

func TestIsPowerOfTwo(t *testing.T) {
	cases := map[int32]bool{
		0: false, 1: true, 2: true, 3: false, 64 * 1024: true, 65535: false,
	}
	for n, want := range cases {
		if got := IsPowerOfTwo(n); got != want {
			t.Errorf("IsPowerOfTwo(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestValidateTermLength(t *testing.T) {
	if err := ValidateTermLength(65536); err != nil {
		t.Fatalf("unexpected error for valid term length: %v", err)
	}
	if err := ValidateTermLength(65535); err == nil {
		t.Fatalf("expected error for non-power-of-two term length")
	}
	if err := ValidateTermLength(1024); err == nil {
		t.Fatalf("expected error for term length below minimum")
	}
}

func TestPositionBitsToShift(t *testing.T) {
	if got := PositionBitsToShift(65536); got != 16 {
		t.Errorf("PositionBitsToShift(65536) = %d, want 16", got)
	}
}

func TestAlign(t *testing.T) {
	cases := []struct{ value, alignment, want int32 }{
		{0, 32, 0},
		{1, 32, 32},
		{32, 32, 32},
		{33, 32, 64},
		{132, 32, 160},
		{280, 32, 288},
	}
	for _, c := range cases {
		if got := Align(c.value, c.alignment); got != c.want {
			t.Errorf("Align(%d, %d) = %d, want %d", c.value, c.alignment, got, c.want)
		}
	}
}

func TestComputePositionRoundTrip(t *testing.T) {
	const initialTermID = 7
	const positionBitsToShift = 16

	termID := int32(9)
	termOffset := int32(1234)

	position := ComputePosition(termID, termOffset, positionBitsToShift, initialTermID)

	if got := ComputeTermIDFromPosition(position, positionBitsToShift, initialTermID); got != termID {
		t.Errorf("ComputeTermIDFromPosition = %d, want %d", got, termID)
	}
	if got := ComputeTermOffsetFromPosition(position, positionBitsToShift); got != termOffset {
		t.Errorf("ComputeTermOffsetFromPosition = %d, want %d", got, termOffset)
	}
}

func TestIndexByTermCount(t *testing.T) {
	cases := map[int32]int{0: 0, 1: 1, 2: 2, 3: 0, 4: 1}
	for termCount, want := range cases {
		if got := IndexByTermCount(termCount); got != want {
			t.Errorf("IndexByTermCount(%d) = %d, want %d", termCount, got, want)
		}
	}
}

func TestComputeFragmentedFrameLength(t *testing.T) {
	// 3000 byte message, maxPayloadLength=1376 -> 1408 + 1408 + align(280) = 288.
	got := ComputeFragmentedFrameLength(3000, 1376, FrameAlignment)
	want := int64(1408 + 1408 + 288)
	if got != want {
		t.Errorf("ComputeFragmentedFrameLength(3000, 1376, 32) = %d, want %d", got, want)
	}
}

func TestComputeFragmentedFrameLengthExactMultiple(t *testing.T) {
	// A message that is an exact multiple of maxPayloadLength has no remainder fragment.
	got := ComputeFragmentedFrameLength(2752, 1376, FrameAlignment)
	want := int64(1408 * 2)
	if got != want {
		t.Errorf("ComputeFragmentedFrameLength(2752, 1376, 32) = %d, want %d", got, want)
	}
}
