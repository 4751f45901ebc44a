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

// Command publog-inspect drives a heap-backed publication through a series
// of offers and prints the resulting capacity, fragmentation, and rotation
// behavior. It is a diagnostic tool, not a test: useful for eyeballing how
// a given term length and MTU combination behaves under load.
package main

import (
	"fmt"
	"log"

	"github.com/WorkingChen/aeron/internal/counters"
	"github.com/WorkingChen/aeron/internal/logbuffer"
	"github.com/WorkingChen/aeron/internal/publication"
)

func main() {
	const (
		termLength    = 64 * 1024
		mtuLength     = 1408
		initialTermID = 0
		sessionID     = 1
		streamID      = 1
	)

	l, err := logbuffer.NewHeapLog(termLength, mtuLength, initialTermID, sessionID, streamID)
	if err != nil {
		log.Fatalf("new heap log: %v", err)
	}
	defer l.Close()
	l.Meta.SetConnected(true)

	mgr := counters.NewManager()
	limit := mgr.AllocatePosition("pub-lmt")
	limit.Set(int64(termLength) * logbuffer.PartitionCount) // unbounded for this demo

	pub := publication.New(l, sessionID, streamID, limit)

	fmt.Printf("=== Publication Capacity ===\n")
	fmt.Printf("Term length:        %d bytes\n", termLength)
	fmt.Printf("MTU length:         %d bytes\n", mtuLength)
	fmt.Printf("Max payload length: %d bytes\n", pub.MaxPayloadLength())
	fmt.Printf("Max message length: %d bytes\n", pub.MaxMessageLength())

	fmt.Printf("\n=== Single Offer Tests ===\n")
	testSizes := []int{0, 10, 100, int(pub.MaxPayloadLength()), int(pub.MaxPayloadLength()) + 1, 3000}
	for _, size := range testSizes {
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(i % 256)
		}
		status := pub.Offer(payload, nil)
		fmt.Printf("offer(%6d bytes) -> %s\n", size, status)
	}

	fmt.Printf("\n=== Rotation Test ===\n")
	rotated := false
	for i := 0; i < 1000 && !rotated; i++ {
		status := pub.Offer(make([]byte, 1000), nil)
		if status == publication.AdminAction {
			fmt.Printf("rotation observed after %d offers (activeTermCount now %d)\n", i+1, l.Meta.ActiveTermCount())
			rotated = true
		}
	}
	if !rotated {
		fmt.Printf("no rotation observed within the attempted offers\n")
	}

	fmt.Printf("\nfinal position: %s\n", pub.Position())
}
