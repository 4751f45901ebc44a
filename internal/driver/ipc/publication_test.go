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
	"testing"

	"github.com/WorkingChen/aeron/internal/counters"
	"github.com/WorkingChen/aeron/internal/logbuffer"
)

func newTestResource(t *testing.T, tunables Tunables) (*Publication, *logbuffer.Log, *counters.SystemCounters) {
	t.Helper()
	log, err := logbuffer.NewHeapLog(64*1024, 1408, 0, 1, 1)
	if err != nil {
		t.Fatalf("NewHeapLog: %v", err)
	}
	mgr := counters.NewManager()
	pubPos := mgr.AllocatePosition("pub-pos")
	pubLmt := mgr.AllocatePosition("pub-lmt")
	system := counters.NewSystemCounters(mgr)
	p := New(log, 1, 1, 42, pubPos, pubLmt, tunables, system)
	return p, log, system
}

func TestNewIncrementsMappedBytes(t *testing.T) {
	_, log, system := newTestResource(t, Tunables{})
	want := int64(log.Meta.TermLength())*int64(logbuffer.PartitionCount) + int64(logbuffer.MetadataPageSize)
	if got := system.MappedBytes.Get(); got != want {
		t.Fatalf("MappedBytes = %d, want %d", got, want)
	}
}

func TestAddSubscriberSetsConnectedUnconditionally(t *testing.T) {
	p, log, _ := newTestResource(t, Tunables{})
	mgr := counters.NewManager()

	sub1 := NewSubscriber(mgr.AllocatePosition("sub1"), true)
	p.AddSubscriber(sub1)
	if !log.Meta.IsConnected() {
		t.Fatalf("IsConnected after first AddSubscriber = false, want true")
	}

	sub2 := NewSubscriber(mgr.AllocatePosition("sub2"), true)
	p.AddSubscriber(sub2)
	if !log.Meta.IsConnected() {
		t.Fatalf("IsConnected after second AddSubscriber = false, want true")
	}
}

func TestRemoveSubscriberClearsConnectedOnlyWhenLast(t *testing.T) {
	p, log, _ := newTestResource(t, Tunables{})
	mgr := counters.NewManager()

	sub1 := NewSubscriber(mgr.AllocatePosition("sub1"), true)
	sub2 := NewSubscriber(mgr.AllocatePosition("sub2"), true)
	p.AddSubscriber(sub1)
	p.AddSubscriber(sub2)

	p.RemoveSubscriber(sub1)
	if !log.Meta.IsConnected() {
		t.Fatalf("IsConnected after removing one of two subscribers = false, want true")
	}
	if len(p.subscribers) != 1 {
		t.Fatalf("subscribers after removal = %d, want 1", len(p.subscribers))
	}

	p.RemoveSubscriber(sub2)
	if log.Meta.IsConnected() {
		t.Fatalf("IsConnected after removing the last subscriber = true, want false")
	}
	if len(p.subscribers) != 0 {
		t.Fatalf("subscribers after removing all = %d, want 0", len(p.subscribers))
	}
}

func TestUpdatePubPosAndLmtTripGainCoalescing(t *testing.T) {
	tunables := Tunables{TermWindowLength: 1000, TripGain: 500}
	p, _, _ := newTestResource(t, tunables)
	mgr := counters.NewManager()

	sub := NewSubscriber(mgr.AllocatePosition("sub"), true)
	sub.Position.Set(0)
	p.AddSubscriber(sub)

	if workCount := p.UpdatePubPosAndLmt(); workCount == 0 {
		t.Fatalf("UpdatePubPosAndLmt first call did no work")
	}
	if got := p.pubLmt.Get(); got != 1000 {
		t.Fatalf("pubLmt after first update = %d, want 1000", got)
	}
	if p.tripLimit != 1500 {
		t.Fatalf("tripLimit after first update = %d, want 1500", p.tripLimit)
	}

	// Advancing the subscriber a little should not retrip the limit until
	// the proposed limit exceeds tripLimit.
	sub.Position.Set(100)
	p.UpdatePubPosAndLmt()
	if got := p.pubLmt.Get(); got != 1000 {
		t.Fatalf("pubLmt after small advance = %d, want 1000 (coalesced)", got)
	}

	sub.Position.Set(600)
	p.UpdatePubPosAndLmt()
	if got := p.pubLmt.Get(); got != 1600 {
		t.Fatalf("pubLmt after crossing tripLimit = %d, want 1600", got)
	}
}

func TestJoinPositionIgnoresRestingSubscribers(t *testing.T) {
	p, _, _ := newTestResource(t, Tunables{})
	mgr := counters.NewManager()

	active := NewSubscriber(mgr.AllocatePosition("active"), false)
	active.Position.Set(500)
	resting := NewSubscriber(mgr.AllocatePosition("resting"), false)
	resting.Position.Set(0)
	resting.state = TetherResting

	p.AddSubscriber(active)
	p.AddSubscriber(resting)

	if got := p.joinPosition(); got != 500 {
		t.Fatalf("joinPosition = %d, want 500 (resting subscriber excluded)", got)
	}
}

func TestIsDrainedConsidersOnlyNonResting(t *testing.T) {
	p, log, _ := newTestResource(t, Tunables{})
	mgr := counters.NewManager()

	log.Meta.SetRawTailOrdered(0, logbuffer.PackRawTail(0, 1000))

	caughtUp := NewSubscriber(mgr.AllocatePosition("caught-up"), true)
	caughtUp.Position.Set(1000)
	p.AddSubscriber(caughtUp)

	if !p.IsDrained() {
		t.Fatalf("IsDrained = false, want true when the only subscriber has caught up")
	}

	behind := NewSubscriber(mgr.AllocatePosition("behind"), true)
	behind.Position.Set(0)
	p.AddSubscriber(behind)

	if p.IsDrained() {
		t.Fatalf("IsDrained = true, want false with a subscriber behind the producer position")
	}

	behind.state = TetherResting
	if !p.IsDrained() {
		t.Fatalf("IsDrained = false, want true once the lagging subscriber is resting")
	}
}

func TestLifecycleActiveToDraining(t *testing.T) {
	tunables := Tunables{LivenessTimeoutNs: 1000}
	p, _, _ := newTestResource(t, tunables)
	p.DecRef() // refcnt -> 0, no subscribers: eligible to start the liveness clock.

	// nowNs starts at 1, not 0: lastActiveNs uses 0 as its unset sentinel.
	p.OnTimeEvent(1, 0)
	if p.State() != StateActive {
		t.Fatalf("state after first tick = %v, want ACTIVE (liveness clock just started)", p.State())
	}

	p.OnTimeEvent(999, 0)
	if p.State() != StateActive {
		t.Fatalf("state before liveness timeout = %v, want ACTIVE", p.State())
	}

	p.OnTimeEvent(1001, 0)
	if p.State() != StateDraining {
		t.Fatalf("state after liveness timeout = %v, want DRAINING", p.State())
	}
}

func TestLifecycleDrainingToLingerToDone(t *testing.T) {
	tunables := Tunables{LingerTimeoutNs: 500}
	p, _, _ := newTestResource(t, tunables)
	p.state = StateDraining

	p.OnTimeEvent(0, 0) // no subscribers -> already drained -> LINGER starts now.
	if p.State() != StateLinger {
		t.Fatalf("state after draining with no subscribers = %v, want LINGER", p.State())
	}

	p.OnTimeEvent(499, 0)
	if p.State() != StateLinger {
		t.Fatalf("state before linger timeout = %v, want LINGER", p.State())
	}

	p.OnTimeEvent(500, 0)
	if p.State() != StateDone {
		t.Fatalf("state after linger timeout = %v, want DONE", p.State())
	}
	if !p.HasReachedEndOfLife() {
		t.Fatalf("HasReachedEndOfLife = false, want true once DONE")
	}
}

func TestUntetheredSubscriberWindowLingerRestingCycle(t *testing.T) {
	tunables := Tunables{
		TermWindowLength:               100,
		UntetheredWindowLimitTimeoutNs: 50,
		UntetheredLingerTimeoutNs:      30,
		UntetheredRestingTimeoutNs:     20,
	}
	p, log, _ := newTestResource(t, tunables)
	log.Meta.SetRawTailOrdered(0, logbuffer.PackRawTail(0, 1000))
	mgr := counters.NewManager()

	var transitions []TetherState
	p.SetUntetheredStateChangeFunc(func(sub *Subscriber, nowNs int64, newState TetherState, streamID, sessionID int32) {
		transitions = append(transitions, newState)
	})

	sub := NewSubscriber(mgr.AllocatePosition("lagging"), false)
	sub.Position.Set(0) // 1000 behind the producer position, beyond the 100-byte window.
	p.AddSubscriber(sub)

	// nowNs starts at 1, not 0: windowBreachNs/stateChangeNs use 0 as their
	// unset sentinel.
	p.OnTimeEvent(1, 0)
	if sub.State() != TetherActive {
		t.Fatalf("state right at the window breach = %v, want ACTIVE (breach just started)", sub.State())
	}

	p.OnTimeEvent(51, 0)
	if sub.State() != TetherLinger {
		t.Fatalf("state after sustained window breach = %v, want LINGER", sub.State())
	}

	p.OnTimeEvent(81, 0)
	if sub.State() != TetherResting {
		t.Fatalf("state after linger timeout = %v, want RESTING", sub.State())
	}

	p.OnTimeEvent(101, 0)
	if sub.State() != TetherActive {
		t.Fatalf("state after resting timeout = %v, want ACTIVE (rejoined)", sub.State())
	}
	if got := sub.Position.Get(); got != p.producerPosition() {
		t.Fatalf("subscriber position after rejoin = %d, want producer position %d", got, p.producerPosition())
	}

	want := []TetherState{TetherLinger, TetherResting, TetherActive}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i, w := range want {
		if transitions[i] != w {
			t.Errorf("transition %d = %v, want %v", i, transitions[i], w)
		}
	}
}

func TestCheckForBlockedPublisherUnblocksStalledReservation(t *testing.T) {
	tunables := Tunables{UnblockTimeoutNs: 100}
	p, log, system := newTestResource(t, tunables)

	// Commit a first 32-byte frame at offset 0, then reserve a second,
	// 96-byte frame at offset 32 and never commit it: simulates a publisher
	// that died between RawTailGetAndAdd and CommitLength. The safe,
	// readable frontier (what the conductor passes as producerPosition) is
	// pinned at 32, where the stalled reservation begins.
	desc := logbuffer.FrameDescriptor{Version: logbuffer.Version, Type: logbuffer.HdrTypeData, SessionID: 1, StreamID: 1}
	logbuffer.WriteHeader(log.Partitions[0], 0, desc, 0)
	logbuffer.CommitLength(log.Partitions[0], 0, 32)
	log.Meta.SetRawTailOrdered(0, logbuffer.PackRawTail(0, 32)) // raw tail now matches the committed frontier.
	log.Meta.RawTailGetAndAdd(0, 64)                            // reserve [32,96) for the second frame, never committed.
	p.consumerPosition = 32

	if p.CheckForBlockedPublisher(32, 0) {
		t.Fatalf("CheckForBlockedPublisher on first observation = true, want false (just recorded)")
	}
	if p.CheckForBlockedPublisher(32, 50) {
		t.Fatalf("CheckForBlockedPublisher before unblock timeout = true, want false")
	}
	if !p.CheckForBlockedPublisher(32, 100) {
		t.Fatalf("CheckForBlockedPublisher at unblock timeout = false, want true")
	}

	if got := logbuffer.LoadLength(log.Partitions[0], 32); got != 64 {
		t.Fatalf("padding frame length after unblock = %d, want 64", got)
	}
	unblockedDesc, _ := logbuffer.ReadHeader(log.Partitions[0], 32)
	if unblockedDesc.Type != logbuffer.HdrTypePad {
		t.Fatalf("unblocked frame type = %#x, want HdrTypePad", unblockedDesc.Type)
	}
	if got := system.UnblockedPublications.Get(); got != 1 {
		t.Fatalf("UnblockedPublications = %d, want 1", got)
	}
}

func TestRevokeIsIdempotentAndInvokesHook(t *testing.T) {
	p, _, system := newTestResource(t, Tunables{})

	var revokedAt int64 = -1
	p.SetPublicationRevokeFunc(func(revokedPosition int64) { revokedAt = revokedPosition })

	p.Revoke(777)
	if p.State() != StateDone {
		t.Fatalf("state after Revoke = %v, want DONE", p.State())
	}
	if !p.HasReachedEndOfLife() {
		t.Fatalf("HasReachedEndOfLife after Revoke = false, want true")
	}
	if revokedAt != 777 {
		t.Fatalf("revoke hook position = %d, want 777", revokedAt)
	}
	if got := system.PublicationsRevoked.Get(); got != 1 {
		t.Fatalf("PublicationsRevoked = %d, want 1", got)
	}

	p.Revoke(999) // idempotent: no second counter increment or hook call.
	if got := system.PublicationsRevoked.Get(); got != 1 {
		t.Fatalf("PublicationsRevoked after second Revoke = %d, want 1 (unchanged)", got)
	}
	if revokedAt != 777 {
		t.Fatalf("revoke hook position after second Revoke = %d, want 777 (unchanged)", revokedAt)
	}
}

func TestCleanBufferZeroesAcrossPartitionBoundary(t *testing.T) {
	p, log, _ := newTestResource(t, Tunables{})
	termLength := int64(log.Meta.TermLength())

	for i := range log.Partitions[0] {
		log.Partitions[0][i] = 0xFF
	}
	for i := range log.Partitions[1] {
		log.Partitions[1][i] = 0xFF
	}

	p.CleanBuffer(termLength + 100)

	for i, b := range log.Partitions[0] {
		if b != 0 {
			t.Fatalf("partition 0 byte %d = %#x, want 0", i, b)
		}
	}
	for i := int64(0); i < 100; i++ {
		if log.Partitions[1][i] != 0 {
			t.Fatalf("partition 1 byte %d = %#x, want 0", i, log.Partitions[1][i])
		}
	}
	if log.Partitions[1][100] != 0xFF {
		t.Fatalf("partition 1 byte 100 = %#x, want untouched 0xFF", log.Partitions[1][100])
	}
	if p.cleanPosition != termLength+100 {
		t.Fatalf("cleanPosition = %d, want %d", p.cleanPosition, termLength+100)
	}
}

func TestIsAcceptingSubscriptionsRespectsCoolDownAndState(t *testing.T) {
	p, _, _ := newTestResource(t, Tunables{})

	if !p.IsAcceptingSubscriptions() {
		t.Fatalf("IsAcceptingSubscriptions while ACTIVE = false, want true")
	}

	p.inCoolDown = true
	if p.IsAcceptingSubscriptions() {
		t.Fatalf("IsAcceptingSubscriptions during cool-down = true, want false")
	}
	p.inCoolDown = false

	p.state = StateDone
	if p.IsAcceptingSubscriptions() {
		t.Fatalf("IsAcceptingSubscriptions while DONE = true, want false")
	}
}
