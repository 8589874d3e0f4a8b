package simtest

import (
	"testing"

	"github.com/yimin-chang/librabft-simulator/basetime"
	"github.com/yimin-chang/librabft-simulator/record"
)

func TestEchoNodeRotatesThroughAllRecordKinds(t *testing.T) {
	n := NewEchoNode(basetime.Author(0), DeterministicSigner{}, basetime.Duration(5))
	ctx := &Context{}
	var kinds []record.Kind
	for i := 0; i < 8; i++ {
		n.UpdateNode(basetime.NodeTime(i*5), ctx)
		rp := n.CreateNotification().(RecordPayload)
		kinds = append(kinds, rp.Record.Kind)
	}
	want := []record.Kind{
		record.KindBlock, record.KindVote, record.KindQuorumCertificate, record.KindTimeout,
		record.KindBlock, record.KindVote, record.KindQuorumCertificate, record.KindTimeout,
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("update %d: got kind %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestEchoNodeHandleRequestReplaysLastBroadcast(t *testing.T) {
	n := NewEchoNode(basetime.Author(0), DeterministicSigner{}, basetime.Duration(5))
	ctx := &Context{}
	n.UpdateNode(basetime.NodeTime(0), ctx)
	notified := n.CreateNotification().(RecordPayload)
	response := n.HandleRequest(nil).(RecordPayload)
	if !notified.Record.Equal(response.Record) {
		t.Error("HandleRequest must replay the same record as the latest broadcast")
	}
}

func TestEchoNodeTracksObservedHighestRound(t *testing.T) {
	local := NewEchoNode(basetime.Author(0), DeterministicSigner{}, basetime.Duration(5))
	ctx := &Context{}
	local.UpdateNode(basetime.NodeTime(0), ctx)
	if ctx.ObservedHighestRound != 1 {
		t.Fatalf("after one update, ObservedHighestRound = %d, want 1", ctx.ObservedHighestRound)
	}

	remote := NewEchoNode(basetime.Author(1), DeterministicSigner{}, basetime.Duration(5))
	remoteCtx := &Context{}
	for i := 0; i < 5; i++ {
		remote.UpdateNode(basetime.NodeTime(i*5), remoteCtx)
	}
	peerNotification := remote.CreateNotification()

	local.HandleNotification(peerNotification, ctx)
	if ctx.ObservedHighestRound != 5 {
		t.Errorf("after observing a peer at round 5, ObservedHighestRound = %d, want 5", ctx.ObservedHighestRound)
	}
}

func TestRecordPayloadCloneIsIndependent(t *testing.T) {
	n := NewEchoNode(basetime.Author(0), DeterministicSigner{}, basetime.Duration(5))
	ctx := &Context{}
	n.UpdateNode(basetime.NodeTime(0), ctx)
	original := n.CreateNotification().(RecordPayload)
	clone := original.Clone().(RecordPayload)
	if !original.Record.Equal(clone.Record) {
		t.Error("clone must be equal to the original")
	}
	if original.CompareTo(clone) != 0 {
		t.Error("clone must compare equal to the original")
	}
}

func TestDeterministicSignerIsDeterministic(t *testing.T) {
	s := DeterministicSigner{}
	a := s.Sign(42, basetime.Author(1))
	b := s.Sign(42, basetime.Author(1))
	if a != b {
		t.Error("DeterministicSigner must produce the same signature for the same (digest, author)")
	}
	c := s.Sign(42, basetime.Author(2))
	if a == c {
		t.Error("DeterministicSigner should distinguish different authors")
	}
}
