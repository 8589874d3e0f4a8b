package record

import (
	"crypto/ed25519"
	"testing"

	"github.com/yimin-chang/librabft-simulator/basetime"
)

func newTestSigner(t *testing.T, authors ...basetime.Author) *Ed25519Signer {
	t.Helper()
	keys := make(map[basetime.Author]ed25519.PrivateKey, len(authors))
	for _, a := range authors {
		_, priv, err := ed25519.GenerateKey(nil)
		if err != nil {
			t.Fatalf("generating key for author %d: %v", a, err)
		}
		keys[a] = priv
	}
	return NewEd25519Signer(keys)
}

func TestMakeBlockSignatureVerifies(t *testing.T) {
	signer := newTestSigner(t, 0)
	r := MakeBlock(signer, Command("hello"), basetime.NodeTime(10), QuorumCertificateHash(0), basetime.Round(1), basetime.Author(0))
	pub, _ := signer.PublicKey(0)
	if err := VerifyRecord(r, pub); err != nil {
		t.Errorf("VerifyRecord: %v", err)
	}
}

func TestDigestExcludesSignature(t *testing.T) {
	signer := newTestSigner(t, 0)
	r := MakeBlock(signer, Command("hello"), basetime.NodeTime(10), QuorumCertificateHash(0), basetime.Round(1), basetime.Author(0))
	withoutSig := r
	withoutSig.Block.Signature = Signature{}
	if r.Digest() != withoutSig.Digest() {
		t.Error("Digest must not depend on the signature field")
	}
}

func TestTimeoutDigestExcludesHighestCertifiedBlockRound(t *testing.T) {
	signer := newTestSigner(t, 0)
	a := MakeTimeout(signer, basetime.EpochId(1), basetime.Round(5), basetime.Round(2), basetime.Author(0))
	b := MakeTimeout(signer, basetime.EpochId(1), basetime.Round(5), basetime.Round(99), basetime.Author(0))
	if a.Digest() != b.Digest() {
		t.Error("Timeout.Digest must not depend on HighestCertifiedBlockRound")
	}
	if a.Timeout.Signature != b.Timeout.Signature {
		t.Error("two Timeouts with the same digest-relevant fields must sign identically")
	}
}

func TestMakeQuorumCertificateVotesOrderIndependent(t *testing.T) {
	signer := newTestSigner(t, 0, 1, 2)
	sig0 := Signature{1}
	sig1 := Signature{2}
	votesA := []VoteSignature{{Author: 1, Signature: sig1}, {Author: 0, Signature: sig0}}
	votesB := []VoteSignature{{Author: 0, Signature: sig0}, {Author: 1, Signature: sig1}}
	qcA := MakeQuorumCertificate(signer, basetime.EpochId(0), basetime.Round(1), BlockHash(7), State(3), votesA, nil, basetime.Author(2))
	qcB := MakeQuorumCertificate(signer, basetime.EpochId(0), basetime.Round(1), BlockHash(7), State(3), votesB, nil, basetime.Author(2))
	if qcA.Digest() != qcB.Digest() {
		t.Error("MakeQuorumCertificate must sort votes before hashing, so collection order does not matter")
	}
}

func TestRecordCloneDeepCopiesMutableFields(t *testing.T) {
	signer := newTestSigner(t, 0)
	committed := State(9)
	r := MakeVote(signer, basetime.EpochId(0), basetime.Round(1), BlockHash(1), State(2), &committed, basetime.Author(0))
	clone := r.Clone()
	*clone.Vote.CommittedState = 123
	if *r.Vote.CommittedState == 123 {
		t.Error("Clone must not share the CommittedState pointer with the original")
	}
}

func TestRecordCompareToTotalOrder(t *testing.T) {
	signer := newTestSigner(t, 0, 1)
	a := MakeBlock(signer, Command("a"), basetime.NodeTime(1), QuorumCertificateHash(0), basetime.Round(1), basetime.Author(0))
	b := MakeBlock(signer, Command("a"), basetime.NodeTime(1), QuorumCertificateHash(0), basetime.Round(2), basetime.Author(0))
	if a.CompareTo(b) >= 0 {
		t.Error("block at round 1 should compare less than block at round 2")
	}
	if b.CompareTo(a) <= 0 {
		t.Error("CompareTo must be antisymmetric")
	}
	if a.CompareTo(a) != 0 {
		t.Error("a record must compare equal to itself")
	}
}

func TestRecordEqualIgnoresNothing(t *testing.T) {
	signer := newTestSigner(t, 0)
	a := MakeVote(signer, basetime.EpochId(1), basetime.Round(1), BlockHash(5), State(1), nil, basetime.Author(0))
	b := a
	b.Vote.State = State(2)
	if a.Equal(b) {
		t.Error("records differing in State must not compare Equal")
	}
}
