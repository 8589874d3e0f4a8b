package record

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"github.com/yimin-chang/librabft-simulator/basetime"
)

// Ed25519Signer is the signing oracle used by real (non-test) runs: each
// author's digest is signed with that author's own ed25519 private key.
// It implements Signer.
type Ed25519Signer struct {
	keys map[basetime.Author]ed25519.PrivateKey
}

// NewEd25519Signer builds a signer from a fixed author-to-key assignment.
// keys must contain a distinct ed25519.PrivateKey for every author that
// will ever be asked to sign; Sign panics on an unknown author, since a
// missing key is a wiring bug, not a runtime condition.
func NewEd25519Signer(keys map[basetime.Author]ed25519.PrivateKey) *Ed25519Signer {
	copied := make(map[basetime.Author]ed25519.PrivateKey, len(keys))
	for a, k := range keys {
		copied[a] = k
	}
	return &Ed25519Signer{keys: copied}
}

// Sign implements Signer.
func (s *Ed25519Signer) Sign(digest uint64, author basetime.Author) Signature {
	priv, ok := s.keys[author]
	if !ok {
		panic(fmt.Sprintf("record: Ed25519Signer has no key for author %d", author))
	}
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], digest)
	sig := ed25519.Sign(priv, msg[:])
	var out Signature
	copy(out[:], sig)
	return out
}

// PublicKey returns the public key registered for author, for use by
// VerifyRecord in tests and diagnostics.
func (s *Ed25519Signer) PublicKey(author basetime.Author) (ed25519.PublicKey, bool) {
	priv, ok := s.keys[author]
	if !ok {
		return nil, false
	}
	return priv.Public().(ed25519.PublicKey), true
}

// VerifyRecord checks that r's signature was produced by the holder of pub
// over r's own digest. The simulator core never calls this itself — the
// core only ever consumes Signer.Sign — but it's the tool scenario tests
// and auditing code use to confirm a run's records are well-formed.
func VerifyRecord(r Record, pub ed25519.PublicKey) error {
	digest := r.Digest()
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], digest)
	sig := r.SignatureValue()
	if !ed25519.Verify(pub, msg[:], sig[:]) {
		return fmt.Errorf("record: signature verification failed for %s by author %d", r.Kind, r.Author())
	}
	return nil
}
