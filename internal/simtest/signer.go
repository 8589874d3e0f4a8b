// Package simtest provides a deterministic, non-Byzantine reference node
// and signer used to drive and test the simulator core end to end, without
// depending on any real protocol implementation. Neither type belongs to
// the protocol layer proper; they exist purely as the pack's own internal
// testutil fixtures do, to exercise the dispatcher.
package simtest

import (
	"encoding/binary"

	"github.com/yimin-chang/librabft-simulator/basetime"
	"github.com/yimin-chang/librabft-simulator/record"
)

// DeterministicSigner derives a Signature directly from (digest, author)
// with no real cryptography, for fast, reproducible tests that don't need
// to verify signature unforgeability.
type DeterministicSigner struct{}

// Sign implements record.Signer.
func (DeterministicSigner) Sign(digest uint64, author basetime.Author) record.Signature {
	var sig record.Signature
	binary.LittleEndian.PutUint64(sig[0:8], digest)
	binary.LittleEndian.PutUint64(sig[8:16], uint64(author))
	return sig
}
