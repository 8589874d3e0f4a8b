// Package record implements the four wire-record variants exchanged by
// consensus nodes — Block, Vote, QuorumCertificate and Timeout — along with
// the hash-then-sign discipline every constructor follows: fill the
// signature with a sentinel zero value, compute the digest over everything
// else, then back-patch the signature with the result of the signing
// oracle. The digest never includes the signature field, so the signature
// is a pure function of the remaining fields.
package record

import (
	"crypto/ed25519"
	"hash/fnv"
	"sort"

	"github.com/yimin-chang/librabft-simulator/basetime"
)

// Signature is produced by a Signer over a record's digest. Its zero value
// is the sentinel used while the digest is being computed.
type Signature [ed25519.SignatureSize]byte

// Signer is the signing oracle the record constructors consume. The core
// never verifies signatures itself (that's test-only, see P4); it only
// requires that, for any digest and author, Sign is deterministic.
type Signer interface {
	Sign(digest uint64, author basetime.Author) Signature
}

// Command is an opaque, protocol-defined payload a Block proposes for
// execution; the simulator core never interprets it.
type Command []byte

// State is an opaque execution-state marker. The core treats it only as a
// comparable, hashable value; its meaning belongs to the protocol layer.
type State uint64

// BlockHash is the digest of a Block.
type BlockHash uint64

// QuorumCertificateHash is the digest of a QuorumCertificate.
type QuorumCertificateHash uint64

// Block is a proposed command for a round, signed by its proposer.
type Block struct {
	Command                       Command
	Time                          basetime.NodeTime
	PreviousQuorumCertificateHash QuorumCertificateHash
	Round                         basetime.Round
	Author                        basetime.Author
	Signature                     Signature
}

// Vote is a single author's endorsement of a certified block and the
// execution state it leads to.
type Vote struct {
	EpochId             basetime.EpochId
	Round               basetime.Round
	CertifiedBlockHash  BlockHash
	State               State
	CommittedState      *State // nil == Option::None
	Author              basetime.Author
	Signature           Signature
}

// VoteSignature pairs the author of a Vote with the signature they
// contributed to a QuorumCertificate.
type VoteSignature struct {
	Author    basetime.Author
	Signature Signature
}

// QuorumCertificate aggregates a quorum of votes sharing the same round and
// certified block, plus the proposer's own signature over the aggregate.
type QuorumCertificate struct {
	EpochId            basetime.EpochId
	Round              basetime.Round
	CertifiedBlockHash BlockHash
	State              State
	CommittedState     *State
	Votes              []VoteSignature
	Author             basetime.Author
	Signature          Signature
}

// Timeout signals that a round of an epoch failed to produce a quorum
// certificate before the node's local timer fired.
//
// HighestCertifiedBlockRound is deliberately excluded from the digest (see
// the KindTimeout case of Record.Digest): this lets timeouts be aggregated purely by
// (EpochId, Round, Author), at the cost that two Timeout values from the
// same author and round but different highest-certified rounds hash and
// sign identically. This is preserved exactly as inherited from the source
// algorithm; do not "fix" it by folding the field into the hash.
type Timeout struct {
	EpochId                    basetime.EpochId
	Round                      basetime.Round
	HighestCertifiedBlockRound basetime.Round
	Author                     basetime.Author
	Signature                  Signature
}

// Kind identifies which variant a Record holds.
type Kind int

const (
	KindBlock Kind = iota
	KindVote
	KindQuorumCertificate
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "Block"
	case KindVote:
		return "Vote"
	case KindQuorumCertificate:
		return "QuorumCertificate"
	case KindTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// Record is a tagged union over the four wire-record variants. Only the
// field matching Kind is populated; the others are zero values.
type Record struct {
	Kind              Kind
	Block             Block
	Vote              Vote
	QuorumCertificate QuorumCertificate
	Timeout           Timeout
}

// Author returns the designated author of whichever variant r holds.
func (r Record) Author() basetime.Author {
	switch r.Kind {
	case KindBlock:
		return r.Block.Author
	case KindVote:
		return r.Vote.Author
	case KindQuorumCertificate:
		return r.QuorumCertificate.Author
	case KindTimeout:
		return r.Timeout.Author
	default:
		panic("record: Author called on a Record with an unrecognized Kind")
	}
}

// SignatureValue returns the signature field of whichever variant r holds.
func (r Record) SignatureValue() Signature {
	switch r.Kind {
	case KindBlock:
		return r.Block.Signature
	case KindVote:
		return r.Vote.Signature
	case KindQuorumCertificate:
		return r.QuorumCertificate.Signature
	case KindTimeout:
		return r.Timeout.Signature
	default:
		panic("record: SignatureValue called on a Record with an unrecognized Kind")
	}
}

// Digest returns the 64-bit non-cryptographic hash of r over every field
// except the signature. It is stable across runs for byte-identical field
// values and deliberately not cryptographically strong.
func (r Record) Digest() uint64 {
	h := fnv.New64a()
	writeUint64(h, uint64(r.Kind))
	switch r.Kind {
	case KindBlock:
		b := r.Block
		h.Write(b.Command)
		writeUint64(h, uint64(b.Time))
		writeUint64(h, uint64(b.PreviousQuorumCertificateHash))
		writeUint64(h, uint64(b.Round))
		writeUint64(h, uint64(b.Author))
	case KindVote:
		v := r.Vote
		writeUint64(h, uint64(v.EpochId))
		writeUint64(h, uint64(v.Round))
		writeUint64(h, uint64(v.CertifiedBlockHash))
		writeUint64(h, uint64(v.State))
		writeOptionalState(h, v.CommittedState)
		writeUint64(h, uint64(v.Author))
	case KindQuorumCertificate:
		q := r.QuorumCertificate
		writeUint64(h, uint64(q.EpochId))
		writeUint64(h, uint64(q.Round))
		writeUint64(h, uint64(q.CertifiedBlockHash))
		writeUint64(h, uint64(q.State))
		writeOptionalState(h, q.CommittedState)
		writeUint64(h, uint64(len(q.Votes)))
		for _, vs := range q.Votes {
			writeUint64(h, uint64(vs.Author))
			h.Write(vs.Signature[:])
		}
		writeUint64(h, uint64(q.Author))
	case KindTimeout:
		// highest_certified_block_round is intentionally excluded — see the
		// doc comment on Timeout.
		to := r.Timeout
		writeUint64(h, uint64(to.EpochId))
		writeUint64(h, uint64(to.Round))
		writeUint64(h, uint64(to.Author))
	default:
		panic("record: Digest called on a Record with an unrecognized Kind")
	}
	return h.Sum64()
}

func writeUint64(h interface{ Write([]byte) (int, error) }, v uint64) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	h.Write(buf[:])
}

func writeOptionalState(h interface{ Write([]byte) (int, error) }, s *State) {
	if s == nil {
		writeUint64(h, 0)
		return
	}
	writeUint64(h, 1)
	writeUint64(h, uint64(*s))
}

// Clone returns a deep copy of r: the QuorumCertificate.Votes slice and the
// optional committed-state pointers are copied rather than shared, so a
// notification fan-out can safely hand out one clone per recipient.
func (r Record) Clone() Record {
	out := r
	if r.Vote.CommittedState != nil {
		v := *r.Vote.CommittedState
		out.Vote.CommittedState = &v
	}
	if r.QuorumCertificate.CommittedState != nil {
		v := *r.QuorumCertificate.CommittedState
		out.QuorumCertificate.CommittedState = &v
	}
	if r.QuorumCertificate.Votes != nil {
		out.QuorumCertificate.Votes = append([]VoteSignature(nil), r.QuorumCertificate.Votes...)
	}
	if r.Block.Command != nil {
		out.Block.Command = append(Command(nil), r.Block.Command...)
	}
	return out
}

// Equal reports whether r and other are field-for-field identical,
// including their signatures.
func (r Record) Equal(other Record) bool {
	return r.CompareTo(other) == 0
}

// CompareTo imposes a total, deterministic order over Records: first by
// Kind, then by the variant's own fields (signature last). It exists so
// that notifications/requests/responses carrying Records can break ties
// deterministically inside the event queue (see simulator.Event).
func (r Record) CompareTo(other Record) int {
	if r.Kind != other.Kind {
		return int(r.Kind) - int(other.Kind)
	}
	switch r.Kind {
	case KindBlock:
		return compareBlock(r.Block, other.Block)
	case KindVote:
		return compareVote(r.Vote, other.Vote)
	case KindQuorumCertificate:
		return compareQC(r.QuorumCertificate, other.QuorumCertificate)
	case KindTimeout:
		return compareTimeout(r.Timeout, other.Timeout)
	default:
		return 0
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	return len(a) - len(b)
}

func cmpOptionalState(a, b *State) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmpUint64(uint64(*a), uint64(*b))
	}
}

func compareBlock(a, b Block) int {
	if c := cmpInt64(int64(a.Round), int64(b.Round)); c != 0 {
		return c
	}
	if c := cmpInt64(int64(a.Author), int64(b.Author)); c != 0 {
		return c
	}
	if c := cmpInt64(int64(a.Time), int64(b.Time)); c != 0 {
		return c
	}
	if c := cmpUint64(uint64(a.PreviousQuorumCertificateHash), uint64(b.PreviousQuorumCertificateHash)); c != 0 {
		return c
	}
	if c := cmpBytes(a.Command, b.Command); c != 0 {
		return c
	}
	return cmpBytes(a.Signature[:], b.Signature[:])
}

func compareVote(a, b Vote) int {
	if c := cmpUint64(uint64(a.EpochId), uint64(b.EpochId)); c != 0 {
		return c
	}
	if c := cmpInt64(int64(a.Round), int64(b.Round)); c != 0 {
		return c
	}
	if c := cmpInt64(int64(a.Author), int64(b.Author)); c != 0 {
		return c
	}
	if c := cmpUint64(uint64(a.CertifiedBlockHash), uint64(b.CertifiedBlockHash)); c != 0 {
		return c
	}
	if c := cmpUint64(uint64(a.State), uint64(b.State)); c != 0 {
		return c
	}
	if c := cmpOptionalState(a.CommittedState, b.CommittedState); c != 0 {
		return c
	}
	return cmpBytes(a.Signature[:], b.Signature[:])
}

func compareQC(a, b QuorumCertificate) int {
	if c := cmpUint64(uint64(a.EpochId), uint64(b.EpochId)); c != 0 {
		return c
	}
	if c := cmpInt64(int64(a.Round), int64(b.Round)); c != 0 {
		return c
	}
	if c := cmpInt64(int64(a.Author), int64(b.Author)); c != 0 {
		return c
	}
	if c := cmpUint64(uint64(a.CertifiedBlockHash), uint64(b.CertifiedBlockHash)); c != 0 {
		return c
	}
	if c := cmpUint64(uint64(a.State), uint64(b.State)); c != 0 {
		return c
	}
	if c := cmpOptionalState(a.CommittedState, b.CommittedState); c != 0 {
		return c
	}
	if c := len(a.Votes) - len(b.Votes); c != 0 {
		return c
	}
	for i := range a.Votes {
		if c := cmpInt64(int64(a.Votes[i].Author), int64(b.Votes[i].Author)); c != 0 {
			return c
		}
		if c := cmpBytes(a.Votes[i].Signature[:], b.Votes[i].Signature[:]); c != 0 {
			return c
		}
	}
	return cmpBytes(a.Signature[:], b.Signature[:])
}

func compareTimeout(a, b Timeout) int {
	if c := cmpUint64(uint64(a.EpochId), uint64(b.EpochId)); c != 0 {
		return c
	}
	if c := cmpInt64(int64(a.Round), int64(b.Round)); c != 0 {
		return c
	}
	if c := cmpInt64(int64(a.Author), int64(b.Author)); c != 0 {
		return c
	}
	if c := cmpInt64(int64(a.HighestCertifiedBlockRound), int64(b.HighestCertifiedBlockRound)); c != 0 {
		return c
	}
	return cmpBytes(a.Signature[:], b.Signature[:])
}

// sortVotes orders votes by author so MakeQuorumCertificate produces a
// deterministic digest regardless of the order votes were collected in.
func sortVotes(votes []VoteSignature) []VoteSignature {
	out := append([]VoteSignature(nil), votes...)
	sort.Slice(out, func(i, j int) bool { return out[i].Author < out[j].Author })
	return out
}

// MakeBlock constructs a signed Block: the signature is initialized to the
// sentinel zero value, the digest is computed, and the signature is then
// back-patched with the signer's output — mirroring the sentinel-then-sign
// discipline used throughout this package.
func MakeBlock(
	signer Signer,
	command Command,
	nodeTime basetime.NodeTime,
	previousQuorumCertificateHash QuorumCertificateHash,
	round basetime.Round,
	author basetime.Author,
) Record {
	r := Record{Kind: KindBlock, Block: Block{
		Command:                       command,
		Time:                          nodeTime,
		PreviousQuorumCertificateHash: previousQuorumCertificateHash,
		Round:                         round,
		Author:                        author,
	}}
	digest := r.Digest()
	r.Block.Signature = signer.Sign(digest, author)
	return r
}

// MakeVote constructs a signed Vote.
func MakeVote(
	signer Signer,
	epochId basetime.EpochId,
	round basetime.Round,
	certifiedBlockHash BlockHash,
	state State,
	committedState *State,
	author basetime.Author,
) Record {
	r := Record{Kind: KindVote, Vote: Vote{
		EpochId:            epochId,
		Round:              round,
		CertifiedBlockHash: certifiedBlockHash,
		State:              state,
		CommittedState:     committedState,
		Author:             author,
	}}
	digest := r.Digest()
	r.Vote.Signature = signer.Sign(digest, author)
	return r
}

// MakeTimeout constructs a signed Timeout.
func MakeTimeout(
	signer Signer,
	epochId basetime.EpochId,
	round basetime.Round,
	highestCertifiedBlockRound basetime.Round,
	author basetime.Author,
) Record {
	r := Record{Kind: KindTimeout, Timeout: Timeout{
		EpochId:                    epochId,
		Round:                      round,
		HighestCertifiedBlockRound: highestCertifiedBlockRound,
		Author:                     author,
	}}
	digest := r.Digest()
	r.Timeout.Signature = signer.Sign(digest, author)
	return r
}

// MakeQuorumCertificate constructs a signed QuorumCertificate. votes is
// copied and sorted by author before the digest is computed so that the
// result does not depend on collection order.
func MakeQuorumCertificate(
	signer Signer,
	epochId basetime.EpochId,
	round basetime.Round,
	certifiedBlockHash BlockHash,
	state State,
	votes []VoteSignature,
	committedState *State,
	author basetime.Author,
) Record {
	r := Record{Kind: KindQuorumCertificate, QuorumCertificate: QuorumCertificate{
		EpochId:            epochId,
		Round:              round,
		CertifiedBlockHash: certifiedBlockHash,
		State:              state,
		Votes:              sortVotes(votes),
		CommittedState:     committedState,
		Author:             author,
	}}
	digest := r.Digest()
	r.QuorumCertificate.Signature = signer.Sign(digest, author)
	return r
}
