package simtest

import (
	"github.com/yimin-chang/librabft-simulator/basetime"
	"github.com/yimin-chang/librabft-simulator/record"
	"github.com/yimin-chang/librabft-simulator/simnode"
)

// Context is the per-node protocol context threaded through the
// envelope. The echo node keeps almost nothing in it — it exists mainly
// so the dispatcher has something concrete to pass by pointer to the
// calls that take a context, and so a run archive has something to
// serialize per node.
type Context struct {
	// ObservedHighestRound is the highest round this node has reached
	// itself or seen in any notification or response it handled.
	ObservedHighestRound basetime.Round
}

// RecordPayload adapts a record.Record to simnode.Payload.
type RecordPayload struct {
	Record record.Record
}

// Clone implements simnode.Payload.
func (p RecordPayload) Clone() simnode.Payload {
	return RecordPayload{Record: p.Record.Clone()}
}

// CompareTo implements simnode.Payload.
func (p RecordPayload) CompareTo(other simnode.Payload) int {
	return p.Record.CompareTo(other.(RecordPayload).Record)
}

// EchoNode is a minimal round-robin node: on every scheduled update it
// advances its own round, constructs a Record rotating through all four
// variants, and broadcasts it. An UpdateNode call that arrives before the
// next cadence point (e.g. right after a notification) neither advances
// the round nor broadcasts. It answers queries by replaying the last
// record it broadcast. It is explicitly not a consensus protocol — it has
// no commit rule, no quorum logic and no view-change — it exists purely
// to drive and test the dispatcher end to end.
type EchoNode struct {
	author   basetime.Author
	signer   record.Signer
	interval basetime.Duration

	round      basetime.Round
	sequence   int
	lastRecord record.Record
}

// NewEchoNode builds an echo node for author, signing with signer and
// re-entering itself every interval node-local ticks.
func NewEchoNode(author basetime.Author, signer record.Signer, interval basetime.Duration) *EchoNode {
	return &EchoNode{author: author, signer: signer, interval: interval}
}

// UpdateNode implements simnode.Node.
func (n *EchoNode) UpdateNode(local basetime.NodeTime, ctx *Context) simnode.NodeUpdateActions {
	due := basetime.NodeTime(n.round) * basetime.NodeTime(n.interval)
	if local < due {
		// Re-entered early (after a notification or response): keep the
		// current round and wait for the next cadence point.
		return simnode.NoUpdateActions(due)
	}
	n.round++
	n.lastRecord = n.buildRecord(local)
	if n.round > ctx.ObservedHighestRound {
		ctx.ObservedHighestRound = n.round
	}
	actions := simnode.NoUpdateActions(local + basetime.NodeTime(n.interval))
	actions.ShouldBroadcast = true
	return actions
}

// CreateNotification implements simnode.Node: it republishes the record
// built by the most recent UpdateNode call.
func (n *EchoNode) CreateNotification() simnode.Notification {
	return RecordPayload{Record: n.lastRecord}
}

// CreateRequest implements simnode.Node: echo nodes never issue queries on
// their own initiative, but the dispatcher requires a Request value to
// hand out if ShouldQueryAll is ever set, so this mirrors CreateNotification.
func (n *EchoNode) CreateRequest() simnode.Request {
	return RecordPayload{Record: n.lastRecord}
}

// HandleNotification implements simnode.Node: it tracks the highest round
// observed from any peer and never issues a follow-up request.
func (n *EchoNode) HandleNotification(notification simnode.Notification, ctx *Context) (simnode.Request, bool) {
	rp, ok := notification.(RecordPayload)
	if !ok {
		return nil, false
	}
	round := recordRound(rp.Record)
	if round > ctx.ObservedHighestRound {
		ctx.ObservedHighestRound = round
	}
	return nil, false
}

// HandleRequest implements simnode.Node: it is total, always replaying the
// last record this node broadcast.
func (n *EchoNode) HandleRequest(request simnode.Request) simnode.Response {
	return RecordPayload{Record: n.lastRecord}
}

// HandleResponse implements simnode.Node: it tracks the highest round
// observed, exactly like HandleNotification.
func (n *EchoNode) HandleResponse(response simnode.Response, ctx *Context, local basetime.NodeTime) {
	rp, ok := response.(RecordPayload)
	if !ok {
		return
	}
	round := recordRound(rp.Record)
	if round > ctx.ObservedHighestRound {
		ctx.ObservedHighestRound = round
	}
}

// ActiveRound implements simnode.Node.
func (n *EchoNode) ActiveRound() basetime.Round { return n.round }

// buildRecord rotates through Block, Vote, QuorumCertificate and Timeout in
// turn, so every record constructor gets exercised as the node runs.
func (n *EchoNode) buildRecord(local basetime.NodeTime) record.Record {
	kind := n.sequence % 4
	n.sequence++
	switch kind {
	case 0:
		return record.MakeBlock(n.signer, record.Command("echo"), local, record.QuorumCertificateHash(0), n.round, n.author)
	case 1:
		return record.MakeVote(n.signer, basetime.EpochId(0), n.round, record.BlockHash(0), record.State(n.round), nil, n.author)
	case 2:
		votes := []record.VoteSignature{{Author: n.author, Signature: record.Signature{}}}
		return record.MakeQuorumCertificate(n.signer, basetime.EpochId(0), n.round, record.BlockHash(0), record.State(n.round), votes, nil, n.author)
	default:
		return record.MakeTimeout(n.signer, basetime.EpochId(0), n.round, n.round, n.author)
	}
}

func recordRound(r record.Record) basetime.Round {
	switch r.Kind {
	case record.KindBlock:
		return r.Block.Round
	case record.KindVote:
		return r.Vote.Round
	case record.KindQuorumCertificate:
		return r.QuorumCertificate.Round
	case record.KindTimeout:
		return r.Timeout.Round
	default:
		return 0
	}
}
