package simulator

import (
	"github.com/yimin-chang/librabft-simulator/basetime"
	"github.com/yimin-chang/librabft-simulator/simnode"
)

// SimulatedNode is the envelope the dispatcher holds for a single author:
// the node implementation itself, its protocol context, the node's
// startup offset from the global clock, and the cancellation watermark
// used to drop superseded timers on pop.
type SimulatedNode[C any, N simnode.Node[C]] struct {
	Node    N
	Context C

	// StartupTime is the global clock reading at which this node's local
	// clock reads zero.
	StartupTime basetime.GlobalTime

	// IgnoreScheduledUpdatesUntil is the watermark: any pending
	// UpdateTimer for this author with deadline <= this value is
	// discarded on pop rather than acted on.
	IgnoreScheduledUpdatesUntil basetime.GlobalTime
}

// Update converts globalClock to this node's local time and invokes
// UpdateNode, returning the actions the dispatcher must enact.
func (n *SimulatedNode[C, N]) Update(globalClock basetime.GlobalTime) simnode.NodeUpdateActions {
	local := basetime.ToNodeTime(globalClock, n.StartupTime)
	return n.Node.UpdateNode(local, &n.Context)
}
