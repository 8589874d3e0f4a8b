package simnode

import "github.com/yimin-chang/librabft-simulator/basetime"

// NodeUpdateActions carries the scheduling directives a node returns from
// UpdateNode: when it next wants to be re-entered, and who its current
// notification/request fan-out should reach.
type NodeUpdateActions struct {
	// NextScheduledUpdate is the node-local time at which the node wants
	// its UpdateNode called again.
	NextScheduledUpdate basetime.NodeTime
	// ShouldSend names the unicast notification targets.
	ShouldSend map[basetime.Author]struct{}
	// ShouldBroadcast, if true, extends the notification to every other
	// author in the run, in addition to ShouldSend.
	ShouldBroadcast bool
	// ShouldQueryAll, if true, causes a request to be shipped from every
	// other author back to this one.
	ShouldQueryAll bool
}

// NoUpdateActions returns the actions for a node that wants to be
// re-entered at nextUpdate and has nothing to send this round.
func NoUpdateActions(nextUpdate basetime.NodeTime) NodeUpdateActions {
	return NodeUpdateActions{NextScheduledUpdate: nextUpdate}
}

// Node is the capability set a protocol implementation must provide to be
// driven by the simulator. C is the node's own protocol context type,
// threaded through by the envelope (see simulator.SimulatedNode) and
// mutated only during calls that explicitly receive it.
//
// Nodes must be deterministic given their inputs: the same sequence of
// UpdateNode/HandleNotification/HandleRequest/HandleResponse calls with the
// same arguments must produce the same actions and payloads every time,
// or P6 (determinism) does not hold for any simulation built on top of it.
type Node[C any] interface {
	// UpdateNode drives the protocol forward at localClock and returns the
	// actions the dispatcher must enact.
	UpdateNode(localClock basetime.NodeTime, ctx *C) NodeUpdateActions
	// CreateNotification produces the node's current outbound
	// broadcast/unicast payload. Called once per fan-out round; the
	// dispatcher clones the result once per recipient.
	CreateNotification() Notification
	// CreateRequest produces the node's current outbound query payload.
	// Called once per query-all round; the dispatcher clones the result
	// once per recipient.
	CreateRequest() Request
	// HandleNotification consumes a delivered notification. If it returns
	// ok == true, the returned Request is shipped straight back to the
	// notification's sender.
	HandleNotification(notification Notification, ctx *C) (request Request, ok bool)
	// HandleRequest is total: it always produces a Response, even if that
	// response encodes a protocol-level refusal or error.
	HandleRequest(request Request) Response
	// HandleResponse consumes a delivered response.
	HandleResponse(response Response, ctx *C, localClock basetime.NodeTime)
	// ActiveRound reports the node's current round, for statistics only.
	ActiveRound() basetime.Round
}
