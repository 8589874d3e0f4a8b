// Package simnode defines the capability interface a protocol node must
// implement to be driven by the simulator, and the opaque payload
// abstraction notifications/requests/responses share.
package simnode

// Payload is the shared abstraction for everything a node ships over the
// wire: notifications, requests and responses. The dispatcher never
// inspects a payload's contents — it only clones payloads for per-recipient
// fan-out and compares them to break ties in the event queue — so every
// concrete payload type (typically record.Record, but a test harness may
// use anything) need only implement these two methods.
type Payload interface {
	// Clone returns an independent copy suitable for handing to a second
	// recipient without aliasing the original.
	Clone() Payload
	// CompareTo imposes a total order against another Payload of the same
	// concrete type. Implementations may panic if other is not the same
	// concrete type; the dispatcher never compares payloads of mismatched
	// kinds.
	CompareTo(other Payload) int
}

// Notification is the payload a node broadcasts or unicasts to advertise
// its current state.
type Notification = Payload

// Request is the payload a node ships to query another node's state.
type Request = Payload

// Response is the payload a node ships back in reply to a Request.
type Response = Payload
