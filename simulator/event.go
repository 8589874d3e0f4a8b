package simulator

import (
	"github.com/yimin-chang/librabft-simulator/basetime"
	"github.com/yimin-chang/librabft-simulator/simnode"
)

// EventKind discriminates the four event variants the dispatcher knows how
// to process.
type EventKind int

const (
	// EventUpdateTimer carries no payload; Author names the node whose
	// timer fired.
	EventUpdateTimer EventKind = iota
	// EventDataSyncNotify carries a Notification from Sender to Receiver.
	EventDataSyncNotify
	// EventDataSyncRequest carries a Request. Per the pull-model routing
	// convention (see Event doc below), it is handled by Sender, not
	// Receiver.
	EventDataSyncRequest
	// EventDataSyncResponse carries a Response from Sender back to
	// Receiver.
	EventDataSyncResponse
)

func (k EventKind) String() string {
	switch k {
	case EventUpdateTimer:
		return "UpdateTimer"
	case EventDataSyncNotify:
		return "DataSyncNotify"
	case EventDataSyncRequest:
		return "DataSyncRequest"
	case EventDataSyncResponse:
		return "DataSyncResponse"
	default:
		return "Unknown"
	}
}

// Event is the sum type scheduled into the event queue. Only the fields
// relevant to Kind are populated.
//
// For EventDataSyncRequest, Receiver/Sender follow a pull-model
// convention inherited unchanged from the source algorithm: Sender is the
// node that holds the data being queried (the one whose HandleRequest is
// actually invoked), and Receiver is the node that will eventually receive
// the DataSyncResponse. This reads backwards from the usual network
// intuition of "sender transmits to receiver" — it is kept this way only
// for behavioral compatibility; do not "fix" the field names.
type Event struct {
	Kind     EventKind
	Author   basetime.Author // EventUpdateTimer only
	Receiver basetime.Author // EventDataSyncNotify, EventDataSyncRequest, EventDataSyncResponse
	Sender   basetime.Author // EventDataSyncNotify, EventDataSyncRequest, EventDataSyncResponse

	Notification simnode.Notification // EventDataSyncNotify
	Request      simnode.Request       // EventDataSyncRequest
	Response     simnode.Response      // EventDataSyncResponse
}

// UpdateTimerEvent builds an EventUpdateTimer for author.
func UpdateTimerEvent(author basetime.Author) Event {
	return Event{Kind: EventUpdateTimer, Author: author}
}

// DataSyncNotifyEvent builds an EventDataSyncNotify.
func DataSyncNotifyEvent(receiver, sender basetime.Author, notification simnode.Notification) Event {
	return Event{Kind: EventDataSyncNotify, Receiver: receiver, Sender: sender, Notification: notification}
}

// DataSyncRequestEvent builds an EventDataSyncRequest. sender is the node
// that will actually answer the query (see the pull-model note above).
func DataSyncRequestEvent(receiver, sender basetime.Author, request simnode.Request) Event {
	return Event{Kind: EventDataSyncRequest, Receiver: receiver, Sender: sender, Request: request}
}

// DataSyncResponseEvent builds an EventDataSyncResponse.
func DataSyncResponseEvent(receiver, sender basetime.Author, response simnode.Response) Event {
	return Event{Kind: EventDataSyncResponse, Receiver: receiver, Sender: sender, Response: response}
}

func cmpAuthor(a, b basetime.Author) int { return int(a) - int(b) }

// CompareTo imposes a total, deterministic order over events so that the
// priority queue can break deadline ties the same way on every run given
// the same sequence of inserts. It never consults insertion order.
func (e Event) CompareTo(other Event) int {
	if e.Kind != other.Kind {
		return int(e.Kind) - int(other.Kind)
	}
	switch e.Kind {
	case EventUpdateTimer:
		return cmpAuthor(e.Author, other.Author)
	case EventDataSyncNotify:
		if c := cmpAuthor(e.Receiver, other.Receiver); c != 0 {
			return c
		}
		if c := cmpAuthor(e.Sender, other.Sender); c != 0 {
			return c
		}
		return comparePayloads(e.Notification, other.Notification)
	case EventDataSyncRequest:
		if c := cmpAuthor(e.Receiver, other.Receiver); c != 0 {
			return c
		}
		if c := cmpAuthor(e.Sender, other.Sender); c != 0 {
			return c
		}
		return comparePayloads(e.Request, other.Request)
	case EventDataSyncResponse:
		if c := cmpAuthor(e.Receiver, other.Receiver); c != 0 {
			return c
		}
		if c := cmpAuthor(e.Sender, other.Sender); c != 0 {
			return c
		}
		return comparePayloads(e.Response, other.Response)
	default:
		return 0
	}
}

// comparePayloads compares two payloads that may be nil (e.g. when a
// HandleNotification call declined to produce a follow-up request before a
// comparison is needed in a context that never reaches this arm).
func comparePayloads(a, b simnode.Payload) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.CompareTo(b)
	}
}
