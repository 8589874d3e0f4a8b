package simulator

import (
	"container/heap"

	"github.com/yimin-chang/librabft-simulator/basetime"
)

// scheduledEvent pairs an Event with the deadline it was scheduled for.
type scheduledEvent struct {
	deadline basetime.GlobalTime
	event    Event
}

// eventHeap is a container/heap.Interface ordering scheduledEvents by
// (deadline ascending, event total-order ascending). There is no removal
// operation: cancellation of a stale UpdateTimer is handled by the
// dispatcher dropping it on Pop, never by surgery on the heap (see
// Simulator.LoopUntil).
type eventHeap []scheduledEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].event.CompareTo(h[j].event) < 0
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(scheduledEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// EventQueue is a min-heap of scheduled events, keyed by deadline with the
// event's own total order as tie-breaker. The queue owns every event it
// holds; insertion and extraction are both O(log n).
type EventQueue struct {
	h eventHeap
}

// NewEventQueue returns an empty queue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{}
	heap.Init(&q.h)
	return q
}

// Len reports how many events are currently queued.
func (q *EventQueue) Len() int { return q.h.Len() }

// Schedule enqueues event at deadline.
func (q *EventQueue) Schedule(deadline basetime.GlobalTime, event Event) {
	heap.Push(&q.h, scheduledEvent{deadline: deadline, event: event})
}

// Pop removes and returns the earliest scheduled event. ok is false if the
// queue is empty.
func (q *EventQueue) Pop() (deadline basetime.GlobalTime, event Event, ok bool) {
	if q.h.Len() == 0 {
		return 0, Event{}, false
	}
	item := heap.Pop(&q.h).(scheduledEvent)
	return item.deadline, item.event, true
}

// Peek returns the earliest scheduled event's deadline without removing
// it. ok is false if the queue is empty.
func (q *EventQueue) Peek() (deadline basetime.GlobalTime, ok bool) {
	if q.h.Len() == 0 {
		return 0, false
	}
	return q.h[0].deadline, true
}
