// Package simulator implements the discrete-event dispatcher: the
// virtual-clock loop that drives a fixed set of simnode.Node instances
// through timer, notification, request and response events, using
// basetime for its clocks and delay sampling and record-shaped payloads
// carried opaquely via simnode.Payload.
package simulator

import (
	"fmt"
	"log"
	"sort"

	"github.com/yimin-chang/librabft-simulator/basetime"
	"github.com/yimin-chang/librabft-simulator/simnode"
)

// ContextFactory builds the initial protocol context for author.
type ContextFactory[C any] func(author basetime.Author) C

// NodeFactory builds the node implementation for author, given a pointer
// to its (already constructed) context and its initial node-local time.
type NodeFactory[C any, N simnode.Node[C]] func(author basetime.Author, ctx *C, nodeTime basetime.NodeTime) N

// Sink is the statistics observer invoked for every popped event. A nil
// Sink disables statistics entirely, mirroring the run archive's opt-out.
type Sink interface {
	// UpdateRoundNumber snapshots every author's active round at clock.
	UpdateRoundNumber(clock basetime.GlobalTime, rounds map[basetime.Author]basetime.Round)
	// AddMessageCounter records that event was popped and processed.
	AddMessageCounter(event Event)
	// WriteToFile finalizes the sink's accumulated statistics. Called
	// once, after LoopUntil returns.
	WriteToFile() error
}

// Simulator drives numNodes simnode.Node instances, parameterized by their
// shared protocol context type C and concrete node type N, through the
// discrete-event loop described in LoopUntil.
type Simulator[C any, N simnode.Node[C]] struct {
	nodes []*SimulatedNode[C, N]
	queue *EventQueue
	clock basetime.GlobalTime
	delay *basetime.RandomDelay
	sink  Sink
}

// New constructs a Simulator with numNodes nodes. For each author in
// [0, numNodes), it samples a strictly positive startup_time, builds that
// author's context and node, and schedules its first UpdateTimer —
// exactly the construction sequence of the source algorithm (see C9).
// The global clock starts at 0.
func New[C any, N simnode.Node[C]](
	numNodes int,
	delay *basetime.RandomDelay,
	contextFactory ContextFactory[C],
	nodeFactory NodeFactory[C, N],
) (*Simulator[C, N], error) {
	if numNodes < 0 {
		return nil, fmt.Errorf("simulator: numNodes must be non-negative, got %d", numNodes)
	}
	s := &Simulator[C, N]{
		nodes: make([]*SimulatedNode[C, N], numNodes),
		queue: NewEventQueue(),
		clock: basetime.GlobalTime(0),
		delay: delay,
	}
	for author := 0; author < numNodes; author++ {
		a := basetime.Author(author)
		startup := basetime.AddDelay(s.clock, delay) + 1
		envelope := &SimulatedNode[C, N]{
			StartupTime:                 startup,
			IgnoreScheduledUpdatesUntil: startup - 1,
		}
		envelope.Context = contextFactory(a)
		envelope.Node = nodeFactory(a, &envelope.Context, basetime.NodeTime(0))
		s.nodes[author] = envelope
		s.queue.Schedule(startup, UpdateTimerEvent(a))
	}
	return s, nil
}

// SetSink attaches a statistics sink. Passing nil disables statistics.
func (s *Simulator[C, N]) SetSink(sink Sink) {
	s.sink = sink
}

// NumNodes reports how many nodes the simulator was constructed with.
func (s *Simulator[C, N]) NumNodes() int { return len(s.nodes) }

// Clock reports the simulator's current global clock reading.
func (s *Simulator[C, N]) Clock() basetime.GlobalTime { return s.clock }

// Contexts returns the final protocol context of every node, in author
// order, for inspection once LoopUntil has returned.
func (s *Simulator[C, N]) Contexts() []C {
	out := make([]C, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n.Context
	}
	return out
}

// ActiveRounds snapshots every author's current active round.
func (s *Simulator[C, N]) ActiveRounds() map[basetime.Author]basetime.Round {
	out := make(map[basetime.Author]basetime.Round, len(s.nodes))
	for i, n := range s.nodes {
		out[basetime.Author(i)] = n.Node.ActiveRound()
	}
	return out
}

// LoopUntil runs the dispatcher until the earliest pending event's
// deadline exceeds maxClock, then returns. It implements the four-event
// dispatch described at the package level:
//
//  1. Pop the earliest event; if its deadline exceeds maxClock, stop.
//  2. Advance the clock to max(deadline, current clock) — the clock
//     never rewinds even if a stale event's deadline has already passed.
//  3. Feed the event to the statistics sink, if any.
//  4. Dispatch by kind (see the switch below).
func (s *Simulator[C, N]) LoopUntil(maxClock basetime.GlobalTime) {
	for {
		deadline, event, ok := s.queue.Pop()
		if !ok || deadline > maxClock {
			return
		}
		if deadline > s.clock {
			s.clock = deadline
		}
		if s.sink != nil {
			s.sink.UpdateRoundNumber(s.clock, s.ActiveRounds())
			s.sink.AddMessageCounter(event)
		}
		s.dispatch(event)
	}
}

func (s *Simulator[C, N]) dispatch(event Event) {
	switch event.Kind {
	case EventUpdateTimer:
		s.dispatchUpdateTimer(event.Author)
	case EventDataSyncNotify:
		s.dispatchNotify(event)
	case EventDataSyncRequest:
		s.dispatchRequest(event)
	case EventDataSyncResponse:
		s.dispatchResponse(event)
	default:
		panic(fmt.Sprintf("simulator: unrecognized event kind %v", event.Kind))
	}
}

func (s *Simulator[C, N]) dispatchUpdateTimer(author basetime.Author) {
	envelope := s.nodes[author]
	if s.clock <= envelope.IgnoreScheduledUpdatesUntil {
		return // superseded timer, dropped without calling update_node
	}
	actions := envelope.Update(s.clock)
	s.processNodeActions(author, actions)
}

func (s *Simulator[C, N]) dispatchNotify(event Event) {
	receiver := s.nodes[event.Receiver]
	request, ok := receiver.Node.HandleNotification(event.Notification, &receiver.Context)
	if ok {
		// Pull-model: the roles flip — the request's Sender field becomes
		// the notification's receiver (this node, whose HandleRequest
		// dispatchRequest will invoke), and its Receiver field becomes the
		// notification's original sender, which gets the response.
		deadline := basetime.AddDelay(s.clock, s.delay)
		s.queue.Schedule(deadline, DataSyncRequestEvent(event.Sender, event.Receiver, request))
	}
	actions := receiver.Update(s.clock)
	s.processNodeActions(event.Receiver, actions)
}

func (s *Simulator[C, N]) dispatchRequest(event Event) {
	// Pull model: Sender is the node that actually holds the queried
	// data; it is the one whose HandleRequest is invoked, not Receiver.
	responder := s.nodes[event.Sender]
	response := responder.Node.HandleRequest(event.Request)
	deadline := basetime.AddDelay(s.clock, s.delay)
	s.queue.Schedule(deadline, DataSyncResponseEvent(event.Receiver, event.Sender, response))
}

func (s *Simulator[C, N]) dispatchResponse(event Event) {
	receiver := s.nodes[event.Receiver]
	receiver.Node.HandleResponse(event.Response, &receiver.Context, basetime.ToNodeTime(s.clock, receiver.StartupTime))
	actions := receiver.Update(s.clock)
	s.processNodeActions(event.Receiver, actions)
}

// processNodeActions implements the timer discipline (C7): it computes
// the author's next timer deadline, raises its cancellation watermark, and
// schedules the notification and query fan-out the actions requested.
func (s *Simulator[C, N]) processNodeActions(author basetime.Author, actions simnode.NodeUpdateActions) {
	envelope := s.nodes[author]

	newDeadline := basetime.FromNodeTime(actions.NextScheduledUpdate, envelope.StartupTime)
	if floor := s.clock + 1; newDeadline < floor {
		newDeadline = floor
	}
	envelope.IgnoreScheduledUpdatesUntil = newDeadline - 1
	s.queue.Schedule(newDeadline, UpdateTimerEvent(author))

	receivers := make(map[basetime.Author]struct{}, len(actions.ShouldSend))
	for a := range actions.ShouldSend {
		receivers[a] = struct{}{}
	}
	if actions.ShouldBroadcast {
		for a := range s.nodes {
			if basetime.Author(a) != author {
				receivers[basetime.Author(a)] = struct{}{}
			}
		}
	}
	if len(receivers) > 0 {
		// Visit receivers in author order so each one draws the same delay
		// sample on every run with the same seed.
		ordered := make([]basetime.Author, 0, len(receivers))
		for receiver := range receivers {
			ordered = append(ordered, receiver)
		}
		sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
		notification := envelope.Node.CreateNotification()
		for _, receiver := range ordered {
			deadline := basetime.AddDelay(s.clock, s.delay)
			s.queue.Schedule(deadline, DataSyncNotifyEvent(receiver, author, notification.Clone()))
		}
	}

	if actions.ShouldQueryAll {
		request := envelope.Node.CreateRequest()
		for a := range s.nodes {
			sender := basetime.Author(a)
			if sender == author {
				continue
			}
			deadline := basetime.AddDelay(s.clock, s.delay)
			s.queue.Schedule(deadline, DataSyncRequestEvent(author, sender, request.Clone()))
		}
	}
}

// Run is the ambient wrapper around LoopUntil: it runs the simulation to
// completion and logs a one-line summary the way the teacher's long-running
// components report completion.
func (s *Simulator[C, N]) Run(maxClock basetime.GlobalTime) []C {
	s.LoopUntil(maxClock)
	if s.sink != nil {
		if err := s.sink.WriteToFile(); err != nil {
			log.Printf("[simulator] writing statistics: %v", err)
		}
	}
	log.Printf("[simulator] run complete: nodes=%d clock=%d", len(s.nodes), s.clock)
	return s.Contexts()
}
