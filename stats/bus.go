package stats

import (
	"log"

	"github.com/yimin-chang/librabft-simulator/basetime"
	"github.com/yimin-chang/librabft-simulator/simulator"
)

// Bus fans every simulator.Sink call out to a set of subscribed sinks,
// guarding each one with panic recovery so a misbehaving sink cannot halt
// the run. It implements simulator.Sink itself, so a caller that wants
// several independent observers (e.g. a CSVSink plus an in-memory test
// probe) can attach Bus to the simulator instead of picking just one.
type Bus struct {
	sinks []simulator.Sink
}

// NewBus builds an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers sink to receive every call this Bus forwards.
func (b *Bus) Subscribe(sink simulator.Sink) {
	b.sinks = append(b.sinks, sink)
}

// UpdateRoundNumber implements simulator.Sink.
func (b *Bus) UpdateRoundNumber(clock basetime.GlobalTime, rounds map[basetime.Author]basetime.Round) {
	for _, sink := range b.sinks {
		b.guard(func() { sink.UpdateRoundNumber(clock, rounds) })
	}
}

// AddMessageCounter implements simulator.Sink.
func (b *Bus) AddMessageCounter(event simulator.Event) {
	for _, sink := range b.sinks {
		b.guard(func() { sink.AddMessageCounter(event) })
	}
}

// WriteToFile implements simulator.Sink: it finalizes every subscribed
// sink in turn, continuing past individual failures and returning the
// first error encountered, if any.
func (b *Bus) WriteToFile() error {
	var first error
	for _, sink := range b.sinks {
		var err error
		b.guard(func() { err = sink.WriteToFile() })
		if err != nil {
			log.Printf("[stats] sink failed to write: %v", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (b *Bus) guard(f func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[stats] sink panicked: %v", r)
		}
	}()
	f()
}
