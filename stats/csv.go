// Package stats provides statistics sinks that observe the simulator's
// event loop. A sink is invoked for every popped event and finalizes once
// when the loop exits; the simulator core itself never interprets the
// recorded data.
package stats

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"

	"github.com/yimin-chang/librabft-simulator/basetime"
	"github.com/yimin-chang/librabft-simulator/simulator"
)

// CSVSink accumulates, per observed clock tick, a running count of
// messages by event kind and a snapshot of every author's active round,
// then writes one CSV row per distinct clock value on WriteToFile. It
// implements simulator.Sink.
type CSVSink struct {
	path string

	order  []basetime.GlobalTime
	rows   map[basetime.GlobalTime]*rowCounts
	maxAuthor basetime.Author
}

type rowCounts struct {
	updateTimer      int
	dataSyncNotify   int
	dataSyncRequest  int
	dataSyncResponse int
	rounds           map[basetime.Author]basetime.Round
}

// NewCSVSink builds a sink that writes its accumulated statistics to path
// when WriteToFile is called.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path, rows: make(map[basetime.GlobalTime]*rowCounts)}
}

func (s *CSVSink) rowFor(clock basetime.GlobalTime) *rowCounts {
	r, ok := s.rows[clock]
	if !ok {
		r = &rowCounts{rounds: make(map[basetime.Author]basetime.Round)}
		s.rows[clock] = r
		s.order = append(s.order, clock)
	}
	return r
}

// AddMessageCounter implements simulator.Sink. It assumes UpdateRoundNumber
// has already been called for the current clock value, and records into
// that row; Simulator.LoopUntil calls them in that order.
func (s *CSVSink) AddMessageCounter(event simulator.Event) {
	if len(s.order) == 0 {
		return
	}
	r := s.rows[s.order[len(s.order)-1]]
	switch event.Kind {
	case simulator.EventUpdateTimer:
		r.updateTimer++
	case simulator.EventDataSyncNotify:
		r.dataSyncNotify++
	case simulator.EventDataSyncRequest:
		r.dataSyncRequest++
	case simulator.EventDataSyncResponse:
		r.dataSyncResponse++
	}
}

// UpdateRoundNumber implements simulator.Sink. It must be called before
// AddMessageCounter for a given clock value so a row exists to record
// into; Simulator.LoopUntil does so.
func (s *CSVSink) UpdateRoundNumber(clock basetime.GlobalTime, rounds map[basetime.Author]basetime.Round) {
	r := s.rowFor(clock)
	for author, round := range rounds {
		r.rounds[author] = round
		if author > s.maxAuthor {
			s.maxAuthor = author
		}
	}
}

// WriteToFile implements simulator.Sink: it writes one header row plus one
// row per distinct clock value observed, in ascending clock order.
func (s *CSVSink) WriteToFile() error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("stats: creating %s: %w", s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"clock", "update_timer", "data_sync_notify", "data_sync_request", "data_sync_response"}
	for a := basetime.Author(0); a <= s.maxAuthor; a++ {
		header = append(header, fmt.Sprintf("round_%d", a))
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("stats: writing CSV header: %w", err)
	}

	ordered := append([]basetime.GlobalTime(nil), s.order...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	for _, clock := range ordered {
		r := s.rows[clock]
		row := []string{
			fmt.Sprintf("%d", clock),
			fmt.Sprintf("%d", r.updateTimer),
			fmt.Sprintf("%d", r.dataSyncNotify),
			fmt.Sprintf("%d", r.dataSyncRequest),
			fmt.Sprintf("%d", r.dataSyncResponse),
		}
		for a := basetime.Author(0); a <= s.maxAuthor; a++ {
			row = append(row, fmt.Sprintf("%d", r.rounds[a]))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("stats: writing CSV row for clock %d: %w", clock, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("stats: flushing CSV: %w", err)
	}
	return nil
}

// RowCount reports how many distinct clock values have been observed so
// far, for tests (P9).
func (s *CSVSink) RowCount() int { return len(s.order) }
