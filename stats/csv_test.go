package stats

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yimin-chang/librabft-simulator/basetime"
	"github.com/yimin-chang/librabft-simulator/simulator"
)

func TestCSVSinkRowCountMatchesDistinctClocks(t *testing.T) {
	sink := NewCSVSink(filepath.Join(t.TempDir(), "out.csv"))

	sink.UpdateRoundNumber(basetime.GlobalTime(10), map[basetime.Author]basetime.Round{0: 1})
	sink.AddMessageCounter(simulator.UpdateTimerEvent(0))

	sink.UpdateRoundNumber(basetime.GlobalTime(10), map[basetime.Author]basetime.Round{0: 1})
	sink.AddMessageCounter(simulator.DataSyncNotifyEvent(1, 0, nil))

	sink.UpdateRoundNumber(basetime.GlobalTime(20), map[basetime.Author]basetime.Round{0: 2})
	sink.AddMessageCounter(simulator.UpdateTimerEvent(0))

	if sink.RowCount() != 2 {
		t.Fatalf("expected 2 distinct clock rows, got %d", sink.RowCount())
	}
}

func TestCSVSinkWriteToFileRowCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	sink := NewCSVSink(path)

	clocks := []basetime.GlobalTime{5, 5, 9, 12}
	for _, c := range clocks {
		sink.UpdateRoundNumber(c, map[basetime.Author]basetime.Round{0: basetime.Round(c)})
		sink.AddMessageCounter(simulator.UpdateTimerEvent(0))
	}

	if err := sink.WriteToFile(); err != nil {
		t.Fatalf("WriteToFile: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
	}
	// One header row plus one row per distinct clock value (5, 9, 12).
	if want := 1 + 3; lines != want {
		t.Errorf("got %d lines, want %d", lines, want)
	}
}

func TestCSVSinkHeaderIncludesAllAuthors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	sink := NewCSVSink(path)
	sink.UpdateRoundNumber(basetime.GlobalTime(1), map[basetime.Author]basetime.Round{0: 1, 1: 2, 2: 3})
	sink.AddMessageCounter(simulator.UpdateTimerEvent(0))
	if err := sink.WriteToFile(); err != nil {
		t.Fatalf("WriteToFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	for _, want := range []string{"round_0", "round_1", "round_2"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("header missing column %q", want)
		}
	}
}
