package runconfig

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig must be valid: %v", err)
	}
}

func TestValidateRejectsBadFields(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"negative num_nodes", Config{NumNodes: -1, NetworkDelayMean: 1, MaxClock: 1}},
		{"zero mean", Config{NumNodes: 1, NetworkDelayMean: 0, MaxClock: 1}},
		{"negative variance", Config{NumNodes: 1, NetworkDelayMean: 1, NetworkDelayVariance: -1, MaxClock: 1}},
		{"negative max_clock", Config{NumNodes: 1, NetworkDelayMean: 1, MaxClock: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Error("expected Validate to reject this configuration")
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	want := &Config{
		NumNodes:             7,
		NetworkDelayMean:     12.5,
		NetworkDelayVariance: 3,
		MaxClock:             5000,
		Seed:                 99,
		CSVOutputPath:        "out.csv",
		RunArchivePath:       "runs.db",
	}
	if err := Save(want, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *want {
		t.Errorf("got %+v, want %+v", *got, *want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error loading a missing config file")
	}
}
