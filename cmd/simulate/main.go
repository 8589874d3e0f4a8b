// Command simulate runs a discrete-event BFT simulation to completion and
// reports a one-line summary, optionally writing CSV statistics and
// archiving the run.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/yimin-chang/librabft-simulator/basetime"
	"github.com/yimin-chang/librabft-simulator/internal/simtest"
	"github.com/yimin-chang/librabft-simulator/rundb"
	"github.com/yimin-chang/librabft-simulator/runconfig"
	"github.com/yimin-chang/librabft-simulator/simulator"
	"github.com/yimin-chang/librabft-simulator/stats"
)

func main() {
	cfgPath := flag.String("config", "config.json", "path to config file")
	runID := flag.String("run-id", "", "identifier to archive this run under (defaults to the seed)")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("[config] %v", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	delay, err := basetime.NewRandomDelay(rng, cfg.NetworkDelayMean, cfg.NetworkDelayVariance)
	if err != nil {
		log.Fatalf("[config] network delay: %v", err)
	}

	signer := simtest.DeterministicSigner{}
	s, err := simulator.New[simtest.Context, *simtest.EchoNode](
		cfg.NumNodes,
		delay,
		func(a basetime.Author) simtest.Context { return simtest.Context{} },
		func(a basetime.Author, ctx *simtest.Context, nodeTime basetime.NodeTime) *simtest.EchoNode {
			return simtest.NewEchoNode(a, signer, basetime.Duration(5))
		},
	)
	if err != nil {
		log.Fatalf("[simulator] %v", err)
	}

	var sink *stats.CSVSink
	if cfg.CSVOutputPath != "" {
		sink = stats.NewCSVSink(cfg.CSVOutputPath)
		s.SetSink(sink)
	}

	start := time.Now()
	contexts := s.Run(basetime.GlobalTime(cfg.MaxClock))
	duration := time.Since(start)

	log.Printf("[simulate] ran %d nodes to clock %d in %s", cfg.NumNodes, cfg.MaxClock, duration)
	if sink != nil {
		log.Printf("[simulate] wrote %d statistics rows to %s", sink.RowCount(), cfg.CSVOutputPath)
	}

	if cfg.RunArchivePath != "" {
		if err := archiveRun(cfg, contexts, duration, *runID); err != nil {
			log.Printf("[rundb] %v", err)
		}
	}
}

func loadConfig(path string) (*runconfig.Config, error) {
	cfg, err := runconfig.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[config] %s not found, using defaults", path)
			return runconfig.DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func archiveRun(cfg *runconfig.Config, contexts []simtest.Context, duration time.Duration, runID string) error {
	store, err := rundb.Open(cfg.RunArchivePath)
	if err != nil {
		return fmt.Errorf("opening run archive: %w", err)
	}
	defer store.Close()

	marshaled, err := rundb.MarshalContexts(contexts)
	if err != nil {
		return fmt.Errorf("marshaling final contexts: %w", err)
	}
	if runID == "" {
		runID = fmt.Sprintf("%d", cfg.Seed)
	}
	result := rundb.RunResult{
		Seed:     cfg.Seed,
		NumNodes: cfg.NumNodes,
		MaxClock: basetime.GlobalTime(cfg.MaxClock),
		Contexts: marshaled,
		Duration: duration,
	}
	if err := store.Save(runID, result); err != nil {
		return fmt.Errorf("saving run %q: %w", runID, err)
	}
	log.Printf("[rundb] archived run %q to %s", runID, cfg.RunArchivePath)
	return nil
}
