// Command scenario-runner loads one YAML scenario and plays it back
// against an in-process orchestrator, exiting non-zero if any
// expectation fails. Grounded on the teacher's
// e2e/cmd/test-runner/main.go, dropping the MQTT broker/Redis/Postgres
// connection flags this domain has no analogue for: the runner drives
// a bus.FakeClient in-process instead of a live broker, so there is
// nothing external to dial.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/saaga0h/lidar2d-consolidation/e2e/internal/executor"
	"github.com/saaga0h/lidar2d-consolidation/e2e/internal/reporter"
	"github.com/saaga0h/lidar2d-consolidation/e2e/internal/scenario"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to YAML scenario file (required)")
	outputDir := flag.String("output-dir", "./e2e-output", "output directory for timeline and summary artifacts")
	verbose := flag.Bool("verbose", false, "enable debug-level logging")
	flag.Parse()

	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --scenario is required")
		flag.Usage()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	logger.Info("loading scenario", "path", *scenarioPath)
	scen, err := scenario.LoadScenario(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load scenario: %v\n", err)
		os.Exit(1)
	}

	runner := executor.NewRunner(logger)
	result, timelineEvents, err := runner.Run(context.Background(), scen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scenario execution failed: %v\n", err)
		os.Exit(1)
	}

	name := strings.TrimSuffix(filepath.Base(*scenarioPath), filepath.Ext(*scenarioPath))

	timeline := reporter.GenerateTimeline(result, timelineEvents)
	fmt.Println(timeline)

	timelinePath := filepath.Join(*outputDir, "timelines", name+".txt")
	if err := reporter.SaveTimeline(timeline, timelinePath); err != nil {
		logger.Warn("failed to save timeline", "error", err)
	} else {
		logger.Info("timeline saved", "path", timelinePath)
	}

	summaryPath := filepath.Join(*outputDir, "summaries", name+".json")
	if err := reporter.SaveSummary(result, summaryPath); err != nil {
		logger.Warn("failed to save summary", "error", err)
	} else {
		logger.Info("summary saved", "path", summaryPath)
	}

	if !result.Passed {
		os.Exit(1)
	}
}
