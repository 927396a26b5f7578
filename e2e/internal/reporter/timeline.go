package reporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/saaga0h/lidar2d-consolidation/e2e/internal/scenario"
)

// TimelineEvent is one entry in a scenario's execution timeline.
type TimelineEvent struct {
	ElapsedMs   float64
	Layer       string
	Description string
	Success     bool
	IsCheck     bool
}

// GenerateTimeline renders a human-readable report of a scenario run.
func GenerateTimeline(result *scenario.TestResult, events []TimelineEvent) string {
	var sb strings.Builder

	duration := result.EndTime.Sub(result.StartTime)
	sb.WriteString(fmt.Sprintf("Scenario: %s\n", result.Scenario.Name))
	sb.WriteString(fmt.Sprintf("Duration: %s\n\n", formatDuration(duration)))

	for _, ev := range events {
		icon := "->"
		if ev.IsCheck {
			icon = "FAIL"
			if ev.Success {
				icon = "OK"
			}
		}
		sb.WriteString(fmt.Sprintf("[%8.2fms] %-4s %-8s: %s\n", ev.ElapsedMs, icon, ev.Layer, ev.Description))
	}

	sb.WriteString("\n=== Expectations ===\n")
	byLayer := make(map[string][]scenario.ExpectationResult)
	for _, r := range result.Expectations {
		byLayer[r.Layer] = append(byLayer[r.Layer], r)
	}
	for layer, results := range byLayer {
		sb.WriteString(fmt.Sprintf("Layer: %s\n", layer))
		for _, r := range results {
			icon := "OK"
			if !r.Passed {
				icon = "FAIL"
			}
			sb.WriteString(fmt.Sprintf("  %-4s %s", icon, r.Expectation.Topic))
			if !r.Passed {
				sb.WriteString(fmt.Sprintf(": %s", r.Reason))
			}
			sb.WriteString("\n")
		}
	}

	status := "ALL EXPECTATIONS PASSED"
	if result.FailedCount > 0 {
		status = fmt.Sprintf("%d EXPECTATION(S) FAILED", result.FailedCount)
	}
	sb.WriteString(fmt.Sprintf("\nPassed: %d  Failed: %d  Status: %s\n", result.PassedCount, result.FailedCount, status))

	return sb.String()
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
