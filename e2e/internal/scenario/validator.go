package scenario

import (
	"fmt"
	"sort"
)

var validEventTypes = map[string]bool{
	"scan":            true,
	"bodyFrame":       true,
	"saveConfig":      true,
	"automaskRequest": true,
}

// ValidateScenario performs structural and timing validation on a
// loaded scenario.
func ValidateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("scenario description is required")
	}
	if err := validateEvents(s.Events); err != nil {
		return fmt.Errorf("events validation failed: %w", err)
	}
	if err := validateWaitPeriods(s.Wait); err != nil {
		return fmt.Errorf("wait periods validation failed: %w", err)
	}
	if err := validateExpectations(s.Expectations); err != nil {
		return fmt.Errorf("expectations validation failed: %w", err)
	}
	if err := validateTimingConsistency(s); err != nil {
		return fmt.Errorf("timing validation failed: %w", err)
	}
	return nil
}

func validateEvents(events []Event) error {
	if len(events) == 0 {
		return fmt.Errorf("at least one event is required")
	}

	for i, ev := range events {
		if ev.AtMs < 0 {
			return fmt.Errorf("event %d: atMs cannot be negative", i)
		}
		if !validEventTypes[ev.Type] {
			return fmt.Errorf("event %d: unknown type %q", i, ev.Type)
		}
		switch ev.Type {
		case "scan":
			if ev.Serial == "" {
				return fmt.Errorf("event %d: scan events require serial", i)
			}
			if len(ev.Scan) == 0 {
				return fmt.Errorf("event %d: scan events require at least one sample", i)
			}
		case "bodyFrame":
			if len(ev.Body) == 0 {
				return fmt.Errorf("event %d: bodyFrame events require at least one body", i)
			}
		case "saveConfig":
			if ev.ConfigPatch == nil {
				return fmt.Errorf("event %d: saveConfig events require configPatch", i)
			}
		case "automaskRequest":
			if ev.AutomaskType != "new" && ev.AutomaskType != "clear" {
				return fmt.Errorf("event %d: automaskRequest automaskType must be \"new\" or \"clear\", got %q", i, ev.AutomaskType)
			}
		}
	}
	return nil
}

func validateWaitPeriods(waits []WaitPeriod) error {
	for i, w := range waits {
		if w.AtMs < 0 {
			return fmt.Errorf("wait period %d: atMs cannot be negative", i)
		}
	}
	return nil
}

func validateExpectations(expectations map[string][]Expectation) error {
	if len(expectations) == 0 {
		return fmt.Errorf("at least one expectation is required")
	}
	for layer, exps := range expectations {
		if layer == "" {
			return fmt.Errorf("expectation layer name cannot be empty")
		}
		for i, exp := range exps {
			if exp.AtMs < 0 {
				return fmt.Errorf("layer %s, expectation %d: atMs cannot be negative", layer, i)
			}
			if exp.Topic == "" {
				return fmt.Errorf("layer %s, expectation %d: topic is required", layer, i)
			}
			if exp.Count == nil && len(exp.Payload) == 0 && exp.Active == nil && exp.ListLength == nil {
				return fmt.Errorf("layer %s, expectation %d: one of count, payload, active, or listLength is required", layer, i)
			}
		}
	}
	return nil
}

// validateTimingConsistency warns about nothing fatal today but keeps
// the hook the teacher's validator has, for a single strict check:
// expectations must not precede the scenario's first event.
func validateTimingConsistency(s *Scenario) error {
	if len(s.Events) == 0 {
		return nil
	}
	var firstEventMs int64 = -1
	for _, ev := range s.Events {
		if firstEventMs == -1 || ev.AtMs < firstEventMs {
			firstEventMs = ev.AtMs
		}
	}

	var allExpMs []int64
	for _, exps := range s.Expectations {
		for _, exp := range exps {
			allExpMs = append(allExpMs, exp.AtMs)
		}
	}
	sort.Slice(allExpMs, func(i, j int) bool { return allExpMs[i] < allExpMs[j] })
	if len(allExpMs) > 0 && allExpMs[0] < firstEventMs {
		return fmt.Errorf("earliest expectation at %dms precedes first event at %dms", allExpMs[0], firstEventMs)
	}
	return nil
}
