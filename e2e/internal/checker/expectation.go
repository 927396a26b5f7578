package checker

import (
	"fmt"
	"strings"

	"github.com/saaga0h/lidar2d-consolidation/pkg/bus"
	"github.com/saaga0h/lidar2d-consolidation/e2e/internal/scenario"
)

// CheckExpectation validates an Expectation against every publish
// recorded for its topic. For the presence topic, whose payload is a
// raw single byte rather than msgpack, it checks Expectation.Active
// directly; every other topic is msgpack-decoded and matched against
// Expectation.Payload (optionally indexed, for list-shaped payloads)
// and/or Expectation.Count.
func CheckExpectation(exp scenario.Expectation, publishes []bus.FakePublish) (bool, string, interface{}) {
	if exp.Count != nil && len(publishes) != *exp.Count {
		return false, fmt.Sprintf("expected %d publishes to %q, got %d", *exp.Count, exp.Topic, len(publishes)), len(publishes)
	}

	if len(publishes) == 0 {
		if exp.Count != nil && len(exp.Payload) == 0 && exp.Active == nil && exp.ListLength == nil {
			return true, "", 0
		}
		return false, fmt.Sprintf("no messages published to topic %q", exp.Topic), nil
	}
	latest := publishes[len(publishes)-1]

	if strings.HasPrefix(exp.Topic, "presenceDetection/presence/") {
		active := len(latest.Payload) == 1 && latest.Payload[0] == 0x01
		if exp.Active != nil && active != *exp.Active {
			return false, fmt.Sprintf("expected zone active=%v, got %v", *exp.Active, active), active
		}
		return true, "", active
	}

	var decoded interface{}
	if err := bus.Unmarshal(latest.Payload, &decoded); err != nil {
		return false, fmt.Sprintf("failed to decode payload: %v", err), nil
	}

	if exp.ListLength != nil {
		list, ok := decoded.([]interface{})
		if !ok {
			return false, fmt.Sprintf("expected a list-shaped payload, got %T", decoded), decoded
		}
		if len(list) != *exp.ListLength {
			return false, fmt.Sprintf("expected list length %d, got %d", *exp.ListLength, len(list)), decoded
		}
		if len(exp.Payload) == 0 {
			return true, "", decoded
		}
	}

	if len(exp.Payload) == 0 {
		return true, "", decoded
	}

	target := decoded
	if list, ok := decoded.([]interface{}); ok {
		if exp.Index >= len(list) {
			return false, fmt.Sprintf("index %d out of range for a %d-element list", exp.Index, len(list)), decoded
		}
		target = list[exp.Index]
	}

	targetMap, ok := target.(map[string]interface{})
	if !ok {
		return false, fmt.Sprintf("payload element is not a map, got %T", target), decoded
	}
	for field, expected := range exp.Payload {
		actual, exists := targetMap[field]
		if !exists {
			return false, fmt.Sprintf("missing field %q", field), decoded
		}
		if matched, reason := MatchValue(actual, expected); !matched {
			return false, fmt.Sprintf("field %q: %s", field, reason), decoded
		}
	}
	return true, "", decoded
}
