// Package automask implements the per-device background-learning
// sampler (spec.md §4.1): it watches N scans and records, per
// integer-degree angle, the closest background return seen minus a
// safety margin.
package automask

import (
	"github.com/saaga0h/lidar2d-consolidation/pkg/device"
)

// Sample is a single (angle, distance) scan measurement in degrees and
// millimetres.
type Sample struct {
	Angle    float32
	Distance float32
}

// Sampler accumulates scans for one device until ScansRequired have
// been observed, then holds the final mask.
type Sampler struct {
	Serial          string
	ThresholdMargin float32
	scansRemaining  int
	thresholds      map[string]float32
}

// New creates a sampler that will learn from scansRequired scans,
// subtracting thresholdMargin mm from every observed minimum distance.
func New(serial string, scansRequired int, thresholdMargin float32) *Sampler {
	return &Sampler{
		Serial:          serial,
		ThresholdMargin: thresholdMargin,
		scansRemaining:  scansRequired,
		thresholds:      make(map[string]float32),
	}
}

// Resume reconstructs a sampler from a previously checkpointed
// scansRemaining/thresholds pair (pkg/statecache), so a sampling run
// interrupted by a restart continues rather than starting over.
func Resume(serial string, scansRemaining int, thresholds map[string]float32, thresholdMargin float32) *Sampler {
	if thresholds == nil {
		thresholds = make(map[string]float32)
	}
	return &Sampler{
		Serial:          serial,
		ThresholdMargin: thresholdMargin,
		scansRemaining:  scansRemaining,
		thresholds:      thresholds,
	}
}

// Progress returns the sampler's current checkpoint state, for callers
// that persist it between scans.
func (s *Sampler) Progress() (scansRemaining int, thresholds map[string]float32) {
	return s.scansRemaining, s.thresholds
}

// Complete reports whether sampling has finished.
func (s *Sampler) Complete() bool {
	return s.scansRemaining <= 0
}

// AddSamples folds one scan's samples into the running per-angle
// minimum. Once enough scans have counted down, further calls are
// no-ops and the mask is returned as final on every such call.
//
// Returns (mask, true) exactly on the frame that completes sampling,
// and on every call thereafter (mask, true) as well, so callers can
// treat "true" as "mask is ready" rather than "just completed".
func (s *Sampler) AddSamples(samples []Sample) (map[string]float32, bool) {
	if s.scansRemaining > 0 {
		for _, sample := range samples {
			if sample.Distance <= 0 {
				continue
			}
			candidate := sample.Distance - s.ThresholdMargin
			if candidate <= 0 {
				continue
			}
			key := device.MaskKey(sample.Angle)
			if existing, ok := s.thresholds[key]; !ok || candidate < existing {
				s.thresholds[key] = candidate
			}
		}
		s.scansRemaining--
	}

	if s.scansRemaining == 0 {
		return s.thresholds, true
	}
	return nil, false
}
