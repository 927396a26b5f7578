// Package movement implements the aggregate movement derivation
// (spec.md §4.7): a periodic sum of the velocity vectors of currently
// emitted tracked points. Grounded on
// original_source/src/systems/movement.rs.
package movement

import (
	"time"

	"github.com/saaga0h/lidar2d-consolidation/pkg/geometry"
	"github.com/saaga0h/lidar2d-consolidation/pkg/smoothing"
)

// Aggregator tracks its own emission timer, reset by ResetTimer, so the
// orchestrator can gate on Elapsed() against movement_interval_ms.
type Aggregator struct {
	lastEmitted time.Time
	nowFunc     func() time.Time
}

// New constructs a movement aggregator with its timer started now.
func New() *Aggregator {
	return &Aggregator{lastEmitted: time.Now()}
}

func (a *Aggregator) now() time.Time {
	if a.nowFunc != nil {
		return a.nowFunc()
	}
	return time.Now()
}

// SetNowFunc overrides the aggregator's clock, for deterministic
// testing by callers outside this package (e.g. the orchestrator).
func (a *Aggregator) SetNowFunc(f func() time.Time) {
	a.nowFunc = f
	a.lastEmitted = f()
}

// Elapsed reports time since the last reset.
func (a *Aggregator) Elapsed() time.Duration {
	return a.now().Sub(a.lastEmitted)
}

// ResetTimer restarts the emission interval.
func (a *Aggregator) ResetTimer() {
	a.lastEmitted = a.now()
}

// Calculate sums the velocity vectors of the given tracked points,
// returning the zero vector if none carry velocity (spec.md §4.7:
// "if no points are available, emit (0, 0)").
func Calculate(points []smoothing.TrackedPoint) geometry.Point {
	var sum geometry.Point
	for _, p := range points {
		if p.Velocity == nil {
			continue
		}
		sum.X += p.Velocity.X
		sum.Y += p.Velocity.Y
	}
	return sum
}
