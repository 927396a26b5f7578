// Package smoothing implements the tracking smoother (spec.md §4.5): the
// temporal-identity layer that turns per-frame raw tracked points into a
// stable stream of smoothed, identified points. Grounded on
// original_source/src/systems/smoothing.rs, translated from its
// Vec<SmoothedPoint>/SystemTime idiom into Go slices and time.Time.
package smoothing

import (
	"time"

	"github.com/saaga0h/lidar2d-consolidation/pkg/geometry"
)

// EmptyListSendMode controls whether Emit reports an empty result.
type EmptyListSendMode int

const (
	EmptyListNever EmptyListSendMode = iota
	EmptyListOnce
	EmptyListAlways
)

// Settings are the smoother's frozen-at-construction parameters
// (spec.md §4.5), rebuilt whenever config is reloaded.
type Settings struct {
	MergeRadius         float32
	WaitBeforeActiveMs  int64
	ExpireMs            int64
	LerpFactor          float32
	EmptyListSendMode   EmptyListSendMode
	CalculateVelocity   bool
	CalculateHeading    bool
}

// TrackedPoint is one emitted, identified, ready smoothed point.
type TrackedPoint struct {
	ID       int64
	Position geometry.Point
	Velocity *geometry.Point
	Heading  *float32
}

type smoothedPoint struct {
	id              int64
	current, target geometry.Point
	velocity        *geometry.Point
	ready           bool
	firstSeen       time.Time
	lastUpdated     time.Time
}

// Smoother is the tracking smoother. Not safe for concurrent use; the
// orchestrator drives it from a single goroutine (spec.md §5).
type Smoother struct {
	settings       Settings
	points         []*smoothedPoint
	emptyListsSent int
	sawNonEmpty    bool
	lastTick       time.Time

	// nowFunc is overridable in tests; production code leaves it nil and
	// falls back to time.Now.
	nowFunc func() time.Time
}

// New constructs a tracking smoother. LerpFactor must be in (0, 1];
// callers are expected to validate config before construction.
func New(settings Settings) *Smoother {
	return &Smoother{settings: settings, lastTick: time.Now()}
}

func (s *Smoother) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now()
}

// SetNowFunc overrides the smoother's clock, for deterministic testing
// by callers outside this package (e.g. the orchestrator).
func (s *Smoother) SetNowFunc(f func() time.Time) {
	s.nowFunc = f
	s.lastTick = f()
}

// Ingest associates raw points with existing identities (within
// MergeRadius), updates their target positions to the centroid of
// associated points, and creates new identities for unclaimed points
// (spec.md §4.5 ingest).
func (s *Smoother) Ingest(points []geometry.Point) {
	now := s.now()
	claimed := make([]bool, len(points))

	for _, sp := range s.points {
		var inRange []geometry.Point
		for i, p := range points {
			if geometry.Distance(p, sp.current) <= s.settings.MergeRadius {
				inRange = append(inRange, p)
				claimed[i] = true
			}
		}
		if len(inRange) == 0 {
			continue
		}
		sp.lastUpdated = now
		if !sp.ready && now.Sub(sp.firstSeen).Milliseconds() > s.settings.WaitBeforeActiveMs {
			sp.ready = true
		}
		sp.target = geometry.Centroid(inRange)
	}

	for i, p := range points {
		if claimed[i] {
			continue
		}
		s.points = append(s.points, &smoothedPoint{
			id:          now.UnixMilli(),
			current:     p,
			target:      p,
			ready:       s.settings.WaitBeforeActiveMs == 0,
			firstSeen:   now,
			lastUpdated: now,
		})
	}
}

// Tick advances time-based state: pruning stalled-unready identities,
// merging duplicates, expiring stale identities, and interpolating
// surviving ones toward their targets (spec.md §4.5 tick, strict order).
func (s *Smoother) Tick() {
	now := s.now()
	s.lastTick = now

	s.pruneStalledUnready(now)
	s.mergeDuplicates()
	s.expire(now)
	s.interpolate()
}

func (s *Smoother) pruneStalledUnready(now time.Time) {
	kept := s.points[:0]
	for _, p := range s.points {
		if !p.ready && now.Sub(p.lastUpdated).Milliseconds() > s.settings.WaitBeforeActiveMs {
			continue
		}
		kept = append(kept, p)
	}
	s.points = kept
}

// mergeDuplicates removes at most one duplicate per tick, keeping the
// earlier-first_seen identity (spec.md §4.5 step 2); remaining
// duplicates converge over subsequent ticks.
func (s *Smoother) mergeDuplicates() {
	for i, a := range s.points {
		if !a.ready {
			continue
		}
		for j, b := range s.points {
			if i == j || !b.ready {
				continue
			}
			if geometry.Distance(a.current, b.current) < s.settings.MergeRadius {
				removeIdx := i
				if a.firstSeen.Before(b.firstSeen) {
					removeIdx = j
				}
				s.points = append(s.points[:removeIdx], s.points[removeIdx+1:]...)
				return
			}
		}
	}
}

func (s *Smoother) expire(now time.Time) {
	kept := s.points[:0]
	for _, p := range s.points {
		if now.Sub(p.lastUpdated).Milliseconds() > s.settings.ExpireMs {
			continue
		}
		kept = append(kept, p)
	}
	s.points = kept
}

func (s *Smoother) interpolate() {
	t := s.settings.LerpFactor
	for _, p := range s.points {
		newPos := geometry.LerpPoint(p.current, p.target, t)
		if s.settings.CalculateVelocity {
			v := geometry.Point{X: p.target.X - p.current.X, Y: p.target.Y - p.current.Y}
			p.velocity = &v
		}
		p.current = newPos
	}
}

// Emit returns the ready smoothed points, honoring EmptyListSendMode
// (spec.md §4.5 emit), or nil if emission is suppressed this call.
func (s *Smoother) Emit() []TrackedPoint {
	var out []TrackedPoint
	for _, p := range s.points {
		if !p.ready {
			continue
		}
		tp := TrackedPoint{ID: p.id, Position: p.current, Velocity: p.velocity}
		if s.settings.CalculateHeading {
			h := geometry.Bearing(p.current.X, p.current.Y)
			tp.Heading = &h
		}
		out = append(out, tp)
	}

	count := len(out)
	var result []TrackedPoint
	suppressed := true
	switch s.settings.EmptyListSendMode {
	case EmptyListAlways:
		result, suppressed = out, false
	case EmptyListOnce:
		// Once means the first empty list after any non-empty sequence
		// (spec.md §4.5), not an empty list at startup before anything
		// has ever been tracked.
		if count > 0 || (s.sawNonEmpty && s.emptyListsSent < 1) {
			result, suppressed = out, false
		}
	case EmptyListNever:
		if count > 0 {
			result, suppressed = out, false
		}
	}

	if count == 0 {
		s.emptyListsSent++
	} else {
		s.emptyListsSent = 0
		s.sawNonEmpty = true
	}

	if suppressed {
		return nil
	}
	if result == nil {
		result = []TrackedPoint{}
	}
	return result
}

// LastTick reports when Tick was last called.
func (s *Smoother) LastTick() time.Time { return s.lastTick }

// Count reports the current number of tracked identities (ready or not),
// used by tests and diagnostics.
func (s *Smoother) Count() int { return len(s.points) }
