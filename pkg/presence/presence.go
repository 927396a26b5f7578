// Package presence implements the zone presence detector (spec.md
// §4.6): a set of axis-aligned rectangular zones, each with an active
// flag toggled by hysteresis against its last-seen-inside timestamp.
// Grounded on the hysteresis-gate structure of the teacher's
// internal/occupancy/gates.go (state only flips after a timing
// condition holds), adapted from confidence/time gates to a single
// presence_timeout gate per original_source/src/systems/presence.rs.
package presence

import (
	"time"

	"github.com/saaga0h/lidar2d-consolidation/pkg/geometry"
)

// DefaultTimeout is the hysteresis window before a zone is considered
// vacated, hardcoded in the system this was consolidated from.
const DefaultTimeout = 500 * time.Millisecond

// Zone is an axis-aligned rectangular region with hysteresis state.
type Zone struct {
	Name   string
	X, Y   float32
	Width  float32
	Height float32

	Active         bool
	LastSeenInside time.Time
}

func (z *Zone) contains(p geometry.Point) bool {
	return p.X > z.X && p.X < z.X+z.Width && p.Y > z.Y && p.Y < z.Y+z.Height
}

// Detector tracks a fixed list of zones across ticks.
type Detector struct {
	zones   []*Zone
	timeout time.Duration
	nowFunc func() time.Time
}

// New constructs a presence detector over the given zones. Zones are
// held by reference; the caller retains ownership of the slice
// contents (spec.md §4.6 "zones list held by reference").
func New(zones []*Zone, timeout time.Duration) *Detector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Detector{zones: zones, timeout: timeout}
}

func (d *Detector) now() time.Time {
	if d.nowFunc != nil {
		return d.nowFunc()
	}
	return time.Now()
}

// SetNowFunc overrides the detector's clock, for deterministic testing
// by callers outside this package (e.g. the orchestrator).
func (d *Detector) SetNowFunc(f func() time.Time) {
	d.nowFunc = f
}

// Update evaluates every zone against the current tracked points and
// returns the zones whose active flag changed this call, entries
// before exits, each group in zone-definition order (spec.md §4.6).
func (d *Detector) Update(points []geometry.Point) []*Zone {
	now := d.now()

	var entries, exits []*Zone
	for _, z := range d.zones {
		for _, p := range points {
			if z.contains(p) {
				z.LastSeenInside = now
				if !z.Active {
					z.Active = true
					entries = append(entries, z)
				}
				break
			}
		}
	}

	for _, z := range d.zones {
		if z.Active && now.Sub(z.LastSeenInside) > d.timeout {
			z.Active = false
			exits = append(exits, z)
		}
	}

	changed := make([]*Zone, 0, len(entries)+len(exits))
	changed = append(changed, entries...)
	changed = append(changed, exits...)
	return changed
}

// Zones returns the detector's current zone list.
func (d *Detector) Zones() []*Zone { return d.zones }
