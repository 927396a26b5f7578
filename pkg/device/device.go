// Package device models the per-sensor placement, orientation, and
// masking state that the clustering stage consults when turning raw
// LIDAR samples into world-frame points.
package device

import (
	"strconv"

	"github.com/chewxy/math32"

	"github.com/saaga0h/lidar2d-consolidation/pkg/geometry"
)

// palette is the small, fixed set of display colours cycled through as
// new devices are auto-created. Order matters: the Nth unseen device
// gets palette[N % len(palette)].
var palette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8",
	"#f58231", "#911eb4", "#46f0f0", "#f032e6",
}

// ColourForIndex returns the display colour for the nth device created
// (0-indexed), cycling through the fixed palette.
func ColourForIndex(n int) string {
	return palette[n%len(palette)]
}

// FlipCoords is an optional per-axis mirror applied to a device's
// placement, each component constrained to {-1, +1}.
type FlipCoords struct {
	X, Y int8
}

// Device is a single LIDAR sensor's placement and masking state.
type Device struct {
	Serial               string
	Name                 string
	Rotation             float32 // degrees, clockwise
	X, Y                 float32 // placement offset, mm
	Colour               string
	MinDistanceThreshold float32 // mm
	ScanMaskThresholds   map[string]float32
	FlipCoords           *FlipCoords
}

// New constructs a device with only its serial set and the name equal
// to the serial; every other field is zero.
func New(serial string) *Device {
	return &Device{Serial: serial, Name: serial}
}

// NewDefault constructs a device with the defaults applied on first
// sight of an unknown serial: zero placement, the given default minimum
// distance threshold, and a palette colour selected by creation index.
func NewDefault(serial string, paletteIndex int, defaultMinDistance float32) *Device {
	return &Device{
		Serial:               serial,
		Name:                 serial,
		Rotation:             0,
		X:                    0,
		Y:                    0,
		Colour:               ColourForIndex(paletteIndex),
		MinDistanceThreshold: defaultMinDistance,
	}
}

// ClearMask removes any learned automask thresholds for this device.
func (d *Device) ClearMask() {
	d.ScanMaskThresholds = nil
}

// MaskKey buckets an angle in degrees to the nearest integer-degree
// string key used to index ScanMaskThresholds. Rounds half away from
// zero (spec.md §9 leaves the rounding rule to the implementer, this
// is the rule documented and used throughout this module).
func MaskKey(angle float32) string {
	return strconv.Itoa(int(math32.Round(angle)))
}

// PointFromSample converts one (angle, distance) scan sample to a world
// point, or reports ok=false if the sample should be dropped (spec.md
// §4.2).
func (d *Device) PointFromSample(angleDeg, distanceMM float32) (geometry.Point, bool) {
	if distanceMM <= 0 {
		return geometry.Point{}, false
	}
	if distanceMM <= d.MinDistanceThreshold {
		return geometry.Point{}, false
	}
	if d.ScanMaskThresholds != nil {
		if maskDist, exists := d.ScanMaskThresholds[MaskKey(angleDeg)]; exists {
			if distanceMM >= maskDist {
				return geometry.Point{}, false
			}
		}
	}

	if d.FlipCoords == nil {
		theta := (angleDeg + d.Rotation) * (math32.Pi / 180.0)
		return geometry.Point{
			X: d.X + distanceMM*math32.Cos(theta),
			Y: d.Y + distanceMM*math32.Sin(theta),
		}, true
	}

	fx, fy := float32(d.FlipCoords.X), float32(d.FlipCoords.Y)
	var thetaDeg float32
	if d.FlipCoords.X == d.FlipCoords.Y {
		thetaDeg = angleDeg + d.Rotation
	} else {
		thetaDeg = angleDeg - d.Rotation
	}
	theta := thetaDeg * (math32.Pi / 180.0)
	return geometry.Point{
		X: d.X + fx*distanceMM*math32.Cos(theta),
		Y: d.Y + fy*distanceMM*math32.Sin(theta),
	}, true
}
