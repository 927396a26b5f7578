// Package quad implements the region-of-interest-to-destination-
// rectangle projective transform (spec.md §4.4): a 3x3 homography
// computed from four source-to-destination point correspondences via
// the direct linear transform, solved with gonum's linear solver
// (grounded on the mat.Dense/mat.VecDense idiom used for sensor-fusion
// state in the pack's Valkyrie fusion package).
package quad

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/saaga0h/lidar2d-consolidation/pkg/geometry"
)

// ErrNotReady is returned by Transform/IsInside before any ROI has
// been configured.
var ErrNotReady = errors.New("quad: transformer has no ROI configured")

// OriginLocation selects which part of the destination rectangle maps
// to (0, 0) (spec.md §4.5/§6 originLocation).
type OriginLocation int

const (
	OriginCorner OriginLocation = iota
	OriginCloseCentre
	OriginCentre
)

// Quad is four corner points, ordered counter-clockwise from bottom-
// left (A, B, C, D) as drawn on a positive-Y-up graph (spec.md §3).
type Quad [4]geometry.Point

// DestinationQuad computes the destination rectangle for a given ROI
// and origin location (spec.md §4.4).
//
// useRealUnits selects between a real-unit rectangle (width =
// dist(A,B), height = dist(A,D)) and the unit square.
func DestinationQuad(roi Quad, origin OriginLocation, useRealUnits bool) Quad {
	var w, h float32
	if useRealUnits {
		w = geometry.Distance(roi[0], roi[1])
		h = geometry.Distance(roi[0], roi[3])
	} else {
		w, h = 1, 1
	}

	switch origin {
	case OriginCorner:
		return Quad{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
	case OriginCloseCentre:
		return Quad{{X: -w / 2, Y: 0}, {X: w / 2, Y: 0}, {X: w / 2, Y: h}, {X: -w / 2, Y: h}}
	default: // OriginCentre
		return Quad{
			{X: -w / 2, Y: -h / 2}, {X: w / 2, Y: -h / 2},
			{X: w / 2, Y: h / 2}, {X: -w / 2, Y: h / 2},
		}
	}
}

// Transformer maintains the 3x3 projective matrix mapping a source ROI
// quad onto a destination rectangle, plus the inside/outside test used
// to drop or keep out-of-range tracked points.
type Transformer struct {
	ready               bool
	matrix              *mat.Dense // 3x3 homography, src -> dst
	dst                 Quad
	includeOutside      bool
	ignoreOutsideMargin float32
}

// NewTransformer constructs a transformer with the given outside-
// handling policy. SetQuad must be called before Transform/IsInside
// report anything but ErrNotReady.
func NewTransformer(includeOutside bool, ignoreOutsideMargin float32) *Transformer {
	return &Transformer{includeOutside: includeOutside, ignoreOutsideMargin: ignoreOutsideMargin}
}

// IsReady reports whether a ROI has been configured.
func (t *Transformer) IsReady() bool { return t.ready }

// SetQuad (re)computes the homography matrix mapping src onto dst.
// Idempotent: calling with the same corners simply recomputes the same
// matrix.
func (t *Transformer) SetQuad(src, dst Quad) error {
	m, err := computeHomography(src, dst)
	if err != nil {
		return err
	}
	t.matrix = m
	t.dst = dst
	t.ready = true
	return nil
}

// Transform applies the homography to a source-space point.
func (t *Transformer) Transform(p geometry.Point) (geometry.Point, error) {
	if !t.ready {
		return geometry.Point{}, ErrNotReady
	}
	x, y := float64(p.X), float64(p.Y)
	var v mat.VecDense
	v.MulVec(t.matrix, mat.NewVecDense(3, []float64{x, y, 1}))
	w := v.AtVec(2)
	if w == 0 {
		w = 1e-12
	}
	return geometry.Point{X: float32(v.AtVec(0) / w), Y: float32(v.AtVec(1) / w)}, nil
}

// IsInside reports whether p (already in destination-quad space) lies
// within the destination rectangle, expanded by ignoreOutsideMargin on
// each side (spec.md §4.4). Always true if includeOutside is set.
func (t *Transformer) IsInside(p geometry.Point) (bool, error) {
	if !t.ready {
		return false, ErrNotReady
	}
	if t.includeOutside {
		return true, nil
	}

	minX, maxX := t.dst[0].X, t.dst[0].X
	minY, maxY := t.dst[0].Y, t.dst[0].Y
	for _, c := range t.dst {
		if c.X < minX {
			minX = c.X
		}
		if c.X > maxX {
			maxX = c.X
		}
		if c.Y < minY {
			minY = c.Y
		}
		if c.Y > maxY {
			maxY = c.Y
		}
	}
	margin := t.ignoreOutsideMargin
	inside := p.X >= minX-margin && p.X <= maxX+margin &&
		p.Y >= minY-margin && p.Y <= maxY+margin
	return inside, nil
}

// computeHomography solves for the 3x3 matrix H such that, up to
// scale, H * [src.x, src.y, 1]^T ~ [dst.x, dst.y, 1]^T for all four
// correspondences (the standard direct linear transform). h33 is
// pinned to 1, leaving 8 unknowns solved from an 8x8 linear system.
func computeHomography(src, dst Quad) (*mat.Dense, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		sx, sy := float64(src[i].X), float64(src[i].Y)
		dx, dy := float64(dst[i].X), float64(dst[i].Y)

		row := 2 * i
		a.SetRow(row, []float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx})
		b.SetVec(row, dx)

		row = 2*i + 1
		a.SetRow(row, []float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy})
		b.SetVec(row, dy)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return nil, errors.New("quad: degenerate ROI, cannot solve homography: " + err.Error())
	}

	m := mat.NewDense(3, 3, []float64{
		h.AtVec(0), h.AtVec(1), h.AtVec(2),
		h.AtVec(3), h.AtVec(4), h.AtVec(5),
		h.AtVec(6), h.AtVec(7), 1,
	})
	return m, nil
}

// Inverse returns a transformer for the inverse mapping (dst -> src),
// used by round-trip tests (spec.md §8).
func (t *Transformer) Inverse() (*Transformer, error) {
	if !t.ready {
		return nil, ErrNotReady
	}
	var inv mat.Dense
	if err := inv.Inverse(t.matrix); err != nil {
		return nil, errors.New("quad: matrix not invertible: " + err.Error())
	}
	return &Transformer{ready: true, matrix: &inv, dst: t.dst}, nil
}
