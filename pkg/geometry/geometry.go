// Package geometry provides the small set of 2D primitives shared by
// every stage of the perception pipeline: distance, centroid, linear
// interpolation, and compass-style bearing.
package geometry

import "github.com/chewxy/math32"

// Point is a 2D position in millimetres (world/device frame) or in
// destination-quad units, depending on the stage producing it.
type Point struct {
	X, Y float32
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float32 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math32.Sqrt(dx*dx + dy*dy)
}

// Centroid returns the average position of points. The zero Point is
// returned for an empty slice; callers with non-empty slices (the only
// case the pipeline ever calls this with) get a well-defined average.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sx, sy float32
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	n := float32(len(points))
	return Point{X: sx / n, Y: sy / n}
}

// Lerp linearly interpolates from a to b by t, componentwise.
func Lerp(a, b, t float32) float32 {
	return a*(1-t) + b*t
}

// LerpPoint interpolates a point's components independently.
func LerpPoint(a, b Point, t float32) Point {
	return Point{X: Lerp(a.X, b.X, t), Y: Lerp(a.Y, b.Y, t)}
}

// Bearing returns the clockwise angle, in degrees [0, 360), between the
// ray from the origin to (0, +Y) and the ray from the origin to (x, y).
// This is the "heading" used throughout the tracking smoother.
func Bearing(x, y float32) float32 {
	angleRad := math32.Atan2(y, x)
	angleDeg := angleRad * (180.0 / math32.Pi)

	heading := math32.Mod(90.0-angleDeg, 360.0)
	if heading < 0 {
		heading += 360.0
	}
	return heading
}
