package quad

import (
	"math"
	"testing"

	"github.com/saaga0h/lidar2d-consolidation/pkg/geometry"
)

func unitSquareROI() Quad {
	return Quad{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
}

func TestNotReadyBeforeSetQuad(t *testing.T) {
	tr := NewTransformer(false, 0)
	if tr.IsReady() {
		t.Fatal("expected not ready before SetQuad")
	}
	if _, err := tr.Transform(geometry.Point{}); err != ErrNotReady {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestHomographyRoundTrip(t *testing.T) {
	// A non-rectangular (trapezoidal) ROI: a believable LIDAR FOV quad.
	src := Quad{{X: -500, Y: 0}, {X: 1500, Y: 0}, {X: 1000, Y: 2000}, {X: 0, Y: 2000}}
	dst := DestinationQuad(src, OriginCorner, true)

	tr := NewTransformer(true, 0)
	if err := tr.SetQuad(src, dst); err != nil {
		t.Fatalf("SetQuad: %v", err)
	}
	inv, err := tr.Inverse()
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}

	testPoints := []geometry.Point{{X: 250, Y: 1000}, {X: -200, Y: 500}, {X: 900, Y: 1800}}
	for _, p := range testPoints {
		transformed, err := tr.Transform(p)
		if err != nil {
			t.Fatalf("Transform: %v", err)
		}
		back, err := inv.Transform(transformed)
		if err != nil {
			t.Fatalf("inverse Transform: %v", err)
		}
		if math.Abs(float64(back.X-p.X)) > 1e-4*1000 || math.Abs(float64(back.Y-p.Y)) > 1e-4*1000 {
			// Tolerance scaled for float32 precision over mm-scale coordinates;
			// spec's 1e-4 tolerance assumes double precision end to end.
			t.Fatalf("round trip: got %+v, want %+v", back, p)
		}
	}
}

func TestOutsideROIDrop(t *testing.T) {
	src := unitSquareROI()
	dst := DestinationQuad(src, OriginCorner, false)

	trTight := NewTransformer(false, 0)
	if err := trTight.SetQuad(src, dst); err != nil {
		t.Fatalf("SetQuad: %v", err)
	}
	inside, err := trTight.IsInside(geometry.Point{X: 1.5, Y: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if inside {
		t.Fatal("expected point outside margin-0 rectangle to be dropped")
	}

	trLoose := NewTransformer(false, 0.6)
	if err := trLoose.SetQuad(src, dst); err != nil {
		t.Fatalf("SetQuad: %v", err)
	}
	inside, err = trLoose.IsInside(geometry.Point{X: 1.5, Y: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if !inside {
		t.Fatal("expected point inside 0.6-margin rectangle to be kept")
	}
}

func TestIncludeOutsideAlwaysTrue(t *testing.T) {
	src := unitSquareROI()
	dst := DestinationQuad(src, OriginCorner, false)
	tr := NewTransformer(true, 0)
	if err := tr.SetQuad(src, dst); err != nil {
		t.Fatal(err)
	}
	inside, err := tr.IsInside(geometry.Point{X: 100, Y: 100})
	if err != nil {
		t.Fatal(err)
	}
	if !inside {
		t.Fatal("includeOutside must always report inside")
	}
}

func TestDestinationQuadOriginLocations(t *testing.T) {
	roi := Quad{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 50}, {X: 0, Y: 50}}

	corner := DestinationQuad(roi, OriginCorner, true)
	if corner[0] != (geometry.Point{X: 0, Y: 0}) || corner[2] != (geometry.Point{X: 100, Y: 50}) {
		t.Fatalf("corner quad = %+v", corner)
	}

	centre := DestinationQuad(roi, OriginCentre, true)
	if centre[0] != (geometry.Point{X: -50, Y: -25}) {
		t.Fatalf("centre quad[0] = %+v, want (-50,-25)", centre[0])
	}

	closeCentre := DestinationQuad(roi, OriginCloseCentre, true)
	if closeCentre[0] != (geometry.Point{X: -50, Y: 0}) {
		t.Fatalf("closeCentre quad[0] = %+v, want (-50,0)", closeCentre[0])
	}
}

func TestDestinationQuadUnitSquareWhenNotRealUnits(t *testing.T) {
	roi := Quad{{X: 0, Y: 0}, {X: 500, Y: 0}, {X: 500, Y: 300}, {X: 0, Y: 300}}
	corner := DestinationQuad(roi, OriginCorner, false)
	if corner[2] != (geometry.Point{X: 1, Y: 1}) {
		t.Fatalf("expected unit square regardless of ROI size, got %+v", corner[2])
	}
}
