package device

import "testing"

func TestMaskKeyRoundsHalfAwayFromZero(t *testing.T) {
	cases := map[float32]string{
		0:    "0",
		0.4:  "0",
		0.5:  "1",
		-0.5: "-1",
		89.6: "90",
	}
	for in, want := range cases {
		if got := MaskKey(in); got != want {
			t.Errorf("MaskKey(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestPointFromSampleDropsZeroDistance(t *testing.T) {
	d := NewDefault("abc", 0, 20)
	if _, ok := d.PointFromSample(0, 0); ok {
		t.Fatal("expected drop for zero distance")
	}
}

func TestPointFromSampleDropsBelowMinDistance(t *testing.T) {
	d := NewDefault("abc", 0, 50)
	if _, ok := d.PointFromSample(0, 50); ok {
		t.Fatal("expected drop at exactly min distance threshold")
	}
	if _, ok := d.PointFromSample(0, 49); ok {
		t.Fatal("expected drop below min distance threshold")
	}
}

func TestPointFromSampleNoRotation(t *testing.T) {
	d := NewDefault("abc", 0, 10)
	p, ok := d.PointFromSample(0, 1000)
	if !ok {
		t.Fatal("expected point")
	}
	if p.X < 999.9 || p.X > 1000.1 || p.Y < -0.1 || p.Y > 0.1 {
		t.Fatalf("unexpected point %+v", p)
	}
}

func TestPointFromSampleMaskDrop(t *testing.T) {
	d := NewDefault("abc", 0, 10)
	d.ScanMaskThresholds = map[string]float32{"90": 1950}
	if _, ok := d.PointFromSample(90, 2100); ok {
		t.Fatal("expected drop: distance beyond mask boundary")
	}
	if _, ok := d.PointFromSample(90, 1950); ok {
		t.Fatal("expected drop at exactly mask boundary too")
	}
	if _, ok := d.PointFromSample(90, 1000); !ok {
		t.Fatal("expected point well inside mask boundary")
	}
}

func TestPointFromSampleFlipParity(t *testing.T) {
	d := NewDefault("abc", 0, 10)
	d.Rotation = 10
	d.FlipCoords = &FlipCoords{X: 1, Y: -1}
	// fx != fy, so rotation sense flips: angle - rotation = -10 degrees,
	// giving (1000*cos(-10°), -1*1000*sin(-10°)) = (984.8, 173.6).
	p, ok := d.PointFromSample(0, 1000)
	if !ok {
		t.Fatal("expected point")
	}
	if p.X < 984.7 || p.X > 984.9 || p.Y < 173.5 || p.Y > 173.7 {
		t.Fatalf("unexpected point %+v", p)
	}
}

func TestColourForIndexCycles(t *testing.T) {
	first := ColourForIndex(0)
	if ColourForIndex(len(palette)) != first {
		t.Fatal("expected palette to cycle")
	}
}
