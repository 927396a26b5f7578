package movement

import (
	"testing"
	"time"

	"github.com/saaga0h/lidar2d-consolidation/pkg/geometry"
	"github.com/saaga0h/lidar2d-consolidation/pkg/smoothing"
)

func TestCalculateSumsVelocities(t *testing.T) {
	points := []smoothing.TrackedPoint{
		{ID: 1, Velocity: &geometry.Point{X: 1, Y: 2}},
		{ID: 2, Velocity: &geometry.Point{X: 3, Y: -1}},
	}
	sum := Calculate(points)
	if sum.X != 4 || sum.Y != 1 {
		t.Fatalf("sum = %+v, want (4, 1)", sum)
	}
}

func TestCalculateZeroWhenNoVelocities(t *testing.T) {
	points := []smoothing.TrackedPoint{{ID: 1}, {ID: 2}}
	sum := Calculate(points)
	if sum != (geometry.Point{}) {
		t.Fatalf("sum = %+v, want zero vector", sum)
	}
}

func TestCalculateZeroOnEmptyInput(t *testing.T) {
	if sum := Calculate(nil); sum != (geometry.Point{}) {
		t.Fatalf("sum = %+v, want zero vector", sum)
	}
}

func TestResetTimer(t *testing.T) {
	a := New()
	fake := time.Unix(1000, 0)
	a.nowFunc = func() time.Time { return fake }
	a.ResetTimer()
	if a.Elapsed() != 0 {
		t.Fatalf("expected 0 elapsed immediately after reset, got %v", a.Elapsed())
	}
	fake = fake.Add(50 * time.Millisecond)
	if a.Elapsed() != 50*time.Millisecond {
		t.Fatalf("elapsed = %v, want 50ms", a.Elapsed())
	}
}
