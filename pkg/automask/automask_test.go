package automask

import "testing"

func TestMaskLearnsWall(t *testing.T) {
	s := New("dev1", 5, 50)
	var mask map[string]float32
	var done bool
	for i := 0; i < 5; i++ {
		mask, done = s.AddSamples([]Sample{{Angle: 90, Distance: 2000}})
	}
	if !done {
		t.Fatal("expected sampler complete after 5 scans")
	}
	if got := mask["90"]; got != 1950 {
		t.Fatalf("mask[90] = %v, want 1950", got)
	}
	if !s.Complete() {
		t.Fatal("expected Complete() true")
	}
}

func TestMaskMonotonicityTakesMinimum(t *testing.T) {
	s := New("dev1", 3, 50)
	s.AddSamples([]Sample{{Angle: 10, Distance: 2000}})
	s.AddSamples([]Sample{{Angle: 10, Distance: 1500}})
	mask, done := s.AddSamples([]Sample{{Angle: 10, Distance: 1800}})
	if !done {
		t.Fatal("expected complete")
	}
	if got := mask["10"]; got != 1450 {
		t.Fatalf("mask[10] = %v, want 1450 (min observed 1500 - margin 50)", got)
	}
}

func TestMaskDropsZeroAndNegativeCandidates(t *testing.T) {
	s := New("dev1", 1, 50)
	mask, done := s.AddSamples([]Sample{{Angle: 1, Distance: 0}, {Angle: 2, Distance: 30}})
	if !done {
		t.Fatal("expected complete")
	}
	if _, ok := mask["1"]; ok {
		t.Fatal("zero distance sample must not produce a mask entry")
	}
	if _, ok := mask["2"]; ok {
		t.Fatal("distance below margin must not produce a mask entry")
	}
}

func TestSamplerIsNoOpAfterComplete(t *testing.T) {
	s := New("dev1", 1, 50)
	s.AddSamples([]Sample{{Angle: 90, Distance: 2000}})
	mask, done := s.AddSamples([]Sample{{Angle: 90, Distance: 100}})
	if !done {
		t.Fatal("expected still complete")
	}
	if mask["90"] != 1950 {
		t.Fatal("further calls after completion must be no-ops")
	}
}
