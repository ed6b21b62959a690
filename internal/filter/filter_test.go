package filter

import (
	"testing"

	"github.com/banshee-data/radar-pipeline/internal/wire"
)

func TestApplyDropsEmptySentinel(t *testing.T) {
	f := New(DefaultConfig())
	dets := f.Apply([]wire.RawTarget{{}}, 1)
	if len(dets) != 0 {
		t.Fatalf("got %d detections, want 0", len(dets))
	}
}

func TestApplySignalStrengthBoundary(t *testing.T) {
	cfg := DefaultConfig()
	f := New(cfg)

	below := wire.RawTarget{SignalStrengthDB: float32(cfg.SignalStrengthThresholdDB - 0.01), RangeM: 10, AzimuthDeg: 5, VelocityMS: 1}
	dets := f.Apply([]wire.RawTarget{below}, 1)
	if len(dets) != 0 {
		t.Fatalf("below threshold: got %d detections, want 0", len(dets))
	}

	f2 := New(cfg)
	at := wire.RawTarget{SignalStrengthDB: float32(cfg.SignalStrengthThresholdDB), RangeM: 10, AzimuthDeg: 5, VelocityMS: 1}
	dets2 := f2.Apply([]wire.RawTarget{at}, 1)
	if len(dets2) != 1 {
		t.Fatalf("at threshold: got %d detections, want 1", len(dets2))
	}
}

func TestApplyAzimuthBoundary(t *testing.T) {
	cfg := DefaultConfig()

	accepted := wire.RawTarget{SignalStrengthDB: 30, RangeM: 10, AzimuthDeg: float32(cfg.MaxAzimuthDeg), VelocityMS: 1}
	if got := New(cfg).Apply([]wire.RawTarget{accepted}, 1); len(got) != 1 {
		t.Fatalf("at MaxAz: got %d, want 1", len(got))
	}

	rejected := wire.RawTarget{SignalStrengthDB: 30, RangeM: 10, AzimuthDeg: float32(cfg.MaxAzimuthDeg + 0.01), VelocityMS: 1}
	if got := New(cfg).Apply([]wire.RawTarget{rejected}, 1); len(got) != 0 {
		t.Fatalf("past MaxAz: got %d, want 0", len(got))
	}
}

func TestApplyDirectionFromSign(t *testing.T) {
	cfg := DefaultConfig()
	targets := []wire.RawTarget{
		{SignalStrengthDB: 30, RangeM: 10, AzimuthDeg: 0, VelocityMS: 5},
		{SignalStrengthDB: 30, RangeM: 10, AzimuthDeg: 0, VelocityMS: -5},
		{SignalStrengthDB: 30, RangeM: 10, AzimuthDeg: 0, VelocityMS: 0},
	}
	dets := New(cfg).Apply(targets, 1)
	if len(dets) != 3 {
		t.Fatalf("got %d detections, want 3", len(dets))
	}
	want := []Direction{Incoming, Outgoing, Static}
	for i, d := range dets {
		if d.Direction != want[i] {
			t.Errorf("target %d: direction = %s, want %s", i, d.Direction, want[i])
		}
	}
}

func TestApplyMovingOnlyMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DetectOnlyMoving = true
	f := New(cfg)

	targets := []wire.RawTarget{
		{SignalStrengthDB: 30, RangeM: 10, AzimuthDeg: 0, VelocityMS: 0},
		{SignalStrengthDB: 30, RangeM: 10, AzimuthDeg: 0, VelocityMS: 2},
	}
	dets := f.Apply(targets, 1)
	if len(dets) != 1 {
		t.Fatalf("got %d detections, want 1", len(dets))
	}
}

func TestAngleSmootherWrapAround(t *testing.T) {
	s := NewAngleSmoother(3)
	s.Push(179.9)
	s.Push(-179.9)
	got := s.Push(179.9)
	if got < 175 || got > 185 {
		t.Fatalf("smoothed = %v, want near 180 (unwrapped)", got)
	}
}

func TestAngleSmootherIdempotentOnConstant(t *testing.T) {
	s1 := NewAngleSmoother(3)
	var once float64
	for i := 0; i < 5; i++ {
		once = s1.Push(45.0)
	}

	s2 := NewAngleSmoother(3)
	var twice float64
	for i := 0; i < 5; i++ {
		s2.Push(45.0)
		twice = s2.Push(45.0)
	}

	if once != twice {
		t.Errorf("applying smoother to constant sequence should converge: once=%v twice=%v", once, twice)
	}
}

func TestScalarKalmanConverges(t *testing.T) {
	k := NewScalarKalman(1e-5, 0.1)
	var last float64
	for i := 0; i < 50; i++ {
		last = k.Update(5.0)
	}
	if last < 4.9 || last > 5.1 {
		t.Fatalf("converged estimate = %v, want ~5.0", last)
	}
}
