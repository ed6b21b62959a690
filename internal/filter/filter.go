package filter

import (
	"math"

	"github.com/banshee-data/radar-pipeline/internal/wire"
)

const (
	scalarProcessNoise     = 1e-5
	scalarMeasurementNoise = 0.1
)

// Filter runs the per-frame detection gate and smoothing pass. The azimuth
// smoother persists across frames (it tracks bearing continuity between
// successive detections); the velocity Kalman filter is reconstructed fresh
// for every frame, per the radar's documented behavior.
type Filter struct {
	cfg      Config
	azimuth  *AngleSmoother
	dropped  uint64
	accepted uint64
}

// New returns a Filter with the given config.
func New(cfg Config) *Filter {
	size := cfg.AzimuthWindowSize
	if size <= 0 {
		size = 3
	}
	return &Filter{cfg: cfg, azimuth: NewAngleSmoother(size)}
}

// Stats returns running counters for dropped and accepted targets.
func (f *Filter) Stats() (dropped, accepted uint64) {
	return f.dropped, f.accepted
}

// Apply runs the 8-step gate over one frame's valid targets in order.
// A target failing any gate is dropped and never reaches later steps.
func (f *Filter) Apply(raw []wire.RawTarget, frameID uint16) []Detection {
	velocityFilter := NewScalarKalman(scalarProcessNoise, scalarMeasurementNoise)

	out := make([]Detection, 0, len(raw))
	for _, t := range raw {
		// 1. empty slot sentinel
		if t.IsEmptySentinel() {
			continue
		}

		// 2. signal strength gate
		if f.cfg.UseSignalBracket {
			if float64(t.SignalStrengthDB) < f.cfg.MinSignalStrength || float64(t.SignalStrengthDB) > f.cfg.MaxSignalStrength {
				f.dropped++
				continue
			}
		} else if float64(t.SignalStrengthDB) < f.cfg.SignalStrengthThresholdDB {
			f.dropped++
			continue
		}

		// 3. range gate
		rangeM := float64(t.RangeM)
		if rangeM > f.cfg.MaxRangeM || rangeM < 0 {
			f.dropped++
			continue
		}

		// 4. azimuth gate (pre-smoothing, on the raw bearing)
		if math.Abs(float64(t.AzimuthDeg)) > f.cfg.MaxAzimuthDeg {
			f.dropped++
			continue
		}

		// 5. moving-only / static-only mode
		rawVelocity := float64(t.VelocityMS)
		if f.cfg.DetectOnlyMoving && rawVelocity == 0 {
			f.dropped++
			continue
		}
		if f.cfg.DetectOnlyStatic && rawVelocity != 0 {
			f.dropped++
			continue
		}

		// 6. velocity smoothing, stateless across frames
		smoothedVelocity := velocityFilter.Update(rawVelocity)

		// 7. direction from sign of the raw velocity, speed from the
		// smoothed magnitude
		direction := Static
		switch {
		case rawVelocity > 0:
			direction = Incoming
		case rawVelocity < 0:
			direction = Outgoing
		}

		// 8. azimuth smoothing, wrap-safe, persists across frames
		smoothedAzimuth := f.azimuth.Push(float64(t.AzimuthDeg))

		out = append(out, Detection{
			FrameID:          frameID,
			SignalStrengthDB: float64(t.SignalStrengthDB),
			RangeM:           rangeM,
			VelocityMS:       smoothedVelocity,
			Speed:            math.Abs(smoothedVelocity),
			Direction:        direction,
			AzimuthDeg:       smoothedAzimuth,
		})
		f.accepted++
	}

	return out
}
