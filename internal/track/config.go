package track

import "time"

// Config holds the tracker's gating, lifecycle, and capacity parameters.
type Config struct {
	DtSeconds float64 // Kalman transition time step

	MaxDistanceM  float64 // gating: max position residual
	AMaxMS2       float64 // gating: max plausible acceleration
	ProcessNoiseQ float64 // scalar q for the constant-acceleration Q block

	MaxAzimuthDeg float64 // output clamp: deployment field of view

	HitThreshold         int     // Age (matched updates, birth included) to promote Tentative -> Confirmed
	MinConfirmConfidence float64

	MissLimit           int     // consecutive misses before death
	MaxAgeSec           float64 // wallclock staleness before death
	LowConfidenceFloor  float64 // confidence floor combined with LowConfidenceAgeThreshold
	LowConfidenceAgeThreshold float64 // age (in updates) above which LowConfidenceFloor applies

	MaxTracks int

	UseHungarian bool // false selects GreedyAssign
}

// DefaultConfig returns the documented default tracker parameters.
func DefaultConfig() Config {
	return Config{
		DtSeconds:                0.1,
		MaxDistanceM:             2.0,
		AMaxMS2:                  20.0,
		ProcessNoiseQ:            1e-3,
		MaxAzimuthDeg:            75,
		HitThreshold:             3,
		MinConfirmConfidence:     0.3,
		MissLimit:                3,
		MaxAgeSec:                3.0,
		LowConfidenceFloor:       0.2,
		LowConfidenceAgeThreshold: 5.0,
		MaxTracks:                50,
		UseHungarian:             true,
	}
}

func (c Config) maxAge() time.Duration {
	return time.Duration(c.MaxAgeSec * float64(time.Second))
}
