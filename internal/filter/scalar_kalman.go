// Package filter turns raw radar targets into smoothed, gated detections.
package filter

// ScalarKalman is a 1-D Kalman filter over a single scalar measurement
// stream. The detection filter constructs a fresh one per frame, so it
// carries no memory across frames: the per-track filter in package track
// is where cross-frame smoothing actually happens.
type ScalarKalman struct {
	processNoise     float64
	measurementNoise float64

	estimate   float64
	errorCovar float64
	primed     bool
}

// NewScalarKalman returns a filter with the given process and measurement
// noise variances, uninitialized until the first Update.
func NewScalarKalman(processNoise, measurementNoise float64) *ScalarKalman {
	return &ScalarKalman{processNoise: processNoise, measurementNoise: measurementNoise}
}

// Update feeds one measurement and returns the smoothed estimate.
func (k *ScalarKalman) Update(measurement float64) float64 {
	if !k.primed {
		k.estimate = measurement
		k.errorCovar = 1
		k.primed = true
		return k.estimate
	}

	// Predict: estimate carries forward, covariance grows by process noise.
	predictedCovar := k.errorCovar + k.processNoise

	// Update: Kalman gain, then blend measurement into the estimate.
	gain := predictedCovar / (predictedCovar + k.measurementNoise)
	k.estimate += gain * (measurement - k.estimate)
	k.errorCovar = (1 - gain) * predictedCovar

	return k.estimate
}
