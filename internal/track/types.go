// Package track implements the multi-target Kalman tracker: association,
// update, and the Tentative/Confirmed/Deleted lifecycle.
package track

import (
	"time"

	"github.com/banshee-data/radar-pipeline/internal/classify"
)

// State is a track's lifecycle stage.
type State string

const (
	Tentative State = "tentative"
	Confirmed State = "confirmed"
	Deleted   State = "deleted"
)

const stateDim = 6 // x, y, vx, vy, ax, ay

// Track is one tracked object's full Kalman state plus lifecycle bookkeeping.
type Track struct {
	ID    uint64
	State State

	// X is the state vector (x, y, vx, vy, ax, ay).
	X [stateDim]float64
	// P is the state covariance, row-major stateDim x stateDim.
	P [stateDim * stateDim]float64

	Age               int
	ConsecutiveMisses int
	Confidence        float64
	SignalStrengthDB  float64

	FirstSeen time.Time
	LastSeen  time.Time

	// Direction is the most recent matched detection's signed-velocity
	// direction ("Incoming"/"Outgoing"/"Static"), carried through from the
	// detection filter stage rather than re-derived from track velocity.
	Direction string

	// VelocityMS is the most recent matched detection's signed Doppler
	// velocity, carried through from the detection filter stage rather
	// than derived from the 2D position-state velocity (vx, vy).
	VelocityMS float64

	labelVotes     map[classify.Label]int
	lastVoteLabel  classify.Label
	ConfirmedLabel classify.Label
}

// Position returns the track's (x, y) estimate.
func (t *Track) Position() (x, y float64) {
	return t.X[0], t.X[1]
}

// Velocity returns the track's (vx, vy) estimate.
func (t *Track) Velocity() (vx, vy float64) {
	return t.X[2], t.X[3]
}

// Detection is one filtered, projected measurement offered to the tracker
// for a single frame.
type Detection struct {
	X, Y             float64
	RangeM           float64
	AzimuthDeg       float64
	SpeedMS          float64
	VelocityMS       float64 // signed Doppler velocity
	SignalStrengthDB float64
	Direction        string
	Label            classify.Label
}

// Output is a Confirmed track's record for this frame, in the polar frame
// the fanout consumes.
type Output struct {
	TrackID           uint64
	RangeM            float64
	AzimuthDeg        float64
	SpeedMS           float64
	VelocityMS        float64 // signed Doppler velocity
	X, Y              float64
	Confidence        float64
	Age               int
	ConsecutiveMisses int
	Direction         string
	Classification    classify.Label
	SignalStrengthDB  float64
}
