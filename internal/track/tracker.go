package track

import (
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/radar-pipeline/internal/classify"
)

// singularDistanceRejection is returned by mahalanobisSquared when a
// track's position covariance is singular; gatedCost then falls back to the
// Euclidean distance for that pair.
const singularDistanceRejection = 1e9

// Tracker holds every live track and runs one predict/associate/update
// cycle per frame.
type Tracker struct {
	mu     sync.Mutex
	cfg    Config
	tracks map[uint64]*Track
}

// New returns an empty Tracker with cfg.
func New(cfg Config) *Tracker {
	return &Tracker{cfg: cfg, tracks: make(map[uint64]*Track)}
}

// newTrackID generates a fresh track identity: a random UUID folded into a
// uint64 via FNV-1a, so the wire schema's fixed-width track_id still comes
// from a proper collision-resistant generator.
func newTrackID() uint64 {
	h := fnv.New64a()
	id := uuid.New()
	h.Write(id[:])
	return h.Sum64()
}

// Step runs one full predict/associate/update/lifecycle cycle and returns
// the Confirmed tracks' output records for this frame.
func (t *Tracker) Step(detections []Detection, now time.Time) []Output {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, tr := range t.tracks {
		tr.Predict(t.cfg.DtSeconds, t.cfg.ProcessNoiseQ)
	}

	ids := t.liveTrackIDs()
	cost := t.buildCostMatrix(ids, detections)
	assignment := t.resolveAssignment(cost, ids)

	matchedDetections := make(map[int]bool)
	for trackIdx, detIdx := range assignment {
		track := t.tracks[ids[trackIdx]]
		if detIdx < 0 {
			track.ConsecutiveMisses++
			continue
		}
		t.applyMatch(track, detections[detIdx], now)
		matchedDetections[detIdx] = true
	}

	for detIdx, det := range detections {
		if !matchedDetections[detIdx] {
			t.birth(det, now)
		}
	}

	t.applyLifecycle(now)
	t.enforceCapacity()

	return t.confirmedOutputs()
}

func (t *Tracker) liveTrackIDs() []uint64 {
	ids := make([]uint64, 0, len(t.tracks))
	for id, tr := range t.tracks {
		if tr.State != Deleted {
			ids = append(ids, id)
		}
	}
	return ids
}

// buildCostMatrix computes the gated assignment cost between each live
// track and each detection.
func (t *Tracker) buildCostMatrix(ids []uint64, detections []Detection) [][]float64 {
	cost := make([][]float64, len(ids))
	for i, id := range ids {
		track := t.tracks[id]
		row := make([]float64, len(detections))
		for j, det := range detections {
			row[j] = t.gatedCost(track, det)
		}
		cost[i] = row
	}
	return cost
}

// gatedCost returns the Mahalanobis (or Euclidean fallback) distance-based
// cost between track and det, or hungarianInf if any gate rejects the pair.
func (t *Tracker) gatedCost(track *Track, det Detection) float64 {
	dx := det.X - track.X[0]
	dy := det.Y - track.X[1]

	dist2 := t.mahalanobisSquared(track, dx, dy)
	if dist2 >= singularDistanceRejection {
		dist2 = dx*dx + dy*dy // Euclidean fallback
	}
	dist := math.Sqrt(dist2)

	if dist > t.cfg.MaxDistanceM {
		return hungarianInf
	}

	if !t.physicallyPlausible(track, dist) {
		return hungarianInf
	}

	cost := dist
	if track.ConfirmedLabel != "" && det.Label == track.ConfirmedLabel {
		cost -= 0.2
	}
	return cost
}

// mahalanobisSquared computes the squared Mahalanobis distance of
// (dx, dy) against the track's 2x2 position covariance block, returning
// singularDistanceRejection when that block is singular.
func (t *Tracker) mahalanobisSquared(track *Track, dx, dy float64) float64 {
	s := mat.NewSymDense(2, []float64{
		track.P[0*stateDim+0], track.P[0*stateDim+1],
		track.P[1*stateDim+0], track.P[1*stateDim+1],
	})

	if mat.Det(s) < minDeterminant {
		return singularDistanceRejection
	}

	var inv mat.Dense
	if err := inv.Inverse(s); err != nil {
		return singularDistanceRejection
	}

	d := mat.NewVecDense(2, []float64{dx, dy})
	var scored mat.VecDense
	scored.MulVec(&inv, d)
	return d.At(0, 0)*scored.At(0, 0) + d.At(1, 0)*scored.At(1, 0)
}

// physicallyPlausible rejects a candidate match when the implied distance
// moved since the last update exceeds the track's kinematic envelope.
func (t *Tracker) physicallyPlausible(track *Track, dist float64) bool {
	speed := math.Hypot(track.X[2], track.X[3])
	dt := t.cfg.DtSeconds
	maxPlausible := 2 * (speed*dt + 0.5*t.cfg.AMaxMS2*dt*dt)
	if maxPlausible < t.cfg.MaxDistanceM {
		maxPlausible = t.cfg.MaxDistanceM
	}
	return dist <= maxPlausible
}

func (t *Tracker) resolveAssignment(cost [][]float64, ids []uint64) []int {
	if t.cfg.UseHungarian {
		return HungarianAssign(cost)
	}
	confidence := make([]float64, len(ids))
	for i, id := range ids {
		confidence[i] = t.tracks[id].Confidence
	}
	return GreedyAssign(cost, confidence)
}

func (t *Tracker) applyMatch(track *Track, det Detection, now time.Time) {
	r := 2 * math.Max(0.5, (100-det.SignalStrengthDB)/100)

	predX, predY := track.X[0], track.X[1]
	predVX, predVY := track.X[2], track.X[3]

	track.Update(det.X, det.Y, r)
	track.ConsecutiveMisses = 0
	track.Age++
	track.SignalStrengthDB = det.SignalStrengthDB
	track.Direction = det.Direction
	track.VelocityMS = det.VelocityMS
	track.LastSeen = now

	if track.State == Tentative && track.Age >= t.cfg.HitThreshold && track.Confidence >= t.cfg.MinConfirmConfidence {
		track.State = Confirmed
	}

	posResidual := math.Hypot(det.X-predX, det.Y-predY)
	velResidual := math.Hypot(track.X[2]-predVX, track.X[3]-predVY)
	track.Confidence = qualityScore(posResidual, velResidual, det.SignalStrengthDB, track.Age, track.ConsecutiveMisses)

	t.vote(track, det.Label)
}

// qualityScore implements the tracker's confidence formula: a weighted
// blend of position/velocity consistency, raw signal strength, track age,
// and recent miss history.
func qualityScore(posResidual, velResidual, signalStrengthDB float64, age, consecutiveMisses int) float64 {
	posConsistency := math.Max(0, 1-posResidual/2.0)
	velConsistency := math.Max(0, 1-velResidual/5.0)
	signal := signalStrengthDB / 100
	ageFactor := math.Min(1, float64(age)/10)
	missFactor := math.Max(0.1, 1-float64(consecutiveMisses)/5)

	return 0.3*posConsistency + 0.3*velConsistency + 0.2*signal + 0.1*ageFactor + 0.1*missFactor
}

// vote appends label to the track's classification histogram; after 3
// updates the confirmed label is the argmax, ties broken by most recent.
func (t *Tracker) vote(track *Track, label classify.Label) {
	if label == "" {
		return
	}
	if track.labelVotes == nil {
		track.labelVotes = make(map[classify.Label]int)
	}
	track.labelVotes[label]++
	track.lastVoteLabel = label

	totalVotes := 0
	for _, n := range track.labelVotes {
		totalVotes += n
	}
	if totalVotes < 3 {
		return
	}

	best := track.lastVoteLabel
	bestCount := track.labelVotes[best]
	for l, n := range track.labelVotes {
		if n > bestCount || (n == bestCount && l == track.lastVoteLabel) {
			best = l
			bestCount = n
		}
	}
	track.ConfirmedLabel = best
}

func (t *Tracker) birth(det Detection, now time.Time) {
	id := newTrackID()
	for t.tracks[id] != nil {
		id = newTrackID()
	}

	var p [stateDim * stateDim]float64
	for i := 0; i < stateDim; i++ {
		p[i*stateDim+i] = 10
	}

	track := &Track{
		ID:               id,
		State:            Tentative,
		X:                [stateDim]float64{det.X, det.Y, 0, 0, 0, 0},
		P:                p,
		Age:              1,
		SignalStrengthDB: det.SignalStrengthDB,
		Direction:        det.Direction,
		VelocityMS:       det.VelocityMS,
		FirstSeen:        now,
		LastSeen:         now,
		labelVotes:       make(map[classify.Label]int),
	}
	if det.Label != "" {
		t.vote(track, det.Label)
	}
	t.tracks[id] = track
}

func (t *Tracker) applyLifecycle(now time.Time) {
	maxAge := t.cfg.maxAge()
	for _, tr := range t.tracks {
		if tr.State == Deleted {
			continue
		}
		switch {
		case tr.ConsecutiveMisses >= t.cfg.MissLimit:
			tr.State = Deleted
		case now.Sub(tr.LastSeen) > maxAge:
			tr.State = Deleted
		case tr.Confidence < t.cfg.LowConfidenceFloor && float64(tr.Age) > t.cfg.LowConfidenceAgeThreshold:
			tr.State = Deleted
		}
	}
	for id, tr := range t.tracks {
		if tr.State == Deleted {
			delete(t.tracks, id)
		}
	}
}

// enforceCapacity drops the lowest-confidence tracks once the live count
// exceeds MaxTracks.
func (t *Tracker) enforceCapacity() {
	if len(t.tracks) <= t.cfg.MaxTracks {
		return
	}
	ids := make([]uint64, 0, len(t.tracks))
	for id := range t.tracks {
		ids = append(ids, id)
	}
	for len(ids) > t.cfg.MaxTracks {
		worst := 0
		for i, id := range ids {
			if t.tracks[id].Confidence < t.tracks[ids[worst]].Confidence {
				worst = i
			}
		}
		delete(t.tracks, ids[worst])
		ids[worst] = ids[len(ids)-1]
		ids = ids[:len(ids)-1]
	}
}

// clampAzimuth bounds a computed bearing to the deployment's configured
// field of view; a track's Kalman-estimated position can drift slightly
// past the detection gate that admitted it.
func clampAzimuth(azimuth, maxAzimuthDeg float64) float64 {
	if maxAzimuthDeg <= 0 {
		return azimuth
	}
	if azimuth > maxAzimuthDeg {
		return maxAzimuthDeg
	}
	if azimuth < -maxAzimuthDeg {
		return -maxAzimuthDeg
	}
	return azimuth
}

func (t *Tracker) confirmedOutputs() []Output {
	out := make([]Output, 0, len(t.tracks))
	for _, tr := range t.tracks {
		if tr.State != Confirmed {
			continue
		}
		x, y := tr.Position()
		vx, vy := tr.Velocity()
		rangeM := math.Hypot(x, y)
		azimuth := clampAzimuth(math.Atan2(y, x)*180/math.Pi, t.cfg.MaxAzimuthDeg)
		speed := math.Hypot(vx, vy)

		out = append(out, Output{
			TrackID:           tr.ID,
			RangeM:            rangeM,
			AzimuthDeg:        azimuth,
			SpeedMS:           speed,
			VelocityMS:        tr.VelocityMS,
			X:                 x,
			Y:                 y,
			Confidence:        tr.Confidence,
			Age:               tr.Age,
			ConsecutiveMisses: tr.ConsecutiveMisses,
			Direction:         tr.Direction,
			Classification:    tr.ConfirmedLabel,
			SignalStrengthDB:  tr.SignalStrengthDB,
		})
	}
	return out
}

// ActiveCount returns the number of live (non-deleted) tracks, for
// monitoring/diagnostics.
func (t *Tracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tracks)
}
