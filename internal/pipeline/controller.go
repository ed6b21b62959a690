// Package pipeline drives the single-threaded frame processing loop:
// read -> decode -> filter -> project -> classify -> track -> fanout.
package pipeline

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/banshee-data/radar-pipeline/internal/classify"
	"github.com/banshee-data/radar-pipeline/internal/config"
	"github.com/banshee-data/radar-pipeline/internal/fanout"
	"github.com/banshee-data/radar-pipeline/internal/filter"
	"github.com/banshee-data/radar-pipeline/internal/geo"
	"github.com/banshee-data/radar-pipeline/internal/httpapi"
	"github.com/banshee-data/radar-pipeline/internal/monitoring"
	"github.com/banshee-data/radar-pipeline/internal/statsdb"
	"github.com/banshee-data/radar-pipeline/internal/track"
	"github.com/banshee-data/radar-pipeline/internal/wire"
)

// statsPersistInterval is how often (in processed frames) the Controller
// flushes its counters to statsDB, when one is set.
const statsPersistInterval = 100

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// realClock wraps the standard library's clock.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Controller owns every pipeline stage and runs the frame loop until its
// context is cancelled.
type Controller struct {
	cfg     config.Config
	reader  *wire.Reader
	filter  *filter.Filter
	anchor  geo.Anchor
	gateway *classify.Gateway
	tracker *track.Tracker
	fan     *fanout.Fanout
	clock   Clock
	admin   *httpapi.Server
	statsDB *statsdb.DB

	framesProcessed uint64
	framesDropped   uint64
	crcFailures     uint64
}

// New assembles a Controller from its already-constructed stages.
func New(cfg config.Config, reader *wire.Reader, f *filter.Filter, gateway *classify.Gateway, tracker *track.Tracker, fan *fanout.Fanout) *Controller {
	return &Controller{
		cfg:     cfg,
		reader:  reader,
		filter:  f,
		anchor:  geo.Anchor{LatDeg: cfg.RadarLatDeg, LonDeg: cfg.RadarLonDeg},
		gateway: gateway,
		tracker: tracker,
		fan:     fan,
		clock:   realClock{},
	}
}

// SetClock overrides the Controller's clock, for deterministic tests.
func (c *Controller) SetClock(clock Clock) { c.clock = clock }

// SetAdmin wires an httpapi.Server so every Step publishes its confirmed
// track snapshot for the /tracks endpoint. Optional.
func (c *Controller) SetAdmin(admin *httpapi.Server) { c.admin = admin }

// SetStatsDB wires a persisted counters store. It seeds the in-memory
// counters from the last saved values, so a restart resumes rather than
// resetting /stats to zero. Optional.
func (c *Controller) SetStatsDB(db *statsdb.DB) error {
	processed, dropped, err := db.Load()
	if err != nil {
		return err
	}
	c.framesProcessed = processed
	c.framesDropped = dropped
	c.statsDB = db
	return nil
}

// Stats returns running frame counters for the admin surface.
func (c *Controller) Stats() (processed, dropped uint64) {
	return c.framesProcessed, c.framesDropped
}

// CRCFailures returns the count of frames dropped specifically for failing
// the checksum, a subset of the frames Stats reports as dropped.
func (c *Controller) CRCFailures() uint64 { return c.crcFailures }

// SinkDrops returns each fanout sink's dropped-record count, keyed by sink
// name, for the admin surface's per-sink breakdown.
func (c *Controller) SinkDrops() map[string]uint64 {
	sinks := c.fan.Sinks()
	out := make(map[string]uint64, len(sinks))
	for _, s := range sinks {
		out[s.Name()] = s.Dropped()
	}
	return out
}

// Run drives the loop until ctx is cancelled, then returns; Shutdown
// flushes the sinks. A panic inside one frame's processing is recovered and
// logged; the loop continues to the next frame.
func (c *Controller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.stepSafely(ctx)
	}
}

// stepSafely runs one frame and recovers any panic so the loop survives it.
func (c *Controller) stepSafely(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.Logf("pipeline: recovered panic processing frame: %v", r)
		}
	}()
	c.step(ctx)
}

func (c *Controller) step(ctx context.Context) {
	header, data, err := c.reader.ReadFrame()
	if err != nil {
		// Timeouts are expected idle ticks and a length-mismatched datagram
		// is already logged by the reader; any other read error is logged here.
		var netErr net.Error
		if !errors.Is(err, wire.ErrShortDatagram) && !(errors.As(err, &netErr) && netErr.Timeout()) {
			monitoring.Logf("pipeline: read failed: %v", err)
		}
		return
	}

	frame, err := wire.Decode(header, data)
	if err != nil {
		monitoring.Logf("pipeline: decode failed, dropping frame: %v", err)
		c.framesDropped++
		var decodeErr *wire.DecodeError
		if errors.As(err, &decodeErr) && decodeErr.Kind == wire.BadCrc {
			c.crcFailures++
		}
		return
	}
	c.reader.CheckFrameSequence(frame.FrameID)

	detections := c.filter.Apply(frame.ValidTargets(), frame.FrameID)

	now := c.clock.Now()
	trackInputs := make([]track.Detection, 0, len(detections))
	for _, d := range detections {
		proj := geo.Project(c.anchor, d.RangeM, d.AzimuthDeg)
		label := c.gateway.Classify(ctx, d.RangeM, d.VelocityMS, d.AzimuthDeg)
		trackInputs = append(trackInputs, track.Detection{
			X:                proj.X,
			Y:                proj.Y,
			RangeM:           d.RangeM,
			AzimuthDeg:       d.AzimuthDeg,
			SpeedMS:          d.Speed,
			VelocityMS:       d.VelocityMS,
			SignalStrengthDB: d.SignalStrengthDB,
			Direction:        string(d.Direction),
			Label:            label,
		})
	}

	outputs := c.tracker.Step(trackInputs, now)
	if c.admin != nil {
		c.admin.SetTracks(outputs)
	}

	for _, out := range outputs {
		proj := geo.Project(c.anchor, out.RangeM, out.AzimuthDeg)
		c.fan.Publish(fanout.Record{
			RadarID:           c.cfg.RadarID,
			AreaID:            c.cfg.AreaID,
			FrameID:           frame.FrameID,
			Timestamp:         now,
			SignalStrengthDB:  out.SignalStrengthDB,
			RangeM:            out.RangeM,
			Speed:             out.SpeedMS,
			Velocity:          out.VelocityMS,
			Direction:         out.Direction,
			Classification:    string(out.Classification),
			LatitudeDeg:       proj.LatDeg,
			LongitudeDeg:      proj.LonDeg,
			X:                 out.X,
			Y:                 out.Y,
			AzimuthDeg:        out.AzimuthDeg,
			TrackID:           out.TrackID,
			Confidence:        out.Confidence,
			Age:               out.Age,
			ConsecutiveMisses: out.ConsecutiveMisses,
		})
	}

	c.framesProcessed++
	if c.statsDB != nil && c.framesProcessed%statsPersistInterval == 0 {
		if err := c.statsDB.Save(c.framesProcessed, c.framesDropped); err != nil {
			monitoring.Logf("pipeline: persist stats counters: %v", err)
		}
	}
}

// Shutdown flushes every sink, persists final counters, and closes the
// fanout. Call after Run returns.
func (c *Controller) Shutdown() error {
	if c.statsDB != nil {
		if err := c.statsDB.Save(c.framesProcessed, c.framesDropped); err != nil {
			monitoring.Logf("pipeline: persist stats counters: %v", err)
		}
	}
	return c.fan.Close()
}
