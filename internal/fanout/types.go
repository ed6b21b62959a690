// Package fanout publishes confirmed track records to the enabled output
// sinks (MQTT, UART, in-memory history) without letting a slow or failed
// sink block the pipeline loop.
package fanout

import (
	"math"
	"time"
)

// Record is the canonical track record emitted once per Confirmed track
// per frame.
type Record struct {
	RadarID           string    `json:"radar_id"`
	AreaID            string    `json:"area_id"`
	FrameID           uint16    `json:"frame_id"`
	Timestamp         time.Time `json:"timestamp"`
	SignalStrengthDB  float64   `json:"signal_strength"`
	RangeM            float64   `json:"range"`
	Speed             float64   `json:"speed"`
	Velocity          float64   `json:"velocity"`
	Direction         string    `json:"direction"`
	Classification    string    `json:"classification"`
	LatitudeDeg       float64   `json:"latitude"`
	LongitudeDeg      float64   `json:"longitude"`
	X                 float64   `json:"x"`
	Y                 float64   `json:"y"`
	AzimuthDeg        float64   `json:"azimuth_angle"`
	TrackID           uint64    `json:"track_id"`
	Confidence        float64   `json:"confidence"`
	Age               int       `json:"age"`
	ConsecutiveMisses int       `json:"consecutive_misses"`
}

// Rounded returns a copy of r with every numeric field rounded to the
// precision the record schema specifies: 2 decimals everywhere except
// lat/lon (6 decimals) and confidence (3 decimals).
func (r Record) Rounded() Record {
	r.SignalStrengthDB = round(r.SignalStrengthDB, 2)
	r.RangeM = round(r.RangeM, 2)
	r.Speed = round(r.Speed, 2)
	r.Velocity = round(r.Velocity, 2)
	r.LatitudeDeg = round(r.LatitudeDeg, 6)
	r.LongitudeDeg = round(r.LongitudeDeg, 6)
	r.X = round(r.X, 2)
	r.Y = round(r.Y, 2)
	r.AzimuthDeg = round(r.AzimuthDeg, 2)
	r.Confidence = round(r.Confidence, 3)
	return r
}

func round(v float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(v*scale) / scale
}

// Sink consumes Records fanned out from the pipeline. Publish must not
// block the caller beyond enqueueing; a sink that cannot keep up drops
// records and counts them.
type Sink interface {
	Name() string
	Publish(r Record)
	Dropped() uint64
	Close() error
}
