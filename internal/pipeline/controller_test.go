package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/banshee-data/radar-pipeline/internal/classify"
	"github.com/banshee-data/radar-pipeline/internal/config"
	"github.com/banshee-data/radar-pipeline/internal/fanout"
	"github.com/banshee-data/radar-pipeline/internal/filter"
	"github.com/banshee-data/radar-pipeline/internal/statsdb"
	"github.com/banshee-data/radar-pipeline/internal/track"
	"github.com/banshee-data/radar-pipeline/internal/wire"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

type countingSink struct{ n int }

func (c *countingSink) Name() string          { return "counting" }
func (c *countingSink) Publish(fanout.Record) { c.n++ }
func (c *countingSink) Dropped() uint64       { return 0 }
func (c *countingSink) Close() error          { return nil }

func newTestController(t *testing.T, frames []wire.MockDatagram) (*Controller, *countingSink) {
	t.Helper()
	cfg := config.Defaults()
	cfg.SignalStrengthThresholdDB = 0 // accept everything in this fixture

	sock := wire.NewMockUDPSocket(frames)
	reader, err := wire.NewReader(&wire.MockUDPSocketFactory{Socket: sock}, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	f := filter.New(cfg.ToFilterConfig())
	gateway := classify.NewGateway(classify.NewRuleBased())
	tracker := track.New(track.DefaultConfig())
	sink := &countingSink{}
	fan := fanout.New(sink)

	c := New(cfg, reader, f, gateway, tracker, fan)
	c.SetClock(&fakeClock{t: time.Unix(0, 0)})
	return c, sink
}

func TestControllerStepDropsShortFrame(t *testing.T) {
	c, _ := newTestController(t, []wire.MockDatagram{
		{Data: make([]byte, wire.HeaderSize-1)},
	})
	c.step(context.Background())
	processed, dropped := c.Stats()
	if processed != 0 || dropped != 0 {
		t.Errorf("a read failure should neither process nor count as a decode drop, got processed=%d dropped=%d", processed, dropped)
	}
}

func TestControllerStepProcessesValidFrame(t *testing.T) {
	frame := &wire.RawFrame{
		FrameID:             1,
		TargetsReported:     1,
		BytesPerTarget:      wire.TargetRecordSize,
		DataPacketsExpected: 1,
		Targets: []wire.RawTarget{
			{SignalStrengthDB: 30, RangeM: 10, VelocityMS: 2, AzimuthDeg: 5},
		},
	}
	header, data := wire.Encode(frame)

	c, _ := newTestController(t, []wire.MockDatagram{{Data: header}, {Data: data}})
	c.step(context.Background())

	processed, dropped := c.Stats()
	if processed != 1 {
		t.Errorf("processed = %d, want 1", processed)
	}
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
}

func TestControllerStepCountsCRCFailuresSeparately(t *testing.T) {
	frame := &wire.RawFrame{
		FrameID:             1,
		TargetsReported:     1,
		BytesPerTarget:      wire.TargetRecordSize,
		DataPacketsExpected: 1,
		Targets: []wire.RawTarget{
			{SignalStrengthDB: 30, RangeM: 10, VelocityMS: 2, AzimuthDeg: 5},
		},
	}
	header, data := wire.Encode(frame)
	header[12] ^= 0xFF // corrupt the CRC field

	c, _ := newTestController(t, []wire.MockDatagram{{Data: header}, {Data: data}})
	c.step(context.Background())

	processed, dropped := c.Stats()
	if processed != 0 || dropped != 1 {
		t.Fatalf("processed=%d dropped=%d, want 0, 1", processed, dropped)
	}
	if c.CRCFailures() != 1 {
		t.Errorf("CRCFailures() = %d, want 1", c.CRCFailures())
	}
}

func TestControllerSinkDropsReportsPerSinkName(t *testing.T) {
	c, _ := newTestController(t, nil)
	drops := c.SinkDrops()
	if _, ok := drops["counting"]; !ok {
		t.Fatalf("SinkDrops() = %v, want a \"counting\" entry", drops)
	}
}

func TestControllerSetStatsDBSeedsCountersAndPersistsOnShutdown(t *testing.T) {
	dir := t.TempDir()
	sdb, err := statsdb.Open(dir + "/stats.db")
	if err != nil {
		t.Fatalf("statsdb.Open: %v", err)
	}
	defer sdb.Close()
	if err := sdb.Save(7, 2); err != nil {
		t.Fatalf("Save: %v", err)
	}

	c, _ := newTestController(t, nil)
	if err := c.SetStatsDB(sdb); err != nil {
		t.Fatalf("SetStatsDB: %v", err)
	}

	processed, dropped := c.Stats()
	if processed != 7 || dropped != 2 {
		t.Fatalf("Stats after seeding = %d, %d, want 7, 2", processed, dropped)
	}

	if err := c.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	processed, dropped, err = sdb.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if processed != 7 || dropped != 2 {
		t.Fatalf("persisted counters = %d, %d, want 7, 2", processed, dropped)
	}
}
