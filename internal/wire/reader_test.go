package wire

import (
	"net"
	"testing"

	"github.com/banshee-data/radar-pipeline/internal/monitoring"
)

func testFrame(frameID uint16) *RawFrame {
	return &RawFrame{
		FrameID:             frameID,
		Firmware:            Firmware{Major: 2, Fix: 1, Minor: 0},
		DetectionsReported:  2,
		TargetsReported:     2,
		BytesPerTarget:      TargetRecordSize,
		DataPacketsExpected: 1,
		Targets: []RawTarget{
			{SignalStrengthDB: -10, RangeM: 12.5, VelocityMS: 3.2, AzimuthDeg: 15},
			{SignalStrengthDB: -20, RangeM: 40.0, VelocityMS: -1.5, AzimuthDeg: -30},
		},
	}
}

func TestReaderReadFrame(t *testing.T) {
	frame := testFrame(1)
	header, data := Encode(frame)

	sock := NewMockUDPSocket([]MockDatagram{
		{Data: header},
		{Data: data},
	})
	r := &Reader{socket: sock}

	gotHeader, gotData, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	got, err := Decode(gotHeader, gotData)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.FrameID != frame.FrameID {
		t.Errorf("FrameID = %d, want %d", got.FrameID, frame.FrameID)
	}
	if len(got.ValidTargets()) != 2 {
		t.Errorf("ValidTargets len = %d, want 2", len(got.ValidTargets()))
	}
}

func TestReaderDiscardsShortHeaderDatagram(t *testing.T) {
	_, data := Encode(testFrame(1))
	sock := NewMockUDPSocket([]MockDatagram{
		{Data: make([]byte, HeaderSize-1)},
		{Data: data},
	})
	r := &Reader{socket: sock}

	_, _, err := r.ReadFrame()
	if err != ErrShortDatagram {
		t.Fatalf("err = %v, want ErrShortDatagram", err)
	}
}

func TestReaderDiscardsShortDataDatagram(t *testing.T) {
	header, _ := Encode(testFrame(1))
	sock := NewMockUDPSocket([]MockDatagram{
		{Data: header},
		{Data: make([]byte, DataPacketSize-1)},
	})
	r := &Reader{socket: sock}

	_, _, err := r.ReadFrame()
	if err != ErrShortDatagram {
		t.Fatalf("err = %v, want ErrShortDatagram", err)
	}
}

func TestReaderTimeoutOnExhaustedSocket(t *testing.T) {
	sock := NewMockUDPSocket(nil)
	r := &Reader{socket: sock}

	_, _, err := r.ReadFrame()
	if err == nil {
		t.Fatal("expected error on exhausted socket")
	}
	var netErr net.Error
	if !asNetError(err, &netErr) || !netErr.Timeout() {
		t.Fatalf("err = %v, want a timeout net.Error", err)
	}
}

func TestReaderCheckFrameSequenceLogsGap(t *testing.T) {
	var messages []string
	origLogf := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		messages = append(messages, format)
	})
	defer monitoring.SetLogger(origLogf)

	r := &Reader{}
	r.CheckFrameSequence(1)
	r.CheckFrameSequence(2)
	r.CheckFrameSequence(5) // gap

	if len(messages) != 1 {
		t.Fatalf("got %d gap warnings, want 1: %v", len(messages), messages)
	}
}

func asNetError(err error, target *net.Error) bool {
	if opErr, ok := err.(*net.OpError); ok {
		*target = opErr
		return true
	}
	return false
}
