package wire

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := testFrame(42)
	header, data := Encode(want)

	got, err := Decode(header, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.FrameID != want.FrameID {
		t.Errorf("FrameID = %d, want %d", got.FrameID, want.FrameID)
	}
	if got.TargetsReported != want.TargetsReported {
		t.Errorf("TargetsReported = %d, want %d", got.TargetsReported, want.TargetsReported)
	}
	gotTargets := got.ValidTargets()
	if diff := cmp.Diff(want.Targets, gotTargets); diff != "" {
		t.Errorf("ValidTargets mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeShortHeader(t *testing.T) {
	_, data := Encode(testFrame(1))
	_, err := Decode(make([]byte, HeaderSize-1), data)
	var de *DecodeError
	if err == nil {
		t.Fatal("expected error")
	}
	if !asDecodeError(err, &de) || de.Kind != ShortHeader {
		t.Fatalf("err = %v, want ShortHeader", err)
	}
}

func TestDecodeShortPacket(t *testing.T) {
	header, _ := Encode(testFrame(1))
	_, err := Decode(header, make([]byte, DataPacketSize-1))
	var de *DecodeError
	if !asDecodeError(err, &de) || de.Kind != ShortPacket {
		t.Fatalf("err = %v, want ShortPacket", err)
	}
}

func TestDecodeBadCrc(t *testing.T) {
	header, data := Encode(testFrame(1))
	// corrupt one payload byte without fixing up the checksum
	data[dataPacketPreludeSize] ^= 0xFF

	_, err := Decode(header, data)
	var de *DecodeError
	if !asDecodeError(err, &de) || de.Kind != BadCrc {
		t.Fatalf("err = %v, want BadCrc", err)
	}
}

func TestDecodeReservedSizeMismatch(t *testing.T) {
	header, data := Encode(testFrame(1))
	binary.LittleEndian.PutUint16(header[16:18], TargetRecordSize+4)

	_, err := Decode(header, data)
	var de *DecodeError
	if !asDecodeError(err, &de) || de.Kind != ReservedSize {
		t.Fatalf("err = %v, want ReservedSize", err)
	}
}

func TestIsEmptySentinel(t *testing.T) {
	var empty RawTarget
	if !empty.IsEmptySentinel() {
		t.Error("zero-value RawTarget should be an empty sentinel")
	}
	nonEmpty := RawTarget{RangeM: 1}
	if nonEmpty.IsEmptySentinel() {
		t.Error("RawTarget with RangeM set should not be an empty sentinel")
	}
}

func asDecodeError(err error, target **DecodeError) bool {
	de, ok := err.(*DecodeError)
	if ok {
		*target = de
	}
	return ok
}
