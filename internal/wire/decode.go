package wire

import (
	"encoding/binary"
	"math"
)

// Decode parses a (header, data) datagram pair into a RawFrame and verifies
// its integrity. It never mutates the input slices.
//
// The radar's checksum is a 32-bit additive sum (mod 2^32) of every byte in
// the data packet's payload, starting at offset 4, for
// targets_reported*bytes_per_target bytes.
func Decode(header, data []byte) (*RawFrame, error) {
	if len(header) < HeaderSize {
		return nil, newDecodeError(ShortHeader, "got %d bytes, want %d", len(header), HeaderSize)
	}
	if len(data) < DataPacketSize {
		return nil, newDecodeError(ShortPacket, "got %d bytes, want %d", len(data), DataPacketSize)
	}

	f := &RawFrame{
		FrameID: binary.LittleEndian.Uint16(header[0:2]),
		Firmware: Firmware{
			Major: binary.LittleEndian.Uint16(header[2:4]),
			Fix:   binary.LittleEndian.Uint16(header[4:6]),
			Minor: binary.LittleEndian.Uint16(header[6:8]),
		},
		DetectionsReported:  binary.LittleEndian.Uint16(header[8:10]),
		TargetsReported:     binary.LittleEndian.Uint16(header[10:12]),
		CRC32:               binary.LittleEndian.Uint32(header[12:16]),
		BytesPerTarget:      binary.LittleEndian.Uint16(header[16:18]),
		DataPacketsExpected: binary.LittleEndian.Uint16(header[18:20]),
	}

	if f.BytesPerTarget != 0 && f.BytesPerTarget != TargetRecordSize {
		return nil, newDecodeError(ReservedSize, "bytes_per_target=%d, want %d", f.BytesPerTarget, TargetRecordSize)
	}

	payload := data[dataPacketPreludeSize:]
	checkLen := int(f.TargetsReported) * int(TargetRecordSize)
	if checkLen > len(payload) {
		checkLen = len(payload)
	}
	if got := additiveChecksum32(payload[:checkLen]); got != f.CRC32 {
		return nil, newDecodeError(BadCrc, "computed 0x%08x, header 0x%08x", got, f.CRC32)
	}

	f.Targets = make([]RawTarget, TargetsPerPacket)
	for i := 0; i < TargetsPerPacket; i++ {
		off := i * TargetRecordSize
		if off+TargetRecordSize > len(payload) {
			break
		}
		f.Targets[i] = decodeTarget(payload[off : off+TargetRecordSize])
	}

	return f, nil
}

func decodeTarget(b []byte) RawTarget {
	return RawTarget{
		SignalStrengthDB: decodeFloat32(b[0:4]),
		RangeM:           decodeFloat32(b[4:8]),
		VelocityMS:       decodeFloat32(b[8:12]),
		AzimuthDeg:       decodeFloat32(b[12:16]),
		ReservedA:        binary.LittleEndian.Uint32(b[16:20]),
		ReservedB:        binary.LittleEndian.Uint32(b[20:24]),
	}
}

func decodeFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// additiveChecksum32 sums every byte of payload, accumulated modulo 2^32.
func additiveChecksum32(payload []byte) uint32 {
	var sum uint32
	for _, b := range payload {
		sum += uint32(b)
	}
	return sum
}
