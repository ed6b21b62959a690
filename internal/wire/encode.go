package wire

import (
	"encoding/binary"
	"math"
)

// Encode serializes a RawFrame into (header, data) datagrams using the
// §4.B layout, computing the CRC the same way Decode verifies it. It exists
// so tests can round-trip a synthetic frame through the wire format.
func Encode(f *RawFrame) (header, data []byte) {
	header = make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(header[0:2], f.FrameID)
	binary.LittleEndian.PutUint16(header[2:4], f.Firmware.Major)
	binary.LittleEndian.PutUint16(header[4:6], f.Firmware.Fix)
	binary.LittleEndian.PutUint16(header[6:8], f.Firmware.Minor)
	binary.LittleEndian.PutUint16(header[8:10], f.DetectionsReported)
	binary.LittleEndian.PutUint16(header[10:12], f.TargetsReported)
	binary.LittleEndian.PutUint16(header[16:18], f.BytesPerTarget)
	binary.LittleEndian.PutUint16(header[18:20], f.DataPacketsExpected)

	data = make([]byte, DataPacketSize)
	binary.LittleEndian.PutUint16(data[0:2], f.FrameID)
	binary.LittleEndian.PutUint16(data[2:4], 1) // packet_num

	payload := data[dataPacketPreludeSize:]
	for i := 0; i < TargetsPerPacket && i < len(f.Targets); i++ {
		encodeTarget(payload[i*TargetRecordSize:(i+1)*TargetRecordSize], f.Targets[i])
	}

	checkLen := int(f.TargetsReported) * int(TargetRecordSize)
	if checkLen > len(payload) {
		checkLen = len(payload)
	}
	crc := additiveChecksum32(payload[:checkLen])
	binary.LittleEndian.PutUint32(header[12:16], crc)

	return header, data
}

func encodeTarget(b []byte, t RawTarget) {
	binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(t.SignalStrengthDB))
	binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(t.RangeM))
	binary.LittleEndian.PutUint32(b[8:12], math.Float32bits(t.VelocityMS))
	binary.LittleEndian.PutUint32(b[12:16], math.Float32bits(t.AzimuthDeg))
	binary.LittleEndian.PutUint32(b[16:20], t.ReservedA)
	binary.LittleEndian.PutUint32(b[20:24], t.ReservedB)
}
