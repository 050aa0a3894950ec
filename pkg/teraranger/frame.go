package teraranger

import "github.com/robotalks/teraranger/pkg/crc8"

// FrameLen is the size of a measurement frame: big-endian raw value
// followed by its CRC-8.
const FrameLen = 3

// EncodeFrame builds the frame the sensor sends for raw.
func EncodeFrame(raw uint16) [FrameLen]byte {
	f := [FrameLen]byte{byte(raw >> 8), byte(raw)}
	f[2] = crc8.Checksum(f[:2])
	return f
}

// DecodeFrame extracts the raw value. ok is false if the frame is short
// or its checksum mismatches.
func DecodeFrame(frame []byte) (raw uint16, ok bool) {
	if len(frame) < FrameLen || !crc8.Valid(frame[:FrameLen]) {
		return 0, false
	}
	return uint16(frame[0])<<8 | uint16(frame[1]), true
}
