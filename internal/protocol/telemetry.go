package protocol

import (
	"encoding/binary"

	"github.com/banshee-data/chaprd/internal/frame"
)

// Telemetry header constants.
const (
	ProtocolVersion  = 0x01
	FlagProgramStart = 0x10 // request program start
	StationID        = 0x00

	HeaderSize = 6

	// TagJoystick marks a joystick block inside a telemetry packet.
	TagJoystick = 0x0C
)

// AppendHeader appends a telemetry header for cmd, consuming one value of seq.
func AppendHeader(dst []byte, seq *Sequence, cmd byte) []byte {
	dst = binary.BigEndian.AppendUint16(dst, seq.Next())
	return append(dst, ProtocolVersion, cmd, FlagProgramStart, StationID)
}

// AppendJoystick appends the telemetry block of one joystick. The block is
// shaped by the joystick type's profile:
//
//	size | tag | axis count | axes... | button count | buttons hi | buttons lo | POV count | [POV hi | POV lo]
//
// size counts the bytes after itself.
func AppendJoystick(dst []byte, js frame.JoystickState) []byte {
	prof := ProfileFor(js.Type)

	start := len(dst)
	dst = append(dst, 0, TagJoystick, byte(len(prof.Axes)))
	for _, a := range prof.Axes {
		dst = append(dst, byte(a.Value(js)))
	}
	hi, lo := ButtonBytes(js.Buttons1, js.Buttons2)
	dst = append(dst, prof.Buttons, hi, lo, prof.POVs)
	if prof.POVs > 0 {
		dst = append(dst, js.TopHatMSB, js.TopHatLSB)
	}
	dst[start] = byte(len(dst) - start - 1)
	return dst
}

// ButtonBytes undoes the ChapR's button offset and returns the 12-bit button
// vector as the big-endian pair the driver station protocol carries.
func ButtonBytes(b1, b2 byte) (hi, lo byte) {
	return b2 >> 1, b1 | (b2&0x01)<<7
}

// Telemetry builds the UDP packet for p: a header followed by the blocks of
// joystick 1 and joystick 2.
func Telemetry(seq *Sequence, p frame.Packet) []byte {
	// largest block: 1+1+1+6+1+2+1+2
	buf := make([]byte, 0, HeaderSize+2*15)
	buf = AppendHeader(buf, seq, p.Command)
	buf = AppendJoystick(buf, p.Joy1)
	return AppendJoystick(buf, p.Joy2)
}
