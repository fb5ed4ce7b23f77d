// Package frame decodes the sync-delimited serial stream produced by the ChapR
// into joystick packets.
//
// A frame on the wire is three 0xFF sync bytes, a fixed 24-byte payload and a
// checksum byte:
//
//	FF FF FF | cmd | joystick 1 (11) | 00 | joystick 2 (11) | checksum
//
// The checksum is the payload sum masked to seven bits, so it is never 0xFF.
// The ChapR keeps three 0xFF bytes out of its payloads, but the decoder does
// not depend on that: once a marker is seen, the next 24 bytes are payload
// whatever their value.
package frame

const (
	// SyncByte is repeated SyncLen times ahead of every payload.
	SyncByte = 0xFF
	SyncLen  = 3

	// PayloadSize is the number of bytes between the sync marker and the
	// checksum.
	PayloadSize = 24

	// FrameSize is the full on-wire size of one frame.
	FrameSize = SyncLen + PayloadSize + 1

	checksumMask = 0x7F
)

// Payload offsets of the joystick blocks. Offset 12 is reserved and always
// zero; joystick 2 runs to the last payload byte.
const (
	offCommand   = 0
	offJoystick1 = 1
	offReserved  = 12
	offJoystick2 = 13
)

// Joystick block layout, relative to the block start.
const (
	jsTopHatMSB = iota
	jsTopHatLSB
	jsType
	jsX1
	jsY1
	jsButtons1
	jsX2
	jsY2
	jsButtons2
	jsX3
	jsY3
	joystickBlockSize
)

// JoystickState is the decoded state of one gamepad.
type JoystickState struct {
	// Type selects the capability profile (axes, buttons, POV).
	Type byte

	// TopHat is carried as two raw bytes; 0 means centered and 1-8 a
	// direction.
	TopHatMSB byte
	TopHatLSB byte

	X1, Y1 int8
	X2, Y2 int8
	X3, Y3 int8

	// Buttons1 and Buttons2 hold the button vector in the producer's offset
	// form (see EncodeButtons).
	Buttons1 byte
	Buttons2 byte
}

// Packet is the content of a validated frame.
type Packet struct {
	Command byte
	Joy1    JoystickState
	Joy2    JoystickState
}

// Types returns the joystick type pair, which decides when descriptors are
// announced.
func (p Packet) Types() [2]byte {
	return [2]byte{p.Joy1.Type, p.Joy2.Type}
}

// Decode maps a checksummed payload onto a Packet. Every payload decodes; type
// values outside the known profile table are passed through untouched.
func Decode(payload [PayloadSize]byte) Packet {
	return Packet{
		Command: payload[offCommand],
		Joy1:    decodeJoystick(payload[offJoystick1 : offJoystick1+joystickBlockSize]),
		Joy2:    decodeJoystick(payload[offJoystick2 : offJoystick2+joystickBlockSize]),
	}
}

func decodeJoystick(b []byte) JoystickState {
	return JoystickState{
		TopHatMSB: b[jsTopHatMSB],
		TopHatLSB: b[jsTopHatLSB],
		Type:      b[jsType],
		X1:        int8(b[jsX1]),
		Y1:        int8(b[jsY1]),
		Buttons1:  b[jsButtons1],
		X2:        int8(b[jsX2]),
		Y2:        int8(b[jsY2]),
		Buttons2:  b[jsButtons2],
		X3:        int8(b[jsX3]),
		Y3:        int8(b[jsY3]),
	}
}

// Checksum returns the seven-bit checksum of payload.
func Checksum(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum += b
	}
	return sum & checksumMask
}

// EncodePayload lays p out in wire order, leaving the reserved byte zero.
func EncodePayload(p Packet) [PayloadSize]byte {
	var payload [PayloadSize]byte
	payload[offCommand] = p.Command
	encodeJoystick(payload[offJoystick1 : offJoystick1+joystickBlockSize], p.Joy1)
	encodeJoystick(payload[offJoystick2 : offJoystick2+joystickBlockSize], p.Joy2)
	return payload
}

// EncodeFrame returns the full frame, sync marker and checksum included, that
// the ChapR would send for p.
func EncodeFrame(p Packet) []byte {
	payload := EncodePayload(p)
	out := make([]byte, 0, FrameSize)
	out = append(out, SyncByte, SyncByte, SyncByte)
	out = append(out, payload[:]...)
	return append(out, Checksum(payload[:]))
}

func encodeJoystick(b []byte, j JoystickState) {
	b[jsTopHatMSB] = j.TopHatMSB
	b[jsTopHatLSB] = j.TopHatLSB
	b[jsType] = j.Type
	b[jsX1] = byte(j.X1)
	b[jsY1] = byte(j.Y1)
	b[jsButtons1] = j.Buttons1
	b[jsX2] = byte(j.X2)
	b[jsY2] = byte(j.Y2)
	b[jsButtons2] = j.Buttons2
	b[jsX3] = byte(j.X3)
	b[jsY3] = byte(j.Y3)
}
