package protocol

// HelloSize is the length of a hello packet.
const HelloSize = 6

// Hello returns the i-th hello packet. A few of these on the telemetry port
// make the roboRIO open its descriptor listener; i lets it drop duplicates.
func Hello(i byte) []byte {
	return []byte{0x00, i, 0x01, 0x00, 0x00, 0x00}
}
