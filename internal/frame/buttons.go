package frame

// ButtonMask covers the twelve buttons a gamepad can report.
const ButtonMask = 0x0FFF

// EncodeButtons splits a 12-bit button vector the way the ChapR does before
// sending it: buttons 0-6 go in the first byte and buttons 7-11 in the second.
// Keeping both bytes below 0x80 means neither can ever be a sync byte.
func EncodeButtons(v uint16) (b1, b2 byte) {
	v &= ButtonMask
	return byte(v & 0x7F), byte(v >> 7)
}

// DecodeButtons rebuilds the button vector from its two wire bytes.
func DecodeButtons(b1, b2 byte) uint16 {
	return (uint16(b1&0x7F) | uint16(b2)<<7) & ButtonMask
}
