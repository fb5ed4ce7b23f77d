package protocol

import (
	"encoding/binary"

	"github.com/banshee-data/chaprd/internal/frame"
)

// Descriptor constants.
const (
	TagDescriptor = 0x02

	DeviceTypeJoystick = 0x14
	DeviceTypeNone     = 0xFF

	// DescriptorSlots is the number of joystick slots always advertised.
	DescriptorSlots = 6

	// EmptyRecordSize is the on-wire size of an absent-device record.
	EmptyRecordSize = 10
)

// AppendDescriptorRecord appends the descriptor record announcing a joystick
// of type t in slot index:
//
//	length (2) | tag | index | xbox | device type | name length | name... |
//	axis count | [axis ids...] | button count | POV count
//
// The axis ids are left out for Xbox pads. length counts the bytes after
// itself.
func AppendDescriptorRecord(dst []byte, index byte, t byte) []byte {
	prof := ProfileFor(t)

	start := len(dst)
	dst = append(dst, 0, 0, TagDescriptor, index, boolByte(prof.Xbox), DeviceTypeJoystick)
	dst = append(dst, byte(len(prof.Name)))
	dst = append(dst, prof.Name...)
	dst = append(dst, byte(len(prof.Axes)))
	if !prof.Xbox {
		dst = append(dst, prof.AxisIDs...)
	}
	dst = append(dst, prof.Buttons, prof.POVs)
	binary.BigEndian.PutUint16(dst[start:], uint16(len(dst)-start-2))
	return dst
}

// AppendEmptyRecord appends the record for a slot with no device attached.
func AppendEmptyRecord(dst []byte, index byte) []byte {
	return append(dst,
		0x00, EmptyRecordSize-2, // length
		TagDescriptor,
		index,
		0x00,           // not xbox
		DeviceTypeNone, // no device
		0x00,           // name length
		0x00,           // axis count
		0x00,           // button count
		0x00,           // POV count
	)
}

// Descriptor builds the TCP packet announcing the joystick pair of p. The two
// ChapR joysticks always fill slots 0 and 1; the remaining slots are sent
// empty.
func Descriptor(p frame.Packet) []byte {
	buf := make([]byte, 0, 2*40+(DescriptorSlots-2)*EmptyRecordSize)
	buf = AppendDescriptorRecord(buf, 0, p.Joy1.Type)
	buf = AppendDescriptorRecord(buf, 1, p.Joy2.Type)
	for i := byte(2); i < DescriptorSlots; i++ {
		buf = AppendEmptyRecord(buf, i)
	}
	return buf
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
