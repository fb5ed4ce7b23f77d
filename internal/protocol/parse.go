package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortPacket is returned when a buffer ends inside a field.
var ErrShortPacket = errors.New("packet truncated")

// Header is the decoded telemetry header.
type Header struct {
	Sequence uint16
	Version  byte
	Command  byte
	Flags    byte
	Station  byte
}

// JoystickBlock is one decoded telemetry joystick block.
type JoystickBlock struct {
	Axes        []int8
	ButtonCount byte
	Buttons     uint16
	POVs        []uint16
}

// TelemetryPacket is a decoded telemetry packet.
type TelemetryPacket struct {
	Header    Header
	Joysticks []JoystickBlock
}

// ParseTelemetry decodes a UDP telemetry packet. It reads as many joystick
// blocks as the buffer holds.
func ParseTelemetry(b []byte) (TelemetryPacket, error) {
	var pkt TelemetryPacket
	if len(b) < HeaderSize {
		return pkt, fmt.Errorf("header: %w", ErrShortPacket)
	}
	pkt.Header = Header{
		Sequence: binary.BigEndian.Uint16(b[0:2]),
		Version:  b[2],
		Command:  b[3],
		Flags:    b[4],
		Station:  b[5],
	}

	rest := b[HeaderSize:]
	for len(rest) > 0 {
		size := int(rest[0])
		if len(rest) < size+1 {
			return pkt, fmt.Errorf("joystick %d: %w", len(pkt.Joysticks), ErrShortPacket)
		}
		if size < 1 || rest[1] != TagJoystick {
			return pkt, fmt.Errorf("joystick %d: unexpected tag", len(pkt.Joysticks))
		}
		block, err := parseJoystickBlock(rest[2 : size+1])
		if err != nil {
			return pkt, fmt.Errorf("joystick %d: %w", len(pkt.Joysticks), err)
		}
		pkt.Joysticks = append(pkt.Joysticks, block)
		rest = rest[size+1:]
	}
	return pkt, nil
}

func parseJoystickBlock(b []byte) (JoystickBlock, error) {
	var js JoystickBlock
	r := reader{b: b}

	axes := int(r.readByte())
	for i := 0; i < axes; i++ {
		js.Axes = append(js.Axes, int8(r.readByte()))
	}
	js.ButtonCount = r.readByte()
	js.Buttons = r.readUint16()
	povs := int(r.readByte())
	for i := 0; i < povs; i++ {
		js.POVs = append(js.POVs, r.readUint16())
	}
	if r.err != nil {
		return js, r.err
	}
	if len(r.b) != 0 {
		return js, fmt.Errorf("%d trailing bytes", len(r.b))
	}
	return js, nil
}

// DescriptorRecord is one decoded joystick descriptor record.
type DescriptorRecord struct {
	Index      byte
	Xbox       bool
	DeviceType byte
	Name       string
	AxisCount  byte
	AxisIDs    []byte
	Buttons    byte
	POVs       byte
}

// Present reports whether the record describes an attached device.
func (r DescriptorRecord) Present() bool {
	return r.DeviceType != DeviceTypeNone
}

// ParseDescriptorRecord decodes the record at the start of b and returns it
// along with the number of bytes it occupied.
func ParseDescriptorRecord(b []byte) (DescriptorRecord, int, error) {
	var rec DescriptorRecord
	if len(b) < 2 {
		return rec, 0, ErrShortPacket
	}
	n := int(binary.BigEndian.Uint16(b)) + 2
	if len(b) < n {
		return rec, 0, ErrShortPacket
	}

	r := reader{b: b[2:n]}
	if tag := r.readByte(); r.err == nil && tag != TagDescriptor {
		return rec, 0, fmt.Errorf("unexpected tag %#02x", tag)
	}
	rec.Index = r.readByte()
	rec.Xbox = r.readByte() != 0
	rec.DeviceType = r.readByte()
	rec.Name = string(r.readBytes(int(r.readByte())))
	rec.AxisCount = r.readByte()
	if !rec.Xbox {
		rec.AxisIDs = r.readBytes(int(rec.AxisCount))
	}
	rec.Buttons = r.readByte()
	rec.POVs = r.readByte()
	if r.err != nil {
		return rec, 0, r.err
	}
	if len(r.b) != 0 {
		return rec, 0, fmt.Errorf("record %d: %d trailing bytes", rec.Index, len(r.b))
	}
	return rec, n, nil
}

// ParseDescriptor decodes every record in a descriptor packet.
func ParseDescriptor(b []byte) ([]DescriptorRecord, error) {
	var recs []DescriptorRecord
	for len(b) > 0 {
		rec, n, err := ParseDescriptorRecord(b)
		if err != nil {
			return recs, fmt.Errorf("record %d: %w", len(recs), err)
		}
		recs = append(recs, rec)
		b = b[n:]
	}
	return recs, nil
}

// reader walks a byte slice and latches the first short read.
type reader struct {
	b   []byte
	err error
}

func (r *reader) readBytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.b) < n {
		r.err = ErrShortPacket
		r.b = nil
		return nil
	}
	out := append([]byte(nil), r.b[:n]...)
	r.b = r.b[n:]
	return out
}

func (r *reader) readByte() byte {
	if b := r.readBytes(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) readUint16() uint16 {
	if b := r.readBytes(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}
	return 0
}
