package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/chaprd/internal/frame"
)

func TestParseTelemetry(t *testing.T) {
	b1, b2 := frame.EncodeButtons(0x0A5C)
	p := frame.Packet{
		Command: 0x24,
		Joy1:    frame.JoystickState{Type: 0, TopHatLSB: 8, X1: -128, Y3: 127, Buttons1: b1, Buttons2: b2},
		Joy2:    frame.JoystickState{Type: 5, X2: -1},
	}
	seq := &Sequence{next: 0x1234}

	pkt, err := ParseTelemetry(Telemetry(seq, p))
	require.NoError(t, err)

	assert.Equal(t, Header{Sequence: 0x1234, Version: ProtocolVersion, Command: 0x24, Flags: FlagProgramStart}, pkt.Header)
	require.Len(t, pkt.Joysticks, 2)

	xbox := pkt.Joysticks[0]
	assert.Equal(t, []int8{-128, 0, 0, 0, 0, 127}, xbox.Axes)
	assert.Equal(t, byte(10), xbox.ButtonCount)
	assert.Equal(t, uint16(0x0A5C), xbox.Buttons)
	assert.Equal(t, []uint16{8}, xbox.POVs)

	attack := pkt.Joysticks[1]
	assert.Equal(t, []int8{0, 0, -1}, attack.Axes)
	assert.Equal(t, byte(11), attack.ButtonCount)
	assert.Empty(t, attack.POVs)
}

func TestParseTelemetry_Errors(t *testing.T) {
	full := Telemetry(NewSequence(), frame.Packet{Joy1: f310State(), Joy2: f310State()})

	_, err := ParseTelemetry(full[:4])
	assert.True(t, errors.Is(err, ErrShortPacket))

	_, err = ParseTelemetry(full[:len(full)-1])
	assert.True(t, errors.Is(err, ErrShortPacket))

	bad := append([]byte(nil), full...)
	bad[HeaderSize+1] = 0x99
	_, err = ParseTelemetry(bad)
	assert.Error(t, err)
}

func TestParseDescriptor(t *testing.T) {
	recs, err := ParseDescriptor(Descriptor(packetWithTypes(1, 3)))
	require.NoError(t, err)
	require.Len(t, recs, DescriptorSlots)

	assert.Equal(t, DescriptorRecord{
		Index:      0,
		Xbox:       true,
		DeviceType: DeviceTypeJoystick,
		Name:       "XBOX 360",
		AxisCount:  6,
		Buttons:    10,
		POVs:       1,
	}, recs[0])
	assert.Equal(t, DescriptorRecord{
		Index:      1,
		DeviceType: DeviceTypeJoystick,
		Name:       "Logitech Dual Action",
		AxisCount:  4,
		AxisIDs:    []byte{0, 1, 2, 5},
		Buttons:    12,
		POVs:       1,
	}, recs[1])

	for i, rec := range recs[2:] {
		assert.False(t, rec.Present(), "slot %d", i+2)
		assert.Equal(t, byte(i+2), rec.Index)
	}
}

func TestParseDescriptorRecord_Errors(t *testing.T) {
	full := Descriptor(packetWithTypes(3, 3))

	_, _, err := ParseDescriptorRecord(full[:1])
	assert.True(t, errors.Is(err, ErrShortPacket))

	_, _, err = ParseDescriptorRecord(full[:10])
	assert.True(t, errors.Is(err, ErrShortPacket))

	bad := append([]byte(nil), full...)
	bad[2] = 0x07
	_, _, err = ParseDescriptorRecord(bad)
	assert.Error(t, err)
}
