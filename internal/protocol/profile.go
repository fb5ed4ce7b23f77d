// Package protocol translates decoded ChapR packets into the driver station
// wire formats the roboRIO expects: the per-frame UDP telemetry packet and the
// TCP joystick descriptor sent whenever the attached gamepads change.
package protocol

import "github.com/banshee-data/chaprd/internal/frame"

// Axis names a signed axis field of a joystick state.
type Axis int

const (
	AxisX1 Axis = iota
	AxisY1
	AxisX2
	AxisY2
	AxisX3
	AxisY3
)

// Value returns the axis byte of js.
func (a Axis) Value(js frame.JoystickState) int8 {
	switch a {
	case AxisX1:
		return js.X1
	case AxisY1:
		return js.Y1
	case AxisX2:
		return js.X2
	case AxisY2:
		return js.Y2
	case AxisX3:
		return js.X3
	case AxisY3:
		return js.Y3
	}
	return 0
}

// Profile describes what a joystick type reports. Both the telemetry and the
// descriptor encoders are driven from it.
type Profile struct {
	Name    string
	Xbox    bool
	Axes    []Axis // state fields sent in telemetry, in wire order
	AxisIDs []byte // axis indices announced in the descriptor; not sent for Xbox pads
	Buttons byte
	POVs    byte
}

var xbox360 = Profile{
	Name:    "XBOX 360",
	Xbox:    true,
	Axes:    []Axis{AxisX1, AxisY1, AxisX2, AxisY2, AxisX3, AxisY3},
	Buttons: 10,
	POVs:    1,
}

var logitechDualAction = Profile{
	Name:    "Logitech Dual Action",
	Axes:    []Axis{AxisX1, AxisY1, AxisX2, AxisY2},
	AxisIDs: []byte{0, 1, 2, 5},
	Buttons: 12,
	POVs:    1,
}

var logitechAttack3 = Profile{
	Name:    "Logitech Attack 3 USB",
	Axes:    []Axis{AxisX1, AxisY1, AxisX2},
	AxisIDs: []byte{0, 1, 2},
	Buttons: 11,
	POVs:    0,
}

// profiles is keyed by the joystick type byte sent by the ChapR.
var profiles = map[byte]*Profile{
	0: &xbox360, // Gamestop Xbox 360
	1: &xbox360, // Afterglow Xbox 360
	2: &xbox360, // Microsoft Xbox 360
	3: &logitechDualAction,
	5: &logitechAttack3,
}

// DefaultProfile is used for any type not in the table.
var DefaultProfile = &logitechDualAction

// ProfileFor returns the profile of joystick type t, falling back to
// DefaultProfile for unknown types.
func ProfileFor(t byte) *Profile {
	if p, ok := profiles[t]; ok {
		return p
	}
	return DefaultProfile
}

// KnownType reports whether t has its own profile entry.
func KnownType(t byte) bool {
	_, ok := profiles[t]
	return ok
}
