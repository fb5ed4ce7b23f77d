package main

import (
	"fmt"
	"time"

	"github.com/0xcafed00d/joystick"

	"github.com/banshee-data/chaprd/internal/frame"
)

// liveJoystick forwards a joystick attached to the bench machine.
type liveJoystick struct {
	js joystick.Joystick
}

func openJoystick(id int) (*liveJoystick, error) {
	js, err := joystick.Open(id)
	if err != nil {
		return nil, fmt.Errorf("open joystick %d: %w", id, err)
	}
	return &liveJoystick{js: js}, nil
}

func (l *liveJoystick) Name() string { return l.js.Name() }

func (l *liveJoystick) Close() { l.js.Close() }

func (l *liveJoystick) State(time.Duration) (frame.JoystickState, error) {
	st, err := l.js.Read()
	if err != nil {
		return frame.JoystickState{}, fmt.Errorf("read joystick: %w", err)
	}
	return fromJoystick(st), nil
}

// fromJoystick maps up to six axes onto X1..Y3 and the low twelve buttons.
func fromJoystick(st joystick.State) frame.JoystickState {
	var axes [6]int8
	for i := 0; i < len(axes) && i < len(st.AxisData); i++ {
		axes[i] = axis(float64(st.AxisData[i]) / 32767)
	}
	b1, b2 := frame.EncodeButtons(uint16(st.Buttons & frame.ButtonMask))
	return frame.JoystickState{
		X1:       axes[0],
		Y1:       axes[1],
		X2:       axes[2],
		Y2:       axes[3],
		X3:       axes[4],
		Y3:       axes[5],
		Buttons1: b1,
		Buttons2: b2,
	}
}
