// Package serialport owns the USB serial link to the ChapR: finding the
// adapter, opening it in raw mode and reading from it under watchdog control.
package serialport

import (
	"io"
	"time"
)

// SerialPorter defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without real serial hardware.
type SerialPorter interface {
	io.Reader
	io.Closer
}

// TimeoutSerialPorter extends SerialPorter with timeout capabilities.
// go.bug.st/serial ports implement it; a Read that times out returns 0, nil.
type TimeoutSerialPorter interface {
	SerialPorter
	// SetReadTimeout sets the read timeout for the serial port.
	SetReadTimeout(timeout time.Duration) error
}

// SerialPortFactory defines an interface for creating serial ports.
// This abstraction enables dependency injection of serial port creation.
type SerialPortFactory interface {
	// Open opens a serial port at the specified path with the given options.
	Open(path string, opts PortOptions) (SerialPorter, error)
}

// applyReadTimeout sets d on ports that support it. A zero d leaves reads
// blocking.
func applyReadTimeout(p SerialPorter, d time.Duration) error {
	tp, ok := p.(TimeoutSerialPorter)
	if !ok || d <= 0 {
		return nil
	}
	return tp.SetReadTimeout(d)
}
