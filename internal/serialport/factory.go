package serialport

import (
	"fmt"

	"go.bug.st/serial"
)

var _ TimeoutSerialPorter = serial.Port(nil)

// RealFactory opens ports with go.bug.st/serial.
type RealFactory struct{}

// Open opens the serial device at path and applies opts, including the read
// timeout that lets the read loop notice a stalled watchdog.
func (RealFactory) Open(path string, opts PortOptions) (SerialPorter, error) {
	norm, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	mode, err := norm.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := applyReadTimeout(port, norm.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
	}
	return port, nil
}
