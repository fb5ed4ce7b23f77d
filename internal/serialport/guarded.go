package serialport

import "github.com/banshee-data/chaprd/internal/watchdog"

// StallMonitor reports whether the liveness watchdog has expired.
type StallMonitor interface {
	Stalled() bool
}

// GuardedReader refuses to read once the monitor reports a stall, so a
// blocked link surfaces as watchdog.ErrStalled on the next timed-out read.
type GuardedReader struct {
	port    SerialPorter
	monitor StallMonitor
}

// NewGuardedReader wraps port with monitor.
func NewGuardedReader(port SerialPorter, monitor StallMonitor) *GuardedReader {
	return &GuardedReader{port: port, monitor: monitor}
}

// Read returns watchdog.ErrStalled without touching the port when stalled.
func (g *GuardedReader) Read(p []byte) (int, error) {
	if g.monitor.Stalled() {
		return 0, watchdog.ErrStalled
	}
	return g.port.Read(p)
}
