package serialport

import (
	"context"
	"errors"
	"time"

	"github.com/banshee-data/chaprd/internal/fsutil"
	"github.com/banshee-data/chaprd/internal/monitoring"
	"github.com/banshee-data/chaprd/internal/timeutil"
)

// ErrNoDevice is returned by Probe when none of the candidate paths could be
// opened.
var ErrNoDevice = errors.New("no serial device present")

// Discoverer locates the ChapR's USB serial adapter. It checks each path in
// order and opens the first that exists.
type Discoverer struct {
	FS       fsutil.FileSystem
	Clock    timeutil.Clock
	Factory  SerialPortFactory
	Paths    []string
	Interval time.Duration
	Options  PortOptions
}

// Probe makes one pass over the candidate paths. A path that exists but fails
// to open is logged and skipped.
func (d *Discoverer) Probe() (SerialPorter, string, error) {
	for _, path := range d.Paths {
		if !d.FS.Exists(path) {
			continue
		}
		port, err := d.Factory.Open(path, d.Options)
		if err != nil {
			monitoring.Logf("serial: %s present but could not be opened: %v", path, err)
			continue
		}
		return port, path, nil
	}
	return nil, "", ErrNoDevice
}

// Discover blocks until a device is opened or ctx is done, probing once per
// Interval.
func (d *Discoverer) Discover(ctx context.Context) (SerialPorter, string, error) {
	warned := false
	for {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		port, path, err := d.Probe()
		if err == nil {
			monitoring.Logf("serial: opened %s", path)
			return port, path, nil
		}
		if !warned {
			monitoring.Logf("serial: waiting for device at %v", d.Paths)
			warned = true
		}
		if err := d.Clock.Sleep(ctx, d.Interval); err != nil {
			return nil, "", err
		}
	}
}
