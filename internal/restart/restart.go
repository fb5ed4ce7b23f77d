// Package restart replaces the running daemon with a fresh copy of itself.
package restart

import (
	"errors"
	"os"
)

// Restarter replaces the current process. On success Restart does not
// return; any returned error means the process is still running.
type Restarter interface {
	Restart() error
}

// ErrUnsupported is returned where the platform cannot exec in place.
var ErrUnsupported = errors.New("in-place restart not supported on this platform")

// DefaultExecPath names the running binary on Linux.
const DefaultExecPath = "/proc/self/exe"

// maxDescriptors caps the close-on-exec sweep when RLIMIT_NOFILE is
// unlimited or very large.
const maxDescriptors = 65536

// Exec re-executes Path with the current arguments and environment after
// marking every descriptor from 3 up to the open-files limit close-on-exec.
type Exec struct {
	Path string
	Args []string
	Env  []string
}

// NewExec returns an Exec for the current process image.
func NewExec(path string) *Exec {
	if path == "" {
		path = DefaultExecPath
	}
	return &Exec{Path: path, Args: os.Args, Env: os.Environ()}
}

// descriptorRange returns the half-open range [3, limit) to mark, clamped
// to maxDescriptors.
func descriptorRange(limit uint64) (lo, hi int) {
	lo = 3
	if limit > maxDescriptors {
		limit = maxDescriptors
	}
	hi = int(limit)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Func adapts a function to Restarter.
type Func func() error

// Restart calls f.
func (f Func) Restart() error { return f() }
