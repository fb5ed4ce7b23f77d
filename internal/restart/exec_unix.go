//go:build unix

package restart

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/banshee-data/chaprd/internal/monitoring"
)

// Restart marks inherited descriptors close-on-exec and execs Path. It only
// returns on failure.
func (e *Exec) Restart() error {
	var rl unix.Rlimit
	limit := uint64(1024)
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err == nil {
		limit = uint64(rl.Cur)
	} else {
		monitoring.Logf("restart: getrlimit: %v; assuming %d descriptors", err, limit)
	}

	lo, hi := descriptorRange(limit)
	for fd := lo; fd < hi; fd++ {
		unix.CloseOnExec(fd)
	}

	monitoring.Logf("restart: exec %s", e.Path)
	if err := unix.Exec(e.Path, e.Args, e.Env); err != nil {
		return fmt.Errorf("exec %s: %w", e.Path, err)
	}
	return nil
}
