//go:build !unix

package restart

// Restart is unavailable off unix.
func (e *Exec) Restart() error {
	return ErrUnsupported
}
