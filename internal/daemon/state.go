package daemon

import "fmt"

// State is the daemon's connection state.
type State int32

const (
	// StateDiscovering waits for a serial adapter to appear and opens it.
	StateDiscovering State = iota
	// StateConnecting opens the UDP and TCP channels and arms the watchdog.
	StateConnecting
	// StateActive forwards decoded packets.
	StateActive
	// StateFaulted tears everything down and restarts.
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateDiscovering:
		return "discovering"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}
