package protocol

import "github.com/banshee-data/chaprd/internal/frame"

// Announcer decides when a descriptor must be sent. It remembers the last
// announced joystick type pair; the first packet it sees is always announced.
type Announcer struct {
	last      [2]byte
	announced bool
}

// Changed reports whether p carries a type pair different from the one last
// announced, and if so records it as announced.
func (a *Announcer) Changed(p frame.Packet) bool {
	types := p.Types()
	if a.announced && types == a.last {
		return false
	}
	a.last = types
	a.announced = true
	return true
}

// Last returns the last announced pair and whether anything was announced.
func (a *Announcer) Last() ([2]byte, bool) {
	return a.last, a.announced
}

// Reset forgets the last announcement, so the next packet is announced again.
func (a *Announcer) Reset() {
	*a = Announcer{}
}
