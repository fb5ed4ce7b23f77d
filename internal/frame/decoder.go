package frame

import "fmt"

// State is a position in the frame state machine.
type State int

const (
	StateSync0 State = iota
	StateSync1
	StateSync2
	StateCollect
	StateVerify
)

func (s State) String() string {
	switch s {
	case StateSync0:
		return "sync0"
	case StateSync1:
		return "sync1"
	case StateSync2:
		return "sync2"
	case StateCollect:
		return "collect"
	case StateVerify:
		return "verify"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Kind classifies the outcome of feeding one byte.
type Kind int

const (
	// NeedMore means the byte was consumed and no frame is complete yet.
	NeedMore Kind = iota
	// PacketReady means the byte completed a frame whose checksum matched.
	PacketReady
	// Desync means a complete payload was dropped because its checksum did
	// not match.
	Desync
)

func (k Kind) String() string {
	switch k {
	case NeedMore:
		return "need-more"
	case PacketReady:
		return "packet"
	case Desync:
		return "desync"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is returned by Feed. Packet is only set when Kind is PacketReady.
type Result struct {
	Kind   Kind
	Packet Packet
}

// Stats counts decoder outcomes since construction or the last Reset.
type Stats struct {
	Packets uint64
	Desyncs uint64
}

// Decoder is a byte-at-a-time frame parser. The zero value is ready to use and
// starts searching for sync. It is not safe for concurrent use.
type Decoder struct {
	state State
	buf   [PayloadSize]byte
	count int
	sum   byte
	ffRun int // consecutive sync bytes seen, across all states
	stats Stats
}

// NewDecoder returns a Decoder searching for sync.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// State reports where the decoder is in the frame.
func (d *Decoder) State() State {
	return d.state
}

// Stats returns the decoder's counters.
func (d *Decoder) Stats() Stats {
	return d.stats
}

// Reset drops any partial frame and clears the counters.
func (d *Decoder) Reset() {
	*d = Decoder{}
}

// Feed advances the state machine by one byte.
//
// Once a marker has been seen the next 24 bytes are taken as payload, 0xFF or
// not, so any payload with a matching checksum decodes. A marker inside a
// payload is not looked for: the frame it spoils fails its checksum and the
// search resumes from there.
func (d *Decoder) Feed(b byte) Result {
	if b == SyncByte {
		d.ffRun++
	} else {
		d.ffRun = 0
	}

	switch d.state {
	case StateSync0, StateSync1, StateSync2:
		if b != SyncByte {
			d.state = StateSync0
			return Result{Kind: NeedMore}
		}
		d.state++
		if d.state == StateCollect {
			d.beginPayload()
		}
		return Result{Kind: NeedMore}

	case StateCollect:
		d.buf[d.count] = b
		d.sum += b
		d.count++
		if d.count == PayloadSize {
			d.state = StateVerify
		}
		return Result{Kind: NeedMore}

	case StateVerify:
		if d.sum&checksumMask != b {
			d.stats.Desyncs++
			d.enterSync()
			return Result{Kind: Desync}
		}
		d.stats.Packets++
		d.state = StateSync0
		return Result{Kind: PacketReady, Packet: Decode(d.buf)}
	}

	// Unknown state; start over.
	d.state = StateSync0
	return Result{Kind: NeedMore}
}

// enterSync resumes the sync search after a rejected payload, crediting the
// sync bytes that ended it. A checksum byte is never 0xFF, so a full run means
// a marker has just completed and the next byte is payload.
func (d *Decoder) enterSync() {
	d.state = StateSync0 + State(min(d.ffRun, SyncLen))
	if d.state == StateCollect {
		d.beginPayload()
	}
}

func (d *Decoder) beginPayload() {
	d.count = 0
	d.sum = 0
}
