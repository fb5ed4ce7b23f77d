package protocol

// Sequence is the 16-bit packet counter carried in every telemetry header. It
// starts at 1 and wraps silently. A Sequence belongs to the goroutine that
// builds telemetry packets and is not safe for concurrent use.
type Sequence struct {
	next uint16
}

// NewSequence returns a counter whose first value is 1.
func NewSequence() *Sequence {
	return &Sequence{next: 1}
}

// Next returns the current value and advances the counter.
func (s *Sequence) Next() uint16 {
	v := s.next
	s.next++
	return v
}

// Peek returns the value the next header will carry.
func (s *Sequence) Peek() uint16 {
	return s.next
}
