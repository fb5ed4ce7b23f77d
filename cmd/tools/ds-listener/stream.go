package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/banshee-data/chaprd/internal/protocol"
)

// recordStream reassembles descriptor records from a TCP byte stream.
type recordStream struct {
	pending []byte
}

// Write appends b and returns every record now complete. A malformed record
// is returned as an error; the stream cannot be resynchronised after one.
func (s *recordStream) Write(b []byte) ([]protocol.DescriptorRecord, error) {
	s.pending = append(s.pending, b...)

	var recs []protocol.DescriptorRecord
	for len(s.pending) > 0 {
		rec, n, err := protocol.ParseDescriptorRecord(s.pending)
		if errors.Is(err, protocol.ErrShortPacket) && n == 0 && !s.complete() {
			break
		}
		if err != nil {
			return recs, err
		}
		recs = append(recs, rec)
		s.pending = s.pending[n:]
	}
	return recs, nil
}

// complete reports whether the pending buffer holds the whole record its
// length prefix announces.
func (s *recordStream) complete() bool {
	if len(s.pending) < 2 {
		return false
	}
	n := int(s.pending[0])<<8 | int(s.pending[1])
	return len(s.pending) >= n+2
}

func formatRecord(r protocol.DescriptorRecord) string {
	kind := "joystick"
	if r.Xbox {
		kind = "xbox"
	}
	return fmt.Sprintf("Descriptor slot %d: %q (%s, %d axes %v, %d buttons, %d POVs)",
		r.Index, r.Name, kind, r.AxisCount, r.AxisIDs, r.Buttons, r.POVs)
}

func formatTelemetry(tp protocol.TelemetryPacket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "seq=%d cmd=%#02x", tp.Header.Sequence, tp.Header.Command)
	for i, js := range tp.Joysticks {
		fmt.Fprintf(&b, " | js%d axes=%v buttons=%#03x", i, js.Axes, js.Buttons)
		if len(js.POVs) > 0 {
			fmt.Fprintf(&b, " pov=%d", js.POVs[0])
		}
	}
	return b.String()
}
