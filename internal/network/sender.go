package network

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/chaprd/internal/monitoring"
)

// ErrWriteFailed wraps any error or short write from the underlying Conn.
var ErrWriteFailed = errors.New("write failed")

// dropLogEvery limits repeat drop logging once a peer stops accepting.
const dropLogEvery = 100

// Sender writes whole packets to a Conn without retrying. Failures are
// counted and logged; the caller decides whether they matter.
type Sender struct {
	name string
	conn Conn

	closeOnce sync.Once
	sent      atomic.Uint64
	dropped   atomic.Uint64
}

// NewSender wraps conn. name identifies the channel in log lines.
func NewSender(name string, conn Conn) *Sender {
	return &Sender{name: name, conn: conn}
}

// Name returns the channel label.
func (s *Sender) Name() string { return s.name }

// Send writes b in a single call.
func (s *Sender) Send(b []byte) error {
	n, err := s.conn.Write(b)
	if err == nil && n != len(b) {
		err = io.ErrShortWrite
	}
	if err != nil {
		d := s.dropped.Add(1)
		if d == 1 || d%dropLogEvery == 0 {
			monitoring.Logf("%s: dropped %d packets (latest: %v)", s.name, d, err)
		}
		return fmt.Errorf("%s send: %w: %w", s.name, ErrWriteFailed, err)
	}
	s.sent.Add(1)
	return nil
}

// Stats returns the number of packets written and dropped.
func (s *Sender) Stats() (sent, dropped uint64) {
	return s.sent.Load(), s.dropped.Load()
}

// Close closes the underlying connection once.
func (s *Sender) Close() error {
	var err error
	s.closeOnce.Do(func() { err = s.conn.Close() })
	return err
}
