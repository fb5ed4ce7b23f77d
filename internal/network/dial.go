package network

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/chaprd/internal/monitoring"
	"github.com/banshee-data/chaprd/internal/protocol"
	"github.com/banshee-data/chaprd/internal/timeutil"
)

// DialUDP opens the telemetry socket. UDP dialing only binds a local port,
// so it fails only for local reasons.
func DialUDP(ctx context.Context, d Dialer, addr string) (*Sender, error) {
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp %s: %w", addr, err)
	}
	return NewSender("udp", conn), nil
}

// DialTCPWithRetry connects to addr, retrying every delay until it succeeds
// or ctx is done. There is no attempt cap: the descriptor listener may come
// up long after the daemon.
func DialTCPWithRetry(ctx context.Context, d Dialer, clock timeutil.Clock, addr string, delay time.Duration) (*Sender, error) {
	for attempt := 1; ; attempt++ {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			if attempt > 1 {
				monitoring.Logf("tcp: connected to %s after %d attempts", addr, attempt)
			}
			return NewSender("tcp", conn), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		monitoring.Logf("tcp: connect %s failed (attempt %d): %v", addr, attempt, err)
		if err := clock.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// SendHello sends count hello packets with indices 0..count-1, sleeping
// interval after each. Send errors are logged by the Sender and do not stop
// the sequence.
func SendHello(ctx context.Context, clock timeutil.Clock, s *Sender, count int, interval time.Duration) error {
	for i := 0; i < count; i++ {
		_ = s.Send(protocol.Hello(byte(i)))
		if err := clock.Sleep(ctx, interval); err != nil {
			return err
		}
	}
	return nil
}
