package network

import (
	"context"
	"fmt"
	"net"
	"sync"
)

// MockConn implements Conn for testing. Each Write is recorded as one packet.
type MockConn struct {
	mu sync.Mutex

	// Packets holds a copy of every successful Write.
	Packets [][]byte
	// WriteError is returned by every Write while set.
	WriteError error
	// Closed indicates whether Close was called.
	Closed bool
	// Remote is returned by RemoteAddr.
	Remote net.Addr
}

// NewMockConn creates a MockConn reporting remote as its peer.
func NewMockConn(remote net.Addr) *MockConn {
	return &MockConn{Remote: remote}
}

// Write records b.
func (m *MockConn) Write(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed {
		return 0, net.ErrClosed
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	m.Packets = append(m.Packets, append([]byte(nil), b...))
	return len(b), nil
}

// Close marks the connection as closed.
func (m *MockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// RemoteAddr returns the mock peer address.
func (m *MockConn) RemoteAddr() net.Addr { return m.Remote }

// Written returns a copy of the recorded packets.
func (m *MockConn) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.Packets))
	copy(out, m.Packets)
	return out
}

// IsClosed reports whether Close was called.
func (m *MockConn) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Closed
}

// MockDialCall records a call to DialContext.
type MockDialCall struct {
	Network string
	Address string
}

// MockDialer implements Dialer for testing. Each network has a queue of
// results consumed in order; an empty queue is an error.
type MockDialer struct {
	mu sync.Mutex

	results map[string][]mockDialResult
	// DialCalls records all DialContext calls.
	DialCalls []MockDialCall
}

type mockDialResult struct {
	conn Conn
	err  error
}

// NewMockDialer creates an empty MockDialer.
func NewMockDialer() *MockDialer {
	return &MockDialer{results: make(map[string][]mockDialResult)}
}

// AddConn queues a successful dial on network.
func (d *MockDialer) AddConn(network string, conn Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results[network] = append(d.results[network], mockDialResult{conn: conn})
}

// AddError queues a failed dial on network.
func (d *MockDialer) AddError(network string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results[network] = append(d.results[network], mockDialResult{err: err})
}

// DialContext pops the next queued result for network.
func (d *MockDialer) DialContext(ctx context.Context, network, address string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.DialCalls = append(d.DialCalls, MockDialCall{Network: network, Address: address})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	queue := d.results[network]
	if len(queue) == 0 {
		return nil, fmt.Errorf("dial %s %s: connection refused", network, address)
	}
	r := queue[0]
	d.results[network] = queue[1:]
	return r.conn, r.err
}

// Calls returns a copy of the recorded dial calls.
func (d *MockDialer) Calls() []MockDialCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]MockDialCall(nil), d.DialCalls...)
}

// MockResolver maps host names to fixed address lists.
type MockResolver struct {
	Hosts map[string][]string
	Err   error
}

// LookupHost returns the configured addresses for host.
func (r MockResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	addrs, ok := r.Hosts[host]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	return addrs, nil
}
