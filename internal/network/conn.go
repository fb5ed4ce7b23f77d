// Package network carries the daemon's traffic to the roboRIO's local
// network stack: UDP telemetry and hellos, and the TCP descriptor channel.
package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrNoAddress is returned when a host resolves to no usable address.
var ErrNoAddress = errors.New("no address for host")

// Conn defines the subset of net.Conn the daemon writes to.
// This abstraction enables unit testing without real network connections.
type Conn interface {
	Write(b []byte) (n int, err error)
	Close() error
	RemoteAddr() net.Addr
}

// Dialer defines an interface for creating outbound connections.
type Dialer interface {
	// DialContext connects to address on the named network ("udp" or "tcp").
	DialContext(ctx context.Context, network, address string) (Conn, error)
}

// RealDialer implements Dialer using net.Dialer.
type RealDialer struct {
	// Timeout bounds a single connection attempt. Zero means no limit.
	Timeout time.Duration
}

// DialContext dials with the standard library.
func (d RealDialer) DialContext(ctx context.Context, network, address string) (Conn, error) {
	nd := net.Dialer{Timeout: d.Timeout}
	return nd.DialContext(ctx, network, address)
}

// Resolver looks up host addresses.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// RealResolver implements Resolver with net.DefaultResolver.
type RealResolver struct{}

// LookupHost resolves host with the system resolver.
func (RealResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	return net.DefaultResolver.LookupHost(ctx, host)
}

// ResolveIPv4 returns the first IPv4 address for host. The roboRIO's
// listeners are bound on IPv4 loopback, so IPv6 results are skipped.
func ResolveIPv4(ctx context.Context, r Resolver, host string) (string, error) {
	addrs, err := r.LookupHost(ctx, host)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", host, err)
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			return ip.String(), nil
		}
	}
	return "", fmt.Errorf("resolve %s: %w", host, ErrNoAddress)
}
