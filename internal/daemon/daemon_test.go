package daemon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/chaprd/internal/config"
	"github.com/banshee-data/chaprd/internal/frame"
	"github.com/banshee-data/chaprd/internal/fsutil"
	"github.com/banshee-data/chaprd/internal/monitoring"
	"github.com/banshee-data/chaprd/internal/network"
	"github.com/banshee-data/chaprd/internal/protocol"
	"github.com/banshee-data/chaprd/internal/restart"
	"github.com/banshee-data/chaprd/internal/serialport"
	"github.com/banshee-data/chaprd/internal/timeutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

type harness struct {
	cfg         config.Config
	clock       *timeutil.MockClock
	fs          *fsutil.MemoryFileSystem
	serial      *serialport.MockSerialPortFactory
	dialer      *network.MockDialer
	resolver    network.MockResolver
	transitions []State
	restarts    int
}

func newHarness() *harness {
	h := &harness{
		cfg:    config.Default(),
		clock:  timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		fs:     fsutil.NewMemoryFileSystem(),
		serial: serialport.NewMockSerialPortFactory(),
		dialer: network.NewMockDialer(),
		resolver: network.MockResolver{Hosts: map[string][]string{
			"localhost": {"::1", "127.0.0.1"},
		}},
	}
	h.fs.AddDevice("/dev/ttyUSB0")
	return h
}

// addCycle queues the handles one connection cycle consumes.
func (h *harness) addCycle(port serialport.SerialPorter) (udp, tcp *network.MockConn) {
	h.serial.AddPort("/dev/ttyUSB0", port)
	udp = network.NewMockConn(nil)
	tcp = network.NewMockConn(nil)
	h.dialer.AddConn("udp", udp)
	h.dialer.AddConn("tcp", tcp)
	return udp, tcp
}

// run drives the daemon until the restarter has been called stopAfter times.
// Earlier restarts fail, so the daemon reconnects in process.
func (h *harness) run(t *testing.T, stopAfter int) (*Daemon, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	d, err := New(Options{
		Config:   h.cfg,
		Clock:    h.clock,
		FS:       h.fs,
		Serial:   h.serial,
		Dialer:   h.dialer,
		Resolver: h.resolver,
		DescribePort: func(path string) string {
			return path + " (mock)"
		},
		Restarter: restart.Func(func() error {
			h.restarts++
			if h.restarts >= stopAfter {
				cancel()
			}
			return errors.New("exec disabled in tests")
		}),
		OnTransition: func(_, to State) {
			h.transitions = append(h.transitions, to)
		},
	})
	require.NoError(t, err)
	return d, d.Run(ctx)
}

func packet(t1, t2 byte, x int8) frame.Packet {
	return frame.Packet{
		Joy1: frame.JoystickState{Type: t1, X1: x, Y1: -x, Buttons1: 0x05},
		Joy2: frame.JoystickState{Type: t2, X2: x},
	}
}

func portWith(pkts ...frame.Packet) *serialport.TestableSerialPort {
	port := serialport.NewTestableSerialPort()
	for _, p := range pkts {
		port.AddReadData(frame.EncodeFrame(p))
	}
	return port
}

func sequences(t *testing.T, pkts [][]byte) []uint16 {
	t.Helper()
	var out []uint16
	for _, b := range pkts {
		tp, err := protocol.ParseTelemetry(b)
		require.NoError(t, err)
		out = append(out, tp.Header.Sequence)
	}
	return out
}

// captureLogs records every daemon log line until the test ends.
func captureLogs(t *testing.T) func() []string {
	var mu sync.Mutex
	var lines []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.SetLogger(nil) })
	return func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), lines...)
	}
}

func hasLine(lines []string, substr string) bool {
	for _, l := range lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

func TestRun_ForwardsPacketsThenRestarts(t *testing.T) {
	h := newHarness()
	p := packet(3, 3, 10)
	port := portWith(p, packet(3, 3, 20))
	udp, tcp := h.addCycle(port)

	d, err := h.run(t, 1)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []State{StateConnecting, StateActive, StateFaulted, StateDiscovering}, h.transitions)
	assert.Equal(t, 1, h.restarts)

	sent := udp.Written()
	require.Len(t, sent, 5)
	for i := 0; i < 3; i++ {
		assert.Equal(t, protocol.Hello(byte(i)), sent[i])
	}
	assert.Equal(t, []uint16{1, 2}, sequences(t, sent[3:]))
	if diff := cmp.Diff(protocol.Telemetry(protocol.NewSequence(), p), sent[3]); diff != "" {
		t.Errorf("first telemetry packet mismatch (-want +got):\n%s", diff)
	}

	descs := tcp.Written()
	require.Len(t, descs, 1)
	assert.Len(t, descs[0], 108)
	assert.Equal(t, protocol.Descriptor(p), descs[0])

	assert.True(t, port.IsClosed())
	assert.True(t, udp.IsClosed())
	assert.True(t, tcp.IsClosed())

	assert.Equal(t, []network.MockDialCall{
		{Network: "udp", Address: "127.0.0.1:1110"},
		{Network: "tcp", Address: "127.0.0.1:1740"},
	}, h.dialer.Calls())

	startup, hello, restartDelay := 2*time.Second, time.Second, 2*time.Second
	assert.Equal(t, []time.Duration{startup, hello, hello, hello, restartDelay}, h.clock.Sleeps())

	assert.Equal(t, Stats{Cycles: 1, Packets: 2, Descriptors: 1, Faults: 1}, d.Stats())
	assert.Equal(t, StateDiscovering, d.State())
}

func TestRun_DescriptorOnTypeChangeOnly(t *testing.T) {
	h := newHarness()
	runs := []frame.Packet{
		packet(3, 3, 1), packet(3, 3, 2),
		packet(5, 3, 3), packet(5, 3, 4), packet(5, 3, 5),
		packet(0, 5, 6),
	}
	_, tcp := h.addCycle(portWith(runs...))

	d, err := h.run(t, 1)
	assert.ErrorIs(t, err, context.Canceled)

	want := [][]byte{
		protocol.Descriptor(runs[0]),
		protocol.Descriptor(runs[2]),
		protocol.Descriptor(runs[5]),
	}
	if diff := cmp.Diff(want, tcp.Written()); diff != "" {
		t.Errorf("descriptors mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint64(6), d.Stats().Packets)
}

func TestRun_RecoversFromLineNoise(t *testing.T) {
	h := newHarness()
	var stream bytes.Buffer
	stream.Write([]byte{0x12, 0xFF, 0x00, 0xFF, 0x00})
	stream.Write(frame.EncodeFrame(packet(3, 3, 1)))
	// A truncated frame swallows the head of the frame after it.
	stream.Write(frame.EncodeFrame(packet(3, 3, 2))[:10])
	stream.Write(frame.EncodeFrame(packet(3, 3, 3)))
	stream.Write(frame.EncodeFrame(packet(3, 3, 4)))
	corrupt := frame.EncodeFrame(packet(3, 3, 5))
	corrupt[len(corrupt)-1] ^= 0x01
	stream.Write(corrupt)
	stream.Write(frame.EncodeFrame(packet(3, 3, 6)))

	port := serialport.NewTestableSerialPort()
	port.AddReadData(stream.Bytes())
	udp, _ := h.addCycle(port)

	d, err := h.run(t, 1)
	assert.ErrorIs(t, err, context.Canceled)

	stats := d.Stats()
	assert.Equal(t, uint64(3), stats.Packets)
	assert.Equal(t, uint64(2), stats.Desyncs)

	var got []int8
	for _, b := range udp.Written()[3:] {
		tp, err := protocol.ParseTelemetry(b)
		require.NoError(t, err)
		got = append(got, tp.Joysticks[0].Axes[0])
	}
	assert.Equal(t, []int8{1, 4, 6}, got)
	assert.Equal(t, []uint16{1, 2, 3}, sequences(t, udp.Written()[3:]))
}

func TestRun_RestartFailureReconnectsInProcess(t *testing.T) {
	h := newHarness()
	logs := captureLogs(t)
	udp1, tcp1 := h.addCycle(portWith(packet(3, 3, 1)))
	udp2, tcp2 := h.addCycle(portWith(packet(3, 3, 2), packet(3, 3, 3)))

	d, err := h.run(t, 2)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []State{
		StateConnecting, StateActive, StateFaulted, StateDiscovering,
		StateConnecting, StateActive, StateFaulted, StateDiscovering,
	}, h.transitions)

	assert.Equal(t, []uint16{1}, sequences(t, udp1.Written()[3:]))
	assert.Equal(t, []uint16{2, 3}, sequences(t, udp2.Written()[3:]), "sequence survives an in-process reconnect")
	assert.Len(t, tcp1.Written(), 1)
	assert.Len(t, tcp2.Written(), 1, "announcer resets with each cycle")
	assert.Len(t, h.serial.Calls(), 2)

	stats := d.Stats()
	assert.Equal(t, uint64(2), stats.Cycles)
	assert.Equal(t, uint64(2), stats.Faults)

	assert.True(t, hasLine(logs(), "reconnecting in process at sequence 2"), "%q", logs())
}

func TestRun_LogsTypeChanges(t *testing.T) {
	h := newHarness()
	h.addCycle(portWith(packet(3, 3, 1), packet(5, 9, 2)))
	logs := captureLogs(t)

	d, err := h.run(t, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(2), d.Stats().Descriptors)

	lines := logs()
	assert.True(t, hasLine(lines, "joystick types 3/3: sending descriptor"), "%q", lines)
	assert.True(t, hasLine(lines, "joystick types 3/3 -> 5/9: sending descriptor"), "%q", lines)
	assert.True(t, hasLine(lines, "joystick 2: unknown type 9, using the default profile"), "%q", lines)
	assert.False(t, hasLine(lines, "joystick 1: unknown type"), "%q", lines)
}

func TestRun_RetriesDescriptorConnection(t *testing.T) {
	h := newHarness()
	h.serial.AddPort("/dev/ttyUSB0", portWith(packet(3, 3, 1)))
	udp := network.NewMockConn(nil)
	tcp := network.NewMockConn(nil)
	h.dialer.AddConn("udp", udp)
	h.dialer.AddError("tcp", errors.New("connection refused"))
	h.dialer.AddError("tcp", errors.New("connection refused"))
	h.dialer.AddConn("tcp", tcp)

	_, err := h.run(t, 1)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Len(t, tcp.Written(), 1)
	startup, hello, retry, restartDelay := 2*time.Second, time.Second, time.Second, 2*time.Second
	assert.Equal(t, []time.Duration{startup, hello, hello, hello, retry, retry, restartDelay}, h.clock.Sleeps())
}

func TestRun_UDPFailureFaults(t *testing.T) {
	h := newHarness()
	port := portWith(packet(3, 3, 1))
	h.serial.AddPort("/dev/ttyUSB0", port)
	h.dialer.AddError("udp", errors.New("no buffer space"))

	d, err := h.run(t, 1)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []State{StateConnecting, StateFaulted, StateDiscovering}, h.transitions)
	assert.True(t, port.IsClosed())
	assert.Len(t, h.dialer.Calls(), 1, "tcp is never dialled")
	assert.Zero(t, d.Stats().Packets)
}

func TestRun_NoIPv4AddressFaults(t *testing.T) {
	h := newHarness()
	h.resolver = network.MockResolver{Hosts: map[string][]string{"localhost": {"::1"}}}
	h.serial.AddPort("/dev/ttyUSB0", portWith())

	_, err := h.run(t, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []State{StateConnecting, StateFaulted, StateDiscovering}, h.transitions)
	assert.Empty(t, h.dialer.Calls())
}

// stallPort never returns data. Each empty read stands in for one serial
// read timeout.
type stallPort struct {
	*serialport.TestableSerialPort
	clock *timeutil.MockClock
	step  time.Duration
}

func (s *stallPort) Read(p []byte) (int, error) {
	s.clock.Advance(s.step)
	time.Sleep(time.Millisecond)
	return 0, nil
}

func TestRun_WatchdogFaultsSilentLink(t *testing.T) {
	h := newHarness()
	port := &stallPort{
		TestableSerialPort: serialport.NewTestableSerialPort(),
		clock:              h.clock,
		step:               h.cfg.ReadTimeout,
	}
	h.addCycle(port)

	logs := captureLogs(t)

	d, err := h.run(t, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(1), d.Stats().Faults)
	assert.True(t, port.IsClosed())

	prefixed := regexp.MustCompile(`^\[[0-9a-f]{8}\] fault: serial link silent for 3s \(watchdog expiry 1\)$`)
	found := false
	for _, l := range logs() {
		if prefixed.MatchString(l) {
			found = true
		}
	}
	assert.True(t, found, "expected a cycle-tagged stall fault in %q", logs())
}

func TestRun_CancelledDuringStartup(t *testing.T) {
	h := newHarness()
	d, err := New(Options{Config: h.cfg, Clock: h.clock, FS: h.fs, Serial: h.serial, DescribePort: func(p string) string { return p }})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Run(ctx), context.Canceled)
	assert.Zero(t, d.Stats().Cycles)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.DevicePaths = nil
	_, err := New(Options{Config: cfg})
	assert.ErrorContains(t, err, "config")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "discovering", StateDiscovering.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "faulted", StateFaulted.String())
	assert.Equal(t, "state(9)", State(9).String())
}
