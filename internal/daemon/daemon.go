// Package daemon runs the bridge: it reads frames from the ChapR over serial
// and republishes them to the roboRIO's Driver Station listeners. Any fault
// tears the whole pipeline down and restarts the process.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/banshee-data/chaprd/internal/config"
	"github.com/banshee-data/chaprd/internal/frame"
	"github.com/banshee-data/chaprd/internal/fsutil"
	"github.com/banshee-data/chaprd/internal/monitoring"
	"github.com/banshee-data/chaprd/internal/network"
	"github.com/banshee-data/chaprd/internal/protocol"
	"github.com/banshee-data/chaprd/internal/restart"
	"github.com/banshee-data/chaprd/internal/serialport"
	"github.com/banshee-data/chaprd/internal/timeutil"
	"github.com/banshee-data/chaprd/internal/watchdog"
)

// readChunk is the serial read buffer size. Frames are 28 bytes.
const readChunk = 64

// Options wires the daemon's effects. Nil fields get production defaults.
type Options struct {
	Config    config.Config
	Clock     timeutil.Clock
	FS        fsutil.FileSystem
	Serial    serialport.SerialPortFactory
	Dialer    network.Dialer
	Resolver  network.Resolver
	Restarter restart.Restarter

	// DescribePort names the opened adapter in logs. Defaults to
	// serialport.Describe.
	DescribePort func(path string) string

	// OnTransition, if set, is called on the Run goroutine after every state
	// change.
	OnTransition func(from, to State)
}

// Stats are cumulative counters across cycles.
type Stats struct {
	Cycles      uint64
	Packets     uint64
	Desyncs     uint64
	Descriptors uint64
	Faults      uint64
}

// Daemon owns every handle of one bridge process. Run must only be called
// once. All fields besides the counters belong to the Run goroutine.
type Daemon struct {
	cfg        config.Config
	clock      timeutil.Clock
	dialer     network.Dialer
	resolver   network.Resolver
	restarter  restart.Restarter
	discoverer *serialport.Discoverer
	describe   func(path string) string
	onChange   func(from, to State)

	state     atomic.Int32
	decoder   *frame.Decoder
	announcer protocol.Announcer
	seq       *protocol.Sequence
	wd        *watchdog.Watchdog

	port   serialport.SerialPorter
	reader io.Reader
	udp    *network.Sender
	tcp    *network.Sender
	buf    []byte
	fault  error

	cycle uuid.UUID
	logf  func(format string, v ...interface{})

	cycles      atomic.Uint64
	packets     atomic.Uint64
	desyncs     atomic.Uint64
	descriptors atomic.Uint64
	faults      atomic.Uint64
}

// New validates opts.Config and builds a Daemon in StateDiscovering.
func New(opts Options) (*Daemon, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	if opts.FS == nil {
		opts.FS = fsutil.OSFileSystem{}
	}
	if opts.Serial == nil {
		opts.Serial = serialport.RealFactory{}
	}
	if opts.Dialer == nil {
		opts.Dialer = network.RealDialer{}
	}
	if opts.Resolver == nil {
		opts.Resolver = network.RealResolver{}
	}
	if opts.Restarter == nil {
		opts.Restarter = restart.NewExec(opts.Config.ExecPath)
	}
	if opts.DescribePort == nil {
		opts.DescribePort = serialport.Describe
	}

	portOpts := serialport.DefaultPortOptions()
	portOpts.BaudRate = opts.Config.BaudRate
	portOpts.ReadTimeout = opts.Config.ReadTimeout

	d := &Daemon{
		cfg:       opts.Config,
		clock:     opts.Clock,
		dialer:    opts.Dialer,
		resolver:  opts.Resolver,
		restarter: opts.Restarter,
		discoverer: &serialport.Discoverer{
			FS:       opts.FS,
			Clock:    opts.Clock,
			Factory:  opts.Serial,
			Paths:    opts.Config.DevicePaths,
			Interval: opts.Config.DevicePollInterval,
			Options:  portOpts,
		},
		describe: opts.DescribePort,
		onChange: opts.OnTransition,
		decoder:  frame.NewDecoder(),
		seq:      protocol.NewSequence(),
		wd:       watchdog.New(opts.Clock, opts.Config.WatchdogPeriod),
		buf:      make([]byte, readChunk),
		logf:     monitoring.Logf,
	}
	d.state.Store(int32(StateDiscovering))
	return d, nil
}

// State returns the current state. Safe to call from any goroutine.
func (d *Daemon) State() State {
	return State(d.state.Load())
}

// Stats returns a snapshot of the counters. Safe to call from any goroutine.
func (d *Daemon) Stats() Stats {
	return Stats{
		Cycles:      d.cycles.Load(),
		Packets:     d.packets.Load(),
		Desyncs:     d.desyncs.Load(),
		Descriptors: d.descriptors.Load(),
		Faults:      d.faults.Load(),
	}
}

type handler func(d *Daemon, ctx context.Context) (State, error)

var handlers = map[State]handler{
	StateDiscovering: (*Daemon).discover,
	StateConnecting:  (*Daemon).connect,
	StateActive:      (*Daemon).forward,
	StateFaulted:     (*Daemon).teardown,
}

// Run waits StartupDelay and then drives the state machine until ctx is
// done. It always returns ctx's error, after closing every handle.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.closeAll()

	if err := d.clock.Sleep(ctx, d.cfg.StartupDelay); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		from := d.State()
		next, err := handlers[from](d, ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		if next != from {
			d.state.Store(int32(next))
			d.logf("state %s -> %s", from, next)
			if d.onChange != nil {
				d.onChange(from, next)
			}
		}
	}
}

func (d *Daemon) discover(ctx context.Context) (State, error) {
	d.cycle = uuid.New()
	d.logf = monitoring.Prefixed("[" + d.cycle.String()[:8] + "] ")
	d.cycles.Add(1)
	d.logf("cycle %s: searching %v", d.cycle, d.cfg.DevicePaths)

	port, path, err := d.discoverer.Discover(ctx)
	if err != nil {
		return StateDiscovering, err
	}
	d.port = port
	d.logf("serial device %s at %d baud", d.describe(path), d.cfg.BaudRate)
	return StateConnecting, nil
}

func (d *Daemon) connect(ctx context.Context) (State, error) {
	ip, err := network.ResolveIPv4(ctx, d.resolver, d.cfg.Host)
	if err != nil {
		return d.faultWith(err)
	}

	d.udp, err = network.DialUDP(ctx, d.dialer, d.cfg.TelemetryAddr(ip))
	if err != nil {
		return d.faultWith(err)
	}
	if err := network.SendHello(ctx, d.clock, d.udp, d.cfg.HelloCount, d.cfg.HelloInterval); err != nil {
		return StateConnecting, err
	}

	d.tcp, err = network.DialTCPWithRetry(ctx, d.dialer, d.clock, d.cfg.DescriptorAddr(ip), d.cfg.ConnectRetryDelay)
	if err != nil {
		return StateConnecting, err
	}

	d.wd.Start()
	d.reader = serialport.NewGuardedReader(d.port, d.wd)
	d.logf("connected: telemetry udp %s, descriptors tcp %s", d.cfg.TelemetryAddr(ip), d.cfg.DescriptorAddr(ip))
	return StateActive, nil
}

func (d *Daemon) forward(ctx context.Context) (State, error) {
	n, err := d.reader.Read(d.buf)
	for _, b := range d.buf[:n] {
		res := d.decoder.Feed(b)
		switch res.Kind {
		case frame.PacketReady:
			d.publish(res.Packet)
		case frame.Desync:
			d.desyncs.Add(1)
		}
	}
	if err != nil {
		return d.faultWith(fmt.Errorf("serial read: %w", err))
	}
	return StateActive, nil
}

// publish forwards one packet. Send errors are counted by the senders and do
// not fault the pipeline; only the serial side can do that.
func (d *Daemon) publish(p frame.Packet) {
	d.wd.Feed()
	d.packets.Add(1)

	prev, announced := d.announcer.Last()
	if d.announcer.Changed(p) {
		types := p.Types()
		if announced {
			d.logf("joystick types %d/%d -> %d/%d: sending descriptor", prev[0], prev[1], types[0], types[1])
		} else {
			d.logf("joystick types %d/%d: sending descriptor", types[0], types[1])
		}
		for slot, t := range types {
			if !protocol.KnownType(t) {
				d.logf("joystick %d: unknown type %d, using the default profile", slot+1, t)
			}
		}
		d.descriptors.Add(1)
		_ = d.tcp.Send(protocol.Descriptor(p))
	}
	_ = d.udp.Send(protocol.Telemetry(d.seq, p))
}

func (d *Daemon) faultWith(err error) (State, error) {
	d.fault = err
	return StateFaulted, nil
}

func (d *Daemon) teardown(ctx context.Context) (State, error) {
	d.faults.Add(1)
	if errors.Is(d.fault, watchdog.ErrStalled) {
		d.logf("fault: serial link silent for %v (watchdog expiry %d)", d.cfg.WatchdogPeriod, d.wd.Expirations())
	} else {
		d.logf("fault: %v", d.fault)
	}
	d.closeAll()

	if err := d.clock.Sleep(ctx, d.cfg.RestartDelay); err != nil {
		return StateFaulted, err
	}
	if err := d.restarter.Restart(); err != nil {
		d.logf("restart failed: %v; reconnecting in process at sequence %d", err, d.seq.Peek())
	}

	d.decoder.Reset()
	d.announcer.Reset()
	d.fault = nil
	return StateDiscovering, nil
}

// closeAll stops the watchdog and closes serial, TCP and UDP in that order.
func (d *Daemon) closeAll() {
	d.wd.Stop()
	d.reader = nil
	if d.port != nil {
		if err := d.port.Close(); err != nil {
			d.logf("close serial: %v", err)
		}
		d.port = nil
	}
	if d.tcp != nil {
		d.tcp.Close()
		d.tcp = nil
	}
	if d.udp != nil {
		d.udp.Close()
		d.udp = nil
	}
}
