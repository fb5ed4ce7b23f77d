package serialport

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"
)

// TestableSerialPort implements TimeoutSerialPorter with configurable
// behaviour for testing. An empty read buffer returns io.EOF unless
// BlockReads is set.
type TestableSerialPort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls
	ReadBuffer *bytes.Buffer

	// ReadError is returned by the next Read call if set
	ReadError error

	// CloseError is returned by Close if set
	CloseError error

	// Closed indicates whether Close was called
	Closed bool

	// ReadCalls records the number of Read calls
	ReadCalls int

	// ReadTimeout is the current read timeout
	ReadTimeout time.Duration

	// BlockReads causes Read to block until data is added or Close is called
	BlockReads bool

	readCond *sync.Cond
}

// NewTestableSerialPort creates a new TestableSerialPort for testing.
func NewTestableSerialPort() *TestableSerialPort {
	tsp := &TestableSerialPort{
		ReadBuffer: bytes.NewBuffer(nil),
	}
	tsp.readCond = sync.NewCond(&tsp.mu)
	return tsp
}

// Read reads from the read buffer, optionally simulating errors.
func (t *TestableSerialPort) Read(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadCalls++

	if t.Closed {
		return 0, errors.New("serial port closed")
	}

	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return 0, err
	}

	if t.BlockReads && t.ReadBuffer.Len() == 0 {
		for !t.Closed && t.ReadBuffer.Len() == 0 {
			t.readCond.Wait()
		}
		if t.Closed {
			return 0, errors.New("serial port closed")
		}
	}

	return t.ReadBuffer.Read(p)
}

// Close marks the port as closed.
func (t *TestableSerialPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Closed = true
	t.readCond.Broadcast()

	return t.CloseError
}

// IsClosed reports whether Close has been called.
func (t *TestableSerialPort) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Closed
}

// SetReadTimeout implements TimeoutSerialPorter.
func (t *TestableSerialPort) SetReadTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadTimeout = timeout
	return nil
}

// AddReadData adds data to be returned by subsequent Read calls.
func (t *TestableSerialPort) AddReadData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadBuffer.Write(data)
	t.readCond.Signal()
}

// MockSerialPortFactory hands out pre-registered ports by path.
type MockSerialPortFactory struct {
	mu sync.Mutex

	// Ports maps a device path to the ports returned by successive Opens.
	Ports map[string][]SerialPorter

	// OpenError, if set, is returned for every Open call.
	OpenError error

	// Opened records each successful Open with its options.
	Opened []OpenCall
}

// OpenCall is one recorded MockSerialPortFactory.Open.
type OpenCall struct {
	Path string
	Opts PortOptions
}

// NewMockSerialPortFactory creates an empty factory.
func NewMockSerialPortFactory() *MockSerialPortFactory {
	return &MockSerialPortFactory{Ports: make(map[string][]SerialPorter)}
}

// AddPort queues port to be returned by the next Open of path.
func (f *MockSerialPortFactory) AddPort(path string, port SerialPorter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ports[path] = append(f.Ports[path], port)
}

// Open implements SerialPortFactory.
func (f *MockSerialPortFactory) Open(path string, opts PortOptions) (SerialPorter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.OpenError != nil {
		return nil, f.OpenError
	}
	queue := f.Ports[path]
	if len(queue) == 0 {
		return nil, fmt.Errorf("open %s: no mock port registered", path)
	}
	port := queue[0]
	f.Ports[path] = queue[1:]
	f.Opened = append(f.Opened, OpenCall{Path: path, Opts: opts})
	if err := applyReadTimeout(port, opts.ReadTimeout); err != nil {
		return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
	}
	return port, nil
}

// Calls returns a copy of the recorded Open calls.
func (f *MockSerialPortFactory) Calls() []OpenCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]OpenCall(nil), f.Opened...)
}
