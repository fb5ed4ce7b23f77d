// Package config holds the compiled-in settings of the bridge daemon. The
// daemon takes no flags, files or environment: everything it needs to bring up
// the serial link and both network channels lives in Default.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config describes every constant the daemon uses while running.
type Config struct {
	// Serial adapter discovery
	DevicePaths        []string      // tried in order; first existing path wins
	DevicePollInterval time.Duration // delay between discovery sweeps
	BaudRate           int
	ReadTimeout        time.Duration // upper bound on a single blocking serial read

	// Network destinations
	Host           string // resolved once per connection cycle
	TelemetryPort  int    // UDP joystick telemetry
	DescriptorPort int    // TCP joystick descriptors

	// Connection bring-up
	HelloCount        int
	HelloInterval     time.Duration
	ConnectRetryDelay time.Duration

	// Liveness and recovery
	WatchdogPeriod time.Duration
	StartupDelay   time.Duration // before the first connection cycle
	RestartDelay   time.Duration // between closing handles and re-exec
	ExecPath       string        // image re-executed on fault
}

// Default returns the settings of a field deployment.
func Default() Config {
	return Config{
		DevicePaths:        []string{"/dev/ttyUSB0", "/dev/ttyUSB1"},
		DevicePollInterval: 10 * time.Second,
		BaudRate:           38400,
		ReadTimeout:        100 * time.Millisecond,

		Host:           "localhost",
		TelemetryPort:  1110,
		DescriptorPort: 1740,

		HelloCount:        3,
		HelloInterval:     time.Second,
		ConnectRetryDelay: time.Second,

		WatchdogPeriod: 3 * time.Second,
		StartupDelay:   2 * time.Second,
		RestartDelay:   2 * time.Second,
		ExecPath:       "/proc/self/exe",
	}
}

// Validate checks that c can drive a connection cycle.
func (c Config) Validate() error {
	if len(c.DevicePaths) == 0 {
		return errors.New("at least one device path is required")
	}
	for i, p := range c.DevicePaths {
		if p == "" {
			return fmt.Errorf("device path %d is empty", i)
		}
	}
	if c.DevicePollInterval <= 0 {
		return fmt.Errorf("device poll interval must be positive, got %v", c.DevicePollInterval)
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("baud rate must be positive, got %d", c.BaudRate)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %v", c.ReadTimeout)
	}
	if c.WatchdogPeriod <= c.ReadTimeout {
		return fmt.Errorf("watchdog period %v must exceed read timeout %v", c.WatchdogPeriod, c.ReadTimeout)
	}
	if c.Host == "" {
		return errors.New("host is required")
	}
	if err := validPort("telemetry", c.TelemetryPort); err != nil {
		return err
	}
	if err := validPort("descriptor", c.DescriptorPort); err != nil {
		return err
	}
	if c.HelloCount < 0 || c.HelloCount > 255 {
		return fmt.Errorf("hello count must be between 0 and 255, got %d", c.HelloCount)
	}
	if c.HelloInterval < 0 || c.ConnectRetryDelay <= 0 {
		return fmt.Errorf("invalid hello interval %v or connect retry delay %v", c.HelloInterval, c.ConnectRetryDelay)
	}
	if c.StartupDelay < 0 || c.RestartDelay < 0 {
		return fmt.Errorf("delays must not be negative (startup %v, restart %v)", c.StartupDelay, c.RestartDelay)
	}
	if c.ExecPath == "" {
		return errors.New("exec path is required")
	}
	return nil
}

// TelemetryAddr returns the host:port of the UDP telemetry listener for ip.
func (c Config) TelemetryAddr(ip string) string {
	return joinHostPort(ip, c.TelemetryPort)
}

// DescriptorAddr returns the host:port of the TCP descriptor listener for ip.
func (c Config) DescriptorAddr(ip string) string {
	return joinHostPort(ip, c.DescriptorPort)
}

func validPort(name string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%s port must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
