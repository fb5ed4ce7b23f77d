package serialport

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes one serial port found on the system.
type PortInfo struct {
	Name         string
	USB          bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// String formats the USB identity of the port, if any.
func (p PortInfo) String() string {
	if !p.USB {
		return p.Name
	}
	s := fmt.Sprintf("%s (USB %s:%s", p.Name, strings.ToLower(p.VID), strings.ToLower(p.PID))
	if p.Product != "" {
		s += " " + p.Product
	}
	if p.SerialNumber != "" {
		s += " serial " + p.SerialNumber
	}
	return s + ")"
}

// ListPorts enumerates the system's serial ports.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate ports: %w", err)
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			USB:          d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	return ports, nil
}

// Describe returns a log-friendly identity for path, or path itself when
// enumeration fails or does not list it.
func Describe(path string) string {
	ports, err := ListPorts()
	if err != nil {
		return path
	}
	if p, ok := lookup(ports, path); ok {
		return p.String()
	}
	return path
}

func lookup(ports []PortInfo, path string) (PortInfo, bool) {
	for _, p := range ports {
		if p.Name == path {
			return p, true
		}
	}
	return PortInfo{}, false
}

// FirstUSB picks the first USB serial port, falling back to the first port
// of any kind.
func FirstUSB(ports []PortInfo) (string, error) {
	for _, p := range ports {
		if p.USB {
			return p.Name, nil
		}
	}
	if len(ports) > 0 {
		return ports[0].Name, nil
	}
	return "", errors.New("no serial ports found")
}
