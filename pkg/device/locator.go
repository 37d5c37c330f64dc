package device

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
	VID         string
	PID         string
	IsUSB       bool
}

// String returns the port as shown to the user, e.g. "COM5 (Arduino Uno)".
func (p Port) String() string {
	if p.Description == "" || p.Description == p.Name {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.Description)
}

// Matcher describes how the sensor board identifies itself.
type Matcher struct {
	// Markers are case-sensitive substrings of the port description.
	Markers []string
	// VendorIDs are USB vendor ids (hex, case-insensitive).
	VendorIDs []string
}

// Match reports whether the port belongs to the sensor board.
func (m Matcher) Match(p Port) bool {
	for _, marker := range m.Markers {
		if marker != "" && strings.Contains(p.Description, marker) {
			return true
		}
	}
	if p.VID == "" {
		return false
	}
	for _, vid := range m.VendorIDs {
		if strings.EqualFold(p.VID, vid) {
			return true
		}
	}
	return false
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(details))
	for _, d := range details {
		desc := d.Product
		if desc == "" {
			desc = d.Name
		}
		result = append(result, Port{
			Name:        d.Name,
			Description: desc,
			VID:         d.VID,
			PID:         d.PID,
			IsUSB:       d.IsUSB,
		})
	}

	return result, nil
}

// FindDevice returns the name of the first port accepted by m.
func FindDevice(ports []Port, m Matcher) (string, bool) {
	for _, p := range ports {
		if m.Match(p) {
			return p.Name, true
		}
	}
	return "", false
}

// Locate scans the system serial ports for the sensor board.
func Locate(m Matcher) (string, error) {
	ports, err := Ports()
	if err != nil {
		return "", err
	}

	name, ok := FindDevice(ports, m)
	if !ok {
		return "", ErrDeviceNotFound
	}
	return name, nil
}
