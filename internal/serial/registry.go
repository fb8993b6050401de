package serial

import (
	"fmt"
	"strings"
)

// PortNotFoundError is returned when a requested port is not in the
// enumerated list.
type PortNotFoundError struct {
	Name      string
	Available []string
}

func (e *PortNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("serial port %q not found: no ports available", e.Name)
	}
	return fmt.Sprintf("serial port %q not found (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Select picks name out of ports. It has no side effects.
func Select(ports []PortInfo, name string) (PortInfo, error) {
	for _, p := range ports {
		if p.Name == name {
			return p, nil
		}
	}
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.Name)
	}
	return PortInfo{}, &PortNotFoundError{Name: name, Available: names}
}

// AutoSelect returns the only port when exactly one is present.
func AutoSelect(ports []PortInfo) (PortInfo, bool) {
	if len(ports) != 1 {
		return PortInfo{}, false
	}
	return ports[0], true
}
