package serial

import (
	"errors"
	"fmt"

	"go.bug.st/serial"
)

// PortUnavailableError means the port exists in the OS list but cannot be
// opened right now, typically because another program holds it or the user
// lacks permission.
type PortUnavailableError struct {
	Name   string
	Reason string
	Err    error
}

func (e *PortUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("serial port %s unavailable: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("serial port %s unavailable: %s: %v", e.Name, e.Reason, e.Err)
}

func (e *PortUnavailableError) Unwrap() error { return e.Err }

// Busy reports whether the port is held by another process or denied by
// permissions.
func (e *PortUnavailableError) Busy() bool {
	return e.Reason == "busy" || e.Reason == "permission denied"
}

// Probe opens and immediately closes the port so that a busy or
// inaccessible device is reported before the flashing tool is started.
func Probe(name string, baudRate int) error {
	port, err := serial.Open(name, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return &PortUnavailableError{Name: name, Reason: probeReason(err), Err: err}
	}
	return port.Close()
}

func probeReason(err error) string {
	var portErr *serial.PortError
	if !errors.As(err, &portErr) {
		return "open failed"
	}
	switch portErr.Code() {
	case serial.PortBusy:
		return "busy"
	case serial.PermissionDenied:
		return "permission denied"
	case serial.PortNotFound:
		return "not found"
	case serial.InvalidSerialPort:
		return "not a serial port"
	default:
		return "open failed"
	}
}
