package serial

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// OpenFunc opens a serial port. Tests replace it with an in-memory port.
type OpenFunc func(name string, mode *serial.Mode) (io.ReadWriteCloser, error)

func openPort(name string, mode *serial.Mode) (io.ReadWriteCloser, error) {
	return serial.Open(name, mode)
}

// Monitor copies everything a board prints on its serial port to a writer.
// It is used after flashing to watch the boot log.
type Monitor struct {
	open OpenFunc

	mu       sync.Mutex
	port     io.ReadWriteCloser
	portName string
	baudRate int
}

// NewMonitor creates a monitor. A nil open uses the real serial driver.
func NewMonitor(open OpenFunc) *Monitor {
	if open == nil {
		open = openPort
	}
	return &Monitor{open: open}
}

// Connect opens portName with 8N1 framing at baudRate.
func (m *Monitor) Connect(portName string, baudRate int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.port != nil {
		m.port.Close()
		m.port = nil
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := m.open(portName, mode)
	if err != nil {
		return errors.Wrapf(err, "open %s", portName)
	}

	m.port = port
	m.portName = portName
	m.baudRate = baudRate
	return nil
}

// Disconnect closes the serial port. Calling it twice is harmless.
func (m *Monitor) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.port != nil {
		m.port.Close()
		m.port = nil
	}
}

// Stream copies port output to w until ctx is done or the port fails.
// Cancellation closes the port, which unblocks the pending read.
func (m *Monitor) Stream(ctx context.Context, w io.Writer) error {
	m.mu.Lock()
	port := m.port
	m.mu.Unlock()
	if port == nil {
		return io.ErrClosedPipe
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			m.Disconnect()
		case <-stop:
		}
	}()

	buf := make([]byte, 1024)
	for {
		n, err := port.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if ctx.Err() != nil {
			m.Disconnect()
			return nil
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrapf(err, "read %s", m.portName)
		}
	}
}
