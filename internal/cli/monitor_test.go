package cli

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"go.bug.st/serial"
)

type pipePort struct{ r *io.PipeReader }

func (p pipePort) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p pipePort) Write(b []byte) (int, error) { return len(b), nil }
func (p pipePort) Close() error                { return p.r.Close() }

func TestMonitorWritesOutputAndLog(t *testing.T) {
	h := newHarness(t, "/dev/ttyUSB0")
	pr, pw := io.Pipe()
	var opened string
	h.deps.OpenPort = func(name string, mode *serial.Mode) (io.ReadWriteCloser, error) {
		opened = name
		return pipePort{r: pr}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		pw.Write([]byte("I (31) boot: ESP-IDF v5.1 2nd stage bootloader\n"))
		cancel()
	}()

	if code := Run(ctx, h.deps, []string{"monitor"}); code != ExitOK {
		t.Fatalf("exit = %d, stderr = %s", code, h.stderr.String())
	}
	if opened != "/dev/ttyUSB0" {
		t.Errorf("opened %q", opened)
	}
	if !strings.Contains(h.stdout.String(), "2nd stage bootloader") {
		t.Errorf("stdout = %q", h.stdout.String())
	}

	logs, err := historyStore(h.deps.Config).SerialLogs()
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("recorded %d serial logs, want 1", len(logs))
	}
	data, err := os.ReadFile(logs[0].LogFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "2nd stage bootloader") {
		t.Errorf("log file = %q", data)
	}
}

func TestMonitorNoLog(t *testing.T) {
	h := newHarness(t, "/dev/ttyUSB0")
	pr, pw := io.Pipe()
	h.deps.OpenPort = func(name string, mode *serial.Mode) (io.ReadWriteCloser, error) {
		return pipePort{r: pr}, nil
	}
	pw.Close()

	if code := Run(context.Background(), h.deps, []string{"monitor", "--no-log"}); code != ExitOK {
		t.Fatalf("exit = %d, stderr = %s", code, h.stderr.String())
	}
	logs, err := historyStore(h.deps.Config).SerialLogs()
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 0 {
		t.Errorf("recorded %d serial logs with --no-log", len(logs))
	}
}

func TestMonitorWithoutPort(t *testing.T) {
	h := newHarness(t)
	if code := Run(context.Background(), h.deps, []string{"monitor"}); code != ExitUsage {
		t.Fatalf("exit = %d, want %d", code, ExitUsage)
	}
}
