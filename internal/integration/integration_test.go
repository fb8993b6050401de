//go:build integration

package integration

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/buckleypaul/espprov/internal/flash"
	"github.com/buckleypaul/espprov/internal/serial"
)

// devicePort returns the port of a connected board from the environment,
// or skips the test if it is not set.
func devicePort(t *testing.T) string {
	t.Helper()
	port := os.Getenv("ESPPROV_PORT")
	if port == "" {
		t.Skip("ESPPROV_PORT not set; skipping device tests")
	}
	return port
}

// TestIntegrationEsptoolVersion resolves the real flashing tool and asserts
// it runs.
func TestIntegrationEsptoolVersion(t *testing.T) {
	tool := flash.ResolveTool(os.Getenv("ESPPROV_ESPTOOL"), os.Getenv("ESPPROV_VENV"))
	runner := flash.ExecRunner{Env: tool.Env}

	out := runner.Run(context.Background(), tool.Path, append(tool.Args, "version")...)
	t.Logf("%s version output:\n%s", tool, out.Text)

	if out.ExitCode != 0 {
		t.Fatalf("%s version failed with exit code %d: %v", tool, out.ExitCode, out.Err)
	}
	if !strings.Contains(strings.ToLower(out.Text), "esptool") {
		t.Errorf("expected output to mention esptool, got %q", out.Text)
	}
}

// TestIntegrationChipID talks to a connected board without writing to it.
func TestIntegrationChipID(t *testing.T) {
	port := devicePort(t)

	if _, err := serial.Select(serial.ListPorts(nil), port); err != nil {
		t.Fatal(err)
	}

	tool := flash.ResolveTool(os.Getenv("ESPPROV_ESPTOOL"), os.Getenv("ESPPROV_VENV"))
	runner := flash.ExecRunner{Env: tool.Env}
	target := flash.NewTarget(port, 0)

	args := append(tool.Args, "--chip", target.Chip, "--port", target.Port, "chip_id")
	out := runner.Run(context.Background(), tool.Path, args...)
	t.Logf("chip_id output:\n%s", out.Text)

	if out.ExitCode != 0 {
		t.Fatalf("chip_id failed (%s): exit %d", flash.Classify(out), out.ExitCode)
	}
}
