package flash

import (
	"errors"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// esptool has no machine-readable error channel; failures are recognised by
// the messages it prints. Patterns are matched case-insensitively.
var (
	toolNotFoundPatterns = []string{
		"no module named esptool",
		"command not found",
		"is not recognized as an internal or external command",
		"executable file not found",
	}
	portBusyPatterns = []string{
		"could not open port",
		"could not exclusively lock port",
		"permission denied",
		"access is denied",
		"resource busy",
		"port is busy",
		"[errno 13]",
		"[errno 16]",
	}
	deviceNotRespondingPatterns = []string{
		"failed to connect to",
		"timed out waiting for packet",
		"no serial data received",
		"wrong boot mode detected",
		"invalid head of packet",
		"packet content transfer stopped",
		"serial data stream stopped",
		"chip stopped responding",
		"device disconnected",
	}
)

var wroteRe = regexp.MustCompile(`(?m)^Wrote \d+ bytes.* at (0x[0-9a-fA-F]+)`)

// Classify maps a failed invocation to a ToolErrorKind. Not-found checks
// run first because a missing interpreter can print text that mentions
// ports or permissions.
func Classify(out Output) ToolErrorKind {
	if errors.Is(out.Err, exec.ErrNotFound) || out.ExitCode == 127 {
		return ToolNotFound
	}
	text := strings.ToLower(out.Text)
	if out.Err != nil {
		text += "\n" + strings.ToLower(out.Err.Error())
	}
	switch {
	case containsAny(text, toolNotFoundPatterns):
		return ToolNotFound
	case containsAny(text, portBusyPatterns):
		return PortBusy
	case containsAny(text, deviceNotRespondingPatterns):
		return DeviceNotResponding
	default:
		return Unclassified
	}
}

// writtenOffsets lists the offsets esptool reported as fully written.
func writtenOffsets(text string) []uint32 {
	var offsets []uint32
	for _, m := range wroteRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(m[1]), "0x"), 16, 32)
		if err == nil {
			offsets = append(offsets, uint32(v))
		}
	}
	return offsets
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
