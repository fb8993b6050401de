package flash

import (
	"fmt"
	"strings"
)

// NoPortSelectedError is returned when no serial port was given and none
// could be chosen automatically.
type NoPortSelectedError struct {
	Available []string
}

func (e *NoPortSelectedError) Error() string {
	switch len(e.Available) {
	case 0:
		return "no serial port selected: no ports detected"
	default:
		return fmt.Sprintf("no serial port selected: %d ports detected (%s), pass --port",
			len(e.Available), strings.Join(e.Available, ", "))
	}
}

// MissingImageError is returned before the flashing tool runs when an image
// of the plan is absent or empty.
type MissingImageError struct {
	Path   string
	Offset uint32
	Empty  bool
	Err    error
}

func (e *MissingImageError) Error() string {
	if e.Empty {
		return fmt.Sprintf("image %s for offset 0x%x is empty", e.Path, e.Offset)
	}
	return fmt.Sprintf("image %s for offset 0x%x is missing: %v", e.Path, e.Offset, e.Err)
}

func (e *MissingImageError) Unwrap() error { return e.Err }

// PlanOrderError means the offsets of a plan are not strictly ascending.
type PlanOrderError struct {
	Plan string
	Prev uint32
	Next uint32
}

func (e *PlanOrderError) Error() string {
	return fmt.Sprintf("plan %s: offset 0x%x does not follow 0x%x", e.Plan, e.Next, e.Prev)
}

// OverlapError means an image extends past the start of the next one or
// past the end of the flash.
type OverlapError struct {
	Plan   string
	Image  string
	End    int64
	Next   string
	Offset uint32
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("plan %s: %s ends at 0x%x, past %s at 0x%x", e.Plan, e.Image, e.End, e.Next, e.Offset)
}

// ToolErrorKind classifies a failed flashing tool run.
type ToolErrorKind int

const (
	Unclassified ToolErrorKind = iota
	ToolNotFound
	PortBusy
	DeviceNotResponding
)

func (k ToolErrorKind) String() string {
	switch k {
	case ToolNotFound:
		return "tool-not-found"
	case PortBusy:
		return "port-busy"
	case DeviceNotResponding:
		return "device-not-responding"
	default:
		return "unclassified"
	}
}

// ToolError carries the flashing tool's diagnostics verbatim.
type ToolError struct {
	Kind     ToolErrorKind
	ExitCode int
	Output   string
	Err      error
	Written  []uint32 // offsets the tool reported as written before failing
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("flash tool failed (%s, exit %d)", e.Kind, e.ExitCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if diag := lastLine(e.Output); diag != "" {
		msg += ": " + diag
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// Partial reports whether some images were written before the failure, which
// leaves the device in a partially flashed state.
func (e *ToolError) Partial() bool { return len(e.Written) > 0 }

// Hint returns operator advice for the failure kind.
func (e *ToolError) Hint() string {
	switch e.Kind {
	case ToolNotFound:
		return "install esptool (pip install esptool) or set esptool_path in the config"
	case PortBusy:
		return "close other programs using the port and check you may access it"
	case DeviceNotResponding:
		return "hold BOOT while resetting the board to enter download mode, then retry"
	default:
		return ""
	}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
