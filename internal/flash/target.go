package flash

// Target identifies the board to program.
type Target struct {
	Chip   string
	Port   string
	Baud   int
	Before string
	After  string
}

const (
	ChipESP32       = "esp32"
	DefaultBaudRate = 115200
	ResetDefault    = "default_reset"
	ResetHard       = "hard_reset"
)

// NewTarget returns the esp32 target on port. A non-positive baud selects
// DefaultBaudRate.
func NewTarget(port string, baud int) Target {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return Target{
		Chip:   ChipESP32,
		Port:   port,
		Baud:   baud,
		Before: ResetDefault,
		After:  ResetHard,
	}
}
