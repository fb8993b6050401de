package flash

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Flash offsets used by the product's partition layout.
const (
	OffsetFirstBootloader  uint32 = 0x1000
	OffsetPartitions       uint32 = 0x8000
	OffsetSecondBootloader uint32 = 0xe000
	OffsetFirmware         uint32 = 0x10000
	OffsetFilesystem       uint32 = 0x290000
)

const (
	FlashSizeDetect = "detect"
	FlashSize8MB    = "8MB"
	FlashModeDIO    = "dio"
	FlashFreq40M    = "40m"
)

// Entry is one image written at a flash offset.
type Entry struct {
	Offset uint32
	Path   string
	Name   string // optional label used in messages
}

func (e Entry) label() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Path
}

// Plan is an ordered list of images for a single write_flash invocation.
// Offsets are strictly ascending; NewPlan refuses anything else.
type Plan struct {
	Name      string
	Entries   []Entry
	FlashSize string
	FlashMode string
	FlashFreq string
	Compress  bool
}

// PlanOption customises a Plan built by NewPlan.
type PlanOption func(*Plan)

// WithFlashSize sets the --flash_size value, e.g. "8MB" or "detect".
func WithFlashSize(size string) PlanOption {
	return func(p *Plan) { p.FlashSize = size }
}

// WithFlashMode sets the --flash_mode value.
func WithFlashMode(mode string) PlanOption {
	return func(p *Plan) { p.FlashMode = mode }
}

// WithFlashFreq sets the --flash_freq value.
func WithFlashFreq(freq string) PlanOption {
	return func(p *Plan) { p.FlashFreq = freq }
}

// WithoutCompression disables -z.
func WithoutCompression() PlanOption {
	return func(p *Plan) { p.Compress = false }
}

// NewPlan validates entries and returns a plan. Entries must be given in
// strictly ascending offset order and every entry needs a path.
func NewPlan(name string, entries []Entry, opts ...PlanOption) (Plan, error) {
	if len(entries) == 0 {
		return Plan{}, errors.Errorf("plan %s: no images", name)
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Path) == "" {
			return Plan{}, errors.Errorf("plan %s: image at 0x%x has no path", name, e.Offset)
		}
		if i > 0 && e.Offset <= entries[i-1].Offset {
			return Plan{}, &PlanOrderError{Plan: name, Prev: entries[i-1].Offset, Next: e.Offset}
		}
	}

	p := Plan{
		Name:      name,
		Entries:   append([]Entry(nil), entries...),
		FlashSize: FlashSizeDetect,
		FlashMode: FlashModeDIO,
		FlashFreq: FlashFreq40M,
		Compress:  true,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p, nil
}

// FirmwarePlan places the bootloaders, partition table and the application.
func FirmwarePlan(firstBootloader, partitions, secondBootloader, firmware string, opts ...PlanOption) (Plan, error) {
	return NewPlan("firmware", []Entry{
		{Offset: OffsetFirstBootloader, Path: firstBootloader, Name: "first-bootloader"},
		{Offset: OffsetPartitions, Path: partitions, Name: "partitions"},
		{Offset: OffsetSecondBootloader, Path: secondBootloader, Name: "second-bootloader"},
		{Offset: OffsetFirmware, Path: firmware, Name: "firmware"},
	}, opts...)
}

// FilesystemPlan writes a single filesystem image on an 8MB flash layout.
func FilesystemPlan(filesystem string, opts ...PlanOption) (Plan, error) {
	return NewPlan("filesystem", []Entry{
		{Offset: OffsetFilesystem, Path: filesystem, Name: "filesystem"},
	}, append([]PlanOption{WithFlashSize(FlashSize8MB)}, opts...)...)
}

// Validate checks that no image runs into the next one, and that the last
// image fits the flash when its size is known. sizes is indexed like Entries.
func (p Plan) Validate(sizes []int64) error {
	if len(sizes) != len(p.Entries) {
		return errors.Errorf("plan %s: %d sizes for %d images", p.Name, len(sizes), len(p.Entries))
	}
	for i := 0; i+1 < len(p.Entries); i++ {
		end := int64(p.Entries[i].Offset) + sizes[i]
		if end > int64(p.Entries[i+1].Offset) {
			return &OverlapError{
				Plan:   p.Name,
				Image:  p.Entries[i].label(),
				End:    end,
				Next:   p.Entries[i+1].label(),
				Offset: p.Entries[i+1].Offset,
			}
		}
	}
	if capacity, ok := parseFlashSize(p.FlashSize); ok {
		last := len(p.Entries) - 1
		end := int64(p.Entries[last].Offset) + sizes[last]
		if end > capacity {
			return &OverlapError{
				Plan:   p.Name,
				Image:  p.Entries[last].label(),
				End:    end,
				Next:   "end of flash",
				Offset: uint32(capacity),
			}
		}
	}
	return nil
}

// parseFlashSize understands esptool sizes such as "4MB" or "256KB".
func parseFlashSize(s string) (int64, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	mult := int64(0)
	switch {
	case strings.HasSuffix(s, "MB"):
		mult = 1 << 20
	case strings.HasSuffix(s, "KB"):
		mult = 1 << 10
	default:
		return 0, false
	}
	n, err := strconv.ParseInt(s[:len(s)-2], 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n * mult, true
}
