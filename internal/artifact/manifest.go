package artifact

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Spec describes one remote artifact and where it lands locally.
type Spec struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Dest   string `json:"dest"`             // relative to the artifact directory unless absolute
	SHA256 string `json:"sha256,omitempty"` // optional hex digest
}

// Logical artifact names. The firmware flash plan looks the auxiliary
// images up by these names.
const (
	FirstBootloader  = "first-bootloader"
	SecondBootloader = "second-bootloader"
	Partitions       = "partitions"
	Filesystem       = "filesystem"
	Firmware         = "firmware"
)

// DefaultManifest is the fixed set of artifacts published for the product.
func DefaultManifest() []Spec {
	return []Spec{
		{Name: FirstBootloader, URL: "https://url.to/first-bootloader.bin", Dest: "first-bootloader.bin"},
		{Name: SecondBootloader, URL: "https://url.to/second-bootloader.bin", Dest: "second-bootloader.bin"},
		{Name: Partitions, URL: "https://url.to/partitions.bin", Dest: "partitions.bin"},
		{Name: Filesystem, URL: "https://url.to/filesystem.bin", Dest: filepath.Join("esp32", "spiffs.bin")},
		{Name: Firmware, URL: "https://url.to/firmware.bin", Dest: "firmware.bin"},
	}
}

// Path resolves the destination of s inside dir.
func (s Spec) Path(dir string) string {
	if filepath.IsAbs(s.Dest) {
		return s.Dest
	}
	return filepath.Join(dir, s.Dest)
}

// Validate checks that s can be fetched at all.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("artifact without a name")
	}
	if strings.TrimSpace(s.URL) == "" {
		return errors.Errorf("artifact %s: empty url", s.Name)
	}
	if strings.TrimSpace(s.Dest) == "" {
		return errors.Errorf("artifact %s: empty destination", s.Name)
	}
	if s.SHA256 != "" && len(s.SHA256) != 64 {
		return errors.Errorf("artifact %s: sha256 must be 64 hex characters", s.Name)
	}
	return nil
}

// Lookup finds the artifact named name.
func Lookup(specs []Spec, name string) (Spec, bool) {
	for _, s := range specs {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}
