package artifact

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultManifest(t *testing.T) {
	specs := DefaultManifest()
	if len(specs) != 5 {
		t.Fatalf("expected 5 artifacts, got %d", len(specs))
	}
	for _, name := range []string{FirstBootloader, SecondBootloader, Partitions, Filesystem, Firmware} {
		s, ok := Lookup(specs, name)
		if !ok {
			t.Errorf("missing artifact %s", name)
			continue
		}
		if err := s.Validate(); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestSpecPath(t *testing.T) {
	dir := t.TempDir()
	s := Spec{Dest: filepath.Join("esp32", "spiffs.bin")}
	if got := s.Path(dir); got != filepath.Join(dir, "esp32", "spiffs.bin") {
		t.Errorf("Path = %s", got)
	}
	abs := filepath.Join(dir, "elsewhere.bin")
	s.Dest = abs
	if got := s.Path("/ignored"); got != abs {
		t.Errorf("absolute Path = %s, want %s", got, abs)
	}
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want string
	}{
		{"no name", Spec{URL: "u", Dest: "d"}, "without a name"},
		{"no url", Spec{Name: "a", Dest: "d"}, "empty url"},
		{"no dest", Spec{Name: "a", URL: "u"}, "empty destination"},
		{"short hash", Spec{Name: "a", URL: "u", Dest: "d", SHA256: "abc"}, "64 hex"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}
