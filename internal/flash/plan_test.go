package flash

import (
	"errors"
	"testing"
)

func TestNewPlanRejectsNonAscendingOffsets(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"descending", []Entry{{Offset: 0x8000, Path: "a"}, {Offset: 0x1000, Path: "b"}}},
		{"duplicate", []Entry{{Offset: 0x1000, Path: "a"}, {Offset: 0x1000, Path: "b"}}},
		{"late drop", []Entry{{Offset: 0x1000, Path: "a"}, {Offset: 0x8000, Path: "b"}, {Offset: 0x2000, Path: "c"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlan("test", tt.entries)
			var orderErr *PlanOrderError
			if !errors.As(err, &orderErr) {
				t.Fatalf("expected PlanOrderError, got %v", err)
			}
		})
	}
}

func TestNewPlanRejectsEmpty(t *testing.T) {
	if _, err := NewPlan("empty", nil); err == nil {
		t.Fatal("expected error for empty plan")
	}
	if _, err := NewPlan("nopath", []Entry{{Offset: 0x1000}}); err == nil {
		t.Fatal("expected error for entry without path")
	}
}

func TestNewPlanDefaultsAndOptions(t *testing.T) {
	p, err := NewPlan("x", []Entry{{Offset: 0x1000, Path: "a"}}, WithFlashMode("qio"), WithFlashFreq("80m"), WithoutCompression())
	if err != nil {
		t.Fatal(err)
	}
	if p.FlashSize != FlashSizeDetect || p.FlashMode != "qio" || p.FlashFreq != "80m" || p.Compress {
		t.Errorf("unexpected plan settings: %+v", p)
	}
}

func TestFirmwarePlanOffsets(t *testing.T) {
	p, err := FirmwarePlan("fb", "pt", "sb", "fw")
	if err != nil {
		t.Fatal(err)
	}
	want := []uint32{0x1000, 0x8000, 0xe000, 0x10000}
	for i, e := range p.Entries {
		if e.Offset != want[i] {
			t.Errorf("entry %d offset 0x%x, want 0x%x", i, e.Offset, want[i])
		}
	}
	if p.Entries[3].Path != "fw" {
		t.Errorf("firmware path = %s", p.Entries[3].Path)
	}
}

func TestFilesystemPlan(t *testing.T) {
	p, err := FilesystemPlan("spiffs.bin")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Entries) != 1 || p.Entries[0].Offset != 0x290000 {
		t.Fatalf("unexpected entries %+v", p.Entries)
	}
	if p.FlashSize != "8MB" {
		t.Errorf("flash size = %s", p.FlashSize)
	}
}

func TestPlanBuildersAcceptOptions(t *testing.T) {
	fw, err := FirmwarePlan("fb", "pt", "sb", "fw", WithFlashMode("qio"), WithoutCompression())
	if err != nil {
		t.Fatal(err)
	}
	if fw.FlashMode != "qio" || fw.Compress || fw.FlashSize != FlashSizeDetect {
		t.Errorf("firmware plan settings: %+v", fw)
	}

	fs, err := FilesystemPlan("spiffs.bin", WithFlashFreq("80m"))
	if err != nil {
		t.Fatal(err)
	}
	if fs.FlashFreq != "80m" || fs.FlashSize != FlashSize8MB || !fs.Compress {
		t.Errorf("filesystem plan settings: %+v", fs)
	}
}

func TestValidateCapacity(t *testing.T) {
	p, _ := FilesystemPlan("spiffs.bin")
	fits := int64(8<<20) - int64(OffsetFilesystem)
	if err := p.Validate([]int64{fits}); err != nil {
		t.Errorf("image filling the flash exactly should fit: %v", err)
	}
	var overlap *OverlapError
	if err := p.Validate([]int64{fits + 1}); !errors.As(err, &overlap) {
		t.Errorf("expected OverlapError past end of flash, got %v", err)
	}
}

func TestValidateAdjacentImages(t *testing.T) {
	p, _ := NewPlan("adj", []Entry{{Offset: 0x1000, Path: "a"}, {Offset: 0x2000, Path: "b"}})
	if err := p.Validate([]int64{0x1000, 10}); err != nil {
		t.Errorf("touching images should be accepted: %v", err)
	}
	if err := p.Validate([]int64{0x1001, 10}); err == nil {
		t.Error("expected overlap error")
	}
	if err := p.Validate([]int64{1}); err == nil {
		t.Error("expected size count mismatch error")
	}
}

func TestParseFlashSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"8MB", 8 << 20, true},
		{"4mb", 4 << 20, true},
		{"256KB", 256 << 10, true},
		{"detect", 0, false},
		{"keep", 0, false},
		{"MB", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseFlashSize(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseFlashSize(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
