package serial

import (
	"errors"
	"strings"
	"testing"
)

func ports(names ...string) []PortInfo {
	var out []PortInfo
	for _, n := range names {
		out = append(out, PortInfo{Name: n})
	}
	return out
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name      string
		ports     []PortInfo
		requested string
		wantErr   bool
	}{
		{name: "present", ports: ports("/dev/ttyUSB0", "/dev/ttyUSB1"), requested: "/dev/ttyUSB1"},
		{name: "absent", ports: ports("/dev/ttyUSB0"), requested: "/dev/ttyACM0", wantErr: true},
		{name: "no ports", ports: nil, requested: "COM3", wantErr: true},
		{name: "exact match only", ports: ports("/dev/ttyUSB10"), requested: "/dev/ttyUSB1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Select(tt.ports, tt.requested)
			if tt.wantErr {
				var notFound *PortNotFoundError
				if !errors.As(err, &notFound) {
					t.Fatalf("expected PortNotFoundError, got %v", err)
				}
				if notFound.Name != tt.requested || len(notFound.Available) != len(tt.ports) {
					t.Errorf("error = %+v", notFound)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if p.Name != tt.requested {
				t.Errorf("selected %s, want %s", p.Name, tt.requested)
			}
		})
	}
}

func TestPortNotFoundErrorListsAvailable(t *testing.T) {
	_, err := Select(ports("/dev/ttyUSB0", "/dev/ttyUSB1"), "/dev/ttyACM0")
	if !strings.Contains(err.Error(), "/dev/ttyUSB0, /dev/ttyUSB1") {
		t.Errorf("error = %q", err)
	}
	_, err = Select(nil, "/dev/ttyACM0")
	if !strings.Contains(err.Error(), "no ports available") {
		t.Errorf("error = %q", err)
	}
}

func TestAutoSelect(t *testing.T) {
	if _, ok := AutoSelect(nil); ok {
		t.Error("auto-selected with no ports")
	}
	if _, ok := AutoSelect(ports("a", "b")); ok {
		t.Error("auto-selected among two ports")
	}
	p, ok := AutoSelect(ports("/dev/ttyUSB0"))
	if !ok || p.Name != "/dev/ttyUSB0" {
		t.Errorf("AutoSelect = %v, %v", p, ok)
	}
}

func TestPortUnavailableBusy(t *testing.T) {
	for reason, busy := range map[string]bool{
		"busy":              true,
		"permission denied": true,
		"not found":         false,
		"open failed":       false,
	} {
		e := &PortUnavailableError{Name: "COM3", Reason: reason}
		if e.Busy() != busy {
			t.Errorf("Busy() for %q = %v, want %v", reason, e.Busy(), busy)
		}
	}
}
