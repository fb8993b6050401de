package ui

import (
	"strings"
	"testing"
)

func TestTableAlignsAndTruncates(t *testing.T) {
	out := Table([]string{"PORT", "DESCRIPTION"}, [][]string{
		{"/dev/ttyUSB0", "Silicon Labs CP2102 USB to UART Bridge Controller"},
		{"COM3", "CH340"},
	}, 20)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "…") {
		t.Errorf("expected long description to be truncated: %q", lines[1])
	}
	if strings.Index(lines[1], "Silicon") != strings.Index(lines[2], "CH340") {
		t.Errorf("columns not aligned:\n%s", out)
	}
}

func TestResultLine(t *testing.T) {
	ok := ResultLine(true, "firmware", "written")
	fail := ResultLine(false, "firmware", "boom")
	if !strings.Contains(ok, "OK") || !strings.Contains(fail, "FAIL") {
		t.Errorf("unexpected badges: %q / %q", ok, fail)
	}
	if !strings.Contains(fail, "boom") {
		t.Errorf("message missing: %q", fail)
	}
}

func TestPanelWrapsContent(t *testing.T) {
	out := Panel("esptool", strings.Repeat("word ", 30), 40, Error)
	if !strings.Contains(out, "esptool") {
		t.Error("title missing")
	}
	if len(strings.Split(out, "\n")) < 4 {
		t.Errorf("expected wrapped content:\n%s", out)
	}
}
