package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAddAndRetrieveFlashes(t *testing.T) {
	tmp := t.TempDir()
	s := New(tmp)

	record := FlashRecord{
		Plan:      "firmware",
		Port:      "/dev/ttyUSB0",
		Images:    []string{"0x1000 first-bootloader.bin", "0x10000 firmware.bin"},
		Timestamp: time.Now(),
		Success:   true,
		Duration:  "12.5s",
	}

	if err := s.AddFlash(record); err != nil {
		t.Fatalf("AddFlash failed: %v", err)
	}

	flashes, err := s.Flashes()
	if err != nil {
		t.Fatalf("Flashes failed: %v", err)
	}
	if len(flashes) != 1 {
		t.Fatalf("expected 1 flash, got %d", len(flashes))
	}
	if flashes[0].Port != "/dev/ttyUSB0" {
		t.Errorf("expected port=/dev/ttyUSB0, got=%s", flashes[0].Port)
	}
	if len(flashes[0].Images) != 2 {
		t.Errorf("expected 2 images, got=%d", len(flashes[0].Images))
	}
}

func TestAddMultipleRecords(t *testing.T) {
	tmp := t.TempDir()
	s := New(tmp)

	s.AddDownload(DownloadRecord{Artifact: "firmware", Timestamp: time.Now(), Success: true, Duration: "1s"})
	s.AddDownload(DownloadRecord{Artifact: "partitions", Timestamp: time.Now(), Success: false, Duration: "30s", Error: "timeout"})
	s.AddFlash(FlashRecord{Plan: "filesystem", Timestamp: time.Now(), Success: false, ErrorKind: "port-busy"})

	downloads, _ := s.Downloads()
	if len(downloads) != 2 {
		t.Errorf("expected 2 downloads, got %d", len(downloads))
	}
	if downloads[1].Error != "timeout" {
		t.Errorf("expected order preserved, got %+v", downloads)
	}

	flashes, _ := s.Flashes()
	if len(flashes) != 1 || flashes[0].ErrorKind != "port-busy" {
		t.Errorf("unexpected flashes %+v", flashes)
	}
}

func TestEmptyStore(t *testing.T) {
	tmp := t.TempDir()
	s := New(tmp)

	flashes, err := s.Flashes()
	if err != nil {
		t.Fatalf("Flashes on empty store failed: %v", err)
	}
	if len(flashes) != 0 {
		t.Errorf("expected 0 flashes, got %d", len(flashes))
	}
	logs, err := s.SerialLogs()
	if err != nil || len(logs) != 0 {
		t.Errorf("expected no serial logs, got %v, %v", logs, err)
	}
}

func TestCorruptHistoryIsRestarted(t *testing.T) {
	tmp := t.TempDir()
	s := New(tmp)
	os.MkdirAll(filepath.Join(tmp, "history"), 0o755)
	os.WriteFile(filepath.Join(tmp, "history", "downloads.json"), []byte("{not json"), 0o644)

	if _, err := s.Downloads(); err == nil {
		t.Error("expected parse error reading corrupt history")
	}
	if err := s.AddDownload(DownloadRecord{Artifact: "firmware"}); err != nil {
		t.Fatalf("AddDownload failed: %v", err)
	}
	downloads, err := s.Downloads()
	if err != nil || len(downloads) != 1 {
		t.Errorf("expected fresh history with 1 record, got %v, %v", downloads, err)
	}
}

func TestLogsDir(t *testing.T) {
	tmp := t.TempDir()
	dir, err := New(tmp).LogsDir()
	if err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("logs dir not created: %v", err)
	}
}
