package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

const (
	downloadsFile  = "downloads.json"
	flashesFile    = "flashes.json"
	serialLogsFile = "serial_logs.json"
)

// Store keeps the history of downloads, flashes and monitor sessions next
// to the artifacts (typically <artifact dir>/.espprov/).
type Store struct {
	root string
	mu   sync.Mutex
}

// New creates a Store rooted at the given directory.
func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) historyDir() string {
	return filepath.Join(s.root, "history")
}

func (s *Store) logsDir() string {
	return filepath.Join(s.root, "logs")
}

// AddDownload appends a download record.
func (s *Store) AddDownload(r DownloadRecord) error {
	return s.appendRecord(downloadsFile, r)
}

// AddFlash appends a flash record.
func (s *Store) AddFlash(r FlashRecord) error {
	return s.appendRecord(flashesFile, r)
}

// AddSerialLog appends a serial log entry.
func (s *Store) AddSerialLog(r SerialLog) error {
	return s.appendRecord(serialLogsFile, r)
}

// Downloads returns all download records, oldest first.
func (s *Store) Downloads() ([]DownloadRecord, error) {
	var records []DownloadRecord
	err := s.loadRecords(downloadsFile, &records)
	return records, err
}

// Flashes returns all flash records, oldest first.
func (s *Store) Flashes() ([]FlashRecord, error) {
	var records []FlashRecord
	err := s.loadRecords(flashesFile, &records)
	return records, err
}

// SerialLogs returns all serial log entries.
func (s *Store) SerialLogs() ([]SerialLog, error) {
	var records []SerialLog
	err := s.loadRecords(serialLogsFile, &records)
	return records, err
}

// LogsDir returns the path to the logs directory, creating it if needed.
func (s *Store) LogsDir() (string, error) {
	dir := s.logsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func (s *Store) appendRecord(filename string, record any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.historyDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create history dir")
	}

	path := filepath.Join(dir, filename)

	// A corrupt history file is started over rather than blocking the
	// operation that is being recorded.
	var records []json.RawMessage
	if data, err := os.ReadFile(path); err == nil {
		if json.Unmarshal(data, &records) != nil {
			records = nil
		}
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	records = append(records, raw)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) loadRecords(filename string, dest any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.historyDir(), filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return errors.Wrapf(json.Unmarshal(data, dest), "parse %s", filename)
}
