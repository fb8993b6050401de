package store

import "time"

// DownloadRecord captures the outcome of one artifact download.
type DownloadRecord struct {
	Artifact  string    `json:"artifact"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Duration  string    `json:"duration"`
	Error     string    `json:"error,omitempty"`
}

// FlashRecord captures the result of a flash operation.
type FlashRecord struct {
	Plan      string    `json:"plan"`
	Port      string    `json:"port"`
	Images    []string  `json:"images"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Duration  string    `json:"duration"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Error     string    `json:"error,omitempty"`
	Partial   bool      `json:"partial,omitempty"`
}

// SerialLog tracks a serial monitor session.
type SerialLog struct {
	Port      string    `json:"port"`
	BaudRate  int       `json:"baud_rate"`
	Timestamp time.Time `json:"timestamp"`
	LogFile   string    `json:"log_file"`
}
