package artifact

import "fmt"

// NetworkError covers timeouts, DNS failures, resets and non-2xx replies.
type NetworkError struct {
	Name       string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s from %s: unexpected status %d", e.Name, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download %s from %s: %v", e.Name, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IntegrityError means the downloaded content does not match the expected hash.
type IntegrityError struct {
	Name     string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("artifact %s: sha256 mismatch: expected %s, got %s", e.Name, e.Expected, e.Actual)
}

// StorageError covers local filesystem failures.
type StorageError struct {
	Name string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("artifact %s: storage %s: %v", e.Name, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
