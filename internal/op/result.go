package op

import (
	"fmt"
	"time"
)

// Kind tells whether an operation succeeded.
type Kind int

const (
	Success Kind = iota
	Failure
)

func (k Kind) String() string {
	if k == Success {
		return "success"
	}
	return "failure"
}

// Result is produced by every fetch and flash operation.
type Result struct {
	Kind    Kind
	Name    string // artifact or plan name
	Message string
	Err     error // underlying cause, nil on success

	Duration time.Duration
}

// Succeeded builds a success result.
func Succeeded(name, format string, args ...any) Result {
	return Result{Kind: Success, Name: name, Message: fmt.Sprintf(format, args...)}
}

// Failed builds a failure result carrying err as the cause.
func Failed(name string, err error) Result {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Result{Kind: Failure, Name: name, Message: msg, Err: err}
}

// OK reports whether the result is a success.
func (r Result) OK() bool { return r.Kind == Success }

func (r Result) String() string {
	return fmt.Sprintf("%s: %s: %s", r.Name, r.Kind, r.Message)
}

// AnyFailed reports whether at least one result is a failure.
func AnyFailed(results []Result) bool {
	for _, r := range results {
		if !r.OK() {
			return true
		}
	}
	return false
}
