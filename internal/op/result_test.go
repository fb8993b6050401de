package op

import (
	"errors"
	"testing"
)

func TestResultConstructors(t *testing.T) {
	ok := Succeeded("firmware", "%d bytes", 42)
	if !ok.OK() || ok.Message != "42 bytes" || ok.Err != nil {
		t.Errorf("unexpected success result %+v", ok)
	}

	cause := errors.New("connection reset")
	failed := Failed("partitions", cause)
	if failed.OK() || failed.Message != "connection reset" || failed.Err != cause {
		t.Errorf("unexpected failure result %+v", failed)
	}
	if failed.String() != "partitions: failure: connection reset" {
		t.Errorf("String() = %q", failed.String())
	}
}

func TestAnyFailed(t *testing.T) {
	if AnyFailed(nil) {
		t.Error("no results cannot fail")
	}
	results := []Result{Succeeded("a", "ok"), Succeeded("b", "ok")}
	if AnyFailed(results) {
		t.Error("all succeeded")
	}
	results = append(results, Failed("c", nil))
	if !AnyFailed(results) {
		t.Error("expected a failure")
	}
	if results[2].Message != "unknown error" {
		t.Errorf("nil cause message = %q", results[2].Message)
	}
}
