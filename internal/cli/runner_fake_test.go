package cli

import (
	"context"

	"github.com/buckleypaul/espprov/internal/flash"
)

type runCall struct {
	name string
	args []string
}

type fakeRunner struct {
	next flash.Output

	runCalls []runCall
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) flash.Output {
	f.runCalls = append(f.runCalls, runCall{name: name, args: append([]string(nil), args...)})
	return f.next
}
