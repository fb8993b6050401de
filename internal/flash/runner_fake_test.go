package flash

import "context"

type runCall struct {
	name      string
	args      []string
	cancelled bool
}

type fakeRunner struct {
	next Output

	runCalls []runCall
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) Output {
	copied := append([]string(nil), args...)
	f.runCalls = append(f.runCalls, runCall{name: name, args: copied, cancelled: ctx.Err() != nil})
	return f.next
}
