package flash

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/buckleypaul/espprov/internal/logging"
)

// Output is what a finished tool invocation reports back.
type Output struct {
	Text     string // stdout and stderr, interleaved
	ExitCode int    // -1 when the process could not be started
	Duration time.Duration
	Err      error // start or wait failure, nil on exit 0
}

// Runner executes an external command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) Output
}

// ExecRunner runs commands with os/exec and logs each output line at debug
// level as it arrives.
type ExecRunner struct {
	Env []string // nil inherits the parent environment
	Dir string
	Log *zap.Logger
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) Output {
	start := time.Now()
	log := logging.OrNop(r.Log)

	cmd := exec.CommandContext(ctx, name, args...)
	if r.Env != nil {
		cmd.Env = r.Env
	}
	if r.Dir != "" {
		cmd.Dir = r.Dir
	}

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	log.Debug("running flash tool", zap.String("cmd", name), zap.Strings("args", args))
	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return Output{ExitCode: -1, Duration: time.Since(start), Err: err}
	}

	var (
		buf strings.Builder
		wg  sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(pr)
		scanner.Split(scanLinesOrCR)
		for scanner.Scan() {
			line := scanner.Text()
			buf.WriteString(line)
			buf.WriteByte('\n')
			if strings.TrimSpace(line) != "" {
				log.Debug(line, zap.String("tool", name))
			}
		}
		io.Copy(io.Discard, pr)
	}()

	err := cmd.Wait()
	pw.Close()
	wg.Wait()

	exitCode := 0
	if err != nil {
		exitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
	}

	return Output{
		Text:     buf.String(),
		ExitCode: exitCode,
		Duration: time.Since(start),
		Err:      err,
	}
}

// scanLinesOrCR splits on \n and on the bare \r esptool uses to redraw its
// progress percentage.
func scanLinesOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
