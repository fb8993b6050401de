package flash

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/buckleypaul/espprov/internal/logging"
	"github.com/buckleypaul/espprov/internal/op"
)

// PortCheck is consulted before the tool runs. It should fail when the port
// cannot be opened.
type PortCheck func(port string, baud int) error

// Orchestrator checks a plan against the local files and hands it to the
// flashing tool in a single invocation.
type Orchestrator struct {
	Runner    Runner
	Tool      Tool
	PortCheck PortCheck // optional
	Log       *zap.Logger
}

// NewOrchestrator returns an orchestrator running tool through runner.
func NewOrchestrator(runner Runner, tool Tool, log *zap.Logger) *Orchestrator {
	return &Orchestrator{Runner: runner, Tool: tool, Log: log}
}

// Flash writes plan to target. All preconditions are checked before the
// tool is started. The tool invocation is not interrupted when ctx is
// cancelled: stopping esptool halfway through a write can leave the board
// without a bootloader.
func (o *Orchestrator) Flash(ctx context.Context, plan Plan, target Target) op.Result {
	start := time.Now()
	res := o.flash(ctx, plan, target)
	res.Duration = time.Since(start)
	return res
}

func (o *Orchestrator) flash(ctx context.Context, plan Plan, target Target) op.Result {
	log := logging.OrNop(o.Log).With(zap.String("plan", plan.Name))

	sizes, err := imageSizes(plan)
	if err != nil {
		return op.Failed(plan.Name, err)
	}
	if err := plan.Validate(sizes); err != nil {
		return op.Failed(plan.Name, err)
	}
	if target.Port == "" {
		return op.Failed(plan.Name, &NoPortSelectedError{})
	}
	if o.PortCheck != nil {
		if err := o.PortCheck(target.Port, target.Baud); err != nil {
			if portBusy(err) {
				return op.Failed(plan.Name, &ToolError{Kind: PortBusy, ExitCode: -1, Err: err})
			}
			return op.Failed(plan.Name, errors.Wrap(err, "port check"))
		}
	}

	args := append(append([]string(nil), o.Tool.Args...), WriteFlashArgs(plan, target)...)
	log.Info("flashing",
		zap.String("port", target.Port),
		zap.Int("baud", target.Baud),
		zap.Int("images", len(plan.Entries)),
	)

	out := o.Runner.Run(context.WithoutCancel(ctx), o.Tool.Path, args...)
	if out.Err == nil && out.ExitCode == 0 {
		log.Info("flash complete", zap.Duration("took", out.Duration))
		return op.Succeeded(plan.Name, "%d image(s) written to %s in %s",
			len(plan.Entries), target.Port, out.Duration.Round(time.Millisecond))
	}

	toolErr := &ToolError{
		Kind:     Classify(out),
		ExitCode: out.ExitCode,
		Output:   out.Text,
		Err:      out.Err,
		Written:  writtenOffsets(out.Text),
	}
	log.Debug("flash failed",
		zap.Stringer("kind", toolErr.Kind),
		zap.Int("exit", out.ExitCode),
		zap.Bool("partial", toolErr.Partial()),
	)
	return op.Failed(plan.Name, toolErr)
}

// portBusy reports whether a port check failed because another process holds
// the port or access is denied.
func portBusy(err error) bool {
	var busy interface{ Busy() bool }
	return errors.As(err, &busy) && busy.Busy()
}

// WriteFlashArgs builds the esptool arguments for plan, images in plan order.
func WriteFlashArgs(plan Plan, target Target) []string {
	args := []string{
		"--chip", target.Chip,
		"--port", target.Port,
		"--baud", fmt.Sprint(target.Baud),
		"--before", target.Before,
		"--after", target.After,
		"write_flash",
	}
	if plan.Compress {
		args = append(args, "-z")
	}
	if plan.FlashMode != "" {
		args = append(args, "--flash_mode", plan.FlashMode)
	}
	if plan.FlashFreq != "" {
		args = append(args, "--flash_freq", plan.FlashFreq)
	}
	if plan.FlashSize != "" {
		args = append(args, "--flash_size", plan.FlashSize)
	}
	for _, e := range plan.Entries {
		args = append(args, fmt.Sprintf("0x%x", e.Offset), e.Path)
	}
	return args
}

// imageSizes stats every image; a missing or empty file is a MissingImageError.
func imageSizes(plan Plan) ([]int64, error) {
	sizes := make([]int64, 0, len(plan.Entries))
	for _, e := range plan.Entries {
		info, err := os.Stat(e.Path)
		if err != nil {
			return nil, &MissingImageError{Path: e.Path, Offset: e.Offset, Err: err}
		}
		if info.IsDir() {
			return nil, &MissingImageError{Path: e.Path, Offset: e.Offset, Err: errors.New("is a directory")}
		}
		if info.Size() == 0 {
			return nil, &MissingImageError{Path: e.Path, Offset: e.Offset, Empty: true}
		}
		sizes = append(sizes, info.Size())
	}
	return sizes, nil
}
