package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/buckleypaul/espprov/internal/artifact"
	"github.com/buckleypaul/espprov/internal/config"
	"github.com/buckleypaul/espprov/internal/flash"
	"github.com/buckleypaul/espprov/internal/store"
	"github.com/buckleypaul/espprov/internal/ui"
)

func runFlashFirmware(ctx context.Context, d *Deps, args []string) int {
	fs := newFlagSet(d, "flash-firmware")
	firmware := fs.String("firmware", "", "application image written at 0x10000 (required)")
	port := fs.String("port", "", "serial port (default: configured port, or the only one present)")
	baud := fs.Int("baud", d.Config.SerialBaudRate, "baud rate")
	baseDir := fs.String("base-dir", d.Config.BaseDir, "base directory holding the downloaded bootloaders and partition table")
	save := fs.Bool("save-port", false, "remember the port in the local config")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if err := checkImageArg("firmware", *firmware); err != nil {
		return usageFailure(d, err)
	}

	cfg, err := commandConfig(d, *baseDir)
	if err != nil {
		return configFailure(d, err)
	}

	portName, err := resolvePort(d, cfg, *port)
	if err != nil {
		return failure(d, err)
	}

	aux, err := auxiliaryImages(manifest(cfg), cfg.ArtifactDir())
	if err != nil {
		return configFailure(d, err)
	}
	plan, err := flash.FirmwarePlan(aux[0], aux[1], aux[2], *firmware, planOptions(cfg)...)
	if err != nil {
		return failure(d, err)
	}
	return d.flash(ctx, cfg, plan, target(fs, cfg, portName, *baud), *save)
}

func runFlashFilesystem(ctx context.Context, d *Deps, args []string) int {
	fs := newFlagSet(d, "flash-filesystem")
	filesystem := fs.String("filesystem", "", "filesystem image written at 0x290000 (required)")
	port := fs.String("port", "", "serial port (default: configured port, or the only one present)")
	baud := fs.Int("baud", d.Config.SerialBaudRate, "baud rate")
	baseDir := fs.String("base-dir", d.Config.BaseDir, "base directory used for the flash history")
	save := fs.Bool("save-port", false, "remember the port in the local config")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if err := checkImageArg("filesystem", *filesystem); err != nil {
		return usageFailure(d, err)
	}

	cfg, err := commandConfig(d, *baseDir)
	if err != nil {
		return configFailure(d, err)
	}

	portName, err := resolvePort(d, cfg, *port)
	if err != nil {
		return failure(d, err)
	}

	plan, err := flash.FilesystemPlan(*filesystem, planOptions(cfg)...)
	if err != nil {
		return failure(d, err)
	}
	return d.flash(ctx, cfg, plan, target(fs, cfg, portName, *baud), *save)
}

// target builds the flash target. The baud flag wins over the config only
// when given.
func target(fs *flag.FlagSet, cfg config.Config, port string, baud int) flash.Target {
	if !flagGiven(fs, "baud") {
		baud = cfg.SerialBaudRate
	}
	return flash.NewTarget(port, baud)
}

// flash runs plan, records it in the history and reports the outcome.
func (d *Deps) flash(ctx context.Context, cfg config.Config, plan flash.Plan, target flash.Target, savePortOnSuccess bool) int {
	o := flash.NewOrchestrator(d.Runner, d.Tool, d.Log)
	o.PortCheck = d.PortCheck

	fmt.Fprintln(d.Stdout, ui.Title(fmt.Sprintf("Flashing %s on %s", plan.Name, target.Port)))
	for _, e := range plan.Entries {
		fmt.Fprintf(d.Stdout, "  0x%06x  %s\n", e.Offset, e.Path)
	}
	fmt.Fprintln(d.Stdout)

	res := o.Flash(ctx, plan, target)

	rec := store.FlashRecord{
		Plan:      plan.Name,
		Port:      target.Port,
		Timestamp: time.Now(),
		Success:   res.OK(),
		Duration:  res.Duration.Round(time.Millisecond).String(),
	}
	for _, e := range plan.Entries {
		rec.Images = append(rec.Images, fmt.Sprintf("0x%x %s", e.Offset, e.Path))
	}
	if !res.OK() {
		rec.Error = res.Message
		var toolErr *flash.ToolError
		if errors.As(res.Err, &toolErr) {
			rec.ErrorKind = toolErr.Kind.String()
			rec.Partial = toolErr.Partial()
		}
	}
	if err := historyStore(cfg).AddFlash(rec); err != nil {
		d.Log.Warn("could not record flash", zap.Error(err))
	}

	if !res.OK() {
		return failure(d, res.Err)
	}
	fmt.Fprintln(d.Stdout, ui.ResultLine(true, res.Name, res.Message))
	if savePortOnSuccess {
		savePort(d, cfg, target.Port)
	}
	return ExitOK
}

// auxiliaryImages returns the local paths of the first bootloader, the
// partition table and the second bootloader, in that order.
func auxiliaryImages(specs []artifact.Spec, dir string) ([3]string, error) {
	var paths [3]string
	for i, name := range []string{artifact.FirstBootloader, artifact.Partitions, artifact.SecondBootloader} {
		spec, ok := artifact.Lookup(specs, name)
		if !ok {
			return paths, errors.Errorf("artifact manifest has no %s entry", name)
		}
		paths[i] = spec.Path(dir)
	}
	return paths, nil
}

func checkImageArg(flagName, path string) error {
	if path == "" {
		return errors.Errorf("--%s is required", flagName)
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "--%s", flagName)
	}
	if info.IsDir() {
		return errors.Errorf("--%s %s is a directory", flagName, path)
	}
	return nil
}
