package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/buckleypaul/espprov/internal/artifact"
	"github.com/buckleypaul/espprov/internal/config"
	"github.com/buckleypaul/espprov/internal/flash"
	"github.com/buckleypaul/espprov/internal/logging"
	"github.com/buckleypaul/espprov/internal/serial"
)

// Exit codes.
const (
	ExitOK             = 0
	ExitError          = 1
	ExitDownloadFailed = 2
	ExitFlashFailed    = 3
	ExitUsage          = 4
)

// Deps carries everything a command touches outside the process. Main
// fills it with the real implementations; tests substitute fakes.
type Deps struct {
	Config config.Config
	Log    *zap.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	ListPorts   func() []serial.PortInfo
	HTTPClient  *http.Client
	Runner      flash.Runner
	Tool        flash.Tool
	PortCheck   flash.PortCheck
	OpenPort    serial.OpenFunc
	Interactive bool // a terminal is attached, so the port picker may run
}

type command struct {
	usage   string
	summary string
	run     func(ctx context.Context, d *Deps, args []string) int
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"list-ports": {
			usage:   "list-ports",
			summary: "list serial ports",
			run:     runListPorts,
		},
		"download-all": {
			usage:   "download-all [--base-dir DIR] [--timeout 30s]",
			summary: "download every artifact of the manifest",
			run:     runDownloadAll,
		},
		"flash-firmware": {
			usage:   "flash-firmware --firmware PATH [--port PORT] [--baud N] [--base-dir DIR] [--save-port]",
			summary: "flash bootloaders, partition table and firmware",
			run:     runFlashFirmware,
		},
		"flash-filesystem": {
			usage:   "flash-filesystem --filesystem PATH [--port PORT] [--baud N] [--base-dir DIR] [--save-port]",
			summary: "flash the filesystem image",
			run:     runFlashFilesystem,
		},
		"monitor": {
			usage:   "monitor [--port PORT] [--baud N] [--no-log] [--base-dir DIR] [--save-port]",
			summary: "print serial output until interrupted",
			run:     runMonitor,
		},
		"history": {
			usage:   "history [--base-dir DIR]",
			summary: "show recorded downloads and flashes",
			run:     runHistory,
		},
	}
}

// Main parses global flags, builds the real dependencies and runs the
// requested command. It returns the process exit code.
func Main(ctx context.Context, args []string, stdin *os.File, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("espprov", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "verbose output, including flashing tool output")
	configPath := fs.String("config", "", "config file (default: ~/.config/espprov/config.json merged with the local one)")
	fs.Usage = func() { printUsage(stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}

	log := logging.New(*verbose)
	defer log.Sync()

	cfg := config.Load()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitError
		}
	}

	tool := flash.ResolveTool(cfg.EsptoolPath, cfg.VenvPath)
	log.Debug("resolved flash tool", zap.Stringer("tool", tool))

	d := &Deps{
		Config:      cfg,
		Log:         log,
		Stdin:       stdin,
		Stdout:      stdout,
		Stderr:      stderr,
		ListPorts:   func() []serial.PortInfo { return serial.ListPorts(log) },
		HTTPClient:  &http.Client{},
		Runner:      flash.ExecRunner{Env: tool.Env, Log: log},
		Tool:        tool,
		PortCheck:   serial.Probe,
		Interactive: isTerminal(stdin) && isTerminalWriter(stdout),
	}
	return Run(ctx, d, fs.Args())
}

// Run dispatches args[0] to its command.
func Run(ctx context.Context, d *Deps, args []string) int {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if len(args) == 0 {
		printUsage(d.Stderr)
		return ExitUsage
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(d.Stdout)
		return ExitOK
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(d.Stderr, "Error: unknown command %q\n\n", args[0])
		printUsage(d.Stderr)
		return ExitUsage
	}
	if err := d.Config.Validate(); err != nil {
		fmt.Fprintf(d.Stderr, "Error: invalid config: %v\n", err)
		return ExitError
	}
	return cmd.run(ctx, d, args[1:])
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: espprov [-v] [-config FILE] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-18s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'espprov <command> -h' for the flags of a command.")
}

// newFlagSet returns a flag set for a subcommand that reports errors on
// the command's stderr.
func newFlagSet(d *Deps, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(d.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(d.Stderr, "Usage: espprov %s\n", commands[name].usage)
		fs.PrintDefaults()
	}
	return fs
}

// parseFlags returns the exit code to stop with, or -1 to continue.
func parseFlags(fs *flag.FlagSet, args []string) int {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "Error: unexpected arguments: %v\n", fs.Args())
		return ExitUsage
	}
	return -1
}

// commandConfig moves the config to the --base-dir of a command, picking up
// the local config of that artifact directory, and validates the result.
func commandConfig(d *Deps, baseDir string) (config.Config, error) {
	cfg := d.Config.WithBaseDir(baseDir)
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// flagGiven reports whether name was set on the command line.
func flagGiven(fs *flag.FlagSet, name string) bool {
	given := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			given = true
		}
	})
	return given
}

// manifest returns the configured artifact specs.
func manifest(cfg config.Config) []artifact.Spec {
	if len(cfg.Artifacts) == 0 {
		return artifact.DefaultManifest()
	}
	return cfg.Artifacts
}

// planOptions turns the flash settings of cfg into plan options.
func planOptions(cfg config.Config) []flash.PlanOption {
	var opts []flash.PlanOption
	if cfg.FlashMode != "" {
		opts = append(opts, flash.WithFlashMode(cfg.FlashMode))
	}
	if cfg.FlashFreq != "" {
		opts = append(opts, flash.WithFlashFreq(cfg.FlashFreq))
	}
	if cfg.NoCompress {
		opts = append(opts, flash.WithoutCompression())
	}
	return opts
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}
