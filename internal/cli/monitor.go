package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/buckleypaul/espprov/internal/serial"
	"github.com/buckleypaul/espprov/internal/store"
	"github.com/buckleypaul/espprov/internal/ui"
)

func runMonitor(ctx context.Context, d *Deps, args []string) int {
	fs := newFlagSet(d, "monitor")
	port := fs.String("port", "", "serial port (default: configured port, or the only one present)")
	baud := fs.Int("baud", d.Config.SerialBaudRate, "baud rate")
	noLog := fs.Bool("no-log", false, "do not keep a copy of the output in the logs directory")
	baseDir := fs.String("base-dir", d.Config.BaseDir, "base directory holding the logs")
	save := fs.Bool("save-port", false, "remember the port in the local config")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	cfg, err := commandConfig(d, *baseDir)
	if err != nil {
		return configFailure(d, err)
	}
	if !flagGiven(fs, "baud") {
		*baud = cfg.SerialBaudRate
	}

	portName, err := resolvePort(d, cfg, *port)
	if err != nil {
		return failure(d, err)
	}

	m := serial.NewMonitor(d.OpenPort)
	if err := m.Connect(portName, *baud); err != nil {
		fmt.Fprintf(d.Stderr, "%s %v\n", ui.ErrorBadge("ERROR"), err)
		return ExitError
	}
	defer m.Disconnect()
	if *save {
		savePort(d, cfg, portName)
	}

	var out io.Writer = d.Stdout
	if !*noLog {
		if f, path := openSerialLog(d, historyStore(cfg)); f != nil {
			defer f.Close()
			out = io.MultiWriter(d.Stdout, f)
			rec := store.SerialLog{Port: portName, BaudRate: *baud, Timestamp: time.Now(), LogFile: path}
			if err := historyStore(cfg).AddSerialLog(rec); err != nil {
				d.Log.Warn("could not record serial log", zap.Error(err))
			}
		}
	}

	fmt.Fprintln(d.Stderr, ui.DimStyle.Render(fmt.Sprintf("Monitoring %s at %d baud, press Ctrl+C to stop.", portName, *baud)))
	if err := m.Stream(ctx, out); err != nil {
		fmt.Fprintf(d.Stderr, "%s %v\n", ui.ErrorBadge("ERROR"), err)
		return ExitError
	}
	return ExitOK
}

// openSerialLog creates a timestamped log file. On failure it logs a warning
// and returns nil.
func openSerialLog(d *Deps, hist *store.Store) (*os.File, string) {
	dir, err := hist.LogsDir()
	if err != nil {
		d.Log.Warn("could not create logs directory", zap.Error(err))
		return nil, ""
	}
	path := filepath.Join(dir, "serial-"+time.Now().Format("20060102-150405")+".log")
	f, err := os.Create(path)
	if err != nil {
		d.Log.Warn("could not create serial log", zap.Error(err))
		return nil, ""
	}
	return f, path
}
