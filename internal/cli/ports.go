package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/buckleypaul/espprov/internal/config"
	"github.com/buckleypaul/espprov/internal/flash"
	"github.com/buckleypaul/espprov/internal/serial"
	"github.com/buckleypaul/espprov/internal/ui"
)

func runListPorts(ctx context.Context, d *Deps, args []string) int {
	fs := newFlagSet(d, "list-ports")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	ports := d.ListPorts()
	if len(ports) == 0 {
		fmt.Fprintln(d.Stdout, "No serial ports found.")
		return ExitOK
	}

	rows := make([][]string, 0, len(ports))
	for _, p := range ports {
		usb := ""
		if p.IsUSB {
			usb = p.VID + ":" + p.PID
		}
		rows = append(rows, []string{p.Name, p.Description, usb, p.SerialNumber})
	}
	fmt.Fprint(d.Stdout, ui.Table([]string{"PORT", "DESCRIPTION", "USB ID", "SERIAL"}, rows, 40))
	return ExitOK
}

// resolvePort decides which port to use. Order: the explicit flag, the
// configured port, the only port present, then an interactive choice when a
// terminal is attached. An explicit or configured port must be present in
// the enumerated list.
func resolvePort(d *Deps, cfg config.Config, flagPort string) (string, error) {
	ports := d.ListPorts()

	requested := flagPort
	if requested == "" {
		requested = cfg.SerialPort
	}
	if requested != "" {
		p, err := serial.Select(ports, requested)
		if err != nil {
			return "", err
		}
		return p.Name, nil
	}

	if p, ok := serial.AutoSelect(ports); ok {
		d.Log.Info("using the only serial port present", zap.String("port", p.Name))
		return p.Name, nil
	}

	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.Name)
	}
	if len(ports) > 1 && d.Interactive {
		items := make([]ui.PickerItem, 0, len(ports))
		for _, p := range ports {
			items = append(items, ui.PickerItem{Label: p.Name, Value: p.Name, Desc: p.Description})
		}
		chosen, ok, err := ui.Pick("Select serial port", items, d.Stdin, d.Stdout)
		if err != nil {
			d.Log.Debug("port picker failed", zap.Error(err))
		}
		if ok {
			return chosen, nil
		}
	}
	return "", &flash.NoPortSelectedError{Available: names}
}

// savePort remembers port as serial_port in the local config of the
// artifact directory. A failure is only logged.
func savePort(d *Deps, cfg config.Config, port string) {
	cfg.SerialPort = port
	if err := config.Save(cfg, false); err != nil {
		d.Log.Warn("could not save serial port", zap.Error(err))
		return
	}
	d.Log.Info("saved serial port", zap.String("port", port), zap.String("dir", cfg.ArtifactDir()))
}
