package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/buckleypaul/espprov/internal/config"
	"github.com/buckleypaul/espprov/internal/flash"
	"github.com/buckleypaul/espprov/internal/serial"
	"github.com/buckleypaul/espprov/internal/store"
	"github.com/buckleypaul/espprov/internal/ui"
)

const diagnosticLines = 15

func historyStore(cfg config.Config) *store.Store {
	return store.New(filepath.Join(cfg.ArtifactDir(), ".espprov"))
}

// exitFor maps an error to the process exit code.
func exitFor(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		noPort   *flash.NoPortSelectedError
		notFound *serial.PortNotFoundError
		missing  *flash.MissingImageError
		order    *flash.PlanOrderError
		overlap  *flash.OverlapError
	)
	switch {
	case errors.As(err, &noPort),
		errors.As(err, &notFound),
		errors.As(err, &missing),
		errors.As(err, &order),
		errors.As(err, &overlap):
		return ExitUsage
	default:
		return ExitFlashFailed
	}
}

func configFailure(d *Deps, err error) int {
	fmt.Fprintf(d.Stderr, "%s %v\n", ui.ErrorBadge("ERROR"), err)
	return ExitError
}

func usageFailure(d *Deps, err error) int {
	fmt.Fprintf(d.Stderr, "%s %v\n", ui.ErrorBadge("ERROR"), err)
	return ExitUsage
}

// failure prints err with whatever diagnostics it carries and returns the
// matching exit code.
func failure(d *Deps, err error) int {
	fmt.Fprintf(d.Stderr, "%s %v\n", ui.ErrorBadge("ERROR"), err)

	var toolErr *flash.ToolError
	if errors.As(err, &toolErr) {
		if tail := tailLines(toolErr.Output, diagnosticLines); tail != "" {
			fmt.Fprintln(d.Stderr, ui.Panel("esptool output", tail, 80, ui.Error))
		}
		if toolErr.Partial() {
			written := make([]string, 0, len(toolErr.Written))
			for _, off := range toolErr.Written {
				written = append(written, fmt.Sprintf("0x%x", off))
			}
			fmt.Fprintln(d.Stderr, ui.WarningStyle.Render(
				"The device is partially flashed (written: "+strings.Join(written, ", ")+"). Run the command again."))
		}
		if hint := toolErr.Hint(); hint != "" {
			fmt.Fprintln(d.Stderr, ui.DimStyle.Render("hint: "+hint))
		}
	}

	var missing *flash.MissingImageError
	if errors.As(err, &missing) {
		fmt.Fprintln(d.Stderr, ui.DimStyle.Render("hint: run 'espprov download-all' or pass an existing image"))
	}
	return exitFor(err)
}

func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	var kept []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}
