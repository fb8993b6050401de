package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/buckleypaul/espprov/internal/ui"
)

func runHistory(ctx context.Context, d *Deps, args []string) int {
	fs := newFlagSet(d, "history")
	baseDir := fs.String("base-dir", d.Config.BaseDir, "base directory holding the history")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	cfg, err := commandConfig(d, *baseDir)
	if err != nil {
		return configFailure(d, err)
	}
	hist := historyStore(cfg)

	downloads, err := hist.Downloads()
	if err != nil {
		fmt.Fprintf(d.Stderr, "%s %v\n", ui.ErrorBadge("ERROR"), err)
		return ExitError
	}
	flashes, err := hist.Flashes()
	if err != nil {
		fmt.Fprintf(d.Stderr, "%s %v\n", ui.ErrorBadge("ERROR"), err)
		return ExitError
	}

	fmt.Fprintln(d.Stdout, ui.Title("Downloads"))
	if len(downloads) == 0 {
		fmt.Fprintln(d.Stdout, ui.DimStyle.Render("none recorded"))
	} else {
		rows := make([][]string, 0, len(downloads))
		for _, r := range downloads {
			rows = append(rows, []string{r.Timestamp.Format(time.DateTime), r.Artifact, status(r.Success), r.Duration, r.Error})
		}
		fmt.Fprint(d.Stdout, ui.Table([]string{"TIME", "ARTIFACT", "STATUS", "TOOK", "ERROR"}, rows, 60))
	}

	fmt.Fprintln(d.Stdout)
	fmt.Fprintln(d.Stdout, ui.Title("Flashes"))
	if len(flashes) == 0 {
		fmt.Fprintln(d.Stdout, ui.DimStyle.Render("none recorded"))
		return ExitOK
	}
	rows := make([][]string, 0, len(flashes))
	for _, r := range flashes {
		st := status(r.Success)
		if r.Partial {
			st = "partial"
		}
		rows = append(rows, []string{r.Timestamp.Format(time.DateTime), r.Plan, r.Port, st, r.Duration, r.ErrorKind})
	}
	fmt.Fprint(d.Stdout, ui.Table([]string{"TIME", "PLAN", "PORT", "STATUS", "TOOK", "ERROR"}, rows, 60))
	return ExitOK
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
