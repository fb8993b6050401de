package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/buckleypaul/espprov/internal/artifact"
	"github.com/buckleypaul/espprov/internal/op"
	"github.com/buckleypaul/espprov/internal/store"
	"github.com/buckleypaul/espprov/internal/ui"
)

func runDownloadAll(ctx context.Context, d *Deps, args []string) int {
	fs := newFlagSet(d, "download-all")
	baseDir := fs.String("base-dir", d.Config.BaseDir, "base directory; artifacts go to <base-dir>/"+d.Config.Product)
	timeout := fs.Duration("timeout", time.Duration(d.Config.DownloadTimeout), "per-artifact download timeout")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	cfg, err := commandConfig(d, *baseDir)
	if err != nil {
		return configFailure(d, err)
	}
	if !flagGiven(fs, "timeout") {
		*timeout = time.Duration(cfg.DownloadTimeout)
	}
	dir := cfg.ArtifactDir()
	specs := manifest(cfg)

	fetcher := artifact.NewFetcher(*timeout, d.Log)
	if d.HTTPClient != nil {
		fetcher.Client = d.HTTPClient
	}
	fmt.Fprintln(d.Stdout, ui.Title(fmt.Sprintf("Downloading %d artifacts to %s", len(specs), dir)))

	results := fetcher.FetchAll(ctx, specs, dir)

	hist := historyStore(cfg)
	var failed *multierror.Error
	for i, r := range results {
		fmt.Fprintln(d.Stdout, ui.ResultLine(r.OK(), r.Name, r.Message))

		rec := store.DownloadRecord{
			Artifact:  r.Name,
			URL:       specs[i].URL,
			Timestamp: time.Now(),
			Success:   r.OK(),
			Duration:  r.Duration.Round(time.Millisecond).String(),
		}
		if !r.OK() {
			rec.Error = r.Message
			failed = multierror.Append(failed, r.Err)
		}
		if err := hist.AddDownload(rec); err != nil {
			d.Log.Warn("could not record download", zap.Error(err))
		}
	}

	if op.AnyFailed(results) {
		if ctx.Err() != nil {
			fmt.Fprintln(d.Stderr, ui.WarningStyle.Render("Interrupted; unfinished artifacts were not written."))
		}
		d.Log.Debug("download failures", zap.Error(failed.ErrorOrNil()))
		fmt.Fprintf(d.Stderr, "%d of %d artifacts failed to download\n", len(failed.Errors), len(specs))
		return ExitDownloadFailed
	}
	fmt.Fprintf(d.Stdout, "\nAll artifacts downloaded. Check %s\n", dir)
	return ExitOK
}
