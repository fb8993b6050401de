package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/buckleypaul/espprov/internal/logging"
	"github.com/buckleypaul/espprov/internal/op"
)

const DefaultTimeout = 30 * time.Second

const (
	tempPattern = ".espprov-*"
	dirPerm     = 0o755
	filePerm    = 0o644
)

// Fetcher downloads artifacts one at a time.
type Fetcher struct {
	Client  *http.Client
	Timeout time.Duration // per artifact; zero means DefaultTimeout
	Log     *zap.Logger
}

// NewFetcher returns a Fetcher with the given per-artifact timeout.
func NewFetcher(timeout time.Duration, log *zap.Logger) *Fetcher {
	return &Fetcher{Client: &http.Client{}, Timeout: timeout, Log: log}
}

// FetchAll fetches every spec in order and returns one result per spec.
// A failed artifact never stops the remaining ones.
func (f *Fetcher) FetchAll(ctx context.Context, specs []Spec, dir string) []op.Result {
	results := make([]op.Result, 0, len(specs))
	for _, s := range specs {
		results = append(results, f.Fetch(ctx, s, dir))
	}
	return results
}

// Fetch downloads spec into dir. The destination file is only replaced once
// the whole body has arrived and, when a hash is configured, verified.
func (f *Fetcher) Fetch(ctx context.Context, spec Spec, dir string) op.Result {
	start := time.Now()
	res := f.fetch(ctx, spec, dir)
	res.Duration = time.Since(start)
	return res
}

func (f *Fetcher) fetch(ctx context.Context, spec Spec, dir string) op.Result {
	log := logging.OrNop(f.Log).With(zap.String("artifact", spec.Name))
	start := time.Now()

	if err := spec.Validate(); err != nil {
		return op.Failed(spec.Name, err)
	}

	dest := spec.Path(dir)
	destDir := filepath.Dir(dest)
	if err := os.MkdirAll(destDir, dirPerm); err != nil {
		return op.Failed(spec.Name, &StorageError{Name: spec.Name, Path: destDir, Err: err})
	}

	log.Debug("downloading", zap.String("url", spec.URL), zap.String("dest", dest))

	tmp, err := os.CreateTemp(destDir, tempPattern)
	if err != nil {
		return op.Failed(spec.Name, &StorageError{Name: spec.Name, Path: destDir, Err: err})
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	n, sum, err := f.download(ctx, spec, tmp)
	if err != nil {
		return op.Failed(spec.Name, err)
	}

	if spec.SHA256 != "" && !strings.EqualFold(spec.SHA256, sum) {
		return op.Failed(spec.Name, &IntegrityError{Name: spec.Name, Expected: strings.ToLower(spec.SHA256), Actual: sum})
	}

	if err := tmp.Sync(); err != nil {
		return op.Failed(spec.Name, &StorageError{Name: spec.Name, Path: tmpPath, Err: err})
	}
	if err := tmp.Close(); err != nil {
		return op.Failed(spec.Name, &StorageError{Name: spec.Name, Path: tmpPath, Err: err})
	}
	_ = os.Chmod(tmpPath, filePerm)
	if err := os.Rename(tmpPath, dest); err != nil {
		return op.Failed(spec.Name, &StorageError{Name: spec.Name, Path: dest, Err: err})
	}
	committed = true

	log.Info("downloaded", zap.Int64("bytes", n), zap.Duration("took", time.Since(start)))
	return op.Succeeded(spec.Name, "%d bytes written to %s", n, dest)
}

// download streams the response body into w and returns the byte count and
// the hex sha256 of what was written.
func (f *Fetcher) download(ctx context.Context, spec Spec, w io.Writer) (int64, string, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.URL, nil)
	if err != nil {
		return 0, "", &NetworkError{Name: spec.Name, URL: spec.URL, Err: err}
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, "", &NetworkError{Name: spec.Name, URL: spec.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, "", &NetworkError{
			Name:       spec.Name,
			URL:        spec.URL,
			StatusCode: resp.StatusCode,
			Err:        errors.New(resp.Status),
		}
	}

	h := sha256.New()
	dst := &recordingWriter{w: io.MultiWriter(w, h)}
	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		if dst.err != nil {
			return n, "", &StorageError{Name: spec.Name, Path: spec.Dest, Err: dst.err}
		}
		return n, "", &NetworkError{Name: spec.Name, URL: spec.URL, Err: err}
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}

// recordingWriter remembers write failures so they can be told apart from
// failures reading the response body.
type recordingWriter struct {
	w   io.Writer
	err error
}

func (r *recordingWriter) Write(p []byte) (int, error) {
	n, err := r.w.Write(p)
	if err != nil {
		r.err = err
	}
	return n, err
}
