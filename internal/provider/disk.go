// Package provider contains upload routines the embedding application hands
// to upload.Options.OnUpload: a local disk writer, and a Postgres catalog
// that records what was stored.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/fileupload/internal/upload"
)

// Disk writes each file of a batch into a directory, reporting progress as
// bytes are copied. Files are written in parallel, bounded by a Limiter
// that may be shared with other Disk instances.
type Disk struct {
	dir     string
	limiter *Limiter
	timeout time.Duration
	logger  *slog.Logger
}

// DiskOption customizes a Disk.
type DiskOption func(*Disk)

// WithTimeout bounds how long a single file may take.
func WithTimeout(d time.Duration) DiskOption {
	return func(disk *Disk) { disk.timeout = d }
}

// WithLogger sets the logger for per-file failures.
func WithLogger(l *slog.Logger) DiskOption {
	return func(disk *Disk) { disk.logger = l }
}

// NewDisk creates a writer for dir. limiter may be nil for no bound.
func NewDisk(dir string, limiter *Limiter, opts ...DiskOption) *Disk {
	d := &Disk{
		dir:     dir,
		limiter: limiter,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dir returns the target directory.
func (d *Disk) Dir() string { return d.dir }

// Path is where f is (or will be) stored.
func (d *Disk) Path(f *upload.File) string {
	return filepath.Join(d.dir, string(f.ID)+f.Extension())
}

// Upload implements upload.UploadFunc. A failure to prepare the directory
// or a cancelled context fails the batch; anything else fails only the file
// it happened to.
func (d *Disk) Upload(ctx context.Context, files []*upload.File, cb upload.Callbacks) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("prepare upload dir: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(func() error {
			err := d.write(gctx, f, cb)
			switch {
			case err == nil:
				cb.OnSuccess(f)
				return nil
			case errors.Is(err, context.Canceled):
				return err
			default:
				d.logger.Warn("file upload failed", "file", f.Name, "id", f.ID, "error", err)
				cb.OnError(f, err)
				return nil
			}
		})
	}
	return g.Wait()
}

func (d *Disk) write(ctx context.Context, f *upload.File, cb upload.Callbacks) error {
	if d.limiter != nil {
		if err := d.limiter.Acquire(ctx); err != nil {
			return err
		}
		defer d.limiter.Release()
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer src.Close()

	path := d.Path(f)
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	r := &progressReader{
		ctx:    ctx,
		r:      src,
		total:  f.Size,
		report: func(p float64) { cb.OnProgress(f, p) },
	}
	if _, err = io.Copy(dst, r); err == nil {
		err = dst.Close()
	} else {
		dst.Close()
	}
	if err != nil {
		os.Remove(path)
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("write %s: timed out", f.Name)
		}
		return err
	}
	return nil
}

// progressReader reports the percentage read so far and stops on ctx.
type progressReader struct {
	ctx    context.Context
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 {
		pct := int(p.read * 100 / p.total)
		if pct != p.last {
			p.last = pct
			p.report(float64(pct))
		}
	}
	return n, err
}
