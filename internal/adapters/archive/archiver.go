package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"event-reports/internal/domain/reports"
	"event-reports/internal/platform/logger"

	"github.com/klauspost/compress/zip"
)

var ErrArchive = errors.New("archive failed")

// keyLayout: UTC con nanosegundos, ordenable lexicográficamente.
const keyLayout = "20060102T150405.000000000"

// ArtifactKey arma el nombre base del artefacto de un job.
func ArtifactKey(at time.Time, jobID string) string {
	return "report-" + at.UTC().Format(keyLayout) + "-" + jobID
}

type Options struct {
	ScratchDir string
	PublishDir string
	Publisher  Publisher
	Log        logger.Logger
}

// Archiver escribe el CSV en scratch, lo comprime a un zip de una sola
// entrada en el directorio de publicación y lo entrega al Publisher.
type Archiver struct {
	scratchDir string
	publishDir string
	publisher  Publisher
	log        logger.Logger
	now        func() time.Time
}

var _ reports.Archiver = (*Archiver)(nil)

func New(opts Options) (*Archiver, error) {
	if opts.ScratchDir == "" || opts.PublishDir == "" {
		return nil, errors.New("archive: scratch and publish dirs are required")
	}
	if opts.Publisher == nil {
		return nil, errors.New("archive: publisher is required")
	}
	for _, dir := range []string{opts.ScratchDir, opts.PublishDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("archive: create %s: %w", dir, err)
		}
	}

	return &Archiver{
		scratchDir: opts.ScratchDir,
		publishDir: opts.PublishDir,
		publisher:  opts.Publisher,
		log:        logger.OrNop(opts.Log).With(map[string]any{"component": "archiver"}),
		now:        time.Now,
	}, nil
}

func (a *Archiver) Archive(ctx context.Context, jobID string, r io.Reader) (reports.Archive, error) {
	key := ArtifactKey(a.now(), jobID)
	csvName := key + ".csv"
	csvPath := filepath.Join(a.scratchDir, csvName)

	if err := writeArtifact(ctx, csvPath, r); err != nil {
		_ = os.Remove(csvPath)
		return reports.Archive{}, fmt.Errorf("%w: write %s: %w", ErrArchive, csvName, err)
	}

	zipName := key + ".zip"
	zipPath := filepath.Join(a.publishDir, zipName)
	size, err := compress(ctx, csvPath, zipPath, csvName, a.now())

	if rerr := os.Remove(csvPath); rerr != nil {
		a.log.Warn("remove scratch artifact failed", map[string]any{"err": rerr, "path": csvPath})
	}
	if err != nil {
		return reports.Archive{}, fmt.Errorf("%w: compress %s: %w", ErrArchive, zipName, err)
	}

	url, err := a.publisher.Publish(ctx, zipName, zipPath)
	if err != nil {
		_ = os.Remove(zipPath)
		return reports.Archive{}, fmt.Errorf("%w: publish %s: %w", ErrArchive, zipName, err)
	}

	a.log.Debug("archive published", map[string]any{"archive": zipName, "bytes": size})
	return reports.Archive{Name: zipName, Path: zipPath, URL: url, Size: size}, nil
}

// Discard retira el archive del publisher y del disco local.
func (a *Archiver) Discard(ctx context.Context, arch reports.Archive) error {
	var errs []error
	if err := a.publisher.Remove(ctx, arch.Name); err != nil {
		errs = append(errs, err)
	}
	if arch.Path != "" {
		if err := os.Remove(arch.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// writeArtifact crea path en exclusiva y vuelca r. La escritura termina cuando
// Sync y Close devuelven; no hay espera arbitraria.
func writeArtifact(ctx context.Context, path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: r}); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// compress escribe un zip con una sola entrada. Se arma en <dst>.part y se
// renombra al final: nunca queda un zip parcial con el nombre publicado.
func compress(ctx context.Context, src, dst, entry string, modified time.Time) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	part := dst + ".part"
	out, err := os.OpenFile(part, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err
	}

	fail := func(err error) (int64, error) {
		_ = out.Close()
		_ = os.Remove(part)
		return 0, err
	}

	zw := zip.NewWriter(out)
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     entry,
		Method:   zip.Deflate,
		Modified: modified.UTC(),
	})
	if err != nil {
		return fail(err)
	}
	if _, err := io.Copy(w, &ctxReader{ctx: ctx, r: in}); err != nil {
		return fail(err)
	}
	if err := zw.Close(); err != nil {
		return fail(err)
	}
	if err := out.Sync(); err != nil {
		return fail(err)
	}
	info, err := out.Stat()
	if err != nil {
		return fail(err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(part)
		return 0, err
	}

	if _, err := os.Stat(dst); err == nil {
		_ = os.Remove(part)
		return 0, fmt.Errorf("%s already exists", filepath.Base(dst))
	}
	if err := os.Rename(part, dst); err != nil {
		_ = os.Remove(part)
		return 0, err
	}
	return info.Size(), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
