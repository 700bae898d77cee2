package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"event-reports/internal/metrics"
	"event-reports/internal/platform/logger"
)

// Sweeper borra del directorio de publicación los archives más viejos que la retención.
type Sweeper struct {
	dir       string
	retention time.Duration
	interval  time.Duration
	log       logger.Logger
	now       func() time.Time
}

func NewSweeper(dir string, retention time.Duration, log logger.Logger) *Sweeper {
	interval := retention / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	if interval > time.Hour {
		interval = time.Hour
	}
	return &Sweeper{
		dir:       dir,
		retention: retention,
		interval:  interval,
		log:       logger.OrNop(log).With(map[string]any{"component": "sweeper"}),
		now:       time.Now,
	}
}

// Run barre periódicamente hasta que ctx termine. Con retención 0 solo espera.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.retention <= 0 {
		<-ctx.Done()
		return nil
	}

	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		if _, err := s.Sweep(); err != nil {
			s.log.Warn("sweep failed", map[string]any{"err": err})
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// Sweep hace una pasada y devuelve cuántos archivos borró.
// También limpia .part huérfanos de compresiones interrumpidas.
func (s *Sweeper) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := s.now().Add(-s.retention)
	removed := 0
	var errs []error

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ".zip") || strings.HasSuffix(name, ".zip.part")) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		metrics.ArchivesSwept.Add(float64(removed))
		s.log.Info("expired archives removed", map[string]any{"count": removed})
	}
	return removed, errors.Join(errs...)
}
