package archive

import (
	"context"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
)

// Publisher hace alcanzable un archive ya escrito en disco y devuelve su URL.
type Publisher interface {
	Publish(ctx context.Context, name, path string) (string, error)
	Remove(ctx context.Context, name string) error
}

// LocalPublisher sirve los archives desde el propio server bajo /reports/.
type LocalPublisher struct {
	BaseURL string
}

func NewLocalPublisher(baseURL string) *LocalPublisher {
	return &LocalPublisher{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (p *LocalPublisher) Publish(_ context.Context, name, _ string) (string, error) {
	return p.BaseURL + "/reports/" + url.PathEscape(name), nil
}

// Remove no hace nada: el archivo local lo borra el Archiver.
func (p *LocalPublisher) Remove(context.Context, string) error { return nil }

// IsArchiveName acepta solo nombres planos terminados en .zip.
func IsArchiveName(name string) bool {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return strings.HasSuffix(name, ".zip")
}

// FileHandler sirve archives publicados desde dir. name viene de la ruta.
func FileHandler(dir string, name func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file := name(r)
		if !IsArchiveName(file) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", "attachment; filename="+file)
		http.ServeFile(w, r, filepath.Join(dir, file))
	}
}
