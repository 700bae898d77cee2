package reports

import (
	"context"
	"io"
	"iter"

	"event-reports/internal/domain/events"
)

// EventSource es la parte del EventStore que usa el pipeline.
type EventSource interface {
	Stream(ctx context.Context, filter events.Filter) iter.Seq2[events.Event, error]
}

// Archive es el paquete comprimido ya publicado.
type Archive struct {
	Name string
	// Path local del .zip (puede quedar vacío si el publisher no conserva copia local).
	Path string
	URL  string
	Size int64
}

// Archiver persiste el stream CSV como artefacto y lo publica comprimido.
type Archiver interface {
	Archive(ctx context.Context, jobID string, r io.Reader) (Archive, error)
	// Discard retira un archive publicado que nunca llegó al destinatario.
	Discard(ctx context.Context, a Archive) error
}

// Notifier entrega el link del archive al destinatario.
type Notifier interface {
	Notify(ctx context.Context, recipient, archiveURL string) error
}

// JobStore guarda snapshots de jobs. Solo el Orchestrator escribe.
type JobStore interface {
	Save(ctx context.Context, job Job) error
	Get(ctx context.Context, id string) (Job, error)
}
