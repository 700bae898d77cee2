package events

import (
	"context"
	"iter"
)

// Repository es el EventStore. Las implementaciones deben ser seguras para uso concurrente
// y devolver los eventos en orden de almacenamiento (created_at asc).
type Repository interface {
	Insert(ctx context.Context, e Event) error
	Find(ctx context.Context, filter Filter) ([]Event, error)

	// Stream recorre los eventos sin materializarlos todos en memoria.
	// El primer error corta la secuencia.
	Stream(ctx context.Context, filter Filter) iter.Seq2[Event, error]
}
