package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"strings"

	"event-reports/internal/domain/events"
)

type EventsRepo struct {
	db *sql.DB
}

func NewEventsRepo(db *sql.DB) *EventsRepo {
	return &EventsRepo{db: db}
}

func (r *EventsRepo) Insert(ctx context.Context, e events.Event) error {
	var data any
	if e.HasData() {
		data = string(e.Data)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (
			id, user_id, event_type, name,
			info, data,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		e.ID,
		e.UserID,
		e.EventType,
		e.Name,
		e.Info,
		data,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *EventsRepo) Find(ctx context.Context, filter events.Filter) ([]events.Event, error) {
	out := make([]events.Event, 0)
	for e, err := range r.Stream(ctx, filter) {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Stream itera las filas del cursor; nunca carga el resultado completo.
func (r *EventsRepo) Stream(ctx context.Context, filter events.Filter) iter.Seq2[events.Event, error] {
	return func(yield func(events.Event, error) bool) {
		query, args := buildFindQuery(filter)

		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(events.Event{}, fmt.Errorf("find events: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanEvent(rows)
			if err != nil {
				yield(events.Event{}, fmt.Errorf("scan event: %w", err))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(events.Event{}, fmt.Errorf("iterate events: %w", err))
		}
	}
}

func buildFindQuery(filter events.Filter) (string, []any) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT id, user_id, event_type, name, info, data, created_at, updated_at FROM events`)

	var (
		conds []string
		args  []any
	)
	add := func(col, v string) {
		if v == "" {
			return
		}
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("user_id", filter.UserID)
	add("event_type", filter.EventType)
	add("name", filter.Name)

	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	// orden de almacenamiento: seq es monotónico por insert, created_at puede empatar
	sb.WriteString(" ORDER BY seq ASC")

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}

	return sb.String(), args
}

func scanEvent(rows *sql.Rows) (events.Event, error) {
	var (
		e    events.Event
		info sql.NullString
		data []byte
	)
	if err := rows.Scan(
		&e.ID,
		&e.UserID,
		&e.EventType,
		&e.Name,
		&info,
		&data,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return events.Event{}, err
	}

	if info.Valid {
		s := info.String
		e.Info = &s
	}
	if len(data) > 0 {
		e.Data = append([]byte(nil), data...)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}
