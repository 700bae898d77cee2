package events

import (
	"encoding/json"
	"time"
)

// Event es inmutable una vez creado.
type Event struct {
	ID string

	UserID    string
	EventType string
	Name      string

	Info *string
	// Data es JSON arbitrario. nil (o "null") = sin payload.
	Data json.RawMessage

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasData indica si el evento trae payload no nulo.
func (e Event) HasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

// InfoOrEmpty devuelve info o "" si es nil.
func (e Event) InfoOrEmpty() string {
	if e.Info == nil {
		return ""
	}
	return *e.Info
}
