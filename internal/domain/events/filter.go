package events

import (
	"errors"
	"net/url"
	"strings"
)

var ErrUserIDRequired = errors.New("must include userId query parameter")

// Claves de query reconocidas. Cualquier otra se ignora.
const (
	ParamUserID    = "userId"
	ParamEventType = "eventType"
	ParamName      = "name"
)

// Filter es un conjunto de igualdades sobre atributos del evento.
// Campo vacío = sin restricción. Limit <= 0 = sin tope.
type Filter struct {
	UserID    string `json:"userId,omitempty"`
	EventType string `json:"eventType,omitempty"`
	Name      string `json:"name,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type FilterOptions struct {
	// RequireUser: el listado exige userId.
	RequireUser bool
	// Limit: tope de filas para export/reportes (0 = sin tope).
	Limit int
}

// BuildFilter arma el filtro de persistencia a partir de los parámetros del request.
func BuildFilter(params url.Values, opts FilterOptions) (Filter, error) {
	f := Filter{
		UserID:    strings.TrimSpace(params.Get(ParamUserID)),
		EventType: strings.TrimSpace(params.Get(ParamEventType)),
		Name:      strings.TrimSpace(params.Get(ParamName)),
	}

	if opts.RequireUser && f.UserID == "" {
		return Filter{}, ErrUserIDRequired
	}

	if opts.Limit > 0 {
		f.Limit = opts.Limit
	}
	return f, nil
}

// Matches aplica las igualdades del filtro (no el límite).
func (f Filter) Matches(e Event) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	if f.Name != "" && e.Name != f.Name {
		return false
	}
	return true
}

// IsEmpty: sin igualdades = "todos los eventos".
func (f Filter) IsEmpty() bool {
	return f.UserID == "" && f.EventType == "" && f.Name == ""
}

// Capped devuelve una copia con el tope aplicado; nunca amplía un límite más estricto.
func (f Filter) Capped(max int) Filter {
	if max <= 0 {
		return f
	}
	if f.Limit <= 0 || f.Limit > max {
		f.Limit = max
	}
	return f
}
