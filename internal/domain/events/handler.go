package events

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"event-reports/internal/metrics"
	"event-reports/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /events. El listado pasa por gate (auth); la ingesta es abierta.
func RegisterRoutes(r chi.Router, svc *Service, gate func(http.Handler) http.Handler, log logger.Logger) {
	log = logger.OrNop(log).With(map[string]any{"component": "events"})

	r.Post("/events", createEventHandler(svc, log))
	r.With(gate).Get("/events", listEventsHandler(svc, log))
}

// createEventRequest es el cuerpo para registrar un evento.
type createEventRequest struct {
	UserID    string          `json:"userId"`
	EventType string          `json:"eventType"`
	Name      string          `json:"name"`
	Info      *string         `json:"info"`
	Data      json.RawMessage `json:"data" swaggertype:"object"`
}

// eventResponse representa un evento devuelto por la API.
type eventResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	EventType string          `json:"eventType"`
	Name      string          `json:"name"`
	Info      *string         `json:"info"`
	Data      json.RawMessage `json:"data" swaggertype:"object"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// createEventHandler godoc
// @Summary Registrar evento
// @Description Registra un evento de aplicación. userId, eventType y name son obligatorios; info y data son opcionales.
// @Tags events
// @Accept json
// @Produce json
// @Param payload body createEventRequest true "Evento"
// @Success 201 {object} eventResponse
// @Failure 400 {object} messageResponse "bad request"
// @Failure 500 {object} messageResponse "unknown error"
// @Router /events [post]
func createEventHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: "bad request"})
			return
		}

		e, err := svc.Create(r.Context(), CreateInput{
			UserID:    req.UserID,
			EventType: req.EventType,
			Name:      req.Name,
			Info:      req.Info,
			Data:      req.Data,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				writeJSON(w, http.StatusBadRequest, messageResponse{Message: "bad request"})
				return
			}
			log.Error("insert event failed", map[string]any{"err": err})
			writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "unknown error"})
			return
		}

		metrics.EventsIngested.WithLabelValues(e.EventType).Inc()
		writeJSON(w, http.StatusCreated, toEventResponse(e))
	}
}

// listEventsHandler godoc
// @Summary Listar eventos
// @Description Lista eventos por igualdad. userId es obligatorio; eventType y name son opcionales. Otros parámetros se ignoran. Requiere basic auth.
// @Tags events
// @Produce json
// @Security BasicAuth
// @Param userId query string true "ID de usuario"
// @Param eventType query string false "Tipo de evento"
// @Param name query string false "Nombre del evento"
// @Success 200 {array} eventResponse
// @Failure 400 {object} errorResponse "must include userId query parameter"
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {object} errorResponse "detalle del error de persistencia"
// @Router /events [get]
func listEventsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := BuildFilter(r.URL.Query(), FilterOptions{RequireUser: true})
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		items, err := svc.List(r.Context(), filter)
		if err != nil {
			log.Error("find events failed", map[string]any{"err": err, "user_id": filter.UserID})
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}

		out := make([]eventResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEventResponse(e))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func toEventResponse(e Event) eventResponse {
	data := e.Data
	if !e.HasData() {
		data = nil
	}
	return eventResponse{
		ID:        e.ID,
		UserID:    e.UserID,
		EventType: e.EventType,
		Name:      e.Name,
		Info:      e.Info,
		Data:      data,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
