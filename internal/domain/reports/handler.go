package reports

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"

	"event-reports/internal/domain/events"
	"event-reports/internal/metrics"
	"event-reports/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

type RouteOptions struct {
	Orchestrator *Orchestrator
	Events       EventSource
	// ExportMaxRows acota la descarga sincrónica (0 = sin tope).
	ExportMaxRows int
	Log           logger.Logger
}

// RegisterRoutes monta /export y sus variantes. Todas pasan por gate.
func RegisterRoutes(r chi.Router, opts RouteOptions, gate func(http.Handler) http.Handler) {
	log := logger.OrNop(opts.Log).With(map[string]any{"component": "export"})

	r.Group(func(r chi.Router) {
		r.Use(gate)

		r.Get("/export", exportCSVHandler(opts.Events, opts.ExportMaxRows, log))
		r.Get("/export/report", reportFormHandler())
		r.Post("/export", submitReportHandler(opts.Orchestrator, log))
		r.Get("/export/jobs/{jobID}", getJobHandler(opts.Orchestrator, log))
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

// exportCSVHandler godoc
// @Summary Exportar eventos (CSV)
// @Description Descarga sincrónica de los eventos en orden de almacenamiento. Filtros opcionales por igualdad.
// @Tags export
// @Produce text/csv
// @Security BasicAuth
// @Param userId query string false "ID de usuario"
// @Param eventType query string false "Tipo de evento"
// @Param name query string false "Nombre del evento"
// @Success 200 {file} file "export.csv"
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {object} errorResponse
// @Router /export [get]
func exportCSVHandler(src EventSource, maxRows int, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, _ := events.BuildFilter(r.URL.Query(), events.FilterOptions{Limit: maxRows})

		stream := EncodeCSV(src.Stream(r.Context(), filter))
		defer stream.Close()

		// Antes de comprometer headers: si el store falla, todavía podemos responder 500.
		if err := stream.Prime(); err != nil {
			log.Error("export query failed", map[string]any{"err": err})
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: unknownError})
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=export.csv")
		w.WriteHeader(http.StatusOK)

		if _, err := io.Copy(w, stream); err != nil {
			log.Error("export stream aborted", map[string]any{"err": err, "rows": stream.Rows()})
		}
		metrics.ExportRows.WithLabelValues("download").Add(float64(stream.Rows()))
	}
}

// reportFormHandler godoc
// @Summary Formulario de reporte
// @Description Página HTML que pide el email al que se enviará el reporte.
// @Tags export
// @Produce html
// @Security BasicAuth
// @Success 200 {string} string "html"
// @Router /export/report [get]
func reportFormHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, _ := events.BuildFilter(r.URL.Query(), events.FilterOptions{})
		writeHTML(w, http.StatusOK, formPage, formView{
			Title:  "Email me a report",
			Filter: toFilterView(filter),
		})
	}
}

// submitReportHandler godoc
// @Summary Solicitar reporte por email
// @Description Valida el email, crea un job y responde sin esperar a que termine.
// @Tags export
// @Accept x-www-form-urlencoded
// @Produce html
// @Security BasicAuth
// @Param email formData string true "Email del destinatario"
// @Param userId formData string false "ID de usuario"
// @Param eventType formData string false "Tipo de evento"
// @Param name formData string false "Nombre del evento"
// @Success 202 {string} string "html con el id del job"
// @Failure 400 {string} string "please enter a valid email address"
// @Failure 503 {string} string "report queue is full"
// @Router /export [post]
func submitReportHandler(o *Orchestrator, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeHTML(w, http.StatusBadRequest, formPage, formView{
				Title:   "Email me a report",
				Message: "bad request",
			})
			return
		}

		email := r.PostForm.Get("email")
		filter, _ := events.BuildFilter(r.Form, events.FilterOptions{})

		job, err := o.Submit(r.Context(), email, filter)
		switch {
		case errors.Is(err, ErrInvalidRecipient):
			writeHTML(w, http.StatusBadRequest, formPage, formView{
				Title:   "Email me a report",
				Email:   email,
				Message: err.Error(),
				Filter:  toFilterView(filter),
			})
			return
		case errors.Is(err, ErrQueueFull):
			w.Header().Set("Retry-After", "30")
			writeHTML(w, http.StatusServiceUnavailable, statusPage, statusView{
				Title:   "Report not accepted",
				Message: "Too many reports are being generated right now. Please try again in a moment.",
				Job:     &job,
			})
			return
		case err != nil:
			log.Error("submit report failed", map[string]any{"err": err})
			writeHTML(w, http.StatusInternalServerError, statusPage, statusView{
				Title:   "Report not accepted",
				Message: unknownError,
			})
			return
		}

		writeHTML(w, http.StatusAccepted, statusPage, statusView{
			Title: "Report requested",
			Job:   &job,
		})
	}
}

// getJobHandler godoc
// @Summary Estado de un reporte
// @Tags export
// @Produce json
// @Security BasicAuth
// @Param jobID path string true "ID del job"
// @Success 200 {object} Job
// @Failure 404 {object} errorResponse
// @Router /export/jobs/{jobID} [get]
func getJobHandler(o *Orchestrator, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := o.Get(r.Context(), chi.URLParam(r, "jobID"))
		if err != nil {
			if errors.Is(err, ErrJobNotFound) {
				writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
				return
			}
			log.Error("get job failed", map[string]any{"err": err})
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: unknownError})
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

// unknownError es el cuerpo de todo 500: el detalle queda solo en el log.
const unknownError = "unknown error"

func toFilterView(f events.Filter) filterView {
	return filterView{UserID: f.UserID, EventType: f.EventType, Name: f.Name}
}

func writeHTML(w http.ResponseWriter, status int, page *template.Template, v any) {
	var buf bytes.Buffer
	if err := renderPage(&buf, page, v); err != nil {
		http.Error(w, "unknown error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
