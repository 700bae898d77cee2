package router

import (
	"net/http"

	_ "event-reports/docs"

	"event-reports/internal/adapters/archive"
	"event-reports/internal/adapters/auth/static"
	mem "event-reports/internal/adapters/storage/memory"
	"event-reports/internal/domain/events"
	"event-reports/internal/domain/reports"
	"event-reports/internal/middleware"
	"event-reports/internal/platform/logger"
	"event-reports/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

const authRealm = "event-reports"

type Options struct {
	// Opcional: si no viene, usa el store in-memory.
	Events events.Repository

	// Reports puede ser nil: sin orquestador no se monta /export.
	Reports       *reports.Orchestrator
	ReportsDir    string
	ExportMaxRows int

	// Verifier protege GET /events y /export. Si es nil, todo request autenticado se rechaza.
	Verifier auth.Verifier

	Log logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := logger.OrNop(opts.Log)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hello!"))
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	eventRepo := opts.Events
	if eventRepo == nil {
		eventRepo = mem.NewEventRepo()
	}

	verifier := opts.Verifier
	if verifier == nil {
		verifier = static.NewVerifier(nil)
	}
	gate := middleware.BasicAuth(authRealm, verifier, log)

	// Services por módulo
	eventsSvc := events.NewService(eventRepo)

	// Rutas por módulo
	events.RegisterRoutes(r, eventsSvc, gate, log)

	if opts.Reports != nil {
		reports.RegisterRoutes(r, reports.RouteOptions{
			Orchestrator:  opts.Reports,
			Events:        eventsSvc,
			ExportMaxRows: opts.ExportMaxRows,
			Log:           log,
		}, gate)
	}

	if opts.ReportsDir != "" {
		r.Get("/reports/{file}", archive.FileHandler(opts.ReportsDir, func(r *http.Request) string {
			return chi.URLParam(r, "file")
		}))
	}

	return r
}
