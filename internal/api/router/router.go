package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/formscore/formscore/internal/http/handlers"
	httpmiddleware "github.com/formscore/formscore/internal/http/middleware"
	"github.com/formscore/formscore/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	FormsHandler       *handlers.FormsHandler
	StateHandler       *handlers.StateHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/forms", func(r chi.Router) {
		r.Get("/", cfg.FormsHandler.ListForms)
		r.Post("/", cfg.FormsHandler.RegisterForm)

		r.Route("/{formID}", func(r chi.Router) {
			r.Get("/", cfg.FormsHandler.GetForm)
			r.Post("/visibility", cfg.FormsHandler.Visibility)
			r.Post("/validate", cfg.FormsHandler.Validate)
			r.Post("/score", cfg.FormsHandler.Score)

			if cfg.StateHandler != nil {
				r.Put("/state", cfg.StateHandler.SaveState)
				r.Get("/state", cfg.StateHandler.LoadState)
				r.Delete("/state", cfg.StateHandler.ClearState)

				r.Route("/drafts", func(r chi.Router) {
					r.Post("/", cfg.StateHandler.SaveDraft)
					r.Get("/", cfg.StateHandler.ListDrafts)
					r.Get("/{draftID}", cfg.StateHandler.LoadDraft)
					r.Delete("/{draftID}", cfg.StateHandler.DeleteDraft)
					r.Patch("/{draftID}", cfg.StateHandler.RenameDraft)
				})

				r.Get("/export", cfg.StateHandler.ExportState)
				r.Post("/import", cfg.StateHandler.ImportState)
			}
		})
	})

	if cfg.StateHandler != nil {
		r.Get("/storage/info", cfg.StateHandler.StorageInfo)
		r.Delete("/storage", cfg.StateHandler.ClearStorage)
	}

	return r
}
