package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/esglens/internal/classify"
	"github.com/dgallion1/esglens/internal/config"
	"github.com/dgallion1/esglens/internal/llm"
	"github.com/dgallion1/esglens/internal/pipeline"
	"github.com/dgallion1/esglens/internal/uploads"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators the HTTP layer drives.
type Deps struct {
	Analyzer *pipeline.Analyzer
	Definer  *classify.Definer
	Uploads  *uploads.Store
	Stats    *llm.Stats // nil when no model is configured
	Model    string
}

// Server is the HTTP API server for esglens.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(CORS)

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/define-initiative/", s.handleDefine)
	r.Handle(uploads.URLPrefix+"*",
		http.StripPrefix(uploads.URLPrefix, http.FileServer(http.Dir(s.deps.Uploads.Dir()))))

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/upload-pdf/", s.handleUpload)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"strategy": s.deps.Analyzer.Strategy(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
