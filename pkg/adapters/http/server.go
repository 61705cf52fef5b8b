package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/cohort/internal/logging"
	"github.com/aretw0/cohort/internal/presentation/graph"
	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/module"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Catalog is the read side of the module registry.
type Catalog interface {
	Module(key string) (*module.Module, error)
	Modules() []*module.Module
	Names() []string
}

// Snapshots is the read side of a snapshot store.
type Snapshots interface {
	Load(ctx context.Context, personID string) (domain.Snapshot, error)
	List(ctx context.Context) ([]string, error)
}

// Server serves the module catalog and stored person snapshots.
type Server struct {
	Catalog   Catalog
	Snapshots Snapshots
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithSnapshots enables the /persons endpoints.
func WithSnapshots(s Snapshots) Option {
	return func(srv *Server) {
		srv.Snapshots = s
	}
}

// WithMetrics serves g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(srv *Server) {
		srv.gatherer = g
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) {
		srv.logger = logger
	}
}

// NewHandler creates the HTTP handler for catalog.
func NewHandler(catalog Catalog, opts ...Option) http.Handler {
	s := &Server{Catalog: catalog, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/modules", s.ListModules)
	r.Get("/modules/names", s.ListNames)
	r.Get("/modules/*", s.GetModule)
	r.Get("/graph/*", s.GetGraph)
	if s.Snapshots != nil {
		r.Get("/persons", s.ListPersons)
		r.Get("/persons/{id}", s.GetPerson)
	}
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ModuleSummary is one entry of GET /modules.
type ModuleSummary struct {
	Key     string   `json:"key"`
	Name    string   `json:"name"`
	Remarks []string `json:"remarks,omitempty"`
	States  int      `json:"states"`
}

// StateView describes one state template.
type StateView struct {
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Transitions []string `json:"transitions,omitempty"`
}

// ModuleDetail is the body of GET /modules/{key}.
type ModuleDetail struct {
	Key       string      `json:"key"`
	Name      string      `json:"name"`
	Submodule bool        `json:"submodule"`
	Remarks   []string    `json:"remarks,omitempty"`
	States    []StateView `json:"states"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListModules handles GET /modules: top-level modules only.
func (s *Server) ListModules(w http.ResponseWriter, r *http.Request) {
	mods := s.Catalog.Modules()
	out := make([]ModuleSummary, 0, len(mods))
	for _, m := range mods {
		out = append(out, ModuleSummary{
			Key:     m.Key(),
			Name:    m.Name(),
			Remarks: m.Remarks(),
			States:  len(m.StateNames()),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// ListNames handles GET /modules/names: every key, submodules included.
func (s *Server) ListNames(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Catalog.Names())
}

// GetModule handles GET /modules/{key...}.
func (s *Server) GetModule(w http.ResponseWriter, r *http.Request) {
	m, err := s.Catalog.Module(chi.URLParam(r, "*"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	detail := ModuleDetail{
		Key:       m.Key(),
		Name:      m.Name(),
		Submodule: m.Submodule(),
		Remarks:   m.Remarks(),
	}
	for _, name := range m.StateNames() {
		tmpl, _ := m.State(name)
		detail.States = append(detail.States, StateView{
			Name:        name,
			Kind:        string(tmpl.Kind()),
			Transitions: tmpl.Targets(),
		})
	}
	s.writeJSON(w, http.StatusOK, detail)
}

// GetGraph handles GET /graph/{key...}. With ?person=<id> the person's
// trail in that module is highlighted.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	m, err := s.Catalog.Module(chi.URLParam(r, "*"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var overlay *graph.Overlay
	if id := r.URL.Query().Get("person"); id != "" && s.Snapshots != nil {
		snap, err := s.Snapshots.Load(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if ms, ok := snap.Modules[m.Name()]; ok {
			overlay = graph.OverlayFrom(ms)
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(graph.GenerateMermaid(m, overlay))); err != nil {
		s.logger.Error("GetGraph response write failed", "err", err)
	}
}

// ListPersons handles GET /persons.
func (s *Server) ListPersons(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Snapshots.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetPerson handles GET /persons/{id}.
func (s *Server) GetPerson(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Snapshots.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrModuleNotFound), errors.Is(err, domain.ErrSnapshotNotFound):
		status = http.StatusNotFound
	default:
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
