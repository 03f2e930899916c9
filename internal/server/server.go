// Package server exposes the analytics pipeline over HTTP for the
// external UI: ask a question, run edited SQL, browse the schema, and
// manage saved chart modules.
//
// The server is the caller that owns schema caching: the core rebuilds
// the description wholesale on demand, and invalidation is explicit via
// the refresh endpoint. It also owns the query history — the core
// components keep no state between requests.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/querysight/querysight/internal/catalog"
	"github.com/querysight/querysight/internal/genai"
	"github.com/querysight/querysight/internal/logger"
	"github.com/querysight/querysight/internal/modules"
	"github.com/querysight/querysight/internal/pipeline"
	"github.com/querysight/querysight/internal/store"
)

const historyLimit = 50

// HistoryEntry is one line of the recent-query log kept for the UI.
type HistoryEntry struct {
	Question string    `json:"question,omitempty"`
	SQL      string    `json:"sql"`
	Status   string    `json:"status"`
	RowCount int       `json:"row_count"`
	At       time.Time `json:"at"`
}

// Server holds the pipeline, the schema cache, and the delivery-layer state.
type Server struct {
	pipe       *pipeline.Pipeline
	cat        *catalog.Catalog
	mods       modules.Store // nil when the module store is disabled
	schemaName string
	log        *logger.Logger

	mu      sync.Mutex
	schema  *catalog.SchemaDescription
	history []HistoryEntry
}

// New builds a Server over the given store and generation client.
// mods may be nil; the module endpoints are not mounted without it.
func New(st store.Store, gen genai.Client, mods modules.Store, schemaName string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.New(nil)
	}
	return &Server{
		pipe:       pipeline.New(st, gen, log),
		cat:        catalog.New(st, log),
		mods:       mods,
		schemaName: schemaName,
		log:        log,
	}
}

// Router mounts all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(s.log))
	r.Use(chimw.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/ask", s.handleAsk)
		r.Post("/query", s.handleQuery)
		r.Get("/schema", s.handleSchema)
		r.Post("/schema/refresh", s.handleSchemaRefresh)
		r.Get("/history", s.handleHistory)

		if s.mods != nil {
			r.Post("/modules", s.handleModuleSave)
			r.Get("/modules", s.handleModuleList)
			r.Get("/modules/{id}", s.handleModuleGet)
			r.Delete("/modules/{id}", s.handleModuleDelete)
		}
	})

	return r
}

// describe returns the cached schema description, building it on first
// use. force rebuilds unconditionally. The mutex serializes rebuilds so
// only one catalog pass runs at a time.
func (s *Server) describe(ctx context.Context, force bool) (*catalog.SchemaDescription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schema != nil && !force {
		return s.schema, nil
	}

	desc, err := s.cat.Describe(ctx, s.schemaName)
	if err != nil {
		return nil, err
	}
	s.schema = desc
	return desc, nil
}

// record appends a history entry, keeping the newest historyLimit entries.
func (s *Server) record(e HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, e)
	if len(s.history) > historyLimit {
		s.history = s.history[len(s.history)-historyLimit:]
	}
}
