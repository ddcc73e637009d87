package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/elonfeng/nicheradar/internal/store"
	"github.com/elonfeng/nicheradar/pkg/trend"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Runner triggers one aggregation pass.
type Runner interface {
	Run(ctx context.Context) (*trend.Result, error)
}

// Server provides the HTTP API over the latest stored result.
type Server struct {
	store  store.Store
	runner Runner
	niches []string
	port   int
	log    *log.Logger

	router *chi.Mux
	server *http.Server
}

// New creates a new HTTP server. runner may be nil, in which case the run
// endpoint is unavailable.
func New(s store.Store, runner Runner, niches []string, port int, logger *log.Logger) *Server {
	if port == 0 {
		port = 8080
	}
	if logger == nil {
		logger = log.Default()
	}
	srv := &Server{
		store:  s,
		runner: runner,
		niches: niches,
		port:   port,
		log:    logger,
	}
	srv.router = srv.routes()
	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           srv.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/trends", s.handleTrends)
		r.Get("/result", s.handleResult)
		r.Get("/niches", s.handleNiches)
		r.Post("/run", s.handleRun)
	})
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", s.server.Addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := store.ItemListOpts{Niche: q.Get("niche")}

	if v := q.Get("min_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid min_score")
			return
		}
		opts.MinScore = f
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		opts.Limit = n
	}

	items, err := s.store.ListItems(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  items,
		"count": len(items),
	})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	res, err := s.store.LatestResult(r.Context())
	if errors.Is(err, store.ErrNoResult) {
		writeError(w, http.StatusNotFound, "no run has completed yet")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleNiches(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.CountItemsByNiche(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type nicheInfo struct {
		Name  string `json:"name"`
		Items int    `json:"items"`
	}

	infos := make([]nicheInfo, 0, len(s.niches))
	for _, name := range s.niches {
		infos = append(infos, nicheInfo{Name: name, Items: counts[name]})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  infos,
		"count": len(infos),
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		writeError(w, http.StatusServiceUnavailable, "runs are disabled")
		return
	}

	res, err := s.runner.Run(r.Context())
	if err != nil {
		s.log.Error("triggered run failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":     res.RunID,
		"source":     res.Source,
		"fetched_at": res.FetchedAt,
		"items":      len(res.Items),
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
