// pkg/api/server.go

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/disk_safety"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_err"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/sanitize"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/sysinfo"
	"github.com/gorilla/mux"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Sanitize requests are rate limited per server; each one may start a
// multi-minute overwrite.
const (
	SanitizePerMinute = 30
	SanitizeBurst     = 5
)

// History is the part of the journal the API exposes.
type History interface {
	ListArchived() ([]*disk_safety.JournalEntry, error)
	ListActive() ([]*disk_safety.JournalEntry, error)
	Load(id string) (*disk_safety.JournalEntry, error)
}

// Server exposes the sanitizer to a local frontend over HTTP.
type Server struct {
	svc     *sanitize.Service
	history History
	tasks   *taskStore
	router  *mux.Router
	limiter *rate.Limiter

	hostsMu sync.RWMutex
	hosts   map[string]struct{}
}

// NewServer wires the routes. history may be nil when journaling is off.
func NewServer(svc *sanitize.Service, history History) *Server {
	s := &Server{
		svc:     svc,
		history: history,
		tasks:   newTaskStore(),
		limiter: rate.NewLimiter(rate.Every(time.Minute/SanitizePerMinute), SanitizeBurst),
		hosts:   make(map[string]struct{}),
	}
	for _, h := range loopbackHosts {
		s.hosts[h] = struct{}{}
	}

	router := mux.NewRouter()
	router.Use(s.guard)
	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/volumes", s.handle("volumes", s.volumes)).Methods(http.MethodGet)
	v1.HandleFunc("/safety", s.handle("safety", s.safety)).Methods(http.MethodGet).Queries("id", "{id}")
	v1.HandleFunc("/sanitize", s.handle("sanitize", s.sanitize)).Methods(http.MethodPost)
	v1.HandleFunc("/tasks/{id}", s.handle("task", s.task)).Methods(http.MethodGet)
	v1.HandleFunc("/history", s.handle("history", s.listHistory)).Methods(http.MethodGet)
	v1.HandleFunc("/history/{id}", s.handle("history.entry", s.historyEntry)).Methods(http.MethodGet)
	v1.HandleFunc("/probe", s.handle("probe", s.probe)).Methods(http.MethodGet)
	v1.HandleFunc("/specs", s.handle("specs", s.specs)).Methods(http.MethodGet)
	s.router = router

	return s
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled. Requests must name
// addr's host, or a loopback name, in their Host header.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	logger := otelzap.Ctx(ctx)
	s.allowHost(addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type handlerFunc func(rc *eos_io.RuntimeContext, r *http.Request) (int, any, error)

// handle gives every request its own runtime context and renders the
// result or error as JSON.
func (s *Server) handle(name string, fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		rc := eos_io.NewContext(r.Context(), "api."+name)
		defer rc.End(&err)
		defer func() {
			if p := recover(); p != nil {
				err = eos_err.NewPanicError(p)
				rc.Log.Error("Panic recovered", zap.Any("panic", p))
				writeJSON(w, http.StatusInternalServerError, ErrorBody{Kind: "internal", Error: err.Error()})
			}
		}()

		status, body, err := fn(rc, r)
		if err != nil {
			code, kind := statusFor(err)
			rc.Log.Debug("Request failed", zap.Int("status", code), zap.String("kind", kind), zap.Error(err))
			writeJSON(w, code, ErrorBody{Kind: kind, Error: err.Error()})
			return
		}
		writeJSON(w, status, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) volumes(rc *eos_io.RuntimeContext, _ *http.Request) (int, any, error) {
	vols, err := s.svc.Volumes(rc)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, vols, nil
}

type safetyResponse struct {
	Identifier string `json:"identifier"`
	Safe       bool   `json:"safe"`
}

func (s *Server) safety(rc *eos_io.RuntimeContext, r *http.Request) (int, any, error) {
	id := mux.Vars(r)["id"]
	safe, err := s.svc.CheckSafety(rc, id)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, safetyResponse{Identifier: id, Safe: safe}, nil
}

// sanitize starts a background run and answers 202 with a task to poll.
// With ?wait=true it answers once the run has finished.
func (s *Server) sanitize(rc *eos_io.RuntimeContext, r *http.Request) (int, any, error) {
	if !s.limiter.Allow() {
		return 0, nil, tooManyRequests(errors.New("too many sanitize requests; retry shortly"))
	}

	var req sanitize.Request
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return 0, nil, badRequest(err)
	}
	if req.Identifier == "" {
		return 0, nil, badRequest(errors.New("identifier is required"))
	}

	// the run outlives this request
	bg := eos_io.NewContext(context.WithoutCancel(rc.Ctx), "api.sanitize.task")
	t := s.tasks.track(req.Identifier, s.svc.Start(bg, req), func(err error) { bg.End(&err) })

	if r.URL.Query().Get("wait") != "true" {
		st, _ := s.tasks.status(t)
		return http.StatusAccepted, st, nil
	}

	select {
	case <-t.done:
	case <-r.Context().Done():
		return 0, nil, r.Context().Err()
	}
	st, runErr := s.tasks.status(t)
	if runErr != nil {
		code, _ := statusFor(runErr)
		return code, st, nil
	}
	return http.StatusOK, st, nil
}

func (s *Server) task(_ *eos_io.RuntimeContext, r *http.Request) (int, any, error) {
	id := mux.Vars(r)["id"]
	st, ok := s.tasks.get(id)
	if !ok {
		return 0, nil, notFound(errors.New("no such task: " + id))
	}
	return http.StatusOK, st, nil
}

type historyResponse struct {
	Active   []*disk_safety.JournalEntry `json:"active"`
	Archived []*disk_safety.JournalEntry `json:"archived"`
}

func (s *Server) listHistory(_ *eos_io.RuntimeContext, _ *http.Request) (int, any, error) {
	if s.history == nil {
		return 0, nil, notFound(errors.New("journal is disabled"))
	}
	active, err := s.history.ListActive()
	if err != nil {
		return 0, nil, err
	}
	archived, err := s.history.ListArchived()
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, historyResponse{Active: active, Archived: archived}, nil
}

func (s *Server) historyEntry(_ *eos_io.RuntimeContext, r *http.Request) (int, any, error) {
	if s.history == nil {
		return 0, nil, notFound(errors.New("journal is disabled"))
	}
	entry, err := s.history.Load(mux.Vars(r)["id"])
	if errors.Is(err, disk_safety.ErrEntryNotFound) {
		return 0, nil, notFound(err)
	}
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, entry, nil
}

type probeResponse struct {
	Message string `json:"message"`
}

func (s *Server) probe(_ *eos_io.RuntimeContext, _ *http.Request) (int, any, error) {
	return http.StatusOK, probeResponse{Message: sysinfo.DiagnosticProbe()}, nil
}

func (s *Server) specs(rc *eos_io.RuntimeContext, _ *http.Request) (int, any, error) {
	specs, err := sysinfo.CollectSpecs(rc.Ctx)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, specs, nil
}
