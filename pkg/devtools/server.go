package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/hookrt/pkg/host"
)

const (
	// DefaultWriteTimeout bounds a single WebSocket write.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultStreamBuffer is the commit buffer of each stream subscriber.
	DefaultStreamBuffer = 64
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger.With("component", "devtools")
		}
	}
}

// WithGatherer exposes g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithWriteTimeout sets the WebSocket write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithStreamBuffer sets the commit buffer of each stream subscriber. A
// slow client loses commits once its buffer is full.
func WithStreamBuffer(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.streamBuffer = n
		}
	}
}

// Server is the devtools HTTP handler for one host.
type Server struct {
	host         *host.Host
	logger       *slog.Logger
	gatherer     prometheus.Gatherer
	writeTimeout time.Duration
	streamBuffer int

	router   chi.Router
	upgrader websocket.Upgrader

	mu      sync.Mutex
	streams map[*websocket.Conn]struct{}
	closed  bool
}

// New creates a devtools server for h.
func New(h *host.Host, opts ...Option) *Server {
	s := &Server{
		host:         h,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		writeTimeout: DefaultWriteTimeout,
		streamBuffer: DefaultStreamBuffer,
		streams:      make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/host", s.handleHost)
		r.Get("/instances", s.handleInstances)
		r.Route("/instances/{id}", func(r chi.Router) {
			r.Get("/", s.handleInstance)
			r.Delete("/", s.handleUnmount)
			r.Get("/output", s.handleOutput)
			r.Post("/actions/{action}", s.handleAction)
		})
	})

	r.Get("/ws", s.handleStream)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close closes every open WebSocket stream. HTTP routes keep working.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for conn := range s.streams {
		conn.Close()
		delete(s.streams, conn)
	}
}

// StreamCount returns the number of open WebSocket streams.
func (s *Server) StreamCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

// logRequests logs one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type hostInfo struct {
	ID      string `json:"id"`
	Commits uint64 `json:"commits"`
	Dropped uint64 `json:"dropped"`
}

func (s *Server) handleHost(w http.ResponseWriter, r *http.Request) {
	commits, dropped := s.host.Stats()
	writeJSON(w, http.StatusOK, hostInfo{ID: s.host.ID(), Commits: commits, Dropped: dropped})
}

func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	snap, err := s.host.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := instanceID(w, r)
	if !ok {
		return
	}
	info, err := s.host.Inspect(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	id, ok := instanceID(w, r)
	if !ok {
		return
	}
	out, err := s.host.Output(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	id, ok := instanceID(w, r)
	if !ok {
		return
	}
	action := chi.URLParam(r, "action")
	if err := s.host.Trigger(r.Context(), id, action); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnmount(w http.ResponseWriter, r *http.Request) {
	id, ok := instanceID(w, r)
	if !ok {
		return
	}
	if err := s.host.Unmount(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func instanceID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid instance id " + strconv.Quote(raw)})
		return 0, false
	}
	return id, true
}

type errorBody struct {
	Error string `json:"error"`
}

// statusOf maps host errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, host.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, host.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, host.ErrClosed), errors.Is(err, host.ErrQueueFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
