package handlers

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Routes served by the recorder.
const (
	LocationPath = "/api/location"
	StreamPath   = "/api/location/stream"
	HealthPath   = "/api/health"
)

// NewRouter wires the recorder's endpoints.
func NewRouter(service LocationRecorder, hub *StreamHub, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(LocationPath, NewLocationHandler(service, logger))
	mux.Handle(HealthPath, HealthHandler(logger))
	if hub != nil {
		mux.Handle(StreamPath, hub)
	}
	return accessLog(mux, logger)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Hijack hands the connection over for WebSocket upgrades.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func accessLog(next http.Handler, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Handled request")
	})
}

// Server runs the HTTP endpoints as a service with a graceful shutdown.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	onShutdown      func()
	logger          zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
}

// ServerConfig carries the HTTP server settings.
type ServerConfig struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a Server. onShutdown, if set, runs when Stop begins, before
// in-flight requests are drained.
func NewServer(cfg ServerConfig, handler http.Handler, onShutdown func(), logger zerolog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Address,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		onShutdown:      onShutdown,
		logger:          logger,
	}
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New("http server is already running")
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("HTTP server failed")
		}
	}(s.done)

	s.logger.Info().Str("address", listener.Addr().String()).Msg("HTTP server started")
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop stops accepting connections and waits for in-flight requests.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return errors.New("http server is not running")
	}

	if s.onShutdown != nil {
		s.onShutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	<-s.done
	s.listener = nil

	s.logger.Info().Msg("HTTP server stopped")
	return err
}
