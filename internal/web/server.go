package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/v7h-lab/Nomen-origins/internal/explorer"
	"github.com/v7h-lab/Nomen-origins/internal/provider"
	"github.com/v7h-lab/Nomen-origins/internal/tour"
)

//go:embed all:static
var staticFS embed.FS

const heartbeatInterval = 15 * time.Second

type Options struct {
	Provider       provider.Provider
	Scheduler      tour.Scheduler
	Clock          clockwork.Clock
	Explorer       explorer.Options
	IdleTimeout    time.Duration
	AllowedOrigins []string
	Logger         *zap.Logger
}

// Server serves the explorer web app, its API and event streams.
type Server struct {
	Addr string

	provider provider.Provider
	sessions *Sessions
	clock    clockwork.Clock
	origins  []string
	log      *zap.Logger
}

func NewServer(addr string, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = tour.NewScheduler(clock)
	}
	return &Server{
		Addr:     addr,
		provider: opts.Provider,
		sessions: newSessions(opts.Provider, sched, clock, opts.Explorer, opts.IdleTimeout, log),
		clock:    clock,
		origins:  opts.AllowedOrigins,
		log:      log,
	}
}

// Sessions returns the server's session registry.
func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/submit", s.handleSubmit)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/waypoints/select", s.handleSelect)
	mux.HandleFunc("POST /api/tour/{action}", s.handleTour)
	mux.HandleFunc("POST /api/back", s.handleBack)
	mux.HandleFunc("POST /api/speech/voices", s.handleVoices)
	mux.HandleFunc("POST /api/speech/done", s.handleSpeechDone)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/classify", s.handleClassify)
	mux.HandleFunc("POST /api/provider", s.handleProvider)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Static files
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating sub filesystem: %w", err)
	}
	mux.Handle("GET /", http.FileServer(http.FS(staticSub)))

	chain := Chain(RequestID, Recovery(s.log), Logger(s.log), CORS(s.origins))
	return chain(mux), nil
}

// ListenAndServe serves until ctx is done, then shuts down gracefully,
// waiting up to shutdownTimeout for requests in flight.
func (s *Server) ListenAndServe(ctx context.Context, shutdownTimeout time.Duration) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("serving", zap.String("url", "http://"+s.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	// Event streams only end when their sessions close.
	s.sessions.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
