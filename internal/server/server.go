package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"scribe/internal/audio"
	"scribe/internal/config"
	"scribe/internal/jobs"
	"scribe/internal/logging"
	"scribe/internal/preflight"
	"scribe/internal/speakers"
	"scribe/internal/transcription"
)

// Pipeline runs one transcription request.
type Pipeline interface {
	Transcribe(ctx context.Context, buf audio.Buffer, languageHint string) (transcription.Transcript, transcription.Report, error)
}

// Ledger records requests. *jobs.Store satisfies it.
type Ledger interface {
	Create(ctx context.Context, job jobs.NewJob) (*jobs.Job, error)
	Complete(ctx context.Context, id string, outcome jobs.Outcome) error
	Fail(ctx context.Context, id string, cause error) error
	Get(ctx context.Context, id string) (*jobs.Job, error)
	List(ctx context.Context, limit int, statuses ...jobs.Status) ([]*jobs.Job, error)
	Summary(ctx context.Context) (jobs.Summary, error)
}

// HealthFunc returns the dependency checks reported by GET /health.
type HealthFunc func(ctx context.Context) []preflight.Result

// Options configures a Server.
type Options struct {
	Bind            string
	Token           string
	Backend         string
	MaxRequestBytes int64
	Speakers        config.Speakers
	Health          HealthFunc
}

// OptionsFromConfig maps the config file onto server options.
func OptionsFromConfig(cfg *config.Config, backend string) Options {
	return Options{
		Bind:            cfg.Paths.APIBind,
		Token:           cfg.Paths.APIToken,
		Backend:         backend,
		MaxRequestBytes: cfg.Pipeline.MaxRequestBytes,
		Speakers:        cfg.Speakers,
		Health: func(ctx context.Context) []preflight.Result {
			return preflight.RunAll(ctx, cfg, preflight.Options{})
		},
	}
}

// Server is the HTTP front end.
type Server struct {
	pipeline Pipeline
	ledger   Ledger
	opts     Options
	bounds   speakers.Bounds
	logger   *slog.Logger

	listener net.Listener
	server   *http.Server
}

// New constructs a Server. ledger may be nil, in which case jobs are not recorded.
func New(pipeline Pipeline, ledger Ledger, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		pipeline: pipeline,
		ledger:   ledger,
		opts:     opts,
		bounds:   speakers.BoundsFromConfig(opts.Speakers),
		logger:   logging.NewComponentLogger(logger, "api-server"),
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Minute,
		WriteTimeout:      60 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler with auth and request correlation applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /reports/transcribe", authMiddleware(s.opts.Token, s.handleTranscribe))
	mux.HandleFunc("GET /reports/jobs", authMiddleware(s.opts.Token, s.handleJobs))
	mux.HandleFunc("GET /reports/jobs/{id}", authMiddleware(s.opts.Token, s.handleJob))
	mux.HandleFunc("GET /health", s.handleHealth)
	return requestIDMiddleware(mux)
}

// Start listens on the configured bind address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.opts.Bind)
	if bind == "" {
		return errors.New("api bind address is empty")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the HTTP server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}
