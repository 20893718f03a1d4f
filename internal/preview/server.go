package preview

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/external"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/history"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
	"git.home.luguber.info/inful/bookbuilder/internal/site"
	"git.home.luguber.info/inful/bookbuilder/internal/steps"
)

// Options configure a preview server.
type Options struct {
	// OutputDir receives preview builds. It should not be the real output
	// directory since pages carry the reload script.
	OutputDir string
	Logger    *slog.Logger
	Runner    external.Runner
	History   *history.Recorder
	// Debounce delays rebuilds after the last file event.
	Debounce time.Duration
}

// Server builds the book on demand and serves the result.
type Server struct {
	cfg       *config.Config
	builder   *site.Builder
	hub       *LiveReloadHub
	status    *buildStatus
	registry  *prom.Registry
	recorder  metrics.Recorder
	errors    *ferrors.HTTPErrorAdapter
	logger    *slog.Logger
	outputDir string
	debounce  time.Duration

	buildMu sync.Mutex
}

// New creates a preview server. Metrics are collected in a private registry
// when preview.metrics is enabled.
func New(cfg *config.Config, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:       cfg,
		hub:       NewLiveReloadHub(),
		status:    &buildStatus{},
		recorder:  metrics.NoopRecorder{},
		errors:    ferrors.NewHTTPErrorAdapter(logger),
		logger:    logger,
		outputDir: opts.OutputDir,
		debounce:  opts.Debounce,
	}
	if s.debounce <= 0 {
		s.debounce = 300 * time.Millisecond
	}
	if cfg.Preview.Metrics {
		s.registry = metrics.NewRegistry()
		s.recorder = metrics.NewPrometheusRecorder(s.registry)
	}
	s.builder = site.NewBuilder(cfg,
		site.WithOutputDir(opts.OutputDir),
		site.WithLogger(logger),
		site.WithRecorder(s.recorder),
		site.WithRunner(opts.Runner),
		site.WithHistory(opts.History),
		site.WithExtraSteps(steps.NewLiveReload(ScriptPath)),
	)
	s.outputDir = s.builder.OutputDir()
	return s
}

// Hub exposes the live reload hub.
func (s *Server) Hub() *LiveReloadHub { return s.hub }

// Rebuild runs one build and notifies connected browsers. Concurrent calls
// are serialized.
func (s *Server) Rebuild(ctx context.Context) (*site.Report, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	report, err := s.builder.Build(ctx)
	s.status.record(report, err)
	s.recorder.IncPreviewRebuild(err == nil)
	if report != nil {
		version := report.BuildID
		if err != nil {
			version = "error:" + version
		}
		s.hub.Broadcast(version)
	}
	return report, err
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get(EventsPath, s.hub.ServeHTTP)
	r.Get(ScriptPath, serveScript)
	r.Get("/status", s.handleStatus)
	if s.registry != nil {
		r.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}
	r.Handle("/*", s.siteHandler())
	return r
}

func (s *Server) siteHandler() http.Handler {
	files := http.FileServer(http.Dir(s.outputDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, lastErr, good, _ := s.status.snapshot()
		if !good {
			if lastErr == nil {
				lastErr = ferrors.RuntimeError("no build has completed yet").Build()
			}
			s.errors.WriteErrorResponse(w, r, lastErr)
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		files.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	report, err, _, builds := s.status.snapshot()
	resp := StatusResponse{OK: err == nil && report != nil, Builds: builds}
	if report != nil {
		resp.BuildID = report.BuildID
		resp.Outcome = string(report.Outcome)
		resp.Pages = len(report.Pages)
		resp.Warnings = len(report.Warnings)
		resp.Missing = report.Missing
	}
	if err != nil {
		e := s.errors.FormatErrorResponse(err)
		resp.Error = &e
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Status(ww.Status()),
			logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	})
}

// Run builds once, serves on addr and rebuilds on source changes until ctx
// is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	if _, err := s.Rebuild(ctx); err != nil {
		s.logger.Error("Initial build failed; serving error status until the next change", logfields.Error(err))
	}

	w, err := newWatcher(s.watchRoots(), s.outputDir)
	if err != nil {
		return ferrors.RuntimeError("failed to watch sources").WithCause(err).Build()
	}
	defer func() { _ = w.Close() }()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return ferrors.RuntimeError("failed to listen").
			WithContext("addr", addr).
			WithCause(err).
			Build()
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()
	s.logger.Info("Preview server listening", slog.String("url", "http://"+ln.Addr().String()))

	deb := newDebouncer(s.debounce)
	defer deb.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-deb.C():
				s.logger.Info("Change detected; rebuilding")
				_, _ = s.Rebuild(ctx)
			}
		}
	}()

	runErr := w.Run(ctx, deb.Trigger)

	s.logger.Info("Shutting down preview server")
	s.hub.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return ferrors.RuntimeError("preview server failed").WithCause(err).Build()
	}
	return runErr
}

func (s *Server) watchRoots() []string {
	roots := []string{s.cfg.SourceDir()}
	if layout := s.cfg.LayoutPath(); layout != "" {
		roots = append(roots, layout)
	}
	return roots
}
