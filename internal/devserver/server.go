package devserver

import (
	"context"
	stderrors "errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitepack/internal/build"
	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/logfields"
	"git.home.luguber.info/inful/sitepack/internal/metrics"
	"git.home.luguber.info/inful/sitepack/internal/render"
	"git.home.luguber.info/inful/sitepack/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Config   *config.Config
	Mode     config.Mode
	Registry *prom.Registry
	Logger   *slog.Logger
}

// Server builds the site, serves the output and rebuilds on change.
type Server struct {
	cfg      *config.Config
	mode     config.Mode
	outDir   string
	svc      *build.Service
	hub      *Hub
	registry *prom.Registry
	recorder metrics.Recorder
	logger   *slog.Logger

	mu      sync.RWMutex
	lastErr error
	builds  int
}

// New creates a server. The project root is made absolute so rebuilds
// do not depend on the working directory.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.InternalError("dev server without configuration").Build()
	}
	cfg := *opts.Config
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve project root").WithPath(cfg.Root).Build()
	}
	cfg.Root = root
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := opts.Registry
	if reg == nil {
		reg = metrics.NewRegistry(version.Version)
	}
	rec := metrics.NewPrometheusRecorder(reg)
	mode := opts.Mode
	if mode == "" {
		mode = cfg.Mode
	}
	return &Server{
		cfg:      &cfg,
		mode:     mode,
		outDir:   cfg.Abs(cfg.Output.Directory),
		svc:      build.NewService(build.WithRecorder(rec), build.WithLogger(logger)),
		hub:      NewHub(logger),
		registry: reg,
		recorder: rec,
		logger:   logger,
	}, nil
}

// Rebuild runs one build and notifies browsers. Failures are kept for the
// error page and never stop the server.
func (s *Server) Rebuild(ctx context.Context, trigger string) *build.Result {
	s.recorder.IncRebuild(trigger)
	res, err := s.svc.Run(ctx, build.Request{Config: s.cfg, Mode: s.mode, LiveReload: s.cfg.LiveReload()})

	s.mu.Lock()
	s.lastErr = err
	s.builds++
	n := s.builds
	s.mu.Unlock()

	id := strconv.Itoa(n)
	if res != nil && res.Report != nil {
		id = res.Report.BuildID
	}
	if err != nil {
		s.logger.Warn("Rebuild failed", slog.String("trigger", trigger), logfields.Error(err))
		id = "error:" + id
	}
	s.hub.Broadcast(id)
	return res
}

// LastError returns the error of the most recent build, if it failed.
func (s *Server) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Handler returns the HTTP routes of the dev server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/livereload", s.hub)
	mux.HandleFunc(render.LiveReloadScript, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		_, _ = w.Write([]byte(clientScript))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if s.LastError() != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("build failed\n"))
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", metrics.HTTPHandler(s.registry))

	files := http.FileServer(http.Dir(s.outDir))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if err := s.LastError(); err != nil {
			s.serveError(w, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		files.ServeHTTP(w, r)
	})
	return mux
}

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Build failed</title>
<style>body{font-family:monospace;background:#1e1e1e;color:#eee;padding:2em}pre{white-space:pre-wrap;color:#ff8080}</style>
</head><body><h1>Build failed</h1><pre>{{.}}</pre>
<script src="` + render.LiveReloadScript + `"></script></body></html>
`))

func (s *Server) serveError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusInternalServerError)
	if execErr := errorPage.Execute(w, err.Error()); execErr != nil {
		s.logger.Debug("Write error page", logfields.Error(execErr))
	}
}

// Run performs the initial build, listens on the configured address and
// rebuilds on source changes until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.DevServer.Host, strconv.Itoa(s.cfg.DevServer.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "listen").WithContext("addr", addr).Fatal().Build()
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	watcher, err := NewWatcher([]string{s.cfg.Abs(s.cfg.Paths.Source)}, s.cfg.DevServer.WatchIgnore, s.logger)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.WatchFile(s.cfg.Abs(s.cfg.Pages.Selection)); err != nil {
		s.logger.Warn("Page selection file not watched", logfields.Error(err))
	}

	s.Rebuild(ctx, "initial")

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	debounce := NewDebouncer(time.Duration(s.cfg.DevServer.DebounceMS) * time.Millisecond)
	defer debounce.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Dev server listening", logfields.Addr("http://"+ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.WrapError(err, errors.CategoryRuntime, "serve").Build()
		}
		return nil
	})
	g.Go(func() error {
		return watcher.Run(gctx, func(string) { debounce.Trigger() })
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-debounce.C():
				s.logger.Info("Change detected; rebuilding site")
				s.Rebuild(gctx, "watch")
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down dev server")
		s.hub.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("dev server shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
