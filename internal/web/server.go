// Package web serves upload widgets over HTTP: one widget per session,
// server-rendered with the ui primitives and kept live over an event stream.
package web

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/fileupload/internal/config"
	"github.com/JonMunkholm/fileupload/internal/provider"
	"github.com/JonMunkholm/fileupload/internal/upload"
	"github.com/JonMunkholm/fileupload/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// heartbeatInterval keeps idle event streams and their sessions alive.
const heartbeatInterval = 15 * time.Second

// Deps are the collaborators the server drives.
type Deps struct {
	Presets config.Presets
	// Uploader is the routine every session's widget hands accepted files to.
	Uploader upload.UploadFunc
	// Limiter is reported on /healthz and drained on shutdown. Optional.
	Limiter *provider.Limiter
	// Catalog serves upload history. Optional.
	Catalog *provider.Catalog
	// SpoolDir holds received files until they are uploaded. Defaults to a
	// directory under os.TempDir.
	SpoolDir string
	Logger   *slog.Logger
}

// Server is the HTTP server for upload widgets.
type Server struct {
	cfg      *config.Config
	deps     Deps
	logger   *slog.Logger
	sessions *sessionStore
	router   *chi.Mux
	server   *http.Server
}

// NewServer wires routes and middleware.
func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Presets == nil {
		deps.Presets = config.BuiltinPresets()
	}
	if deps.SpoolDir == "" {
		deps.SpoolDir = filepath.Join(os.TempDir(), "fileupload-spool")
	}

	s := &Server{
		cfg:      cfg,
		deps:     deps,
		logger:   deps.Logger,
		sessions: newSessionStore(cfg.Session.TTL, deps.Logger),
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := middleware.NewRateLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst)
		s.router.Use(limiter.Middleware)
	}
}

func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security))

		r.Get("/presets", s.handleListPresets)
		r.Get("/uploads/recent", s.handleRecentUploads)
		r.Post("/sessions", s.handleCreateSession)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Use(s.withSession)

			r.Get("/", s.handleSessionState)
			r.Delete("/", s.handleCloseSession)
			r.Get("/view", s.handleRenderWidget)
			r.Get("/events", s.handleEvents)
			r.Post("/files", s.handleAddFiles)
			r.Delete("/files/{fileID}", s.handleDeleteFile)
			r.Get("/files/{fileID}/content", s.handleFileContent)
			r.Post("/drag/{phase}", s.handleDrag)
			r.Post("/clear", s.handleClear)
		})
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, lets in-flight uploads finish until
// ctx ends, then closes every session.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}

	if n := s.sessions.count(); n > 0 {
		s.logger.Info("closing sessions", "count", n)
	}
	if serr := s.sessions.shutdown(ctx); serr != nil {
		s.logger.Warn("uploads did not complete in time", "error", serr)
		if err == nil {
			err = serr
		}
	}

	if s.deps.Limiter != nil {
		if derr := s.deps.Limiter.WaitForDrain(ctx); derr != nil && err == nil {
			err = derr
		}
	}
	return err
}

// Router returns the handler, for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// securityHeaders allows the widget's own script and images only.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
