// Package server exposes the pipeline as a local web UI: a JSON API for the
// generate, burn and translate steps, SSE progress per session and the
// embedded single-page front end.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mgpai22/whisperburn/internal/logging"
	"github.com/mgpai22/whisperburn/internal/pipeline"
	"github.com/mgpai22/whisperburn/internal/subtitle"
	"github.com/mgpai22/whisperburn/internal/translate"
)

//go:embed web/index.html
var webFS embed.FS

// Pipeline is the subset of *pipeline.Service the handlers call.
type Pipeline interface {
	Generate(ctx context.Context, req pipeline.GenerateRequest, progress pipeline.Progress) (*pipeline.Generation, error)
	Burn(ctx context.Context, gen *pipeline.Generation, style subtitle.Style, progress pipeline.Progress) (string, error)
	OutputDir() string
}

// TranslatorFactory builds a translator for one request.
type TranslatorFactory func(ctx context.Context, provider translate.Provider, targetLanguage string) (translate.Translator, error)

// Options configures a Server.
type Options struct {
	Addr         string
	Pipeline     Pipeline
	Translators  TranslatorFactory
	DeviceStatus string
	// DefaultModel preselects the model dropdown.
	DefaultModel string
	// DefaultOffset is used when a request leaves offset unset, in seconds.
	DefaultOffset float64
	Verbose       bool
	Logger        *logging.Logger
}

// Server is the local HTTP front end.
type Server struct {
	opts       Options
	engine     *gin.Engine
	httpServer *http.Server
	sessions   *sessionStore
	log        *logging.Logger
	listener   net.Listener
}

func New(opts Options) *Server {
	if opts.Verbose {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		opts:     opts,
		engine:   gin.New(),
		sessions: newSessionStore(),
		log:      logging.OrNop(opts.Logger).Named("server"),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleIndex)

	api := s.engine.Group("/api")
	api.GET("/status", s.handleStatus)
	api.POST("/sessions", s.handleCreateSession)

	sess := api.Group("/sessions/:id")
	sess.POST("/generate", s.handleGenerate)
	sess.POST("/burn", s.handleBurn)
	sess.POST("/translate", s.handleTranslate)
	sess.GET("/events", s.handleEvents)
	sess.GET("/subtitles", s.handleSubtitles)
	sess.GET("/video", s.handleVideo)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the listener and serves in the background. It returns once
// the port is bound.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.listener = listener

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorw("server error", "error", err)
		}
	}()

	s.log.Infow("server started", "url", s.URL())
	return nil
}

// URL is the address the UI is reachable at.
func (s *Server) URL() string {
	addr := s.httpServer.Addr
	if s.listener != nil {
		addr = s.listener.Addr().String()
	}
	return "http://" + addr
}

// Stop shuts down gracefully with a 5 second deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.Infow("server stopped")
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.log.Debugw("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
