// Package server exposes the dashboard over HTTP with gin.
package server

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/profitscope/internal/dashboard"
)

//go:embed static
var staticFiles embed.FS

// Server serves the dashboard page and its JSON API.
type Server struct {
	router *gin.Engine
	app    *dashboard.App
	logger *log.Logger
}

// New builds the router. debug switches gin to debug mode and adds the
// request logger.
func New(app *dashboard.App, logger *log.Logger, debug bool) *Server {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = log.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if debug {
		r.Use(gin.Logger())
	}
	s := &Server{router: r, app: app, logger: logger}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	page, _ := fs.ReadFile(staticFiles, "static/index.html")
	s.router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})

	api := s.router.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/options", s.options)
		api.GET("/records", s.records)
		api.GET("/records.xlsx", s.recordsWorkbook)
		api.GET("/summary", s.summary)
		api.GET("/describe", s.describe)
		api.GET("/charts/timeseries.png", s.timeSeriesChart)
		api.GET("/charts/comparison.png", s.comparisonChart)
		api.POST("/predict", s.predict)
		api.GET("/predictions", s.predictions)
	}
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("✓ Dashboard listening on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
