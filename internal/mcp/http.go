package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// shutdownTimeout bounds the graceful shutdown of the http transport.
const shutdownTimeout = 5 * time.Second

// HTTPHandler returns the handler of the http transport. It serves the
// streamable MCP endpoint on the configured URL base, a health check on
// /healthz and Prometheus metrics on /metrics.
func (s *Server) HTTPHandler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	base := s.config.Server.URLBase
	if base == "" {
		base = "/mcp"
	}
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
	r.Any(base, gin.WrapH(streamable))

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	return r
}

func (s *Server) health(c *gin.Context) {
	snap := s.state.Current()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_loaded"})
		return
	}
	reloads, failed := s.state.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"documents":      snap.Catalogue.Numbers.Total,
		"loaded_at":      snap.LoadedAt.UTC().Format(time.RFC3339),
		"reloads":        reloads,
		"failed_reloads": failed,
	})
}

// requestLogger logs each http request at debug level.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http_request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)))
	}
}

// serveHTTP listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) serveHTTP(ctx context.Context, addr string) error {
	if addr == "" {
		addr = s.config.Server.Listen
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}
