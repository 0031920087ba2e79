package tools

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/courtlistener/telemetry"
)

// ServeStdio runs the registry as an MCP server over stdin and stdout.
// Blocks until the client disconnects or ctx is cancelled.
func ServeStdio(ctx context.Context, r *Registry) error {
	return NewServer(r).Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns an http.Handler for the streamable HTTP transport.
func HTTPHandler(r *Registry) http.Handler {
	server := NewServer(r)
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}

// NewHTTPServer mounts the MCP endpoint at /mcp next to /metrics and
// /healthz.
func NewHTTPServer(r *Registry, metrics *telemetry.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(metrics.Middleware)

	mcpHandler := echo.WrapHandler(HTTPHandler(r))
	e.Any("/mcp", mcpHandler)
	e.Any("/mcp/*", mcpHandler)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		stats := r.Stats()
		return c.JSON(http.StatusOK, map[string]any{
			"status": "ok",
			"tools":  stats.TotalTools,
		})
	})
	return e
}

// ServeHTTP runs NewHTTPServer on addr until ctx is cancelled.
func ServeHTTP(ctx context.Context, addr string, r *Registry, metrics *telemetry.Metrics) error {
	e := NewHTTPServer(r, metrics)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}
