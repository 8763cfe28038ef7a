package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/nicempc/internal/metrics"
)

// ServerOptions configures the HTTP listener
type ServerOptions struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// Gatherer backs /metrics; nil uses the default registry
	Gatherer prometheus.Gatherer
}

// Server wraps Echo HTTP server
type Server struct {
	echo *echo.Echo
	opts ServerOptions
}

func NewServer(h *Handler, opts ServerOptions) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = opts.ReadTimeout
	e.Server.WriteTimeout = opts.WriteTimeout

	e.Use(middleware.Recover())
	e.Use(requestLogging())
	e.Use(requestMetrics(h.deps.Metrics))

	h.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	return &Server{echo: e, opts: opts}
}

// Echo returns the underlying Echo instance
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.opts.Addr).Msg("HTTP server listening")
		if err := s.echo.Start(s.opts.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("HTTP server stopped gracefully")
	return nil
}

func requestLogging() echo.MiddlewareFunc {
	logger := log.With().Str("component", "http").Logger()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			logger.Debug().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Int("status", status(c, err)).
				Dur("latency", time.Since(start)).
				Msg("Request served")
			return err
		}
	}
}

func requestMetrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.HTTPRequest(route, status(c, err))
			return err
		}
	}
}

// status is the code the client will see, including errors echo has not rendered yet
func status(c echo.Context, err error) int {
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he.Code
		}
		return http.StatusInternalServerError
	}
	return c.Response().Status
}
