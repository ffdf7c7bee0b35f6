// Package server exposes reports over HTTP for dashboard clients.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stock-sentiment-agent/internal/analyzer"
	"stock-sentiment-agent/internal/apperr"
	"stock-sentiment-agent/internal/logger"
	"stock-sentiment-agent/internal/types"
)

// Analyzer is the pipeline entry point served by the API.
type Analyzer interface {
	Analyze(ctx context.Context, req analyzer.Request) (*types.Report, error)
	Compare(ctx context.Context, req analyzer.CompareRequest) (*types.Comparison, error)
}

// ErrorBody is the JSON payload for failed requests.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Config holds server settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Gatherer        prometheus.Gatherer
}

type Option func(*Config)

func WithAddr(addr string) Option {
	return func(c *Config) { c.Addr = addr }
}

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(c *Config) { c.Gatherer = g }
}

func WithTimeouts(read, write, shutdown time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = read
		c.WriteTimeout = write
		c.ShutdownTimeout = shutdown
	}
}

type Server struct {
	echo     *echo.Echo
	analyzer Analyzer
	config   *Config
}

func New(an Analyzer, opts ...Option) *Server {
	cfg := &Config{
		Addr:            ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Gatherer:        prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(middleware.Recover())
	e.Use(requestLogging())

	s := &Server{echo: e, analyzer: an, config: cfg}

	e.GET("/healthz", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	v1 := e.Group("/api/v1")
	v1.GET("/report/:ticker", s.report)
	v1.GET("/compare", s.compare)

	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", s.config.Addr)
		if err := s.echo.Start(s.config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	logger.Info(ctx, "HTTP server stopped gracefully")
	return nil
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) report(c echo.Context) error {
	req := analyzer.Request{Ticker: c.Param("ticker")}

	var threshold float64
	var start, end string
	err := echo.QueryParamsBinder(c).
		Int("days", &req.Days).
		Float64("threshold", &threshold).
		String("start", &start).
		String("end", &end).
		BindError()
	if err != nil {
		return s.fail(c, apperr.InvalidInput("server.report", fmt.Sprintf("invalid query parameter: %v", err)))
	}
	if c.QueryParam("threshold") != "" {
		req.Threshold = &threshold
	}
	if req.Start, err = parseDate(start); err != nil {
		return s.fail(c, err)
	}
	if req.End, err = parseDate(end); err != nil {
		return s.fail(c, err)
	}

	r, err := s.analyzer.Analyze(c.Request().Context(), req)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// compare serves ?tickers=A,B[,C...] with the same range parameters as
// report.
func (s *Server) compare(c echo.Context) error {
	var req analyzer.CompareRequest
	var tickers, start, end string
	err := echo.QueryParamsBinder(c).
		String("tickers", &tickers).
		Int("days", &req.Days).
		String("start", &start).
		String("end", &end).
		BindError()
	if err != nil {
		return s.fail(c, apperr.InvalidInput("server.compare", fmt.Sprintf("invalid query parameter: %v", err)))
	}
	if tickers != "" {
		req.Tickers = strings.Split(tickers, ",")
	}
	if req.Start, err = parseDate(start); err != nil {
		return s.fail(c, err)
	}
	if req.End, err = parseDate(end); err != nil {
		return s.fail(c, err)
	}

	cmp, err := s.analyzer.Compare(c.Request().Context(), req)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, cmp)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, apperr.InvalidInput("server.query", fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
	}
	return t, nil
}

func (s *Server) fail(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorWithErr(c.Request().Context(), "API request failed", err, "path", c.Request().URL.Path)
	}
	return c.JSON(status, ErrorBody{Code: apperr.Code(err), Message: err.Error()})
}

func requestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)

			logger.Info(req.Context(), "HTTP request",
				"method", req.Method,
				"uri", req.RequestURI,
				"remote", c.RealIP(),
				"status", c.Response().Status,
				"duration", time.Since(start),
			)
			return err
		}
	}
}
