package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/reoring/instruct/internal/config"
	"github.com/reoring/instruct/llm"
	"github.com/reoring/instruct/middleware"
	echomw "github.com/reoring/instruct/middleware/echo"
)

// Version is reported by GET /.
const Version = "0.1.0"

// ProviderFactory builds the completion provider for one request.
type ProviderFactory func(llm.Options) (llm.Provider, error)

// Server is the HTTP boundary: it decodes requests, runs the compiler,
// invoker and exporter, and maps their errors onto status codes.
type Server struct {
	cfg         *config.Config
	log         logrus.FieldLogger
	echo        *echo.Echo
	httpClient  *http.Client
	newProvider ProviderFactory
}

// Option configures New.
type Option func(*Server)

// WithProviderFactory replaces llm.NewProvider.
func WithProviderFactory(f ProviderFactory) Option {
	return func(s *Server) { s.newProvider = f }
}

// New constructs a Server with routes registered.
func New(cfg *config.Config, log logrus.FieldLogger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		cfg:         cfg,
		log:         log,
		echo:        echo.New(),
		httpClient:  &http.Client{Timeout: cfg.LLM.Timeout},
		newProvider: llm.NewProvider,
	}
	for _, o := range opts {
		o(s)
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError
	s.registerRoutes()
	return s, nil
}

// Handler returns the http handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on the configured address until ctx is canceled, then shuts
// down gracefully within server.shutdown_timeout.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr()).Info("listening")
		errCh <- s.echo.Start(s.cfg.Addr())
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	e := s.echo
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(s.requestLogger())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.BodyLimit(s.cfg.Server.BodyLimit))

	decode := echomw.DecodeJSON(middleware.DefaultDecodeOpt(s.cfg.Limits.MaxDepth))

	e.GET("/", s.handleIndex)
	e.GET("/health", s.handleHealth)
	api := e.Group("/api")
	api.POST("/schema/validate", s.handleSchemaValidate, decode)
	api.POST("/completion", s.handleCompletion, decode)
	api.POST("/export", s.handleExport, decode)
	api.POST("/validate", s.handleValidate, decode)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			entry := s.log.WithFields(logrus.Fields{
				"request_id": v.RequestID,
				"method":     v.Method,
				"path":       v.URI,
				"status":     v.Status,
				"latency":    v.Latency.Round(time.Microsecond).String(),
			})
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			if v.Status >= http.StatusInternalServerError {
				entry.Warn("request")
			} else {
				entry.Info("request")
			}
			return nil
		},
	})
}

// handleError renders echo errors (404, 405, 413, panics) as JSON.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	detail := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		detail = http.StatusText(code)
		if msg, ok := he.Message.(string); ok && msg != "" {
			detail = msg
		}
	} else {
		s.log.WithError(err).Error("unhandled error")
	}
	if err := c.JSON(code, middleware.ErrorPayload(detail, nil)); err != nil {
		s.log.WithError(err).Warn("write error response")
	}
}
