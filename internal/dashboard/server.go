package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/rickgao/pond-monitor/internal/session"
)

// Source is the session surface the dashboard reads and drives.
type Source interface {
	State() session.State
	Watch(ctx context.Context) <-chan session.State
	SetDevice(ctx context.Context, deviceID string) error
}

// Config holds dashboard configuration.
type Config struct {
	Addr              string
	MetricsPath       string
	DeviceChangeRate  float64 // Device switches per second, 0 = unlimited
	DeviceChangeBurst int
}

const shutdownTimeout = 5 * time.Second

// Server is the dashboard HTTP server.
type Server struct {
	cfg      Config
	source   Source
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	limiter  *rate.Limiter
	engine   *gin.Engine
	now      func() time.Time
}

// New creates the dashboard. A nil gatherer disables the metrics endpoint.
func New(cfg Config, source Source, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.DeviceChangeRate > 0 {
		limit = rate.Limit(cfg.DeviceChangeRate)
	}
	burst := cfg.DeviceChangeBurst
	if burst < 1 {
		burst = 1
	}

	s := &Server{
		cfg:      cfg,
		source:   source,
		gatherer: gatherer,
		logger:   logger.With("component", "dashboard"),
		limiter:  rate.NewLimiter(limit, burst),
		now:      time.Now,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger), securityHeaders())

	r.GET("/health", s.handleHealth)
	r.GET("/chart.svg", s.handleChart)
	r.GET("/ws", s.handleWS)

	api := r.Group("/api")
	api.GET("/state", s.handleState)
	api.GET("/history", s.handleHistory)
	api.PUT("/device", s.handleSetDevice)

	if s.gatherer != nil && s.cfg.MetricsPath != "" {
		r.GET(s.cfg.MetricsPath, gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	s.logger.Info("dashboard stopped")
	return nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
