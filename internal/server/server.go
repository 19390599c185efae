package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"filing-rag/internal/config"
	"filing-rag/internal/helper"
	"filing-rag/internal/logger"
	"filing-rag/internal/metrics"
	"filing-rag/internal/models"
)

const shutdownTimeout = 10 * time.Second

// Answerer answers one question with up to k units per sub-query.
type Answerer interface {
	Query(ctx context.Context, query string, k int) (*models.QueryResult, error)
}

// Counter reports how many units the vector index holds.
type Counter interface {
	Count() int
}

type Server struct {
	cfg     config.ServerConfig
	rag     Answerer
	index   Counter
	metrics *metrics.Metrics
	engine  *gin.Engine
}

// New wires the routes. m may be nil, in which case /metrics is not served.
func New(cfg config.ServerConfig, rag Answerer, index Counter, m *metrics.Metrics) *Server {
	s := &Server{cfg: cfg, rag: rag, index: index, metrics: m}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	if cfg.RateLimit > 0 {
		engine.Use(rateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.Burst, 1))))
	}

	engine.GET("/", s.root)
	engine.GET("/health", s.health)
	engine.POST("/query", s.query)
	if m != nil {
		engine.GET("/metrics", m.Handler())
	}
	s.engine = engine
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id, _ = helper.GenerateUUID()
		}
		c.Header("X-Request-ID", id)
		ctx := logger.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		logger.FromContext(ctx).Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func rateLimit(l *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
