package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/fcyf/internal/model"
)

// limiterIdle is how long a client bucket survives without requests
const limiterIdle = 10 * time.Minute

// Checker answers one claim
type Checker interface {
	Check(ctx context.Context, req model.CheckRequest) (*model.FactCheckResult, error)
}

// Server is the HTTP API
type Server struct {
	engine  *gin.Engine
	checker Checker
	config  model.ServerConfig
	limiter *ClientLimiter // nil when rate limiting is off
	logger  *zap.Logger
}

// New builds the router. The checker is shared by every request.
func New(checker Checker, config model.ServerConfig, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(config.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	s := &Server{
		engine:  engine,
		checker: checker,
		config:  config,
		logger:  logger,
	}
	if config.RateLimit > 0 {
		s.limiter = NewClientLimiter(config.RateLimit, config.RateBurst)
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.engine.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(s.logger),
		cors.New(corsConfig(s.config.CORSOrigins)),
	)

	s.engine.GET("/health", s.health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	if s.limiter != nil {
		api.Use(rateLimit(s.limiter))
	}
	api.POST("/answer", observeRoute(), s.answer)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", s.config.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if s.limiter != nil {
		g.Go(func() error {
			ticker := time.NewTicker(limiterIdle)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if n := s.limiter.Prune(limiterIdle); n > 0 {
						s.logger.Debug("pruned idle rate limit buckets", zap.Int("clients", n))
					}
				}
			}
		})
	}

	return g.Wait()
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
