package http_init

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/kinomatch/internal/delivery/http/common"
)

const (
	apiPrefix       = "/api/v1"
	shutdownTimeout = 10 * time.Second
)

type Controller interface {
	RegisterRoutes(router *gin.RouterGroup)
}

type ControllerPool struct {
	pool       []Controller
	rg         *gin.RouterGroup
	engine     *gin.Engine
	middleware []gin.HandlerFunc
	logger     *slog.Logger
}

type PoolOption func(*ControllerPool)

func WithLogger(logger *slog.Logger) PoolOption {
	return func(p *ControllerPool) { p.logger = logger }
}

// WithMiddleware appends handlers run for every API route after CORS.
func WithMiddleware(handlers ...gin.HandlerFunc) PoolOption {
	return func(p *ControllerPool) { p.middleware = append(p.middleware, handlers...) }
}

// NewControllerPool builds the engine with the CORS allowlist applied.
// Origins may use a single "*" wildcard, e.g. https://*.vercel.app.
func NewControllerPool(allowedOrigins []string, opts ...PoolOption) *ControllerPool {
	p := &ControllerPool{
		pool:   make([]Controller, 0, 10),
		engine: gin.New(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.engine.Use(gin.Recovery())
	p.engine.Use(cors.New(CORSConfig(allowedOrigins)))
	p.engine.Use(requestLogger(p.logger))
	p.engine.Use(p.middleware...)
	p.rg = p.engine.Group(apiPrefix)
	return p
}

// An empty list or a bare "*" allows every origin.
func CORSConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowWildcard: true,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", http_common.TokenHeader},
		ExposeHeaders: []string{http_common.TokenHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
	}
	return cfg
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		logger.Debug("request",
			slog.String("method", ctx.Request.Method),
			slog.String("path", ctx.FullPath()),
			slog.Int("status", ctx.Writer.Status()),
			slog.Duration("latency", time.Since(start)))
	}
}

func (pool *ControllerPool) Register() {
	for _, c := range pool.pool {
		c.RegisterRoutes(pool.rg)
	}
}

func (pool *ControllerPool) Add(c Controller) {
	pool.pool = append(pool.pool, c)
}

func (pool *ControllerPool) Handler() http.Handler {
	return pool.engine
}

// RunAll serves until ctx is cancelled, then shuts down gracefully.
func (pool *ControllerPool) RunAll(ctx context.Context, host, port string) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(host, port),
		Handler:           pool.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		pool.logger.Info("http server started", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
