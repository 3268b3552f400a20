package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/ypb/phonebook/handlers"
	"github.com/ypb/phonebook/internal/access"
	"github.com/ypb/phonebook/internal/activity"
	"github.com/ypb/phonebook/internal/auth"
	"github.com/ypb/phonebook/internal/config"
	pagehandler "github.com/ypb/phonebook/internal/page/handler"
	"github.com/ypb/phonebook/internal/page/service"
	"github.com/ypb/phonebook/internal/sessions"
	"github.com/ypb/phonebook/internal/tokens"
	"github.com/ypb/phonebook/pkg/logger"
	"github.com/ypb/phonebook/pkg/metrics"
	"github.com/ypb/phonebook/pkg/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context(), cfg)
	},
}

func runServe(ctx context.Context, c *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, c)
	if err != nil {
		return err
	}
	defer a.Close()

	rdb, err := connectRedis(ctx, c.Redis)
	switch {
	case err != nil:
		logger.Warnf("redis unavailable, continuing without token revocation and shared rate limits: %v", err)
	case rdb != nil:
		a.redis = rdb
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		logger.Infof("connected to redis at %s", c.Redis.Addr())
	}

	// a failed first load is retried by the first request
	if _, err := a.cache.Refresh(ctx); err != nil {
		logger.Warnf("initial corpus load failed: %v", err)
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	router, err := newRouter(c, a)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  c.Server.ReadTimeout,
		WriteTimeout: c.Server.WriteTimeout,
	}
	logger.Infof("Config summary: store=%s redis=%v minio=%v rate_limit=%v secret_set=%v",
		c.Store.Driver, a.redis != nil, c.MinIO.Endpoint != "", c.RateLimit.Enabled, c.Auth.Secret != "")
	logger.Infof("Starting phonebook %s on %s", Version, addr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRouter wires services and routes on top of an opened app.
func newRouter(c *config.Config, a *app) (*gin.Engine, error) {
	if c.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	issuer, err := tokens.NewIssuer(c.Auth.Secret, c.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	var feed handlers.ActivityFeed
	var act activity.Logger = activity.LogSink{}
	if a.redis != nil {
		sink := activity.NewRedisSink(a.redis, 1000)
		feed = sink
		act = activity.Multi{activity.LogSink{}, sink}
	}

	authSvc := auth.NewService(a.cache, issuer, auth.Options{
		Special:    c.Auth.SpecialNumbers(),
		AdminPhone: c.Auth.AdminPhone,
		Revoker:    sessions.NewRevoker(a.redis),
		Activity:   act,
	})
	filter := access.Filter{PublicTag: c.Search.PublicTag}
	pages := service.New(a.repo, a.cache, service.Options{Filter: filter, Activity: act, Namer: authSvc})
	engine := newEngine(c)

	r := gin.New()
	r.Use(gin.Recovery(), corsMiddleware(), middleware.RequestLogger(), middleware.Authenticate(authSvc))

	// Optional global rate limiter (per phone when logged in, otherwise per IP)
	if c.RateLimit.Enabled {
		if c.RateLimit.UseRedis && a.redis != nil {
			win := time.Duration(c.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(a.redis, c.RateLimit.RPS, c.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(c.RateLimit.RPS, c.RateLimit.Burst))
		}
	}

	handlers.RegisterHealth(r, readinessChecks(a))
	handlers.RegisterSwagger(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.NewAuthHandler(authSvc, c.Auth.TokenTTL, strings.HasPrefix(c.Server.BaseURL, "https://")).Register(r)
	handlers.NewDirectoryHandler(a.cache, engine, act, feed).Register(r)
	handlers.NewSiteHandler(a.cache, engine, c.Server.BaseURL, c.Server.SiteTitle).Register(r)
	pagehandler.RegisterPageRoutes(r, pages)
	return r, nil
}

func readinessChecks(a *app) map[string]handlers.ReadinessCheck {
	checks := map[string]handlers.ReadinessCheck{
		"corpus": func(ctx context.Context) error {
			_, err := a.cache.Snapshot(ctx)
			return err
		},
	}
	if a.mongo != nil {
		checks["mongo"] = func(ctx context.Context) error { return a.mongo.Ping(ctx, nil) }
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}
	return checks
}

// corsMiddleware sets permissive CORS headers and answers preflight requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		h.Set("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
