package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Anjo-Erinjery/Attendance-sub000/api/swagger"
	"github.com/Anjo-Erinjery/Attendance-sub000/internal/handler"
	internalmiddleware "github.com/Anjo-Erinjery/Attendance-sub000/internal/middleware"
	"github.com/Anjo-Erinjery/Attendance-sub000/internal/models"
	"github.com/Anjo-Erinjery/Attendance-sub000/internal/repository"
	"github.com/Anjo-Erinjery/Attendance-sub000/internal/service"
	"github.com/Anjo-Erinjery/Attendance-sub000/pkg/cache"
	"github.com/Anjo-Erinjery/Attendance-sub000/pkg/config"
	"github.com/Anjo-Erinjery/Attendance-sub000/pkg/database"
	"github.com/Anjo-Erinjery/Attendance-sub000/pkg/logger"
	corsmiddleware "github.com/Anjo-Erinjery/Attendance-sub000/pkg/middleware/cors"
	"github.com/Anjo-Erinjery/Attendance-sub000/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/Anjo-Erinjery/Attendance-sub000/pkg/middleware/requestid"
)

// @title Attendance Late-Arrival API
// @version 1.0.0
// @description Late-arrival tables, charts and exports for the HOD and Principal dashboards
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	loc, err := cfg.Location()
	if err != nil {
		logr.Warn("unknown timezone, falling back to UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	metricsSvc := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
			checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}
	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient, repository.LateArrivalCacheNamespace, logr), metricsSvc, cfg.LateArrivals.CacheTTL, logr, true)
	}

	source, db, err := buildSource(ctx, cfg, loc, metricsSvc, logr)
	if err != nil {
		logr.Fatal("failed to initialise late-arrival source", zap.Error(err))
	}
	if db != nil {
		defer db.Close() //nolint:errcheck
		checks["late_arrivals_db"] = db.PingContext
	}

	aggregator := service.NewLateArrivalAggregator(loc)
	lateArrivalSvc := service.NewLateArrivalService(service.LateArrivalServiceParams{
		Source:     source,
		Aggregator: aggregator,
		Exporter:   service.NewExportService(loc, logr),
		Cache:      cacheSvc,
		Metrics:    metricsSvc,
		Logger:     logr,
		Config:     service.LateArrivalServiceConfig{TopN: cfg.LateArrivals.TopN},
	})
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Leeway:            30 * time.Second,
	})

	lateArrivalHandler := handler.NewLateArrivalHandler(lateArrivalSvc, validator.New(), loc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	exportLimiter := ratelimit.New(cfg.Export.RatePerSecond, cfg.Export.Burst)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	late := api.Group("/late-arrivals")
	late.Use(
		internalmiddleware.JWT(authSvc),
		internalmiddleware.RequireRoles(models.RoleHOD, models.RolePrincipal),
		internalmiddleware.WithResponseMeta(),
	)
	late.GET("", lateArrivalHandler.List)
	late.GET("/summary", lateArrivalHandler.Summary)
	late.GET("/dashboard", lateArrivalHandler.Dashboard)
	late.GET("/options", lateArrivalHandler.Options)
	late.GET("/export",
		exportLimiter.Middleware(func(c *gin.Context) string {
			if viewer, ok := internalmiddleware.Viewer(c); ok {
				return viewer.UserID
			}
			return ""
		}),
		internalmiddleware.Audit(logr, "late_arrivals.export"),
		lateArrivalHandler.Export,
	)
	late.DELETE("/cache",
		internalmiddleware.RequireRoles(models.RolePrincipal),
		internalmiddleware.Audit(logr, "late_arrivals.cache_clear"),
		lateArrivalHandler.InvalidateCache,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "source", source.Name(), "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logr.Info("shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildSource(ctx context.Context, cfg *config.Config, loc *time.Location, metrics *service.MetricsService, logr *zap.Logger) (service.LateArrivalSource, *sqlx.DB, error) {
	if cfg.LateArrivals.Source == config.SourcePostgres {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewLateArrivalRepository(db, metrics), db, nil
	}
	client := &http.Client{Timeout: cfg.LateArrivals.Timeout}
	return repository.NewLateArrivalHTTPSource(cfg.LateArrivals.BaseURL, client, loc, logr), nil, nil
}
