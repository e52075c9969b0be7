package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/profile-insights/internal/config"
	"github.com/ZanzyTHEbar/profile-insights/internal/errors"
	"github.com/ZanzyTHEbar/profile-insights/internal/monitoring"
	"github.com/ZanzyTHEbar/profile-insights/internal/ratelimit"
)

// @title        Profile Insights API
// @version      1.0
// @description  Derived analytics and comparisons for developer profiles.
// @BasePath     /
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err, "cause", errors.ToAppError(err).Unwrap())
		os.Exit(1)
	}

	logger := monitoring.NewLogger(monitoring.ParseLevel(cfg.Server.LogLevel))
	slog.SetDefault(logger.Logger)
	gin.SetMode(cfg.Server.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appMetrics := monitoring.NewMetrics()

	redisClient, err := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Warn("Redis unavailable, continuing with in-memory rate limiting", "error", err)
	}
	defer errors.SafeClose(redisClient, "redis client")

	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		ProfilePerMin:   cfg.RateLimit.ProfilePerMin,
		ComparePerMin:   cfg.RateLimit.ComparePerMin,
		BurstMultiplier: 1,
		CleanupInterval: time.Hour,
	}, appMetrics)
	defer limiter.Close()

	s := newServer(cfg, logger, appMetrics, limiter)
	s.registerRedis(redisClient)

	if err := s.client.CheckHealth(ctx); err != nil {
		slog.Warn("Analytics service is not healthy at startup", "base_url", s.client.BaseURL(), "error", err)
	} else {
		slog.Info("Analytics service reachable", "base_url", s.client.BaseURL())
	}
	go s.health.StartHealthChecks(ctx)

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "addr", srv.Addr, "analytics", s.client.BaseURL())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}
