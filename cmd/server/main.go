package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/peakhr/console/configs"
	"github.com/peakhr/console/internal/application/services"
	"github.com/peakhr/console/internal/core/ports"
	"github.com/peakhr/console/internal/infrastructure/cache"
	"github.com/peakhr/console/internal/infrastructure/health"
	"github.com/peakhr/console/internal/infrastructure/httpserver"
	"github.com/peakhr/console/internal/infrastructure/listcache"
	"github.com/peakhr/console/internal/infrastructure/redis"
	"github.com/peakhr/console/internal/infrastructure/sessionstore"
	"github.com/peakhr/console/internal/infrastructure/upstream"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := logrus.New()
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting HR console public site...")

	var kv ports.Cache
	checkers := []ports.HealthChecker{
		health.NewUpstreamHealthChecker(cfg.Upstream.BaseURL, &http.Client{Timeout: cfg.Upstream.Timeout}),
	}
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		// The cache is always re-derivable from a fresh fetch, so a missing
		// Redis degrades to process-local caching instead of failing startup.
		logger.WithError(err).Warn("Redis unavailable, falling back to in-memory cache")
		mem := cache.NewMemory(time.Minute)
		defer mem.Close()
		kv = mem
	} else {
		defer redisClient.Close()
		logger.Info("Connected to Redis successfully")
		kv = redis.NewCache(redisClient, cfg.Cache.KeyPrefix)
		checkers = append(checkers, health.NewRedisHealthChecker(redisClient))
	}

	sessions := sessionstore.New(kv, nil, cfg.Session, logger)
	api := upstream.NewClient(&cfg.Upstream, sessions, logger)

	feedStore := listcache.NewStore(kv, cfg.Cache.FeedTTL, cfg.Cache.MaxEntryAge, logger)
	feed := services.NewFeedService(api, feedStore, cfg.Cache.FeedDelay, logger)
	defer feed.Close()

	serverConfig := &httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		TLSCertFile:  cfg.Server.TLSCertFile,
		TLSKeyFile:   cfg.Server.TLSKeyFile,
	}

	server := httpserver.NewServer(serverConfig, logger, httpserver.ServerDeps{
		Feed:           feed,
		HealthCheckers: checkers,
	})

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
