package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"seadrift/internal/archive"
	"seadrift/internal/assess"
	"seadrift/internal/cache"
	"seadrift/internal/config"
	"seadrift/internal/drift"
	"seadrift/internal/environment"
	"seadrift/internal/geo"
	"seadrift/internal/handler"
	"seadrift/internal/hub"
	"seadrift/internal/middleware"
	"seadrift/internal/search"
	"seadrift/internal/store"
	"seadrift/internal/tracker"
	"seadrift/pkg/openweather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting seadrift server",
		"log_level", cfg.LogLevel.String(),
		"http_addr", cfg.HTTPAddr,
		"live_weather", cfg.OpenWeatherAPIKey != "",
		"redis_enabled", cfg.RedisEnabled,
		"archive_enabled", cfg.ArchiveEnabled,
		"model_config", cfg.ModelPath,
	)

	classifier := geo.NewClassifier(cfg.Model.Geo)
	estimator := environment.NewEstimator(classifier, cfg.Model.Environment, environment.NewRandomSource())
	engine := drift.NewEngine(cfg.Model.Drift)
	generator := search.NewGenerator(cfg.Model.Search)

	var (
		weather     assess.WeatherSource
		publisher   tracker.Publisher
		latest      handler.LatestSource
		cachePinger handler.Pinger
	)
	if cfg.OpenWeatherAPIKey != "" {
		weather = openweather.New(cfg.OpenWeatherURL, cfg.OpenWeatherAPIKey, cfg.WeatherTimeout, cfg.WeatherRetries)
	}

	if cfg.RedisEnabled {
		redisCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			logger.Warn("redis unavailable, continuing without cache", "error", err)
		} else {
			defer redisCache.Close()
			if weather != nil {
				weather = cache.NewCachedWeather(weather, redisCache, cfg.WeatherCacheTTL, handler.ServerStats, logger)
			}
			assessments := cache.NewAssessmentPublisher(redisCache, cfg.AssessmentCacheTTL, logger)
			publisher, latest, cachePinger = assessments, assessments, redisCache
		}
	}

	var (
		arch           *archive.Archive
		archiver       tracker.Archiver
		archiveQuerier handler.ArchiveQuerier
		archiveWriter  handler.ArchiveWriter
	)
	if cfg.ArchiveEnabled {
		arch, err = archive.New(cfg.ArchiveDir, cfg.ArchiveMaxRecords, cfg.ArchiveFlushInterval, logger)
		if err != nil {
			logger.Error("failed to open archive", "error", err)
			os.Exit(1)
		}
		archiver, archiveQuerier, archiveWriter = arch, arch, arch
	}

	assessor := assess.New(classifier, estimator, engine, generator, weather, logger)
	incidentStore := store.New(cfg.IncidentMaxAge)
	wsHub := hub.NewHub(logger)
	track := tracker.New(assessor, incidentStore, wsHub, publisher, archiver, tracker.Config{
		Interval:    cfg.RecomputeInterval,
		Concurrency: cfg.RecomputeConcurrency,
	}, logger)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerWindow, cfg.RateLimitWindow, cfg.RateLimitWhitelist, handler.ServerStats, logger)
	defer limiter.Close()

	httpHandler := handler.NewHTTPHandler(incidentStore, track).WithLatest(latest)
	assessHandler := handler.NewAssessHandler(assessor, logger)
	archiveHandler := handler.NewArchiveHandler(archiveQuerier, logger)
	wsHandler := handler.NewWSHandler(wsHub, incidentStore, logger)
	healthHandler := handler.NewHealthHandler(track, incidentStore).WithCache(cachePinger)
	statsHandler := handler.NewStatsHandler(incidentStore, wsHub, archiveWriter, limiter)

	api := http.NewServeMux()
	api.HandleFunc("POST /v1/assess", assessHandler.Assess)
	api.HandleFunc("GET /v1/conditions", assessHandler.Conditions)
	api.HandleFunc("GET /v1/profiles", assessHandler.ListProfiles)

	api.HandleFunc("POST /v1/incidents", httpHandler.CreateIncident)
	api.HandleFunc("GET /v1/incidents", httpHandler.ListIncidents)
	api.HandleFunc("GET /v1/incidents/{id}", httpHandler.GetIncident)
	api.HandleFunc("DELETE /v1/incidents/{id}", httpHandler.DeleteIncident)

	api.HandleFunc("GET /v1/archive/stats", archiveHandler.GetStats)
	api.HandleFunc("GET /v1/stats", statsHandler.GetStats)

	mux := http.NewServeMux()
	mux.Handle("/v1/", handler.CountRequests(handler.CORSMiddleware(limiter.Middleware(handler.GzipMiddleware(api)))))
	// WebSocket upgrades must not pass through the gzip writer.
	mux.HandleFunc("GET /v1/ws", wsHandler.ServeWS)
	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); wsHub.Run(ctx) }()
	go func() { defer wg.Done(); track.Run(ctx) }()
	if arch != nil {
		wg.Add(1)
		go func() { defer wg.Done(); arch.Run(ctx) }()
	}

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	cancel()
	wg.Wait()

	if arch != nil {
		if err := arch.Close(); err != nil {
			logger.Error("archive close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
