package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	// Application
	"github.com/aratrikkk/UrjaBharat/internal/application/engine"
	applicationPort "github.com/aratrikkk/UrjaBharat/internal/application/port"
	"github.com/aratrikkk/UrjaBharat/internal/application/usecase"

	// Infrastructure
	redisCache "github.com/aratrikkk/UrjaBharat/internal/infrastructure/cache/redis"
	"github.com/aratrikkk/UrjaBharat/internal/infrastructure/collector"
	natsInfra "github.com/aratrikkk/UrjaBharat/internal/infrastructure/messaging/nats"
	"github.com/aratrikkk/UrjaBharat/internal/infrastructure/narrator"
	wsInfra "github.com/aratrikkk/UrjaBharat/internal/infrastructure/notification/websocket"
	"github.com/aratrikkk/UrjaBharat/internal/infrastructure/observability/cloudwatch"
	consolemetrics "github.com/aratrikkk/UrjaBharat/internal/infrastructure/observability/prometheus"
	s3storage "github.com/aratrikkk/UrjaBharat/internal/infrastructure/storage/s3"

	// Interfaces
	httpInterface "github.com/aratrikkk/UrjaBharat/internal/interfaces/http"
	"github.com/aratrikkk/UrjaBharat/internal/interfaces/http/handler"
	"github.com/aratrikkk/UrjaBharat/internal/interfaces/http/middleware"

	// Shared
	"github.com/aratrikkk/UrjaBharat/pkg/config"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

func main() {
	// 1. Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализируем logger
	log := logger.New(os.Getenv("LOG_LEVEL"))
	log.Info("Starting Compressor Console")

	// 3. Профиль генерации и стартовые директивы
	profileFile, err := config.LoadProfileFile(cfg.Simulation.ProfileFile)
	if err != nil {
		log.Error("Failed to load generation profile", err)
		os.Exit(1)
	}
	profile, err := buildProfile(profileFile)
	if err != nil {
		log.Error("Failed to build generation profile", err)
		os.Exit(1)
	}

	seeds, err := config.LoadDirectiveSeeds(cfg.Directives.SeedFile)
	if err != nil {
		log.Error("Failed to load directives", err)
		os.Exit(1)
	}
	directives, err := buildDirectives(seeds)
	if err != nil {
		log.Error("Failed to build directives", err)
		os.Exit(1)
	}

	// 4. Dependency Injection - Infrastructure Layer

	// CloudWatch Logs Publisher
	if cfg.CloudWatch.LogsEnabled {
		logsPublisher, initErr := cloudwatch.NewLogsPublisher(context.Background(),
			cloudwatch.LogsPublisherConfig{
				LogGroupName:    cfg.CloudWatch.LogGroupName,
				LogStreamName:   cfg.CloudWatch.LogStreamName,
				Region:          cfg.CloudWatch.Region,
				Endpoint:        cfg.CloudWatch.Endpoint,
				AccessKeyID:     cfg.CloudWatch.AccessKeyID,
				SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
				BufferSize:      cfg.CloudWatch.LogsBufferSize,
				FlushInterval:   cfg.CloudWatch.LogsFlushInterval,
				AutoCreate:      true,
			})
		if initErr != nil {
			log.Error("Failed to initialize CloudWatch logs publisher", initErr)
			os.Exit(1)
		}
		defer func() {
			log.SetLogPublisher(nil)
			closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			_ = logsPublisher.Close(closeCtx)
		}()
		log.SetLogPublisher(logsPublisher)
		log.Info("CloudWatch logs publisher initialized")
	} else {
		log.Warn("CloudWatch logs publishing is disabled")
	}

	// CloudWatch Metrics Publisher
	var metricsPublisher applicationPort.MetricsPublisher
	if cfg.CloudWatch.MetricsEnabled {
		publisherImpl, initErr := cloudwatch.NewMetricsPublisher(context.Background(),
			cloudwatch.MetricsPublisherConfig{
				Namespace:         cfg.CloudWatch.MetricsNamespace,
				Region:            cfg.CloudWatch.Region,
				Endpoint:          cfg.CloudWatch.Endpoint,
				AccessKeyID:       cfg.CloudWatch.AccessKeyID,
				SecretAccessKey:   cfg.CloudWatch.SecretAccessKey,
				DefaultDimensions: cfg.CloudWatch.MetricsDimensions,
				BufferSize:        cfg.CloudWatch.MetricsBufferSize,
				FlushInterval:     cfg.CloudWatch.MetricsFlushInterval,
				StorageResolution: cfg.CloudWatch.MetricsStorageResolution,
			}, log)
		if initErr != nil {
			log.Error("Failed to initialize CloudWatch metrics publisher", initErr)
			os.Exit(1)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			_ = publisherImpl.Close(closeCtx)
		}()
		metricsPublisher = publisherImpl
		log.Info("CloudWatch metrics publisher initialized")
	} else {
		log.Warn("CloudWatch metrics publishing is disabled")
	}

	// Narrator (Gemini) с кешем в Redis
	if !cfg.Narrator.Enabled {
		cfg.Narrator.APIKey = ""
		log.Warn("Narrator is disabled, fallback texts will be used")
	}
	var consoleNarrator applicationPort.Narrator = narrator.NewGeminiClient(narrator.Config{
		BaseURL:     cfg.Narrator.BaseURL,
		Model:       cfg.Narrator.Model,
		APIKey:      cfg.Narrator.APIKey,
		Timeout:     cfg.Narrator.Timeout,
		Temperature: cfg.Narrator.Temperature,
	})

	if cfg.Redis.Enabled {
		cache, initErr := redisCache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Narrator.CacheTTL)
		if initErr != nil {
			log.Warn("Failed to connect to Redis, narrator cache disabled", "error", initErr.Error())
		} else {
			defer cache.Close()
			consoleNarrator = narrator.NewCachedNarrator(consoleNarrator, cache, cfg.Narrator.CacheTTL, log)
			log.Info("Narrator cache initialized", "addr", cfg.Redis.Addr)
		}
	} else {
		log.Warn("Redis narrator cache is disabled")
	}

	// NATS Event Publisher
	var eventPublisher applicationPort.EventPublisher
	if cfg.NATS.Enabled {
		publisherImpl, initErr := natsInfra.NewNATSPublisher(cfg.NATS.URL, log)
		if initErr != nil {
			log.Warn("Failed to connect to NATS, continuing without event publishing", "error", initErr.Error())
		} else {
			eventPublisher = publisherImpl
			defer eventPublisher.Close()
			log.Info("NATS event publisher initialized", "url", cfg.NATS.URL)
		}
	} else {
		log.Warn("NATS event publishing is disabled")
	}

	// S3 архив отчетов о передаче смены
	var reportArchive applicationPort.ReportArchive
	if cfg.Archive.Enabled {
		archiveImpl, initErr := s3storage.NewReportArchive(context.Background(), s3storage.Config{
			Bucket:          cfg.Archive.Bucket,
			Region:          cfg.Archive.Region,
			Endpoint:        cfg.Archive.Endpoint,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
			UsePathStyle:    cfg.Archive.UsePathStyle,
		})
		if initErr != nil {
			log.Error("Failed to initialize report archive", initErr)
			os.Exit(1)
		}
		reportArchive = archiveImpl
	} else {
		log.Warn("S3 report archive is disabled, handover documents stay in memory")
	}

	// Prometheus
	metrics := consolemetrics.New(nil)

	// WebSocket Hub
	hub := wsInfra.NewHub(log)

	// Host stats
	hostCollector := collector.NewHostCollector()

	// 5. Dependency Injection - Application Layer (Engine + Use Cases)

	consoleEngine, err := engine.New(
		engine.Config{
			TickInterval:     cfg.Simulation.TickInterval,
			AnalysisInterval: cfg.Analysis.Interval,
			WindowCapacity:   cfg.Simulation.WindowCapacity,
			UnitEnergyCost:   cfg.Simulation.UnitEnergyCost,
			CurrencyRate:     cfg.Simulation.CurrencyRate,
			Analysis: usecase.RunAnalysisConfig{
				PeriodicSample: cfg.Analysis.PeriodicSample,
				OnDemandSample: cfg.Analysis.OnDemandSample,
				MinReadings:    cfg.Analysis.MinReadings,
			},
			StrictFreshness:   cfg.Analysis.StrictFreshness,
			PlantContext:      cfg.Narrator.PlantContext,
			HandoverKeyPrefix: cfg.Archive.KeyPrefix,
		},
		profile,
		directives,
		engine.Collaborators{
			Narrator:         consoleNarrator,
			Notifications:    hub,
			Events:           eventPublisher,   // Can be nil if NATS disabled
			MetricsPublisher: metricsPublisher, // Can be nil if CloudWatch disabled
			Archive:          reportArchive,    // Can be nil if S3 disabled
			Metrics:          metrics,
		},
		log,
	)
	if err != nil {
		log.Error("Failed to build console engine", err)
		os.Exit(1)
	}

	// 6. Dependency Injection - Interfaces Layer (HTTP Handlers)

	authConfig := middleware.AuthConfig{
		Enabled:     cfg.Security.AuthEnabled,
		BearerToken: cfg.Security.AuthToken,
		OnFailure:   metrics.AuthFailures.Inc,
	}

	dashboardHandler := handler.NewDashboardHandler(consoleEngine.Snapshots(), log)
	websocketHandler := handler.NewWebSocketHandler(hub, consoleEngine.Snapshots(), cfg.Security.AllowedOrigins, log)
	consoleAPIHandler := handler.NewConsoleAPIHandler(
		consoleEngine.Snapshots(),
		consoleEngine.Analysis(),
		consoleEngine.Anomaly(),
		consoleEngine.Directives(),
		consoleEngine.Handover(),
		hostCollector,
		log,
	)
	authAPIHandler := handler.NewAuthAPIHandler(authConfig, log)
	healthHandler := handler.NewHealthHandler(consoleEngine)

	// Router
	router := httpInterface.NewRouter(
		dashboardHandler,
		websocketHandler,
		consoleAPIHandler,
		authAPIHandler,
		healthHandler,
		metrics,
		authConfig,
		cfg.RateLimit,
		log,
	)

	// 7. Запускаем фоновые процессы

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запускаем WebSocket hub
	go hub.Run(ctx)
	log.Info("WebSocket hub started")

	// Запускаем прием показаний и периодический анализ
	if err := consoleEngine.Start(ctx); err != nil {
		log.Error("Failed to start console engine", err)
		os.Exit(1)
	}

	// 8. Настраиваем HTTP сервер

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Канал для получения сигналов ОС
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)

	// Запускаем сервер в отдельной goroutine
	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port)
		log.Info("Console available at http://localhost:" + cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 9. Ожидаем сигнал для graceful shutdown

	select {
	case <-sigChan:
		log.Info("Shutdown signal received, starting graceful shutdown...")
	case err := <-serverErr:
		log.Error("HTTP server failed", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	// Останавливаем таймеры; поздние ответы аналитика будут отброшены
	if err := consoleEngine.Close(shutdownCtx); err != nil {
		log.Warn("Engine shutdown incomplete", "error", err.Error())
	}

	// Останавливаем hub после ядра, чтобы последние уведомления не блокировались
	cancel()

	log.Info("Console stopped gracefully")
}
