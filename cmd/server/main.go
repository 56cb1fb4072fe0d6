package main

import (
	"alcyxob/therapy-app/internal/api"
	"alcyxob/therapy-app/internal/config"
	"alcyxob/therapy-app/internal/logging"
	"alcyxob/therapy-app/internal/metrics"
	"alcyxob/therapy-app/internal/repository"
	"alcyxob/therapy-app/internal/repository/cache"
	"alcyxob/therapy-app/internal/repository/memory"
	"alcyxob/therapy-app/internal/repository/mongo"
	"alcyxob/therapy-app/internal/service"
	"alcyxob/therapy-app/internal/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
)

type repositories struct {
	users    repository.UserRepository
	series   repository.SeriesRepository
	sessions repository.SessionRepository
	postures repository.PostureRepository
	close    func()
}

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Logging.File,
		LogToStdout:   cfg.Logging.Stdout,
		LogLevel:      cfg.Logging.Level,
		LogFormatJSON: cfg.Logging.JSON,
	})
	log.Infof("starting therapy app server, db driver: %s", cfg.Database.Driver)

	if err := run(cfg); err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Println("server exiting")
}

func run(cfg config.Config) error {
	ctx := context.Background()

	// --- Repositories ---
	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	postures := cache.NewPostureCache(repos.postures, cfg.Cache.PostureCacheSize, cfg.Cache.PostureTTL)

	// --- Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.Enabled {
		if fileStorage, err = storage.NewS3Storage(ctx, cfg.S3); err != nil {
			return fmt.Errorf("init s3 storage: %w", err)
		}
	} else {
		log.Info("s3 disabled, posture media references are served as stored")
	}
	media := storage.NewMediaResolver(fileStorage, cfg.S3.PresignExpiry)

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsManager := metrics.NewManager("therapy", "server", registry)

	// --- Services ---
	seriesService := service.NewSeriesService(repos.series, postures, repos.users, media, metricsManager, service.EnrichmentOptions{
		Timeout:     cfg.Execution.EnrichmentTimeout,
		Concurrency: cfg.Execution.EnrichmentConcurrency,
	})
	services := api.Services{
		Auth:     service.NewAuthService(repos.users, cfg.JWT.Secret, cfg.JWT.Expiration),
		Patients: service.NewPatientService(repos.users, repos.series, repos.sessions),
		Series:   seriesService,
		Postures: service.NewPostureService(postures, media),
		Sessions: service.NewSessionService(repos.users, repos.sessions, metricsManager),
		Stats:    service.NewStatsService(repos.users, repos.series, repos.sessions),
	}

	// --- HTTP ---
	gin.SetMode(cfg.Server.Mode)
	router := api.NewRouter(cfg.JWT.Secret, services, metricsManager, registry)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("server listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		log.Infof("received %s, shutting down", sig)
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	hits, misses := postures.Stats()
	log.Infof("posture cache: %d hits, %d misses", hits, misses)
	return nil
}

func openRepositories(ctx context.Context, cfg config.Config) (*repositories, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return &repositories{
			users:    memory.NewUserStore(),
			series:   memory.NewSeriesStore(),
			sessions: memory.NewSessionStore(),
			postures: memory.NewPostureStore(memory.DefaultPostures()),
			close:    func() {},
		}, nil
	}

	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info("database connection established")

	closeDB := func() {
		log.Info("disconnecting mongodb")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Errorf("failed to disconnect mongodb: %v", err)
		}
	}

	setupCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := mongo.EnsureIndexes(setupCtx, appDB); err != nil {
		closeDB()
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	if cfg.Database.SeedPostures {
		if err := mongo.SeedPostures(setupCtx, mongo.PostureCollection(appDB), memory.DefaultPostures()); err != nil {
			closeDB()
			return nil, fmt.Errorf("seed postures: %w", err)
		}
	}

	return &repositories{
		users:    mongo.NewMongoUserRepository(appDB),
		series:   mongo.NewMongoSeriesRepository(appDB),
		sessions: mongo.NewMongoSessionRepository(appDB),
		postures: mongo.NewMongoPostureRepository(appDB),
		close:    closeDB,
	}, nil
}
