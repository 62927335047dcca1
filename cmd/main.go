package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/config"
	"github.com/Dosada05/tournament-engine/db"
	"github.com/Dosada05/tournament-engine/handlers"
	"github.com/Dosada05/tournament-engine/repositories"
	api "github.com/Dosada05/tournament-engine/routes"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/Dosada05/tournament-engine/storage"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("db_driver", cfg.DBDriver))

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to load member catalog", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("member catalog loaded", slog.Int("members", len(catalog.Members)))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DBDriver, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx, dbConn)
	cancelMigrate()
	if err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database ready")

	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// Архив сеток в Cloudflare R2 (опционально)
	var archiver services.Archiver
	if cfg.ArchiveEnabled() {
		uploader, err := storage.NewCloudflareR2Uploader(appCtx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = storage.NewBracketArchiver(uploader)
		logger.Info("bracket archive enabled", slog.String("bucket", cfg.R2BucketName))
	}

	// WebSocket Hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(appCtx)

	// Репозитории
	tx := repositories.NewTransactor(dbConn, logger)
	tournamentRepo := repositories.NewTournamentRepository(dbConn)
	participantRepo := repositories.NewParticipantRepository(dbConn)
	matchRepo := repositories.NewMatchRepository(dbConn)
	teamRepo := repositories.NewTeamRepository(dbConn)
	historyRepo := repositories.NewHistoryRepository(dbConn)
	statsRepo := repositories.NewStatsRepository(dbConn)

	// Сервисы
	pool := services.NewSimulationPool(appCtx, cfg.SimulationWorkers, logger)
	matchService := services.NewMatchService(catalog, logger)
	teamService := services.NewTeamService(teamRepo, catalog, logger)
	historyService := services.NewHistoryService(tx, historyRepo, statsRepo, tournamentRepo, archiver, logger)
	tournamentService := services.NewTournamentService(
		tx,
		tournamentRepo,
		participantRepo,
		matchRepo,
		teamRepo,
		matchService,
		pool,
		historyService,
		wsHub,
		catalog,
		logger,
	)

	scheduler, err := services.StartScheduler(appCtx, tournamentService, cfg.SchedulerInterval, logger)
	if err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	// HTTP
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		handlers.NewTournamentHandler(tournamentService),
		handlers.NewTeamHandler(teamService),
		handlers.NewHistoryHandler(historyService),
		handlers.NewWebSocketHandler(wsHub, tournamentService),
		cfg.JWTSecretKey,
	)
	if cfg.JWTSecretKey == "" {
		logger.Warn("JWT_SECRET_KEY is not set, mutating routes are unauthenticated")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			exitCode = 1
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			exitCode = 1
		}
		cancelShutdown()
	}

	if err := scheduler.Shutdown(); err != nil {
		logger.Error("scheduler shutdown failed", slog.Any("error", err))
	}
	// Незавершённые симуляции подхватит ResumePending при следующем запуске.
	stopApp()
	pool.Wait()
	<-wsHub.Done()

	logger.Info("application exited")
	if exitCode != 0 {
		dbConn.Close()
		os.Exit(exitCode)
	}
}
