package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/leavedesk/leavedesk/internal/app"
	"github.com/leavedesk/leavedesk/internal/auth"
	"github.com/leavedesk/leavedesk/internal/directory"
	"github.com/leavedesk/leavedesk/internal/export"
	"github.com/leavedesk/leavedesk/internal/leave"
	"github.com/leavedesk/leavedesk/internal/notify"
	"github.com/leavedesk/leavedesk/internal/platform/db"
	"github.com/leavedesk/leavedesk/internal/shared"
	"github.com/leavedesk/leavedesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "leavedesk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("asynq client", slog.Any("error", err))
	}
	defer func() {
		if jobClient != nil {
			if err := jobClient.Close(); err != nil {
				logger.Warn("asynq client close", slog.Any("error", err))
			}
		}
	}()
	notifier := notify.NewMailNotifier(jobClient, logger)

	leaveRepo := leave.NewRepository(pool)
	leaveService := leave.NewService(leaveRepo, notifier, logger, cfg.AdminEmail)
	leaveHandler := leave.NewHandler(logger, leaveService)

	directoryRepo := directory.NewRepository(pool)
	directoryService := directory.NewService(directoryRepo, logger)
	directoryHandler := directory.NewHandler(logger, directoryService)

	exportHandler := export.NewHandler(logger, leaveService)

	if cfg.SeedFile != "" {
		if err := seedEmployees(ctx, directoryService, cfg.SeedFile); err != nil {
			logger.Error("seed employees", slog.Any("error", err))
			os.Exit(1)
		}
	}

	authService := auth.NewService(cfg.AdminPasswordHash)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		AuthHandler:      authHandler,
		LeaveHandler:     leaveHandler,
		DirectoryHandler: directoryHandler,
		ExportHandler:    exportHandler,
		JobHandler:       jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

type seedEntry struct {
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	JoinDate    string   `json:"join_date"`
	Entitlement *float64 `json:"entitlement"`
}

func seedEmployees(ctx context.Context, service *directory.Service, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var entries []seedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	inputs := make([]directory.CreateInput, 0, len(entries))
	for _, e := range entries {
		input := directory.CreateInput{Name: e.Name, Role: e.Role, Entitlement: e.Entitlement}
		if e.JoinDate != "" {
			joined, err := time.Parse("2006-01-02", e.JoinDate)
			if err != nil {
				return fmt.Errorf("parse join date for %s: %w", e.Name, err)
			}
			input.JoinDate = joined
		}
		inputs = append(inputs, input)
	}
	return service.Seed(ctx, inputs)
}
