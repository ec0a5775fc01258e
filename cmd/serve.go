package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"task-archive-system.com/task-archive-system/internal/archive"
	config "task-archive-system.com/task-archive-system/internal/configs"
	httpapi "task-archive-system.com/task-archive-system/internal/http"
	middleware "task-archive-system.com/task-archive-system/internal/http/middlewares"
	repository "task-archive-system.com/task-archive-system/internal/repositories"
	"task-archive-system.com/task-archive-system/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the task API with the hot store and the SQLite archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println(".env file not found, using environment variables")
		}

		cfg := config.Load()

		database := config.NewDatabaseClient(cfg.DatabaseDSN)
		taskRepo := repository.NewTaskRepository(database)

		archiveStore := archive.New(cfg.ArchiveDBPath, cfg.ArchiveBackupDir)
		if err := archiveStore.Initialize(); err != nil {
			log.Fatalf("failed to initialize archive store: %v", err)
		}
		defer func() {
			if err := archiveStore.Close(); err != nil {
				log.Printf("failed to close archive store: %v", err)
			}
		}()

		taskService := services.NewTaskService(taskRepo, archiveStore)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e := echo.New()
		if cfg.RedisAddr != "" {
			redisClient := config.NewRedisClient(cfg.RedisAddr)
			defer redisClient.Close()
			e.Use(middleware.RedisRateLimiter(redisClient, cfg.RateLimit, time.Minute))
		} else {
			e.Use(middleware.RateLimiter(cfg.RateLimit, time.Minute))
		}

		handler := httpapi.NewHandler(taskService)
		httpapi.Register(e, handler)

		go func() {
			log.Printf("HTTP server listening on %s", cfg.AppURL)
			if err := e.Start(cfg.AppURL); err != nil {
				log.Printf("server stopped: %v", err)
			}
		}()

		<-ctx.Done()

		echoCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
		)
		defer cancel()
		_ = e.Shutdown(echoCtx)

		log.Println("HTTP server shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
