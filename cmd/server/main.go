// Mailcore - mail web-app application server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ashureev/mailcore/internal/admin"
	"github.com/ashureev/mailcore/internal/config"
	"github.com/ashureev/mailcore/internal/eventloop"
	"github.com/ashureev/mailcore/internal/mail"
	"github.com/ashureev/mailcore/internal/router"
	"github.com/ashureev/mailcore/internal/session"
	"github.com/ashureev/mailcore/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logSink, closeLog, err := openLogSink(cfg.LogTarget)
	if err != nil {
		slog.Error("Failed to open log target", "target", cfg.LogTarget, "error", err)
		os.Exit(1)
	}
	defer closeLog()
	logger := slog.New(slog.NewJSONHandler(logSink, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting server", "addr", cfg.ListenAddress, "port", cfg.Port, "backend", cfg.Backend)

	// Initialize dependencies.
	var repo store.Repository
	switch cfg.Backend {
	case config.BackendRelational:
		repo, err = store.NewSQLite(cfg.RelationalDSN)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
	default:
		repo = store.NewMemory()
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Backend health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Backend connected")

	// Initialize services.
	sessions := session.New(repo)
	mailSvc := mail.New(repo, cfg.DataDir)
	rt := router.New(repo, sessions, mailSvc, cfg.StaticDir, cfg.TemplateDir)

	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		slog.Error("Invalid port", "port", cfg.Port, "error", err)
		os.Exit(1)
	}

	loop, err := eventloop.New(eventloop.Config{
		ListenAddress:  cfg.ListenAddress,
		Port:           port,
		MaxConnections: cfg.MaxConnections,
		ThreadPoolSize: cfg.ThreadPoolSize,
		Handler:        rt,
	})
	if err != nil {
		slog.Error("Failed to bind listener", "error", err)
		os.Exit(1)
	}

	// Optional admin/debug surface, plain net/http on its own port.
	var adminSrv *http.Server
	if cfg.AdminAddress != "" {
		adminSrv = admin.NewServer(cfg.AdminAddress, repo, loop)
		go func() {
			slog.Info("Admin listening", "addr", cfg.AdminAddress)
			if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Admin server failed", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- loop.Run()
	}()

	select {
	case err := <-loopErr:
		if err != nil {
			slog.Error("Event loop failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		stop()
		slog.Info("Shutting down gracefully...")
		loop.Stop()
		<-loopErr
	}

	if adminSrv != nil {
		if err := adminSrv.Close(); err != nil {
			slog.Error("Admin server close failed", "error", err)
		}
	}
	if err := loop.Close(); err != nil {
		slog.Error("Event loop close failed", "error", err)
	}

	slog.Info("Server stopped successfully")
}

// openLogSink resolves the configured log target to a writer: "stdout",
// "stderr", or a file path opened for append.
func openLogSink(target string) (*os.File, func(), error) {
	switch target {
	case "", "stdout":
		return os.Stdout, func() {}, nil
	case "stderr":
		return os.Stderr, func() {}, nil
	default:
		f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	}
}
