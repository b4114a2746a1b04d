package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/linkboard/internal/config"
	"github.com/JonMunkholm/linkboard/internal/core"
	"github.com/JonMunkholm/linkboard/internal/github"
	"github.com/JonMunkholm/linkboard/internal/logging"
	"github.com/JonMunkholm/linkboard/internal/session"
	"github.com/JonMunkholm/linkboard/internal/store"
	"github.com/JonMunkholm/linkboard/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"repo", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo,
		"branch", cfg.GitHub.Branch,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"audit_persistent", cfg.Audit.Persistent(),
	)

	ctx := context.Background()

	client := github.New(github.Options{
		APIBase:           cfg.GitHub.APIBase,
		RawBase:           cfg.GitHub.RawBase,
		Owner:             cfg.GitHub.Owner,
		Repo:              cfg.GitHub.Repo,
		Branch:            cfg.GitHub.Branch,
		Timeout:           cfg.GitHub.Timeout,
		RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
		Burst:             cfg.GitHub.Burst,
	})
	tokens := github.NewTokenSource(github.TokenOptions{
		URL:     cfg.GitHub.TokenURL,
		Static:  cfg.GitHub.Token,
		TTL:     cfg.GitHub.TokenTTL,
		Timeout: cfg.GitHub.Timeout,
	})

	// Audit entries go to Postgres when configured, otherwise to the log.
	var audit core.AuditSink = core.NewLogSink(slog.Default())
	if cfg.Audit.Persistent() {
		pool, err := store.Open(ctx, store.PoolConfig{
			URL:      cfg.Audit.DatabaseURL,
			MaxConns: cfg.Audit.MaxConns,
			MinConns: cfg.Audit.MinConns,
		})
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		slog.Info("connected to database", "name", store.DatabaseName(cfg.Audit.DatabaseURL))

		auditStore := store.NewAuditStore(pool)
		if err := auditStore.Migrate(ctx); err != nil {
			slog.Error("failed to migrate audit table", "error", err)
			os.Exit(1)
		}
		audit = auditStore
	}

	service := core.NewService(client, tokens, audit, core.ServiceConfig{
		DataDir:              cfg.GitHub.DataDir,
		LinksFile:            cfg.GitHub.LinksFile,
		UsersFile:            cfg.GitHub.UsersFile,
		MaxFileSize:          cfg.Upload.MaxFileSize,
		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
		MaxUploadWait:        cfg.Upload.MaxWaitTime,
		UploadTimeout:        cfg.Upload.Timeout,
		LinkCacheTTL:         cfg.GitHub.LinkCacheTTL,
		WorkspaceTTL:         cfg.Session.TTL,
	})

	// A workspace lives exactly as long as the session that owns it.
	sessions := session.NewStore(cfg.Session.TTL)
	sessions.OnEvict(service.DropWorkspace)

	server := web.NewServer(service, sessions, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartRetentionScheduler(jobCtx, core.RetentionConfig{
		RetentionDays: cfg.Audit.RetentionDays,
		CheckInterval: cfg.Audit.CheckInterval,
	})

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Uploads finish their staged-file cleanup before the process exits.
		if status := service.UploadLimiterStatus(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
			if err := service.WaitForUploads(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-shutdownDone
	slog.Info("server stopped")
}
