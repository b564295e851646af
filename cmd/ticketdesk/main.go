package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rpggio/ticketdesk/internal/apiclient"
	"github.com/rpggio/ticketdesk/internal/config"
	"github.com/rpggio/ticketdesk/internal/domain/notification"
	"github.com/rpggio/ticketdesk/internal/domain/session"
	"github.com/rpggio/ticketdesk/internal/domain/ticket"
	"github.com/rpggio/ticketdesk/internal/domain/workflow"
	"github.com/rpggio/ticketdesk/internal/mcp"
	"github.com/rpggio/ticketdesk/internal/restapi"
	"github.com/rpggio/ticketdesk/internal/sqlite"
	"github.com/rpggio/ticketdesk/internal/transport"
	"github.com/spf13/pflag"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file (overrides TICKETDESK_CONFIG_PATH)")
	transportMode := pflag.StringP("transport", "t", "", "transport mode: stdio or http")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *transportMode != "" {
		cfg.Transport.Mode = *transportMode
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
			os.Exit(1)
		}
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client, err := apiclient.New(apiclient.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Metrics: apiclient.NewMetrics(registry),
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to create api client", "error", err)
		os.Exit(1)
	}

	sessionStore := session.NewStore(restapi.NewAuth(client), sqlite.NewTokenRepository(db, cfg.API.BaseURL), logger)
	client.BindSession(sessionStore)
	restoreSession(logger, sessionStore)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Session:       sessionStore,
			Tickets:       ticket.NewStore(restapi.NewTickets(client), cfg.API.PageSize, logger),
			Notifications: notification.NewStore(restapi.NewNotifications(client), cfg.API.PageSize, logger),
			Workflows:     workflow.NewService(restapi.NewWorkflows(client), logger),
		},
		Version: version,
		Logger:  logger,
	})

	if cfg.Transport.Mode == "stdio" {
		runStdioMode(logger, mcpServer)
	} else {
		runHTTPMode(logger, mcpServer, registry, cfg.Server)
	}
}

// restoreSession reloads a persisted token and loads its profile. Any
// profile failure clears the session and the user logs in again.
func restoreSession(logger *slog.Logger, store *session.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.Restore(ctx); err != nil {
		logger.Warn("failed to restore session", "error", err)
		return
	}
	if !store.IsLoggedIn() {
		return
	}
	if _, err := store.FetchProfile(ctx); err != nil {
		logger.Warn("restored session rejected", "error", err)
		return
	}
	logger.Info("session restored", "permissions", len(store.Permissions()))
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport", "version", version)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("stdio server error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}

func runHTTPMode(logger *slog.Logger, mcpServer *sdkmcp.Server, registry *prometheus.Registry, cfg config.ServerConfig) {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)

	var auth func(http.Handler) http.Handler
	if cfg.AuthToken != "" {
		auth = transport.AuthMiddleware(transport.StaticToken(cfg.AuthToken))
	}
	router := transport.NewServer(mcpHandler, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), auth)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr, "auth", cfg.AuthToken != "", "version", version)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
