package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/CosmoTheDev/prnotify/internal/config"
	"github.com/CosmoTheDev/prnotify/internal/gateway"
	"github.com/CosmoTheDev/prnotify/internal/notify"
	"github.com/CosmoTheDev/prnotify/internal/webhook"
	"github.com/spf13/cobra"
)

var servePort int
var serveLogDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook gateway",
	Long: `Starts the prnotify gateway: a long-running HTTP server that GitHub
delivers pull request webhooks to (default: http://127.0.0.1:6090/webhook).

Point a repository or organisation webhook at /webhook with content type
application/json and the events "Pull requests", "Pull request reviews" and
"Pull request review comments". Set github.webhook_secret to the same secret
to have deliveries verified.

Quick API reference:
  POST /webhook                 GitHub deliveries
  GET  /health                  liveness check
  GET  /api/status              delivery counters
  POST /api/directory/reload    re-read the users file
  GET  /events                  SSE stream of live events`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0,
		"HTTP port to listen on (default 6090, overrides config)")
	serveCmd.Flags().StringVar(&serveLogDir, "log-dir", "logs",
		"directory to write gateway logs for later inspection")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Println("\nShutting down gateway gracefully...")
		cancel()
	}()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logFilePath, closeLog, err := setupGatewayFileLogger(serveLogDir)
	if err != nil {
		return fmt.Errorf("initialising gateway logger: %w", err)
	}
	defer closeLog()

	if servePort > 0 {
		cfg.Gateway.Port = servePort
	}

	dir, closeDir, err := openDirectory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDir()

	dispatcher := notify.FromConfig(cfg, dir)
	if !dispatcher.IsAnyConfigured() {
		return fmt.Errorf("no notification channel configured; set slack.token (or notify.dry_run) and run 'prnotify doctor'")
	}

	addr := cfg.Addr()
	fmt.Printf("prnotify gateway starting\n")
	fmt.Printf("  Webhook    : http://%s/webhook\n", addr)
	fmt.Printf("  Events     : http://%s/events\n", addr)
	fmt.Printf("  Channels   : %s\n", strings.Join(dispatcher.Names(), ", "))
	fmt.Printf("  Logs       : %s\n\n", logFilePath)
	fmt.Println("Press Ctrl+C to stop gracefully.")
	fmt.Println()

	slog.Info("gateway logger initialised", "file", logFilePath)
	gw := gateway.New(cfg, webhook.NewHandler(dispatcher), dir)
	return gw.Start(ctx)
}

func setupGatewayFileLogger(logDir string) (string, func(), error) {
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("creating log dir %s: %w", logDir, err)
	}

	ts := time.Now().UTC().Format("20060102-150405")
	runLogPath := filepath.Join(logDir, fmt.Sprintf("prnotify-%s.log", ts))
	runFile, err := os.OpenFile(runLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", nil, fmt.Errorf("opening run log file: %w", err)
	}

	latestPath := filepath.Join(logDir, "prnotify.log")
	latestFile, err := os.OpenFile(latestPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		_ = runFile.Close()
		return "", nil, fmt.Errorf("opening latest log file: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, runFile, latestFile), &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose,
	})
	slog.SetDefault(slog.New(handler))

	cleanup := func() {
		_ = latestFile.Close()
		_ = runFile.Close()
	}
	return runLogPath, cleanup, nil
}
