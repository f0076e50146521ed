package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/CosmoTheDev/prnotify/internal/config"
	"github.com/CosmoTheDev/prnotify/internal/directory"
	"github.com/CosmoTheDev/prnotify/internal/webhook"
)

const reloadJob = "directory.reload"

// Gateway is the long-running daemon that combines:
//   - the webhook HTTP endpoint that GitHub delivers to
//   - a cron Scheduler (reloading the user directory on schedule)
//   - an SSE stream and status counters for operators
type Gateway struct {
	cfg         *config.Config
	handler     *webhook.Handler
	dir         directory.Directory
	scheduler   *Scheduler
	broadcaster *Broadcaster

	mu           sync.RWMutex
	status       Status
	lastEventAt  time.Time
	lastReloadAt time.Time
	startedAt    time.Time
}

// New creates a Gateway. Call Start() to begin serving.
func New(cfg *config.Config, handler *webhook.Handler, dir directory.Directory) *Gateway {
	return &Gateway{
		cfg:         cfg,
		handler:     handler,
		dir:         dir,
		scheduler:   newScheduler(),
		broadcaster: newBroadcaster(),
		startedAt:   time.Now(),
	}
}

// Start runs the gateway until ctx is cancelled. It:
//  1. Registers the directory reload job and starts the cron scheduler
//  2. Binds the HTTP server (blocks until shutdown)
func (gw *Gateway) Start(ctx context.Context) error {
	addr := gw.cfg.Addr()

	switch expr := gw.cfg.Directory.ReloadSchedule; {
	case expr == "":
	case !directory.Reloadable(gw.dir):
		slog.Warn("gateway: directory.reload_schedule ignored, no reloadable directory source", "schedule", expr)
	default:
		if err := gw.scheduler.Add(reloadJob, expr, func() {
			if err := gw.reloadDirectory("schedule"); err != nil {
				slog.Warn("gateway: scheduled directory reload failed", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("directory.reload_schedule: %w", err)
		}
	}
	gw.scheduler.Start()

	srv := &http.Server{
		Addr:              addr,
		Handler:           buildHandler(gw),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		gw.scheduler.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("gateway: listening", "addr", "http://"+addr, "webhook", "http://"+addr+"/webhook",
		"signature_check", gw.cfg.GitHub.WebhookSecret != "")
	gw.broadcaster.send(SSEEvent{
		Type:    "gateway.started",
		Payload: map[string]string{"addr": "http://" + addr},
	})

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// reloadDirectory re-reads every reloadable directory source and broadcasts
// the outcome. trigger names who asked ("api", "schedule"). A directory
// with nothing to reload returns directory.ErrNotReloadable and is not
// recorded as a reload.
func (gw *Gateway) reloadDirectory(trigger string) error {
	r, ok := gw.dir.(directory.Reloader)
	if !ok || !directory.Reloadable(gw.dir) {
		return directory.ErrNotReloadable
	}
	err := r.Reload()
	if errors.Is(err, directory.ErrNotReloadable) {
		return err
	}

	now := time.Now()
	payload := map[string]any{"trigger": trigger, "at": now.UTC().Format(time.RFC3339)}
	if err != nil {
		payload["error"] = err.Error()
	} else {
		gw.mu.Lock()
		gw.lastReloadAt = now
		gw.mu.Unlock()
		slog.Info("gateway: directory reloaded", "trigger", trigger)
	}
	gw.broadcaster.send(SSEEvent{Type: "directory.reloaded", Payload: payload})
	return err
}

// record folds one handled delivery into the status counters.
func (gw *Gateway) record(res webhook.Result, sendErr error) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	gw.status.Received++
	gw.lastEventAt = time.Now()
	if res.Ignored {
		gw.status.Ignored++
	}
	if sendErr != nil {
		gw.status.SendFailures++
		return
	}
	gw.status.Messages += int64(len(res.Messages))
}

func (gw *Gateway) currentStatus() Status {
	gw.mu.RLock()
	defer gw.mu.RUnlock()
	s := gw.status
	s.UptimeSeconds = int64(time.Since(gw.startedAt).Seconds())
	if !gw.lastEventAt.IsZero() {
		s.LastEventAt = gw.lastEventAt.UTC().Format(time.RFC3339)
	}
	if !gw.lastReloadAt.IsZero() {
		s.LastReloadAt = gw.lastReloadAt.UTC().Format(time.RFC3339)
	}
	if next := gw.scheduler.Next(reloadJob); !next.IsZero() {
		s.NextReloadAt = next.UTC().Format(time.RFC3339)
	}
	s.Subscribers = gw.broadcaster.count()
	return s
}
