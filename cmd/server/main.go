package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/hbpc002/log-lottery/internal/adapter/httpserver"
	"github.com/hbpc002/log-lottery/internal/adapter/metrics"
	"github.com/hbpc002/log-lottery/internal/adapter/websocket"
	"github.com/hbpc002/log-lottery/internal/app"
	"github.com/hbpc002/log-lottery/internal/broadcast"
	"github.com/hbpc002/log-lottery/internal/platform/config"
	"github.com/hbpc002/log-lottery/internal/platform/logging"
	"github.com/hbpc002/log-lottery/internal/platform/version"
	"github.com/hbpc002/log-lottery/internal/registry"
	"github.com/jonboulle/clockwork"
)

func runGracefulShutdown(cfg *config.Config, srv *httpserver.Server, broadcaster *broadcast.Broadcaster, listeners *websocket.Handler) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Listener sessions outlive the HTTP server; stopping the topic sends them 1001 and ends their pumps.
		broadcaster.Stop()
		if err := listeners.Wait(shutdownCtx); err != nil {
			slog.Warn("Listener sessions did not finish in time", "error", err, "remaining", listeners.Active())
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func healthChecks(cfg *config.Config, broadcaster *broadcast.Broadcaster, listeners *websocket.Handler) []httpserver.HealthCheck {
	return []httpserver.HealthCheck{
		{
			Name: "broadcaster",
			Check: func(context.Context) error {
				if broadcaster.Stopped() {
					return broadcast.ErrStopped
				}
				return nil
			},
		},
		{
			Name: "listener_capacity",
			Check: func(context.Context) error {
				if n := listeners.Active(); n >= cfg.MaxListeners {
					return fmt.Errorf("listener limit reached (%d/%d)", n, cfg.MaxListeners)
				}
				return nil
			},
		},
	}
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "addr", cfg.Addr(), "version", version.Version)

	reg := metrics.NewRegistry()
	wsMetrics := metrics.NewWebSocketMetrics(reg)

	onDrop := func(subscriptionID uuid.UUID) {
		wsMetrics.MessagesDropped.Inc()
		slog.Debug("Listener lagging, dropped oldest message", "subscription_id", subscriptionID.String())
	}
	broadcaster := broadcast.NewBroadcaster(cfg.BroadcastBufferSize, onDrop)

	submissions := app.NewSubmissions(registry.New(), broadcaster)

	listeners := websocket.NewHandler(broadcaster, websocket.Options{
		MaxListeners: cfg.MaxListeners,
		PingInterval: cfg.WSPingInterval,
		PongTimeout:  cfg.WSPongTimeout,
		WriteTimeout: cfg.WSWriteTimeout,
		CheckOrigin:  websocket.NewCheckOrigin(cfg.Origins(), cfg.AppEnv == "development"),
	}, clock, wsMetrics)

	srv := httpserver.NewServer(cfg, submissions, listeners, reg, healthChecks(cfg, broadcaster, listeners))

	done := runGracefulShutdown(cfg, srv, broadcaster, listeners)

	if err := srv.Start(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Shutdown complete")
}
