package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nvidales/chess-server/internal/config"
	"github.com/nvidales/chess-server/internal/engine"
	"github.com/nvidales/chess-server/internal/events"
	"github.com/nvidales/chess-server/internal/httpapi"
	"github.com/nvidales/chess-server/internal/obslog"
	"github.com/nvidales/chess-server/internal/session"
	"github.com/nvidales/chess-server/internal/store"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		panic(err)
	}
	defer func() { _ = obslog.L().Sync() }()

	cfg, err := config.Load()
	if err != nil {
		obslog.L().Fatal("config_load_error", zap.Error(err))
	}

	var st store.Store
	if cfg.DatabaseURL != "" {
		repo, err := store.NewRepository(cfg.DatabaseURL)
		if err != nil {
			obslog.L().Fatal("store_connect_error", zap.Error(err))
		}
		defer repo.Close()
		st = repo
		obslog.L().Info("store_ready", zap.String("kind", "postgres"))
	} else {
		st = store.NewMemoryStore()
		obslog.L().Warn("store_ready", zap.String("kind", "memory"))
	}

	bus := events.NewBus()
	publishers := events.Multi{bus}
	if cfg.RedisURL != "" {
		rp, err := events.NewRedisPublisher(cfg.RedisURL)
		if err != nil {
			obslog.L().Fatal("redis_connect_error", zap.Error(err))
		}
		defer rp.Close()
		publishers = append(publishers, rp)
		obslog.L().Info("redis_publisher_ready")
	}

	var suggester session.Suggester
	if cfg.EngineURL != "" {
		suggester = engine.NewClient(cfg.EngineURL)
		obslog.L().Info("engine_client_ready", zap.String("url", cfg.EngineURL))
	}

	mgr := session.NewManager(cfg, st, suggester, publishers)
	defer mgr.Close()

	srv := httpapi.NewServer(cfg.ListenAddr, mgr, bus)

	errCh := make(chan error, 1)
	go func() {
		obslog.L().Info("server_listening", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		obslog.L().Info("shutdown_signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			obslog.L().Error("server_error", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		obslog.L().Error("shutdown_error", zap.Error(err))
	}
	obslog.L().Info("server_stopped")
}
