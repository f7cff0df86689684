package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"botarena/server"
	"botarena/server/application"
	"botarena/server/config"
	"botarena/server/domain"
	"botarena/server/engine"
	"botarena/server/handler"
	"botarena/server/telemetry"
)

const (
	defaultRoomID   domain.RoomID = "default"
	pubsubBuffer                  = 256
	shutdownTimeout               = 10 * time.Second
	// drainTimeout はバトル終了後、結果を書き切るまで接続を待つ時間です。
	drainTimeout = 2 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OTLPEndpoint,
		Level:       cfg.LogLevel,
		Writer:      os.Stdout,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Error("telemetry shutdown failed", "err", err)
		}
	}()

	arena, err := engine.NewArena(cfg.Rules, cfg.Walls, cfg.Roster, cfg.Seed)
	if err != nil {
		return err
	}
	var verifier application.IdentityVerifier
	if cfg.TokenSecret != "" {
		v, err := handler.NewTokenVerifier(cfg.TokenSecret)
		if err != nil {
			return err
		}
		verifier = v
	}
	app := application.NewBattleApplication(arena, verifier)

	pubsub := domain.NewSimplePubSub(pubsubBuffer)
	room, err := domain.NewRoom(defaultRoomID, pubsub, app, domain.RoomConfig{
		TickInterval: cfg.TickInterval,
		TurnTimeout:  cfg.TurnTimeout,
	})
	if err != nil {
		return err
	}

	// WebSocket接続はバトル終了後の書き出しが終わるまで生かしておく
	connCtx, closeConns := context.WithCancel(context.Background())
	defer closeConns()
	routes := server.Route(pubsub, room, domain.EndpointConfig{
		PingInterval: cfg.PingInterval,
		IdleTimeout:  cfg.IdleTimeout,
	})
	s := server.NewServer(connCtx, cfg.ListenAddr(), routes)

	battleCtx, endBattle := context.WithCancel(ctx)
	defer endBattle()
	eg, egCtx := errgroup.WithContext(battleCtx)
	eg.Go(func() error {
		defer endBattle()
		return room.Run(egCtx)
	})
	eg.Go(func() error {
		slog.InfoContext(ctx, "server listening", "addr", cfg.ListenAddr(), "bots", len(cfg.Roster), "walls", len(cfg.Walls))
		if err := s.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		slog.InfoContext(ctx, "shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(ctx, "graceful shutdown failed", "error", err)
			if err := s.Close(); err != nil {
				slog.ErrorContext(ctx, "forced close failed", "error", err)
			}
		}
		time.Sleep(drainTimeout)
		closeConns()
		return nil
	})

	if err := eg.Wait(); err != nil {
		return err
	}
	slog.InfoContext(ctx, "server shutdown complete", "ticks", room.Ticks())
	return nil
}
