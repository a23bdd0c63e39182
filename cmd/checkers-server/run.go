package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/park285/checkers-server/internal/admin"
	"github.com/park285/checkers-server/internal/config"
	"github.com/park285/checkers-server/internal/gamestore"
	"github.com/park285/checkers-server/internal/lobby"
	"github.com/park285/checkers-server/internal/metrics"
	"github.com/park285/checkers-server/internal/obslog"
	"github.com/park285/checkers-server/internal/server"
	"github.com/park285/checkers-server/internal/transport"
)

const shutdownGrace = 10 * time.Second

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "checkers-server",
		Short:         "Two-player checkers over a line protocol",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := obslog.InitFromEnv(); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer obslog.Sync()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if err := applyFlags(cmd, cfg); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	f := cmd.Flags()
	f.String("listen", "", "TCP listen address (LISTEN_ADDR)")
	f.String("ws-listen", "", "WebSocket gateway address (WS_LISTEN_ADDR)")
	f.String("admin", "", "admin HTTP address (ADMIN_ADDR)")
	f.Int("max-players", 0, "player slots (MAX_PLAYERS)")
	f.Int("max-games", 0, "game slots (MAX_GAMES)")
	f.Bool("requeue", false, "re-enter matchmaking after the opponent leaves (REQUEUE_ON_OPPONENT_LEFT)")
	f.String("redis-url", "", "mirror live tables to Redis (REDIS_URL)")
	return cmd
}

// applyFlags overrides cfg with explicitly set flags.
func applyFlags(cmd *cobra.Command, cfg *config.AppConfig) error {
	f := cmd.Flags()
	if f.Changed("listen") {
		cfg.ListenAddr, _ = f.GetString("listen")
	}
	if f.Changed("ws-listen") {
		cfg.WSListenAddr, _ = f.GetString("ws-listen")
	}
	if f.Changed("admin") {
		cfg.AdminAddr, _ = f.GetString("admin")
	}
	if f.Changed("max-players") {
		cfg.MaxPlayers, _ = f.GetInt("max-players")
	}
	if f.Changed("max-games") {
		cfg.MaxGames, _ = f.GetInt("max-games")
	}
	if f.Changed("requeue") {
		cfg.RequeueOnOpponentLeft, _ = f.GetBool("requeue")
	}
	if f.Changed("redis-url") {
		cfg.RedisURL, _ = f.GetString("redis-url")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	return nil
}

func run(ctx context.Context, cfg *config.AppConfig) error {
	log := obslog.L()
	m := metrics.New()
	hubOpts := []lobby.Option{
		lobby.WithRequeue(cfg.RequeueOnOpponentLeft),
		lobby.WithObserver(m),
	}

	var (
		tables admin.TableLister
		mirror *gamestore.Mirror
	)
	if cfg.RedisURL != "" {
		store, err := gamestore.New(ctx, cfg.RedisURL, cfg.TableTTL())
		if err != nil {
			// the mirror is optional; games run without it
			log.Warn("mirror_disabled", zap.Error(err))
		} else {
			defer store.Close()
			mirror = gamestore.NewMirror(store, 0)
			hubOpts = append(hubOpts, lobby.WithObserver(mirror))
			tables = store
		}
	}

	hub := lobby.NewHub(cfg.MaxPlayers, cfg.MaxGames, hubOpts...)
	srv := server.New(hub, m, server.Options{
		MaxLineLength: cfg.MaxLineLength,
		OutboxLimit:   cfg.OutboxLimit,
	})

	errCh := make(chan error, 3)
	if cfg.ListenAddr != "" {
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.ListenAddr); err != nil && !errors.Is(err, server.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	var gateway *http.Server
	if cfg.WSListenAddr != "" {
		gateway = &http.Server{
			Addr:              cfg.WSListenAddr,
			Handler:           transport.NewWebSocketHandler(cfg.MaxLineLength, srv.HandleConn),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info("ws_listen", zap.String("addr", cfg.WSListenAddr))
			if err := gateway.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("ws gateway: %w", err)
			}
		}()
	}

	var adm *admin.Server
	if cfg.AdminAddr != "" {
		adm = admin.New(hub, tables, m.Registry())
		go func() {
			if err := adm.ListenAndServe(cfg.AdminAddr); err != nil {
				log.Warn("admin_stopped", zap.Error(err))
			}
		}()
	}

	log.Info("server_start",
		zap.String("listen", cfg.ListenAddr),
		zap.String("ws_listen", cfg.WSListenAddr),
		zap.String("admin", cfg.AdminAddr),
		zap.Int("max_players", cfg.MaxPlayers),
		zap.Int("max_games", cfg.MaxGames),
		zap.Bool("requeue", cfg.RequeueOnOpponentLeft),
		zap.Bool("mirror", mirror != nil),
	)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if gateway != nil {
		_ = gateway.Shutdown(shutCtx)
	}
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Warn("shutdown_incomplete", zap.Error(err))
	}
	if adm != nil {
		_ = adm.Shutdown(shutCtx)
	}
	if mirror != nil {
		if err := mirror.Close(shutCtx); err != nil {
			log.Warn("mirror_flush_incomplete", zap.Error(err))
		}
	}
	log.Info("server_stop")
	return runErr
}
