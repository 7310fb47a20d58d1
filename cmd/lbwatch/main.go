package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sweeplive/leaderboard-stream/internal/archive"
	"github.com/sweeplive/leaderboard-stream/internal/config"
	"github.com/sweeplive/leaderboard-stream/internal/leaderboard"
	"github.com/sweeplive/leaderboard-stream/internal/token"
	"github.com/sweeplive/leaderboard-stream/internal/transport"
	"github.com/sweeplive/leaderboard-stream/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	authToken := flag.String("token", "", "auth token override for this session")
	flag.Parse()

	// .env is optional; real environment variables win either way
	godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting lbwatch",
		"version", version.Version,
		"commit", version.Commit,
		"backend", cfg.Backend.URL,
	)

	tokens, closeTokens, err := buildTokenStore(cfg, logger)
	if err != nil {
		logger.Error("failed to set up token store", "error", err)
		os.Exit(1)
	}
	defer closeTokens()

	svc := leaderboard.NewService(leaderboard.Config{
		BackendURL: cfg.Backend.URL,
		Path:       cfg.Socket.Path,
		Tokens:     tokens,
	}, logger)

	// Console stream
	svc.OnLeaderboardUpdate(func(u leaderboard.Update) {
		logger.Info("leaderboard update",
			"difficulty", u.Difficulty,
			"entries", len(u.Data),
			"updated_user", u.UpdatedUser,
		)
	})
	svc.OnUserRankChange(func(data json.RawMessage) {
		logger.Info("rank change", "payload", string(data))
	})
	svc.OnNewSolve(func(data json.RawMessage) {
		logger.Info("new solve", "payload", string(data))
	})

	// Optional Postgres archive
	var writer *archive.Writer
	if cfg.Archive.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := archive.ConnectPool(ctx, cfg.Archive.Database)
		cancel()
		if err != nil {
			logger.Error("failed to connect archive database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		writer = archive.NewWriter(archive.Config{
			BatchSize:     cfg.Archive.BatchSize,
			FlushInterval: cfg.Archive.FlushInterval,
			BufferSize:    cfg.Archive.BufferSize,
		}, pool, logger)
		writer.Attach(svc)
		if err := writer.Start(context.Background()); err != nil {
			logger.Error("failed to start archive writer", "error", err)
			os.Exit(1)
		}
		logger.Info("archive enabled", "database", cfg.Archive.Database.Name)
	}

	opts := &leaderboard.Options{
		Token:                *authToken,
		Transports:           cfg.Socket.Transports,
		ReconnectionAttempts: cfg.Socket.ReconnectionAttempts,
		ReconnectionDelay:    cfg.Socket.ReconnectionDelay,
		ReconnectionDelayMax: cfg.Socket.ReconnectionDelayMax,
		Timeout:              cfg.Socket.Timeout,
	}
	svc.Connect(func(*transport.Client) {
		logger.Info("streaming leaderboard events, ctrl-c to stop")
	}, opts)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)

	svc.Disconnect()

	if writer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		writer.Stop(ctx)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnv(), nil
	}
	return config.LoadAndValidate(path)
}

func buildTokenStore(cfg *config.Config, logger *slog.Logger) (token.Store, func(), error) {
	if cfg.Token.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		store, err := token.NewRedisStore(ctx, cfg.Token.Redis.Addr, cfg.Token.Redis.Password, cfg.Token.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis token store", "addr", cfg.Token.Redis.Addr)
		return store, func() { store.Close() }, nil
	}

	path := cfg.Token.File
	if path == "" {
		p, err := token.DefaultPath()
		if err != nil {
			return nil, nil, err
		}
		path = p
	}
	logger.Debug("using file token store", "path", path)
	return token.NewFileStore(path), func() {}, nil
}

func logLevel(s string) slog.Level {
	switch s {
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
