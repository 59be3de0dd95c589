package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"scoringapi/internal/api"
	"scoringapi/internal/config"
	"scoringapi/internal/handlers"
	"scoringapi/internal/logger"
	"scoringapi/internal/middleware"
	"scoringapi/internal/server"
	"scoringapi/internal/store"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.LogLevel)

	st := store.NewRedis(store.RedisConfig{
		Host:          cfg.Store.Host,
		Port:          cfg.Store.Port,
		DB:            cfg.Store.DB,
		SocketTimeout: cfg.Store.SocketTimeout,
	}, log)
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := st.Ping(ctx); err != nil {
		// The store is an external shared resource; requests retry on
		// their own, so a dead backend at boot is only worth a warning.
		log.Warn().Err(err).Msg("store is unreachable")
	}

	processor := api.NewProcessor(st, log)
	handler := handlers.NewMethodHandler(processor, log)

	srv := server.NewServer(cfg.ServerAddress, log, handler,
		middleware.MiddlewareLogging(log),
		middleware.MiddlewareCompressing(),
	)

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}
