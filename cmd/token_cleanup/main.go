package main

import (
	"context"
	"time"

	"equiprent/internal/config"
	"equiprent/internal/pkg/logger"
	"equiprent/internal/repository"
	"equiprent/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("open storage", "error", err)
	}
	defer st.Close()

	n, err := st.RefreshTokens.DeleteExpired(ctx, nil, repository.Now())
	if err != nil {
		log.Fatal("cleanup refresh_tokens failed", "error", err)
	}
	log.Info("token cleanup completed", "backend", st.Backend, "refresh_tokens", n)
}
