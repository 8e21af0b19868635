package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/tableside/tableside/internal/cache"
	"github.com/tableside/tableside/internal/config"
	"github.com/tableside/tableside/internal/handler"
	"github.com/tableside/tableside/internal/logging"
	"github.com/tableside/tableside/internal/router"
	"github.com/tableside/tableside/internal/shutdown"
	"github.com/tableside/tableside/internal/store"
)

func main() {
	cfg := config.LoadServer()
	logging.SetGlobal(logging.New(cfg.LogLevel, os.Stderr))

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer closeStore()

	var menu handler.MenuStore = st
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, menu cache will fall back to the store")
		}
		menu = cache.NewMenu(st, rdb, cfg.MenuCacheTTL)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router.New(cfg, st, menu),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("listen")
	}
	log.Info().Msg("server stopped")
}

// openStore connects to Postgres when DATABASE_URL is set and falls back to
// an in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Server) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		mem := store.NewMemory()
		if cfg.AdminPassword != "" {
			if _, err := store.SeedAdmin(ctx, mem, cfg.AdminUser, cfg.AdminPassword); err != nil {
				return nil, nil, err
			}
		}
		if _, err := store.SeedMenu(ctx, mem, store.DefaultMenu()); err != nil {
			return nil, nil, err
		}
		return mem, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}

	pg := store.NewPostgres(pool)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	log.Info().Msg("connected to database")
	return pg, pool.Close, nil
}
