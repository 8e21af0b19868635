// Package cache keeps the menu in Redis in front of the store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/tableside/tableside/internal/domain"
)

const menuKey = "tableside:menu"

// Redis is the part of *redis.Client the cache uses.
type Redis interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// MenuSource loads the menu from the system of record.
type MenuSource interface {
	ListMenu(ctx context.Context) ([]domain.MenuItem, error)
	AddMenuItem(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error)
}

// Menu is a read-through cache for the menu. Redis failures fall back to
// the source; they never fail a request.
type Menu struct {
	src MenuSource
	rdb Redis
	ttl time.Duration
}

// NewMenu caches src in rdb for ttl.
func NewMenu(src MenuSource, rdb Redis, ttl time.Duration) *Menu {
	return &Menu{src: src, rdb: rdb, ttl: ttl}
}

func (m *Menu) ListMenu(ctx context.Context) ([]domain.MenuItem, error) {
	cached, err := m.rdb.Get(ctx, menuKey).Result()
	switch {
	case err == nil:
		var menu []domain.MenuItem
		if err := json.Unmarshal([]byte(cached), &menu); err == nil {
			return menu, nil
		}
		log.Warn().Msg("discarding undecodable cached menu")
	case errors.Is(err, redis.Nil):
	default:
		log.Warn().Err(err).Msg("menu cache read failed")
	}

	menu, err := m.src.ListMenu(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(menu)
	if err != nil {
		log.Error().Err(err).Msg("encode menu for cache")
		return menu, nil
	}
	if err := m.rdb.Set(ctx, menuKey, data, m.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("menu cache write failed")
	}
	return menu, nil
}

// AddMenuItem writes through to the source and drops the cached menu.
func (m *Menu) AddMenuItem(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	item, err := m.src.AddMenuItem(ctx, item)
	if err != nil {
		return domain.MenuItem{}, err
	}
	m.Invalidate(ctx)
	return item, nil
}

// Invalidate drops the cached menu.
func (m *Menu) Invalidate(ctx context.Context) {
	if err := m.rdb.Del(ctx, menuKey).Err(); err != nil {
		log.Warn().Err(err).Msg("menu cache invalidate failed")
	}
}
