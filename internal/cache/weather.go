package cache

import (
	"context"
	"log/slog"
	"time"

	"seadrift/internal/domain"
)

// JSONStore is the subset of RedisCache used by the decorators here
type JSONStore interface {
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
}

type WeatherSource interface {
	Current(ctx context.Context, pos domain.Coordinate) (domain.Weather, error)
}

// HitCounter receives cache hit and miss notifications
type HitCounter interface {
	IncCacheHits()
	IncCacheMisses()
}

// CachedWeather serves observations from the cache when present and stores
// fresh ones from the source. Cache errors fall through to the source and
// fallback records are never stored.
type CachedWeather struct {
	source WeatherSource
	cache  JSONStore
	ttl    time.Duration
	stats  HitCounter
	logger *slog.Logger
}

func NewCachedWeather(source WeatherSource, cache JSONStore, ttl time.Duration, stats HitCounter, logger *slog.Logger) *CachedWeather {
	return &CachedWeather{
		source: source,
		cache:  cache,
		ttl:    ttl,
		stats:  stats,
		logger: logger.With("component", "weather_cache"),
	}
}

func (c *CachedWeather) Current(ctx context.Context, pos domain.Coordinate) (domain.Weather, error) {
	key := KeyWeather(pos)

	var cached domain.Weather
	found, err := c.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		c.logger.Warn("weather cache read failed", "key", key, "error", err)
	}
	if found {
		c.hit()
		return cached, nil
	}
	c.miss()

	w, err := c.source.Current(ctx, pos)
	if err != nil {
		return domain.Weather{}, err
	}
	if !w.Fallback {
		if err := c.cache.SetJSON(ctx, key, w, c.ttl); err != nil {
			c.logger.Warn("weather cache write failed", "key", key, "error", err)
		}
	}
	return w, nil
}

func (c *CachedWeather) hit() {
	if c.stats != nil {
		c.stats.IncCacheHits()
	}
}

func (c *CachedWeather) miss() {
	if c.stats != nil {
		c.stats.IncCacheMisses()
	}
}
