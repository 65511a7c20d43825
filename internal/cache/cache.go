// Package cache provides a read-through cache for the medicine catalogue.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"medistore/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	// CatalogKey is the Redis key holding the serialised catalogue.
	CatalogKey = "medistore:catalog"

	// GenerationKey counts invalidations of the catalogue.
	GenerationKey = "medistore:catalog:gen"
)

// Generation identifies the cache state a reader observed. A catalogue read
// from the database may only be stored under the generation seen before the
// read, so a write that races an invalidation is dropped.
type Generation int64

// Catalog caches the full medicine list.
type Catalog interface {
	// Get returns the cached catalogue, the current generation and whether
	// the catalogue was present.
	Get(ctx context.Context) ([]model.Medicine, Generation, bool, error)

	// Set stores the catalogue unless it was invalidated after gen.
	Set(ctx context.Context, gen Generation, medicines []model.Medicine) error

	// Invalidate drops the cached catalogue and advances the generation.
	Invalidate(ctx context.Context) error
}

// redisCatalog implements Catalog on Redis.
type redisCatalog struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisCatalog creates a Redis-backed catalogue cache.
func NewRedisCatalog(client *redis.Client, ttl time.Duration, logger zerolog.Logger) Catalog {
	return &redisCatalog{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("cache", "catalog").Logger(),
	}
}

func (c *redisCatalog) Get(ctx context.Context) ([]model.Medicine, Generation, bool, error) {
	vals, err := c.client.MGet(ctx, CatalogKey, GenerationKey).Result()
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to read catalogue cache")
		return nil, 0, false, fmt.Errorf("failed to read catalogue cache: %w", err)
	}

	var gen Generation
	if raw, ok := vals[1].(string); ok {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, 0, false, fmt.Errorf("failed to parse catalogue generation: %w", err)
		}
		gen = Generation(n)
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, gen, false, nil
	}

	var medicines []model.Medicine
	if err := json.Unmarshal([]byte(raw), &medicines); err != nil {
		c.logger.Warn().Err(err).Msg("discarding corrupt catalogue cache entry")
		return nil, gen, false, nil
	}

	return medicines, gen, true, nil
}

func (c *redisCatalog) Set(ctx context.Context, gen Generation, medicines []model.Medicine) error {
	data, err := json.Marshal(medicines)
	if err != nil {
		return fmt.Errorf("failed to encode catalogue: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, GenerationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if Generation(current) != gen {
			c.logger.Debug().Int64("seen", int64(gen)).Int64("current", current).Msg("skipping stale catalogue write")
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, CatalogKey, data, c.ttl)
			return nil
		})
		return err
	}, GenerationKey)

	if errors.Is(err, redis.TxFailedErr) {
		c.logger.Debug().Msg("catalogue invalidated during write, skipping")
		return nil
	}
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to write catalogue cache")
		return fmt.Errorf("failed to write catalogue cache: %w", err)
	}

	return nil
}

func (c *redisCatalog) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, CatalogKey)
		pipe.Incr(ctx, GenerationKey)
		return nil
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to invalidate catalogue cache")
		return fmt.Errorf("failed to invalidate catalogue cache: %w", err)
	}

	c.logger.Debug().Msg("catalogue cache invalidated")
	return nil
}

// nopCatalog is used when caching is disabled.
type nopCatalog struct{}

// NewNop returns a Catalog that never holds anything.
func NewNop() Catalog {
	return nopCatalog{}
}

func (nopCatalog) Get(context.Context) ([]model.Medicine, Generation, bool, error) {
	return nil, 0, false, nil
}

func (nopCatalog) Set(context.Context, Generation, []model.Medicine) error { return nil }

func (nopCatalog) Invalidate(context.Context) error { return nil }
