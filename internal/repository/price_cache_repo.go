// internal/repository/price_cache_repo.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"xrpl-wallet-bot/internal/domain"
)

type PriceCacheRepo struct {
	pool *pgxpool.Pool
}

func NewPriceCacheRepository(pool *pgxpool.Pool) *PriceCacheRepo {
	return &PriceCacheRepo{pool: pool}
}

// Get returns the entry for key if it has not expired, else ErrNotFound.
func (r *PriceCacheRepo) Get(ctx context.Context, key string) (*domain.PriceCacheEntry, error) {
	query := `
		SELECT id, cache_key, price_data, last_updated, expires_at
		FROM price_cache
		WHERE cache_key = $1 AND expires_at > NOW()
	`

	entry := &domain.PriceCacheEntry{}
	var raw []byte
	err := r.pool.QueryRow(ctx, query, key).Scan(
		&entry.ID,
		&entry.CacheKey,
		&raw,
		&entry.LastUpdated,
		&entry.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get price cache: %w", err)
	}

	if err := json.Unmarshal(raw, &entry.Prices); err != nil {
		return nil, fmt.Errorf("corrupt price cache entry %s: %w", key, err)
	}
	return entry, nil
}

// Save upserts the series for key. An existing row keeps its id.
func (r *PriceCacheRepo) Save(ctx context.Context, key string, prices []domain.PricePoint, ttl time.Duration) (*domain.PriceCacheEntry, error) {
	raw, err := json.Marshal(prices)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prices: %w", err)
	}

	query := `
		INSERT INTO price_cache (cache_key, price_data, last_updated, expires_at)
		VALUES ($1, $2, NOW(), NOW() + make_interval(secs => $3))
		ON CONFLICT (cache_key) DO UPDATE
		SET price_data   = EXCLUDED.price_data,
		    last_updated = EXCLUDED.last_updated,
		    expires_at   = EXCLUDED.expires_at
		RETURNING id, last_updated, expires_at
	`

	entry := &domain.PriceCacheEntry{CacheKey: key, Prices: prices}
	err = r.pool.QueryRow(ctx, query, key, raw, ttl.Seconds()).Scan(&entry.ID, &entry.LastUpdated, &entry.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save price cache: %w", err)
	}
	return entry, nil
}
