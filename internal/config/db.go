// internal/config/db.go
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	dbMaxRetries   = 5
	dbInitialDelay = 2 * time.Second
)

// ConnectDB opens the pool, retrying with exponential backoff.
func ConnectDB(ctx context.Context, cfg DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	delay := dbInitialDelay
	for i := 1; i <= dbMaxRetries; i++ {
		logger.Info("connecting to database", zap.Int("attempt", i), zap.Int("max_attempts", dbMaxRetries))

		pool, err := tryConnect(ctx, poolCfg)
		if err == nil {
			logger.Info("database connected")
			return pool, nil
		}
		logger.Warn("database connection failed", zap.Int("attempt", i), zap.Error(err))

		if i < dbMaxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect to DB after %d attempts", dbMaxRetries)
}

func tryConnect(ctx context.Context, poolCfg *pgxpool.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return pool, nil
}
