// internal/usecase/price_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"xrpl-wallet-bot/internal/domain"
	"xrpl-wallet-bot/internal/repository"
)

type PriceFetcher interface {
	FetchHistory(ctx context.Context) ([]domain.PricePoint, error)
}

// PriceUsecase serves the seven day price series through the cache table.
type PriceUsecase struct {
	cache   repository.PriceCacheRepository
	fetcher PriceFetcher
	ttl     time.Duration
	logger  *zap.Logger
}

func NewPriceUsecase(cache repository.PriceCacheRepository, fetcher PriceFetcher, ttl time.Duration, logger *zap.Logger) *PriceUsecase {
	return &PriceUsecase{cache: cache, fetcher: fetcher, ttl: ttl, logger: logger}
}

// History returns cached prices while fresh, otherwise refetches and
// refreshes the cache. An empty series is ErrPriceUnavailable.
func (uc *PriceUsecase) History(ctx context.Context) ([]domain.PricePoint, error) {
	entry, err := uc.cache.Get(ctx, domain.PriceHistoryKey)
	switch {
	case err == nil && len(entry.Prices) > 0:
		priceCacheLookups.WithLabelValues("hit").Inc()
		return entry.Prices, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		uc.logger.Warn("price cache read failed", zap.Error(err))
	}
	priceCacheLookups.WithLabelValues("miss").Inc()

	points, err := uc.fetcher.FetchHistory(ctx)
	if err != nil {
		uc.logger.Warn("price fetch failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrPriceUnavailable, err)
	}
	if len(points) == 0 {
		return nil, domain.ErrPriceUnavailable
	}

	if _, err := uc.cache.Save(ctx, domain.PriceHistoryKey, points, uc.ttl); err != nil {
		uc.logger.Warn("price cache write failed", zap.Error(err))
	}
	return points, nil
}
