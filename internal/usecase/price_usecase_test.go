package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"xrpl-wallet-bot/internal/domain"
)

func samplePoints() []domain.PricePoint {
	return []domain.PricePoint{
		{Time: time.Unix(1700000000, 0), PriceUSD: decimal.RequireFromString("0.60")},
		{Time: time.Unix(1700086400, 0), PriceUSD: decimal.RequireFromString("0.66")},
	}
}

func TestPriceHistoryMissThenHit(t *testing.T) {
	now := time.Now()
	cache := &memPriceCache{now: func() time.Time { return now }}
	fetcher := &stubFetcher{points: samplePoints()}
	uc := NewPriceUsecase(cache, fetcher, 15*time.Minute, zaptest.NewLogger(t))

	got, err := uc.History(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 1, cache.saves)

	_, err = uc.History(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls, "fresh entry served from cache")
}

func TestPriceHistoryRefetchesWhenStale(t *testing.T) {
	now := time.Now()
	cache := &memPriceCache{now: func() time.Time { return now }}
	fetcher := &stubFetcher{points: samplePoints()}
	uc := NewPriceUsecase(cache, fetcher, 15*time.Minute, zaptest.NewLogger(t))

	_, err := uc.History(context.Background())
	require.NoError(t, err)
	firstID := cache.entry.ID

	now = now.Add(16 * time.Minute)
	_, err = uc.History(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, firstID, cache.entry.ID)
}

func TestPriceHistoryUnavailable(t *testing.T) {
	cache := &memPriceCache{now: time.Now}

	uc := NewPriceUsecase(cache, &stubFetcher{err: errors.New("rate limited")}, time.Minute, zaptest.NewLogger(t))
	_, err := uc.History(context.Background())
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)

	uc = NewPriceUsecase(cache, &stubFetcher{}, time.Minute, zaptest.NewLogger(t))
	_, err = uc.History(context.Background())
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
	assert.Zero(t, cache.saves)
}
