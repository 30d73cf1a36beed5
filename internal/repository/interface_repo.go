// internal/repository/interface_repo.go
package repository

import (
	"context"
	"time"

	"xrpl-wallet-bot/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, rec *domain.WalletRecord) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.WalletRecord, error)
}

type PriceCacheRepository interface {
	Get(ctx context.Context, key string) (*domain.PriceCacheEntry, error)
	Save(ctx context.Context, key string, prices []domain.PricePoint, ttl time.Duration) (*domain.PriceCacheEntry, error)
}

type TransferRepository interface {
	Create(ctx context.Context, t *domain.TransferLog) error
	UpdateOutcome(ctx context.Context, id string, status domain.TransferStatus, resultCode, txHash string) error
	ListByTelegramID(ctx context.Context, telegramID int64, limit int) ([]*domain.TransferLog, error)
}
