// internal/usecase/wallet_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"xrpl-wallet-bot/internal/domain"
	"xrpl-wallet-bot/internal/lock"
	"xrpl-wallet-bot/internal/publisher"
	"xrpl-wallet-bot/internal/repository"
)

const provisionLockTTL = 2 * time.Minute

// SeedSealer encrypts seeds before they are stored.
type SeedSealer interface {
	Encrypt(plaintext string) (string, error)
}

type WalletUsecase struct {
	users     repository.UserRepository
	ledger    domain.Ledger
	sealer    SeedSealer
	locker    lock.Locker
	publisher publisher.Publisher
	logger    *zap.Logger
}

func NewWalletUsecase(
	users repository.UserRepository,
	ledger domain.Ledger,
	sealer SeedSealer,
	locker lock.Locker,
	pub publisher.Publisher,
	logger *zap.Logger,
) *WalletUsecase {
	return &WalletUsecase{
		users:     users,
		ledger:    ledger,
		sealer:    sealer,
		locker:    locker,
		publisher: pub,
		logger:    logger,
	}
}

// GetWallet returns ErrUserNotFound when the identity has no wallet.
func (uc *WalletUsecase) GetWallet(ctx context.Context, telegramID int64) (*domain.WalletRecord, error) {
	return uc.users.GetByTelegramID(ctx, telegramID)
}

// CreateWallet provisions, funds and stores a wallet for telegramID.
// If one already exists it is returned together with ErrDuplicateUser.
func (uc *WalletUsecase) CreateWallet(ctx context.Context, telegramID int64) (*domain.WalletRecord, error) {
	timer := prometheus.NewTimer(usecaseDuration.WithLabelValues("create_wallet"))
	defer timer.ObserveDuration()

	release, err := uc.locker.Acquire(ctx, fmt.Sprintf("wallet:%d", telegramID), provisionLockTTL)
	switch {
	case errors.Is(err, lock.ErrLocked):
		return nil, domain.ErrInProgress
	case err != nil:
		// The unique constraint still guards the record.
		uc.logger.Warn("provisioning lock unavailable", zap.Int64("telegram_id", telegramID), zap.Error(err))
		release = func() {}
	}
	defer release()

	existing, err := uc.users.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return existing, domain.ErrDuplicateUser
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	uc.logger.Info("provisioning wallet", zap.Int64("telegram_id", telegramID))

	acct, err := uc.ledger.ProvisionAccount(ctx)
	if err != nil {
		walletsProvisioned.WithLabelValues("failed").Inc()
		uc.logger.Warn("wallet provisioning failed", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return nil, err
	}

	encryptedSeed, err := uc.sealer.Encrypt(acct.Seed)
	if err != nil {
		walletsProvisioned.WithLabelValues("failed").Inc()
		uc.logger.Error("funded account orphaned: seed encryption failed",
			zap.Int64("telegram_id", telegramID),
			zap.String("address", acct.Address),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to encrypt seed: %w", err)
	}

	rec := &domain.WalletRecord{
		TelegramID:    telegramID,
		Address:       acct.Address,
		EncryptedSeed: encryptedSeed,
	}
	if err := uc.users.Create(ctx, rec); err != nil {
		walletsProvisioned.WithLabelValues("failed").Inc()
		uc.logger.Error("funded account orphaned: record not stored",
			zap.Int64("telegram_id", telegramID),
			zap.String("address", acct.Address),
			zap.Error(err),
		)
		if errors.Is(err, domain.ErrDuplicateUser) {
			if winner, lookupErr := uc.users.GetByTelegramID(ctx, telegramID); lookupErr == nil {
				return winner, domain.ErrDuplicateUser
			}
		}
		return nil, err
	}

	walletsProvisioned.WithLabelValues("created").Inc()
	uc.logger.Info("wallet created",
		zap.Int64("telegram_id", telegramID),
		zap.String("address", rec.Address),
	)

	if err := uc.publisher.Publish(ctx, publisher.WalletCreated(rec)); err != nil {
		uc.logger.Warn("failed to publish wallet event", zap.Error(err))
	}
	return rec, nil
}

// Balance returns the wallet together with its validated balance.
func (uc *WalletUsecase) Balance(ctx context.Context, telegramID int64) (*domain.WalletRecord, domain.Drops, error) {
	rec, err := uc.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, 0, err
	}

	balance, err := uc.ledger.GetBalance(ctx, rec.Address)
	if err != nil {
		return rec, 0, err
	}
	return rec, balance, nil
}

// RecentTransactions lists the latest settled payments of the wallet.
func (uc *WalletUsecase) RecentTransactions(ctx context.Context, telegramID int64, limit int) (*domain.WalletRecord, []domain.TransactionSummary, error) {
	rec, err := uc.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, nil, err
	}

	txs, err := uc.ledger.GetRecentTransactions(ctx, rec.Address, limit)
	if err != nil {
		return rec, nil, err
	}
	return rec, txs, nil
}
