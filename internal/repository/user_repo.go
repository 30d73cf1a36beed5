// internal/repository/user_repo.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"xrpl-wallet-bot/internal/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create inserts a wallet record. Both the identity and the address are
// unique; a collision on either is ErrDuplicateUser.
func (r *UserRepo) Create(ctx context.Context, rec *domain.WalletRecord) error {
	query := `
		INSERT INTO users (telegram_id, wallet_address, encrypted_seed)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		rec.TelegramID,
		rec.Address,
		rec.EncryptedSeed,
	).Scan(&rec.ID, &rec.CreatedAt)

	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return domain.ErrDuplicateUser
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByTelegramID returns ErrUserNotFound when the identity has no wallet.
func (r *UserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.WalletRecord, error) {
	query := `
		SELECT id, telegram_id, wallet_address, encrypted_seed, created_at
		FROM users
		WHERE telegram_id = $1
	`

	rec := &domain.WalletRecord{}
	err := r.pool.QueryRow(ctx, query, telegramID).Scan(
		&rec.ID,
		&rec.TelegramID,
		&rec.Address,
		&rec.EncryptedSeed,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return rec, nil
}
