// internal/repository/transfer_repo.go
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"xrpl-wallet-bot/internal/domain"
)

type TransferRepo struct {
	pool *pgxpool.Pool
}

func NewTransferRepository(pool *pgxpool.Pool) *TransferRepo {
	return &TransferRepo{pool: pool}
}

func (r *TransferRepo) Create(ctx context.Context, t *domain.TransferLog) error {
	query := `
		INSERT INTO transfers (id, telegram_id, from_address, to_address, amount_drops, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		t.ID,
		t.TelegramID,
		t.FromAddress,
		t.ToAddress,
		int64(t.Amount),
		string(t.Status),
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

func (r *TransferRepo) UpdateOutcome(ctx context.Context, id string, status domain.TransferStatus, resultCode, txHash string) error {
	query := `
		UPDATE transfers
		SET status = $2, result_code = $3, tx_hash = $4, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, string(status), resultCode, txHash)
	if err != nil {
		return fmt.Errorf("failed to update transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transfer %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *TransferRepo) ListByTelegramID(ctx context.Context, telegramID int64, limit int) ([]*domain.TransferLog, error) {
	query := `
		SELECT id, telegram_id, from_address, to_address, amount_drops,
		       status, result_code, tx_hash, created_at, updated_at
		FROM transfers
		WHERE telegram_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, telegramID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.TransferLog, error) {
		t := &domain.TransferLog{}
		var amount int64
		var status string
		err := row.Scan(
			&t.ID, &t.TelegramID, &t.FromAddress, &t.ToAddress, &amount,
			&status, &t.ResultCode, &t.TxHash, &t.CreatedAt, &t.UpdatedAt,
		)
		t.Amount = domain.Drops(amount)
		t.Status = domain.TransferStatus(status)
		return t, err
	})
}
