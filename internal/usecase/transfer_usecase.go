// internal/usecase/transfer_usecase.go
package usecase

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"xrpl-wallet-bot/internal/domain"
	"xrpl-wallet-bot/internal/publisher"
	"xrpl-wallet-bot/internal/repository"
)

// TransferUsecase submits payments and keeps the transfer audit log.
type TransferUsecase struct {
	ledger    domain.Ledger
	transfers repository.TransferRepository
	publisher publisher.Publisher
	logger    *zap.Logger
}

func NewTransferUsecase(
	ledger domain.Ledger,
	transfers repository.TransferRepository,
	pub publisher.Publisher,
	logger *zap.Logger,
) *TransferUsecase {
	return &TransferUsecase{
		ledger:    ledger,
		transfers: transfers,
		publisher: pub,
		logger:    logger,
	}
}

// Transfer submits req exactly once. A ledger error after submission leaves
// the outcome unknown; it is logged as such and never retried.
func (uc *TransferUsecase) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.PaymentResult, error) {
	timer := prometheus.NewTimer(usecaseDuration.WithLabelValues("transfer"))
	defer timer.ObserveDuration()

	entry := &domain.TransferLog{
		ID:          ulid.Make().String(),
		TelegramID:  req.TelegramID,
		FromAddress: req.FromAddress,
		ToAddress:   req.ToAddress,
		Amount:      req.Amount,
		Status:      domain.TransferStatusSubmitting,
	}
	if err := uc.transfers.Create(ctx, entry); err != nil {
		uc.logger.Warn("failed to record transfer", zap.String("transfer_id", entry.ID), zap.Error(err))
	}

	res, err := uc.ledger.SubmitPayment(ctx, req.Seed, req.Amount, req.ToAddress)

	switch {
	case errors.Is(err, domain.ErrNotSubmitted):
		entry.Status = domain.TransferStatusFailed
	case errors.Is(err, domain.ErrUnavailable):
		entry.Status = domain.TransferStatusUnknown
	case err != nil:
		entry.Status = domain.TransferStatusFailed
	case res.Success:
		entry.Status = domain.TransferStatusSucceeded
	default:
		entry.Status = domain.TransferStatusFailed
	}
	if res != nil {
		entry.ResultCode = res.ResultCode
		entry.TxHash = res.Hash
	}

	fields := []zap.Field{
		zap.String("transfer_id", entry.ID),
		zap.Int64("telegram_id", req.TelegramID),
		zap.String("to", req.ToAddress),
		zap.Int64("amount_drops", int64(req.Amount)),
		zap.String("status", string(entry.Status)),
		zap.String("result_code", entry.ResultCode),
	}
	if err != nil {
		uc.logger.Error("transfer did not settle", append(fields, zap.Error(err))...)
	} else {
		uc.logger.Info("transfer settled", fields...)
	}

	// The outcome is recorded even if the caller's context is gone.
	persistCtx := context.WithoutCancel(ctx)
	if uerr := uc.transfers.UpdateOutcome(persistCtx, entry.ID, entry.Status, entry.ResultCode, entry.TxHash); uerr != nil {
		uc.logger.Warn("failed to update transfer outcome", zap.String("transfer_id", entry.ID), zap.Error(uerr))
	}
	if perr := uc.publisher.Publish(persistCtx, publisher.TransferSettled(entry)); perr != nil {
		uc.logger.Warn("failed to publish transfer event", zap.Error(perr))
	}
	transfersSettled.WithLabelValues(string(entry.Status)).Inc()

	return res, err
}

// Unconfirmed lists recent transfers of telegramID whose ledger outcome was
// never observed.
func (uc *TransferUsecase) Unconfirmed(ctx context.Context, telegramID int64, limit int) ([]*domain.TransferLog, error) {
	rows, err := uc.transfers.ListByTelegramID(ctx, telegramID, limit)
	if err != nil {
		return nil, err
	}

	var out []*domain.TransferLog
	for _, t := range rows {
		if t.Status == domain.TransferStatusUnknown || t.Status == domain.TransferStatusSubmitting {
			out = append(out, t)
		}
	}
	return out, nil
}
