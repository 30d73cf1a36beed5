// internal/publisher/publisher.go
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"xrpl-wallet-bot/internal/domain"
)

const (
	BotEventsChannel = "xrpl_bot_events"

	EventWalletCreated     = "wallet.created"
	EventTransferSucceeded = "transfer.succeeded"
	EventTransferFailed    = "transfer.failed"
)

// Publisher fans out bot events. Publishing is best effort; callers log
// errors and carry on.
type Publisher interface {
	Publish(ctx context.Context, event *BotEvent) error
}

type BotEvent struct {
	EventType   string    `json:"event_type"`
	TelegramID  int64     `json:"telegram_id"`
	TransferID  string    `json:"transfer_id,omitempty"`
	FromAddress string    `json:"from_address,omitempty"`
	ToAddress   string    `json:"to_address,omitempty"`
	AmountDrops int64     `json:"amount_drops,omitempty"`
	ResultCode  string    `json:"result_code,omitempty"`
	TxHash      string    `json:"tx_hash,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// RedisPublisher publishes events on a redis pub/sub channel.
type RedisPublisher struct {
	rdb    redis.UniversalClient
	logger *zap.Logger
}

func NewRedisPublisher(rdb redis.UniversalClient, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, logger: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, event *BotEvent) error {
	event.Timestamp = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, BotEventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("event published",
		zap.String("event_type", event.EventType),
		zap.Int64("telegram_id", event.TelegramID),
	)
	return nil
}

// NopPublisher drops events; used when redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *BotEvent) error { return nil }

func WalletCreated(rec *domain.WalletRecord) *BotEvent {
	return &BotEvent{
		EventType:  EventWalletCreated,
		TelegramID: rec.TelegramID,
		ToAddress:  rec.Address,
	}
}

func TransferSettled(t *domain.TransferLog) *BotEvent {
	eventType := EventTransferFailed
	if t.Status == domain.TransferStatusSucceeded {
		eventType = EventTransferSucceeded
	}
	return &BotEvent{
		EventType:   eventType,
		TelegramID:  t.TelegramID,
		TransferID:  t.ID,
		FromAddress: t.FromAddress,
		ToAddress:   t.ToAddress,
		AmountDrops: int64(t.Amount),
		ResultCode:  t.ResultCode,
		TxHash:      t.TxHash,
	}
}
