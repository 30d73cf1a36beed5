// internal/bot/dispatcher.go
package bot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"xrpl-wallet-bot/internal/chat"
	"xrpl-wallet-bot/internal/domain"
	"xrpl-wallet-bot/pkg/utils"
)

type WalletService interface {
	GetWallet(ctx context.Context, telegramID int64) (*domain.WalletRecord, error)
	CreateWallet(ctx context.Context, telegramID int64) (*domain.WalletRecord, error)
	Balance(ctx context.Context, telegramID int64) (*domain.WalletRecord, domain.Drops, error)
	RecentTransactions(ctx context.Context, telegramID int64, limit int) (*domain.WalletRecord, []domain.TransactionSummary, error)
}

type PriceService interface {
	History(ctx context.Context) ([]domain.PricePoint, error)
}

// TransferAudit exposes transfers whose outcome was never observed.
type TransferAudit interface {
	Unconfirmed(ctx context.Context, telegramID int64, limit int) ([]*domain.TransferLog, error)
}

// Conversation is the transfer flow driven by the dispatcher.
type Conversation interface {
	Pending(id int64) bool
	Initiate(ctx context.Context, id int64) []chat.Reply
	HandleText(ctx context.Context, id int64, text string) []chat.Reply
}

// Dispatcher routes inbound events to wallet operations and the transfer
// conversation. It owns no transport; replies go out through Emit.
type Dispatcher struct {
	wallets      WalletService
	prices       PriceService
	audit        TransferAudit
	conversation Conversation
	historyLimit int
	logger       *zap.Logger

	commands map[string]handlerFunc
	buttons  map[string]handlerFunc
}

type handlerFunc func(ctx context.Context, ev chat.Event, emit chat.Emit)

func NewDispatcher(
	wallets WalletService,
	prices PriceService,
	audit TransferAudit,
	conversation Conversation,
	historyLimit int,
	logger *zap.Logger,
) *Dispatcher {
	if historyLimit <= 0 {
		historyLimit = 5
	}
	d := &Dispatcher{
		wallets:      wallets,
		prices:       prices,
		audit:        audit,
		conversation: conversation,
		historyLimit: historyLimit,
		logger:       logger,
	}
	d.commands = map[string]handlerFunc{
		"start":   d.handleStart,
		"create":  d.handleCreate,
		"balance": d.handleBalance,
		"send":    d.handleSend,
		"history": d.handleHistory,
		"price":   d.handlePrice,
		"help":    d.handleHelp,
	}
	d.buttons = map[string]handlerFunc{
		chat.ButtonCreateWallet: d.handleCreate,
		chat.ButtonLearnMore:    d.handleLearnMore,
		chat.ButtonBalance:      d.handleBalance,
		chat.ButtonSend:         d.handleSend,
		chat.ButtonPrice:        d.handlePrice,
		chat.ButtonHistory:      d.handleHistory,
	}
	return d
}

// Handle processes one event. Callers must serialize events per identity.
func (d *Dispatcher) Handle(ctx context.Context, ev chat.Event, emit chat.Emit) {
	d.logger.Debug("event received",
		zap.Int64("telegram_id", ev.Identity),
		zap.Stringer("kind", ev.Kind),
	)

	switch ev.Kind {
	case chat.EventCommand:
		h, ok := d.commands[ev.Payload]
		if !ok {
			emit(chat.Text(msgUnknownCommand))
			return
		}
		h(ctx, ev, emit)

	case chat.EventButton:
		// Stale or forged payloads never reach a pending transfer.
		if !chat.IsMenuButton(ev.Payload) {
			d.logger.Warn("unknown button payload", zap.String("payload", ev.Payload))
			emit(chat.Reply{Text: msgUnknownAction, Keyboard: chat.KeyboardMainMenu})
			return
		}
		// A pending transfer consumes menu presses as raw input, except
		// send_xrp which restarts the flow.
		if ev.Payload != chat.ButtonSend && d.conversation.Pending(ev.Identity) {
			emitAll(emit, d.conversation.HandleText(ctx, ev.Identity, ev.Payload))
			return
		}
		d.buttons[ev.Payload](ctx, ev, emit)

	case chat.EventText:
		if d.conversation.Pending(ev.Identity) {
			emitAll(emit, d.conversation.HandleText(ctx, ev.Identity, ev.Payload))
			return
		}
		emit(chat.Text(msgTextHint))
	}
}

func emitAll(emit chat.Emit, replies []chat.Reply) {
	for _, r := range replies {
		emit(r)
	}
}

// ==================== Wallet ====================

func (d *Dispatcher) handleStart(ctx context.Context, ev chat.Event, emit chat.Emit) {
	rec, err := d.wallets.GetWallet(ctx, ev.Identity)
	switch {
	case err == nil:
		emit(chat.Reply{
			Text:     fmt.Sprintf(msgWelcomeBack, rec.Address),
			Markdown: true,
			Keyboard: chat.KeyboardMainMenu,
		})
	case errors.Is(err, domain.ErrUserNotFound):
		emit(chat.Reply{Text: msgGreeting, Keyboard: chat.KeyboardCreateWallet})
	default:
		d.logger.Error("wallet lookup failed", zap.Int64("telegram_id", ev.Identity), zap.Error(err))
		emit(chat.Text(msgInternal))
	}
}

func (d *Dispatcher) handleCreate(ctx context.Context, ev chat.Event, emit chat.Emit) {
	_, err := d.wallets.GetWallet(ctx, ev.Identity)
	switch {
	case err == nil:
		emit(chat.Reply{Text: msgAlreadyHave, Keyboard: chat.KeyboardMainMenu})
		return
	case !errors.Is(err, domain.ErrUserNotFound):
		d.logger.Error("wallet lookup failed", zap.Int64("telegram_id", ev.Identity), zap.Error(err))
		emit(chat.Text(msgInternal))
		return
	}

	emit(chat.Text(msgGenerating))

	rec, err := d.wallets.CreateWallet(ctx, ev.Identity)
	switch {
	case err == nil:
		emit(chat.Reply{
			Text:     fmt.Sprintf(msgWalletCreated, rec.Address),
			Markdown: true,
			Keyboard: chat.KeyboardMainMenu,
		})
	case errors.Is(err, domain.ErrDuplicateUser):
		emit(chat.Reply{Text: msgAlreadyHave, Keyboard: chat.KeyboardMainMenu})
	case errors.Is(err, domain.ErrInProgress):
		emit(chat.Text(msgCreateInFlight))
	default:
		d.logger.Warn("wallet creation failed", zap.Int64("telegram_id", ev.Identity), zap.Error(err))
		emit(chat.Reply{Text: msgCreateFailed, Keyboard: chat.KeyboardCreateWallet})
	}
}

func (d *Dispatcher) handleBalance(ctx context.Context, ev chat.Event, emit chat.Emit) {
	rec, balance, err := d.wallets.Balance(ctx, ev.Identity)
	switch {
	case err == nil:
		emit(chat.Reply{
			Text:     fmt.Sprintf(msgBalance, utils.FormatBalance(balance), rec.Address),
			Markdown: true,
			Keyboard: chat.KeyboardMainMenu,
		})
	case errors.Is(err, domain.ErrUserNotFound):
		emit(chat.Reply{Text: msgCreateFirst, Keyboard: chat.KeyboardCreateWallet})
	default:
		d.logger.Warn("balance lookup failed", zap.Int64("telegram_id", ev.Identity), zap.Error(err))
		emit(chat.Reply{Text: msgBalanceFailed, Keyboard: chat.KeyboardMainMenu})
	}
}

func (d *Dispatcher) handleHistory(ctx context.Context, ev chat.Event, emit chat.Emit) {
	_, txs, err := d.wallets.RecentTransactions(ctx, ev.Identity, d.historyLimit)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		emit(chat.Reply{Text: msgCreateFirst, Keyboard: chat.KeyboardCreateWallet})
	case err != nil:
		d.logger.Warn("transaction history failed", zap.Int64("telegram_id", ev.Identity), zap.Error(err))
		emit(chat.Reply{Text: msgHistoryFailed, Keyboard: chat.KeyboardMainMenu})
	default:
		emit(chat.Reply{Text: d.historyText(ctx, ev.Identity, txs), Markdown: true, Keyboard: chat.KeyboardMainMenu})
	}
}

func (d *Dispatcher) historyText(ctx context.Context, id int64, txs []domain.TransactionSummary) string {
	text := msgNoTransactions
	if len(txs) > 0 {
		text = formatTransactions(txs)
	}

	pending, err := d.audit.Unconfirmed(ctx, id, d.historyLimit)
	if err != nil {
		d.logger.Warn("transfer audit unavailable", zap.Int64("telegram_id", id), zap.Error(err))
		return text
	}
	if len(pending) > 0 {
		text += "\n\n" + formatUnconfirmed(pending)
	}
	return text
}

// ==================== Transfer ====================

func (d *Dispatcher) handleSend(ctx context.Context, ev chat.Event, emit chat.Emit) {
	emitAll(emit, d.conversation.Initiate(ctx, ev.Identity))
}

// ==================== Info ====================

func (d *Dispatcher) handlePrice(ctx context.Context, ev chat.Event, emit chat.Emit) {
	if _, err := d.wallets.GetWallet(ctx, ev.Identity); err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			d.logger.Error("wallet lookup failed", zap.Int64("telegram_id", ev.Identity), zap.Error(err))
			emit(chat.Text(msgInternal))
			return
		}
		emit(chat.Reply{Text: msgCreateFirst, Keyboard: chat.KeyboardCreateWallet})
		return
	}

	emit(chat.Text(msgFetchingPrices))

	points, err := d.prices.History(ctx)
	if err != nil || len(points) == 0 {
		d.logger.Warn("price history unavailable", zap.Error(err))
		emit(chat.Reply{Text: msgPriceFailed, Keyboard: chat.KeyboardMainMenu})
		return
	}
	emit(chat.Reply{Text: formatPriceHistory(points), Markdown: true, Keyboard: chat.KeyboardMainMenu})
}

func (d *Dispatcher) handleLearnMore(_ context.Context, _ chat.Event, emit chat.Emit) {
	emit(chat.Reply{Text: msgLearnMore, Markdown: true, Keyboard: chat.KeyboardMainMenu})
}

func (d *Dispatcher) handleHelp(_ context.Context, _ chat.Event, emit chat.Emit) {
	emit(chat.Text(msgHelp))
}
