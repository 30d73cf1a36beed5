// internal/conversation/machine.go
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"xrpl-wallet-bot/internal/chat"
	"xrpl-wallet-bot/internal/domain"
	"xrpl-wallet-bot/pkg/utils"
)

type Directory interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.WalletRecord, error)
}

type BalanceReader interface {
	GetBalance(ctx context.Context, address string) (domain.Drops, error)
}

type SeedOpener interface {
	Decrypt(ciphertext string) (string, error)
}

type Payments interface {
	Transfer(ctx context.Context, req domain.TransferRequest) (*domain.PaymentResult, error)
}

type InputKind int

const (
	// InputInitiate starts (or restarts) a transfer.
	InputInitiate InputKind = iota
	// InputText is raw user text for the current step.
	InputText
)

type Input struct {
	Kind InputKind
	Text string
}

type transitionKey struct {
	state StateKind
	input InputKind
}

type transition func(ctx context.Context, id int64, st State, in Input) (State, []chat.Reply)

// Machine drives the multi-step transfer flow. Each terminal step returns
// to Idle and ends with exactly one main menu reply.
type Machine struct {
	store    *Store
	users    Directory
	ledger   BalanceReader
	vault    SeedOpener
	payments Payments
	reserve  domain.Drops
	logger   *zap.Logger

	table map[transitionKey]transition
}

func NewMachine(
	store *Store,
	users Directory,
	ledger BalanceReader,
	vault SeedOpener,
	payments Payments,
	reserve domain.Drops,
	logger *zap.Logger,
) *Machine {
	m := &Machine{
		store:    store,
		users:    users,
		ledger:   ledger,
		vault:    vault,
		payments: payments,
		reserve:  reserve,
		logger:   logger,
	}
	m.table = map[transitionKey]transition{
		{Idle, InputInitiate}:              m.begin,
		{AwaitingRecipient, InputInitiate}: m.begin,
		{AwaitingAmount, InputInitiate}:    m.begin,
		{AwaitingRecipient, InputText}:     m.onRecipient,
		{AwaitingAmount, InputText}:        m.onAmount,
	}
	return m
}

// Pending reports whether id is in the middle of a transfer.
func (m *Machine) Pending(id int64) bool {
	return m.store.Get(id).Kind != Idle
}

func (m *Machine) State(id int64) State {
	return m.store.Get(id)
}

// Initiate starts a transfer, discarding any pending one.
func (m *Machine) Initiate(ctx context.Context, id int64) []chat.Reply {
	return m.handle(ctx, id, Input{Kind: InputInitiate})
}

// HandleText feeds raw input to the pending step. It returns nil when
// nothing is pending.
func (m *Machine) HandleText(ctx context.Context, id int64, text string) []chat.Reply {
	return m.handle(ctx, id, Input{Kind: InputText, Text: text})
}

func (m *Machine) handle(ctx context.Context, id int64, in Input) []chat.Reply {
	st := m.store.Get(id)
	fn, ok := m.table[transitionKey{st.Kind, in.Kind}]
	if !ok {
		return nil
	}

	next, replies := fn(ctx, id, st, in)
	m.store.Set(id, next)

	m.logger.Debug("conversation transition",
		zap.Int64("telegram_id", id),
		zap.Stringer("from", st.Kind),
		zap.Stringer("to", next.Kind),
	)
	return replies
}

// finish is the only way back to Idle.
func finish(replies ...chat.Reply) (State, []chat.Reply) {
	return State{Kind: Idle}, append(replies, chat.MainMenu())
}

func (m *Machine) begin(ctx context.Context, id int64, _ State, _ Input) (State, []chat.Reply) {
	_, err := m.users.GetByTelegramID(ctx, id)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return State{Kind: Idle}, []chat.Reply{{Text: msgCreateWalletFirst, Keyboard: chat.KeyboardCreateWallet}}
	case err != nil:
		m.logger.Error("user lookup failed", zap.Int64("telegram_id", id), zap.Error(err))
		return finish(chat.Text(msgInternalError))
	}
	return State{Kind: AwaitingRecipient}, []chat.Reply{chat.Text(msgAskRecipient)}
}

func (m *Machine) onRecipient(ctx context.Context, id int64, _ State, in Input) (State, []chat.Reply) {
	candidate := strings.TrimSpace(in.Text)

	if _, err := m.ledger.GetBalance(ctx, candidate); err != nil {
		m.logger.Info("recipient rejected",
			zap.Int64("telegram_id", id),
			zap.String("candidate", candidate),
			zap.Error(err),
		)
		return finish(chat.Text(msgInvalidRecipient))
	}
	return State{Kind: AwaitingAmount, Recipient: candidate}, []chat.Reply{chat.Text(msgAskAmount)}
}

func (m *Machine) onAmount(ctx context.Context, id int64, st State, in Input) (next State, replies []chat.Reply) {
	amount, err := utils.ParseXRP(in.Text)
	if err != nil {
		return finish(chat.Text(msgInvalidAmount))
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("transfer settlement panicked",
				zap.Int64("telegram_id", id),
				zap.Any("panic", r),
			)
			next, replies = finish(chat.Text(msgInternalError))
		}
	}()

	return finish(m.settle(ctx, id, st.Recipient, amount))
}

// settle runs the balance check, decryption and the single submission.
func (m *Machine) settle(ctx context.Context, id int64, recipient string, amount domain.Drops) chat.Reply {
	rec, err := m.users.GetByTelegramID(ctx, id)
	if err != nil {
		m.logger.Error("sender vanished during transfer", zap.Int64("telegram_id", id), zap.Error(err))
		return chat.Text(msgWalletMissing)
	}

	balance, err := m.ledger.GetBalance(ctx, rec.Address)
	if err != nil {
		m.logger.Warn("sender balance unavailable", zap.Int64("telegram_id", id), zap.Error(err))
		return chat.Text(msgBalanceUnavailable)
	}

	available := balance - m.reserve
	if available < amount {
		if available < 0 {
			available = 0
		}
		return chat.Text(fmt.Sprintf(msgInsufficientFunds, utils.FormatXRP(available), utils.FormatXRP(m.reserve)))
	}

	seed, err := m.vault.Decrypt(rec.EncryptedSeed)
	if err != nil {
		m.logger.Error("seed decryption failed",
			zap.Int64("telegram_id", id),
			zap.String("address", rec.Address),
			zap.Error(err),
		)
		return chat.Text(msgInternalError)
	}

	res, err := m.payments.Transfer(ctx, domain.TransferRequest{
		TelegramID:  id,
		FromAddress: rec.Address,
		ToAddress:   recipient,
		Amount:      amount,
		Seed:        seed,
	})
	if err != nil || res == nil || !res.Success {
		return chat.Text(msgPaymentFailed)
	}

	return chat.Markdown(fmt.Sprintf(msgPaymentSent, utils.FormatXRP(amount), recipient, res.Hash))
}
