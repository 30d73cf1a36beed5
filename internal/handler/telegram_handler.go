// internal/handler/telegram_handler.go
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"xrpl-wallet-bot/internal/chat"
	"xrpl-wallet-bot/internal/lock"
)

const (
	defaultUpdateTimeout = 3 * time.Minute
	pollTimeoutSeconds   = 60
)

// BotAPI is the part of tgbotapi.BotAPI the handler uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// EventHandler consumes platform-neutral chat events.
type EventHandler interface {
	Handle(ctx context.Context, ev chat.Event, emit chat.Emit)
}

// TelegramHandler turns Telegram updates into chat events and executes the
// replies. Updates run concurrently across users and in arrival order per user.
type TelegramHandler struct {
	api     BotAPI
	events  EventHandler
	users   *lock.KeyedQueue
	timeout time.Duration
	logger  *zap.Logger
}

func NewTelegramHandler(api BotAPI, events EventHandler, logger *zap.Logger) *TelegramHandler {
	return &TelegramHandler{
		api:     api,
		events:  events,
		users:   lock.NewKeyedQueue(),
		timeout: defaultUpdateTimeout,
		logger:  logger,
	}
}

// Dispatch schedules one update. It returns immediately.
func (h *TelegramHandler) Dispatch(ctx context.Context, update tgbotapi.Update) {
	ev, callbackID, ok := toEvent(update)
	if !ok {
		return
	}

	h.users.Submit(ev.Identity, func() {
		h.process(ctx, ev, callbackID)
	})
}

// Wait blocks until every dispatched update has finished.
func (h *TelegramHandler) Wait() {
	h.users.Wait()
}

func (h *TelegramHandler) process(ctx context.Context, ev chat.Event, callbackID string) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic while handling update",
				zap.Int64("telegram_id", ev.Identity),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()

	if callbackID != "" {
		if _, err := h.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
			h.logger.Warn("failed to answer callback", zap.Error(err))
		}
	}

	h.events.Handle(ctx, ev, func(r chat.Reply) {
		if err := h.send(ev.ChatID, r); err != nil {
			h.logger.Warn("failed to send reply",
				zap.Int64("telegram_id", ev.Identity),
				zap.Error(err),
			)
		}
	})
}

func (h *TelegramHandler) send(chatID int64, r chat.Reply) error {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	if r.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if kb, ok := keyboard(r.Keyboard); ok {
		msg.ReplyMarkup = kb
	}
	_, err := h.api.Send(msg)
	return err
}

// toEvent maps commands, button presses and plain text. Everything else is
// dropped.
func toEvent(update tgbotapi.Update) (chat.Event, string, bool) {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		if cq.From == nil {
			return chat.Event{}, "", false
		}
		chatID := cq.From.ID
		if cq.Message != nil && cq.Message.Chat != nil {
			chatID = cq.Message.Chat.ID
		}
		return chat.Event{
			Identity: cq.From.ID,
			ChatID:   chatID,
			Kind:     chat.EventButton,
			Payload:  cq.Data,
		}, cq.ID, true

	case update.Message != nil:
		m := update.Message
		if m.From == nil || m.Chat == nil {
			return chat.Event{}, "", false
		}
		ev := chat.Event{Identity: m.From.ID, ChatID: m.Chat.ID}
		switch {
		case m.IsCommand():
			ev.Kind = chat.EventCommand
			ev.Payload = strings.ToLower(m.Command())
		case m.Text != "":
			ev.Kind = chat.EventText
			ev.Payload = m.Text
		default:
			return chat.Event{}, "", false
		}
		return ev, "", true
	}
	return chat.Event{}, "", false
}

func keyboard(k chat.Keyboard) (tgbotapi.InlineKeyboardMarkup, bool) {
	var buttons []chat.Button
	switch k {
	case chat.KeyboardMainMenu:
		buttons = chat.MainMenuButtons
	case chat.KeyboardCreateWallet:
		buttons = chat.CreateWalletButtons
	default:
		return tgbotapi.InlineKeyboardMarkup{}, false
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Payload)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

// ==================== Transports ====================

// Poller is satisfied by *tgbotapi.BotAPI.
type Poller interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Poll receives updates by long polling until ctx is done.
func (h *TelegramHandler) Poll(ctx context.Context, p Poller) {
	// Polling and a registered webhook are mutually exclusive.
	if _, err := h.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		h.logger.Warn("failed to remove webhook", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := p.GetUpdatesChan(u)

	h.logger.Info("long polling started")
	for {
		select {
		case <-ctx.Done():
			p.StopReceivingUpdates()
			h.logger.Info("long polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.Dispatch(ctx, update)
		}
	}
}

// Webhook returns the http handler for POST /telegram-webhook/{secret}. The
// router checks the secret before this handler runs.
func (h *TelegramHandler) Webhook(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			http.Error(w, "Unsupported Media Type", http.StatusUnsupportedMediaType)
			return
		}

		update, err := decodeUpdate(r)
		if err != nil {
			h.logger.Warn("invalid webhook payload", zap.Error(err))
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		h.Dispatch(ctx, *update)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// SetWebhook registers baseURL + /telegram-webhook/<secret> with Telegram.
// The returned link has the secret redacted.
func (h *TelegramHandler) SetWebhook(baseURL, secret string) (string, error) {
	if baseURL == "" {
		return "", errors.New("webhook url not configured")
	}
	if secret == "" {
		return "", errors.New("webhook secret not configured")
	}
	base := strings.TrimRight(baseURL, "/") + "/telegram-webhook/"

	wh, err := tgbotapi.NewWebhook(base + secret)
	if err != nil {
		return "", fmt.Errorf("invalid webhook url: %w", err)
	}
	if _, err := h.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return "", fmt.Errorf("failed to remove webhook: %w", err)
	}
	if _, err := h.api.Request(wh); err != nil {
		return "", fmt.Errorf("failed to set webhook: %w", err)
	}

	link := base + "<redacted>"
	h.logger.Info("webhook registered", zap.String("url", link))
	return link, nil
}
