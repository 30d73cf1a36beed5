package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"xrpl-wallet-bot/internal/chat"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	sendErr  error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

type recordingEvents struct {
	mu     sync.Mutex
	events []chat.Event
	reply  []chat.Reply
	panics bool
	active map[int64]int
	maxPar int
}

func (r *recordingEvents) Handle(_ context.Context, ev chat.Event, emit chat.Emit) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	if r.active == nil {
		r.active = map[int64]int{}
	}
	r.active[ev.Identity]++
	if r.active[ev.Identity] > r.maxPar {
		r.maxPar = r.active[ev.Identity]
	}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.active[ev.Identity]--
		r.mu.Unlock()
	}()

	if r.panics {
		panic("handler exploded")
	}
	for _, reply := range r.reply {
		emit(reply)
	}
}

func messageUpdate(userID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.Fields(text)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{Message: msg}
}

func callbackUpdate(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 900}},
		Data:    data,
	}}
}

func TestToEvent(t *testing.T) {
	ev, cb, ok := toEvent(messageUpdate(42, "/Start"))
	require.True(t, ok)
	assert.Equal(t, chat.Event{Identity: 42, ChatID: 42, Kind: chat.EventCommand, Payload: "start"}, ev)
	assert.Empty(t, cb)

	ev, _, ok = toEvent(messageUpdate(42, "  rDest "))
	require.True(t, ok)
	assert.Equal(t, chat.EventText, ev.Kind)
	assert.Equal(t, "  rDest ", ev.Payload)

	ev, cb, ok = toEvent(callbackUpdate(42, chat.ButtonBalance))
	require.True(t, ok)
	assert.Equal(t, chat.Event{Identity: 42, ChatID: 900, Kind: chat.EventButton, Payload: chat.ButtonBalance}, ev)
	assert.Equal(t, "cb-1", cb)

	_, _, ok = toEvent(tgbotapi.Update{})
	assert.False(t, ok)

	_, _, ok = toEvent(messageUpdate(42, ""))
	assert.False(t, ok)
}

func TestKeyboards(t *testing.T) {
	kb, ok := keyboard(chat.KeyboardMainMenu)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, len(chat.MainMenuButtons))
	for i, row := range kb.InlineKeyboard {
		require.Len(t, row, 1)
		require.NotNil(t, row[0].CallbackData)
		assert.Equal(t, chat.MainMenuButtons[i].Payload, *row[0].CallbackData)
	}

	kb, ok = keyboard(chat.KeyboardCreateWallet)
	require.True(t, ok)
	assert.Equal(t, chat.ButtonCreateWallet, *kb.InlineKeyboard[0][0].CallbackData)

	_, ok = keyboard(chat.KeyboardNone)
	assert.False(t, ok)
}

func TestDispatchSendsReplies(t *testing.T) {
	api := &fakeAPI{}
	events := &recordingEvents{reply: []chat.Reply{
		chat.Text("plain"),
		{Text: "*bold*", Markdown: true, Keyboard: chat.KeyboardMainMenu},
	}}
	h := NewTelegramHandler(api, events, zaptest.NewLogger(t))

	h.Dispatch(context.Background(), callbackUpdate(42, chat.ButtonLearnMore))
	h.Wait()

	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(900), msgs[0].ChatID)
	assert.Empty(t, msgs[0].ParseMode)
	assert.Nil(t, msgs[0].ReplyMarkup)
	assert.Equal(t, tgbotapi.ModeMarkdown, msgs[1].ParseMode)
	assert.IsType(t, tgbotapi.InlineKeyboardMarkup{}, msgs[1].ReplyMarkup)

	require.Len(t, api.requests, 1)
	assert.IsType(t, tgbotapi.CallbackConfig{}, api.requests[0])
}

func TestDispatchRecoversPanics(t *testing.T) {
	api := &fakeAPI{}
	events := &recordingEvents{panics: true}
	h := NewTelegramHandler(api, events, zaptest.NewLogger(t))

	h.Dispatch(context.Background(), messageUpdate(1, "hi"))
	h.Dispatch(context.Background(), messageUpdate(1, "again"))
	h.Wait()

	assert.Len(t, events.events, 2)
}

func TestDispatchKeepsArrivalOrderPerUser(t *testing.T) {
	api := &fakeAPI{}
	events := &recordingEvents{}
	h := NewTelegramHandler(api, events, zaptest.NewLogger(t))

	for round := 0; round < 100; round++ {
		for i := 0; i < 5; i++ {
			h.Dispatch(context.Background(), messageUpdate(7, strconv.Itoa(i)))
		}
		h.Dispatch(context.Background(), messageUpdate(8, "other"))
	}
	h.Wait()

	var got []string
	for _, ev := range events.events {
		if ev.Identity == 7 {
			got = append(got, ev.Payload)
		}
	}
	require.Len(t, got, 500)
	for n, payload := range got {
		require.Equal(t, strconv.Itoa(n%5), payload, "update %d delivered out of order", n)
	}
	assert.Len(t, events.events, 600)
	assert.Equal(t, 1, events.maxPar)
}

func TestDispatchSendThenAddressInOneBatch(t *testing.T) {
	api := &fakeAPI{}
	events := &recordingEvents{}
	h := NewTelegramHandler(api, events, zaptest.NewLogger(t))

	h.Dispatch(context.Background(), callbackUpdate(42, chat.ButtonSend))
	h.Dispatch(context.Background(), messageUpdate(42, "rDestination"))
	h.Dispatch(context.Background(), messageUpdate(42, "9.0"))
	h.Wait()

	require.Len(t, events.events, 3)
	assert.Equal(t, chat.ButtonSend, events.events[0].Payload)
	assert.Equal(t, "rDestination", events.events[1].Payload)
	assert.Equal(t, "9.0", events.events[2].Payload)
}

func TestDispatchSendFailureIsLogged(t *testing.T) {
	api := &fakeAPI{sendErr: errors.New("telegram down")}
	events := &recordingEvents{reply: []chat.Reply{chat.Text("a"), chat.Text("b")}}
	h := NewTelegramHandler(api, events, zaptest.NewLogger(t))

	h.Dispatch(context.Background(), messageUpdate(1, "hi"))
	h.Wait()

	assert.Len(t, api.messages(), 2)
}

func TestWebhook(t *testing.T) {
	api := &fakeAPI{}
	events := &recordingEvents{reply: []chat.Reply{chat.Text("pong")}}
	h := NewTelegramHandler(api, events, zaptest.NewLogger(t))
	srv := h.Webhook(context.Background())

	body := `{"update_id":1,"message":{"message_id":5,"from":{"id":42},"chat":{"id":42},"text":"ping"}}`
	req := httptest.NewRequest(http.MethodPost, "/telegram-webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	h.Wait()

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, events.events, 1)
	assert.Equal(t, "ping", events.events[0].Payload)
	assert.Len(t, api.messages(), 1)
}

func TestWebhookRejectsNonJSON(t *testing.T) {
	h := NewTelegramHandler(&fakeAPI{}, &recordingEvents{}, zaptest.NewLogger(t))

	req := httptest.NewRequest(http.MethodPost, "/telegram-webhook", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.Webhook(context.Background()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/telegram-webhook", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.Webhook(context.Background()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetWebhook(t *testing.T) {
	api := &fakeAPI{}
	h := NewTelegramHandler(api, &recordingEvents{}, zaptest.NewLogger(t))

	link, err := h.SetWebhook("https://bot.example.com/", "s3cr3t-path-token_01")
	require.NoError(t, err)
	assert.Equal(t, "https://bot.example.com/telegram-webhook/<redacted>", link)
	assert.NotContains(t, link, "s3cr3t")
	require.Len(t, api.requests, 2)
	assert.IsType(t, tgbotapi.DeleteWebhookConfig{}, api.requests[0])
	wh, ok := api.requests[1].(tgbotapi.WebhookConfig)
	require.True(t, ok)
	assert.Equal(t, "https://bot.example.com/telegram-webhook/s3cr3t-path-token_01", wh.URL.String())

	_, err = h.SetWebhook("", "s3cr3t-path-token_01")
	assert.Error(t, err)
	_, err = h.SetWebhook("https://bot.example.com", "")
	assert.Error(t, err)
}

type fakePoller struct {
	ch      chan tgbotapi.Update
	stopped chan struct{}
}

func (p *fakePoller) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return p.ch
}

func (p *fakePoller) StopReceivingUpdates() {
	close(p.stopped)
}

func TestPoll(t *testing.T) {
	api := &fakeAPI{}
	events := &recordingEvents{}
	h := NewTelegramHandler(api, events, zaptest.NewLogger(t))
	p := &fakePoller{ch: make(chan tgbotapi.Update, 1), stopped: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Poll(ctx, p)
		close(done)
	}()

	p.ch <- messageUpdate(3, "hello")
	require.Eventually(t, func() bool {
		events.mu.Lock()
		defer events.mu.Unlock()
		return len(events.events) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
	<-p.stopped
	h.Wait()
}
