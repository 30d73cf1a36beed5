package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"xrpl-wallet-bot/internal/domain"
	"xrpl-wallet-bot/internal/publisher"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[int64]*domain.WalletRecord
	next int64
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[int64]*domain.WalletRecord{}}
}

func (m *memUsers) Create(_ context.Context, rec *domain.WalletRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[rec.TelegramID]; ok {
		return domain.ErrDuplicateUser
	}
	for _, r := range m.byID {
		if r.Address == rec.Address {
			return domain.ErrDuplicateUser
		}
	}
	m.next++
	rec.ID = m.next
	rec.CreatedAt = time.Now()
	cp := *rec
	m.byID[rec.TelegramID] = &cp
	return nil
}

func (m *memUsers) GetByTelegramID(_ context.Context, id int64) (*domain.WalletRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type fakeLedger struct {
	mu          sync.Mutex
	provisions  int
	provisionFn func() (*domain.ProvisionedAccount, error)
	balance     domain.Drops
	balanceErr  error
	submits     int
	submitRes   *domain.PaymentResult
	submitErr   error
	txs         []domain.TransactionSummary
}

func (f *fakeLedger) ProvisionAccount(context.Context) (*domain.ProvisionedAccount, error) {
	f.mu.Lock()
	f.provisions++
	n := f.provisions
	fn := f.provisionFn
	f.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return &domain.ProvisionedAccount{Address: fmt.Sprintf("rAddr%d", n), Seed: fmt.Sprintf("sSeed%d", n)}, nil
}

func (f *fakeLedger) GetBalance(context.Context, string) (domain.Drops, error) {
	return f.balance, f.balanceErr
}

func (f *fakeLedger) SubmitPayment(context.Context, string, domain.Drops, string) (*domain.PaymentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	return f.submitRes, f.submitErr
}

func (f *fakeLedger) GetRecentTransactions(context.Context, string, int) ([]domain.TransactionSummary, error) {
	return f.txs, nil
}

type prefixSealer struct{ fail bool }

func (p prefixSealer) Encrypt(s string) (string, error) {
	if p.fail {
		return "", errors.New("sealer broken")
	}
	return "enc:" + s, nil
}

type memPublisher struct {
	mu     sync.Mutex
	events []*publisher.BotEvent
}

func (m *memPublisher) Publish(_ context.Context, ev *publisher.BotEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

type memTransfers struct {
	mu   sync.Mutex
	rows map[string]*domain.TransferLog
}

func newMemTransfers() *memTransfers {
	return &memTransfers{rows: map[string]*domain.TransferLog{}}
}

func (m *memTransfers) Create(_ context.Context, t *domain.TransferLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.rows[t.ID] = &cp
	return nil
}

func (m *memTransfers) UpdateOutcome(_ context.Context, id string, status domain.TransferStatus, code, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	row.Status, row.ResultCode, row.TxHash = status, code, hash
	return nil
}

func (m *memTransfers) ListByTelegramID(_ context.Context, id int64, limit int) ([]*domain.TransferLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.TransferLog
	for _, r := range m.rows {
		if r.TelegramID == id && len(out) < limit {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memPriceCache struct {
	entry *domain.PriceCacheEntry
	saves int
	now   func() time.Time
}

func (m *memPriceCache) Get(_ context.Context, key string) (*domain.PriceCacheEntry, error) {
	if m.entry == nil || m.entry.CacheKey != key || !m.entry.Fresh(m.now()) {
		return nil, domain.ErrNotFound
	}
	return m.entry, nil
}

func (m *memPriceCache) Save(_ context.Context, key string, prices []domain.PricePoint, ttl time.Duration) (*domain.PriceCacheEntry, error) {
	m.saves++
	id := int64(1)
	if m.entry != nil {
		id = m.entry.ID
	}
	now := m.now()
	m.entry = &domain.PriceCacheEntry{ID: id, CacheKey: key, Prices: prices, LastUpdated: now, ExpiresAt: now.Add(ttl)}
	return m.entry, nil
}

type stubFetcher struct {
	calls  int
	points []domain.PricePoint
	err    error
}

func (s *stubFetcher) FetchHistory(context.Context) ([]domain.PricePoint, error) {
	s.calls++
	return s.points, s.err
}
