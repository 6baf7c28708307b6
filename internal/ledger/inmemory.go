package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inMemoryLedger struct {
	mu           sync.RWMutex
	now          func() time.Time
	transactions map[string]Transaction
	byReference  map[string]string
	wallets      map[string]Wallet
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit tests
// and development runs without Postgres.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		now:          func() time.Time { return time.Now().UTC() },
		transactions: make(map[string]Transaction),
		byReference:  make(map[string]string),
		wallets:      make(map[string]Wallet),
	}
}

func (l *inMemoryLedger) Create(_ context.Context, input NewTransaction) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	t := Transaction{
		ID:             uuid.NewString(),
		UserID:         input.UserID,
		Kind:           input.Kind,
		Coins:          input.Coins,
		AmountLocal:    input.AmountLocal,
		Currency:       input.Currency,
		Status:         StatusPending,
		Provider:       input.Provider,
		RechargeMethod: input.RechargeMethod,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	l.transactions[t.ID] = t
	return copyTransaction(t), nil
}

func (l *inMemoryLedger) SetReference(_ context.Context, id, reference string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.transactions[id]
	if !ok {
		return ErrNotFound
	}
	if t.Reference != nil {
		return ErrReferenceAlreadySet
	}
	if _, taken := l.byReference[reference]; taken {
		return ErrDuplicateReference
	}
	ref := reference
	t.Reference = &ref
	t.UpdatedAt = l.now()
	l.transactions[id] = t
	l.byReference[reference] = id
	return nil
}

func (l *inMemoryLedger) Get(_ context.Context, id string) (Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.transactions[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return copyTransaction(t), nil
}

func (l *inMemoryLedger) GetByReference(_ context.Context, reference string) (Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.byReference[reference]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return copyTransaction(l.transactions[id]), nil
}

func (l *inMemoryLedger) Settle(_ context.Context, reference string, settlement Settlement) (SettleResult, error) {
	if !settlement.Status.Terminal() {
		return SettleResult{}, ErrInvalidSettlement
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	id, ok := l.byReference[reference]
	if !ok {
		return SettleResult{}, ErrNotFound
	}
	t := l.transactions[id]
	if t.Status != StatusPending {
		return SettleResult{Transaction: copyTransaction(t)}, nil
	}

	now := l.now()
	t.Status = settlement.Status
	t.AmountLocal = settlement.AmountLocal
	t.Currency = settlement.Currency
	t.UpdatedAt = now
	l.transactions[id] = t

	result := SettleResult{Transaction: copyTransaction(t), Applied: true}
	if t.Status == StatusSuccess {
		w := l.wallets[t.UserID]
		w.UserID = t.UserID
		w.Coins += t.Coins
		w.UpdatedAt = now
		l.wallets[t.UserID] = w
		result.Credited = true
		result.WalletCoins = w.Coins
	}
	return result, nil
}

func (l *inMemoryLedger) ListByUser(_ context.Context, userID string, limit int) ([]Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Transaction
	for _, t := range l.transactions {
		if t.UserID == userID {
			out = append(out, copyTransaction(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit = clampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *inMemoryLedger) ExpireOrphans(_ context.Context, before time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	now := l.now()
	for id, t := range l.transactions {
		if t.Status == StatusPending && t.Reference == nil && t.CreatedAt.Before(before) {
			t.Status = StatusFailed
			t.UpdatedAt = now
			l.transactions[id] = t
			n++
		}
	}
	return n, nil
}

func (l *inMemoryLedger) StalePending(_ context.Context, before time.Time, limit int) ([]Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Transaction
	for _, t := range l.transactions {
		if t.Status == StatusPending && t.Reference != nil && t.CreatedAt.Before(before) {
			out = append(out, copyTransaction(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit = clampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *inMemoryLedger) MarkChecked(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.transactions[id]
	if !ok {
		return ErrNotFound
	}
	if t.Status == StatusPending {
		t.UpdatedAt = l.now()
		l.transactions[id] = t
	}
	return nil
}

func (l *inMemoryLedger) EnsureWallet(_ context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.wallets[userID]; !exists {
		l.wallets[userID] = Wallet{UserID: userID, UpdatedAt: l.now()}
	}
	return nil
}

func (l *inMemoryLedger) Wallet(_ context.Context, userID string) (Wallet, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	w, ok := l.wallets[userID]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return w, nil
}

func copyTransaction(t Transaction) Transaction {
	if t.Reference != nil {
		ref := *t.Reference
		t.Reference = &ref
	}
	return t
}
