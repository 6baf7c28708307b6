package ledger

import "time"

// SeedWallet is a test helper that sets the balance for a user when using the in-memory ledger.
func SeedWallet(l Ledger, userID string, coins int64) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.wallets[userID] = Wallet{UserID: userID, Coins: coins, UpdatedAt: mem.now()}
	}
}

// Backdate is a test helper that rewrites a transaction's creation time in the in-memory ledger.
func Backdate(l Ledger, id string, createdAt time.Time) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		if t, exists := mem.transactions[id]; exists {
			t.CreatedAt = createdAt
			mem.transactions[id] = t
		}
	}
}
