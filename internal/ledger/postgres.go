package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

const transactionColumns = `id, user_id, kind, coins, amount_local::text, currency, status,
        payment_provider, recharge_method, reference, created_at, updated_at`

// PostgresLedger persists transactions and wallets in PostgreSQL.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Create inserts a pending transaction with no reference.
func (l *PostgresLedger) Create(ctx context.Context, input NewTransaction) (Transaction, error) {
	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: %q is not a user id", ErrUnknownUser, input.UserID)
	}
	row := l.db.QueryRow(ctx, `INSERT INTO transactions
        (id, user_id, kind, coins, amount_local, currency, status, payment_provider, recharge_method)
        VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)
        RETURNING `+transactionColumns,
		uuid.New(), userID, string(input.Kind), input.Coins, input.AmountLocal.String(),
		input.Currency, string(StatusPending), input.Provider, input.RechargeMethod)
	t, err := scanTransaction(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return Transaction{}, ErrUnknownUser
		}
		return Transaction{}, err
	}
	return t, nil
}

// SetReference binds the gateway reference to a transaction that has none yet.
func (l *PostgresLedger) SetReference(ctx context.Context, id, reference string) error {
	txID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("parse transaction id: %w", err)
	}
	cmd, err := l.db.Exec(ctx, `UPDATE transactions SET reference = $2, updated_at = now()
        WHERE id = $1 AND reference IS NULL`, txID, reference)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateReference
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, err := l.Get(ctx, id); err != nil {
			return err
		}
		return ErrReferenceAlreadySet
	}
	return nil
}

// Get fetches a transaction by identifier.
func (l *PostgresLedger) Get(ctx context.Context, id string) (Transaction, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return Transaction{}, ErrNotFound
	}
	row := l.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, txID)
	return scanTransaction(row)
}

// GetByReference fetches a transaction by its gateway reference.
func (l *PostgresLedger) GetByReference(ctx context.Context, reference string) (Transaction, error) {
	row := l.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE reference = $1`, reference)
	return scanTransaction(row)
}

// Settle applies the terminal status with a conditional update so only the
// first caller moves the row out of pending; the wallet credit shares its tx.
func (l *PostgresLedger) Settle(ctx context.Context, reference string, settlement Settlement) (SettleResult, error) {
	if !settlement.Status.Terminal() {
		return SettleResult{}, ErrInvalidSettlement
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return SettleResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	row := tx.QueryRow(ctx, `UPDATE transactions
        SET status = $2, amount_local = $3::numeric, currency = $4, updated_at = now()
        WHERE reference = $1 AND status = $5
        RETURNING `+transactionColumns,
		reference, string(settlement.Status), settlement.AmountLocal.String(), settlement.Currency, string(StatusPending))
	updated, err := scanTransaction(row)
	if errors.Is(err, ErrNotFound) {
		current, getErr := scanTransaction(tx.QueryRow(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE reference = $1`, reference))
		if getErr != nil {
			return SettleResult{}, getErr
		}
		return SettleResult{Transaction: current}, nil
	}
	if err != nil {
		return SettleResult{}, err
	}

	result := SettleResult{Transaction: updated, Applied: true}
	if updated.Status == StatusSuccess {
		userID, err := uuid.Parse(updated.UserID)
		if err != nil {
			return SettleResult{}, fmt.Errorf("parse user id: %w", err)
		}
		if err := tx.QueryRow(ctx, `INSERT INTO wallets (user_id, coins, updated_at)
            VALUES ($1, $2, now())
            ON CONFLICT (user_id) DO UPDATE
            SET coins = wallets.coins + EXCLUDED.coins, updated_at = now()
            RETURNING coins`, userID, updated.Coins).Scan(&result.WalletCoins); err != nil {
			return SettleResult{}, fmt.Errorf("credit wallet: %w", err)
		}
		result.Credited = true
	}

	if err := tx.Commit(ctx); err != nil {
		return SettleResult{}, err
	}
	return result, nil
}

// ListByUser returns the user's most recent transactions, newest first.
func (l *PostgresLedger) ListByUser(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	rows, err := l.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions
        WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, uid, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// ExpireOrphans fails pending rows that never received a gateway reference.
func (l *PostgresLedger) ExpireOrphans(ctx context.Context, before time.Time) (int64, error) {
	cmd, err := l.db.Exec(ctx, `UPDATE transactions SET status = $1, updated_at = now()
        WHERE status = $2 AND reference IS NULL AND created_at < $3`,
		string(StatusFailed), string(StatusPending), before.UTC())
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// StalePending lists referenced transactions still pending since before,
// least recently checked first.
func (l *PostgresLedger) StalePending(ctx context.Context, before time.Time, limit int) ([]Transaction, error) {
	rows, err := l.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions
        WHERE status = $1 AND reference IS NOT NULL AND created_at < $2
        ORDER BY updated_at ASC, created_at ASC LIMIT $3`, string(StatusPending), before.UTC(), clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// MarkChecked records a reconciliation attempt on a pending transaction.
func (l *PostgresLedger) MarkChecked(ctx context.Context, id string) error {
	txID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	_, err = l.db.Exec(ctx, `UPDATE transactions SET updated_at = now()
        WHERE id = $1 AND status = $2`, txID, string(StatusPending))
	return err
}

// EnsureWallet guarantees a zero-balance wallet row exists for the user.
func (l *PostgresLedger) EnsureWallet(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}
	_, err = l.db.Exec(ctx, `INSERT INTO wallets (user_id, coins, updated_at) VALUES ($1, 0, now())
        ON CONFLICT (user_id) DO NOTHING`, uid)
	return err
}

// Wallet returns the user's current balance.
func (l *PostgresLedger) Wallet(ctx context.Context, userID string) (Wallet, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Wallet{}, ErrWalletNotFound
	}
	w := Wallet{UserID: userID}
	if err := l.db.QueryRow(ctx, `SELECT coins, updated_at FROM wallets WHERE user_id = $1`, uid).
		Scan(&w.Coins, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	w.UpdatedAt = w.UpdatedAt.UTC()
	return w, nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		t       Transaction
		id      uuid.UUID
		userID  uuid.UUID
		kind    string
		status  string
		amount  string
		created time.Time
		updated time.Time
	)
	if err := row.Scan(&id, &userID, &kind, &t.Coins, &amount, &t.Currency, &status,
		&t.Provider, &t.RechargeMethod, &t.Reference, &created, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return Transaction{}, fmt.Errorf("parse amount_local: %w", err)
	}
	t.ID = id.String()
	t.UserID = userID.String()
	t.Kind = Kind(kind)
	t.Status = Status(status)
	t.AmountLocal = parsed
	t.CreatedAt = created.UTC()
	t.UpdatedAt = updated.UTC()
	return t, nil
}

func collectTransactions(rows pgx.Rows) ([]Transaction, error) {
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
