package rates

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository reads and stores exchange rates.
type Repository interface {
	Get(ctx context.Context, country string) (Rate, error)
	List(ctx context.Context) ([]Rate, error)
	Upsert(ctx context.Context, rate Rate) error
}

// PostgresRepository reads the exchange_rates table.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed rate repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get fetches the rate for a country, matching the name case-insensitively.
func (r *PostgresRepository) Get(ctx context.Context, country string) (Rate, error) {
	row := r.db.QueryRow(ctx, `SELECT country_name, currency, recharge_rate::text
        FROM exchange_rates WHERE lower(country_name) = lower($1)`, country)
	rate, err := scanRate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rate{}, ErrNotFound
	}
	return rate, err
}

// List returns every configured rate ordered by country.
func (r *PostgresRepository) List(ctx context.Context) ([]Rate, error) {
	rows, err := r.db.Query(ctx, `SELECT country_name, currency, recharge_rate::text
        FROM exchange_rates ORDER BY country_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rate
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rate)
	}
	return out, rows.Err()
}

// Upsert stores rate, replacing any rate already configured for the country.
func (r *PostgresRepository) Upsert(ctx context.Context, rate Rate) error {
	_, err := r.db.Exec(ctx, `INSERT INTO exchange_rates (country_name, currency, recharge_rate, updated_at)
        VALUES ($1, $2, $3::numeric, now())
        ON CONFLICT (country_name) DO UPDATE
        SET currency = EXCLUDED.currency, recharge_rate = EXCLUDED.recharge_rate, updated_at = now()`,
		rate.CountryName, rate.Currency, rate.RechargeRate.String())
	return err
}

func scanRate(row pgx.Row) (Rate, error) {
	var (
		rate Rate
		raw  string
	)
	if err := row.Scan(&rate.CountryName, &rate.Currency, &raw); err != nil {
		return Rate{}, err
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		return Rate{}, fmt.Errorf("parse recharge_rate: %w", err)
	}
	rate.RechargeRate = parsed
	return rate, nil
}
