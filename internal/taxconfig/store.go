package taxconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-proposal/internal/pricing"
)

// ErrStoreUnavailable indicates the database dependency is not configured.
var ErrStoreUnavailable = errors.New("taxconfig: store unavailable")

// Store persists per-country tax reference data.
type Store interface {
	Get(ctx context.Context, countryCode string) (pricing.TaxConfig, bool, error)
	List(ctx context.Context) ([]pricing.TaxConfig, error)
	Upsert(ctx context.Context, cfg pricing.TaxConfig) error
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

const selectColumns = `SELECT country_code, active, rates, tds_threshold, tds_rate FROM tax_configs`

func (s *pgStore) Get(ctx context.Context, countryCode string) (pricing.TaxConfig, bool, error) {
	if s == nil || s.pool == nil {
		return pricing.TaxConfig{}, false, ErrStoreUnavailable
	}
	row := s.pool.QueryRow(ctx, selectColumns+` WHERE country_code = $1`, countryCode)
	cfg, err := scanConfig(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.TaxConfig{}, false, nil
		}
		return pricing.TaxConfig{}, false, err
	}
	return cfg, true, nil
}

func (s *pgStore) List(ctx context.Context) ([]pricing.TaxConfig, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}
	rows, err := s.pool.Query(ctx, selectColumns+` ORDER BY country_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pricing.TaxConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

func (s *pgStore) Upsert(ctx context.Context, cfg pricing.TaxConfig) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	rates, err := json.Marshal(cfg.Rates)
	if err != nil {
		return err
	}
	var threshold, rate *float64
	if cfg.TDS != nil {
		threshold, rate = &cfg.TDS.Threshold, &cfg.TDS.Rate
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO tax_configs (country_code, active, rates, tds_threshold, tds_rate, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (country_code) DO UPDATE SET active = EXCLUDED.active, rates = EXCLUDED.rates,
	tds_threshold = EXCLUDED.tds_threshold, tds_rate = EXCLUDED.tds_rate, updated_at = now()`,
		cfg.CountryCode, cfg.Active, rates, threshold, rate)
	return err
}

func scanConfig(row pgx.Row) (pricing.TaxConfig, error) {
	var (
		cfg       pricing.TaxConfig
		rates     []byte
		threshold *float64
		tdsRate   *float64
	)
	if err := row.Scan(&cfg.CountryCode, &cfg.Active, &rates, &threshold, &tdsRate); err != nil {
		return pricing.TaxConfig{}, err
	}
	if len(rates) > 0 {
		if err := json.Unmarshal(rates, &cfg.Rates); err != nil {
			return pricing.TaxConfig{}, fmt.Errorf("taxconfig: decode rates for %s: %w", cfg.CountryCode, err)
		}
	}
	if threshold != nil && tdsRate != nil {
		cfg.TDS = &pricing.TDSRule{Threshold: *threshold, Rate: *tdsRate}
	}
	return cfg, nil
}
