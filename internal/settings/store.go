package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-proposal/internal/pricing"
)

// ErrStoreUnavailable indicates the database dependency is not configured.
var ErrStoreUnavailable = errors.New("settings: store unavailable")

const globalScope = "global"

// Store persists global pricing settings and per-proposal overrides.
type Store interface {
	GetGlobal(ctx context.Context) (pricing.Settings, bool, error)
	PutGlobal(ctx context.Context, s pricing.Settings) error
	GetProposal(ctx context.Context, proposalID uuid.UUID) (pricing.ProposalSettings, bool, error)
	PutProposal(ctx context.Context, proposalID uuid.UUID, p pricing.ProposalSettings) error
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

func (s *pgStore) GetGlobal(ctx context.Context) (pricing.Settings, bool, error) {
	if s == nil || s.pool == nil {
		return pricing.Settings{}, false, ErrStoreUnavailable
	}
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM pricing_settings WHERE scope = $1`, globalScope).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.Settings{}, false, nil
		}
		return pricing.Settings{}, false, err
	}
	var out pricing.Settings
	if err := json.Unmarshal(raw, &out); err != nil {
		return pricing.Settings{}, false, fmt.Errorf("settings: decode global: %w", err)
	}
	return out, true, nil
}

func (s *pgStore) PutGlobal(ctx context.Context, settings pricing.Settings) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO pricing_settings (scope, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (scope) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`, globalScope, raw)
	return err
}

func (s *pgStore) GetProposal(ctx context.Context, proposalID uuid.UUID) (pricing.ProposalSettings, bool, error) {
	if s == nil || s.pool == nil {
		return pricing.ProposalSettings{}, false, ErrStoreUnavailable
	}
	var (
		inherit bool
		raw     []byte
	)
	err := s.pool.QueryRow(ctx, `SELECT inherit_from_global, custom FROM proposal_settings WHERE proposal_id = $1`, proposalID).Scan(&inherit, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.ProposalSettings{}, false, nil
		}
		return pricing.ProposalSettings{}, false, err
	}
	out := pricing.ProposalSettings{InheritFromGlobal: inherit}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.Custom); err != nil {
			return pricing.ProposalSettings{}, false, fmt.Errorf("settings: decode proposal %s: %w", proposalID, err)
		}
	}
	return out, true, nil
}

func (s *pgStore) PutProposal(ctx context.Context, proposalID uuid.UUID, p pricing.ProposalSettings) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	raw, err := json.Marshal(p.Custom)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO proposal_settings (proposal_id, inherit_from_global, custom, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (proposal_id) DO UPDATE SET inherit_from_global = EXCLUDED.inherit_from_global,
	custom = EXCLUDED.custom, updated_at = now()`, proposalID, p.InheritFromGlobal, raw)
	return err
}
