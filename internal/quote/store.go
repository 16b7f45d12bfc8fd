package quote

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewFinalizedStore constructs a FinalizedStore backed by the finalized_quotes table.
func NewFinalizedStore(pool *pgxpool.Pool) FinalizedStore {
	return &pgFinalizedStore{pool: pool}
}

type pgFinalizedStore struct {
	pool *pgxpool.Pool
}

func (s *pgFinalizedStore) Save(ctx context.Context, record FinalizedQuote) (bool, error) {
	if s == nil || s.pool == nil {
		return false, errors.New("quote: database not configured")
	}
	option, err := json.Marshal(record.Option)
	if err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx, `INSERT INTO finalized_quotes
	(session_id, proposal_id, package_type, currency, final_total, option, finalized_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (session_id) DO NOTHING`,
		record.SessionID, record.ProposalID, record.PackageType.String(), record.Currency,
		record.FinalTotal, option, record.FinalizedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
