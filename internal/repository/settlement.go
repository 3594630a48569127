package repository

import (
	"context"
	"database/sql"
	"fmt"
	"scrim-manager/internal/db"
	"scrim-manager/internal/domain"

	"github.com/rs/zerolog"
)

type SettlementRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewSettlementRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *SettlementRepository {
	return &SettlementRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *SettlementRepository) WithTx(tx *sql.Tx) *SettlementRepository {
	return &SettlementRepository{
		queries: r.queries.WithTx(tx),
		db:      r.db,
		logger:  r.logger,
	}
}

// Record stores a settlement and its per-wager payouts.
func (r *SettlementRepository) Record(ctx context.Context, s domain.Settlement) error {
	err := r.queries.InsertSettlement(ctx, db.InsertSettlementParams{
		ID:         s.ID,
		MatchID:    s.MatchID,
		Winner:     string(s.Winner),
		PoolWinner: s.PoolWinner,
		PoolLoser:  s.PoolLoser,
		Forfeited:  s.Forfeited,
		SettledAt:  s.SettledAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	for i, p := range s.Payouts {
		err := r.queries.InsertSettlementPayout(ctx, db.InsertSettlementPayoutParams{
			SettlementID: s.ID,
			Seq:          int64(i + 1),
			Bettor:       p.Bettor,
			Side:         string(p.Side),
			Stake:        p.Stake,
			Credit:       p.Credit,
		})
		if err != nil {
			return fmt.Errorf("failed to insert payout for %s: %w", p.Bettor, err)
		}
	}
	return nil
}

func (r *SettlementRepository) List(ctx context.Context, limit int) ([]domain.Settlement, error) {
	rows, err := r.queries.ListSettlements(ctx, int64(limit))
	if err != nil {
		return nil, err
	}

	out := make([]domain.Settlement, len(rows))
	for i, row := range rows {
		payouts, err := r.queries.ListSettlementPayouts(ctx, row.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list payouts for %s: %w", row.ID, err)
		}

		s := domain.Settlement{
			ID:         row.ID,
			MatchID:    row.MatchID,
			Winner:     domain.Side(row.Winner),
			PoolWinner: row.PoolWinner,
			PoolLoser:  row.PoolLoser,
			Forfeited:  row.Forfeited,
			SettledAt:  row.SettledAt,
		}
		for _, p := range payouts {
			s.Payouts = append(s.Payouts, domain.Payout{
				Bettor: p.Bettor,
				Side:   domain.Side(p.Side),
				Stake:  p.Stake,
				Credit: p.Credit,
			})
		}
		out[i] = s
	}
	return out, nil
}
