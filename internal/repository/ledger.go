package repository

import (
	"context"
	"database/sql"
	"errors"
	"scrim-manager/internal/db"
	"scrim-manager/internal/domain"
	"time"

	"github.com/rs/zerolog"
)

// LedgerRepository is the SQL implementation of ledger.Store.
type LedgerRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewLedgerRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *LedgerRepository {
	return &LedgerRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *LedgerRepository) WithTx(tx *sql.Tx) *LedgerRepository {
	return &LedgerRepository{
		queries: r.queries.WithTx(tx),
		db:      r.db,
		logger:  r.logger,
	}
}

func (r *LedgerRepository) LoadWagers(ctx context.Context, matchID string) ([]domain.Wager, error) {
	rows, err := r.queries.ListWagersByMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	wagers := make([]domain.Wager, len(rows))
	for i, w := range rows {
		wagers[i] = domain.Wager{
			ID:       w.ID,
			MatchID:  w.MatchID,
			Bettor:   w.Bettor,
			Amount:   w.Amount,
			Side:     domain.Side(w.Side),
			Position: int(w.Seq),
			PlacedAt: w.PlacedAt,
		}
	}
	return wagers, nil
}

func (r *LedgerRepository) SaveWager(ctx context.Context, w domain.Wager) error {
	return r.queries.InsertWager(ctx, db.InsertWagerParams{
		ID:       w.ID,
		MatchID:  w.MatchID,
		Bettor:   w.Bettor,
		Amount:   w.Amount,
		Side:     string(w.Side),
		Seq:      int64(w.Position),
		PlacedAt: w.PlacedAt.UTC(),
	})
}

func (r *LedgerRepository) DeleteWagers(ctx context.Context, matchID string) error {
	return r.queries.DeleteWagersByMatch(ctx, matchID)
}

func (r *LedgerRepository) DeleteBettorWagers(ctx context.Context, matchID, bettor string) error {
	return r.queries.DeleteWagersByMatchBettor(ctx, db.DeleteWagersByMatchBettorParams{
		MatchID: matchID,
		Bettor:  bettor,
	})
}

// GetBalance reports zero for bettors that have never been credited.
func (r *LedgerRepository) GetBalance(ctx context.Context, bettor string) (int64, error) {
	b, err := r.queries.GetBalance(ctx, bettor)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Debug().Str("bettor", bettor).Msg("no balance row, treating as zero")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return b.Amount, nil
}

func (r *LedgerRepository) SetBalance(ctx context.Context, bettor string, amount int64) error {
	return r.queries.UpsertBalance(ctx, db.UpsertBalanceParams{
		Bettor:    bettor,
		Amount:    amount,
		UpdatedAt: time.Now().UTC(),
	})
}

type BettorBalance struct {
	Bettor    string
	Amount    int64
	UpdatedAt time.Time
}

func (r *LedgerRepository) ListBalances(ctx context.Context) ([]BettorBalance, error) {
	rows, err := r.queries.ListBalances(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]BettorBalance, len(rows))
	for i, b := range rows {
		out[i] = BettorBalance{Bettor: b.Bettor, Amount: b.Amount, UpdatedAt: b.UpdatedAt}
	}
	return out, nil
}

type OpenMatch struct {
	MatchID    string
	WagerCount int
	PoolA      int64
	PoolB      int64
}

// ListOpenMatches summarizes every match that still has unsettled wagers.
func (r *LedgerRepository) ListOpenMatches(ctx context.Context) ([]OpenMatch, error) {
	rows, err := r.queries.ListOpenMatches(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]OpenMatch, len(rows))
	for i, m := range rows {
		out[i] = OpenMatch{MatchID: m.MatchID, WagerCount: int(m.WagerCount), PoolA: m.PoolA, PoolB: m.PoolB}
	}
	return out, nil
}
