package db

import (
	"context"
	"time"
)

const insertSettlement = `
INSERT INTO settlements (id, match_id, winner, pool_winner, pool_loser, forfeited, settled_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type InsertSettlementParams struct {
	ID         string
	MatchID    string
	Winner     string
	PoolWinner int64
	PoolLoser  int64
	Forfeited  int64
	SettledAt  time.Time
}

func (q *Queries) InsertSettlement(ctx context.Context, arg InsertSettlementParams) error {
	_, err := q.db.ExecContext(ctx, insertSettlement,
		arg.ID,
		arg.MatchID,
		arg.Winner,
		arg.PoolWinner,
		arg.PoolLoser,
		arg.Forfeited,
		arg.SettledAt,
	)
	return err
}

const insertSettlementPayout = `
INSERT INTO settlement_payouts (settlement_id, seq, bettor, side, stake, credit)
VALUES ($1, $2, $3, $4, $5, $6)
`

type InsertSettlementPayoutParams struct {
	SettlementID string
	Seq          int64
	Bettor       string
	Side         string
	Stake        int64
	Credit       int64
}

func (q *Queries) InsertSettlementPayout(ctx context.Context, arg InsertSettlementPayoutParams) error {
	_, err := q.db.ExecContext(ctx, insertSettlementPayout,
		arg.SettlementID,
		arg.Seq,
		arg.Bettor,
		arg.Side,
		arg.Stake,
		arg.Credit,
	)
	return err
}

const listSettlements = `
SELECT id, match_id, winner, pool_winner, pool_loser, forfeited, settled_at
FROM settlements
ORDER BY settled_at DESC
LIMIT $1
`

func (q *Queries) ListSettlements(ctx context.Context, limit int64) ([]Settlement, error) {
	rows, err := q.db.QueryContext(ctx, listSettlements, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Settlement
	for rows.Next() {
		var i Settlement
		if err := rows.Scan(
			&i.ID,
			&i.MatchID,
			&i.Winner,
			&i.PoolWinner,
			&i.PoolLoser,
			&i.Forfeited,
			&i.SettledAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listSettlementPayouts = `
SELECT settlement_id, seq, bettor, side, stake, credit
FROM settlement_payouts
WHERE settlement_id = $1
ORDER BY seq
`

func (q *Queries) ListSettlementPayouts(ctx context.Context, settlementID string) ([]SettlementPayout, error) {
	rows, err := q.db.QueryContext(ctx, listSettlementPayouts, settlementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SettlementPayout
	for rows.Next() {
		var i SettlementPayout
		if err := rows.Scan(
			&i.SettlementID,
			&i.Seq,
			&i.Bettor,
			&i.Side,
			&i.Stake,
			&i.Credit,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
