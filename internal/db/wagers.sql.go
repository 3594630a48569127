package db

import (
	"context"
	"time"
)

const listWagersByMatch = `
SELECT id, match_id, bettor, amount, side, seq, placed_at
FROM wagers
WHERE match_id = $1
ORDER BY seq
`

func (q *Queries) ListWagersByMatch(ctx context.Context, matchID string) ([]Wager, error) {
	rows, err := q.db.QueryContext(ctx, listWagersByMatch, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Wager
	for rows.Next() {
		var i Wager
		if err := rows.Scan(
			&i.ID,
			&i.MatchID,
			&i.Bettor,
			&i.Amount,
			&i.Side,
			&i.Seq,
			&i.PlacedAt,
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

const insertWager = `
INSERT INTO wagers (id, match_id, bettor, amount, side, seq, placed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type InsertWagerParams struct {
	ID       string
	MatchID  string
	Bettor   string
	Amount   int64
	Side     string
	Seq      int64
	PlacedAt time.Time
}

func (q *Queries) InsertWager(ctx context.Context, arg InsertWagerParams) error {
	_, err := q.db.ExecContext(ctx, insertWager,
		arg.ID,
		arg.MatchID,
		arg.Bettor,
		arg.Amount,
		arg.Side,
		arg.Seq,
		arg.PlacedAt,
	)
	return err
}

const deleteWagersByMatch = `
DELETE FROM wagers WHERE match_id = $1
`

func (q *Queries) DeleteWagersByMatch(ctx context.Context, matchID string) error {
	_, err := q.db.ExecContext(ctx, deleteWagersByMatch, matchID)
	return err
}

const deleteWagersByMatchBettor = `
DELETE FROM wagers WHERE match_id = $1 AND bettor = $2
`

type DeleteWagersByMatchBettorParams struct {
	MatchID string
	Bettor  string
}

func (q *Queries) DeleteWagersByMatchBettor(ctx context.Context, arg DeleteWagersByMatchBettorParams) error {
	_, err := q.db.ExecContext(ctx, deleteWagersByMatchBettor, arg.MatchID, arg.Bettor)
	return err
}

const listOpenMatches = `
SELECT
    match_id,
    COUNT(*) AS wager_count,
    CAST(SUM(CASE WHEN side = 'A' THEN amount ELSE 0 END) AS BIGINT) AS pool_a,
    CAST(SUM(CASE WHEN side = 'B' THEN amount ELSE 0 END) AS BIGINT) AS pool_b
FROM wagers
GROUP BY match_id
ORDER BY match_id
`

func (q *Queries) ListOpenMatches(ctx context.Context) ([]OpenMatch, error) {
	rows, err := q.db.QueryContext(ctx, listOpenMatches)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OpenMatch
	for rows.Next() {
		var i OpenMatch
		if err := rows.Scan(
			&i.MatchID,
			&i.WagerCount,
			&i.PoolA,
			&i.PoolB,
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
