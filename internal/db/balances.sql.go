package db

import (
	"context"
	"time"
)

const getBalance = `
SELECT bettor, amount, updated_at FROM balances WHERE bettor = $1
`

func (q *Queries) GetBalance(ctx context.Context, bettor string) (Balance, error) {
	row := q.db.QueryRowContext(ctx, getBalance, bettor)
	var i Balance
	err := row.Scan(&i.Bettor, &i.Amount, &i.UpdatedAt)
	return i, err
}

const upsertBalance = `
INSERT INTO balances (bettor, amount, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (bettor) DO UPDATE SET
    amount = excluded.amount,
    updated_at = excluded.updated_at
`

type UpsertBalanceParams struct {
	Bettor    string
	Amount    int64
	UpdatedAt time.Time
}

func (q *Queries) UpsertBalance(ctx context.Context, arg UpsertBalanceParams) error {
	_, err := q.db.ExecContext(ctx, upsertBalance, arg.Bettor, arg.Amount, arg.UpdatedAt)
	return err
}

const listBalances = `
SELECT bettor, amount, updated_at FROM balances ORDER BY bettor
`

func (q *Queries) ListBalances(ctx context.Context) ([]Balance, error) {
	rows, err := q.db.QueryContext(ctx, listBalances)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Balance
	for rows.Next() {
		var i Balance
		if err := rows.Scan(&i.Bettor, &i.Amount, &i.UpdatedAt); err != nil {
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
