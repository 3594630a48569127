package db

import (
	"context"
	"time"
)

const listPlayers = `
SELECT name, rating, hero, side, created_at, updated_at
FROM players
ORDER BY name
`

func (q *Queries) ListPlayers(ctx context.Context) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx, listPlayers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Player
	for rows.Next() {
		var i Player
		if err := rows.Scan(
			&i.Name,
			&i.Rating,
			&i.Hero,
			&i.Side,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const upsertPlayer = `
INSERT INTO players (name, rating, hero, side, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (name) DO UPDATE SET
    rating = excluded.rating,
    hero = excluded.hero,
    side = excluded.side,
    updated_at = excluded.updated_at
`

type UpsertPlayerParams struct {
	Name      string
	Rating    int64
	Hero      string
	Side      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) UpsertPlayer(ctx context.Context, arg UpsertPlayerParams) error {
	_, err := q.db.ExecContext(ctx, upsertPlayer,
		arg.Name,
		arg.Rating,
		arg.Hero,
		arg.Side,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const deletePlayer = `
DELETE FROM players WHERE name = $1
`

func (q *Queries) DeletePlayer(ctx context.Context, name string) error {
	_, err := q.db.ExecContext(ctx, deletePlayer, name)
	return err
}
