package repository

import (
	"context"
	"database/sql"
	"fmt"
	"scrim-manager/internal/constants"
	"scrim-manager/internal/db"
	"scrim-manager/internal/domain"
	"scrim-manager/internal/roster"

	"github.com/rs/zerolog"
)

type PlayerRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// WithTx returns a repository whose statements run on tx.
func (r *PlayerRepository) WithTx(tx *sql.Tx) *PlayerRepository {
	return &PlayerRepository{
		queries: r.queries.WithTx(tx),
		db:      r.db,
		logger:  r.logger,
	}
}

func (r *PlayerRepository) List(ctx context.Context) ([]domain.Player, error) {
	rows, err := r.queries.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}

	players := make([]domain.Player, len(rows))
	for i, p := range rows {
		players[i] = domain.Player{
			Name:      p.Name,
			Rating:    int(p.Rating),
			Hero:      p.Hero,
			Side:      domain.Side(p.Side),
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		}
	}
	return players, nil
}

func (r *PlayerRepository) LoadRoster(ctx context.Context) (*roster.Roster, error) {
	players, err := r.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return roster.New(players...), nil
}

// SaveRoster makes the players table match the roster: every player is
// upserted and rows for removed players are deleted. Call it on a
// transaction-bound repository so the load/mutate/save cycle is atomic.
func (r *PlayerRepository) SaveRoster(ctx context.Context, rs *roster.Roster) error {
	existing, err := r.queries.ListPlayers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list players: %w", err)
	}

	players := rs.Players()
	keep := make(map[string]struct{}, len(players))

	for i := 0; i < len(players); i += constants.DBBatchSize {
		end := min(i+constants.DBBatchSize, len(players))
		for _, p := range players[i:end] {
			keep[p.Name] = struct{}{}
			err := r.queries.UpsertPlayer(ctx, db.UpsertPlayerParams{
				Name:      p.Name,
				Rating:    int64(p.Rating),
				Hero:      p.Hero,
				Side:      string(p.Side),
				CreatedAt: p.CreatedAt.UTC(),
				UpdatedAt: p.UpdatedAt.UTC(),
			})
			if err != nil {
				return fmt.Errorf("failed to upsert player %s: %w", p.Name, err)
			}
		}
	}

	for _, row := range existing {
		if _, ok := keep[row.Name]; ok {
			continue
		}
		if err := r.queries.DeletePlayer(ctx, row.Name); err != nil {
			return fmt.Errorf("failed to delete player %s: %w", row.Name, err)
		}
		r.logger.Debug().Str("player", row.Name).Msg("player row deleted")
	}

	return nil
}
