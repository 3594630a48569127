package service

import (
	"context"
	"database/sql"
	"fmt"
	"scrim-manager/internal/api"
	"scrim-manager/internal/constants"
	"scrim-manager/internal/database"
	"scrim-manager/internal/domain"
	"scrim-manager/internal/metrics"
	"scrim-manager/internal/repository"
	"scrim-manager/internal/roster"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type RosterService struct {
	db       *sql.DB
	repo     *repository.PlayerRepository
	opendota *api.OpenDotaClient
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	// the roster is one shared resource; every load/mutate/save cycle holds mu
	mu sync.Mutex
}

func NewRosterService(sqlDB *sql.DB, repo *repository.PlayerRepository, opendota *api.OpenDotaClient, m *metrics.Metrics, logger zerolog.Logger) *RosterService {
	return &RosterService{db: sqlDB, repo: repo, opendota: opendota, metrics: m, logger: logger}
}

type Totals struct {
	A         int
	B         int
	Imbalance int
}

func (s *RosterService) List(ctx context.Context) ([]domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	players, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list players")
		return nil, err
	}
	return players, nil
}

func (s *RosterService) Totals(ctx context.Context) (Totals, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	r, err := s.repo.LoadRoster(ctx)
	if err != nil {
		return Totals{}, err
	}
	t := Totals{A: r.TotalRating(domain.SideA), B: r.TotalRating(domain.SideB)}
	t.Imbalance = t.A - t.B
	if t.Imbalance < 0 {
		t.Imbalance = -t.Imbalance
	}
	return t, nil
}

func (s *RosterService) Add(ctx context.Context, name string, rating int) (domain.Player, error) {
	var p domain.Player
	err := s.mutate(ctx, "add", func(r *roster.Roster) error {
		var err error
		p, err = r.Add(name, rating)
		return err
	})
	if err != nil {
		return domain.Player{}, err
	}
	s.logger.Info().Str("player", p.Name).Int("rating", p.Rating).Str("tier", p.Tier().String()).Msg("player added")
	return p, nil
}

func (s *RosterService) Update(ctx context.Context, name string, rating int, hero string) (domain.Player, error) {
	var p domain.Player
	err := s.mutate(ctx, "update", func(r *roster.Roster) error {
		var err error
		p, err = r.Update(name, rating, hero)
		return err
	})
	if err != nil {
		return domain.Player{}, err
	}
	s.logger.Info().Str("player", p.Name).Int("rating", p.Rating).Str("hero", p.Hero).Msg("player updated")
	return p, nil
}

func (s *RosterService) Remove(ctx context.Context, name string) error {
	err := s.mutate(ctx, "remove", func(r *roster.Roster) error {
		return r.Remove(name)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("player", name).Msg("player removed")
	return nil
}

func (s *RosterService) Assign(ctx context.Context, name string, side domain.Side) error {
	err := s.mutate(ctx, "assign", func(r *roster.Roster) error {
		return r.Assign(name, side)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("player", name).Str("side", string(side)).Msg("player assigned")
	return nil
}

func (s *RosterService) Swap(ctx context.Context, name string) (domain.Side, error) {
	var side domain.Side
	err := s.mutate(ctx, "swap", func(r *roster.Roster) error {
		var err error
		side, err = r.Swap(name)
		return err
	})
	if err != nil {
		return domain.SideUnassigned, err
	}
	s.logger.Info().Str("player", name).Str("side", string(side)).Msg("player swapped")
	return side, nil
}

type ImportResult struct {
	AccountID int64
	Player    domain.Player
	Created   bool
}

// Import fetches each account's rank from OpenDota and registers or re-rates
// the player under their display name. All fetches must succeed before the
// roster is touched.
func (s *RosterService) Import(ctx context.Context, accountIDs []int64) ([]ImportResult, error) {
	if len(accountIDs) > constants.ImportMaxAccounts {
		return nil, fmt.Errorf("cannot import more than %d accounts at once", constants.ImportMaxAccounts)
	}

	type fetched struct {
		name   string
		rating int
	}
	results := make([]fetched, len(accountIDs))

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	g, gCtx := errgroup.WithContext(apiCtx)
	g.SetLimit(constants.ImportConcurrency)
	for i, id := range accountIDs {
		g.Go(func() error {
			resp, err := s.opendota.GetPlayer(gCtx, id)
			if err != nil {
				return fmt.Errorf("account %d: %w", id, err)
			}
			if resp.RankTier == nil {
				return fmt.Errorf("account %d: %w", id, domain.ErrInvalidRating)
			}
			rating, ok := domain.RatingForRankTier(*resp.RankTier)
			if !ok {
				return fmt.Errorf("account %d rank_tier %d: %w", id, *resp.RankTier, domain.ErrInvalidRating)
			}
			name := resp.DisplayName()
			if name == "" {
				name = strconv.FormatInt(id, 10)
			}
			results[i] = fetched{name: name, rating: rating}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Int("accounts", len(accountIDs)).Msg("failed to fetch accounts")
		return nil, err
	}

	out := make([]ImportResult, len(accountIDs))
	err := s.mutate(ctx, "import", func(r *roster.Roster) error {
		for i, f := range results {
			existing, err := r.Get(f.name)
			if err == nil {
				p, err := r.Update(f.name, f.rating, existing.Hero)
				if err != nil {
					return err
				}
				out[i] = ImportResult{AccountID: accountIDs[i], Player: p}
				continue
			}
			p, err := r.Add(f.name, f.rating)
			if err != nil {
				return err
			}
			out[i] = ImportResult{AccountID: accountIDs[i], Player: p, Created: true}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int("accounts", len(accountIDs)).Msg("players imported")
	return out, nil
}

// mutate loads the roster, applies fn and saves it in one transaction.
func (s *RosterService) mutate(ctx context.Context, op string, fn func(r *roster.Roster) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	err := database.InTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)
		r, err := repo.LoadRoster(ctx)
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
		return repo.SaveRoster(ctx, r)
	})
	if err != nil {
		s.logger.Debug().Err(err).Str("op", op).Msg("roster mutation failed")
		return err
	}

	s.metrics.RosterMutations.WithLabelValues(op).Inc()
	return nil
}
