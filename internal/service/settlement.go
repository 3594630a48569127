package service

import (
	"context"
	"database/sql"
	"fmt"
	"scrim-manager/internal/config"
	"scrim-manager/internal/constants"
	"scrim-manager/internal/database"
	"scrim-manager/internal/domain"
	"scrim-manager/internal/metrics"
	"scrim-manager/internal/repository"
	"scrim-manager/internal/settlement"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const defaultSettlementLimit = 50

type SettlementService struct {
	db          *sql.DB
	ledger      *repository.LedgerRepository
	settlements *repository.SettlementRepository
	engine      *settlement.Engine
	locks       *Locker
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

func NewSettlementEngine(cfg *config.Config) (*settlement.Engine, error) {
	multiplier, err := settlement.ParseMultiplier(cfg.PayoutMultiplier)
	if err != nil {
		return nil, err
	}
	return settlement.NewEngine(multiplier, settlement.EmptyWinners(cfg.SettlementEmptyWinners)), nil
}

func NewSettlementService(
	sqlDB *sql.DB,
	ledgerRepo *repository.LedgerRepository,
	settlementRepo *repository.SettlementRepository,
	engine *settlement.Engine,
	locks *Locker,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *SettlementService {
	return &SettlementService{
		db:          sqlDB,
		ledger:      ledgerRepo,
		settlements: settlementRepo,
		engine:      engine,
		locks:       locks,
		metrics:     m,
		logger:      logger,
	}
}

// Settle pays out the match and clears its wagers. Settling a match with no
// wagers left is a no-op that returns an empty result.
func (s *SettlementService) Settle(ctx context.Context, matchID string, winner domain.Side) (domain.Settlement, error) {
	start := time.Now()
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return domain.Settlement{}, domain.ErrInvalidMatch
	}
	if !winner.Playable() {
		return domain.Settlement{}, fmt.Errorf("%w: %q", domain.ErrInvalidSide, winner)
	}

	unlock := s.locks.Lock(matchKey(matchID))
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	// the match lock keeps this set stable until the transaction commits
	wagers, err := s.ledger.LoadWagers(ctx, matchID)
	if err != nil {
		return domain.Settlement{}, fmt.Errorf("failed to load wagers: %w", err)
	}
	bettors := lo.Uniq(lo.Map(wagers, func(w domain.Wager, _ int) string { return bettorKey(w.Bettor) }))
	unlockBettors := s.locks.LockAll(bettors...)
	defer unlockBettors()

	var result domain.Settlement
	err = database.InTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		result, err = s.engine.Settle(ctx, s.ledger.WithTx(tx), matchID, winner)
		if err != nil {
			return err
		}
		if result.ID == "" {
			return nil
		}
		return s.settlements.WithTx(tx).Record(ctx, result)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("match_id", matchID).Msg("failed to settle match")
		return domain.Settlement{}, err
	}

	if result.ID == "" {
		s.logger.Info().Str("match_id", matchID).Msg("nothing to settle")
		return result, nil
	}

	credited := lo.SumBy(result.Payouts, func(p domain.Payout) int64 { return p.Credit })
	s.metrics.Settlements.WithLabelValues(string(winner)).Inc()
	s.metrics.PayoutsCredited.Add(float64(credited))
	s.metrics.PoolForfeited.Add(float64(result.Forfeited))
	s.metrics.SettlementDuration.Observe(time.Since(start).Seconds())

	s.logger.Info().
		Str("settlement_id", result.ID).
		Str("match_id", matchID).
		Str("winner", string(winner)).
		Int64("pool_winner", result.PoolWinner).
		Int64("pool_loser", result.PoolLoser).
		Int64("credited", credited).
		Int64("forfeited", result.Forfeited).
		Msg("match settled")
	return result, nil
}

func (s *SettlementService) List(ctx context.Context, limit int) ([]domain.Settlement, error) {
	if limit <= 0 {
		limit = defaultSettlementLimit
	}
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.settlements.List(ctx, limit)
}
