package service

import (
	"context"
	"database/sql"
	"errors"
	"scrim-manager/internal/config"
	"scrim-manager/internal/constants"
	"scrim-manager/internal/database"
	"scrim-manager/internal/domain"
	"scrim-manager/internal/ledger"
	"scrim-manager/internal/metrics"
	"scrim-manager/internal/repository"
	"strings"

	"github.com/rs/zerolog"
)

type LedgerService struct {
	db       *sql.DB
	repo     *repository.LedgerRepository
	steering ledger.Steering
	locks    *Locker
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewLedgerService(sqlDB *sql.DB, repo *repository.LedgerRepository, cfg *config.Config, locks *Locker, m *metrics.Metrics, logger zerolog.Logger) *LedgerService {
	return &LedgerService{
		db:       sqlDB,
		repo:     repo,
		steering: ledger.Steering(cfg.BetSteering),
		locks:    locks,
		metrics:  m,
		logger:   logger,
	}
}

func (s *LedgerService) PlaceBet(ctx context.Context, matchID, bettor string, amount int64, side domain.Side) (domain.Wager, error) {
	matchID, bettor, err := ledger.NormalizeTarget(matchID, bettor)
	if err != nil {
		s.metrics.BetsRejected.WithLabelValues(rejectReason(err)).Inc()
		return domain.Wager{}, err
	}

	unlock := s.locks.Lock(matchKey(matchID))
	defer unlock()
	unlockBettor := s.locks.Lock(bettorKey(bettor))
	defer unlockBettor()

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	var w domain.Wager
	err = database.InTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		w, err = ledger.New(s.repo.WithTx(tx), s.steering).PlaceBet(ctx, matchID, bettor, amount, side)
		return err
	})
	if err != nil {
		s.metrics.BetsRejected.WithLabelValues(rejectReason(err)).Inc()
		s.logger.Debug().Err(err).Str("match_id", matchID).Str("bettor", bettor).Int64("amount", amount).Msg("bet rejected")
		return domain.Wager{}, err
	}

	s.metrics.BetsPlaced.WithLabelValues(string(w.Side)).Inc()
	s.metrics.StakePlaced.WithLabelValues(string(w.Side)).Add(float64(w.Amount))
	s.logger.Info().
		Str("wager_id", w.ID).
		Str("match_id", w.MatchID).
		Str("bettor", w.Bettor).
		Int64("amount", w.Amount).
		Str("side", string(w.Side)).
		Msg("bet placed")
	return w, nil
}

func (s *LedgerService) ListBets(ctx context.Context, matchID string) ([]domain.Wager, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return ledger.New(s.repo, s.steering).ListBets(ctx, matchID)
}

func (s *LedgerService) Pools(ctx context.Context, matchID string) (ledger.Pools, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return ledger.New(s.repo, s.steering).Pools(ctx, matchID)
}

func (s *LedgerService) CancelUserBets(ctx context.Context, matchID, bettor string) (int64, error) {
	matchID, bettor, err := ledger.NormalizeTarget(matchID, bettor)
	if err != nil {
		return 0, err
	}

	unlock := s.locks.Lock(matchKey(matchID))
	defer unlock()
	unlockBettor := s.locks.Lock(bettorKey(bettor))
	defer unlockBettor()

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	var refund int64
	err = database.InTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		refund, err = ledger.New(s.repo.WithTx(tx), s.steering).CancelUserBets(ctx, matchID, bettor)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.metrics.Refunds.Add(float64(refund))
	s.logger.Info().Str("match_id", matchID).Str("bettor", bettor).Int64("refund", refund).Msg("bets cancelled")
	return refund, nil
}

func (s *LedgerService) Balance(ctx context.Context, bettor string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return ledger.New(s.repo, s.steering).Balance(ctx, bettor)
}

func (s *LedgerService) AdjustBalance(ctx context.Context, bettor string, delta int64) (int64, error) {
	bettor = strings.TrimSpace(bettor)
	if bettor == "" {
		return 0, domain.ErrInvalidBettor
	}

	unlock := s.locks.Lock(bettorKey(bettor))
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	var balance int64
	err := database.InTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		balance, err = ledger.New(s.repo.WithTx(tx), s.steering).AdjustBalance(ctx, bettor, delta)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info().Str("bettor", bettor).Int64("delta", delta).Int64("balance", balance).Msg("balance adjusted")
	return balance, nil
}

func (s *LedgerService) ListBalances(ctx context.Context) ([]repository.BettorBalance, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.repo.ListBalances(ctx)
}

func (s *LedgerService) ListOpenMatches(ctx context.Context) ([]repository.OpenMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.repo.ListOpenMatches(ctx)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrSideClosed):
		return "side_closed"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInvalidSide):
		return "invalid_side"
	case errors.Is(err, domain.ErrInvalidBettor), errors.Is(err, domain.ErrInvalidMatch):
		return "invalid_target"
	default:
		return "internal"
	}
}
