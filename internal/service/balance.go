package service

import (
	"context"
	"fmt"
	"scrim-manager/internal/balancer"
	"scrim-manager/internal/config"
	"scrim-manager/internal/domain"
	"scrim-manager/internal/roster"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// BalanceSession is the candidate list produced by the last balancing run
// together with the index currently applied to the roster.
type BalanceSession struct {
	Candidates []domain.Candidate
	Applied    int
}

type BalanceService struct {
	roster   *RosterService
	balancer *balancer.Balancer
	logger   zerolog.Logger

	mu          sync.Mutex
	session     *BalanceSession
	fingerprint string
}

func NewBalancer(cfg *config.Config) *balancer.Balancer {
	return balancer.New(balancer.Options{
		Samples:  cfg.BalanceSamples,
		Keep:     cfg.BalanceKeep,
		Strategy: balancer.Strategy(cfg.BalanceStrategy),
	})
}

func NewBalanceService(rosterService *RosterService, b *balancer.Balancer, logger zerolog.Logger) *BalanceService {
	return &BalanceService{roster: rosterService, balancer: b, logger: logger}
}

// Balance splits the whole roster, applies the best candidate and keeps the
// rest for ApplyCandidate.
func (s *BalanceService) Balance(ctx context.Context) (BalanceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		candidates  []domain.Candidate
		fingerprint string
	)
	err := s.roster.mutate(ctx, "balance", func(r *roster.Roster) error {
		var err error
		// the balancer owns its random source; the roster lock serializes it
		candidates, err = s.balancer.Balance(r.Players())
		if err != nil {
			return err
		}
		fingerprint = rosterFingerprint(r)
		r.Apply(candidates[0])
		return nil
	})
	if err != nil {
		return BalanceSession{}, err
	}

	s.roster.metrics.BalancerRuns.WithLabelValues(string(s.balancer.Strategy())).Inc()
	s.roster.metrics.BalancerImbalance.Observe(float64(candidates[0].Imbalance))

	s.session = &BalanceSession{Candidates: candidates}
	s.fingerprint = fingerprint

	s.logger.Info().
		Int("candidates", len(candidates)).
		Int("imbalance", candidates[0].Imbalance).
		Str("strategy", string(s.balancer.Strategy())).
		Msg("teams balanced")

	return cloneSession(*s.session), nil
}

func (s *BalanceService) Session() (BalanceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return BalanceSession{}, domain.ErrNoBalanceSession
	}
	return cloneSession(*s.session), nil
}

// ApplyCandidate overwrites every side assignment with the candidate at
// index. The session goes stale once a player is added, removed or rerated.
func (s *BalanceService) ApplyCandidate(ctx context.Context, index int) (domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return domain.Candidate{}, domain.ErrNoBalanceSession
	}
	if index < 0 || index >= len(s.session.Candidates) {
		return domain.Candidate{}, fmt.Errorf("%w: %d of %d", domain.ErrCandidateRange, index, len(s.session.Candidates))
	}
	c := s.session.Candidates[index]

	err := s.roster.mutate(ctx, "apply_candidate", func(r *roster.Roster) error {
		if rosterFingerprint(r) != s.fingerprint {
			return fmt.Errorf("%w: roster changed since balancing", domain.ErrNoBalanceSession)
		}
		r.Apply(c)
		return nil
	})
	if err != nil {
		return domain.Candidate{}, err
	}

	s.session.Applied = index
	s.logger.Info().Int("index", index).Int("imbalance", c.Imbalance).Msg("candidate applied")
	return c, nil
}

// rosterFingerprint identifies the players and ratings a session was built
// from. Side assignments are left out since applying a candidate changes them.
func rosterFingerprint(r *roster.Roster) string {
	parts := lo.Map(r.Players(), func(p domain.Player, _ int) string {
		return fmt.Sprintf("%s=%d", p.Name, p.Rating)
	})
	slices.Sort(parts)
	return strings.Join(parts, "\x00")
}

func cloneSession(s BalanceSession) BalanceSession {
	return BalanceSession{Candidates: slices.Clone(s.Candidates), Applied: s.Applied}
}
